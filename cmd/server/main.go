package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medtrack/pointsapi/internal/appointments"
	"github.com/medtrack/pointsapi/internal/config"
	"github.com/medtrack/pointsapi/internal/db"
	"github.com/medtrack/pointsapi/internal/ingestion"
	"github.com/medtrack/pointsapi/internal/middleware"
	"github.com/medtrack/pointsapi/internal/reporting"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	config.ConfigureLogging(cfg)

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	locationRepo := repository.NewLocationRepository(conn.Pool)
	typeRepo := repository.NewAppointmentTypeRepository(conn.Pool)
	uploadRepo := repository.NewUploadRepository(conn)
	appointmentRepo := repository.NewAppointmentRepository(conn.Pool)

	ingestionService := ingestion.NewService(typeRepo, locationRepo, uploadRepo)
	reportingService := reporting.NewService(appointmentRepo, locationRepo)
	appointmentService := appointments.NewService(appointmentRepo, typeRepo, locationRepo)

	mux := http.NewServeMux()
	uploadHandler := ingestion.NewHTTPHandler(ingestionService, uploadRepo)
	mux.Handle("/api/uploads", uploadHandler)
	mux.Handle("/api/uploads/", uploadHandler)
	mux.Handle("/api/reports/", reporting.NewHTTPHandler(reportingService))
	appointmentHandler := appointments.NewHTTPHandler(appointmentService)
	mux.Handle("/api/appointments", appointmentHandler)
	mux.Handle("/api/appointments/", appointmentHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.Logging(
			middleware.OrganizationScope(mux),
		),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exited")
}
