package main

import (
	"context"
	"errors"

	"github.com/medtrack/pointsapi/internal/config"
	"github.com/medtrack/pointsapi/internal/db"
	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Seeds a demo organization with a user, two locations, and a starter set of
// appointment types. Safe to re-run: everything keys off the org slug.
func main() {
	ctx := context.Background()

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

	orgRepo := repository.NewOrganizationRepository(conn.Pool)
	userRepo := repository.NewUserRepository(conn.Pool)
	locationRepo := repository.NewLocationRepository(conn.Pool)
	typeRepo := repository.NewAppointmentTypeRepository(conn.Pool)

	org, err := orgRepo.GetBySlug(ctx, "demo-clinic")
	if errors.Is(err, repository.ErrNotFound) {
		org, err = orgRepo.Create(ctx, domain.NewOrganization("Demo Clinic Group", "demo-clinic"))
	}
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed organization")
	}
	logrus.WithField("organization_id", org.ID).Info("organization ready")

	if _, err := userRepo.GetByEmail(ctx, "admin@demo-clinic.test"); errors.Is(err, repository.ErrNotFound) {
		user := domain.NewUser(org.ID, "admin@demo-clinic.test", "Demo Admin", "admin")
		if _, err := userRepo.Create(ctx, user); err != nil {
			logrus.WithError(err).Fatal("failed to seed user")
		}
		logrus.WithField("user_id", user.ID).Info("user created")
	}

	locations := []domain.Location{
		newLocation(org, "Main Clinic", "Casey Morgan", 12),
		newLocation(org, "West Dermatology", "Jordan Lee", 8),
	}
	for _, location := range locations {
		if _, err := locationRepo.GetByName(ctx, org.ID, location.Name); err == nil {
			continue
		}
		if _, err := locationRepo.Create(ctx, location); err != nil {
			logrus.WithError(err).WithField("name", location.Name).Fatal("failed to seed location")
		}
		logrus.WithField("name", location.Name).Info("location created")
	}

	existing, err := typeRepo.List(ctx, org.ID)
	if err != nil {
		logrus.WithError(err).Fatal("failed to list appointment types")
	}
	seen := map[string]bool{}
	for _, t := range existing {
		seen[t.Name] = true
	}

	typeValues := map[string]string{
		"New Patient":  "2.00",
		"Follow Up":    "1.00",
		"Botox":        "3.00",
		"Laser":        "5.25",
		"Full Body":    "1.50",
		"Surgery Site": "0.75",
	}
	for name, value := range typeValues {
		if seen[name] {
			continue
		}
		t := domain.NewAppointmentType(org.ID, name, decimal.RequireFromString(value))
		if _, err := typeRepo.Create(ctx, t); err != nil {
			logrus.WithError(err).WithField("name", name).Fatal("failed to seed appointment type")
		}
		logrus.WithField("name", name).Info("appointment type created")
	}

	logrus.Info("seed complete")
}

func newLocation(org domain.Organization, name, manager string, employees int) domain.Location {
	location := domain.NewLocation(org.ID, name)
	location.ManagerName = manager
	location.NumEmployees = employees
	return location
}
