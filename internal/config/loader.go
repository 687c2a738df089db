package config

import (
	"github.com/medtrack/pointsapi/internal/db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config carries all runtime settings for the service.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	LogLevel       string
	MigrationsPath string
	Database       db.Config
}

// Load reads config.yaml from the given path, with environment overrides
// (APP_ prefix, e.g. APP_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
		MigrationsPath: "./migrations",
		Database:       db.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	v.BindEnv("server.addr")
	v.BindEnv("server.allowed_origins")
	v.BindEnv("log.level")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("migrations.path")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found; defaults + env vars still apply.
		logrus.Info("no config.yaml found, using defaults and env vars")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Info("loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("log.level") {
		cfg.LogLevel = v.GetString("log.level")
	}
	if v.IsSet("migrations.path") {
		cfg.MigrationsPath = v.GetString("migrations.path")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}

// ConfigureLogging applies the configured log level and JSON output format.
func ConfigureLogging(cfg Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
