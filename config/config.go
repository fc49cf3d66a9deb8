// Package config loads server settings from defaults, an optional .env file
// and DUES_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/warp/dues-engine/notify"
)

const EnvPrefix = "DUES"

type Config struct {
	Port           int
	DBDriver       string
	DBDSN          string
	LogLevel       string
	SweepSchedule  string
	SweepEnabled   bool
	AllowedOrigins []string
	SMTP           notify.SMTPConfig
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_driver", "sqlite3")
	v.SetDefault("db_dsn", "dues.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("sweep_schedule", "@hourly")
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("sender_email", "noreply@localhost")
}

// Load reads configuration. dotEnvPath may be empty; a missing file is
// ignored.
func Load(dotEnvPath string) (*Config, error) {
	// load .env if it exists (ignore if it does not)
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetInt("port"),
		DBDriver:       v.GetString("db_driver"),
		DBDSN:          v.GetString("db_dsn"),
		LogLevel:       v.GetString("log_level"),
		SweepSchedule:  v.GetString("sweep_schedule"),
		SweepEnabled:   v.GetBool("sweep_enabled"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		SMTP: notify.SMTPConfig{
			Host:        v.GetString("smtp_host"),
			Port:        v.GetInt("smtp_port"),
			Username:    v.GetString("smtp_user"),
			Password:    v.GetString("smtp_password"),
			SenderEmail: v.GetString("sender_email"),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return errors.Errorf("config: unsupported db_driver %q", c.DBDriver)
	}
	if c.Port <= 0 {
		return errors.Errorf("config: invalid port %d", c.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config: log_level")
	}
	return nil
}

// NewLogger builds the JSON logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
