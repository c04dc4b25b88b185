package worker

import (
	"time"

	"github.com/lzjever/streaming-lag/internal/config"
)

type Config struct {
	DBDSN          string        `envconfig:"LAG_DB_DSN"`
	MetricsAddr    string        `envconfig:"LAG_METRICS_ADDR" default:"0.0.0.0:9187"`
	LogLevel       string        `envconfig:"LAG_LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LAG_LOG_FORMAT" default:"json"`
	SettingsFile   string        `envconfig:"LAG_SETTINGS_FILE"`
	ConnectTimeout time.Duration `envconfig:"LAG_CONNECT_TIMEOUT" default:"10s"`
	SupervisorPoll time.Duration `envconfig:"LAG_SUPERVISOR_POLL" default:"1s"`

	Database  string `envconfig:"LAG_DATABASE" default:"postgres"`
	Schema    string `envconfig:"LAG_SCHEMA" default:"public"`
	Precision int    `envconfig:"LAG_PRECISION" default:"5000"`
}

// Loader returns the settings loader seeded from the environment.
func (c Config) Loader() config.Loader {
	return config.Loader{
		Base: config.Settings{
			Database:  c.Database,
			Schema:    c.Schema,
			Precision: c.Precision,
		},
		Path: c.SettingsFile,
	}
}
