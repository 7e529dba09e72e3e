package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "eyecare"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Backup BackupConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EYECARE_APP_ENV" default:"dev"`
	Port         string `envconfig:"EYECARE_APP_PORT" default:"8750"`
	LogLevel     string `envconfig:"EYECARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EYECARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// Path is the SQLite database file. ":memory:" keeps the store ephemeral,
	// which is only useful for tests and demos.
	Path        string        `envconfig:"EYECARE_DB_PATH" default:"eyecare.db"`
	BusyTimeout time.Duration `envconfig:"EYECARE_DB_BUSY_TIMEOUT" default:"5s"`
	AutoMigrate bool          `envconfig:"EYECARE_DB_AUTO_MIGRATE" default:"true"`
}

// DSN renders the sqlite connection string with the busy timeout applied.
func (d DBConfig) DSN() string {
	path := d.Path
	if path == "" {
		path = "eyecare.db"
	}
	timeoutMS := int64(d.BusyTimeout / time.Millisecond)
	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	if path == ":memory:" {
		return fmt.Sprintf("file::memory:?cache=shared&_busy_timeout=%d", timeoutMS)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_fk=1", path, timeoutMS)
}

type BackupConfig struct {
	// MaxImportBytes caps the size of an uploaded backup file.
	MaxImportBytes int64 `envconfig:"EYECARE_BACKUP_MAX_IMPORT_BYTES" default:"10485760"`
}
