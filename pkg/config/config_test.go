package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "8750", cfg.App.Port)
	assert.True(t, cfg.App.IsDev())
	assert.False(t, cfg.App.IsProd())
	assert.Equal(t, "eyecare.db", cfg.DB.Path)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, int64(10485760), cfg.Backup.MaxImportBytes)
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("EYECARE_APP_ENV", "prod")
	t.Setenv("EYECARE_DB_PATH", "/data/eyecare.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProd())
	assert.Equal(t, "/data/eyecare.db", cfg.DB.Path)
}

func TestDBConfigDSN(t *testing.T) {
	file := DBConfig{Path: "eyecare.db", BusyTimeout: 5 * time.Second}
	assert.Equal(t, "file:eyecare.db?_busy_timeout=5000&_fk=1", file.DSN())

	memory := DBConfig{Path: ":memory:", BusyTimeout: time.Second}
	assert.Equal(t, "file::memory:?cache=shared&_busy_timeout=1000", memory.DSN())

	// Zero values fall back to the defaults.
	blank := DBConfig{}
	assert.Equal(t, "file:eyecare.db?_busy_timeout=5000&_fk=1", blank.DSN())
}
