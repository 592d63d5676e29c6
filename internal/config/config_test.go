package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "santa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
operator_id: "1001"
db: /var/lib/santa/santa.db
locale: en
max_trials: 50
shutdown_timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1001", cfg.OperatorID)
	assert.Equal(t, "/var/lib/santa/santa.db", cfg.DB)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 50, cfg.MaxTrials)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ":8080", cfg.Listen, "unset keys keep defaults")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "operator_id: file\nlocale: en\n")
	t.Setenv("SANTA_OPERATOR_ID", "env")
	t.Setenv("SANTA_SEND_BUFFER", "64")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.OperatorID)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, "en", cfg.Locale, "unset variables keep file values")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "open config")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "operator: 1\n"))
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("SANTA_MAX_TRIALS", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "parse env")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(writeConfig(t, "max_trials: 0\n"))
		assert.ErrorContains(t, err, "max_trials must be at least 1")
	})
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	for _, want := range []string{"db path", "listen address", "max_trials", "send_buffer", "shutdown_timeout"} {
		assert.ErrorContains(t, err, want)
	}
}
