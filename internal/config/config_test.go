package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvPersonaID, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "santacall.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearCredentials(t)
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://tavusapi.com/v2", cfg.Provider.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Provider.PingTimeout)
	assert.Equal(t, 60, cfg.Provider.ParticipantLeftTimeout)
	assert.False(t, cfg.Provider.EnableRecording)
	assert.Equal(t, []string{"5min", "10min"}, cfg.Arcs.SupportedDurations)
	assert.Equal(t, 2, cfg.Calls.MinAge)
	assert.Equal(t, 12, cfg.Calls.MaxAge)
	assert.Equal(t, 50, cfg.Calls.MaxNameLength)
	assert.Equal(t, "random", cfg.Greeting.Selection)
	assert.Equal(t, "UTC", cfg.Analytics.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Health.ProbeCacheTTL)
	assert.Equal(t, []string{EnvAPIKey, EnvPersonaID}, cfg.MissingCredentials())
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	clearCredentials(t)
	path := writeConfig(t, `
[server]
port = 9000

[provider]
api_key = "from-file"
timeout = "12s"

[calls]
max_age = 10

[greeting]
selection = "first"
`)
	t.Setenv("SANTACALL_SERVER__PORT", "9100")
	t.Setenv("SANTACALL_LOG__LEVEL", "debug")
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvPersonaID, "persona-1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 12*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 10, cfg.Calls.MaxAge)
	assert.Equal(t, "first", cfg.Greeting.Selection)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.Equal(t, "persona-1", cfg.Provider.PersonaID)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "provider.rate_limit", envKey("SANTACALL_PROVIDER__RATE_LIMIT"))
	assert.Equal(t, "server.cors_origins", envKey("SANTACALL_SERVER__CORS_ORIGINS"))
}

func TestValidate(t *testing.T) {
	clearCredentials(t)
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Calls.MinAge = 8
	cfg.Calls.MaxAge = 4
	cfg.Greeting.Selection = "loudest"
	cfg.Analytics.Timezone = "Mars/Olympus_Mons"
	cfg.Arcs.SupportedDurations = nil

	err = Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{"server.port", "age range 8-4", "greeting.selection", "analytics.timezone", "supported_durations"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestInitConfig(t *testing.T) {
	clearCredentials(t)
	path := filepath.Join(t.TempDir(), "santacall.toml")
	require.NoError(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))

	assert.Error(t, InitConfig(path))
}
