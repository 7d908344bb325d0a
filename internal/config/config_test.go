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
	path := filepath.Join(t.TempDir(), "zentok.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
store:
  driver: supabase
  supabase_url: https://demo.supabase.co
  supabase_key: anon
growth:
  tick_interval: 2s
  persist_plans: false
notifications:
  display: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverSupabase, cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Growth.TickInterval)
	assert.False(t, cfg.Growth.PersistPlans)
	assert.Equal(t, 5*time.Second, cfg.Notifications.Display)
	assert.Equal(t, 200, cfg.Notifications.History, "незаданные поля берутся из умолчаний")
	assert.Equal(t, 4, cfg.Growth.PoolWorkers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/zentok")
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, "postgres://localhost/zentok", cfg.Store.DatabaseURL)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	env := map[string]string{"TELEGRAM_API_ID": "abc"}
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"postgres without dsn": func(c *Config) { c.Store.DatabaseURL = "" },
		"unknown driver":       func(c *Config) { c.Store.Driver = "mongo" },
		"zero tick":            func(c *Config) { c.Growth.TickInterval = 0 },
		"persist without dir":  func(c *Config) { c.Growth.PlanDir = "" },
		"telegram incomplete":  func(c *Config) { c.Telegram.Enabled = true },
		"bad retry range": func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, APIID: 1, APIHash: "h", BotToken: "t", Chat: "@c", RetryDelay: [2]int{10, 1}}
		},
		"zero retry delay": func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, APIID: 1, APIHash: "h", BotToken: "t", Chat: "@c", RetryDelay: [2]int{0, 0}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.DatabaseURL = "postgres://localhost/zentok"
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Store.DatabaseURL = "postgres://localhost/zentok"
	assert.NoError(t, cfg.Validate())
}

func TestLoadBrokenYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}
