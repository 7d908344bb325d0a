// Package config загружает настройки сервиса из YAML и переменных окружения.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Store         StoreConfig         `yaml:"store"`
	Growth        GrowthConfig        `yaml:"growth"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Telegram      TelegramConfig      `yaml:"telegram"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	// APIToken проверяется как bearer-токен на всех маршрутах, кроме /health и /metrics. Пустой токен отключает проверку.
	APIToken string `yaml:"api_token"`
	// MaxUploadMB ограничивает размер загружаемого видео.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	FeedLimit   int    `yaml:"feed_limit"`
}

type GrowthConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// PersistPlans сохраняет цели и пул комментариев между перезагрузками.
	PersistPlans bool   `yaml:"persist_plans"`
	PlanDir      string `yaml:"plan_dir"`
	PoolWorkers  int    `yaml:"pool_workers"`
}

type NotificationsConfig struct {
	Display time.Duration `yaml:"display"`
	History int           `yaml:"history"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	BotToken    string `yaml:"bot_token"`
	Chat        string `yaml:"chat"`
	SessionPath string `yaml:"session_path"`

	// RetryDelay: пауза перед переподключением, секунды [min, max].
	RetryDelay [2]int `yaml:"retry_delay"`
	// Proxy задаёт SOCKS5-прокси host:port для подключения к Telegram.
	Proxy         string `yaml:"proxy"`
	ProxyUser     string `yaml:"proxy_user"`
	ProxyPassword string `yaml:"proxy_password"`
}

// Default возвращает настройки по умолчанию.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			MaxUploadMB: 64,
		},
		Log: LogConfig{Level: "info"},
		Store: StoreConfig{
			Driver:    DriverPostgres,
			FeedLimit: 50,
		},
		Growth: GrowthConfig{
			TickInterval: 5 * time.Second,
			PersistPlans: true,
			PlanDir:      "data/plans",
			PoolWorkers:  4,
		},
		Notifications: NotificationsConfig{
			Display: 3 * time.Second,
			History: 200,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 20 * time.Second,
			RPS:     1,
			Burst:   2,
		},
		Telegram: TelegramConfig{
			SessionPath: "data/telegram.session.json",
			RetryDelay:  [2]int{5, 30},
		},
	}
}

// Load читает YAML-файл поверх значений по умолчанию и применяет переменные окружения.
// Отсутствующий файл не считается ошибкой; пустой path означает «только окружение».
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет настройки переменными окружения.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("ENVIRONMENT", &c.Server.Environment)
	str("API_TOKEN", &c.Server.APIToken)
	str("LOG_LEVEL", &c.Log.Level)
	str("STORE_DRIVER", &c.Store.Driver)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("SUPABASE_URL", &c.Store.SupabaseURL)
	str("SUPABASE_KEY", &c.Store.SupabaseKey)
	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("GEMINI_MODEL", &c.Gemini.Model)
	str("TELEGRAM_API_HASH", &c.Telegram.APIHash)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT", &c.Telegram.Chat)
	str("TELEGRAM_PROXY", &c.Telegram.Proxy)

	if v, ok := lookup("TELEGRAM_API_ID"); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "TELEGRAM_API_ID")
		}
		c.Telegram.APIID = id
	}
	if v, ok := lookup("TELEGRAM_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "TELEGRAM_ENABLED")
		}
		c.Telegram.Enabled = enabled
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url is required for postgres driver (set DATABASE_URL)")
		}
	case DriverSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return errors.New("store.supabase_url and store.supabase_key are required for supabase driver")
		}
	default:
		return errors.Errorf("unknown store driver %q (valid: %s, %s)", c.Store.Driver, DriverPostgres, DriverSupabase)
	}
	if c.Growth.TickInterval <= 0 {
		return errors.New("growth.tick_interval must be positive")
	}
	if c.Growth.PersistPlans && c.Growth.PlanDir == "" {
		return errors.New("growth.plan_dir is required when persist_plans is on")
	}
	if c.Telegram.Enabled {
		if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" || c.Telegram.BotToken == "" || c.Telegram.Chat == "" {
			return errors.New("telegram relay needs api_id, api_hash, bot_token and chat")
		}
		// Верхняя граница 0 означает переподключение без паузы
		if c.Telegram.RetryDelay[0] < 0 || c.Telegram.RetryDelay[1] <= 0 || c.Telegram.RetryDelay[1] < c.Telegram.RetryDelay[0] {
			return errors.Errorf("telegram.retry_delay %v is not a valid range", c.Telegram.RetryDelay)
		}
	}
	return nil
}

// IsProduction сообщает, запущен ли сервис в боевом окружении.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
