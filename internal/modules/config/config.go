package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	envPrefix         = "DESK"
	defaultConfigFile = "configs/values_local.yaml"

	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config ...
type Config struct {
	Service struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"service"`

	API struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`

	Session struct {
		Store     string `mapstructure:"store"` // file | postgres
		TokenPath string `mapstructure:"token_path"`
		TokenKey  string `mapstructure:"token_key"`
		DBDSN     string `mapstructure:"db_dsn"`
	} `mapstructure:"session"`

	Polling struct {
		Prices  time.Duration `mapstructure:"prices"`
		Signals time.Duration `mapstructure:"signals"`
		Account time.Duration `mapstructure:"account"` // challenge, positions, trades
	} `mapstructure:"polling"`

	Limits struct {
		ProfitTargetPct   float64 `mapstructure:"profit_target_pct"`
		DailyLossLimitPct float64 `mapstructure:"daily_loss_limit_pct"`
	} `mapstructure:"limits"`

	View struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"view"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"tracing"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "challenge-desk")

	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "10s")

	v.SetDefault("session.store", StoreFile)
	v.SetDefault("session.token_path", "data/session.json")
	v.SetDefault("session.token_key", "token")
	v.SetDefault("session.db_dsn", "")

	v.SetDefault("polling.prices", "30s")
	v.SetDefault("polling.signals", "60s")
	v.SetDefault("polling.account", "30s")

	v.SetDefault("limits.profit_target_pct", 10.0)
	v.SetDefault("limits.daily_loss_limit_pct", 5.0)

	v.SetDefault("view.enabled", true)
	v.SetDefault("view.addr", ":8080")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// NewConfig reads .env, the yaml file named by CONFIG_FILE and DESK_*
// variables, in increasing order of precedence. A missing file is fine.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(configFilePathENV)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// legacy variable names
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Session.DBDSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute url", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Polling.Prices <= 0 || c.Polling.Signals <= 0 || c.Polling.Account <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if c.Limits.ProfitTargetPct <= 0 {
		return fmt.Errorf("limits.profit_target_pct must be positive")
	}
	if c.Limits.DailyLossLimitPct <= 0 {
		return fmt.Errorf("limits.daily_loss_limit_pct must be positive")
	}
	switch c.Session.Store {
	case StoreFile:
		if c.Session.TokenPath == "" {
			return fmt.Errorf("session.token_path is required for the file store")
		}
	case StorePostgres:
		if c.Session.DBDSN == "" {
			return fmt.Errorf("session.db_dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("session.store %q: want file or postgres", c.Session.Store)
	}
	if c.Session.TokenKey == "" {
		return fmt.Errorf("session.token_key must not be empty")
	}
	return nil
}
