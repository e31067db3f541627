package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TokenChart/internal/logger"
	"TokenChart/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	CMS struct {
		BaseURL   string `yaml:"base_url"`
		APIToken  string `yaml:"api_token"`
		PageSize  int    `yaml:"page_size"`
		MaxTrades int    `yaml:"max_trades"`
	} `yaml:"cms"`
	PriceFeed struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"price_feed"`
	Chart struct {
		Assets      []string `yaml:"assets"`
		Windows     []string `yaml:"windows"`
		RefreshCron string   `yaml:"refresh_cron"`
	} `yaml:"chart"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		RateTTL  time.Duration `yaml:"rate_ttl"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CMS_BASE_URL"); v != "" {
		cfg.CMS.BaseURL = v
	}
	if v := os.Getenv("CMS_API_TOKEN"); v != "" {
		cfg.CMS.APIToken = v
	}
	if v := os.Getenv("PRICE_BASE_URL"); v != "" {
		cfg.PriceFeed.BaseURL = v
	}
	if v := os.Getenv("PRICE_API_KEY"); v != "" {
		cfg.PriceFeed.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CMS_MAX_TRADES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CMS.MaxTrades = n
		}
	}

	// Defaults
	if cfg.CMS.PageSize == 0 {
		cfg.CMS.PageSize = 1000
	}
	if cfg.CMS.MaxTrades == 0 {
		cfg.CMS.MaxTrades = 50000
	}
	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if len(cfg.Chart.Windows) == 0 {
		cfg.Chart.Windows = []string{string(model.Window24H)}
	}
	if cfg.Chart.RefreshCron == "" {
		cfg.Chart.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Redis.RateTTL == 0 {
		cfg.Redis.RateTTL = 60 * time.Second
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/tokenchart.db"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9108"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.CMS.BaseURL == "" {
		return fmt.Errorf("cms.base_url is required")
	}
	if c.CMS.PageSize <= 0 {
		return fmt.Errorf("cms.page_size must be positive")
	}
	if c.CMS.MaxTrades <= 0 {
		return fmt.Errorf("cms.max_trades must be positive")
	}
	if len(c.Chart.Assets) == 0 {
		return fmt.Errorf("chart.assets must list at least one asset")
	}
	if _, err := c.ChartWindows(); err != nil {
		return err
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	return nil
}

// ChartWindows parses the configured refresh windows.
func (c *Config) ChartWindows() ([]model.Window, error) {
	windows := make([]model.Window, 0, len(c.Chart.Windows))
	for _, s := range c.Chart.Windows {
		w, err := model.ParseWindow(s)
		if err != nil {
			return nil, fmt.Errorf("chart.windows: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}
