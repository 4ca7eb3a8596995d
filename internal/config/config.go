package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/milad/desconotify/internal/desco"
	"github.com/milad/desconotify/internal/pkg/logger"
	"github.com/milad/desconotify/internal/repo/jsonrepo"
	"github.com/milad/desconotify/internal/service"
)

// Config is read from the environment with no prefix, so the variable names match
// what the cron/CI secrets already use.
type Config struct {
	DefaultToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	MetersJSON string `envconfig:"METERS_JSON"`
	MetersFile string `envconfig:"METERS_FILE" default:"meters.json"`
	AccountNo  string `envconfig:"ACCOUNT_NO"`
	ChatID     string `envconfig:"TELEGRAM_CHAT_ID"`

	LowBalance   string `envconfig:"LOW_BALANCE"`
	CABundlePath string `envconfig:"CA_BUNDLE_PATH"`

	BalanceURL     string        `envconfig:"DESCO_BALANCE_URL" default:"https://prepaid.desco.org.bd/api/tkdes/customer/getBalance"`
	TelegramAPIURL string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s"`
	NotifyPause    time.Duration `envconfig:"NOTIFY_PAUSE" default:"500ms"`

	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`

	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr      string        `envconfig:"GRPC_ADDR" default:":9090"`
	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"6h"`

	Log logger.Config `envconfig:"LOG"`

	lowBalance *decimal.Decimal
}

// Load reads .env (if present) and then the process environment. Variables already
// set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if v := strings.TrimSpace(c.LowBalance); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("LOW_BALANCE %q: %w", c.LowBalance, err)
		}
		c.lowBalance = &d
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0, got %s", c.RequestTimeout)
	}
	if c.NotifyPause < 0 {
		return fmt.Errorf("NOTIFY_PAUSE must be >= 0, got %s", c.NotifyPause)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL must be > 0, got %s", c.CheckInterval)
	}
	return nil
}

// LowBalanceThreshold is the parsed LOW_BALANCE, nil when unset.
func (c *Config) LowBalanceThreshold() *decimal.Decimal {
	return c.lowBalance
}

func (c *Config) MeterSource() jsonrepo.Source {
	return jsonrepo.Source{
		JSON:      c.MetersJSON,
		File:      c.MetersFile,
		AccountNo: strings.TrimSpace(c.AccountNo),
		ChatID:    strings.TrimSpace(c.ChatID),
	}
}

func (c *Config) Desco() desco.Config {
	return desco.Config{
		URL:          c.BalanceURL,
		Timeout:      c.RequestTimeout,
		CABundlePath: c.CABundlePath,
	}
}

// ServiceOptions maps the settings the driver loop needs.
func (c *Config) ServiceOptions() service.Options {
	return service.Options{
		DefaultToken: c.DefaultToken,
		LowBalance:   c.lowBalance,
		Pause:        c.NotifyPause,
	}
}
