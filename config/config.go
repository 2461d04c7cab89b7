package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	WinPay   WinPayConfig
	Webhook  WebhookConfig
	Log      LogConfig
	Admin    AdminConfig
}

// AdminConfig seeds the operations account that may read the merchant
// settlement balance. Empty email disables seeding.
type AdminConfig struct {
	Email    string
	Password string
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// WinPayConfig holds the processor credentials. DepositKey signs collect
// traffic, PayoutKey signs payout traffic; they are distinct secrets.
type WinPayConfig struct {
	BaseURL    string
	MerchantID string
	DepositKey string
	PayoutKey  string
	NotifyBase string // public base URL callbacks are built from
	ReturnURL  string
}

type WebhookConfig struct {
	// AllowedSources is the processor's callback IP allow-list (IPs or
	// CIDRs). Empty means allow all, for local development only.
	AllowedSources []string
	RateLimit      int
	RateWindow     time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads configuration from BULLEX_* environment variables with
// development defaults.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("BULLEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.dsn", "bullex:bullex@tcp(localhost:3306)/bullex?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.refresh_secret", "change-me-refresh")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "bullex")

	v.SetDefault("winpay.base_url", "https://api.winpay.com")
	v.SetDefault("winpay.merchant_id", "")
	v.SetDefault("winpay.deposit_key", "")
	v.SetDefault("winpay.payout_key", "")
	v.SetDefault("winpay.notify_base", "")
	v.SetDefault("winpay.return_url", "")

	v.SetDefault("webhook.allowed_sources", []string{})
	v.SetDefault("webhook.rate_limit", 60)
	v.SetDefault("webhook.rate_window", "1m")

	v.SetDefault("log.level", "info")

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("jwt.access_secret"),
			RefreshSecret: v.GetString("jwt.refresh_secret"),
			AccessExpiry:  v.GetDuration("jwt.access_expiry"),
			RefreshExpiry: v.GetDuration("jwt.refresh_expiry"),
			Issuer:        v.GetString("jwt.issuer"),
		},
		WinPay: WinPayConfig{
			BaseURL:    v.GetString("winpay.base_url"),
			MerchantID: v.GetString("winpay.merchant_id"),
			DepositKey: v.GetString("winpay.deposit_key"),
			PayoutKey:  v.GetString("winpay.payout_key"),
			NotifyBase: v.GetString("winpay.notify_base"),
			ReturnURL:  v.GetString("winpay.return_url"),
		},
		Webhook: WebhookConfig{
			AllowedSources: v.GetStringSlice("webhook.allowed_sources"),
			RateLimit:      v.GetInt("webhook.rate_limit"),
			RateWindow:     v.GetDuration("webhook.rate_window"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}
}
