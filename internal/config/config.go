package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/shiny-updates/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	ServerPort      string
	ShutdownTimeout time.Duration
	Logger          logger.Config
	Site            SiteConfig
	Messages        MessagesConfig
	Database        DBConfig
}

// SiteConfig describes the site whose updates are coordinated.
type SiteConfig struct {
	AjaxURL string
	// Origin is the site's own origin; frame messages from anywhere else are rejected.
	Origin      string
	Nonce       string
	SearchNonce string
	Cookie      string
	// CredentialsRequired is true when the site asks for filesystem credentials
	// before it modifies files.
	CredentialsRequired bool
	Hostname            string
	Username            string
	ConnectionType      string
	FSNonce             string
	RequestTimeout      time.Duration
	ManifestPath        string
}

// MessagesConfig controls the message throttler.
type MessagesConfig struct {
	RetryInterval time.Duration
	DwellTime     time.Duration
}

// DBConfig holds the job history database settings.
type DBConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("SITE_CREDENTIALS_REQUIRED", false)
	viper.SetDefault("SITE_CONNECTION_TYPE", "ftp")
	viper.SetDefault("SITE_REQUEST_TIMEOUT", "5m")
	viper.SetDefault("SITE_MANIFEST", "manifest.yml")
	viper.SetDefault("MESSAGE_RETRY_INTERVAL", "500ms")
	viper.SetDefault("MESSAGE_DWELL_TIME", "1s")
	viper.SetDefault("DB_ENABLED", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "shiny_updates")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read config file", "error", err)
		}
	}

	level := strings.ToLower(viper.GetString("LOG_LEVEL"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", level)
		level = "info"
	}

	cfg := &Config{
		ServerPort:      viper.GetString("SERVER_PORT"),
		ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		Logger: logger.Config{
			Level:  level,
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
			File:   viper.GetString("LOG_FILE"),
		},
		Site: SiteConfig{
			AjaxURL:             viper.GetString("SITE_AJAX_URL"),
			Origin:              viper.GetString("SITE_ORIGIN"),
			Nonce:               viper.GetString("SITE_NONCE"),
			SearchNonce:         viper.GetString("SITE_SEARCH_NONCE"),
			Cookie:              viper.GetString("SITE_COOKIE"),
			CredentialsRequired: viper.GetBool("SITE_CREDENTIALS_REQUIRED"),
			Hostname:            viper.GetString("SITE_FS_HOSTNAME"),
			Username:            viper.GetString("SITE_FS_USERNAME"),
			ConnectionType:      viper.GetString("SITE_CONNECTION_TYPE"),
			FSNonce:             viper.GetString("SITE_FS_NONCE"),
			RequestTimeout:      viper.GetDuration("SITE_REQUEST_TIMEOUT"),
			ManifestPath:        viper.GetString("SITE_MANIFEST"),
		},
		Messages: MessagesConfig{
			RetryInterval: viper.GetDuration("MESSAGE_RETRY_INTERVAL"),
			DwellTime:     viper.GetDuration("MESSAGE_DWELL_TIME"),
		},
		Database: DBConfig{
			Enabled:         viper.GetBool("DB_ENABLED"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USERNAME"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
	}

	if cfg.Site.Origin == "" {
		cfg.Site.Origin = originOf(cfg.Site.AjaxURL)
	}
	if cfg.Site.SearchNonce == "" {
		cfg.Site.SearchNonce = cfg.Site.Nonce
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT must be set")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Messages.Validate(); err != nil {
		return err
	}
	return c.Database.Validate()
}

func (s SiteConfig) Validate() error {
	if s.AjaxURL == "" {
		return fmt.Errorf("SITE_AJAX_URL must be set")
	}
	u, err := url.Parse(s.AjaxURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SITE_AJAX_URL must be an absolute http(s) URL, got %q", s.AjaxURL)
	}
	if s.Nonce == "" {
		return fmt.Errorf("SITE_NONCE must be set")
	}
	switch s.ConnectionType {
	case "ftp", "ftps", "ssh":
	default:
		return fmt.Errorf("SITE_CONNECTION_TYPE must be ftp, ftps or ssh, got %q", s.ConnectionType)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("SITE_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (m MessagesConfig) Validate() error {
	if m.RetryInterval <= 0 || m.DwellTime <= 0 {
		return fmt.Errorf("MESSAGE_RETRY_INTERVAL and MESSAGE_DWELL_TIME must be positive")
	}
	return nil
}

func (d DBConfig) Validate() error {
	if !d.Enabled {
		return nil
	}
	if d.Host == "" || d.Database == "" {
		return fmt.Errorf("DB_HOST and DB_NAME must be set when DB_ENABLED is true")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("DB_PORT %d is out of range", d.Port)
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
