package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("SITE_AJAX_URL", "https://example.com/wp-admin/admin-ajax.php")
	t.Setenv("SITE_NONCE", "abc123")
	t.Setenv("SITE_CREDENTIALS_REQUIRED", "true")
	t.Setenv("MESSAGE_DWELL_TIME", "2s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "https://example.com", cfg.Site.Origin)
	assert.Equal(t, "abc123", cfg.Site.SearchNonce)
	assert.True(t, cfg.Site.CredentialsRequired)
	assert.Equal(t, 500*time.Millisecond, cfg.Messages.RetryInterval)
	assert.Equal(t, 2*time.Second, cfg.Messages.DwellTime)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("SITE_AJAX_URL", "https://example.com/wp-admin/admin-ajax.php")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SITE_NONCE")
}

func TestSiteConfig_Validate(t *testing.T) {
	valid := SiteConfig{
		AjaxURL:        "https://example.com/wp-admin/admin-ajax.php",
		Nonce:          "n",
		ConnectionType: "ftp",
		RequestTimeout: time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(*SiteConfig)
		wantErr bool
	}{
		{name: "Valid config", mutate: func(*SiteConfig) {}},
		{name: "Missing URL", mutate: func(s *SiteConfig) { s.AjaxURL = "" }, wantErr: true},
		{name: "Relative URL", mutate: func(s *SiteConfig) { s.AjaxURL = "/wp-admin/admin-ajax.php" }, wantErr: true},
		{name: "Missing nonce", mutate: func(s *SiteConfig) { s.Nonce = "" }, wantErr: true},
		{name: "Unknown connection type", mutate: func(s *SiteConfig) { s.ConnectionType = "smb" }, wantErr: true},
		{name: "SSH connection", mutate: func(s *SiteConfig) { s.ConnectionType = "ssh" }},
		{name: "Zero timeout", mutate: func(s *SiteConfig) { s.RequestTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("SiteConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDBConfig_Validate(t *testing.T) {
	assert.NoError(t, DBConfig{}.Validate(), "disabled database needs no settings")
	assert.Error(t, DBConfig{Enabled: true, Host: "db", Database: "x", Port: 0}.Validate())
	assert.NoError(t, DBConfig{Enabled: true, Host: "db", Database: "x", Port: 5432}.Validate())

	d := DBConfig{Host: "db", Port: 5432, Username: "u", Password: "p", Database: "x", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=x sslmode=disable", d.DSN())
}

func TestMessagesConfig_Validate(t *testing.T) {
	assert.NoError(t, MessagesConfig{RetryInterval: time.Millisecond, DwellTime: time.Second}.Validate())
	assert.Error(t, MessagesConfig{DwellTime: time.Second}.Validate())
}
