package lib

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	ini "github.com/vaughan0/go-ini"
)

const (
	DefaultProfile = "default"

	defaultTenant         = "common"
	defaultRedirectScheme = "azure-redis"
)

var ErrMissingClientID = errors.New("client_id missing from config; run `azure-redis configure` or set it in ~/.azure-redis/config")

// Config carries the Entra ID application settings and the endpoint of the
// database-management service, read from one profile of the ini config file.
type Config struct {
	Profile        string
	TenantID       string
	ClientID       string
	RedirectScheme string
	StoreEndpoint  string
}

// ConfigPath returns the config file location, honoring AZURE_REDIS_CONFIG.
func ConfigPath() (string, error) {
	if path := os.Getenv("AZURE_REDIS_CONFIG"); path != "" {
		return path, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".azure-redis", "config"), nil
}

// LoadConfig reads the named profile, falling back to the default section
// for any key the profile does not set. A missing config file yields a
// config of defaults; only a missing client_id is fatal, and only once the
// broker is actually constructed.
func LoadConfig(profile string) (*Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	cfg := &Config{
		Profile:        profile,
		TenantID:       defaultTenant,
		RedirectScheme: defaultRedirectScheme,
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	file, err := ini.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("no config file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	get := func(key string) (string, bool) {
		if value, ok := file.Get("profile "+profile, key); ok {
			return value, true
		}
		return file.Get(DefaultProfile, key)
	}

	if value, ok := get("tenant_id"); ok {
		cfg.TenantID = value
	}
	if value, ok := get("client_id"); ok {
		cfg.ClientID = value
	}
	if value, ok := get("redirect_scheme"); ok {
		cfg.RedirectScheme = value
	}
	if value, ok := get("store_endpoint"); ok {
		cfg.StoreEndpoint = value
	}

	log.Debugf("loaded profile %s from %s", profile, path)
	return cfg, nil
}

// Authority is the Entra ID authority URL for the configured tenant.
func (c *Config) Authority() string {
	return "https://login.microsoftonline.com/" + c.TenantID
}

// RedirectURI is the fixed custom-scheme callback the Entra ID application
// registration must carry.
func (c *Config) RedirectURI() string {
	return c.RedirectScheme + "://azure/oauth/callback"
}
