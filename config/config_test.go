// config/config_test.go
package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/odoo-mcp/odoo-mcp-server/config"
	odoo_errors "github.com/odoo-mcp/odoo-mcp-server/errors"
)

func validConfig() *config.Configuration {
	return &config.Configuration{
		Odoo: config.OdooConfiguration{
			URL:      "https://odoo.example.com",
			Database: "odoo",
			Username: "admin",
			Password: "secret",
			Timeout:  30 * time.Second,
		},
		Cache:  config.CacheConfiguration{Backend: "memory", TTL: 5 * time.Minute},
		Server: config.ServerConfiguration{Transport: "stdio", Host: "localhost", Port: "8000"},
		Limits: config.LimitsConfiguration{DefaultLimit: 10, MaxLimit: 100},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_RequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Odoo.URL = ""
	err := cfg.Validate()
	assert.ErrorIs(t, err, odoo_errors.ErrInvalidConfig)
}

func TestValidate_RejectsBadScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Odoo.URL = "ftp://odoo.example.com"
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)
}

func TestValidate_RequiresAuthMethod(t *testing.T) {
	cfg := validConfig()
	cfg.Odoo.Username = ""
	cfg.Odoo.Password = ""
	cfg.Odoo.APIKey = ""
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)

	cfg.Odoo.APIKey = "abc123"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Limits(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.DefaultLimit = 200
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)

	cfg = validConfig()
	cfg.Limits.MaxLimit = 0
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)
}

func TestValidate_CacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "memcached"
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)

	cfg.Cache.Backend = "redis"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Transport(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Transport = "sse"
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)
}

func TestValidate_HTTPPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Transport = "http"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = "not-a-port"
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)

	cfg.Server.Port = "70000"
	assert.ErrorIs(t, cfg.Validate(), odoo_errors.ErrInvalidConfig)

	// Stdio mode never binds a port, so the value is not checked.
	cfg.Server.Transport = "stdio"
	assert.NoError(t, cfg.Validate())
}

func TestUsesAuthHelpers(t *testing.T) {
	odoo := config.OdooConfiguration{APIKey: "k"}
	assert.True(t, odoo.UsesAPIKey())
	assert.False(t, odoo.UsesCredentials())

	odoo = config.OdooConfiguration{Username: "admin", Password: "secret"}
	assert.False(t, odoo.UsesAPIKey())
	assert.True(t, odoo.UsesCredentials())
}
