// config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	odoo_errors "github.com/odoo-mcp/odoo-mcp-server/errors"
)

// Configuration stores all the configurations
type Configuration struct {
	Odoo    OdooConfiguration
	Cache   CacheConfiguration
	Redis   RedisConfiguration
	Audit   AuditConfiguration
	Server  ServerConfiguration
	Limits  LimitsConfiguration
	LogFile string
}

// OdooConfiguration stores the Odoo connection and authentication settings
type OdooConfiguration struct {
	URL      string
	Database string
	Username string
	Password string
	APIKey   string
	Timeout  time.Duration
}

// CacheConfiguration selects the permission cache backend and TTL
type CacheConfiguration struct {
	Backend string // "memory" or "redis"
	TTL     time.Duration
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr     string
	Password string
	DB       int
}

// AuditConfiguration controls access-decision auditing
type AuditConfiguration struct {
	Enabled          bool
	ElasticsearchURL string
}

// ServerConfiguration stores the MCP transport and health server settings
type ServerConfiguration struct {
	Transport string // "stdio" or "http"
	Host      string
	Port      string
}

// LimitsConfiguration bounds record listing sizes
type LimitsConfiguration struct {
	DefaultLimit int
	MaxLimit     int
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("odoo.timeout", "30s")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("limits.defaultLimit", 10)
	viper.SetDefault("limits.maxLimit", 100)
	viper.SetDefault("log.dir", "logging")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	cfg := &Configuration{
		Odoo: OdooConfiguration{
			URL:      viper.GetString("odoo.url"),
			Database: viper.GetString("odoo.database"),
			Username: viper.GetString("odoo.username"),
			Password: viper.GetString("odoo.password"),
			APIKey:   viper.GetString("odoo.apiKey"),
			Timeout:  viper.GetDuration("odoo.timeout"),
		},
		Cache: CacheConfiguration{
			Backend: viper.GetString("cache.backend"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
		Redis: RedisConfiguration{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Audit: AuditConfiguration{
			Enabled:          viper.GetBool("audit.enabled"),
			ElasticsearchURL: viper.GetString("elasticsearch.url"),
		},
		Server: ServerConfiguration{
			Transport: viper.GetString("server.transport"),
			Host:      viper.GetString("server.host"),
			Port:      viper.GetString("server.port"),
		},
		Limits: LimitsConfiguration{
			DefaultLimit: viper.GetInt("limits.defaultLimit"),
			MaxLimit:     viper.GetInt("limits.maxLimit"),
		},
		LogFile: viper.GetString("log.dir"),
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	config = cfg
	return nil
}

// Validate checks the configuration for the mistakes that would
// otherwise only surface as connection failures much later.
func (c *Configuration) Validate() error {
	if c.Odoo.URL == "" {
		return fmt.Errorf("%w: odoo.url is required", odoo_errors.ErrInvalidConfig)
	}
	parsed, err := url.Parse(c.Odoo.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: odoo.url must start with http:// or https://", odoo_errors.ErrInvalidConfig)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("%w: odoo.url is missing a hostname", odoo_errors.ErrInvalidConfig)
	}

	hasAPIKey := c.Odoo.APIKey != ""
	hasCredentials := c.Odoo.Username != "" && c.Odoo.Password != ""
	if !hasAPIKey && !hasCredentials {
		return fmt.Errorf(
			"%w: authentication required: provide either odoo.apiKey or both odoo.username and odoo.password",
			odoo_errors.ErrInvalidConfig)
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("%w: cache.backend must be memory or redis, got %q",
			odoo_errors.ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive", odoo_errors.ErrInvalidConfig)
	}

	if c.Limits.DefaultLimit <= 0 {
		return fmt.Errorf("%w: limits.defaultLimit must be positive", odoo_errors.ErrInvalidConfig)
	}
	if c.Limits.MaxLimit <= 0 {
		return fmt.Errorf("%w: limits.maxLimit must be positive", odoo_errors.ErrInvalidConfig)
	}
	if c.Limits.DefaultLimit > c.Limits.MaxLimit {
		return fmt.Errorf("%w: limits.defaultLimit cannot exceed limits.maxLimit", odoo_errors.ErrInvalidConfig)
	}

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("%w: server.transport must be stdio or http, got %q",
			odoo_errors.ErrInvalidConfig, c.Server.Transport)
	}
	if c.Server.Transport == "http" {
		port, err := strconv.Atoi(c.Server.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: server.port must be a port number between 1 and 65535, got %q",
				odoo_errors.ErrInvalidConfig, c.Server.Port)
		}
	}

	return nil
}

// UsesAPIKey reports whether API key authentication is configured.
func (c *OdooConfiguration) UsesAPIKey() bool {
	return c.APIKey != ""
}

// UsesCredentials reports whether username/password authentication is configured.
func (c *OdooConfiguration) UsesCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// SetConfig replaces the loaded configuration. Primarily useful for testing.
func SetConfig(c *Configuration) {
	config = c
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
