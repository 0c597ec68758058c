// Package config provides router configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/morezero/json-api-router/pkg/result"
)

const logPrefix = "config:LoadConfig"

// Config holds json-api-router configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"json-api-router"`

	RouterSubject string `envconfig:"ROUTER_SUBJECT" default:"api.router.v1"`
	EventSubject  string `envconfig:"ROUTER_EVENT_SUBJECT" default:"api.router.calls"`

	RequestTimeout time.Duration `envconfig:"ROUTER_REQUEST_TIMEOUT" default:"25s"`

	// Database (empty = in-memory identity store and catalog)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`
	// SeedFile populates the in-memory stores when DATABASE_URL is empty.
	SeedFile string `envconfig:"ROUTER_SEED_FILE"`

	// HTTP (ROUTER_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"ROUTER_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Credentials
	TenantID     string `envconfig:"ROUTER_TENANT_ID" default:"1"`
	PluginPrefix string `envconfig:"ROUTER_PLUGIN_PREFIX" default:"woocommerce_json_api"`
	BcryptCost   int    `envconfig:"BCRYPT_COST" default:"10"`

	// OutputFormat is the format of NATS replies.
	OutputFormat string `envconfig:"ROUTER_OUTPUT_FORMAT" default:"JSON"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Format returns the parsed ROUTER_OUTPUT_FORMAT.
func (c *Config) Format() (result.Format, error) {
	return result.ParseFormat(c.OutputFormat)
}

// ValidateForServe checks required config when running the router server.
func (c *Config) ValidateForServe() error {
	if c.RouterSubject == "" {
		return fmt.Errorf("%s - ROUTER_SUBJECT is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - ROUTER_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return fmt.Errorf("%s - ROUTER_TENANT_ID is required", logPrefix)
	}
	if strings.TrimSpace(c.PluginPrefix) == "" {
		return fmt.Errorf("%s - ROUTER_PLUGIN_PREFIX is required", logPrefix)
	}
	f, err := c.Format()
	if err != nil {
		return fmt.Errorf("%s - ROUTER_OUTPUT_FORMAT: %w", logPrefix, err)
	}
	if f == result.FormatHTTP {
		return fmt.Errorf("%s - ROUTER_OUTPUT_FORMAT cannot be HTTP for NATS replies", logPrefix)
	}
	return c.validateCost()
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, seed).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return c.validateCost()
}

func (c *Config) validateCost() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%s - BCRYPT_COST must be between %d and %d", logPrefix, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
