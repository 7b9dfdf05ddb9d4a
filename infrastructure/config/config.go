// Package config loads the API configuration from defaults, an optional YAML
// file and environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemoryTable as TABLE_NAME selects the in-process store instead of DynamoDB
const MemoryTable = "memory"

const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	TableName        string `yaml:"table_name"`
	TeamIndexName    string `yaml:"team_index_name"`
	EventBusName     string `yaml:"event_bus_name"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret       string `yaml:"jwt_secret"`
	JWTIssuer       string `yaml:"jwt_issuer"`
	CognitoJWKSURL  string `yaml:"cognito_jwks_url"`
	CognitoClientID string `yaml:"cognito_client_id"`

	// Rate limiting, per caller; 0 disables it
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	EnableCORS     bool     `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	OTLPEndpoint   string   `yaml:"otlp_endpoint"`

	// File is the YAML file the values were read from, if any
	File string `yaml:"-"`
}

// Default returns the development defaults
func Default() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        Development,
		AWSRegion:          "us-east-1",
		TableName:          "items-dev",
		TeamIndexName:      "GSI1",
		LogLevel:           "info",
		JWTIssuer:          "items-api",
		RateLimitPerMinute: 120,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
	}
}

// Load applies defaults, then CONFIG_FILE if set, then the environment
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML file; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = strings.ToLower(getEnv("ENVIRONMENT", c.Environment))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.TeamIndexName = getEnv("TEAM_INDEX_NAME", c.TeamIndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.CognitoJWKSURL = getEnv("COGNITO_JWKS_URL", c.CognitoJWKSURL)
	c.CognitoClientID = getEnv("COGNITO_CLIENT_ID", c.CognitoClientID)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}
	if c.TableName == "" {
		errs = append(errs, errors.New("TABLE_NAME is required"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE cannot be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if c.IsProduction() {
		// in Lambda the API Gateway authorizer verifies tokens
		if !c.IsLambda && c.JWTSecret == "" && c.CognitoJWKSURL == "" {
			errs = append(errs, errors.New("JWT_SECRET or COGNITO_JWKS_URL is required in production"))
		}
		if c.EventBusName == "" {
			errs = append(errs, errors.New("EVENT_BUS_NAME is required in production"))
		}
		if c.UsesMemoryStore() {
			errs = append(errs, errors.New("the memory store cannot be used in production"))
		}
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				errs = append(errs, errors.New("wildcard CORS origin is not allowed in production"))
				break
			}
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// UsesMemoryStore reports whether data lives in process memory
func (c *Config) UsesMemoryStore() bool {
	return c.TableName == MemoryTable
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
