package config

import (
	"errors"
	"time"
)

// insecureJWTSecret is the placeholder older generated config files carried.
const insecureJWTSecret = "change-me"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// Realtime settings.
	MaxMessageBytes   int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer      int      `mapstructure:"client_buffer" yaml:"client_buffer"`
	SendRatePerMinute int      `mapstructure:"send_rate_per_minute" yaml:"send_rate_per_minute"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "bookstore.db",
		JWTSecret:         "",
		JWTIssuer:         "bookstore",
		JWTTTL:            30 * 24 * time.Hour,
		MaxMessageBytes:   1 << 16,
		ClientBuffer:      64,
		SendRatePerMinute: 0,
		AllowedOrigins:    []string{"*"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	switch c.JWTSecret {
	case "":
		errs = append(errs, errors.New("jwt_secret is required"))
	case insecureJWTSecret:
		errs = append(errs, errors.New("jwt_secret must be changed from the placeholder value"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("jwt_ttl must be positive"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.ClientBuffer <= 0 {
		errs = append(errs, errors.New("client_buffer must be positive"))
	}
	if c.SendRatePerMinute < 0 {
		errs = append(errs, errors.New("send_rate_per_minute must not be negative"))
	}
	return errors.Join(errs...)
}
