package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kennethwltu/smspanel/pkg/logger"

	"go.uber.org/zap"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int    `json:"port"`
		Host string `json:"host"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	JWT struct {
		Secret      string        `json:"secret"`
		TokenExpiry time.Duration `json:"token_expiry"`
	} `json:"jwt"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
	Gateway struct {
		BaseURL       string        `json:"base_url"`
		ApplicationID string        `json:"application_id"`
		SenderNumber  string        `json:"sender_number"`
		Timeout       time.Duration `json:"timeout"`
	} `json:"gateway"`
	Queue struct {
		Workers int `json:"workers"`
		MaxSize int `json:"max_size"`
	} `json:"queue"`
	Retry struct {
		MaxAttempts int           `json:"max_attempts"`
		BaseDelay   time.Duration `json:"base_delay"`
		MaxDelay    time.Duration `json:"max_delay"`
	} `json:"retry"`
	DeadLetter struct {
		MaxRetries int `json:"max_retries"`
	} `json:"dead_letter"`
	RateLimit struct {
		PerSecond float64 `json:"per_second"`
		Burst     float64 `json:"burst"`
	} `json:"rate_limit"`
	Seed struct {
		Enable        bool   `json:"enable"`
		AdminUsername string `json:"admin_username"`
		AdminPassword string `json:"admin_password"`
	} `json:"seed"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	// Check if file exists and is a regular file
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the loaded configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue workers must be positive, got %d", c.Queue.Workers)
	}
	if c.Queue.MaxSize <= 0 {
		return fmt.Errorf("queue max size must be positive, got %d", c.Queue.MaxSize)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("invalid retry delays: base=%s max=%s", c.Retry.BaseDelay, c.Retry.MaxDelay)
	}
	if c.DeadLetter.MaxRetries <= 0 {
		return fmt.Errorf("dead letter max retries must be positive, got %d", c.DeadLetter.MaxRetries)
	}
	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("rate limit per second must be positive, got %v", c.RateLimit.PerSecond)
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:sms.db?cache=shared&mode=rwc"
	config.JWT.Secret = "your-secret-key" // This should be changed in production
	config.JWT.TokenExpiry = 24 * time.Hour
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	config.Gateway.BaseURL = "https://cst01.1010.com.hk/gateway/gateway.jsp"
	config.Gateway.ApplicationID = "LabourDept"
	config.Gateway.SenderNumber = "852520702793127"
	config.Gateway.Timeout = 30 * time.Second
	config.Queue.Workers = 4
	config.Queue.MaxSize = 1000
	config.Retry.MaxAttempts = 3
	config.Retry.BaseDelay = 2 * time.Second
	config.Retry.MaxDelay = 10 * time.Second
	config.DeadLetter.MaxRetries = 3
	config.RateLimit.PerSecond = 2.0
	config.RateLimit.Burst = 4
	config.Seed.AdminUsername = "admin"
	return config
}
