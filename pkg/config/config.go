package config

import (
	"os"
	"strconv"
)

// Config is the root application configuration.
type Config struct {
	App       *AppConfig       `json:"app" yaml:"app"`
	Server    *ServerConfig    `json:"server" yaml:"server"`
	Database  *DatabaseConfig  `json:"database" yaml:"database"`
	Scheduler *SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Engine    *EngineConfig    `json:"engine" yaml:"engine"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Environment string `json:"environment" yaml:"environment"` // development, production
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port" yaml:"port"`
}

// DatabaseConfig holds the engine's own storage settings (jobs, logs,
// sources, conflicts). Driver is sqlite or mysql.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// SchedulerConfig controls the recurring-job scheduler.
type SchedulerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// EngineConfig bounds the executor and the source adapters.
type EngineConfig struct {
	ReadPageSize       int     `json:"read_page_size" yaml:"read_page_size"`
	RecentResultsLimit int     `json:"recent_results_limit" yaml:"recent_results_limit"`
	HTTPTimeoutSeconds int     `json:"http_timeout_seconds" yaml:"http_timeout_seconds"`
	APIRatePerSecond   float64 `json:"api_rate_per_second" yaml:"api_rate_per_second"`
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App == nil || c.App.Environment != "production"
}

func getDefaultConfig() *Config {
	return &Config{
		App: &AppConfig{
			Environment: getEnv("SYNCBRIDGE_ENV", "development"),
			LogLevel:    getEnv("SYNCBRIDGE_LOG_LEVEL", "info"),
			LogFile:     getEnv("SYNCBRIDGE_LOG_FILE", "./logs/syncbridge.log"),
		},
		Server: &ServerConfig{
			Address: getEnv("SYNCBRIDGE_ADDRESS", "0.0.0.0"),
			Port:    getEnvInt("SYNCBRIDGE_PORT", 8080),
		},
		Database: &DatabaseConfig{
			Driver: getEnv("SYNCBRIDGE_DB_DRIVER", "sqlite"),
			DSN:    getEnv("SYNCBRIDGE_DB_DSN", "./data/syncbridge.db"),
		},
		Scheduler: &SchedulerConfig{
			Enabled: getEnvBool("SYNCBRIDGE_SCHEDULER_ENABLED", true),
		},
		Engine: &EngineConfig{
			ReadPageSize:       500,
			RecentResultsLimit: 10,
			HTTPTimeoutSeconds: 30,
			APIRatePerSecond:   10,
		},
	}
}

// mergeEnvVars lets environment variables win over file values and
// fills in sections a partial file leaves out.
func mergeEnvVars(c *Config) {
	defaults := getDefaultConfig()
	if c.App == nil {
		c.App = defaults.App
	}
	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Database == nil {
		c.Database = defaults.Database
	}
	if c.Scheduler == nil {
		c.Scheduler = defaults.Scheduler
	}
	if c.Engine == nil {
		c.Engine = defaults.Engine
	}
	if v := os.Getenv("SYNCBRIDGE_ENV"); v != "" {
		c.App.Environment = v
	}
	if v := os.Getenv("SYNCBRIDGE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("SYNCBRIDGE_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SYNCBRIDGE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("SYNCBRIDGE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if c.Engine.ReadPageSize <= 0 {
		c.Engine.ReadPageSize = defaults.Engine.ReadPageSize
	}
	if c.Engine.RecentResultsLimit <= 0 {
		c.Engine.RecentResultsLimit = defaults.Engine.RecentResultsLimit
	}
	if c.Engine.HTTPTimeoutSeconds <= 0 {
		c.Engine.HTTPTimeoutSeconds = defaults.Engine.HTTPTimeoutSeconds
	}
	if c.Engine.APIRatePerSecond <= 0 {
		c.Engine.APIRatePerSecond = defaults.Engine.APIRatePerSecond
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
