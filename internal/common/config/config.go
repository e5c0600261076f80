// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Server    ServerConfig            `mapstructure:"server"`
	Generator GeneratorConfig         `mapstructure:"generator"`
	Listing   ListingConfig           `mapstructure:"listing"`
	Session   SessionConfig           `mapstructure:"session"`
	Redis     RedisConfig             `mapstructure:"redis"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	RefreshInterval int    `mapstructure:"refresh_interval"` // seconds between page reloads while pending
	SecureCookies   bool   `mapstructure:"secure_cookies"`
}

// GeneratorConfig points at the remote listing-generation service.
type GeneratorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Path    string `mapstructure:"path"`
	Timeout int    `mapstructure:"timeout"` // milliseconds, 0 = no client-side deadline
}

type ListingConfig struct {
	ProgressInterval     int  `mapstructure:"progress_interval"` // milliseconds before the second progress phrase
	ClearResultOnFailure bool `mapstructure:"clear_result_on_failure"`
}

type SessionConfig struct {
	KeyPrefix     string `mapstructure:"key_prefix"`
	TTL           int    `mapstructure:"ttl"`             // seconds
	SubmitLockTTL int    `mapstructure:"submit_lock_ttl"` // seconds
	CookieName    string `mapstructure:"cookie_name"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts seconds from config to time.Duration
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
