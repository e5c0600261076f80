// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top and lets environment variables override any key
// (generator.base_url -> GENERATOR_BASE_URL).
func Load() (*Config, error) {
	loadEnvFile()
	return load(newViper(), "./configs", "../../configs", ".")
}

// LoadFromDir is Load restricted to a single directory. Used by tests and
// by the --config-dir flag of the CLI.
func LoadFromDir(dir string) (*Config, error) {
	loadEnvFile()
	return load(newViper(), dir)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the yaml files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "listing-generator")
	v.SetDefault("app.version", "dev")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 10000)
	v.SetDefault("server.shutdown_timeout", 30000)
	v.SetDefault("server.refresh_interval", 1)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.path", "/generate-description")
	v.SetDefault("generator.timeout", 0)
	v.SetDefault("listing.progress_interval", 2000)
	v.SetDefault("listing.clear_result_on_failure", false)
	v.SetDefault("session.key_prefix", "listing:session:")
	v.SetDefault("session.ttl", 86400)
	v.SetDefault("session.submit_lock_ttl", 300)
	v.SetDefault("session.cookie_name", "listing_session")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 10)
	v.SetDefault("camunda.timeout", 30000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in yaml string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills values an explicit yaml zero would otherwise leave
// unusable.
func applyDefaults(cfg *Config) {
	if cfg.Generator.Path == "" {
		cfg.Generator.Path = "/generate-description"
	}
	if !strings.HasPrefix(cfg.Generator.Path, "/") {
		cfg.Generator.Path = "/" + cfg.Generator.Path
	}
	cfg.Generator.BaseURL = strings.TrimRight(cfg.Generator.BaseURL, "/")

	if cfg.Server.RefreshInterval <= 0 {
		cfg.Server.RefreshInterval = 1
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 86400
	}
	if cfg.Session.SubmitLockTTL <= 0 {
		cfg.Session.SubmitLockTTL = 300
	}

	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Generator.BaseURL == "" {
		return fmt.Errorf("generator.base_url is required")
	}
	if !strings.HasPrefix(cfg.Generator.BaseURL, "http://") && !strings.HasPrefix(cfg.Generator.BaseURL, "https://") {
		return fmt.Errorf("generator.base_url must be an http(s) URL")
	}
	if cfg.Generator.Timeout < 0 {
		return fmt.Errorf("generator.timeout must not be negative")
	}
	if cfg.Listing.ProgressInterval < 0 {
		return fmt.Errorf("listing.progress_interval must not be negative")
	}
	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	return nil
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
