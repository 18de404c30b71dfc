package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dataviz/domain/chart"
	"dataviz/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Chart     ChartConfig
	Session   SessionConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

// UploadConfig bounds what a single upload may contain
type UploadConfig struct {
	MaxBytes int64
}

// ChartConfig holds rendering defaults
type ChartConfig struct {
	Theme                chart.Theme
	Width                int
	MaxConcurrentRenders int64
}

// SessionConfig controls idle session eviction
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Upload:    *loadUploadConfig(),
		Session:   *loadSessionConfig(),
		Profiling: *loadProfilingConfig(),
	}

	chartConfig, err := loadChartConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load chart configuration")
	}
	config.Chart = *chartConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", GinMode: "release", CORSOrigins: []string{"*"}},
		Upload:  UploadConfig{MaxBytes: 50 << 20},
		Chart:   ChartConfig{Theme: chart.DefaultTheme, Width: 1000, MaxConcurrentRenders: 4},
		Session: SessionConfig{TTL: 30 * time.Minute, SweepInterval: 5 * time.Minute},
		Profiling: ProfilingConfig{
			Port: "6060",
		},
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "release"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxBytes: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 50)) << 20,
	}
}

func loadChartConfig() (*ChartConfig, error) {
	theme, err := chart.ParseTheme(os.Getenv("CHART_THEME"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &ChartConfig{
		Theme:                theme,
		Width:                getEnvIntOrDefault("CHART_WIDTH", 1000),
		MaxConcurrentRenders: int64(getEnvIntOrDefault("MAX_CONCURRENT_RENDERS", 4)),
	}, nil
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:           getEnvDurationOrDefault("SESSION_TTL", 30*time.Minute),
		SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP", 5*time.Minute),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Chart.Width < 200 {
		return errors.ConfigInvalid(fmt.Sprintf("chart width %d is too small", config.Chart.Width))
	}
	if config.Chart.MaxConcurrentRenders < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_RENDERS must be at least 1")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
