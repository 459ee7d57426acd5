// Package config loads GLM TOE tile service configuration from environment
// variables, following the teacher's nested cfg.Server/cfg.CORS-style shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, grouped by concern.
type Config struct {
	Server    ServerConfig
	Grid      GridConfig
	TileCache TileCacheConfig
	Poll      PollConfig
	AWS       AWSConfig
}

// ServerConfig controls the HTTP listener and ambient behavior.
type ServerConfig struct {
	Port            string
	Environment     string // "development" or "production"
	LogLevel        string
	RetentionHours  int
	FetchTimeoutSec int
	WorkerPoolSize  int
}

// GridConfig controls which fixed grid the aggregator bins onto.
type GridConfig struct {
	UseABI bool
	ABILon0 float64
}

// TileCacheConfig controls the in-process tile LRU.
type TileCacheConfig struct {
	Size int
}

// PollConfig controls the background bucket poller.
type PollConfig struct {
	Enabled      bool
	Bucket       string
	Prefix       string
	IntervalSec  int
	GranulesMax  int
}

// AWSConfig controls the S3 client region.
type AWSConfig struct {
	Region string
}

// Load reads a local .env file if present (ignored if missing — this is a
// development convenience, not a requirement) and then populates Config from
// the process environment, applying the defaults documented in spec.md §6.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	abiLon0, err := envFloat("GLM_ABI_LON0", -75.0)
	if err != nil {
		return nil, err
	}
	tileCacheSize, err := envInt("GLM_TILE_CACHE_SIZE", 128)
	if err != nil {
		return nil, err
	}
	pollInterval, err := envInt("GLM_POLL_INTERVAL_SEC", 60)
	if err != nil {
		return nil, err
	}
	pollMax, err := envInt("GLM_POLL_GRANULES_MAX", 0)
	if err != nil {
		return nil, err
	}
	retentionHours, err := envInt("GLM_RETENTION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	fetchTimeoutSec, err := envInt("GLM_FETCH_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, err
	}
	workerPoolSize, err := envInt("GLM_WORKER_POOL_SIZE", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envString("PORT", "8080"),
			Environment:     envString("GLM_ENV", "production"),
			LogLevel:        envString("GLM_LOG_LEVEL", "info"),
			RetentionHours:  retentionHours,
			FetchTimeoutSec: fetchTimeoutSec,
			WorkerPoolSize:  workerPoolSize,
		},
		Grid: GridConfig{
			UseABI:  envBool("GLM_USE_ABI_GRID", true),
			ABILon0: abiLon0,
		},
		TileCache: TileCacheConfig{
			Size: tileCacheSize,
		},
		Poll: PollConfig{
			Enabled:     envBool("GLM_POLL_ENABLED", false),
			Bucket:      envString("GLM_POLL_BUCKET", "noaa-goes16"),
			Prefix:      envString("GLM_POLL_PREFIX", "GLM-L2-LCFA"),
			IntervalSec: pollInterval,
			GranulesMax: pollMax,
		},
		AWS: AWSConfig{
			Region: envString("AWS_REGION", "us-east-1"),
		},
	}

	return cfg, nil
}

// RetentionDuration returns Server.RetentionHours as a time.Duration.
func (c *Config) RetentionDuration() time.Duration {
	return time.Duration(c.Server.RetentionHours) * time.Hour
}

// FetchTimeout returns Server.FetchTimeoutSec as a time.Duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Server.FetchTimeoutSec) * time.Second
}

// PollInterval returns Poll.IntervalSec as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSec) * time.Second
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q: %w", key, v, err)
	}
	return parsed, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a number, got %q: %w", key, v, err)
	}
	return parsed, nil
}
