package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/rgadapt/pkg/types"
)

// Load reads and parses the configuration file on top of the defaults.
// An empty path uses the defaults alone. Environment variables with the
// RGA_ prefix override both.
func Load(configPath string) (*types.Config, error) {
	cfg := GetDefault()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the environment.
// Variables already set win. An empty path tries ./.env and ignores a
// missing file.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func Validate(cfg *types.Config) error {
	if cfg.Adapters.MaxArchiveRecursion < 1 {
		return fmt.Errorf("invalid max_archive_recursion: %d (must be at least 1)", cfg.Adapters.MaxArchiveRecursion)
	}

	if cfg.Cache.MaxBlobSize < 0 {
		return fmt.Errorf("invalid cache max_blob_size: %d", cfg.Cache.MaxBlobSize)
	}
	if cfg.Cache.CompressionLevel < 1 || cfg.Cache.CompressionLevel > 22 {
		return fmt.Errorf("invalid cache compression_level: %d (must be 1-22)", cfg.Cache.CompressionLevel)
	}

	if !cfg.Cache.Disabled {
		if err := validateStorage(cfg.Cache.Storage); err != nil {
			return err
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Logging.Format)
	}

	return nil
}

func validateStorage(s types.StorageConfig) error {
	if s.Adapter != "local" && s.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", s.Adapter)
	}

	if s.Adapter == "local" {
		if s.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		// Ensure base path is absolute
		if !filepath.IsAbs(s.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", s.Local.BasePath)
		}
	}

	if s.Adapter == "s3" {
		if s.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if s.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
// Environment variables are prefixed with RGA_
func applyEnvOverrides(cfg *types.Config) error {
	// Adapter overrides
	if val, ok := os.LookupEnv("RGA_ADAPTERS"); ok {
		cfg.Adapters.Override = val
	}
	if err := envBool("RGA_SLOW_MATCHING", &cfg.Adapters.SlowMatching); err != nil {
		return err
	}
	if err := envInt("RGA_MAX_ARCHIVE_RECURSION", &cfg.Adapters.MaxArchiveRecursion); err != nil {
		return err
	}

	// Cache overrides
	if err := envBool("RGA_CACHE_DISABLED", &cfg.Cache.Disabled); err != nil {
		return err
	}
	if err := envInt("RGA_CACHE_MAX_BLOB_SIZE", &cfg.Cache.MaxBlobSize); err != nil {
		return err
	}
	if err := envInt("RGA_CACHE_COMPRESSION_LEVEL", &cfg.Cache.CompressionLevel); err != nil {
		return err
	}

	// Storage overrides
	storage := &cfg.Cache.Storage
	if val := os.Getenv("RGA_STORAGE_ADAPTER"); val != "" {
		storage.Adapter = val
	}
	if val := os.Getenv("RGA_STORAGE_LOCAL_BASE_PATH"); val != "" {
		storage.Local.BasePath = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_BUCKET"); val != "" {
		storage.S3.Bucket = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_REGION"); val != "" {
		storage.S3.Region = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_ENDPOINT"); val != "" {
		storage.S3.Endpoint = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_PREFIX"); val != "" {
		storage.S3.Prefix = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("RGA_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		storage.S3.SecretAccessKey = val
	}

	// Logging overrides
	if val := os.Getenv("RGA_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("RGA_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	return nil
}

func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = b
	return nil
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Adapters: types.AdaptersConfig{
			MaxArchiveRecursion: 5,
		},
		Cache: types.CacheConfig{
			MaxBlobSize:      2_000_000,
			CompressionLevel: 12,
			Storage: types.StorageConfig{
				Adapter: "local",
				Local: types.LocalStorageOpts{
					BasePath: defaultCacheDir(),
				},
			},
		},
		Logging: types.LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || !filepath.IsAbs(dir) {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rgadapt")
}
