package types

// Config represents the overall application configuration
type Config struct {
	Adapters AdaptersConfig `yaml:"adapters" json:"adapters"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// AdaptersConfig controls which adapters run and how files are matched
type AdaptersConfig struct {
	// Override is a comma separated selection, e.g. "-zip,tar" or "+mail"
	Override            string `yaml:"override" json:"override"`
	SlowMatching        bool   `yaml:"slow_matching" json:"slow_matching"` // detect content type from magic bytes
	MaxArchiveRecursion int    `yaml:"max_archive_recursion" json:"max_archive_recursion"`
}

// CacheConfig controls the conversion output cache
type CacheConfig struct {
	Disabled         bool          `yaml:"disabled" json:"disabled"`
	MaxBlobSize      int           `yaml:"max_blob_size" json:"max_blob_size"`         // bytes of compressed output
	CompressionLevel int           `yaml:"compression_level" json:"compression_level"` // zstd level, 1-22
	Storage          StorageConfig `yaml:"storage" json:"storage"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem backend
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible backend
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Prefix          string `yaml:"prefix" json:"prefix"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // "text" or "json"
}
