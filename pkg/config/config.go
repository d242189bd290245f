// Package config provides configuration loading and validation for the pipedag engine and CLI.
package config

import "errors"

// Config is the top-level configuration struct for pipedag.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// EngineConfig holds scheduler/storage resource knobs.
type EngineConfig struct {
	Workers      int           `mapstructure:"workers"`
	MemoryBudget string        `mapstructure:"memory_budget"`
	Storage      StorageConfig `mapstructure:"storage"`
	Cache        CacheConfig   `mapstructure:"cache"`
}

// StorageConfig selects and configures the sharded array store backend.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	Root          string `mapstructure:"root"`
	CompressBlobs bool   `mapstructure:"compress_blobs"`
}

// CacheConfig sizes the in-process memoised input-blob cache.
type CacheConfig struct {
	InputBlobSize int `mapstructure:"input_blob_size"`
}

// LoggingConfig holds structured-logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig is reserved for a future status/metrics endpoint.
// Nothing listens on it yet; it is carried for parity with the ambient stack's
// convention of a Server sub-config even before a server exists.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Valid storage backend identifiers.
const (
	StorageBackendFileArray = "file_array"
	StorageBackendMemory    = "memory"
)

// maxPort is the highest valid TCP port number.
const maxPort = 65535

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkerCount indicates a negative worker count.
	ErrInvalidWorkerCount = errors.New("engine.workers must be non-negative")
	// ErrInvalidCacheSize indicates a negative cache size.
	ErrInvalidCacheSize = errors.New("engine.cache.input_blob_size must be non-negative")
	// ErrInvalidStorageBackend indicates an unrecognised storage backend.
	ErrInvalidStorageBackend = errors.New("engine.storage.backend must be \"file_array\" or \"memory\"")
	// ErrInvalidPort indicates a server port outside the valid TCP range.
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Engine.Workers < 0 {
		return ErrInvalidWorkerCount
	}

	if c.Engine.Cache.InputBlobSize < 0 {
		return ErrInvalidCacheSize
	}

	switch c.Engine.Storage.Backend {
	case StorageBackendFileArray, StorageBackendMemory:
	default:
		return ErrInvalidStorageBackend
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > maxPort) {
		return ErrInvalidPort
	}

	return nil
}
