// Package config provides YAML-based configuration loading for pipedag.
package config

// Default configuration values applied by LoadConfig before the config file
// and environment overrides are layered on top.
const (
	DefaultEngineWorkers      = 0
	DefaultEngineMemoryBudget = ""

	DefaultStorageBackend       = StorageBackendFileArray
	DefaultStorageRoot          = ""
	DefaultStorageCompressBlobs = false

	DefaultCacheInputBlobSize = 128

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	DefaultServerEnabled = false
	DefaultServerHost    = "127.0.0.1"
	DefaultServerPort    = 8080
)
