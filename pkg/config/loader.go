package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".pipedag"
	configType      = "yaml"
	envPrefix       = "PIPEDAG"
	envKeySeparator = "_"
)

// LoadConfig reads configuration from configPath (or, if empty, from a
// ".pipedag.yaml" discovered in the current directory or the user's home
// directory), applies defaults, layers PIPEDAG_-prefixed environment
// overrides on top, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)

		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	err := viperCfg.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	err = viperCfg.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults seeds viperCfg with the package defaults so that unset
// keys in the config file and unset environment variables still resolve
// to a usable value.
func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.workers", DefaultEngineWorkers)
	viperCfg.SetDefault("engine.memory_budget", DefaultEngineMemoryBudget)
	viperCfg.SetDefault("engine.storage.backend", DefaultStorageBackend)
	viperCfg.SetDefault("engine.storage.root", DefaultStorageRoot)
	viperCfg.SetDefault("engine.storage.compress_blobs", DefaultStorageCompressBlobs)
	viperCfg.SetDefault("engine.cache.input_blob_size", DefaultCacheInputBlobSize)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("server.enabled", DefaultServerEnabled)
	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
}
