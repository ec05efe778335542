// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads shared pipeline configuration from an optional
// YAML file and CTR_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings shared by the pipeline binaries.
type Config struct {
	// LogDB is the DuckDB path holding the raw logs. Empty runs in
	// memory, which is only useful in tests.
	LogDB string `mapstructure:"log-db"`

	// StorageType selects the KV backend: memory or badger.
	StorageType string `mapstructure:"storage-type"`
	StoragePath string `mapstructure:"storage-path"`

	ArtifactRoot string `mapstructure:"artifact-root"`

	ModelName      string `mapstructure:"model-name"`
	ModelVersion   string `mapstructure:"model-version"`
	FeatureVersion string `mapstructure:"feature-version"`

	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log-level"`
}

// Load reads configuration with viper. Flags already parsed by the
// caller win over the file and environment through viper defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".ctr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CTR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-db", "ctr_logs.db")
	v.SetDefault("storage-type", "badger")
	v.SetDefault("storage-path", "ctr_state")
	v.SetDefault("artifact-root", "artifact")
	v.SetDefault("model-name", "linear_ctr")
	v.SetDefault("model-version", "latest")
	v.SetDefault("feature-version", "latest")
	v.SetDefault("port", "8080")
	v.SetDefault("log-level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
