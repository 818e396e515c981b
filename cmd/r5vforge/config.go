package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/r5vforge/r5vforge"
)

const (
	// ConfigName is the config file name without extension. YAML and TOML
	// are both accepted.
	ConfigName = "r5vforge"
	// EnvPrefix prefixes environment overrides, e.g. R5VFORGE_OUTPUT_DIR.
	EnvPrefix = "R5VFORGE"
)

// Config holds the CLI settings.
type Config struct {
	OutputDir       string
	ScriptExtension string
	EmbedProject    bool
	LogLevel        string
	CacheSize       int
	CatalogFiles    []string

	// File is the config file that was read, empty when none was found.
	File string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		CacheSize: r5vforge.DefaultCacheSize,
	}
}

// configDirs are searched in order when no file is given.
func configDirs(workDir string) []string {
	dirs := []string{workDir}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", ConfigName))
	}
	return dirs
}

// LoadConfig reads the configuration. A .env file in workDir is loaded into
// the environment first. When file is set it must exist; otherwise
// r5vforge.yaml or r5vforge.toml is looked up in workDir and then in
// $HOME/.config/r5vforge, and a missing file is not an error.
func LoadConfig(workDir, file string) (*Config, error) {
	if workDir == "" {
		workDir = "."
	}
	if err := godotenv.Load(filepath.Join(workDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	defaults := DefaultConfig()
	v := viper.New()
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("script_extension", defaults.ScriptExtension)
	v.SetDefault("embed_project", defaults.EmbedProject)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("catalog_files", defaults.CatalogFiles)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		for _, dir := range configDirs(workDir) {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		OutputDir:       v.GetString("output_dir"),
		ScriptExtension: v.GetString("script_extension"),
		EmbedProject:    v.GetBool("embed_project"),
		LogLevel:        v.GetString("log_level"),
		CacheSize:       v.GetInt("cache_size"),
		CatalogFiles:    v.GetStringSlice("catalog_files"),
		File:            v.ConfigFileUsed(),
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("cache_size must not be negative, got %d", cfg.CacheSize)
	}
	return cfg, nil
}
