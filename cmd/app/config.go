package main

import (
	"fmt"
	"strings"

	"familyquestboard/internal/repository"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Storage  StorageConfig     `yaml:"storage"`

	Auth AuthConfig `yaml:"auth"`

	LogLevel  string `yaml:"logLevel"`
	LogPretty bool   `yaml:"logPretty"`
}

// StorageConfig locates the state file used when no database is configured.
type StorageConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	TokenSecret string `yaml:"tokenSecret"`
	DebugMode   bool   `yaml:"debugMode"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// local mode has no remote callers, so the token secret is only needed
	// alongside a database
	if cfg.Database.Host != "" && cfg.Auth.TokenSecret == "" {
		return nil, fmt.Errorf("auth.tokenSecret is required")
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "."
	}

	return &cfg, nil
}
