package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	State   StateConfig   `mapstructure:"state"`
	Hunt    HuntConfig    `mapstructure:"hunt"`
	Server  ServerConfig  `mapstructure:"server"`
	History HistoryConfig `mapstructure:"history"`
}

type StateConfig struct {
	// Path points at an explicit checkpoint file; S3 at an s3://bucket/key
	// object. When both are empty, Dir is probed for a workspace layout.
	Path string `mapstructure:"path"`
	S3   string `mapstructure:"s3"`
	Dir  string `mapstructure:"dir"`
}

type HuntConfig struct {
	App    string `mapstructure:"app"`
	Stage  string `mapstructure:"stage"`
	Region string `mapstructure:"region"`
}

type ServerConfig struct {
	Listen     string `mapstructure:"listen"`
	ReadOnly   bool   `mapstructure:"read_only"`
	APIToken   string `mapstructure:"api_token"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads the configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".stackpeek"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("stackpeek")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STACKPEEK")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("state.dir", ".")
	v.SetDefault("hunt.app", "*")
	v.SetDefault("hunt.stage", "*")
	v.SetDefault("server.listen", ":7700")
	v.SetDefault("server.read_only", false)
	v.SetDefault("history.path", "./data/stackpeek.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
