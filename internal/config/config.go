// Package config loads and validates SearXiv's TOML configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the complete SearXiv configuration.
type Config struct {
	DatabaseURL string `mapstructure:"database_url" validate:"required"`

	IndexZstdCompressionLevel int    `mapstructure:"index_zstd_compression_level"`
	IndexDocstoreBlocksize    int    `mapstructure:"index_docstore_blocksize" validate:"min=1"`
	IndexWriterMemoryBudget   int    `mapstructure:"index_writer_memory_budget" validate:"min=1"`
	MaxResults                int    `mapstructure:"max_results" validate:"min=1"`
	DictionariesPath          string `mapstructure:"dictionaries_path"`

	Embedding struct {
		ModelPath string `mapstructure:"model_path"`
		VocabPath string `mapstructure:"vocab_path"`
		Dimension int    `mapstructure:"dimension"`
	} `mapstructure:"embedding"`

	CLISpecific struct {
		Prune bool `mapstructure:"prune"`
	} `mapstructure:"cli_specific"`

	ServerSpecific struct {
		Port int `mapstructure:"port" validate:"min=1,max=65535"`
	} `mapstructure:"server_specific"`

	Logging struct {
		Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format    string `mapstructure:"format" validate:"oneof=json text"`
		AddSource bool   `mapstructure:"add_source"`
	} `mapstructure:"logging"`
}

// envPrefix namespaces environment variable overrides.
const envPrefix = "SEARXIV"

// configFileName is resolved under the XDG config directory.
const configFileName = "searxiv.toml"

// Load resolves searxiv.toml under the XDG config directory, applies
// SEARXIV_-prefixed environment overrides, and validates the result.
func Load() (*Config, error) {
	path, err := xdg.ConfigFile(configFileName)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. The file
// need not exist: defaults plus environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("index_docstore_blocksize", 100_000)
	v.SetDefault("index_writer_memory_budget", 100_000_000)
	v.SetDefault("max_results", 10)
	v.SetDefault("server_specific.port", 1818)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("embedding.dimension", 384)
}

// IndexCacheDir resolves the index cache directory under the XDG cache
// home. Deleting it is a legal operation; it forces a rebuild.
func IndexCacheDir() (string, error) {
	return xdg.CacheFile("searxiv/index")
}
