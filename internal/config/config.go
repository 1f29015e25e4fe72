// Package config loads qlgo's layered configuration (flags > env > config
// file > defaults) via Viper, mirroring the precedence and key-naming
// conventions the rest of the engine's ambient stack follows.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// Config is the top-level qlgo configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Vocab   VocabConfig   `mapstructure:"vocab"`
	Server  ServerConfig  `mapstructure:"server"`
}

// StorageConfig controls the on-disk badger-backed triple store.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// VocabConfig controls term collation in the live vocabulary.
type VocabConfig struct {
	IgnoreCase bool `mapstructure:"ignoreCase"`
}

// ServerConfig controls the HTTP SPARQL endpoint.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults installs the baseline values every key falls back to absent
// flag, env, or file overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.dir", "./qlgo_data")
	v.SetDefault("vocab.ignoreCase", false)
	v.SetDefault("server.addr", "localhost:8080")
}

// SetupEnv wires environment-variable overrides under the QLGO_ prefix, so
// e.g. QLGO_STORAGE_DIR overrides storage.dir.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("QLGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from path (if non-empty) or auto-discovered
// standard locations, applying defaults and QLGO_-prefixed env overrides,
// then validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(err, errs.CodeConfigInvalid, "reading config file "+path)
		}
	} else {
		v.SetConfigName("qlgo")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/qlgo")
		v.AddConfigPath("/etc/qlgo")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errs.Wrap(err, errs.CodeConfigInvalid, "reading config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "unmarshalling config")
	}

	if errList := cfg.Validate(); len(errList) > 0 {
		return nil, errs.Wrap(errors.Join(errList...), errs.CodeConfigInvalid, "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() []error {
	var errList []error
	if c.Storage.Dir == "" {
		errList = append(errList, errs.New(errs.CodeConfigInvalid, "config: storage.dir must not be empty"))
	}
	if c.Server.Addr == "" {
		errList = append(errList, errs.New(errs.CodeConfigInvalid, "config: server.addr must not be empty"))
	}
	return errList
}
