// Package config loads the container configuration used by sqlite.Open.
// GEOSTYLE_* environment variables override geostyle.yaml, which overrides
// the built-in defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/geostyle/internal/paths"
	"github.com/mesh-intelligence/geostyle/pkg/types"
)

const (
	configFileName = "geostyle"
	configFileType = "yaml"
	envPrefix      = "GEOSTYLE"

	keyPath         = "path"
	keyInMemory     = "in_memory"
	keyMaxOpenConns = "max_open_conns"
	keyBusyTimeout  = "busy_timeout"
	keyLogLevel     = "log_level"
)

// New returns a viper instance with defaults, the config search path and
// environment binding set up. dir may be empty to skip file lookup.
func New(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(keyPath, "")
	v.SetDefault(keyInMemory, false)
	v.SetDefault(keyMaxOpenConns, types.DefaultMaxOpenConns)
	v.SetDefault(keyBusyTimeout, types.DefaultBusyTimeout)
	v.SetDefault(keyLogLevel, types.DefaultLogLevel)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads geostyle.yaml from dir and returns the validated Config. A
// missing file is not an error.
func Load(dir string) (types.Config, error) {
	v := New(dir)
	if dir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return types.Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return Decode(v)
}

// LoadDefault loads geostyle.yaml from dir, GEOSTYLE_CONFIG_DIR or the
// platform configuration directory, in that order.
func LoadDefault(dir string) (types.Config, error) {
	resolved, err := paths.ResolveConfigDir(dir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	return Load(resolved)
}

// Decode converts v into a Config and validates it.
func Decode(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
