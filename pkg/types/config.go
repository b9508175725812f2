package types

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the parameters for Container.Attach.
type Config struct {
	// Path is the container file. Ignored when InMemory is set.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// InMemory opens a private in-memory container.
	InMemory bool `json:"in_memory" yaml:"in_memory" mapstructure:"in_memory"`

	// MaxOpenConns caps the database/sql pool. Zero means DefaultMaxOpenConns.
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`

	// BusyTimeout is how long SQLite waits on a locked file.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout" mapstructure:"busy_timeout"`

	// LogLevel is a logrus level name. Empty means DefaultLogLevel.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Defaults applied by Attach for zero-valued fields.
const (
	DefaultMaxOpenConns = 1
	DefaultBusyTimeout  = 5 * time.Second
	DefaultLogLevel     = "warning"
)

// Config validation errors.
var (
	ErrPathEmpty           = errors.New("path must not be empty unless in_memory is set")
	ErrPathConflict        = errors.New("path and in_memory are mutually exclusive")
	ErrMaxOpenConnsInvalid = errors.New("max_open_conns must not be negative")
	ErrBusyTimeoutInvalid  = errors.New("busy_timeout must not be negative")
	ErrLogLevelUnknown     = errors.New("unknown log level")
)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.InMemory && c.Path != "" {
		return ErrPathConflict
	}
	if !c.InMemory && c.Path == "" {
		return ErrPathEmpty
	}
	if c.MaxOpenConns < 0 {
		return ErrMaxOpenConnsInvalid
	}
	if c.BusyTimeout < 0 {
		return ErrBusyTimeoutInvalid
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return ErrLogLevelUnknown
		}
	}
	return nil
}

// WithDefaults returns a copy of c with zero-valued tuning fields filled in.
func (c Config) WithDefaults() Config {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}
