package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every ConfigurationError, ValidationError and StorageError
// matches its class with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrStorage       = errors.New("storage error")
)

// Container and entity errors.
var (
	ErrContainerDetached   = errors.New("container is detached")
	ErrAlreadyAttached     = errors.New("container is already attached")
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidID           = errors.New("invalid entity ID")
	ErrInvalidRelation     = errors.New("invalid relation")
	ErrUnknownGeometryType = errors.New("unknown geometry type")
	ErrSchemaMismatch      = errors.New("row schema mismatch")
)

// ConfigurationError reports that a table does not satisfy a precondition
// about its identity or type, e.g. styles requested for a non-feature table.
// Err, when set, is the underlying cause.
type ConfigurationError struct {
	Table  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Table == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: table %s: %s", e.Table, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(table, format string, args ...any) error {
	return &ConfigurationError{Table: table, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports a value outside its column domain. The row the
// value was written to is left unchanged.
type ValidationError struct {
	Column string
	Value  any
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: column %s: invalid value %v: %s", e.Column, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failed query or statement with the relation context
// it ran under. Fields that do not apply are left empty.
type StorageError struct {
	Op           string
	Relation     string
	MappingTable string
	BaseTable    string
	RelatedTable string
	Err          error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString("storage: ")
	b.WriteString(e.Op)
	if e.MappingTable != "" {
		fmt.Fprintf(&b, " for relationship '%s'", e.MappingTable)
	}
	if e.Relation != "" {
		fmt.Fprintf(&b, " (%s)", e.Relation)
	}
	if e.BaseTable != "" || e.RelatedTable != "" {
		fmt.Fprintf(&b, " between %s and %s", e.BaseTable, e.RelatedTable)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
