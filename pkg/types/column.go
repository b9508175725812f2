package types

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DataType is the SQLite storage class declared for a column.
type DataType string

// Column data types.
const (
	DataTypeInteger DataType = "INTEGER"
	DataTypeReal    DataType = "REAL"
	DataTypeText    DataType = "TEXT"
	DataTypeBlob    DataType = "BLOB"
)

// Constraint restricts the values a column accepts. Check receives a non-nil
// value already coerced to the column's Go type and returns the value to
// store, which may be normalized.
type Constraint interface {
	Check(value any) (any, error)
}

// Column describes one column of a TableSchema.
type Column struct {
	Index      int
	Name       string
	Type       DataType
	NotNull    bool
	PrimaryKey bool
	Constraint Constraint
}

// TableSchema is the fixed column layout of a table. Rows reference a schema
// but never own or modify it.
type TableSchema struct {
	Name    string
	Columns []Column
	index   map[string]int
}

// NewTableSchema builds a schema, assigning column indexes in order.
func NewTableSchema(name string, columns ...Column) *TableSchema {
	s := &TableSchema{
		Name:    name,
		Columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		c.Index = i
		s.Columns[i] = c
		s.index[c.Name] = i
	}
	return s
}

// ColumnIndex returns the index of the named column, or -1.
func (s *TableSchema) ColumnIndex(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Column returns the named column.
func (s *TableSchema) Column(name string) (Column, bool) {
	i := s.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return s.Columns[i], true
}

// ColumnNames returns the column names in schema order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary key column, if the schema declares one.
func (s *TableSchema) PrimaryKey() (Column, bool) {
	for _, c := range s.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return Column{}, false
}

// Range accepts REAL values in [Min, Max]. Use math.Inf(1) for an open upper
// bound. NaN is always rejected.
type Range struct {
	Min float64
	Max float64
}

// Check implements Constraint.
func (r Range) Check(value any) (any, error) {
	f, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("expected a real number, got %T", value)
	}
	if math.IsNaN(f) {
		return nil, fmt.Errorf("must be a number")
	}
	if f < r.Min || f > r.Max {
		if math.IsInf(r.Max, 1) {
			return nil, fmt.Errorf("must be greater than or equal to %v", r.Min)
		}
		return nil, fmt.Errorf("must be set inclusively between %v and %v", r.Min, r.Max)
	}
	return f, nil
}

// Common domains.
var (
	UnitInterval = Range{Min: 0.0, Max: 1.0}
	NonNegative  = Range{Min: 0.0, Max: math.Inf(1)}
)

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)

// HexColor accepts #RGB and #RRGGBB strings. A missing '#' is added and the
// stored value is upper-cased.
type HexColor struct{}

// Check implements Constraint.
func (HexColor) Check(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", value)
	}
	return NormalizeHexColor(s)
}

// NormalizeHexColor validates and normalizes a hex color.
func NormalizeHexColor(color string) (string, error) {
	validated := color
	if !strings.HasPrefix(validated, "#") {
		validated = "#" + validated
	}
	if !hexColorPattern.MatchString(validated) {
		return "", fmt.Errorf("color must be in hex format #RRGGBB or #RGB")
	}
	return strings.ToUpper(validated), nil
}

// coerce converts value to the Go type used for t: int64, float64, string
// or []byte. Typed nil pointers become nil.
func coerce(t DataType, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *string:
		if v == nil {
			return nil, nil
		}
		value = *v
	case *float64:
		if v == nil {
			return nil, nil
		}
		value = *v
	case *int64:
		if v == nil {
			return nil, nil
		}
		value = *v
	}

	switch t {
	case DataTypeInteger:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		}
	case DataTypeReal:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case DataTypeText:
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case DataTypeBlob:
		switch v := value.(type) {
		case []byte:
			return append([]byte(nil), v...), nil
		case string:
			return []byte(v), nil
		}
	}
	return nil, fmt.Errorf("cannot store %T in a %s column", value, t)
}
