package types

import "fmt"

// Row is an ordered set of values laid out by a TableSchema. Writes go
// through the column's type coercion and domain constraint; a rejected
// write leaves the row unchanged.
type Row struct {
	schema *TableSchema
	values []any
}

// NewRow returns an empty row for schema.
func NewRow(schema *TableSchema) *Row {
	return &Row{
		schema: schema,
		values: make([]any, len(schema.Columns)),
	}
}

// LoadRow builds a row from stored values in schema order. Values are
// coerced to column types but domain constraints are not re-checked, so a
// row written by another tool can still be read.
func LoadRow(schema *TableSchema, values []any) (*Row, error) {
	if len(values) != len(schema.Columns) {
		return nil, fmt.Errorf("%w: %s has %d columns, got %d values",
			ErrSchemaMismatch, schema.Name, len(schema.Columns), len(values))
	}
	r := NewRow(schema)
	for i, c := range schema.Columns {
		v, err := coerce(c.Type, values[i])
		if err != nil {
			return nil, fmt.Errorf("loading %s.%s: %w", schema.Name, c.Name, err)
		}
		r.values[i] = v
	}
	return r, nil
}

// Schema returns the row's column layout.
func (r *Row) Schema() *TableSchema {
	return r.schema
}

// Table returns the name of the table the row belongs to.
func (r *Row) Table() string {
	return r.schema.Name
}

// Get returns the value of the named column, or nil when the value is
// absent or the column does not exist.
func (r *Row) Get(column string) any {
	i := r.schema.ColumnIndex(column)
	if i < 0 {
		return nil
	}
	return r.values[i]
}

// Set validates value against the named column and stores it. Passing nil
// clears the value unless the column is NOT NULL.
func (r *Row) Set(column string, value any) error {
	c, ok := r.schema.Column(column)
	if !ok {
		return &ValidationError{Column: column, Value: value, Reason: "no such column in " + r.schema.Name}
	}
	v, err := checkValue(c, value)
	if err != nil {
		return err
	}
	r.values[c.Index] = v
	return nil
}

// SetAll validates every value first and stores them only if all pass.
func (r *Row) SetAll(values map[string]any) error {
	checked := make(map[int]any, len(values))
	for column, value := range values {
		c, ok := r.schema.Column(column)
		if !ok {
			return &ValidationError{Column: column, Value: value, Reason: "no such column in " + r.schema.Name}
		}
		v, err := checkValue(c, value)
		if err != nil {
			return err
		}
		checked[c.Index] = v
	}
	for i, v := range checked {
		r.values[i] = v
	}
	return nil
}

// checkValue coerces and constrains value for c without touching any row.
func checkValue(c Column, value any) (any, error) {
	v, err := coerce(c.Type, value)
	if err != nil {
		return nil, &ValidationError{Column: c.Name, Value: value, Reason: err.Error()}
	}
	if v == nil {
		if c.NotNull && !c.PrimaryKey {
			return nil, &ValidationError{Column: c.Name, Value: value, Reason: "must not be null"}
		}
		return nil, nil
	}
	if c.Constraint != nil {
		v, err = c.Constraint.Check(v)
		if err != nil {
			return nil, &ValidationError{Column: c.Name, Value: value, Reason: err.Error()}
		}
	}
	return v, nil
}

// ID returns the primary key value, or 0 when the row has not been stored.
func (r *Row) ID() int64 {
	pk, ok := r.schema.PrimaryKey()
	if !ok {
		return 0
	}
	id, _ := r.values[pk.Index].(int64)
	return id
}

// HasID reports whether the row carries a primary key value.
func (r *Row) HasID() bool {
	pk, ok := r.schema.PrimaryKey()
	return ok && r.values[pk.Index] != nil
}

// SetID assigns the primary key. Storage layers call this after insert.
func (r *Row) SetID(id int64) {
	if pk, ok := r.schema.PrimaryKey(); ok {
		r.values[pk.Index] = id
	}
}

// ClearID removes the primary key so the row is inserted as new.
func (r *Row) ClearID() {
	if pk, ok := r.schema.PrimaryKey(); ok {
		r.values[pk.Index] = nil
	}
}

// Values returns a copy of the values in schema order.
func (r *Row) Values() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[i] = v
	}
	return out
}

// Missing returns the NOT NULL columns, other than the primary key, that
// have no value.
func (r *Row) Missing() []string {
	var missing []string
	for _, c := range r.schema.Columns {
		if c.NotNull && !c.PrimaryKey && r.values[c.Index] == nil {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// Copy returns an independent row with the same values and schema.
func (r *Row) Copy() *Row {
	return &Row{schema: r.schema, values: r.Values()}
}
