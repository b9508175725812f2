package types

import "fmt"

// Style table name and columns.
const (
	StyleTableName = "gpkgext_style"

	ColumnID          = "id"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnColor       = "color"
	ColumnOpacity     = "opacity"
	ColumnWidth       = "width"
	ColumnFillColor   = "fill_color"
	ColumnFillOpacity = "fill_opacity"
)

var styleSchema = NewTableSchema(StyleTableName,
	Column{Name: ColumnID, Type: DataTypeInteger, NotNull: true, PrimaryKey: true},
	Column{Name: ColumnName, Type: DataTypeText},
	Column{Name: ColumnDescription, Type: DataTypeText},
	Column{Name: ColumnColor, Type: DataTypeText, Constraint: HexColor{}},
	Column{Name: ColumnOpacity, Type: DataTypeReal, Constraint: UnitInterval},
	Column{Name: ColumnWidth, Type: DataTypeReal, Constraint: NonNegative},
	Column{Name: ColumnFillColor, Type: DataTypeText, Constraint: HexColor{}},
	Column{Name: ColumnFillOpacity, Type: DataTypeReal, Constraint: UnitInterval},
)

// StyleSchema returns the shared style table layout.
func StyleSchema() *TableSchema {
	return styleSchema
}

// StyleRow is a typed view over a style table row.
type StyleRow struct {
	row *Row
}

// NewStyleRow returns an empty, unsaved style.
func NewStyleRow() *StyleRow {
	return &StyleRow{row: NewRow(styleSchema)}
}

// StyleRowOf wraps an existing row. The row must use the style layout.
func StyleRowOf(row *Row) (*StyleRow, error) {
	if row.Schema() != styleSchema {
		return nil, fmt.Errorf("%w: %s is not a style row", ErrSchemaMismatch, row.Table())
	}
	return &StyleRow{row: row}, nil
}

// Row returns the underlying generic row.
func (s *StyleRow) Row() *Row { return s.row }

// ID returns the style id, 0 when unsaved.
func (s *StyleRow) ID() int64 { return s.row.ID() }

// Name returns the style name, "" when absent.
func (s *StyleRow) Name() string { return stringValue(s.row, ColumnName) }

// SetName sets the name; "" clears it.
func (s *StyleRow) SetName(name string) {
	s.row.values[s.row.schema.ColumnIndex(ColumnName)] = nullString(name)
}

// Description returns the description, "" when absent.
func (s *StyleRow) Description() string { return stringValue(s.row, ColumnDescription) }

// SetDescription sets the description; "" clears it.
func (s *StyleRow) SetDescription(description string) {
	s.row.values[s.row.schema.ColumnIndex(ColumnDescription)] = nullString(description)
}

// HexColor returns the stroke color, "" when absent.
func (s *StyleRow) HexColor() string { return stringValue(s.row, ColumnColor) }

// SetHexColor validates and stores the stroke color; "" clears it.
func (s *StyleRow) SetHexColor(color string) error {
	return s.row.Set(ColumnColor, nullString(color))
}

// Opacity returns the stroke opacity, nil when unspecified.
func (s *StyleRow) Opacity() *float64 { return floatValue(s.row, ColumnOpacity) }

// SetOpacity validates and stores the stroke opacity; nil clears it.
func (s *StyleRow) SetOpacity(opacity *float64) error {
	return s.row.Set(ColumnOpacity, opacity)
}

// Color returns the stroke color and opacity, nil when both are absent.
func (s *StyleRow) Color() *Color { return readColor(s.row, ColumnColor, ColumnOpacity) }

// SetColor writes both stroke color parts; nil clears both.
func (s *StyleRow) SetColor(c *Color) error {
	return writeColor(s.row, c, ColumnColor, ColumnOpacity)
}

// Width returns the stroke width, nil when unspecified.
func (s *StyleRow) Width() *float64 { return floatValue(s.row, ColumnWidth) }

// SetWidth validates and stores the stroke width; nil clears it.
func (s *StyleRow) SetWidth(width *float64) error {
	return s.row.Set(ColumnWidth, width)
}

// WidthOr returns the width, or fallback when unspecified.
func (s *StyleRow) WidthOr(fallback float64) float64 {
	if w := s.Width(); w != nil {
		return *w
	}
	return fallback
}

// FillHexColor returns the fill color, "" when absent.
func (s *StyleRow) FillHexColor() string { return stringValue(s.row, ColumnFillColor) }

// SetFillHexColor validates and stores the fill color; "" clears it.
func (s *StyleRow) SetFillHexColor(color string) error {
	return s.row.Set(ColumnFillColor, nullString(color))
}

// FillOpacity returns the fill opacity, nil when unspecified.
func (s *StyleRow) FillOpacity() *float64 { return floatValue(s.row, ColumnFillOpacity) }

// SetFillOpacity validates and stores the fill opacity; nil clears it.
func (s *StyleRow) SetFillOpacity(opacity *float64) error {
	return s.row.Set(ColumnFillOpacity, opacity)
}

// FillColor returns the fill color and opacity, nil when both are absent.
func (s *StyleRow) FillColor() *Color { return readColor(s.row, ColumnFillColor, ColumnFillOpacity) }

// SetFillColor writes both fill color parts; nil clears both.
func (s *StyleRow) SetFillColor(c *Color) error {
	return writeColor(s.row, c, ColumnFillColor, ColumnFillOpacity)
}

// Copy returns an independent style with the same values.
func (s *StyleRow) Copy() *StyleRow {
	return &StyleRow{row: s.row.Copy()}
}

func stringValue(r *Row, column string) string {
	s, _ := r.Get(column).(string)
	return s
}

func floatValue(r *Row, column string) *float64 {
	f, ok := r.Get(column).(float64)
	if !ok {
		return nil
	}
	return &f
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
