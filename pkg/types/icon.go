package types

import "fmt"

// Icon table name and the columns it adds to name and description.
const (
	IconTableName = "gpkgext_icon"

	ColumnData        = "data"
	ColumnContentType = "content_type"
	ColumnHeight      = "height"
	ColumnAnchorU     = "anchor_u"
	ColumnAnchorV     = "anchor_v"
)

var iconSchema = NewTableSchema(IconTableName,
	Column{Name: ColumnID, Type: DataTypeInteger, NotNull: true, PrimaryKey: true},
	Column{Name: ColumnData, Type: DataTypeBlob, NotNull: true},
	Column{Name: ColumnContentType, Type: DataTypeText, NotNull: true},
	Column{Name: ColumnName, Type: DataTypeText},
	Column{Name: ColumnDescription, Type: DataTypeText},
	Column{Name: ColumnWidth, Type: DataTypeReal, Constraint: NonNegative},
	Column{Name: ColumnHeight, Type: DataTypeReal, Constraint: NonNegative},
	Column{Name: ColumnAnchorU, Type: DataTypeReal, Constraint: UnitInterval},
	Column{Name: ColumnAnchorV, Type: DataTypeReal, Constraint: UnitInterval},
)

// IconSchema returns the shared icon table layout. The icon table is a media
// table: it carries data and content_type.
func IconSchema() *TableSchema {
	return iconSchema
}

// IconRow is a typed view over an icon table row.
type IconRow struct {
	row *Row
}

// NewIconRow returns an empty, unsaved icon.
func NewIconRow() *IconRow {
	return &IconRow{row: NewRow(iconSchema)}
}

// IconRowOf wraps an existing row. The row must use the icon layout.
func IconRowOf(row *Row) (*IconRow, error) {
	if row.Schema() != iconSchema {
		return nil, fmt.Errorf("%w: %s is not an icon row", ErrSchemaMismatch, row.Table())
	}
	return &IconRow{row: row}, nil
}

func (i *IconRow) Row() *Row    { return i.row }
func (i *IconRow) ID() int64    { return i.row.ID() }
func (i *IconRow) Name() string { return stringValue(i.row, ColumnName) }

func (i *IconRow) SetName(name string) {
	i.row.values[i.row.schema.ColumnIndex(ColumnName)] = nullString(name)
}

func (i *IconRow) Description() string { return stringValue(i.row, ColumnDescription) }

func (i *IconRow) SetDescription(description string) {
	i.row.values[i.row.schema.ColumnIndex(ColumnDescription)] = nullString(description)
}

// Data returns a copy of the image bytes.
func (i *IconRow) Data() []byte {
	b, _ := i.row.Get(ColumnData).([]byte)
	return append([]byte(nil), b...)
}

// SetData stores the image bytes and their MIME type.
func (i *IconRow) SetData(data []byte, contentType string) error {
	return i.row.SetAll(map[string]any{ColumnData: data, ColumnContentType: contentType})
}

func (i *IconRow) ContentType() string { return stringValue(i.row, ColumnContentType) }

func (i *IconRow) Width() *float64 { return floatValue(i.row, ColumnWidth) }

func (i *IconRow) SetWidth(width *float64) error { return i.row.Set(ColumnWidth, width) }

func (i *IconRow) Height() *float64 { return floatValue(i.row, ColumnHeight) }

func (i *IconRow) SetHeight(height *float64) error { return i.row.Set(ColumnHeight, height) }

// AnchorU is the horizontal anchor as a fraction of the width, nil meaning
// centered.
func (i *IconRow) AnchorU() *float64 { return floatValue(i.row, ColumnAnchorU) }

func (i *IconRow) SetAnchorU(u *float64) error { return i.row.Set(ColumnAnchorU, u) }

// AnchorV is the vertical anchor as a fraction of the height, nil meaning
// bottom.
func (i *IconRow) AnchorV() *float64 { return floatValue(i.row, ColumnAnchorV) }

func (i *IconRow) SetAnchorV(v *float64) error { return i.row.Set(ColumnAnchorV, v) }

// Copy returns an independent icon with the same values.
func (i *IconRow) Copy() *IconRow {
	return &IconRow{row: i.row.Copy()}
}
