package types

// Container is an attached GeoPackage-style store. Callers attach it to a
// file or memory, obtain the catalog and style APIs, and detach when done.
type Container interface {
	// Attach opens the store described by config and ensures the core
	// tables exist. Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases the store. Idempotent. After Detach, accessors
	// return ErrContainerDetached.
	Detach() error

	// TableType returns the gpkg_contents data type of a table, or "" when
	// the table is not registered in contents.
	TableType(name string) (string, error)

	// CreateFeatureTable creates a feature table with an integer id and a
	// geometry blob column and registers it in contents.
	CreateFeatureTable(name string, geometryType GeometryType) error

	// CreateAttributesTable creates a table laid out by schema and
	// registers it in contents as attributes.
	CreateAttributesTable(schema *TableSchema) error

	// CreateMediaTable creates a media table (id, data, content_type).
	CreateMediaTable(name string) error

	// Relations returns the relationship catalog.
	Relations() (RelationCatalog, error)

	// FeatureStyles returns the feature style extension.
	FeatureStyles() (FeatureStyleExtension, error)

	// TableStyles returns the style handle for a feature table. Returns a
	// ConfigurationError when the table is not a feature table.
	TableStyles(featureTable string) (TableStyles, error)
}

// RelationCatalog declares, inspects and removes relations, and reads and
// writes their mapping rows.
type RelationCatalog interface {
	// Declare validates the tables, creates the mapping table if absent and
	// records the relation. Declaring an existing relation returns it
	// unchanged.
	Declare(rel Relation) (*Relation, error)

	Has(baseTable, relatedTable, relationName string) (bool, error)
	HasBase(baseTable string) (bool, error)
	HasMappingTable(mappingTable string) (bool, error)

	// Get returns the relation using mappingTable, or ErrNotFound.
	Get(mappingTable string) (*Relation, error)

	// List returns the relations matching filter in unspecified order.
	List(filter RelationFilter) ([]*Relation, error)

	// Remove drops the mapping table and the catalog row. When no relation
	// remains the related tables extension is deregistered. Removing an
	// unknown relation is a no-op.
	Remove(rel Relation) error

	// RemoveForTable removes every relation whose base or related table is
	// table.
	RemoveForTable(table string) error

	AddMapping(rel *Relation, baseID, relatedID int64) error
	DeleteMappingsForBase(rel *Relation, baseID int64) (int64, error)
	DeleteMappingsForRelated(rel *Relation, relatedID int64) (int64, error)
	CountMappings(rel *Relation) (int64, error)

	// MappingsForBase returns the distinct related ids mapped to baseID.
	MappingsForBase(rel *Relation, baseID int64) ([]int64, error)

	// MappingsForRelated returns the distinct base ids mapped to relatedID.
	MappingsForRelated(rel *Relation, relatedID int64) ([]int64, error)

	// LegacyMappingsForRelated reproduces the historical reverse lookup,
	// which collected the related_id column instead of base_id.
	LegacyMappingsForRelated(rel *Relation, relatedID int64) ([]int64, error)

	// Extensions returns the registrations recorded for extensionName.
	Extensions(extensionName string) ([]Extension, error)
}

// FeatureStyleExtension manages style relationships across feature tables.
type FeatureStyleExtension interface {
	// Has reports whether any style or icon relationship exists for table.
	Has(featureTable string) (bool, error)

	// Tables lists feature tables that carry style relationships.
	Tables() ([]string, error)

	// DeleteRelationships removes all eight relationships of a table.
	DeleteRelationships(featureTable string) error

	// Remove removes the extension from every feature table.
	Remove() error

	// TableStyles returns the per-table handle.
	TableStyles(featureTable string) (TableStyles, error)
}

// TableStyles resolves and edits the styles and icons of one feature table.
// Table-level reads through the Cached* methods, TableStyle and TableIcon are
// served from a per-handle cache that every table-level write clears. The
// sets and rows they return are shared with the cache and must be treated
// as read-only; Copy a row before changing it.
type TableStyles interface {
	TableName() string

	CreateRelationship(slot Slot) error
	HasRelationship(slot Slot) (bool, error)
	DeleteRelationship(slot Slot) error
	DeleteRelationships() error

	CreateStyleRelationship() error
	HasStyleRelationship() (bool, error)
	CreateTableStyleRelationship() error
	HasTableStyleRelationship() (bool, error)
	CreateIconRelationship() error
	HasIconRelationship() (bool, error)
	CreateTableIconRelationship() error
	HasTableIconRelationship() (bool, error)

	TableFeatureStyles() (*FeatureStyles, error)
	TableStyles() (*Styles, error)
	CachedTableStyles() (*Styles, error)
	TableStyle(g GeometryType) (*StyleRow, error)
	TableStyleDefault() (*StyleRow, error)
	TableIcons() (*Icons, error)
	CachedTableIcons() (*Icons, error)
	TableIcon(g GeometryType) (*IconRow, error)
	TableIconDefault() (*IconRow, error)

	FeatureStyles(featureID int64) (*FeatureStyles, error)
	FeatureStyle(featureID int64, g GeometryType) (*FeatureStyle, error)
	FeatureStyleDefault(featureID int64) (*FeatureStyle, error)
	Styles(featureID int64) (*Styles, error)
	Style(featureID int64, g GeometryType) (*StyleRow, error)
	StyleDefault(featureID int64) (*StyleRow, error)
	Icons(featureID int64) (*Icons, error)
	Icon(featureID int64, g GeometryType) (*IconRow, error)
	IconDefault(featureID int64) (*IconRow, error)

	SetTableFeatureStyles(fs *FeatureStyles) error
	SetTableStyles(styles *Styles) error
	SetTableStyleDefault(style *StyleRow) error
	SetTableStyle(g GeometryType, style *StyleRow) error
	SetTableIcons(icons *Icons) error
	SetTableIconDefault(icon *IconRow) error
	SetTableIcon(g GeometryType, icon *IconRow) error
	DeleteTableFeatureStyles() error
	DeleteTableStyles() error
	DeleteTableStyleDefault() error
	DeleteTableStyle(g GeometryType) error
	DeleteTableIcons() error
	DeleteTableIconDefault() error
	DeleteTableIcon(g GeometryType) error

	SetFeatureStyle(featureID int64, g GeometryType, fs *FeatureStyle) error
	SetStyle(featureID int64, g GeometryType, style *StyleRow) error
	SetStyleDefault(featureID int64, style *StyleRow) error
	SetIcon(featureID int64, g GeometryType, icon *IconRow) error
	SetIconDefault(featureID int64, icon *IconRow) error
	DeleteFeatureStyles(featureID int64) error
	DeleteStyles(featureID int64) error
	DeleteStyle(featureID int64, g GeometryType) error
	DeleteIcons(featureID int64) error
	DeleteIcon(featureID int64, g GeometryType) error

	ClearCachedTableFeatureStyles()
	ClearCachedTableStyles()
	ClearCachedTableIcons()
}
