package types

// Contents data types recorded in gpkg_contents.
const (
	DataTypeFeatures   = "features"
	DataTypeAttributes = "attributes"
	DataTypeTiles      = "tiles"
)

// Extension names registered in gpkg_extensions.
const (
	ExtensionRelatedTables = "gpkg_related_tables"
	ExtensionFeatureStyle  = "gpkgext_feature_style"
	ExtensionContentsID    = "gpkgext_contents_id"
)

// Core table names.
const (
	RelationsTable  = "gpkgext_relations"
	ContentsIDTable = "gpkgext_contents_id"
)

// Extension is one gpkg_extensions row. TableName and ColumnName are empty
// for container-wide registrations.
type Extension struct {
	TableName     string
	ColumnName    string
	ExtensionName string
	Definition    string
	Scope         string
}

// ScopeReadWrite is the scope of every registration the container writes.
const ScopeReadWrite = "read-write"
