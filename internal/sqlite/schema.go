package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// Core table DDL, executed on every Attach.
const (
	createContents = `CREATE TABLE IF NOT EXISTS gpkg_contents (
    table_name TEXT NOT NULL PRIMARY KEY,
    data_type TEXT NOT NULL,
    identifier TEXT UNIQUE,
    description TEXT DEFAULT '',
    last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

	createGeometryColumns = `CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
    table_name TEXT NOT NULL,
    column_name TEXT NOT NULL,
    geometry_type_name TEXT NOT NULL,
    srs_id INTEGER NOT NULL DEFAULT 0,
    z TINYINT NOT NULL DEFAULT 0,
    m TINYINT NOT NULL DEFAULT 0,
    PRIMARY KEY (table_name, column_name),
    FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name)
);`

	createExtensions = `CREATE TABLE IF NOT EXISTS gpkg_extensions (
    table_name TEXT,
    column_name TEXT,
    extension_name TEXT NOT NULL,
    definition TEXT NOT NULL,
    scope TEXT NOT NULL,
    UNIQUE (table_name, column_name, extension_name)
);`

	createRelations = `CREATE TABLE IF NOT EXISTS gpkgext_relations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    base_table_name TEXT NOT NULL,
    base_primary_column TEXT NOT NULL DEFAULT 'id',
    related_table_name TEXT NOT NULL,
    related_primary_column TEXT NOT NULL DEFAULT 'id',
    relation_name TEXT NOT NULL,
    mapping_table_name TEXT NOT NULL UNIQUE
);`

	createContentsID = `CREATE TABLE IF NOT EXISTS gpkgext_contents_id (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name TEXT NOT NULL UNIQUE,
    FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name)
);`
)

// Index DDL for catalog lookups.
const (
	idxRelationsBase    = `CREATE INDEX IF NOT EXISTS idx_gpkgext_relations_base ON gpkgext_relations(base_table_name);`
	idxRelationsRelated = `CREATE INDEX IF NOT EXISTS idx_gpkgext_relations_related ON gpkgext_relations(related_table_name);`
)

// coreDDL lists the statements Attach runs, in dependency order.
var coreDDL = []string{
	createContents,
	createGeometryColumns,
	createExtensions,
	createRelations,
	createContentsID,
	idxRelationsBase,
	idxRelationsRelated,
}

// Extension definitions recorded in gpkg_extensions.
const (
	definitionRelatedTables = "http://docs.opengeospatial.org/is/18-000/18-000.html"
	definitionFeatureStyle  = "http://ngageoint.github.io/GeoPackage/docs/extensions/feature-style.html"
	definitionContentsID    = "http://ngageoint.github.io/GeoPackage/docs/extensions/contents-id.html"
)

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnDDL renders one column definition.
func columnDDL(c types.Column) string {
	def := quoteIdent(c.Name) + " " + string(c.Type)
	if c.PrimaryKey {
		def += " PRIMARY KEY AUTOINCREMENT"
	}
	if c.NotNull {
		def += " NOT NULL"
	}
	return def
}

// createTableDDL renders CREATE TABLE IF NOT EXISTS for schema.
func createTableDDL(schema *types.TableSchema) string {
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		defs[i] = columnDDL(c)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    "))
}

// createMappingTableDDL renders a mapping table: base_id and related_id
// plus any extra columns, with no key and no uniqueness.
func createMappingTableDDL(name string, extra []types.Column) string {
	defs := []string{
		quoteIdent(types.ColumnBaseID) + " INTEGER NOT NULL",
		quoteIdent(types.ColumnRelatedID) + " INTEGER NOT NULL",
	}
	for _, c := range extra {
		defs = append(defs, columnDDL(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		quoteIdent(name), strings.Join(defs, ",\n    "))
}
