package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// Extension registrations live in gpkg_extensions. Table and column names
// are NULL for container-wide registrations, so lookups compare with IS.

func registerExtension(q querier, ext types.Extension) error {
	table, column := nullable(ext.TableName), nullable(ext.ColumnName)
	_, err := q.Exec(`INSERT INTO gpkg_extensions (table_name, column_name, extension_name, definition, scope)
SELECT ?, ?, ?, ?, ?
WHERE NOT EXISTS (
    SELECT 1 FROM gpkg_extensions WHERE table_name IS ? AND column_name IS ? AND extension_name = ?
)`,
		table, column, ext.ExtensionName, ext.Definition, ext.Scope,
		table, column, ext.ExtensionName,
	)
	if err != nil {
		return fmt.Errorf("registering extension %s for %s: %w", ext.ExtensionName, ext.TableName, err)
	}
	return nil
}

func deleteExtensionForTable(q querier, extensionName, table string) error {
	_, err := q.Exec(
		"DELETE FROM gpkg_extensions WHERE extension_name = ? AND table_name IS ?",
		extensionName, nullable(table),
	)
	if err != nil {
		return fmt.Errorf("deleting extension %s for %s: %w", extensionName, table, err)
	}
	return nil
}

// deleteExtension removes every registration of extensionName.
func deleteExtension(q querier, extensionName string) error {
	if _, err := q.Exec("DELETE FROM gpkg_extensions WHERE extension_name = ?", extensionName); err != nil {
		return fmt.Errorf("deleting extension %s: %w", extensionName, err)
	}
	return nil
}

func listExtensions(q querier, extensionName string) ([]types.Extension, error) {
	rows, err := q.Query(
		`SELECT COALESCE(table_name, ''), COALESCE(column_name, ''), extension_name, definition, scope
FROM gpkg_extensions WHERE extension_name = ? ORDER BY rowid`,
		extensionName,
	)
	if err != nil {
		return nil, fmt.Errorf("listing extension %s: %w", extensionName, err)
	}
	defer rows.Close()

	exts := []types.Extension{}
	for rows.Next() {
		var e types.Extension
		if err := rows.Scan(&e.TableName, &e.ColumnName, &e.ExtensionName, &e.Definition, &e.Scope); err != nil {
			return nil, fmt.Errorf("scanning extension %s: %w", extensionName, err)
		}
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
