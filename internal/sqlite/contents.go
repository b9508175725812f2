package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// querier is the subset of *sql.DB and *sql.Tx the helpers need.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Feature table layout created by CreateFeatureTable.
const (
	featureIDColumn       = "id"
	featureGeometryColumn = "geom"
)

// TableType returns the contents data type of name, "" when unregistered.
func (b *Backend) TableType(name string) (string, error) {
	db, err := b.conn()
	if err != nil {
		return "", err
	}
	return tableType(db, name)
}

// CreateFeatureTable creates a feature table and registers it in contents
// and geometry columns. Geometry values are opaque blobs.
func (b *Backend) CreateFeatureTable(name string, geometryType types.GeometryType) error {
	if geometryType.IsNone() {
		geometryType = types.GeometryGeometry
	}
	if !geometryType.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownGeometryType, string(geometryType))
	}
	schema := types.NewTableSchema(name,
		types.Column{Name: featureIDColumn, Type: types.DataTypeInteger, NotNull: true, PrimaryKey: true},
		types.Column{Name: featureGeometryColumn, Type: types.DataTypeBlob},
	)
	err := b.withTx(func(tx *sql.Tx) error {
		if err := createUserTable(tx, schema, types.DataTypeFeatures); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name) VALUES (?, ?, ?)",
			name, featureGeometryColumn, string(geometryType),
		)
		if err != nil {
			return fmt.Errorf("registering geometry column for %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.entry().WithFields(logrus.Fields{"table": name, "geometry_type": geometryType}).Debug("created feature table")
	return nil
}

// CreateAttributesTable creates a table laid out by schema and registers it
// in contents as attributes.
func (b *Backend) CreateAttributesTable(schema *types.TableSchema) error {
	return b.withTx(func(tx *sql.Tx) error {
		return createUserTable(tx, schema, types.DataTypeAttributes)
	})
}

// CreateMediaTable creates a media table. Media tables are not registered
// in contents.
func (b *Backend) CreateMediaTable(name string) error {
	schema := types.NewTableSchema(name,
		types.Column{Name: types.ColumnID, Type: types.DataTypeInteger, NotNull: true, PrimaryKey: true},
		types.Column{Name: types.ColumnData, Type: types.DataTypeBlob, NotNull: true},
		types.Column{Name: types.ColumnContentType, Type: types.DataTypeText, NotNull: true},
	)
	return b.withTx(func(tx *sql.Tx) error {
		return createUserTable(tx, schema, "")
	})
}

// createUserTable creates schema's table and, when dataType is set,
// registers it in contents.
func createUserTable(q querier, schema *types.TableSchema, dataType string) error {
	if _, err := q.Exec(createTableDDL(schema)); err != nil {
		return fmt.Errorf("creating table %s: %w", schema.Name, err)
	}
	if dataType == "" {
		return nil
	}
	_, err := q.Exec(
		"INSERT OR IGNORE INTO gpkg_contents (table_name, data_type, identifier) VALUES (?, ?, ?)",
		schema.Name, dataType, schema.Name,
	)
	if err != nil {
		return fmt.Errorf("registering %s in contents: %w", schema.Name, err)
	}
	return nil
}

func tableType(q querier, name string) (string, error) {
	var dataType string
	err := q.QueryRow("SELECT data_type FROM gpkg_contents WHERE table_name = ?", name).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading contents for %s: %w", name, err)
	}
	return dataType, nil
}

func tableExists(q querier, name string) (bool, error) {
	var n int
	err := q.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

// tableColumns returns the column names of name in declaration order.
func tableColumns(q querier, name string) ([]string, error) {
	rows, err := q.Query("SELECT name FROM pragma_table_info(?)", name)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning columns of %s: %w", name, err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func hasColumns(q querier, table string, want ...string) (bool, error) {
	columns, err := tableColumns(q, table)
	if err != nil {
		return false, err
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, w := range want {
		if !have[w] {
			return false, nil
		}
	}
	return true, nil
}

// requireFeatureTable returns a ConfigurationError unless table is
// registered as features.
func requireFeatureTable(q querier, table string) error {
	dataType, err := tableType(q, table)
	if err != nil {
		return err
	}
	if dataType != types.DataTypeFeatures {
		actual := dataType
		if actual == "" {
			actual = "none"
		}
		return types.NewConfigurationError(table, "must be a feature table, actual type: %s", actual)
	}
	return nil
}

// primaryKeyColumn returns the name of table's primary key column.
func primaryKeyColumn(q querier, table string) (string, error) {
	var name string
	err := q.QueryRow("SELECT name FROM pragma_table_info(?) WHERE pk = 1", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.NewConfigurationError(table, "no primary key column")
	}
	if err != nil {
		return "", fmt.Errorf("reading primary key of %s: %w", table, err)
	}
	return name, nil
}

// contentsID returns the contents id of table. When create is set a
// missing id is allocated and the contents id extension registered.
func contentsID(q querier, table string, create bool) (int64, bool, error) {
	var id int64
	err := q.QueryRow("SELECT id FROM gpkgext_contents_id WHERE table_name = ?", table).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("reading contents id for %s: %w", table, err)
	}
	if !create {
		return 0, false, nil
	}

	res, err := q.Exec("INSERT INTO gpkgext_contents_id (table_name) VALUES (?)", table)
	if err != nil {
		return 0, false, fmt.Errorf("creating contents id for %s: %w", table, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("creating contents id for %s: %w", table, err)
	}
	err = registerExtension(q, types.Extension{
		TableName:     types.ContentsIDTable,
		ExtensionName: types.ExtensionContentsID,
		Definition:    definitionContentsID,
		Scope:         types.ScopeReadWrite,
	})
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
