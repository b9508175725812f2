// This file implements the relationship catalog: declared relations live in
// gpkgext_relations, each with its own mapping table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

var _ types.RelationCatalog = (*relationCatalog)(nil)

type relationCatalog struct {
	backend *Backend
}

func newRelationCatalog(b *Backend) *relationCatalog {
	return &relationCatalog{backend: b}
}

const selectRelations = `SELECT id, base_table_name, base_primary_column, related_table_name,
    related_primary_column, relation_name, mapping_table_name FROM gpkgext_relations`

// Declare validates the tables and records the relation. Declaring the same
// (base, related, kind, mapping table) again returns the stored relation.
func (rc *relationCatalog) Declare(rel types.Relation) (*types.Relation, error) {
	var out *types.Relation
	var created bool
	err := rc.backend.withTx(func(tx *sql.Tx) error {
		var err error
		out, created, err = declareRelation(tx, rel)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		rc.backend.entry().WithFields(relationFields(out)).Debug("declared relation")
	}
	return out, nil
}

// declareRelation is Declare inside an existing transaction. It reports
// whether a new catalog row was written.
func declareRelation(q querier, rel types.Relation) (*types.Relation, bool, error) {
	rel = rel.Normalize()
	if err := rel.Validate(); err != nil {
		return nil, false, &types.ConfigurationError{Table: rel.BaseTableName, Reason: err.Error(), Err: err}
	}

	existing, err := getRelation(q, rel.MappingTableName)
	switch {
	case err == nil:
		if existing.BaseTableName == rel.BaseTableName &&
			existing.RelatedTableName == rel.RelatedTableName &&
			existing.RelationName == rel.RelationName {
			return existing, false, nil
		}
		return nil, false, types.NewConfigurationError(rel.MappingTableName,
			"mapping table already used by relation %s", existing)
	case !errors.Is(err, types.ErrNotFound):
		return nil, false, err
	}

	if err := validateRelationTables(q, rel); err != nil {
		return nil, false, err
	}

	if _, err := q.Exec(createMappingTableDDL(rel.MappingTableName, rel.MappingColumns)); err != nil {
		return nil, false, relationError("failed to create mapping table", &rel, err)
	}

	for _, table := range []string{types.RelationsTable, rel.MappingTableName} {
		err := registerExtension(q, types.Extension{
			TableName:     table,
			ExtensionName: types.ExtensionRelatedTables,
			Definition:    definitionRelatedTables,
			Scope:         types.ScopeReadWrite,
		})
		if err != nil {
			return nil, false, err
		}
	}

	res, err := q.Exec(`INSERT INTO gpkgext_relations
    (base_table_name, base_primary_column, related_table_name, related_primary_column, relation_name, mapping_table_name)
    VALUES (?, ?, ?, ?, ?, ?)`,
		rel.BaseTableName, rel.BasePrimaryColumn, rel.RelatedTableName, rel.RelatedPrimaryColumn,
		rel.RelationName, rel.MappingTableName,
	)
	if err != nil {
		return nil, false, relationError("failed to record relation", &rel, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, relationError("failed to record relation", &rel, err)
	}
	rel.ID = id
	rel.MappingColumns = nil
	return &rel, true, nil
}

// validateRelationTables checks that both tables and their primary columns
// exist and that the related table suits the relation kind.
func validateRelationTables(q querier, rel types.Relation) error {
	ends := []struct{ table, column string }{
		{rel.BaseTableName, rel.BasePrimaryColumn},
		{rel.RelatedTableName, rel.RelatedPrimaryColumn},
	}
	for _, end := range ends {
		ok, err := tableExists(q, end.table)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewConfigurationError(end.table, "table does not exist")
		}
		ok, err = hasColumns(q, end.table, end.column)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewConfigurationError(end.table, "primary column %s does not exist", end.column)
		}
	}

	var want string
	switch rel.RelationName {
	case types.RelationFeatures:
		want = types.DataTypeFeatures
	case types.RelationAttributes, types.RelationSimpleAttributes:
		want = types.DataTypeAttributes
	case types.RelationTiles:
		want = types.DataTypeTiles
	case types.RelationMedia:
		ok, err := hasColumns(q, rel.RelatedTableName, types.ColumnData, types.ColumnContentType)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewConfigurationError(rel.RelatedTableName,
				"media table must have %s and %s columns", types.ColumnData, types.ColumnContentType)
		}
		return nil
	default:
		return nil
	}

	actual, err := tableType(q, rel.RelatedTableName)
	if err != nil {
		return err
	}
	if actual != want {
		if actual == "" {
			actual = "none"
		}
		return types.NewConfigurationError(rel.RelatedTableName,
			"%s relation requires a %s table, actual type: %s", rel.RelationName, want, actual)
	}
	return nil
}

func (rc *relationCatalog) Has(baseTable, relatedTable, relationName string) (bool, error) {
	rels, err := rc.List(types.RelationFilter{
		BaseTable:    baseTable,
		RelatedTable: relatedTable,
		RelationName: relationName,
	})
	if err != nil {
		return false, err
	}
	return len(rels) > 0, nil
}

func (rc *relationCatalog) HasBase(baseTable string) (bool, error) {
	return rc.Has(baseTable, "", "")
}

func (rc *relationCatalog) HasMappingTable(mappingTable string) (bool, error) {
	_, err := rc.Get(mappingTable)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Get returns the relation recorded for mappingTable.
func (rc *relationCatalog) Get(mappingTable string) (*types.Relation, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return getRelation(db, mappingTable)
}

func getRelation(q querier, mappingTable string) (*types.Relation, error) {
	rels, err := listRelations(q, types.RelationFilter{}, "mapping_table_name = ?", mappingTable)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, types.ErrNotFound
	}
	return rels[0], nil
}

// List returns the relations matching filter in declaration order.
func (rc *relationCatalog) List(filter types.RelationFilter) ([]*types.Relation, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return listRelations(db, filter, "")
}

// listRelations queries gpkgext_relations with the filter plus an optional
// extra condition.
func listRelations(q querier, filter types.RelationFilter, extra string, extraArgs ...any) ([]*types.Relation, error) {
	query := selectRelations
	var conditions []string
	var args []any

	if filter.BaseTable != "" {
		conditions = append(conditions, "base_table_name = ?")
		args = append(args, filter.BaseTable)
	}
	if filter.RelatedTable != "" {
		conditions = append(conditions, "related_table_name = ?")
		args = append(args, filter.RelatedTable)
	}
	if filter.RelationName != "" {
		conditions = append(conditions, "relation_name = ?")
		args = append(args, filter.RelationName)
	}
	if extra != "" {
		conditions = append(conditions, extra)
		args = append(args, extraArgs...)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	rels := []*types.Relation{}
	for rows.Next() {
		var r types.Relation
		err := rows.Scan(&r.ID, &r.BaseTableName, &r.BasePrimaryColumn, &r.RelatedTableName,
			&r.RelatedPrimaryColumn, &r.RelationName, &r.MappingTableName)
		if err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rels = append(rels, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return rels, nil
}

// Remove drops the relation's mapping table and catalog row. A relation
// that is not recorded is left alone.
func (rc *relationCatalog) Remove(rel types.Relation) error {
	rel = rel.Normalize()
	var removed bool
	err := rc.backend.withTx(func(tx *sql.Tx) error {
		var err error
		removed, err = removeRelation(tx, rel)
		return err
	})
	if err != nil {
		return err
	}

	log := rc.backend.entry().WithFields(relationFields(&rel))
	if removed {
		log.Debug("removed relation")
	} else {
		log.Warn("relation not declared, nothing removed")
	}
	return nil
}

// removeRelation is Remove inside an existing transaction.
func removeRelation(q querier, rel types.Relation) (bool, error) {
	stored, err := getRelation(q, rel.MappingTableName)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored.BaseTableName != rel.BaseTableName ||
		stored.RelatedTableName != rel.RelatedTableName ||
		stored.RelationName != rel.RelationName {
		return false, nil
	}

	if _, err := q.Exec("DROP TABLE IF EXISTS " + quoteIdent(stored.MappingTableName)); err != nil {
		return false, relationError("failed to drop mapping table", stored, err)
	}
	if _, err := q.Exec("DELETE FROM gpkgext_relations WHERE id = ?", stored.ID); err != nil {
		return false, relationError("failed to delete relation", stored, err)
	}
	if err := deleteExtensionForTable(q, types.ExtensionRelatedTables, stored.MappingTableName); err != nil {
		return false, err
	}

	var remaining int
	if err := q.QueryRow("SELECT COUNT(*) FROM gpkgext_relations").Scan(&remaining); err != nil {
		return false, fmt.Errorf("counting relations: %w", err)
	}
	if remaining == 0 {
		if err := deleteExtension(q, types.ExtensionRelatedTables); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RemoveForTable removes every relation whose base or related table is
// table.
func (rc *relationCatalog) RemoveForTable(table string) error {
	var removed []*types.Relation
	err := rc.backend.withTx(func(tx *sql.Tx) error {
		rels, err := listRelations(tx, types.RelationFilter{}, "(base_table_name = ? OR related_table_name = ?)", table, table)
		if err != nil {
			return err
		}
		for _, rel := range rels {
			if _, err := removeRelation(tx, *rel); err != nil {
				return err
			}
		}
		removed = rels
		return nil
	})
	if err != nil {
		return err
	}
	rc.backend.entry().WithFields(logrus.Fields{
		"table":     table,
		"relations": len(removed),
	}).Debug("removed relations for table")
	return nil
}

func (rc *relationCatalog) AddMapping(rel *types.Relation, baseID, relatedID int64) error {
	db, err := rc.backend.conn()
	if err != nil {
		return err
	}
	return insertMapping(db, rel, baseID, relatedID, types.GeometryNone)
}

func (rc *relationCatalog) DeleteMappingsForBase(rel *types.Relation, baseID int64) (int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return 0, err
	}
	return deleteMappings(db, rel, types.ColumnBaseID, baseID, types.GeometryNone)
}

func (rc *relationCatalog) DeleteMappingsForRelated(rel *types.Relation, relatedID int64) (int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return 0, err
	}
	return deleteMappings(db, rel, types.ColumnRelatedID, relatedID, types.GeometryNone)
}

func (rc *relationCatalog) CountMappings(rel *types.Relation) (int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return 0, err
	}
	return countMappings(db, rel)
}

// MappingsForBase returns the distinct related ids mapped to baseID in
// ascending order.
func (rc *relationCatalog) MappingsForBase(rel *types.Relation, baseID int64) ([]int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return mappingsForBase(db, rel, baseID)
}

// MappingsForRelated returns the distinct base ids mapped to relatedID in
// ascending order.
func (rc *relationCatalog) MappingsForRelated(rel *types.Relation, relatedID int64) ([]int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return mappingsForRelated(db, rel, relatedID)
}

func (rc *relationCatalog) LegacyMappingsForRelated(rel *types.Relation, relatedID int64) ([]int64, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return legacyMappingsForRelated(db, rel, relatedID)
}

func (rc *relationCatalog) Extensions(extensionName string) ([]types.Extension, error) {
	db, err := rc.backend.conn()
	if err != nil {
		return nil, err
	}
	return listExtensions(db, extensionName)
}

func relationFields(rel *types.Relation) logrus.Fields {
	return logrus.Fields{
		"relation":      rel.RelationName,
		"base_table":    rel.BaseTableName,
		"related_table": rel.RelatedTableName,
		"mapping_table": rel.MappingTableName,
	}
}
