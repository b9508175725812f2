package sqlite

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// Mapping tables hold (base_id, related_id) pairs with no key, so the same
// pair may repeat. Reads collapse duplicates.

// relationError annotates err with the relation it ran under.
func relationError(op string, rel *types.Relation, err error) error {
	return &types.StorageError{
		Op:           op,
		Relation:     rel.RelationName,
		MappingTable: rel.MappingTableName,
		BaseTable:    rel.BaseTableName,
		RelatedTable: rel.RelatedTableName,
		Err:          err,
	}
}

// collectIDs runs query and returns the distinct values of its single
// integer column in ascending order.
func collectIDs(q querier, query string, args ...any) ([]int64, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func mappingsForBase(q querier, rel *types.Relation, baseID int64) ([]int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteIdent(types.ColumnRelatedID), quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnBaseID))
	ids, err := collectIDs(q, query, baseID)
	if err != nil {
		return nil, relationError("failed to get mappings", rel, err)
	}
	return ids, nil
}

func mappingsForRelated(q querier, rel *types.Relation, relatedID int64) ([]int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteIdent(types.ColumnBaseID), quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnRelatedID))
	ids, err := collectIDs(q, query, relatedID)
	if err != nil {
		return nil, relationError("failed to get reverse mappings", rel, err)
	}
	return ids, nil
}

// legacyMappingsForRelated matches on related_id but collects related_id,
// so any match yields relatedID itself rather than the base ids.
func legacyMappingsForRelated(q querier, rel *types.Relation, relatedID int64) ([]int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteIdent(types.ColumnRelatedID), quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnRelatedID))
	ids, err := collectIDs(q, query, relatedID)
	if err != nil {
		return nil, relationError("failed to get reverse mappings", rel, err)
	}
	return ids, nil
}

// mappingsForBaseGeometry is mappingsForBase restricted to one geometry
// type on a discriminated mapping table.
func mappingsForBaseGeometry(q querier, rel *types.Relation, baseID int64, g types.GeometryType) ([]int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ?",
		quoteIdent(types.ColumnRelatedID), quoteIdent(rel.MappingTableName),
		quoteIdent(types.ColumnBaseID), quoteIdent(types.ColumnGeometryTypeName))
	ids, err := collectIDs(q, query, baseID, string(g))
	if err != nil {
		return nil, relationError("failed to get mappings for geometry type "+string(g), rel, err)
	}
	return ids, nil
}

// geometryMappings returns, for a discriminated mapping table, the related
// ids of baseID grouped by geometry type. Unknown geometry names are
// skipped.
func geometryMappings(q querier, rel *types.Relation, baseID int64) (map[types.GeometryType][]int64, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ?",
		quoteIdent(types.ColumnRelatedID), quoteIdent(types.ColumnGeometryTypeName),
		quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnBaseID))
	rows, err := q.Query(query, baseID)
	if err != nil {
		return nil, relationError("failed to get geometry mappings", rel, err)
	}
	defer rows.Close()

	sets := make(map[types.GeometryType]map[int64]struct{})
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, relationError("failed to get geometry mappings", rel, err)
		}
		g, err := types.ParseGeometryType(name)
		if err != nil || g.IsNone() {
			continue
		}
		if sets[g] == nil {
			sets[g] = make(map[int64]struct{})
		}
		sets[g][id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, relationError("failed to get geometry mappings", rel, err)
	}

	out := make(map[types.GeometryType][]int64, len(sets))
	for g, set := range sets {
		ids := make([]int64, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		out[g] = ids
	}
	return out, nil
}

// insertMapping adds one mapping row. A geometry type other than
// GeometryNone is written to geometry_type_name.
func insertMapping(q querier, rel *types.Relation, baseID, relatedID int64, g types.GeometryType) error {
	var err error
	if g.IsNone() {
		_, err = q.Exec(fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)",
			quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnBaseID), quoteIdent(types.ColumnRelatedID)),
			baseID, relatedID)
	} else {
		_, err = q.Exec(fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?)",
			quoteIdent(rel.MappingTableName), quoteIdent(types.ColumnBaseID), quoteIdent(types.ColumnRelatedID),
			quoteIdent(types.ColumnGeometryTypeName)),
			baseID, relatedID, string(g))
	}
	if err != nil {
		return relationError("failed to insert mapping", rel, err)
	}
	return nil
}

// deleteMappings removes the rows whose column equals id, optionally
// restricted to one geometry type, and returns how many were removed.
func deleteMappings(q querier, rel *types.Relation, column string, id int64, g types.GeometryType) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(rel.MappingTableName), quoteIdent(column))
	args := []any{id}
	if !g.IsNone() {
		query += fmt.Sprintf(" AND %s = ?", quoteIdent(types.ColumnGeometryTypeName))
		args = append(args, string(g))
	}
	res, err := q.Exec(query, args...)
	if err != nil {
		return 0, relationError("failed to delete mappings", rel, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, relationError("failed to delete mappings", rel, err)
	}
	return n, nil
}

func countMappings(q querier, rel *types.Relation) (int64, error) {
	var n int64
	err := q.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(rel.MappingTableName))).Scan(&n)
	if err != nil {
		return 0, relationError("failed to count mappings", rel, err)
	}
	return n, nil
}
