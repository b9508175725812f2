// This file implements the feature style extension: the eight style and icon
// relations a feature table can carry, and the mapping reads and writes the
// per-table handles resolve through.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

var _ types.FeatureStyleExtension = (*featureStyleExtension)(nil)

type featureStyleExtension struct {
	backend   *Backend
	relations *relationCatalog
}

func newFeatureStyleExtension(b *Backend, relations *relationCatalog) *featureStyleExtension {
	return &featureStyleExtension{backend: b, relations: relations}
}

var geometryTypeColumn = types.Column{
	Name:    types.ColumnGeometryTypeName,
	Type:    types.DataTypeText,
	NotNull: true,
}

// slotRelation describes the relation backing slot on featureTable.
// Table-scope slots hang off the table's contents id. Feature-scope slots
// assume an id key; createSlot replaces it with the table's actual key.
func slotRelation(featureTable string, slot types.Slot) types.Relation {
	base := featureTable
	if slot.IsTableScope() {
		base = types.ContentsIDTable
	}
	rel := types.Relation{
		BaseTableName:        base,
		BasePrimaryColumn:    types.ColumnID,
		RelatedTableName:     slot.RelatedTable(),
		RelatedPrimaryColumn: types.ColumnID,
		RelationName:         slot.RelationName(),
		MappingTableName:     slot.MappingTableName(featureTable),
	}
	if slot.IsDiscriminated() {
		rel.MappingColumns = []types.Column{geometryTypeColumn}
	}
	return rel
}

func slotSchema(slot types.Slot) *types.TableSchema {
	if slot.IsIcon() {
		return types.IconSchema()
	}
	return types.StyleSchema()
}

// createSlot declares the relation for slot, creating the style or icon
// table and the contents id it needs. Reports whether anything was created.
func createSlot(q querier, featureTable string, slot types.Slot) (bool, error) {
	if err := requireFeatureTable(q, featureTable); err != nil {
		return false, err
	}
	if slot.IsIcon() {
		if err := createUserTable(q, types.IconSchema(), ""); err != nil {
			return false, err
		}
	} else {
		if err := createUserTable(q, types.StyleSchema(), types.DataTypeAttributes); err != nil {
			return false, err
		}
	}
	if slot.IsTableScope() {
		if _, _, err := contentsID(q, featureTable, true); err != nil {
			return false, err
		}
	}

	rel := slotRelation(featureTable, slot)
	if !slot.IsTableScope() {
		pk, err := primaryKeyColumn(q, featureTable)
		if err != nil {
			return false, err
		}
		rel.BasePrimaryColumn = pk
	}
	_, created, err := declareRelation(q, rel)
	if err != nil {
		return false, err
	}
	err = registerExtension(q, types.Extension{
		TableName:     featureTable,
		ExtensionName: types.ExtensionFeatureStyle,
		Definition:    definitionFeatureStyle,
		Scope:         types.ScopeReadWrite,
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// slotRelationIfDeclared returns the stored relation for slot, or nil when
// the slot has not been created.
func slotRelationIfDeclared(q querier, featureTable string, slot types.Slot) (*types.Relation, error) {
	rel, err := getRelation(q, slot.MappingTableName(featureTable))
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func hasSlot(q querier, featureTable string, slot types.Slot) (bool, error) {
	rel, err := slotRelationIfDeclared(q, featureTable, slot)
	return rel != nil, err
}

// deleteSlot removes the relation for slot. When the table is left with no
// slots its feature style registration is removed too.
func deleteSlot(q querier, featureTable string, slot types.Slot) (bool, error) {
	removed, err := removeRelation(q, slotRelation(featureTable, slot).Normalize())
	if err != nil {
		return false, err
	}
	for _, s := range types.AllSlots {
		ok, err := hasSlot(q, featureTable, s)
		if err != nil {
			return false, err
		}
		if ok {
			return removed, nil
		}
	}
	if err := deleteExtensionForTable(q, types.ExtensionFeatureStyle, featureTable); err != nil {
		return false, err
	}
	return removed, nil
}

// geometryKey normalizes g to a known geometry type name. GeometryNone
// passes through unchanged.
func geometryKey(g types.GeometryType) (types.GeometryType, error) {
	key, err := types.ParseGeometryType(string(g))
	if err != nil {
		return types.GeometryNone, &types.ValidationError{
			Column: types.ColumnGeometryTypeName,
			Value:  string(g),
			Reason: "unknown geometry type",
			Err:    err,
		}
	}
	return key, nil
}

// slotBaseID returns the base id slot maps from: the feature id itself for
// feature scope, the table's contents id for table scope. ok is false when
// the table has no contents id and create is not set.
func slotBaseID(q querier, featureTable string, slot types.Slot, featureID int64, create bool) (int64, bool, error) {
	if !slot.IsTableScope() {
		return featureID, true, nil
	}
	return contentsID(q, featureTable, create)
}

// lookupRow returns the row mapped to baseID under slot and g, picking the
// lowest related id when several are mapped. nil when nothing is mapped.
func lookupRow(q querier, featureTable string, slot types.Slot, baseID int64, g types.GeometryType) (*types.Row, error) {
	g, err := geometryKey(g)
	if err != nil {
		return nil, err
	}
	slot = slot.ForGeometry(g)
	rel, err := slotRelationIfDeclared(q, featureTable, slot)
	if err != nil || rel == nil {
		return nil, err
	}

	var ids []int64
	if slot.IsDiscriminated() {
		ids, err = mappingsForBaseGeometry(q, rel, baseID, g)
	} else {
		ids, err = mappingsForBase(q, rel, baseID)
	}
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	rows, err := getRows(q, slotSchema(slot), ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if row, ok := rows[id]; ok {
			return row, nil
		}
	}
	return nil, nil
}

// loadRowSet reads the discriminated and default slots starting at slot
// into a set. Returns nil when neither slot maps anything for baseID.
func loadRowSet[R comparable](q querier, featureTable string, slot types.Slot, baseID int64,
	wrap func(*types.Row) (R, error)) (*types.RowSet[R], error) {
	set := &types.RowSet[R]{}

	rel, err := slotRelationIfDeclared(q, featureTable, slot)
	if err != nil {
		return nil, err
	}
	if rel != nil {
		byType, err := geometryMappings(q, rel, baseID)
		if err != nil {
			return nil, err
		}
		var ids []int64
		for _, typeIDs := range byType {
			ids = append(ids, typeIDs...)
		}
		rows, err := getRows(q, slotSchema(slot), ids)
		if err != nil {
			return nil, err
		}
		for g, typeIDs := range byType {
			for _, id := range typeIDs {
				row, ok := rows[id]
				if !ok {
					continue
				}
				r, err := wrap(row)
				if err != nil {
					return nil, err
				}
				set.Set(g, r)
				break
			}
		}
	}

	row, err := lookupRow(q, featureTable, slot, baseID, types.GeometryNone)
	if err != nil {
		return nil, err
	}
	if row != nil {
		r, err := wrap(row)
		if err != nil {
			return nil, err
		}
		set.SetDefault(r)
	}

	if set.IsEmpty() {
		return nil, nil
	}
	return set, nil
}

// setMapping stores row in the style or icon table and makes it the only
// mapping for (baseID, g) under slot, creating the slot when needed.
func setMapping(q querier, featureTable string, slot types.Slot, featureID int64, g types.GeometryType, row *types.Row) error {
	g, err := geometryKey(g)
	if err != nil {
		return err
	}
	slot = slot.ForGeometry(g)
	if _, err := createSlot(q, featureTable, slot); err != nil {
		return err
	}
	baseID, _, err := slotBaseID(q, featureTable, slot, featureID, true)
	if err != nil {
		return err
	}
	relatedID, err := saveRow(q, row)
	if err != nil {
		return err
	}

	rel := slotRelation(featureTable, slot)
	if _, err := deleteMappings(q, &rel, types.ColumnBaseID, baseID, g); err != nil {
		return err
	}
	return insertMapping(q, &rel, baseID, relatedID, g)
}

// deleteMapping removes the mappings for (featureID, g) under slot. The
// style and icon rows themselves are kept.
func deleteMapping(q querier, featureTable string, slot types.Slot, featureID int64, g types.GeometryType) error {
	g, err := geometryKey(g)
	if err != nil {
		return err
	}
	slot = slot.ForGeometry(g)
	rel, err := slotRelationIfDeclared(q, featureTable, slot)
	if err != nil || rel == nil {
		return err
	}
	baseID, ok, err := slotBaseID(q, featureTable, slot, featureID, false)
	if err != nil || !ok {
		return err
	}
	_, err = deleteMappings(q, rel, types.ColumnBaseID, baseID, g)
	return err
}

// deleteAllMappings removes every mapping of featureID under the
// discriminated slot and its default.
func deleteAllMappings(q querier, featureTable string, slot types.Slot, featureID int64) error {
	for _, s := range []types.Slot{slot, slot.ForGeometry(types.GeometryNone)} {
		rel, err := slotRelationIfDeclared(q, featureTable, s)
		if err != nil {
			return err
		}
		if rel == nil {
			continue
		}
		baseID, ok, err := slotBaseID(q, featureTable, s, featureID, false)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := deleteMappings(q, rel, types.ColumnBaseID, baseID, types.GeometryNone); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether featureTable carries any style or icon relation.
func (e *featureStyleExtension) Has(featureTable string) (bool, error) {
	db, err := e.backend.conn()
	if err != nil {
		return false, err
	}
	for _, slot := range types.AllSlots {
		ok, err := hasSlot(db, featureTable, slot)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Tables lists the feature tables registered with the extension, sorted.
func (e *featureStyleExtension) Tables() ([]string, error) {
	db, err := e.backend.conn()
	if err != nil {
		return nil, err
	}
	exts, err := listExtensions(db, types.ExtensionFeatureStyle)
	if err != nil {
		return nil, err
	}
	tables := []string{}
	for _, ext := range exts {
		if ext.TableName != "" && !slices.Contains(tables, ext.TableName) {
			tables = append(tables, ext.TableName)
		}
	}
	slices.Sort(tables)
	return tables, nil
}

// DeleteRelationships removes the eight relations of featureTable and their
// mapping tables. Style and icon rows are kept.
func (e *featureStyleExtension) DeleteRelationships(featureTable string) error {
	err := e.backend.withTx(func(tx *sql.Tx) error {
		for _, slot := range types.AllSlots {
			if _, err := deleteSlot(tx, featureTable, slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.backend.entry().WithField("table", featureTable).Debug("deleted style relationships")
	return nil
}

// Remove deletes every table's relations, drops the style and icon tables
// and deregisters the extension.
func (e *featureStyleExtension) Remove() error {
	tables, err := e.Tables()
	if err != nil {
		return err
	}
	err = e.backend.withTx(func(tx *sql.Tx) error {
		for _, table := range tables {
			for _, slot := range types.AllSlots {
				if _, err := deleteSlot(tx, table, slot); err != nil {
					return err
				}
			}
		}
		for _, table := range []string{types.StyleTableName, types.IconTableName} {
			rels, err := listRelations(tx, types.RelationFilter{RelatedTable: table}, "")
			if err != nil {
				return err
			}
			if len(rels) > 0 {
				continue
			}
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
				return fmt.Errorf("dropping %s: %w", table, err)
			}
			if _, err := tx.Exec("DELETE FROM gpkg_contents WHERE table_name = ?", table); err != nil {
				return fmt.Errorf("deregistering %s: %w", table, err)
			}
		}
		return deleteExtension(tx, types.ExtensionFeatureStyle)
	})
	if err != nil {
		return err
	}
	e.backend.entry().WithFields(logrus.Fields{"tables": len(tables)}).Debug("removed feature style extension")
	return nil
}

// TableStyles returns a new handle for featureTable with an empty cache.
func (e *featureStyleExtension) TableStyles(featureTable string) (types.TableStyles, error) {
	db, err := e.backend.conn()
	if err != nil {
		return nil, err
	}
	if err := requireFeatureTable(db, featureTable); err != nil {
		return nil, err
	}
	return newTableStyles(e, featureTable), nil
}
