package types

import (
	"fmt"
	"strings"
)

// Relation kinds defined by the related tables extension. Any other
// non-empty name is a user-defined kind.
const (
	RelationFeatures         = "features"
	RelationSimpleAttributes = "simple_attributes"
	RelationMedia            = "media"
	RelationTiles            = "tiles"
	RelationAttributes       = "attributes"
)

// Mapping table columns.
const (
	ColumnBaseID           = "base_id"
	ColumnRelatedID        = "related_id"
	ColumnGeometryTypeName = "geometry_type_name"
)

// Relation describes one declared many-to-many relationship: rows of the
// base table map to rows of the related table through the mapping table.
type Relation struct {
	ID                   int64  `json:"id"`
	BaseTableName        string `json:"base_table_name"`
	BasePrimaryColumn    string `json:"base_primary_column"`
	RelatedTableName     string `json:"related_table_name"`
	RelatedPrimaryColumn string `json:"related_primary_column"`
	RelationName         string `json:"relation_name"`
	MappingTableName     string `json:"mapping_table_name"`

	// MappingColumns lists columns the mapping table carries beyond
	// base_id and related_id. Used only when the table is created.
	MappingColumns []Column `json:"-"`
}

// DefaultMappingTableName derives the mapping table name used when a
// relation is declared without one.
func DefaultMappingTableName(baseTable, relatedTable, relationName string) string {
	return baseTable + "_" + relatedTable + "_" + relationName
}

// Normalize fills defaults: "id" primary columns and a derived mapping
// table name.
func (r Relation) Normalize() Relation {
	if r.BasePrimaryColumn == "" {
		r.BasePrimaryColumn = ColumnID
	}
	if r.RelatedPrimaryColumn == "" {
		r.RelatedPrimaryColumn = ColumnID
	}
	if r.MappingTableName == "" {
		r.MappingTableName = DefaultMappingTableName(r.BaseTableName, r.RelatedTableName, r.RelationName)
	}
	return r
}

// Validate checks that the identifying fields are present.
func (r Relation) Validate() error {
	var missing []string
	if r.BaseTableName == "" {
		missing = append(missing, "base_table_name")
	}
	if r.RelatedTableName == "" {
		missing = append(missing, "related_table_name")
	}
	if r.RelationName == "" {
		missing = append(missing, "relation_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRelation, strings.Join(missing, ", "))
	}
	return nil
}

// IsUserDefined reports whether the relation kind is outside the standard
// set.
func (r Relation) IsUserDefined() bool {
	switch r.RelationName {
	case RelationFeatures, RelationSimpleAttributes, RelationMedia, RelationTiles, RelationAttributes:
		return false
	}
	return true
}

// String names the relation the way errors and logs refer to it.
func (r Relation) String() string {
	return fmt.Sprintf("%s(%s -> %s via %s)", r.RelationName, r.BaseTableName, r.RelatedTableName, r.MappingTableName)
}

// RelationFilter selects relations for RelationCatalog.List. Empty fields
// match anything.
type RelationFilter struct {
	BaseTable    string
	RelatedTable string
	RelationName string
}

// Matches reports whether r satisfies the filter.
func (f RelationFilter) Matches(r *Relation) bool {
	return (f.BaseTable == "" || f.BaseTable == r.BaseTableName) &&
		(f.RelatedTable == "" || f.RelatedTable == r.RelatedTableName) &&
		(f.RelationName == "" || f.RelationName == r.RelationName)
}
