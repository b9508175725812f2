package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationNormalize(t *testing.T) {
	rel := Relation{BaseTableName: "roads", RelatedTableName: "photos", RelationName: RelationMedia}.Normalize()
	assert.Equal(t, ColumnID, rel.BasePrimaryColumn)
	assert.Equal(t, ColumnID, rel.RelatedPrimaryColumn)
	assert.Equal(t, "roads_photos_media", rel.MappingTableName)

	named := Relation{
		BaseTableName:     "roads",
		BasePrimaryColumn: "fid",
		RelatedTableName:  "photos",
		RelationName:      RelationMedia,
		MappingTableName:  "road_photos",
	}.Normalize()
	assert.Equal(t, "fid", named.BasePrimaryColumn)
	assert.Equal(t, "road_photos", named.MappingTableName)
}

func TestRelationValidate(t *testing.T) {
	tests := []struct {
		name    string
		rel     Relation
		wantErr bool
	}{
		{name: "complete", rel: Relation{BaseTableName: "a", RelatedTableName: "b", RelationName: "features"}},
		{name: "missing base", rel: Relation{RelatedTableName: "b", RelationName: "features"}, wantErr: true},
		{name: "missing related", rel: Relation{BaseTableName: "a", RelationName: "features"}, wantErr: true},
		{name: "missing kind", rel: Relation{BaseTableName: "a", RelatedTableName: "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rel.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRelation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRelationKinds(t *testing.T) {
	assert.False(t, Relation{RelationName: RelationTiles}.IsUserDefined())
	assert.True(t, Relation{RelationName: "depicts"}.IsUserDefined())
}

func TestRelationFilterMatches(t *testing.T) {
	rel := &Relation{BaseTableName: "a", RelatedTableName: "b", RelationName: "features"}
	assert.True(t, RelationFilter{}.Matches(rel))
	assert.True(t, RelationFilter{BaseTable: "a", RelationName: "features"}.Matches(rel))
	assert.False(t, RelationFilter{RelatedTable: "c"}.Matches(rel))
}

func TestSlots(t *testing.T) {
	tests := []struct {
		slot          Slot
		mapping       string
		related       string
		kind          string
		tableScope    bool
		discriminated bool
	}{
		{SlotStyle, "roads_style", StyleTableName, RelationAttributes, false, true},
		{SlotStyleDefault, "roads_style_default", StyleTableName, RelationAttributes, false, false},
		{SlotTableStyle, "roads_table_style", StyleTableName, RelationAttributes, true, true},
		{SlotTableStyleDefault, "roads_table_style_default", StyleTableName, RelationAttributes, true, false},
		{SlotIcon, "roads_icon", IconTableName, RelationMedia, false, true},
		{SlotIconDefault, "roads_icon_default", IconTableName, RelationMedia, false, false},
		{SlotTableIcon, "roads_table_icon", IconTableName, RelationMedia, true, true},
		{SlotTableIconDefault, "roads_table_icon_default", IconTableName, RelationMedia, true, false},
	}

	assert.Len(t, AllSlots, len(tests))
	for _, tt := range tests {
		t.Run(tt.slot.String(), func(t *testing.T) {
			assert.Equal(t, tt.mapping, tt.slot.MappingTableName("roads"))
			assert.Equal(t, tt.related, tt.slot.RelatedTable())
			assert.Equal(t, tt.kind, tt.slot.RelationName())
			assert.Equal(t, tt.tableScope, tt.slot.IsTableScope())
			assert.Equal(t, tt.discriminated, tt.slot.IsDiscriminated())
		})
	}
}

func TestSlotForGeometry(t *testing.T) {
	assert.Equal(t, SlotStyleDefault, SlotStyle.ForGeometry(GeometryNone))
	assert.Equal(t, SlotStyle, SlotStyle.ForGeometry(GeometryPoint))
	assert.Equal(t, SlotTableIcon, SlotTableIconDefault.ForGeometry(GeometryPolygon))
	assert.Equal(t, SlotTableIconDefault, SlotTableIconDefault.ForGeometry(GeometryNone))
}
