package sqlite

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

func TestTableStyles_RequiresFeatureTable(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.CreateAttributesTable(types.NewTableSchema("surveys",
		types.Column{Name: types.ColumnID, Type: types.DataTypeInteger, NotNull: true, PrimaryKey: true},
	)))

	for _, table := range []string{"surveys", "missing"} {
		t.Run(table, func(t *testing.T) {
			_, err := b.TableStyles(table)
			require.Error(t, err)
			var cfgErr *types.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, table, cfgErr.Table)
			assert.Contains(t, cfgErr.Reason, "must be a feature table")
		})
	}
}

func TestTableStyles_Resolution(t *testing.T) {
	_, ts := newStyleFixture(t)

	tableDefault := newStyle(t, "table default", "#000000")
	tablePoint := newStyle(t, "table point", "#111111")
	featureDefault := newStyle(t, "feature default", "#222222")
	featurePoint := newStyle(t, "feature point", "#333333")

	require.NoError(t, ts.SetTableStyleDefault(tableDefault))
	require.NoError(t, ts.SetTableStyle(types.GeometryPoint, tablePoint))
	require.NoError(t, ts.SetStyleDefault(1, featureDefault))
	require.NoError(t, ts.SetStyle(1, types.GeometryPoint, featurePoint))

	tests := []struct {
		name      string
		featureID int64
		geometry  types.GeometryType
		want      *types.StyleRow
	}{
		{"feature style for type", 1, types.GeometryPoint, featurePoint},
		{"feature default for other type", 1, types.GeometryPolygon, featureDefault},
		{"feature default without type", 1, types.GeometryNone, featureDefault},
		{"table style for type", 2, types.GeometryPoint, tablePoint},
		{"table default for other type", 2, types.GeometryPolygon, tableDefault},
		{"table default without type", 2, types.GeometryNone, tableDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.Style(tt.featureID, tt.geometry)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want.ID(), got.ID())
			assert.Equal(t, tt.want.Name(), got.Name())
		})
	}

	def, err := ts.StyleDefault(2)
	require.NoError(t, err)
	assert.Equal(t, tableDefault.ID(), def.ID())
}

func TestTableStyles_IconResolution(t *testing.T) {
	_, ts := newStyleFixture(t)

	tableIcon := newIcon(t, "table")
	featureIcon := newIcon(t, "feature polygon")
	require.NoError(t, ts.SetTableIconDefault(tableIcon))
	require.NoError(t, ts.SetIcon(3, types.GeometryPolygon, featureIcon))

	got, err := ts.Icon(3, types.GeometryPolygon)
	require.NoError(t, err)
	assert.Equal(t, featureIcon.ID(), got.ID())
	assert.Equal(t, []byte("feature polygon"), got.Data())

	got, err = ts.Icon(3, types.GeometryPoint)
	require.NoError(t, err)
	assert.Equal(t, tableIcon.ID(), got.ID())

	got, err = ts.IconDefault(4)
	require.NoError(t, err)
	assert.Equal(t, tableIcon.ID(), got.ID())

	// Icons resolve independently of styles.
	fs, err := ts.FeatureStyle(3, types.GeometryPolygon)
	require.NoError(t, err)
	require.NotNil(t, fs)
	assert.False(t, fs.HasStyle())
	assert.True(t, fs.HasIcon())
}

func TestTableStyles_EmptyResults(t *testing.T) {
	_, ts := newStyleFixture(t)

	fs, err := ts.FeatureStyle(1, types.GeometryPoint)
	require.NoError(t, err)
	assert.Nil(t, fs, "no placeholder when nothing resolves")

	fs, err = ts.FeatureStyleDefault(1)
	require.NoError(t, err)
	assert.Nil(t, fs)

	style, err := ts.Style(1, types.GeometryPoint)
	require.NoError(t, err)
	assert.Nil(t, style)

	styles, err := ts.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, styles)

	icons, err := ts.TableIcons()
	require.NoError(t, err)
	assert.Nil(t, icons)

	all, err := ts.TableFeatureStyles()
	require.NoError(t, err)
	assert.Nil(t, all)

	feature, err := ts.FeatureStyles(1)
	require.NoError(t, err)
	assert.Nil(t, feature)
}

func TestTableStyles_CacheCoherence(t *testing.T) {
	_, ts := newStyleFixture(t)

	styles, err := ts.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, styles)

	s := newStyle(t, "default", "#ABCDEF")
	require.NoError(t, ts.SetTableStyleDefault(s))

	styles, err = ts.CachedTableStyles()
	require.NoError(t, err)
	require.NotNil(t, styles)
	assert.Equal(t, s.ID(), styles.Default().ID())

	// Edits go through a copy; the cached row is left alone.
	edited := styles.Default().Copy()
	edited.SetName("edited")
	again, err := ts.TableStyleDefault()
	require.NoError(t, err)
	assert.Equal(t, "default", again.Name())
	assert.Same(t, styles.Default(), again, "cached reads share one row")

	require.NoError(t, ts.DeleteTableStyleDefault())
	styles, err = ts.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, styles)

	// Icons have their own half of the cache.
	i := newIcon(t, "pin")
	require.NoError(t, ts.SetTableIcon(types.GeometryPoint, i))
	icons, err := ts.CachedTableIcons()
	require.NoError(t, err)
	require.NotNil(t, icons)
	got, ok := icons.Exact(types.GeometryPoint)
	require.True(t, ok)
	assert.Equal(t, i.ID(), got.ID())
}

func TestTableStyles_CacheIsPerHandle(t *testing.T) {
	b, ts := newStyleFixture(t)
	other, err := b.TableStyles("roads")
	require.NoError(t, err)

	stale, err := other.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, stale)

	require.NoError(t, ts.SetTableStyleDefault(newStyle(t, "default", "#123")))

	stale, err = other.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, stale, "another handle keeps its cache until cleared")

	other.ClearCachedTableStyles()
	fresh, err := other.CachedTableStyles()
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "default", fresh.Default().Name())

	uncached, err := other.TableStyles()
	require.NoError(t, err)
	assert.Equal(t, 1, uncached.Len())
}

func TestTableStyles_SetReplacesMapping(t *testing.T) {
	b, ts := newStyleFixture(t)

	first := newStyle(t, "first", "#111")
	second := newStyle(t, "second", "#222")
	require.NoError(t, ts.SetStyle(1, types.GeometryLineString, first))
	require.NoError(t, ts.SetStyle(1, types.GeometryLineString, second))

	got, err := ts.Style(1, types.GeometryLineString)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), got.ID())
	assert.Equal(t, 2, countRows(t, b, types.StyleTableName))

	// A row with an id is updated in place.
	second.SetName("renamed")
	require.NoError(t, ts.SetStyle(1, types.GeometryLineString, second))
	got, err = ts.Style(1, types.GeometryLineString)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name())
	assert.Equal(t, 2, countRows(t, b, types.StyleTableName))

	// A nil style deletes the mapping.
	require.NoError(t, ts.SetStyle(1, types.GeometryLineString, nil))
	got, err = ts.Style(1, types.GeometryLineString)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTableStyles_SharedStyle(t *testing.T) {
	b, ts := newStyleFixture(t)

	shared := newStyle(t, "shared", "#0F0")
	require.NoError(t, ts.SetStyleDefault(1, shared))
	require.NoError(t, ts.SetStyleDefault(2, shared))
	assert.Equal(t, 1, countRows(t, b, types.StyleTableName))

	require.NoError(t, ts.DeleteStyles(1))
	got, err := ts.StyleDefault(1)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ts.StyleDefault(2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, shared.ID(), got.ID())
	assert.Equal(t, 1, countRows(t, b, types.StyleTableName), "deleting mappings keeps style rows")
}

func TestTableStyles_FeatureSets(t *testing.T) {
	_, ts := newStyleFixture(t)

	def := newStyle(t, "default", "#000")
	line := newStyle(t, "line", "#F00")
	icon := newIcon(t, "marker")
	require.NoError(t, ts.SetFeatureStyle(5, types.GeometryNone, &types.FeatureStyle{Style: def, Icon: icon}))
	require.NoError(t, ts.SetStyle(5, types.GeometryLineString, line))

	styles, err := ts.Styles(5)
	require.NoError(t, err)
	require.NotNil(t, styles)
	assert.Equal(t, 2, styles.Len())
	assert.Equal(t, def.ID(), styles.Default().ID())
	assert.Equal(t, []types.GeometryType{types.GeometryLineString}, styles.GeometryTypes())

	fss, err := ts.FeatureStyles(5)
	require.NoError(t, err)
	require.NotNil(t, fss)
	assert.Equal(t, icon.ID(), fss.Icons.Default().ID())

	require.NoError(t, ts.DeleteStyle(5, types.GeometryLineString))
	styles, err = ts.Styles(5)
	require.NoError(t, err)
	assert.Equal(t, 1, styles.Len())

	require.NoError(t, ts.DeleteIcon(5, types.GeometryNone))
	icons, err := ts.Icons(5)
	require.NoError(t, err)
	assert.Nil(t, icons)

	require.NoError(t, ts.SetFeatureStyle(5, types.GeometryNone, nil))
	fs, err := ts.FeatureStyleDefault(5)
	require.NoError(t, err)
	assert.Nil(t, fs)

	require.NoError(t, ts.SetIconDefault(6, newIcon(t, "six")))
	require.NoError(t, ts.DeleteFeatureStyles(6))
	fs, err = ts.FeatureStyleDefault(6)
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestTableStyles_TableSets(t *testing.T) {
	_, ts := newStyleFixture(t)

	var styles types.Styles
	styles.SetDefault(newStyle(t, "default", "#000"))
	styles.Set(types.GeometryPolygon, newStyle(t, "polygon", "#00F"))
	require.NoError(t, ts.SetTableStyles(&styles))

	got, err := ts.TableStyle(types.GeometryPolygon)
	require.NoError(t, err)
	assert.Equal(t, "polygon", got.Name())
	got, err = ts.TableStyle(types.GeometryPoint)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name())

	// Setting a set replaces the previous one.
	var replacement types.Styles
	replacement.Set(types.GeometryPoint, newStyle(t, "point", "#0F0"))
	require.NoError(t, ts.SetTableStyles(&replacement))

	def, err := ts.TableStyleDefault()
	require.NoError(t, err)
	assert.Nil(t, def)
	got, err = ts.TableStyle(types.GeometryPoint)
	require.NoError(t, err)
	assert.Equal(t, "point", got.Name())

	var icons types.Icons
	icons.SetDefault(newIcon(t, "table"))
	require.NoError(t, ts.SetTableFeatureStyles(&types.FeatureStyles{Styles: &replacement, Icons: &icons}))

	all, err := ts.TableFeatureStyles()
	require.NoError(t, err)
	require.NotNil(t, all)
	assert.Equal(t, 1, all.Styles.Len())
	assert.Equal(t, 1, all.Icons.Len())

	icon, err := ts.TableIconDefault()
	require.NoError(t, err)
	assert.Equal(t, "table", icon.Name())

	require.NoError(t, ts.DeleteTableIcons())
	icon, err = ts.TableIcon(types.GeometryPoint)
	require.NoError(t, err)
	assert.Nil(t, icon)

	require.NoError(t, ts.DeleteTableStyle(types.GeometryPoint))
	got, err = ts.TableStyle(types.GeometryPoint)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, ts.SetTableFeatureStyles(&types.FeatureStyles{Styles: &styles}))
	require.NoError(t, ts.DeleteTableFeatureStyles())
	all, err = ts.TableFeatureStyles()
	require.NoError(t, err)
	assert.Nil(t, all)

	require.NoError(t, ts.SetTableStyles(&styles))
	require.NoError(t, ts.DeleteTableStyles())
	cached, err := ts.CachedTableStyles()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestTableStyles_ValidationStopsWrite(t *testing.T) {
	b, ts := newStyleFixture(t)

	// An icon without data fails on insert and nothing is mapped.
	err := ts.SetTableIconDefault(types.NewIconRow())
	assert.ErrorIs(t, err, types.ErrValidation)

	icons, err := ts.CachedTableIcons()
	require.NoError(t, err)
	assert.Nil(t, icons)
	assert.False(t, mustTableExist(t, b, types.IconTableName), "the slot is rolled back with the row")
}

func TestTableStyles_Relationships(t *testing.T) {
	b, ts := newStyleFixture(t)

	ok, err := ts.HasStyleRelationship()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ts.CreateStyleRelationship())
	require.NoError(t, ts.CreateTableIconRelationship())

	for _, slot := range []types.Slot{types.SlotStyle, types.SlotStyleDefault, types.SlotTableIcon, types.SlotTableIconDefault} {
		ok, err := ts.HasRelationship(slot)
		require.NoError(t, err)
		assert.True(t, ok, slot.String())
		assert.True(t, mustTableExist(t, b, slot.MappingTableName("roads")))
	}

	ok, err = ts.HasTableIconRelationship()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ts.HasIconRelationship()
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = ts.HasTableStyleRelationship()
	require.NoError(t, err)
	assert.False(t, ok)

	cols, err := tableColumns(b.db, "roads_style")
	require.NoError(t, err)
	assert.Contains(t, cols, types.ColumnGeometryTypeName)
	cols, err = tableColumns(b.db, "roads_style_default")
	require.NoError(t, err)
	assert.NotContains(t, cols, types.ColumnGeometryTypeName)

	dataType, err := b.TableType(types.StyleTableName)
	require.NoError(t, err)
	assert.Equal(t, types.DataTypeAttributes, dataType)

	require.NoError(t, ts.DeleteRelationship(types.SlotStyle))
	assert.False(t, mustTableExist(t, b, "roads_style"))

	// Either slot of a pair is enough.
	ok, err = ts.HasStyleRelationship()
	require.NoError(t, err)
	assert.True(t, ok, "default slot still declared")

	require.NoError(t, ts.CreateRelationship(types.SlotIconDefault))
	ok, err = ts.HasIconRelationship()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ts.HasRelationship(types.SlotIcon)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ts.CreateTableStyleRelationship())
	require.NoError(t, ts.CreateIconRelationship())
	require.NoError(t, ts.DeleteRelationships())
	for _, slot := range types.AllSlots {
		ok, err := ts.HasRelationship(slot)
		require.NoError(t, err)
		assert.False(t, ok, slot.String())
	}
}

func TestFeatureStyleExtension(t *testing.T) {
	b, roads := newStyleFixture(t)
	require.NoError(t, b.CreateFeatureTable("rivers", types.GeometryLineString))
	rivers, err := b.TableStyles("rivers")
	require.NoError(t, err)

	ext, err := b.FeatureStyles()
	require.NoError(t, err)

	ok, err := ext.Has("roads")
	require.NoError(t, err)
	assert.False(t, ok)

	tables, err := ext.Tables()
	require.NoError(t, err)
	assert.Empty(t, tables)

	require.NoError(t, roads.SetStyleDefault(1, newStyle(t, "road", "#111")))
	require.NoError(t, rivers.SetTableIconDefault(newIcon(t, "river")))

	ok, err = ext.Has("roads")
	require.NoError(t, err)
	assert.True(t, ok)

	tables, err = ext.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"rivers", "roads"}, tables)

	require.NoError(t, ext.DeleteRelationships("roads"))
	ok, err = ext.Has("roads")
	require.NoError(t, err)
	assert.False(t, ok)
	tables, err = ext.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"rivers"}, tables)

	require.NoError(t, ext.Remove())
	tables, err = ext.Tables()
	require.NoError(t, err)
	assert.Empty(t, tables)
	assert.False(t, mustTableExist(t, b, types.StyleTableName))
	assert.False(t, mustTableExist(t, b, types.IconTableName))

	exts, err := b.relations.Extensions(types.ExtensionRelatedTables)
	require.NoError(t, err)
	assert.Empty(t, exts)

	_, err = ext.TableStyles("nowhere")
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestTableStyles_ConcurrentReadersSeeWrites(t *testing.T) {
	_, ts := newStyleFixture(t)

	const writes = 10
	versions := make([]*types.StyleRow, writes+1)
	for i := range versions {
		versions[i] = newStyle(t, fmt.Sprintf("v%d", i), "#FFF")
	}
	require.NoError(t, ts.SetTableStyleDefault(versions[0]))
	done := make(chan struct{})

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				if _, err := ts.TableStyle(types.GeometryPoint); err != nil {
					return err
				}
				if _, err := ts.CachedTableStyles(); err != nil {
					return err
				}
			}
		})
	}

	g.Go(func() error {
		defer close(done)
		for i := 1; i <= writes; i++ {
			if err := ts.SetTableStyleDefault(versions[i]); err != nil {
				return err
			}
			got, err := ts.TableStyleDefault()
			if err != nil {
				return err
			}
			if got == nil || got.ID() != versions[i].ID() {
				return fmt.Errorf("after write %d read stale style %v", i, got)
			}
		}
		return nil
	})

	require.NoError(t, g.Wait())
}

func TestTableStyles_GeometryKeys(t *testing.T) {
	_, ts := newStyleFixture(t)

	point := newStyle(t, "point", "#F00")
	require.NoError(t, ts.SetStyle(1, "point", point))

	got, err := ts.Style(1, types.GeometryPoint)
	require.NoError(t, err)
	require.NotNil(t, got, "lower-case key is stored under the canonical name")
	assert.Equal(t, point.ID(), got.ID())

	styles, err := ts.Styles(1)
	require.NoError(t, err)
	_, ok := styles.Exact(types.GeometryPoint)
	assert.True(t, ok)

	got, err = ts.Style(1, "Point")
	require.NoError(t, err)
	assert.Equal(t, point.ID(), got.ID())

	require.NoError(t, ts.SetTableIcon("polygon", newIcon(t, "area")))
	icon, err := ts.TableIcon(types.GeometryPolygon)
	require.NoError(t, err)
	require.NotNil(t, icon)
	assert.Equal(t, "area", icon.Name())

	require.NoError(t, ts.DeleteStyle(1, "point"))
	got, err = ts.Style(1, types.GeometryPoint)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTableStyles_UnknownGeometryKey(t *testing.T) {
	b, ts := newStyleFixture(t)
	bogus := types.GeometryType("BOGUS")
	style := newStyle(t, "s", "#000")
	icon := newIcon(t, "i")

	checks := []struct {
		name string
		call func() error
	}{
		{"SetStyle", func() error { return ts.SetStyle(1, bogus, style) }},
		{"SetIcon", func() error { return ts.SetIcon(1, bogus, icon) }},
		{"SetTableStyle", func() error { return ts.SetTableStyle(bogus, style) }},
		{"SetFeatureStyle", func() error {
			return ts.SetFeatureStyle(1, bogus, &types.FeatureStyle{Style: style, Icon: icon})
		}},
		{"DeleteStyle", func() error { return ts.DeleteStyle(1, bogus) }},
		{"DeleteTableIcon", func() error { return ts.DeleteTableIcon(bogus) }},
		{"Style", func() error { _, err := ts.Style(1, bogus); return err }},
		{"Icon", func() error { _, err := ts.Icon(1, bogus); return err }},
		{"TableStyle", func() error { _, err := ts.TableStyle(bogus); return err }},
		{"TableIcon", func() error { _, err := ts.TableIcon(bogus); return err }},
		{"FeatureStyle", func() error { _, err := ts.FeatureStyle(1, bogus); return err }},
	}

	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrValidation)
			assert.ErrorIs(t, err, types.ErrUnknownGeometryType)

			var vErr *types.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, types.ColumnGeometryTypeName, vErr.Column)
		})
	}

	var styles types.Styles
	styles.Set(bogus, style)
	assert.ErrorIs(t, ts.SetTableStyles(&styles), types.ErrUnknownGeometryType)

	assert.False(t, mustTableExist(t, b, types.StyleTableName), "rejected writes leave nothing behind")
}

func TestTableStyles_NonIDPrimaryKey(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.db.Exec("CREATE TABLE parcels (fid INTEGER PRIMARY KEY, geom BLOB)")
	require.NoError(t, err)
	_, err = b.db.Exec("INSERT INTO gpkg_contents (table_name, data_type) VALUES ('parcels', 'features')")
	require.NoError(t, err)

	ts, err := b.TableStyles("parcels")
	require.NoError(t, err)

	s := newStyle(t, "parcel", "#0A0")
	require.NoError(t, ts.SetStyle(1, types.GeometryPoint, s))
	require.NoError(t, ts.SetIconDefault(1, newIcon(t, "parcel")))

	got, err := ts.Style(1, types.GeometryPoint)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID(), got.ID())

	rc, err := b.Relations()
	require.NoError(t, err)
	rel, err := rc.Get("parcels_style")
	require.NoError(t, err)
	assert.Equal(t, "fid", rel.BasePrimaryColumn)
	rel, err = rc.Get("parcels_icon_default")
	require.NoError(t, err)
	assert.Equal(t, "fid", rel.BasePrimaryColumn)

	require.NoError(t, ts.SetTableStyleDefault(newStyle(t, "table", "#000")))
	rel, err = rc.Get("parcels_table_style_default")
	require.NoError(t, err)
	assert.Equal(t, types.ColumnID, rel.BasePrimaryColumn)
	assert.Equal(t, types.ContentsIDTable, rel.BaseTableName)
}
