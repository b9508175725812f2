package sqlite

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

var _ types.TableStyles = (*tableStyles)(nil)

// tableStyles resolves styles and icons for one feature table. Feature
// lookups go to storage every time; table-level sets are cached until a
// table-level write through this handle clears them.
type tableStyles struct {
	ext   *featureStyleExtension
	table string

	styles cachedSet[*types.Styles]
	icons  cachedSet[*types.Icons]
}

func newTableStyles(ext *featureStyleExtension, table string) *tableStyles {
	return &tableStyles{ext: ext, table: table}
}

func (ts *tableStyles) TableName() string {
	return ts.table
}

func (ts *tableStyles) log() *logrus.Entry {
	return ts.ext.backend.entry().WithField("table", ts.table)
}

// read runs fn against the open database.
func (ts *tableStyles) read(fn func(q querier) error) error {
	db, err := ts.ext.backend.conn()
	if err != nil {
		return err
	}
	return fn(db)
}

// Relationship management

func (ts *tableStyles) CreateRelationship(slot types.Slot) error {
	var created bool
	err := ts.ext.backend.withTx(func(tx *sql.Tx) error {
		var err error
		created, err = createSlot(tx, ts.table, slot)
		return err
	})
	if err != nil {
		return err
	}
	if created {
		ts.log().WithField("mapping_table", slot.MappingTableName(ts.table)).Debug("created mapping table")
	}
	return nil
}

func (ts *tableStyles) HasRelationship(slot types.Slot) (bool, error) {
	var ok bool
	err := ts.read(func(q querier) error {
		var err error
		ok, err = hasSlot(q, ts.table, slot)
		return err
	})
	return ok, err
}

func (ts *tableStyles) DeleteRelationship(slot types.Slot) error {
	var removed bool
	err := ts.ext.backend.withTx(func(tx *sql.Tx) error {
		var err error
		removed, err = deleteSlot(tx, ts.table, slot)
		return err
	})
	if slot.IsTableScope() {
		ts.clearSlotCache(slot)
	}
	if err != nil {
		return err
	}
	if removed {
		ts.log().WithField("mapping_table", slot.MappingTableName(ts.table)).Debug("dropped mapping table")
	}
	return nil
}

func (ts *tableStyles) DeleteRelationships() error {
	defer ts.ClearCachedTableFeatureStyles()
	return ts.ext.DeleteRelationships(ts.table)
}

// createPair creates a discriminated slot and its default together.
func (ts *tableStyles) createPair(slot types.Slot) error {
	if err := ts.CreateRelationship(slot); err != nil {
		return err
	}
	return ts.CreateRelationship(slot.ForGeometry(types.GeometryNone))
}

// hasPair reports whether either a discriminated slot or its default exists.
func (ts *tableStyles) hasPair(slot types.Slot) (bool, error) {
	ok, err := ts.HasRelationship(slot)
	if err != nil || ok {
		return ok, err
	}
	return ts.HasRelationship(slot.ForGeometry(types.GeometryNone))
}

func (ts *tableStyles) CreateStyleRelationship() error {
	return ts.createPair(types.SlotStyle)
}

func (ts *tableStyles) HasStyleRelationship() (bool, error) {
	return ts.hasPair(types.SlotStyle)
}

func (ts *tableStyles) CreateTableStyleRelationship() error {
	return ts.createPair(types.SlotTableStyle)
}

func (ts *tableStyles) HasTableStyleRelationship() (bool, error) {
	return ts.hasPair(types.SlotTableStyle)
}

func (ts *tableStyles) CreateIconRelationship() error {
	return ts.createPair(types.SlotIcon)
}

func (ts *tableStyles) HasIconRelationship() (bool, error) {
	return ts.hasPair(types.SlotIcon)
}

func (ts *tableStyles) CreateTableIconRelationship() error {
	return ts.createPair(types.SlotTableIcon)
}

func (ts *tableStyles) HasTableIconRelationship() (bool, error) {
	return ts.hasPair(types.SlotTableIcon)
}

// Loading

// loadStyles reads the style set of featureID under slot, or of the table
// for table-scope slots.
func (ts *tableStyles) loadStyles(slot types.Slot, featureID int64) (*types.Styles, error) {
	var set *types.Styles
	err := ts.read(func(q querier) error {
		baseID, ok, err := slotBaseID(q, ts.table, slot, featureID, false)
		if err != nil || !ok {
			return err
		}
		set, err = loadRowSet(q, ts.table, slot, baseID, types.StyleRowOf)
		return err
	})
	return set, err
}

func (ts *tableStyles) loadIcons(slot types.Slot, featureID int64) (*types.Icons, error) {
	var set *types.Icons
	err := ts.read(func(q querier) error {
		baseID, ok, err := slotBaseID(q, ts.table, slot, featureID, false)
		if err != nil || !ok {
			return err
		}
		set, err = loadRowSet(q, ts.table, slot, baseID, types.IconRowOf)
		return err
	})
	return set, err
}

// lookup returns the row mapped to featureID for g under slot.
func (ts *tableStyles) lookup(slot types.Slot, featureID int64, g types.GeometryType) (*types.Row, error) {
	var row *types.Row
	err := ts.read(func(q querier) error {
		baseID, ok, err := slotBaseID(q, ts.table, slot, featureID, false)
		if err != nil || !ok {
			return err
		}
		row, err = lookupRow(q, ts.table, slot, baseID, g)
		return err
	})
	return row, err
}

// Table level

func (ts *tableStyles) TableFeatureStyles() (*types.FeatureStyles, error) {
	styles, err := ts.TableStyles()
	if err != nil {
		return nil, err
	}
	icons, err := ts.TableIcons()
	if err != nil {
		return nil, err
	}
	if styles == nil && icons == nil {
		return nil, nil
	}
	return &types.FeatureStyles{Styles: styles, Icons: icons}, nil
}

func (ts *tableStyles) TableStyles() (*types.Styles, error) {
	return ts.loadStyles(types.SlotTableStyle, 0)
}

// CachedTableStyles returns the table styles, loading them on first use.
// The returned set is shared with the cache and must not be modified.
func (ts *tableStyles) CachedTableStyles() (*types.Styles, error) {
	return ts.styles.getOrLoad(func() (*types.Styles, error) {
		set, err := ts.TableStyles()
		if err == nil {
			ts.log().WithField("styles", set.Len()).Debug("loaded table styles")
		}
		return set, err
	})
}

// TableStyle returns the table style for g, falling back to the table
// default.
func (ts *tableStyles) TableStyle(g types.GeometryType) (*types.StyleRow, error) {
	g, err := geometryKey(g)
	if err != nil {
		return nil, err
	}
	set, err := ts.CachedTableStyles()
	if err != nil || set == nil {
		return nil, err
	}
	return set.Get(g), nil
}

func (ts *tableStyles) TableStyleDefault() (*types.StyleRow, error) {
	return ts.TableStyle(types.GeometryNone)
}

func (ts *tableStyles) TableIcons() (*types.Icons, error) {
	return ts.loadIcons(types.SlotTableIcon, 0)
}

// CachedTableIcons returns the table icons, loading them on first use.
// The returned set is shared with the cache and must not be modified.
func (ts *tableStyles) CachedTableIcons() (*types.Icons, error) {
	return ts.icons.getOrLoad(func() (*types.Icons, error) {
		set, err := ts.TableIcons()
		if err == nil {
			ts.log().WithField("icons", set.Len()).Debug("loaded table icons")
		}
		return set, err
	})
}

func (ts *tableStyles) TableIcon(g types.GeometryType) (*types.IconRow, error) {
	g, err := geometryKey(g)
	if err != nil {
		return nil, err
	}
	set, err := ts.CachedTableIcons()
	if err != nil || set == nil {
		return nil, err
	}
	return set.Get(g), nil
}

func (ts *tableStyles) TableIconDefault() (*types.IconRow, error) {
	return ts.TableIcon(types.GeometryNone)
}

// Feature level

func (ts *tableStyles) FeatureStyles(featureID int64) (*types.FeatureStyles, error) {
	styles, err := ts.Styles(featureID)
	if err != nil {
		return nil, err
	}
	icons, err := ts.Icons(featureID)
	if err != nil {
		return nil, err
	}
	if styles == nil && icons == nil {
		return nil, nil
	}
	return &types.FeatureStyles{Styles: styles, Icons: icons}, nil
}

// FeatureStyle resolves the style and icon of a feature. It returns nil
// when neither resolves.
func (ts *tableStyles) FeatureStyle(featureID int64, g types.GeometryType) (*types.FeatureStyle, error) {
	style, err := ts.Style(featureID, g)
	if err != nil {
		return nil, err
	}
	icon, err := ts.Icon(featureID, g)
	if err != nil {
		return nil, err
	}
	if style == nil && icon == nil {
		return nil, nil
	}
	return &types.FeatureStyle{Style: style, Icon: icon}, nil
}

func (ts *tableStyles) FeatureStyleDefault(featureID int64) (*types.FeatureStyle, error) {
	return ts.FeatureStyle(featureID, types.GeometryNone)
}

func (ts *tableStyles) Styles(featureID int64) (*types.Styles, error) {
	return ts.loadStyles(types.SlotStyle, featureID)
}

// Style resolves in order: the feature's style for g, the feature's
// default, the table style for g, the table default.
func (ts *tableStyles) Style(featureID int64, g types.GeometryType) (*types.StyleRow, error) {
	row, err := ts.featureRow(types.SlotStyle, featureID, g)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return types.StyleRowOf(row)
	}
	return ts.TableStyle(g)
}

func (ts *tableStyles) StyleDefault(featureID int64) (*types.StyleRow, error) {
	return ts.Style(featureID, types.GeometryNone)
}

func (ts *tableStyles) Icons(featureID int64) (*types.Icons, error) {
	return ts.loadIcons(types.SlotIcon, featureID)
}

func (ts *tableStyles) Icon(featureID int64, g types.GeometryType) (*types.IconRow, error) {
	row, err := ts.featureRow(types.SlotIcon, featureID, g)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return types.IconRowOf(row)
	}
	return ts.TableIcon(g)
}

func (ts *tableStyles) IconDefault(featureID int64) (*types.IconRow, error) {
	return ts.Icon(featureID, types.GeometryNone)
}

// featureRow tries the feature's mapping for g, then its default.
func (ts *tableStyles) featureRow(slot types.Slot, featureID int64, g types.GeometryType) (*types.Row, error) {
	if !g.IsNone() {
		row, err := ts.lookup(slot, featureID, g)
		if err != nil || row != nil {
			return row, err
		}
	}
	return ts.lookup(slot, featureID, types.GeometryNone)
}

// Writes

// write runs fn in a transaction and then clears the caches for slots.
func (ts *tableStyles) write(fn func(tx *sql.Tx) error, slots ...types.Slot) error {
	defer func() {
		for _, slot := range slots {
			ts.clearSlotCache(slot)
		}
	}()
	return ts.ext.backend.withTx(fn)
}

func (ts *tableStyles) clearSlotCache(slot types.Slot) {
	if !slot.IsTableScope() {
		return
	}
	if slot.IsIcon() {
		ts.ClearCachedTableIcons()
	} else {
		ts.ClearCachedTableStyles()
	}
}

// replaceSet deletes every mapping under slot and its default, then maps
// the rows of set.
func replaceSet[R interface {
	comparable
	Row() *types.Row
}](tx *sql.Tx, table string, slot types.Slot, featureID int64, set *types.RowSet[R]) error {
	if err := deleteAllMappings(tx, table, slot, featureID); err != nil {
		return err
	}
	if set == nil {
		return nil
	}
	var zero R
	if def := set.Default(); def != zero {
		if err := setMapping(tx, table, slot, featureID, types.GeometryNone, def.Row()); err != nil {
			return err
		}
	}
	for _, g := range set.GeometryTypes() {
		row, _ := set.Exact(g)
		if err := setMapping(tx, table, slot, featureID, g, row.Row()); err != nil {
			return err
		}
	}
	return nil
}

func (ts *tableStyles) SetTableFeatureStyles(fs *types.FeatureStyles) error {
	if fs == nil {
		return ts.DeleteTableFeatureStyles()
	}
	return ts.write(func(tx *sql.Tx) error {
		if err := replaceSet(tx, ts.table, types.SlotTableStyle, 0, fs.Styles); err != nil {
			return err
		}
		return replaceSet(tx, ts.table, types.SlotTableIcon, 0, fs.Icons)
	}, types.SlotTableStyle, types.SlotTableIcon)
}

func (ts *tableStyles) SetTableStyles(styles *types.Styles) error {
	return ts.write(func(tx *sql.Tx) error {
		return replaceSet(tx, ts.table, types.SlotTableStyle, 0, styles)
	}, types.SlotTableStyle)
}

func (ts *tableStyles) SetTableStyleDefault(style *types.StyleRow) error {
	return ts.SetTableStyle(types.GeometryNone, style)
}

// SetTableStyle maps style to the table for g. A nil style deletes the
// mapping.
func (ts *tableStyles) SetTableStyle(g types.GeometryType, style *types.StyleRow) error {
	if style == nil {
		return ts.DeleteTableStyle(g)
	}
	return ts.write(func(tx *sql.Tx) error {
		return setMapping(tx, ts.table, types.SlotTableStyle, 0, g, style.Row())
	}, types.SlotTableStyle)
}

func (ts *tableStyles) SetTableIcons(icons *types.Icons) error {
	return ts.write(func(tx *sql.Tx) error {
		return replaceSet(tx, ts.table, types.SlotTableIcon, 0, icons)
	}, types.SlotTableIcon)
}

func (ts *tableStyles) SetTableIconDefault(icon *types.IconRow) error {
	return ts.SetTableIcon(types.GeometryNone, icon)
}

func (ts *tableStyles) SetTableIcon(g types.GeometryType, icon *types.IconRow) error {
	if icon == nil {
		return ts.DeleteTableIcon(g)
	}
	return ts.write(func(tx *sql.Tx) error {
		return setMapping(tx, ts.table, types.SlotTableIcon, 0, g, icon.Row())
	}, types.SlotTableIcon)
}

func (ts *tableStyles) DeleteTableFeatureStyles() error {
	return ts.write(func(tx *sql.Tx) error {
		if err := deleteAllMappings(tx, ts.table, types.SlotTableStyle, 0); err != nil {
			return err
		}
		return deleteAllMappings(tx, ts.table, types.SlotTableIcon, 0)
	}, types.SlotTableStyle, types.SlotTableIcon)
}

func (ts *tableStyles) DeleteTableStyles() error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteAllMappings(tx, ts.table, types.SlotTableStyle, 0)
	}, types.SlotTableStyle)
}

func (ts *tableStyles) DeleteTableStyleDefault() error {
	return ts.DeleteTableStyle(types.GeometryNone)
}

func (ts *tableStyles) DeleteTableStyle(g types.GeometryType) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteMapping(tx, ts.table, types.SlotTableStyle, 0, g)
	}, types.SlotTableStyle)
}

func (ts *tableStyles) DeleteTableIcons() error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteAllMappings(tx, ts.table, types.SlotTableIcon, 0)
	}, types.SlotTableIcon)
}

func (ts *tableStyles) DeleteTableIconDefault() error {
	return ts.DeleteTableIcon(types.GeometryNone)
}

func (ts *tableStyles) DeleteTableIcon(g types.GeometryType) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteMapping(tx, ts.table, types.SlotTableIcon, 0, g)
	}, types.SlotTableIcon)
}

// SetFeatureStyle maps both halves of fs to the feature for g. A nil fs
// deletes both mappings; a nil half deletes that half.
func (ts *tableStyles) SetFeatureStyle(featureID int64, g types.GeometryType, fs *types.FeatureStyle) error {
	if fs == nil {
		fs = &types.FeatureStyle{}
	}
	return ts.write(func(tx *sql.Tx) error {
		if err := ts.setFeatureRow(tx, types.SlotStyle, featureID, g, styleRow(fs.Style)); err != nil {
			return err
		}
		return ts.setFeatureRow(tx, types.SlotIcon, featureID, g, iconRow(fs.Icon))
	})
}

func (ts *tableStyles) setFeatureRow(tx *sql.Tx, slot types.Slot, featureID int64, g types.GeometryType, row *types.Row) error {
	if row == nil {
		return deleteMapping(tx, ts.table, slot, featureID, g)
	}
	return setMapping(tx, ts.table, slot, featureID, g, row)
}

func (ts *tableStyles) SetStyle(featureID int64, g types.GeometryType, style *types.StyleRow) error {
	return ts.write(func(tx *sql.Tx) error {
		return ts.setFeatureRow(tx, types.SlotStyle, featureID, g, styleRow(style))
	})
}

func (ts *tableStyles) SetStyleDefault(featureID int64, style *types.StyleRow) error {
	return ts.SetStyle(featureID, types.GeometryNone, style)
}

func (ts *tableStyles) SetIcon(featureID int64, g types.GeometryType, icon *types.IconRow) error {
	return ts.write(func(tx *sql.Tx) error {
		return ts.setFeatureRow(tx, types.SlotIcon, featureID, g, iconRow(icon))
	})
}

func (ts *tableStyles) SetIconDefault(featureID int64, icon *types.IconRow) error {
	return ts.SetIcon(featureID, types.GeometryNone, icon)
}

func (ts *tableStyles) DeleteFeatureStyles(featureID int64) error {
	return ts.write(func(tx *sql.Tx) error {
		if err := deleteAllMappings(tx, ts.table, types.SlotStyle, featureID); err != nil {
			return err
		}
		return deleteAllMappings(tx, ts.table, types.SlotIcon, featureID)
	})
}

func (ts *tableStyles) DeleteStyles(featureID int64) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteAllMappings(tx, ts.table, types.SlotStyle, featureID)
	})
}

func (ts *tableStyles) DeleteStyle(featureID int64, g types.GeometryType) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteMapping(tx, ts.table, types.SlotStyle, featureID, g)
	})
}

func (ts *tableStyles) DeleteIcons(featureID int64) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteAllMappings(tx, ts.table, types.SlotIcon, featureID)
	})
}

func (ts *tableStyles) DeleteIcon(featureID int64, g types.GeometryType) error {
	return ts.write(func(tx *sql.Tx) error {
		return deleteMapping(tx, ts.table, types.SlotIcon, featureID, g)
	})
}

// Cache

func (ts *tableStyles) ClearCachedTableFeatureStyles() {
	ts.ClearCachedTableStyles()
	ts.ClearCachedTableIcons()
}

func (ts *tableStyles) ClearCachedTableStyles() {
	ts.styles.clear()
	ts.log().Debug("cleared cached table styles")
}

func (ts *tableStyles) ClearCachedTableIcons() {
	ts.icons.clear()
	ts.log().Debug("cleared cached table icons")
}

func styleRow(s *types.StyleRow) *types.Row {
	if s == nil {
		return nil
	}
	return s.Row()
}

func iconRow(i *types.IconRow) *types.Row {
	if i == nil {
		return nil
	}
	return i.Row()
}
