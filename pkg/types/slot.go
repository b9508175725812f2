package types

// Slot identifies one of the eight style/icon relationships a feature table
// can carry: style or icon, feature or table scope, discriminated by
// geometry type or default.
type Slot int

const (
	SlotStyle Slot = iota
	SlotStyleDefault
	SlotTableStyle
	SlotTableStyleDefault
	SlotIcon
	SlotIconDefault
	SlotTableIcon
	SlotTableIconDefault
)

// AllSlots lists every slot in declaration order.
var AllSlots = []Slot{
	SlotStyle,
	SlotStyleDefault,
	SlotTableStyle,
	SlotTableStyleDefault,
	SlotIcon,
	SlotIconDefault,
	SlotTableIcon,
	SlotTableIconDefault,
}

var slotSuffixes = map[Slot]string{
	SlotStyle:             "_style",
	SlotStyleDefault:      "_style_default",
	SlotTableStyle:        "_table_style",
	SlotTableStyleDefault: "_table_style_default",
	SlotIcon:              "_icon",
	SlotIconDefault:       "_icon_default",
	SlotTableIcon:         "_table_icon",
	SlotTableIconDefault:  "_table_icon_default",
}

// MappingTableName returns the mapping table the slot uses for featureTable.
func (s Slot) MappingTableName(featureTable string) string {
	return featureTable + slotSuffixes[s]
}

// IsIcon reports whether the slot maps to icons rather than styles.
func (s Slot) IsIcon() bool {
	return s >= SlotIcon
}

// IsTableScope reports whether the slot's base rows are contents ids rather
// than feature ids.
func (s Slot) IsTableScope() bool {
	switch s {
	case SlotTableStyle, SlotTableStyleDefault, SlotTableIcon, SlotTableIconDefault:
		return true
	}
	return false
}

// IsDiscriminated reports whether the slot's mapping table carries a
// geometry_type_name column.
func (s Slot) IsDiscriminated() bool {
	switch s {
	case SlotStyle, SlotTableStyle, SlotIcon, SlotTableIcon:
		return true
	}
	return false
}

// RelatedTable returns the style or icon table the slot maps to.
func (s Slot) RelatedTable() string {
	if s.IsIcon() {
		return IconTableName
	}
	return StyleTableName
}

// RelationName returns the relation kind declared for the slot.
func (s Slot) RelationName() string {
	if s.IsIcon() {
		return RelationMedia
	}
	return RelationAttributes
}

// ForGeometry returns the discriminated or default variant of s for g.
func (s Slot) ForGeometry(g GeometryType) Slot {
	if g.IsNone() {
		if s.IsDiscriminated() {
			return s + 1
		}
		return s
	}
	if !s.IsDiscriminated() {
		return s - 1
	}
	return s
}

func (s Slot) String() string {
	if suffix, ok := slotSuffixes[s]; ok {
		return suffix[1:]
	}
	return "unknown"
}
