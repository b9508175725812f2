package types

import "sort"

// RowSet keys presentation rows by geometry type: at most one default row
// and at most one row per geometry type.
type RowSet[R comparable] struct {
	defaultRow R
	hasDefault bool
	byType     map[GeometryType]R
}

// Styles is the style set of a feature or feature table.
type Styles = RowSet[*StyleRow]

// Icons is the icon set of a feature or feature table.
type Icons = RowSet[*IconRow]

// Set stores row under g; GeometryNone sets the default. A zero row removes
// the entry.
func (s *RowSet[R]) Set(g GeometryType, row R) {
	var zero R
	if row == zero {
		s.Remove(g)
		return
	}
	if g.IsNone() {
		s.defaultRow = row
		s.hasDefault = true
		return
	}
	if s.byType == nil {
		s.byType = make(map[GeometryType]R)
	}
	s.byType[g] = row
}

// SetDefault stores the default row.
func (s *RowSet[R]) SetDefault(row R) {
	s.Set(GeometryNone, row)
}

// Remove deletes the entry for g.
func (s *RowSet[R]) Remove(g GeometryType) {
	if g.IsNone() {
		var zero R
		s.defaultRow = zero
		s.hasDefault = false
		return
	}
	delete(s.byType, g)
}

// Get returns the row for g, falling back to the default. It returns the
// zero row when neither exists.
func (s *RowSet[R]) Get(g GeometryType) R {
	if !g.IsNone() {
		if row, ok := s.byType[g]; ok {
			return row
		}
	}
	return s.defaultRow
}

// Exact returns the row stored under g without falling back.
func (s *RowSet[R]) Exact(g GeometryType) (R, bool) {
	if g.IsNone() {
		return s.defaultRow, s.hasDefault
	}
	row, ok := s.byType[g]
	return row, ok
}

// Default returns the default row, or the zero row.
func (s *RowSet[R]) Default() R {
	return s.defaultRow
}

// GeometryTypes returns the discriminated keys in sorted order.
func (s *RowSet[R]) GeometryTypes() []GeometryType {
	keys := make([]GeometryType, 0, len(s.byType))
	for g := range s.byType {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len counts the stored rows, the default included. A nil set is empty.
func (s *RowSet[R]) Len() int {
	if s == nil {
		return 0
	}
	n := len(s.byType)
	if s.hasDefault {
		n++
	}
	return n
}

// IsEmpty reports whether the set holds no rows.
func (s *RowSet[R]) IsEmpty() bool {
	return s.Len() == 0
}

// FeatureStyle pairs the style and icon resolved for one feature. Either may
// be nil, never both.
type FeatureStyle struct {
	Style *StyleRow
	Icon  *IconRow
}

// HasStyle reports whether a style was resolved.
func (f *FeatureStyle) HasStyle() bool { return f != nil && f.Style != nil }

// HasIcon reports whether an icon was resolved.
func (f *FeatureStyle) HasIcon() bool { return f != nil && f.Icon != nil }

// FeatureStyles pairs the style set and icon set of a feature or table.
// Either may be nil.
type FeatureStyles struct {
	Styles *Styles
	Icons  *Icons
}
