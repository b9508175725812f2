package types

import (
	"fmt"
	"strings"
)

// GeometryType discriminates styles and icons by the geometry they apply to.
// GeometryNone is the "no discriminator" key used for defaults.
type GeometryType string

// Geometry type names as stored in geometry_type_name columns.
const (
	GeometryNone              GeometryType = ""
	GeometryGeometry          GeometryType = "GEOMETRY"
	GeometryPoint             GeometryType = "POINT"
	GeometryLineString        GeometryType = "LINESTRING"
	GeometryPolygon           GeometryType = "POLYGON"
	GeometryMultiPoint        GeometryType = "MULTIPOINT"
	GeometryMultiLineString   GeometryType = "MULTILINESTRING"
	GeometryMultiPolygon      GeometryType = "MULTIPOLYGON"
	GeometryCollection        GeometryType = "GEOMETRYCOLLECTION"
	GeometryCircularString    GeometryType = "CIRCULARSTRING"
	GeometryCompoundCurve     GeometryType = "COMPOUNDCURVE"
	GeometryCurvePolygon      GeometryType = "CURVEPOLYGON"
	GeometryMultiCurve        GeometryType = "MULTICURVE"
	GeometryMultiSurface      GeometryType = "MULTISURFACE"
	GeometryCurve             GeometryType = "CURVE"
	GeometrySurface           GeometryType = "SURFACE"
	GeometryPolyhedralSurface GeometryType = "POLYHEDRALSURFACE"
	GeometryTIN               GeometryType = "TIN"
	GeometryTriangle          GeometryType = "TRIANGLE"
)

var validGeometryTypes = map[GeometryType]bool{
	GeometryGeometry:          true,
	GeometryPoint:             true,
	GeometryLineString:        true,
	GeometryPolygon:           true,
	GeometryMultiPoint:        true,
	GeometryMultiLineString:   true,
	GeometryMultiPolygon:      true,
	GeometryCollection:        true,
	GeometryCircularString:    true,
	GeometryCompoundCurve:     true,
	GeometryCurvePolygon:      true,
	GeometryMultiCurve:        true,
	GeometryMultiSurface:      true,
	GeometryCurve:             true,
	GeometrySurface:           true,
	GeometryPolyhedralSurface: true,
	GeometryTIN:               true,
	GeometryTriangle:          true,
}

// IsNone reports whether g is the default (no discriminator) key.
func (g GeometryType) IsNone() bool {
	return g == GeometryNone
}

// Valid reports whether g is a recognized geometry type. GeometryNone is not
// a geometry type and is reported as invalid.
func (g GeometryType) Valid() bool {
	return validGeometryTypes[g]
}

func (g GeometryType) String() string {
	if g == GeometryNone {
		return "<none>"
	}
	return string(g)
}

// ParseGeometryType converts a stored or user supplied name into a
// GeometryType. Matching is case-insensitive; the empty string yields
// GeometryNone.
func ParseGeometryType(name string) (GeometryType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return GeometryNone, nil
	}
	g := GeometryType(strings.ToUpper(name))
	if !g.Valid() {
		return GeometryNone, fmt.Errorf("%w: %q", ErrUnknownGeometryType, name)
	}
	return g, nil
}
