// Package types defines the Container, RelationCatalog, FeatureStyleExtension
// and TableStyles interfaces, the relation, row and style entity types, and the
// standard errors for geostyle.
//
// A container is a GeoPackage-style SQLite file. Relations declared in its
// catalog link rows of a base table to rows of a related table through a
// two-column mapping table. Feature styles and icons are layered on top of
// that mechanism: a feature inherits presentation rows from its own mappings
// first and from its table's mappings second.
package types
