// Package sqlite provides the public API for the SQLite geostyle container.
// It exposes the factory function while keeping the implementation
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/geostyle/internal/config"
	"github.com/mesh-intelligence/geostyle/internal/sqlite"
	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// NewContainer creates a new SQLite container. The container is not
// attached; call Attach with a Config to open it.
//
// Example:
//
//	c := sqlite.NewContainer()
//	err := c.Attach(types.Config{Path: "styles.gpkg"})
//	defer c.Detach()
//
//	if err := c.CreateFeatureTable("roads", types.GeometryLineString); err != nil {
//	    return err
//	}
//	styles, err := c.TableStyles("roads")
func NewContainer() types.Container {
	return sqlite.NewBackend()
}

// Open loads geostyle.yaml from dir, GEOSTYLE_CONFIG_DIR or the platform
// configuration directory, applies GEOSTYLE_* environment overrides and
// returns an attached container.
func Open(dir string) (types.Container, error) {
	cfg, err := config.LoadDefault(dir)
	if err != nil {
		return nil, err
	}
	c := NewContainer()
	if err := c.Attach(cfg); err != nil {
		return nil, err
	}
	return c, nil
}
