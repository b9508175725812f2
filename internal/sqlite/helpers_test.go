package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// newTestBackend returns an attached in-memory container detached at the
// end of the test.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{InMemory: true}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// newStyleFixture returns a container with a "roads" feature table and its
// style handle.
func newStyleFixture(t *testing.T) (*Backend, types.TableStyles) {
	t.Helper()
	b := newTestBackend(t)
	require.NoError(t, b.CreateFeatureTable("roads", types.GeometryLineString))
	ts, err := b.TableStyles("roads")
	require.NoError(t, err)
	return b, ts
}

func newStyle(t *testing.T, name, color string) *types.StyleRow {
	t.Helper()
	s := types.NewStyleRow()
	s.SetName(name)
	require.NoError(t, s.SetHexColor(color))
	return s
}

func newIcon(t *testing.T, name string) *types.IconRow {
	t.Helper()
	i := types.NewIconRow()
	i.SetName(name)
	require.NoError(t, i.SetData([]byte(name), "image/png"))
	return i
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, b *Backend, table string) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n))
	return n
}

func mustTableExist(t *testing.T, b *Backend, table string) bool {
	t.Helper()
	ok, err := tableExists(b.db, table)
	require.NoError(t, err)
	return ok
}
