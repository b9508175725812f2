package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

func TestRowStorage(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.CreateAttributesTable(types.StyleSchema()))

	s := newStyle(t, "roads", "#333")
	width := 2.5
	require.NoError(t, s.SetWidth(&width))

	id, err := saveRow(b.db, s.Row())
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, s.ID(), "insert assigns the id to the row")

	row, err := getRow(b.db, types.StyleSchema(), id)
	require.NoError(t, err)
	require.NotNil(t, row)
	got, err := types.StyleRowOf(row)
	require.NoError(t, err)
	assert.Equal(t, "roads", got.Name())
	assert.Equal(t, "#333", got.HexColor())
	assert.Equal(t, 2.5, *got.Width())
	assert.Nil(t, got.Opacity())

	s.SetName("highways")
	again, err := saveRow(b.db, s.Row())
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, countRows(t, b, types.StyleTableName))

	row, err = getRow(b.db, types.StyleSchema(), id)
	require.NoError(t, err)
	got, _ = types.StyleRowOf(row)
	assert.Equal(t, "highways", got.Name())

	missing, err := getRow(b.db, types.StyleSchema(), id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRowStorageErrors(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.CreateAttributesTable(types.StyleSchema()))

	// Icon rows need data and a content type.
	err := insertRow(b.db, types.NewIconRow().Row())
	assert.ErrorIs(t, err, types.ErrValidation)

	s := types.NewStyleRow()
	s.Row().SetID(42)
	err = updateRow(b.db, s.Row())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetRowsSkipsUnknownIDs(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.CreateAttributesTable(types.StyleSchema()))

	a := newStyle(t, "a", "#111")
	c := newStyle(t, "c", "#333")
	for _, s := range []*types.StyleRow{a, c} {
		_, err := saveRow(b.db, s.Row())
		require.NoError(t, err)
	}

	rows, err := getRows(b.db, types.StyleSchema(), []int64{a.ID(), 999, c.ID()})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Contains(t, rows, a.ID())
	assert.Contains(t, rows, c.ID())

	empty, err := getRows(b.db, types.StyleSchema(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
