package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeometryType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GeometryType
		wantErr bool
	}{
		{name: "upper case", input: "POINT", want: GeometryPoint},
		{name: "lower case", input: "multipolygon", want: GeometryMultiPolygon},
		{name: "padded", input: " tin ", want: GeometryTIN},
		{name: "empty is none", input: "", want: GeometryNone},
		{name: "unknown", input: "HEXAGON", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGeometryType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownGeometryType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryTypeValid(t *testing.T) {
	assert.True(t, GeometryPolygon.Valid())
	assert.False(t, GeometryNone.Valid())
	assert.True(t, GeometryNone.IsNone())
	assert.Equal(t, "<none>", GeometryNone.String())
	assert.Equal(t, "LINESTRING", GeometryLineString.String())
}
