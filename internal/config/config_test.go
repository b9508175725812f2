package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geostyle/internal/paths"
	"github.com/mesh-intelligence/geostyle/pkg/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geostyle.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr error
		check   func(t *testing.T, cfg types.Config)
	}{
		{
			name: "file values",
			body: "path: /data/styles.gpkg\nmax_open_conns: 4\nbusy_timeout: 250ms\nlog_level: debug\n",
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, "/data/styles.gpkg", cfg.Path)
				assert.False(t, cfg.InMemory)
				assert.Equal(t, 4, cfg.MaxOpenConns)
				assert.Equal(t, 250*time.Millisecond, cfg.BusyTimeout)
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
		{
			name: "defaults fill missing keys",
			body: "in_memory: true\n",
			check: func(t *testing.T, cfg types.Config) {
				assert.True(t, cfg.InMemory)
				assert.Equal(t, types.DefaultMaxOpenConns, cfg.MaxOpenConns)
				assert.Equal(t, types.DefaultBusyTimeout, cfg.BusyTimeout)
				assert.Equal(t, types.DefaultLogLevel, cfg.LogLevel)
			},
		},
		{
			name: "environment overrides file",
			body: "in_memory: true\nlog_level: info\n",
			env:  map[string]string{"GEOSTYLE_LOG_LEVEL": "error"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, "error", cfg.LogLevel)
			},
		},
		{
			name:    "path and in_memory conflict",
			body:    "path: a.gpkg\nin_memory: true\n",
			wantErr: types.ErrPathConflict,
		},
		{
			name:    "unknown log level",
			body:    "in_memory: true\nlog_level: loud\n",
			wantErr: types.ErrLogLevelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("GEOSTYLE_IN_MEMORY", "true")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.InMemory)
	assert.Equal(t, types.DefaultLogLevel, cfg.LogLevel)
}

func TestLoadDefaultUsesConfigDirEnv(t *testing.T) {
	dir := writeConfig(t, "path: from-env.gpkg\n")
	t.Setenv(paths.EnvConfigDir, dir)

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.gpkg", cfg.Path)
}

func TestLoadRequiresPath(t *testing.T) {
	_, err := Load("")
	require.ErrorIs(t, err, types.ErrPathEmpty)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "path: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestDecode(t *testing.T) {
	v := New("")
	v.Set("in_memory", true)
	v.Set("max_open_conns", 2)

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.True(t, cfg.InMemory)
	assert.Equal(t, 2, cfg.MaxOpenConns)
}
