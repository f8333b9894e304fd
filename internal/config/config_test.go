package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optpath.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
instrument = "sparc2.yaml"
name = "lab-3"
mode_files = ["overrides.hcl", "/etc/optpath/site.yaml"]

[log]
level = "debug"
format = "json"

[path]
move_timeout = "90s"
quality = "best"

[fan]
timeout = "2m"
epsilon = 1.5
speed = 0.8

[store]
backend = "redis"
redis_addr = "localhost:6379"
redis_db = 2
ttl = "24h"
lock = true
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "sparc2.yaml"), cfg.Instrument)
	assert.Equal(t, "lab-3", cfg.Name)
	assert.Equal(t, []string{filepath.Join(dir, "overrides.hcl"), "/etc/optpath/site.yaml"}, cfg.ModeFiles)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 90*time.Second, cfg.Path.MoveTimeout.Duration)
	assert.Equal(t, "best", cfg.Path.Quality)
	assert.Equal(t, 2*time.Minute, cfg.Fan.Timeout.Duration)
	assert.Equal(t, 1.5, cfg.Fan.Epsilon)
	assert.Equal(t, time.Second, cfg.Fan.Poll.Duration, "defaults are kept for absent keys")
	assert.Equal(t, 25.0, cfg.Fan.Ambient)
	assert.Equal(t, 0.8, cfg.Fan.Speed)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL.Duration)
	assert.True(t, cfg.Store.Lock)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `instrument = "/opt/sparc2.yaml"`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/sparc2.yaml", cfg.Instrument)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(filepath.Dir(path), ".optpath", "state"), cfg.Store.Path)
	assert.Equal(t, 180*time.Second, cfg.Path.MoveTimeout.Duration)
	assert.Equal(t, "fast", cfg.Path.Quality)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"syntax":             `instrument = `,
		"unknown key":        "instrument = \"a.yaml\"\ncolour = \"red\"\n",
		"no instrument":      `name = "x"`,
		"bad duration":       "instrument = \"a.yaml\"\n[path]\nmove_timeout = \"soon\"\n",
		"bad level":          "instrument = \"a.yaml\"\n[log]\nlevel = \"loud\"\n",
		"bad format":         "instrument = \"a.yaml\"\n[log]\nformat = \"xml\"\n",
		"bad quality":        "instrument = \"a.yaml\"\n[path]\nquality = \"ultra\"\n",
		"bad backend":        "instrument = \"a.yaml\"\n[store]\nbackend = \"etcd\"\n",
		"redis no address":   "instrument = \"a.yaml\"\n[store]\nbackend = \"redis\"\n",
		"lock without redis": "instrument = \"a.yaml\"\n[store]\nlock = true\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
