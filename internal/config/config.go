// Package config loads the settings of the optpath daemon and CLI from a TOML file.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var backends = []string{BackendMemory, BackendFile, BackendRedis, BackendSQLite}

// Duration is a time.Duration written as a string ("180s", "1m30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	// Instrument is the path of the instrument description (YAML or JSON).
	Instrument string `toml:"instrument"`
	// Name is the key of the persisted state (default: the microscope family).
	Name string `toml:"name"`
	// ModeFiles are merged onto the built-in mode table, in order.
	ModeFiles []string    `toml:"mode_files"`
	Log       LogConfig   `toml:"log"`
	Path      PathConfig  `toml:"path"`
	Fan       FanConfig   `toml:"fan"`
	Store     StoreConfig `toml:"store"`
	HTTP      HTTPConfig  `toml:"http"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type PathConfig struct {
	MoveTimeout Duration `toml:"move_timeout"`
	Quality     string   `toml:"quality"`
}

type FanConfig struct {
	Timeout Duration `toml:"timeout"`
	Poll    Duration `toml:"poll"`
	Epsilon float64  `toml:"epsilon"`
	Ambient float64  `toml:"ambient"`
	Speed   float64  `toml:"speed"`
}

type StoreConfig struct {
	Backend       string   `toml:"backend"`
	Path          string   `toml:"path"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
	// Lock shares the instrument lock through redis.
	Lock bool `toml:"lock"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the settings used for keys absent from the file.
func Default() Config {
	return Config{
		Log:  LogConfig{Level: "info", Format: "text"},
		Path: PathConfig{MoveTimeout: Duration{180 * time.Second}, Quality: string(domain.QualityFast)},
		Fan: FanConfig{
			Timeout: Duration{60 * time.Second},
			Poll:    Duration{time.Second},
			Epsilon: 3,
			Ambient: 25,
			Speed:   1,
		},
		Store: StoreConfig{Backend: BackendFile, Path: ".optpath/state"},
		HTTP:  HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path on top of the defaults and validates the result.
// Relative file names in the settings are resolved against the directory of path.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}

	dir := filepath.Dir(path)
	cfg.Instrument = resolve(dir, cfg.Instrument)
	for i, f := range cfg.ModeFiles {
		cfg.ModeFiles[i] = resolve(dir, f)
	}
	if cfg.Store.Backend == BackendFile || cfg.Store.Backend == BackendSQLite {
		cfg.Store.Path = resolve(dir, cfg.Store.Path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Instrument) == "" {
		return fmt.Errorf("config missing instrument")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch domain.Quality(c.Path.Quality) {
	case domain.QualityFast, domain.QualityBest:
	default:
		return fmt.Errorf("path.quality must be %s or %s, got %q", domain.QualityFast, domain.QualityBest, c.Path.Quality)
	}
	if c.Path.MoveTimeout.Duration <= 0 {
		return fmt.Errorf("path.move_timeout must be positive")
	}
	if c.Fan.Timeout.Duration < 0 || c.Fan.Poll.Duration < 0 || c.Fan.Epsilon < 0 || c.Fan.Speed < 0 {
		return fmt.Errorf("fan settings must not be negative")
	}
	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("store.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Store.Backend)
	}
	if c.Store.Backend == BackendRedis && strings.TrimSpace(c.Store.RedisAddr) == "" {
		return fmt.Errorf("store.redis_addr is required by the redis backend")
	}
	if c.Store.Backend == BackendSQLite && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required by the sqlite backend")
	}
	if c.Store.Lock && c.Store.Backend != BackendRedis {
		return fmt.Errorf("store.lock requires the redis backend")
	}
	return nil
}
