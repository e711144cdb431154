// Package config owns the on-disk layout of a store directory and the
// persisted record that pins its serialization, compression and engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"sharedb/internal/codec"
	"sharedb/internal/engine"
)

const (
	// FileName is the persisted record inside the store directory.
	FileName = "sharedb.toml"
	// Suffix is appended to every store path.
	Suffix = ".sharedb"
	// MinMapSize is the smallest accepted storage ceiling.
	MinMapSize = 1 << 20
)

type Config struct {
	Store StoreConfig `toml:"store"`
}

type StoreConfig struct {
	Serial     string    `toml:"serial"`
	Compress   bool      `toml:"compress"`
	MapSize    int64     `toml:"map_size"`
	Readers    int       `toml:"readers"`
	BufferSize int       `toml:"buffer_size"`
	Engine     string    `toml:"engine"`
	ID         string    `toml:"id"`
	Created    time.Time `toml:"created"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Serial:     string(codec.SerialCBOR),
			Compress:   false,
			MapSize:    1 << 30,
			Readers:    100,
			BufferSize: 100000,
			Engine:     string(engine.KindBolt),
		},
	}
}

// ValidationError names the offending field and value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	s := c.Store
	if _, err := codec.ParseSerial(s.Serial); err != nil {
		return &ValidationError{Field: "store.serial", Value: s.Serial, Reason: "unknown serialization mode"}
	}
	if _, err := engine.ParseKind(s.Engine); err != nil {
		return &ValidationError{Field: "store.engine", Value: s.Engine, Reason: "unknown engine"}
	}
	if s.Readers < 1 {
		return &ValidationError{Field: "store.readers", Value: s.Readers, Reason: "must be at least 1"}
	}
	if s.BufferSize < 1 {
		return &ValidationError{Field: "store.buffer_size", Value: s.BufferSize, Reason: "must be at least 1"}
	}
	if s.MapSize < MinMapSize {
		return &ValidationError{Field: "store.map_size", Value: s.MapSize, Reason: fmt.Sprintf("must be at least %d bytes", MinMapSize)}
	}
	return nil
}

// Load reads the record in dir. A missing record is reported with
// found == false and no error.
func Load(dir string) (cfg *Config, found bool, err error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading config: %w", err)
	}

	cfg = &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, true, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, true, fmt.Errorf("stored config: %w", err)
	}
	return cfg, true, nil
}

// Save writes the record to dir, stamping an id and creation time on
// first save. The file is replaced atomically.
func Save(dir string, cfg *Config) error {
	if cfg.Store.ID == "" {
		cfg.Store.ID = uuid.NewString()
	}
	if cfg.Store.Created.IsZero() {
		cfg.Store.Created = time.Now().UTC().Truncate(time.Second)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, FileName)); err != nil {
		return fmt.Errorf("installing config: %w", err)
	}
	return nil
}

// NormalizePath trims a trailing slash and store suffix, then appends the
// suffix, so "db", "db/" and "db.sharedb" name the same store.
func NormalizePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimSuffix(path, Suffix)
	return path + Suffix
}

// Prepare makes dir ready for a store: removed first when reset is set,
// created if absent and probed for writability.
func Prepare(dir string, reset bool) error {
	if reset {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("resetting %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return probe(dir)
}

func probe(dir string) error {
	path := filepath.Join(dir, "."+uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(path)
}
