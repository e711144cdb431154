package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Store.Serial != "cbor" {
		t.Errorf("Serial: got %q, want cbor", cfg.Store.Serial)
	}
	if cfg.Store.Readers != 100 {
		t.Errorf("Readers: got %d, want 100", cfg.Store.Readers)
	}
	if cfg.Store.BufferSize != 100000 {
		t.Errorf("BufferSize: got %d, want 100000", cfg.Store.BufferSize)
	}
	if cfg.Store.MapSize != 1<<30 {
		t.Errorf("MapSize: got %d, want 1 GiB", cfg.Store.MapSize)
	}
	if cfg.Store.Engine != "bolt" {
		t.Errorf("Engine: got %q, want bolt", cfg.Store.Engine)
	}
	if cfg.Store.Compress {
		t.Error("Compress should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StoreConfig)
		wantErr string
	}{
		{"unknown serial", func(s *StoreConfig) { s.Serial = "pickle" }, "store.serial"},
		{"unknown engine", func(s *StoreConfig) { s.Engine = "leveldb" }, "store.engine"},
		{"zero readers", func(s *StoreConfig) { s.Readers = 0 }, "store.readers"},
		{"negative buffer", func(s *StoreConfig) { s.BufferSize = -5 }, "store.buffer_size"},
		{"tiny map", func(s *StoreConfig) { s.MapSize = 1000 }, "store.map_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg.Store)

			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantErr {
				t.Errorf("Field: got %q, want %q", verr.Field, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %q: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateIncludesValue(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Readers = -5
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "-5") {
		t.Errorf("error should include the invalid value: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := Defaults()
	cfg.Store.Serial = "gob"
	cfg.Store.Compress = true
	cfg.Store.Engine = "pebble"
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.Store.ID == "" || cfg.Store.Created.IsZero() {
		t.Fatal("Save should stamp id and creation time")
	}

	got, found, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("record should be found")
	}
	want := cfg.Store
	if !got.Store.Created.Equal(want.Created) {
		t.Errorf("Created: got %v, want %v", got.Store.Created, want.Created)
	}
	got.Store.Created = want.Created
	if got.Store != want {
		t.Errorf("round trip:\n got %+v\nwant %+v", got.Store, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestSaveKeepsIdentity(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	if err := Save(dir, cfg); err != nil {
		t.Fatal(err)
	}
	id, created := cfg.Store.ID, cfg.Store.Created

	cfg.Store.MapSize *= 2
	if err := Save(dir, cfg); err != nil {
		t.Fatal(err)
	}
	got, _, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Store.ID != id || !got.Store.Created.Equal(created) {
		t.Error("resaving must not change id or creation time")
	}
	if got.Store.MapSize != 2<<30 {
		t.Errorf("MapSize: got %d", got.Store.MapSize)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, found, err := Load(t.TempDir())
	if err != nil || found || cfg != nil {
		t.Fatalf("missing record: got %v, %v, %v", cfg, found, err)
	}
}

func TestLoadBadTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{{invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	_, found, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
	if !found {
		t.Error("a present but broken record still counts as found")
	}
}

func TestLoadInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	record := `
[store]
serial = "cbor"
engine = "bolt"
readers = 0
buffer_size = 10
map_size = 1073741824
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(record), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := Load(dir)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "store.readers" {
		t.Fatalf("expected readers ValidationError, got %v", err)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"db", "db.sharedb"},
		{"db/", "db.sharedb"},
		{"db.sharedb", "db.sharedb"},
		{"db.sharedb/", "db.sharedb"},
		{"/tmp/x/db", "/tmp/x/db.sharedb"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store.sharedb")
	if err := Prepare(dir, false); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("perm: got %o, want 0700", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestPrepareReset(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "old")
	if err := os.WriteFile(marker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Prepare(dir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatal("Prepare without reset must keep contents")
	}

	if err := Prepare(dir, true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("reset should remove previous contents")
	}
}

func TestPrepareUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0700) })

	if err := Prepare(dir, false); err == nil {
		t.Fatal("expected probe failure on read-only directory")
	}
}
