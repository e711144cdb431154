package sharedb

import (
	"errors"
	"path/filepath"
	"testing"
)

// exerciseEngine runs a short end-to-end session on one engine kind.
func exerciseEngine(t *testing.T, kind EngineKind) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db")

	s, err := Open(path, WithEngine(kind), WithBufferSize(2), WithMapSize(64<<20))
	if err != nil {
		t.Fatalf("Open(%s): %v", kind, err)
	}
	fill(t, s, "a", "1", "b", "2", "c", "3")
	if _, err := s.MultiPop(KeysOf("a", "missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("MultiPop: expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.Remove("b"); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Close(); !ok || err != nil {
		t.Fatalf("Close: %v, %v", ok, err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	var keys []any
	for k, err := range s.Keys() {
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, k)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("keys after reopen: %v", keys)
	}
	if _, err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if n := mustLen(t, s); n != 0 {
		t.Errorf("Len after Clear: %d", n)
	}
}

func TestEngineBolt(t *testing.T) {
	exerciseEngine(t, EngineBolt)
}

func TestEnginePebble(t *testing.T) {
	exerciseEngine(t, EnginePebble)
}
