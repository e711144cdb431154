package sharedb

import (
	"errors"
	"testing"
)

func TestMultiSetMultiGet(t *testing.T) {
	s := tempStore(t)

	if _, err := s.MultiSet(PairsOf("a", "1", "b", "2", "c", "3")); err != nil {
		t.Fatal(err)
	}
	var got []any
	for v, err := range s.MultiGet(KeysOf("a", "missing", "c"), "default") {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	want := []any{"1", "default", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMultiSetFromMap(t *testing.T) {
	s := tempStore(t)
	if _, err := s.MultiSet(Pairs(map[string]string{"x": "1", "y": "2"})); err != nil {
		t.Fatal(err)
	}
	if n := mustLen(t, s); n != 2 {
		t.Errorf("Len: got %d", n)
	}
}

func TestMultiSetAtomic(t *testing.T) {
	s := tempStore(t)

	_, err := s.MultiSet(PairsOf("x", "1", "y", make(chan int), "z", "3"))
	var aborted *BatchAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected BatchAbortedError, got %v", err)
	}
	if aborted.Index != 1 || aborted.Key != "y" || aborted.Op != "multiset" {
		t.Errorf("unexpected abort details: %+v", aborted)
	}
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Errorf("abort should wrap the EncodeError: %v", err)
	}

	for _, k := range []string{"x", "y", "z"} {
		if ok, _ := s.HasKey(k); ok {
			t.Errorf("%s must not be stored after an aborted batch", k)
		}
	}
	if st := s.Stats(); st.Aborts != 1 || st.Mutations != 0 {
		t.Errorf("stats after abort: %+v", st)
	}
}

func TestMultiPopAbortsOnAbsentKey(t *testing.T) {
	s := tempStore(t)
	if _, err := s.MultiSet(PairsOf("a", 1, "b", 2)); err != nil {
		t.Fatal(err)
	}

	_, err := s.MultiPop(KeysOf("a", "b", "c"))
	var aborted *BatchAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected BatchAbortedError, got %v", err)
	}
	if aborted.Key != "c" || aborted.Index != 2 {
		t.Errorf("abort should name c at index 2: %+v", aborted)
	}
	if !errors.Is(err, ErrKeyNotFound) {
		t.Error("abort should wrap ErrKeyNotFound")
	}

	// The transaction rolled back: a and b are still there.
	if n := mustLen(t, s); n != 2 {
		t.Fatalf("Len: got %d, want 2", n)
	}
	if v, _ := s.Get("a", nil); v != uint64(1) {
		t.Errorf("a: got %#v", v)
	}
}

func TestMultiPop(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < 100; i++ {
		mustSet(t, s, i, i)
	}

	keys := make([]any, 0, 25)
	for i := 49; i < 74; i++ {
		keys = append(keys, i)
	}
	vals, err := s.MultiPop(KeysOf(keys...))
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 25 || vals[0] != uint64(49) || vals[24] != uint64(73) {
		t.Errorf("unexpected popped values: %v", vals)
	}
	if n := mustLen(t, s); n != 75 {
		t.Errorf("Len: got %d, want 75", n)
	}
}

func TestMultiRemoveSkipsAbsent(t *testing.T) {
	s := tempStore(t)
	if _, err := s.MultiSet(PairsOf("a", "1", "b", "2", "c", "3")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.MultiRemove(KeysOf("a", "nope", "c")); err != nil {
		t.Fatalf("MultiRemove: %v", err)
	}
	if n := mustLen(t, s); n != 1 {
		t.Errorf("Len: got %d, want 1", n)
	}
	if _, err := s.MultiRemove(KeysOf("a", "c")); err != nil {
		t.Errorf("repeating MultiRemove: %v", err)
	}
	if n := mustLen(t, s); n != 1 {
		t.Errorf("repeat must not change contents, Len = %d", n)
	}
}

func TestMultiRemoveRejectsBadKey(t *testing.T) {
	s := tempStore(t)
	mustSet(t, s, "a", "1")

	_, err := s.MultiRemove(KeysOf("a", nil))
	var aborted *BatchAbortedError
	if !errors.As(err, &aborted) || aborted.Index != 1 {
		t.Fatalf("expected abort at index 1, got %v", err)
	}
	if ok, _ := s.HasKey("a"); !ok {
		t.Error("a must survive an aborted MultiRemove")
	}
}

func TestHasMultiKey(t *testing.T) {
	s := tempStore(t)
	mustSet(t, s, "a", "1")

	var got []bool
	for ok, err := range s.HasMultiKey(KeysOf("a", "b", "a")) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ok)
	}
	if len(got) != 3 || !got[0] || got[1] || !got[2] {
		t.Errorf("got %v", got)
	}
}

func TestMultiGetStopsEarly(t *testing.T) {
	s := tempStore(t)
	if _, err := s.MultiSet(PairsOf("a", "1", "b", "2")); err != nil {
		t.Fatal(err)
	}

	seen := 0
	for range s.MultiGet(KeysOf("a", "b"), nil) {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("seen %d", seen)
	}
	// The read transaction ended with the loop.
	mustSet(t, s, "c", "3")
}

func TestMultiGetBadKey(t *testing.T) {
	s := tempStore(t)
	var errs int
	for _, err := range s.MultiGet(KeysOf("a", nil, "b"), "d") {
		if err != nil {
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Errorf("expected EncodeError, got %v", err)
			}
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("expected one error, got %d", errs)
	}
}
