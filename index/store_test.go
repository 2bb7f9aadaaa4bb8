// store_test.go -- test suite for the persistent SQL index adapter

package index

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBuildIndexAndLookup(t *testing.T) {
	d := buildDictionary(t, []fixtureWord{{"aa", 0}, {"bb", 4}}, []byte("AAA\x00BBBBB\x00"))
	defer d.Close()

	path := filepath.Join(t.TempDir(), "dict.sqlite")
	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer s.Close()

	ctx := context.Background()
	res, err := BuildIndex(ctx, s, d)
	if err != nil {
		t.Fatalf("BuildIndex: %s", err)
	}
	if res.RowsInserted != 2 {
		t.Fatalf("RowsInserted = %d, want 2", res.RowsInserted)
	}

	def, ok, err := s.Lookup(ctx, "aa")
	if err != nil {
		t.Fatalf("Lookup: %s", err)
	}
	if !ok || def != "AAA" {
		t.Fatalf(`Lookup("aa") = %q, %v; want "AAA", true`, def, ok)
	}

	_, ok, err = s.Lookup(ctx, "zz")
	if err != nil {
		t.Fatalf("Lookup: %s", err)
	}
	if ok {
		t.Fatal(`Lookup("zz") should miss`)
	}
}

func TestOpenOrBuildSkipsExisting(t *testing.T) {
	d := buildDictionary(t, []fixtureWord{{"aa", 0}}, []byte("AAA\x00"))
	defer d.Close()

	path := filepath.Join(t.TempDir(), "dict.sqlite")
	ctx := context.Background()

	s1, err := OpenOrBuild(ctx, path, d, Config{})
	if err != nil {
		t.Fatalf("OpenOrBuild (first): %s", err)
	}
	s1.Close()

	// A second dictionary with a different word: since Reindex defaults to
	// false and the store file already exists, OpenOrBuild must not rebuild
	// from it.
	d2 := buildDictionary(t, []fixtureWord{{"cc", 0}}, []byte("CCC\x00"))
	defer d2.Close()

	s2, err := OpenOrBuild(ctx, path, d2, Config{})
	if err != nil {
		t.Fatalf("OpenOrBuild (second): %s", err)
	}
	defer s2.Close()

	if _, ok, _ := s2.Lookup(ctx, "cc"); ok {
		t.Fatal(`Lookup("cc") should miss: store should not have been rebuilt`)
	}
	if _, ok, _ := s2.Lookup(ctx, "aa"); !ok {
		t.Fatal(`Lookup("aa") should hit: original store content should survive`)
	}
}

func TestOpenOrBuildReindex(t *testing.T) {
	d := buildDictionary(t, []fixtureWord{{"aa", 0}}, []byte("AAA\x00"))
	defer d.Close()

	path := filepath.Join(t.TempDir(), "dict.sqlite")
	ctx := context.Background()

	s1, err := OpenOrBuild(ctx, path, d, Config{})
	if err != nil {
		t.Fatalf("OpenOrBuild (first): %s", err)
	}
	s1.Close()

	d2 := buildDictionary(t, []fixtureWord{{"cc", 0}}, []byte("CCC\x00"))
	defer d2.Close()

	s2, err := OpenOrBuild(ctx, path, d2, Config{Reindex: true})
	if err != nil {
		t.Fatalf("OpenOrBuild (reindex): %s", err)
	}
	defer s2.Close()

	if _, ok, _ := s2.Lookup(ctx, "cc"); !ok {
		t.Fatal(`Lookup("cc") should hit after reindex`)
	}
	if _, ok, _ := s2.Lookup(ctx, "aa"); ok {
		t.Fatal(`Lookup("aa") should miss after reindex dropped the old content`)
	}
}

func TestBuildIndexIdempotent(t *testing.T) {
	d := buildDictionary(t, []fixtureWord{{"aa", 0}, {"bb", 4}}, []byte("AAA\x00BBBBB\x00"))
	defer d.Close()

	path := filepath.Join(t.TempDir(), "dict.sqlite")
	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := BuildIndex(ctx, s, d); err != nil {
		t.Fatalf("BuildIndex (first): %s", err)
	}
	res, err := BuildIndex(ctx, s, d)
	if err != nil {
		t.Fatalf("BuildIndex (second): %s", err)
	}
	if res.RowsInserted != 2 {
		t.Fatalf("RowsInserted on rebuild = %d, want 2 (upsert, not duplicate)", res.RowsInserted)
	}

	def, ok, err := s.Lookup(ctx, "bb")
	if err != nil || !ok || def != "BBBBB" {
		t.Fatalf(`Lookup("bb") after rebuild = %q, %v, %v`, def, ok, err)
	}
}
