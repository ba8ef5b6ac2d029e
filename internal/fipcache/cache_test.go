package fipcache

import (
	"path/filepath"
	"testing"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.bdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestObjectPathJoinsDirAndExtension(t *testing.T) {
	got := ObjectPath("/var/cache", "ab1cd2ef")
	want := filepath.Join("/var/cache", "ab1cd2ef.o")
	if got != want {
		t.Fatalf("ObjectPath = %q, want %q", got, want)
	}
}

func TestRecordAndLookupRoundTrip(t *testing.T) {
	idx := openTestIndex(t)

	if err := idx.Record("ab1cd2ef", "fip-c"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	e, found, err := idx.Lookup("ab1cd2ef")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("Lookup: expected entry to be found")
	}
	if e.Hash != "ab1cd2ef" || e.Module != "fip-c" {
		t.Fatalf("Lookup entry = %+v", e)
	}
	if e.CompiledAt.IsZero() {
		t.Fatal("Lookup entry: CompiledAt should be set")
	}
}

func TestLookupMissingEntry(t *testing.T) {
	idx := openTestIndex(t)

	_, found, err := idx.Lookup("zzzzzzzz")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatal("Lookup: expected entry to be absent")
	}
}

func TestListReturnsAllRecordedEntries(t *testing.T) {
	idx := openTestIndex(t)

	hashes := []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}
	for _, h := range hashes {
		if err := idx.Record(h, "fip-c"); err != nil {
			t.Fatalf("Record(%q): %v", h, err)
		}
	}

	entries, err := idx.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != len(hashes) {
		t.Fatalf("List returned %d entries, want %d", len(entries), len(hashes))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Hash] = true
	}
	for _, h := range hashes {
		if !seen[h] {
			t.Fatalf("List missing entry for hash %q", h)
		}
	}
}

func TestRecordOverwritesExistingEntry(t *testing.T) {
	idx := openTestIndex(t)

	if err := idx.Record("ab1cd2ef", "fip-c"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Record("ab1cd2ef", "fip-rust"); err != nil {
		t.Fatal(err)
	}

	e, found, err := idx.Lookup("ab1cd2ef")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected entry to be found")
	}
	if e.Module != "fip-rust" {
		t.Fatalf("Module = %q, want %q", e.Module, "fip-rust")
	}
}
