package cache

import (
	"testing"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestStoreAndLookup(t *testing.T) {
	c := openCache(t)
	mtime := time.Now().Truncate(time.Microsecond)

	stats := types.FileStats{
		Path: "/src/a.go", Name: "a.go", Ext: "go",
		Lines: 10, Chars: 100, Words: 25, SLOC: 8,
		Size: 120, Mtime: mtime,
	}
	if err := c.Store(&stats); err != nil {
		t.Fatal(err)
	}

	entry := types.FileEntry{Path: "/src/a.go", Name: "a.go", Ext: "go", Size: 120, Mtime: mtime}
	got, ok := c.Lookup(&entry)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Lines != 10 || got.Words != 25 || got.SLOC != 8 {
		t.Fatalf("hit = %+v", got)
	}
}

func TestStaleRowIsMiss(t *testing.T) {
	c := openCache(t)
	mtime := time.Now()

	stats := types.FileStats{Path: "/src/a.go", Lines: 10, Size: 120, Mtime: mtime, Words: -1, SLOC: -1}
	if err := c.Store(&stats); err != nil {
		t.Fatal(err)
	}

	grown := types.FileEntry{Path: "/src/a.go", Size: 200, Mtime: mtime}
	if _, ok := c.Lookup(&grown); ok {
		t.Fatal("size change should miss")
	}
	touched := types.FileEntry{Path: "/src/a.go", Size: 120, Mtime: mtime.Add(time.Second)}
	if _, ok := c.Lookup(&touched); ok {
		t.Fatal("mtime change should miss")
	}
}

func TestSentinelCountersSurvive(t *testing.T) {
	c := openCache(t)
	mtime := time.Now()

	stats := types.FileStats{Path: "/src/a.go", Lines: 5, Chars: 50, Words: -1, SLOC: 4, Size: 60, Mtime: mtime}
	if err := c.Store(&stats); err != nil {
		t.Fatal(err)
	}

	entry := types.FileEntry{Path: "/src/a.go", Size: 60, Mtime: mtime}
	got, ok := c.Lookup(&entry)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.HasWords() {
		t.Fatal("words were never counted; sentinel should survive the round trip")
	}
	if !got.HasSLOC() || got.SLOC != 4 {
		t.Fatalf("sloc = %d", got.SLOC)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	c := openCache(t)
	mtime := time.Now()

	first := types.FileStats{Path: "/src/a.go", Lines: 5, Size: 60, Mtime: mtime, Words: -1, SLOC: -1}
	if err := c.Store(&first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.Lines = 9
	second.Size = 80
	if err := c.Store(&second); err != nil {
		t.Fatal(err)
	}

	entry := types.FileEntry{Path: "/src/a.go", Size: 80, Mtime: mtime}
	got, ok := c.Lookup(&entry)
	if !ok || got.Lines != 9 {
		t.Fatalf("expected overwritten row, got %+v ok=%v", got, ok)
	}
}

func TestClear(t *testing.T) {
	c := openCache(t)
	mtime := time.Now()

	stats := types.FileStats{Path: "/src/a.go", Lines: 5, Size: 60, Mtime: mtime, Words: -1, SLOC: -1}
	if err := c.Store(&stats); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entry := types.FileEntry{Path: "/src/a.go", Size: 60, Mtime: mtime}
	if _, ok := c.Lookup(&entry); ok {
		t.Fatal("expected empty cache after clear")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
