package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestBuildAndRoundTrip(t *testing.T) {
	stats := []types.FileStats{
		{Path: "src/lib.rs", Lines: 12, Chars: 120, Words: 30, SLOC: 10, Size: 140, Ext: "rs", Mtime: time.Now()},
		{Path: "README.md", Lines: 3, Chars: 30, Words: -1, SLOC: -1, Size: 33, Ext: "md"},
	}
	snap := Build(stats, nil)
	if snap.Version != types.SnapshotVersion {
		t.Fatalf("version = %q", snap.Version)
	}
	if snap.Summary.Files != 2 || snap.Summary.Lines != 15 || snap.Summary.Words != 30 {
		t.Fatalf("summary = %+v", snap.Summary)
	}
	// -1 sentinels must not leak into the schema.
	if snap.Files[1].Words != 0 || snap.Files[1].SLOC != 0 {
		t.Fatalf("sentinel leaked: %+v", snap.Files[1])
	}

	path := filepath.Join(t.TempDir(), "snap.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(f, &snap); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Files) != 2 || got.Files[0].File != "src/lib.rs" {
		t.Fatalf("round trip lost files: %+v", got.Files)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, types.ErrSnapshotUnreadable) {
		t.Fatalf("expected ErrSnapshotUnreadable, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bad); !errors.Is(err, types.ErrSnapshotMalformed) {
		t.Fatalf("expected ErrSnapshotMalformed, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{"version":""}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(empty); !errors.Is(err, types.ErrSnapshotMalformed) {
		t.Fatalf("expected ErrSnapshotMalformed for empty snapshot, got %v", err)
	}
}

func snapOf(files map[string]int64) *types.Snapshot {
	snap := &types.Snapshot{Version: types.SnapshotVersion, Files: []types.SnapshotFile{}}
	for path, lines := range files {
		snap.Files = append(snap.Files, types.SnapshotFile{File: path, Lines: lines, Chars: lines * 10})
	}
	return snap
}

func TestDiffAddModifyRemove(t *testing.T) {
	oldSnap := snapOf(map[string]int64{"src/lib.rs": 5, "gone.rs": 2})
	newSnap := snapOf(map[string]int64{"src/lib.rs": 7, "README.md": 3})

	r := Diff(oldSnap, newSnap)
	if r.Empty() {
		t.Fatal("expected changes")
	}
	if d := r.NewSummary.Lines - r.OldSummary.Lines; d != 3 {
		t.Fatalf("lines delta = %d, want 3", d)
	}
	if len(r.Added) != 1 || r.Added[0].Path != "README.md" || r.Added[0].Lines != 3 {
		t.Fatalf("added = %+v", r.Added)
	}
	if len(r.Removed) != 1 || r.Removed[0].Path != "gone.rs" || r.Removed[0].Lines != -2 {
		t.Fatalf("removed = %+v", r.Removed)
	}
	if len(r.Modified) != 1 || r.Modified[0].Path != "src/lib.rs" || r.Modified[0].Lines != 2 {
		t.Fatalf("modified = %+v", r.Modified)
	}
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	snap := snapOf(map[string]int64{"a.go": 10, "b.go": 20})
	r := Diff(snap, snap)
	if !r.Empty() {
		t.Fatalf("expected empty report, got %+v", r)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no changes") {
		t.Fatalf("render = %q", buf.String())
	}
}

func TestDiffToleratesMissingOptionalFields(t *testing.T) {
	oldSnap := snapOf(map[string]int64{"a.go": 10})
	newSnap := snapOf(map[string]int64{"a.go": 10})
	newSnap.Files[0].Words = 40 // only the new side counted words

	r := Diff(oldSnap, newSnap)
	if len(r.Modified) != 1 || r.Modified[0].Words != 40 {
		t.Fatalf("modified = %+v", r.Modified)
	}
}

func TestMovers(t *testing.T) {
	oldSnap := snapOf(map[string]int64{"a.go": 10, "b.go": 10, "c.go": 10})
	newSnap := snapOf(map[string]int64{"a.go": 11, "b.go": 100, "c.go": 1})

	movers := Diff(oldSnap, newSnap).Movers(2)
	if len(movers) != 2 || movers[0].Path != "b.go" || movers[1].Path != "c.go" {
		t.Fatalf("movers = %+v", movers)
	}
}

func TestRenderReport(t *testing.T) {
	oldSnap := snapOf(map[string]int64{"src/lib.rs": 5})
	newSnap := snapOf(map[string]int64{"src/lib.rs": 7, "README.md": 3})

	var buf bytes.Buffer
	if err := Diff(oldSnap, newSnap).Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"lines 5 -> 10 (+5)",
		"added    README.md (+3 lines)",
		"modified src/lib.rs (+2 lines)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
