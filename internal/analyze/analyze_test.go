package analyze

import (
	"errors"
	"testing"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func stat(path string, lines int64) types.FileStats {
	return types.FileStats{
		Path:  path,
		Name:  basename(path),
		Lines: lines,
		Chars: lines * 10,
		Words: -1,
		SLOC:  -1,
		Ext:   extOf(path),
	}
}

func basename(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func extOf(p string) string {
	name := basename(p)
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return ""
}

func newAnalyzer(t *testing.T, cfg types.Config) *Analyzer {
	t.Helper()
	a, err := New(&cfg)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	return a
}

func TestStableMultiKeySort(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, err := types.ParseSortSpec("lines:desc,name:asc")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Sort = specs

	stats := []types.FileStats{stat("b.rs", 10), stat("c.rs", 5), stat("a.rs", 10)}
	got := newAnalyzer(t, cfg).Apply(stats)

	want := []string{"a.rs", "b.rs", "c.rs"}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].Name, want[i])
		}
	}
}

func TestSortTiesKeepInputOrder(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseSortSpec("lines:desc")
	cfg.Sort = specs

	stats := []types.FileStats{stat("z.rs", 7), stat("m.rs", 7), stat("a.rs", 7)}
	got := newAnalyzer(t, cfg).Apply(stats)
	want := []string{"z.rs", "m.rs", "a.rs"}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("ties reordered: got %s at %d, want %s", got[i].Name, i, want[i])
		}
	}
}

func TestMissingCountersSortAsZero(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseSortSpec("words:desc")
	cfg.Sort = specs

	a := stat("a.rs", 1)
	a.Words = 50
	b := stat("b.rs", 1) // words = -1, sorts as zero
	got := newAnalyzer(t, cfg).Apply([]types.FileStats{b, a})
	if got[0].Name != "a.rs" {
		t.Fatalf("expected a.rs first, got %s", got[0].Name)
	}
}

func TestRangeFilters(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.MinLines = 5
	cfg.MaxLines = 15

	stats := []types.FileStats{stat("tiny.go", 2), stat("mid.go", 10), stat("big.go", 100)}
	got := newAnalyzer(t, cfg).Apply(stats)
	if len(got) != 1 || got[0].Name != "mid.go" {
		t.Fatalf("expected only mid.go, got %d entries", len(got))
	}
}

func TestTopN(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseSortSpec("lines:desc")
	cfg.Sort = specs
	cfg.TopN = 2

	got := newAnalyzer(t, cfg).Apply([]types.FileStats{stat("a", 1), stat("b", 3), stat("c", 2)})
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("top 2 wrong: %+v", got)
	}
}

func TestGroupByDirDepthOne(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, err := types.ParseGroupSpec("dir:1")
	if err != nil {
		t.Fatal(err)
	}
	cfg.By = specs

	stats := []types.FileStats{
		stat("src/lib.rs", 12),
		stat("src/bin/main.rs", 8),
		stat("tests/unit.rs", 20),
		stat("Cargo.toml", 3),
	}
	tables := newAnalyzer(t, cfg).Group(stats)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	rows := tables[0].Rows
	want := []types.GroupRow{
		{Key: "tests", Lines: 20, Count: 1},
		{Key: "src", Lines: 20, Count: 2},
		{Key: ".", Lines: 3, Count: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i := range want {
		if rows[i].Key != want[i].Key || rows[i].Lines != want[i].Lines || rows[i].Count != want[i].Count {
			t.Fatalf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestGroupByExt(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseGroupSpec("ext")
	cfg.By = specs

	stats := []types.FileStats{stat("a.go", 10), stat("b.go", 5), stat("README", 1)}
	rows := newAnalyzer(t, cfg).Group(stats)[0].Rows
	if rows[0].Key != "go" || rows[0].Lines != 15 || rows[0].Count != 2 {
		t.Fatalf("go bucket wrong: %+v", rows[0])
	}
	if rows[1].Key != "(noext)" || rows[1].Count != 1 {
		t.Fatalf("noext bucket wrong: %+v", rows[1])
	}
}

func TestGroupRowTieOrder(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseGroupSpec("ext")
	cfg.By = specs

	stats := []types.FileStats{stat("a.go", 7), stat("b.rs", 7), stat("c.py", 7)}
	rows := newAnalyzer(t, cfg).Group(stats)[0].Rows
	want := []string{"rs", "py", "go"}
	for i := range want {
		if rows[i].Key != want[i] {
			t.Fatalf("row %d key = %q, want %q (rows %+v)", i, rows[i].Key, want[i], rows)
		}
	}
}

func TestGroupByMtime(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseGroupSpec("mtime:month")
	cfg.By = specs

	jan := stat("a.go", 1)
	jan.Mtime = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := stat("b.go", 2)
	feb.Mtime = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	none := stat("c.go", 3)

	rows := newAnalyzer(t, cfg).Group([]types.FileStats{jan, feb, none})[0].Rows
	keys := map[string]bool{}
	for _, r := range rows {
		keys[r.Key] = true
	}
	for _, want := range []string{"2026-01", "2026-02", "(no mtime)"} {
		if !keys[want] {
			t.Fatalf("missing bucket %q in %+v", want, rows)
		}
	}
}

func TestGroupByLimit(t *testing.T) {
	cfg := types.DefaultConfig()
	specs, _ := types.ParseGroupSpec("ext")
	cfg.By = specs
	cfg.ByLimit = 1

	stats := []types.FileStats{stat("a.go", 10), stat("b.py", 5)}
	rows := newAnalyzer(t, cfg).Group(stats)[0].Rows
	if len(rows) != 1 || rows[0].Key != "go" {
		t.Fatalf("expected only the go bucket, got %+v", rows)
	}
}

func TestFilterExpr(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{`lines > 5 && ext == "go"`, []string{"big.go"}},
		{`lines > 5 || name == "small.py"`, []string{"big.go", "big.py", "small.py"}},
		{`!(ext == "py")`, []string{"big.go", "small.go"}},
		{`lines * 2 >= 20`, []string{"big.go", "big.py"}},
		{`size < 1k`, []string{"big.go", "small.go", "big.py", "small.py"}},
	}

	mk := func(path string, lines int64) types.FileStats {
		s := stat(path, lines)
		s.Size = lines
		return s
	}
	input := []types.FileStats{mk("big.go", 10), mk("small.go", 2), mk("big.py", 10), mk("small.py", 2)}

	for _, tt := range tests {
		cfg := types.DefaultConfig()
		cfg.FilterExpr = tt.expr
		got := newAnalyzer(t, cfg).Apply(append([]types.FileStats(nil), input...))
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %d entries, want %d", tt.expr, len(got), len(tt.want))
			continue
		}
		for i := range tt.want {
			if got[i].Name != tt.want[i] {
				t.Errorf("%q: entry %d = %s, want %s", tt.expr, i, got[i].Name, tt.want[i])
			}
		}
	}
}

func TestFilterExprMtimeDate(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.FilterExpr = `mtime >= "2026-01-01"`
	a := newAnalyzer(t, cfg)

	recent := stat("new.go", 1)
	recent.Mtime = time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	old := stat("old.go", 1)
	old.Mtime = time.Date(2020, 6, 1, 0, 0, 0, 0, time.Local)

	got := a.Apply([]types.FileStats{recent, old})
	if len(got) != 1 || got[0].Name != "new.go" {
		t.Fatalf("expected only new.go, got %+v", got)
	}
}

func TestFilterExprErrors(t *testing.T) {
	bad := []string{
		"lines >",
		`ext > 3`,
		"lines ++ 2",
		"nope == 1",
		`"unterminated`,
		"lines + chars", // not boolean
		"(lines > 1",
	}
	for _, expr := range bad {
		cfg := types.DefaultConfig()
		cfg.FilterExpr = expr
		if _, err := New(&cfg); !errors.Is(err, types.ErrBadFilterExpr) {
			t.Errorf("%q: expected ErrBadFilterExpr, got %v", expr, err)
		}
	}
}

func TestNeedsWords(t *testing.T) {
	cfg := types.DefaultConfig()
	if newAnalyzer(t, cfg).NeedsWords() {
		t.Fatal("default config should not need words")
	}

	cfg.FilterExpr = "words > 10"
	if !newAnalyzer(t, cfg).NeedsWords() {
		t.Fatal("expression referencing words should need words")
	}

	cfg = types.DefaultConfig()
	specs, _ := types.ParseSortSpec("words")
	cfg.Sort = specs
	if !newAnalyzer(t, cfg).NeedsWords() {
		t.Fatal("word sort key should need words")
	}

	cfg = types.DefaultConfig()
	cfg.MinWords = 1
	if !newAnalyzer(t, cfg).NeedsWords() {
		t.Fatal("word range should need words")
	}
}
