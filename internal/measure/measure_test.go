package measure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/tally/internal/language"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// writeFile drops content into a temp file and returns its FileEntry.
func writeFile(t *testing.T, dir, name, content string, isText bool) types.FileEntry {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}
	return types.FileEntry{
		Path:   path,
		Size:   int64(len(content)),
		IsText: isText,
		Ext:    ext,
		Name:   name,
	}
}

func newMeasurer(cfg types.Config) *Measurer {
	return New(&cfg, language.NewRegistry(cfg.ExtMap))
}

func TestMeasureGoFile(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "m.go", "package main\n\n// comment\nfunc main() {}\n", true)

	cfg := types.DefaultConfig()
	cfg.Words = true
	stats, err := newMeasurer(cfg).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats.Lines != 4 {
		t.Errorf("lines = %d, want 4", stats.Lines)
	}
	if stats.SLOC != 2 {
		t.Errorf("sloc = %d, want 2", stats.SLOC)
	}
	if stats.Words != 7 {
		t.Errorf("words = %d, want 7", stats.Words)
	}
	if stats.SLOC > stats.Lines {
		t.Errorf("sloc %d exceeds lines %d", stats.SLOC, stats.Lines)
	}
	if stats.Words > stats.Chars {
		t.Errorf("words %d exceed chars %d", stats.Words, stats.Chars)
	}
}

func TestMeasureEmptyFile(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "empty.py", "", true)

	cfg := types.DefaultConfig()
	cfg.Words = true
	stats, err := newMeasurer(cfg).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats.Lines != 0 || stats.Chars != 0 || stats.Words != 0 || stats.SLOC != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
}

func TestMeasureNoTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "t.txt", "one\ntwo", true)

	stats, err := newMeasurer(types.DefaultConfig()).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats.Lines != 2 {
		t.Errorf("lines = %d, want 2 (final partial line counts)", stats.Lines)
	}
	if stats.Chars != 6 {
		t.Errorf("chars = %d, want 6", stats.Chars)
	}
}

func TestMeasureCRLFMatchesLF(t *testing.T) {
	dir := t.TempDir()
	lf := writeFile(t, dir, "lf.txt", "aa\nbb\n", true)
	crlf := writeFile(t, dir, "crlf.txt", "aa\r\nbb\r\n", true)

	m := newMeasurer(types.DefaultConfig())
	lfStats, err := m.Measure(lf)
	if err != nil {
		t.Fatalf("measure lf: %v", err)
	}
	crlfStats, err := m.Measure(crlf)
	if err != nil {
		t.Fatalf("measure crlf: %v", err)
	}
	if lfStats.Lines != crlfStats.Lines {
		t.Errorf("line counts differ: lf %d, crlf %d", lfStats.Lines, crlfStats.Lines)
	}
	if lfStats.Chars != crlfStats.Chars {
		t.Errorf("char counts differ: lf %d, crlf %d", lfStats.Chars, crlfStats.Chars)
	}
}

func TestMeasureNewlineCharsCountsCRLFAsOne(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "n.txt", "a\r\nb\n", true)

	cfg := types.DefaultConfig()
	cfg.NewlineChars = true
	stats, err := newMeasurer(cfg).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	// a, CRLF (one extended cluster), b, LF.
	if stats.Chars != 4 {
		t.Errorf("chars = %d, want 4", stats.Chars)
	}
	if stats.Lines != 2 {
		t.Errorf("lines = %d, want 2", stats.Lines)
	}
}

func TestMeasureGraphemesNotBytes(t *testing.T) {
	dir := t.TempDir()
	// é as e + combining acute: two runes, one grapheme cluster.
	entry := writeFile(t, dir, "g.txt", "éx\n", true)

	stats, err := newMeasurer(types.DefaultConfig()).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats.Chars != 2 {
		t.Errorf("chars = %d, want 2 grapheme clusters", stats.Chars)
	}
}

func TestMeasureBinarySLOCIsRawLineCount(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "blob.bin", "a\x00b\nc\n", false)

	cfg := types.DefaultConfig()
	stats, err := newMeasurer(cfg).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats.SLOC != stats.Lines {
		t.Errorf("binary sloc = %d, want raw line count %d", stats.SLOC, stats.Lines)
	}
}

func TestMeasureBinaryDroppedWhenTextOnly(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "blob.bin", "a\x00b\n", false)

	cfg := types.DefaultConfig()
	cfg.TextOnly = true
	stats, err := newMeasurer(cfg).Measure(entry)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected drop, got %+v", stats)
	}
}

func TestMeasureVanishedFileIsDropped(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "gone.go", "package main\n", true)
	if err := os.Remove(entry.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	stats, err := newMeasurer(types.DefaultConfig()).Measure(entry)
	if err != nil {
		t.Fatalf("expected silent drop, got error %v", err)
	}
	if stats != nil {
		t.Fatalf("expected drop, got %+v", stats)
	}
}

func TestDetectText(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(textPath, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	binPath := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(binPath, []byte("he\x00llo"), 0o644); err != nil {
		t.Fatal(err)
	}
	// NUL past the sniff window: fast mode misses it, strict finds it.
	latePath := filepath.Join(dir, "late.bin")
	late := append(make([]byte, 0, sniffLen+2), []byte(strings.Repeat("x", sniffLen))...)
	late = append(late, 0)
	if err := os.WriteFile(latePath, late, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		path string
		fast bool
		want bool
	}{
		{textPath, true, true},
		{textPath, false, true},
		{binPath, true, false},
		{binPath, false, false},
		{latePath, true, true},
		{latePath, false, false},
	} {
		got, err := DetectText(tt.path, tt.fast)
		if err != nil {
			t.Fatalf("DetectText(%s, fast=%v): %v", tt.path, tt.fast, err)
		}
		if got != tt.want {
			t.Errorf("DetectText(%s, fast=%v) = %v, want %v", tt.path, tt.fast, got, tt.want)
		}
	}
}
