package analyze

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/tally/pkg/types"
)

const (
	noExtKey   = "(noext)"
	noMtimeKey = "(no mtime)"
)

// Group aggregates stats along each configured axis. Rows within an axis
// are sorted by lines descending, key descending on ties, and capped at
// ByLimit when set.
func (a *Analyzer) Group(stats []types.FileStats) []types.GroupTable {
	tables := make([]types.GroupTable, 0, len(a.cfg.By))
	for _, spec := range a.cfg.By {
		tables = append(tables, a.groupBy(stats, spec))
	}
	return tables
}

func (a *Analyzer) groupBy(stats []types.FileStats, spec types.GroupSpec) types.GroupTable {
	buckets := make(map[string]*types.GroupRow)
	order := make([]string, 0)
	for i := range stats {
		key := bucketKey(&stats[i], spec)
		row, ok := buckets[key]
		if !ok {
			row = &types.GroupRow{Key: key}
			buckets[key] = row
			order = append(order, key)
		}
		row.Lines += stats[i].Lines
		row.Chars += stats[i].Chars
		row.Count++
	}

	rows := make([]types.GroupRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *buckets[key])
	}
	sort.SliceStable(rows, func(x, y int) bool {
		if rows[x].Lines != rows[y].Lines {
			return rows[x].Lines > rows[y].Lines
		}
		return rows[x].Key > rows[y].Key
	})
	if a.cfg.ByLimit > 0 && len(rows) > a.cfg.ByLimit {
		rows = rows[:a.cfg.ByLimit]
	}
	return types.GroupTable{Label: axisLabel(spec), Rows: rows}
}

func axisLabel(spec types.GroupSpec) string {
	switch spec.Axis {
	case types.GroupDir:
		return fmt.Sprintf("dir(%d)", spec.Depth)
	case types.GroupMtime:
		return "mtime(" + spec.Granularity + ")"
	default:
		return "ext"
	}
}

func bucketKey(s *types.FileStats, spec types.GroupSpec) string {
	switch spec.Axis {
	case types.GroupDir:
		return dirKey(s.Path, spec.Depth)
	case types.GroupMtime:
		return mtimeKey(s, spec.Granularity)
	default:
		if s.Ext == "" {
			return noExtKey
		}
		return s.Ext
	}
}

// dirKey takes the first depth components of the file's parent directory.
// Files directly under a root land in ".".
func dirKey(p string, depth int) string {
	dir := path.Dir(filepath.ToSlash(p))
	if dir == "." || dir == "/" || dir == "" {
		return "."
	}
	dir = strings.TrimPrefix(dir, "/")
	parts := strings.Split(dir, "/")
	if depth > 0 && len(parts) > depth {
		parts = parts[:depth]
	}
	return strings.Join(parts, "/")
}

func mtimeKey(s *types.FileStats, granularity string) string {
	if s.Mtime.IsZero() {
		return noMtimeKey
	}
	switch granularity {
	case types.MtimeWeek:
		year, week := s.Mtime.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case types.MtimeMonth:
		return s.Mtime.Format("2006-01")
	default:
		return s.Mtime.Format("2006-01-02")
	}
}
