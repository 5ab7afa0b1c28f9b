// Analytics layer: numeric and expression post-filters, stable multi-key
// sorting, and top-N truncation over measured results.
// Implements: prd001-measurement-core R9, R10.
package analyze

import (
	"sort"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Analyzer applies the configured post-filters and ordering to a result set.
// Immutable after construction and safe to share across runs in watch mode.
type Analyzer struct {
	cfg  *types.Config
	expr *Expr
}

// New builds an Analyzer, parsing the filter expression when one is set.
func New(cfg *types.Config) (*Analyzer, error) {
	a := &Analyzer{cfg: cfg}
	if cfg.FilterExpr != "" {
		expr, err := ParseExpr(cfg.FilterExpr)
		if err != nil {
			return nil, err
		}
		a.expr = expr
	}
	return a, nil
}

// NeedsWords reports whether the analytics stage will read word counts:
// a word range, a word sort key, or a filter expression that mentions the
// words variable. Lets the engine enable counting without the explicit flag.
func (a *Analyzer) NeedsWords() bool {
	if a.cfg.MinWords >= 0 || a.cfg.MaxWords >= 0 {
		return true
	}
	for _, s := range a.cfg.Sort {
		if s.Key == types.SortWords {
			return true
		}
	}
	return a.expr != nil && a.expr.References("words")
}

// Apply filters, sorts, and truncates stats in place, returning the
// resulting slice. Filtering preserves discovery order; the sort is stable,
// so ties on every key keep that order.
func (a *Analyzer) Apply(stats []types.FileStats) []types.FileStats {
	stats = a.filter(stats)
	a.sortStats(stats)
	if a.cfg.TopN > 0 && len(stats) > a.cfg.TopN {
		stats = stats[:a.cfg.TopN]
	}
	return stats
}

func (a *Analyzer) filter(stats []types.FileStats) []types.FileStats {
	out := stats[:0]
	for i := range stats {
		if a.keep(&stats[i]) {
			out = append(out, stats[i])
		}
	}
	return out
}

func (a *Analyzer) keep(s *types.FileStats) bool {
	cfg := a.cfg
	if !inRange(s.Lines, cfg.MinLines, cfg.MaxLines) {
		return false
	}
	if !inRange(s.Chars, cfg.MinChars, cfg.MaxChars) {
		return false
	}
	if cfg.MinWords >= 0 || cfg.MaxWords >= 0 {
		w := int64(0)
		if s.HasWords() {
			w = s.Words
		}
		if !inRange(w, cfg.MinWords, cfg.MaxWords) {
			return false
		}
	}
	if a.expr != nil && !a.expr.Match(s) {
		return false
	}
	return true
}

func inRange(v, min, max int64) bool {
	if min >= 0 && v < min {
		return false
	}
	if max >= 0 && v > max {
		return false
	}
	return true
}

// sortStats applies the sort specs in reverse order, one stable pass per
// key, which yields the lexicographic multi-key order.
func (a *Analyzer) sortStats(stats []types.FileStats) {
	for i := len(a.cfg.Sort) - 1; i >= 0; i-- {
		spec := a.cfg.Sort[i]
		sort.SliceStable(stats, func(x, y int) bool {
			return less(&stats[x], &stats[y], spec)
		})
	}
}

func less(x, y *types.FileStats, spec types.SortSpec) bool {
	if spec.Desc {
		x, y = y, x
	}
	switch spec.Key {
	case types.SortName:
		return x.Name < y.Name
	case types.SortExt:
		return x.Ext < y.Ext
	}
	return sortKeyNum(x, spec.Key) < sortKeyNum(y, spec.Key)
}

// sortKeyNum reads the numeric sort key; absent optional counters sort as
// zero rather than as their -1 sentinel.
func sortKeyNum(s *types.FileStats, key string) int64 {
	switch key {
	case types.SortLines:
		return s.Lines
	case types.SortChars:
		return s.Chars
	case types.SortWords:
		if !s.HasWords() {
			return 0
		}
		return s.Words
	case types.SortSLOC:
		if !s.HasSLOC() {
			return 0
		}
		return s.SLOC
	default: // size
		return s.Size
	}
}
