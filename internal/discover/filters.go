// Pre-filters applied at discovery time. Globs use doublestar syntax;
// name patterns match the base filename, path patterns the
// root-relative slash path. The filter order is fixed: include-name,
// exclude-name, include-path, exclude-path, exclude-dir, extension set,
// size range, mtime range.
// Implements: prd001-measurement-core R5.3 (filters).
package discover

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// defaultPrune is the directory-name prune set applied unless the
// operator disables default pruning. Matching is by name, anywhere in
// the tree.
var defaultPrune = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"target":       true,
	"build":        true,
	"dist":         true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".cache":       true,
	".idea":        true,
	".next":        true,
	".tox":         true,
	".mypy_cache":  true,
}

// Filters holds the compiled pre-filter set. Immutable after Compile;
// shared read-only across the walk.
type Filters struct {
	include     []string
	exclude     []string
	includePath []string
	excludePath []string
	excludeDir  []string
	exts        map[string]bool
	minSize     int64
	maxSize     int64
	since       time.Time
	until       time.Time
	hidden      bool
	prune       map[string]bool
}

// Compile validates the configured globs and builds the filter set.
// Invalid patterns surface as ErrBadGlob before discovery begins.
func Compile(cfg *types.Config) (*Filters, error) {
	f := &Filters{
		include:     cfg.Include,
		exclude:     cfg.Exclude,
		includePath: cfg.IncludePath,
		excludePath: cfg.ExcludePath,
		excludeDir:  cfg.ExcludeDir,
		exts:        cfg.NormalizedExts(),
		minSize:     cfg.MinSize,
		maxSize:     cfg.MaxSize,
		since:       cfg.MtimeSince,
		until:       cfg.MtimeUntil,
		hidden:      cfg.Hidden,
	}
	if !cfg.NoDefaultPrune {
		f.prune = defaultPrune
	}

	for _, group := range [][]string{
		cfg.Include, cfg.Exclude, cfg.IncludePath, cfg.ExcludePath, cfg.ExcludeDir,
	} {
		for _, pattern := range group {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("%w: %q", types.ErrBadGlob, pattern)
			}
		}
	}
	return f, nil
}

// PruneDir reports whether a directory should be skipped entirely:
// hidden (unless enabled), in the default prune set, or matching an
// exclude-dir glob.
func (f *Filters) PruneDir(name string) bool {
	if !f.hidden && hiddenName(name) {
		return true
	}
	if f.prune[name] {
		return true
	}
	for _, pattern := range f.excludeDir {
		if match(pattern, name) {
			return true
		}
	}
	return false
}

// Admit applies the full filter chain to one candidate file. relPath is
// the root-relative path with forward slashes.
func (f *Filters) Admit(name, relPath, ext string, size int64, mtime time.Time) bool {
	if !f.hidden && hiddenName(name) {
		return false
	}
	if len(f.include) > 0 && !matchAny(f.include, name) {
		return false
	}
	if matchAny(f.exclude, name) {
		return false
	}
	if len(f.includePath) > 0 && !matchAny(f.includePath, relPath) {
		return false
	}
	if matchAny(f.excludePath, relPath) {
		return false
	}
	if f.exts != nil && !f.exts[ext] {
		return false
	}
	if f.minSize >= 0 && size < f.minSize {
		return false
	}
	if f.maxSize >= 0 && size > f.maxSize {
		return false
	}
	if !f.since.IsZero() && mtime.Before(f.since) {
		return false
	}
	if !f.until.IsZero() && mtime.After(f.until) {
		return false
	}
	return true
}

func matchAny(patterns []string, s string) bool {
	for _, pattern := range patterns {
		if match(pattern, s) {
			return true
		}
	}
	return false
}

// match wraps doublestar.Match; patterns were validated at Compile so a
// match error cannot occur.
func match(pattern, s string) bool {
	ok, err := doublestar.Match(pattern, s)
	return err == nil && ok
}

func hiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// SplitExt returns the lowercased final extension without the dot, or
// "" when the name has no dot suffix. A dotfile with a single dot has
// no extension.
func SplitExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
