// Package discover enumerates candidate files from roots, explicit file
// lists, or a version-control listing, applying the pre-filter chain.
// The walk is deterministic: entries come back lexicographic per
// directory, then recursive, so downstream stable sorts reproduce
// across runs.
// Implements: prd001-measurement-core R5 (discovery engine).
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/tally/internal/measure"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Engine produces the candidate file list for one run.
type Engine struct {
	cfg     *types.Config
	filters *Filters

	entries []types.FileEntry
	warns   []error
}

// New compiles the filters and builds a discovery engine.
func New(cfg *types.Config) (*Engine, error) {
	filters, err := Compile(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, filters: filters}, nil
}

// Collect returns the ordered candidate list plus any non-fatal
// warnings (unreadable directories, vanished stat targets).
func (e *Engine) Collect() ([]types.FileEntry, []error, error) {
	e.entries = nil
	e.warns = nil

	switch {
	case e.cfg.FilesFrom != "":
		if err := e.fromList(e.cfg.FilesFrom, '\n'); err != nil {
			return nil, nil, err
		}
	case e.cfg.FilesFromNull != "":
		if err := e.fromList(e.cfg.FilesFromNull, 0); err != nil {
			return nil, nil, err
		}
	case e.cfg.UseVCSList:
		if err := e.fromVCS(); err != nil {
			return nil, nil, err
		}
	default:
		for _, root := range e.cfg.Roots {
			if err := e.walkRoot(root); err != nil {
				return nil, nil, err
			}
		}
	}
	return e.entries, e.warns, nil
}

// walkRoot walks one root. A root that is itself a file bypasses the
// directory filters other than the per-file chain.
func (e *Engine) walkRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		e.candidate(abs, filepath.Base(abs), info)
		return nil
	}
	e.walkDir(abs, abs, 1)
	return nil
}

// walkDir recurses below dir. depth is the level of dir's immediate
// entries relative to the root (1 = directly under the root).
func (e *Engine) walkDir(root, dir string, depth int) {
	if e.cfg.MaxDepth > 0 && depth > e.cfg.MaxDepth {
		return
	}
	listing, err := os.ReadDir(dir)
	if err != nil {
		e.warns = append(e.warns, fmt.Errorf("read dir %s: %w", dir, err))
		return
	}
	// os.ReadDir sorts by filename; that ordering is the determinism
	// contract for the whole pipeline. A directory's own files come
	// out before anything below its subdirectories.
	var subdirs []string
	for _, item := range listing {
		path := filepath.Join(dir, item.Name())

		if item.Type()&fs.ModeSymlink != 0 {
			if !e.cfg.FollowSymlinks {
				continue
			}
			target, err := os.Stat(path)
			if err != nil {
				e.warns = append(e.warns, fmt.Errorf("stat symlink %s: %w", path, err))
				continue
			}
			if target.IsDir() {
				if e.filters.PruneDir(item.Name()) {
					continue
				}
				subdirs = append(subdirs, path)
				continue
			}
			e.candidateRel(root, path, item.Name(), target)
			continue
		}

		if item.IsDir() {
			if e.filters.PruneDir(item.Name()) {
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}

		info, err := item.Info()
		if err != nil {
			e.warns = append(e.warns, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		e.candidateRel(root, path, item.Name(), info)
	}

	for _, sub := range subdirs {
		e.walkDir(root, sub, depth+1)
	}
}

func (e *Engine) candidateRel(root, path, name string, info fs.FileInfo) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	e.admit(path, name, filepath.ToSlash(rel), info)
}

func (e *Engine) candidate(path, name string, info fs.FileInfo) {
	e.admit(path, name, filepath.ToSlash(name), info)
}

// admit runs the filter chain and the text classifier, then records the
// entry.
func (e *Engine) admit(path, name, relPath string, info fs.FileInfo) {
	ext := SplitExt(name)
	if !e.filters.Admit(name, relPath, ext, info.Size(), info.ModTime()) {
		return
	}

	isText, err := measure.DetectText(path, e.cfg.FastTextDetect)
	if err != nil {
		e.warns = append(e.warns, fmt.Errorf("classify %s: %w", path, err))
		return
	}
	if e.cfg.TextOnly && !isText {
		return
	}

	e.entries = append(e.entries, types.FileEntry{
		Path:   path,
		Size:   info.Size(),
		Mtime:  info.ModTime(),
		IsText: isText,
		Ext:    ext,
		Name:   name,
	})
}
