// Package engine orchestrates one run: discovery, the measurement worker
// pool, analytics, and presentation. It also owns the compare and
// clear-cache short circuits and the watch loop.
// Implements: prd001-measurement-core R11, prd003-snapshot-compare R3.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mesh-intelligence/tally/internal/analyze"
	"github.com/mesh-intelligence/tally/internal/cache"
	"github.com/mesh-intelligence/tally/internal/discover"
	"github.com/mesh-intelligence/tally/internal/language"
	"github.com/mesh-intelligence/tally/internal/measure"
	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/internal/render"
	"github.com/mesh-intelligence/tally/internal/snapshot"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Engine runs the measurement pipeline for one validated configuration.
type Engine struct {
	cfg      types.Config // private copy; Words may be force-enabled
	analyzer *analyze.Analyzer
	registry *language.Registry
	renderer *render.Renderer
	store    *cache.Cache

	// streamOnly suppresses per-run table output when the watch loop
	// emits the JSONL stream instead.
	streamOnly bool

	stdout io.Writer
	stderr io.Writer
}

// runResult carries what the watch loop needs from one completed run.
type runResult struct {
	summary types.Summary
	files   map[string]int64 // display path -> lines
}

// New validates cfg and builds the pipeline. The config is copied;
// word counting is enabled when the analytics stage will read it even if
// the flag is off.
func New(cfg *types.Config, stdout, stderr io.Writer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	analyzer, err := analyze.New(cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      *cfg,
		analyzer: analyzer,
		registry: language.NewRegistry(cfg.ExtMap),
		stdout:   stdout,
		stderr:   stderr,
	}
	if analyzer.NeedsWords() {
		e.cfg.Words = true
	}
	e.streamOnly = e.cfg.Watch && e.cfg.WatchOutput == types.WatchJSONL
	e.renderer = render.New(&e.cfg)

	if e.cfg.Incremental || e.cfg.ClearCache {
		dir, err := paths.ResolveCacheDir(e.cfg.CacheDir, "")
		if err != nil {
			return nil, err
		}
		store, err := cache.Open(dir)
		if err != nil {
			return nil, err
		}
		e.store = store
	}
	return e, nil
}

// Close releases the cache handle when one is open.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Run executes the configured operation: snapshot comparison, cache
// clearing, the watch loop, or a single measurement run.
func (e *Engine) Run(ctx context.Context) error {
	switch {
	case e.cfg.Compare():
		return e.compare()
	case e.cfg.ClearCache:
		return e.store.Clear()
	case e.cfg.Watch:
		return e.watch(ctx)
	default:
		_, err := e.runOnce(ctx)
		return err
	}
}

func (e *Engine) compare() error {
	oldSnap, err := snapshot.Read(e.cfg.CompareOld)
	if err != nil {
		return err
	}
	newSnap, err := snapshot.Read(e.cfg.CompareNew)
	if err != nil {
		return err
	}
	return snapshot.Diff(oldSnap, newSnap).Render(e.stdout)
}

// runOnce is the sequential orchestration path: discover, measure,
// analyze, render.
func (e *Engine) runOnce(ctx context.Context) (*runResult, error) {
	disc, err := discover.New(&e.cfg)
	if err != nil {
		return nil, err
	}
	entries, warns, err := disc.Collect()
	if err != nil {
		return nil, err
	}
	e.printWarnings(warns)

	stats, mwarns, err := e.measureAll(ctx, entries)
	if err != nil {
		return nil, err
	}
	e.printWarnings(mwarns)

	stats = e.analyzer.Apply(stats)
	for i := range stats {
		stats[i].Path = paths.Display(stats[i].Path, e.cfg.AbsPath, e.cfg.AbsCanonical, e.cfg.TrimRoot)
	}
	tables := e.analyzer.Group(stats)

	if !e.streamOnly {
		sink := e.stdout
		if e.cfg.Output != "" {
			f, err := os.Create(e.cfg.Output)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			sink = f
		}
		if err := e.renderer.Render(sink, stats, tables); err != nil {
			return nil, err
		}
	}

	result := &runResult{summary: types.Summarize(stats), files: make(map[string]int64, len(stats))}
	for i := range stats {
		result.files[stats[i].Path] = stats[i].Lines
	}
	return result, nil
}

func (e *Engine) printWarnings(warns []error) {
	for _, w := range warns {
		fmt.Fprintf(e.stderr, "tally: warning: %v\n", w)
	}
}

// measureAll fans entries out to a fixed-size worker pool. Results land
// in a per-index slot, so discovery order survives the unordered
// collection phase. In strict mode the first per-file error cancels the
// pool and aborts.
func (e *Engine) measureAll(ctx context.Context, entries []types.FileEntry) ([]types.FileStats, []error, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	measurer := measure.New(&e.cfg, e.registry)
	results := make([]*types.FileStats, len(entries))

	var mu sync.Mutex
	var warns []error
	var firstErr error

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.Jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				stats, err := e.measureOne(measurer, &entries[i])
				if err != nil {
					mu.Lock()
					if e.cfg.Strict {
						if firstErr == nil {
							firstErr = err
							cancel()
						}
					} else {
						warns = append(warns, err)
					}
					mu.Unlock()
					continue
				}
				if stats != nil {
					results[i] = stats
				}
			}
		}()
	}

dispatch:
	for i := range entries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := make([]types.FileStats, 0, len(entries))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, warns, nil
}

// measureOne consults the cache before measuring. A hit is usable only
// when it carries every counter this run needs.
func (e *Engine) measureOne(m *measure.Measurer, entry *types.FileEntry) (*types.FileStats, error) {
	if e.store != nil && e.cfg.Incremental && !e.cfg.CacheVerify {
		if hit, ok := e.store.Lookup(entry); ok && e.cacheUsable(hit) {
			return hit, nil
		}
	}
	stats, err := m.Measure(*entry)
	if err != nil || stats == nil {
		return stats, err
	}
	if e.store != nil && e.cfg.Incremental {
		if err := e.store.Store(stats); err != nil {
			return stats, fmt.Errorf("cache store %s: %w", stats.Path, err)
		}
	}
	return stats, nil
}

func (e *Engine) cacheUsable(hit *types.FileStats) bool {
	if e.cfg.Words && !hit.HasWords() {
		return false
	}
	if e.cfg.SLOC && !hit.HasSLOC() {
		return false
	}
	return true
}
