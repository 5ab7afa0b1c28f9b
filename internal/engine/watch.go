package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/tally/internal/discover"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// runRecord is one line of the JSONL watch stream.
type runRecord struct {
	Type         string         `json:"type"`
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Timestamp    string         `json:"timestamp"`
	DurationMs   int64          `json:"duration_ms"`
	Summary      *types.Summary `json:"summary,omitempty"`
	Error        string         `json:"error,omitempty"`
	ChangedFiles []string       `json:"changed_files"`
	RemovedFiles []string       `json:"removed_files"`
}

// watch runs until ctx is cancelled: an initial run, then re-runs
// debounced behind filesystem events. When the native watcher cannot be
// constructed the loop degrades to polling at the same interval.
func (e *Engine) watch(ctx context.Context) error {
	prev := e.watchRun(ctx, nil)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(e.stderr, "tally: watcher unavailable, polling: %v\n", err)
		return e.pollLoop(ctx, prev)
	}
	defer watcher.Close()
	if err := e.addWatches(watcher); err != nil {
		fmt.Fprintf(e.stderr, "tally: watch setup failed, polling: %v\n", err)
		watcher.Close()
		return e.pollLoop(ctx, prev)
	}

	interval := e.cfg.WatchInterval
	debounce := time.NewTimer(interval)
	if !debounce.Stop() {
		<-debounce.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounce.C:
			armed = false
			prev = e.watchRun(ctx, prev)

		case ev, ok := <-watcher.Events:
			if !ok {
				fmt.Fprintln(e.stderr, "tally: watcher closed, polling")
				return e.pollLoop(ctx, prev)
			}
			if !relevant(ev) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watcher.Add(ev.Name)
				}
			}
			// A second event inside the interval resets the timer.
			if armed && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(interval)
			armed = true

		case werr, ok := <-watcher.Errors:
			if !ok {
				fmt.Fprintln(e.stderr, "tally: watcher closed, polling")
				return e.pollLoop(ctx, prev)
			}
			fmt.Fprintf(e.stderr, "tally: watch error: %v\n", werr)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}

// addWatches registers every non-pruned directory below the roots.
func (e *Engine) addWatches(watcher *fsnotify.Watcher) error {
	filters, err := discover.Compile(&e.cfg)
	if err != nil {
		return err
	}
	for _, root := range e.cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && filters.PruneDir(d.Name()) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pollLoop(ctx context.Context, prev *runResult) error {
	ticker := time.NewTicker(e.cfg.WatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			prev = e.watchRun(ctx, prev)
		}
	}
}

// watchRun executes one run, emits its stream record in jsonl mode, and
// returns the state the next run diffs against. A failed run keeps the
// previous state.
func (e *Engine) watchRun(ctx context.Context, prev *runResult) *runResult {
	start := time.Now()
	result, err := e.runOnce(ctx)
	record := runRecord{
		Type:         "run",
		ID:           uuid.NewString(),
		Status:       "ok",
		Timestamp:    start.Format(time.RFC3339),
		DurationMs:   time.Since(start).Milliseconds(),
		ChangedFiles: []string{},
		RemovedFiles: []string{},
	}
	if err != nil {
		record.Status = "error"
		record.Error = err.Error()
		fmt.Fprintf(e.stderr, "tally: run failed: %v\n", err)
	} else {
		record.Summary = &result.summary
		if prev != nil {
			record.ChangedFiles, record.RemovedFiles = diffRuns(prev, result)
		}
	}

	if e.cfg.WatchOutput == types.WatchJSONL {
		if encErr := json.NewEncoder(e.stdout).Encode(&record); encErr != nil {
			fmt.Fprintf(e.stderr, "tally: stream write: %v\n", encErr)
		}
	}
	if err != nil {
		return prev
	}
	return result
}

func diffRuns(prev, cur *runResult) (changed, removed []string) {
	changed = []string{}
	removed = []string{}
	for path, lines := range cur.files {
		if old, ok := prev.files[path]; !ok || old != lines {
			changed = append(changed, path)
		}
	}
	for path := range prev.files {
		if _, ok := cur.files[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}
