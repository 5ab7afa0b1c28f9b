// Snapshot I/O: building the stable JSON report from a result set and
// reading one back for comparison.
// Implements: prd003-snapshot-compare R1, R2.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// BuildFile converts one measured result into its snapshot record.
// Counters the run never computed and zero mtimes stay out of the
// serialized form.
func BuildFile(s *types.FileStats) types.SnapshotFile {
	f := types.SnapshotFile{
		File:  s.Path,
		Lines: s.Lines,
		Chars: s.Chars,
		Size:  s.Size,
		Ext:   s.Ext,
	}
	if s.HasWords() {
		f.Words = s.Words
	}
	if s.HasSLOC() {
		f.SLOC = s.SLOC
	}
	if !s.Mtime.IsZero() {
		f.Mtime = s.Mtime.Format(time.RFC3339)
	}
	return f
}

// Build assembles a Snapshot from measured, already-sorted results.
func Build(stats []types.FileStats, tables []types.GroupTable) types.Snapshot {
	files := make([]types.SnapshotFile, 0, len(stats))
	for i := range stats {
		files = append(files, BuildFile(&stats[i]))
	}
	return types.Snapshot{
		Version: types.SnapshotVersion,
		Files:   files,
		Summary: types.Summarize(stats),
		By:      tables,
	}
}

// Write emits snap as indented JSON.
func Write(w io.Writer, snap *types.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Read loads a snapshot from disk. Open failures map to
// ErrSnapshotUnreadable, parse failures to ErrSnapshotMalformed.
func Read(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSnapshotUnreadable, path, err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSnapshotMalformed, path, err)
	}
	if snap.Version == "" || snap.Files == nil {
		return nil, fmt.Errorf("%w: %s: missing version or files", types.ErrSnapshotMalformed, path)
	}
	return &snap, nil
}
