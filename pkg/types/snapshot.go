// JSON snapshot schema: what the JSON presenter writes and the comparator
// reads. The schema is stable; optional fields are omitted, and the
// comparator tolerates either snapshot missing them.
// Implements: prd003-snapshot-compare R1 (schema).
package types

// SnapshotVersion is written into every emitted snapshot.
const SnapshotVersion = "1"

// SnapshotFile is one measured file in a snapshot.
type SnapshotFile struct {
	File  string `json:"file"`
	Lines int64  `json:"lines"`
	Chars int64  `json:"chars"`
	Words int64  `json:"words,omitempty"`
	SLOC  int64  `json:"sloc,omitempty"`
	Size  int64  `json:"size"`
	Mtime string `json:"mtime,omitempty"` // RFC3339
	Ext   string `json:"ext"`
}

// Snapshot is the full JSON report.
type Snapshot struct {
	Version string         `json:"version"`
	Files   []SnapshotFile `json:"files"`
	Summary Summary        `json:"summary"`
	By      []GroupTable   `json:"by,omitempty"`
}
