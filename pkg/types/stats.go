// Entity types flowing through the pipeline: discovery output, measurement
// output, and derived aggregates.
// Implements: prd001-measurement-core R3 (data model).
package types

import "time"

// FileEntry describes one discovered candidate file. Produced by the
// discovery engine, consumed by the measurer, and dropped afterwards.
type FileEntry struct {
	Path   string    // absolute path
	Size   int64     // size in bytes
	Mtime  time.Time // zero when unavailable
	IsText bool      // text/binary classification result
	Ext    string    // lowercased final extension without the dot
	Name   string    // base filename
}

// FileStats holds the measurements for one file. Words and SLOC are
// optional; -1 means the counter was not requested for the run.
type FileStats struct {
	Path  string    `json:"file"`
	Lines int64     `json:"lines"`
	Chars int64     `json:"chars"`
	Words int64     `json:"words,omitempty"`
	SLOC  int64     `json:"sloc,omitempty"`
	Size  int64     `json:"size"`
	Mtime time.Time `json:"mtime,omitempty"`
	Ext   string    `json:"ext"`
	Name  string    `json:"-"`
}

// HasWords reports whether word counting ran for this file.
func (s *FileStats) HasWords() bool { return s.Words >= 0 }

// HasSLOC reports whether SLOC counting ran for this file.
func (s *FileStats) HasSLOC() bool { return s.SLOC >= 0 }

// Summary is an immutable componentwise total over a FileStats slice.
// Absent optional counters contribute zero.
type Summary struct {
	Files int64 `json:"files"`
	Lines int64 `json:"lines"`
	Chars int64 `json:"chars"`
	Words int64 `json:"words,omitempty"`
	SLOC  int64 `json:"sloc,omitempty"`
}

// Summarize computes the Summary over stats.
func Summarize(stats []FileStats) Summary {
	var sum Summary
	for i := range stats {
		s := &stats[i]
		sum.Files++
		sum.Lines += s.Lines
		sum.Chars += s.Chars
		if s.HasWords() {
			sum.Words += s.Words
		}
		if s.HasSLOC() {
			sum.SLOC += s.SLOC
		}
	}
	return sum
}

// GroupRow is one bucket of a grouping axis.
type GroupRow struct {
	Key   string `json:"key"`
	Lines int64  `json:"lines"`
	Chars int64  `json:"chars"`
	Count int64  `json:"count"`
}

// GroupTable pairs a grouping axis label with its sorted rows.
type GroupTable struct {
	Label string     `json:"label"`
	Rows  []GroupRow `json:"rows"`
}
