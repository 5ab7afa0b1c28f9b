// Standard errors for the tally pipeline.
// Implements: prd001-measurement-core R7 (error taxonomy).
package types

import (
	"errors"
	"fmt"
)

// Configuration errors, surfaced before discovery begins (prd001 R7.1).
var (
	ErrNoRoots            = errors.New("no roots or file lists given")
	ErrJobsOutOfRange     = errors.New("jobs must be between 1 and 512")
	ErrUnknownSortKey     = errors.New("unknown sort key")
	ErrUnknownGroupAxis   = errors.New("unknown group axis")
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrBadGlob            = errors.New("invalid glob pattern")
	ErrBadFilterExpr      = errors.New("invalid filter expression")
	ErrWatchWithCompare   = errors.New("watch and compare are mutually exclusive")
	ErrWatchIntervalShort = errors.New("watch interval must be at least 1s")
	ErrSizeRangeInverted  = errors.New("min size exceeds max size")
)

// Input errors (prd001 R7.2).
var (
	ErrListUnreadable = errors.New("file list cannot be opened")
	ErrListEmpty      = errors.New("file list contains no valid entries")
	ErrVCSListFailed  = errors.New("version-control file listing failed")
)

// Snapshot errors (prd003-snapshot-compare R2).
var (
	ErrSnapshotUnreadable = errors.New("snapshot cannot be read")
	ErrSnapshotMalformed  = errors.New("snapshot is not a valid tally report")
)

// MeasureError tags a per-file I/O failure with the offending path.
// In non-strict mode these are collected and reported as warnings beside
// partial results; in strict mode the first one aborts the run.
type MeasureError struct {
	Path string
	Err  error
}

func (e *MeasureError) Error() string {
	return fmt.Sprintf("measure %s: %v", e.Path, e.Err)
}

func (e *MeasureError) Unwrap() error {
	return e.Err
}
