// Package types defines the Config, FileEntry, FileStats, Summary, and
// Snapshot types, the sort/group specifications, and standard error
// values for the tally measurement pipeline.
// Implements: prd001-measurement-core (Config, entities, errors).
package types
