// Run configuration for the tally pipeline.
// Implements: prd001-measurement-core R1 (Config), prd004-cli-surface R2.
package types

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatMd    = "md"
	FormatJSONL = "jsonl"
)

// Watch output modes.
const (
	WatchFull  = "full"
	WatchJSONL = "jsonl"
)

// Worker pool bounds (prd001 R5.1).
const (
	MinJobs = 1
	MaxJobs = 512
)

// knownFormats lists the formats Validate accepts.
var knownFormats = map[string]bool{
	FormatTable: true,
	FormatCSV:   true,
	FormatTSV:   true,
	FormatJSON:  true,
	FormatYAML:  true,
	FormatMd:    true,
	FormatJSONL: true,
}

// Sort keys.
const (
	SortLines = "lines"
	SortChars = "chars"
	SortWords = "words"
	SortSLOC  = "sloc"
	SortSize  = "size"
	SortName  = "name"
	SortExt   = "ext"
)

// knownSortKeys lists the keys ParseSortSpec accepts.
var knownSortKeys = map[string]bool{
	SortLines: true,
	SortChars: true,
	SortWords: true,
	SortSLOC:  true,
	SortSize:  true,
	SortName:  true,
	SortExt:   true,
}

// SortSpec is one key of a multi-key sort.
type SortSpec struct {
	Key  string
	Desc bool
}

// ParseSortSpec parses a comma-separated "key[:asc|:desc]" list, e.g.
// "lines:desc,name". Returns ErrUnknownSortKey for unrecognized keys.
func ParseSortSpec(s string) ([]SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var specs []SortSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, order, hasOrder := strings.Cut(part, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if !knownSortKeys[key] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
		}
		spec := SortSpec{Key: key}
		if hasOrder {
			switch strings.ToLower(strings.TrimSpace(order)) {
			case "asc":
			case "desc":
				spec.Desc = true
			default:
				return nil, fmt.Errorf("%w: %q (order must be asc or desc)", ErrUnknownSortKey, part)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Grouping axes.
const (
	GroupExt   = "ext"
	GroupDir   = "dir"
	GroupMtime = "mtime"
)

// Mtime bucket granularities.
const (
	MtimeDay   = "day"
	MtimeWeek  = "week"
	MtimeMonth = "month"
)

// GroupSpec is one grouping axis. Depth applies to the dir axis,
// Granularity to the mtime axis.
type GroupSpec struct {
	Axis        string
	Depth       int
	Granularity string
}

// ParseGroupSpec parses a comma-separated axis list: "ext", "dir" or
// "dir:N", "mtime" or "mtime:day|week|month".
func ParseGroupSpec(s string) ([]GroupSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var specs []GroupSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		axis, arg, hasArg := strings.Cut(part, ":")
		axis = strings.ToLower(strings.TrimSpace(axis))
		arg = strings.ToLower(strings.TrimSpace(arg))
		switch axis {
		case GroupExt:
			if hasArg {
				return nil, fmt.Errorf("%w: ext takes no argument", ErrUnknownGroupAxis)
			}
			specs = append(specs, GroupSpec{Axis: GroupExt})
		case GroupDir:
			depth := 1
			if hasArg {
				if _, err := fmt.Sscanf(arg, "%d", &depth); err != nil || depth < 1 {
					return nil, fmt.Errorf("%w: bad dir depth %q", ErrUnknownGroupAxis, arg)
				}
			}
			specs = append(specs, GroupSpec{Axis: GroupDir, Depth: depth})
		case GroupMtime:
			gran := MtimeDay
			if hasArg {
				switch arg {
				case MtimeDay, MtimeWeek, MtimeMonth:
					gran = arg
				default:
					return nil, fmt.Errorf("%w: bad mtime granularity %q", ErrUnknownGroupAxis, arg)
				}
			}
			specs = append(specs, GroupSpec{Axis: GroupMtime, Granularity: gran})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownGroupAxis, axis)
		}
	}
	return specs, nil
}

// Config holds every option the pipeline consumes. Built once from
// CLI/config-file input, validated, then shared read-only across workers.
type Config struct {
	// Inputs.
	Roots         []string
	FilesFrom     string
	FilesFromNull string
	UseVCSList    bool

	// Discovery.
	Hidden         bool
	FollowSymlinks bool
	NoDefaultPrune bool
	MaxDepth       int // 0 = unlimited
	Include        []string
	Exclude        []string
	IncludePath    []string
	ExcludePath    []string
	ExcludeDir     []string
	Ext            []string
	MinSize        int64 // -1 = unset
	MaxSize        int64 // -1 = unset
	MtimeSince     time.Time
	MtimeUntil     time.Time
	FastTextDetect bool
	TextOnly       bool

	// Measurement.
	Words        bool
	SLOC         bool
	NewlineChars bool // count newline bytes in chars
	ExtMap       map[string]string

	// Analytics.
	MinLines    int64 // -1 = unset, likewise below
	MaxLines    int64
	MinChars    int64
	MaxChars    int64
	MinWords    int64
	MaxWords    int64
	FilterExpr  string
	Sort        []SortSpec
	TopN        int // 0 = all
	By          []GroupSpec
	ByLimit     int // 0 = no cap
	SummaryOnly bool
	TotalOnly   bool
	Ratio       bool
	TotalRow    bool

	// Concurrency.
	Jobs int

	// Output.
	Format       string
	Output       string
	AbsPath      bool
	AbsCanonical bool
	TrimRoot     string

	// Error policy.
	Strict bool

	// Watch.
	Watch         bool
	WatchInterval time.Duration
	WatchOutput   string

	// Compare.
	CompareOld string
	CompareNew string

	// Incremental cache.
	Incremental bool
	CacheDir    string
	CacheVerify bool
	ClearCache  bool
}

// DefaultConfig returns a Config with the run defaults applied.
func DefaultConfig() Config {
	return Config{
		MinSize:       -1,
		MaxSize:       -1,
		MinLines:      -1,
		MaxLines:      -1,
		MinChars:      -1,
		MaxChars:      -1,
		MinWords:      -1,
		MaxWords:      -1,
		SLOC:          true,
		Jobs:          runtime.NumCPU(),
		Format:        FormatTable,
		WatchInterval: 2 * time.Second,
		WatchOutput:   WatchFull,
	}
}

// Compare reports whether this run is a snapshot comparison.
func (c *Config) Compare() bool {
	return c.CompareOld != "" || c.CompareNew != ""
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package, possibly wrapped with detail.
func (c *Config) Validate() error {
	if c.Jobs < MinJobs || c.Jobs > MaxJobs {
		return fmt.Errorf("%w: got %d", ErrJobsOutOfRange, c.Jobs)
	}
	if !knownFormats[c.Format] {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	if c.Watch && c.Compare() {
		return ErrWatchWithCompare
	}
	if c.Watch && c.WatchInterval < time.Second {
		return fmt.Errorf("%w: got %s", ErrWatchIntervalShort, c.WatchInterval)
	}
	if c.WatchOutput != WatchFull && c.WatchOutput != WatchJSONL {
		return fmt.Errorf("%w: watch output %q", ErrUnknownFormat, c.WatchOutput)
	}
	if c.MinSize >= 0 && c.MaxSize >= 0 && c.MinSize > c.MaxSize {
		return ErrSizeRangeInverted
	}
	if !c.Compare() && !c.ClearCache &&
		len(c.Roots) == 0 && c.FilesFrom == "" && c.FilesFromNull == "" && !c.UseVCSList {
		return ErrNoRoots
	}
	return nil
}

// NormalizedExts returns the extension filter set lowercased and with
// leading dots stripped. Nil when no extension filter is configured.
func (c *Config) NormalizedExts() map[string]bool {
	if len(c.Ext) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.Ext))
	for _, e := range c.Ext {
		e = strings.ToLower(strings.TrimSpace(e))
		e = strings.TrimPrefix(e, ".")
		if e != "" {
			set[e] = true
		}
	}
	return set
}
