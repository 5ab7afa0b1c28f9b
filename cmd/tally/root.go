package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/engine"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// flags mirrors the CLI surface; buildConfig folds it into a Config.
var flags struct {
	configFile string

	filesFrom     string
	filesFromNull string
	useVCSList    bool

	hidden         bool
	followSymlinks bool
	noDefaultPrune bool
	maxDepth       int
	include        []string
	exclude        []string
	includePath    []string
	excludePath    []string
	excludeDir     []string
	ext            []string
	minSize        int64
	maxSize        int64
	mtimeSince     string
	mtimeUntil     string
	fastDetect     bool
	textOnly       bool

	words        bool
	sloc         bool
	newlineChars bool
	extMap       map[string]string

	minLines   int64
	maxLines   int64
	minChars   int64
	maxChars   int64
	minWords   int64
	maxWords   int64
	filterExpr string
	sortSpec   string
	topN       int
	bySpec     string
	byLimit    int
	summary    bool
	totalOnly  bool
	ratio      bool
	totalRow   bool

	jobs int

	format       string
	output       string
	absPath      bool
	absCanonical bool
	trimRoot     string

	watch         bool
	watchInterval time.Duration
	watchOutput   string

	strict bool

	incremental bool
	cacheDir    string
	cacheVerify bool
	clearCache  bool
}

var rootCmd = &cobra.Command{
	Use:   "tally [flags] [root...]",
	Short: "Tally measures text files under filesystem roots",
	Long: `Tally walks a set of filesystem roots, measures each text file
(lines, characters, words, source lines of code), and emits ranked
tables and grouped summaries in several formats.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return err
		}
		return runEngine(cfg)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default: .tally.yaml, then the user config dir)")

	f := rootCmd.Flags()
	f.StringVar(&flags.filesFrom, "files-from", "", "read candidate paths from a newline-separated list file")
	f.StringVar(&flags.filesFromNull, "files-from0", "", "read candidate paths from a NUL-separated list file")
	f.BoolVar(&flags.useVCSList, "vcs", false, "take the candidate list from git ls-files")

	f.BoolVar(&flags.hidden, "hidden", false, "include hidden files and directories")
	f.BoolVarP(&flags.followSymlinks, "follow-symlinks", "L", false, "follow symbolic links")
	f.BoolVar(&flags.noDefaultPrune, "no-default-prune", false, "disable the built-in directory prune list")
	f.IntVar(&flags.maxDepth, "max-depth", 0, "maximum directory depth (0 = unlimited)")
	f.StringArrayVar(&flags.include, "include", nil, "filename glob to include (repeatable)")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "filename glob to exclude (repeatable)")
	f.StringArrayVar(&flags.includePath, "include-path", nil, "relative-path glob to include (repeatable)")
	f.StringArrayVar(&flags.excludePath, "exclude-path", nil, "relative-path glob to exclude (repeatable)")
	f.StringArrayVar(&flags.excludeDir, "exclude-dir", nil, "directory-name glob to prune (repeatable)")
	f.StringSliceVar(&flags.ext, "ext", nil, "extension filter set (comma-separated)")
	f.Int64Var(&flags.minSize, "min-size", -1, "minimum file size in bytes")
	f.Int64Var(&flags.maxSize, "max-size", -1, "maximum file size in bytes")
	f.StringVar(&flags.mtimeSince, "mtime-since", "", "only files modified at or after this time (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&flags.mtimeUntil, "mtime-until", "", "only files modified at or before this time")
	f.BoolVar(&flags.fastDetect, "fast-detect", false, "classify text/binary from a leading sample only")
	f.BoolVar(&flags.textOnly, "text-only", false, "drop binary files instead of measuring them")

	f.BoolVarP(&flags.words, "words", "w", false, "count words")
	f.BoolVar(&flags.sloc, "sloc", true, "count source lines of code")
	f.BoolVar(&flags.newlineChars, "newline-chars", false, "count line terminators in the character total")
	f.StringToStringVar(&flags.extMap, "ext-map", nil, "extension remap, e.g. --ext-map inc=php")

	f.Int64Var(&flags.minLines, "min-lines", -1, "drop files with fewer lines")
	f.Int64Var(&flags.maxLines, "max-lines", -1, "drop files with more lines")
	f.Int64Var(&flags.minChars, "min-chars", -1, "drop files with fewer characters")
	f.Int64Var(&flags.maxChars, "max-chars", -1, "drop files with more characters")
	f.Int64Var(&flags.minWords, "min-words", -1, "drop files with fewer words")
	f.Int64Var(&flags.maxWords, "max-words", -1, "drop files with more words")
	f.StringVar(&flags.filterExpr, "filter", "", `post-filter expression, e.g. 'lines > 100 && ext == "go"'`)
	f.StringVarP(&flags.sortSpec, "sort", "s", "", "sort keys, e.g. lines:desc,name")
	f.IntVar(&flags.topN, "top", 0, "keep only the first N files after sorting")
	f.StringVar(&flags.bySpec, "by", "", "grouping axes: ext, dir[:depth], mtime[:day|week|month]")
	f.IntVar(&flags.byLimit, "by-limit", 0, "cap rows per grouping axis")
	f.BoolVar(&flags.summary, "summary-only", false, "print totals without per-file rows")
	f.BoolVar(&flags.totalOnly, "total-only", false, "print a single totals line")
	f.BoolVar(&flags.ratio, "ratio", false, "add a share-of-total column")
	f.BoolVar(&flags.totalRow, "total", false, "append a totals row")

	f.IntVarP(&flags.jobs, "jobs", "j", 0, "worker count (default: CPU count)")

	f.StringVarP(&flags.format, "format", "f", "", "output format: table, csv, tsv, json, yaml, md, jsonl")
	f.StringVarP(&flags.output, "output", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&flags.absPath, "abs", false, "print absolute paths")
	f.BoolVar(&flags.absCanonical, "canonical", false, "print absolute paths with symlinks resolved")
	f.StringVar(&flags.trimRoot, "trim-root", "", "strip this prefix from printed paths")

	f.BoolVar(&flags.watch, "watch", false, "re-run on filesystem changes")
	f.DurationVar(&flags.watchInterval, "watch-interval", 2*time.Second, "debounce interval between change and re-run")
	f.StringVar(&flags.watchOutput, "watch-output", types.WatchFull, "watch output mode: full or jsonl")

	f.BoolVar(&flags.strict, "strict", false, "abort on the first per-file error")

	f.BoolVar(&flags.incremental, "incremental", false, "reuse cached measurements for unchanged files")
	f.StringVar(&flags.cacheDir, "cache-dir", "", "cache directory (default: the user cache dir)")
	f.BoolVar(&flags.cacheVerify, "cache-verify", false, "re-measure even on cache hits and refresh the rows")
	f.BoolVar(&flags.clearCache, "clear-cache", false, "drop all cached measurements and exit")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildConfig folds defaults, the config file, and flags into one Config.
// Flag values win over file values; file values win over defaults.
func buildConfig(cmd *cobra.Command, args []string) (*types.Config, error) {
	cfg := types.DefaultConfig()

	v, err := loadConfigFile(flags.configFile)
	if err != nil {
		return nil, err
	}
	applyConfigFile(v, &cfg)

	changed := cmd.Flags().Changed

	cfg.Roots = args
	if len(cfg.Roots) == 0 && flags.filesFrom == "" && flags.filesFromNull == "" &&
		!flags.useVCSList && !flags.clearCache {
		cfg.Roots = []string{"."}
	}
	cfg.FilesFrom = flags.filesFrom
	cfg.FilesFromNull = flags.filesFromNull
	cfg.UseVCSList = flags.useVCSList

	if changed("hidden") {
		cfg.Hidden = flags.hidden
	}
	if changed("follow-symlinks") {
		cfg.FollowSymlinks = flags.followSymlinks
	}
	if changed("no-default-prune") {
		cfg.NoDefaultPrune = flags.noDefaultPrune
	}
	if changed("max-depth") {
		cfg.MaxDepth = flags.maxDepth
	}
	cfg.Include = append(cfg.Include, flags.include...)
	cfg.Exclude = append(cfg.Exclude, flags.exclude...)
	cfg.IncludePath = append(cfg.IncludePath, flags.includePath...)
	cfg.ExcludePath = append(cfg.ExcludePath, flags.excludePath...)
	cfg.ExcludeDir = append(cfg.ExcludeDir, flags.excludeDir...)
	if changed("ext") {
		cfg.Ext = flags.ext
	}
	if changed("min-size") {
		cfg.MinSize = flags.minSize
	}
	if changed("max-size") {
		cfg.MaxSize = flags.maxSize
	}
	if flags.mtimeSince != "" {
		t, err := parseTimeFlag(flags.mtimeSince)
		if err != nil {
			return nil, err
		}
		cfg.MtimeSince = t
	}
	if flags.mtimeUntil != "" {
		t, err := parseTimeFlag(flags.mtimeUntil)
		if err != nil {
			return nil, err
		}
		cfg.MtimeUntil = t
	}
	if changed("fast-detect") {
		cfg.FastTextDetect = flags.fastDetect
	}
	if changed("text-only") {
		cfg.TextOnly = flags.textOnly
	}

	if changed("words") {
		cfg.Words = flags.words
	}
	if changed("sloc") {
		cfg.SLOC = flags.sloc
	}
	if changed("newline-chars") {
		cfg.NewlineChars = flags.newlineChars
	}
	if len(flags.extMap) > 0 {
		cfg.ExtMap = flags.extMap
	}

	if changed("min-lines") {
		cfg.MinLines = flags.minLines
	}
	if changed("max-lines") {
		cfg.MaxLines = flags.maxLines
	}
	if changed("min-chars") {
		cfg.MinChars = flags.minChars
	}
	if changed("max-chars") {
		cfg.MaxChars = flags.maxChars
	}
	if changed("min-words") {
		cfg.MinWords = flags.minWords
	}
	if changed("max-words") {
		cfg.MaxWords = flags.maxWords
	}
	if changed("filter") {
		cfg.FilterExpr = flags.filterExpr
	}
	if changed("sort") {
		specs, err := types.ParseSortSpec(flags.sortSpec)
		if err != nil {
			return nil, err
		}
		cfg.Sort = specs
	}
	if changed("top") {
		cfg.TopN = flags.topN
	}
	if changed("by") {
		specs, err := types.ParseGroupSpec(flags.bySpec)
		if err != nil {
			return nil, err
		}
		cfg.By = specs
	}
	if changed("by-limit") {
		cfg.ByLimit = flags.byLimit
	}
	if changed("summary-only") {
		cfg.SummaryOnly = flags.summary
	}
	if changed("total-only") {
		cfg.TotalOnly = flags.totalOnly
	}
	if changed("ratio") {
		cfg.Ratio = flags.ratio
	}
	if changed("total") {
		cfg.TotalRow = flags.totalRow
	}

	if changed("jobs") {
		cfg.Jobs = flags.jobs
	}

	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("output") {
		cfg.Output = flags.output
	}
	if changed("abs") {
		cfg.AbsPath = flags.absPath
	}
	if changed("canonical") {
		cfg.AbsCanonical = flags.absCanonical
	}
	if changed("trim-root") {
		cfg.TrimRoot = flags.trimRoot
	}

	if changed("watch") {
		cfg.Watch = flags.watch
	}
	if changed("watch-interval") {
		cfg.WatchInterval = flags.watchInterval
	}
	if changed("watch-output") {
		cfg.WatchOutput = flags.watchOutput
	}

	if changed("strict") {
		cfg.Strict = flags.strict
	}

	if changed("incremental") {
		cfg.Incremental = flags.incremental
	}
	if changed("cache-dir") {
		cfg.CacheDir = flags.cacheDir
	}
	if changed("cache-verify") {
		cfg.CacheVerify = flags.cacheVerify
	}
	if changed("clear-cache") {
		cfg.ClearCache = flags.clearCache
	}

	return &cfg, nil
}

// runEngine executes the pipeline under an interrupt-aware context, so
// the watch loop shuts down cleanly on SIGINT/SIGTERM.
func runEngine(cfg *types.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := engine.New(cfg, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.Run(ctx)
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC3339 or YYYY-MM-DD)", s)
}
