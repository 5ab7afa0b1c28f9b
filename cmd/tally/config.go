// Config file loading for the tally CLI. A .tally.yaml in the current
// directory wins; otherwise the user config directory is consulted. A
// missing config file is not an error.
// Implements: prd004-cli-surface R2 (configuration file).
package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/types"
)

const (
	configFileName = ".tally"
	configFileType = "yaml"
)

// loadConfigFile reads the config file with Viper. explicit is the
// --config flag; when empty the search path is the current directory,
// then the resolved config directory.
func loadConfigFile(explicit string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(configFileType)

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
		return v, nil
	}

	v.SetConfigName(configFileName)
	v.AddConfigPath(".")
	if dir, err := paths.ResolveConfigDir(""); err == nil {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// applyConfigFile copies the recognized keys onto cfg. Flags applied
// afterwards override these values.
func applyConfigFile(v *viper.Viper, cfg *types.Config) {
	set := func(key string, apply func()) {
		if v.IsSet(key) {
			apply()
		}
	}

	set("hidden", func() { cfg.Hidden = v.GetBool("hidden") })
	set("follow_symlinks", func() { cfg.FollowSymlinks = v.GetBool("follow_symlinks") })
	set("no_default_prune", func() { cfg.NoDefaultPrune = v.GetBool("no_default_prune") })
	set("max_depth", func() { cfg.MaxDepth = v.GetInt("max_depth") })
	set("include", func() { cfg.Include = v.GetStringSlice("include") })
	set("exclude", func() { cfg.Exclude = v.GetStringSlice("exclude") })
	set("include_path", func() { cfg.IncludePath = v.GetStringSlice("include_path") })
	set("exclude_path", func() { cfg.ExcludePath = v.GetStringSlice("exclude_path") })
	set("exclude_dir", func() { cfg.ExcludeDir = v.GetStringSlice("exclude_dir") })
	set("ext", func() { cfg.Ext = v.GetStringSlice("ext") })
	set("fast_text_detect", func() { cfg.FastTextDetect = v.GetBool("fast_text_detect") })
	set("text_only", func() { cfg.TextOnly = v.GetBool("text_only") })

	set("words", func() { cfg.Words = v.GetBool("words") })
	set("sloc", func() { cfg.SLOC = v.GetBool("sloc") })
	set("newline_chars", func() { cfg.NewlineChars = v.GetBool("newline_chars") })
	set("ext_map", func() { cfg.ExtMap = v.GetStringMapString("ext_map") })

	set("sort", func() {
		if specs, err := types.ParseSortSpec(v.GetString("sort")); err == nil {
			cfg.Sort = specs
		}
	})
	set("by", func() {
		if specs, err := types.ParseGroupSpec(v.GetString("by")); err == nil {
			cfg.By = specs
		}
	})
	set("filter", func() { cfg.FilterExpr = v.GetString("filter") })
	set("ratio", func() { cfg.Ratio = v.GetBool("ratio") })
	set("total", func() { cfg.TotalRow = v.GetBool("total") })

	set("jobs", func() { cfg.Jobs = v.GetInt("jobs") })
	set("format", func() { cfg.Format = v.GetString("format") })
	set("strict", func() { cfg.Strict = v.GetBool("strict") })

	set("watch_interval", func() {
		if d, err := time.ParseDuration(v.GetString("watch_interval")); err == nil {
			cfg.WatchInterval = d
		}
	})
	set("watch_output", func() { cfg.WatchOutput = v.GetString("watch_output") })

	set("incremental", func() { cfg.Incremental = v.GetBool("incremental") })
	set("cache_dir", func() { cfg.CacheDir = v.GetString("cache_dir") })
}
