// Package render turns an analyzed result set into one of the supported
// output formats. The JSON format doubles as the snapshot the comparator
// reads back.
// Implements: prd004-cli-surface R3 (presenters).
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tally/internal/snapshot"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Renderer holds the presentation options for one run.
type Renderer struct {
	cfg *types.Config
}

func New(cfg *types.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render writes stats and group tables to w in the configured format.
// Paths in stats are expected to already be in display form.
func (r *Renderer) Render(w io.Writer, stats []types.FileStats, tables []types.GroupTable) error {
	switch r.cfg.Format {
	case types.FormatCSV:
		return r.separated(w, stats, tables, ',')
	case types.FormatTSV:
		return r.separated(w, stats, tables, '\t')
	case types.FormatJSON:
		snap := snapshot.Build(stats, tables)
		return snapshot.Write(w, &snap)
	case types.FormatYAML:
		snap := snapshot.Build(stats, tables)
		data, err := yaml.Marshal(&snap)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case types.FormatMd:
		return r.markdown(w, stats, tables)
	case types.FormatJSONL:
		return r.jsonl(w, stats)
	default:
		return r.table(w, stats, tables)
	}
}

// jsonl emits one JSON object per file, then one summary object.
func (r *Renderer) jsonl(w io.Writer, stats []types.FileStats) error {
	enc := json.NewEncoder(w)
	if !r.cfg.TotalOnly && !r.cfg.SummaryOnly {
		for i := range stats {
			record := snapshot.BuildFile(&stats[i])
			if err := enc.Encode(&record); err != nil {
				return err
			}
		}
	}
	sum := types.Summarize(stats)
	return enc.Encode(struct {
		Type    string        `json:"type"`
		Summary types.Summary `json:"summary"`
	}{Type: "summary", Summary: sum})
}

func (r *Renderer) separated(w io.Writer, stats []types.FileStats, tables []types.GroupTable, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if !r.cfg.TotalOnly && !r.cfg.SummaryOnly {
		if err := cw.Write(r.header()); err != nil {
			return err
		}
		for i := range stats {
			if err := cw.Write(r.fileRow(&stats[i])); err != nil {
				return err
			}
		}
	}
	if r.cfg.TotalRow || r.cfg.TotalOnly || r.cfg.SummaryOnly {
		sum := types.Summarize(stats)
		if err := cw.Write(r.totalRow(sum)); err != nil {
			return err
		}
	}
	for _, table := range tables {
		if err := cw.Write([]string{table.Label}); err != nil {
			return err
		}
		for _, row := range table.Rows {
			rec := []string{row.Key, itoa(row.Lines), itoa(row.Chars), itoa(row.Count)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Renderer) header() []string {
	cols := []string{"file", "lines", "chars"}
	if r.cfg.Words {
		cols = append(cols, "words")
	}
	if r.cfg.SLOC {
		cols = append(cols, "sloc")
	}
	cols = append(cols, "size")
	return cols
}

func (r *Renderer) fileRow(s *types.FileStats) []string {
	row := []string{s.Path, itoa(s.Lines), itoa(s.Chars)}
	if r.cfg.Words {
		row = append(row, optional(s.Words))
	}
	if r.cfg.SLOC {
		row = append(row, optional(s.SLOC))
	}
	row = append(row, itoa(s.Size))
	return row
}

func (r *Renderer) totalRow(sum types.Summary) []string {
	row := []string{fmt.Sprintf("total (%d files)", sum.Files), itoa(sum.Lines), itoa(sum.Chars)}
	if r.cfg.Words {
		row = append(row, itoa(sum.Words))
	}
	if r.cfg.SLOC {
		row = append(row, itoa(sum.SLOC))
	}
	row = append(row, "")
	return row
}

func itoa(v int64) string { return fmt.Sprintf("%d", v) }

// optional renders an uncounted counter as empty instead of its sentinel.
func optional(v int64) string {
	if v < 0 {
		return ""
	}
	return itoa(v)
}
