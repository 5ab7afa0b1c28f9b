// Explicit file lists: newline-delimited, or NUL-delimited for
// binary-safe paths.
// Implements: prd001-measurement-core R5.2 (explicit lists).
package discover

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// fromList reads one path per record from listPath, split on sep, and
// runs each through the filter chain. Paths that cannot be stat'd
// become warnings, not errors; a list that yields no valid entry at all
// is ErrListEmpty.
func (e *Engine) fromList(listPath string, sep byte) error {
	f, err := os.Open(listPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrListUnreadable, listPath, err)
	}
	defer f.Close()

	valid := 0
	reader := bufio.NewReader(f)
	for {
		record, err := reader.ReadString(sep)
		record = strings.TrimSuffix(record, string(sep))
		if sep == '\n' {
			record = strings.TrimSuffix(record, "\r")
		}
		if record != "" {
			if e.listCandidate(record) {
				valid++
			}
		}
		if err != nil {
			break
		}
	}

	if valid == 0 {
		return fmt.Errorf("%w: %s", types.ErrListEmpty, listPath)
	}
	return nil
}

// listCandidate stats one listed path and admits it through the usual
// chain. Reports whether the path was a readable regular file.
func (e *Engine) listCandidate(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		e.warns = append(e.warns, fmt.Errorf("resolve %s: %w", path, err))
		return false
	}
	info, err := os.Stat(abs)
	if err != nil {
		e.warns = append(e.warns, fmt.Errorf("stat %s: %w", path, err))
		return false
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return false
	}
	e.candidate(abs, filepath.Base(abs), info)
	return true
}
