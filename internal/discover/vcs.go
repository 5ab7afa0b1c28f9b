// Version-control file listing: tracked plus untracked-but-not-ignored
// paths from a child git process, NUL-separated for binary-safe names.
// Implements: prd001-measurement-core R5.2 (VCS listing).
package discover

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// fromVCS lists files via git in every configured root (or the current
// directory when none are given).
func (e *Engine) fromVCS() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("%w: git not found in PATH", types.ErrVCSListFailed)
	}

	roots := e.cfg.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		if err := e.gitListRoot(root); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) gitListRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", root, err)
	}

	cmd := exec.Command("git", "-C", abs,
		"ls-files", "--cached", "--others", "--exclude-standard", "-z")
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrVCSListFailed, root, err)
	}

	for _, record := range bytes.Split(out, []byte{0}) {
		if len(record) == 0 {
			continue
		}
		path := filepath.Join(abs, string(record))
		e.listCandidate(path)
	}
	return nil
}
