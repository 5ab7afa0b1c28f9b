// Text/binary classification.
// Implements: prd001-measurement-core R4.2 (text detection).
package measure

import (
	"bytes"
	"io"
	"os"
)

// sniffLen is how much of the file the fast detector inspects.
const sniffLen = 1024

// DetectText classifies path as text or binary. Fast mode reads the
// first kilobyte and declares binary on any NUL byte; strict mode scans
// the whole file.
func DetectText(path string, fast bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if fast {
		buf := make([]byte, sniffLen)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return false, err
		}
		return !bytes.ContainsRune(buf[:n], 0), nil
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if bytes.ContainsRune(buf[:n], 0) {
			return false, nil
		}
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
}
