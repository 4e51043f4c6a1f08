package ao3dl

import (
	"os"
	"path/filepath"
)

// openAppend opens path for appending, creating it (and its parent
// directory) if necessary.
func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
