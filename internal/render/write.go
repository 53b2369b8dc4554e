package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// WriteFile writes content to path atomically (temp file + rename), so a
// crash mid-write never leaves a half-written destination. Parent
// directories are created as needed. An existing destination fails with
// DestinationExistsError unless force is set.
func WriteFile(path string, content []byte, force bool) error {
	if info, err := os.Stat(path); err == nil {
		if !info.Mode().IsRegular() {
			return fmt.Errorf("destination exists and is not a file: %s", path)
		}
		if !force {
			return &DestinationExistsError{Path: path}
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
	}

	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
