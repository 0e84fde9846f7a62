// Package utils holds small file and encoding helpers shared by the commands
// and the report renderer.
package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SafeWriteFile writes data to a temp file next to path and atomically renames
// it into place. Missing parent directories are created.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON. NaN and Inf are not valid
// JSON, so absent statistics must be encoded as null by their types.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}
