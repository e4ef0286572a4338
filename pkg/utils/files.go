package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// GetPathInfo resolves relPath to a clean absolute path and the directory
// holding it.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	if fullPath, err = filepath.Abs(relPath); err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", relPath, err)
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// ReplaceExt swaps the extension of path's base name for ext and places it
// in dir. An empty dir keeps the file next to path.
func ReplaceExt(path, dir, ext string) string {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+ext)
}

// IsVHDLFile reports whether path names a VHDL file.
func IsVHDLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vhd", ".vhdl":
		return true
	}
	return false
}
