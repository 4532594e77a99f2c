package app

import (
	"path/filepath"
	"strings"
)

// DefaultPackOutput returns <source>.obb with trailing separators removed from source.
func DefaultPackOutput(source string) string {
	clean := strings.TrimRight(source, `/\`)
	if clean == "" {
		clean = filepath.Clean(source)
	}

	return clean + ".obb"
}

// DefaultUnpackOutput returns <archive dir>/<archive name without extension>_extracted.
func DefaultUnpackOutput(archive string) string {
	dir := filepath.Dir(archive)
	base := filepath.Base(archive)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, name+"_extracted")
}
