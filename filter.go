// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

// filterEntriesByPrefix keeps entries under prefix (or exact match if it points to a file).
func filterEntriesByPrefix(entries []TocEntry, prefix string) []TocEntry {
	if NormalizePath(prefix) == "" {
		return entries
	}

	out := make([]TocEntry, 0, len(entries))
	for _, entry := range entries {
		if hasPathPrefix(entry.Path, prefix) {
			out = append(out, entry)
		}
	}

	return out
}

// filterDirectories splits entries into directory records and payload-bearing files.
func filterDirectories(entries []TocEntry) (dirs []TocEntry, files []TocEntry) {
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry)
			continue
		}

		files = append(files, entry)
	}

	return dirs, files
}
