// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"fmt"
	"path"
	"strings"
)

// NormalizePath converts an entry path to clean slash-separated form relative to archive root.
// Both "/" and "\" are accepted; leading and trailing separators and "." segments are dropped.
func NormalizePath(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")
	return strings.Trim(path.Clean("/"+raw), "/")
}

// pathKey is the case-insensitive identity of an entry path inside one archive.
func pathKey(raw string) string {
	return strings.ToLower(NormalizePath(raw))
}

// normalizeArchiveEntryPath validates input path and returns its stored TOC form.
func normalizeArchiveEntryPath(raw string) (string, error) {
	if p := NormalizePath(raw); p != "" {
		return p, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
}

// hasPathPrefix reports whether entryPath equals prefix or lies under it (case-insensitive).
func hasPathPrefix(entryPath string, prefix string) bool {
	prefixKey := pathKey(prefix)
	if prefixKey == "" {
		return true
	}

	key := pathKey(entryPath)
	return key == prefixKey || strings.HasPrefix(key, prefixKey+"/")
}

// safeEntryPath resolves a TOC path to slash-separated form that stays inside an output root.
// Rooted paths, drive prefixes ("C:"), ".." segments and NUL bytes are rejected.
func safeEntryPath(entryPath string) (string, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(entryPath), `\`, "/")
	if raw == "" || strings.HasPrefix(raw, "/") || strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
	}

	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for _, seg := range strings.Split(raw, "/") {
		switch {
		case seg == "" || seg == ".":
		case seg == "..":
			return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
		case len(segments) == 0 && isDriveSegment(seg):
			return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
		default:
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
	}

	return strings.Join(segments, "/"), nil
}

// isDriveSegment reports whether seg starts with a Windows drive letter and colon.
func isDriveSegment(seg string) bool {
	if len(seg) < 2 || seg[1] != ':' {
		return false
	}

	c := seg[0] | 0x20
	return c >= 'a' && c <= 'z'
}
