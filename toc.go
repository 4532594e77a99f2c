// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// sortTocEntries orders entries by case-insensitive path, as required by the TOC format.
func sortTocEntries(entries []TocEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Path) < strings.ToLower(entries[j].Path)
	})
}

// marshalToc serializes entry count and records in given order.
func marshalToc(entries []TocEntry) []byte {
	size := int64Size
	for i := range entries {
		size += tocRecordFixed + len(entries[i].Path)
	}

	out := make([]byte, 0, size)
	out = appendInt64(out, int64(len(entries)))
	for i := range entries {
		out = appendInt64(out, int64(len(entries[i].Path)))
		out = append(out, entries[i].Path...)
		out = appendInt64(out, entries[i].Offset)
		out = appendInt64(out, entries[i].UncompressedSize)
		out = appendInt64(out, entries[i].CompressedSize)
	}

	return out
}

// parseToc decodes an uncompressed TOC block.
// A record count larger than available data stops at the last complete record boundary.
func parseToc(b []byte) ([]TocEntry, error) {
	if len(b) < int64Size {
		return nil, fmt.Errorf("%w: missing entry count", ErrInvalidToc)
	}

	count := readInt64(b)
	if count < 0 || count > maxTocEntries {
		return nil, fmt.Errorf("%w: entry count %d", ErrInvalidToc, count)
	}

	entries := make([]TocEntry, 0, min(count, int64(len(b)/tocRecordFixed)))
	pos := int64Size
	for i := int64(0); i < count; i++ {
		if pos >= len(b) {
			break
		}

		if len(b)-pos < int64Size {
			return nil, fmt.Errorf("%w: record %d truncated", ErrInvalidToc, i)
		}

		nameLen := readInt64(b[pos:])
		pos += int64Size
		if nameLen < 0 || nameLen > maxNameLen || int64(len(b)-pos) < nameLen+3*int64Size {
			return nil, fmt.Errorf("%w: record %d name length %d", ErrInvalidToc, i, nameLen)
		}

		nameBytes := b[pos : pos+int(nameLen)]
		pos += int(nameLen)
		if !utf8.Valid(nameBytes) {
			return nil, fmt.Errorf("%w: record %d name is not UTF-8", ErrInvalidToc, i)
		}

		entry := TocEntry{
			Path:             strings.ReplaceAll(string(nameBytes), `\`, `/`),
			Offset:           readInt64(b[pos:]),
			UncompressedSize: readInt64(b[pos+8:]),
			CompressedSize:   readInt64(b[pos+16:]),
		}
		pos += 3 * int64Size

		if entry.Offset < 0 || entry.UncompressedSize < 0 || entry.CompressedSize < 0 {
			return nil, fmt.Errorf("%w: record %s has negative fields", ErrInvalidToc, entry.Path)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
