// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"fmt"
	"io"
	"strings"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// findEntryByName resolves one entry by normalized, case-insensitive path.
func (r *Reader) findEntryByName(name string) *TocEntry {
	key := pathKey(name)
	for i := range r.entries {
		if pathKey(r.entries[i].Path) == key {
			return &r.entries[i]
		}
	}

	return nil
}

// openEntryByInfo opens payload stream for already resolved entry metadata.
func (r *Reader) openEntryByInfo(info *TocEntry, name string) (io.ReadCloser, error) {
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	if info.IsDir() {
		return nopCloser{Reader: strings.NewReader("")}, nil
	}

	if info.Offset < 0 || info.CompressedSize < 0 || info.CompressedSize > r.size-info.Offset {
		return nil, fmt.Errorf(
			"%w: %s payload [%d,+%d) outside %d-byte archive",
			ErrInvalidToc, name, info.Offset, info.CompressedSize, r.size,
		)
	}

	if !info.IsContainer() {
		return nopCloser{Reader: io.NewSectionReader(r.ra, info.Offset, info.CompressedSize)}, nil
	}

	cr, err := openContainer(r.ra, info.Offset, info.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", name, err)
	}

	return cr, nil
}

// OpenEntry opens named entry for reading.
// Returned stream yields decompressed content for Container entries.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	return r.openEntryByInfo(r.findEntryByName(name), name)
}

// OpenEntryInfo opens entry stream by already resolved metadata.
func (r *Reader) OpenEntryInfo(info TocEntry) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	name := info.Path
	if name == "" {
		name = "<unknown>"
	}

	return r.openEntryByInfo(&info, name)
}

// ReadEntry reads full (decompressed) content of the named entry and checks its length.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	info := r.findEntryByName(name)
	rc, err := r.openEntryByInfo(info, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", name, err)
	}

	if int64(len(data)) != info.UncompressedSize {
		return nil, fmt.Errorf("%w: %s has %d bytes, TOC says %d", ErrSizeMismatch, name, len(data), info.UncompressedSize)
	}

	return data, nil
}
