// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reader provides read-only access to a parsed archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// entries stores parsed TOC in stored (sorted) order, filtered by reader options.
	entries []TocEntry
	// checksums are stored checksum values when section is present.
	checksums []uint64
	// loc is resolved TOC placement.
	loc TocLocation
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens archive file by path and parses its TOC.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens archive file by path and parses its TOC using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAtWithOptions(f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses archive from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses archive from existing ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	entries, loc, err := readToc(ra, size)
	if err != nil {
		return nil, err
	}

	checksums, err := readChecksumSection(ra, loc)
	if err != nil {
		return nil, err
	}

	return &Reader{
		ra:        ra,
		size:      size,
		loc:       loc,
		entries:   filterEntriesByPrefix(entries, opts.EntryPathPrefix),
		checksums: checksums,
	}, nil
}

// Entries returns a copy of parsed entries.
func (r *Reader) Entries() []TocEntry {
	if r == nil {
		return nil
	}

	entries := make([]TocEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Location returns resolved TOC placement and footer layout.
func (r *Reader) Location() TocLocation {
	if r == nil {
		return TocLocation{}
	}

	return r.loc
}

// Checksums returns stored checksum values, or nil when archive has no checksum section.
func (r *Reader) Checksums() []uint64 {
	if r == nil || len(r.checksums) == 0 {
		return nil
	}

	out := make([]uint64, len(r.checksums))
	copy(out, r.checksums)
	return out
}

// Size returns total archive size in bytes.
func (r *Reader) Size() int64 {
	if r == nil {
		return 0
	}

	return r.size
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close archive: %w", err)
		}
	}

	return nil
}

// checkOpen reports ErrNilReader or ErrClosed for unusable reader.
func (r *Reader) checkOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}
