// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"fmt"
	"io"
	"os"
)

// ListEntries opens an archive and returns TOC entries without payload reads.
func ListEntries(path string) ([]TocEntry, error) {
	return ListEntriesWithOptions(path, ReaderOptions{})
}

// ListEntriesWithOptions opens an archive and returns TOC entries using reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions) ([]TocEntry, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListEntriesFromReaderAtWithOptions(f, size, opts)
}

// ListEntriesFromReaderAt parses TOC entries from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]TocEntry, error) {
	return ListEntriesFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// ListEntriesFromReaderAtWithOptions parses TOC entries from a random-access source using reader options.
func ListEntriesFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) ([]TocEntry, error) {
	entries, _, err := readToc(ra, size)
	if err != nil {
		return nil, err
	}

	return filterEntriesByPrefix(entries, opts.EntryPathPrefix), nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
