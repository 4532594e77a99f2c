// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// extractCopyBufferSize defines buffer size for file copy during extraction.
const extractCopyBufferSize = 64 * 1024

// extractWorkItem stores one selected entry with prepared output relative path.
type extractWorkItem struct {
	relPath string
	entry   TocEntry
}

// Unpack opens archive at path and recreates its tree under dstDir.
func Unpack(ctx context.Context, archivePath string, dstDir string, opts ExtractOptions) (*ExtractResult, error) {
	r, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Extract(ctx, dstDir, opts)
}

// Extract writes selected entries to dstDir. Directory records are created first,
// then file entries are written in TOC order, overwriting existing files.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (*ExtractResult, error) {
	startedAt := time.Now()

	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries := r.entries
	if opts.Entries != nil {
		entries = opts.Entries
	}
	entries = filterEntriesByPrefix(entries, opts.EntryPathPrefix)

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	dirs, files := filterDirectories(entries)
	dirItems, err := prepareExtractWorkItems(dirs)
	if err != nil {
		return nil, err
	}
	fileItems, err := prepareExtractWorkItems(files)
	if err != nil {
		return nil, err
	}

	res := &ExtractResult{}
	total := len(dirItems) + len(fileItems)
	index := 0

	for _, task := range dirItems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outPath := filepath.Join(dstRootAbs, task.relPath)
		if err := os.MkdirAll(outPath, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", task.entry.Path, err)
		}

		res.Directories++
		index++
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(task.entry, index, total, outPath)
		}
	}

	copyBuf := make([]byte, extractCopyBufferSize)
	for _, task := range fileItems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outPath := filepath.Join(dstRootAbs, task.relPath)
		written, err := r.extractPreparedEntry(outPath, task, copyBuf)
		if err != nil {
			return nil, err
		}

		res.Files++
		res.Bytes += written
		index++
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(task.entry, index, total, outPath)
		}
	}

	res.Duration = time.Since(startedAt)
	return res, nil
}

// prepareExtractWorkItems validates selected entries and prepares relative fs paths.
func prepareExtractWorkItems(entries []TocEntry) ([]extractWorkItem, error) {
	workItems := make([]extractWorkItem, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Path) == "" {
			continue
		}

		rel, err := safeEntryPath(entry.Path)
		if err != nil {
			return nil, err
		}

		workItems = append(workItems, extractWorkItem{
			entry:   entry,
			relPath: filepath.FromSlash(rel),
		})
	}

	return workItems, nil
}

// extractPreparedEntry writes one file entry and checks reconstructed length against TOC.
func (r *Reader) extractPreparedEntry(outPath string, task extractWorkItem, copyBuf []byte) (int64, error) {
	rc, err := r.openEntryByInfo(&task.entry, task.entry.Path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return 0, fmt.Errorf("create parent of %s: %w", task.entry.Path, err)
	}

	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", task.entry.Path, err)
	}

	// Hide ReadFrom so the shared buffer is used instead of a per-file allocation.
	written, copyErr := io.CopyBuffer(struct{ io.Writer }{file}, rc, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return written, fmt.Errorf("write %s: %w", task.entry.Path, copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", task.entry.Path, closeErr)
	}

	if written != task.entry.UncompressedSize {
		return written, fmt.Errorf(
			"%w: %s wrote %d bytes, TOC says %d",
			ErrSizeMismatch, task.entry.Path, written, task.entry.UncompressedSize,
		)
	}

	return written, nil
}
