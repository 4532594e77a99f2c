// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// defaultPackWriterPool reuses default-sized bufio writers between Pack calls.
var defaultPackWriterPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
	},
}

// writtenEntry stores concrete entry values produced during payload write.
type writtenEntry struct {
	path                 string
	uncompressedSize     int64
	storedSize           int64
	compressionCandidate bool
	container            bool
}

// packPlan is normalized pack input split into payload files and directory records.
type packPlan struct {
	files   []Input
	dirs    []string
	skipped int
}

// Pack writes an archive to out from the given inputs.
// File payloads are written in input order; the TOC is sorted by case-insensitive path.
func Pack(ctx context.Context, out io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	startedAt := time.Now()

	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	policy, err := newCompressPolicy(opts)
	if err != nil {
		return nil, fmt.Errorf("compile compress rules: %w", err)
	}

	plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	w, releaseWriter := acquirePackWriter(out, opts.WriterBufferSize)
	defer releaseWriter()

	res := &PackResult{
		SkippedFiles: plan.skipped,
		Directories:  len(plan.dirs),
	}
	entries := make([]TocEntry, 0, len(plan.files)+len(plan.dirs))

	var offset int64
	for i := range plan.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in := plan.files[i]
		budget := archiveBudget{offset: offset, limit: opts.MaxArchiveSize}
		record, err := writeFilePayload(w, in, policy, budget)
		if err != nil {
			return nil, err
		}

		entries = append(entries, TocEntry{
			Path:             record.path,
			Offset:           offset,
			UncompressedSize: record.uncompressedSize,
			CompressedSize:   record.storedSize,
		})

		if record.container {
			res.ContainerEntries++
		} else if record.compressionCandidate {
			res.RawFallbackEntries++
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Path:                 record.path,
				Offset:               offset,
				UncompressedSize:     record.uncompressedSize,
				CompressedSize:       record.storedSize,
				Index:                i + 1,
				Total:                len(plan.files),
				CompressionCandidate: record.compressionCandidate,
				Container:            record.container,
			})
		}

		offset += record.storedSize
	}

	for _, dir := range plan.dirs {
		entries = append(entries, TocEntry{Path: dir})
	}

	sortTocEntries(entries)

	compressedToc, err := compressBlock(marshalToc(entries))
	if err != nil {
		return nil, fmt.Errorf("compress TOC: %w", err)
	}

	if _, err := w.Write(compressedToc); err != nil {
		return nil, fmt.Errorf("write TOC: %w", err)
	}

	footer := make([]byte, 0, footerSize)
	footer = appendInt64(footer, offset)
	footer = appendInt64(footer, int64(len(compressedToc)))
	if _, err := w.Write(footer); err != nil {
		return nil, fmt.Errorf("write footer: %w", err)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush archive: %w", err)
	}

	res.Entries = entries
	res.WrittenFiles = len(plan.files)
	res.DataSize = offset
	res.TocOffset = offset
	res.TocSize = int64(len(compressedToc))
	res.Duration = time.Since(startedAt)

	return res, nil
}

// PackFile writes an archive to outPath and optionally appends checksum section.
// A failed pack removes the partially written file.
func PackFile(ctx context.Context, outPath string, inputs []Input, opts PackOptions) (*PackResult, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	keep := false
	defer func() {
		if f != nil {
			_ = f.Close()
		}
		if !keep {
			_ = os.Remove(outPath)
		}
	}()

	res, err := Pack(ctx, f, inputs, opts)
	if err != nil {
		return nil, err
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync archive file: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive file: %w", err)
	}
	f = nil

	if opts.Checksum {
		blocks, err := AppendChecksums(outPath)
		if err != nil {
			return nil, fmt.Errorf("append checksums: %w", err)
		}

		res.ChecksumBlocks = blocks
	}

	keep = true
	return res, nil
}

// PackDir packs every file and directory below srcDir into archive at outPath.
func PackDir(ctx context.Context, srcDir string, outPath string, opts PackOptions) (*PackResult, error) {
	inputs, err := CollectInputs(srcDir)
	if err != nil {
		return nil, err
	}

	return PackFile(ctx, outPath, inputs, opts)
}

// CollectInputs walks srcDir and returns file inputs and directory records in walk order.
// Non-regular files (symlinks, devices) are not collected.
func CollectInputs(srcDir string) ([]Input, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source directory %s not found", ErrMissingInput, srcDir)
		}

		return nil, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingInput, srcDir)
	}

	var inputs []Input
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			inputs = append(inputs, Input{Path: rel, Dir: true})
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		inputs = append(inputs, Input{
			Path:     rel,
			SizeHint: fi.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}

	return inputs, nil
}

// acquirePackWriter returns a buffered writer and release callback for Pack.
func acquirePackWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultPackWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultPackWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// preparePackPlan normalizes paths, drops ignored names and checks case-insensitive uniqueness.
// Input order of files is preserved.
func preparePackPlan(inputs []Input) (*packPlan, error) {
	plan := &packPlan{
		files: make([]Input, 0, len(inputs)),
	}
	seen := make(map[string]string, len(inputs))

	for _, in := range inputs {
		normalizedPath, err := normalizeArchiveEntryPath(in.Path)
		if err != nil {
			return nil, err
		}

		if !in.Dir && isIgnoredName(normalizedPath) {
			plan.skipped++
			continue
		}

		key := pathKey(normalizedPath)
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryPath, normalizedPath, existing)
		}
		seen[key] = normalizedPath

		if in.Dir {
			plan.dirs = append(plan.dirs, normalizedPath)
			continue
		}

		in.Path = normalizedPath
		plan.files = append(plan.files, in)
	}

	return plan, nil
}

// openInputReader opens source stream for one input.
func openInputReader(in Input) (io.ReadCloser, error) {
	if in.Open == nil {
		return nil, fmt.Errorf("input %s: Open is nil", in.Path)
	}

	rc, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", in.Path, err)
	}

	return rc, nil
}

// writeFilePayload opens one input and writes it raw or as Container, whichever is smaller.
func writeFilePayload(dst io.Writer, in Input, policy *compressPolicy, budget archiveBudget) (writtenEntry, error) {
	candidate := policy.candidate(in.Path)

	rc, err := openInputReader(in)
	if err != nil {
		return writtenEntry{}, err
	}

	var record writtenEntry
	if candidate {
		record, err = writeCandidatePayload(dst, rc, in, budget)
	} else {
		record, err = writeRawPayload(dst, rc, in, budget)
	}

	closeErr := rc.Close()
	if err != nil {
		return writtenEntry{}, err
	}
	if closeErr != nil {
		return writtenEntry{}, fmt.Errorf("close input %s: %w", in.Path, closeErr)
	}

	record.compressionCandidate = candidate
	return record, nil
}

// writeRawPayload streams payload directly into destination within remaining archive capacity.
func writeRawPayload(dst io.Writer, src io.Reader, in Input, budget archiveBudget) (writtenEntry, error) {
	if in.SizeHint > budget.remaining() {
		return writtenEntry{}, budget.exceeded(in.Path, in.SizeHint)
	}

	streamed, err := budget.copyPayload(dst, src, in, budget.remaining())
	if err != nil {
		return writtenEntry{}, err
	}

	return writtenEntry{
		path:             in.Path,
		uncompressedSize: streamed,
		storedSize:       streamed,
	}, nil
}

// writeCandidatePayload reads payload into memory, builds Container and writes the smaller form.
// Compression never increases stored size: a Container not smaller than raw data is discarded.
func writeCandidatePayload(dst io.Writer, src io.Reader, in Input, budget archiveBudget) (writtenEntry, error) {
	// Source may exceed remaining capacity as long as its Container fits.
	var raw bytes.Buffer
	if in.SizeHint > 0 && in.SizeHint <= budget.limit {
		raw.Grow(int(in.SizeHint))
	}
	if _, err := budget.copyPayload(&raw, src, in, budget.limit); err != nil {
		return writtenEntry{}, err
	}

	data := raw.Bytes()
	record := writtenEntry{
		path:             in.Path,
		uncompressedSize: int64(len(data)),
		storedSize:       int64(len(data)),
	}

	if len(data) > 0 {
		container, err := buildContainer(data, budget.offset)
		if err != nil {
			return writtenEntry{}, fmt.Errorf("compress %s: %w", in.Path, err)
		}

		if len(container) < len(data) {
			data = container
			record.storedSize = int64(len(container))
			record.container = true
		}
	}

	if record.storedSize > budget.remaining() {
		return writtenEntry{}, budget.exceeded(in.Path, record.storedSize)
	}

	if _, err := dst.Write(data); err != nil {
		return writtenEntry{}, fmt.Errorf("write payload %s: %w", in.Path, err)
	}

	return record, nil
}

// archiveBudget is payload capacity left under the archive cap at one entry offset.
type archiveBudget struct {
	offset int64
	limit  int64
}

// remaining returns payload bytes that still fit under the cap.
func (b archiveBudget) remaining() int64 {
	return b.limit - b.offset
}

// exceeded reports an entry of attempted stored size that does not fit.
func (b archiveBudget) exceeded(path string, attempted int64) error {
	return &SizeLimitError{
		Path:          path,
		CurrentSize:   b.offset,
		AttemptedSize: attempted,
		Limit:         b.limit,
	}
}

// copyPayload copies at most limit bytes of in from src to dst.
// A source longer than limit fails with *SizeLimitError without writing the excess.
func (b archiveBudget) copyPayload(dst io.Writer, src io.Reader, in Input, limit int64) (int64, error) {
	if limit < 0 {
		return 0, b.exceeded(in.Path, in.SizeHint)
	}

	n, err := io.Copy(dst, io.LimitReader(src, limit))
	if err != nil {
		return n, fmt.Errorf("stream input %s: %w", in.Path, err)
	}
	if n < limit {
		return n, nil
	}

	var probe [1]byte
	extra, err := io.ReadFull(src, probe[:])
	if extra > 0 {
		return n, b.exceeded(in.Path, max(in.SizeHint, n+1))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("stream input %s: %w", in.Path, err)
	}

	return n, nil
}

