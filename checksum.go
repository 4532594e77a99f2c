// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bufio"
	"fmt"
	"hash/crc64"
	"io"
	"os"
)

// checksumTable is CRC-64/ECMA-182 table used for block checksums.
var checksumTable = crc64.MakeTable(crc64.ECMA)

// checksumCopyBufferSize is read buffer size used while hashing blocks.
const checksumCopyBufferSize = 256 * 1024

// AppendChecksums appends checksum section to finished archive at path and returns block count.
// An existing checksum section is detected with the same footer heuristic as the decoder and
// replaced, so repeated calls leave exactly one section computed over current content.
func AppendChecksums(path string) (int, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open for checksums: %w", err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	_, loc, err := readToc(f, fi.Size())
	if err != nil {
		return 0, fmt.Errorf("locate TOC: %w", err)
	}

	contentEnd := loc.ContentEnd
	if err := checkChecksumBlockCount(contentEnd); err != nil {
		return 0, err
	}

	if loc.ChecksumBlocks > 0 {
		if err := f.Truncate(contentEnd); err != nil {
			return 0, fmt.Errorf("strip existing checksum section: %w", err)
		}
	}

	sums, err := computeChecksums(f, contentEnd)
	if err != nil {
		return 0, err
	}

	if _, err := f.Seek(contentEnd, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek for checksum write: %w", err)
	}

	section := make([]byte, 0, (len(sums)+1)*int64Size)
	for _, sum := range sums {
		section = appendInt64(section, int64(sum)) //nolint:gosec // stored as bit pattern
	}
	section = appendInt64(section, int64(len(sums)))

	if _, err := f.Write(section); err != nil {
		return 0, fmt.Errorf("write checksum section: %w", err)
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("sync checksum section: %w", err)
	}

	return len(sums), nil
}

// ChecksumBlockCount returns number of checksum blocks covering size bytes.
func ChecksumBlockCount(size int64) int {
	if size <= 0 {
		return 0
	}

	return int((size + ChecksumBlockSize - 1) / ChecksumBlockSize)
}

// checkChecksumBlockCount rejects content sizes whose block count the footer cannot encode.
func checkChecksumBlockCount(size int64) error {
	if count := ChecksumBlockCount(size); !isChecksumCount(int64(count)) {
		return fmt.Errorf("%w: %d blocks for %d bytes", ErrChecksumBlockLimit, count, size)
	}

	return nil
}

// computeChecksums calculates CRC-64 per ChecksumBlockSize slice of first size bytes.
func computeChecksums(ra io.ReaderAt, size int64) ([]uint64, error) {
	if err := checkChecksumBlockCount(size); err != nil {
		return nil, err
	}

	sums := make([]uint64, 0, ChecksumBlockCount(size))
	h := crc64.New(checksumTable)
	br := bufio.NewReaderSize(nil, checksumCopyBufferSize)
	for off := int64(0); off < size; off += ChecksumBlockSize {
		n := min(ChecksumBlockSize, size-off)
		br.Reset(io.NewSectionReader(ra, off, n))
		h.Reset()

		copied, err := io.Copy(h, br)
		if err != nil {
			return nil, fmt.Errorf("checksum block %d: %w", len(sums), err)
		}
		if copied != n {
			return nil, fmt.Errorf("checksum block %d: short read (%d/%d)", len(sums), copied, n)
		}

		sums = append(sums, h.Sum64())
	}

	return sums, nil
}

// readChecksumSection decodes stored checksum values described by loc.
func readChecksumSection(ra io.ReaderAt, loc TocLocation) ([]uint64, error) {
	if loc.ChecksumBlocks == 0 {
		return nil, nil
	}

	raw := make([]byte, loc.ChecksumBlocks*int64Size)
	if err := readFullAt(ra, raw, loc.ContentEnd); err != nil {
		return nil, fmt.Errorf("read checksum section: %w", err)
	}

	sums := make([]uint64, loc.ChecksumBlocks)
	for i := range sums {
		sums[i] = uint64(readInt64(raw[i*int64Size:])) //nolint:gosec // stored as bit pattern
	}

	return sums, nil
}

// ReadChecksums returns stored checksum values of archive at path (nil when absent).
func ReadChecksums(path string) ([]uint64, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	_, loc, err := readToc(f, size)
	if err != nil {
		return nil, err
	}

	return readChecksumSection(f, loc)
}

// VerifyChecksums recomputes block checksums of archive at path and compares them with stored ones.
func VerifyChecksums(path string) error {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, loc, err := readToc(f, size)
	if err != nil {
		return err
	}
	if loc.ChecksumBlocks == 0 {
		return ErrChecksumMissing
	}

	stored, err := readChecksumSection(f, loc)
	if err != nil {
		return err
	}

	computed, err := computeChecksums(f, loc.ContentEnd)
	if err != nil {
		return err
	}

	if len(computed) != len(stored) {
		return fmt.Errorf("%w: stored %d blocks, computed %d", ErrChecksumMismatch, len(stored), len(computed))
	}

	for i := range stored {
		if stored[i] != computed[i] {
			return fmt.Errorf("%w: block %d stored %016x computed %016x", ErrChecksumMismatch, i, stored[i], computed[i])
		}
	}

	return nil
}
