// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"errors"
	"fmt"
	"io"
)

// FooterShape identifies which trailing layout a decoder accepted.
type FooterShape uint8

// Archive footer layouts.
const (
	// FooterPlain is [toc][toc_offset][toc_size] at end of file.
	FooterPlain FooterShape = iota + 1
	// FooterWithChecksums is [toc][toc_offset][toc_size][checksum]*N[N] at end of file.
	FooterWithChecksums
)

// String implements fmt.Stringer.
func (s FooterShape) String() string {
	switch s {
	case FooterPlain:
		return "plain"
	case FooterWithChecksums:
		return "checksums"
	default:
		return "unknown"
	}
}

// TocLocation describes compressed TOC placement resolved from archive footer.
type TocLocation struct {
	// Shape is the accepted footer layout.
	Shape FooterShape `json:"shape" yaml:"shape"`
	// Offset is absolute offset of compressed TOC.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is compressed TOC length.
	Size int64 `json:"size" yaml:"size"`
	// ContentEnd is end of TOC footer, i.e. start of checksum section or file size.
	ContentEnd int64 `json:"content_end" yaml:"content_end"`
	// ChecksumBlocks is number of checksum values in trailing section (zero for plain footer).
	ChecksumBlocks int `json:"checksum_blocks,omitempty" yaml:"checksum_blocks,omitempty"`
}

// isChecksumCount reports whether trailing value can be a checksum block count.
// Encoders never emit counts outside (0, 128), so the magnitude alone is the discriminant.
func isChecksumCount(v int64) bool {
	return v > 0 && v < maxChecksumBlocks
}

// footerCandidates reads trailing int64 and returns footer interpretations in decode order.
// When trailing value is a plausible checksum count, the checksum interpretation comes first if
// its stored TOC size agrees with the derived one, and after the plain interpretation otherwise.
func footerCandidates(ra io.ReaderAt, size int64) ([]TocLocation, error) {
	if size < footerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrArchiveTooSmall, size)
	}

	var tail [int64Size]byte
	if err := readFullAt(ra, tail[:], size-int64Size); err != nil {
		return nil, fmt.Errorf("read trailing value: %w", err)
	}

	candidates := make([]TocLocation, 0, 2)
	checksumLoc, checksumFit := TocLocation{}, footerMismatch
	if v := readInt64(tail[:]); isChecksumCount(v) {
		var err error
		checksumLoc, checksumFit, err = checksumFooterCandidate(ra, size, int(v))
		if err != nil {
			return nil, err
		}
		if checksumFit == footerExact {
			candidates = append(candidates, checksumLoc)
		}
	}

	loc, ok, err := plainFooterCandidate(ra, size)
	if err != nil {
		return nil, err
	}
	if ok {
		candidates = append(candidates, loc)
	}

	if checksumFit == footerDerived {
		candidates = append(candidates, checksumLoc)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no footer layout fits %d-byte file", ErrInvalidFooter, size)
	}

	return candidates, nil
}

// plainFooterCandidate interprets last 16 bytes as TOC footer; TOC size is derived.
func plainFooterCandidate(ra io.ReaderAt, size int64) (TocLocation, bool, error) {
	var footer [footerSize]byte
	if err := readFullAt(ra, footer[:], size-footerSize); err != nil {
		return TocLocation{}, false, fmt.Errorf("read footer: %w", err)
	}

	tocOffset := readInt64(footer[0:])
	footerPos := size - footerSize
	if tocOffset < 0 || tocOffset >= footerPos {
		return TocLocation{}, false, nil
	}

	return TocLocation{
		Shape:      FooterPlain,
		Offset:     tocOffset,
		Size:       footerPos - tocOffset,
		ContentEnd: size,
	}, true, nil
}

// footerFit grades how well a checksum footer interpretation fits the file.
type footerFit uint8

const (
	// footerMismatch means TOC offset is out of range.
	footerMismatch footerFit = iota
	// footerDerived means TOC offset fits but stored TOC size differs from the derived one.
	footerDerived
	// footerExact means stored TOC size equals the derived one.
	footerExact
)

// checksumFooterCandidate interprets tail as checksum section of count values preceded by TOC footer.
// TOC size is derived from footer position; stored size only grades the fit, which keeps plain
// archives whose compressed TOC size falls into checksum count range on the plain path first.
func checksumFooterCandidate(ra io.ReaderAt, size int64, count int) (TocLocation, footerFit, error) {
	section := int64(count)*int64Size + int64Size
	footerPos := size - section - footerSize
	if footerPos < 0 {
		return TocLocation{}, footerMismatch, nil
	}

	var footer [footerSize]byte
	if err := readFullAt(ra, footer[:], footerPos); err != nil {
		return TocLocation{}, footerMismatch, fmt.Errorf("read footer: %w", err)
	}

	tocOffset := readInt64(footer[0:])
	if tocOffset < 0 || tocOffset >= footerPos {
		return TocLocation{}, footerMismatch, nil
	}

	loc := TocLocation{
		Shape:          FooterWithChecksums,
		Offset:         tocOffset,
		Size:           footerPos - tocOffset,
		ContentEnd:     size - section,
		ChecksumBlocks: count,
	}
	if readInt64(footer[8:]) != loc.Size {
		return loc, footerDerived, nil
	}

	return loc, footerExact, nil
}

// readToc locates, decompresses and parses archive TOC by trying footer candidates in order.
// The first candidate whose TOC decodes wins.
func readToc(ra io.ReaderAt, size int64) ([]TocEntry, TocLocation, error) {
	if ra == nil {
		return nil, TocLocation{}, ErrNilReader
	}

	candidates, err := footerCandidates(ra, size)
	if err != nil {
		return nil, TocLocation{}, err
	}

	var failures []error
	for _, loc := range candidates {
		entries, err := decodeTocAt(ra, loc)
		if err == nil {
			return entries, loc, nil
		}

		failures = append(failures, fmt.Errorf("%s footer: %w", loc.Shape, err))
	}

	return nil, TocLocation{}, errors.Join(failures...)
}

// decodeTocAt reads compressed TOC described by loc and parses it.
func decodeTocAt(ra io.ReaderAt, loc TocLocation) ([]TocEntry, error) {
	compressed := make([]byte, loc.Size)
	if err := readFullAt(ra, compressed, loc.Offset); err != nil {
		return nil, fmt.Errorf("read TOC: %w", err)
	}

	raw, err := decompressBlock(compressed, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTocDecompression, err)
	}

	return parseToc(raw)
}

// LocateToc resolves TOC placement of archive at path without decoding entries further.
func LocateToc(path string) (TocLocation, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return TocLocation{}, err
	}
	defer func() { _ = f.Close() }()

	_, loc, err := readToc(f, size)
	return loc, err
}
