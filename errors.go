// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrMissingInput means a required input file (selective list, source directory) is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrArchiveTooSmall means the file is shorter than the minimal footer size.
	ErrArchiveTooSmall = errors.New("archive too small for footer")
	// ErrInvalidFooter means no footer interpretation yields an in-bounds TOC region.
	ErrInvalidFooter = errors.New("invalid archive footer")
	// ErrTocDecompression means the TOC block could not be decompressed.
	ErrTocDecompression = errors.New("TOC decompression failed")
	// ErrInvalidToc means the decompressed TOC is truncated or malformed.
	ErrInvalidToc = errors.New("invalid TOC")
	// ErrInvalidContainer means a Container footer or mini-TOC is malformed.
	ErrInvalidContainer = errors.New("invalid container")
	// ErrDecompression means a payload failed every decompression attempt.
	ErrDecompression = errors.New("decompression failed")
	// ErrDecompressedSizeLimit means a block inflates past its allowed length.
	ErrDecompressedSizeLimit = errors.New("decompressed size limit exceeded")
	// ErrSizeMismatch means reconstructed entry length differs from TOC size.
	ErrSizeMismatch = errors.New("entry size mismatch")
	// ErrArchiveSizeLimit means payload would exceed the archive size cap.
	ErrArchiveSizeLimit = errors.New("archive size limit exceeded")
	// ErrChecksumBlockLimit means the file needs more checksum blocks than the footer heuristic allows.
	ErrChecksumBlockLimit = errors.New("checksum block count out of range")
	// ErrChecksumMissing means the archive has no checksum section.
	ErrChecksumMissing = errors.New("checksum section not found")
	// ErrChecksumMismatch means a stored block checksum differs from computed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrInvalidEntryPath means one of input entry paths is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrDuplicateEntryPath means two inputs resolve to the same path (case-insensitive).
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidSelectionRules means the selective list could not be compiled into matcher rules.
	ErrInvalidSelectionRules = errors.New("invalid selective compression rules")
)

// SizeLimitError reports the file whose payload pushed the archive over its cap.
type SizeLimitError struct {
	// Path is the offending entry path.
	Path string
	// CurrentSize is the payload size written before the entry.
	CurrentSize int64
	// AttemptedSize is the stored size of the entry that did not fit.
	AttemptedSize int64
	// Limit is the configured archive cap.
	Limit int64
}

// Error implements error.
func (e *SizeLimitError) Error() string {
	const mib = 1024 * 1024
	return fmt.Sprintf(
		"%s: adding %s would exceed %d MiB (current %d MiB, file %d MiB)",
		ErrArchiveSizeLimit, e.Path, e.Limit/mib, e.CurrentSize/mib, e.AttemptedSize/mib,
	)
}

// Unwrap returns ErrArchiveSizeLimit.
func (e *SizeLimitError) Unwrap() error {
	return ErrArchiveSizeLimit
}

// DecompressError reports a payload rejected by both framing attempts.
type DecompressError struct {
	// Prefixed is the failure of the 2-byte-header attempt; nil when it was not applicable.
	Prefixed error
	// Headerless is the failure of the raw deflate attempt.
	Headerless error
}

// Error implements error.
func (e *DecompressError) Error() string {
	parts := make([]string, 0, 2)
	if e.Prefixed != nil {
		parts = append(parts, "prefixed: "+e.Prefixed.Error())
	}
	if e.Headerless != nil {
		parts = append(parts, "headerless: "+e.Headerless.Error())
	}

	return fmt.Sprintf("%s (%s)", ErrDecompression, strings.Join(parts, "; "))
}

// Unwrap returns ErrDecompression followed by attempt failures.
func (e *DecompressError) Unwrap() []error {
	errs := []error{ErrDecompression}
	if e.Prefixed != nil {
		errs = append(errs, e.Prefixed)
	}
	if e.Headerless != nil {
		errs = append(errs, e.Headerless)
	}

	return errs
}
