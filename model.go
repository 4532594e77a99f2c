// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"io"
	"time"
)

// Internal binary layout and format limits.
const (
	int64Size         = 8             // every on-disk integer is a little-endian int64
	footerSize        = 2 * int64Size // [toc_offset][compressed_toc_size]
	containerFooter   = 2 * int64Size // [abs_mini_toc_offset][mini_toc_compressed_len]
	miniTocHeaderSize = 6 * int64Size // fixed mini-TOC fields before chunk pairs
	tocRecordFixed    = 4 * int64Size // name_len + offset + sizes per TOC record
	maxChecksumBlocks = 128           // exclusive upper bound of checksum block count
	maxNameLen        = 4096          // sanity bound for TOC entry names
	maxTocEntries     = 1 << 24       // sanity bound for TOC entry count
	maxChunkCount     = 1 << 24       // sanity bound for mini-TOC chunk count
)

// Format constants and default packer tuning values.
const (
	// ChunkSize is the uncompressed slice size of one Container chunk.
	ChunkSize = 4096
	// DefaultMaxArchiveSize caps payload bytes written before TOC (4 GiB minus headroom).
	DefaultMaxArchiveSize int64 = 3<<30 + 900<<20
	// DefaultWriteBuffer is buffered writer size for pack output.
	DefaultWriteBuffer = 16 * 1024 * 1024
	// ChecksumBlockSize is the file slice covered by one checksum value.
	ChecksumBlockSize int64 = 32 * 1024 * 1024
)

// TocEntry describes one file or directory recorded in archive TOC.
type TocEntry struct {
	// Path is slash-separated path relative to archive root.
	Path string `json:"path" yaml:"path"`
	// Offset is absolute payload offset in archive (zero for directories).
	Offset int64 `json:"offset" yaml:"offset"`
	// UncompressedSize is original file length.
	UncompressedSize int64 `json:"uncompressed_size" yaml:"uncompressed_size"`
	// CompressedSize is stored payload length.
	CompressedSize int64 `json:"compressed_size" yaml:"compressed_size"`
}

// IsDir reports whether entry is a directory record.
// Empty files share the same encoding and are recreated as directories.
func (e *TocEntry) IsDir() bool {
	return e.UncompressedSize == 0
}

// IsContainer reports whether payload is wrapped in a chunked Container.
func (e *TocEntry) IsContainer() bool {
	return !e.IsDir() && e.CompressedSize != e.UncompressedSize
}

// Input describes one source stream to be packed into an archive entry.
type Input struct {
	// Open returns raw source stream for this entry; unused for directories.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Path is destination path inside archive.
	Path string `json:"path" yaml:"path"`
	// SizeHint is expected size in bytes (zero when unknown).
	SizeHint int64 `json:"size_hint,omitempty" yaml:"size_hint,omitempty"`
	// Dir marks a zero-size directory record.
	Dir bool `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// PackEntryProgress contains one completed entry write event from pack flow.
type PackEntryProgress struct {
	// Path is entry path written to archive.
	Path string `json:"path" yaml:"path"`
	// Offset is payload offset in resulting archive.
	Offset int64 `json:"offset" yaml:"offset"`
	// UncompressedSize is source length.
	UncompressedSize int64 `json:"uncompressed_size" yaml:"uncompressed_size"`
	// CompressedSize is stored payload size in bytes.
	CompressedSize int64 `json:"compressed_size" yaml:"compressed_size"`
	// Index is one-based position of this file in write order.
	Index int `json:"index" yaml:"index"`
	// Total is number of files scheduled for write.
	Total int `json:"total" yaml:"total"`
	// CompressionCandidate reports whether compression was attempted for this entry.
	CompressionCandidate bool `json:"compression_candidate,omitempty" yaml:"compression_candidate,omitempty"`
	// Container reports whether Container payload was actually written.
	Container bool `json:"container,omitempty" yaml:"container,omitempty"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one file payload is fully written to archive.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// Selection is an optional selective-compression list. When set it overrides CompressAll.
	Selection *SelectionList `json:"selection,omitempty" yaml:"selection,omitempty"`
	// CompressAll makes every file a compression candidate when Selection is nil.
	CompressAll bool `json:"compress_all,omitempty" yaml:"compress_all,omitempty"`
	// Checksum appends checksum section after TOC (file-based pack only).
	Checksum bool `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	// MaxArchiveSize caps total payload bytes. Zero means DefaultMaxArchiveSize.
	MaxArchiveSize int64 `json:"max_archive_size,omitempty" yaml:"max_archive_size,omitempty"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// Entries is the sorted TOC written to archive.
	Entries []TocEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	// WrittenFiles is number of file payloads written.
	WrittenFiles int `json:"written_files" yaml:"written_files"`
	// Directories is number of directory records.
	Directories int `json:"directories" yaml:"directories"`
	// SkippedFiles is number of inputs dropped by name (.ds_store, thumbs.db).
	SkippedFiles int `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`
	// DataSize is total payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// TocOffset is absolute offset of compressed TOC.
	TocOffset int64 `json:"toc_offset" yaml:"toc_offset"`
	// TocSize is compressed TOC length.
	TocSize int64 `json:"toc_size" yaml:"toc_size"`
	// ContainerEntries is number of files stored as Container blobs.
	ContainerEntries int `json:"container_entries,omitempty" yaml:"container_entries,omitempty"`
	// RawFallbackEntries is number of compression candidates stored raw.
	RawFallbackEntries int `json:"raw_fallback_entries,omitempty" yaml:"raw_fallback_entries,omitempty"`
	// ChecksumBlocks is number of appended checksum values (zero without checksum section).
	ChecksumBlocks int `json:"checksum_blocks,omitempty" yaml:"checksum_blocks,omitempty"`
	// Duration is end-to-end pack duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ReaderOptions configures reader behavior.
type ReaderOptions struct {
	// EntryPathPrefix keeps only entries under this slash-separated prefix.
	EntryPathPrefix string `json:"entry_path_prefix,omitempty" yaml:"entry_path_prefix,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully recreated on disk.
	OnEntryDone func(entry TocEntry, index int, total int, outputPath string) `json:"-" yaml:"-"`
	// Entries limits extraction to selected metadata list; nil means all parsed entries.
	Entries []TocEntry `json:"-" yaml:"-"`
	// EntryPathPrefix limits extraction to entries under this prefix.
	EntryPathPrefix string `json:"entry_path_prefix,omitempty" yaml:"entry_path_prefix,omitempty"`
}

// ExtractResult contains extraction statistics.
type ExtractResult struct {
	// Files is number of file entries written.
	Files int `json:"files" yaml:"files"`
	// Directories is number of directory records created.
	Directories int `json:"directories" yaml:"directories"`
	// Bytes is total decompressed bytes written.
	Bytes int64 `json:"bytes" yaml:"bytes"`
	// Duration is end-to-end extraction duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}

	if opts.MaxArchiveSize <= 0 {
		opts.MaxArchiveSize = DefaultMaxArchiveSize
	}
}
