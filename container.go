// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// chunkRef locates one compressed chunk relative to Container start.
type chunkRef struct {
	Offset int64
	Length int64
}

// miniToc is the chunk index stored inside every Container.
type miniToc struct {
	Chunks            []chunkRef
	GlobalStart       int64
	TotalCompressed   int64
	TotalUncompressed int64
	ChunkSize         int64
	LastChunkSize     int64
}

// marshal serializes mini-TOC fields followed by chunk pairs.
func (m *miniToc) marshal() []byte {
	out := make([]byte, 0, miniTocHeaderSize+len(m.Chunks)*2*int64Size)
	out = appendInt64(out, m.GlobalStart)
	out = appendInt64(out, m.TotalCompressed)
	out = appendInt64(out, m.TotalUncompressed)
	out = appendInt64(out, m.ChunkSize)
	out = appendInt64(out, m.LastChunkSize)
	out = appendInt64(out, int64(len(m.Chunks)))
	for _, c := range m.Chunks {
		out = appendInt64(out, c.Offset)
		out = appendInt64(out, c.Length)
	}

	return out
}

// parseMiniToc decodes an uncompressed mini-TOC block.
func parseMiniToc(b []byte) (*miniToc, error) {
	if len(b) < miniTocHeaderSize {
		return nil, fmt.Errorf("%w: mini-TOC too short (%d bytes)", ErrInvalidContainer, len(b))
	}

	m := &miniToc{
		GlobalStart:       readInt64(b[0:]),
		TotalCompressed:   readInt64(b[8:]),
		TotalUncompressed: readInt64(b[16:]),
		ChunkSize:         readInt64(b[24:]),
		LastChunkSize:     readInt64(b[32:]),
	}

	count := readInt64(b[40:])
	if count < 0 || count > maxChunkCount {
		return nil, fmt.Errorf("%w: chunk count %d", ErrInvalidContainer, count)
	}
	if count > 0 && (m.ChunkSize <= 0 || m.ChunkSize > maxSizeHint) {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidContainer, m.ChunkSize)
	}

	need := miniTocHeaderSize + int(count)*2*int64Size
	if len(b) < need {
		return nil, fmt.Errorf("%w: mini-TOC truncated (%d/%d bytes)", ErrInvalidContainer, len(b), need)
	}

	m.Chunks = make([]chunkRef, count)
	pos := miniTocHeaderSize
	for i := range m.Chunks {
		m.Chunks[i] = chunkRef{
			Offset: readInt64(b[pos:]),
			Length: readInt64(b[pos+8:]),
		}
		pos += 2 * int64Size
	}

	return m, nil
}

// lastChunkSize returns uncompressed length of final chunk for a file of given size.
func lastChunkSize(size int64, chunkSize int64) int64 {
	last := size % chunkSize
	if last == 0 && size > 0 {
		return chunkSize
	}

	return last
}

// buildContainer chunk-compresses data into a Container that will start at absoluteStart.
func buildContainer(data []byte, absoluteStart int64) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data)/2 + 128)

	toc := miniToc{
		GlobalStart:       absoluteStart,
		TotalUncompressed: int64(len(data)),
		ChunkSize:         ChunkSize,
		LastChunkSize:     lastChunkSize(int64(len(data)), ChunkSize),
		Chunks:            make([]chunkRef, 0, (len(data)+ChunkSize-1)/ChunkSize),
	}

	for start := 0; start < len(data); start += ChunkSize {
		end := min(start+ChunkSize, len(data))
		compressed, err := compressBlock(data[start:end])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", len(toc.Chunks), err)
		}

		toc.Chunks = append(toc.Chunks, chunkRef{
			Offset: int64(out.Len()),
			Length: int64(len(compressed)),
		})
		toc.TotalCompressed += int64(len(compressed))
		out.Write(compressed)
	}

	compressedToc, err := compressBlock(toc.marshal())
	if err != nil {
		return nil, fmt.Errorf("mini-TOC: %w", err)
	}

	relativeTocOffset := int64(out.Len())
	out.Write(compressedToc)

	var footer [containerFooter]byte
	binary.LittleEndian.PutUint64(footer[0:8], uint64(absoluteStart+relativeTocOffset)) //nolint:gosec // offsets are non-negative
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(compressedToc)))
	out.Write(footer[:])

	return out.Bytes(), nil
}

// normalizeMiniTocOffset resolves stored mini-TOC offset against Container base offset.
//
// Precondition: a well-formed Container stores an absolute offset that is not below its
// own base. Some archives store it relative to Container start instead; any value below
// base is taken as relative and shifted by base.
func normalizeMiniTocOffset(stored int64, base int64) int64 {
	if stored < base {
		return stored + base
	}

	return stored
}

// readContainerToc reads Container footer and decodes its mini-TOC.
func readContainerToc(ra io.ReaderAt, offset int64, size int64) (*miniToc, error) {
	if size < containerFooter {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrInvalidContainer, size, offset)
	}

	var footer [containerFooter]byte
	if err := readFullAt(ra, footer[:], offset+size-containerFooter); err != nil {
		return nil, fmt.Errorf("read container footer: %w", err)
	}

	tocOffset := normalizeMiniTocOffset(readInt64(footer[0:]), offset)
	tocLen := readInt64(footer[8:])
	end := offset + size - containerFooter
	if tocLen <= 0 || tocOffset < offset || tocOffset > end || tocLen > end-tocOffset {
		return nil, fmt.Errorf(
			"%w: mini-TOC [%d,+%d) outside container [%d,%d)",
			ErrInvalidContainer, tocOffset, tocLen, offset, end,
		)
	}

	compressed := make([]byte, tocLen)
	if err := readFullAt(ra, compressed, tocOffset); err != nil {
		return nil, fmt.Errorf("read mini-TOC: %w", err)
	}

	raw, err := decompressBlock(compressed, 0)
	if err != nil {
		return nil, fmt.Errorf("mini-TOC: %w", err)
	}

	return parseMiniToc(raw)
}

// containerReader streams decompressed Container content chunk by chunk.
type containerReader struct {
	ra      io.ReaderAt
	toc     *miniToc
	pending []byte
	scratch []byte
	next    int
	limit   int64
}

// openContainer prepares a streaming reader for a Container stored at offset with size bytes.
func openContainer(ra io.ReaderAt, offset int64, size int64) (*containerReader, error) {
	toc, err := readContainerToc(ra, offset, size)
	if err != nil {
		return nil, err
	}

	return &containerReader{
		ra:    ra,
		toc:   toc,
		limit: offset + size,
	}, nil
}

// Read implements io.Reader.
func (cr *containerReader) Read(p []byte) (int, error) {
	for len(cr.pending) == 0 {
		if cr.next >= len(cr.toc.Chunks) {
			return 0, io.EOF
		}

		if err := cr.loadChunk(); err != nil {
			return 0, err
		}
	}

	n := copy(p, cr.pending)
	cr.pending = cr.pending[n:]
	return n, nil
}

// loadChunk reads and inflates next chunk into pending buffer.
func (cr *containerReader) loadChunk() error {
	idx := cr.next
	ref := cr.toc.Chunks[idx]
	cr.next++

	pos := cr.toc.GlobalStart + ref.Offset
	if ref.Length <= 0 || pos < 0 || pos > cr.limit || ref.Length > cr.limit-pos {
		return fmt.Errorf("%w: chunk %d [%d,+%d) out of bounds", ErrInvalidContainer, idx, pos, ref.Length)
	}

	if int64(cap(cr.scratch)) < ref.Length {
		cr.scratch = make([]byte, ref.Length)
	}
	buf := cr.scratch[:ref.Length]
	if err := readFullAt(cr.ra, buf, pos); err != nil {
		return fmt.Errorf("read chunk %d: %w", idx, err)
	}

	out, err := decompressBlock(buf, int(cr.toc.ChunkSize))
	if err != nil {
		return fmt.Errorf("chunk %d: %w", idx, err)
	}

	cr.pending = out
	return nil
}

// Close implements io.Closer.
func (cr *containerReader) Close() error {
	cr.pending = nil
	cr.scratch = nil
	return nil
}

// readFullAt fills buf from ra at off, treating short reads as io.ErrUnexpectedEOF.
func readFullAt(ra io.ReaderAt, buf []byte, off int64) error {
	n, err := ra.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

// appendInt64 appends v as little-endian int64.
func appendInt64(b []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(b, uint64(v)) //nolint:gosec // two's complement bit pattern is the wire format
}

// readInt64 decodes little-endian int64 from first 8 bytes of b.
func readInt64(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b)) //nolint:gosec // two's complement bit pattern is the wire format
}
