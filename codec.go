// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// maxSizeHint bounds output preallocation and chunk size taken from untrusted metadata.
const maxSizeHint = 64 * 1024 * 1024

// zlibWriterPool reuses zlib encoders between blocks.
var zlibWriterPool = sync.Pool{
	New: func() any {
		return zlib.NewWriter(io.Discard)
	},
}

// compressBlock compresses one block as a zlib stream (2-byte header, deflate body, adler32).
func compressBlock(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	zw := zlibWriterPool.Get().(*zlib.Writer) //nolint:forcetypeassert // pool contains only *zlib.Writer
	zw.Reset(&buf)
	defer zlibWriterPool.Put(zw)

	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate block: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish deflate block: %w", err)
	}

	return buf.Bytes(), nil
}

// decompressBlock inflates one block. The 2-byte-header interpretation is tried first,
// then the whole block as a headerless deflate stream. The adler32 trailer is not checked.
// A positive limit caps decompressed length; zero leaves output unbounded.
func decompressBlock(data []byte, limit int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	failure := &DecompressError{}
	if hasZlibHeader(data) {
		out, err := inflateRaw(data[2:], limit)
		if err == nil {
			return out, nil
		}

		failure.Prefixed = err
	}

	out, err := inflateRaw(data, limit)
	if err == nil {
		return out, nil
	}

	failure.Headerless = err
	return nil, failure
}

// hasZlibHeader reports whether the first two bytes form a valid zlib CMF/FLG pair for deflate.
func hasZlibHeader(data []byte) bool {
	if len(data) < 2 {
		return false
	}

	cmf, flg := data[0], data[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}

	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// inflateRaw decodes a raw deflate stream until its final block or until limit is exceeded.
func inflateRaw(data []byte, limit int) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer func() { _ = fr.Close() }()

	var (
		out bytes.Buffer
		src io.Reader = fr
	)
	if limit > 0 {
		src = io.LimitReader(fr, int64(limit)+1)
		if limit <= maxSizeHint {
			out.Grow(limit)
		}
	}

	if _, err := io.Copy(&out, src); err != nil {
		return nil, err
	}

	if limit > 0 && out.Len() > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDecompressedSizeLimit, limit)
	}

	return out.Bytes(), nil
}
