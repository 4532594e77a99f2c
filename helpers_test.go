// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// memInput builds in-memory file input for pack tests.
func memInput(path string, data []byte) Input {
	return Input{
		Path:     path,
		SizeHint: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// packToBytes packs inputs into memory and returns archive bytes.
func packToBytes(t testing.TB, inputs []Input, opts PackOptions) ([]byte, *PackResult) {
	t.Helper()

	var buf bytes.Buffer
	res, err := Pack(context.Background(), &buf, inputs, opts)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	return buf.Bytes(), res
}

// writeArchiveFile stores archive bytes in a temp file and returns its path.
func writeArchiveFile(t testing.TB, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.obb")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	return path
}

// buildManualArchive assembles archive from raw payload region and explicit TOC records.
func buildManualArchive(t testing.TB, payload []byte, entries []TocEntry) []byte {
	t.Helper()

	toc, err := compressBlock(marshalToc(entries))
	if err != nil {
		t.Fatalf("compress TOC: %v", err)
	}

	out := make([]byte, 0, len(payload)+len(toc)+footerSize)
	out = append(out, payload...)
	out = append(out, toc...)
	out = appendInt64(out, int64(len(payload)))
	out = appendInt64(out, int64(len(toc)))
	return out
}

// writeTree creates files under root; keys ending with "/" create directories.
func writeTree(t testing.TB, root string, files map[string][]byte) {
	t.Helper()

	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(p, 0o750); err != nil {
				t.Fatalf("mkdir %s: %v", rel, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir parent %s: %v", rel, err)
		}
		if err := os.WriteFile(p, data, 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// randomBytes returns deterministic incompressible data.
func randomBytes(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	out := make([]byte, n)
	_, _ = rng.Read(out)
	return out
}

// entryByPath finds entry by exact path.
func entryByPath(entries []TocEntry, path string) (TocEntry, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}

	return TocEntry{}, false
}
