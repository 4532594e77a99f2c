// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPackDirScenario(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.txt":     []byte("aaaaaaaaaa"),
		"sub/b.bin": make([]byte, 5000),
	})

	outPath := filepath.Join(t.TempDir(), "main.obb")
	res, err := PackDir(context.Background(), src, outPath, PackOptions{CompressAll: true})
	if err != nil {
		t.Fatalf("PackDir: %v", err)
	}

	if len(res.Entries) != 3 {
		t.Fatalf("len(Entries)=%d, want 3", len(res.Entries))
	}
	wantOrder := []string{"a.txt", "sub", "sub/b.bin"}
	for i := range wantOrder {
		if res.Entries[i].Path != wantOrder[i] {
			t.Fatalf("Entries[%d]=%q, want %q", i, res.Entries[i].Path, wantOrder[i])
		}
	}

	a := res.Entries[0]
	if a.Offset != 0 || a.UncompressedSize != 10 || a.CompressedSize != 10 || a.IsContainer() {
		t.Fatalf("a.txt stored as %+v, want raw at 0", a)
	}

	dir := res.Entries[1]
	if !dir.IsDir() || dir.Offset != 0 || dir.CompressedSize != 0 {
		t.Fatalf("sub stored as %+v, want directory record", dir)
	}

	b := res.Entries[2]
	if !b.IsContainer() || b.Offset != 10 || b.UncompressedSize != 5000 {
		t.Fatalf("sub/b.bin stored as %+v, want Container at 10", b)
	}
	if res.ContainerEntries != 1 || res.RawFallbackEntries != 1 {
		t.Fatalf("ContainerEntries=%d RawFallbackEntries=%d, want 1/1", res.ContainerEntries, res.RawFallbackEntries)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	toc, err := readContainerToc(f, b.Offset, b.CompressedSize)
	if err != nil {
		t.Fatalf("readContainerToc: %v", err)
	}
	if len(toc.Chunks) != 2 || toc.LastChunkSize != 904 || toc.GlobalStart != b.Offset {
		t.Fatalf("unexpected mini-TOC: %+v", toc)
	}
}

func TestPackRawFallback(t *testing.T) {
	t.Parallel()

	noise := randomBytes(1000, 1)
	data, res := packToBytes(t, []Input{memInput("noise.bin", noise)}, PackOptions{CompressAll: true})

	entry := res.Entries[0]
	if entry.IsContainer() || entry.CompressedSize != 1000 {
		t.Fatalf("noise.bin stored as %+v, want raw", entry)
	}
	if res.RawFallbackEntries != 1 || res.ContainerEntries != 0 {
		t.Fatalf("RawFallbackEntries=%d ContainerEntries=%d", res.RawFallbackEntries, res.ContainerEntries)
	}
	if !bytes.Equal(data[:1000], noise) {
		t.Fatal("raw payload not written verbatim")
	}
}

func TestPackPayloadOrderAndSortedToc(t *testing.T) {
	t.Parallel()

	_, res := packToBytes(t, []Input{
		memInput("Zeta.txt", []byte("zz")),
		memInput("alpha.txt", []byte("aaa")),
		memInput("Beta/x.txt", []byte("b")),
	}, PackOptions{})

	wantOrder := []string{"alpha.txt", "Beta/x.txt", "Zeta.txt"}
	for i := range wantOrder {
		if res.Entries[i].Path != wantOrder[i] {
			t.Fatalf("Entries[%d]=%q, want %q", i, res.Entries[i].Path, wantOrder[i])
		}
	}

	wantOffsets := map[string]int64{"Zeta.txt": 0, "alpha.txt": 2, "Beta/x.txt": 5}
	for _, e := range res.Entries {
		if e.Offset != wantOffsets[e.Path] {
			t.Fatalf("%s offset=%d, want %d", e.Path, e.Offset, wantOffsets[e.Path])
		}
	}
	if res.DataSize != 6 || res.TocOffset != 6 {
		t.Fatalf("DataSize=%d TocOffset=%d, want 6", res.DataSize, res.TocOffset)
	}
}

func TestPackEmptyInputs(t *testing.T) {
	t.Parallel()

	data, res := packToBytes(t, nil, PackOptions{})
	if len(res.Entries) != 0 {
		t.Fatalf("len(Entries)=%d, want 0", len(res.Entries))
	}
	if int64(len(data)) != res.TocSize+footerSize {
		t.Fatalf("archive size=%d, want %d", len(data), res.TocSize+footerSize)
	}

	raw, err := decompressBlock(data[:res.TocSize], 0)
	if err != nil {
		t.Fatalf("decompress TOC: %v", err)
	}
	if !bytes.Equal(raw, appendInt64(nil, 0)) {
		t.Fatalf("TOC=% x, want zero count", raw)
	}
}

func TestPackSkipsIgnoredNames(t *testing.T) {
	t.Parallel()

	_, res := packToBytes(t, []Input{
		memInput(".DS_Store", []byte("junk")),
		memInput("textures/Thumbs.db", []byte("junk")),
		memInput("keep.txt", []byte("keep")),
	}, PackOptions{})

	if len(res.Entries) != 1 || res.Entries[0].Path != "keep.txt" {
		t.Fatalf("Entries=%+v", res.Entries)
	}
	if res.SkippedFiles != 2 {
		t.Fatalf("SkippedFiles=%d, want 2", res.SkippedFiles)
	}
}

func TestPackDuplicatePaths(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := Pack(context.Background(), &buf, []Input{
		memInput("Data/a.txt", []byte("1")),
		memInput(`data\A.TXT`, []byte("2")),
	}, PackOptions{})
	if !errors.Is(err, ErrDuplicateEntryPath) {
		t.Fatalf("expected ErrDuplicateEntryPath, got %v", err)
	}
}

func TestPackSizeLimit(t *testing.T) {
	t.Parallel()

	t.Run("known size", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := Pack(context.Background(), &buf, []Input{
			memInput("a.bin", make([]byte, 6)),
			memInput("b.bin", make([]byte, 6)),
		}, PackOptions{MaxArchiveSize: 10})
		if !errors.Is(err, ErrArchiveSizeLimit) {
			t.Fatalf("expected ErrArchiveSizeLimit, got %v", err)
		}

		var sizeErr *SizeLimitError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("expected *SizeLimitError, got %T", err)
		}
		if sizeErr.Path != "b.bin" || sizeErr.CurrentSize != 6 || sizeErr.AttemptedSize != 6 || sizeErr.Limit != 10 {
			t.Fatalf("unexpected SizeLimitError: %+v", sizeErr)
		}
	})

	t.Run("unknown size stream", func(t *testing.T) {
		t.Parallel()

		in := Input{
			Path: "stream.bin",
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(strings.Repeat("x", 64))), nil
			},
		}

		var buf bytes.Buffer
		_, err := Pack(context.Background(), &buf, []Input{in}, PackOptions{MaxArchiveSize: 16})
		if !errors.Is(err, ErrArchiveSizeLimit) {
			t.Fatalf("expected ErrArchiveSizeLimit, got %v", err)
		}
	})

	t.Run("compressed fits", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := Pack(context.Background(), &buf, []Input{
			memInput("zeros.bin", make([]byte, 8192)),
		}, PackOptions{CompressAll: true, MaxArchiveSize: 8192})
		if err != nil {
			t.Fatalf("Pack: %v", err)
		}
	})
}

func TestPackProgressCallback(t *testing.T) {
	t.Parallel()

	var events []PackEntryProgress
	_, _ = packToBytes(t, []Input{
		memInput("a.txt", []byte("a")),
		{Path: "dir", Dir: true},
		memInput("b.txt", make([]byte, 5000)),
	}, PackOptions{
		CompressAll: true,
		OnEntryDone: func(p PackEntryProgress) {
			events = append(events, p)
		},
	})

	if len(events) != 2 {
		t.Fatalf("len(events)=%d, want 2", len(events))
	}
	if events[0].Path != "a.txt" || events[0].Index != 1 || events[0].Total != 2 {
		t.Fatalf("events[0]=%+v", events[0])
	}
	if events[1].Path != "b.txt" || !events[1].Container || events[1].Offset != 1 {
		t.Fatalf("events[1]=%+v", events[1])
	}
}

func TestPackCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := Pack(ctx, &buf, []Input{memInput("a.txt", []byte("a"))}, PackOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPackNilWriter(t *testing.T) {
	t.Parallel()

	if _, err := Pack(context.Background(), nil, nil, PackOptions{}); !errors.Is(err, ErrNilWriter) {
		t.Fatalf("expected ErrNilWriter, got %v", err)
	}
}

func TestPackFileRemovesPartialOutput(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "broken.obb")
	in := Input{
		Path: "fail.bin",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("boom")
		},
	}

	if _, err := PackFile(context.Background(), outPath, []Input{in}, PackOptions{}); err == nil {
		t.Fatal("expected PackFile error")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Fatalf("expected partial archive to be removed, stat err=%v", err)
	}
}

func TestPackFileWithChecksum(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "sums.obb")
	res, err := PackFile(context.Background(), outPath, []Input{
		memInput("a.txt", []byte("aaaaaaaaaa")),
	}, PackOptions{Checksum: true})
	if err != nil {
		t.Fatalf("PackFile: %v", err)
	}
	if res.ChecksumBlocks != 1 {
		t.Fatalf("ChecksumBlocks=%d, want 1", res.ChecksumBlocks)
	}

	if err := VerifyChecksums(outPath); err != nil {
		t.Fatalf("VerifyChecksums: %v", err)
	}
}

func TestPackDirMissingSource(t *testing.T) {
	t.Parallel()

	_, err := PackDir(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x.obb"), PackOptions{})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestArchiveBudgetCopyPayload(t *testing.T) {
	t.Parallel()

	budget := archiveBudget{offset: 7, limit: 10}
	in := Input{Path: "stream.bin"}

	t.Run("exact limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		written, err := budget.copyPayload(&dst, strings.NewReader("abc"), in, budget.remaining())
		if err != nil {
			t.Fatalf("copyPayload: %v", err)
		}
		if written != 3 || dst.String() != "abc" {
			t.Fatalf("written=%d dst=%q", written, dst.String())
		}
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		written, err := budget.copyPayload(&dst, strings.NewReader("abcdef"), in, budget.remaining())

		var sizeErr *SizeLimitError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("expected *SizeLimitError, got %v", err)
		}
		if sizeErr.Path != "stream.bin" || sizeErr.CurrentSize != 7 || sizeErr.AttemptedSize != 4 || sizeErr.Limit != 10 {
			t.Fatalf("unexpected SizeLimitError: %+v", sizeErr)
		}
		if written != 3 || dst.String() != "abc" {
			t.Fatalf("written=%d dst=%q, excess must not be written", written, dst.String())
		}
	})

	t.Run("no capacity", func(t *testing.T) {
		t.Parallel()

		over := archiveBudget{offset: 12, limit: 10}
		_, err := over.copyPayload(io.Discard, strings.NewReader("a"), in, over.remaining())
		if !errors.Is(err, ErrArchiveSizeLimit) {
			t.Fatalf("expected ErrArchiveSizeLimit, got %v", err)
		}
	})
}
