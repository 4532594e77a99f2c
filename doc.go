// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

/*
Package obb reads and writes Aspyr .obb asset archives used by mobile game ports.

Archive layout (every integer is a little-endian int64):

	[payload 0] ... [payload N-1]
	[zlib TOC: count, then per entry name_len, name, offset, usize, csize]
	[toc_offset][toc_size]
	[crc 0] ... [crc K-1][K]   optional checksum section, 0 < K < 128

Payloads are stored raw or as a Container: the file split into 4096-byte
chunks, each chunk compressed separately, followed by a compressed mini-TOC
and a 16-byte Container footer. A Container is kept only when it is smaller
than the raw file.

Compression rules (summary):
  - without a selective list, PackOptions.CompressAll makes every file a candidate;
  - with PackOptions.Selection, only listed files and files below listed directories are candidates;
  - selective lists match case-insensitively from archive root and do not support wildcards;
  - a candidate is stored raw when its Container would not be smaller.

# Reading

Open an archive and list or read entries:

	r, err := obb.Open("main.obb")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    if e.IsDir() {
	        continue
	    }
	    data, _ := r.ReadEntry(e.Path)
	    // use data
	}

For metadata-only scans:

	entries, err := obb.ListEntries("main.obb")

# Extracting

	res, err := obb.Unpack(ctx, "main.obb", "out/", obb.ExtractOptions{
	    OnEntryDone: func(e obb.TocEntry, index, total int, outPath string) {
	        // progress callback per recreated entry
	    },
	})

Entry sizes are checked against the TOC; a mismatch returns ErrSizeMismatch.
Zero-size entries are recreated as directories.

# Packing

Pack a directory tree with selective compression and a checksum section:

	list, err := obb.LoadSelectionList("compress.txt")
	if err != nil {
	    return err
	}
	res, err := obb.PackDir(ctx, "assets/", "main.obb", obb.PackOptions{
	    Selection: list,
	    Checksum:  true,
	})

Or pack stream-oriented inputs to any writer (payloads in input order,
TOC sorted by case-insensitive path):

	inputs := []obb.Input{
	    {Path: "data/config.json", Open: func() (io.ReadCloser, error) { return os.Open("src/config.json") }},
	    {Path: "empty", Dir: true},
	}
	res, err := obb.Pack(ctx, w, inputs, obb.PackOptions{CompressAll: true})

# Checksums

AppendChecksums replaces any existing checksum section with CRC-64/ECMA values
over 32 MiB blocks of everything before it; VerifyChecksums recomputes them.
*/
package obb
