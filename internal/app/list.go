package app

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/woozymasta/obb"
	"github.com/woozymasta/obb/internal/config"
)

// List prints archive entries
func (c *Obb) List(cmd config.ListCmd) error {
	entries, err := obb.ListEntriesWithOptions(cmd.Archive, obb.ReaderOptions{EntryPathPrefix: cmd.Prefix})
	if err != nil {
		return errors.Wrapf(err, "cannot read TOC of %q", cmd.Archive)
	}

	if cmd.JSON {
		enc := json.NewEncoder(c.out)
		for _, entry := range entries {
			if err := enc.Encode(entry); err != nil {
				return errors.Wrap(err, "cannot encode entry")
			}
		}
		return nil
	}

	for _, entry := range entries {
		kind := "raw"
		switch {
		case entry.IsDir():
			kind = "dir"
		case entry.IsContainer():
			kind = "zlib"
		}

		if _, err := fmt.Fprintf(c.out, "%-4s %12d %12d %12d  %s\n",
			kind, entry.Offset, entry.UncompressedSize, entry.CompressedSize, entry.Path); err != nil {
			return errors.Wrap(err, "cannot write entry")
		}
	}

	return nil
}
