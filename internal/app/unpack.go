package app

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/obb"
	"github.com/woozymasta/obb/internal/config"
)

// Unpack extracts archive into output directory
func (c *Obb) Unpack(cmd config.UnpackCmd) error {
	output := cmd.Output
	if len(output) == 0 {
		output = DefaultUnpackOutput(cmd.Archive)
	}

	logger := log.With().Str("archive", cmd.Archive).Str("output", output).Logger()

	r, err := obb.Open(cmd.Archive)
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %q", cmd.Archive)
	}
	defer func() { _ = r.Close() }()

	loc := r.Location()
	logger.Info().
		Int("entries", len(r.Entries())).
		Stringer("footer", loc.Shape).
		Int64("toc_offset", loc.Offset).
		Int64("toc_size", loc.Size).
		Msg("Extracting archive")

	res, err := r.Extract(c.ctx, output, obb.ExtractOptions{
		EntryPathPrefix: cmd.Prefix,
		OnEntryDone: func(entry obb.TocEntry, index int, total int, outputPath string) {
			logger.Debug().
				Str("path", entry.Path).
				Int("index", index).
				Int("total", total).
				Bool("dir", entry.IsDir()).
				Bool("container", entry.IsContainer()).
				Msg("Entry extracted")
		},
	})
	if err != nil {
		return errors.Wrapf(err, "cannot extract %q", cmd.Archive)
	}

	logger.Info().
		Int("files", res.Files).
		Int("directories", res.Directories).
		Int64("bytes", res.Bytes).
		Dur("duration", res.Duration).
		Msg("Archive extracted")

	return nil
}
