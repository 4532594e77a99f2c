package app

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/obb"
	"github.com/woozymasta/obb/internal/config"
)

// Pack packs source directory into an archive
func (c *Obb) Pack(cmd config.PackCmd) error {
	output := cmd.Output
	if len(output) == 0 {
		output = DefaultPackOutput(cmd.Source)
	}

	logger := log.With().Str("source", cmd.Source).Str("output", output).Logger()

	opts := obb.PackOptions{
		CompressAll:    cmd.Compress,
		Checksum:       cmd.Checksum,
		MaxArchiveSize: cmd.MaxSize,
	}

	compression := "disabled"
	if cmd.Compress {
		compression = "all"
	}
	if len(cmd.CompressList) > 0 {
		list, err := loadSelectionList(logger, cmd.CompressList)
		if err != nil {
			return err
		}
		opts.Selection = list
		compression = "selective"
	}

	opts.OnEntryDone = func(p obb.PackEntryProgress) {
		logger.Debug().
			Str("path", p.Path).
			Int("index", p.Index).
			Int("total", p.Total).
			Int64("size", p.UncompressedSize).
			Int64("stored", p.CompressedSize).
			Bool("container", p.Container).
			Msg("Entry written")
	}

	logger.Info().Str("compression", compression).Bool("checksum", cmd.Checksum).Msg("Packing directory")
	res, err := obb.PackDir(c.ctx, cmd.Source, output, opts)
	if err != nil {
		return errors.Wrapf(err, "cannot pack %q", cmd.Source)
	}

	logger.Info().
		Int("files", res.WrittenFiles).
		Int("directories", res.Directories).
		Int("skipped", res.SkippedFiles).
		Int("containers", res.ContainerEntries).
		Int("raw_fallbacks", res.RawFallbackEntries).
		Int64("data_size", res.DataSize).
		Int64("toc_size", res.TocSize).
		Int("checksum_blocks", res.ChecksumBlocks).
		Dur("duration", res.Duration).
		Msg("Archive written")

	return nil
}

// loadSelectionList reads selective compression list and reports skipped lines
func loadSelectionList(logger zerolog.Logger, path string) (*obb.SelectionList, error) {
	list, err := obb.LoadSelectionList(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load compression list %q", path)
	}

	for _, skipped := range list.Skipped {
		logger.Warn().
			Str("list", path).
			Int("line", skipped.Line).
			Str("text", skipped.Text).
			Msg(skipped.Reason)
	}

	logger.Info().
		Str("list", path).
		Int("files", len(list.Files)).
		Int("dirs", len(list.Dirs)).
		Msg("Selective compression list loaded")

	return list, nil
}
