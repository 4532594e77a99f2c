package app

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/obb"
	"github.com/woozymasta/obb/internal/config"
)

// Checksum appends or replaces the checksum section of an existing archive
func (c *Obb) Checksum(cmd config.ChecksumCmd) error {
	blocks, err := obb.AppendChecksums(cmd.Archive)
	if err != nil {
		return errors.Wrapf(err, "cannot patch checksums of %q", cmd.Archive)
	}

	log.Info().Str("archive", cmd.Archive).Int("blocks", blocks).Msg("Checksum section written")
	return nil
}

// Verify recomputes checksum section of an archive
func (c *Obb) Verify(cmd config.VerifyCmd) error {
	if err := obb.VerifyChecksums(cmd.Archive); err != nil {
		return errors.Wrapf(err, "verification of %q failed", cmd.Archive)
	}

	log.Info().Str("archive", cmd.Archive).Msg("Checksums match")
	return nil
}
