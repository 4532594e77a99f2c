package app

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/woozymasta/obb/internal/config"
)

// Obb represents an active obb tool invocation
type Obb struct {
	ctx    context.Context
	cancel context.CancelFunc
	meta   config.Meta
	cli    config.Cli
	out    io.Writer
}

// New creates new obb instance
func New(meta config.Meta, cli config.Cli) (*Obb, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &Obb{
		ctx:    ctx,
		cancel: cancel,
		meta:   meta,
		cli:    cli,
		out:    os.Stdout,
	}, nil
}

// Start runs the selected kong command (eg. "pack <source>")
func (c *Obb) Start(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("no command selected")
	}

	switch fields[0] {
	case "pack":
		return c.Pack(c.cli.Pack)
	case "unpack":
		return c.Unpack(c.cli.Unpack)
	case "checksum":
		return c.Checksum(c.cli.Checksum)
	case "verify":
		return c.Verify(c.cli.Verify)
	case "list":
		return c.List(c.cli.List)
	default:
		return errors.Errorf("unknown command %q", fields[0])
	}
}

// Close cancels running operations
func (c *Obb) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}
