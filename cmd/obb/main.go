package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/obb/internal/app"
	"github.com/woozymasta/obb/internal/config"
	"github.com/woozymasta/obb/internal/logging"
)

var (
	tool    *app.Obb
	cli     config.Cli
	version = "dev"
	meta    = config.Meta{
		ID:     "obb",
		Name:   "OBB",
		Desc:   "Pack and unpack Aspyr .obb asset archives",
		URL:    "https://github.com/woozymasta/obb",
		Author: "WoozyMasta",
	}
)

func main() {
	var err error

	meta.Version = version
	meta.UserAgent = fmt.Sprintf("%s/%s go/%s %s", meta.ID, meta.Version, runtime.Version()[2:], runtime.GOOS)

	kctx := kong.Parse(&cli,
		kong.Name(meta.ID),
		kong.Description(fmt.Sprintf("%s. More info: %s", meta.Desc, meta.URL)),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Logging
	logging.Configure(cli)

	// Init
	if tool, err = app.New(meta, cli); err != nil {
		log.Fatal().Err(err).Msg("cannot initialize obb")
	}

	// Handle os signals
	channel := make(chan os.Signal, 1)
	signal.Notify(channel, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-channel
		tool.Close()
		log.Warn().Msgf("caught signal %v", sig)
	}()

	// Start
	if err = tool.Start(kctx.Command()); err != nil {
		log.Fatal().Stack().Err(err).Send()
	}
}
