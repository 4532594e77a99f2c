package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/woozymasta/obb/internal/config"
)

// Configure configures logger
func Configure(cli config.Cli) {
	// Adds support for NO_COLOR. More info https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	log.Logger = New(os.Stderr, cli, noColor)

	logLevel, err := zerolog.ParseLevel(cli.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msgf("Unknown log level")
	} else {
		zerolog.SetGlobalLevel(logLevel)
	}
}

// New builds a logger writing to out with console or JSON encoding.
func New(out io.Writer, cli config.Cli, noColor bool) zerolog.Logger {
	var w io.Writer
	if !cli.LogJSON {
		w = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor || cli.LogNoColor,
			TimeFormat: time.RFC1123,
		}
	} else {
		w = out
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	ctx := zerolog.New(w).With().Timestamp()
	if cli.LogCaller {
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}
