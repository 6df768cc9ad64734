package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Development gets a console
// writer at debug level; every other environment logs JSON at info level.
func Setup(environment string) zerolog.Logger {
	var w io.Writer = os.Stdout
	return SetupWithWriter(environment, w)
}

func SetupWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w}
	}

	logger := zerolog.New(w).With().Timestamp().Str("service", "itinerary").Logger().Level(level)
	log.Logger = logger
	return logger
}
