package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/config"
)

// initLogging configures the global zerolog logger from cfg
func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	log.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Str("sink", cfg.Sink).
		Msg("Configuration loaded")
}

// ensureLevel lowers the global level to at least l
func ensureLevel(l zerolog.Level) {
	if zerolog.GlobalLevel() > l {
		zerolog.SetGlobalLevel(l)
	}
}
