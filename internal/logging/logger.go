// Package logging sets up the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the global logger. Output always goes to stderr; when a
// file is configured it is also written to a rotating log file.
func Init(opts Options) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	log.Logger = zerolog.New(writer(opts)).With().Timestamp().Logger()
	// log.Ctx falls back to the global logger for contexts without one
	zerolog.DefaultContextLogger = &log.Logger
}

func writer(opts Options) io.Writer {
	if strings.TrimSpace(opts.File) == "" {
		return os.Stderr
	}
	return zerolog.MultiLevelWriter(os.Stderr, &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
