package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level  string
	Format string
}

// New builds the process logger and installs it as gnark's logger too, so
// compiler and setup output share level and format.
func New(cfg Config, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level: %w", err)
		}
		level = lvl
	}

	switch strings.ToLower(cfg.Format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case FormatJSON:
		zerolog.TimeFieldFormat = time.RFC3339Nano
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	// gnark reports compile and setup progress at info; show it only when debugging
	gnarkLevel := level
	if level == zerolog.InfoLevel {
		gnarkLevel = zerolog.WarnLevel
	}
	gnarklogger.Set(logger.Level(gnarkLevel).With().Str("module", "gnark").Logger())
	return logger, nil
}
