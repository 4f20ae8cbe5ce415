package kfmt

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LogConfig controls the format of the kernel log.
type LogConfig struct {
	Level     zerolog.Level
	NoColor   bool
	Timestamp bool
}

// DefaultLogConfig returns the log settings used before a configuration file
// has been loaded. Colour is only enabled when stdout is a terminal.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:   zerolog.InfoLevel,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

var rootLogger = newLogger(DefaultLogConfig())

// ConfigureLogger rebuilds the kernel logger. Loggers obtained through Logger
// before this call keep their previous settings.
func ConfigureLogger(cfg LogConfig) {
	rootLogger = newLogger(cfg)
}

// Logger returns a logger that tags every entry with the supplied module
// name. All output goes to the active output sink.
func Logger(module string) zerolog.Logger {
	return rootLogger.With().Str("module", module).Logger()
}

func newLogger(cfg LogConfig) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        sinkProxy{},
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(output).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}

	return ctx.Logger()
}
