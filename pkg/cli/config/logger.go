package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Logger holds logger configuration
type Logger struct {
	Level     string
	JSON      bool
	Verbosity string

	// Writer receives log output, os.Stderr when nil
	Writer io.Writer
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error), overrides --verbosity",
			Destination: &c.Level,
			Sources:     cli.EnvVars("COVIDNET_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Output logs in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("COVIDNET_LOG_JSON"),
		},
		&cli.StringFlag{
			Name:        "verbosity",
			Aliases:     []string{"v"},
			Usage:       "Verbosity level for app (0-3)",
			Value:       "0",
			Destination: &c.Verbosity,
		},
	}
}

// levelFromVerbosity maps the ChRIS verbosity level onto a log level name
func levelFromVerbosity(verbosity string) string {
	switch strings.TrimSpace(verbosity) {
	case "", "0", "1":
		return "info"
	default:
		return "debug"
	}
}

// ParseLevel converts a level name to slog.Level, ignoring case
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, goerr.New("invalid log level",
			goerr.V("level", name),
			goerr.T(types.ErrTagInvalidArgs))
	}
}

// Configure configures and returns a logger
func (c *Logger) Configure() (*slog.Logger, error) {
	name := c.Level
	if name == "" {
		name = levelFromVerbosity(c.Verbosity)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}

	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	// Fields tagged masq:"secret" never reach the output
	redact := masq.New(masq.WithTag("secret"))

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redact,
		})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColor(isTerminal(w)),
			clog.WithReplaceAttr(redact),
		)
	}

	return slog.New(handler), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
