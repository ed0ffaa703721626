package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"reelcraft/internal/paths"
)

// Options controls where log lines go.
type Options struct {
	Verbose bool
	// Console receives human-readable lines. Nil disables console output.
	Console io.Writer
	// JSON switches the console to raw JSON lines.
	JSON bool
}

// New creates a logger that writes JSON lines to a timestamped file inside
// the workspace's logs directory, plus an optional console stream. The
// returned closer should be closed when logging is no longer needed.
func New(p paths.WorkspacePaths, opts Options) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	file, err := os.OpenFile(filepath.Join(p.LogsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	writers := []io.Writer{file}
	if opts.Console != nil {
		writers = append(writers, consoleWriter(opts.Console, opts.JSON))
	}
	return NewLogger(level(opts.Verbose), writers...), file, nil
}

// NewLogger builds a timestamped logger over one or more writers.
func NewLogger(lvl zerolog.Level, writers ...io.Writer) zerolog.Logger {
	var out io.Writer
	switch len(writers) {
	case 0:
		return zerolog.Nop()
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Component tags a logger with the subsystem that emits through it.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func consoleWriter(w io.Writer, raw bool) io.Writer {
	if raw {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
