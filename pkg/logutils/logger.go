package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/pkg/utils"
)

// New returns a logger that writes JSON to the specified file.
// If file is empty, logs go to stderr through the returned writer, using the
// console format when stderr is a terminal. Hold the writer while a full
// screen program owns the terminal.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level string, file string) (zerolog.Logger, *utils.DeferredWriter, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, nil, closer, err
	}

	stderr := utils.NewDeferredWriter(os.Stderr)
	var writer io.Writer = stderr
	if file != "" {
		logsDir := filepath.Dir(file)
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return zerolog.Logger{}, nil, closer, fmt.Errorf("create logs dir: %w", err)
		}

		osFile, err := os.Create(file)
		if err != nil {
			return zerolog.Logger{}, nil, closer, err
		}
		closer = func() { _ = osFile.Close() }
		writer = osFile
	} else if term.IsTerminal(int(os.Stderr.Fd())) {
		writer = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(writer).
		Hook(logging.ContextHook{}).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, stderr, closer, nil
}
