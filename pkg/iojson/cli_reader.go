package iojson

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader reads a T from the file named by its flag, decoding by file
// extension, or JSON from stdin when the flag is unset.
type FileReader[T any] struct {
	fileFlagValue string
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON, YAML or TOML file (reads JSON from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// Path returns the flag value.
func (fr *FileReader[T]) Path() string { return fr.fileFlagValue }

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	if fr.fileFlagValue != "" {
		err := DecodeFile(fr.fileFlagValue, &input)
		return input, err
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return input, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return input, fmt.Errorf("read stdin: %w", err)
	}
	err = Decode(FormatJSON, data, &input)
	return input, err
}
