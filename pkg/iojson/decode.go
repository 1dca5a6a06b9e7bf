package iojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a file extension with no decoder.
var ErrUnknownFormat = errors.New("unknown file format")

// Format is a structured document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Decode unmarshals data in the given format into v. Unknown fields are
// rejected for JSON and YAML; TOML reports them as an error as well.
func Decode(format Format, data []byte, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("decode TOML: unknown field %q", undecoded[0].String())
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// DecodeFile reads path and decodes it by extension.
func DecodeFile(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return Decode(format, data, v)
}
