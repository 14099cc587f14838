package transfer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

// ErrUnknownFormat is returned for unsupported format names or extensions.
var ErrUnknownFormat = errors.New("unknown format")

// ExportFormats lists the formats Export can write.
var ExportFormats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ParseFormat parses a format name, case-insensitively. "yml" is accepted as
// YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, name)
	}
	return ParseFormat(ext)
}
