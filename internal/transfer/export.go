package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/habitpulse/internal/habit"
)

// DocumentVersion is the version written by Export.
const DocumentVersion = 1

// Document is an exported collection.
type Document struct {
	Version       int           `json:"version" yaml:"version" toml:"version"`
	ExportedAt    time.Time     `json:"exportedAt" yaml:"exportedAt" toml:"exportedAt"`
	LastResetDate string        `json:"lastResetDate,omitempty" yaml:"lastResetDate,omitempty" toml:"lastResetDate,omitempty"`
	Habits        []habit.Habit `json:"habits" yaml:"habits" toml:"habits"`
}

// NewDocument wraps habits for export.
func NewDocument(habits []habit.Habit, lastReset string, now time.Time) Document {
	if habits == nil {
		habits = []habit.Habit{}
	}
	return Document{
		Version:       DocumentVersion,
		ExportedAt:    now.UTC(),
		LastResetDate: lastReset,
		Habits:        habits,
	}
}

// Export writes doc to w in format f.
func Export(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("export yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("export toml: %w", err)
		}
	default:
		return fmt.Errorf("%w: cannot export %q", ErrUnknownFormat, f)
	}
	return nil
}
