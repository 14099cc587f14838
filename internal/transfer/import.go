package transfer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/habitpulse/internal/habit"
)

//go:embed schema.cue
var schemaSource string

// ErrNoHabits is returned when an import document has no habits field.
var ErrNoHabits = errors.New("no habits field")

// Import decodes the habits in data, whose format is taken from name's
// extension. Records get the same migration as stored data; newID supplies
// ids for records without one.
func Import(name string, data []byte, now time.Time, newID func() string) ([]habit.Habit, habit.MigrationReport, error) {
	f, err := FormatOf(name)
	if err != nil {
		return nil, habit.MigrationReport{}, err
	}

	raw, err := normalize(f, name, data)
	if err != nil {
		return nil, habit.MigrationReport{}, err
	}
	return habit.Decode(raw, now, newID)
}

// normalize returns the habits in data as a JSON array.
func normalize(f Format, name string, data []byte) ([]byte, error) {
	switch f {
	case FormatCUE:
		return fromCUE(name, data)
	case FormatJSON:
		return fromJSON(data)
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return habitsField(doc)
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		return habitsField(doc)
	default:
		return nil, fmt.Errorf("%w: cannot import %q", ErrUnknownFormat, f)
	}
}

func fromJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, nil
	}

	var doc struct {
		Habits json.RawMessage `json:"habits"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if doc.Habits == nil {
		return nil, ErrNoHabits
	}
	return doc.Habits, nil
}

func habitsField(doc map[string]any) ([]byte, error) {
	habits, ok := doc["habits"]
	if !ok {
		return nil, ErrNoHabits
	}
	out, err := json.Marshal(habits)
	if err != nil {
		return nil, fmt.Errorf("convert habits: %w", err)
	}
	return out, nil
}

func fromCUE(name string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse cue: %s", cueerrors.Details(err, nil))
	}
	if !value.LookupPath(cue.ParsePath("habits")).Exists() {
		return nil, ErrNoHabits
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %s", name, cueerrors.Details(err, nil))
	}

	out, err := unified.LookupPath(cue.ParsePath("habits")).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("convert habits: %w", err)
	}
	return out, nil
}
