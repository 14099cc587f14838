package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/habitpulse/internal/collection"
	"github.com/roach88/habitpulse/internal/transfer"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	OutputFormat string
	Output       string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export habits to JSON, YAML or TOML",
		Long: `Export all habits with their progress.

The export can be read back with "habitpulse import". The global --format
flag does not apply; use --output-format.

Examples:
  habitpulse export > habits.json
  habitpulse export --output-format yaml -o habits.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := transfer.ParseFormat(opts.OutputFormat)
			if err == nil && f == transfer.FormatCUE {
				err = fmt.Errorf("%w: cue is import-only", transfer.ErrUnknownFormat)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --output-format", err)
			}

			a, err := openApp(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.close()

			lastReset, err := a.lastResetDate(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read last reset date", err)
			}
			doc := transfer.NewDocument(a.coll.Habits(), lastReset, time.Now())

			var buf bytes.Buffer
			if err := transfer.Export(&buf, f, doc); err != nil {
				return WrapExitError(ExitFailure, "failed to export habits", err)
			}

			if opts.Output == "" || opts.Output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
				return WrapExitError(ExitFailure, "failed to write export", err)
			}
			a.logger.Info("habits exported", "file", opts.Output, "habits", len(doc.Habits))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "json", "export format (json|yaml|toml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	File       string   `json:"file"`
	Read       int      `json:"read"`
	Added      int      `json:"added"`
	Skipped    int      `json:"skipped"`
	Backfilled int      `json:"backfilled"`
	Repaired   int      `json:"repaired"`
	Dropped    []string `json:"dropped,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import habits from a JSON, YAML, TOML or CUE file",
		Long: `Import habits from a file written by "habitpulse export", a habit list
exported by the browser version of HabitPulse, or a hand-written CUE file.

The format is taken from the file extension. CUE files are validated
against the habit schema before import. Habits whose id already exists
are skipped; the others are added after the current habits.

Examples:
  habitpulse import habits.json
  habitpulse import routine.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read import file", err)
			}

			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			habits, report, err := transfer.Import(path, data, time.Now(), collection.UUIDGenerator{}.NewID)
			if err != nil {
				code := ExitFailure
				if errors.Is(err, transfer.ErrUnknownFormat) {
					code = ExitCommandError
				}
				_ = a.out.Error(CodeInvalidInput, err.Error(), nil)
				return WrapExitError(code, "failed to import habits", err)
			}
			for _, reason := range report.Dropped {
				a.logger.Warn("skipped import record", "reason", reason)
			}

			added, err := a.coll.Import(cmd.Context(), habits)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to save imported habits", err)
			}

			res := ImportResult{
				File:       path,
				Read:       len(habits),
				Added:      added,
				Skipped:    len(habits) - added,
				Backfilled: report.Backfilled,
				Repaired:   report.Repaired,
				Dropped:    report.Dropped,
			}
			return a.out.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d of %d habits from %s\n", res.Added, res.Read, path)
				if res.Skipped > 0 {
					fmt.Fprintf(w, "Skipped %d already present\n", res.Skipped)
				}
				if n := len(res.Dropped); n > 0 {
					fmt.Fprintf(w, "Dropped %d invalid records\n", n)
				}
			})
		},
	}
}
