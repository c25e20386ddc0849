package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// alarmFile is the export and import document.
type alarmFile struct {
	Alarms []alarmRecord `json:"alarms" yaml:"alarms"`
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write active alarms as YAML or JSON",
		Long: `Write the active alarms to stdout or a file. The output can be read
back with "alarmclock import".

Example:
  alarmclock export > alarms.yaml
  alarmclock export --format json -o alarms.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "yaml", "output format (yaml|json)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	if opts.Format != "yaml" && opts.Format != "json" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be yaml or json", opts.Format))
	}
	return withEngine(opts.RootOptions, cmd, func(_ context.Context, eng *engine.Engine) error {
		w := cmd.OutOrStdout()
		if opts.Output != "" {
			f, err := os.Create(opts.Output)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to create output file", err)
			}
			defer f.Close()
			w = f
		}
		if err := encodeAlarms(w, opts.Format, eng.Alarms()); err != nil {
			return WrapExitError(ExitFailure, "failed to write alarms", err)
		}
		return nil
	})
}

func encodeAlarms(w io.Writer, format string, alarms []db.Alarm) error {
	doc := alarmFile{Alarms: toRecords(alarms)}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the alarms from an export file",
		Long: `Add every alarm listed in a YAML or JSON export file as a new active
alarm. Ids and snooze counts in the file are ignored. Nothing is added unless
every time in the file is valid.

Example:
  alarmclock import alarms.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	doc, err := readAlarmFile(path)
	if err != nil {
		return err
	}
	return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
		for i, r := range doc.Alarms {
			if _, err := eng.AddAlarm(ctx, r.Time, r.SoundPath, r.Note); err != nil {
				return engineExitError(fmt.Sprintf("failed to import alarm %d", i+1), err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d alarms\n", len(doc.Alarms))
		return nil
	})
}

// readAlarmFile parses path and checks every time before anything is
// written. JSON exports parse as YAML.
func readAlarmFile(path string) (alarmFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return alarmFile{}, WrapExitError(ExitCommandError, "failed to read import file", err)
	}
	var doc alarmFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return alarmFile{}, WrapExitError(ExitCommandError, "failed to parse import file", err)
	}
	for i, r := range doc.Alarms {
		if _, err := db.ParseTimeOfDay(r.Time); err != nil {
			return alarmFile{}, WrapExitError(ExitCommandError, fmt.Sprintf("alarm %d", i+1), err)
		}
	}
	return doc, nil
}
