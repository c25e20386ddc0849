package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// alarmRecord is the serialized form of an alarm in list and export output.
type alarmRecord struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Time        string `json:"time" yaml:"time"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
	SoundPath   string `json:"sound_path,omitempty" yaml:"sound_path,omitempty"`
	SnoozeCount int    `json:"snooze_count,omitempty" yaml:"snooze_count,omitempty"`
}

func toRecords(alarms []db.Alarm) []alarmRecord {
	records := make([]alarmRecord, 0, len(alarms))
	for _, a := range alarms {
		records = append(records, alarmRecord{
			ID:          a.ID,
			Time:        a.Time.String(),
			Note:        a.Note,
			SoundPath:   a.SoundPath,
			SnoozeCount: a.SnoozeCount,
		})
	}
	return records
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Format string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active alarms",
		Long: `List the active alarms in the order they were added.

Example:
  alarmclock list
  alarmclock list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Format != "text" && opts.Format != "json" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be text or json", opts.Format))
	}
	return withEngine(opts.RootOptions, cmd, func(_ context.Context, eng *engine.Engine) error {
		alarms := eng.Alarms()
		if opts.Format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(toRecords(alarms))
		}
		return writeAlarmTable(cmd.OutOrStdout(), alarms)
	})
}

func writeAlarmTable(w io.Writer, alarms []db.Alarm) error {
	if len(alarms) == 0 {
		_, err := fmt.Fprintln(w, "No alarms set.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s%-7s%-9s%s\n", "ID", "TIME", "SNOOZED", "NOTE")
	for _, a := range alarms {
		note := a.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(&b, "%-4d%-7s%-9d%s\n", a.ID, a.Time.String(), a.SnoozeCount, note)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
