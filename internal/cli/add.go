package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Sound string
	Note  string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <HH:MM>",
		Short: "Add a daily alarm",
		Long: `Add an alarm that rings every day at the given 24-hour time.

Example:
  alarmclock add 07:30
  alarmclock add 06:45 --note "Standup" --sound ~/sounds/bell.mp3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sound, "sound", "", "WAV or MP3 file to play (default: built-in tone)")
	cmd.Flags().StringVar(&opts.Note, "note", "", "message shown when the alarm rings")

	return cmd
}

func runAdd(opts *AddOptions, timeStr string, cmd *cobra.Command) error {
	return withEngine(opts.RootOptions, cmd, func(ctx context.Context, eng *engine.Engine) error {
		a, err := eng.AddAlarm(ctx, timeStr, opts.Sound, opts.Note)
		if err != nil {
			return engineExitError("failed to add alarm", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added alarm %d at %s\n", a.ID, a.Time)
		return nil
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an alarm",
		Long: `Deactivate the alarm with the given id (see "alarmclock list").

Example:
  alarmclock delete 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
}

func runDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid alarm id %q", arg))
	}
	return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
		if !hasAlarm(eng, id) {
			return NewExitError(ExitFailure, fmt.Sprintf("no active alarm with id %d", id))
		}
		if err := eng.DeleteAlarm(ctx, id); err != nil {
			return engineExitError("failed to delete alarm", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted alarm %d\n", id)
		return nil
	})
}

func hasAlarm(eng *engine.Engine, id int64) bool {
	for _, a := range eng.Alarms() {
		if a.ID == id {
			return true
		}
	}
	return false
}
