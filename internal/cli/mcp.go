package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Jondiko12/AlarmClock/internal/mcp"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the alarm engine as MCP tools over stdio",
		Long: `Run the alarm engine headless and expose it to an MCP client on
stdin/stdout. Alarms ring on this machine's speaker exactly as they do in the
terminal UI; the client lists, adds and deletes alarms and answers the ringing
one with stop_alarm or snooze_alarm.

Logs go to the configured log file because stdout carries the protocol.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(rootOpts, cmd)
		},
	}
}

func runMCP(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := opts.openLog(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(store, newPlayer(cfg, logger), cfg, logger)
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("close engine", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := eng.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start alarm engine", err)
	}
	startMetrics(ctx, cfg, eng, logger)

	logger.Info("mcp server starting", "version", mcp.Version)
	if err := mcp.Serve(eng); err != nil {
		return WrapExitError(ExitFailure, "mcp server failed", err)
	}
	return nil
}
