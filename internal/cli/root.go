// Package cli implements the alarmclock command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jondiko12/AlarmClock/internal/audio"
	"github.com/Jondiko12/AlarmClock/internal/config"
	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool

	viper *viper.Viper
}

// NewRootCommand creates the root command. Run without a subcommand it opens
// the terminal UI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "alarmclock",
		Short: "A terminal alarm clock",
		Long: `alarmclock rings daily alarms at a 24-hour wall-clock time.

Run it without arguments for the terminal UI (alarms, countdown timer and
stopwatch). The subcommands edit alarms from scripts, and "mcp" serves the
alarm engine to agents over stdio.

Settings come from <config dir>/alarmclock/config.yaml, ALARMCLOCK_*
environment variables and the flags below, in increasing priority.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts, cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default <config dir>/alarmclock/config.yaml)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	pf.String("db", "", "path to the alarm database")
	pf.Bool("mute", false, "never open the speaker")
	pf.Duration("snooze", 0, "how far a snooze pushes an alarm (e.g. 10m)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address")

	for key, flag := range map[string]string{
		config.KeyDBPath:      "db",
		config.KeyMute:        "mute",
		config.KeySnooze:      "snooze",
		config.KeyMetricsAddr: "metrics-addr",
	} {
		_ = opts.viper.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.viper, o.ConfigFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

func (o *RootOptions) level() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// openLog returns a logger appending to path. The terminal belongs to the
// UI or the MCP transport, so long-running commands never log to it.
func (o *RootOptions) openLog(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to create log dir", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to open log file", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: o.level()}))
	return logger, func() { f.Close() }, nil
}

// stderrLogger is for one-shot commands: warnings only unless --verbose.
func (o *RootOptions) stderrLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newPlayer opens the speaker, falling back to a silent player when muted or
// when no output device is available.
func newPlayer(cfg config.Config, logger *slog.Logger) engine.Player {
	if cfg.Mute {
		logger.Info("audio muted")
		return audio.NewSilent(logger)
	}
	p, err := audio.NewPlayer(
		audio.WithDefaultSound(cfg.DefaultSound),
		audio.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("no audio output, alarms will be silent", "err", err)
		return audio.NewSilent(logger)
	}
	return p
}

func newEngine(store *db.Store, player engine.Player, cfg config.Config, logger *slog.Logger) *engine.Engine {
	return engine.New(store, player,
		engine.WithTick(cfg.Tick),
		engine.WithSnooze(cfg.Snooze),
		engine.WithGradual(cfg.Gradual),
		engine.WithLogger(logger),
	)
}

func openStore(cfg config.Config) (*db.Store, error) {
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}
	return store, nil
}

// withEngine runs fn against a loaded engine that never polls or plays.
// One-shot commands edit the database through it so that they validate
// input exactly as the UI does.
func withEngine(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.stderrLogger(cmd.ErrOrStderr())

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(store, audio.NewSilent(logger), cfg, logger)
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("close engine", "err", err)
		}
	}()

	ctx := commandContext(cmd)
	if err := eng.Load(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to load alarms", err)
	}
	return fn(ctx, eng)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func engineExitError(message string, err error) error {
	code := ExitFailure
	if engine.ErrorCode(err) == engine.ErrInvalid {
		code = ExitCommandError
	}
	return &ExitError{Code: code, Message: fmt.Sprintf("%s: %s", message, engine.ErrorDescription(err))}
}
