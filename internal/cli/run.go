package cli

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Jondiko12/AlarmClock/internal/app"
	"github.com/Jondiko12/AlarmClock/internal/config"
	"github.com/Jondiko12/AlarmClock/internal/engine"
	"github.com/Jondiko12/AlarmClock/internal/metrics"
)

func runTUI(opts *RootOptions, cmd *cobra.Command) error {
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
	player := newPlayer(cfg, logger)
	eng := newEngine(store, player, cfg, logger)
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

	model := app.New(eng,
		app.WithSettings(store),
		app.WithSounder(player, cfg.DefaultSound),
		app.WithLogger(logger),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return WrapExitError(ExitFailure, "terminal UI failed", err)
	}
	logger.Info("alarmclock exiting")
	return nil
}

// startMetrics serves Prometheus metrics for eng until ctx ends. It does
// nothing unless metrics_addr is set.
func startMetrics(ctx context.Context, cfg config.Config, eng *engine.Engine, logger *slog.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg, func() int { return len(eng.Alarms()) })
	eng.Subscribe(rec.Observe)

	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			logger.Error("metrics server", "addr", cfg.MetricsAddr, "err", err)
		}
	}()
}
