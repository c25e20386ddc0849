// Package metrics exports alarm activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// Recorder counts trigger lifecycle events.
type Recorder struct {
	triggered prometheus.Counter
	stopped   prometheus.Counter
	snoozed   prometheus.Counter
}

// NewRecorder registers the alarm metrics with reg. active reports the size
// of the active alarm set at scrape time.
func NewRecorder(reg prometheus.Registerer, active func() int) *Recorder {
	r := &Recorder{
		triggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alarmclock_alarms_triggered_total",
			Help: "Alarms that started ringing.",
		}),
		stopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alarmclock_alarms_stopped_total",
			Help: "Ringing alarms dismissed with stop.",
		}),
		snoozed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alarmclock_alarms_snoozed_total",
			Help: "Ringing alarms snoozed.",
		}),
	}
	reg.MustRegister(
		r.triggered,
		r.stopped,
		r.snoozed,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "alarmclock_alarms_active",
			Help: "Alarms currently scheduled.",
		}, func() float64 { return float64(active()) }),
	)
	return r
}

// Observe updates the counters for ev. Pass it to engine.Subscribe.
func (r *Recorder) Observe(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTriggered:
		r.triggered.Inc()
	case engine.EventStopped:
		r.stopped.Inc()
	case engine.EventSnoozed:
		r.snoozed.Inc()
	}
}

// Serve exposes g on addr at /metrics until ctx is canceled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server forced to shutdown", "err", err)
		}
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
