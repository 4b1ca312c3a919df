package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labelfwd"

// Run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeNoLabel = "no_label"
	OutcomeError   = "error"
)

// Forwarding counts forwarding activity. A nil *Forwarding discards
// observations so services can run without metrics.
type Forwarding struct {
	runs        *prometheus.CounterVec
	threads     *prometheus.CounterVec
	sends       prometheus.Counter
	forwarded   prometheus.Counter
	attachments prometheus.Counter
	lastSuccess prometheus.Gauge
	now         func() time.Time
}

// NewForwarding registers the forwarding metrics with reg.
func NewForwarding(reg prometheus.Registerer) *Forwarding {
	f := promauto.With(reg)
	return &Forwarding{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Forwarding runs by outcome.",
		}, []string{"outcome"}),
		threads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_total",
			Help:      "Unread threads processed by status.",
		}, []string{"status"}),
		sends: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_attempts_total",
			Help:      "Forward send calls issued.",
		}),
		forwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_forwarded_total",
			Help:      "Messages forwarded successfully.",
		}),
		attachments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_forwarded_total",
			Help:      "Attachments carried on successful forwards.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without a top-level error.",
		}),
		now: time.Now,
	}
}

// ObserveRun records the end of a run.
func (f *Forwarding) ObserveRun(labelFound bool, err error) {
	if f == nil {
		return
	}
	switch {
	case err != nil:
		f.runs.WithLabelValues(OutcomeError).Inc()
		return
	case !labelFound:
		f.runs.WithLabelValues(OutcomeNoLabel).Inc()
	default:
		f.runs.WithLabelValues(OutcomeOK).Inc()
	}
	f.lastSuccess.Set(float64(f.now().Unix()))
}

// ObserveThread records one processed thread.
func (f *Forwarding) ObserveThread(err error) {
	if f == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	f.threads.WithLabelValues(status).Inc()
}

// ObserveSendAttempt records a send call about to be issued.
func (f *Forwarding) ObserveSendAttempt() {
	if f == nil {
		return
	}
	f.sends.Inc()
}

// ObserveForwarded records a successful forward carrying n attachments.
func (f *Forwarding) ObserveForwarded(n int) {
	if f == nil {
		return
	}
	f.forwarded.Inc()
	f.attachments.Add(float64(n))
}

// Serve exposes reg on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}
