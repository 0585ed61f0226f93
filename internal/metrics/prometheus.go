package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/shortload/internal/recorder"
)

// PromSink exports results as Prometheus metrics on its own registry.
type PromSink struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewPromSink() *PromSink {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &PromSink{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shortload",
				Name:      "requests_total",
				Help:      "Requests issued, by request type and result.",
			},
			[]string{"type", "result"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shortload",
				Name:      "failures_total",
				Help:      "Failed requests, by request type and observed status.",
			},
			[]string{"type", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shortload",
				Name:      "request_duration_seconds",
				Help:      "Request latency as observed by virtual users.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
			},
			[]string{"type"},
		),
	}
}

// Record implements recorder.Sink.
func (p *PromSink) Record(res recorder.Result) {
	result := "success"
	if !res.Success {
		result = "failure"
		status := "none"
		if res.Status != 0 {
			status = strconv.Itoa(res.Status)
		}
		p.failures.WithLabelValues(res.Name, status).Inc()
	}
	p.requests.WithLabelValues(res.Name, result).Inc()
	p.latency.WithLabelValues(res.Name).Observe(res.Latency.Seconds())
}

func (p *PromSink) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PromSink) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (p *PromSink) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
