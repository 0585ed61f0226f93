// Package executor turns a request type into a concrete HTTP call and
// captures its status, latency and transport error.
package executor

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/shortload/internal/catalog"
	"github.com/torosent/shortload/internal/recorder"
	"github.com/torosent/shortload/internal/tracing"
	"github.com/torosent/shortload/internal/valuespace"
)

// DefaultHeaders are sent with every request.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

// Executor is shared by all virtual users. It holds no per-request state.
type Executor struct {
	transport Transport
	space     valuespace.Space
	headers   http.Header
	tracer    trace.Tracer
	propagate bool
}

// Option customises an Executor.
type Option func(*Executor)

// WithHeaders replaces the default headers.
func WithHeaders(h http.Header) Option {
	return func(e *Executor) {
		e.headers = h.Clone()
	}
}

// WithTracing wraps each request in a client span and, when propagate is set,
// injects W3C trace context into the request headers.
func WithTracing(provider *tracing.Provider) Option {
	return func(e *Executor) {
		e.tracer = provider.Tracer()
		e.propagate = provider.ShouldPropagate()
	}
}

func New(transport Transport, space valuespace.Space, opts ...Option) *Executor {
	e := &Executor{
		transport: transport,
		space:     space,
		headers:   DefaultHeaders(),
		tracer:    noop.NewTracerProvider().Tracer("shortload"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute builds and sends one request of type rt. ok is false when ctx was
// cancelled while the call was in flight; such a call yields no outcome.
// Transport failures are reported in Outcome.Err, never returned.
func (e *Executor) Execute(ctx context.Context, rt *catalog.RequestType, rnd *rand.Rand) (recorder.Outcome, bool) {
	req := rt.Build(e.space, rnd)

	ctx, span := tracing.StartRequestSpan(ctx, e.tracer, rt.Name, req.Method, req.Path)
	headers := e.headers
	if e.propagate {
		headers = headers.Clone()
		tracing.InjectHTTPHeaders(ctx, headers)
	}

	start := time.Now()
	status, err := e.transport.Send(ctx, req, headers)
	latency := time.Since(start)

	if err != nil && ctx.Err() != nil {
		tracing.EndSpan(span, ctx.Err())
		return recorder.Outcome{}, false
	}

	var attrs []attribute.KeyValue
	if err == nil {
		attrs = append(attrs,
			attribute.Int("http.response.status_code", status),
			attribute.Bool("shortload.accepted", rt.Acceptable.Contains(status)),
		)
	}
	tracing.EndSpan(span, err, attrs...)

	return recorder.Outcome{
		Type:    rt,
		Status:  status,
		Latency: latency,
		Err:     err,
	}, true
}
