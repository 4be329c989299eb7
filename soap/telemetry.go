package soap

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationScope = "github.com/cheyinl/dependable-soap/soap"

// telemetry holds the tracer and the metric instruments of one client.
type telemetry struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	callDuration    metric.Float64Histogram
	calls           metric.Int64Counter
	requestDuration metric.Float64Histogram
	breakerRequests metric.Int64Counter
	breakerState    metric.Int64Gauge
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationScope)

	t := &telemetry{
		tracer: tp.Tracer(instrumentationScope),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	var err error
	t.callDuration, err = meter.Float64Histogram(
		"soap.client.call.duration",
		metric.WithDescription("Duration of SOAP calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	t.calls, err = meter.Int64Counter(
		"soap.client.calls",
		metric.WithDescription("Number of completed SOAP calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	t.requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	t.breakerRequests, err = meter.Int64Counter(
		"soap.client.breaker.requests",
		metric.WithDescription("Requests seen by the circuit breaker by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	t.breakerState, err = meter.Int64Gauge(
		"soap.client.breaker.state",
		metric.WithDescription("Circuit breaker state: 0 closed, 1 half-open, 2 open"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (t *telemetry) startCall(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "SOAP "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "soap"),
			attribute.String("rpc.method", operation),
		),
	)
}

func (t *telemetry) endCall(ctx context.Context, span trace.Span, operation string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "fault"
		var f *Fault
		if errors.As(err, &f) && !f.IsRemote() {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("soap.outcome", outcome))
	span.End()

	attrs := metric.WithAttributes(
		attribute.String("rpc.method", operation),
		attribute.String("soap.outcome", outcome),
	)
	t.callDuration.Record(ctx, d.Seconds(), attrs)
	t.calls.Add(ctx, 1, attrs)
}

// otelTransport wraps an http.RoundTripper with a client span and a duration
// histogram per exchange.
type otelTransport struct {
	base http.RoundTripper
	tel  *telemetry
}

var _ http.RoundTripper = (*otelTransport)(nil)

func newOtelTransport(base http.RoundTripper, tel *telemetry) http.RoundTripper {
	if tel == nil {
		return base
	}
	return &otelTransport{base: base, tel: tel}
}

func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx, span := t.tel.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	t.tel.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.base.RoundTrip(req)
	d := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.tel.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("error.type", "transport"),
		))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}
	t.tel.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.Int("http.response.status_code", resp.StatusCode),
	))
	return resp, nil
}
