package soap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrBreakerOpen is returned, wrapped in a *TransportError, when the circuit
// breaker rejects an exchange.
var ErrBreakerOpen = errors.New("soap: circuit breaker open")

// BreakerConfig configures the circuit breaker guarding the endpoint.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and state change callbacks.
	Name string

	// MaxRequests is the number of exchanges allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which the
	// counts are cleared. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker after that many failures in a
	// row. Zero disables the rule.
	ConsecutiveFailures uint32

	// FailureRatio trips the breaker once failures/requests reaches it, when
	// at least MinRequests were seen. Zero disables the rule.
	FailureRatio float64
	MinRequests  uint32

	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the breaker settings used by the config file
// loader when a breaker is enabled without further settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "soap-endpoint",
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         20,
	}
}

func (c BreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if c.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= c.ConsecutiveFailures {
		return true
	}
	if c.FailureRatio > 0 && counts.Requests >= c.MinRequests && counts.Requests > 0 {
		ratio := float64(counts.TotalFailures) / float64(counts.Requests)
		if ratio >= c.FailureRatio {
			return true
		}
	}
	return false
}

// breakerTransport counts transport failures and 5xx replies without an
// envelope as breaker failures. SOAP faults are answers, not failures.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker[*http.Response]
	next    http.RoundTripper
	tel     *telemetry
	name    string
}

var errServerFailure = errors.New("server failure")

func newBreakerTransport(next http.RoundTripper, cfg *BreakerConfig, tel *telemetry) http.RoundTripper {
	if cfg == nil {
		return next
	}

	name := cfg.Name
	if name == "" {
		name = "soap-endpoint"
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if tel != nil {
				tel.breakerState.Record(context.Background(), int64(to),
					metric.WithAttributes(attribute.String("breaker.name", name)))
			}
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &breakerTransport{
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
		next:    next,
		tel:     tel,
		name:    name,
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 && resp.ContentLength == 0 {
			return resp, errServerFailure
		}
		return resp, nil
	})

	switch {
	case err == nil:
		t.record(req.Context(), "success")
		return resp, nil
	case errors.Is(err, errServerFailure):
		t.record(req.Context(), "failure")
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.record(req.Context(), "rejected")
		return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, t.name)
	default:
		t.record(req.Context(), "failure")
		return nil, err
	}
}

func (t *breakerTransport) record(ctx context.Context, result string) {
	if t.tel == nil {
		return
	}
	t.tel.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", t.name),
		attribute.String("result", result),
	))
}
