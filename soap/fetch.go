package soap

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig is the retry policy of WSDL downloads. SOAP calls are never
// retried: a failed call surfaces as a fault.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retries.
	MaxRetries uint

	// InitialInterval is the first wait, later waits grow by Multiplier up
	// to MaxInterval.
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// MaxElapsedTime bounds the whole retry loop. Zero means no bound.
	MaxElapsedTime time.Duration
}

// DefaultRetryConfig retries a download three times, starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  time.Minute,
	}
}

// NoRetryConfig disables retries.
func NoRetryConfig() RetryConfig {
	return RetryConfig{}
}

func (c RetryConfig) backOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.InitialInterval,
		RandomizationFactor: 0.5,
		Multiplier:          c.Multiplier,
		MaxInterval:         c.MaxInterval,
	}
}

// Fetch downloads a document with GET, retrying transport failures and 5xx
// replies. It implements wsdl.Fetcher.
func (s *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	cfg := s.opts.wsdlRetry

	op := func() ([]byte, error) {
		resp, err := s.transport.Send(ctx, url, NewRequest(), false)
		var te *TransportError
		switch {
		case errors.As(err, &te):
			return nil, err
		case err != nil:
			return nil, backoff.Permanent(err)
		case resp.StatusCode >= 500:
			return nil, &HTTPError{StatusCode: resp.StatusCode, ResponseBody: resp.Body()}
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(&HTTPError{StatusCode: resp.StatusCode, ResponseBody: resp.Body()})
		}
		return resp.Body(), nil
	}

	if cfg.MaxRetries == 0 {
		data, err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Unwrap()
		}
		return data, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(cfg.MaxRetries + 1),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log(LevelTrace, "Retrying WSDL fetch "+url+" in "+next.String()+": "+err.Error())
		}),
	}
	if cfg.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsedTime))
	}
	return backoff.Retry(ctx, op, opts...)
}
