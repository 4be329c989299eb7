package soap

import (
	"fmt"
	"time"
)

type CallContent struct {
	Header []string
	Body   string
}

// CallResult records the last exchange of a client.
type CallResult struct {
	ID              string
	Operation       string
	RequestURL      string
	Action          string
	StatusCode      int
	RequestContent  CallContent
	ResponseContent CallContent
	InvokeAt        time.Time
	ReturnAt        time.Time
	DecodedAt       time.Time
}

// Timings renders the exchange timings for DebugTimings.
func (r *CallResult) Timings() string {
	var decode time.Duration
	if !r.DecodedAt.IsZero() {
		decode = r.DecodedAt.Sub(r.ReturnAt)
	}
	return fmt.Sprintf("call %s %s to %s: status %d, transfer %s, decode %s",
		r.ID, r.Operation, r.RequestURL, r.StatusCode, r.ReturnAt.Sub(r.InvokeAt), decode)
}
