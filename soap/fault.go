package soap

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// NoResultMessage is the fault string of the fault returned when a call
// produced neither a result nor a fault.
const NoResultMessage = "Data fetching error, check logs"

var (
	// ErrNoResult matches the fault returned when a call produced no result.
	ErrNoResult = errors.New("soap: no result")
	// ErrMalformedMultipart matches every multipart parse failure.
	ErrMalformedMultipart = errors.New("soap: malformed multipart response")
	// ErrTransport matches every transport level failure.
	ErrTransport = errors.New("soap: transport failure")
)

type FaultError interface {
	// ErrorString should return a short version of the detail as a string,
	// which will be used in place of <faultstring> for the error message.
	// Set "HasData()" to always return false if <faultstring> error
	// message is preferred.
	ErrorString() string
	// HasData indicates whether the composite fault contains any data.
	HasData() bool
}

// Fault is a SOAP fault. Remote faults are returned as decoded; faults raised
// by the client itself wrap the error that caused them.
type Fault struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`

	Code   string     `xml:"faultcode,omitempty"`
	String string     `xml:"faultstring,omitempty"`
	Actor  string     `xml:"faultactor,omitempty"`
	Detail FaultError `xml:"detail,omitempty"`

	cause error
}

func (f *Fault) Error() string {
	if f.Detail != nil && f.Detail.HasData() {
		return f.Detail.ErrorString()
	}
	return f.String
}

func (f *Fault) Unwrap() error {
	return f.cause
}

// IsRemote reports whether the fault was sent by the server.
func (f *Fault) IsRemote() bool {
	return f.cause == nil
}

func newNoResultFault() *Fault {
	return &Fault{Code: NoResultMessage, String: NoResultMessage, cause: ErrNoResult}
}

func newClientFault(err error) *Fault {
	return &Fault{Code: "Client", String: err.Error(), cause: err}
}

// HTTPError is returned when the server answers with an error status and no
// envelope.
type HTTPError struct {
	//StatusCode is the status code returned in the HTTP response
	StatusCode int
	//ResponseBody contains the body returned in the HTTP response
	ResponseBody []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Status %d: %s", e.StatusCode, string(e.ResponseBody))
}

// TransportError reports a failed exchange: dial, TLS, timeout or read errors.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("soap: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ParseError reports a multipart response that could not be split into an
// envelope and its attachments.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "soap: parse multipart response: " + e.Reason
	}
	return fmt.Sprintf("soap: parse multipart response: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedMultipart
}
