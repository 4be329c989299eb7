package soap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/cheyinl/dependable-soap/wsdl"
)

// ErrRateLimited is wrapped by the fault returned when a call could not get
// a rate limiter token before its context ended.
var ErrRateLimited = errors.New("soap: rate limited")

// Client is soap client. Calls on one client are serialized; use one client
// per goroutine for parallel calls.
type Client struct {
	wsdl      string
	wsdlPath  string
	opts      *options
	binding   Binding
	transport *Transport
	tel       *telemetry
	stats     *Stats
	logger    Logger
	status    atomic.Int32

	mu              sync.Mutex
	request         *Request
	lastRequest     []byte
	lastResponse    []byte
	lastAttachments []*Part
	lastResult      *CallResult
	transportFailed bool
}

// NewClient creates new SOAP client instance. wsdl is a URL or a local path;
// it may be empty when the binding needs no WSDL and an endpoint is set.
func NewClient(wsdl string, opt ...Option) (*Client, error) {
	return NewClientContext(context.Background(), wsdl, opt...)
}

// NewClientContext is NewClient with a context bounding the WSDL preload.
func NewClientContext(ctx context.Context, wsdlSource string, opt ...Option) (*Client, error) {
	opts := defaultOptions
	for _, o := range opt {
		o(&opts)
	}
	if opts.logger == nil {
		opts.logger = NopLogger{}
	}
	if opts.stats == nil {
		opts.stats = NewStats()
	}

	tel, err := newTelemetry(opts.tracerProvider, opts.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("soap: telemetry: %w", err)
	}

	if opts.client == nil {
		if opts.client, err = makeDefaultClient(&opts, tel); err != nil {
			return nil, err
		}
	}

	if opts.binding == nil {
		b := NewEnvelopeBinding()
		if opts.wssPrivateKey != nil {
			b.SetWSSHeaderSigningKey(opts.wssPrivateKey, opts.wssCertBlobB64)
		}
		opts.binding = b
	}

	s := &Client{
		wsdl:      wsdlSource,
		opts:      &opts,
		binding:   opts.binding,
		transport: newTransport(opts.client, &opts),
		tel:       tel,
		stats:     opts.stats,
		logger:    opts.logger,
		request:   NewRequest(),
	}

	if wsdlSource != "" {
		if err := s.loadWSDL(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Client) loadWSDL(ctx context.Context) error {
	if s.opts.debug.Has(DebugWSDL) {
		s.log(LevelTrace, "WSDL path: "+s.wsdl)
	}

	s.wsdlPath = s.wsdl
	if s.opts.preload {
		preloader := wsdl.NewPreloader(s.opts.cacheDir, s)
		path, err := preloader.Preload(ctx, s.wsdl, &s.opts.cacheMode)
		if err != nil {
			s.log(LevelError, err.Error())
			s.setStatus(StatusError)
			return err
		}
		s.wsdlPath = path
	}

	if fi, err := os.Stat(s.wsdlPath); err != nil || fi.IsDir() {
		s.log(LevelTrace, "WSDL "+s.wsdlPath+" is not a local file, service description not loaded")
		return nil
	}

	if loader, ok := s.binding.(WSDLLoader); ok {
		if err := loader.LoadWSDL(s.wsdlPath); err != nil {
			s.log(LevelError, err.Error())
			s.setStatus(StatusError)
			return err
		}
	}

	if s.opts.debug.Has(DebugWSDL) {
		if summary, err := wsdl.SummarizeFile(s.wsdlPath); err == nil {
			s.log(LevelTrace, summary.String())
		}
	}
	return nil
}

// Call invokes operation with args. The error is a *Fault: the remote fault,
// a fault with NoResultMessage when no answer was produced (transport
// failure included, one-way calls too) or a client fault wrapping the local
// cause. Only calls that reached the transport are counted in Stats.
func (s *Client) Call(ctx context.Context, operation string, args interface{}, opt ...CallOption) (interface{}, error) {
	var co callOptions
	for _, o := range opt {
		o(&co)
	}
	debug := s.opts.debug
	if co.debug != nil {
		debug = *co.debug
	}

	if s.opts.limiter != nil {
		if err := s.opts.limiter.Wait(ctx); err != nil {
			return nil, newClientFault(fmt.Errorf("%w: %v", ErrRateLimited, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	headers := co.headers
	if s.opts.soapAuth != nil {
		headers = []interface{}{usernameTokenHeader(s.opts.soapAuth)}
	}
	location := co.location
	if location == "" {
		location = s.opts.endpoint
	}
	inv := &Invocation{
		Operation:   operation,
		Args:        args,
		Headers:     headers,
		Location:    location,
		Action:      co.action,
		Version:     s.opts.version,
		OneWay:      co.oneWay,
		Reply:       co.reply,
		FaultDetail: co.faultDetail,
		Options:     co.options,
	}

	s.lastRequest, s.lastResponse = nil, nil
	s.transportFailed = false
	s.lastResult = &CallResult{ID: uuid.NewString(), Operation: operation}

	ctx, span := s.tel.startCall(ctx, operation)
	start := time.Now()
	answer, err := s.binding.Invoke(ctx, inv, s.send)
	elapsed := time.Since(start)
	if !s.lastResult.ReturnAt.IsZero() {
		s.lastResult.DecodedAt = time.Now()
	}

	s.log(LevelInfo, fmt.Sprintf("Soap request to %s took %.2f sec (%s)", operation, elapsed.Seconds(), s.lastRequest))
	s.log(LevelInfo, fmt.Sprintf("Soap request %s response: %s", operation, s.lastResponse))

	var f *Fault
	switch {
	case err != nil && !errors.As(err, &f):
		err = newClientFault(err)
	case err == nil && (s.transportFailed || (isNil(answer) && !co.oneWay)):
		err = newNoResultFault()
	}
	if err != nil {
		answer = nil
	}

	if debug > 0 {
		s.debug(debug, answer, err)
	}

	if !s.lastResult.InvokeAt.IsZero() {
		s.stats.Record(elapsed)
	}
	s.tel.endCall(ctx, span, operation, elapsed, err)

	return answer, err
}

// send is the SendFunc handed to the binding.
func (s *Client) send(ctx context.Context, body []byte, location, action string, version Version, oneWay bool) ([]byte, error) {
	req := s.request
	req.SetXML(body)
	req.SetAction(action)
	if s.opts.httpAuth != nil && req.auth == nil {
		req.SetHTTPAuthentication(s.opts.httpAuth.Login, s.opts.httpAuth.Password)
	}

	s.lastRequest = body
	result := s.lastResult
	result.RequestURL = location
	result.Action = action
	if headers, err := req.Headers(); err == nil {
		result.RequestContent = CallContent{Header: headers, Body: string(body)}
	}

	result.InvokeAt = time.Now()
	resp, err := s.transport.Send(ctx, location, req, true)
	result.ReturnAt = time.Now()
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			s.transportFailed = true
			s.setStatus(StatusError)
			s.log(LevelError, err.Error())
			return nil, nil
		}
		return nil, err
	}

	s.lastResponse = resp.XML()
	s.lastAttachments = resp.Attachments()
	result.StatusCode = resp.StatusCode
	result.ResponseContent = CallContent{Header: resp.Headers(), Body: string(resp.Body())}

	if resp.StatusCode >= 400 && len(resp.XML()) == 0 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, ResponseBody: resp.Body()}
	}
	if oneWay {
		return nil, nil
	}
	return resp.XML(), nil
}

func (s *Client) debug(level DebugLevel, answer interface{}, err error) {
	if level.Has(DebugBasic) {
		s.log(LevelTrace, fmt.Sprintf("Soap call %s %s to %s: debug level %d, status %s",
			s.lastResult.ID, s.lastResult.Operation, s.lastResult.RequestURL, level, s.Status()))
	}
	if level.Has(DebugRequest) {
		s.log(LevelTrace, "Request XML:"+FormatXML(string(s.lastRequest)))
	}
	if level.Has(DebugResponse) {
		s.log(LevelTrace, "Response XML:"+FormatXML(string(s.lastResponse)))
	}
	if level.Has(DebugResponseObject) {
		obj := answer
		if err != nil {
			obj = err
		}
		s.log(LevelTrace, "Response object: "+spew.Sdump(obj))
	}
	if level.Has(DebugTimings) {
		s.log(LevelTrace, s.lastResult.Timings())
	}
}

// AddAttachment adds a file to the next call and returns its content ID.
func (s *Client) AddAttachment(a *Attachment) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.AddAttachment(a)
}

// SetHTTPAuthentication sets the basic authentication credentials of the
// next call only; WithBasicAuth sets them for every call.
func (s *Client) SetHTTPAuthentication(login, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request.SetHTTPAuthentication(login, password)
}

// Attachments returns the attachments of the last response.
func (s *Client) Attachments() []*Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAttachments
}

// LastRequest returns the last envelope sent.
func (s *Client) LastRequest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.lastRequest)
}

// LastResponse returns the last envelope received.
func (s *Client) LastResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.lastResponse)
}

// LastResult returns the record of the last exchange, nil before any call.
func (s *Client) LastResult() *CallResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil
	}
	r := *s.lastResult
	return &r
}

// WSDL returns the local path of the service description.
func (s *Client) WSDL() string {
	return s.wsdlPath
}

// CacheMode returns the WSDL cache mode left for the binding after preload.
func (s *Client) CacheMode() wsdl.CacheMode {
	return s.opts.cacheMode
}

// Stats returns the call statistics of the client.
func (s *Client) Stats() *Stats {
	return s.stats
}

// Status returns StatusError once a transport failure happened.
func (s *Client) Status() Status {
	return Status(s.status.Load())
}

// ResetStatus sets the status back to StatusOK.
func (s *Client) ResetStatus() {
	s.setStatus(StatusOK)
}

func (s *Client) setStatus(st Status) {
	s.status.Store(int32(st))
}

func (s *Client) log(level Level, msg string) {
	s.logger.Log(level, msg)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
