package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Transport performs the HTTP exchanges of a client: calls are POSTed, WSDL
// documents are fetched with GET.
type Transport struct {
	client      HTTPClient
	userAgent   string
	httpHeaders map[string]string
	logger      Logger
}

// NewTransport creates a transport sending requests through client.
func NewTransport(client HTTPClient, opt ...Option) *Transport {
	opts := defaultOptions
	for _, o := range opt {
		o(&opts)
	}
	return newTransport(client, &opts)
}

func newTransport(client HTTPClient, opts *options) *Transport {
	logger := opts.logger
	if logger == nil {
		logger = NopLogger{}
	}
	return &Transport{
		client:      client,
		userAgent:   opts.userAgent,
		httpHeaders: opts.httpHeaders,
		logger:      logger,
	}
}

// Send performs one exchange carrying req and parses the reply. req is reset
// afterwards whatever the outcome. Failures to reach the server are returned
// as *TransportError, unparsable multipart replies as *ParseError; an error
// status with a body is not a failure, SOAP faults travel that way.
func (t *Transport) Send(ctx context.Context, url string, req *Request, isPost bool) (*Response, error) {
	defer req.Reset()

	body, err := req.Contents()
	if err != nil {
		return nil, err
	}
	headers, err := req.Headers()
	if err != nil {
		return nil, err
	}

	t.logger.Log(LevelTrace, "Request headers: "+strings.Join(headers, "\n"))
	t.logger.Log(LevelTrace, "Request body: "+string(body))

	method := http.MethodGet
	var payload io.Reader = http.NoBody
	if isPost {
		method = http.MethodPost
		payload = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	for _, h := range headers {
		k, v, _ := strings.Cut(h, ":")
		httpReq.Header.Set(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "*/*")
	for k, v := range t.httpHeaders {
		httpReq.Header.Set(k, v)
	}

	res, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("cannot read all content from http body: %w", err)}
	}

	var collector HeaderCollector
	collectResponse(&collector, res)

	t.logger.Log(LevelTrace, "Result: "+string(respBody))

	resp, err := NewResponse(collector.Lines(), respBody)
	if err != nil {
		return nil, err
	}
	resp.StatusCode = res.StatusCode
	return resp, nil
}

func makeTLSConfig(opts *options) (*tls.Config, error) {
	var cfg *tls.Config
	if opts.tlsCfg != nil {
		cfg = opts.tlsCfg.Clone()
	} else {
		cfg = &tls.Config{}
	}

	if opts.tlsVersion != 0 {
		cfg.MinVersion = opts.tlsVersion
		cfg.MaxVersion = opts.tlsVersion
	}
	if opts.insecure {
		cfg.InsecureSkipVerify = true
	}
	if opts.certFile != "" {
		keyFile := opts.keyFile
		if keyFile == "" {
			keyFile = opts.certFile
		}
		cert, err := tls.LoadX509KeyPair(opts.certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate %s: %w", opts.certFile, err)
		}
		cfg.Certificates = append(cfg.Certificates, cert)
	}
	return cfg, nil
}

func makeDefaultClient(opts *options, tel *telemetry) (HTTPClient, error) {
	tlsCfg, err := makeTLSConfig(opts)
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: opts.timeout}
			return d.DialContext(ctx, network, addr)
		},
		TLSHandshakeTimeout:   opts.tlshshaketimeout,
		ExpectContinueTimeout: time.Second * 2,
	}
	rt = newBreakerTransport(rt, opts.breaker, tel)
	rt = newOtelTransport(rt, tel)

	return &http.Client{
		Timeout:   opts.contimeout,
		Transport: rt,
	}, nil
}
