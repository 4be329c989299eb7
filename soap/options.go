package soap

import (
	"crypto/rsa"
	"crypto/tls"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/cheyinl/dependable-soap/wsdl"
)

type options struct {
	endpoint string

	tlsCfg     *tls.Config
	tlsVersion uint16
	insecure   bool
	certFile   string
	keyFile    string

	httpAuth *basicAuth
	soapAuth *basicAuth

	timeout          time.Duration
	contimeout       time.Duration
	tlshshaketimeout time.Duration
	client           HTTPClient
	userAgent        string
	httpHeaders      map[string]string

	debug   DebugLevel
	version Version
	binding Binding
	logger  Logger
	stats   *Stats

	preload   bool
	cacheMode wsdl.CacheMode
	cacheDir  string
	wsdlRetry RetryConfig

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	breaker        *BreakerConfig
	limiter        *rate.Limiter

	wssPrivateKey  *rsa.PrivateKey
	wssCertBlobB64 string
}

var defaultOptions = options{
	timeout:          time.Duration(30 * time.Second),
	contimeout:       time.Duration(90 * time.Second),
	tlshshaketimeout: time.Duration(15 * time.Second),
	userAgent:        "dependable-soap/1.0",
	version:          SOAP11,
	preload:          true,
	cacheMode:        wsdl.CacheBoth,
	wsdlRetry:        DefaultRetryConfig(),
}

// A Option sets options such as credentials, tls, etc.
type Option func(*options)

// WithHTTPClient is an Option to set the HTTP client to use
// This cannot be used with WithTLSHandshakeTimeout, WithTLS,
// WithTimeout, WithTLSVersion, WithInsecure, WithClientCertificate
// and WithCircuitBreaker options
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithEndpoint is an Option to set the URL calls are sent to. It overrides
// the address published by the WSDL.
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

// WithTLSHandshakeTimeout is an Option to set default tls handshake timeout
// This option cannot be used with WithHTTPClient
func WithTLSHandshakeTimeout(t time.Duration) Option {
	return func(o *options) {
		o.tlshshaketimeout = t
	}
}

// WithRequestTimeout is an Option to set default end-end connection timeout
// This option cannot be used with WithHTTPClient
func WithRequestTimeout(t time.Duration) Option {
	return func(o *options) {
		o.contimeout = t
	}
}

// WithBasicAuth is an Option to set BasicAuth
func WithBasicAuth(login, password string) Option {
	return func(o *options) {
		o.httpAuth = &basicAuth{Login: login, Password: password}
	}
}

// WithSOAPAuth is an Option to send a WS-Security UsernameToken header with
// every call. The token replaces the headers given to the call.
func WithSOAPAuth(login, password string) Option {
	return func(o *options) {
		o.soapAuth = &basicAuth{Login: login, Password: password}
	}
}

// WithTLS is an Option to set tls config
// This option cannot be used with WithHTTPClient
func WithTLS(tls *tls.Config) Option {
	return func(o *options) {
		o.tlsCfg = tls
	}
}

// WithTLSVersion is an Option to pin the TLS protocol version, e.g.
// tls.VersionTLS12.
func WithTLSVersion(version uint16) Option {
	return func(o *options) {
		o.tlsVersion = version
	}
}

// WithInsecure is an Option to skip verification of the server certificate
// chain and host name.
func WithInsecure(insecure bool) Option {
	return func(o *options) {
		o.insecure = insecure
	}
}

// WithClientCertificate is an Option to present a client certificate. An
// empty keyFile means the key is stored in certFile.
func WithClientCertificate(certFile, keyFile string) Option {
	return func(o *options) {
		o.certFile = certFile
		o.keyFile = keyFile
	}
}

// WithTimeout is an Option to set default HTTP dial timeout
func WithTimeout(t time.Duration) Option {
	return func(o *options) {
		o.timeout = t
	}
}

// WithUserAgent is an Option to set User-Agent header value
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithHTTPHeaders is an Option to set global HTTP headers for all requests
func WithHTTPHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.httpHeaders = headers
	}
}

// WithDebug is an Option to set the client wide debug level.
func WithDebug(level DebugLevel) Option {
	return func(o *options) {
		o.debug = level
	}
}

// WithSOAPVersion is an Option to set the protocol version handed to the
// binding.
func WithSOAPVersion(v Version) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithBinding is an Option to replace the default EnvelopeBinding.
func WithBinding(b Binding) Option {
	return func(o *options) {
		o.binding = b
	}
}

// WithLogger is an Option to set the log sink. Nothing is logged without one.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStats is an Option to aggregate call statistics of several clients.
func WithStats(s *Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithPreload is an Option to enable or disable fetching the WSDL, and the
// schemas it imports, into the cache directory when the client is created.
func WithPreload(preload bool) Option {
	return func(o *options) {
		o.preload = preload
	}
}

// WithCacheMode is an Option to set the WSDL cache mode.
func WithCacheMode(mode wsdl.CacheMode) Option {
	return func(o *options) {
		o.cacheMode = mode
	}
}

// WithCacheDir is an Option to set where preloaded WSDL files are written.
// It defaults to os.TempDir().
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithWSDLRetry is an Option to set the retry policy of WSDL downloads.
// Calls are never retried.
func WithWSDLRetry(cfg RetryConfig) Option {
	return func(o *options) {
		o.wsdlRetry = cfg
	}
}

// WithTracerProvider is an Option to set the provider of call and HTTP spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider is an Option to set the provider of call metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithCircuitBreaker is an Option to guard the endpoint with a circuit
// breaker. This option cannot be used with WithHTTPClient
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(o *options) {
		o.breaker = &cfg
	}
}

// WithRateLimit is an Option to limit calls to rps per second with the given
// burst. Calls wait for a token or fail when the context ends.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithWSSSigningKey is an Option to sign the body of every envelope built by
// EnvelopeBinding with an X.509 WS-Security signature.
func WithWSSSigningKey(key *rsa.PrivateKey, certBlobBase64 string) Option {
	return func(o *options) {
		o.wssPrivateKey = key
		o.wssCertBlobB64 = certBlobBase64
	}
}

// HTTPClient is a client which can make HTTP requests
// An example implementation is net/http.Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
