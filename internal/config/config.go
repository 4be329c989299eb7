// Package config loads the configuration of a SOAP client from a YAML file.
//
// Values may reference environment variables (${VAR} or $VAR), so that
// credentials are injected at runtime.
//
// # Example Configuration
//
//	wsdl: https://example.com/service?wsdl
//	endpoint: https://example.com/service
//	soapVersion: "1.1"
//	timeouts:
//	  connect: 30s
//	  request: 90s
//	tls:
//	  version: "1.2"
//	  certFile: /etc/ssl/client.pem
//	auth:
//	  http:
//	    login: ${SOAP_USER}
//	    password: ${SOAP_PASSWORD}
//	cache:
//	  mode: both
//	debug: [request, response, timings]
//
// See [Load] for loading configuration from a file.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cheyinl/dependable-soap/soap"
	"github.com/cheyinl/dependable-soap/wsdl"
)

// Config is the root configuration structure
type Config struct {
	WSDL        string            `yaml:"wsdl"`
	Endpoint    string            `yaml:"endpoint"`
	SOAPVersion string            `yaml:"soapVersion"`
	UserAgent   string            `yaml:"userAgent"`
	Headers     map[string]string `yaml:"headers"`
	Debug       []string          `yaml:"debug"`

	Timeouts      TimeoutConfig       `yaml:"timeouts"`
	TLS           TLSConfig           `yaml:"tls"`
	Auth          AuthConfig          `yaml:"auth"`
	Cache         CacheConfig         `yaml:"cache"`
	Retry         RetryConfig         `yaml:"retry"`
	Breaker       BreakerConfig       `yaml:"breaker"`
	RateLimit     RateLimitConfig     `yaml:"rateLimit"`
	Log           LogConfig           `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// TimeoutConfig holds the network timeouts
type TimeoutConfig struct {
	Connect      time.Duration `yaml:"connect"`
	Request      time.Duration `yaml:"request"`
	TLSHandshake time.Duration `yaml:"tlsHandshake"`
}

// TLSConfig holds TLS settings
type TLSConfig struct {
	// Version pins the protocol version: "1.0", "1.1", "1.2" or "1.3".
	Version  string `yaml:"version"`
	Insecure bool   `yaml:"insecure"`
	CertFile string `yaml:"certFile"`
	// KeyFile defaults to CertFile.
	KeyFile string `yaml:"keyFile"`
}

// Credentials is a login and password pair
type Credentials struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

// AuthConfig holds HTTP basic and WS-Security UsernameToken credentials
type AuthConfig struct {
	HTTP *Credentials `yaml:"http"`
	SOAP *Credentials `yaml:"soap"`
}

// CacheConfig holds the WSDL cache settings
type CacheConfig struct {
	// Mode is one of "none", "disk", "memory" or "both".
	Mode    string `yaml:"mode"`
	Dir     string `yaml:"dir"`
	Preload *bool  `yaml:"preload"`
}

// RetryConfig holds the WSDL download retry policy
type RetryConfig struct {
	MaxRetries      *uint         `yaml:"maxRetries"`
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
	MaxElapsedTime  time.Duration `yaml:"maxElapsedTime"`
}

// BreakerConfig holds the circuit breaker settings
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutiveFailures"`
	Timeout             time.Duration `yaml:"timeout"`
}

// RateLimitConfig holds the call rate limit, disabled when RPS is zero
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LogConfig holds the logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig holds the metrics endpoint settings
type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

var tlsVersions = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

var cacheModes = map[string]wsdl.CacheMode{
	"none":   wsdl.CacheNone,
	"disk":   wsdl.CacheDisk,
	"memory": wsdl.CacheMemory,
	"both":   wsdl.CacheBoth,
}

var debugFlags = map[string]soap.DebugLevel{
	"basic":          soap.DebugBasic,
	"wsdl":           soap.DebugWSDL,
	"request":        soap.DebugRequest,
	"response":       soap.DebugResponse,
	"responseObject": soap.DebugResponseObject,
	"timings":        soap.DebugTimings,
	"all":            soap.DebugAll,
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML data
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SOAPVersion == "" {
		c.SOAPVersion = "1.1"
	}
	if c.Cache.Mode == "" {
		c.Cache.Mode = "both"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Observability.Metrics.Addr == "" {
		c.Observability.Metrics.Addr = ":9464"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// Validate checks that the configuration can build a client
func (c *Config) Validate() error {
	if c.WSDL == "" && c.Endpoint == "" {
		return fmt.Errorf("one of wsdl or endpoint is required")
	}

	switch c.SOAPVersion {
	case "1.1", "1.2":
	default:
		return fmt.Errorf("soapVersion must be '1.1' or '1.2', got '%s'", c.SOAPVersion)
	}

	if c.TLS.Version != "" {
		if _, ok := tlsVersions[c.TLS.Version]; !ok {
			return fmt.Errorf("tls.version must be one of 1.0, 1.1, 1.2, 1.3, got '%s'", c.TLS.Version)
		}
	}

	if _, ok := cacheModes[c.Cache.Mode]; !ok {
		return fmt.Errorf("cache.mode must be 'none', 'disk', 'memory' or 'both', got '%s'", c.Cache.Mode)
	}

	for _, d := range c.Debug {
		if _, ok := debugFlags[d]; !ok {
			return fmt.Errorf("unknown debug flag '%s'", d)
		}
	}

	if c.Auth.HTTP != nil && c.Auth.HTTP.Login == "" {
		return fmt.Errorf("auth.http.login is required when auth.http is set")
	}
	if c.Auth.SOAP != nil && c.Auth.SOAP.Login == "" {
		return fmt.Errorf("auth.soap.login is required when auth.soap is set")
	}

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rateLimit.rps must not be negative")
	}

	return nil
}

// DebugLevel returns the debug flags combined.
func (c *Config) DebugLevel() soap.DebugLevel {
	var level soap.DebugLevel
	for _, d := range c.Debug {
		level |= debugFlags[d]
	}
	return level
}

// Options returns the client options described by the configuration.
func (c *Config) Options() []soap.Option {
	var opts []soap.Option

	if c.Endpoint != "" {
		opts = append(opts, soap.WithEndpoint(c.Endpoint))
	}
	if c.SOAPVersion == "1.2" {
		opts = append(opts, soap.WithSOAPVersion(soap.SOAP12))
	}
	if c.UserAgent != "" {
		opts = append(opts, soap.WithUserAgent(c.UserAgent))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, soap.WithHTTPHeaders(c.Headers))
	}
	if level := c.DebugLevel(); level != 0 {
		opts = append(opts, soap.WithDebug(level))
	}

	if c.Timeouts.Connect > 0 {
		opts = append(opts, soap.WithTimeout(c.Timeouts.Connect))
	}
	if c.Timeouts.Request > 0 {
		opts = append(opts, soap.WithRequestTimeout(c.Timeouts.Request))
	}
	if c.Timeouts.TLSHandshake > 0 {
		opts = append(opts, soap.WithTLSHandshakeTimeout(c.Timeouts.TLSHandshake))
	}

	if v, ok := tlsVersions[c.TLS.Version]; ok {
		opts = append(opts, soap.WithTLSVersion(v))
	}
	if c.TLS.Insecure {
		opts = append(opts, soap.WithInsecure(true))
	}
	if c.TLS.CertFile != "" {
		opts = append(opts, soap.WithClientCertificate(c.TLS.CertFile, c.TLS.KeyFile))
	}

	if c.Auth.HTTP != nil {
		opts = append(opts, soap.WithBasicAuth(c.Auth.HTTP.Login, c.Auth.HTTP.Password))
	}
	if c.Auth.SOAP != nil {
		opts = append(opts, soap.WithSOAPAuth(c.Auth.SOAP.Login, c.Auth.SOAP.Password))
	}

	opts = append(opts, soap.WithCacheMode(cacheModes[c.Cache.Mode]))
	if c.Cache.Dir != "" {
		opts = append(opts, soap.WithCacheDir(c.Cache.Dir))
	}
	if c.Cache.Preload != nil {
		opts = append(opts, soap.WithPreload(*c.Cache.Preload))
	}

	if r := c.retryConfig(); r != nil {
		opts = append(opts, soap.WithWSDLRetry(*r))
	}

	if c.Breaker.Enabled {
		b := soap.DefaultBreakerConfig()
		if c.Breaker.ConsecutiveFailures > 0 {
			b.ConsecutiveFailures = c.Breaker.ConsecutiveFailures
		}
		if c.Breaker.Timeout > 0 {
			b.Timeout = c.Breaker.Timeout
		}
		opts = append(opts, soap.WithCircuitBreaker(b))
	}

	if c.RateLimit.RPS > 0 {
		burst := c.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, soap.WithRateLimit(c.RateLimit.RPS, burst))
	}

	return opts
}

func (c *Config) retryConfig() *soap.RetryConfig {
	r := c.Retry
	if r.MaxRetries == nil && r.InitialInterval == 0 && r.MaxInterval == 0 && r.MaxElapsedTime == 0 {
		return nil
	}
	cfg := soap.DefaultRetryConfig()
	if r.MaxRetries != nil {
		cfg.MaxRetries = *r.MaxRetries
	}
	if r.InitialInterval > 0 {
		cfg.InitialInterval = r.InitialInterval
	}
	if r.MaxInterval > 0 {
		cfg.MaxInterval = r.MaxInterval
	}
	if r.MaxElapsedTime > 0 {
		cfg.MaxElapsedTime = r.MaxElapsedTime
	}
	return &cfg
}
