package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cheyinl/dependable-soap/wsdl"
)

func newSOAPServer(t *testing.T, status int, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestClient_Call(t *testing.T) {
	srv, _ := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)
	logger := &recordingLogger{}

	c, err := NewClient("", WithEndpoint(srv.URL), WithLogger(logger))
	require.NoError(t, err)

	reply := &pingResponse{}
	got, err := c.Call(context.Background(), "Ping", &pingRequest{ID: 7}, WithReply(reply), WithAction("urn:ping"))
	require.NoError(t, err)
	assert.Same(t, reply, got)
	assert.Equal(t, 7, reply.ID)

	assert.Contains(t, c.LastRequest(), `<Ping xmlns="urn:test"><id>7</id></Ping>`)
	assert.Equal(t, pingReplyEnvelope, c.LastResponse())
	assert.Equal(t, StatusOK, c.Status())
	assert.Equal(t, int64(1), c.Stats().TotalCalls())
	assert.Positive(t, c.Stats().TotalTime())

	last := c.LastResult()
	require.NotNil(t, last)
	assert.NotEmpty(t, last.ID)
	assert.Equal(t, "Ping", last.Operation)
	assert.Equal(t, srv.URL, last.RequestURL)
	assert.Equal(t, "urn:ping", last.Action)
	assert.Equal(t, http.StatusOK, last.StatusCode)
	assert.Contains(t, last.RequestContent.Header, `SOAPAction: "urn:ping"`)
	assert.Equal(t, pingReplyEnvelope, last.ResponseContent.Body)
	assert.False(t, last.DecodedAt.Before(last.ReturnAt))

	info := logger.messages(LevelInfo)
	require.Len(t, info, 2)
	assert.True(t, strings.HasPrefix(info[0], "Soap request to Ping took "))
	assert.Contains(t, info[0], " sec (<SOAP-ENV:Envelope")
	assert.Equal(t, "Soap request Ping response: "+pingReplyEnvelope, info[1])
}

func TestClient_CallFaults(t *testing.T) {
	t.Run("given a remote fault, then it is returned unmodified", func(t *testing.T) {
		srv, _ := newSOAPServer(t, http.StatusInternalServerError, faultEnvelope)
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		got, err := c.Call(context.Background(), "Ping", nil)
		assert.Nil(t, got)
		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.True(t, f.IsRemote())
		assert.Equal(t, "boom", f.String)
		assert.Equal(t, StatusOK, c.Status())
		assert.Equal(t, int64(1), c.Stats().TotalCalls())
	})

	t.Run("given a connection failure, then a no result fault is returned and the status is error", func(t *testing.T) {
		logger := &recordingLogger{}
		c, err := NewClient("", WithEndpoint(closedServerURL()), WithLogger(logger))
		require.NoError(t, err)

		got, err := c.Call(context.Background(), "Ping", nil)
		assert.Nil(t, got)
		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.ErrorIs(t, err, ErrNoResult)
		assert.False(t, f.IsRemote())
		assert.Equal(t, NoResultMessage, f.String)
		assert.Equal(t, StatusError, c.Status())
		assert.Equal(t, int64(1), c.Stats().TotalCalls())
		assert.Len(t, logger.messages(LevelError), 1)

		c.ResetStatus()
		assert.Equal(t, StatusOK, c.Status())
	})

	t.Run("given an error status without a body, then a client fault wraps the http error", func(t *testing.T) {
		srv, _ := newSOAPServer(t, http.StatusBadGateway, "")
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, "Client", f.Code)
		var he *HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	})

	t.Run("given a malformed multipart reply, then a client fault wraps the parse error", func(t *testing.T) {
		srv, _ := newSOAPServer(t, http.StatusOK, "--MimeBoundaryOkOiKi\r\nContent-Type: text/xml\r\n\r\n<a/>")
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		assert.ErrorIs(t, err, ErrMalformedMultipart)
		assert.Equal(t, StatusOK, c.Status())
	})

	t.Run("given a client without endpoint, then a client fault wraps ErrNoEndpoint and the call is not counted", func(t *testing.T) {
		c, err := NewClient("")
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		assert.ErrorIs(t, err, ErrNoEndpoint)
		assert.Equal(t, int64(0), c.Stats().TotalCalls())
		assert.Empty(t, c.LastRequest())
	})

	t.Run("given a binding failing before sending, then the call is not counted", func(t *testing.T) {
		c, err := NewClient("", WithBinding(&recordingBinding{err: errors.New("encoding failed")}))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		require.Error(t, err)
		assert.Equal(t, int64(0), c.Stats().TotalCalls())
	})

	t.Run("given a one way call, then no result is not a fault", func(t *testing.T) {
		srv, hits := newSOAPServer(t, http.StatusAccepted, "")
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		got, err := c.Call(context.Background(), "Notify", nil, WithOneWay())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, int64(1), c.Stats().TotalCalls())
	})

	t.Run("given a one way call and a connection failure, then a no result fault is returned", func(t *testing.T) {
		c, err := NewClient("", WithEndpoint(closedServerURL()))
		require.NoError(t, err)

		got, err := c.Call(context.Background(), "Notify", nil, WithOneWay())
		assert.Nil(t, got)
		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.ErrorIs(t, err, ErrNoResult)
		assert.Equal(t, StatusError, c.Status())
		assert.Equal(t, int64(1), c.Stats().TotalCalls())
	})

	t.Run("given a one way call after a failed one, then the failure does not leak", func(t *testing.T) {
		srv, _ := newSOAPServer(t, http.StatusAccepted, "")
		down := closedServerURL()
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Notify", nil, WithOneWay(), WithLocation(down))
		require.ErrorIs(t, err, ErrNoResult)

		_, err = c.Call(context.Background(), "Notify", nil, WithOneWay())
		assert.NoError(t, err)
	})
}

type recordingBinding struct {
	inv    *Invocation
	result interface{}
	err    error
}

func (b *recordingBinding) Invoke(ctx context.Context, inv *Invocation, send SendFunc) (interface{}, error) {
	b.inv = inv
	return b.result, b.err
}

func TestClient_Binding(t *testing.T) {
	t.Run("given per call options, then the binding sees them without the debug override", func(t *testing.T) {
		b := &recordingBinding{result: &RawReply{}}
		c, err := NewClient("", WithBinding(b), WithEndpoint("http://svc"), WithSOAPVersion(SOAP12))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", 1,
			WithCallDebug(DebugAll),
			WithLocation("http://other"),
			WithAction("act"),
			WithOption("style", "rpc"),
		)
		require.NoError(t, err)
		require.NotNil(t, b.inv)
		assert.Equal(t, "Ping", b.inv.Operation)
		assert.Equal(t, 1, b.inv.Args)
		assert.Equal(t, "http://other", b.inv.Location)
		assert.Equal(t, "act", b.inv.Action)
		assert.Equal(t, SOAP12, b.inv.Version)
		assert.Equal(t, map[string]interface{}{"style": "rpc"}, b.inv.Options)
	})

	t.Run("given a binding returning nothing, then the no result fault is returned", func(t *testing.T) {
		var typedNil *RawReply
		b := &recordingBinding{result: typedNil}
		c, err := NewClient("", WithBinding(b))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		assert.ErrorIs(t, err, ErrNoResult)
	})

	t.Run("given a binding error, then the client fault unwraps to it", func(t *testing.T) {
		cause := errors.New("encoding failed")
		b := &recordingBinding{err: cause}
		c, err := NewClient("", WithBinding(b))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil)
		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, "Client", f.Code)
		assert.Equal(t, "encoding failed", f.String)
		assert.ErrorIs(t, err, cause)
	})
}

type traceHeader struct {
	XMLName xml.Name `xml:"urn:test Trace"`
	ID      string   `xml:"id"`
}

func TestClient_Authentication(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(pingReplyEnvelope))
	}))
	defer srv.Close()

	t.Run("given soap credentials, then the headers are replaced by a username token", func(t *testing.T) {
		c, err := NewClient("", WithEndpoint(srv.URL), WithSOAPAuth("alice", "secret"))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil, WithHeaders(&traceHeader{ID: "t-1"}))
		require.NoError(t, err)

		body := string(gotBody)
		assert.Contains(t, body, `<wsse:Security xmlns:wsse="`+WssNsWSSE+`" SOAP-ENV:mustUnderstand="1">`)
		assert.Contains(t, body, "<wsse:Username>alice</wsse:Username>")
		assert.Contains(t, body, ">secret</wsse:Password>")
		assert.Contains(t, body, `wsu:Id="UsernameToken-`)
		assert.NotContains(t, body, "Trace")
		assert.Empty(t, gotAuth)
	})

	t.Run("given no soap credentials, then the call headers are sent", func(t *testing.T) {
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		_, err = c.Call(context.Background(), "Ping", nil, WithHeaders(&traceHeader{ID: "t-1"}))
		require.NoError(t, err)
		assert.Contains(t, string(gotBody), `<SOAP-ENV:Header><Trace xmlns="urn:test"><id>t-1</id></Trace></SOAP-ENV:Header>`)
	})

	t.Run("given http credentials, then every call is authenticated", func(t *testing.T) {
		c, err := NewClient("", WithEndpoint(srv.URL), WithBasicAuth("bob", "pw"))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			gotAuth = ""
			_, err = c.Call(context.Background(), "Ping", nil)
			require.NoError(t, err)
			assert.Equal(t, "Basic Ym9iOnB3", gotAuth)
		}
	})

	t.Run("given one-shot credentials, then only the next call is authenticated", func(t *testing.T) {
		c, err := NewClient("", WithEndpoint(srv.URL))
		require.NoError(t, err)

		c.SetHTTPAuthentication("bob", "pw")
		_, err = c.Call(context.Background(), "Ping", nil)
		require.NoError(t, err)
		assert.Equal(t, "Basic Ym9iOnB3", gotAuth)

		_, err = c.Call(context.Background(), "Ping", nil)
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})
}

func TestClient_Attachments(t *testing.T) {
	var gotType string
	var gotParts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		_, params, _ := mime.ParseMediaType(gotType)
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			gotParts = append(gotParts, p.Header.Get("Content-ID"))
		}

		w.Header().Set("Content-Type", `multipart/related; type="text/xml"; boundary=reply`)
		_, _ = w.Write([]byte(strings.Join([]string{
			"--reply",
			"Content-Type: text/xml",
			"",
			pingReplyEnvelope,
			"--reply",
			"Content-Type: text/plain",
			"Content-ID: <receipt.txt>",
			"",
			"received",
			"--reply--",
		}, "\r\n")))
	}))
	defer srv.Close()

	c, err := NewClient("", WithEndpoint(srv.URL))
	require.NoError(t, err)

	cid := c.AddAttachment(NewAttachment(writeFile(t, "file.pdf", pdfContents)))
	assert.Equal(t, "file.pdf", cid)

	_, err = c.Call(context.Background(), "Upload", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotType, "Multipart/Related"))
	assert.Equal(t, []string{"<main_envelope>", "file.pdf"}, gotParts)
	assert.Equal(t, pingReplyEnvelope, c.LastResponse())
	require.Len(t, c.Attachments(), 1)
	assert.Equal(t, "receipt.txt", c.Attachments()[0].ContentID)
	assert.Equal(t, "received", string(c.Attachments()[0].Data))

	gotType = ""
	_, err = c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "text/xml", gotType, "attachments do not leak into the next call")
}

func TestClient_Debug(t *testing.T) {
	srv, _ := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)
	logger := &recordingLogger{}
	c, err := NewClient("", WithEndpoint(srv.URL), WithLogger(logger))
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)
	assert.False(t, logger.contains(LevelTrace, "Request XML:"))

	_, err = c.Call(context.Background(), "Ping", nil, WithCallDebug(DebugAll))
	require.NoError(t, err)
	assert.True(t, logger.contains(LevelTrace, "Soap call "))
	assert.True(t, logger.contains(LevelTrace, "Request XML:<SOAP-ENV:Envelope"))
	assert.True(t, logger.contains(LevelTrace, "Response XML:<soap:Envelope"))
	assert.True(t, logger.contains(LevelTrace, "Response object: (*soap.RawReply)"))
	assert.True(t, logger.contains(LevelTrace, "call "))

	before := len(logger.messages(LevelTrace))
	_, err = c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)
	for _, m := range logger.messages(LevelTrace)[before:] {
		assert.False(t, strings.HasPrefix(m, "Request XML:"), "the override only applies to one call")
	}
}

func TestClient_Stats(t *testing.T) {
	srv, _ := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)
	shared := NewStats()

	a, err := NewClient("", WithEndpoint(srv.URL), WithStats(shared))
	require.NoError(t, err)
	b, err := NewClient("", WithEndpoint(closedServerURL()), WithStats(shared))
	require.NoError(t, err)

	const k = 3
	for i := 0; i < k; i++ {
		_, err := a.Call(context.Background(), "Ping", nil)
		require.NoError(t, err)
		_, err = b.Call(context.Background(), "Ping", nil)
		require.Error(t, err)
	}

	assert.Equal(t, int64(2*k), shared.TotalCalls())
	assert.Same(t, shared, a.Stats())
	assert.Equal(t, StatusOK, a.Status())
	assert.Equal(t, StatusError, b.Status())
}

func TestClient_ConcurrentCalls(t *testing.T) {
	srv, hits := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)
	c, err := NewClient("", WithEndpoint(srv.URL))
	require.NoError(t, err)

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.Call(context.Background(), "Ping", nil)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int32(n), hits.Load())
	assert.Equal(t, int64(n), c.Stats().TotalCalls())
}

func TestClient_RateLimit(t *testing.T) {
	srv, hits := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)
	c, err := NewClient("", WithEndpoint(srv.URL), WithRateLimit(0.001, 1))
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Call(ctx, "Ping", nil)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int64(1), c.Stats().TotalCalls())
}

func TestClient_CircuitBreaker(t *testing.T) {
	srv, hits := newSOAPServer(t, http.StatusServiceUnavailable, "")
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Minute

	c, err := NewClient("", WithEndpoint(srv.URL), WithCircuitBreaker(cfg))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Call(context.Background(), "Ping", nil)
		var he *HTTPError
		require.ErrorAs(t, err, &he)
	}
	assert.Equal(t, StatusOK, c.Status())

	_, err = c.Call(context.Background(), "Ping", nil)
	assert.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, StatusError, c.Status())
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Telemetry(t *testing.T) {
	srv, _ := newSOAPServer(t, http.StatusOK, pingReplyEnvelope)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	c, err := NewClient("", WithEndpoint(srv.URL), WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "Ping", nil)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	httpSpan, callSpan := spans[0], spans[1]
	assert.Equal(t, "HTTP POST", httpSpan.Name)
	assert.Equal(t, "SOAP Ping", callSpan.Name)
	assert.Equal(t, callSpan.SpanContext.SpanID(), httpSpan.Parent.SpanID())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	calls := findMetric(rm, "soap.client.calls")
	require.NotNil(t, calls)
	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
	outcome, _ := sum.DataPoints[0].Attributes.Value("soap.outcome")
	assert.Equal(t, "success", outcome.AsString())

	assert.NotNil(t, findMetric(rm, "soap.client.call.duration"))
	assert.NotNil(t, findMetric(rm, "http.client.request.duration"))
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewClient_WSDL(t *testing.T) {
	t.Run("given a local wsdl, then calls use its address and actions", func(t *testing.T) {
		var gotAction string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAction = r.Header.Get("SOAPAction")
			_, _ = w.Write([]byte(pingReplyEnvelope))
		}))
		defer srv.Close()

		logger := &recordingLogger{}
		path := writeWSDL(t, srv.URL)
		c, err := NewClient(path, WithLogger(logger), WithDebug(DebugWSDL))
		require.NoError(t, err)
		assert.Equal(t, path, c.WSDL())
		assert.Equal(t, wsdl.CacheMemory, c.CacheMode())
		assert.True(t, logger.contains(LevelTrace, "WSDL path: "+path))
		assert.True(t, logger.contains(LevelTrace, "Service PingService"))

		_, err = c.Call(context.Background(), "Ping", nil)
		require.NoError(t, err)
		assert.Equal(t, `"urn:test#Ping"`, gotAction)
	})

	t.Run("given a remote wsdl, then it is cached and the disk bit is cleared", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(testWSDL))
		}))
		defer srv.Close()

		dir := t.TempDir()
		url := srv.URL + "/service?wsdl"
		c, err := NewClient(url, WithCacheDir(dir))
		require.NoError(t, err)
		assert.Equal(t, dir+"/"+wsdl.CacheFileName(url), c.WSDL())
		assert.Equal(t, wsdl.CacheMemory, c.CacheMode())

		_, err = NewClient(url, WithCacheDir(dir))
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load(), "the second client reads the cache")
	})

	t.Run("given an unreachable wsdl, then no client is returned", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		logger := &recordingLogger{}
		c, err := NewClient(srv.URL+"/missing?wsdl",
			WithCacheDir(t.TempDir()),
			WithWSDLRetry(NoRetryConfig()),
			WithLogger(logger),
		)
		require.Error(t, err)
		assert.Nil(t, c)
		var he *HTTPError
		assert.ErrorAs(t, err, &he)
		assert.Len(t, logger.messages(LevelError), 1)
	})

	t.Run("given preload disabled, then a remote wsdl is not fetched", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL+"/service?wsdl", WithPreload(false))
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/service?wsdl", c.WSDL())
		assert.Equal(t, int32(0), hits.Load())
	})
}

func TestLoggers(t *testing.T) {
	t.Run("given a logger func, then it receives message and level", func(t *testing.T) {
		var got []string
		l := LoggerFunc(func(msg string, level Level) {
			got = append(got, fmt.Sprintf("%s:%s", level, msg))
		})
		l.Log(LevelInfo, "hello")
		assert.Equal(t, []string{"info:hello"}, got)
	})

	t.Run("given a zerolog logger, then levels are mapped", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
		l.Log(LevelError, "e")
		l.Log(LevelInfo, "i")
		l.Log(LevelTrace, "t")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], `"level":"error"`)
		assert.Contains(t, lines[1], `"level":"info"`)
		assert.Contains(t, lines[2], `"level":"debug"`)
		assert.Contains(t, lines[2], `"component":"soap"`)
	})
}
