// Command soapcall sends one SOAP call described by a client configuration
// file and prints the reply envelope.
//
//	soapcall -config client.yaml -op GetQuote -body request.xml -attach file.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/cheyinl/dependable-soap/internal/config"
	"github.com/cheyinl/dependable-soap/soap"
)

var version = "dev"

type attachFlags []string

func (a *attachFlags) String() string {
	return strings.Join(*a, ",")
}

func (a *attachFlags) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func main() {
	var attach attachFlags
	versionFlag := flag.Bool("version", false, "Print version information and exit")
	configPath := flag.String("config", "soapcall.yaml", "Path to client config file")
	operation := flag.String("op", "", "Operation to call")
	bodyPath := flag.String("body", "", "File holding the XML of the body element, empty for an operation without arguments")
	action := flag.String("action", "", "SOAPAction, defaults to the one published by the WSDL")
	outDir := flag.String("out", "", "Directory the reply attachments are saved to")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, overrides the config")
	flag.Var(&attach, "attach", "File to attach, may be repeated")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("soapcall %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(*configPath, *operation, *bodyPath, *action, *outDir, *metricsAddr, attach))
}

func run(configPath, operation, bodyPath, action, outDir, metricsAddr string, attach []string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Log)

	if operation == "" {
		logger.Error().Msg("-op is required")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := append(cfg.Options(), soap.WithLogger(soap.NewZerologLogger(logger)))

	if metricsAddr == "" && cfg.Observability.Metrics.Enabled {
		metricsAddr = cfg.Observability.Metrics.Addr
	}
	if metricsAddr != "" {
		mp, shutdown, err := serveMetrics(metricsAddr, cfg.Observability.Metrics.Path, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start metrics endpoint")
			return 1
		}
		defer shutdown()
		opts = append(opts, soap.WithMeterProvider(mp))
	}

	client, err := soap.NewClientContext(ctx, cfg.WSDL, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create client")
		return 1
	}

	var args interface{}
	if bodyPath != "" {
		body, err := os.ReadFile(bodyPath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read body")
			return 1
		}
		args = soap.RawXML(body)
	}

	for _, path := range attach {
		cid := client.AddAttachment(soap.NewAttachment(path))
		logger.Debug().Str("file", path).Str("cid", cid).Msg("Attachment added")
	}

	var callOpts []soap.CallOption
	if action != "" {
		callOpts = append(callOpts, soap.WithAction(action))
	}

	reply, err := client.Call(ctx, operation, args, callOpts...)
	if err != nil {
		var fault *soap.Fault
		if errors.As(err, &fault) && fault.IsRemote() {
			logger.Error().Str("code", fault.Code).Str("string", fault.String).Msg("Remote fault")
		} else {
			logger.Error().Err(err).Msg("Call failed")
		}
		return 1
	}

	if raw, ok := reply.(*soap.RawReply); ok {
		fmt.Print(soap.FormatXML(raw.InnerXML))
	} else {
		fmt.Print(soap.FormatXML(client.LastResponse()))
	}

	if outDir != "" {
		if err := saveAttachments(outDir, client.Attachments()); err != nil {
			logger.Error().Err(err).Msg("Failed to save attachments")
			return 1
		}
	}

	stats := client.Stats()
	logger.Info().
		Int64("calls", stats.TotalCalls()).
		Dur("total", stats.TotalTime()).
		Msg("Done")
	return 0
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func serveMetrics(addr, path string, logger zerolog.Logger) (*sdkmetric.MeterProvider, func(), error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics endpoint stopped")
		}
	}()
	logger.Info().Str("addr", addr).Str("path", path).Msg("Serving metrics")

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
	}
	return mp, shutdown, nil
}

func saveAttachments(dir string, parts []*soap.Part) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, p := range parts {
		name := p.ContentID
		if name == "" {
			name = fmt.Sprintf("attachment-%d", i+1)
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), p.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
