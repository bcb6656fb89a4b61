package observability

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls observability wiring.
type Config struct {
	Environment    string `yaml:"environment"`
	MetricsAddress string `yaml:"metrics_address"`
	Debug          bool   `yaml:"debug"`
}

// Observability bundles the logger, tracer and metrics registry handed to
// every module.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// New builds the production observability stack: JSON slog to stdout, the
// globally configured otel tracer, and a Prometheus registry with the
// standard process/Go collectors.
func New(cfg Config, serviceName string) *Observability {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("service", serviceName), slog.String("environment", cfg.Environment))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(serviceName),
		Registry: registry,
	}
}

// NewNoop returns an Observability that discards everything; used in tests.
func NewNoop() *Observability {
	return &Observability{
		Logger:   slog.New(slog.DiscardHandler),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Registry: prometheus.NewRegistry(),
	}
}
