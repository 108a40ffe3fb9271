// Package observability подключает трассировку OpenTelemetry.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/unlimited-mining/internal/logging"
)

// Options - параметры трассировки игрового сервера
type Options struct {
	Enabled     bool
	ServiceName string
	// Endpoint - host:port OTLP HTTP коллектора; пусто - переменные OTEL_EXPORTER_OTLP_*
	Endpoint string
	Insecure bool
	// SampleRatio - доля сохраняемых трасс ударов по шахте, 0 или >=1 - все
	SampleRatio float64
	// Attributes добавляются в ресурс (например mine.origin)
	Attributes map[string]string
}

// ShutdownFunc завершает экспорт трейсов
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и глобальный TracerProvider.
// При выключенной трассировке спаны уходят в noop-провайдер otel.
func InitTelemetry(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		logging.Debug("OpenTelemetry выключен")
		return noopShutdown, nil
	}

	var clientOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	shutdown, err := install(ctx, opts, trace.WithBatcher(exp))
	if err != nil {
		return nil, err
	}
	logging.Info("📡 OpenTelemetry: service=%s endpoint=%s ratio=%.2f", opts.ServiceName, endpointName(opts.Endpoint), opts.SampleRatio)
	return shutdown, nil
}

func install(ctx context.Context, opts Options, tpOpts ...trace.TracerProviderOption) (ShutdownFunc, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	for k, v := range opts.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tpOpts = append(tpOpts, trace.WithResource(res), trace.WithSampler(sampler(opts.SampleRatio)))
	tp := trace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// sampler уважает решение родителя (otelgin), корневые спаны семплирует по доле
func sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func endpointName(endpoint string) string {
	if endpoint == "" {
		return "env"
	}
	return endpoint
}
