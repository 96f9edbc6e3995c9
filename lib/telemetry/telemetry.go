package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type providers struct {
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
}

var active *providers

// Setup installs global otel tracer/meter providers exporting over OTLP.
func Setup(ctx context.Context, serviceName string, config Config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(meterProvider)

	active = &providers{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}
	return nil
}

func Shutdown(ctx context.Context) error {
	if active == nil {
		return nil
	}
	errlist := []error{}
	err := active.tracerProvider.Shutdown(ctx)
	if err != nil {
		errlist = append(errlist, err)
	}
	err = active.meterProvider.Shutdown(ctx)
	if err != nil {
		errlist = append(errlist, err)
	}
	active = nil
	return errors.Join(errlist...)
}
