// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/luthersystems/cljgo/interp/x/profiler"
)

func testTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func TestNewOpenTelemetryAnnotator(t *testing.T) {
	exporter := testTracerProvider(t)

	rt := newRuntime(t)
	ppa := profiler.NewOpenTelemetryAnnotator(rt, context.Background())
	assert.NoError(t, ppa.Enable())
	assert.Error(t, ppa.Enable(), "profiler already enabled")
	runTestSource(t, rt)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	assert.Len(t, spans, 8)
	assert.Equal(t, "user/print-it", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, semconv.CodeNamespace("user"))
	assert.Contains(t, spans[0].Attributes, semconv.CodeFunction("print-it"))

	// nested calls are children of their caller's span
	inner := spans[1]
	assert.Equal(t, "user/add-it", inner.Name)
	assert.Equal(t, "user/recurse-it", spans[2].Name)
	assert.Equal(t, spans[2].SpanContext.SpanID(), inner.Parent.SpanID())
}

func TestNewOpenTelemetryAnnotatorSkip(t *testing.T) {
	exporter := testTracerProvider(t)

	rt := newRuntime(t)
	ppa := profiler.NewOpenTelemetryAnnotator(rt, context.Background(),
		profiler.WithDocFilter(),
		profiler.WithDocLabeler())
	assert.NoError(t, ppa.Enable())
	runTestSource(t, rt)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	if assert.Len(t, spans, 5, "Expected selective spans") {
		assert.Equal(t, "Print_It", spans[0].Name, "Expected custom label")
		assert.Equal(t, "user/recurse-it", spans[1].Name)
		assert.Equal(t, "Print_It", spans[4].Name, "Expected custom label")
	}
}

func TestNewOpenTelemetryAnnotatorNoContext(t *testing.T) {
	rt := newRuntime(t)
	//nolint:staticcheck
	ppa := profiler.NewOpenTelemetryAnnotator(rt, nil)
	assert.Error(t, ppa.Enable())
}
