// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opencensus.io/trace"

	"github.com/luthersystems/cljgo/interp/x/profiler"
)

func TestNewOpenCensusAnnotator(t *testing.T) {
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	exporter := &recordingExporter{}
	trace.RegisterExporter(exporter)
	t.Cleanup(func() { trace.UnregisterExporter(exporter) })

	rt := newRuntime(t)
	ppa := profiler.NewOpenCensusAnnotator(rt, context.Background())
	assert.NoError(t, ppa.Enable())
	runTestSource(t, rt)
	assert.NoError(t, ppa.Complete())

	names := exporter.names()
	assert.Len(t, names, 8)
	assert.Equal(t, "user/print-it", names[0])
	assert.Contains(t, names, "user/recurse-it")
}

// recordingExporter collects the names of exported spans.
type recordingExporter struct {
	mut   sync.Mutex
	spans []*trace.SpanData
}

func (e *recordingExporter) ExportSpan(sd *trace.SpanData) {
	e.mut.Lock()
	defer e.mut.Unlock()
	e.spans = append(e.spans, sd)
}

func (e *recordingExporter) names() []string {
	e.mut.Lock()
	defer e.mut.Unlock()
	names := make([]string, len(e.spans))
	for i, sd := range e.spans {
		names[i] = sd.Name
	}
	return names
}
