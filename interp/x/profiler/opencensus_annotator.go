// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"go.opencensus.io/trace"

	"github.com/luthersystems/cljgo/interp"
)

type ocAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       []context.Context
}

var _ interp.Profiler = &ocAnnotator{}

// NewOpenCensusAnnotator returns a profiler that records an opencensus span
// for each interpreted function call.
func NewOpenCensusAnnotator(rt *interp.Runtime, parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		profiler: profiler{
			runtime: rt,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

// EnableWithContext enables the profiler with ctx as the parent of all
// recorded spans.
func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("set a context to use this function")
	}
	p.currentContext = ctx
	return p.Enable()
}

func (p *ocAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.profiler.Enable()
}

func (p *ocAnnotator) Complete() error {
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	return nil
}

func (p *ocAnnotator) Start(frame *interp.CallFrame) func() {
	if p.skipTrace(frame) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(frame)
	p.contexts = append(p.contexts, p.currentContext)
	p.currentContext, p.currentSpan = trace.StartSpan(p.currentContext, prettyLabel)
	return func() {
		p.end(frame)
	}
}

func (p *ocAnnotator) end(frame *interp.CallFrame) {
	if loc := getSourceLoc(frame); loc != nil {
		p.currentSpan.Annotate([]trace.Attribute{
			trace.StringAttribute("file", loc.File),
			trace.Int64Attribute("line", int64(loc.Line)),
		}, "source")
	}
	p.currentSpan.End()
	n := len(p.contexts) - 1
	p.currentContext = p.contexts[n]
	p.contexts = p.contexts[:n]
	p.currentSpan = trace.FromContext(p.currentContext)
}
