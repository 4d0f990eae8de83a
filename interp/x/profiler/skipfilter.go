// Copyright © 2018 The ELPS authors

package profiler

import (
	"regexp"

	"github.com/luthersystems/cljgo/interp"
)

// SkipFilter reports whether calls to the function of frame should not be
// traced.
type SkipFilter func(rt *interp.Runtime, frame *interp.CallFrame) bool

// WithDocFilter filters to only include spans for functions with
// docstrings that denote tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler
// configured WithDocFilter. All functions with a docstring that contains
// this string will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(rt *interp.Runtime, frame *interp.CallFrame) bool {
	docStr := docstring(rt, frame)
	if docStr == "" {
		return true
	}
	return !docTraceRegExp.MatchString(docStr)
}
