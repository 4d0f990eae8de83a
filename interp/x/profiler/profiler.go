// Copyright © 2018 The ELPS authors

// Package profiler provides interp.Profiler implementations that annotate
// interpreted function calls with tracing spans, pprof labels or callgrind
// output.
package profiler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/lang"
)

// profiler is a minimal interp.Profiler
type profiler struct {
	runtime    *interp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ interp.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(frame *interp.CallFrame) func() {
	return func() {}
}

// prettyFunName returns a pretty name and original name for the function
// of frame. If there is no pretty name, then the pretty name is the
// qualified name.
func (p *profiler) prettyFunName(frame *interp.CallFrame) (string, string) {
	origLabel := frame.QualifiedName()
	if origLabel == "" {
		return "", ""
	}
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(p.runtime, frame)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}
	return prettyLabel, frame.Name
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(frame *interp.CallFrame) bool {
	return !p.enabled || frame == nil || p.skipFilter != nil && p.skipFilter(p.runtime, frame)
}

// docstring returns the :doc metadata of the var a frame's function was
// defined as, if any.
func docstring(rt *interp.Runtime, frame *interp.CallFrame) string {
	if rt == nil || frame.Namespace == "" {
		return ""
	}
	ns := rt.Registry.Find(lang.NewSymbol("", frame.Namespace))
	if ns == nil {
		return ""
	}
	v := ns.FindInternedVar(lang.NewSymbol("", frame.Name))
	if v == nil || v.Meta() == nil {
		return ""
	}
	doc, _ := v.Meta().ValAt(lang.KeywordDoc).(string)
	return doc
}

// sourceLoc is a parsed CallFrame.Source.
type sourceLoc struct {
	File string
	Line int
	Col  int
}

// getSourceLoc parses a source of the form file:line[:col].
func getSourceLoc(frame *interp.CallFrame) *sourceLoc {
	parts := strings.Split(frame.Source, ":")
	if len(parts) < 2 {
		return nil
	}
	nums := make([]int, 0, 2)
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	if len(nums) == 0 {
		return nil
	}
	loc := &sourceLoc{File: strings.Join(parts, ":"), Line: nums[0]}
	if len(nums) > 1 {
		loc.Col = nums[1]
	}
	return loc
}
