// Copyright © 2018 The ELPS authors

// Package interp is the reference backend for compiled code.  It walks ir
// trees directly, keeping one frame of locals per function invocation.
package interp

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/cljgo/compiler"
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
)

// Runtime executes compiled code.  A Runtime is not safe for concurrent
// use.
type Runtime struct {
	Registry *lang.Registry
	Compiler *compiler.Compiler
	Thread   *lang.Thread
	Stack    *CallStack
	Stdout   io.Writer
	Stderr   io.Writer
	Profiler Profiler

	tracer  trace.Tracer
	nsName  string
	ctx     context.Context
	hosts   map[string]lang.IFn
	gensyms int64
}

// New returns a Runtime with the core namespace loaded.
func New(cfgs ...Config) (*Runtime, error) {
	rt := &Runtime{
		Stack:  &CallStack{MaxHeightPhysical: DefaultMaxHeightPhysical},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		nsName: "user",
	}
	for _, cfg := range cfgs {
		if err := cfg(rt); err != nil {
			return nil, err
		}
	}
	if rt.Registry == nil {
		rt.Registry = lang.NewRegistry()
	}
	if rt.Thread == nil {
		rt.Thread = lang.NewThread()
	}
	opts := []compiler.Option{
		compiler.WithRegistry(rt.Registry),
		compiler.WithNamespace(rt.nsName),
		compiler.WithThread(rt.Thread),
	}
	if rt.tracer != nil {
		opts = append(opts, compiler.WithTracer(rt.tracer))
	}
	rt.Compiler = compiler.New(opts...)
	if err := rt.loadCore(); err != nil {
		return nil, errors.Wrap(err, "load core")
	}
	return rt, nil
}

// Namespace returns the namespace forms are currently compiled in.
func (rt *Runtime) Namespace() *lang.Namespace {
	return rt.Compiler.Namespace()
}

// Context returns the context of the evaluation in progress.
func (rt *Runtime) Context() context.Context {
	if rt.ctx == nil {
		return context.Background()
	}
	return rt.ctx
}

func (rt *Runtime) checkContext() error {
	if rt.ctx == nil {
		return nil
	}
	return rt.ctx.Err()
}

// Eval executes a compiled top level node.
func (rt *Runtime) Eval(ctx context.Context, node ir.Node) (interface{}, error) {
	prev := rt.ctx
	rt.ctx = ctx
	defer func() { rt.ctx = prev }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rt.eval(&frame{t: rt.Thread}, node, false)
}

// EvalForm compiles form in the current namespace and executes it.
func (rt *Runtime) EvalForm(ctx context.Context, form interface{}) (interface{}, error) {
	node, err := rt.Compiler.Compile(ctx, form)
	if err != nil {
		return nil, err
	}
	return rt.Eval(ctx, node)
}

// EvalProgram executes a sequence of compiled top level nodes and returns
// the value of the last.
func (rt *Runtime) EvalProgram(ctx context.Context, nodes []ir.Node) (interface{}, error) {
	var val interface{}
	for _, node := range nodes {
		var err error
		val, err = rt.Eval(ctx, node)
		if err != nil {
			return nil, err
		}
	}
	return val, nil
}

// Load reads every form from r and evaluates each in turn, so macros
// defined by one form apply to the forms that follow it.  The value of the
// last form is returned.
func (rt *Runtime) Load(ctx context.Context, name string, r io.Reader) (interface{}, error) {
	forms, err := reader.Read(name, r)
	if err != nil {
		return nil, err
	}
	var val interface{}
	for _, form := range forms {
		val, err = rt.EvalForm(ctx, form)
		if err != nil {
			return nil, errors.WithMessagef(err, "load %s", name)
		}
	}
	return val, nil
}

// LoadString is Load reading from src.
func (rt *Runtime) LoadString(ctx context.Context, name string, src string) (interface{}, error) {
	return rt.Load(ctx, name, strings.NewReader(src))
}

// LoadFile loads the source file at path.  The current namespace is restored
// once the file has been loaded.
func (rt *Runtime) LoadFile(ctx context.Context, path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load file")
	}
	defer f.Close() //nolint:errcheck
	ns := rt.Namespace()
	defer rt.Compiler.SetNamespace(ns)
	return rt.Load(ctx, path, f)
}
