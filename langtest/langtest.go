// Copyright © 2018 The ELPS authors

// Package langtest runs source level tests against an interp.Runtime.
package langtest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader"
)

// Prefixes of the functions a test file defines as tests and benchmarks.
const (
	TestPrefix      = "test-"
	BenchmarkPrefix = "bench-"
)

func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := reader.Read("test", bytes.NewReader(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// Runner is a test runner for source files.  Every public function in the
// namespace a file ends in whose name begins with TestPrefix is a test.
// Functions beginning with BenchmarkPrefix are benchmarks and receive the
// iteration count.
type Runner struct {
	// Config is applied to the runtime created for each test.
	Config []interp.Config

	// Setup runs before the test file is loaded.
	Setup func(*interp.Runtime) error

	// Teardown runs after each test declared in the file has been run.  Any
	// error returned by the teardown function is reported as a test failure.
	Teardown func(*interp.Runtime) error
}

func (r *Runner) NewRuntime(t testing.TB) (*interp.Runtime, *Logger, error) {
	logger := NewLogger(t)
	cfgs := []interp.Config{
		interp.WithStdout(logger),
		interp.WithStderr(logger),
	}
	rt, err := interp.New(append(cfgs, r.Config...)...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize runtime")
	}
	if r.Setup != nil {
		if err := r.Setup(rt); err != nil {
			return nil, nil, errors.Wrap(err, "setup failed")
		}
	}
	return rt, logger, nil
}

// load evaluates the file and returns the names of the functions in the
// final namespace beginning with prefix.
func (r *Runner) load(t testing.TB, rt *interp.Runtime, path string, source io.Reader, prefix string) ([]*lang.Var, bool) {
	_, err := rt.Load(context.Background(), filepath.Base(path), source)
	if err != nil {
		r.Error(t, err)
		return nil, false
	}
	return namedVars(rt.Namespace(), prefix), true
}

func namedVars(ns *lang.Namespace, prefix string) []*lang.Var {
	var vars []*lang.Var
	for s := ns.Mappings().Seq(); s != nil; s = s.Next() {
		e := s.First().(*lang.MapEntry)
		v, ok := e.Val().(*lang.Var)
		if !ok || v.Namespace() != ns || !v.IsPublic() {
			continue
		}
		if strings.HasPrefix(v.Symbol().Name, prefix) {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Symbol().Name < vars[j].Symbol().Name
	})
	return vars
}

func varNames(vars []*lang.Var) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Symbol().Name
	}
	return names
}

func (r *Runner) loadNames(t testing.TB, path string, source io.Reader, prefix string) []string {
	rt, logger, err := r.NewRuntime(t)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer logger.Flush()
	vars, ok := r.load(t, rt, path, source, prefix)
	if !ok {
		t.FailNow()
	}
	return varNames(vars)
}

func (r *Runner) LoadTests(t *testing.T, path string, source io.Reader) []string {
	return r.loadNames(t, path, source, TestPrefix)
}

func (r *Runner) LoadBenchmarks(b *testing.B, path string, source io.Reader) []string {
	return r.loadNames(b, path, source, BenchmarkPrefix)
}

// RunTest runs the test at index i read from source on a fresh runtime.
// Path is only used to determine a file basename to use in Runtime.Load().
func (r *Runner) RunTest(t *testing.T, i int, path string, source io.Reader) {
	rt, logger, err := r.NewRuntime(t)
	if err != nil {
		t.Error(err.Error())
		return
	}
	defer logger.Flush()
	vars, ok := r.load(t, rt, path, source, TestPrefix)
	if !ok {
		return
	}
	if r.Teardown != nil {
		defer func() {
			if err := r.Teardown(rt); err != nil {
				t.Errorf("teardown: %v", err)
			}
		}()
	}
	if i >= len(vars) {
		t.Errorf("unable to locate test %d", i)
		return
	}
	_, err = vars[i].Invoke(rt.Thread)
	if err != nil {
		r.Error(t, err)
	}
}

func (r *Runner) RunTestFile(t *testing.T, path string) {
	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read test file: %v", err)
		return
	}

	var names []string
	ok := t.Run("$load", func(t *testing.T) {
		names = r.LoadTests(t, path, bytes.NewReader(source))
	})
	if !ok {
		return
	}

	for i := range names {
		// Each test gets its own runtime so a failure in one does not halt
		// the suite as a whole.
		t.Run(names[i], func(t *testing.T) {
			r.RunTest(t, i, path, bytes.NewReader(source))
		})
	}
}

// RunBenchmark runs the benchmark at index i read from source.  Path is only
// used to determine a file basename to use in Runtime.Load().
func (r *Runner) RunBenchmark(b *testing.B, i int, path string, source io.Reader) {
	b.StopTimer()
	rt, logger, err := r.NewRuntime(b)
	if err != nil {
		b.Error(err.Error())
		return
	}
	defer logger.Flush()
	vars, ok := r.load(b, rt, path, source, BenchmarkPrefix)
	if !ok {
		return
	}
	if r.Teardown != nil {
		defer func() {
			b.StopTimer()
			if err := r.Teardown(rt); err != nil {
				b.Errorf("teardown: %v", err)
			}
			b.StartTimer()
		}()
	}
	if i >= len(vars) {
		b.Errorf("unable to locate benchmark %d", i)
		return
	}
	b.StartTimer()
	_, err = vars[i].Invoke(rt.Thread, int64(b.N))
	if err != nil {
		r.Error(b, err)
	}
}

func (r *Runner) RunBenchmarkFile(b *testing.B, path string) {
	b.StopTimer()

	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		b.Errorf("Unable to read test file: %v", err)
		return
	}

	var names []string
	ok := b.Run("$load", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			names = r.LoadBenchmarks(b, path, bytes.NewReader(source))
		}
	})
	if !ok {
		return
	}

	for i := range names {
		b.Run(names[i], func(b *testing.B) {
			r.RunBenchmark(b, i, path, bytes.NewReader(source))
		})
	}
}

// Error reports err as a test failure, including the call stack when err
// carries one.
func (r *Runner) Error(t testing.TB, err error) {
	var rerr *interp.RuntimeError
	if !errors.As(err, &rerr) || rerr.Stack == nil {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	buf.WriteString(err.Error())
	buf.WriteString("\n")
	if _, ioerr := rerr.Stack.DebugPrint(&buf); ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of expressions which are evaluated sequentially
// by an interp.Runtime.
type TestSequence []struct {
	Expr   string // an expression
	Result string // the printed result, or the printed error
	Output string // output written to Runtime.Stdout
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests on isolated runtimes.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		var exprBuf bytes.Buffer
		rt, err := interp.New(
			interp.WithMaximumPhysicalStackHeight(25000),
			interp.WithStdout(&exprBuf),
		)
		if err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, err)
			continue
		}
		for j, expr := range test.TestSequence {
			exprBuf.Reset()
			v, err := reader.ReadString("test", expr.Expr)
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(v) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			if len(v) != 1 {
				t.Errorf("test %d %q: expr %d: more than one expression parsed (%d)", i, test.Name, j, len(v))
				continue
			}
			result := evalString(rt, v[0])
			if result != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, result)
			}
			if exprBuf.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, exprBuf.String())
			}
		}
	}
}

func evalString(rt *interp.Runtime, form interface{}) string {
	val, err := rt.EvalForm(context.Background(), form)
	if err != nil {
		return lang.PrintString(errors.Cause(err))
	}
	return lang.PrintString(val)
}

// RunBenchmark runs a standard benchmark that evaluates the expressions
// parsed from source.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	exprs, err := reader.ReadString("benchmark", source)
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	for i := 0; i < b.N; i++ {
		rt, err := interp.New(
			interp.WithMaximumPhysicalStackHeight(25000),
			interp.WithStdout(io.Discard),
		)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		for i, expr := range exprs {
			if _, err := rt.EvalForm(context.Background(), expr); err != nil {
				b.Fatalf("expr %d: %v", i, err)
			}
		}
		b.StopTimer()
	}
}
