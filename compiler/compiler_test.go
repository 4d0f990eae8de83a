// Copyright © 2018 The ELPS authors

package compiler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/luthersystems/cljgo/compiler"
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader"
)

func testRegistry() *lang.Registry {
	reg := lang.NewRegistry()
	core := reg.Core()
	for _, name := range []string{"+", "Exception"} {
		name := name
		v, _ := core.Intern(lang.NewSymbol("", name))
		v.BindRoot(&lang.Fn{Name: name, F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
			return nil, nil
		}})
	}
	when, _ := core.Intern(lang.NewSymbol("", "when"))
	when.BindRoot(&lang.Fn{Name: "when", F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
		body := append([]interface{}{lang.NewSymbol("", "do")}, args[3:]...)
		return lang.ListOf(lang.NewSymbol("", "if*"), args[2], lang.ListOf(body...)), nil
	}}).SetMacro()
	bad, _ := core.Intern(lang.NewSymbol("", "bad"))
	bad.BindRoot(&lang.Fn{Name: "bad", F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	}}).SetMacro()

	other := reg.FindOrCreate(lang.NewSymbol("", "other"))
	pub, _ := other.Intern(lang.NewSymbol("", "pub"))
	pub.BindRoot(int64(1))
	priv, _ := other.Intern(lang.NewSymbol("", "priv"))
	priv.BindRoot(int64(2)).SetPublic(false)
	return reg
}

func readOne(t *testing.T, src string) interface{} {
	forms, err := reader.ReadString("test", src)
	require.NoError(t, err, src)
	require.Len(t, forms, 1, src)
	return forms[0]
}

func compileString(t *testing.T, c *compiler.Compiler, src string) (ir.Node, error) {
	return c.Compile(context.Background(), readOne(t, src))
}

func TestCompile(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`1`, `(const 1)`},
		{`"s"`, `(const "s")`},
		{`:k`, `(const :k)`},
		{`nil`, `(const nil)`},
		{`()`, `(const ())`},
		{`'(a b)`, `(const (a b))`},
		{`+`, `(var #'clojure.core/+)`},
		{`other/pub`, `(var #'other/pub)`},
		{`(+ 1 2)`, `(call (var #'clojure.core/+) (const 1) (const 2))`},
		{`[1 2]`, `(call (host vector) (const 1) (const 2))`},
		{`#{:a}`, `(call (host hash-set) (const :a))`},
		{`{:a 1}`, `(call (host hash-map) (const :a) (const 1))`},
		{`(do)`, `(const nil)`},
		{`(do 1)`, `(const 1)`},
		{`(do 1 2)`, `(do (const 1) (const 2))`},
		{`(if* true 1)`, `(if (const true) (const 1) (const nil))`},
		{`(if* true 1 2)`, `(if (const true) (const 1) (const 2))`},
		{`(throw 1)`, `(throw (const 1))`},
		{`(is? 1 2)`, `(is? (const 1) (const 2))`},
		{
			`(let* [x 1] (let* [x 2] x) x)`,
			`(do (store x (const 1)) (do (store x_1 (const 2)) (local x_1)) (local x))`,
		},
		{
			`(let* [x 1 y x] y)`,
			`(do (store x (const 1)) (store y (local x)) (local y))`,
		},
		{
			`(let* [x 1 x (+ x 1)] x)`,
			`(do (store x (const 1)) (store x_1 (call (var #'clojure.core/+) (local x) (const 1))) (local x_1))`,
		},
		{
			`(loop* [i 0] (if* i (recur 1) i))`,
			`(loop [i (const 0)] (if (local i) (recur (const 1)) (local i)))`,
		},
		{
			`(fn* f [x] (f x))`,
			`(fn f (clause [x] =1 (call (self) (arg x 0))))`,
		},
		{
			`(fn* ([x] x) ([] 0) ([x & xs] xs))`,
			`(fn fn_1 (clause [] =0 (const 0)) (clause [x] =1 (arg x 0)) (clause [x & xs] >=1 (arg& xs 1)))`,
		},
		{
			`(fn* [x] (recur x))`,
			`(fn fn_1 (clause [x] =1 (recur (arg x 0))))`,
		},
		{
			`(fn* [& xs] (recur xs))`,
			`(fn fn_1 (clause [& xs] >=0 (recur (arg& xs 0))))`,
		},
		{
			`(let* [y 1] (fn* [x] (+ x y)))`,
			`(do (store y (const 1)) (fn fn_1 (clause [x] =1 (call (var #'clojure.core/+) (arg x 0) (closure y (local y))))))`,
		},
		{
			`(fn* [x] (fn* [] x))`,
			`(fn fn_1 (clause [x] =1 (fn fn_2 (clause [] =0 (closure x (arg x 0))))))`,
		},
		{`(def x 1)`, `(def #'user/x (const 1))`},
		{`(def x)`, `(def #'user/x)`},
		{`(def user/x 2)`, `(def #'user/x (const 2))`},
		{
			`(def f (fn* [] 1))`,
			`(def #'user/f (fn f_fn_1 (clause [] =0 (const 1))))`,
		},
		{
			`(try 1 (catch Exception e e) (finally 2))`,
			`(try (const 1) (catch (var #'clojure.core/Exception) e (local e)) (finally (const 2)))`,
		},
		{
			`(try 1 (except Exception e e))`,
			`(try (const 1) (catch (var #'clojure.core/Exception) e (local e)))`,
		},
		{`(try 1 (finally 2))`, `(try (const 1) (finally (const 2)))`},
		{`(try)`, `(const nil)`},
		{`(try 1)`, `(const 1)`},
		{
			`(let* [o 1] (.foo o 2))`,
			`(do (store o (const 1)) (method .foo (local o) (const 2)))`,
		},
		{
			`(let* [o 1] (.-bar o))`,
			`(do (store o (const 1)) (prop -bar (local o)))`,
		},
		{
			`(let* [o 1] (. o (foo 2)))`,
			`(do (store o (const 1)) (method .foo (local o) (const 2)))`,
		},
		{
			`(let* [o 1] (. o -bar))`,
			`(do (store o (const 1)) (prop -bar (local o)))`,
		},
		{
			`(. clojure.core (+ 1 2))`,
			`(call (var #'clojure.core/+) (const 1) (const 2))`,
		},
		{`(let-macro [m (+ 1 2)] m)`, `(call (var #'clojure.core/+) (const 1) (const 2))`},
		{`(when true 1 2)`, `(if (const true) (do (const 1) (const 2)) (const nil))`},
		{
			`(let* [when 1] (when 2))`,
			`(do (store when (const 1)) (call (local when) (const 2)))`,
		},
	}
	for i, test := range tests {
		c := compiler.New(compiler.WithRegistry(testRegistry()))
		n, err := compileString(t, c, test.source)
		if !assert.NoError(t, err, "test %d: %s", i, test.source) {
			continue
		}
		assert.Equal(t, test.output, ir.Print(n), "test %d: %s", i, test.source)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{`undefined`, "unable to resolve symbol"},
		{`no.such/x`, "no such namespace: no.such"},
		{`clojure.core/nope`, "no such var"},
		{`other/priv`, "var #'other/priv is not public"},
		{`when`, "can't take value of a macro"},
		{`(recur 1)`, "recur outside of loop* or fn*"},
		{`(loop* [i 0] (recur 1 2))`, "mismatched argument count to recur, expected: 1 args, got: 2"},
		{`(fn* [x & xs] (recur 1))`, "mismatched argument count to recur, expected: 2 args, got: 1"},
		{`(fn* ([x] 1) ([y] 2))`, "can't have 2 overloads with the same arity"},
		{`(fn* ([& x] 1) ([& y] 2))`, "only one function overload may have a variable number of arguments"},
		{`(fn* [x &] 1)`, "missing variable length argument after &"},
		{`(fn* [& x y] 1)`, "variable length argument must be the last in the function"},
		{`(def)`, "only 2 or 3 arguments allowed to def"},
		{`(def "x" 1)`, "first argument to def must be a symbol"},
		{`(def other/x 1)`, "can't create defs outside of current namespace"},
		{`(if* 1)`, "if takes 2 or 3 args"},
		{`(let* [x] x)`, "let* takes an even number of bindings"},
		{`(let* x 1)`, "let* takes a vector as its first argument"},
		{`(let* [ns/x 1] x)`, "bindings must be non-namespaced symbols"},
		{`(loop* [])`, "loop* takes at least two args"},
		{`(try 1 (else 2))`, "try does not accept else statements on their own"},
		{`(try 1 (catch Exception e 2) (else 3))`, "try does not support else statements"},
		{`(try 1 (catch Exception e 2) (catch Exception f 3))`, "try cannot catch duplicate exceptions"},
		{`(try 1 (foo 2))`, "try does not accept any symbols apart from catch/except/else/finally"},
		{`(try 1 2)`, "try arguments must be non-empty lists"},
		{`(try 1 (finally 2) (finally 3))`, "try cannot have multiple finally blocks"},
		{`(.foo)`, "method access must have at least one argument"},
		{`(.-foo a b)`, "property access must have only one argument"},
		{`(quote)`, "quote must only have one argument"},
		{`(in-ns "x")`, "namespace name must be an unqualified symbol"},
		{`(bad 1)`, "macroexpand #'clojure.core/bad: boom"},
	}
	for i, test := range tests {
		c := compiler.New(compiler.WithRegistry(testRegistry()))
		_, err := compileString(t, c, test.source)
		if assert.Error(t, err, "test %d: %s", i, test.source) {
			assert.Contains(t, err.Error(), test.msg, "test %d: %s", i, test.source)
		}
	}
}

func TestCompilerErrorForm(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))
	_, err := compileString(t, c, "(do 1\n  (if* 1))")
	require.Error(t, err)
	var cerr *lang.CompilerError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "if takes 2 or 3 args", cerr.Msg)
	assert.Equal(t, "test:2:3", lang.FormLocation(cerr.Form))
	assert.Equal(t, "test:2:3: if takes 2 or 3 args: (if* 1)", err.Error())
}

func TestCompileScopeRestored(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))
	_, err := compileString(t, c, `(let* [x 1] (undefined x))`)
	require.Error(t, err)
	_, err = compileString(t, c, `x`)
	assert.Error(t, err, "local leaked out of a failed compilation")

	n, err := compileString(t, c, `(let* [x 1] x)`)
	require.NoError(t, err)
	assert.Equal(t, `(do (store x (const 1)) (local x))`, ir.Print(n))
}

func TestCompileClosures(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))
	n, err := compileString(t, c, `(let* [a 1 b 2] (fn* [] (+ a a b)))`)
	require.NoError(t, err)
	fn := n.(*ir.Do).Body[2].(*ir.Fn)
	require.Len(t, fn.Closures, 2)
	assert.Equal(t, "a", fn.Closures[0].Name)
	assert.Equal(t, "b", fn.Closures[1].Name)

	// A named fn referring to itself from a nested fn captures the outer self.
	n, err = compileString(t, c, `(fn* f [] (fn* [] f))`)
	require.NoError(t, err)
	outer := n.(*ir.Fn)
	inner := outer.Clauses[0].Body.(*ir.Fn)
	require.Len(t, inner.Closures, 1)
	assert.Equal(t, `(closure f (self))`, ir.Print(inner.Closures[0]))
	assert.Empty(t, outer.Closures)
}

func TestCompileInNS(t *testing.T) {
	reg := testRegistry()
	c := compiler.New(compiler.WithRegistry(reg))
	assert.Equal(t, "user", c.Namespace().Name().Name)

	n, err := compileString(t, c, `(in-ns 'app.core)`)
	require.NoError(t, err)
	assert.Equal(t, `(in-ns app.core)`, ir.Print(n))
	assert.Equal(t, "app.core", c.Namespace().Name().Name)
	assert.NotNil(t, reg.Find(lang.NewSymbol("", "app.core")))

	n, err = compileString(t, c, `(def z 1)`)
	require.NoError(t, err)
	assert.Equal(t, `(def #'app.core/z (const 1))`, ir.Print(n))

	n, err = compileString(t, c, `z`)
	require.NoError(t, err)
	assert.Equal(t, `(var #'app.core/z)`, ir.Print(n))

	c = compiler.New(compiler.WithRegistry(reg), compiler.WithNamespace("app.core"))
	n, err = compileString(t, c, `app.core/z`)
	require.NoError(t, err)
	assert.Equal(t, `(var #'app.core/z)`, ir.Print(n))
}

func TestCompileDefMeta(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))
	n, err := compileString(t, c, "\n(def ^:dynamic *x* 1)")
	require.NoError(t, err)
	def := n.(*ir.Def)
	assert.Equal(t, "*x*", def.Var.Symbol().Name)
	assert.Equal(t, true, def.Meta.ValAt(lang.KeywordDynamic))
	assert.Equal(t, int64(2), def.Meta.ValAt(lang.KeywordLine))
	assert.Equal(t, "test", def.Meta.ValAt(lang.KeywordFile))
}

func TestMacroexpand1(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))

	form := readOne(t, `(when x 1)`)
	exp, ok, err := c.Macroexpand1(form)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `(if* x (do 1))`, lang.PrintString(exp))
	assert.Equal(t, "test:1:1", lang.FormLocation(exp))

	for _, src := range []string{`(+ 1 2)`, `(if* 1 2)`, `(unknown 1)`, `()`, `x`} {
		form := readOne(t, src)
		exp, ok, err := c.Macroexpand1(form)
		assert.NoError(t, err, src)
		assert.False(t, ok, src)
		assert.Equal(t, lang.PrintString(form), lang.PrintString(exp), src)
	}
}

func TestMacroLocalEnv(t *testing.T) {
	reg := testRegistry()
	var env interface{}
	v, _ := reg.Core().Intern(lang.NewSymbol("", "env"))
	v.BindRoot(&lang.Fn{Name: "env", F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
		env = args[1]
		return nil, nil
	}}).SetMacro()

	c := compiler.New(compiler.WithRegistry(reg))
	n, err := compileString(t, c, `(let* [a 1] (env))`)
	require.NoError(t, err)
	assert.Equal(t, `(do (store a (const 1)) (const nil))`, ir.Print(n))
	m, ok := env.(lang.IPersistentMap)
	require.True(t, ok)
	assert.True(t, m.ContainsKey(lang.NewSymbol("", "a")))
	assert.Equal(t, 1, m.Count())
}

func TestIsSpecial(t *testing.T) {
	for _, name := range []string{"def", "let*", "loop*", "fn*", "if*", "do", "quote", "recur", "try", "throw", ".", "is?", "let-macro", "in-ns"} {
		assert.True(t, compiler.IsSpecial(lang.NewSymbol("", name)), name)
	}
	assert.False(t, compiler.IsSpecial(lang.NewSymbol("", "let")))
	assert.False(t, compiler.IsSpecial(lang.NewSymbol("user", "def")))
}

func TestCompileContext(t *testing.T) {
	c := compiler.New(compiler.WithRegistry(testRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compile(ctx, int64(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		assert.NoError(t, tp.Shutdown(context.Background()), "TracerProvider shutdown")
	})

	c := compiler.New(compiler.WithRegistry(testRegistry()), compiler.WithTracer(tp.Tracer("test")))
	_, err := compileString(t, c, `(+ 1 2)`)
	require.NoError(t, err)
	_, err = compileString(t, c, `undefined`)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "compile", spans[0].Name)
	attrs := make(map[string]string)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "list", attrs["cljgo.form.kind"])
	assert.Equal(t, "user", attrs["code.namespace"])
	assert.Equal(t, "1", attrs["code.lineno"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.NotEmpty(t, spans[1].Events, "error recorded")
}
