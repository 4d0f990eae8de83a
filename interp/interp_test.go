// Copyright © 2018 The ELPS authors

package interp_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/lang"
)

func newRuntime(t *testing.T, cfgs ...interp.Config) *interp.Runtime {
	rt, err := interp.New(cfgs...)
	require.NoError(t, err)
	return rt
}

type evalTest struct {
	source string
	result string
}

func runEvalTests(t *testing.T, tests []evalTest) {
	for i, test := range tests {
		rt := newRuntime(t)
		val, err := rt.LoadString(context.Background(), "test", test.source)
		if assert.NoError(t, err, "test %d: %s", i, test.source) {
			assert.Equal(t, test.result, lang.PrintString(val), "test %d: %s", i, test.source)
		}
	}
}

func TestArithmetic(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(+)`, `0`},
		{`(+ 1 2 3)`, `6`},
		{`(- 5)`, `-5`},
		{`(- 10 1 2)`, `7`},
		{`(* 2 3.5)`, `7.0`},
		{`(/ 4 2)`, `2`},
		{`(/ 1 2)`, `0.5`},
		{`(quot 7 2)`, `3`},
		{`(rem -7 2)`, `-1`},
		{`(mod -7 2)`, `1`},
		{`(inc 1)`, `2`},
		{`(dec 1.5)`, `0.5`},
		{`(max 1 5 3)`, `5`},
		{`(min 4 2 8)`, `2`},
		{`(< 1 2 3)`, `true`},
		{`(< 1 3 2)`, `false`},
		{`(>= 3 3 1)`, `true`},
		{`(= 1 1)`, `true`},
		{`(not= 1 2)`, `true`},
		{`(== 1 1.0)`, `true`},
		{`(compare 1 2)`, `-1`},
		{`[(zero? 0) (pos? 1) (neg? 1) (even? 2) (odd? 2)]`, `[true true false true false]`},
	})
}

func TestArithmeticErrors(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadString(context.Background(), "test", `(* 9223372036854775807 2)`)
	var arith *interp.ArithmeticError
	require.True(t, errors.As(err, &arith), "%v", err)
	assert.Equal(t, "integer overflow", arith.Msg)

	_, err = rt.LoadString(context.Background(), "test", `(quot 1 0)`)
	require.True(t, errors.As(err, &arith), "%v", err)
	assert.Equal(t, "divide by zero", arith.Msg)

	_, err = rt.LoadString(context.Background(), "test", `(+ 1 :a)`)
	var illegal *lang.IllegalArgumentError
	assert.True(t, errors.As(err, &illegal), "%v", err)
}

func TestCollections(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`[1 (+ 1 1) 3]`, `[1 2 3]`},
		{`{:a (inc 0)}`, `{:a 1}`},
		{`(count [1 2 3])`, `3`},
		{`(count nil)`, `0`},
		{`(nth [1 2 3] 1)`, `2`},
		{`(nth '(1 2 3) 2)`, `3`},
		{`(nth [1] 5 :none)`, `:none`},
		{`(get {:a 1} :a)`, `1`},
		{`(get {:a 1} :b :none)`, `:none`},
		{`(get [1 2] 0)`, `1`},
		{`(assoc {} :a 1)`, `{:a 1}`},
		{`(assoc [1 2] 1 :x)`, `[1 :x]`},
		{`(dissoc {:a 1} :a)`, `{}`},
		{`(contains? #{1 2} 2)`, `true`},
		{`(contains? [1 2] 2)`, `false`},
		{`(conj [1] 2 3)`, `[1 2 3]`},
		{`(conj '(1) 2)`, `(2 1)`},
		{`(conj {} [:a 1])`, `{:a 1}`},
		{`(into [] '(1 2))`, `[1 2]`},
		{`(keys (sorted-map :b 2 :a 1))`, `(:a :b)`},
		{`(vals (sorted-map :b 2 :a 1))`, `(1 2)`},
		{`(peek [1 2 3])`, `3`},
		{`(pop [1 2 3])`, `[1 2]`},
		{`(peek '(1 2 3))`, `1`},
		{`(subvec [1 2 3 4] 1 3)`, `[2 3]`},
		{`(vec '(1 2))`, `[1 2]`},
		{`(list 1 2)`, `(1 2)`},
	})
}

func TestSequences(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(first [1 2])`, `1`},
		{`(first nil)`, `nil`},
		{`(second [1 2])`, `2`},
		{`(rest [1])`, `()`},
		{`(next [1])`, `nil`},
		{`(cons 0 [1 2])`, `(0 1 2)`},
		{`(empty? [])`, `true`},
		{`(concat [1] '(2) nil [3])`, `(1 2 3)`},
		{`(reverse [1 2 3])`, `(3 2 1)`},
		{`(apply + 1 [2 3])`, `6`},
		{`(map inc [1 2 3])`, `(2 3 4)`},
		{`(map + [1 2 3] [10 20])`, `(11 22)`},
		{`(filter even? (range 6))`, `(0 2 4)`},
		{`(remove even? (range 6))`, `(1 3 5)`},
		{`(reduce + [1 2 3])`, `6`},
		{`(reduce + 10 [1 2 3])`, `16`},
		{`(reduce + [])`, `0`},
		{`(range 2 10 3)`, `(2 5 8)`},
		{`(range 3 0 -1)`, `(3 2 1)`},
	})
}

func TestFunctions(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`((fn [x] (* x x)) 4)`, `16`},
		{`(defn adder [n] (fn [x] (+ x n))) ((adder 2) 3)`, `5`},
		{`(defn f [a & more] more) [(f 1) (f 1 2 3)]`, `[nil (2 3)]`},
		{`(defn g ([] 0) ([a] a) ([a & r] (count r))) [(g) (g 5) (g 1 2 3)]`, `[0 5 2]`},
		{`(let [f (fn* ([a] :one) ([a b] :two) ([a & r] :var))] [(f 1) (f 1 2) (f 1 2 3)])`, `[:one :two :var]`},
		{`(let [f (fn* ([a] :one) ([a b] :two) ([& r] :var))] [(f) (f 1) (f 1 2) (f 1 2 3)])`, `[:var :one :two :var]`},
		{`(defn fact [n acc] (if (zero? n) acc (recur (dec n) (* n acc)))) (fact 20 1)`, `2432902008176640000`},
		{`(loop [i 0 acc []] (if (< i 3) (recur (inc i) (conj acc i)) acc))`, `[0 1 2]`},
		{`(let [x 1 y (+ x 1)] [x y])`, `[1 2]`},
		{`(let [f (fn fib [n] (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2)))))] (f 10))`, `55`},
		{`(defn- hidden [] :h) (hidden)`, `:h`},
		{`(defn doc "returns one" [] 1) (:doc (meta (var doc)))`, `"returns one"`},
		{`(fn? inc)`, `true`},
		{`(fn? :a)`, `false`},
		{`(:a {:a 1})`, `1`},
	})
}

func TestMacros(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(if true 1 2)`, `1`},
		{`(if nil 1)`, `nil`},
		{`(when true 1 2)`, `2`},
		{`(when-not true 1)`, `nil`},
		{`(if-not false 1 2)`, `1`},
		{`(cond false 1 nil 2 :else 3)`, `3`},
		{`(cond false 1)`, `nil`},
		{`[(and) (and 1 2) (and 1 nil 2)]`, `[true 2 nil]`},
		{`[(or) (or nil false 3) (or false)]`, `[nil 3 false]`},
		{`(-> 1 inc (* 10))`, `20`},
		{`(->> [1 2 3] (map inc) (reduce +))`, `9`},
		{`(if-let [x nil] :y :n)`, `:n`},
		{`(when-let [x 5] (inc x))`, `6`},
		{`(def acc []) (dotimes [i 3] (alter-var-root (var acc) conj i)) acc`, `[0 1 2]`},
		{`(comment (undefined-fn))`, `nil`},
		{`(declare later) (defn use-later [] (later)) (defn later [] :ok) (use-later)`, `:ok`},
		{`(defmacro unless [c & body] (list 'if c nil (cons 'do body))) (unless false 1 2)`, `2`},
		{`(defmacro two ([a] a) ([a b] b)) (two 1 2)`, `2`},
		{`(macroexpand-1 '(when x y))`, `(if* x (do y))`},
		{`(macroexpand '(when-not x y))`, `(if* x nil (do y))`},
		{`(ns other.space "docs") (def x 1) (find-var 'other.space/x)`, `#'other.space/x`},
		{`#'inc`, `#'clojure.core/inc`},
	})
}

func TestMacroErrors(t *testing.T) {
	for _, src := range []string{
		`(cond true)`,
		`(ns foo (:require bar))`,
		`(var nothing-here)`,
		`(if-let [x] x)`,
		`(binding [x] 1)`,
	} {
		rt := newRuntime(t)
		_, err := rt.LoadString(context.Background(), "test", src)
		assert.Error(t, err, src)
	}
}

func TestDynamicBinding(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(def ^:dynamic *x* 1) (defn getx [] *x*) [(binding [*x* 2] (getx)) (getx)]`, `[2 1]`},
		{`(def ^:dynamic *x* 1) (try (binding [*x* 2] (throw :boom)) (catch Throwable e *x*))`, `1`},
		{`(def ^:dynamic *x* 1) (binding [*x* 2] (thread-bound? (var *x*)))`, `true`},
		{`(def ^:dynamic *x* 1) (binding [*x* 2] (var-set (var *x*) 3) *x*)`, `3`},
		{`(def v 1) (alter-var-root (var v) + 10) v`, `11`},
		{`(def unbound) (bound? (var unbound))`, `false`},
	})
}

func TestExceptions(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(try (throw (ex-info "boom" {:a 1})) (catch ExceptionInfo e (ex-data e)))`, `{:a 1}`},
		{`(try (throw (ex-info "boom" {})) (catch ExceptionInfo e (ex-message e)))`, `"boom"`},
		{`(try (throw :x) (catch Throwable e e))`, `:x`},
		{`(try (nth [] 1) (catch ArithmeticException e :arith) (catch IndexOutOfBoundsException e :index))`, `:index`},
		{`(try ((fn [x] x)) (catch ArityException e :arity))`, `:arity`},
		{`(try 1 (finally 2))`, `1`},
		{`(def log []) [(try (throw (ex-info "x" {})) (catch Exception e :caught) (finally (alter-var-root (var log) conj :fin))) log]`, `[:caught [:fin]]`},
		{`(try (try (throw :inner) (catch ArithmeticException e :no)) (catch Throwable e [:outer e]))`, `[:outer :inner]`},
		{`(instance? ExceptionInfo (ex-info "m" {}))`, `true`},
		{`(ex-message (ex-cause (ex-info "a" {} (ex-info "b" {}))))`, `"b"`},
	})
}

func TestUncaughtException(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadString(context.Background(), "test", `(defn boom [] (throw (ex-info "boom" {:k 1}))) (boom)`)
	require.Error(t, err)
	var info *interp.ExceptionInfo
	require.True(t, errors.As(err, &info), "%v", err)
	assert.Equal(t, "boom", info.Msg)
	var rerr *interp.RuntimeError
	require.True(t, errors.As(err, &rerr))
	if assert.Len(t, rerr.Stack.Frames, 1) {
		assert.Equal(t, "user/boom", rerr.Stack.Frames[0].QualifiedName())
	}
}

func TestRecurNotInTail(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadString(context.Background(), "test", `((fn [x] (inc (recur x))) 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recur not in tail position")
}

func TestArity(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadString(context.Background(), "test", `(defn h [a] a) (h 1 2)`)
	var arity *lang.ArityError
	require.True(t, errors.As(err, &arity), "%v", err)
	assert.Contains(t, err.Error(), "wrong number of args (2)")

	_, err = rt.LoadString(context.Background(), "test", `(inc)`)
	assert.True(t, errors.As(err, &arity), "%v", err)
}

func TestStackOverflow(t *testing.T) {
	rt := newRuntime(t, interp.WithMaximumPhysicalStackHeight(50))
	_, err := rt.LoadString(context.Background(), "test", `(defn f [n] (inc (f n))) (f 1)`)
	var overflow *interp.PhysicalStackOverflowError
	require.True(t, errors.As(err, &overflow), "%v", err)
	assert.Equal(t, 51, overflow.Height)
	assert.Empty(t, rt.Stack.Frames)

	val, err := rt.LoadString(context.Background(), "test",
		`(try (f 1) (catch Exception e :exception) (catch StackOverflowError e :overflow))`)
	require.NoError(t, err)
	assert.Equal(t, lang.Kw("overflow"), val)
}

func TestContextCancel(t *testing.T) {
	rt := newRuntime(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rt.LoadString(ctx, "test", `(loop [] (recur))`)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)

	_, err = rt.LoadString(ctx, "test", `(try (loop [] (recur)) (catch Throwable e :caught))`)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
}

type counter struct {
	N int
}

func (c *counter) Add(k int) int {
	c.N += k
	return c.N
}

func (c *counter) Fail() error {
	return errors.New("failed")
}

func TestHostInterop(t *testing.T) {
	rt := newRuntime(t)
	v, err := rt.Namespace().Intern(lang.NewSymbol("", "c"))
	require.NoError(t, err)
	v.BindRoot(&counter{})

	val, err := rt.LoadString(context.Background(), "test", `(. c (add 2)) (. c (add 3))`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), val)

	val, err = rt.LoadString(context.Background(), "test", `(. c -n)`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), val)

	val, err = rt.LoadString(context.Background(), "test", `(. {:a 1} -a)`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = rt.LoadString(context.Background(), "test", `(. [1 2 3] (count))`)
	require.NoError(t, err)
	assert.Equal(t, int64(3), val)

	_, err = rt.LoadString(context.Background(), "test", `(. c (fail))`)
	assert.EqualError(t, err, "load test: failed")

	_, err = rt.LoadString(context.Background(), "test", `(. c (add 1 2))`)
	var arity *lang.ArityError
	assert.True(t, errors.As(err, &arity), "%v", err)

	_, err = rt.LoadString(context.Background(), "test", `(. c (missing))`)
	assert.Error(t, err)
}

func TestPrinting(t *testing.T) {
	var out bytes.Buffer
	rt := newRuntime(t, interp.WithStdout(&out))
	_, err := rt.LoadString(context.Background(), "test", `(println "a" 1) (prn "a" :b) (print [1 "x"])`)
	require.NoError(t, err)
	assert.Equal(t, "a 1\n\"a\" :b\n[1 \"x\"]", out.String())

	val, err := rt.LoadString(context.Background(), "test", `[(str "a" 1 nil :k) (pr-str "a")]`)
	require.NoError(t, err)
	assert.Equal(t, `["a1:k" "\"a\""]`, lang.PrintString(val))
}

func TestEval(t *testing.T) {
	runEvalTests(t, []evalTest{
		{`(eval '(+ 1 2))`, `3`},
		{`(eval (list 'def 'z 4)) z`, `4`},
		{`(symbol? (gensym))`, `true`},
		{`[(name :a/b) (namespace :a/b) (keyword "k")]`, `["b" "a" :k]`},
	})
}

func TestNamespaces(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()
	_, err := rt.LoadString(ctx, "test", `(ns lib) (def secret 42) (ns user) (alias 'l 'lib)`)
	require.NoError(t, err)
	val, err := rt.LoadString(ctx, "test", `l/secret`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)
	assert.Equal(t, "user", rt.Namespace().Name().Name)

	val, err = rt.LoadString(ctx, "test", `(ns-name (the-ns 'lib))`)
	require.NoError(t, err)
	assert.Equal(t, "lib", lang.PrintString(val))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.clj")
	require.NoError(t, os.WriteFile(path, []byte("(ns loaded)\n(defn twice [x] (* 2 x))\n(twice 21)\n"), 0o600))

	rt := newRuntime(t)
	val, err := rt.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)
	assert.Equal(t, "user", rt.Namespace().Name().Name)

	val, err = rt.LoadString(context.Background(), "test", `(loaded/twice 2)`)
	require.NoError(t, err)
	assert.Equal(t, int64(4), val)

	_, err = rt.LoadFile(context.Background(), filepath.Join(dir, "missing.clj"))
	assert.Error(t, err)
}

func TestCallStack(t *testing.T) {
	stack := &interp.CallStack{MaxHeightPhysical: 2}
	require.NoError(t, stack.Push("a.clj:1:1", "user", "a"))
	require.NoError(t, stack.Push("a.clj:2:1", "user", "b"))
	err := stack.Push("a.clj:3:1", "user", "c")
	var overflow *interp.PhysicalStackOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, "user/b", stack.Top().QualifiedName())

	var buf bytes.Buffer
	_, err = stack.DebugPrint(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Stack Trace [2 frames -- entrypoint last]:")
	assert.Contains(t, buf.String(), "user/b")

	cp := stack.Copy()
	stack.Pop()
	assert.Len(t, cp.Frames, 2)
	assert.Len(t, stack.Frames, 1)
}
