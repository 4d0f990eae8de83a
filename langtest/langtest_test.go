// Copyright © 2018 The ELPS authors

package langtest_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luthersystems/cljgo/langtest"
)

func TestRunner(t *testing.T) {
	r := &langtest.Runner{}
	r.RunTestFile(t, "testdata/basic_test.clj")
}

func TestLoadTests(t *testing.T) {
	r := &langtest.Runner{}
	src := []byte(`(ns names) (defn test-b []) (defn test-a []) (defn- test-private []) (defn helper [])`)
	names := r.LoadTests(t, "names.clj", bytes.NewReader(src))
	assert.Equal(t, []string{"test-a", "test-b"}, names)
}

func TestSuite(t *testing.T) {
	langtest.RunTestSuite(t, langtest.TestSuite{
		{"arithmetic", langtest.TestSequence{
			{"(+ 1 2)", "3", ""},
			{"(* 2 3.5)", "7.0", ""},
		}},
		{"definitions", langtest.TestSequence{
			{"(defn f [x] (inc x))", "#'user/f", ""},
			{"(f 1)", "2", ""},
		}},
		{"output", langtest.TestSequence{
			{`(println "hello" 1)`, "nil", "hello 1\n"},
			{`(prn "hello")`, "nil", "\"hello\"\n"},
		}},
		{"errors", langtest.TestSequence{
			{`(throw (ex-info "boom" {}))`, `#error "boom"`, ""},
		}},
	})
}

func BenchmarkFile(b *testing.B) {
	r := &langtest.Runner{}
	r.RunBenchmarkFile(b, "testdata/basic_test.clj")
}

func BenchmarkFib(b *testing.B) {
	langtest.RunBenchmark(b, `
(defn fib [n] (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2)))))
(fib 15)`)
}
