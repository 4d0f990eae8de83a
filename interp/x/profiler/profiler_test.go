// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/interp"
)

const testSource = `
(defn print-it
  "@trace{ Print It }"
  [x]
  (str x))

(defn add-it [x y]
  (+ x y))

(defn recurse-it
  "@trace"
  [x]
  (if (> x 4)
    (recurse-it (- x 1))
    (add-it x 3)))

(print-it "Hello")
(print-it (add-it (add-it 3 (recurse-it 6)) 8))
`

func newRuntime(t *testing.T) *interp.Runtime {
	rt, err := interp.New()
	require.NoError(t, err)
	return rt
}

func runTestSource(t *testing.T, rt *interp.Runtime) {
	val, err := rt.LoadString(context.Background(), "test.clj", testSource)
	require.NoError(t, err)
	require.Equal(t, "18", val)
}
