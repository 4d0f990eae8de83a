// Copyright © 2018 The ELPS authors

package repl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/interp"
)

func TestSymbolCompleter(t *testing.T) {
	rt, err := interp.New()
	require.NoError(t, err)
	_, err = rt.LoadString(context.Background(), "test", `(def my-value 1) (defn my-fn [] 2)`)
	require.NoError(t, err)

	c := &symbolCompleter{rt: rt}

	candidates, offset := c.Do([]rune("(ma"), 3)
	assert.Equal(t, 2, offset)
	assert.Contains(t, candidates, []rune("p"), "map")

	candidates, offset = c.Do([]rune("(my-"), 4)
	assert.Equal(t, 3, offset)
	assert.Equal(t, [][]rune{[]rune("fn"), []rune("value")}, candidates)

	candidates, offset = c.Do([]rune("(clojure.core/con"), 17)
	assert.Equal(t, 16, offset)
	assert.Contains(t, candidates, []rune("j"), "clojure.core/conj")

	candidates, _ = c.Do([]rune("(zzz-nonexistent"), 16)
	assert.Empty(t, candidates)
}

func TestFormatError(t *testing.T) {
	rt, err := interp.New()
	require.NoError(t, err)
	_, err = rt.LoadString(context.Background(), "test.clj", "(defn inner [] (throw (ex-info \"bad\" {})))\n(defn outer [] (inner))\n(outer)")
	require.Error(t, err)
	out := FormatError(err)
	assert.Contains(t, out, "error: load test.clj: bad")
	assert.Regexp(t, `(?s)in user/inner at test.clj:1.*in user/outer at test.clj:2`, out)
}
