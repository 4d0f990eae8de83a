// Copyright © 2018 The ELPS authors

package lang_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/luthersystems/cljgo/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collider keys all share one hash.
type collider struct {
	id int
}

func (c collider) Hash() uint32 { return 7 }

func TestHashMapBasics(t *testing.T) {
	m, err := lang.MapOf(lang.Kw("a"), 1, "b", 2, int64(3), "three")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, 1, m.ValAt(lang.Kw("a")))
	assert.Equal(t, "three", m.ValAt(3))
	assert.Equal(t, "nf", m.ValAtOr("zz", "nf"))
	assert.True(t, m.ContainsKey("b"))

	m2 := m.Without("b")
	assert.Equal(t, 2, m2.Count())
	assert.False(t, m2.ContainsKey("b"))
	assert.True(t, m.ContainsKey("b"))
	assert.Same(t, m2, m2.Without("b"))

	_, err = lang.MapOf("a")
	assert.Error(t, err)
}

func TestHashMapReplace(t *testing.T) {
	m, err := lang.MapOf("a", "x")
	require.NoError(t, err)
	v := m.ValAt("a")
	assert.Same(t, m, m.Assoc("a", v))
	m2 := m.Assoc("a", "y")
	assert.Equal(t, 1, m2.Count())
	assert.Equal(t, "y", m2.ValAt("a"))
	assert.Equal(t, "x", m.ValAt("a"))
}

func TestHashMapCollisions(t *testing.T) {
	m := lang.EmptyHashMap
	for i := 0; i < 10; i++ {
		m = m.Assoc(collider{i}, i)
	}
	assert.Equal(t, 10, m.Count())
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, m.ValAt(collider{i}))
	}
	assert.Equal(t, 10, lang.SeqCount(m.Seq()))
	m = m.Assoc(collider{3}, "three")
	assert.Equal(t, 10, m.Count())
	assert.Equal(t, "three", m.ValAt(collider{3}))
	for i := 0; i < 10; i += 2 {
		m = m.Without(collider{i})
	}
	assert.Equal(t, 5, m.Count())
	assert.False(t, m.ContainsKey(collider{4}))
	assert.True(t, m.ContainsKey(collider{5}))
	assert.Len(t, lang.SeqSlice(m.Keys()), 5)
}

func TestHashMapLarge(t *testing.T) {
	m := lang.EmptyHashMap
	for i := 0; i < 2000; i++ {
		m = m.Assoc(fmt.Sprint("key", i), i)
	}
	assert.Equal(t, 2000, m.Count())
	assert.Equal(t, 2000, lang.SeqCount(m.Seq()))
	for i := 0; i < 2000; i += 3 {
		m = m.Without(fmt.Sprint("key", i))
	}
	for i := 0; i < 2000; i++ {
		assert.Equal(t, i%3 != 0, m.ContainsKey(fmt.Sprint("key", i)))
	}
}

func TestHashMapEquiv(t *testing.T) {
	a, err := lang.MapOf("a", 1, "b", lang.VectorOf(1, 2))
	require.NoError(t, err)
	b, err := lang.MapOf("b", lang.ListOf(1, 2), "a", int64(1))
	require.NoError(t, err)
	assert.True(t, lang.Equiv(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, lang.Equiv(a, a.Assoc("c", 3)))
}

func TestHashSignedZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	require.True(t, lang.Equiv(0.0, negZero))
	assert.Equal(t, lang.Hash(0.0), lang.Hash(negZero))
	assert.Equal(t, 1, lang.SetOf(0.0, negZero).Count())
	m, err := lang.MapOf(0.0, "a")
	require.NoError(t, err)
	assert.True(t, m.ContainsKey(negZero))
}

func TestHashSet(t *testing.T) {
	s := lang.SetOf(1, 2, 3, 2)
	assert.Equal(t, 3, s.Count())
	assert.True(t, s.Contains(2))
	assert.Same(t, s, s.Conj(1))
	s2 := s.Disj(2)
	assert.False(t, s2.Contains(2))
	assert.True(t, s.Contains(2))
	assert.Same(t, s2, s2.Disj(2))
	assert.True(t, lang.Equiv(lang.SetOf(3, 2, 1), s))
	assert.False(t, lang.Equiv(s, lang.VectorOf(1, 2, 3)))
	assert.Equal(t, lang.SetOf(1, 2, 3).Hash(), s.Hash())

	x, err := s.Invoke(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, x)
	x, err = s.Invoke(nil, 9)
	require.NoError(t, err)
	assert.Nil(t, x)
}

func TestKeywordsInterned(t *testing.T) {
	assert.Same(t, lang.Kw("foo"), lang.Kw("foo"))
	assert.Same(t, lang.InternKeyword("ns", "foo"), lang.InternKeyword("ns", "foo"))
	assert.NotSame(t, lang.Kw("foo"), lang.InternKeyword("ns", "foo"))
	assert.Equal(t, ":ns/foo", lang.InternKeyword("ns", "foo").String())

	m, err := lang.MapOf(lang.Kw("a"), 1)
	require.NoError(t, err)
	x, err := lang.Kw("a").Invoke(nil, m)
	require.NoError(t, err)
	assert.Equal(t, 1, x)
}

func TestSymbols(t *testing.T) {
	s := lang.ParseSymbol("clojure.core/first")
	assert.Equal(t, "clojure.core", s.NS)
	assert.Equal(t, "first", s.Name)
	assert.Equal(t, "/", lang.ParseSymbol("/").Name)
	assert.True(t, lang.Equiv(lang.NewSymbol("", "x"), lang.ParseSymbol("x")))
	assert.Equal(t, lang.Hash(lang.NewSymbol("", "x")), lang.Hash(lang.ParseSymbol("x")))
	meta, err := lang.MapOf(lang.KeywordLine, int64(3))
	require.NoError(t, err)
	withMeta := lang.NewSymbol("", "x").WithMeta(meta)
	assert.True(t, lang.Equiv(withMeta, lang.NewSymbol("", "x")))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, lang.Compare(nil, false))
	assert.Equal(t, -1, lang.Compare(false, true))
	assert.Equal(t, -1, lang.Compare(true, 0))
	assert.Equal(t, -1, lang.Compare(1, 1.5))
	assert.Equal(t, 0, lang.Compare(2, int64(2)))
	assert.Equal(t, -1, lang.Compare(100, "a"))
	assert.Equal(t, -1, lang.Compare("z", lang.Kw("a")))
	assert.Equal(t, -1, lang.Compare(lang.Kw("z"), lang.NewSymbol("", "a")))
	assert.Equal(t, 1, lang.Compare(lang.NewSymbol("b", "a"), lang.NewSymbol("a", "z")))
}

func TestSeqHelpers(t *testing.T) {
	s := lang.ListOf(1, 2, 3)
	assert.True(t, lang.SeqEquiv(s.Seq(), lang.VectorOf(1, 2, 3)))
	assert.False(t, lang.SeqEquiv(s.Seq(), lang.VectorOf(1, 2)))
	assert.False(t, lang.SeqEquiv(s.Seq(), lang.VectorOf(1, 2, 3, 4)))
	assert.False(t, lang.SeqEquiv(s.Seq(), lang.SetOf(1, 2, 3)))
	seed := ^uint32(0)
	assert.Equal(t, seed, lang.SeqHash(nil))
	assert.Equal(t, 31*seed+lang.Hash(1), lang.SeqHash(lang.ListOf(1).Seq()))
	assert.Equal(t, 3, lang.SeqCount(lang.NewCons(0, lang.ListOf(1, 2).Seq())))
	assert.Equal(t, "(0 1 2)", lang.PrintString(lang.NewCons(0, lang.ListOf(1, 2).Seq())))
	assert.Equal(t, "()", lang.PrintString(lang.EmptyList))
	assert.Equal(t, `("a" :b c 1.5 2.0 nil)`, lang.PrintString(lang.ListOf("a", lang.Kw("b"), lang.NewSymbol("", "c"), 1.5, 2.0, nil)))
}

func TestList(t *testing.T) {
	l := lang.ListOf(1, 2, 3)
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 1, l.Peek())
	p, err := l.Pop()
	require.NoError(t, err)
	assert.True(t, lang.Equiv(lang.ListOf(2, 3), p))
	_, err = lang.EmptyList.Pop()
	assert.IsType(t, &lang.IllegalStateError{}, err)
	x, err := l.Nth(2)
	require.NoError(t, err)
	assert.Equal(t, 3, x)
	assert.Equal(t, []interface{}{1, 2, 3}, l.Slice())
}
