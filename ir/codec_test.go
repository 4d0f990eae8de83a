// Copyright © 2018 The ELPS authors

package ir_test

import (
	"testing"

	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	reg := lang.NewRegistry()
	ns := reg.FindOrCreate(lang.NewSymbol("", "codec.test"))
	v, err := ns.Intern(lang.NewSymbol("", "f"))
	require.NoError(t, err)
	meta, err := lang.MapOf(lang.KeywordDynamic, true, lang.KeywordLine, int64(4))
	require.NoError(t, err)
	quoted, err := lang.MapOf(lang.Kw("k"), lang.VectorOf(int64(1), 2.5, "s", nil, true), "set", lang.SetOf(lang.NewSymbol("a", "b")))
	require.NoError(t, err)

	body := &ir.Loop{
		Bindings: []string{"i"},
		Inits:    []ir.Node{&ir.Argument{Name: "n", Index: 0}},
		Body: &ir.If{
			Test: &ir.Call{Fn: &ir.VarRef{Var: v}, Args: []ir.Node{&ir.Local{Name: "i"}}},
			Then: &ir.Recur{Args: []ir.Node{&ir.Closure{Name: "x", Target: &ir.Local{Name: "x"}}}},
			Else: &ir.Try{
				Body: &ir.Throw{Value: &ir.Const{Value: "boom"}},
				Catches: []*ir.Catch{
					{Type: &ir.Host{Name: "Exception"}, Binding: "e", Body: &ir.Local{Name: "e"}},
				},
				Finally: &ir.Method{Target: &ir.Self{}, Name: "close", Args: []ir.Node{ir.Nil}},
			},
		},
	}
	fn := &ir.Fn{
		Name:     "f",
		Closures: []*ir.Closure{{Name: "x", Target: &ir.Local{Name: "x"}}},
		Clauses: []*ir.FnClause{
			{Params: []string{"n"}, Guard: ir.ArityGuard{Min: 1, Exact: true}, Body: body},
			{Params: []string{"a"}, Rest: "more", Guard: ir.ArityGuard{Min: 1}, Body: &ir.Argument{Name: "more", Index: 1, Rest: true}},
		},
	}
	prog := []ir.Node{
		&ir.InNS{Name: "codec.test"},
		&ir.Def{Var: v, Value: fn, Meta: meta},
		&ir.Do{Body: []ir.Node{
			&ir.StoreLocal{Name: "q", Value: &ir.Const{Value: quoted}},
			&ir.Is{Left: &ir.Local{Name: "q"}, Right: &ir.Property{Target: &ir.Local{Name: "q"}, Name: "count"}},
			&ir.Const{Value: lang.ListOf(lang.NewSymbol("", "quote"), lang.Kw("x"))},
		}},
	}

	data, err := ir.Marshal(prog...)
	require.NoError(t, err)
	again, err := ir.Marshal(prog...)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")

	decoded, err := ir.Unmarshal(data, reg)
	require.NoError(t, err)
	require.Len(t, decoded, len(prog))
	for i := range prog {
		assert.Equal(t, ir.Print(prog[i]), ir.Print(decoded[i]))
	}
	def := decoded[1].(*ir.Def)
	assert.Same(t, v, def.Var, "vars are re-interned in the registry")
	assert.True(t, lang.Equiv(meta, def.Meta))
	store := decoded[2].(*ir.Do).Body[0].(*ir.StoreLocal)
	assert.True(t, lang.Equiv(quoted, store.Value.(*ir.Const).Value))
}

func TestCodecRejectsHostValues(t *testing.T) {
	_, err := ir.Marshal(&ir.Const{Value: make(chan int)})
	assert.Error(t, err)
	_, err = ir.Marshal(&ir.VarRef{Var: lang.NewVar(nil, nil)})
	assert.Error(t, err)
}

func TestCodecRejectsGarbage(t *testing.T) {
	_, err := ir.Unmarshal([]byte{0xff, 0x00}, nil)
	assert.Error(t, err)
}

func TestPrint(t *testing.T) {
	n := &ir.Fn{Name: "f", Clauses: []*ir.FnClause{
		{Params: []string{"x"}, Rest: "ys", Guard: ir.ArityGuard{Min: 1}, Body: &ir.Local{Name: "x"}},
	}}
	assert.Equal(t, "(fn f (clause [x & ys] >=1 (local x)))", ir.Print(n))
	assert.Equal(t, `(if (const true) (const "a") (const nil))`,
		ir.Print(&ir.If{Test: &ir.Const{Value: true}, Then: &ir.Const{Value: "a"}, Else: ir.Nil}))
	assert.True(t, ir.ArityGuard{Min: 2, Exact: true}.Matches(2))
	assert.False(t, ir.ArityGuard{Min: 2, Exact: true}.Matches(3))
	assert.True(t, ir.ArityGuard{Min: 2}.Matches(3))
	assert.False(t, ir.ArityGuard{Min: 2}.Matches(1))
}
