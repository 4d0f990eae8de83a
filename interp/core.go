// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

type builtinFn func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error)

// arity bounds the argument count of a builtin.  A negative max means the
// builtin is variadic.
type arity struct {
	min, max int
}

func fixed(n int) arity      { return arity{n, n} }
func between(a, b int) arity { return arity{a, b} }
func atLeast(n int) arity    { return arity{n, -1} }

func (a arity) check(name string, n int) error {
	if n < a.min || (a.max >= 0 && n > a.max) {
		return lang.Arityf("wrong number of args (%d) passed to %s", n, name)
	}
	return nil
}

type builtin struct {
	name  string
	arity arity
	fn    builtinFn
}

// loadCore interns the builtins, core macros and exception types in the
// registry's core namespace.
func (rt *Runtime) loadCore() error {
	core := rt.Registry.Core()
	fns := make(map[string]lang.IFn)
	for _, table := range [][]*builtin{
		mathBuiltins,
		collBuiltins,
		seqBuiltins,
		langBuiltins,
		varBuiltins,
	} {
		for _, b := range table {
			fn := rt.wrapBuiltin(b)
			if _, err := intern(core, b.name, fn); err != nil {
				return err
			}
			fns[b.name] = fn
		}
	}
	for _, m := range coreMacros {
		v, err := intern(core, m.name, rt.wrapMacro(m))
		if err != nil {
			return err
		}
		v.SetMacro()
	}
	for _, typ := range exceptionTypes {
		if _, err := intern(core, typ.Name, typ); err != nil {
			return err
		}
	}
	rt.hosts = map[string]lang.IFn{
		ir.HostVector:  fns["vector"],
		ir.HostHashMap: fns["hash-map"],
		ir.HostHashSet: fns["hash-set"],
	}
	return nil
}

func intern(ns *lang.Namespace, name string, val interface{}) (*lang.Var, error) {
	v, err := ns.Intern(lang.NewSymbol("", name))
	if err != nil {
		return nil, err
	}
	return v.BindRoot(val), nil
}

func (rt *Runtime) wrapBuiltin(b *builtin) *lang.Fn {
	return &lang.Fn{
		Name: b.name,
		F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
			if err := b.arity.check(b.name, len(args)); err != nil {
				return nil, err
			}
			return b.fn(rt, t, args)
		},
	}
}
