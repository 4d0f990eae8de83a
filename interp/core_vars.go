// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/lang"
)

var varBuiltins = []*builtin{
	{"deref", fixed(1), builtinDeref},
	{"var-get", fixed(1), builtinDeref},
	{"var-set", fixed(2), builtinVarSet},
	{"alter-var-root", atLeast(2), builtinAlterVarRoot},
	{"push-thread-bindings", fixed(1), builtinPushThreadBindings},
	{"pop-thread-bindings", fixed(0), builtinPopThreadBindings},
	{"bound?", atLeast(1), builtinBound},
	{"thread-bound?", atLeast(1), builtinThreadBound},
	{"find-var", fixed(1), builtinFindVar},
	{"intern", between(2, 3), builtinIntern},
	{"set-macro!", fixed(1), builtinSetMacro},
	{"all-ns", fixed(0), builtinAllNS},
	{"find-ns", fixed(1), builtinFindNS},
	{"create-ns", fixed(1), builtinCreateNS},
	{"the-ns", fixed(1), builtinTheNS},
	{"ns-name", fixed(1), builtinNSName},
	{"alias", fixed(2), builtinAlias},
}

func toVar(op string, x interface{}) (*lang.Var, error) {
	v, ok := x.(*lang.Var)
	if !ok {
		return nil, lang.IllegalArgumentf("%s: not a var: %s", op, describe(x))
	}
	return v, nil
}

func builtinDeref(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	v, err := toVar("deref", args[0])
	if err != nil {
		return nil, err
	}
	return v.Deref(t), nil
}

func builtinVarSet(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	v, err := toVar("var-set", args[0])
	if err != nil {
		return nil, err
	}
	return v.Set(t, args[1])
}

func builtinAlterVarRoot(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	v, err := toVar("alter-var-root", args[0])
	if err != nil {
		return nil, err
	}
	fn, ok := args[1].(lang.IFn)
	if !ok {
		return nil, lang.IllegalArgumentf("alter-var-root: not a function: %s", describe(args[1]))
	}
	return v.AlterRoot(t, fn, args[2:]...)
}

func builtinPushThreadBindings(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var bindings lang.IPersistentMap
	if args[0] != nil {
		var ok bool
		bindings, ok = args[0].(lang.IPersistentMap)
		if !ok {
			return nil, lang.IllegalArgumentf("push-thread-bindings: not a map: %s", describe(args[0]))
		}
	}
	return nil, t.PushBindings(bindings)
}

func builtinPopThreadBindings(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return nil, t.PopBindings()
}

func allVars(op string, args []interface{}, test func(v *lang.Var) bool) (interface{}, error) {
	for _, x := range args {
		v, err := toVar(op, x)
		if err != nil {
			return nil, err
		}
		if !test(v) {
			return false, nil
		}
	}
	return true, nil
}

func builtinBound(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return allVars("bound?", args, func(v *lang.Var) bool { return v.IsBound(t) })
}

func builtinThreadBound(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return allVars("thread-bound?", args, func(v *lang.Var) bool { return v.IsThreadBound(t) })
}

func builtinFindVar(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	sym, ok := args[0].(*lang.Symbol)
	if !ok || !sym.IsQualified() {
		return nil, lang.IllegalArgumentf("find-var: symbol must be namespace qualified: %s", describe(args[0]))
	}
	ns := rt.Registry.Find(lang.NewSymbol("", sym.NS))
	if ns == nil {
		return nil, lang.IllegalArgumentf("no such namespace: %s", sym.NS)
	}
	if v := ns.FindInternedVar(lang.NewSymbol("", sym.Name)); v != nil {
		return v, nil
	}
	return nil, nil
}

// toNamespace accepts a namespace or the symbol naming an existing one.
func (rt *Runtime) toNamespace(op string, x interface{}) (*lang.Namespace, error) {
	switch x := x.(type) {
	case *lang.Namespace:
		return x, nil
	case *lang.Symbol:
		if ns := rt.Registry.Find(x); ns != nil {
			return ns, nil
		}
		return nil, lang.IllegalArgumentf("no namespace: %v found", x)
	}
	return nil, lang.IllegalArgumentf("%s: not a namespace: %s", op, describe(x))
}

func builtinIntern(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	ns, err := rt.toNamespace("intern", args[0])
	if err != nil {
		return nil, err
	}
	sym, ok := args[1].(*lang.Symbol)
	if !ok || sym.IsQualified() {
		return nil, lang.IllegalArgumentf("intern: name must be an unqualified symbol: %s", describe(args[1]))
	}
	v, err := ns.Intern(sym)
	if err != nil {
		return nil, err
	}
	if len(args) == 3 {
		v.BindRoot(args[2])
	}
	return v, nil
}

func builtinSetMacro(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	v, err := toVar("set-macro!", args[0])
	if err != nil {
		return nil, err
	}
	return v.SetMacro(), nil
}

func builtinAllNS(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	all := rt.Registry.All()
	items := make([]interface{}, len(all))
	for i, ns := range all {
		items[i] = ns
	}
	return lang.ListOf(items...), nil
}

func builtinFindNS(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	sym, ok := args[0].(*lang.Symbol)
	if !ok {
		return nil, lang.IllegalArgumentf("find-ns: not a symbol: %s", describe(args[0]))
	}
	if ns := rt.Registry.Find(sym); ns != nil {
		return ns, nil
	}
	return nil, nil
}

func builtinCreateNS(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	sym, ok := args[0].(*lang.Symbol)
	if !ok || sym.IsQualified() {
		return nil, lang.IllegalArgumentf("create-ns: name must be an unqualified symbol: %s", describe(args[0]))
	}
	return rt.Registry.FindOrCreate(sym), nil
}

func builtinTheNS(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return rt.toNamespace("the-ns", args[0])
}

func builtinNSName(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	ns, err := rt.toNamespace("ns-name", args[0])
	if err != nil {
		return nil, err
	}
	return ns.Name(), nil
}

// builtinAlias adds an alias for an existing namespace to the current
// namespace.
func builtinAlias(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	alias, ok := args[0].(*lang.Symbol)
	if !ok || alias.IsQualified() {
		return nil, lang.IllegalArgumentf("alias: name must be an unqualified symbol: %s", describe(args[0]))
	}
	target, err := rt.toNamespace("alias", args[1])
	if err != nil {
		return nil, err
	}
	return nil, rt.Namespace().AddAlias(alias, target)
}
