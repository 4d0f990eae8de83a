// Copyright © 2018 The ELPS authors

package interp

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/cljgo/lang"
)

var langBuiltins = []*builtin{
	{"not", fixed(1), builtinNot},
	{"identity", fixed(1), builtinIdentity},
	{"identical?", fixed(2), builtinIdentical},
	{"nil?", fixed(1), is(func(x interface{}) bool { return x == nil })},
	{"some?", fixed(1), is(func(x interface{}) bool { return x != nil })},
	{"true?", fixed(1), is(func(x interface{}) bool { return x == true })},
	{"false?", fixed(1), is(func(x interface{}) bool { return x == false })},
	{"boolean?", fixed(1), isType[bool]()},
	{"string?", fixed(1), isType[string]()},
	{"keyword?", fixed(1), isType[*lang.Keyword]()},
	{"symbol?", fixed(1), isType[*lang.Symbol]()},
	{"var?", fixed(1), isType[*lang.Var]()},
	{"list?", fixed(1), isType[*lang.PersistentList]()},
	{"vector?", fixed(1), isType[lang.IPersistentVector]()},
	{"map?", fixed(1), isType[lang.IPersistentMap]()},
	{"set?", fixed(1), isType[*lang.PersistentHashSet]()},
	{"seq?", fixed(1), isType[lang.Seq]()},
	{"fn?", fixed(1), is(isFn)},
	{"number?", fixed(1), is(lang.IsNumber)},
	{"integer?", fixed(1), is(func(x interface{}) bool { _, ok := lang.ToInt64(x); return ok })},
	{"float?", fixed(1), is(func(x interface{}) bool { return lang.IsNumber(x) && !isInteger(x) })},
	{"coll?", fixed(1), is(isColl)},
	{"type", fixed(1), builtinType},
	{"str", atLeast(0), builtinStr},
	{"pr-str", atLeast(0), builtinPrStr},
	{"print", atLeast(0), printer(lang.Str, false)},
	{"println", atLeast(0), printer(lang.Str, true)},
	{"pr", atLeast(0), printer(lang.PrintString, false)},
	{"prn", atLeast(0), printer(lang.PrintString, true)},
	{"meta", fixed(1), builtinMeta},
	{"with-meta", fixed(2), builtinWithMeta},
	{"name", fixed(1), builtinName},
	{"namespace", fixed(1), builtinNamespace},
	{"symbol", between(1, 2), builtinSymbol},
	{"keyword", between(1, 2), builtinKeyword},
	{"gensym", between(0, 1), builtinGensym},
	{"ex-info", between(2, 3), builtinExInfo},
	{"ex-message", fixed(1), builtinExMessage},
	{"ex-data", fixed(1), builtinExData},
	{"ex-cause", fixed(1), builtinExCause},
	{"instance?", fixed(2), builtinInstance},
	{"eval", fixed(1), builtinEval},
	{"macroexpand-1", fixed(1), builtinMacroexpand1},
	{"macroexpand", fixed(1), builtinMacroexpand},
}

func builtinNot(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return !lang.IsTruthy(args[0]), nil
}

func builtinIdentity(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return args[0], nil
}

func builtinIdentical(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.Identical(args[0], args[1]), nil
}

func is(pred func(x interface{}) bool) builtinFn {
	return func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
		return pred(args[0]), nil
	}
}

func isType[T any]() builtinFn {
	return is(func(x interface{}) bool {
		_, ok := x.(T)
		return ok
	})
}

func isInteger(x interface{}) bool {
	_, ok := lang.ToInt64(x)
	return ok
}

func isFn(x interface{}) bool {
	switch x.(type) {
	case *Func, *lang.Fn:
		return true
	}
	return false
}

func isColl(x interface{}) bool {
	switch x.(type) {
	case *lang.PersistentList, lang.IPersistentVector, lang.IPersistentMap, *lang.PersistentHashSet, lang.Seq:
		return true
	}
	return false
}

func builtinType(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return fmt.Sprintf("%T", args[0]), nil
}

func builtinStr(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var b strings.Builder
	for _, x := range args {
		b.WriteString(lang.Str(x))
	}
	return b.String(), nil
}

func joinForms(args []interface{}, render func(interface{}) string) string {
	parts := make([]string, len(args))
	for i, x := range args {
		parts[i] = render(x)
	}
	return strings.Join(parts, " ")
}

func builtinPrStr(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return joinForms(args, lang.PrintString), nil
}

// printer writes its arguments to the runtime's Stdout separated by spaces.
func printer(render func(interface{}) string, newline bool) builtinFn {
	return func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
		out := joinForms(args, render)
		if newline {
			out += "\n"
		}
		if _, err := io.WriteString(rt.Stdout, out); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func builtinMeta(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	m, ok := args[0].(lang.IMeta)
	if !ok {
		return nil, nil
	}
	if meta := m.Meta(); meta != nil {
		return meta, nil
	}
	return nil, nil
}

func builtinWithMeta(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var meta lang.IPersistentMap
	if args[1] != nil {
		var ok bool
		meta, ok = args[1].(lang.IPersistentMap)
		if !ok {
			return nil, lang.IllegalArgumentf("with-meta: metadata must be a map: %s", describe(args[1]))
		}
	}
	switch x := args[0].(type) {
	case *lang.PersistentList:
		return x.WithMeta(meta), nil
	case *lang.PersistentVector:
		return x.WithMeta(meta), nil
	case *lang.SubVec:
		return x.WithMeta(meta), nil
	case *lang.PersistentHashMap:
		return x.WithMeta(meta), nil
	case *lang.PersistentTreeMap:
		return x.WithMeta(meta), nil
	case *lang.PersistentHashSet:
		return x.WithMeta(meta), nil
	case *lang.Symbol:
		return x.WithMeta(meta), nil
	case *lang.Cons:
		return x.WithMeta(meta), nil
	case *Func:
		return x.WithMeta(meta), nil
	}
	return nil, lang.IllegalArgumentf("with-meta: metadata not supported on %s", describe(args[0]))
}

func builtinName(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	switch x := args[0].(type) {
	case string:
		return x, nil
	case *lang.Keyword:
		return x.Name(), nil
	case *lang.Symbol:
		return x.Name, nil
	}
	return nil, lang.IllegalArgumentf("name: doesn't support %s", describe(args[0]))
}

func builtinNamespace(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var ns string
	switch x := args[0].(type) {
	case *lang.Keyword:
		ns = x.Sym().NS
	case *lang.Symbol:
		ns = x.NS
	default:
		return nil, lang.IllegalArgumentf("namespace: doesn't support %s", describe(args[0]))
	}
	if ns == "" {
		return nil, nil
	}
	return ns, nil
}

func nameString(op string, x interface{}) (string, error) {
	switch x := x.(type) {
	case string:
		return x, nil
	case *lang.Symbol:
		return x.String(), nil
	case *lang.Keyword:
		return x.Sym().String(), nil
	case nil:
		return "", nil
	}
	return "", lang.IllegalArgumentf("%s: expected a string: %s", op, describe(x))
}

func builtinSymbol(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args) == 1 {
		if sym, ok := args[0].(*lang.Symbol); ok {
			return sym, nil
		}
		name, err := nameString("symbol", args[0])
		if err != nil {
			return nil, err
		}
		return lang.ParseSymbol(name), nil
	}
	ns, err := nameString("symbol", args[0])
	if err != nil {
		return nil, err
	}
	name, err := nameString("symbol", args[1])
	if err != nil {
		return nil, err
	}
	return lang.NewSymbol(ns, name), nil
}

func builtinKeyword(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args) == 1 {
		switch x := args[0].(type) {
		case *lang.Keyword:
			return x, nil
		case *lang.Symbol:
			return lang.InternKeyword(x.NS, x.Name), nil
		}
		name, err := nameString("keyword", args[0])
		if err != nil {
			return nil, err
		}
		sym := lang.ParseSymbol(name)
		return lang.InternKeyword(sym.NS, sym.Name), nil
	}
	ns, err := nameString("keyword", args[0])
	if err != nil {
		return nil, err
	}
	name, err := nameString("keyword", args[1])
	if err != nil {
		return nil, err
	}
	return lang.InternKeyword(ns, name), nil
}

// gensym returns a symbol unique within the runtime.
func (rt *Runtime) gensym(prefix string) *lang.Symbol {
	rt.gensyms++
	return lang.NewSymbol("", fmt.Sprintf("%s%d", prefix, rt.gensyms))
}

func builtinGensym(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	prefix := "G__"
	if len(args) == 1 {
		var err error
		prefix, err = nameString("gensym", args[0])
		if err != nil {
			return nil, err
		}
	}
	return rt.gensym(prefix), nil
}

func builtinExInfo(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	msg, ok := args[0].(string)
	if !ok {
		return nil, lang.IllegalArgumentf("ex-info: message must be a string: %s", describe(args[0]))
	}
	ex := &ExceptionInfo{Msg: msg}
	if args[1] != nil {
		ex.Data, ok = args[1].(lang.IPersistentMap)
		if !ok {
			return nil, lang.IllegalArgumentf("ex-info: data must be a map: %s", describe(args[1]))
		}
	}
	if len(args) == 3 && args[2] != nil {
		ex.Cause, ok = args[2].(error)
		if !ok {
			return nil, lang.IllegalArgumentf("ex-info: cause must be an exception: %s", describe(args[2]))
		}
	}
	return ex, nil
}

// exceptionInfo finds the *ExceptionInfo in x's chain of wrapped errors.
func exceptionInfo(x interface{}) *ExceptionInfo {
	err, ok := x.(error)
	if !ok {
		return nil
	}
	for {
		switch e := err.(type) {
		case *ExceptionInfo:
			return e
		case *RuntimeError:
			err = e.Err
		default:
			return nil
		}
	}
}

func builtinExMessage(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if ex := exceptionInfo(args[0]); ex != nil {
		return ex.Msg, nil
	}
	if err, ok := args[0].(error); ok {
		return err.Error(), nil
	}
	return nil, nil
}

func builtinExData(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if ex := exceptionInfo(args[0]); ex != nil && ex.Data != nil {
		return ex.Data, nil
	}
	return nil, nil
}

func builtinExCause(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if ex := exceptionInfo(args[0]); ex != nil && ex.Cause != nil {
		return thrownValue(ex.Cause), nil
	}
	return nil, nil
}

func builtinInstance(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	typ, ok := args[0].(lang.ExceptionType)
	if !ok {
		return nil, lang.IllegalArgumentf("instance?: not an exception type: %s", describe(args[0]))
	}
	err, ok := args[1].(error)
	return ok && typ.Matches(err), nil
}

func builtinEval(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	ctx := rt.Context()
	node, err := rt.Compiler.Compile(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return rt.eval(&frame{t: t}, node, false)
}

func builtinMacroexpand1(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	form, _, err := rt.Compiler.Macroexpand1(args[0])
	return form, err
}

func builtinMacroexpand(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	form := args[0]
	for {
		expanded, ok, err := rt.Compiler.Macroexpand1(form)
		if err != nil {
			return nil, err
		}
		if !ok {
			return form, nil
		}
		form = expanded
	}
}
