// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/lang"
)

var seqBuiltins = []*builtin{
	{"seq", fixed(1), builtinSeq},
	{"first", fixed(1), builtinFirst},
	{"second", fixed(1), builtinSecond},
	{"rest", fixed(1), builtinRest},
	{"next", fixed(1), builtinNext},
	{"cons", fixed(2), builtinCons},
	{"empty?", fixed(1), builtinEmpty},
	{"concat", atLeast(0), builtinConcat},
	{"reverse", fixed(1), builtinReverse},
	{"apply", atLeast(2), builtinApply},
	{"map", atLeast(2), builtinMap},
	{"filter", fixed(2), builtinFilter},
	{"remove", fixed(2), builtinRemove},
	{"reduce", between(2, 3), builtinReduce},
	{"range", between(1, 3), builtinRange},
}

func builtinSeq(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil || s == nil {
		return nil, err
	}
	return s, nil
}

func builtinFirst(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil || s == nil {
		return nil, err
	}
	return s.First(), nil
}

func builtinSecond(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil || s == nil {
		return nil, err
	}
	if s = s.Next(); s == nil {
		return nil, nil
	}
	return s.First(), nil
}

func builtinRest(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	if s == nil {
		return lang.EmptyList, nil
	}
	if s = s.Next(); s == nil {
		return lang.EmptyList, nil
	}
	return s, nil
}

func builtinNext(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil || s == nil {
		return nil, err
	}
	if s = s.Next(); s == nil {
		return nil, nil
	}
	return s, nil
}

func builtinCons(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[1])
	if err != nil {
		return nil, err
	}
	return lang.NewCons(args[0], s), nil
}

func builtinEmpty(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	return s == nil, nil
}

// seqItems returns the elements of x.
func seqItems(x interface{}) ([]interface{}, error) {
	s, err := lang.ToSeq(x)
	if err != nil {
		return nil, err
	}
	return lang.SeqSlice(s), nil
}

func builtinConcat(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var items []interface{}
	for _, x := range args {
		more, err := seqItems(x)
		if err != nil {
			return nil, err
		}
		items = append(items, more...)
	}
	return lang.ListOf(items...), nil
}

func builtinReverse(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	out := lang.EmptyList
	for ; s != nil; s = s.Next() {
		out = out.Cons(s.First())
	}
	return out, nil
}

func builtinApply(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	spread, err := seqItems(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	callArgs := make([]interface{}, 0, len(args)-2+len(spread))
	callArgs = append(callArgs, args[1:len(args)-1]...)
	callArgs = append(callArgs, spread...)
	return rt.apply(t, args[0], callArgs)
}

// builtinMap calls fn with successive elements of each collection until the
// shortest is exhausted.  The result is computed eagerly.
func builtinMap(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	seqs := make([]lang.Seq, len(args)-1)
	for i, coll := range args[1:] {
		s, err := lang.ToSeq(coll)
		if err != nil {
			return nil, err
		}
		seqs[i] = s
	}
	var out []interface{}
	for {
		callArgs := make([]interface{}, len(seqs))
		for i, s := range seqs {
			if s == nil {
				return lang.ListOf(out...), nil
			}
			callArgs[i] = s.First()
			seqs[i] = s.Next()
		}
		val, err := rt.apply(t, args[0], callArgs)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
}

func filter(rt *Runtime, t *lang.Thread, pred, coll interface{}, keep bool) (interface{}, error) {
	s, err := lang.ToSeq(coll)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for ; s != nil; s = s.Next() {
		ok, err := rt.apply(t, pred, []interface{}{s.First()})
		if err != nil {
			return nil, err
		}
		if lang.IsTruthy(ok) == keep {
			out = append(out, s.First())
		}
	}
	return lang.ListOf(out...), nil
}

func builtinFilter(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return filter(rt, t, args[0], args[1], true)
}

func builtinRemove(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return filter(rt, t, args[0], args[1], false)
}

// builtinReduce folds fn over a collection.  Without an initial value the
// first element is used, and reducing an empty collection calls fn with no
// arguments.
func builtinReduce(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	fn := args[0]
	s, err := lang.ToSeq(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	var acc interface{}
	if len(args) == 3 {
		acc = args[1]
	} else {
		if s == nil {
			return rt.apply(t, fn, nil)
		}
		acc, s = s.First(), s.Next()
	}
	for ; s != nil; s = s.Next() {
		acc, err = rt.apply(t, fn, []interface{}{acc, s.First()})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinRange(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	bounds := []int64{0, 0, 1}
	if len(args) == 1 {
		args = []interface{}{int64(0), args[0]}
	}
	for i, x := range args {
		n, ok := lang.ToInt64(x)
		if !ok {
			return nil, lang.IllegalArgumentf("range: bounds must be integers: %s", describe(x))
		}
		bounds[i] = n
	}
	start, end, step := bounds[0], bounds[1], bounds[2]
	if step == 0 {
		return nil, lang.IllegalArgumentf("range: step must not be zero")
	}
	var out []interface{}
	for n := start; (step > 0 && n < end) || (step < 0 && n > end); n += step {
		out = append(out, n)
	}
	return lang.ListOf(out...), nil
}
