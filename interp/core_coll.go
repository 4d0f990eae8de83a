// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/lang"
)

var collBuiltins = []*builtin{
	{"list", atLeast(0), builtinList},
	{"vector", atLeast(0), builtinVector},
	{"hash-map", atLeast(0), builtinHashMap},
	{"hash-set", atLeast(0), builtinHashSet},
	{"sorted-map", atLeast(0), builtinSortedMap},
	{"count", fixed(1), builtinCount},
	{"nth", between(2, 3), builtinNth},
	{"get", between(2, 3), builtinGet},
	{"assoc", atLeast(3), builtinAssoc},
	{"dissoc", atLeast(1), builtinDissoc},
	{"contains?", fixed(2), builtinContains},
	{"conj", atLeast(1), builtinConj},
	{"into", fixed(2), builtinInto},
	{"keys", fixed(1), builtinKeys},
	{"vals", fixed(1), builtinVals},
	{"peek", fixed(1), builtinPeek},
	{"pop", fixed(1), builtinPop},
	{"subvec", between(2, 3), builtinSubvec},
	{"vec", fixed(1), builtinVec},
}

func builtinList(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.ListOf(args...), nil
}

func builtinVector(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.Vec(args), nil
}

func builtinHashMap(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.MapOf(args...)
}

func builtinHashSet(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.SetOf(args...), nil
}

func builtinSortedMap(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return lang.TreeMapCreate(lang.Compare, args...)
}

func builtinCount(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	n, err := lang.Count(args[0])
	if err != nil {
		return nil, err
	}
	return int64(n), nil
}

func toIndex(op string, x interface{}) (int, error) {
	n, ok := lang.ToInt64(x)
	if !ok {
		return 0, lang.IllegalArgumentf("%s: index must be an integer: %s", op, describe(x))
	}
	return int(n), nil
}

func builtinNth(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	i, err := toIndex("nth", args[1])
	if err != nil {
		return nil, err
	}
	hasDefault := len(args) == 3
	if coll, ok := args[0].(lang.Indexed); ok {
		if hasDefault {
			return coll.NthOr(i, args[2]), nil
		}
		return coll.Nth(i)
	}
	s, err := lang.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	for j := 0; s != nil && i >= 0; j, s = j+1, s.Next() {
		if j == i {
			return s.First(), nil
		}
	}
	if hasDefault {
		return args[2], nil
	}
	if args[0] == nil {
		return nil, nil
	}
	n, _ := lang.Count(args[0])
	return nil, &lang.IndexOutOfRangeError{Index: i, Count: n}
}

// lookup finds key in coll.  Collections that are not associative hold no
// keys.
func lookup(coll, key, notFound interface{}) interface{} {
	switch coll := coll.(type) {
	case lang.IPersistentMap:
		return coll.ValAtOr(key, notFound)
	case *lang.PersistentHashSet:
		if coll.Contains(key) {
			return coll.Get(key)
		}
	case lang.IPersistentVector:
		if i, ok := lang.ToInt64(key); ok {
			return coll.NthOr(int(i), notFound)
		}
	case string:
		if i, ok := lang.ToInt64(key); ok {
			runes := []rune(coll)
			if i >= 0 && int(i) < len(runes) {
				return string(runes[i])
			}
		}
	}
	return notFound
}

func builtinGet(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	var notFound interface{}
	if len(args) == 3 {
		notFound = args[2]
	}
	return lookup(args[0], args[1], notFound), nil
}

func assoc(coll, key, val interface{}) (interface{}, error) {
	switch coll := coll.(type) {
	case nil:
		return lang.EmptyHashMap.Assoc(key, val), nil
	case lang.IPersistentMap:
		return lang.AssocMap(coll, key, val), nil
	case lang.IPersistentVector:
		i, err := toIndex("assoc", key)
		if err != nil {
			return nil, err
		}
		return coll.AssocN(i, val)
	}
	return nil, lang.IllegalArgumentf("assoc: cannot associate in %s", describe(coll))
}

func builtinAssoc(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args)%2 != 1 {
		return nil, lang.IllegalArgumentf("assoc expects an even number of keys and values")
	}
	coll := args[0]
	for i := 1; i < len(args); i += 2 {
		var err error
		coll, err = assoc(coll, args[i], args[i+1])
		if err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func builtinDissoc(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	coll := args[0]
	for _, key := range args[1:] {
		switch m := coll.(type) {
		case nil:
			return nil, nil
		case *lang.PersistentHashMap:
			coll = m.Without(key)
		case *lang.PersistentTreeMap:
			coll = m.Without(key)
		default:
			return nil, lang.IllegalArgumentf("dissoc: not a map: %s", describe(coll))
		}
	}
	return coll, nil
}

func builtinContains(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	switch coll := args[0].(type) {
	case nil:
		return false, nil
	case lang.IPersistentMap:
		return coll.ContainsKey(args[1]), nil
	case *lang.PersistentHashSet:
		return coll.Contains(args[1]), nil
	case lang.Indexed:
		i, ok := lang.ToInt64(args[1])
		return ok && i >= 0 && int(i) < coll.Count(), nil
	case string:
		i, ok := lang.ToInt64(args[1])
		return ok && i >= 0 && int(i) < len([]rune(coll)), nil
	}
	return nil, lang.IllegalArgumentf("contains? not supported on %s", describe(args[0]))
}

// conj adds x to coll in the manner natural for the collection: lists and
// seqs at the front and vectors at the end.
func conj(coll, x interface{}) (interface{}, error) {
	switch coll := coll.(type) {
	case nil:
		return lang.ListOf(x), nil
	case *lang.PersistentList:
		return coll.Cons(x), nil
	case lang.IPersistentVector:
		return coll.Cons(x), nil
	case *lang.PersistentHashSet:
		return coll.Conj(x), nil
	case lang.IPersistentMap:
		switch e := x.(type) {
		case *lang.MapEntry:
			return lang.AssocMap(coll, e.Key(), e.Val()), nil
		case lang.IPersistentVector:
			if e.Count() != 2 {
				return nil, lang.IllegalArgumentf("vector arg to map conj must be a pair")
			}
			return lang.AssocMap(coll, e.NthOr(0, nil), e.NthOr(1, nil)), nil
		case lang.IPersistentMap:
			out := coll
			for s := e.Seq(); s != nil; s = s.Next() {
				me := s.First().(*lang.MapEntry)
				out = lang.AssocMap(out, me.Key(), me.Val())
			}
			return out, nil
		}
		return nil, lang.IllegalArgumentf("conj: cannot add %s to a map", describe(x))
	case lang.Seq:
		return lang.NewCons(x, coll), nil
	}
	return nil, lang.IllegalArgumentf("conj: not a collection: %s", describe(coll))
}

func builtinConj(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args) == 1 {
		if args[0] == nil {
			return lang.EmptyVector, nil
		}
		return args[0], nil
	}
	coll := args[0]
	for _, x := range args[1:] {
		var err error
		coll, err = conj(coll, x)
		if err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func builtinInto(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := lang.ToSeq(args[1])
	if err != nil {
		return nil, err
	}
	coll := args[0]
	for ; s != nil; s = s.Next() {
		coll, err = conj(coll, s.First())
		if err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func mapSeq(op string, x interface{}) (lang.Seq, error) {
	switch m := x.(type) {
	case nil:
		return nil, nil
	case lang.IPersistentMap:
		return m.Seq(), nil
	}
	return nil, lang.IllegalArgumentf("%s: not a map: %s", op, describe(x))
}

func builtinKeys(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := mapSeq("keys", args[0])
	if err != nil || s == nil {
		return nil, err
	}
	return lang.KeySeq(s), nil
}

func builtinVals(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	s, err := mapSeq("vals", args[0])
	if err != nil || s == nil {
		return nil, err
	}
	return lang.ValSeq(s), nil
}

func builtinPeek(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	switch coll := args[0].(type) {
	case nil:
		return nil, nil
	case *lang.PersistentList:
		return coll.Peek(), nil
	case lang.IPersistentVector:
		return coll.Peek(), nil
	}
	return nil, lang.IllegalArgumentf("peek: not a stack: %s", describe(args[0]))
}

func builtinPop(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	switch coll := args[0].(type) {
	case nil:
		return nil, nil
	case *lang.PersistentList:
		return coll.Pop()
	case lang.IPersistentVector:
		return coll.Pop()
	}
	return nil, lang.IllegalArgumentf("pop: not a stack: %s", describe(args[0]))
}

func builtinSubvec(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	start, err := toIndex("subvec", args[1])
	if err != nil {
		return nil, err
	}
	var v interface {
		Count() int
		SubVec(start, end int) (*lang.SubVec, error)
	}
	switch coll := args[0].(type) {
	case *lang.PersistentVector:
		v = coll
	case *lang.SubVec:
		v = coll
	case *lang.MapEntry:
		v = coll.AsVector()
	default:
		return nil, lang.IllegalArgumentf("subvec: not a vector: %s", describe(args[0]))
	}
	end := v.Count()
	if len(args) == 3 {
		end, err = toIndex("subvec", args[2])
		if err != nil {
			return nil, err
		}
	}
	return v.SubVec(start, end)
}

func builtinVec(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if v, ok := args[0].(*lang.PersistentVector); ok {
		return v, nil
	}
	s, err := lang.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	return lang.VecSeq(s), nil
}
