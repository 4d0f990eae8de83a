// Copyright © 2018 The ELPS authors

package lang

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/zeebo/xxh3"
)

// Comparator orders two values, returning a negative number, zero, or a
// positive number as a sorts before, equal to, or after b.
type Comparator func(a, b interface{}) int

// Identical reports whether a and b are the same value.  Pointers compare
// by address and scalars by value.  Values of uncomparable dynamic types are
// never identical.
func Identical(a, b interface{}) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// IsTruthy reports whether x counts as true in a conditional.  Only nil and
// false are falsey.
func IsTruthy(x interface{}) bool {
	if x == nil {
		return false
	}
	if b, ok := x.(bool); ok {
		return b
	}
	return true
}

// Equiv is structural equality.  Integer types compare equal to each other
// by value, as do floating point types.  Integers never equal floats.
func Equiv(a, b interface{}) bool {
	if Identical(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if x, ok := ToInt64(a); ok {
		y, ok := ToInt64(b)
		return ok && x == y
	}
	if x, ok := toFloat64(a); ok {
		y, ok := toFloat64(b)
		return ok && x == y
	}
	if e, ok := a.(Equiver); ok {
		return e.Equiv(b)
	}
	return false
}

// Hash returns a hash of x consistent with Equiv.
func Hash(x interface{}) uint32 {
	switch x := x.(type) {
	case nil:
		return 0
	case Hasher:
		return x.Hash()
	case string:
		return uint32(xxh3.HashString(x))
	case bool:
		if x {
			return 1231
		}
		return 1237
	}
	if n, ok := ToInt64(x); ok {
		return uint32(n ^ (n >> 32))
	}
	if f, ok := toFloat64(x); ok {
		if f == 0 {
			// -0.0 is Equiv to 0.0
			f = 0
		}
		bits := math.Float64bits(f)
		return uint32(bits ^ (bits >> 32))
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.UnsafePointer:
		p := uint64(v.Pointer())
		return uint32(p ^ (p >> 32))
	}
	return uint32(xxh3.HashString(fmt.Sprintf("%T:%v", x, x)))
}

// ToInt64 converts any Go integer type to int64.
func ToInt64(x interface{}) (int64, bool) {
	switch x := x.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	}
	return 0, false
}

func toFloat64(x interface{}) (float64, bool) {
	switch x := x.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

// IsNumber reports whether x is an integer or floating point value.
func IsNumber(x interface{}) bool {
	if _, ok := ToInt64(x); ok {
		return true
	}
	_, ok := toFloat64(x)
	return ok
}

// ToFloat64 converts any Go numeric value to float64.
func ToFloat64(x interface{}) (float64, bool) {
	if n, ok := ToInt64(x); ok {
		return float64(n), true
	}
	return toFloat64(x)
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankKeyword
	rankSymbol
	rankOther
)

func compareRank(x interface{}) int {
	switch x.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case string:
		return rankString
	case *Keyword:
		return rankKeyword
	case *Symbol:
		return rankSymbol
	}
	if IsNumber(x) {
		return rankNumber
	}
	return rankOther
}

// Compare is the default total order used by sorted collections.  Values of
// different kinds order nil, booleans, numbers, strings, keywords, symbols,
// then everything else.
func Compare(a, b interface{}) int {
	ra, rb := compareRank(a), compareRank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case rankNumber:
		x, xok := ToInt64(a)
		y, yok := ToInt64(b)
		if xok && yok {
			return cmpInt(x, y)
		}
		fx, _ := ToFloat64(a)
		fy, _ := ToFloat64(b)
		switch {
		case fx < fy:
			return -1
		case fx > fy:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankKeyword:
		return compareSymbols(a.(*Keyword).sym, b.(*Keyword).sym)
	case rankSymbol:
		return compareSymbols(a.(*Symbol), b.(*Symbol))
	}
	if Equiv(a, b) {
		return 0
	}
	if c := strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
		return c
	}
	return strings.Compare(PrintString(a), PrintString(b))
}

func compareSymbols(a, b *Symbol) int {
	if c := strings.Compare(a.NS, b.NS); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ToSeq returns a Seq over x.  Nil and empty collections produce a nil Seq.
func ToSeq(x interface{}) (Seq, error) {
	switch x := x.(type) {
	case nil:
		return nil, nil
	case Seqable:
		return x.Seq(), nil
	case Seq:
		return x, nil
	case []interface{}:
		return NewArraySeq(x), nil
	case string:
		if x == "" {
			return nil, nil
		}
		runes := []rune(x)
		items := make([]interface{}, len(runes))
		for i, r := range runes {
			items[i] = string(r)
		}
		return NewArraySeq(items), nil
	}
	return nil, IllegalArgumentf("don't know how to create a seq from %T", x)
}

// Count returns the number of elements in x.
func Count(x interface{}) (int, error) {
	switch x := x.(type) {
	case nil:
		return 0, nil
	case Counted:
		return x.Count(), nil
	case string:
		return len([]rune(x)), nil
	}
	s, err := ToSeq(x)
	if err != nil {
		return 0, err
	}
	return SeqCount(s), nil
}

// AssocMap returns m with key mapped to val.  A nil m is treated as an empty
// hash map.
func AssocMap(m IPersistentMap, key, val interface{}) IPersistentMap {
	switch m := m.(type) {
	case *PersistentTreeMap:
		return m.Assoc(key, val)
	case *PersistentHashMap:
		return m.Assoc(key, val)
	}
	out := EmptyHashMap
	if m != nil {
		for s := m.Seq(); s != nil; s = s.Next() {
			e := s.First().(*MapEntry)
			out = out.Assoc(e.Key(), e.Val())
		}
	}
	return out.Assoc(key, val)
}
