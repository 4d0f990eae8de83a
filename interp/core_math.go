// Copyright © 2018 The ELPS authors

package interp

import (
	"math"

	"github.com/luthersystems/cljgo/lang"
)

var mathBuiltins = []*builtin{
	{"+", atLeast(0), builtinAdd},
	{"-", atLeast(1), builtinSub},
	{"*", atLeast(0), builtinMul},
	{"/", atLeast(1), builtinDiv},
	{"inc", fixed(1), builtinInc},
	{"dec", fixed(1), builtinDec},
	{"quot", fixed(2), builtinQuot},
	{"rem", fixed(2), builtinRem},
	{"mod", fixed(2), builtinMod},
	{"max", atLeast(1), builtinMax},
	{"min", atLeast(1), builtinMin},
	{"=", atLeast(1), builtinEquiv},
	{"not=", atLeast(1), builtinNotEquiv},
	{"==", atLeast(1), builtinNumEquiv},
	{"<", atLeast(1), compareChain("<", func(c int) bool { return c < 0 })},
	{">", atLeast(1), compareChain(">", func(c int) bool { return c > 0 })},
	{"<=", atLeast(1), compareChain("<=", func(c int) bool { return c <= 0 })},
	{">=", atLeast(1), compareChain(">=", func(c int) bool { return c >= 0 })},
	{"compare", fixed(2), builtinCompare},
	{"zero?", fixed(1), signTest("zero?", func(c int) bool { return c == 0 })},
	{"pos?", fixed(1), signTest("pos?", func(c int) bool { return c > 0 })},
	{"neg?", fixed(1), signTest("neg?", func(c int) bool { return c < 0 })},
	{"even?", fixed(1), parityTest("even?", 0)},
	{"odd?", fixed(1), parityTest("odd?", 1)},
}

func notNumber(op string, x interface{}) error {
	return lang.IllegalArgumentf("%s: not a number: %s", op, describe(x))
}

// arith applies fi when both operands are integers and ff otherwise.
func arith(op string, a, b interface{}, fi func(x, y int64) (interface{}, error), ff func(x, y float64) (interface{}, error)) (interface{}, error) {
	x, xint := lang.ToInt64(a)
	y, yint := lang.ToInt64(b)
	if xint && yint {
		return fi(x, y)
	}
	fx, ok := lang.ToFloat64(a)
	if !ok {
		return nil, notNumber(op, a)
	}
	fy, ok := lang.ToFloat64(b)
	if !ok {
		return nil, notNumber(op, b)
	}
	return ff(fx, fy)
}

func overflow() error {
	return &ArithmeticError{Msg: "integer overflow"}
}

func divideByZero() error {
	return &ArithmeticError{Msg: "divide by zero"}
}

func add(a, b interface{}) (interface{}, error) {
	return arith("+", a, b,
		func(x, y int64) (interface{}, error) {
			z := x + y
			if (z > x) != (y > 0) {
				return nil, overflow()
			}
			return z, nil
		},
		func(x, y float64) (interface{}, error) { return x + y, nil })
}

func sub(a, b interface{}) (interface{}, error) {
	return arith("-", a, b,
		func(x, y int64) (interface{}, error) {
			z := x - y
			if (z < x) != (y > 0) {
				return nil, overflow()
			}
			return z, nil
		},
		func(x, y float64) (interface{}, error) { return x - y, nil })
}

func mul(a, b interface{}) (interface{}, error) {
	return arith("*", a, b,
		func(x, y int64) (interface{}, error) {
			if x == 0 || y == 0 {
				return int64(0), nil
			}
			z := x * y
			if z/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
				return nil, overflow()
			}
			return z, nil
		},
		func(x, y float64) (interface{}, error) { return x * y, nil })
}

// div divides integers exactly when the divisor divides the dividend and
// produces a float otherwise.
func div(a, b interface{}) (interface{}, error) {
	return arith("/", a, b,
		func(x, y int64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			if x%y == 0 {
				if x == math.MinInt64 && y == -1 {
					return nil, overflow()
				}
				return x / y, nil
			}
			return float64(x) / float64(y), nil
		},
		func(x, y float64) (interface{}, error) { return x / y, nil })
}

func fold(op string, args []interface{}, init interface{}, fn func(a, b interface{}) (interface{}, error)) (interface{}, error) {
	acc := init
	for i, x := range args {
		if i == 0 && init == nil {
			if !lang.IsNumber(x) {
				return nil, notNumber(op, x)
			}
			acc = x
			continue
		}
		var err error
		acc, err = fn(acc, x)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinAdd(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return fold("+", args, int64(0), add)
}

func builtinMul(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return fold("*", args, int64(1), mul)
}

func builtinSub(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args) == 1 {
		return sub(int64(0), args[0])
	}
	return fold("-", args, nil, sub)
}

func builtinDiv(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	if len(args) == 1 {
		return div(int64(1), args[0])
	}
	return fold("/", args, nil, div)
}

func builtinInc(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return add(args[0], int64(1))
}

func builtinDec(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return sub(args[0], int64(1))
}

func builtinQuot(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return arith("quot", args[0], args[1],
		func(x, y int64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			if x == math.MinInt64 && y == -1 {
				return nil, overflow()
			}
			return x / y, nil
		},
		func(x, y float64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			return math.Trunc(x / y), nil
		})
}

func builtinRem(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return arith("rem", args[0], args[1],
		func(x, y int64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			if y == -1 {
				return int64(0), nil
			}
			return x % y, nil
		},
		func(x, y float64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			return math.Mod(x, y), nil
		})
}

// builtinMod is the remainder of floored division.  The result has the sign
// of the divisor.
func builtinMod(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return arith("mod", args[0], args[1],
		func(x, y int64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			if y == -1 {
				return int64(0), nil
			}
			m := x % y
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return m, nil
		},
		func(x, y float64) (interface{}, error) {
			if y == 0 {
				return nil, divideByZero()
			}
			m := math.Mod(x, y)
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return m, nil
		})
}

func extremum(op string, args []interface{}, better func(c int) bool) (interface{}, error) {
	best := args[0]
	if !lang.IsNumber(best) {
		return nil, notNumber(op, best)
	}
	for _, x := range args[1:] {
		if !lang.IsNumber(x) {
			return nil, notNumber(op, x)
		}
		if better(lang.Compare(x, best)) {
			best = x
		}
	}
	return best, nil
}

func builtinMax(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return extremum("max", args, func(c int) bool { return c > 0 })
}

func builtinMin(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return extremum("min", args, func(c int) bool { return c < 0 })
}

func builtinEquiv(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	for i := 1; i < len(args); i++ {
		if !lang.Equiv(args[i-1], args[i]) {
			return false, nil
		}
	}
	return true, nil
}

func builtinNotEquiv(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	eq, err := builtinEquiv(rt, t, args)
	if err != nil {
		return nil, err
	}
	return !eq.(bool), nil
}

// builtinNumEquiv compares numbers by value regardless of representation.
func builtinNumEquiv(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return compareChain("==", func(c int) bool { return c == 0 })(rt, t, args)
}

func compareChain(op string, ok func(c int) bool) builtinFn {
	return func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
		for _, x := range args {
			if !lang.IsNumber(x) {
				return nil, notNumber(op, x)
			}
		}
		for i := 1; i < len(args); i++ {
			if !ok(lang.Compare(args[i-1], args[i])) {
				return false, nil
			}
		}
		return true, nil
	}
}

func builtinCompare(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
	return int64(lang.Compare(args[0], args[1])), nil
}

func signTest(op string, ok func(c int) bool) builtinFn {
	return func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
		if !lang.IsNumber(args[0]) {
			return nil, notNumber(op, args[0])
		}
		return ok(lang.Compare(args[0], int64(0))), nil
	}
}

func parityTest(op string, want int64) builtinFn {
	return func(rt *Runtime, t *lang.Thread, args []interface{}) (interface{}, error) {
		n, ok := lang.ToInt64(args[0])
		if !ok {
			return nil, lang.IllegalArgumentf("%s: argument must be an integer: %s", op, describe(args[0]))
		}
		return n%2 == want || n%2 == -want, nil
	}
}
