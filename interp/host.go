// Copyright © 2018 The ELPS authors

package interp

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/luthersystems/cljgo/lang"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// goName converts a member name such as "value-at" to the exported Go name
// "ValueAt".
func goName(name string) string {
	var b strings.Builder
	upper := true
	for _, c := range name {
		if c == '-' || c == '_' {
			upper = true
			continue
		}
		if upper {
			c = unicode.ToUpper(c)
			upper = false
		}
		b.WriteRune(c)
	}
	return b.String()
}

// callMethod calls the Go method name on target.  A trailing error result
// is returned as the call's error; several other results are returned as a
// vector.
func callMethod(target interface{}, name string, args []interface{}) (val interface{}, err error) {
	if target == nil {
		return nil, lang.IllegalArgumentf("cannot call method %s on nil", name)
	}
	m := reflect.ValueOf(target).MethodByName(goName(name))
	if !m.IsValid() {
		return nil, lang.IllegalArgumentf("no method %s on %T", name, target)
	}
	mt := m.Type()
	nin := mt.NumIn()
	if mt.IsVariadic() {
		if len(args) < nin-1 {
			return nil, lang.Arityf("method %s takes at least %d args, got %d", name, nin-1, len(args))
		}
	} else if len(args) != nin {
		return nil, lang.Arityf("method %s takes %d args, got %d", name, nin, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		typ := mt.In(min(i, nin-1))
		if mt.IsVariadic() && i >= nin-1 {
			typ = typ.Elem()
		}
		in[i], err = convertArg(arg, typ)
		if err != nil {
			return nil, lang.IllegalArgumentf("method %s argument %d: %v", name, i, err)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, errors.Errorf("method %s panicked: %v", name, r)
		}
	}()
	return methodResults(m.Call(in))
}

func methodResults(out []reflect.Value) (interface{}, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return fromGo(out[0]), nil
	}
	items := make([]interface{}, len(out))
	for i, v := range out {
		items[i] = fromGo(v)
	}
	return lang.Vec(items), nil
}

func convertArg(arg interface{}, typ reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, errors.Errorf("cannot use nil as %v", typ)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	if isNumericKind(v.Kind()) && isNumericKind(typ.Kind()) {
		return v.Convert(typ), nil
	}
	return reflect.Value{}, errors.Errorf("cannot use %T as %v", arg, typ)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// fromGo normalizes Go integers to int64 and floats to float64.
func fromGo(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// getProperty reads a struct field of target.  Maps are read by keyword and
// a property naming a method with no parameters calls the method.
func getProperty(target interface{}, name string) (interface{}, error) {
	if target == nil {
		return nil, lang.IllegalArgumentf("cannot read property %s of nil", name)
	}
	if m, ok := target.(lang.IPersistentMap); ok {
		return m.ValAt(lang.Kw(name)), nil
	}
	field := goName(name)
	if r, _ := utf8.DecodeRuneInString(field); !unicode.IsUpper(r) {
		return nil, lang.IllegalArgumentf("no field or property %s on %T", name, target)
	}
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, lang.IllegalArgumentf("cannot read property %s of nil %T", name, target)
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		if fv := v.FieldByName(field); fv.IsValid() && fv.CanInterface() {
			return fromGo(fv), nil
		}
	}
	m := reflect.ValueOf(target).MethodByName(field)
	if m.IsValid() && m.Type().NumIn() == 0 {
		return callMethod(target, name, nil)
	}
	return nil, lang.IllegalArgumentf("no field or property %s on %T", name, target)
}
