// Copyright © 2018 The ELPS authors

package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintString renders x in reader syntax where one exists.
func PrintString(x interface{}) string {
	var b strings.Builder
	writeForm(&b, x)
	return b.String()
}

// Str renders x for display.  Strings are written without quotes and nil is
// the empty string.
func Str(x interface{}) string {
	switch x := x.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	return PrintString(x)
}

func writeForm(b *strings.Builder, x interface{}) {
	switch x := x.(type) {
	case nil:
		b.WriteString("nil")
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case string:
		b.WriteString(strconv.Quote(x))
	case float64:
		b.WriteString(formatFloat(x))
	case float32:
		b.WriteString(formatFloat(float64(x)))
	case *Keyword, *Symbol, *Var, *Namespace, *Unbound:
		b.WriteString(x.(fmt.Stringer).String())
	case IPersistentVector:
		b.WriteByte('[')
		writeSeq(b, x.Seq(), " ")
		b.WriteByte(']')
	case *PersistentHashSet:
		b.WriteString("#{")
		writeSeq(b, x.Seq(), " ")
		b.WriteByte('}')
	case IPersistentMap:
		b.WriteByte('{')
		for s, i := x.Seq(), 0; s != nil; s, i = s.Next(), i+1 {
			if i > 0 {
				b.WriteString(", ")
			}
			e := s.First().(*MapEntry)
			writeForm(b, e.Key())
			b.WriteByte(' ')
			writeForm(b, e.Val())
		}
		b.WriteByte('}')
	case *PersistentList:
		b.WriteByte('(')
		writeSeq(b, x.Seq(), " ")
		b.WriteByte(')')
	case Seq:
		b.WriteByte('(')
		writeSeq(b, x, " ")
		b.WriteByte(')')
	case error:
		b.WriteString("#error ")
		b.WriteString(strconv.Quote(x.Error()))
	default:
		if n, ok := ToInt64(x); ok {
			b.WriteString(strconv.FormatInt(n, 10))
			return
		}
		fmt.Fprint(b, x)
	}
}

func writeSeq(b *strings.Builder, s Seq, sep string) {
	for i := 0; s != nil; s, i = s.Next(), i+1 {
		if i > 0 {
			b.WriteString(sep)
		}
		writeForm(b, s.First())
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	return s + ".0"
}
