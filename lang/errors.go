// Copyright © 2018 The ELPS authors

package lang

import (
	"bytes"
	"fmt"
)

// IndexOutOfRangeError is returned when an index falls outside the valid
// range of a sequential collection.
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: %d (count %d)", e.Index, e.Count)
}

// IllegalStateError is returned when an operation violates a lifecycle
// invariant, such as popping an empty vector or an unbalanced binding pop.
type IllegalStateError struct {
	Msg string
}

func (e *IllegalStateError) Error() string {
	return "illegal state: " + e.Msg
}

// IllegalStatef returns an *IllegalStateError with a formatted message.
func IllegalStatef(format string, v ...interface{}) error {
	return &IllegalStateError{Msg: fmt.Sprintf(format, v...)}
}

// IllegalArgumentError is returned for malformed arguments to constructors
// and builtins.
type IllegalArgumentError struct {
	Msg string
}

func (e *IllegalArgumentError) Error() string {
	return "illegal argument: " + e.Msg
}

// IllegalArgumentf returns an *IllegalArgumentError with a formatted message.
func IllegalArgumentf(format string, v ...interface{}) error {
	return &IllegalArgumentError{Msg: fmt.Sprintf(format, v...)}
}

// ArityError is returned when a construct receives the wrong number of
// arguments, including calls to an unbound Var.
type ArityError struct {
	Msg string
}

func (e *ArityError) Error() string {
	return "arity: " + e.Msg
}

// Arityf returns an *ArityError with a formatted message.
func Arityf(format string, v ...interface{}) error {
	return &ArityError{Msg: fmt.Sprintf(format, v...)}
}

// CompilerError reports malformed syntax or an unresolvable symbol.  Form is
// the offending form and may be nil when no form is available.
type CompilerError struct {
	Msg  string
	Form interface{}
}

// CompilerErrorf returns a *CompilerError for form with a formatted message.
func CompilerErrorf(form interface{}, format string, v ...interface{}) *CompilerError {
	return &CompilerError{Msg: fmt.Sprintf(format, v...), Form: form}
}

func (e *CompilerError) Error() string {
	var buf bytes.Buffer
	if loc := FormLocation(e.Form); loc != "" {
		buf.WriteString(loc)
		buf.WriteString(": ")
	}
	buf.WriteString(e.Msg)
	if e.Form != nil {
		buf.WriteString(": ")
		buf.WriteString(PrintString(e.Form))
	}
	return buf.String()
}

// FormLocation renders the source location recorded in form's metadata by
// the reader.  An empty string is returned when form carries no location.
func FormLocation(form interface{}) string {
	m, ok := form.(IMeta)
	if !ok {
		return ""
	}
	meta := m.Meta()
	if meta == nil {
		return ""
	}
	line, ok := meta.ValAt(KeywordLine).(int64)
	if !ok {
		return ""
	}
	file, _ := meta.ValAt(KeywordFile).(string)
	if file == "" {
		file = "<unknown>"
	}
	col, ok := meta.ValAt(KeywordColumn).(int64)
	if !ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}
