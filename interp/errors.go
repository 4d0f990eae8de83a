// Copyright © 2018 The ELPS authors

package interp

import (
	"context"
	"fmt"

	"github.com/luthersystems/cljgo/lang"
	"github.com/pkg/errors"
)

// Exception carries a thrown value that is not itself an error.
type Exception struct {
	Value interface{}
}

func (e *Exception) Error() string {
	return "exception: " + lang.PrintString(e.Value)
}

// ExceptionInfo is the error created by ex-info.  It carries a message, a
// map of data and an optional cause.
type ExceptionInfo struct {
	Msg   string
	Data  lang.IPersistentMap
	Cause error
}

func (e *ExceptionInfo) Error() string {
	if e.Data == nil || e.Data.Count() == 0 {
		return e.Msg
	}
	return e.Msg + " " + lang.PrintString(e.Data)
}

// Unwrap returns the cause of the exception.
func (e *ExceptionInfo) Unwrap() error {
	return e.Cause
}

// ArithmeticError is returned for integer overflow and division by zero.
type ArithmeticError struct {
	Msg string
}

func (e *ArithmeticError) Error() string {
	return "arithmetic: " + e.Msg
}

// RuntimeError is an error raised while executing an interpreted function.
// Stack is a copy of the call stack at the point of failure.
type RuntimeError struct {
	Err   error
	Stack *CallStack
}

func (e *RuntimeError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// stackError attaches a copy of the current call stack to err unless err
// already carries one.
func (rt *Runtime) stackError(err error) error {
	if _, ok := err.(*RuntimeError); ok {
		return err
	}
	return &RuntimeError{Err: err, Stack: rt.Stack.Copy()}
}

// thrownValue is the value bound by a catch clause handling err.
func thrownValue(err error) interface{} {
	for {
		rerr, ok := err.(*RuntimeError)
		if !ok {
			break
		}
		err = rerr.Err
	}
	if ex, ok := err.(*Exception); ok {
		return ex.Value
	}
	return err
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExceptionType names a class of errors for catch clauses and instance?.
type ExceptionType struct {
	Name  string
	match func(err error) bool
}

var _ lang.ExceptionType = (*ExceptionType)(nil)

// Matches implements lang.ExceptionType.
func (typ *ExceptionType) Matches(err error) bool {
	return err != nil && typ.match(err)
}

func (typ *ExceptionType) String() string {
	return fmt.Sprintf("#<exception-type %s>", typ.Name)
}

func errorOf[T error](name string) *ExceptionType {
	return &ExceptionType{
		Name: name,
		match: func(err error) bool {
			var target T
			return errors.As(err, &target)
		},
	}
}

// Exception types interned in the core namespace.  Throwable matches every
// error except context cancellation.  Exception additionally excludes stack
// overflow.
var (
	TypeThrowable = &ExceptionType{
		Name:  "Throwable",
		match: func(err error) bool { return !isContextError(err) },
	}
	TypeException = &ExceptionType{
		Name: "Exception",
		match: func(err error) bool {
			var overflow *PhysicalStackOverflowError
			return !isContextError(err) && !errors.As(err, &overflow)
		},
	}
	TypeExceptionInfo             = errorOf[*ExceptionInfo]("ExceptionInfo")
	TypeArityException            = errorOf[*lang.ArityError]("ArityException")
	TypeIllegalArgumentException  = errorOf[*lang.IllegalArgumentError]("IllegalArgumentException")
	TypeIllegalStateException     = errorOf[*lang.IllegalStateError]("IllegalStateException")
	TypeIndexOutOfBoundsException = errorOf[*lang.IndexOutOfRangeError]("IndexOutOfBoundsException")
	TypeArithmeticException       = errorOf[*ArithmeticError]("ArithmeticException")
	TypeStackOverflowError        = errorOf[*PhysicalStackOverflowError]("StackOverflowError")
	TypeCompilerException         = errorOf[*lang.CompilerError]("CompilerException")
)

var exceptionTypes = []*ExceptionType{
	TypeThrowable,
	TypeException,
	TypeExceptionInfo,
	TypeArityException,
	TypeIllegalArgumentException,
	TypeIllegalStateException,
	TypeIndexOutOfBoundsException,
	TypeArithmeticException,
	TypeStackOverflowError,
	TypeCompilerException,
}
