// Copyright © 2024 The ELPS authors

package repl

import (
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/errors"

	"github.com/luthersystems/cljgo/interp"
)

// DiagnosticWidth is the column error messages are wrapped at.
const DiagnosticWidth = 80

// RenderError writes err as an annotated diagnostic.  Errors raised inside
// interpreted functions are followed by the call stack at the point of
// failure, innermost call first.
func RenderError(w io.Writer, err error) {
	_, _ = io.WriteString(w, FormatError(err))
}

// FormatError returns the diagnostic RenderError writes.
func FormatError(err error) string {
	var b strings.Builder
	b.WriteString(wordwrap.String("error: "+err.Error(), DiagnosticWidth))
	b.WriteString("\n")
	var rerr *interp.RuntimeError
	if !errors.As(err, &rerr) || rerr.Stack == nil {
		return b.String()
	}
	var notes strings.Builder
	for i := len(rerr.Stack.Frames) - 1; i >= 0; i-- {
		frame := &rerr.Stack.Frames[i]
		loc := frame.Source
		if loc == "" {
			loc = "unknown"
		}
		notes.WriteString("in " + frame.QualifiedName() + " at " + loc + "\n")
	}
	b.WriteString(indent.String(notes.String(), 2))
	return b.String()
}
