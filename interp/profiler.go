// Copyright © 2018 The ELPS authors

package interp

// Profiler annotates interpreted function calls.
type Profiler interface {
	// IsEnabled reports whether calls are being recorded.
	IsEnabled() bool
	// Enable starts recording.
	Enable() error
	// Complete ends the profiling session.
	Complete() error
	// Start marks entry into the function described by frame and returns a
	// function that marks its exit.
	Start(frame *CallFrame) func()
}
