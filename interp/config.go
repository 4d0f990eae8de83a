// Copyright © 2018 The ELPS authors

package interp

import (
	"io"

	"github.com/luthersystems/cljgo/lang"
	"go.opentelemetry.io/otel/trace"
)

// Config is a function that configures a Runtime.
type Config func(rt *Runtime) error

// WithMaximumPhysicalStackHeight returns a Config that will prevent a
// runtime from allowing the physical stack height to exceed n.  The
// physical stack height is the number of interpreted function calls in
// progress.  A non-positive n removes the limit.
func WithMaximumPhysicalStackHeight(n int) Config {
	return func(rt *Runtime) error {
		rt.Stack.MaxHeightPhysical = n
		return nil
	}
}

// WithStderr returns a Config that makes the runtime write debugging output
// to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithStdout returns a Config that makes the print builtins write to w
// instead of the default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stdout = w
		return nil
	}
}

// WithProfiler returns a Config that annotates interpreted function calls
// with p.  The profiler must still be enabled before it records anything.
func WithProfiler(p Profiler) Config {
	return func(rt *Runtime) error {
		rt.Profiler = p
		return nil
	}
}

// WithRegistry returns a Config that makes the runtime intern vars in r.
// Without it every runtime gets a registry of its own.
func WithRegistry(r *lang.Registry) Config {
	return func(rt *Runtime) error {
		rt.Registry = r
		return nil
	}
}

// WithNamespace returns a Config that sets the namespace forms are compiled
// in when evaluation starts.  The default is "user".
func WithNamespace(name string) Config {
	return func(rt *Runtime) error {
		if name == "" {
			return lang.IllegalArgumentf("namespace name is empty")
		}
		rt.nsName = name
		return nil
	}
}

// WithThread returns a Config that makes the runtime evaluate top level
// forms on t.
func WithThread(t *lang.Thread) Config {
	return func(rt *Runtime) error {
		rt.Thread = t
		return nil
	}
}

// WithTracer returns a Config that makes the runtime's compiler record
// spans with tr.
func WithTracer(tr trace.Tracer) Config {
	return func(rt *Runtime) error {
		rt.tracer = tr
		return nil
	}
}
