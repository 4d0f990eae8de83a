// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/interp/x/profiler"
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runExpression bool
	runPrint      bool
	runCompiled   bool
	runExcludes   []string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [file | dir/...]...",
	Short: "Run source files, expressions or compiled programs",
	Long: `Run code supplied via the command line, source files or compiled
programs written by the compile command.  Arguments ending in "/..." expand
to every .clj file below the named directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rt, err := newRuntime(cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		finish, err := startTrace(rt)
		if err != nil {
			return err
		}
		defer finish()

		if !runExpression {
			if args, err = expandArgs(args); err != nil {
				return err
			}
			args = filterExcludes(args, runExcludes)
		}
		for _, arg := range args {
			val, err := runArg(ctx, rt, arg)
			if err != nil {
				return err
			}
			if runPrint {
				fmt.Fprintln(cmd.OutOrStdout(), lang.PrintString(val))
			}
		}
		return nil
	},
}

func newRuntime(stdout, stderr io.Writer) (*interp.Runtime, error) {
	cfgs := append(runtimeConfig(),
		interp.WithStdout(stdout),
		interp.WithStderr(stderr))
	rt, err := interp.New(cfgs...)
	if err != nil {
		return nil, errors.Wrap(err, "language initialization failure")
	}
	return rt, nil
}

// startTrace installs a callgrind profiler on rt when a trace file is
// configured.  The returned function completes the profile.
func startTrace(rt *interp.Runtime) (func(), error) {
	path := viper.GetString(keyTrace)
	if path == "" {
		return func() {}, nil
	}
	p := profiler.NewCallgrindProfiler(rt)
	if err := p.SetFile(path); err != nil {
		return nil, errors.Wrap(err, "trace")
	}
	if err := p.Enable(); err != nil {
		return nil, errors.Wrap(err, "trace")
	}
	return func() {
		if err := p.Complete(); err != nil {
			fmt.Fprintf(rt.Stderr, "trace: %v\n", err)
		}
	}, nil
}

func runArg(ctx context.Context, rt *interp.Runtime, arg string) (interface{}, error) {
	switch {
	case runExpression:
		return rt.LoadString(ctx, "expression", arg)
	case runCompiled:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, errors.Wrap(err, "run")
		}
		nodes, err := ir.Unmarshal(data, rt.Registry)
		if err != nil {
			return nil, errors.WithMessagef(err, "load %s", arg)
		}
		ns := rt.Namespace()
		defer rt.Compiler.SetNamespace(ns)
		val, err := rt.EvalProgram(ctx, nodes)
		if err != nil {
			return nil, errors.WithMessagef(err, "load %s", arg)
		}
		return val, nil
	default:
		return rt.LoadFile(ctx, arg)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Here flags for the run command are defined
	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as expressions")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print the value of each argument to stdout")
	runCmd.Flags().BoolVarP(&runCompiled, "compiled", "c", false,
		"Interpret arguments as programs written by the compile command")
	runCmd.Flags().StringSliceVar(&runExcludes, "exclude", nil,
		"Skip files matching the given patterns (name, directory or glob)")
	runCmd.MarkFlagsMutuallyExclusive("expression", "compiled")
}
