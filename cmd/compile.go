// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/reader"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	compileOutput string
	compileDump   bool
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile [file | dir/...]...",
	Short: "Compile source files to a program",
	Long: `Compile source files into a single program that the run command
executes with --compiled.  Each form is evaluated after it is compiled so
macros and namespaces defined by one form apply to the forms that follow.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		args, err := expandArgs(args)
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		var nodes []ir.Node
		for _, path := range args {
			more, err := compileFile(cmd.Context(), rt, path)
			if err != nil {
				return err
			}
			nodes = append(nodes, more...)
		}
		if compileDump {
			for _, n := range nodes {
				fmt.Fprintln(cmd.ErrOrStderr(), ir.Print(n))
			}
		}
		data, err := ir.Marshal(nodes...)
		if err != nil {
			return errors.Wrap(err, "compile")
		}
		if compileOutput == "" || compileOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(compileOutput, data, 0644) //nolint:gosec
	},
}

// compileFile compiles and evaluates each form in the file at path.  The
// current namespace is restored afterwards, as in Runtime.LoadFile.
func compileFile(ctx context.Context, rt *interp.Runtime, path string) ([]ir.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}
	defer f.Close() //nolint:errcheck
	return compileReader(ctx, rt, path, f)
}

func compileReader(ctx context.Context, rt *interp.Runtime, name string, r io.Reader) ([]ir.Node, error) {
	forms, err := reader.Read(name, r)
	if err != nil {
		return nil, err
	}
	ns := rt.Namespace()
	defer rt.Compiler.SetNamespace(ns)
	nodes := make([]ir.Node, 0, len(forms))
	for _, form := range forms {
		node, err := rt.Compiler.Compile(ctx, form)
		if err != nil {
			return nil, errors.WithMessagef(err, "compile %s", name)
		}
		if _, err := rt.Eval(ctx, node); err != nil {
			return nil, errors.WithMessagef(err, "compile %s", name)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "",
		"Write the program to the given file instead of stdout")
	compileCmd.Flags().BoolVar(&compileDump, "dump", false,
		"Print the compiled tree of each form to stderr")
}
