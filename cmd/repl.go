// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/cljgo/repl"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive REPL",
	Long: `Start an interactive read-eval-print loop.

Forms may span several lines; evaluation starts once a form is complete.
Tab completes names from the current namespace and clojure.core.  History
is kept in ~/.cljgo_history.  Use Ctrl-D to exit.

Example REPL session:
  cljgo> (+ 1 2)
  3
  cljgo> (defn square [x] (* x x))
  #'user/square
  cljgo> (square 5)
  25
  cljgo> (map square [1 2 3])
  (1 4 9)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
			repl.WithRuntimeConfig(runtimeConfig()...))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
