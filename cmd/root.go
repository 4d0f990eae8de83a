// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const (
	keyNamespace = "namespace"
	keyMaxStack  = "max-stack"
	keyVerbose   = "verbose"
	keyTrace     = "trace"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cljgo",
	Short: "cljgo — Clojure compiler and interpreter",
	Long: `cljgo compiles Clojure forms into a tree of target code and runs the
result on its reference interpreter.

Getting started:
  cljgo run file.clj                  Run a source file
  cljgo run -e '(+ 1 2)' -p           Evaluate an expression and print it
  cljgo compile -o prog.cbor file.clj Compile source files to a program
  cljgo run --compiled prog.cbor      Run a compiled program
  cljgo repl                          Start an interactive REPL

Configuration is read from $HOME/.cljgo.yaml (or --config) and from the
environment with the CLJGO_ prefix.  Recognized keys are namespace,
max-stack, verbose and trace.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		repl.RenderError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cljgo.yaml)")
	flags.String(keyNamespace, "user", "Namespace forms are evaluated in")
	flags.Int(keyMaxStack, interp.DefaultMaxHeightPhysical,
		"Maximum number of interpreted calls in progress (0 for no limit)")
	flags.CountP(keyVerbose, "v", "Increase log verbosity (repeatable)")
	flags.String(keyTrace, "", "Write a callgrind profile of interpreted calls to the given file")
	for _, key := range []string{keyNamespace, keyMaxStack, keyVerbose, keyTrace} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".cljgo" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".cljgo")
	}

	viper.SetEnvPrefix("cljgo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()

	commonlog.Configure(viper.GetInt(keyVerbose), nil)
	log := commonlog.GetLogger("cljgo.cmd")
	if err == nil {
		log.Infof("using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Errorf("reading config file: %v", err)
	}
}

// runtimeConfig returns the interp configuration selected by flags and the
// config file.
func runtimeConfig() []interp.Config {
	return []interp.Config{
		interp.WithNamespace(viper.GetString(keyNamespace)),
		interp.WithMaximumPhysicalStackHeight(viper.GetInt(keyMaxStack)),
	}
}
