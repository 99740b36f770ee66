package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/notation"
)

var (
	flagSchema            string
	flagFunctions         string
	flagDB                string
	flagFormat            string
	flagStrictReceivers   bool
	flagStrictAssignments bool
	flagLogLevel          string
	flagParallel          int
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "notation",
	Short:         "Evaluate schema-constrained configuration scripts",
	Long:          "Notation resolves restricted Kotlin-syntax configuration scripts against a schema of host types and reports the resulting object graph or its diagnostics.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		logger, err := newLogger(flagLogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSchema, "schema", "", "YAML type descriptor table")
	pf.StringVar(&flagFunctions, "functions", "", "YAML file of external function bodies")
	pf.StringVar(&flagDB, "db", "", "SQLite database recording evaluations")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.BoolVar(&flagStrictReceivers, "strict-receivers", true, "reject access to members of outer receivers")
	pf.BoolVar(&flagStrictAssignments, "strict-assignments", false, "report duplicate assignments to the same property")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	pf.IntVar(&flagParallel, "parallel", 0, "files evaluated at once (default: number of CPUs)")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(queryCmd)
}

// newLogger builds the stderr text logger for the given level name.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// loadSchema loads the --schema table, which every evaluating command needs.
func loadSchema() (*notation.Schema, error) {
	if flagSchema == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	s, err := notation.LoadSchema(flagSchema)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return s, nil
}

// newEvaluator builds an Evaluator from the persistent flags. The returned
// cleanup closes the store, if one was opened.
func newEvaluator() (*notation.Evaluator, func(), error) {
	s, err := loadSchema()
	if err != nil {
		return nil, nil, err
	}
	opts := []notation.Option{
		notation.WithStrictReceiverChecks(flagStrictReceivers),
		notation.WithStrictAssignments(flagStrictAssignments),
		notation.WithParallelism(flagParallel),
		notation.WithLogger(slog.Default()),
	}
	if flagFunctions != "" {
		// Script bodies are resolved relative to the functions file.
		rt := notation.NewRuntime(
			notation.WithScriptsDir(filepath.Dir(flagFunctions)),
			notation.WithRuntimeLogger(slog.Default()),
		)
		if err := rt.LoadFunctionsFile(flagFunctions); err != nil {
			return nil, nil, fmt.Errorf("loading functions: %w", err)
		}
		opts = append(opts, notation.WithRuntime(rt))
	}
	cleanup := func() {}
	if flagDB != "" {
		st, err := notation.OpenStore(flagDB)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		opts = append(opts, notation.WithStore(st))
		cleanup = func() { st.Close() }
	}
	return notation.New(s, opts...), cleanup, nil
}
