package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/notation"
)

var (
	flagReason   string
	flagProperty string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query recorded evaluations",
	Long:  "Run queries against the evaluations recorded in the --db database.",
}

func init() {
	queryErrorsCmd.Flags().StringVar(&flagReason, "reason", "", "only errors with this reason")
	queryAssignmentsCmd.Flags().StringVar(&flagProperty, "property", "", "only assignments of this property name")

	queryCmd.AddCommand(queryErrorsCmd)
	queryCmd.AddCommand(queryAssignmentsCmd)
}

var queryErrorsCmd = &cobra.Command{
	Use:   "errors [script]",
	Short: "List recorded script errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQuery()
		if err != nil {
			return outputError("errors", err)
		}
		defer cleanup()

		var entries []notation.ErrorEntry
		if flagReason != "" {
			entries, err = q.ErrorsWithReason(flagReason)
		} else {
			var file string
			if file, err = fileArg(args); err == nil {
				entries, err = q.Errors(file)
			}
		}
		if err != nil {
			return outputError("errors", err)
		}
		out := make([]CLIError, 0, len(entries))
		for _, e := range entries {
			out = append(out, CLIError{File: e.File, Line: e.Line, Col: e.Col, Reason: e.Reason, Detail: e.Detail})
		}
		return outputResult(CLIResult{Command: "errors", Results: out})
	},
}

var queryAssignmentsCmd = &cobra.Command{
	Use:   "assignments [script]",
	Short: "List recorded traced assignments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQuery()
		if err != nil {
			return outputError("assignments", err)
		}
		defer cleanup()

		var entries []notation.AssignmentEntry
		if flagProperty != "" {
			entries, err = q.AssignmentsOf(flagProperty)
		} else {
			var file string
			if file, err = fileArg(args); err == nil {
				entries, err = q.Assignments(file)
			}
		}
		if err != nil {
			return outputError("assignments", err)
		}
		out := make([]CLIAssignment, 0, len(entries))
		for _, a := range entries {
			out = append(out, CLIAssignment{File: a.File, Slot: a.Slot, Assigned: a.Assigned, Value: a.Value, ValueType: a.ValueType})
		}
		return outputResult(CLIResult{Command: "assignments", Results: out})
	},
}

// --- Helpers ---

// openQuery opens the --db database for querying. It does not need a schema.
func openQuery() (*notation.QueryBuilder, func(), error) {
	if flagDB == "" {
		return nil, nil, fmt.Errorf("--db is required")
	}
	if _, err := os.Stat(flagDB); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'notation eval --db' first)", flagDB)
	}
	st, err := notation.OpenStore(flagDB)
	if err != nil {
		return nil, nil, err
	}
	q, err := notation.New(nil, notation.WithStore(st)).Query()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return q, func() { st.Close() }, nil
}

// fileArg returns the absolute path of the optional script argument, or ""
// when none was given.
func fileArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", args[0], err)
	}
	return abs, nil
}

func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}
