package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/notation"
)

var flagDocument bool

var evalCmd = &cobra.Command{
	Use:   "eval <script|dir>...",
	Short: "Evaluate scripts and print the resulting object graph",
	Long:  "Evaluates each script and prints the converted top-level object of those that evaluate. Scripts that do not evaluate are reported with their diagnostics.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context(), "eval", args, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <script|dir>...",
	Short: "Check scripts and print their diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context(), "check", args, false)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&flagDocument, "document", false, "include the resolved document tree (json only)")
}

func runEvaluate(ctx context.Context, command string, args []string, convert bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, cleanup, err := newEvaluator()
	if err != nil {
		return outputError(command, err)
	}
	defer cleanup()

	paths, err := expandPaths(args)
	if err != nil {
		return outputError(command, err)
	}
	results, err := e.EvaluateFiles(ctx, paths)
	if err != nil {
		return outputError(command, err)
	}

	out := make([]CLIEvaluation, 0, len(results))
	failed := 0
	for _, r := range results {
		ce, err := cliEvaluation(ctx, e, r, convert)
		if err != nil {
			return outputError(command, err)
		}
		if ce.Status == notation.NotEvaluated.String() {
			failed++
		}
		out = append(out, ce)
	}
	if err := outputResult(CLIResult{Command: command, Results: out}); err != nil {
		return err
	}
	if failed > 0 {
		errorHandled = true
		return fmt.Errorf("%d script(s) not evaluated", failed)
	}
	return nil
}

func cliEvaluation(ctx context.Context, e *notation.Evaluator, r notation.FileResult, convert bool) (CLIEvaluation, error) {
	ce := CLIEvaluation{File: r.Path, Skipped: r.Skipped}
	if r.Skipped {
		ce.Status = notation.Evaluated.String()
		if st := e.Store(); st != nil {
			if doc, err := st.DocumentByPath(r.Path); err == nil && doc != nil {
				ce.Status, ce.Reason = doc.Status, doc.Reason
			}
		}
		return ce, nil
	}
	ev := r.Evaluation
	ce.Status = ev.Status.String()
	ce.Reason = ev.Reason.String()
	for _, d := range ev.Diagnostics() {
		ce.Diagnostics = append(ce.Diagnostics, CLIDiagnostic{File: d.Path, Line: d.Line, Col: d.Column, Message: d.Message})
	}
	if flagDocument && ev.Document != nil {
		ce.Document = ev.Document
	}
	if convert && ev.Evaluated() {
		v, err := e.Convert(ctx, ev.TopLevel)
		if err != nil {
			return ce, fmt.Errorf("converting %s: %w", r.Path, err)
		}
		ce.Value = v
	}
	return ce, nil
}

// expandPaths resolves the arguments to absolute script paths. Directories
// are walked for files with a script extension.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", a, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && notation.IsScriptFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", a, err)
		}
	}
	return paths, nil
}
