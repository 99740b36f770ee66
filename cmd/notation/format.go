package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatEvaluationsText prints one status line per script followed by its
// diagnostics and, for eval, the converted value.
func formatEvaluationsText(w io.Writer, evals []CLIEvaluation) {
	for _, e := range evals {
		status := e.Status
		if e.Reason != "" {
			status += " (" + e.Reason + ")"
		}
		if e.Skipped {
			status += " [unchanged]"
		}
		fmt.Fprintf(w, "%s: %s\n", e.File, status)
		for _, d := range e.Diagnostics {
			if d.Line == 0 {
				fmt.Fprintf(w, "  %s\n", d.Message)
				continue
			}
			fmt.Fprintf(w, "  %d:%d: %s\n", d.Line, d.Col, d.Message)
		}
		if e.Value != nil {
			writeValue(w, e.Value, "  ")
		}
	}
}

// writeValue prints a converted value as an indented tree.
func writeValue(w io.Writer, v any, indent string) {
	m, ok := v.(map[string]any)
	if !ok {
		fmt.Fprintf(w, "%s%v\n", indent, v)
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch child := m[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeValue(w, child, indent+"  ")
		case []any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			for _, item := range child {
				fmt.Fprintf(w, "%s  -\n", indent)
				writeValue(w, item, indent+"    ")
			}
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, k, child)
		}
	}
}

// formatSchemaText formats a CLISchema as a class listing.
func formatSchemaText(w io.Writer, s CLISchema) {
	fmt.Fprintf(w, "Top level: %s\n", s.TopLevel)
	fmt.Fprintf(w, "Fingerprint: %s\n", s.Fingerprint)
	for _, c := range s.Classes {
		fmt.Fprintln(w)
		header := c.Name
		if len(c.Supertypes) > 0 {
			header += " : " + strings.Join(c.Supertypes, ", ")
		}
		fmt.Fprintln(w, header)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, p := range c.Properties {
			var flags []string
			if p.ReadOnly {
				flags = append(flags, "read-only")
			}
			if p.HasDefault {
				flags = append(flags, "default")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Name, p.Type, strings.Join(flags, ","))
		}
		for _, f := range c.Functions {
			fmt.Fprintf(tw, "  %s\t%s\t\n", f.Signature, f.Semantics)
		}
		tw.Flush()
	}
	if len(s.Functions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Functions:")
		for _, f := range s.Functions {
			fmt.Fprintf(w, "  %s (%s)\n", f.Signature, f.Semantics)
		}
	}
	if len(s.Externals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "External objects:")
		for _, name := range s.Externals {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

// formatErrorsText formats CLIError results as aligned columns.
func formatErrorsText(w io.Writer, errs []CLIError) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tCOL\tREASON\tDETAIL")
	for _, e := range errs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", e.File, e.Line, e.Col, e.Reason, e.Detail)
	}
	tw.Flush()
}

// formatAssignmentsText formats CLIAssignment results as aligned columns.
func formatAssignmentsText(w io.Writer, assignments []CLIAssignment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSLOT\tVALUE\tTYPE")
	for _, a := range assignments {
		value := a.Value
		if !a.Assigned {
			value = "unassigned (" + a.Value + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.File, a.Slot, value, a.ValueType)
	}
	tw.Flush()
}

func outputResultText(result CLIResult) error {
	return writeResultText(os.Stdout, result)
}

func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIEvaluation:
		formatEvaluationsText(w, v)
	case CLISchema:
		formatSchemaText(w, v)
	case []CLIError:
		formatErrorsText(w, v)
	case []CLIAssignment:
		formatAssignmentsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
