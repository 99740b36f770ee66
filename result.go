package notation

import (
	"fmt"
	"sort"

	"github.com/jward/notation/internal/document"
	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/objects"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/store"
	"github.com/jward/notation/internal/trace"
)

// Status tells whether a script was evaluated.
type Status uint8

const (
	Evaluated Status = iota
	NotEvaluated
)

func (s Status) String() string {
	if s == Evaluated {
		return store.StatusEvaluated
	}
	return store.StatusNotEvaluated
}

// NotEvaluatedReason is why a script was not evaluated. When several apply,
// the one from the earliest pipeline stage is reported.
type NotEvaluatedReason uint8

const (
	NoReason NotEvaluatedReason = iota
	NoSchemaAvailable
	NoParseResult
	FailuresInLanguageTree
	FailuresInResolution
	UnassignedValuesUsed
)

var notEvaluatedReasonNames = [...]string{
	NoReason:               "",
	NoSchemaAvailable:      "no schema available",
	NoParseResult:          "no parse result",
	FailuresInLanguageTree: "failures in language tree",
	FailuresInResolution:   "failures in resolution",
	UnassignedValuesUsed:   "unassigned values used",
}

func (r NotEvaluatedReason) String() string { return notEvaluatedReasonNames[r] }

// Evaluation is the outcome of evaluating one script. Stage results are
// kept even when the script was not evaluated so that tooling can render
// diagnostics; TopLevel is only meant to be applied when Status is
// Evaluated.
type Evaluation struct {
	Path   string
	Hash   string
	Status Status
	Reason NotEvaluatedReason
	// ParseErr is set with NoParseResult.
	ParseErr error

	Tree       *langtree.Result
	Resolution *resolve.Result
	Trace      *trace.AssignmentTrace
	TopLevel   *objects.DataObjectReflection
	Unassigned []objects.Unassigned
	Document   *document.Document
}

func (ev *Evaluation) notEvaluated(reason NotEvaluatedReason) {
	if ev.Status == NotEvaluated {
		return
	}
	ev.Status = NotEvaluated
	ev.Reason = reason
}

// Evaluated reports whether the script can be applied.
func (ev *Evaluation) Evaluated() bool { return ev.Status == Evaluated }

// Diagnostics lists every problem found in the script, ordered by position.
// Assignment cycles have no single position and come last.
func (ev *Evaluation) Diagnostics() []document.Diagnostic {
	var out []document.Diagnostic
	if ev.Document != nil {
		out = ev.Document.Diagnostics()
	}
	for _, u := range ev.Unassigned {
		out = append(out, document.Diagnostic{
			Src: u.Src, Path: u.Src.Path, Line: u.Src.Line, Column: u.Src.Column,
			Message: "unassigned value used: " + u.Slot,
		})
	}
	for _, e := range traceAdditionErrors(ev.Trace) {
		out = append(out, document.Diagnostic{
			Src: e.Src, Path: e.Src.Path, Line: e.Src.Line, Column: e.Src.Column,
			Message: e.Result.String(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	if ev.Trace != nil && ev.Trace.Cycle != nil {
		out = append(out, document.Diagnostic{Path: ev.Path, Message: ev.Trace.Cycle.Error()})
	}
	if ev.ParseErr != nil {
		out = append(out, document.Diagnostic{Path: ev.Path, Message: ev.ParseErr.Error()})
	}
	return out
}

// traceAdditionErrors returns the tracer errors not attached to a
// statement, which the document view cannot place.
func traceAdditionErrors(tr *trace.AssignmentTrace) []trace.Error {
	if tr == nil {
		return nil
	}
	var out []trace.Error
	for _, e := range tr.Errors {
		if e.Element == nil {
			out = append(out, e)
		}
	}
	return out
}

// NotEvaluatedError describes a script that was not evaluated.
type NotEvaluatedError struct {
	Path        string
	Reason      NotEvaluatedReason
	Diagnostics []document.Diagnostic
}

func (e *NotEvaluatedError) Error() string {
	msg := fmt.Sprintf("notation: %s not evaluated: %s", e.Path, e.Reason)
	if len(e.Diagnostics) > 0 {
		msg += ": " + e.Diagnostics[0].String()
		if n := len(e.Diagnostics) - 1; n > 0 {
			msg += fmt.Sprintf(" (and %d more)", n)
		}
	}
	return msg
}

// Err returns a *NotEvaluatedError when the script was not evaluated.
func (ev *Evaluation) Err() error {
	if ev.Evaluated() {
		return nil
	}
	return &NotEvaluatedError{Path: ev.Path, Reason: ev.Reason, Diagnostics: ev.Diagnostics()}
}
