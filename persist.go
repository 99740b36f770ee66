package notation

import (
	"fmt"
	"sort"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/store"
)

// Reasons stored for problems found after resolution.
const (
	reasonUnassignedValue = "unassigned value used"
	reasonAssignmentCycle = "assignment cycle"
)

// storeEvaluation flattens ev into the rows the store keeps.
func (ev *Evaluation) storeEvaluation() *store.Evaluation {
	out := &store.Evaluation{
		Document: store.Document{
			Path:   ev.Path,
			Hash:   ev.Hash,
			Status: ev.Status.String(),
			Reason: ev.Reason.String(),
		},
	}
	if ev.Tree != nil {
		for _, imp := range ev.Tree.Imports {
			out.Imports = append(out.Imports, store.Import{FqName: imp.FqName(), Line: imp.Src.Line, Col: imp.Src.Column})
		}
		for _, f := range ev.Tree.Failures {
			row := store.Failure{Kind: "parsing error", Line: f.Src.Line, Col: f.Src.Column, Text: f.Src.Text}
			if f.Kind == langtree.UnsupportedConstruct {
				row.Kind = "unsupported construct"
				row.Construct = f.Construct.String()
			}
			out.Failures = append(out.Failures, row)
		}
	}
	if ev.Resolution != nil {
		for _, e := range ev.Resolution.Errors {
			src := e.Element.Source()
			out.Errors = append(out.Errors, store.ResolutionError{
				Reason: e.Reason.String(), Detail: e.Detail, Line: src.Line, Col: src.Column,
			})
		}
	}
	if ev.Trace != nil {
		for _, e := range ev.Trace.Errors {
			out.Errors = append(out.Errors, store.ResolutionError{
				Reason: e.Result.String(), Line: e.Src.Line, Col: e.Src.Column,
			})
		}
		if ev.Trace.Cycle != nil {
			out.Errors = append(out.Errors, store.ResolutionError{Reason: reasonAssignmentCycle, Detail: ev.Trace.Cycle.Error()})
		}
		out.Assignments = assignmentRows(ev)
		for _, a := range ev.Trace.Additions {
			out.Additions = append(out.Additions, store.Addition{
				Container:    resolve.Key(a.Container),
				Function:     a.DataObject.Function.Name,
				InvocationID: a.DataObject.InvocationID,
				Line:         a.DataObject.Src.Line,
				Col:          a.DataObject.Src.Column,
			})
		}
	}
	for _, u := range ev.Unassigned {
		out.Errors = append(out.Errors, store.ResolutionError{
			Reason: reasonUnassignedValue, Detail: u.Slot, Line: u.Src.Line, Col: u.Src.Column,
		})
	}
	return out
}

func assignmentRows(ev *Evaluation) []store.Assignment {
	rows := make([]store.Assignment, 0, len(ev.Trace.Results))
	for key, r := range ev.Trace.Results {
		row := store.Assignment{Slot: key, Property: r.Slot.Property.Name, Assigned: r.Assigned}
		if r.Assigned {
			row.Value = describeValue(r.Value)
			row.ValueType = resolve.TypeOf(r.Value).String()
		} else {
			row.Value = r.Final.Key()
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Slot < rows[j].Slot })
	return rows
}

// describeValue renders a traced value: literals as source text, anything
// else by its structural key.
func describeValue(o resolve.ObjectOrigin) string {
	switch o := o.(type) {
	case *resolve.ConstantOrigin:
		if s, ok := o.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(o.Value)
	case *resolve.NullOrigin:
		return "null"
	}
	return resolve.Key(o)
}
