package notation

import (
	"fmt"

	"github.com/jward/notation/internal/store"
)

// QueryBuilder answers questions about stored evaluations.
type QueryBuilder struct {
	store *store.Store
}

// Location is a position in a stored script.
type Location struct {
	File string
	Line int
	Col  int
}

// ErrorEntry is one stored problem of a script.
type ErrorEntry struct {
	Location
	Reason string
	Detail string
}

// AssignmentEntry is the traced final value of one property slot.
type AssignmentEntry struct {
	File      string
	Slot      string
	Property  string
	Assigned  bool
	Value     string
	ValueType string
}

// Documents lists every stored script with its status.
func (q *QueryBuilder) Documents() ([]*Document, error) {
	docs, err := q.store.Documents()
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	return docs, nil
}

// NotEvaluated lists the stored scripts that were not evaluated.
func (q *QueryBuilder) NotEvaluated() ([]*Document, error) {
	docs, err := q.store.DocumentsByStatus(store.StatusNotEvaluated)
	if err != nil {
		return nil, fmt.Errorf("not evaluated: %w", err)
	}
	return docs, nil
}

// Errors returns the resolution errors and language tree failures of file,
// or of every stored script when file is empty.
func (q *QueryBuilder) Errors(file string) ([]ErrorEntry, error) {
	docs, err := q.documents(file)
	if err != nil {
		return nil, fmt.Errorf("errors: %w", err)
	}
	var out []ErrorEntry
	for _, d := range docs {
		failures, err := q.store.FailuresByDocument(d.ID)
		if err != nil {
			return nil, fmt.Errorf("errors: %w", err)
		}
		for _, f := range failures {
			reason := f.Kind
			if f.Construct != "" {
				reason += ": " + f.Construct
			}
			out = append(out, ErrorEntry{Location: Location{File: d.Path, Line: f.Line, Col: f.Col}, Reason: reason, Detail: f.Text})
		}
		errs, err := q.store.ErrorsByDocument(d.ID)
		if err != nil {
			return nil, fmt.Errorf("errors: %w", err)
		}
		for _, e := range errs {
			out = append(out, ErrorEntry{Location: Location{File: d.Path, Line: e.Line, Col: e.Col}, Reason: e.Reason, Detail: e.Detail})
		}
	}
	return out, nil
}

// ErrorsWithReason returns every stored resolution error with reason.
func (q *QueryBuilder) ErrorsWithReason(reason string) ([]ErrorEntry, error) {
	errs, err := q.store.ErrorsByReason(reason)
	if err != nil {
		return nil, fmt.Errorf("errors with reason: %w", err)
	}
	paths, err := q.paths()
	if err != nil {
		return nil, fmt.Errorf("errors with reason: %w", err)
	}
	out := make([]ErrorEntry, 0, len(errs))
	for _, e := range errs {
		out = append(out, ErrorEntry{Location: Location{File: paths[e.DocumentID], Line: e.Line, Col: e.Col}, Reason: e.Reason, Detail: e.Detail})
	}
	return out, nil
}

// ErrorSummary counts stored resolution errors by reason, most frequent
// first.
func (q *QueryBuilder) ErrorSummary() ([]ErrorCount, error) {
	counts, err := q.store.ErrorCounts()
	if err != nil {
		return nil, fmt.Errorf("error summary: %w", err)
	}
	return counts, nil
}

// Assignments returns the traced assignments of file, or of every stored
// script when file is empty.
func (q *QueryBuilder) Assignments(file string) ([]AssignmentEntry, error) {
	docs, err := q.documents(file)
	if err != nil {
		return nil, fmt.Errorf("assignments: %w", err)
	}
	var out []AssignmentEntry
	for _, d := range docs {
		rows, err := q.store.AssignmentsByDocument(d.ID)
		if err != nil {
			return nil, fmt.Errorf("assignments: %w", err)
		}
		for _, a := range rows {
			out = append(out, assignmentEntry(d.Path, a))
		}
	}
	return out, nil
}

// AssignmentsOf returns the traced assignments of a property name across
// all stored scripts.
func (q *QueryBuilder) AssignmentsOf(property string) ([]AssignmentEntry, error) {
	rows, err := q.store.AssignmentsByProperty(property)
	if err != nil {
		return nil, fmt.Errorf("assignments of: %w", err)
	}
	paths, err := q.paths()
	if err != nil {
		return nil, fmt.Errorf("assignments of: %w", err)
	}
	out := make([]AssignmentEntry, 0, len(rows))
	for _, a := range rows {
		out = append(out, assignmentEntry(paths[a.DocumentID], a))
	}
	return out, nil
}

// Additions returns where the named adding function was called.
func (q *QueryBuilder) Additions(function string) ([]Location, error) {
	rows, err := q.store.AdditionsByFunction(function)
	if err != nil {
		return nil, fmt.Errorf("additions: %w", err)
	}
	paths, err := q.paths()
	if err != nil {
		return nil, fmt.Errorf("additions: %w", err)
	}
	out := make([]Location, 0, len(rows))
	for _, a := range rows {
		out = append(out, Location{File: paths[a.DocumentID], Line: a.Line, Col: a.Col})
	}
	return out, nil
}

// Importers returns the stored scripts importing the fully qualified name.
func (q *QueryBuilder) Importers(fqName string) ([]*Document, error) {
	docs, err := q.store.DocumentsImporting(fqName)
	if err != nil {
		return nil, fmt.Errorf("importers: %w", err)
	}
	return docs, nil
}

func (q *QueryBuilder) documents(file string) ([]*store.Document, error) {
	if file == "" {
		return q.store.Documents()
	}
	d, err := q.store.DocumentByPath(file)
	if err != nil || d == nil {
		return nil, err
	}
	return []*store.Document{d}, nil
}

func (q *QueryBuilder) paths() (map[int64]string, error) {
	docs, err := q.store.Documents()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(docs))
	for _, d := range docs {
		out[d.ID] = d.Path
	}
	return out, nil
}

func assignmentEntry(file string, a *store.Assignment) AssignmentEntry {
	return AssignmentEntry{
		File:      file,
		Slot:      a.Slot,
		Property:  a.Property,
		Assigned:  a.Assigned,
		Value:     a.Value,
		ValueType: a.ValueType,
	}
}
