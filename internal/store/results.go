package store

import (
	"database/sql"
	"fmt"
)

func (s *Store) ImportsByDocument(documentID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		"SELECT id, document_id, fq_name, line, col FROM imports WHERE document_id = ? ORDER BY id",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()
	var out []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.DocumentID, &imp.FqName, &imp.Line, &imp.Col); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

func (s *Store) FailuresByDocument(documentID int64) ([]*Failure, error) {
	rows, err := s.db.Query(
		"SELECT id, document_id, kind, construct, line, col, text FROM failures WHERE document_id = ? ORDER BY line, col",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()
	var out []*Failure
	for rows.Next() {
		f := &Failure{}
		var construct sql.NullString
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.Kind, &construct, &f.Line, &f.Col, &f.Text); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Construct = construct.String
		out = append(out, f)
	}
	return out, rows.Err()
}

const resolutionErrorSelect = "SELECT id, document_id, reason, detail, line, col FROM resolution_errors"

// ErrorsByDocument returns the resolution errors of one document in source order.
func (s *Store) ErrorsByDocument(documentID int64) ([]*ResolutionError, error) {
	rows, err := s.db.Query(resolutionErrorSelect+" WHERE document_id = ? ORDER BY line, col", documentID)
	if err != nil {
		return nil, fmt.Errorf("query resolution errors: %w", err)
	}
	return scanResolutionErrors(rows)
}

// ErrorsByReason returns every resolution error with the given reason.
func (s *Store) ErrorsByReason(reason string) ([]*ResolutionError, error) {
	rows, err := s.db.Query(resolutionErrorSelect+" WHERE reason = ? ORDER BY document_id, line, col", reason)
	if err != nil {
		return nil, fmt.Errorf("query resolution errors: %w", err)
	}
	return scanResolutionErrors(rows)
}

func scanResolutionErrors(rows *sql.Rows) ([]*ResolutionError, error) {
	defer rows.Close()
	var out []*ResolutionError
	for rows.Next() {
		e := &ResolutionError{}
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Reason, &detail, &e.Line, &e.Col); err != nil {
			return nil, fmt.Errorf("scan resolution error: %w", err)
		}
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}

const assignmentSelect = "SELECT id, document_id, slot, property, assigned, value, value_type FROM assignments"

func (s *Store) AssignmentsByDocument(documentID int64) ([]*Assignment, error) {
	rows, err := s.db.Query(assignmentSelect+" WHERE document_id = ? ORDER BY slot", documentID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	return scanAssignments(rows)
}

// AssignmentsByProperty returns the traced assignments of a property name
// across all documents.
func (s *Store) AssignmentsByProperty(property string) ([]*Assignment, error) {
	rows, err := s.db.Query(assignmentSelect+" WHERE property = ? ORDER BY document_id, slot", property)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]*Assignment, error) {
	defer rows.Close()
	var out []*Assignment
	for rows.Next() {
		a := &Assignment{}
		var value, valueType sql.NullString
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Slot, &a.Property, &a.Assigned, &value, &valueType); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Value = value.String
		a.ValueType = valueType.String
		out = append(out, a)
	}
	return out, rows.Err()
}

const additionSelect = "SELECT id, document_id, container, function, invocation_id, line, col FROM additions"

func (s *Store) AdditionsByDocument(documentID int64) ([]*Addition, error) {
	rows, err := s.db.Query(additionSelect+" WHERE document_id = ? ORDER BY line, col", documentID)
	if err != nil {
		return nil, fmt.Errorf("query additions: %w", err)
	}
	return scanAdditions(rows)
}

// AdditionsByFunction returns every addition made through the named
// adding function.
func (s *Store) AdditionsByFunction(function string) ([]*Addition, error) {
	rows, err := s.db.Query(additionSelect+" WHERE function = ? ORDER BY document_id, line, col", function)
	if err != nil {
		return nil, fmt.Errorf("query additions: %w", err)
	}
	return scanAdditions(rows)
}

func scanAdditions(rows *sql.Rows) ([]*Addition, error) {
	defer rows.Close()
	var out []*Addition
	for rows.Next() {
		a := &Addition{}
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Container, &a.Function, &a.InvocationID, &a.Line, &a.Col); err != nil {
			return nil, fmt.Errorf("scan addition: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ErrorCount is the number of resolution errors recorded for one reason.
type ErrorCount struct {
	Reason string
	Count  int
}

// ErrorCounts summarizes resolution errors by reason, most frequent first.
// documentIDs restricts the count when non-empty.
func (s *Store) ErrorCounts(documentIDs ...int64) ([]ErrorCount, error) {
	q := "SELECT reason, COUNT(*) FROM resolution_errors"
	var args []any
	if len(documentIDs) > 0 {
		q += " WHERE document_id IN (" + placeholderList(len(documentIDs)) + ")"
		args = int64sToArgs(documentIDs)
	}
	q += " GROUP BY reason ORDER BY COUNT(*) DESC, reason"
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query error counts: %w", err)
	}
	defer rows.Close()
	var out []ErrorCount
	for rows.Next() {
		var c ErrorCount
		if err := rows.Scan(&c.Reason, &c.Count); err != nil {
			return nil, fmt.Errorf("scan error count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
