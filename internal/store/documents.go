package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InsertDocument inserts a document row, replacing any previous document
// stored under the same path together with the rows it owned.
func (s *Store) InsertDocument(doc *Document) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	id, err := insertDocumentTx(tx, doc)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	doc.ID = id
	return id, nil
}

func insertDocumentTx(tx *sql.Tx, doc *Document) (int64, error) {
	var prev int64
	err := tx.QueryRow("SELECT id FROM documents WHERE path = ?", doc.Path).Scan(&prev)
	switch {
	case err == nil:
		if err := deleteDocumentTx(tx, prev); err != nil {
			return 0, err
		}
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("lookup document %q: %w", doc.Path, err)
	}
	if doc.EvaluatedAt.IsZero() {
		doc.EvaluatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := tx.Exec(
		"INSERT INTO documents (path, hash, status, reason, evaluated_at) VALUES (?, ?, ?, ?, ?)",
		doc.Path, doc.Hash, doc.Status, nullString(doc.Reason), doc.EvaluatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document %q: %w", doc.Path, err)
	}
	return res.LastInsertId()
}

// DocumentByPath returns the stored document for path, or nil when none.
func (s *Store) DocumentByPath(path string) (*Document, error) {
	rows, err := s.db.Query(documentSelect+" WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	docs, err := scanDocuments(rows)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Documents returns every stored document ordered by path.
func (s *Store) Documents() ([]*Document, error) {
	rows, err := s.db.Query(documentSelect + " ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return scanDocuments(rows)
}

// DocumentsByStatus returns the documents with the given status.
func (s *Store) DocumentsByStatus(status string) ([]*Document, error) {
	rows, err := s.db.Query(documentSelect+" WHERE status = ? ORDER BY path", status)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return scanDocuments(rows)
}

// DocumentsImporting returns the documents that import the fully qualified
// name fqName.
func (s *Store) DocumentsImporting(fqName string) ([]*Document, error) {
	rows, err := s.db.Query(
		"SELECT d.id, d.path, d.hash, d.status, d.reason, d.evaluated_at FROM documents d"+
			" WHERE d.id IN (SELECT document_id FROM imports WHERE fq_name = ?) ORDER BY d.path",
		fqName,
	)
	if err != nil {
		return nil, fmt.Errorf("query importing documents: %w", err)
	}
	return scanDocuments(rows)
}

const documentSelect = "SELECT id, path, hash, status, reason, evaluated_at FROM documents"

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		d := &Document{}
		var reason sql.NullString
		var at sql.NullTime
		if err := rows.Scan(&d.ID, &d.Path, &d.Hash, &d.Status, &reason, &at); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Reason = reason.String
		d.EvaluatedAt = at.Time
		out = append(out, d)
	}
	return out, rows.Err()
}

// =============================================================================
// Document-owned rows
// =============================================================================

func (s *Store) InsertImport(imp *Import) (int64, error) {
	id, err := insertImportTx(s.db, imp)
	if err == nil {
		imp.ID = id
	}
	return id, err
}

func (s *Store) InsertFailure(f *Failure) (int64, error) {
	id, err := insertFailureTx(s.db, f)
	if err == nil {
		f.ID = id
	}
	return id, err
}

func (s *Store) InsertResolutionError(e *ResolutionError) (int64, error) {
	id, err := insertResolutionErrorTx(s.db, e)
	if err == nil {
		e.ID = id
	}
	return id, err
}

func (s *Store) InsertAssignment(a *Assignment) (int64, error) {
	id, err := insertAssignmentTx(s.db, a)
	if err == nil {
		a.ID = id
	}
	return id, err
}

func (s *Store) InsertAddition(a *Addition) (int64, error) {
	id, err := insertAdditionTx(s.db, a)
	if err == nil {
		a.ID = id
	}
	return id, err
}

func insertImportTx(x execer, imp *Import) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO imports (document_id, fq_name, line, col) VALUES (?, ?, ?, ?)",
		imp.DocumentID, imp.FqName, imp.Line, imp.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import %q: %w", imp.FqName, err)
	}
	return res.LastInsertId()
}

func insertFailureTx(x execer, f *Failure) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO failures (document_id, kind, construct, line, col, text) VALUES (?, ?, ?, ?, ?, ?)",
		f.DocumentID, f.Kind, nullString(f.Construct), f.Line, f.Col, f.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("insert failure: %w", err)
	}
	return res.LastInsertId()
}

func insertResolutionErrorTx(x execer, e *ResolutionError) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO resolution_errors (document_id, reason, detail, line, col) VALUES (?, ?, ?, ?, ?)",
		e.DocumentID, e.Reason, e.Detail, e.Line, e.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert resolution error: %w", err)
	}
	return res.LastInsertId()
}

func insertAssignmentTx(x execer, a *Assignment) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO assignments (document_id, slot, property, assigned, value, value_type) VALUES (?, ?, ?, ?, ?, ?)",
		a.DocumentID, a.Slot, a.Property, a.Assigned, a.Value, a.ValueType,
	)
	if err != nil {
		return 0, fmt.Errorf("insert assignment %q: %w", a.Slot, err)
	}
	return res.LastInsertId()
}

func insertAdditionTx(x execer, a *Addition) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO additions (document_id, container, function, invocation_id, line, col) VALUES (?, ?, ?, ?, ?, ?)",
		a.DocumentID, a.Container, a.Function, a.InvocationID, a.Line, a.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert addition %q: %w", a.Function, err)
	}
	return res.LastInsertId()
}

// SaveEvaluation writes a document and all its rows in one transaction,
// replacing what was stored for the same path. IDs on ev are updated.
func (s *Store) SaveEvaluation(ev *Evaluation) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("save evaluation: begin: %w", err)
	}
	defer tx.Rollback()
	id, err := saveEvaluationTx(tx, ev)
	if err != nil {
		return 0, fmt.Errorf("save evaluation %q: %w", ev.Document.Path, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save evaluation: commit: %w", err)
	}
	return id, nil
}

func saveEvaluationTx(tx *sql.Tx, ev *Evaluation) (int64, error) {
	id, err := insertDocumentTx(tx, &ev.Document)
	if err != nil {
		return 0, err
	}
	ev.Document.ID = id
	for i := range ev.Imports {
		ev.Imports[i].DocumentID = id
		if ev.Imports[i].ID, err = insertImportTx(tx, &ev.Imports[i]); err != nil {
			return 0, err
		}
	}
	for i := range ev.Failures {
		ev.Failures[i].DocumentID = id
		if ev.Failures[i].ID, err = insertFailureTx(tx, &ev.Failures[i]); err != nil {
			return 0, err
		}
	}
	for i := range ev.Errors {
		ev.Errors[i].DocumentID = id
		if ev.Errors[i].ID, err = insertResolutionErrorTx(tx, &ev.Errors[i]); err != nil {
			return 0, err
		}
	}
	for i := range ev.Assignments {
		ev.Assignments[i].DocumentID = id
		if ev.Assignments[i].ID, err = insertAssignmentTx(tx, &ev.Assignments[i]); err != nil {
			return 0, err
		}
	}
	for i := range ev.Additions {
		ev.Additions[i].DocumentID = id
		if ev.Additions[i].ID, err = insertAdditionTx(tx, &ev.Additions[i]); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
