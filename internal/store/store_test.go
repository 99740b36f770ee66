package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestDocument inserts an evaluated document and returns it with ID set.
func insertTestDocument(t *testing.T, s *Store, path string) *Document {
	t.Helper()
	d := &Document{Path: path, Hash: "abc123", Status: StatusEvaluated, EvaluatedAt: time.Now().UTC().Truncate(time.Second)}
	id, err := s.InsertDocument(d)
	require.NoError(t, err)
	require.Positive(t, id)
	return d
}

func sampleEvaluation(path string) *Evaluation {
	return &Evaluation{
		Document: Document{Path: path, Hash: "h1", Status: StatusNotEvaluated, Reason: "failures in resolution"},
		Imports:  []Import{{FqName: "com.example.Lib", Line: 1, Col: 1}},
		Failures: []Failure{{Kind: "unsupported syntax", Construct: "local var", Line: 2, Col: 1, Text: "var x = 1"}},
		Errors:   []ResolutionError{{Reason: "unresolved reference", Detail: "foo", Line: 3, Col: 1}},
		Assignments: []Assignment{
			{Slot: "top#version", Property: "version", Assigned: true, Value: `"2"`, ValueType: "String"},
			{Slot: "top#name", Property: "name", Assigned: false},
		},
		Additions: []Addition{{Container: "top", Function: "c", InvocationID: 4, Line: 5, Col: 1}},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	expectedTables := []string{
		"documents", "imports", "failures", "resolution_errors", "assignments", "additions",
	}

	for _, table := range expectedTables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Documents
// =============================================================================

func TestDocument_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	d := insertTestDocument(t, s, "/build.kts")

	got, err := s.DocumentByPath("/build.kts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, StatusEvaluated, got.Status)
	assert.Empty(t, got.Reason)
	assert.True(t, d.EvaluatedAt.Equal(got.EvaluatedAt))
}

func TestDocument_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	got, err := s.DocumentByPath("/missing.kts")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocument_IDsNotReused(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var last int64
	for i := 0; i < 3; i++ {
		id, err := s.InsertDocument(&Document{Path: "/a.kts", Hash: "h", Status: StatusEvaluated})
		require.NoError(t, err)
		assert.Greater(t, id, last, "replacing a document allocates a fresh id")
		last = id
	}

	doc, err := s.DocumentByPath("/a.kts")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, last, doc.ID)
}

func TestDocument_ReplaceByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first, err := s.SaveEvaluation(sampleEvaluation("/a.kts"))
	require.NoError(t, err)

	d := &Document{Path: "/a.kts", Hash: "h2", Status: StatusEvaluated}
	second, err := s.InsertDocument(d)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	docs, err := s.Documents()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h2", docs[0].Hash)

	errs, err := s.ErrorsByDocument(first)
	require.NoError(t, err)
	assert.Empty(t, errs, "rows of the replaced document are removed")
}

func TestDocument_ByStatus(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestDocument(t, s, "/ok.kts")
	_, err := s.SaveEvaluation(sampleEvaluation("/bad.kts"))
	require.NoError(t, err)

	bad, err := s.DocumentsByStatus(StatusNotEvaluated)
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, "/bad.kts", bad[0].Path)
	assert.Equal(t, "failures in resolution", bad[0].Reason)
}

func TestDocumentsImporting(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.SaveEvaluation(sampleEvaluation("/a.kts"))
	require.NoError(t, err)
	insertTestDocument(t, s, "/b.kts")

	docs, err := s.DocumentsImporting("com.example.Lib")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "/a.kts", docs[0].Path)

	docs, err = s.DocumentsImporting("com.example.Other")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// =============================================================================
// Evaluation rows
// =============================================================================

func TestSaveEvaluation_AllRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ev := sampleEvaluation("/a.kts")

	id, err := s.SaveEvaluation(ev)
	require.NoError(t, err)
	assert.Equal(t, id, ev.Document.ID)

	imports, err := s.ImportsByDocument(id)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "com.example.Lib", imports[0].FqName)

	failures, err := s.FailuresByDocument(id)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "local var", failures[0].Construct)
	assert.Equal(t, "var x = 1", failures[0].Text)

	errs, err := s.ErrorsByDocument(id)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "unresolved reference", errs[0].Reason)
	assert.Equal(t, 3, errs[0].Line)

	assignments, err := s.AssignmentsByDocument(id)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "top#name", assignments[0].Slot)
	assert.False(t, assignments[0].Assigned)
	assert.Equal(t, "top#version", assignments[1].Slot)
	assert.True(t, assignments[1].Assigned)
	assert.Equal(t, `"2"`, assignments[1].Value)

	additions, err := s.AdditionsByDocument(id)
	require.NoError(t, err)
	require.Len(t, additions, 1)
	assert.Equal(t, int64(4), additions[0].InvocationID)
	assert.Positive(t, additions[0].ID)
}

func TestInsertRows_Individually(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	d := insertTestDocument(t, s, "/a.kts")

	a := &Assignment{DocumentID: d.ID, Slot: "top#x", Property: "x", Assigned: true, Value: "1", ValueType: "Int"}
	id, err := s.InsertAssignment(a)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	_, err = s.InsertAddition(&Addition{DocumentID: d.ID, Container: "top", Function: "c", InvocationID: 2})
	require.NoError(t, err)
	_, err = s.InsertResolutionError(&ResolutionError{DocumentID: d.ID, Reason: "val reassignment"})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{DocumentID: d.ID, FqName: "a.B"})
	require.NoError(t, err)
	_, err = s.InsertFailure(&Failure{DocumentID: d.ID, Kind: "syntax error", Text: "}"})
	require.NoError(t, err)

	byProp, err := s.AssignmentsByProperty("x")
	require.NoError(t, err)
	require.Len(t, byProp, 1)
	assert.Equal(t, "Int", byProp[0].ValueType)

	byFn, err := s.AdditionsByFunction("c")
	require.NoError(t, err)
	require.Len(t, byFn, 1)

	byReason, err := s.ErrorsByReason("val reassignment")
	require.NoError(t, err)
	require.Len(t, byReason, 1)
	assert.Empty(t, byReason[0].Detail)
}

func TestInsertRow_UnknownDocumentRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.InsertImport(&Import{DocumentID: 999, FqName: "a.B"})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestErrorCounts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a, err := s.SaveEvaluation(sampleEvaluation("/a.kts"))
	require.NoError(t, err)
	ev := sampleEvaluation("/b.kts")
	ev.Errors = append(ev.Errors, ResolutionError{Reason: "val reassignment"})
	b, err := s.SaveEvaluation(ev)
	require.NoError(t, err)

	counts, err := s.ErrorCounts()
	require.NoError(t, err)
	assert.Equal(t, []ErrorCount{{"unresolved reference", 2}, {"val reassignment", 1}}, counts)

	counts, err = s.ErrorCounts(a)
	require.NoError(t, err)
	assert.Equal(t, []ErrorCount{{"unresolved reference", 1}}, counts)

	counts, err = s.ErrorCounts(a, b)
	require.NoError(t, err)
	assert.Len(t, counts, 2)
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeleteDocumentData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id, err := s.SaveEvaluation(sampleEvaluation("/a.kts"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocumentData(id))

	for _, table := range append([]string{"documents"}, childTables...) {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "table %s should be empty", table)
	}
}

func TestDeleteDocumentData_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.NoError(t, s.DeleteDocumentData(42))
}

// =============================================================================
// Content hash
// =============================================================================

func TestContentHash_Deterministic(t *testing.T) {
	t.Parallel()
	h1 := ComputeContentHash([]byte("x = 1"), "schema-a")
	h2 := ComputeContentHash([]byte("x = 1"), "schema-a")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestContentHash_SchemaChangesHash(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t,
		ComputeContentHash([]byte("x = 1"), "schema-a"),
		ComputeContentHash([]byte("x = 1"), "schema-b"),
	)
	assert.NotEqual(t,
		ComputeContentHash([]byte("x = 1"), "schema-a"),
		ComputeContentHash([]byte("x = 2"), "schema-a"),
	)
}
