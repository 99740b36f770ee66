package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for evaluation results.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT NOT NULL,
  status          TEXT NOT NULL,
  reason          TEXT,
  evaluated_at    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS imports (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  fq_name         TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS failures (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  kind            TEXT NOT NULL,
  construct       TEXT,
  line            INTEGER,
  col             INTEGER,
  text            TEXT
);

CREATE TABLE IF NOT EXISTS resolution_errors (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  reason          TEXT NOT NULL,
  detail          TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS assignments (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  slot            TEXT NOT NULL,
  property        TEXT NOT NULL,
  assigned        BOOLEAN NOT NULL,
  value           TEXT,
  value_type      TEXT
);

CREATE TABLE IF NOT EXISTS additions (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  container       TEXT NOT NULL,
  function        TEXT NOT NULL,
  invocation_id   INTEGER NOT NULL,
  line            INTEGER,
  col             INTEGER
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_imports_document ON imports(document_id);
CREATE INDEX IF NOT EXISTS idx_imports_name ON imports(fq_name);
CREATE INDEX IF NOT EXISTS idx_failures_document ON failures(document_id);
CREATE INDEX IF NOT EXISTS idx_resolution_errors_document ON resolution_errors(document_id);
CREATE INDEX IF NOT EXISTS idx_resolution_errors_reason ON resolution_errors(reason);
CREATE INDEX IF NOT EXISTS idx_assignments_document ON assignments(document_id);
CREATE INDEX IF NOT EXISTS idx_assignments_property ON assignments(property);
CREATE INDEX IF NOT EXISTS idx_additions_document ON additions(document_id);
CREATE INDEX IF NOT EXISTS idx_additions_function ON additions(function);
`

// childTables hold rows owned by a document, deleted before the document.
var childTables = []string{"additions", "assignments", "resolution_errors", "failures", "imports"}

// DeleteDocumentData transactionally removes a document and every row it
// owns. Deleting a missing document is not an error.
func (s *Store) DeleteDocumentData(documentID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteDocumentTx(tx, documentID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteDocumentTx(tx *sql.Tx, documentID int64) error {
	for _, table := range childTables {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE document_id = ?", documentID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
