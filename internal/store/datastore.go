package store

// DataStore is the interface the evaluator writes results through. Both
// Store (direct SQLite) and BatchedStore (in-memory buffering for parallel
// evaluation) implement it.
type DataStore interface {
	// SaveEvaluation stores one document's rows and returns its ID.
	SaveEvaluation(ev *Evaluation) (int64, error)

	// DocumentByPath is used to skip documents whose hash is unchanged.
	DocumentByPath(path string) (*Document, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
