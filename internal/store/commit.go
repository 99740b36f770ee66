package store

import "fmt"

// CommitBatch writes every evaluation buffered in batch within a single
// transaction. Fake (negative) document IDs are remapped to real ones; the
// returned map goes from fake to real ID. A later evaluation of the same
// path replaces an earlier one.
func (s *Store) CommitBatch(batch *BatchedStore) (map[int64]int64, error) {
	batch.mu.Lock()
	evals := batch.Evaluations
	batch.Evaluations = nil
	batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(evals))
	for i := range evals {
		ev := &evals[i]
		fakeID := ev.Document.ID
		realID, err := saveEvaluationTx(tx, ev)
		if err != nil {
			return nil, fmt.Errorf("commit batch: document %q: %w", ev.Document.Path, err)
		}
		fakeToReal[fakeID] = realID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: commit: %w", err)
	}
	return fakeToReal, nil
}
