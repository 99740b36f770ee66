package store

import "sync"

// BatchedStore buffers evaluations in memory under fake (negative)
// document IDs. Workers write to it concurrently; CommitBatch later
// flushes everything in a single transaction.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// DocumentByPath passes through to the underlying Store for anything not
// yet buffered.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Evaluations []Evaluation

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for reads.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

// SaveEvaluation buffers ev and stamps it with a fake document ID.
func (b *BatchedStore) SaveEvaluation(ev *Evaluation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	ev.Document.ID = fakeID
	for i := range ev.Imports {
		ev.Imports[i].DocumentID = fakeID
	}
	for i := range ev.Failures {
		ev.Failures[i].DocumentID = fakeID
	}
	for i := range ev.Errors {
		ev.Errors[i].DocumentID = fakeID
	}
	for i := range ev.Assignments {
		ev.Assignments[i].DocumentID = fakeID
	}
	for i := range ev.Additions {
		ev.Additions[i].DocumentID = fakeID
	}
	b.Evaluations = append(b.Evaluations, *ev)
	return fakeID, nil
}

// DocumentByPath returns the buffered document for path when present,
// falling back to the database.
func (b *BatchedStore) DocumentByPath(path string) (*Document, error) {
	b.mu.Lock()
	for i := len(b.Evaluations) - 1; i >= 0; i-- {
		if b.Evaluations[i].Document.Path == path {
			doc := b.Evaluations[i].Document
			b.mu.Unlock()
			return &doc, nil
		}
	}
	b.mu.Unlock()
	return b.store.DocumentByPath(path)
}

// Len reports the number of buffered evaluations.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Evaluations)
}
