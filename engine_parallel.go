package notation

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jward/notation/internal/store"
)

// FileResult is the outcome for one file of EvaluateFiles.
type FileResult struct {
	Path string
	// Evaluation is nil when the file was skipped.
	Evaluation *Evaluation
	// Skipped is set when the stored evaluation matches the file's content
	// and the current schema.
	Skipped bool
}

type fileItem struct {
	index int
	path  string
	src   []byte
}

// EvaluateFiles evaluates scripts using a three-phase pipeline:
//
//	Phase A (serial):   Read files and skip those whose stored hash matches.
//	Phase B (parallel): Evaluate with a bounded worker group; results are
//	                    buffered in a BatchedStore.
//	Phase C (serial):   Commit the batch to SQLite in one transaction.
//
// The schema is shared read-only between workers; every evaluation owns its
// tracer and reflection state. Results keep the order of paths.
func (e *Evaluator) EvaluateFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	// ---- Phase A: Serial file preparation ----
	var items []fileItem
	for i, path := range paths {
		results[i].Path = path
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("notation: read %s: %w", path, err)
		}
		if e.store != nil {
			existing, err := e.store.DocumentByPath(path)
			if err != nil {
				return nil, fmt.Errorf("notation: lookup %s: %w", path, err)
			}
			if existing != nil && existing.Hash == store.ComputeContentHash(src, e.fingerprint) {
				results[i].Skipped = true
				e.logger.Debug("evaluate: unchanged", "path", path)
				continue
			}
		}
		items = append(items, fileItem{index: i, path: path, src: src})
	}
	if len(items) == 0 {
		return results, nil
	}

	// ---- Phase B: Parallel evaluation ----
	var batch *store.BatchedStore
	if e.store != nil {
		batch = store.NewBatchedStore(e.store)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for _, item := range items {
		g.Go(func() error {
			ev, err := e.Evaluate(gctx, item.path, item.src)
			if err != nil {
				return fmt.Errorf("notation: evaluate %s: %w", item.path, err)
			}
			results[item.index].Evaluation = ev
			if batch != nil {
				if _, err := batch.SaveEvaluation(ev.storeEvaluation()); err != nil {
					return fmt.Errorf("notation: buffer %s: %w", item.path, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ---- Phase C: Serial commit ----
	if batch != nil {
		if _, err := e.store.CommitBatch(batch); err != nil {
			return nil, fmt.Errorf("notation: %w", err)
		}
	}
	e.logger.Debug("evaluate files", "files", len(paths), "evaluated", len(items), "skipped", len(paths)-len(items))
	return results, nil
}
