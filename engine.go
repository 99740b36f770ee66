package notation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/jward/notation/internal/convention"
	"github.com/jward/notation/internal/document"
	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/objects"
	"github.com/jward/notation/internal/resolve"
	rt "github.com/jward/notation/internal/runtime"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/store"
	"github.com/jward/notation/internal/trace"
)

// Evaluator runs the notation pipeline for one schema: parse, resolve,
// apply conventions, trace assignments and reflect the object graph. One
// Evaluator may evaluate any number of scripts, concurrently.
type Evaluator struct {
	schema      *schema.AnalysisSchema
	fingerprint string

	strictReceivers   bool
	strictAssignments bool
	conventions       *convention.Registry

	store     *store.Store
	runtime   *rt.Runtime
	externals map[string]any
	logger    *slog.Logger

	parallelism int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStrictReceiverChecks controls whether scripts may reference members
// of an enclosing receiver other than the innermost one. On by default.
func WithStrictReceiverChecks(on bool) Option {
	return func(e *Evaluator) {
		e.strictReceivers = on
	}
}

// WithStrictAssignments reports a second assignment to the same property
// instead of letting the later one win.
func WithStrictAssignments(on bool) Option {
	return func(e *Evaluator) {
		e.strictAssignments = on
	}
}

// WithConventions applies the conventions declared under reg's reserved
// block to the software types it names.
func WithConventions(reg *Conventions) Option {
	return func(e *Evaluator) {
		e.conventions = reg
	}
}

// WithStore persists every file evaluation to s. Files whose content and
// schema are unchanged since the stored evaluation are skipped by
// EvaluateFiles.
func WithStore(s *Store) Option {
	return func(e *Evaluator) {
		e.store = s
	}
}

// WithRuntime supplies the bodies of external pure functions used by Convert.
func WithRuntime(r *Runtime) Option {
	return func(e *Evaluator) {
		e.runtime = r
	}
}

// WithExternals supplies host values for external objects, keyed by the
// object's fully-qualified name.
func WithExternals(values map[string]any) Option {
	return func(e *Evaluator) {
		e.externals = values
	}
}

// WithLogger sets the logger for pipeline stage outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithParallelism bounds the number of files EvaluateFiles evaluates at
// once. Values below one mean the number of CPUs.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		e.parallelism = n
	}
}

// New creates an Evaluator for s. A nil schema is accepted; every
// evaluation then reports NoSchemaAvailable.
func New(s *Schema, opts ...Option) *Evaluator {
	e := &Evaluator{
		schema:          s,
		strictReceivers: true,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallelism < 1 {
		e.parallelism = runtime.NumCPU()
	}
	if s != nil {
		e.fingerprint = s.Fingerprint()
	}
	return e
}

// Schema returns the schema scripts are resolved against.
func (e *Evaluator) Schema() *Schema {
	return e.schema
}

// Store returns the configured store, or nil.
func (e *Evaluator) Store() *Store {
	return e.store
}

// Evaluate runs the pipeline over one script. Script problems never produce
// an error; they are reported through the returned Evaluation. The error is
// non-nil only when ctx is done.
func (e *Evaluator) Evaluate(ctx context.Context, path string, src []byte) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev := &Evaluation{Path: path, Status: Evaluated}
	if e.schema == nil {
		ev.notEvaluated(NoSchemaAvailable)
		e.logger.Debug("evaluate: no schema", "path", path)
		return ev, nil
	}
	ev.Hash = store.ComputeContentHash(src, e.fingerprint)

	tree, err := langtree.Parse(ctx, path, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		ev.ParseErr = err
		ev.notEvaluated(NoParseResult)
		e.logger.Debug("evaluate: parse failed", "path", path, "error", err)
		return ev, nil
	}
	ev.Tree = tree
	if tree.HasFailures() {
		ev.notEvaluated(FailuresInLanguageTree)
	}

	res := resolve.ResolveTree(e.schema, tree,
		resolve.WithStrictReceiverChecks(e.strictReceivers),
		resolve.WithStrictAssignments(e.strictAssignments),
	)
	res = convention.Apply(res, e.conventions)
	ev.Resolution = res
	if res.HasErrors() {
		ev.notEvaluated(FailuresInResolution)
	}

	tr := trace.Trace(res)
	ev.Trace = tr
	if !tr.OK() {
		ev.notEvaluated(UnassignedValuesUsed)
	}
	if tr.Cycle == nil {
		ev.TopLevel, ev.Unassigned = objects.ReflectTopLevel(e.schema, res, tr)
		if len(ev.Unassigned) > 0 {
			ev.notEvaluated(UnassignedValuesUsed)
		}
	}
	ev.Document = document.Build(tree, res, tr)

	e.logger.Debug("evaluate",
		"path", path,
		"status", ev.Status.String(),
		"reason", ev.Reason.String(),
		"failures", len(tree.Failures),
		"errors", len(res.Errors),
		"assignments", len(res.Assignments),
		"additions", len(res.Additions),
	)
	return ev, nil
}

// EvaluateFile reads and evaluates the script at path, persisting the
// result when a store is configured.
func (e *Evaluator) EvaluateFile(ctx context.Context, path string) (*Evaluation, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("notation: read %s: %w", path, err)
	}
	ev, err := e.Evaluate(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if e.store != nil {
		if _, err := e.store.SaveEvaluation(ev.storeEvaluation()); err != nil {
			return nil, fmt.Errorf("notation: %w", err)
		}
	}
	return ev, nil
}

// Query returns a QueryBuilder over the configured store. It fails when the
// Evaluator has no store.
func (e *Evaluator) Query() (*QueryBuilder, error) {
	if e.store == nil {
		return nil, fmt.Errorf("notation: query: no store configured")
	}
	return &QueryBuilder{store: e.store}, nil
}
