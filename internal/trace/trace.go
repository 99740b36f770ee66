package trace

import (
	"errors"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/resolve"
)

// Addition is an added object with its container reduced to a concrete
// object.
type Addition struct {
	Container  resolve.ObjectOrigin
	DataObject *resolve.FunctionInvocation
}

// Error is an assignment or addition the tracer could not record.
type Error struct {
	// Element is the statement that produced the record. It is nil for
	// additions, which are located by Src.
	Element langtree.Node
	Src     langtree.SourceData
	Result  AdditionResult
}

func (e Error) Error() string { return e.Src.String() + ": " + e.Result.String() }

// AssignmentTrace is the traced view of one resolution result.
type AssignmentTrace struct {
	Results map[string]Result
	// Recorded holds the outcome of each assignment record, by index.
	Recorded  []AdditionResult
	Additions []Addition
	Errors    []Error
	// Cycle is set when assignment chains loop; Results is then nil.
	Cycle *CycleError

	resolver *AssignmentResolver
}

// Trace records every assignment of res in order and resolves the chains.
func Trace(res *resolve.Result) *AssignmentTrace {
	r := NewAssignmentResolver()
	t := &AssignmentTrace{resolver: r, Recorded: make([]AdditionResult, len(res.Assignments))}
	for i, rec := range res.Assignments {
		out := r.AddAssignment(rec.LHS, rec.RHS)
		t.Recorded[i] = out
		if out.Failed() {
			t.Errors = append(t.Errors, Error{Element: rec.Element, Src: rec.Element.Source(), Result: out})
		}
	}

	results, err := r.Results()
	var cycle *CycleError
	if errors.As(err, &cycle) {
		t.Cycle = cycle
	}
	t.Results = results

	for _, add := range res.Additions {
		container, ok := r.ReduceObject(add.Container)
		if !ok {
			t.Errors = append(t.Errors, Error{Src: add.DataObject.Src, Result: UnresolvedValueUsedInLhs})
			continue
		}
		t.Additions = append(t.Additions, Addition{Container: container, DataObject: add.DataObject})
	}
	return t
}

// OK reports whether every record was traced and no cycle was found.
func (t *AssignmentTrace) OK() bool { return len(t.Errors) == 0 && t.Cycle == nil }

// ReduceObject resolves a receiver origin against the traced assignments.
func (t *AssignmentTrace) ReduceObject(o resolve.ObjectOrigin) (resolve.ObjectOrigin, bool) {
	return t.resolver.ReduceObject(o)
}

// Lookup returns the traced result for property name of a reduced object.
func (t *AssignmentTrace) Lookup(object resolve.ObjectOrigin, property string) (Result, bool) {
	res, ok := t.Results[SlotKey(resolve.Key(object), property)]
	return res, ok
}

// AddedTo returns the objects added to a reduced container, in source order.
func (t *AssignmentTrace) AddedTo(container resolve.ObjectOrigin) []*resolve.FunctionInvocation {
	key := resolve.Key(container)
	var out []*resolve.FunctionInvocation
	for _, a := range t.Additions {
		if resolve.Key(a.Container) == key {
			out = append(out, a.DataObject)
		}
	}
	return out
}
