package document

import (
	"fmt"

	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/trace"
)

// NotResolvedReason is the reduced, tooling-facing classification of a
// resolution failure.
type NotResolvedReason uint8

const (
	AmbiguousName NotResolvedReason = iota
	BlockMismatch
	UnresolvedSignature
	UnresolvedBase
	UnresolvedName
	ValueTypeMismatch
	NotAssignable
	UnresolvedValueUsed
)

var reasonNames = [...]string{
	AmbiguousName:       "ambiguous name",
	BlockMismatch:       "block mismatch",
	UnresolvedSignature: "unresolved signature",
	UnresolvedBase:      "unresolved base",
	UnresolvedName:      "unresolved name",
	ValueTypeMismatch:   "value type mismatch",
	NotAssignable:       "not assignable",
	UnresolvedValueUsed: "unresolved value used",
}

func (r NotResolvedReason) String() string { return reasonNames[r] }

// MarshalText renders the reason by name in JSON output.
func (r NotResolvedReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ReasonFor reduces a resolver error reason. Import ambiguity and dangling
// expressions are not element resolutions and never reach this mapping.
func ReasonFor(r resolve.ErrorReason) NotResolvedReason {
	switch r {
	case resolve.AmbiguousFunctions:
		return AmbiguousName
	case resolve.MissingConfigureLambda, resolve.UnusedConfigureLambda:
		return BlockMismatch
	case resolve.UnresolvedFunctionCallSignature:
		return UnresolvedSignature
	case resolve.UnresolvedFunctionCallReceiver:
		return UnresolvedBase
	case resolve.UnresolvedReference, resolve.CrossScopeAccess:
		return UnresolvedName
	case resolve.AssignmentTypeMismatch, resolve.UnitAssignment:
		return ValueTypeMismatch
	case resolve.ReadOnlyPropertyAssignment, resolve.ValReassignment,
		resolve.ExternalReassignment, resolve.DuplicateAssignment:
		return NotAssignable
	}
	panic(fmt.Sprintf("document: error reason %q not expected here", r))
}

// ReasonForTrace reduces a failed assignment trace result.
func ReasonForTrace(r trace.AdditionResult) NotResolvedReason {
	switch r {
	case trace.UnresolvedValueUsedInLhs, trace.UnresolvedValueUsedInRhs:
		return UnresolvedValueUsed
	}
	panic(fmt.Sprintf("document: trace result %q not expected here", r))
}
