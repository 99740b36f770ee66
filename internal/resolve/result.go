package resolve

import (
	"fmt"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/schema"
)

// ErrorReason classifies a script resolution error.
type ErrorReason uint8

const (
	AmbiguousImport ErrorReason = iota
	UnresolvedReference
	AmbiguousFunctions
	UnresolvedFunctionCallSignature
	UnresolvedFunctionCallReceiver
	MissingConfigureLambda
	UnusedConfigureLambda
	ReadOnlyPropertyAssignment
	AssignmentTypeMismatch
	UnitAssignment
	ValReassignment
	ExternalReassignment
	DanglingPureExpression
	DuplicateAssignment
	CrossScopeAccess
)

var errorReasonNames = [...]string{
	AmbiguousImport:                 "ambiguous import",
	UnresolvedReference:             "unresolved reference",
	AmbiguousFunctions:              "ambiguous functions",
	UnresolvedFunctionCallSignature: "no function matches the call signature",
	UnresolvedFunctionCallReceiver:  "unresolved function call receiver",
	MissingConfigureLambda:          "missing configuring block",
	UnusedConfigureLambda:           "unused configuring block",
	ReadOnlyPropertyAssignment:      "assignment to read-only property",
	AssignmentTypeMismatch:          "assignment type mismatch",
	UnitAssignment:                  "assignment of a Unit value",
	ValReassignment:                 "reassignment of a local value",
	ExternalReassignment:            "reassignment of an external object",
	DanglingPureExpression:          "dangling pure expression",
	DuplicateAssignment:             "duplicate assignment",
	CrossScopeAccess:                "access to an outer scope receiver",
}

func (r ErrorReason) String() string { return errorReasonNames[r] }

// ResolutionError is a non-fatal error attached to the script element it
// concerns.
type ResolutionError struct {
	Element langtree.Node
	Reason  ErrorReason
	Detail  string
}

func (e ResolutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Element.Source(), e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// AssignmentRecord is one resolved property assignment. Builder calls and
// stored adding-function arguments produce records too.
type AssignmentRecord struct {
	LHS     PropertyReferenceResolution
	RHS     ObjectOrigin
	Element langtree.Node
}

// DataAdditionRecord records an object added to a container.
type DataAdditionRecord struct {
	Container  ObjectOrigin
	DataObject *FunctionInvocation
}

// NestedObjectAccessRecord records a configuring block entered on a
// property of a container.
type NestedObjectAccessRecord struct {
	Container  ObjectOrigin
	DataObject *ConfigureReceiver
}

// Result is the outcome of resolving one script.
type Result struct {
	TopLevelReceiver   *TopLevelReceiver
	Assignments        []AssignmentRecord
	Additions          []DataAdditionRecord
	NestedObjectAccess []NestedObjectAccessRecord
	Errors             []ResolutionError

	// Imports maps simple names to fully-qualified names.
	Imports map[string]string
	// Values holds the origin of every successfully resolved expression.
	Values map[langtree.Expr]ObjectOrigin
	// Functions holds the function every resolved call site selected.
	Functions map[*langtree.FunctionCall]*schema.Function
	// Targets holds the property every resolved assignment writes.
	Targets map[*langtree.Assignment]*schema.DataProperty

	// NextInvocationID is one past the largest invocation id in use.
	NextInvocationID int64
}

// HasErrors reports whether any resolution error was recorded.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// ErrorsFor returns the errors attached to element.
func (r *Result) ErrorsFor(element langtree.Node) []ResolutionError {
	var out []ResolutionError
	for _, e := range r.Errors {
		if e.Element == element {
			out = append(out, e)
		}
	}
	return out
}
