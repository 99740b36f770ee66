package schema

import (
	"fmt"
	"strings"
)

// FunctionKind tells where a function is declared.
type FunctionKind uint8

const (
	MemberFunction FunctionKind = iota
	TopLevelFunction
	Constructor
)

var functionKindNames = [...]string{
	MemberFunction:   "member",
	TopLevelFunction: "top-level",
	Constructor:      "constructor",
}

func (k FunctionKind) String() string { return functionKindNames[k] }

// Function is a callable schema function. Parameters exclude a trailing
// configuring lambda: callers supply that as a block.
type Function struct {
	Kind FunctionKind
	// Receiver is the owner of a member function or the type built by a constructor.
	Receiver TypeRef
	// Package is set for top-level functions.
	Package    string
	Name       string
	Parameters []*DataParameter
	Semantics  FunctionSemantics
}

// FqName returns the fully-qualified function name.
func (f *Function) FqName() string {
	switch f.Kind {
	case TopLevelFunction:
		if f.Package == "" {
			return f.Name
		}
		return f.Package + "." + f.Name
	case Constructor:
		return string(f.Receiver)
	default:
		return string(f.Receiver) + "." + f.Name
	}
}

// ReturnType reports the static type of a call to f.
func (f *Function) ReturnType() TypeRef {
	switch s := f.Semantics.(type) {
	case Pure:
		return s.Returns
	case Builder:
		return f.Receiver
	case AddAndConfigure:
		return s.ObjectType
	case AccessAndConfigure:
		if s.ReturnsConfigured {
			return s.Accessor.Type
		}
		return UnitType
	default:
		panic(fmt.Sprintf("schema: function semantics %T not expected here", f.Semantics))
	}
}

func (f *Function) String() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.Name + ": " + p.Type.SimpleName()
	}
	return fmt.Sprintf("%s(%s): %s", f.FqName(), strings.Join(params, ", "), f.ReturnType().SimpleName())
}

// DataParameter is one data (non-lambda) parameter of a function.
type DataParameter struct {
	Name       string
	Type       TypeRef
	HasDefault bool
	Semantics  ParameterSemantics
}

// ParameterSemantics is one of StoreValueInProperty or UnknownParameter.
type ParameterSemantics interface{ isParameterSemantics() }

// StoreValueInProperty means the argument becomes the value of Property on
// the object produced by the call.
type StoreValueInProperty struct{ Property *DataProperty }

// UnknownParameter means the argument is opaque to resolution.
type UnknownParameter struct{}

func (StoreValueInProperty) isParameterSemantics() {}
func (UnknownParameter) isParameterSemantics()     {}

// BlockRequirement tells whether a call accepts a trailing configuring block.
type BlockRequirement uint8

const (
	BlockNotAllowed BlockRequirement = iota
	BlockOptional
	BlockRequired
)

var blockRequirementNames = [...]string{
	BlockNotAllowed: "not allowed",
	BlockOptional:   "optional",
	BlockRequired:   "required",
}

func (b BlockRequirement) String() string { return blockRequirementNames[b] }

// FunctionSemantics is one of Pure, Builder, AddAndConfigure or
// AccessAndConfigure. Every function carries exactly one.
type FunctionSemantics interface {
	isFunctionSemantics()
	Block() BlockRequirement
}

// Pure is an ordinary call returning a value.
type Pure struct{ Returns TypeRef }

// Builder sets exactly one property and returns the configured receiver.
type Builder struct{ Property *DataProperty }

// AddAndConfigure creates a new element, adds it to the receiver and
// optionally configures it with a block.
type AddAndConfigure struct {
	ObjectType       TypeRef
	BlockRequirement BlockRequirement
}

// AccessAndConfigure configures the existing value of Accessor.
type AccessAndConfigure struct {
	Accessor          *DataProperty
	ReturnsConfigured bool
}

func (Pure) isFunctionSemantics()               {}
func (Builder) isFunctionSemantics()            {}
func (AddAndConfigure) isFunctionSemantics()    {}
func (AccessAndConfigure) isFunctionSemantics() {}

func (Pure) Block() BlockRequirement               { return BlockNotAllowed }
func (Builder) Block() BlockRequirement            { return BlockNotAllowed }
func (s AddAndConfigure) Block() BlockRequirement  { return s.BlockRequirement }
func (AccessAndConfigure) Block() BlockRequirement { return BlockRequired }

// SemanticsName returns a short tag for s, used in diagnostics and storage.
func SemanticsName(s FunctionSemantics) string {
	switch s.(type) {
	case Pure:
		return "pure"
	case Builder:
		return "builder"
	case AddAndConfigure:
		return "add-and-configure"
	case AccessAndConfigure:
		return "access-and-configure"
	default:
		panic(fmt.Sprintf("schema: function semantics %T not expected here", s))
	}
}
