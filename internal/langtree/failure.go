package langtree

import "fmt"

// FailureKind distinguishes syntax errors from well-formed but rejected code.
type FailureKind uint8

const (
	ParsingError FailureKind = iota
	UnsupportedConstruct
)

// Construct names a rejected language construct. The set is closed so that
// tooling can render a specific diagnostic for each.
type Construct uint8

const (
	NoConstruct Construct = iota
	PackageHeader
	StarImport
	RenamingImport
	AnnotationUsage
	DeclarationModifiers
	LocalVarNotSupported
	ExplicitVariableType
	UninitializedProperty
	DestructuringDeclaration
	DelegatedProperty
	PropertyAccessors
	IndexedAssignment
	AugmentingAssignment
	TypeDeclaration
	FunctionDeclaration
	CallChainElement
	SafeNavigation
	UnsupportedOperator
	UnsupportedLiteral
	StringTemplate
	LambdaParameters
	ThisReference
	ControlFlow
	UnsupportedExpression
)

var constructNames = [...]string{
	NoConstruct:              "none",
	PackageHeader:            "package header",
	StarImport:               "star import",
	RenamingImport:           "renaming import",
	AnnotationUsage:          "annotation usage",
	DeclarationModifiers:     "declaration modifiers",
	LocalVarNotSupported:     "local var",
	ExplicitVariableType:     "explicit variable type",
	UninitializedProperty:    "uninitialized property",
	DestructuringDeclaration: "destructuring declaration",
	DelegatedProperty:        "delegated property",
	PropertyAccessors:        "property accessors",
	IndexedAssignment:        "indexed assignment",
	AugmentingAssignment:     "augmenting assignment",
	TypeDeclaration:          "type declaration",
	FunctionDeclaration:      "function declaration",
	CallChainElement:         "call chain element",
	SafeNavigation:           "safe navigation",
	UnsupportedOperator:      "unsupported operator",
	UnsupportedLiteral:       "unsupported literal",
	StringTemplate:           "string template",
	LambdaParameters:         "lambda parameters",
	ThisReference:            "this reference",
	ControlFlow:              "control flow",
	UnsupportedExpression:    "unsupported expression",
}

func (c Construct) String() string {
	if int(c) < len(constructNames) {
		return constructNames[c]
	}
	return fmt.Sprintf("Construct(%d)", c)
}

// Failure is a non-fatal, element-level rejection. Construct is NoConstruct
// for parsing errors.
type Failure struct {
	Kind      FailureKind
	Construct Construct
	Src       SourceData
}

func (f Failure) Error() string {
	if f.Kind == ParsingError {
		return fmt.Sprintf("%s: parsing error near %q", f.Src, f.Src.Text)
	}
	return fmt.Sprintf("%s: unsupported construct: %s", f.Src, f.Construct)
}
