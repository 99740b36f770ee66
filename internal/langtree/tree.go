// Package langtree converts parsed Kotlin script syntax into the restricted
// statement tree the resolver understands: property assignments, function
// calls with an optional configuring block, local values and dotted access
// chains. Every other construct is rejected with a named reason.
package langtree

import (
	"fmt"
	"strings"
)

// SourceData locates a node in a script. Line and Column are 1-based.
type SourceData struct {
	Path   string
	Line   int
	Column int
	Text   string
}

func (s SourceData) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Path, s.Line, s.Column)
}

// Node is any element of the language tree.
type Node interface {
	Source() SourceData
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	isExpr()
}

// Statement is a node that may appear directly in a block.
type Statement interface {
	Node
	isStatement()
}

// LiteralKind is the constant type of a Literal.
type LiteralKind uint8

const (
	IntLiteral LiteralKind = iota
	LongLiteral
	StringLiteral
	BooleanLiteral
)

var literalKindNames = [...]string{
	IntLiteral:     "Int",
	LongLiteral:    "Long",
	StringLiteral:  "String",
	BooleanLiteral: "Boolean",
}

func (k LiteralKind) String() string { return literalKindNames[k] }

// Import is an import directive naming a single fully-qualified entity.
type Import struct {
	Segments []string
	Src      SourceData
}

// FqName returns the dotted name.
func (i Import) FqName() string { return strings.Join(i.Segments, ".") }

// Literal is a constant. Value holds an int32, int64, string or bool
// according to Kind.
type Literal struct {
	Kind  LiteralKind
	Value any
	Src   SourceData
}

// Null is the null literal.
type Null struct {
	Src SourceData
}

// PropertyAccess is a name reference, optionally qualified by a receiver.
// A nil Receiver means the name is looked up in the enclosing scopes.
type PropertyAccess struct {
	Receiver Expr
	Name     string
	Src      SourceData
}

// FunctionArgument is a call argument. Name is empty for positional arguments.
type FunctionArgument struct {
	Name  string
	Value Expr
	Src   SourceData
}

// FunctionCall is a call with an optional trailing configuring block.
type FunctionCall struct {
	Receiver Expr
	Name     string
	Args     []FunctionArgument
	Block    *Block
	Src      SourceData
}

// Block is an ordered list of statements: the script body or a configuring lambda.
type Block struct {
	Statements []Statement
	Src        SourceData
}

// Assignment assigns RHS to the property named by LHS.
type Assignment struct {
	LHS *PropertyAccess
	RHS Expr
	Src SourceData
}

// LocalValue is an immutable local declaration without an explicit type.
type LocalValue struct {
	Name string
	RHS  Expr
	Src  SourceData
}

func (n *Literal) Source() SourceData          { return n.Src }
func (n *Null) Source() SourceData             { return n.Src }
func (n *PropertyAccess) Source() SourceData   { return n.Src }
func (n *FunctionCall) Source() SourceData     { return n.Src }
func (n *FunctionArgument) Source() SourceData { return n.Src }
func (n *Block) Source() SourceData            { return n.Src }
func (n *Assignment) Source() SourceData       { return n.Src }
func (n *LocalValue) Source() SourceData       { return n.Src }
func (n *Import) Source() SourceData           { return n.Src }

func (*Literal) isExpr()        {}
func (*Null) isExpr()           {}
func (*PropertyAccess) isExpr() {}
func (*FunctionCall) isExpr()   {}

// Expressions are statements too; the resolver rejects the ones whose value
// is discarded.
func (*Literal) isStatement()        {}
func (*Null) isStatement()           {}
func (*PropertyAccess) isStatement() {}
func (*FunctionCall) isStatement()   {}
func (*Assignment) isStatement()     {}
func (*LocalValue) isStatement()     {}

// Result is the language tree of one script.
type Result struct {
	Path     string
	Imports  []Import
	TopLevel *Block
	Failures []Failure
}

// HasFailures reports whether any part of the script was rejected.
func (r *Result) HasFailures() bool { return len(r.Failures) > 0 }

// ChainSegments returns the names of a dotted chain of receiver-less and
// receiver-qualified property accesses, or false if e is not such a chain.
func ChainSegments(e Expr) ([]string, bool) {
	pa, ok := e.(*PropertyAccess)
	if !ok {
		return nil, false
	}
	if pa.Receiver == nil {
		return []string{pa.Name}, true
	}
	prefix, ok := ChainSegments(pa.Receiver)
	if !ok {
		return nil, false
	}
	return append(prefix, pa.Name), true
}
