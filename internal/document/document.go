// Package document presents a resolved script as a tree of element,
// property and value nodes, each carrying either its resolution or the
// reasons it did not resolve. It is the view IDE-like tooling consumes.
package document

import (
	"strings"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/trace"
)

// Node is one entry of a document's content.
type Node interface {
	Source() langtree.SourceData
	isNode()
}

// ElementResolution is the resolution of a call statement.
type ElementResolution struct {
	Function *schema.Function    `json:"-"`
	Type     schema.TypeRef      `json:"type,omitempty"`
	Reasons  []NotResolvedReason `json:"reasons,omitempty"`
}

// Resolved reports whether the element resolved.
func (r ElementResolution) Resolved() bool { return r.Function != nil && len(r.Reasons) == 0 }

// PropertyResolution is the resolution of an assignment target.
type PropertyResolution struct {
	Property *schema.DataProperty `json:"-"`
	Receiver schema.TypeRef       `json:"receiver,omitempty"`
	Reasons  []NotResolvedReason  `json:"reasons,omitempty"`
}

// Resolved reports whether the property resolved.
func (r PropertyResolution) Resolved() bool { return r.Property != nil && len(r.Reasons) == 0 }

// ValueNodeResolution is the resolution of a value expression.
type ValueNodeResolution struct {
	Type     schema.TypeRef      `json:"type,omitempty"`
	Function *schema.Function    `json:"-"`
	Reasons  []NotResolvedReason `json:"reasons,omitempty"`
}

// Resolved reports whether the value resolved.
func (r ValueNodeResolution) Resolved() bool { return r.Type != "" && len(r.Reasons) == 0 }

// ElementNode is a call statement, with the statements of its block as
// content.
type ElementNode struct {
	Name       string              `json:"name"`
	Args       []*ValueNode        `json:"args,omitempty"`
	Content    []Node              `json:"content,omitempty"`
	Resolution ElementResolution   `json:"resolution"`
	Src        langtree.SourceData `json:"-"`
}

// PropertyNode is an assignment.
type PropertyNode struct {
	Name       string              `json:"name"`
	Value      *ValueNode          `json:"value"`
	Resolution PropertyResolution  `json:"resolution"`
	Src        langtree.SourceData `json:"-"`
}

// LocalValueNode is a local value declaration.
type LocalValueNode struct {
	Name  string              `json:"name"`
	Value *ValueNode          `json:"value"`
	Src   langtree.SourceData `json:"-"`
}

// ValueKind distinguishes value nodes.
type ValueKind uint8

const (
	LiteralValue ValueKind = iota
	NullValue
	NamedReference
	ValueFactory
)

var valueKindNames = [...]string{
	LiteralValue:   "literal",
	NullValue:      "null",
	NamedReference: "reference",
	ValueFactory:   "factory",
}

func (k ValueKind) String() string { return valueKindNames[k] }

// MarshalText renders the kind by name in JSON output.
func (k ValueKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ValueNode is a value expression. Name is the dotted reference or factory
// name; Value is set for literals.
type ValueNode struct {
	Kind       ValueKind           `json:"kind"`
	Name       string              `json:"name,omitempty"`
	Value      any                 `json:"value,omitempty"`
	Args       []*ValueNode        `json:"args,omitempty"`
	Resolution ValueNodeResolution `json:"resolution"`
	Src        langtree.SourceData `json:"-"`
}

// ErrorKind classifies error nodes.
type ErrorKind uint8

const (
	SyntaxError ErrorKind = iota
	UnsupportedSyntax
	DanglingExpression
)

var errorKindNames = [...]string{
	SyntaxError:        "syntax error",
	UnsupportedSyntax:  "unsupported syntax",
	DanglingExpression: "dangling expression",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// MarshalText renders the kind by name in JSON output.
func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrorNode stands for a statement that is not part of the document.
type ErrorNode struct {
	Kind      ErrorKind           `json:"kind"`
	Construct langtree.Construct  `json:"-"`
	Text      string              `json:"text"`
	Src       langtree.SourceData `json:"-"`
}

func (n *ElementNode) Source() langtree.SourceData    { return n.Src }
func (n *PropertyNode) Source() langtree.SourceData   { return n.Src }
func (n *LocalValueNode) Source() langtree.SourceData { return n.Src }
func (n *ValueNode) Source() langtree.SourceData      { return n.Src }
func (n *ErrorNode) Source() langtree.SourceData      { return n.Src }

func (*ElementNode) isNode()    {}
func (*PropertyNode) isNode()   {}
func (*LocalValueNode) isNode() {}
func (*ErrorNode) isNode()      {}

// Document is the document view of one script. Language tree failures are
// listed in Errors since rejected statements have no place in Content.
type Document struct {
	Path         string                    `json:"path"`
	Imports      []string                  `json:"imports,omitempty"`
	ImportErrors []resolve.ResolutionError `json:"-"`
	Content      []Node                    `json:"content"`
	Errors       []*ErrorNode              `json:"errors,omitempty"`
}

// Build assembles the document of a resolved script. tr may be nil when
// the assignments were not traced.
func Build(tree *langtree.Result, res *resolve.Result, tr *trace.AssignmentTrace) *Document {
	b := &builder{res: res, traced: map[langtree.Node][]NotResolvedReason{}}
	if tr != nil {
		for _, e := range tr.Errors {
			if e.Element != nil {
				b.traced[e.Element] = append(b.traced[e.Element], ReasonForTrace(e.Result))
			}
		}
	}

	doc := &Document{Path: tree.Path}
	for _, imp := range tree.Imports {
		doc.Imports = append(doc.Imports, imp.FqName())
	}
	for _, e := range res.Errors {
		if e.Reason == resolve.AmbiguousImport {
			doc.ImportErrors = append(doc.ImportErrors, e)
		}
	}
	for _, f := range tree.Failures {
		kind := UnsupportedSyntax
		if f.Kind == langtree.ParsingError {
			kind = SyntaxError
		}
		doc.Errors = append(doc.Errors, &ErrorNode{Kind: kind, Construct: f.Construct, Text: f.Src.Text, Src: f.Src})
	}
	doc.Content = b.block(tree.TopLevel)
	return doc
}

type builder struct {
	res    *resolve.Result
	traced map[langtree.Node][]NotResolvedReason
}

func (b *builder) block(blk *langtree.Block) []Node {
	if blk == nil {
		return nil
	}
	out := make([]Node, 0, len(blk.Statements))
	for _, st := range blk.Statements {
		out = append(out, b.statement(st))
	}
	return out
}

func (b *builder) statement(st langtree.Statement) Node {
	switch st := st.(type) {
	case *langtree.Assignment:
		return b.property(st)
	case *langtree.LocalValue:
		return &LocalValueNode{Name: st.Name, Value: b.value(st.RHS), Src: st.Src}
	case *langtree.FunctionCall:
		if b.dangling(st) {
			return &ErrorNode{Kind: DanglingExpression, Text: st.Src.Text, Src: st.Src}
		}
		return b.element(st)
	}
	return &ErrorNode{Kind: DanglingExpression, Text: st.Source().Text, Src: st.Source()}
}

func (b *builder) dangling(n langtree.Node) bool {
	for _, e := range b.res.ErrorsFor(n) {
		if e.Reason == resolve.DanglingPureExpression {
			return true
		}
	}
	return false
}

// reasons maps the errors recorded on n.
func (b *builder) reasons(n langtree.Node) []NotResolvedReason {
	var out []NotResolvedReason
	for _, e := range b.res.ErrorsFor(n) {
		if e.Reason == resolve.DanglingPureExpression || e.Reason == resolve.AmbiguousImport {
			continue
		}
		out = append(out, ReasonFor(e.Reason))
	}
	return out
}

func (b *builder) element(c *langtree.FunctionCall) *ElementNode {
	n := &ElementNode{Name: callName(c), Src: c.Src}
	for _, a := range c.Args {
		n.Args = append(n.Args, b.value(a.Value))
	}
	fn := b.res.Functions[c]
	n.Resolution = ElementResolution{Function: fn, Reasons: b.reasons(c)}
	if fn != nil {
		n.Resolution.Type = fn.ReturnType()
	} else if len(n.Resolution.Reasons) == 0 {
		n.Resolution.Reasons = []NotResolvedReason{UnresolvedBase}
	}
	n.Content = b.block(c.Block)
	return n
}

func (b *builder) property(a *langtree.Assignment) *PropertyNode {
	n := &PropertyNode{Name: dotted(a.LHS), Value: b.value(a.RHS), Src: a.Src}
	reasons := append(b.reasons(a), b.reasons(a.LHS)...)
	reasons = append(reasons, b.traced[a]...)
	prop := b.res.Targets[a]
	if prop == nil && len(reasons) == 0 {
		reasons = []NotResolvedReason{UnresolvedBase}
		if !n.Value.Resolution.Resolved() {
			reasons = []NotResolvedReason{UnresolvedValueUsed}
		}
	}
	n.Resolution = PropertyResolution{Property: prop, Reasons: reasons}
	if prop != nil {
		n.Resolution.Receiver = prop.Owner
	}
	return n
}

func (b *builder) value(e langtree.Expr) *ValueNode {
	n := &ValueNode{Src: e.Source()}
	switch e := e.(type) {
	case *langtree.Literal:
		n.Kind, n.Value = LiteralValue, e.Value
	case *langtree.Null:
		n.Kind = NullValue
	case *langtree.PropertyAccess:
		n.Kind, n.Name = NamedReference, dotted(e)
	case *langtree.FunctionCall:
		n.Kind, n.Name = ValueFactory, callName(e)
		for _, a := range e.Args {
			n.Args = append(n.Args, b.value(a.Value))
		}
		n.Resolution.Function = b.res.Functions[e]
	}
	n.Resolution.Reasons = b.reasons(e)
	if o, ok := b.res.Values[e]; ok {
		n.Resolution.Type = resolve.TypeOf(o)
	} else if len(n.Resolution.Reasons) == 0 {
		n.Resolution.Reasons = []NotResolvedReason{UnresolvedBase}
	}
	return n
}

func dotted(pa *langtree.PropertyAccess) string {
	if segs, ok := langtree.ChainSegments(pa); ok {
		return strings.Join(segs, ".")
	}
	return pa.Name
}

func callName(c *langtree.FunctionCall) string {
	if segs, ok := langtree.ChainSegments(c.Receiver); ok {
		return strings.Join(segs, ".") + "." + c.Name
	}
	return c.Name
}
