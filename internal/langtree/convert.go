package langtree

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/notation/internal/runtime"
)

// rejection aborts conversion of the innermost enclosing statement.
type rejection struct {
	kind      FailureKind
	construct Construct
	node      *sitter.Node
}

func (r *rejection) Error() string { return r.construct.String() }

type converter struct {
	path     string
	src      []byte
	failures []Failure
}

// Parse parses and converts one script.
func Parse(ctx context.Context, path string, src []byte) (*Result, error) {
	tree, err := runtime.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return Convert(path, src, tree.RootNode()), nil
}

// Convert builds the language tree from a parsed source_file node. A
// rejected statement yields exactly one failure and is dropped; the
// remaining statements are converted normally.
func Convert(path string, src []byte, root *sitter.Node) *Result {
	c := &converter{path: path, src: src}
	res := &Result{Path: path, TopLevel: &Block{Src: c.sourceOf(root)}}

	for _, n := range flatten(root, "import_list", "statements") {
		switch n.Type() {
		case "package_header":
			c.reject(&rejection{kind: UnsupportedConstruct, construct: PackageHeader, node: n})
		case "import_header":
			if imp, err := c.importHeader(n); err != nil {
				c.reject(err)
			} else {
				res.Imports = append(res.Imports, imp)
			}
		case "file_annotation":
			c.reject(&rejection{kind: UnsupportedConstruct, construct: AnnotationUsage, node: n})
		case "shebang_line":
		default:
			if st := c.statement(n); st != nil {
				res.TopLevel.Statements = append(res.TopLevel.Statements, st)
			}
		}
	}
	res.Failures = c.failures
	return res
}

// flatten returns the named, non-comment children of n, descending into
// wrapper nodes of the given types.
func flatten(n *sitter.Node, wrappers ...string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if isComment(child) {
			continue
		}
		if isOneOf(child.Type(), wrappers) {
			out = append(out, flatten(child, wrappers...)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "multiline_comment":
		return true
	}
	return false
}

func isOneOf(s string, set []string) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func (c *converter) sourceOf(n *sitter.Node) SourceData {
	p := n.StartPoint()
	return SourceData{
		Path:   c.path,
		Line:   int(p.Row) + 1,
		Column: int(p.Column) + 1,
		Text:   n.Content(c.src),
	}
}

func (c *converter) text(n *sitter.Node) string { return n.Content(c.src) }

func (c *converter) reject(err error) {
	r, ok := err.(*rejection)
	if !ok {
		panic("langtree: unexpected conversion error " + err.Error())
	}
	c.failures = append(c.failures, Failure{Kind: r.kind, Construct: r.construct, Src: c.sourceOf(r.node)})
}

func unsupported(construct Construct, n *sitter.Node) error {
	return &rejection{kind: UnsupportedConstruct, construct: construct, node: n}
}

func parsingError(n *sitter.Node) error {
	return &rejection{kind: ParsingError, node: n}
}

// firstErrorNode finds the outermost ERROR or MISSING node below n.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := firstErrorNode(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

func (c *converter) importHeader(n *sitter.Node) (Import, error) {
	if n.HasError() {
		return Import{}, parsingError(n)
	}
	var id *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "identifier":
			id = child
		case "wildcard_import", "*":
			return Import{}, unsupported(StarImport, n)
		case "import_alias", "as":
			return Import{}, unsupported(RenamingImport, n)
		}
	}
	if id == nil {
		return Import{}, parsingError(n)
	}
	segs := c.identifierSegments(id)
	if len(segs) == 0 {
		return Import{}, parsingError(n)
	}
	return Import{Segments: segs, Src: c.sourceOf(n)}, nil
}

func (c *converter) identifierSegments(id *sitter.Node) []string {
	var segs []string
	for i := 0; i < int(id.NamedChildCount()); i++ {
		segs = append(segs, c.name(id.NamedChild(i)))
	}
	return segs
}

// name returns an identifier without backtick quoting.
func (c *converter) name(n *sitter.Node) string {
	return strings.Trim(c.text(n), "`")
}

// statement converts one statement, recording a failure and returning nil
// when it is rejected.
func (c *converter) statement(n *sitter.Node) Statement {
	st, err := c.convertStatement(n)
	if err != nil {
		c.reject(err)
		return nil
	}
	return st
}

func (c *converter) convertStatement(n *sitter.Node) (Statement, error) {
	if n.Type() == "ERROR" {
		return nil, parsingError(n)
	}
	if e := firstErrorNode(n); e != nil {
		return nil, parsingError(n)
	}
	switch n.Type() {
	case "property_declaration":
		return c.propertyDeclaration(n)
	case "assignment":
		return c.assignment(n)
	case "class_declaration", "object_declaration", "interface_declaration", "type_alias", "companion_object":
		return nil, unsupported(TypeDeclaration, n)
	case "function_declaration", "getter", "setter":
		return nil, unsupported(FunctionDeclaration, n)
	case "for_statement", "while_statement", "do_while_statement":
		return nil, unsupported(ControlFlow, n)
	}
	e, err := c.expr(n)
	if err != nil {
		return nil, err
	}
	return e.(Statement), nil
}

func (c *converter) propertyDeclaration(n *sitter.Node) (Statement, error) {
	var (
		nameNode *sitter.Node
		rhs      *sitter.Node
		sawEq    bool
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "modifiers":
			if hasChild(child, "annotation") {
				return nil, unsupported(AnnotationUsage, n)
			}
			return nil, unsupported(DeclarationModifiers, n)
		case "binding_pattern_kind":
			if c.text(child) == "var" {
				return nil, unsupported(LocalVarNotSupported, n)
			}
		case "var":
			return nil, unsupported(LocalVarNotSupported, n)
		case "type_parameters", "type_constraints":
			return nil, unsupported(DeclarationModifiers, n)
		case "multi_variable_declaration":
			return nil, unsupported(DestructuringDeclaration, n)
		case "variable_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				part := child.NamedChild(j)
				switch part.Type() {
				case "simple_identifier":
					nameNode = part
				case "annotation":
					return nil, unsupported(AnnotationUsage, n)
				default:
					return nil, unsupported(ExplicitVariableType, n)
				}
			}
		case "property_delegate":
			return nil, unsupported(DelegatedProperty, n)
		case "getter", "setter":
			return nil, unsupported(PropertyAccessors, n)
		case "=":
			sawEq = true
		default:
			if sawEq && rhs == nil && isValueNode(child) {
				rhs = child
			} else if !sawEq && child.IsNamed() && nameNode == nil && isTypeNode(child) {
				// Extension receiver type before the name.
				return nil, unsupported(DeclarationModifiers, n)
			}
		}
	}
	if nameNode == nil {
		return nil, parsingError(n)
	}
	if rhs == nil {
		return nil, unsupported(UninitializedProperty, n)
	}
	value, err := c.expr(rhs)
	if err != nil {
		return nil, err
	}
	return &LocalValue{Name: c.name(nameNode), RHS: value, Src: c.sourceOf(n)}, nil
}

func isTypeNode(n *sitter.Node) bool {
	switch n.Type() {
	case "user_type", "nullable_type", "function_type", "parenthesized_type":
		return true
	}
	return false
}

// isValueNode reports whether n can be an expression operand. The null
// literal is an anonymous token in the grammar.
func isValueNode(n *sitter.Node) bool {
	return (n.IsNamed() && !isComment(n)) || n.Type() == "null"
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func (c *converter) assignment(n *sitter.Node) (Statement, error) {
	var (
		lhsNode *sitter.Node
		rhsNode *sitter.Node
		op      string
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch {
		case lhsNode == nil && child.IsNamed():
			lhsNode = child
		case op == "" && !child.IsNamed() && child.Type() != "null":
			op = child.Type()
		case op != "" && rhsNode == nil && isValueNode(child):
			rhsNode = child
		}
	}
	if lhsNode == nil || rhsNode == nil {
		return nil, parsingError(n)
	}
	if op != "=" {
		return nil, unsupported(AugmentingAssignment, n)
	}
	lhs, err := c.assignable(lhsNode)
	if err != nil {
		return nil, err
	}
	rhs, err := c.expr(rhsNode)
	if err != nil {
		return nil, err
	}
	return &Assignment{LHS: lhs, RHS: rhs, Src: c.sourceOf(n)}, nil
}

// assignable converts an assignment target, which must be a property access.
func (c *converter) assignable(n *sitter.Node) (*PropertyAccess, error) {
	if n.Type() != "directly_assignable_expression" {
		return c.accessTarget(n)
	}
	named := flatten(n)
	switch {
	case len(named) == 1:
		return c.accessTarget(named[0])
	case len(named) == 2:
		recvNode, suffix := named[0], named[1]
		switch suffix.Type() {
		case "navigation_suffix":
			return c.navigation(n, recvNode, suffix)
		case "indexing_suffix":
			return nil, unsupported(IndexedAssignment, n)
		}
	}
	return nil, unsupported(UnsupportedExpression, n)
}

func (c *converter) accessTarget(n *sitter.Node) (*PropertyAccess, error) {
	switch n.Type() {
	case "indexing_expression":
		return nil, unsupported(IndexedAssignment, n)
	case "this_expression":
		return nil, unsupported(ThisReference, n)
	}
	e, err := c.expr(n)
	if err != nil {
		return nil, err
	}
	pa, ok := e.(*PropertyAccess)
	if !ok {
		return nil, unsupported(UnsupportedExpression, n)
	}
	return pa, nil
}

// navigation converts "receiver.name" where suffix is a navigation_suffix.
func (c *converter) navigation(whole, recvNode, suffix *sitter.Node) (*PropertyAccess, error) {
	op := strings.TrimSpace(c.text(suffix))
	switch {
	case strings.HasPrefix(op, "?"):
		return nil, unsupported(SafeNavigation, whole)
	case strings.HasPrefix(op, "::"):
		return nil, unsupported(UnsupportedExpression, whole)
	}
	var nameNode *sitter.Node
	for i := 0; i < int(suffix.NamedChildCount()); i++ {
		if child := suffix.NamedChild(i); child.Type() == "simple_identifier" {
			nameNode = child
		}
	}
	if nameNode == nil {
		return nil, unsupported(UnsupportedExpression, whole)
	}
	if recvNode.Type() == "call_expression" {
		return nil, unsupported(CallChainElement, whole)
	}
	recv, err := c.expr(recvNode)
	if err != nil {
		return nil, err
	}
	return &PropertyAccess{Receiver: recv, Name: c.name(nameNode), Src: c.sourceOf(whole)}, nil
}

func (c *converter) expr(n *sitter.Node) (Expr, error) {
	switch n.Type() {
	case "simple_identifier":
		return &PropertyAccess{Name: c.name(n), Src: c.sourceOf(n)}, nil
	case "navigation_expression":
		named := flatten(n)
		if len(named) != 2 || named[1].Type() != "navigation_suffix" {
			return nil, unsupported(UnsupportedExpression, n)
		}
		return c.navigation(n, named[0], named[1])
	case "call_expression":
		return c.call(n)
	case "parenthesized_expression":
		named := flatten(n)
		if len(named) != 1 {
			return nil, parsingError(n)
		}
		return c.expr(named[0])
	case "null", "null_literal":
		return &Null{Src: c.sourceOf(n)}, nil
	case "boolean_literal":
		return &Literal{Kind: BooleanLiteral, Value: c.text(n) == "true", Src: c.sourceOf(n)}, nil
	case "integer_literal", "hex_literal", "bin_literal", "long_literal":
		return c.integer(n, n, false)
	case "string_literal", "line_string_literal", "multi_line_string_literal":
		return c.str(n)
	case "prefix_expression":
		return c.prefix(n)
	case "real_literal", "character_literal", "unsigned_literal":
		return nil, unsupported(UnsupportedLiteral, n)
	case "this_expression", "super_expression":
		return nil, unsupported(ThisReference, n)
	case "if_expression", "when_expression", "try_expression", "jump_expression":
		return nil, unsupported(ControlFlow, n)
	case "annotated_expression", "annotation", "annotated_lambda":
		return nil, unsupported(AnnotationUsage, n)
	case "additive_expression", "multiplicative_expression", "comparison_expression",
		"equality_expression", "conjunction_expression", "disjunction_expression",
		"elvis_expression", "infix_expression", "range_expression", "check_expression",
		"as_expression", "postfix_expression", "spread_expression", "indexing_expression":
		return nil, unsupported(UnsupportedOperator, n)
	case "ERROR":
		return nil, parsingError(n)
	}
	return nil, unsupported(UnsupportedExpression, n)
}

func (c *converter) call(n *sitter.Node) (Expr, error) {
	named := flatten(n)
	if len(named) != 2 || named[1].Type() != "call_suffix" {
		return nil, unsupported(UnsupportedExpression, n)
	}
	callee, suffix := named[0], named[1]

	call := &FunctionCall{Src: c.sourceOf(n)}
	switch callee.Type() {
	case "simple_identifier":
		call.Name = c.name(callee)
	case "navigation_expression":
		access, err := c.expr(callee)
		if err != nil {
			return nil, err
		}
		pa := access.(*PropertyAccess)
		call.Receiver, call.Name = pa.Receiver, pa.Name
	case "call_expression":
		// f(args) { ... } nests the arguments call inside the block call.
		parts := flatten(suffix)
		if len(parts) != 1 || (parts[0].Type() != "annotated_lambda" && parts[0].Type() != "lambda_literal") {
			return nil, unsupported(CallChainElement, n)
		}
		inner, err := c.expr(callee)
		if err != nil {
			return nil, err
		}
		innerCall, ok := inner.(*FunctionCall)
		if !ok || innerCall.Block != nil {
			return nil, unsupported(CallChainElement, n)
		}
		var block *Block
		if parts[0].Type() == "annotated_lambda" {
			block, err = c.trailingLambda(parts[0])
		} else {
			block, err = c.lambda(parts[0])
		}
		if err != nil {
			return nil, err
		}
		innerCall.Block = block
		return innerCall, nil
	default:
		return nil, unsupported(UnsupportedExpression, n)
	}

	for _, part := range flatten(suffix) {
		switch part.Type() {
		case "value_arguments":
			args, err := c.arguments(part)
			if err != nil {
				return nil, err
			}
			call.Args = args
		case "annotated_lambda":
			block, err := c.trailingLambda(part)
			if err != nil {
				return nil, err
			}
			call.Block = block
		case "lambda_literal":
			block, err := c.lambda(part)
			if err != nil {
				return nil, err
			}
			call.Block = block
		default:
			// Explicit type arguments.
			return nil, unsupported(UnsupportedExpression, n)
		}
	}
	return call, nil
}

func (c *converter) arguments(n *sitter.Node) ([]FunctionArgument, error) {
	var args []FunctionArgument
	for _, arg := range flatten(n) {
		if arg.Type() != "value_argument" {
			return nil, parsingError(arg)
		}
		var (
			nameNode  *sitter.Node
			valueNode *sitter.Node
			named     bool
		)
		for i := 0; i < int(arg.ChildCount()); i++ {
			child := arg.Child(i)
			switch child.Type() {
			case "annotation":
				return nil, unsupported(AnnotationUsage, arg)
			case "*":
				return nil, unsupported(UnsupportedOperator, arg)
			case "=":
				named = true
			default:
				if isValueNode(child) {
					if nameNode == nil && valueNode == nil {
						valueNode = child
					} else {
						nameNode, valueNode = valueNode, child
					}
				}
			}
		}
		if valueNode == nil || (named && (nameNode == nil || nameNode.Type() != "simple_identifier")) {
			return nil, parsingError(arg)
		}
		value, err := c.expr(valueNode)
		if err != nil {
			return nil, err
		}
		fa := FunctionArgument{Value: value, Src: c.sourceOf(arg)}
		if named {
			fa.Name = c.name(nameNode)
		}
		args = append(args, fa)
	}
	return args, nil
}

func (c *converter) trailingLambda(n *sitter.Node) (*Block, error) {
	for _, part := range flatten(n) {
		switch part.Type() {
		case "lambda_literal":
			return c.lambda(part)
		case "annotation":
			return nil, unsupported(AnnotationUsage, n)
		case "label":
			return nil, unsupported(UnsupportedExpression, n)
		}
	}
	return nil, parsingError(n)
}

// lambda converts a configuring block. Failures of individual statements
// inside it are recorded without rejecting the enclosing call.
func (c *converter) lambda(n *sitter.Node) (*Block, error) {
	if hasChild(n, "lambda_parameters") || hasChild(n, "->") {
		return nil, unsupported(LambdaParameters, n)
	}
	block := &Block{Src: c.sourceOf(n)}
	for _, child := range flatten(n, "statements") {
		if st := c.statement(child); st != nil {
			block.Statements = append(block.Statements, st)
		}
	}
	return block, nil
}

func (c *converter) prefix(n *sitter.Node) (Expr, error) {
	if hasChild(n, "annotation") {
		return nil, unsupported(AnnotationUsage, n)
	}
	if hasChild(n, "label") {
		return nil, unsupported(UnsupportedExpression, n)
	}
	var (
		op      string
		operand *sitter.Node
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if isValueNode(child) {
			operand = child
		} else {
			op += child.Type()
		}
	}
	if operand == nil {
		return nil, parsingError(n)
	}
	switch operand.Type() {
	case "integer_literal", "hex_literal", "bin_literal", "long_literal":
		if op == "-" {
			return c.integer(n, operand, true)
		}
	}
	return nil, unsupported(UnsupportedOperator, n)
}

// integer parses an Int or Long literal. Unsuffixed literals that do not fit
// in an Int are Longs.
func (c *converter) integer(whole, n *sitter.Node, negate bool) (Expr, error) {
	text := strings.ReplaceAll(c.text(n), "_", "")
	long := false
	if strings.HasSuffix(text, "L") {
		long = true
		text = strings.TrimSuffix(text, "L")
	}
	if strings.HasSuffix(text, "u") || strings.HasSuffix(text, "U") {
		return nil, unsupported(UnsupportedLiteral, whole)
	}
	base := 10
	switch lower := strings.ToLower(text); {
	case strings.HasPrefix(lower, "0x"):
		base, text = 16, text[2:]
	case strings.HasPrefix(lower, "0b"):
		base, text = 2, text[2:]
	}
	if negate {
		text = "-" + text
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return nil, unsupported(UnsupportedLiteral, whole)
	}
	src := c.sourceOf(whole)
	if !long && v >= -1<<31 && v < 1<<31 {
		return &Literal{Kind: IntLiteral, Value: int32(v), Src: src}, nil
	}
	return &Literal{Kind: LongLiteral, Value: v, Src: src}, nil
}

func (c *converter) str(n *sitter.Node) (Expr, error) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if strings.Contains(n.NamedChild(i).Type(), "interpolat") {
			return nil, unsupported(StringTemplate, n)
		}
	}
	raw := c.text(n)
	var value string
	if strings.HasPrefix(raw, `"""`) {
		value = strings.TrimSuffix(strings.TrimPrefix(raw, `"""`), `"""`)
		if strings.Contains(value, "$") {
			return nil, unsupported(StringTemplate, n)
		}
	} else {
		v, ok := unescape(strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`))
		if !ok {
			return nil, unsupported(StringTemplate, n)
		}
		value = v
	}
	return &Literal{Kind: StringLiteral, Value: value, Src: c.sourceOf(n)}, nil
}

// unescape decodes Kotlin escape sequences. It returns false on an
// unescaped template marker.
func unescape(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '$' && i+1 < len(s) && (s[i+1] == '{' || isIdentStart(s[i+1])) {
			return "", false
		}
		if ch != '\\' || i+1 == len(s) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					var buf [utf8.UTFMax]byte
					b.Write(buf[:utf8.EncodeRune(buf[:], rune(r))])
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), true
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}
