package langtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseScript(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Parse(context.Background(), "test.kts", []byte(src))
	require.NoError(t, err)
	return res
}

func literalValue(t *testing.T, e Expr) any {
	t.Helper()
	lit, ok := e.(*Literal)
	require.True(t, ok, "expected literal, got %T", e)
	return lit.Value
}

// =============================================================================
// Accepted statements
// =============================================================================

func TestParse_EndToEndScript(t *testing.T) {
	t.Parallel()
	res := parseScript(t, `import com.example.newD

val myB = b()
a = myB
c(1) {
    x = 2
    d = newD("one")
}
c(id = 3) {
    y = f("s")
}
`)
	require.Empty(t, res.Failures)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "com.example.newD", res.Imports[0].FqName())

	stmts := res.TopLevel.Statements
	require.Len(t, stmts, 4)

	local, ok := stmts[0].(*LocalValue)
	require.True(t, ok)
	assert.Equal(t, "myB", local.Name)
	call, ok := local.RHS.(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "b", call.Name)
	assert.Nil(t, call.Receiver)
	assert.Empty(t, call.Args)
	assert.Nil(t, call.Block)

	assign, ok := stmts[1].(*Assignment)
	require.True(t, ok)
	assert.Equal(t, "a", assign.LHS.Name)
	assert.Equal(t, "myB", assign.RHS.(*PropertyAccess).Name)

	first, ok := stmts[2].(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "c", first.Name)
	require.Len(t, first.Args, 1)
	assert.Empty(t, first.Args[0].Name)
	assert.Equal(t, int32(1), literalValue(t, first.Args[0].Value))
	require.NotNil(t, first.Block)
	require.Len(t, first.Block.Statements, 2)
	inner := first.Block.Statements[1].(*Assignment)
	assert.Equal(t, "d", inner.LHS.Name)
	newD := inner.RHS.(*FunctionCall)
	assert.Equal(t, "newD", newD.Name)
	assert.Equal(t, "one", literalValue(t, newD.Args[0].Value))

	second := stmts[3].(*FunctionCall)
	require.Len(t, second.Args, 1)
	assert.Equal(t, "id", second.Args[0].Name)
	assert.Equal(t, int32(3), literalValue(t, second.Args[0].Value))
}

func TestParse_SourcePositions(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "a = 1\n  b = 2\n")
	require.Len(t, res.TopLevel.Statements, 2)
	src := res.TopLevel.Statements[1].Source()
	assert.Equal(t, "test.kts", src.Path)
	assert.Equal(t, 2, src.Line)
	assert.Equal(t, 3, src.Column)
	assert.Equal(t, "b = 2", src.Text)
}

func TestParse_DottedAccess(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "settings.level = com.example.util.sharedD.id\nsettings.configure(1)\n")
	require.Empty(t, res.Failures)
	require.Len(t, res.TopLevel.Statements, 2)

	assign := res.TopLevel.Statements[0].(*Assignment)
	lhs, ok := ChainSegments(assign.LHS)
	require.True(t, ok)
	assert.Equal(t, []string{"settings", "level"}, lhs)
	rhs, ok := ChainSegments(assign.RHS)
	require.True(t, ok)
	assert.Equal(t, []string{"com", "example", "util", "sharedD", "id"}, rhs)

	call := res.TopLevel.Statements[1].(*FunctionCall)
	assert.Equal(t, "configure", call.Name)
	recv, ok := ChainSegments(call.Receiver)
	require.True(t, ok)
	assert.Equal(t, []string{"settings"}, recv)
}

func TestParse_Literals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		kind LiteralKind
		want any
	}{
		{"x = 42", IntLiteral, int32(42)},
		{"x = -7", IntLiteral, int32(-7)},
		{"x = 1_000", IntLiteral, int32(1000)},
		{"x = 0x1F", IntLiteral, int32(31)},
		{"x = 3000000000", LongLiteral, int64(3000000000)},
		{"x = 5L", LongLiteral, int64(5)},
		{"x = true", BooleanLiteral, true},
		{`x = "a\tb\"c"`, StringLiteral, "a\tb\"c"},
		{`x = "A"`, StringLiteral, "A"},
		{`x = ""`, StringLiteral, ""},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			res := parseScript(t, tt.src+"\n")
			require.Empty(t, res.Failures)
			require.Len(t, res.TopLevel.Statements, 1)
			lit, ok := res.TopLevel.Statements[0].(*Assignment).RHS.(*Literal)
			require.True(t, ok)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestParse_Null(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "x = null\n")
	require.Empty(t, res.Failures)
	_, ok := res.TopLevel.Statements[0].(*Assignment).RHS.(*Null)
	assert.True(t, ok)
}

// =============================================================================
// Rejected constructs
// =============================================================================

func TestParse_RejectedConstructs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want Construct
	}{
		{"package header", "package com.example", PackageHeader},
		{"star import", "import a.*", StarImport},
		{"renaming import", "import a as b", RenamingImport},
		{"local var", "var x = 0", LocalVarNotSupported},
		{"indexed assignment", "a[b] = 1", IndexedAssignment},
		{"class declaration", "class A", TypeDeclaration},
		{"explicit type", "val x: Int = 1", ExplicitVariableType},
		{"augmenting assignment", "x += 1", AugmentingAssignment},
		{"function declaration", "fun f() {}", FunctionDeclaration},
		{"destructuring", "val (p, q) = pair", DestructuringDeclaration},
		{"safe navigation", "x = a?.b", SafeNavigation},
		{"call chain", "x = f().g", CallChainElement},
		{"string template", `x = "v=$v"`, StringTemplate},
		{"real literal", "x = 1.5", UnsupportedLiteral},
		{"binary operator", "x = 1 + 2", UnsupportedOperator},
		{"this", "this.x = 1", ThisReference},
		{"lambda parameters", "c(1) { it -> }", LambdaParameters},
		{"control flow", "x = if (a) 1 else 2", ControlFlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := parseScript(t, tt.src+"\ny = 2\n")
			require.Len(t, res.Failures, 1, "%v", res.Failures)
			f := res.Failures[0]
			assert.Equal(t, UnsupportedConstruct, f.Kind)
			assert.Equal(t, tt.want, f.Construct)
			assert.Equal(t, 1, f.Src.Line)

			require.Len(t, res.TopLevel.Statements, 1, "the following statement still parses")
			assign := res.TopLevel.Statements[0].(*Assignment)
			assert.Equal(t, "y", assign.LHS.Name)
		})
	}
}

func TestParse_FailureInsideBlockKeepsCall(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "c(1) {\n    var z = 2\n    x = 3\n}\n")
	require.Len(t, res.Failures, 1)
	assert.Equal(t, LocalVarNotSupported, res.Failures[0].Construct)
	assert.Equal(t, 2, res.Failures[0].Src.Line)

	require.Len(t, res.TopLevel.Statements, 1)
	call := res.TopLevel.Statements[0].(*FunctionCall)
	require.NotNil(t, call.Block)
	require.Len(t, call.Block.Statements, 1)
	assert.Equal(t, "x", call.Block.Statements[0].(*Assignment).LHS.Name)
}

func TestParse_CallWithArgumentsAndBlock(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "c(1) { x = 1 }\nsettings.nested(2) {\n    y = 3\n}\n")
	require.Empty(t, res.Failures, "%v", res.Failures)
	require.Len(t, res.TopLevel.Statements, 2)

	call, ok := res.TopLevel.Statements[0].(*FunctionCall)
	require.True(t, ok, "got %T", res.TopLevel.Statements[0])
	assert.Equal(t, "c", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, int32(1), literalValue(t, call.Args[0].Value))
	require.NotNil(t, call.Block)
	require.Len(t, call.Block.Statements, 1)
	assert.Equal(t, "x", call.Block.Statements[0].(*Assignment).LHS.Name)
	assert.Equal(t, 1, call.Src.Line)
	assert.Equal(t, 1, call.Src.Column)

	nested := res.TopLevel.Statements[1].(*FunctionCall)
	assert.Equal(t, "nested", nested.Name)
	require.NotNil(t, nested.Receiver)
	require.Len(t, nested.Args, 1)
	require.NotNil(t, nested.Block)
	assert.Len(t, nested.Block.Statements, 1)
}

func TestParse_CallChainAfterArguments(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "x = f(1)(2)\ny = 2\n")
	require.Len(t, res.Failures, 1, "%v", res.Failures)
	assert.Equal(t, CallChainElement, res.Failures[0].Construct)
	require.Len(t, res.TopLevel.Statements, 1)
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()
	res := parseScript(t, "x = (1\ny = 2\n")
	require.NotEmpty(t, res.Failures)
	assert.Equal(t, ParsingError, res.Failures[0].Kind)
	assert.Contains(t, res.Failures[0].Error(), "parsing error")
}

func TestFailure_Error(t *testing.T) {
	t.Parallel()
	f := Failure{Kind: UnsupportedConstruct, Construct: StarImport, Src: SourceData{Path: "s.kts", Line: 3, Column: 1}}
	assert.Equal(t, "s.kts:3:1: unsupported construct: star import", f.Error())
}
