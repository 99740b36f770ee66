package objects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/schemabuild"
	"github.com/jward/notation/internal/trace"
)

func reflectScript(t *testing.T, s *schema.AnalysisSchema, src string) (*DataObjectReflection, []Unassigned) {
	t.Helper()
	tree, err := langtree.Parse(context.Background(), "test.kts", []byte(src))
	require.NoError(t, err)
	require.Empty(t, tree.Failures)
	res := resolve.ResolveTree(s, tree)
	require.Empty(t, res.Errors)
	tr := trace.Trace(res)
	require.True(t, tr.OK())
	return ReflectTopLevel(s, res, tr)
}

func constant(t *testing.T, r ObjectReflection) *ConstantValue {
	t.Helper()
	c, ok := r.(*ConstantValue)
	require.True(t, ok, "expected constant, got %T", r)
	return c
}

// defaultsSchema has a top-level type with one property per builtin
// constant type, each with a default, plus properties without defaults.
func defaultsSchema() *schema.AnalysisSchema {
	const top schema.TypeRef = "test.Top"
	const nested schema.TypeRef = "test.Nested"
	const opaque schema.TypeRef = "test.Opaque"
	prop := func(owner schema.TypeRef, name string, t schema.TypeRef, def bool) *schema.DataProperty {
		return &schema.DataProperty{Owner: owner, Name: name, Type: t, HasDefaultValue: def}
	}
	return &schema.AnalysisSchema{
		TopLevelReceiverType: top,
		DataClasses: map[schema.TypeRef]*schema.DataClass{
			top: {
				Name: top,
				Properties: []*schema.DataProperty{
					prop(top, "i", schema.IntType, true),
					prop(top, "l", schema.LongType, true),
					prop(top, "s", schema.StringType, true),
					prop(top, "b", schema.BooleanType, true),
					prop(top, "n", schema.IntType, false),
					prop(top, "m", schema.IntType, false),
					prop(top, "nested", nested, true),
					prop(top, "opaque", opaque, true),
				},
			},
			nested: {
				Name:                 nested,
				DefaultConstructible: true,
				Properties:           []*schema.DataProperty{prop(nested, "depth", schema.IntType, true)},
			},
			opaque: {Name: opaque},
		},
	}
}

// =============================================================================
// Defaults
// =============================================================================

func TestReflect_DefaultFallback(t *testing.T) {
	t.Parallel()
	top, unassigned := reflectScript(t, defaultsSchema(), "")
	assert.Empty(t, unassigned)

	assert.Equal(t, int32(0), constant(t, top.Properties["i"]).Value)
	assert.Equal(t, int64(0), constant(t, top.Properties["l"]).Value)
	assert.Equal(t, "", constant(t, top.Properties["s"]).Value)
	assert.Equal(t, false, constant(t, top.Properties["b"]).Value)
	assert.True(t, constant(t, top.Properties["i"]).IsDefault)

	_, ok := top.Property("n")
	assert.False(t, ok, "no assignment and no default")

	nested, ok := top.Properties["nested"].(*DataObjectReflection)
	require.True(t, ok)
	assert.True(t, nested.IsDefault)
	assert.Equal(t, int32(0), constant(t, nested.Properties["depth"]).Value)

	_, ok = top.Property("opaque")
	assert.False(t, ok, "default of a type that is not default-constructible")

	assert.Equal(t, []string{"i", "l", "s", "b", "nested"}, top.PropertyNames())
}

func TestReflect_AssignmentOverridesDefault(t *testing.T) {
	t.Parallel()
	top, unassigned := reflectScript(t, defaultsSchema(), "i = 4\nn = i\nnested.depth = 2\n")
	assert.Empty(t, unassigned)
	assert.Equal(t, int32(4), constant(t, top.Properties["i"]).Value)
	assert.Equal(t, int32(4), constant(t, top.Properties["n"]).Value)
	nested := top.Properties["nested"].(*DataObjectReflection)
	assert.Equal(t, int32(2), constant(t, nested.Properties["depth"]).Value)
}

func TestReflect_UnassignedValueUsed(t *testing.T) {
	t.Parallel()
	top, unassigned := reflectScript(t, defaultsSchema(), "n = m\n")
	require.Len(t, unassigned, 1)
	assert.Equal(t, "top#m", unassigned[0].Slot)
	_, ok := top.Property("n")
	assert.False(t, ok)
}

func TestReflect_ChainToDefault(t *testing.T) {
	t.Parallel()
	top, unassigned := reflectScript(t, defaultsSchema(), "n = i\n")
	assert.Empty(t, unassigned)
	c := constant(t, top.Properties["n"])
	assert.Equal(t, int32(0), c.Value)
	assert.True(t, c.IsDefault)
}

// =============================================================================
// Demo schema
// =============================================================================

const demoScript = `val myB = b()
a = myB
val myD = newD("shared")
c(1) { x = f(y); d = myD }
c(2) { x = f("another test"); d = myD }
`

func TestReflect_DemoScenario(t *testing.T) {
	t.Parallel()
	top, unassigned := reflectScript(t, schemabuild.DemoSchema(), demoScript)
	assert.Empty(t, unassigned)
	assert.Equal(t, int64(0), top.Identity)

	a, ok := top.Properties["a"].(*PureFunctionInvocation)
	require.True(t, ok)
	assert.Equal(t, "b", a.Function.Name)
	require.NotNil(t, a.Result)
	assert.Equal(t, schemabuild.DemoB, a.Result.Type)

	assert.True(t, constant(t, top.Properties["version"]).IsDefault)
	settings, ok := top.Properties["settings"].(*DataObjectReflection)
	require.True(t, ok)
	assert.Equal(t, false, constant(t, settings.Properties["verbose"]).Value)

	require.Len(t, top.AddedObjects, 2)
	first := top.AddedObjects[0].(*DataObjectReflection)
	second := top.AddedObjects[1].(*DataObjectReflection)
	assert.NotEqual(t, first.Identity, second.Identity)
	assert.Equal(t, int32(1), constant(t, first.Properties["id"]).Value)
	assert.Equal(t, int32(2), constant(t, second.Properties["id"]).Value)

	f1 := first.Properties["x"].(*PureFunctionInvocation)
	assert.Same(t, first, f1.Receiver, "receiver is the object being configured")
	assert.Equal(t, "", constant(t, f1.Args["y"]).Value)
	f2 := second.Properties["x"].(*PureFunctionInvocation)
	assert.Equal(t, "another test", constant(t, f2.Args["y"]).Value)

	assert.Same(t, first.Properties["d"], second.Properties["d"], "one newD invocation shared by both objects")
}

func TestReflect_Null(t *testing.T) {
	t.Parallel()
	top, _ := reflectScript(t, schemabuild.DemoSchema(), "a = null\n")
	assert.IsType(t, &Null{}, top.Properties["a"])
	assert.Equal(t, schema.NullType, top.Properties["a"].ReflectedType())
}

func TestReflect_Memoized(t *testing.T) {
	t.Parallel()
	s := schemabuild.DemoSchema()
	tree, err := langtree.Parse(context.Background(), "test.kts", []byte(demoScript))
	require.NoError(t, err)
	res := resolve.ResolveTree(s, tree)
	tr := trace.Trace(res)

	c := NewContext(s, tr, res.NextInvocationID)
	inv := res.Additions[0].DataObject
	assert.Same(t, c.Reflect(inv), c.Reflect(inv))
	assert.Same(t, c.Reflect(res.TopLevelReceiver), c.Reflect(res.TopLevelReceiver))
}
