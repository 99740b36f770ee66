package convention

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/objects"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/schemabuild"
	"github.com/jward/notation/internal/trace"
)

const (
	project     schema.TypeRef = "build.Project"
	conventions schema.TypeRef = "build.Conventions"
	library     schema.TypeRef = "build.Library"
	application schema.TypeRef = "build.Application"
	dependency  schema.TypeRef = "build.Dependency"
)

func configure(receiver schema.TypeRef) schemabuild.ParameterDescriptor {
	return schemabuild.ParameterDescriptor{Name: "configure", Lambda: &schemabuild.LambdaDescriptor{Receiver: receiver}}
}

func accessor(name string, t schema.TypeRef) ([]schemabuild.PropertyDescriptor, []schemabuild.FunctionDescriptor) {
	return []schemabuild.PropertyDescriptor{{Name: name, Type: t, HasDefault: true}},
		[]schemabuild.FunctionDescriptor{{
			Name:        name,
			Parameters:  []schemabuild.ParameterDescriptor{configure(t)},
			Annotations: []schemabuild.Annotation{schemabuild.Configuring},
		}}
}

func buildSchema(t *testing.T) *schema.AnalysisSchema {
	t.Helper()
	var topProps, convProps []schemabuild.PropertyDescriptor
	var topFns, convFns []schemabuild.FunctionDescriptor
	for _, a := range []struct {
		name string
		t    schema.TypeRef
	}{{"conventions", conventions}, {"library", library}, {"application", application}} {
		p, f := accessor(a.name, a.t)
		topProps, topFns = append(topProps, p...), append(topFns, f...)
		if a.name != "conventions" {
			convProps, convFns = append(convProps, p...), append(convFns, f...)
		}
	}
	softwareType := func(name schema.TypeRef) schemabuild.TypeDescriptor {
		return schemabuild.TypeDescriptor{
			Name:                 name,
			DefaultConstructible: true,
			Properties: []schemabuild.PropertyDescriptor{
				{Name: "name", Type: schema.StringType, Mutable: true, HasDefault: true},
				{Name: "version", Type: schema.StringType, Mutable: true, HasDefault: true},
			},
			Functions: []schemabuild.FunctionDescriptor{{
				Name:        "dependency",
				Parameters:  []schemabuild.ParameterDescriptor{{Name: "coordinates", Type: schema.StringType}, configure(dependency)},
				Returns:     dependency,
				Annotations: []schemabuild.Annotation{schemabuild.Adding},
			}},
		}
	}
	s, err := schemabuild.Build(&schemabuild.Table{
		TopLevel: project,
		Types: []schemabuild.TypeDescriptor{
			{Name: project, Properties: topProps, Functions: topFns},
			{Name: conventions, DefaultConstructible: true, Properties: convProps, Functions: convFns},
			softwareType(library),
			softwareType(application),
			{
				Name: dependency,
				Properties: []schemabuild.PropertyDescriptor{
					{Name: "coordinates", Type: schema.StringType, Mutable: true},
					{Name: "optional", Type: schema.BooleanType, Mutable: true, HasDefault: true},
				},
			},
		},
	})
	require.NoError(t, err)
	return s
}

type applied struct {
	schema *schema.AnalysisSchema
	before *resolve.Result
	after  *resolve.Result
}

func applyScript(t *testing.T, src string, reg *Registry) applied {
	t.Helper()
	s := buildSchema(t)
	tree, err := langtree.Parse(context.Background(), "build.kts", []byte(src))
	require.NoError(t, err)
	require.Empty(t, tree.Failures)
	res := resolve.ResolveTree(s, tree)
	require.Empty(t, res.Errors)
	return applied{schema: s, before: res, after: Apply(res, reg)}
}

func (a applied) reflect(t *testing.T) *objects.DataObjectReflection {
	t.Helper()
	tr := trace.Trace(a.after)
	require.True(t, tr.OK(), "%v", tr.Errors)
	top, unassigned := objects.ReflectTopLevel(a.schema, a.after, tr)
	require.Empty(t, unassigned)
	return top
}

func stringProp(t *testing.T, d *objects.DataObjectReflection, name string) string {
	t.Helper()
	v, ok := d.Properties[name].(*objects.ConstantValue)
	require.True(t, ok, "property %s", name)
	return v.Value.(string)
}

var registry = NewRegistry(map[string]string{"library": "library"})

// =============================================================================
// Tests
// =============================================================================

func TestApply_AssignmentsInherited(t *testing.T) {
	t.Parallel()
	a := applyScript(t, `conventions {
    library {
        version = "1.0"
        name = "conventional"
    }
}
library {
    name = "core"
}
`, registry)

	assert.Len(t, a.after.Assignments, len(a.before.Assignments)+2)
	top := a.reflect(t)
	lib := top.Properties["library"].(*objects.DataObjectReflection)
	assert.Equal(t, "1.0", stringProp(t, lib, "version"))
	assert.Equal(t, "core", stringProp(t, lib, "name"), "explicit assignment wins")
}

func TestApply_AdditionsGetFreshObjects(t *testing.T) {
	t.Parallel()
	a := applyScript(t, `conventions {
    library {
        dependency("org.example:base:1") { optional = true }
    }
}
library { }
`, registry)

	require.Len(t, a.after.Additions, 2)
	conv, orig := a.after.Additions[0].DataObject, a.after.Additions[1].DataObject
	assert.NotEqual(t, conv.InvocationID, orig.InvocationID)
	assert.GreaterOrEqual(t, conv.InvocationID, a.before.NextInvocationID)
	assert.Greater(t, a.after.NextInvocationID, a.before.NextInvocationID)

	top := a.reflect(t)
	lib := top.Properties["library"].(*objects.DataObjectReflection)
	require.Len(t, lib.AddedObjects, 1)
	dep := lib.AddedObjects[0].(*objects.DataObjectReflection)
	assert.Equal(t, "org.example:base:1", stringProp(t, dep, "coordinates"))
	assert.Equal(t, true, dep.Properties["optional"].(*objects.ConstantValue).Value)
}

func TestApply_UnreferencedTypeNotApplied(t *testing.T) {
	t.Parallel()
	a := applyScript(t, `conventions {
    library { version = "1.0" }
}
application { name = "app" }
`, registry)
	assert.Same(t, a.before, a.after)
}

func TestApply_UnknownNameFailsClosed(t *testing.T) {
	t.Parallel()
	a := applyScript(t, `conventions {
    application { version = "2.0" }
}
application { name = "app" }
`, registry)
	assert.Same(t, a.before, a.after)

	top := a.reflect(t)
	app := top.Properties["application"].(*objects.DataObjectReflection)
	assert.Equal(t, "", stringProp(t, app, "version"))
}

func TestApply_InputNotModified(t *testing.T) {
	t.Parallel()
	a := applyScript(t, `conventions {
    library { version = "1.0" }
}
library { }
`, registry)
	before := len(a.before.Assignments)
	next := a.before.NextInvocationID
	_ = Apply(a.before, registry)
	assert.Len(t, a.before.Assignments, before)
	assert.Equal(t, next, a.before.NextInvocationID)
}

func TestApply_NilRegistry(t *testing.T) {
	t.Parallel()
	a := applyScript(t, "library { }\n", nil)
	assert.Same(t, a.before, a.after)
}
