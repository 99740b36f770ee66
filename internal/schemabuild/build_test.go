package schemabuild

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/notation/internal/schema"
)

func memberFunction(t *testing.T, c *schema.DataClass, name string) *schema.Function {
	t.Helper()
	fns := c.FunctionsNamed(name)
	require.Len(t, fns, 1, "function %s", name)
	return fns[0]
}

// =============================================================================
// Semantics inference
// =============================================================================

func TestBuild_ClassifiesBuilderAdderConfigurer(t *testing.T) {
	t.Parallel()
	const (
		project schema.TypeRef = "p.Project"
		module  schema.TypeRef = "p.Module"
		options schema.TypeRef = "p.Options"
	)
	table := &Table{
		TopLevel: project,
		Types: []TypeDescriptor{
			{
				Name: project,
				Properties: []PropertyDescriptor{
					{Name: "group", Type: schema.StringType, Mutable: true},
					{Name: "options", Type: options},
				},
				Functions: []FunctionDescriptor{
					{Name: "group", Parameters: []ParameterDescriptor{{Name: "group", Type: schema.StringType}},
						Returns: project, Annotations: []Annotation{Builder}},
					{Name: "module", Parameters: []ParameterDescriptor{{Name: "name", Type: schema.StringType}, configure(module)},
						Returns: module, Annotations: []Annotation{Adding}},
					{Name: "options", Parameters: []ParameterDescriptor{configure(options)},
						Annotations: []Annotation{Configuring}},
				},
			},
			{Name: module, Properties: []PropertyDescriptor{{Name: "name", Type: schema.StringType, Mutable: true}}},
			{Name: options},
		},
	}

	s, err := Build(table)
	require.NoError(t, err)
	c := s.TopLevelReceiver()

	group := memberFunction(t, c, "group")
	require.IsType(t, schema.Builder{}, group.Semantics)
	assert.Equal(t, "group", group.Semantics.(schema.Builder).Property.Name)
	require.Len(t, group.Parameters, 1)

	mod := memberFunction(t, c, "module")
	require.IsType(t, schema.AddAndConfigure{}, mod.Semantics)
	assert.Equal(t, schema.BlockRequired, mod.Semantics.Block())
	require.Len(t, mod.Parameters, 1, "trailing configuring lambda is dropped")
	assert.Equal(t, "name", mod.Parameters[0].Name)
	store, ok := mod.Parameters[0].Semantics.(schema.StoreValueInProperty)
	require.True(t, ok)
	assert.Equal(t, module, store.Property.Owner)

	opts := memberFunction(t, c, "options")
	require.IsType(t, schema.AccessAndConfigure{}, opts.Semantics)
	assert.Empty(t, opts.Parameters)
	assert.False(t, opts.Semantics.(schema.AccessAndConfigure).ReturnsConfigured)
	assert.Equal(t, schema.UnitType, opts.ReturnType())
}

func TestBuild_OptionalBlockWhenLambdaHasDefault(t *testing.T) {
	t.Parallel()
	table := &Table{
		TopLevel: "p.Root",
		Types: []TypeDescriptor{
			{Name: "p.Root", Functions: []FunctionDescriptor{{
				Name:        "item",
				Parameters:  []ParameterDescriptor{{Name: "configure", HasDefault: true, Lambda: &LambdaDescriptor{Receiver: "p.Item"}}},
				Returns:     "p.Item",
				Annotations: []Annotation{Adding},
			}}},
			{Name: "p.Item"},
		},
	}
	s, err := Build(table)
	require.NoError(t, err)
	f := memberFunction(t, s.TopLevelReceiver(), "item")
	assert.Equal(t, schema.BlockOptional, f.Semantics.Block())
}

func TestBuild_DemoSchema(t *testing.T) {
	t.Parallel()
	s, err := Build(DemoTable())
	require.NoError(t, err)

	top := s.TopLevelReceiver()
	require.NotNil(t, top)
	assert.Empty(t, top.FunctionsNamed("toString"), "identity functions are excluded")
	assert.IsType(t, schema.Pure{}, memberFunction(t, top, "b").Semantics)
	assert.IsType(t, schema.AddAndConfigure{}, memberFunction(t, top, "c").Semantics)
	assert.IsType(t, schema.Builder{}, memberFunction(t, top, "version").Semantics)

	d, ok := s.Class(DemoD)
	require.True(t, ok)
	id := d.Property("id")
	require.NotNil(t, id, "private property matching a constructor parameter is included")
	assert.True(t, id.ReadOnly)
	require.Len(t, d.Constructors, 1)
	assert.Equal(t, "D", d.Constructors[0].Name)

	settings, _ := s.Class(DemoSettings)
	level := settings.Property("level")
	require.NotNil(t, level, "getter/setter pair synthesizes a property")
	assert.Equal(t, schema.IntType, level.Type)
	assert.False(t, level.ReadOnly)

	assert.True(t, s.IsAssignable(DemoA, DemoB))
	assert.False(t, s.IsAssignable(DemoB, DemoA))
	assert.Contains(t, s.ExternalFunctions, "com.example.util.greeting")
	assert.Contains(t, s.ExternalObjects, "com.example.util.sharedD")
}

// =============================================================================
// Property discovery
// =============================================================================

func TestBuild_PropertyDiscovery(t *testing.T) {
	t.Parallel()
	table := &Table{
		TopLevel: "p.T",
		Types: []TypeDescriptor{{
			Name: "p.T",
			Properties: []PropertyDescriptor{
				{Name: "visible", Type: schema.IntType},
				{Name: "secret", Type: schema.IntType, Private: true},
				{Name: "hidden", Type: schema.IntType, Annotations: []Annotation{Hidden}},
				{Name: "settable", Type: schema.StringType},
			},
			Functions: []FunctionDescriptor{
				{Name: "setSettable", Parameters: []ParameterDescriptor{{Name: "v", Type: schema.StringType}}},
				{Name: "getCount", Returns: schema.LongType},
				{Name: "isEnabled", Returns: schema.BooleanType},
				{Name: "setEnabled", Parameters: []ParameterDescriptor{{Name: "v", Type: schema.BooleanType}}},
				{Name: "getIgnored", Returns: schema.IntType, Annotations: []Annotation{Hidden}},
				{Name: "compute", Returns: schema.IntType},
			},
		}},
	}
	s, err := Build(table)
	require.NoError(t, err)
	c := s.TopLevelReceiver()

	var names []string
	for _, p := range c.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"visible", "settable", "count", "isEnabled"}, names)
	assert.True(t, c.Property("visible").ReadOnly)
	assert.False(t, c.Property("settable").ReadOnly, "a matching setter makes the property writable")
	assert.True(t, c.Property("count").ReadOnly)
	assert.False(t, c.Property("isEnabled").ReadOnly)
	assert.Empty(t, c.MemberFunctions, "unannotated functions are not part of the schema")
}

// =============================================================================
// Fatal errors
// =============================================================================

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		types []TypeDescriptor
		kind  ErrorKind
	}{
		{
			name:  "property type out of scope",
			types: []TypeDescriptor{{Name: "p.T", Properties: []PropertyDescriptor{{Name: "x", Type: "p.Missing"}}}},
			kind:  TypeNotInScope,
		},
		{
			name: "parameter type out of scope",
			types: []TypeDescriptor{{Name: "p.T", Functions: []FunctionDescriptor{{
				Name: "f", Parameters: []ParameterDescriptor{{Name: "x", Type: "p.Missing"}},
				Annotations: []Annotation{Restricted},
			}}}},
			kind: TypeNotInScope,
		},
		{
			name:  "duplicate type",
			types: []TypeDescriptor{{Name: "p.T"}, {Name: "p.T"}},
			kind:  DuplicateType,
		},
		{
			name: "builder without matching property",
			types: []TypeDescriptor{{Name: "p.T", Functions: []FunctionDescriptor{{
				Name: "x", Parameters: []ParameterDescriptor{{Name: "x", Type: schema.IntType}},
				Returns: "p.T", Annotations: []Annotation{Builder},
			}}}},
			kind: MalformedBuilder,
		},
		{
			name: "builder with defaulted parameter",
			types: []TypeDescriptor{{
				Name:       "p.T",
				Properties: []PropertyDescriptor{{Name: "n", Type: schema.IntType, Mutable: true}},
				Functions: []FunctionDescriptor{{
					Name: "n", Parameters: []ParameterDescriptor{{Name: "n", Type: schema.IntType, HasDefault: true}},
					Returns: "p.T", Annotations: []Annotation{Builder},
				}},
			}},
			kind: MalformedBuilder,
		},
		{
			name: "configuring returns wrong type",
			types: []TypeDescriptor{{
				Name:       "p.T",
				Properties: []PropertyDescriptor{{Name: "o", Type: "p.O"}},
				Functions: []FunctionDescriptor{{
					Name: "o", Parameters: []ParameterDescriptor{configure("p.O")},
					Returns: schema.IntType, Annotations: []Annotation{Configuring},
				}},
			}, {Name: "p.O"}},
			kind: MalformedConfiguring,
		},
		{
			name: "configuring without property",
			types: []TypeDescriptor{{Name: "p.T", Functions: []FunctionDescriptor{{
				Name: "o", Parameters: []ParameterDescriptor{configure("p.T")},
				Annotations: []Annotation{Configuring},
			}}}},
			kind: MalformedConfiguring,
		},
		{
			name: "adding with foreign lambda",
			types: []TypeDescriptor{{Name: "p.T", Functions: []FunctionDescriptor{{
				Name: "add", Parameters: []ParameterDescriptor{configure("p.T")},
				Returns: "p.E", Annotations: []Annotation{Adding},
			}}}, {Name: "p.E"}},
			kind: MalformedAdding,
		},
		{
			name: "getter and setter disagree",
			types: []TypeDescriptor{{Name: "p.T", Functions: []FunctionDescriptor{
				{Name: "getV", Returns: schema.IntType},
				{Name: "setV", Parameters: []ParameterDescriptor{{Name: "v", Type: schema.StringType}}},
			}}},
			kind: AmbiguousAccessor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Build(&Table{TopLevel: "p.T", Types: tt.types})
			require.Error(t, err)
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %T", err)
			assert.Equal(t, tt.kind, se.Kind, se.Error())
		})
	}
}

func TestBuild_UnknownTopLevel(t *testing.T) {
	t.Parallel()
	_, err := Build(&Table{TopLevel: "p.Nope", Types: []TypeDescriptor{{Name: "p.T"}}})
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, UnknownTopLevel, se.Kind)
}

// =============================================================================
// YAML loading
// =============================================================================

const yamlTable = `
topLevel: p.Root
types:
  - name: p.Root
    properties:
      - name: title
        type: kotlin.String
        mutable: true
    functions:
      - name: child
        returns: p.Child
        annotations: [Adding]
        parameters:
          - name: configure
            lambda:
              receiver: p.Child
  - name: p.Child
defaultImports: [p.util.helper]
`

func TestLoadTable(t *testing.T) {
	t.Parallel()
	table, err := LoadTable(strings.NewReader(yamlTable))
	require.NoError(t, err)
	assert.Equal(t, schema.TypeRef("p.Root"), table.TopLevel)
	require.Len(t, table.Types, 2)

	s, err := Build(table)
	require.NoError(t, err)
	child := memberFunction(t, s.TopLevelReceiver(), "child")
	assert.Equal(t, schema.BlockRequired, child.Semantics.Block())
	assert.Equal(t, []string{"p.util.helper"}, s.DefaultImports)
}

func TestLoadTable_ValidationFailure(t *testing.T) {
	t.Parallel()
	_, err := LoadTable(strings.NewReader("types:\n  - name: p.Root\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid descriptor table")
}

func TestLoadTable_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := LoadTable(strings.NewReader("topLevel: p.Root\nbogus: 1\ntypes:\n  - name: p.Root\n"))
	require.Error(t, err)
}
