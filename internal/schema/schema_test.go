package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() *AnalysisSchema {
	top := &DataClass{Name: "test.Top"}
	top.Properties = []*DataProperty{
		{Owner: top.Name, Name: "a", Type: "test.A"},
		{Owner: top.Name, Name: "n", Type: IntType, HasDefaultValue: true},
	}
	top.MemberFunctions = []*Function{{
		Kind:      MemberFunction,
		Receiver:  top.Name,
		Name:      "make",
		Semantics: Pure{Returns: "test.B"},
	}}
	return &AnalysisSchema{
		TopLevelReceiverType: top.Name,
		DataClasses: map[TypeRef]*DataClass{
			top.Name: top,
			"test.A": {Name: "test.A"},
			"test.B": {Name: "test.B", Supertypes: []TypeRef{"test.A"}},
			"test.C": {Name: "test.C", Supertypes: []TypeRef{"test.B"}},
		},
		ExternalObjects: map[string]ExternalObjectProviderKey{
			"test.env": {Name: "test.env", Type: "test.A"},
		},
	}
}

func TestIsAssignable(t *testing.T) {
	t.Parallel()
	s := testSchema()

	tests := []struct {
		target, source TypeRef
		want           bool
	}{
		{"test.A", "test.A", true},
		{"test.A", "test.B", true},
		{"test.A", "test.C", true},
		{"test.B", "test.A", false},
		{IntType, StringType, false},
		{"test.A", NullType, true},
		{UnitType, NullType, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.target)+"<-"+string(tt.source), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.IsAssignable(tt.target, tt.source))
		})
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()
	a, b := testSchema(), testSchema()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestFingerprint_ChangesWithSchema(t *testing.T) {
	t.Parallel()
	base := testSchema().Fingerprint()

	s := testSchema()
	s.DataClasses["test.Top"].Properties[1].HasDefaultValue = false
	assert.NotEqual(t, base, s.Fingerprint())

	s = testSchema()
	s.DataClasses["test.A"].DefaultConstructible = true
	assert.NotEqual(t, base, s.Fingerprint())

	s = testSchema()
	s.DefaultImports = []string{"test.env"}
	assert.NotEqual(t, base, s.Fingerprint())
}

func TestClass_PropertyLookup(t *testing.T) {
	t.Parallel()
	top := testSchema().TopLevelReceiver()
	assert.Equal(t, "n", top.Property("n").Name)
	assert.Nil(t, top.Property("missing"))
	assert.Len(t, top.FunctionsNamed("make"), 1)
	assert.Equal(t, "Top.n: Int", top.Property("n").String())
}
