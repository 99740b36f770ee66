package schema

import "strings"

// TypeRef is a fully-qualified type name. Data classes and the builtin
// constant types share one namespace, so classes refer to each other by
// name rather than by pointer and the schema never contains reference cycles.
type TypeRef string

// Builtin constant types.
const (
	IntType     TypeRef = "kotlin.Int"
	LongType    TypeRef = "kotlin.Long"
	StringType  TypeRef = "kotlin.String"
	BooleanType TypeRef = "kotlin.Boolean"
	UnitType    TypeRef = "kotlin.Unit"
	NullType    TypeRef = "kotlin.Nothing"
)

var builtinTypes = map[TypeRef]bool{
	IntType:     true,
	LongType:    true,
	StringType:  true,
	BooleanType: true,
	UnitType:    true,
	NullType:    true,
}

// IsBuiltin reports whether t is one of the builtin types.
func (t TypeRef) IsBuiltin() bool { return builtinTypes[t] }

// IsConstant reports whether values of t are literal constants.
func (t TypeRef) IsConstant() bool {
	switch t {
	case IntType, LongType, StringType, BooleanType:
		return true
	}
	return false
}

// SimpleName returns the last dotted segment of the name.
func (t TypeRef) SimpleName() string {
	s := string(t)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (t TypeRef) String() string { return string(t) }

// ZeroValue returns the value a constant-typed property takes when it
// declares a default and is never assigned.
func ZeroValue(t TypeRef) (any, bool) {
	switch t {
	case IntType:
		return int32(0), true
	case LongType:
		return int64(0), true
	case StringType:
		return "", true
	case BooleanType:
		return false, true
	}
	return nil, false
}

// SplitFqName splits a dotted name into its package and simple name.
func SplitFqName(fq string) (pkg, simple string) {
	if i := strings.LastIndexByte(fq, '.'); i >= 0 {
		return fq[:i], fq[i+1:]
	}
	return "", fq
}
