package resolve

import (
	"fmt"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/schema"
)

// ObjectOrigin is the provenance of a resolved expression. Every resolved
// expression is exactly one of the types in this file.
type ObjectOrigin interface {
	Source() langtree.SourceData
	isOrigin()
}

// TopLevelReceiver is the implicit receiver of the script body.
type TopLevelReceiver struct {
	Type schema.TypeRef
	Src  langtree.SourceData
}

// ConstantOrigin is a literal.
type ConstantOrigin struct {
	Type  schema.TypeRef
	Value any
	Src   langtree.SourceData
}

// ExternalOrigin is an object supplied by the embedder.
type ExternalOrigin struct {
	Key schema.ExternalObjectProviderKey
	Src langtree.SourceData
}

// PropertyReference is the value of Property on Receiver.
type PropertyReference struct {
	Receiver ObjectOrigin
	Property *schema.DataProperty
	Src      langtree.SourceData
}

// ConfigureReceiver is the receiver of a block passed to an
// access-and-configure function: the value of Accessor on Receiver.
type ConfigureReceiver struct {
	Receiver     ObjectOrigin
	Function     *schema.Function
	Accessor     *schema.DataProperty
	InvocationID int64
	Src          langtree.SourceData
}

// FunctionInvocation is the result of calling a pure, constructor or adding
// function. Args is aligned with Function.Parameters; a nil entry is a
// parameter left to its default. Receiver is nil for top-level functions and
// constructors.
type FunctionInvocation struct {
	Function     *schema.Function
	Receiver     ObjectOrigin
	Args         []ObjectOrigin
	InvocationID int64
	Src          langtree.SourceData
}

// PropertyDefaultValue is the value a property holds when never assigned.
type PropertyDefaultValue struct {
	Receiver ObjectOrigin
	Property *schema.DataProperty
	Src      langtree.SourceData
}

// BuilderReturnedReceiver is the value of a builder call: its receiver.
type BuilderReturnedReceiver struct {
	Receiver ObjectOrigin
	Function *schema.Function
	Src      langtree.SourceData
}

// FromLocalValue is a reference to a local value.
type FromLocalValue struct {
	Name     string
	Assigned ObjectOrigin
	Src      langtree.SourceData
}

// NullOrigin is the null literal.
type NullOrigin struct {
	Src langtree.SourceData
}

func (o *TopLevelReceiver) Source() langtree.SourceData        { return o.Src }
func (o *ConstantOrigin) Source() langtree.SourceData          { return o.Src }
func (o *ExternalOrigin) Source() langtree.SourceData          { return o.Src }
func (o *PropertyReference) Source() langtree.SourceData       { return o.Src }
func (o *ConfigureReceiver) Source() langtree.SourceData       { return o.Src }
func (o *FunctionInvocation) Source() langtree.SourceData      { return o.Src }
func (o *PropertyDefaultValue) Source() langtree.SourceData    { return o.Src }
func (o *BuilderReturnedReceiver) Source() langtree.SourceData { return o.Src }
func (o *FromLocalValue) Source() langtree.SourceData          { return o.Src }
func (o *NullOrigin) Source() langtree.SourceData              { return o.Src }

func (*TopLevelReceiver) isOrigin()        {}
func (*ConstantOrigin) isOrigin()          {}
func (*ExternalOrigin) isOrigin()          {}
func (*PropertyReference) isOrigin()       {}
func (*ConfigureReceiver) isOrigin()       {}
func (*FunctionInvocation) isOrigin()      {}
func (*PropertyDefaultValue) isOrigin()    {}
func (*BuilderReturnedReceiver) isOrigin() {}
func (*FromLocalValue) isOrigin()          {}
func (*NullOrigin) isOrigin()              {}

// TypeOf returns the static type of an origin.
func TypeOf(o ObjectOrigin) schema.TypeRef {
	switch o := o.(type) {
	case *TopLevelReceiver:
		return o.Type
	case *ConstantOrigin:
		return o.Type
	case *ExternalOrigin:
		return o.Key.Type
	case *PropertyReference:
		return o.Property.Type
	case *ConfigureReceiver:
		return o.Accessor.Type
	case *FunctionInvocation:
		return o.Function.ReturnType()
	case *PropertyDefaultValue:
		return o.Property.Type
	case *BuilderReturnedReceiver:
		return TypeOf(o.Receiver)
	case *FromLocalValue:
		return TypeOf(o.Assigned)
	case *NullOrigin:
		return schema.NullType
	}
	panic(fmt.Sprintf("resolve: origin %T not expected here", o))
}

// Key returns a structural identity for an origin. Origins that denote the
// same object by the same path have equal keys.
func Key(o ObjectOrigin) string {
	switch o := o.(type) {
	case *TopLevelReceiver:
		return "top"
	case *ConstantOrigin:
		return fmt.Sprintf("const(%v)@%d:%d", o.Value, o.Src.Line, o.Src.Column)
	case *ExternalOrigin:
		return "external:" + o.Key.Name
	case *PropertyReference:
		return Key(o.Receiver) + "." + o.Property.Name
	case *ConfigureReceiver:
		return Key(o.Receiver) + "." + o.Accessor.Name
	case *FunctionInvocation:
		return fmt.Sprintf("call#%d", o.InvocationID)
	case *PropertyDefaultValue:
		return Key(o.Receiver) + "." + o.Property.Name + "~default"
	case *BuilderReturnedReceiver:
		return Key(o.Receiver)
	case *FromLocalValue:
		return Key(o.Assigned)
	case *NullOrigin:
		return fmt.Sprintf("null@%d:%d", o.Src.Line, o.Src.Column)
	}
	panic(fmt.Sprintf("resolve: origin %T not expected here", o))
}

// Unwrap strips local-value and builder indirections.
func Unwrap(o ObjectOrigin) ObjectOrigin {
	for {
		switch v := o.(type) {
		case *FromLocalValue:
			o = v.Assigned
		case *BuilderReturnedReceiver:
			o = v.Receiver
		default:
			return o
		}
	}
}

// PropertyReferenceResolution names a property on a receiver; it is the
// left-hand side of an assignment.
type PropertyReferenceResolution struct {
	Receiver ObjectOrigin
	Property *schema.DataProperty
}

func (p PropertyReferenceResolution) String() string {
	return Key(p.Receiver) + "#" + p.Property.Name
}
