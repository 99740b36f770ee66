// Package objects materializes a traced resolution result into a read-only
// tree of object reflections that an embedder can walk to build host
// objects or render a document view.
package objects

import (
	"fmt"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
)

// ObjectReflection is one materialized value: a *DataObjectReflection,
// *ConstantValue, *External, *Null or *PureFunctionInvocation.
type ObjectReflection interface {
	ReflectedType() schema.TypeRef
	ObjectOrigin() resolve.ObjectOrigin
}

// DataObjectReflection is an instance of a data class. Properties holds only
// the properties that were assigned or declare a default; a missing entry
// means neither. Identity distinguishes otherwise equal objects.
type DataObjectReflection struct {
	Identity     int64
	Type         schema.TypeRef
	Class        *schema.DataClass
	Origin       resolve.ObjectOrigin
	Properties   map[string]ObjectReflection
	AddedObjects []ObjectReflection
	// IsDefault is set for objects standing in for an unassigned property's
	// default.
	IsDefault bool
}

// Property returns the reflected value of a property, if present.
func (d *DataObjectReflection) Property(name string) (ObjectReflection, bool) {
	v, ok := d.Properties[name]
	return v, ok
}

// PropertyNames returns the names of the present properties in declaration
// order.
func (d *DataObjectReflection) PropertyNames() []string {
	names := make([]string, 0, len(d.Properties))
	for _, p := range d.Class.Properties {
		if _, ok := d.Properties[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

// ConstantValue is a literal or a constant-typed default.
type ConstantValue struct {
	Type      schema.TypeRef
	Value     any
	Origin    resolve.ObjectOrigin
	IsDefault bool
}

// External is an object supplied by the embedder.
type External struct {
	Key    schema.ExternalObjectProviderKey
	Origin resolve.ObjectOrigin
}

// Null is an explicit null, distinct from an absent property.
type Null struct {
	Origin resolve.ObjectOrigin
}

// PureFunctionInvocation is a call the embedder evaluates. Args is keyed by
// parameter name; parameters left to their defaults are absent. Result holds
// the properties assigned on the returned object when the function returns
// a data class.
type PureFunctionInvocation struct {
	Function *schema.Function
	Identity int64
	Receiver ObjectReflection
	Args     map[string]ObjectReflection
	Result   *DataObjectReflection
	Origin   resolve.ObjectOrigin
}

func (d *DataObjectReflection) ReflectedType() schema.TypeRef   { return d.Type }
func (c *ConstantValue) ReflectedType() schema.TypeRef          { return c.Type }
func (e *External) ReflectedType() schema.TypeRef               { return e.Key.Type }
func (*Null) ReflectedType() schema.TypeRef                     { return schema.NullType }
func (p *PureFunctionInvocation) ReflectedType() schema.TypeRef { return p.Function.ReturnType() }

func (d *DataObjectReflection) ObjectOrigin() resolve.ObjectOrigin   { return d.Origin }
func (c *ConstantValue) ObjectOrigin() resolve.ObjectOrigin          { return c.Origin }
func (e *External) ObjectOrigin() resolve.ObjectOrigin               { return e.Origin }
func (n *Null) ObjectOrigin() resolve.ObjectOrigin                   { return n.Origin }
func (p *PureFunctionInvocation) ObjectOrigin() resolve.ObjectOrigin { return p.Origin }

// Unassigned is a value that was used but resolves to a property that is
// never assigned and declares no default.
type Unassigned struct {
	Slot string
	Src  langtree.SourceData
}

func (u Unassigned) String() string {
	return fmt.Sprintf("%s: unassigned value used: %s", u.Src, u.Slot)
}
