// Package schema describes the closed set of types, properties and functions
// a script is allowed to reference. A schema is immutable once built and is
// safe for concurrent read-only use by any number of evaluations.
package schema

import "fmt"

// AnalysisSchema is the top-level schema a script is resolved against.
type AnalysisSchema struct {
	TopLevelReceiverType TypeRef
	DataClasses          map[TypeRef]*DataClass
	// ExternalFunctions maps a fully-qualified function name to a top-level function.
	ExternalFunctions map[string]*Function
	// ExternalObjects maps a fully-qualified object name to its provider key.
	ExternalObjects map[string]ExternalObjectProviderKey
	// DefaultImports are fully-qualified names visible without an import.
	DefaultImports []string
}

// ExternalObjectProviderKey identifies an object supplied by the embedder.
type ExternalObjectProviderKey struct {
	Name string
	Type TypeRef
}

// DataClass describes one host type.
type DataClass struct {
	Name       TypeRef
	Supertypes []TypeRef
	// Properties keep declaration order.
	Properties      []*DataProperty
	MemberFunctions []*Function
	Constructors    []*Function
	// DefaultConstructible reports whether the embedder can create an
	// instance with no arguments, which nested default values rely on.
	DefaultConstructible bool
}

// DataProperty is identified by its owner and name.
type DataProperty struct {
	Owner           TypeRef
	Name            string
	Type            TypeRef
	ReadOnly        bool
	HasDefaultValue bool
}

// Key is the identity of the property across the schema.
func (p *DataProperty) Key() string { return string(p.Owner) + "#" + p.Name }

func (p *DataProperty) String() string {
	return fmt.Sprintf("%s.%s: %s", p.Owner.SimpleName(), p.Name, p.Type.SimpleName())
}

// TopLevelReceiver returns the class of the script's implicit receiver.
func (s *AnalysisSchema) TopLevelReceiver() *DataClass {
	return s.DataClasses[s.TopLevelReceiverType]
}

// Class looks up a data class by name.
func (s *AnalysisSchema) Class(t TypeRef) (*DataClass, bool) {
	c, ok := s.DataClasses[t]
	return c, ok
}

// IsAssignable reports whether a value of type source can be stored where
// target is expected. Supertypes are followed transitively; null is
// assignable to everything except Unit.
func (s *AnalysisSchema) IsAssignable(target, source TypeRef) bool {
	if target == source {
		return true
	}
	if source == NullType {
		return target != UnitType
	}
	seen := map[TypeRef]bool{source: true}
	queue := []TypeRef{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		c, ok := s.DataClasses[cur]
		if !ok {
			continue
		}
		for _, super := range c.Supertypes {
			if super == target {
				return true
			}
			if !seen[super] {
				seen[super] = true
				queue = append(queue, super)
			}
		}
	}
	return false
}

// Property returns the property with the given name, or nil.
func (c *DataClass) Property(name string) *DataProperty {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FunctionsNamed returns the member functions with the given simple name.
func (c *DataClass) FunctionsNamed(name string) []*Function {
	var out []*Function
	for _, f := range c.MemberFunctions {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
