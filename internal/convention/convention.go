// Package convention re-applies operations declared once under a reserved
// top-level block to every place the same named context is configured:
//
//	conventions {
//	    library { version = "1.0" }
//	}
//	library { name = "core" }   // also gets version = "1.0"
//
// Convention operations are prepended, so statements written for the
// target itself win.
package convention

import (
	"fmt"

	"github.com/jward/notation/internal/resolve"
)

// DefaultConventionsProperty is the reserved top-level block name.
const DefaultConventionsProperty = "conventions"

// Registry maps software type names, as used inside the conventions block,
// to the top-level properties that configure them.
type Registry struct {
	ConventionsProperty string
	SoftwareTypes       map[string]string
}

// NewRegistry returns a registry using the default conventions block name.
func NewRegistry(softwareTypes map[string]string) *Registry {
	return &Registry{ConventionsProperty: DefaultConventionsProperty, SoftwareTypes: softwareTypes}
}

type root struct {
	name string
	key  string
}

type target struct {
	name     string
	receiver resolve.ObjectOrigin
}

// Apply returns a copy of res with convention operations applied to each
// configured software type. Conventions for names the registry does not
// know are skipped. res is not modified.
func Apply(res *resolve.Result, reg *Registry) *resolve.Result {
	if reg == nil {
		return res
	}
	roots := reg.roots(res)
	targets := reg.targets(res)
	if len(roots) == 0 || len(targets) == 0 {
		return res
	}

	out := *res
	var (
		assignments []resolve.AssignmentRecord
		additions   []resolve.DataAdditionRecord
		nested      []resolve.NestedObjectAccessRecord
	)
	for _, tgt := range targets {
		for _, rt := range roots {
			if rt.name != tgt.name {
				continue
			}
			s := &substitution{from: rt.key, to: tgt.receiver, ids: map[int64]int64{}, next: &out.NextInvocationID}
			for _, rec := range res.Assignments {
				if s.within(rec.LHS.Receiver) {
					assignments = append(assignments, resolve.AssignmentRecord{
						LHS:     resolve.PropertyReferenceResolution{Receiver: s.apply(rec.LHS.Receiver), Property: rec.LHS.Property},
						RHS:     s.apply(rec.RHS),
						Element: rec.Element,
					})
				}
			}
			for _, rec := range res.Additions {
				if s.within(rec.Container) {
					additions = append(additions, resolve.DataAdditionRecord{
						Container:  s.apply(rec.Container),
						DataObject: s.apply(rec.DataObject).(*resolve.FunctionInvocation),
					})
				}
			}
			for _, rec := range res.NestedObjectAccess {
				if s.within(rec.Container) {
					nested = append(nested, resolve.NestedObjectAccessRecord{
						Container:  s.apply(rec.Container),
						DataObject: s.apply(rec.DataObject).(*resolve.ConfigureReceiver),
					})
				}
			}
		}
	}
	out.Assignments = append(assignments, res.Assignments...)
	out.Additions = append(additions, res.Additions...)
	out.NestedObjectAccess = append(nested, res.NestedObjectAccess...)
	return &out
}

// roots returns the blocks entered directly inside the conventions block,
// one per distinct name the registry knows.
func (reg *Registry) roots(res *resolve.Result) []root {
	var out []root
	seen := map[string]bool{}
	for _, rec := range res.NestedObjectAccess {
		cr, ok := rec.Container.(*resolve.ConfigureReceiver)
		if !ok || cr.Accessor.Name != reg.ConventionsProperty {
			continue
		}
		if _, top := cr.Receiver.(*resolve.TopLevelReceiver); !top {
			continue
		}
		name := rec.DataObject.Accessor.Name
		if _, known := reg.SoftwareTypes[name]; !known {
			continue
		}
		key := resolve.Key(rec.DataObject)
		if !seen[key] {
			seen[key] = true
			out = append(out, root{name: name, key: key})
		}
	}
	return out
}

// targets returns the top-level blocks that configure a registered
// software type, in source order.
func (reg *Registry) targets(res *resolve.Result) []target {
	byProperty := make(map[string]string, len(reg.SoftwareTypes))
	for name, prop := range reg.SoftwareTypes {
		byProperty[prop] = name
	}
	var out []target
	seen := map[string]bool{}
	for _, rec := range res.NestedObjectAccess {
		if _, top := rec.Container.(*resolve.TopLevelReceiver); !top {
			continue
		}
		name, ok := byProperty[rec.DataObject.Accessor.Name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, target{
			name: name,
			receiver: &resolve.PropertyReference{
				Receiver: rec.Container,
				Property: rec.DataObject.Accessor,
				Src:      rec.DataObject.Src,
			},
		})
	}
	return out
}

// substitution replaces the receiver subtree with key from by to. Each
// application gets fresh invocation ids so that every target owns its own
// objects.
type substitution struct {
	from string
	to   resolve.ObjectOrigin
	ids  map[int64]int64
	next *int64
	invs map[int64]*resolve.FunctionInvocation
}

func (s *substitution) within(o resolve.ObjectOrigin) bool {
	for o != nil {
		if resolve.Key(o) == s.from {
			return true
		}
		o = receiverOf(o)
	}
	return false
}

// mentions reports whether the subtree appears anywhere in o, including
// invocation arguments.
func (s *substitution) mentions(o resolve.ObjectOrigin) bool {
	if o == nil {
		return false
	}
	if resolve.Key(o) == s.from {
		return true
	}
	if inv, ok := o.(*resolve.FunctionInvocation); ok {
		for _, a := range inv.Args {
			if s.mentions(a) {
				return true
			}
		}
	}
	return s.mentions(receiverOf(o))
}

func receiverOf(o resolve.ObjectOrigin) resolve.ObjectOrigin {
	switch o := o.(type) {
	case *resolve.PropertyReference:
		return o.Receiver
	case *resolve.ConfigureReceiver:
		return o.Receiver
	case *resolve.FunctionInvocation:
		return o.Receiver
	case *resolve.PropertyDefaultValue:
		return o.Receiver
	case *resolve.BuilderReturnedReceiver:
		return o.Receiver
	case *resolve.FromLocalValue:
		return o.Assigned
	}
	return nil
}

func (s *substitution) id(old int64) int64 {
	if id, ok := s.ids[old]; ok {
		return id
	}
	id := *s.next
	*s.next++
	s.ids[old] = id
	return id
}

func (s *substitution) apply(o resolve.ObjectOrigin) resolve.ObjectOrigin {
	if o == nil {
		return nil
	}
	if resolve.Key(o) == s.from {
		return s.to
	}
	switch o := o.(type) {
	case *resolve.TopLevelReceiver, *resolve.ConstantOrigin, *resolve.ExternalOrigin, *resolve.NullOrigin:
		return o
	case *resolve.PropertyReference:
		return &resolve.PropertyReference{Receiver: s.apply(o.Receiver), Property: o.Property, Src: o.Src}
	case *resolve.ConfigureReceiver:
		return &resolve.ConfigureReceiver{
			Receiver:     s.apply(o.Receiver),
			Function:     o.Function,
			Accessor:     o.Accessor,
			InvocationID: s.id(o.InvocationID),
			Src:          o.Src,
		}
	case *resolve.FunctionInvocation:
		if !s.mentions(o) {
			return o
		}
		if s.invs == nil {
			s.invs = map[int64]*resolve.FunctionInvocation{}
		}
		if inv, ok := s.invs[o.InvocationID]; ok {
			return inv
		}
		inv := &resolve.FunctionInvocation{Function: o.Function, InvocationID: s.id(o.InvocationID), Src: o.Src}
		s.invs[o.InvocationID] = inv
		inv.Receiver = s.apply(o.Receiver)
		inv.Args = make([]resolve.ObjectOrigin, len(o.Args))
		for i, a := range o.Args {
			inv.Args[i] = s.apply(a)
		}
		return inv
	case *resolve.PropertyDefaultValue:
		return &resolve.PropertyDefaultValue{Receiver: s.apply(o.Receiver), Property: o.Property, Src: o.Src}
	case *resolve.BuilderReturnedReceiver:
		return &resolve.BuilderReturnedReceiver{Receiver: s.apply(o.Receiver), Function: o.Function, Src: o.Src}
	case *resolve.FromLocalValue:
		return &resolve.FromLocalValue{Name: o.Name, Assigned: s.apply(o.Assigned), Src: o.Src}
	}
	panic(fmt.Sprintf("convention: origin %T not expected here", o))
}
