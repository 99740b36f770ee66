package notation

import (
	"context"
	"fmt"

	"github.com/jward/notation/internal/objects"
	rt "github.com/jward/notation/internal/runtime"
)

// Keys Convert adds to converted data objects next to their properties.
// Property names are identifiers, so they never collide with these.
const (
	TypeKey  = "@type"
	AddedKey = "@added"
	// ReceiverArg is the global a function body sees its receiver under.
	ReceiverArg = "receiver"
)

// Convert turns a reflection into plain Go values: data objects become
// map[string]any keyed by property name, constants their Go value, null
// nil. External objects take the value supplied with WithExternals. Pure
// function invocations are evaluated through the Runtime's bodies.
//
// Identity is kept: a data object or invocation reached along several paths
// converts to the same map (or is evaluated once).
func (e *Evaluator) Convert(ctx context.Context, r ObjectReflection) (any, error) {
	c := &converter{
		ctx:       ctx,
		runtime:   e.runtime,
		externals: e.externals,
		objects:   make(map[*objects.DataObjectReflection]map[string]any),
		calls:     make(map[int64]any),
	}
	return c.convert(r)
}

type converter struct {
	ctx       context.Context
	runtime   *rt.Runtime
	externals map[string]any
	objects   map[*objects.DataObjectReflection]map[string]any
	calls     map[int64]any
}

func (c *converter) convert(r objects.ObjectReflection) (any, error) {
	switch r := r.(type) {
	case *objects.DataObjectReflection:
		return c.data(r)
	case *objects.ConstantValue:
		return r.Value, nil
	case *objects.Null:
		return nil, nil
	case *objects.External:
		v, ok := c.externals[r.Key.Name]
		if !ok {
			return nil, fmt.Errorf("notation: convert: no value for external object %s", r.Key.Name)
		}
		return v, nil
	case *objects.PureFunctionInvocation:
		return c.call(r)
	}
	panic(fmt.Sprintf("notation: reflection %T not expected here", r))
}

func (c *converter) data(d *objects.DataObjectReflection) (map[string]any, error) {
	if m, ok := c.objects[d]; ok {
		return m, nil
	}
	m := map[string]any{TypeKey: d.Type.String()}
	c.objects[d] = m
	for _, name := range d.PropertyNames() {
		v, err := c.convert(d.Properties[name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Type.SimpleName(), name, err)
		}
		m[name] = v
	}
	if len(d.AddedObjects) > 0 {
		added := make([]any, 0, len(d.AddedObjects))
		for _, a := range d.AddedObjects {
			v, err := c.convert(a)
			if err != nil {
				return nil, err
			}
			added = append(added, v)
		}
		m[AddedKey] = added
	}
	return m, nil
}

func (c *converter) call(p *objects.PureFunctionInvocation) (any, error) {
	if v, ok := c.calls[p.Identity]; ok {
		return v, nil
	}
	name := p.Function.FqName()
	if c.runtime == nil || !c.runtime.Has(name) {
		if p.Result == nil {
			return nil, fmt.Errorf("notation: convert: no body for function %s", name)
		}
		v, err := c.data(p.Result)
		if err != nil {
			return nil, err
		}
		c.calls[p.Identity] = v
		return v, nil
	}

	args := make(map[string]any, len(p.Args)+1)
	for param, a := range p.Args {
		v, err := c.convert(a)
		if err != nil {
			return nil, fmt.Errorf("%s(%s): %w", name, param, err)
		}
		args[param] = v
	}
	if p.Receiver != nil {
		v, err := c.convert(p.Receiver)
		if err != nil {
			return nil, err
		}
		args[ReceiverArg] = v
	}
	out, err := c.runtime.Call(c.ctx, name, args)
	if err != nil {
		return nil, fmt.Errorf("notation: convert: %w", err)
	}
	// Properties the script assigned on the returned object override what
	// the body produced.
	if m, ok := out.(map[string]any); ok && p.Result != nil {
		assigned, err := c.data(p.Result)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			if _, set := assigned[k]; !set {
				assigned[k] = v
			}
		}
		out = assigned
	}
	c.calls[p.Identity] = out
	return out, nil
}
