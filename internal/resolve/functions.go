package resolve

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/schema"
)

type argument struct {
	name  string
	value ObjectOrigin
}

type match struct {
	fn    *schema.Function
	bound []ObjectOrigin
}

// call resolves a call site and applies the selected function's semantics.
// It returns a nil origin after recording an error.
func (r *resolver) call(c *langtree.FunctionCall) (ObjectOrigin, *schema.Function) {
	args := make([]argument, 0, len(c.Args))
	for _, a := range c.Args {
		v := r.expr(a.Value)
		if v == nil {
			return nil, nil
		}
		args = append(args, argument{name: a.Name, value: v})
	}

	m, recv, ok := r.selectFunction(c, args)
	if !ok {
		return nil, nil
	}
	switch m.fn.Semantics.Block() {
	case schema.BlockRequired:
		if c.Block == nil {
			r.fail(c, MissingConfigureLambda, m.fn.FqName())
			return nil, nil
		}
	case schema.BlockNotAllowed:
		if c.Block != nil {
			r.fail(c, UnusedConfigureLambda, m.fn.FqName())
			return nil, nil
		}
	}
	r.res.Functions[c] = m.fn
	return r.apply(c, m, recv), m.fn
}

func (r *resolver) selectFunction(c *langtree.FunctionCall, args []argument) (match, ObjectOrigin, bool) {
	if c.Receiver != nil {
		if segs, ok := langtree.ChainSegments(c.Receiver); ok && !r.nameBound(segs[0]) {
			fq := strings.Join(segs, ".") + "." + c.Name
			if cands := r.topLevelCandidates(fq); len(cands) > 0 {
				m, ok := r.pick(c, cands, args)
				return m, nil, ok
			}
		}
		recv := r.expr(c.Receiver)
		if recv == nil {
			return match{}, nil, false
		}
		class, ok := r.schema.Class(TypeOf(recv))
		if !ok {
			r.fail(c, UnresolvedFunctionCallReceiver, TypeOf(recv).String())
			return match{}, nil, false
		}
		cands := r.memberCandidates(class, c.Name)
		if len(cands) == 0 {
			r.fail(c, UnresolvedReference, fmt.Sprintf("%s on %s", c.Name, class.Name))
			return match{}, nil, false
		}
		m, ok := r.pick(c, cands, args)
		return m, recv, ok
	}

	named := false
	for i := len(r.scopes) - 1; i >= 0; i-- {
		recv := r.scopes[i].receiver
		class, ok := r.schema.Class(TypeOf(recv))
		if !ok {
			continue
		}
		cands := r.memberCandidates(class, c.Name)
		if len(cands) == 0 {
			continue
		}
		named = true
		matches := r.applicable(cands, args)
		if len(matches) == 0 {
			continue
		}
		if !r.receiverAllowed(c, i) {
			return match{}, nil, false
		}
		m, ok := r.unique(c, matches)
		return m, recv, ok
	}
	if fq, ok := r.res.Imports[c.Name]; ok {
		if cands := r.topLevelCandidates(fq); len(cands) > 0 {
			m, ok := r.pick(c, cands, args)
			return m, nil, ok
		}
	}
	if named {
		r.fail(c, UnresolvedFunctionCallSignature, c.Name)
	} else {
		r.fail(c, UnresolvedReference, c.Name)
	}
	return match{}, nil, false
}

func (r *resolver) pick(c *langtree.FunctionCall, cands []*schema.Function, args []argument) (match, bool) {
	matches := r.applicable(cands, args)
	if len(matches) == 0 {
		r.fail(c, UnresolvedFunctionCallSignature, c.Name)
		return match{}, false
	}
	return r.unique(c, matches)
}

func (r *resolver) unique(c *langtree.FunctionCall, matches []match) (match, bool) {
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.fn.String()
		}
		r.fail(c, AmbiguousFunctions, strings.Join(names, ", "))
		return match{}, false
	}
	return matches[0], true
}

func (r *resolver) applicable(cands []*schema.Function, args []argument) []match {
	var out []match
	for _, fn := range cands {
		if bound, ok := r.bind(fn, args); ok {
			out = append(out, match{fn: fn, bound: bound})
		}
	}
	return out
}

// bind matches arguments to parameters: positional arguments first, then
// named ones. Unbound parameters must have defaults; their slot stays nil.
func (r *resolver) bind(fn *schema.Function, args []argument) ([]ObjectOrigin, bool) {
	params := fn.Parameters
	bound := make([]ObjectOrigin, len(params))
	pos := 0
	seenNamed := false
	for _, a := range args {
		idx := -1
		if a.name == "" {
			if seenNamed || pos >= len(params) {
				return nil, false
			}
			idx = pos
			pos++
		} else {
			seenNamed = true
			for i, p := range params {
				if p.Name == a.name {
					idx = i
				}
			}
			if idx < 0 || bound[idx] != nil {
				return nil, false
			}
		}
		v, ok := r.coerce(params[idx].Type, a.value)
		if !ok {
			return nil, false
		}
		bound[idx] = v
	}
	for i, p := range params {
		if bound[i] == nil && !p.HasDefault {
			return nil, false
		}
	}
	return bound, true
}

// memberCandidates returns the member functions named name, including the
// setters synthesized for writable properties.
func (r *resolver) memberCandidates(class *schema.DataClass, name string) []*schema.Function {
	cands := class.FunctionsNamed(name)
	for _, f := range r.synthesizedSetters(class) {
		if f.Name == name {
			cands = append(cands, f)
		}
	}
	return cands
}

func (r *resolver) synthesizedSetters(class *schema.DataClass) []*schema.Function {
	if fns, ok := r.setters[class.Name]; ok {
		return fns
	}
	var fns []*schema.Function
	for _, p := range class.Properties {
		if p.ReadOnly {
			continue
		}
		name := setterName(p)
		if len(class.FunctionsNamed(name)) > 0 {
			continue
		}
		fns = append(fns, &schema.Function{
			Kind:     schema.MemberFunction,
			Receiver: class.Name,
			Name:     name,
			Parameters: []*schema.DataParameter{
				{Name: "value", Type: p.Type, Semantics: schema.UnknownParameter{}},
			},
			Semantics: schema.Builder{Property: p},
		})
	}
	r.setters[class.Name] = fns
	return fns
}

// setterName follows the accessor convention: isEnabled has setEnabled.
func setterName(p *schema.DataProperty) string {
	name := p.Name
	if p.Type == schema.BooleanType && len(name) > 2 && strings.HasPrefix(name, "is") && unicode.IsUpper([]rune(name)[2]) {
		return "set" + name[2:]
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return "set" + string(r)
}

// topLevelCandidates returns the external function or the constructors of
// the data class with the fully-qualified name fq.
func (r *resolver) topLevelCandidates(fq string) []*schema.Function {
	if f, ok := r.schema.ExternalFunctions[fq]; ok {
		return []*schema.Function{f}
	}
	if class, ok := r.schema.Class(schema.TypeRef(fq)); ok {
		return class.Constructors
	}
	return nil
}

func (r *resolver) apply(c *langtree.FunctionCall, m match, recv ObjectOrigin) ObjectOrigin {
	switch sem := m.fn.Semantics.(type) {
	case schema.Pure:
		return &FunctionInvocation{Function: m.fn, Receiver: recv, Args: m.bound, InvocationID: r.nextID(), Src: c.Src}

	case schema.Builder:
		if m.bound[0] == nil {
			r.fail(c, UnresolvedFunctionCallSignature, c.Name)
			return &BuilderReturnedReceiver{Receiver: recv, Function: m.fn, Src: c.Src}
		}
		r.record(c, PropertyReferenceResolution{Receiver: recv, Property: sem.Property}, m.bound[0])
		return &BuilderReturnedReceiver{Receiver: recv, Function: m.fn, Src: c.Src}

	case schema.AddAndConfigure:
		inv := &FunctionInvocation{Function: m.fn, Receiver: recv, Args: m.bound, InvocationID: r.nextID(), Src: c.Src}
		r.res.Additions = append(r.res.Additions, DataAdditionRecord{Container: recv, DataObject: inv})
		for i, p := range m.fn.Parameters {
			if store, ok := p.Semantics.(schema.StoreValueInProperty); ok && m.bound[i] != nil {
				r.record(c, PropertyReferenceResolution{Receiver: inv, Property: store.Property}, m.bound[i])
			}
		}
		if c.Block != nil {
			r.block(c.Block, inv)
		}
		return inv

	case schema.AccessAndConfigure:
		cr := &ConfigureReceiver{
			Receiver:     recv,
			Function:     m.fn,
			Accessor:     sem.Accessor,
			InvocationID: r.nextID(),
			Src:          c.Src,
		}
		r.res.NestedObjectAccess = append(r.res.NestedObjectAccess, NestedObjectAccessRecord{Container: recv, DataObject: cr})
		if c.Block != nil {
			r.block(c.Block, cr)
		}
		return cr
	}
	panic(fmt.Sprintf("resolve: function semantics %T not expected here", m.fn.Semantics))
}
