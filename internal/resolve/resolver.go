// Package resolve maps a language tree onto a schema. Every expression is
// resolved to an ObjectOrigin; assignments, additions and nested-object
// accesses are recorded for the tracer, and script errors are accumulated
// as data so that one run reports all of them.
package resolve

import (
	"fmt"
	"strings"

	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/schema"
)

// Option configures a resolution run.
type Option func(*resolver)

// WithStrictReceiverChecks controls whether members of an implicit receiver
// other than the innermost one may be referenced. On by default.
func WithStrictReceiverChecks(on bool) Option {
	return func(r *resolver) {
		r.strictReceivers = on
	}
}

// WithStrictAssignments reports a second assignment to the same property as
// DuplicateAssignment instead of letting the later one win. Off by default.
func WithStrictAssignments(on bool) Option {
	return func(r *resolver) {
		r.strictAssignments = on
	}
}

type local struct {
	// origin is nil when the initializer failed to resolve.
	origin ObjectOrigin
}

type scope struct {
	receiver ObjectOrigin
	locals   map[string]*local
}

type resolver struct {
	schema            *schema.AnalysisSchema
	strictReceivers   bool
	strictAssignments bool

	scopes   []*scope
	setters  map[schema.TypeRef][]*schema.Function
	assigned map[string]bool
	res      *Result
}

// Resolve resolves a script body against s. Imports are processed first, in
// declaration order; statements are processed in source order.
func Resolve(s *schema.AnalysisSchema, imports []langtree.Import, top *langtree.Block, opts ...Option) *Result {
	r := &resolver{
		schema:          s,
		strictReceivers: true,
		setters:         make(map[schema.TypeRef][]*schema.Function),
		assigned:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	topRecv := &TopLevelReceiver{Type: s.TopLevelReceiverType, Src: top.Src}
	r.res = &Result{
		TopLevelReceiver: topRecv,
		Values:           make(map[langtree.Expr]ObjectOrigin),
		Functions:        make(map[*langtree.FunctionCall]*schema.Function),
		Targets:          make(map[*langtree.Assignment]*schema.DataProperty),
		NextInvocationID: 1,
	}
	names, errs := ResolveImports(s, imports)
	r.res.Imports = names
	r.res.Errors = append(r.res.Errors, errs...)

	r.block(top, topRecv)
	return r.res
}

// ResolveTree resolves a parsed script.
func ResolveTree(s *schema.AnalysisSchema, tree *langtree.Result, opts ...Option) *Result {
	return Resolve(s, tree.Imports, tree.TopLevel, opts...)
}

func (r *resolver) fail(el langtree.Node, reason ErrorReason, detail string) {
	r.res.Errors = append(r.res.Errors, ResolutionError{Element: el, Reason: reason, Detail: detail})
}

func (r *resolver) nextID() int64 {
	id := r.res.NextInvocationID
	r.res.NextInvocationID++
	return id
}

func (r *resolver) innermost() *scope { return r.scopes[len(r.scopes)-1] }

func (r *resolver) block(b *langtree.Block, receiver ObjectOrigin) {
	r.scopes = append(r.scopes, &scope{receiver: receiver, locals: make(map[string]*local)})
	for _, st := range b.Statements {
		r.statement(st)
	}
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) statement(st langtree.Statement) {
	switch st := st.(type) {
	case *langtree.LocalValue:
		r.localValue(st)
	case *langtree.Assignment:
		r.assignment(st)
	case *langtree.FunctionCall:
		r.callStatement(st)
	case *langtree.PropertyAccess, *langtree.Literal, *langtree.Null:
		r.fail(st, DanglingPureExpression, "")
	default:
		panic(fmt.Sprintf("resolve: statement %T not expected here", st))
	}
}

func (r *resolver) localValue(st *langtree.LocalValue) {
	cur := r.innermost()
	if _, dup := cur.locals[st.Name]; dup {
		r.fail(st, ValReassignment, st.Name)
		return
	}
	cur.locals[st.Name] = &local{origin: r.expr(st.RHS)}
}

func (r *resolver) assignment(st *langtree.Assignment) {
	target, ok := r.assignTarget(st)
	rhs := r.expr(st.RHS)
	if !ok || rhs == nil {
		return
	}
	value, ok := r.coerce(target.Property.Type, rhs)
	if !ok {
		r.fail(st, AssignmentTypeMismatch, fmt.Sprintf("%s = %s", target.Property, TypeOf(rhs)))
		return
	}
	r.res.Targets[st] = target.Property
	r.record(st, PropertyReferenceResolution{Receiver: target.Receiver, Property: target.Property}, value)
}

func (r *resolver) assignTarget(st *langtree.Assignment) (*PropertyReference, bool) {
	switch o := r.access(st.LHS).(type) {
	case nil:
		return nil, false
	case *PropertyReference:
		if o.Property.ReadOnly {
			r.fail(st, ReadOnlyPropertyAssignment, o.Property.String())
			return nil, false
		}
		return o, true
	case *FromLocalValue:
		r.fail(st, ValReassignment, o.Name)
	case *ExternalOrigin:
		r.fail(st, ExternalReassignment, o.Key.Name)
	default:
		panic(fmt.Sprintf("resolve: assignment target %T not expected here", o))
	}
	return nil, false
}

// record appends an assignment, enforcing the duplicate check in strict mode.
func (r *resolver) record(el langtree.Node, lhs PropertyReferenceResolution, rhs ObjectOrigin) {
	if r.strictAssignments {
		key := lhs.String()
		if r.assigned[key] {
			r.fail(el, DuplicateAssignment, lhs.Property.String())
			return
		}
		r.assigned[key] = true
	}
	r.res.Assignments = append(r.res.Assignments, AssignmentRecord{LHS: lhs, RHS: rhs, Element: el})
}

func (r *resolver) callStatement(c *langtree.FunctionCall) {
	o, fn := r.call(c)
	if o == nil {
		return
	}
	r.res.Values[c] = o
	if _, pure := fn.Semantics.(schema.Pure); pure {
		r.fail(c, DanglingPureExpression, fn.FqName())
	}
}

// expr resolves an expression in value position. It returns nil after
// recording an error, or when an error was already recorded for a
// subexpression.
func (r *resolver) expr(e langtree.Expr) ObjectOrigin {
	var o ObjectOrigin
	switch e := e.(type) {
	case *langtree.Literal:
		o = constant(e)
	case *langtree.Null:
		o = &NullOrigin{Src: e.Src}
	case *langtree.PropertyAccess:
		o = r.access(e)
	case *langtree.FunctionCall:
		v, fn := r.call(e)
		if v == nil {
			return nil
		}
		if fn.ReturnType() == schema.UnitType {
			r.fail(e, UnitAssignment, fn.FqName())
			return nil
		}
		o = v
	default:
		panic(fmt.Sprintf("resolve: expression %T not expected here", e))
	}
	if o != nil {
		r.res.Values[e] = o
	}
	return o
}

var literalTypes = [...]schema.TypeRef{
	langtree.IntLiteral:     schema.IntType,
	langtree.LongLiteral:    schema.LongType,
	langtree.StringLiteral:  schema.StringType,
	langtree.BooleanLiteral: schema.BooleanType,
}

func constant(l *langtree.Literal) *ConstantOrigin {
	return &ConstantOrigin{Type: literalTypes[l.Kind], Value: l.Value, Src: l.Src}
}

// coerce checks that o can be stored where target is expected. An Int
// literal converts to Long.
func (r *resolver) coerce(target schema.TypeRef, o ObjectOrigin) (ObjectOrigin, bool) {
	if r.schema.IsAssignable(target, TypeOf(o)) {
		return o, true
	}
	if c, ok := o.(*ConstantOrigin); ok && target == schema.LongType && c.Type == schema.IntType {
		return &ConstantOrigin{Type: schema.LongType, Value: int64(c.Value.(int32)), Src: c.Src}, true
	}
	return nil, false
}

func (r *resolver) access(pa *langtree.PropertyAccess) ObjectOrigin {
	if ext, ok := r.externalChain(pa); ok {
		r.res.Values[pa] = ext
		return ext
	}
	if pa.Receiver == nil {
		return r.lookupName(pa)
	}
	recv := r.expr(pa.Receiver)
	if recv == nil {
		return nil
	}
	return r.member(pa, recv, pa.Name)
}

func (r *resolver) member(pa *langtree.PropertyAccess, recv ObjectOrigin, name string) ObjectOrigin {
	c, ok := r.schema.Class(TypeOf(recv))
	if !ok {
		r.fail(pa, UnresolvedReference, fmt.Sprintf("%s on %s", name, TypeOf(recv)))
		return nil
	}
	prop := c.Property(name)
	if prop == nil {
		r.fail(pa, UnresolvedReference, fmt.Sprintf("%s on %s", name, c.Name))
		return nil
	}
	return &PropertyReference{Receiver: recv, Property: prop, Src: pa.Src}
}

// lookupName resolves a bare name: locals first, then implicit receivers
// from the innermost outwards, then imported external objects.
func (r *resolver) lookupName(pa *langtree.PropertyAccess) ObjectOrigin {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if l, ok := r.scopes[i].locals[pa.Name]; ok {
			if l.origin == nil {
				return nil
			}
			return &FromLocalValue{Name: pa.Name, Assigned: l.origin, Src: pa.Src}
		}
	}
	for i := len(r.scopes) - 1; i >= 0; i-- {
		recv := r.scopes[i].receiver
		c, ok := r.schema.Class(TypeOf(recv))
		if !ok {
			continue
		}
		if prop := c.Property(pa.Name); prop != nil {
			if !r.receiverAllowed(pa, i) {
				return nil
			}
			return &PropertyReference{Receiver: recv, Property: prop, Src: pa.Src}
		}
	}
	if fq, ok := r.res.Imports[pa.Name]; ok {
		if key, ok := r.schema.ExternalObjects[fq]; ok {
			return &ExternalOrigin{Key: key, Src: pa.Src}
		}
	}
	r.fail(pa, UnresolvedReference, pa.Name)
	return nil
}

func (r *resolver) receiverAllowed(el langtree.Node, scopeIndex int) bool {
	if !r.strictReceivers || scopeIndex == len(r.scopes)-1 {
		return true
	}
	r.fail(el, CrossScopeAccess, "")
	return false
}

// nameBound reports whether a bare name resolves to a local, a property of
// an implicit receiver or an import.
func (r *resolver) nameBound(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].locals[name]; ok {
			return true
		}
		if c, ok := r.schema.Class(TypeOf(r.scopes[i].receiver)); ok && c.Property(name) != nil {
			return true
		}
	}
	_, ok := r.res.Imports[name]
	return ok
}

// externalChain recognizes a fully-qualified reference to an external
// object written as a dotted chain.
func (r *resolver) externalChain(pa *langtree.PropertyAccess) (*ExternalOrigin, bool) {
	if pa.Receiver == nil {
		return nil, false
	}
	segs, ok := langtree.ChainSegments(pa)
	if !ok || r.nameBound(segs[0]) {
		return nil, false
	}
	key, ok := r.schema.ExternalObjects[strings.Join(segs, ".")]
	if !ok {
		return nil, false
	}
	return &ExternalOrigin{Key: key, Src: pa.Src}, true
}
