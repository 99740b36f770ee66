package objects

import (
	"fmt"

	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/trace"
)

// Context reflects origins against one trace. Invocations and data objects
// are memoized, so an object reached along two property paths is reflected
// once and shared. A Context belongs to a single evaluation.
type Context struct {
	schema *schema.AnalysisSchema
	trace  *trace.AssignmentTrace

	invocations map[int64]ObjectReflection
	objects     map[string]*DataObjectReflection
	nextID      int64
	unassigned  []Unassigned
}

// NewContext returns a reflection context. Objects that do not come from an
// invocation get identities counting up from firstID, which must be past
// every invocation id in use.
func NewContext(s *schema.AnalysisSchema, tr *trace.AssignmentTrace, firstID int64) *Context {
	return &Context{
		schema:      s,
		trace:       tr,
		invocations: make(map[int64]ObjectReflection),
		objects:     make(map[string]*DataObjectReflection),
		nextID:      firstID,
	}
}

// Reflect materializes an origin. It returns nil when the origin resolves
// to an unassigned property without a default; the use is recorded and
// reported by Unassigned.
func (c *Context) Reflect(o resolve.ObjectOrigin) ObjectReflection {
	switch o := resolve.Unwrap(o).(type) {
	case *resolve.TopLevelReceiver:
		return c.data(o, false)
	case *resolve.ConstantOrigin:
		return &ConstantValue{Type: o.Type, Value: o.Value, Origin: o}
	case *resolve.NullOrigin:
		return &Null{Origin: o}
	case *resolve.ExternalOrigin:
		return &External{Key: o.Key, Origin: o}
	case *resolve.FunctionInvocation:
		return c.invocation(o)
	case *resolve.PropertyDefaultValue:
		return c.defaultValue(o)
	case *resolve.PropertyReference:
		return c.property(o, o.Receiver, o.Property)
	case *resolve.ConfigureReceiver:
		return c.property(o, o.Receiver, o.Accessor)
	}
	panic(fmt.Sprintf("objects: origin %T not expected here", o))
}

// Unassigned returns the unassigned values used so far, in reflection order.
func (c *Context) Unassigned() []Unassigned { return c.unassigned }

func (c *Context) property(o, recv resolve.ObjectOrigin, prop *schema.DataProperty) ObjectReflection {
	obj, ok := c.trace.ReduceObject(recv)
	if !ok {
		c.unassigned = append(c.unassigned, Unassigned{Slot: resolve.Key(recv), Src: o.Source()})
		return nil
	}
	return c.slotValue(obj, prop, o, true)
}

// slotValue reflects the value of prop on a reduced object. When used is
// false an unassigned property without default is silently absent.
func (c *Context) slotValue(obj resolve.ObjectOrigin, prop *schema.DataProperty, at resolve.ObjectOrigin, used bool) ObjectReflection {
	res, ok := c.trace.Lookup(obj, prop.Name)
	switch {
	case ok && res.Assigned:
		return c.Reflect(res.Value)
	case ok:
		obj, prop, used = res.Final.Object, res.Final.Property, true
	}
	if prop.HasDefaultValue {
		return c.defaultValue(&resolve.PropertyDefaultValue{Receiver: obj, Property: prop, Src: at.Source()})
	}
	if used {
		c.unassigned = append(c.unassigned, Unassigned{Slot: trace.SlotKey(resolve.Key(obj), prop.Name), Src: at.Source()})
	}
	return nil
}

// defaultValue reflects the value of a property that is never assigned.
// Constant types take their zero value; data classes are materialized only
// when the schema declares them default-constructible.
func (c *Context) defaultValue(d *resolve.PropertyDefaultValue) ObjectReflection {
	if zero, ok := schema.ZeroValue(d.Property.Type); ok {
		return &ConstantValue{Type: d.Property.Type, Value: zero, Origin: d, IsDefault: true}
	}
	class, ok := c.schema.Class(d.Property.Type)
	if !ok || !class.DefaultConstructible {
		return nil
	}
	return c.data(d, true)
}

func (c *Context) invocation(inv *resolve.FunctionInvocation) ObjectReflection {
	if r, ok := c.invocations[inv.InvocationID]; ok {
		return r
	}
	switch inv.Function.Semantics.(type) {
	case schema.AddAndConfigure:
		d := c.data(inv, false)
		c.invocations[inv.InvocationID] = d
		return d
	case schema.Pure:
		p := &PureFunctionInvocation{
			Function: inv.Function,
			Identity: inv.InvocationID,
			Args:     make(map[string]ObjectReflection, len(inv.Args)),
			Origin:   inv,
		}
		c.invocations[inv.InvocationID] = p
		if inv.Receiver != nil {
			p.Receiver = c.Reflect(inv.Receiver)
		}
		for i, arg := range inv.Args {
			if arg == nil {
				continue
			}
			if v := c.Reflect(arg); v != nil {
				p.Args[inv.Function.Parameters[i].Name] = v
			}
		}
		if _, ok := c.schema.Class(inv.Function.ReturnType()); ok {
			p.Result = c.data(inv, false)
		}
		return p
	}
	panic(fmt.Sprintf("objects: invocation of %s function not expected here", schema.SemanticsName(inv.Function.Semantics)))
}

// data reflects the data object denoted by a reduced origin.
func (c *Context) data(obj resolve.ObjectOrigin, isDefault bool) *DataObjectReflection {
	key := resolve.Key(obj)
	if d, ok := c.objects[key]; ok {
		return d
	}
	t := resolve.TypeOf(obj)
	class, ok := c.schema.Class(t)
	if !ok {
		panic(fmt.Sprintf("objects: data object of type %s not expected here", t))
	}
	d := &DataObjectReflection{
		Identity:   c.identity(obj),
		Type:       t,
		Class:      class,
		Origin:     obj,
		Properties: make(map[string]ObjectReflection, len(class.Properties)),
		IsDefault:  isDefault,
	}
	c.objects[key] = d

	for _, p := range class.Properties {
		if v := c.slotValue(obj, p, obj, false); v != nil {
			d.Properties[p.Name] = v
		}
	}
	for _, added := range c.trace.AddedTo(obj) {
		if v := c.Reflect(added); v != nil {
			d.AddedObjects = append(d.AddedObjects, v)
		}
	}
	return d
}

func (c *Context) identity(obj resolve.ObjectOrigin) int64 {
	switch o := obj.(type) {
	case *resolve.TopLevelReceiver:
		return 0
	case *resolve.FunctionInvocation:
		return o.InvocationID
	}
	id := c.nextID
	c.nextID++
	return id
}

// ReflectTopLevel reflects the top-level receiver of a traced result and
// returns the unassigned values the reflection used.
func ReflectTopLevel(s *schema.AnalysisSchema, res *resolve.Result, tr *trace.AssignmentTrace) (*DataObjectReflection, []Unassigned) {
	c := NewContext(s, tr, res.NextInvocationID)
	top := c.Reflect(res.TopLevelReceiver).(*DataObjectReflection)
	return top, c.Unassigned()
}
