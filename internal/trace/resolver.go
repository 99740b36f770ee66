// Package trace follows assignment chains to their final values. Property
// slots and values live in an append-only arena addressed by integer ids;
// each assigned slot points at the node it was last assigned from.
package trace

import (
	"fmt"
	"strings"

	"github.com/jward/notation/internal/resolve"
	"github.com/jward/notation/internal/schema"
)

// Slot is a property of a concrete object. Object is a reduced origin: never
// a property reference, configure receiver, local value or builder result.
type Slot struct {
	Object   resolve.ObjectOrigin
	Property *schema.DataProperty
}

// Key identifies the slot.
func (s Slot) Key() string { return SlotKey(resolve.Key(s.Object), s.Property.Name) }

func (s Slot) String() string { return s.Key() }

// SlotKey builds a slot key from an object key and a property name.
func SlotKey(objectKey, property string) string { return objectKey + "#" + property }

// AdditionResult reports how an assignment was recorded.
type AdditionResult uint8

const (
	AssignmentAdded AdditionResult = iota
	// Reassigned means the slot already had a binding, which was replaced.
	Reassigned
	UnresolvedValueUsedInLhs
	UnresolvedValueUsedInRhs
)

var additionResultNames = [...]string{
	AssignmentAdded:          "assignment added",
	Reassigned:               "reassigned",
	UnresolvedValueUsedInLhs: "unresolved value used in lhs",
	UnresolvedValueUsedInRhs: "unresolved value used in rhs",
}

func (r AdditionResult) String() string { return additionResultNames[r] }

// Failed reports whether the assignment could not be recorded.
func (r AdditionResult) Failed() bool {
	return r == UnresolvedValueUsedInLhs || r == UnresolvedValueUsedInRhs
}

// Result is the final resolution of one assigned slot: either a value, or
// the furthest slot reached when the chain ends in an unassigned property.
type Result struct {
	Slot     Slot
	Assigned bool
	Value    resolve.ObjectOrigin
	Final    Slot
}

func (r Result) String() string {
	if r.Assigned {
		return fmt.Sprintf("%s -> Assigned(%s)", r.Slot, resolve.Key(r.Value))
	}
	return fmt.Sprintf("%s -> Unassigned(%s)", r.Slot, r.Final)
}

// CycleError reports assignment chains that loop back on themselves.
type CycleError struct {
	Slots []string
}

func (e *CycleError) Error() string {
	return "trace: assignment cycle: " + strings.Join(e.Slots, " -> ")
}

type node struct {
	slot  *Slot                // set for slot nodes
	value resolve.ObjectOrigin // set for value nodes
}

const unassigned = -1

// AssignmentResolver records assignments in order and resolves them.
// It is private to one evaluation.
type AssignmentResolver struct {
	nodes  []node
	parent []int
	index  map[string]int
	// order lists assigned slot ids in first-assignment order.
	order []int
}

// NewAssignmentResolver returns an empty resolver.
func NewAssignmentResolver() *AssignmentResolver {
	return &AssignmentResolver{index: make(map[string]int)}
}

func (r *AssignmentResolver) slotNode(s Slot) int {
	key := s.Key()
	if id, ok := r.index[key]; ok {
		return id
	}
	id := len(r.nodes)
	slot := s
	r.nodes = append(r.nodes, node{slot: &slot})
	r.parent = append(r.parent, unassigned)
	r.index[key] = id
	return id
}

func (r *AssignmentResolver) valueNode(v resolve.ObjectOrigin) int {
	id := len(r.nodes)
	r.nodes = append(r.nodes, node{value: v})
	r.parent = append(r.parent, id)
	return id
}

// AddAssignment records lhs := rhs. Both sides are reduced against the
// assignments recorded so far.
func (r *AssignmentResolver) AddAssignment(lhs resolve.PropertyReferenceResolution, rhs resolve.ObjectOrigin) AdditionResult {
	obj, ok := r.ReduceObject(lhs.Receiver)
	if !ok {
		return UnresolvedValueUsedInLhs
	}
	target, ok := r.reduceValue(rhs)
	if !ok {
		return UnresolvedValueUsedInRhs
	}
	id := r.slotNode(Slot{Object: obj, Property: lhs.Property})
	result := AssignmentAdded
	if r.parent[id] != unassigned {
		result = Reassigned
	} else {
		r.order = append(r.order, id)
	}
	r.parent[id] = target
	return result
}

// reduceValue turns an assigned value into a node: property references
// become slot nodes, everything else becomes a value node.
func (r *AssignmentResolver) reduceValue(o resolve.ObjectOrigin) (int, bool) {
	switch v := resolve.Unwrap(o).(type) {
	case *resolve.PropertyReference:
		obj, ok := r.ReduceObject(v.Receiver)
		if !ok {
			return 0, false
		}
		return r.slotNode(Slot{Object: obj, Property: v.Property}), true
	case *resolve.ConfigureReceiver:
		obj, ok := r.ReduceObject(v.Receiver)
		if !ok {
			return 0, false
		}
		return r.slotNode(Slot{Object: obj, Property: v.Accessor}), true
	default:
		return r.valueNode(v), true
	}
}

// ReduceObject resolves an origin used as a receiver to the object it
// denotes. An unassigned property with a default denotes its default value;
// one without a default cannot be reduced.
func (r *AssignmentResolver) ReduceObject(o resolve.ObjectOrigin) (resolve.ObjectOrigin, bool) {
	var (
		recv resolve.ObjectOrigin
		prop *schema.DataProperty
	)
	switch v := resolve.Unwrap(o).(type) {
	case *resolve.PropertyReference:
		recv, prop = v.Receiver, v.Property
	case *resolve.ConfigureReceiver:
		recv, prop = v.Receiver, v.Accessor
	default:
		return v, true
	}
	obj, ok := r.ReduceObject(recv)
	if !ok {
		return nil, false
	}
	slot := Slot{Object: obj, Property: prop}
	if id, ok := r.index[slot.Key()]; ok {
		res, err := r.follow(id)
		if err != nil {
			return nil, false
		}
		if res.Assigned {
			return r.ReduceObject(res.Value)
		}
		slot = res.Final
	}
	if !slot.Property.HasDefaultValue {
		return nil, false
	}
	return &resolve.PropertyDefaultValue{Receiver: slot.Object, Property: slot.Property, Src: o.Source()}, true
}

// follow walks parent links from id without compressing them.
func (r *AssignmentResolver) follow(id int) (Result, error) {
	start := *r.nodes[id].slot
	seen := map[int]bool{}
	var path []string
	for {
		if seen[id] {
			return Result{}, &CycleError{Slots: append(path, r.nodes[id].slot.Key())}
		}
		seen[id] = true
		n := r.nodes[id]
		if n.value != nil {
			return Result{Slot: start, Assigned: true, Value: n.value}, nil
		}
		path = append(path, n.slot.Key())
		next := r.parent[id]
		if next == unassigned {
			return Result{Slot: start, Final: *n.slot}, nil
		}
		id = next
	}
}

// Results resolves every assigned slot, keyed by slot key. Each node's
// resolution is computed once and shared along compressed paths. Calling
// Results again returns equal maps.
func (r *AssignmentResolver) Results() (map[string]Result, error) {
	parent := append([]int(nil), r.parent...)
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(r.nodes))

	var find func(id int) (int, error)
	find = func(id int) (int, error) {
		switch state[id] {
		case done:
			return parent[id], nil
		case visiting:
			return 0, &CycleError{Slots: r.cycleFrom(id)}
		}
		n := r.nodes[id]
		if n.value != nil || parent[id] == unassigned {
			state[id] = done
			parent[id] = id
			return id, nil
		}
		state[id] = visiting
		root, err := find(parent[id])
		if err != nil {
			return 0, err
		}
		parent[id] = root
		state[id] = done
		return root, nil
	}

	out := make(map[string]Result, len(r.order))
	for _, id := range r.order {
		root, err := find(id)
		if err != nil {
			return nil, err
		}
		slot := *r.nodes[id].slot
		if v := r.nodes[root].value; v != nil {
			out[slot.Key()] = Result{Slot: slot, Assigned: true, Value: v}
		} else {
			out[slot.Key()] = Result{Slot: slot, Final: *r.nodes[root].slot}
		}
	}
	return out, nil
}

func (r *AssignmentResolver) cycleFrom(id int) []string {
	var keys []string
	seen := map[int]bool{}
	for !seen[id] {
		seen[id] = true
		keys = append(keys, r.nodes[id].slot.Key())
		id = r.parent[id]
	}
	return append(keys, r.nodes[id].slot.Key())
}
