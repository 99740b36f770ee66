// Package schemabuild turns a type descriptor table into an analysis schema,
// inferring which members are visible to scripts and how each function call
// is resolved.
package schemabuild

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jward/notation/internal/schema"
)

// ErrorKind classifies a schema construction failure.
type ErrorKind uint8

const (
	TypeNotInScope ErrorKind = iota
	DuplicateType
	UnknownTopLevel
	MalformedBuilder
	MalformedAdding
	MalformedConfiguring
	MalformedFunction
	AmbiguousAccessor
)

var errorKindNames = [...]string{
	TypeNotInScope:       "type not in schema scope",
	DuplicateType:        "duplicate type",
	UnknownTopLevel:      "unknown top-level receiver type",
	MalformedBuilder:     "malformed builder function",
	MalformedAdding:      "malformed adding function",
	MalformedConfiguring: "malformed configuring function",
	MalformedFunction:    "malformed function",
	AmbiguousAccessor:    "ambiguous accessor",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// SchemaError is a fatal schema construction error. It reports a
// misconfiguration of the embedder, never a script error.
type SchemaError struct {
	Kind   ErrorKind
	Type   schema.TypeRef
	Member string
	Detail string
}

func (e *SchemaError) Error() string {
	where := string(e.Type)
	if e.Member != "" {
		where += "." + e.Member
	}
	if e.Detail == "" {
		return fmt.Sprintf("schemabuild: %s: %s", e.Kind, where)
	}
	return fmt.Sprintf("schemabuild: %s: %s: %s", e.Kind, where, e.Detail)
}

var identityFunctions = map[string]bool{
	"toString": true,
	"equals":   true,
	"hashCode": true,
}

type builder struct {
	table   *Table
	byName  map[schema.TypeRef]*TypeDescriptor
	classes map[schema.TypeRef]*schema.DataClass
}

// Build produces an AnalysisSchema from t. Every property, parameter and
// return type must be a builtin or a type in the table.
func Build(t *Table) (*schema.AnalysisSchema, error) {
	b := &builder{
		table:   t,
		byName:  make(map[schema.TypeRef]*TypeDescriptor, len(t.Types)),
		classes: make(map[schema.TypeRef]*schema.DataClass, len(t.Types)),
	}
	for i := range t.Types {
		td := &t.Types[i]
		if _, dup := b.byName[td.Name]; dup {
			return nil, &SchemaError{Kind: DuplicateType, Type: td.Name}
		}
		b.byName[td.Name] = td
	}
	if _, ok := b.byName[t.TopLevel]; !ok {
		return nil, &SchemaError{Kind: UnknownTopLevel, Type: t.TopLevel}
	}

	// Properties first: function semantics refer to properties of other types.
	for i := range t.Types {
		c, err := b.buildClass(&t.Types[i])
		if err != nil {
			return nil, err
		}
		b.classes[c.Name] = c
	}
	for i := range t.Types {
		if err := b.buildFunctions(&t.Types[i]); err != nil {
			return nil, err
		}
	}

	s := &schema.AnalysisSchema{
		TopLevelReceiverType: t.TopLevel,
		DataClasses:          b.classes,
		ExternalFunctions:    make(map[string]*schema.Function, len(t.ExternalFunctions)),
		ExternalObjects:      make(map[string]schema.ExternalObjectProviderKey, len(t.ExternalObjects)),
		DefaultImports:       append([]string(nil), t.DefaultImports...),
	}
	for i := range t.ExternalFunctions {
		fd := &t.ExternalFunctions[i]
		f, err := b.buildTopLevel(fd)
		if err != nil {
			return nil, err
		}
		s.ExternalFunctions[f.FqName()] = f
	}
	for _, obj := range t.ExternalObjects {
		if err := b.checkRef("", obj.Name, obj.Type); err != nil {
			return nil, err
		}
		s.ExternalObjects[obj.Name] = schema.ExternalObjectProviderKey{Name: obj.Name, Type: obj.Type}
	}
	return s, nil
}

// checkRef fails unless ref is a builtin or a type in the table.
func (b *builder) checkRef(owner schema.TypeRef, member string, ref schema.TypeRef) error {
	if ref.IsBuiltin() {
		return nil
	}
	if _, ok := b.byName[ref]; ok {
		return nil
	}
	return &SchemaError{Kind: TypeNotInScope, Type: owner, Member: member, Detail: string(ref)}
}

func (b *builder) buildClass(td *TypeDescriptor) (*schema.DataClass, error) {
	c := &schema.DataClass{
		Name:                 td.Name,
		Supertypes:           append([]schema.TypeRef(nil), td.Supertypes...),
		DefaultConstructible: td.DefaultConstructible,
	}
	for _, super := range td.Supertypes {
		if err := b.checkRef(td.Name, "", super); err != nil {
			return nil, err
		}
	}

	setters := make(map[string]schema.TypeRef)
	for _, fd := range td.Functions {
		if name, typ, ok := setterOf(&fd); ok && !fd.Private {
			setters[name] = typ
		}
	}

	for _, pd := range td.Properties {
		if pd.hidden() {
			continue
		}
		if pd.Private && !matchesConstructorParam(td, pd.Name, pd.Type) {
			continue
		}
		if err := b.checkRef(td.Name, pd.Name, pd.Type); err != nil {
			return nil, err
		}
		readOnly := !pd.Mutable
		if typ, ok := setters[pd.Name]; ok && typ == pd.Type {
			readOnly = false
		}
		c.Properties = append(c.Properties, &schema.DataProperty{
			Owner:           td.Name,
			Name:            pd.Name,
			Type:            pd.Type,
			ReadOnly:        readOnly,
			HasDefaultValue: pd.HasDefault,
		})
	}

	synthesized, err := b.accessorProperties(td, c)
	if err != nil {
		return nil, err
	}
	c.Properties = append(c.Properties, synthesized...)
	return c, nil
}

func matchesConstructorParam(td *TypeDescriptor, name string, typ schema.TypeRef) bool {
	for _, ctor := range td.Constructors {
		for _, p := range ctor.Parameters {
			if p.Name == name && p.Type == typ {
				return true
			}
		}
	}
	return false
}

// accessorProperties synthesizes properties from getter/setter pairs.
func (b *builder) accessorProperties(td *TypeDescriptor, c *schema.DataClass) ([]*schema.DataProperty, error) {
	type accessorPair struct {
		getterType schema.TypeRef
		getters    []string
		setterType schema.TypeRef
		setter     string
	}
	pairs := make(map[string]*accessorPair)
	var order []string
	pair := func(name string) *accessorPair {
		p, ok := pairs[name]
		if !ok {
			p = &accessorPair{}
			pairs[name] = p
			order = append(order, name)
		}
		return p
	}

	for i := range td.Functions {
		fd := &td.Functions[i]
		if fd.Private || fd.has(Hidden) || len(fd.Annotations) > 0 {
			continue
		}
		if name, typ, ok := getterOf(fd); ok {
			p := pair(name)
			p.getters = append(p.getters, fd.Name)
			if p.getterType != "" && p.getterType != typ {
				return nil, &SchemaError{Kind: AmbiguousAccessor, Type: td.Name, Member: name, Detail: "getters disagree on type"}
			}
			p.getterType = typ
		} else if name, typ, ok := setterOf(fd); ok {
			p := pair(name)
			p.setter = fd.Name
			p.setterType = typ
		}
	}

	var out []*schema.DataProperty
	for _, name := range order {
		p := pairs[name]
		if len(p.getters) == 0 {
			// A lone setter is not a property; it stays an ordinary (excluded) function.
			continue
		}
		if len(p.getters) > 1 {
			return nil, &SchemaError{Kind: AmbiguousAccessor, Type: td.Name, Member: name,
				Detail: "several getters: " + strings.Join(p.getters, ", ")}
		}
		if p.setter != "" && p.setterType != p.getterType {
			return nil, &SchemaError{Kind: AmbiguousAccessor, Type: td.Name, Member: name,
				Detail: fmt.Sprintf("getter returns %s, setter accepts %s", p.getterType, p.setterType)}
		}
		if c.Property(name) != nil {
			continue
		}
		if err := b.checkRef(td.Name, name, p.getterType); err != nil {
			return nil, err
		}
		out = append(out, &schema.DataProperty{
			Owner:    td.Name,
			Name:     name,
			Type:     p.getterType,
			ReadOnly: p.setter == "",
		})
	}
	return out, nil
}

// getterOf recognizes getX() and isX() accessors.
func getterOf(fd *FunctionDescriptor) (string, schema.TypeRef, bool) {
	if len(fd.Parameters) != 0 || fd.returns() == schema.UnitType {
		return "", "", false
	}
	if rest, ok := accessorSuffix(fd.Name, "get"); ok {
		return decapitalize(rest), fd.Returns, true
	}
	if _, ok := accessorSuffix(fd.Name, "is"); ok && fd.Returns == schema.BooleanType {
		return fd.Name, fd.Returns, true
	}
	return "", "", false
}

// setterOf recognizes setX(value) accessors returning Unit.
func setterOf(fd *FunctionDescriptor) (string, schema.TypeRef, bool) {
	if len(fd.Parameters) != 1 || fd.Parameters[0].Lambda != nil || fd.returns() != schema.UnitType {
		return "", "", false
	}
	rest, ok := accessorSuffix(fd.Name, "set")
	if !ok {
		return "", "", false
	}
	typ := fd.Parameters[0].Type
	if typ == schema.BooleanType {
		return "is" + rest, typ, true
	}
	return decapitalize(rest), typ, true
}

func accessorSuffix(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return "", false
	}
	rest := name[len(prefix):]
	if !unicode.IsUpper([]rune(rest)[0]) {
		return "", false
	}
	return rest, true
}

func decapitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
