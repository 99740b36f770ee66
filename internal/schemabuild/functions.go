package schemabuild

import (
	"fmt"

	"github.com/jward/notation/internal/schema"
)

func (b *builder) buildFunctions(td *TypeDescriptor) error {
	c := b.classes[td.Name]
	for i := range td.Functions {
		fd := &td.Functions[i]
		if fd.Private || fd.has(Hidden) || identityFunctions[fd.Name] {
			continue
		}
		if !fd.has(Builder) && !fd.has(Configuring) && !fd.has(Adding) && !fd.has(Restricted) {
			continue
		}
		f, err := b.memberFunction(c, fd)
		if err != nil {
			return err
		}
		c.MemberFunctions = append(c.MemberFunctions, f)
	}
	for _, ctor := range td.Constructors {
		if ctor.Private {
			continue
		}
		params, err := b.dataParameters(td.Name, td.Name.SimpleName(), ctor.Parameters)
		if err != nil {
			return err
		}
		c.Constructors = append(c.Constructors, &schema.Function{
			Kind:       schema.Constructor,
			Receiver:   td.Name,
			Name:       td.Name.SimpleName(),
			Parameters: params,
			Semantics:  schema.Pure{Returns: td.Name},
		})
	}
	return nil
}

// memberFunction infers semantics in priority order: Builder, Adding,
// Configuring, then pure.
func (b *builder) memberFunction(c *schema.DataClass, fd *FunctionDescriptor) (*schema.Function, error) {
	f := &schema.Function{Kind: schema.MemberFunction, Receiver: c.Name, Name: fd.Name}
	var err error
	switch {
	case fd.has(Builder):
		err = b.builderSemantics(c, fd, f)
	case fd.has(Adding):
		err = b.addingSemantics(c, fd, f)
	case fd.has(Configuring):
		err = b.configuringSemantics(c, fd, f)
	default:
		err = b.pureSemantics(c.Name, fd, f)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *builder) buildTopLevel(fd *FunctionDescriptor) (*schema.Function, error) {
	f := &schema.Function{Kind: schema.TopLevelFunction, Package: fd.Package, Name: fd.Name}
	if err := b.pureSemantics("", fd, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *builder) pureSemantics(owner schema.TypeRef, fd *FunctionDescriptor, f *schema.Function) error {
	if fd.trailingLambda() != nil {
		return &SchemaError{Kind: MalformedFunction, Type: owner, Member: fd.Name, Detail: "pure function takes a lambda"}
	}
	ret := fd.returns()
	if ret != schema.UnitType {
		if err := b.checkRef(owner, fd.Name, ret); err != nil {
			return err
		}
	}
	params, err := b.dataParameters(owner, fd.Name, fd.Parameters)
	if err != nil {
		return err
	}
	f.Parameters = params
	f.Semantics = schema.Pure{Returns: ret}
	return nil
}

func (b *builder) builderSemantics(c *schema.DataClass, fd *FunctionDescriptor, f *schema.Function) error {
	malformed := func(detail string) error {
		return &SchemaError{Kind: MalformedBuilder, Type: c.Name, Member: fd.Name, Detail: detail}
	}
	if len(fd.Parameters) != 1 || fd.Parameters[0].Lambda != nil {
		return malformed("a builder takes exactly one data parameter")
	}
	param := fd.Parameters[0]
	if param.HasDefault {
		return malformed(fmt.Sprintf("parameter %s: a builder parameter has no default", param.Name))
	}
	prop := c.Property(param.Name)
	if prop == nil || prop.Type != param.Type {
		return malformed(fmt.Sprintf("parameter %s: %s matches no property", param.Name, param.Type))
	}
	if fd.returns() != c.Name {
		return malformed("a builder returns its receiver type")
	}
	params, err := b.dataParameters(c.Name, fd.Name, fd.Parameters)
	if err != nil {
		return err
	}
	f.Parameters = params
	f.Semantics = schema.Builder{Property: prop}
	return nil
}

func (b *builder) addingSemantics(c *schema.DataClass, fd *FunctionDescriptor, f *schema.Function) error {
	ret := fd.returns()
	if ret == schema.UnitType {
		return &SchemaError{Kind: MalformedAdding, Type: c.Name, Member: fd.Name, Detail: "an adding function returns the added element"}
	}
	if err := b.checkRef(c.Name, fd.Name, ret); err != nil {
		return err
	}

	dataParams := fd.Parameters
	block := schema.BlockNotAllowed
	if lambda := fd.trailingLambda(); lambda != nil {
		if !isConfiguringLambda(lambda.Lambda, ret) {
			return &SchemaError{Kind: MalformedAdding, Type: c.Name, Member: fd.Name,
				Detail: fmt.Sprintf("trailing lambda %s is not %s.() -> Unit", lambda.Name, ret)}
		}
		dataParams = fd.Parameters[:len(fd.Parameters)-1]
		block = schema.BlockRequired
		if lambda.HasDefault {
			block = schema.BlockOptional
		}
	}

	params, err := b.dataParameters(c.Name, fd.Name, dataParams)
	if err != nil {
		return err
	}
	if produced, ok := b.classes[ret]; ok {
		for _, p := range params {
			if prop := produced.Property(p.Name); prop != nil && prop.Type == p.Type {
				p.Semantics = schema.StoreValueInProperty{Property: prop}
			}
		}
	}
	f.Parameters = params
	f.Semantics = schema.AddAndConfigure{ObjectType: ret, BlockRequirement: block}
	return nil
}

func (b *builder) configuringSemantics(c *schema.DataClass, fd *FunctionDescriptor, f *schema.Function) error {
	malformed := func(detail string) error {
		return &SchemaError{Kind: MalformedConfiguring, Type: c.Name, Member: fd.Name, Detail: detail}
	}
	name := fd.ConfiguredProperty
	if name == "" {
		name = fd.Name
	}
	prop := c.Property(name)
	if prop == nil {
		return malformed("no property named " + name)
	}
	lambda := fd.trailingLambda()
	if lambda == nil || len(fd.Parameters) != 1 {
		return malformed("a configuring function takes exactly one configuring lambda")
	}
	if !isConfiguringLambda(lambda.Lambda, prop.Type) {
		return malformed(fmt.Sprintf("lambda receiver %s does not match property type %s", lambda.Lambda.Receiver, prop.Type))
	}
	ret := fd.returns()
	if ret != schema.UnitType && ret != prop.Type {
		return malformed(fmt.Sprintf("returns %s, expected Unit or %s", ret, prop.Type))
	}
	f.Parameters = nil
	f.Semantics = schema.AccessAndConfigure{Accessor: prop, ReturnsConfigured: ret == prop.Type}
	return nil
}

func isConfiguringLambda(l *LambdaDescriptor, receiver schema.TypeRef) bool {
	return l.Receiver == receiver && (l.Returns == "" || l.Returns == schema.UnitType)
}

func (b *builder) dataParameters(owner schema.TypeRef, member string, in []ParameterDescriptor) ([]*schema.DataParameter, error) {
	out := make([]*schema.DataParameter, 0, len(in))
	for _, p := range in {
		if p.Lambda != nil {
			return nil, &SchemaError{Kind: MalformedFunction, Type: owner, Member: member,
				Detail: "lambda parameter " + p.Name + " is not in trailing position"}
		}
		if p.Type == schema.UnitType {
			return nil, &SchemaError{Kind: MalformedFunction, Type: owner, Member: member, Detail: "Unit parameter " + p.Name}
		}
		if err := b.checkRef(owner, member, p.Type); err != nil {
			return nil, err
		}
		out = append(out, &schema.DataParameter{
			Name:       p.Name,
			Type:       p.Type,
			HasDefault: p.HasDefault,
			Semantics:  schema.UnknownParameter{},
		})
	}
	return out, nil
}
