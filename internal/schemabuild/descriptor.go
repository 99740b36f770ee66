package schemabuild

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jward/notation/internal/schema"
)

// Annotation marks a host function for inclusion in the schema.
type Annotation string

const (
	Builder     Annotation = "Builder"
	Configuring Annotation = "Configuring"
	Adding      Annotation = "Adding"
	// Restricted includes a function with pure semantics.
	Restricted Annotation = "Restricted"
	// Hidden excludes a property or function that would otherwise be included.
	Hidden Annotation = "Hidden"
)

// Table is the ahead-of-time description of the host types a schema is
// built from. It replaces runtime introspection of host classes.
type Table struct {
	TopLevel          schema.TypeRef       `yaml:"topLevel" validate:"required"`
	Types             []TypeDescriptor     `yaml:"types" validate:"required,min=1,dive"`
	ExternalFunctions []FunctionDescriptor `yaml:"externalFunctions,omitempty" validate:"dive"`
	ExternalObjects   []ExternalObject     `yaml:"externalObjects,omitempty" validate:"dive"`
	DefaultImports    []string             `yaml:"defaultImports,omitempty" validate:"dive,required"`
}

// TypeDescriptor describes one host type.
type TypeDescriptor struct {
	Name                 schema.TypeRef          `yaml:"name" validate:"required"`
	Supertypes           []schema.TypeRef        `yaml:"supertypes,omitempty" validate:"dive,required"`
	DefaultConstructible bool                    `yaml:"defaultConstructible,omitempty"`
	Properties           []PropertyDescriptor    `yaml:"properties,omitempty" validate:"dive"`
	Constructors         []ConstructorDescriptor `yaml:"constructors,omitempty" validate:"dive"`
	Functions            []FunctionDescriptor    `yaml:"functions,omitempty" validate:"dive"`
}

// PropertyDescriptor describes a declared member property.
type PropertyDescriptor struct {
	Name        string         `yaml:"name" validate:"required"`
	Type        schema.TypeRef `yaml:"type" validate:"required"`
	Mutable     bool           `yaml:"mutable,omitempty"`
	Private     bool           `yaml:"private,omitempty"`
	HasDefault  bool           `yaml:"hasDefault,omitempty"`
	Annotations []Annotation   `yaml:"annotations,omitempty"`
}

// ConstructorDescriptor describes a constructor signature.
type ConstructorDescriptor struct {
	Parameters []ParameterDescriptor `yaml:"parameters,omitempty" validate:"dive"`
	Private    bool                  `yaml:"private,omitempty"`
}

// FunctionDescriptor describes a member function, or a top-level function
// when Package is set and it appears in Table.ExternalFunctions.
type FunctionDescriptor struct {
	Name        string                `yaml:"name" validate:"required"`
	Package     string                `yaml:"package,omitempty"`
	Parameters  []ParameterDescriptor `yaml:"parameters,omitempty" validate:"dive"`
	Returns     schema.TypeRef        `yaml:"returns,omitempty"`
	Annotations []Annotation          `yaml:"annotations,omitempty"`
	// ConfiguredProperty overrides the property a Configuring function accesses.
	ConfiguredProperty string `yaml:"configuredProperty,omitempty"`
	Private            bool   `yaml:"private,omitempty"`
}

// ParameterDescriptor is either a data parameter (Type) or a function-typed
// parameter (Lambda).
type ParameterDescriptor struct {
	Name       string            `yaml:"name" validate:"required"`
	Type       schema.TypeRef    `yaml:"type,omitempty" validate:"required_without=Lambda"`
	HasDefault bool              `yaml:"hasDefault,omitempty"`
	Lambda     *LambdaDescriptor `yaml:"lambda,omitempty"`
}

// LambdaDescriptor is a function type "Receiver.() -> Returns".
type LambdaDescriptor struct {
	Receiver schema.TypeRef `yaml:"receiver" validate:"required"`
	Returns  schema.TypeRef `yaml:"returns,omitempty"`
}

// ExternalObject is an object supplied by the embedder under a fully-qualified name.
type ExternalObject struct {
	Name string         `yaml:"name" validate:"required"`
	Type schema.TypeRef `yaml:"type" validate:"required"`
}

func (f *FunctionDescriptor) has(a Annotation) bool {
	for _, x := range f.Annotations {
		if x == a {
			return true
		}
	}
	return false
}

func (p *PropertyDescriptor) hidden() bool {
	for _, x := range p.Annotations {
		if x == Hidden {
			return true
		}
	}
	return false
}

// trailingLambda returns the last parameter when it is function-typed.
func (f *FunctionDescriptor) trailingLambda() *ParameterDescriptor {
	if len(f.Parameters) == 0 {
		return nil
	}
	last := &f.Parameters[len(f.Parameters)-1]
	if last.Lambda == nil {
		return nil
	}
	return last
}

func (f *FunctionDescriptor) returns() schema.TypeRef {
	if f.Returns == "" {
		return schema.UnitType
	}
	return f.Returns
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural constraints of the table.
func (t *Table) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("schemabuild: invalid descriptor table: %w", err)
	}
	return nil
}

// LoadTable decodes and validates a YAML descriptor table.
func LoadTable(r io.Reader) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("schemabuild: decode descriptor table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTableFile reads a YAML descriptor table from path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schemabuild: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadTable(f)
}
