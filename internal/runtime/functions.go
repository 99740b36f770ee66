package runtime

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FunctionBody is the Risor implementation of an external pure function.
// Exactly one of Source and Script is set; Script names a .risor file.
type FunctionBody struct {
	Name   string   `yaml:"name" validate:"required"`
	Params []string `yaml:"params,omitempty" validate:"dive,required"`
	Source string   `yaml:"source,omitempty" validate:"required_without=Script,excluded_with=Script"`
	Script string   `yaml:"script,omitempty"`
}

// FunctionFile is the YAML document holding function bodies.
type FunctionFile struct {
	Functions []FunctionBody `yaml:"functions" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFunctions decodes a function file and registers every body in it.
func (r *Runtime) LoadFunctions(rd io.Reader) error {
	var ff FunctionFile
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&ff); err != nil {
		return fmt.Errorf("runtime: decode function file: %w", err)
	}
	if err := validate.Struct(&ff); err != nil {
		return fmt.Errorf("runtime: invalid function file: %w", err)
	}
	for _, body := range ff.Functions {
		r.Register(body)
	}
	return nil
}

// LoadFunctionsFile reads a function file from path.
func (r *Runtime) LoadFunctionsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("runtime: open %s: %w", path, err)
	}
	defer f.Close()
	return r.LoadFunctions(f)
}
