package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/notation"
	"github.com/jward/notation/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema built from --schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return outputError("schema", err)
		}
		return outputResult(CLIResult{Command: "schema", Results: cliSchema(s)})
	},
}

func cliSchema(s *notation.Schema) CLISchema {
	out := CLISchema{TopLevel: s.TopLevelReceiverType.String(), Fingerprint: s.Fingerprint()}

	names := make([]string, 0, len(s.DataClasses))
	for name := range s.DataClasses {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.DataClasses[schema.TypeRef(name)]
		cc := CLIClass{Name: name}
		for _, st := range c.Supertypes {
			cc.Supertypes = append(cc.Supertypes, st.String())
		}
		for _, p := range c.Properties {
			cc.Properties = append(cc.Properties, CLIProperty{
				Name: p.Name, Type: p.Type.String(), ReadOnly: p.ReadOnly, HasDefault: p.HasDefaultValue,
			})
		}
		for _, f := range c.Constructors {
			cc.Functions = append(cc.Functions, cliFunction(f))
		}
		for _, f := range c.MemberFunctions {
			cc.Functions = append(cc.Functions, cliFunction(f))
		}
		out.Classes = append(out.Classes, cc)
	}

	fns := make([]string, 0, len(s.ExternalFunctions))
	for name := range s.ExternalFunctions {
		fns = append(fns, name)
	}
	sort.Strings(fns)
	for _, name := range fns {
		out.Functions = append(out.Functions, cliFunction(s.ExternalFunctions[name]))
	}
	for name := range s.ExternalObjects {
		out.Externals = append(out.Externals, name)
	}
	sort.Strings(out.Externals)
	return out
}

func cliFunction(f *schema.Function) CLIFunction {
	return CLIFunction{Signature: f.String(), Semantics: schema.SemanticsName(f.Semantics)}
}
