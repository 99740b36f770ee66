package notation

import (
	"github.com/jward/notation/internal/convention"
	"github.com/jward/notation/internal/document"
	"github.com/jward/notation/internal/objects"
	"github.com/jward/notation/internal/runtime"
	"github.com/jward/notation/internal/schema"
	"github.com/jward/notation/internal/schemabuild"
	"github.com/jward/notation/internal/store"
)

// Public type aliases for internal types used in the Evaluator API. These
// are Go type aliases (=), identical to the internal types at compile time.

type Schema = schema.AnalysisSchema
type Conventions = convention.Registry
type Runtime = runtime.Runtime
type Store = store.Store
type Document = store.Document
type ErrorCount = store.ErrorCount
type DocumentView = document.Document
type Diagnostic = document.Diagnostic
type ObjectReflection = objects.ObjectReflection
type DataObjectReflection = objects.DataObjectReflection
type RuntimeOption = runtime.RuntimeOption

// Runtime options, re-exported for embedders configuring function bodies.
var (
	WithScriptsDir    = runtime.WithScriptsDir
	WithRuntimeFS     = runtime.WithRuntimeFS
	WithRuntimeLogger = runtime.WithRuntimeLogger
)

// LoadSchema reads a YAML type descriptor table and builds its schema.
func LoadSchema(path string) (*Schema, error) {
	t, err := schemabuild.LoadTableFile(path)
	if err != nil {
		return nil, err
	}
	return schemabuild.Build(t)
}

// NewConventions creates a convention registry mapping software type names
// to the top-level properties they configure.
func NewConventions(softwareTypes map[string]string) *Conventions {
	return convention.NewRegistry(softwareTypes)
}

// NewRuntime creates an empty Runtime for external function bodies.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	return runtime.NewRuntime(opts...)
}

// OpenStore opens (creating if needed) the SQLite store at path.
func OpenStore(path string) (*Store, error) {
	s, err := store.NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// IsScriptFile reports whether path has a script file extension.
func IsScriptFile(path string) bool {
	return runtime.IsScriptFile(path)
}
