package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// Runtime embeds a Risor VM that evaluates the bodies of external pure
// functions. Bodies receive their arguments as globals named after the
// function's parameters; the value of the last expression is the result.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger

	mu        sync.RWMutex
	functions map[string]FunctionBody
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load body scripts from an fs.FS
// instead of from disk. Risor import statements resolve against the same FS.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithScriptsDir sets the directory body scripts and Risor imports are
// resolved against.
func WithScriptsDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.scriptsDir = dir
	}
}

// WithRuntimeLogger sets the logger exposed to bodies as the "log" global.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates an empty Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		logger:    slog.Default(),
		functions: make(map[string]FunctionBody),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the body of a function.
func (r *Runtime) Register(body FunctionBody) {
	r.mu.Lock()
	r.functions[body.Name] = body
	r.mu.Unlock()
}

// Has reports whether a body is registered for the fully-qualified name.
func (r *Runtime) Has(fqName string) bool {
	r.mu.RLock()
	_, ok := r.functions[fqName]
	r.mu.RUnlock()
	return ok
}

// Names returns the registered function names.
func (r *Runtime) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// Call evaluates the body registered for fqName. args maps parameter names
// to Go values; parameters without an argument are bound to nil.
func (r *Runtime) Call(ctx context.Context, fqName string, args map[string]any) (any, error) {
	r.mu.RLock()
	body, ok := r.functions[fqName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("runtime: no body for function %s", fqName)
	}

	src := body.Source
	if src == "" {
		loaded, err := r.LoadScript(body.Script)
		if err != nil {
			return nil, err
		}
		src = loaded
	}

	globals := make(map[string]any, len(body.Params)+len(args))
	for _, p := range body.Params {
		globals[p] = object.Nil
	}
	for name, v := range args {
		globals[name] = toObject(v)
	}
	result, err := r.eval(ctx, src, fqName, globals)
	if err != nil {
		return nil, err
	}
	if e, ok := result.(*object.Error); ok {
		return nil, fmt.Errorf("runtime: function %s: %w", fqName, e.Value())
	}
	return result.Interface(), nil
}

// RunSource executes Risor source code directly with the standard globals
// plus any extra globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (any, error) {
	globals := make(map[string]any, len(extraGlobals))
	for name, v := range extraGlobals {
		globals[name] = toObject(v)
	}
	result, err := r.eval(ctx, source, "<inline>", globals)
	if err != nil {
		return nil, err
	}
	return result.Interface(), nil
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns a Risor importer for the configured script source,
// or nil if neither an fs.FS nor a scripts directory is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured fs.FS, or from disk
// relative to the scripts directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
