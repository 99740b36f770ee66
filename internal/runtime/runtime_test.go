package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Parsing ---

func TestIsScriptFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"build.kts", true},
		{"settings.dcl", true},
		{"BUILD.KTS", true},
		{"main.go", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsScriptFile(tt.path), tt.path)
	}
}

func TestParse_ReturnsKotlinTree(t *testing.T) {
	t.Parallel()
	tree, err := Parse(context.Background(), []byte("a = 1\n"))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Type())
	assert.False(t, root.HasError())
	require.Equal(t, uint32(1), root.NamedChildCount())
	assert.Equal(t, "assignment", root.NamedChild(0).Type())
}

func TestParse_InvalidSourceStillReturnsTree(t *testing.T) {
	t.Parallel()
	tree, err := Parse(context.Background(), []byte("a = = ("))
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

// --- Function bodies ---

func TestCall_InlineSource(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	rt.Register(FunctionBody{Name: "p.greeting", Params: []string{"name"}, Source: `"Hello, " + name`})

	got, err := rt.Call(context.Background(), "p.greeting", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", got)
	assert.True(t, rt.Has("p.greeting"))
	assert.Equal(t, []string{"p.greeting"}, rt.Names())
}

func TestCall_IntArguments(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	rt.Register(FunctionBody{Name: "p.sum", Params: []string{"a", "b"}, Source: `a + b`})

	got, err := rt.Call(context.Background(), "p.sum", map[string]any{"a": int32(1), "b": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestCall_MissingArgumentIsNil(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	rt.Register(FunctionBody{Name: "p.isUnset", Params: []string{"x"}, Source: `x == nil`})

	got, err := rt.Call(context.Background(), "p.isUnset", nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestCall_UnknownFunction(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime().Call(context.Background(), "p.nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no body")
}

func TestCall_CompileError(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	rt.Register(FunctionBody{Name: "p.bad", Source: `undefined_thing + 1`})

	_, err := rt.Call(context.Background(), "p.bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p.bad")
}

func TestCall_ScriptFromFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"fns/double.risor": &fstest.MapFile{Data: []byte("n * 2")},
	}
	rt := NewRuntime(WithRuntimeFS(fsys))
	rt.Register(FunctionBody{Name: "p.double", Params: []string{"n"}, Script: "fns/double.risor"})

	got, err := rt.Call(context.Background(), "p.double", map[string]any{"n": int32(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestCall_ScriptFromDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upper.risor"), []byte("strings.to_upper(s)"), 0644))

	rt := NewRuntime(WithScriptsDir(dir))
	rt.Register(FunctionBody{Name: "p.upper", Params: []string{"s"}, Script: "upper.risor"})

	got, err := rt.Call(context.Background(), "p.upper", map[string]any{"s": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)
}

func TestRunSource(t *testing.T) {
	t.Parallel()
	got, err := NewRuntime().RunSource(context.Background(), `len(items)`, map[string]any{
		"items": []any{"a", int32(1), true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

// --- Function files ---

const functionFile = `
functions:
  - name: com.example.util.greeting
    params: [name]
    source: '"Hello, " + name'
  - name: com.example.util.double
    params: [n]
    script: double.risor
`

func TestLoadFunctions(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	require.NoError(t, rt.LoadFunctions(strings.NewReader(functionFile)))
	assert.True(t, rt.Has("com.example.util.greeting"))
	assert.True(t, rt.Has("com.example.util.double"))

	got, err := rt.Call(context.Background(), "com.example.util.greeting", map[string]any{"name": "DCL"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, DCL", got)
}

func TestLoadFunctions_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"no body", "functions:\n  - name: p.f\n"},
		{"both bodies", "functions:\n  - name: p.f\n    source: '1'\n    script: f.risor\n"},
		{"no name", "functions:\n  - source: '1'\n"},
		{"unknown field", "functions:\n  - name: p.f\n    source: '1'\n    extra: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewRuntime().LoadFunctions(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadFunctionsFile_Missing(t *testing.T) {
	t.Parallel()
	err := NewRuntime().LoadFunctionsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// --- Script loading ---

func TestLoadScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := NewRuntime(WithScriptsDir(dir)).LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS_NotFound(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}
