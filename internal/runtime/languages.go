package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// scriptExtensions lists the file extensions recognized as scripts.
var scriptExtensions = map[string]bool{
	".kts": true,
	".dcl": true,
}

// The Kotlin grammar is lazily initialized on first use via sync.Once.
var (
	kotlinGrammar *sitter.Language
	grammarOnce   sync.Once
)

func grammar() *sitter.Language {
	grammarOnce.Do(func() {
		kotlinGrammar = kotlin.GetLanguage()
	})
	return kotlinGrammar
}

// IsScriptFile reports whether path has a recognized script extension.
func IsScriptFile(path string) bool {
	return scriptExtensions[strings.ToLower(filepath.Ext(path))]
}

// Parse parses script source with the Kotlin grammar. The returned tree must
// be closed by the caller.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("runtime: tree-sitter parse failed: %w", err)
	}
	return tree, nil
}
