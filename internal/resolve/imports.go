package resolve

import (
	"github.com/jward/notation/internal/langtree"
	"github.com/jward/notation/internal/schema"
)

// ResolveImports maps simple names to fully-qualified names in declaration
// order. A simple name already bound to a different name keeps its first
// binding and the later import is reported as AmbiguousImport. Default
// imports fill the names explicit imports leave unbound. Imports without a
// name bind nothing.
func ResolveImports(s *schema.AnalysisSchema, imports []langtree.Import) (map[string]string, []ResolutionError) {
	names := make(map[string]string, len(imports)+len(s.DefaultImports))
	var errs []ResolutionError
	for i := range imports {
		imp := &imports[i]
		if len(imp.Segments) == 0 {
			continue
		}
		fq := imp.FqName()
		simple := imp.Segments[len(imp.Segments)-1]
		if bound, ok := names[simple]; ok {
			if bound != fq {
				errs = append(errs, ResolutionError{Element: imp, Reason: AmbiguousImport, Detail: fq})
			}
			continue
		}
		names[simple] = fq
	}
	for _, fq := range s.DefaultImports {
		_, simple := schema.SplitFqName(fq)
		if _, ok := names[simple]; !ok {
			names[simple] = fq
		}
	}
	return names, errs
}
