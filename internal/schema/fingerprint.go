package schema

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
)

// Fingerprint returns a deterministic hash of everything in s that can
// change how a script resolves. Map iteration order does not affect it.
func (s *AnalysisSchema) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "top:%s\n", s.TopLevelReceiverType)

	for _, name := range sortedKeys(s.DataClasses) {
		c := s.DataClasses[name]
		fmt.Fprintf(h, "class:%s:%v:%v\n", c.Name, c.Supertypes, c.DefaultConstructible)
		for _, p := range c.Properties {
			fmt.Fprintf(h, "prop:%s:%s:%v:%v\n", p.Key(), p.Type, p.ReadOnly, p.HasDefaultValue)
		}
		for _, f := range c.MemberFunctions {
			writeFunction(h, f)
		}
		for _, f := range c.Constructors {
			writeFunction(h, f)
		}
	}
	for _, name := range sortedKeys(s.ExternalFunctions) {
		writeFunction(h, s.ExternalFunctions[name])
	}
	for _, name := range sortedKeys(s.ExternalObjects) {
		k := s.ExternalObjects[name]
		fmt.Fprintf(h, "external:%s:%s:%s\n", name, k.Name, k.Type)
	}
	imports := append([]string(nil), s.DefaultImports...)
	sort.Strings(imports)
	fmt.Fprintf(h, "imports:%v\n", imports)

	return fmt.Sprintf("%x", h.Sum(nil))
}

func writeFunction(w io.Writer, f *Function) {
	fmt.Fprintf(w, "fn:%s:%s:%s\n", f.Kind, f.String(), SemanticsName(f.Semantics))
	for _, p := range f.Parameters {
		store := ""
		if sv, ok := p.Semantics.(StoreValueInProperty); ok {
			store = sv.Property.Key()
		}
		fmt.Fprintf(w, "param:%s:%v:%s\n", p.Name, p.HasDefault, store)
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
