package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jward/notation/internal/langtree"
)

// Diagnostic is one located problem in a document.
type Diagnostic struct {
	Src     langtree.SourceData `json:"-"`
	Path    string              `json:"path"`
	Line    int                 `json:"line"`
	Column  int                 `json:"column"`
	Message string              `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Path, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Line, d.Column, d.Message)
}

// Diagnostics lists every problem in the document ordered by position.
func (d *Document) Diagnostics() []Diagnostic {
	var out []Diagnostic
	add := func(src langtree.SourceData, msg string) {
		out = append(out, Diagnostic{Src: src, Path: src.Path, Line: src.Line, Column: src.Column, Message: msg})
	}
	for _, e := range d.ImportErrors {
		add(e.Element.Source(), e.Reason.String()+": "+e.Detail)
	}
	for _, e := range d.Errors {
		msg := e.Kind.String()
		if e.Kind == UnsupportedSyntax {
			msg += ": " + e.Construct.String()
		}
		add(e.Src, msg)
	}
	Walk(d.Content, func(n Node) {
		switch n := n.(type) {
		case *ElementNode:
			if !n.Resolution.Resolved() {
				add(n.Src, describe(n.Name, n.Resolution.Reasons))
			}
			for _, a := range n.Args {
				walkValue(a, add)
			}
		case *PropertyNode:
			if !n.Resolution.Resolved() {
				add(n.Src, describe(n.Name, n.Resolution.Reasons))
			}
			walkValue(n.Value, add)
		case *LocalValueNode:
			walkValue(n.Value, add)
		case *ErrorNode:
			add(n.Src, n.Kind.String())
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

func walkValue(v *ValueNode, add func(langtree.SourceData, string)) {
	if !v.Resolution.Resolved() {
		// Report only the innermost failure of a nested value.
		inner := false
		for _, a := range v.Args {
			if !a.Resolution.Resolved() {
				inner = true
			}
		}
		if !inner {
			name := v.Name
			if name == "" {
				name = v.Src.Text
			}
			add(v.Src, describe(name, v.Resolution.Reasons))
		}
	}
	for _, a := range v.Args {
		walkValue(a, add)
	}
}

func describe(name string, reasons []NotResolvedReason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%s: %s", strings.Join(parts, ", "), name)
}

// Walk calls fn for every node in content, depth first.
func Walk(content []Node, fn func(Node)) {
	for _, n := range content {
		fn(n)
		if el, ok := n.(*ElementNode); ok {
			Walk(el.Content, fn)
		}
	}
}
