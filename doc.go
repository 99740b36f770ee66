// Package notation evaluates restricted Kotlin-syntax configuration
// scripts against a closed schema of host types. A script may only assign
// properties, call schema functions with an optional configuring block and
// declare local values; everything else is rejected with a named reason.
//
// # Pipeline
//
// Each evaluation runs to completion on the calling goroutine:
//
//  1. Parse: tree-sitter parses the script and the result is converted to a
//     restricted language tree. Unsupported constructs become failures.
//
//  2. Resolve: imports and statements are resolved in source order to
//     object origins. Script errors are collected as data.
//
//  3. Conventions: operations declared under the conventions block are
//     re-applied to every software type block that references them.
//
//  4. Trace: assignment chains are followed to their final values.
//
//  5. Reflect: the top-level receiver is materialized as a read-only tree
//     of object reflections, with declared defaults filled in.
//
// A script with any failure, resolution error or unassigned value used is
// not evaluated as a whole; the stage results are still returned for
// diagnostics.
//
// # Usage
//
//	s, err := notation.LoadSchema("schema.yaml")
//	if err != nil { ... }
//	e := notation.New(s, notation.WithLogger(logger))
//
//	ev, err := e.Evaluate(ctx, "build.kts", src)
//	if err != nil { ... }
//	if err := ev.Err(); err != nil {
//		for _, d := range ev.Diagnostics() { ... }
//	}
//	values, err := e.Convert(ctx, ev.TopLevel)
//
// # Persistence
//
// With [WithStore], [Evaluator.EvaluateFile] and [Evaluator.EvaluateFiles]
// record every evaluation in SQLite keyed by path, and skip files whose
// content and schema are unchanged. [Evaluator.Query] returns a
// [QueryBuilder] over the stored results.
package notation
