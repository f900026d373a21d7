// Package fuzztests houses Go fuzz harnesses for the front of the pipeline:
// source -> lexer -> preprocessor -> parser. They guard against panics,
// hangs and broken stream invariants on arbitrary input.
//
// The package has no non-test code besides the seed corpus.
package fuzztests
