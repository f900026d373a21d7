// Package token defines lexical token kinds for Object Pascal.
//
// Invariants:
//   - Keywords are case-insensitive; Text keeps the source spelling.
//   - Comments and compiler directives stay in the stream as hidden tokens,
//     so token indices line up with the compiler switch ranges recorded by
//     the preprocessor.
//   - Contextual words (overload, helper, strict, reference, ...) are Ident.
//   - Index is assigned once, when the preprocessor materialises the final
//     stream; tokens spliced from include files carry an Origin.
package token
