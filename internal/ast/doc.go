// Package ast holds the declaration-level syntax tree of one Pascal unit,
// program, library or package.
//
// Only declarations are modelled in full. Statement bodies are reduced to the
// name references they contain, which is all the symbol table needs.
package ast
