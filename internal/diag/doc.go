// Package diag defines the diagnostic model shared by the lexer, the
// preprocessor, the parser and the symbol table builder.
//
// Producers never format or print: they emit through a Reporter, usually via
// ReportError / ReportWarning and a ReportBuilder with optional notes.
// BagReporter collects into a Bag which supports sorting, deduplication and
// a size cap. Rendering lives in internal/diagfmt.
//
// Codes are grouped by phase: LEX (1000), SYN (2000), SEM (3000), IO (4000),
// PRJ (5000) and PPR (6000, preprocessor). A code has a stable ID such as
// "PPR6002" and a short title.
//
// Fatal conditions (a malformed directive, a broken standard library) are not
// diagnostics; they surface as Go errors from the phase entry points.
package diag
