package diag

import "pasfront/internal/source"

// Note is a secondary message, optionally anchored to a span.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one problem found in the sources.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// WithNote returns a copy of d with one more note.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Span: sp, Msg: msg})
	return d
}

// key identifies a diagnostic for deduplication.
func (d *Diagnostic) key() dedupKey {
	return dedupKey{code: d.Code, sev: d.Severity, span: d.Primary, msg: d.Message}
}

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}
