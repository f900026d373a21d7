package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pasfront/internal/diag"
	"pasfront/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes the diagnostics of bag in compiler style:
//
//	path:line:col: ERROR SYN2001: message
//	   3 | x := ;
//	     |      ^
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, p, d, fs, opts); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, p palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	var b strings.Builder
	if located(fs, d.Primary, d.Code) {
		b.WriteString(p.path.Sprint(position(fs, d.Primary, opts.PathMode, opts.BaseDir)))
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s\n",
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)

	if opts.Context > 0 && located(fs, d.Primary, d.Code) {
		writeSnippet(&b, p, fs, d.Primary, int(opts.Context))
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			b.WriteString("  ")
			b.WriteString(p.note.Sprint("note"))
			b.WriteString(": ")
			if located(fs, n.Span, d.Code) {
				b.WriteString(position(fs, n.Span, opts.PathMode, opts.BaseDir))
				b.WriteString(": ")
			}
			b.WriteString(n.Msg)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func position(fs *source.FileSet, sp source.Span, mode PathMode, base string) string {
	f := fs.Get(sp.File)
	pos := f.Position(sp.Start)
	return fmt.Sprintf("%s:%d:%d", FormatPath(f.Path, mode, base), pos.Line, pos.Col)
}

// writeSnippet prints up to ctx lines ending at the primary line and a
// caret line under the span.
func writeSnippet(b *strings.Builder, p palette, fs *source.FileSet, sp source.Span, ctx int) {
	f := fs.Get(sp.File)
	start := f.Position(sp.Start)
	end := f.Position(sp.End)

	first := uint32(1)
	if int(start.Line) > ctx {
		first = start.Line - uint32(ctx) + 1
	}
	width := len(strconv.FormatUint(uint64(start.Line), 10))

	for line := first; line <= start.Line; line++ {
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", width, line), f.GetLine(line))
	}

	text := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(text))
	stop := len(text)
	if end.Line == start.Line {
		stop = min(max(int(end.Col)-1, col), len(text))
	}
	fmt.Fprintf(b, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), padding(text[:col]), p.caret.Sprint(underline(text[col:stop])))
}

// padding keeps tabs so the caret lines up with the source line.
func padding(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func underline(segment string) string {
	n := runewidth.StringWidth(segment)
	if n <= 1 {
		return "^"
	}
	return "^" + strings.Repeat("~", n-1)
}
