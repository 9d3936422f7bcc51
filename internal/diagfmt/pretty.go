package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"bindgen/internal/diag"
	"bindgen/internal/source"
)

// palette holds the colour functions of one rendering; every entry is a
// plain Sprint when colour is off.
type palette struct {
	err, warn, info, code, path, gutter, caret, note func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		if !enabled {
			return fmt.Sprint
		}
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		path:   mk(color.FgWhite, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return p.err(s.String())
	case diag.SevWarning:
		return p.warn(s.String())
	}
	return p.info(s.String())
}

// location renders "<path>:<line>:<col>" or "" for spans without a file.
func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	f := fs.Get(sp.File)
	if f == nil {
		return ""
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs, f, mode), start.Line, start.Col)
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("%s %s: %s", p.severity(d.Severity), p.code(d.Code.ID()), d.Message)
		if loc := location(fs, d.Primary, opts.PathMode); loc != "" {
			header = p.path(loc) + ": " + header
		}
		fmt.Fprintln(w, header)
		writeSnippet(w, fs, d.Primary, int(opts.Context), p)

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := p.note("note") + ": " + n.Msg
			if loc := location(fs, n.Span, opts.PathMode); loc != "" {
				line = p.note("note") + ": " + p.path(loc) + ": " + n.Msg
			}
			fmt.Fprintln(w, "  "+line)
			writeSnippet(w, fs, n.Span, 0, p)
		}
	}
}

// writeSnippet prints the first line of sp with context lines above it and
// underlines the span on that line.
func writeSnippet(w io.Writer, fs *source.FileSet, sp source.Span, context int, p palette) {
	f := fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	first := max(1, int(start.Line)-max(0, context))
	width := len(strconv.Itoa(int(start.Line)))
	gutter := func(label string) string {
		return p.gutter(fmt.Sprintf("%*s |", width, label))
	}

	for ln := first; ln <= int(start.Line); ln++ {
		text := strings.TrimRight(f.GetLine(uint32(ln)), "\r")
		fmt.Fprintf(w, "%s %s\n", gutter(strconv.Itoa(ln)), expandTabs(text))
	}

	line := f.GetLine(start.Line)
	prefix := line[:min(len(line), max(1, int(start.Col))-1)]
	spanEnd := len(line)
	if end.Line == start.Line && int(end.Col)-1 <= len(line) {
		spanEnd = int(end.Col) - 1
	}
	marked := ""
	if spanEnd > len(prefix) {
		marked = line[len(prefix):spanEnd]
	}
	pad := runewidth.StringWidth(expandTabs(prefix))
	n := max(1, runewidth.StringWidth(expandTabs(marked)))
	underline := "^" + strings.Repeat("~", n-1)
	fmt.Fprintf(w, "%s %s%s\n", gutter(""), strings.Repeat(" ", pad), p.caret(underline))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// Short prints one line per diagnostic:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		line := fmt.Sprintf("%s %s: %s", d.Severity, d.Code.ID(), d.Message)
		if loc := location(fs, d.Primary, mode); loc != "" {
			line = loc + ": " + line
		}
		fmt.Fprintln(w, line)
	}
}

// Summary renders "N errors, M warnings" for the bag, or "" when empty.
func Summary(bag *diag.Bag, colored bool) string {
	var errs, warns int
	for _, d := range bag.Items() {
		switch {
		case d.Severity >= diag.SevError:
			errs++
		case d.Severity == diag.SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return ""
	}
	p := newPalette(colored)
	var parts []string
	if errs > 0 {
		parts = append(parts, p.err(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn(plural(warns, "warning")))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
