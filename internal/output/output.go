// Package output models the virtual documents produced by a backend. A
// document is an append-only buffer until it is sealed by finalization;
// after that its text never changes.
package output

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is one of the closed set of documents.
type Kind uint8

const (
	Types Kind = iota
	Constants
	Impl
	Interface
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Types:
		return "types"
	case Constants:
		return "constants"
	case Impl:
		return "impl"
	case Interface:
		return "interface"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Kinds lists all document kinds in output order.
func Kinds() []Kind {
	return []Kind{Types, Constants, Impl, Interface}
}

// Document is a named append-only buffer.
type Document struct {
	Name    string
	imports []string
	body    strings.Builder
	sealed  bool
	text    string
}

// AddImport records a namespace import; duplicates are ignored.
func (d *Document) AddImport(ns string) {
	if !slices.Contains(d.imports, ns) {
		d.imports = append(d.imports, ns)
	}
}

// Imports returns imports in insertion order.
func (d *Document) Imports() []string {
	return d.imports
}

// WriteString appends s to the body.
func (d *Document) WriteString(s string) {
	d.mustOpen()
	d.body.WriteString(s)
}

// Printf appends formatted text to the body.
func (d *Document) Printf(format string, args ...any) {
	d.mustOpen()
	fmt.Fprintf(&d.body, format, args...)
}

// Body returns the accumulated fragments.
func (d *Document) Body() string {
	return d.body.String()
}

// Empty reports whether nothing was appended.
func (d *Document) Empty() bool {
	return d.body.Len() == 0
}

// Seal fixes the final text of the document. Empty documents seal to "".
func (d *Document) Seal(wrap func(d *Document) string) {
	d.mustOpen()
	d.sealed = true
	if d.Empty() {
		return
	}
	d.text = wrap(d)
}

// Sealed reports whether Seal was called.
func (d *Document) Sealed() bool {
	return d.sealed
}

// Text returns the sealed text.
func (d *Document) Text() string {
	return d.text
}

func (d *Document) mustOpen() {
	if d.sealed {
		panic(fmt.Sprintf("output: document %s is sealed", d.Name))
	}
}

// Set is the shared output of one compilation.
type Set struct {
	docs [numKinds]*Document
}

// NewSet creates a set whose documents carry the given file names.
func NewSet(names map[Kind]string) *Set {
	s := &Set{}
	for _, k := range Kinds() {
		s.docs[k] = &Document{Name: names[k]}
	}
	return s
}

// Doc returns the document of kind k.
func (s *Set) Doc(k Kind) *Document {
	return s.docs[k]
}

// Result returns sealed texts keyed by document name. Unsealed documents
// are reported as empty.
func (s *Set) Result() map[string]string {
	out := make(map[string]string, numKinds)
	for _, d := range s.docs {
		out[d.Name] = d.text
	}
	return out
}
