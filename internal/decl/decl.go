// Package decl holds the declaration stream fed to a backend: C-layout
// structs, enums, type aliases, exported functions and constants.
package decl

import (
	"fmt"

	"bindgen/internal/source"
	"bindgen/internal/types"
)

// Kind tags the declaration variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindStruct
	KindEnum
	KindAlias
	KindFunction
	KindConst
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindAlias:
		return "type"
	case KindFunction:
		return "fn"
	case KindConst:
		return "const"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind maps the spelling used in declaration files to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "struct":
		return KindStruct, true
	case "enum":
		return KindEnum, true
	case "type", "alias":
		return KindAlias, true
	case "fn", "function":
		return KindFunction, true
	case "const":
		return KindConst, true
	}
	return KindInvalid, false
}

// Attrs are the attributes relevant to binding generation.
type Attrs struct {
	ReprC    bool   // #[repr(C)]
	NoMangle bool   // #[no_mangle]
	ABI      string // extern "<ABI>", empty when absent
}

// Field is a struct field or a function parameter.
type Field struct {
	Name string
	Type *types.Type
	Span source.Span
}

// Variant is an enum variant; Value holds the explicit discriminant text.
type Variant struct {
	Name  string
	Value string
}

// Decl is one declaration in source order.
type Decl struct {
	Kind   Kind
	Name   string
	Module string
	Span   source.Span
	Attrs  Attrs

	Fields   []Field     // struct fields, function params
	Variants []Variant   // enum
	Type     *types.Type // alias target, constant type
	Result   *types.Type // function return, nil for none
	Value    *Value      // constant
}

// Exported reports whether a function is visible through the C ABI.
func (d *Decl) Exported() bool {
	return d.Attrs.NoMangle && d.Attrs.ABI == "C"
}

// Params returns function parameters as callback-style params.
func (d *Decl) Params() []types.Param {
	out := make([]types.Param, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = types.Param{Name: f.Name, Type: f.Type}
	}
	return out
}

// FieldSpan returns the span of the named field, or the declaration span.
func (d *Decl) FieldSpan(name string) source.Span {
	for _, f := range d.Fields {
		if f.Name == name && f.Span.File != source.NoFile && !f.Span.Empty() {
			return f.Span
		}
	}
	return d.Span
}
