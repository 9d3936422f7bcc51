package types

import (
	"fmt"
	"strings"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindPrimitive
	KindPointer
	KindArray
	KindNamed
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindNamed:
		return "named"
	case KindCallback:
		return "callback"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Prim is a primitive of the declaration language.
type Prim uint8

const (
	PrimInvalid Prim = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	Usize
	Isize
	F32
	F64
	Bool
	CChar
	CUChar
	CInt
	CUInt
	CLong
	CULong
	CVoid
	Str // only meaningful behind a reference
)

var primNames = [...]string{
	PrimInvalid: "<invalid>",
	U8:          "u8",
	I8:          "i8",
	U16:         "u16",
	I16:         "i16",
	U32:         "u32",
	I32:         "i32",
	U64:         "u64",
	I64:         "i64",
	Usize:       "usize",
	Isize:       "isize",
	F32:         "f32",
	F64:         "f64",
	Bool:        "bool",
	CChar:       "c_char",
	CUChar:      "c_uchar",
	CInt:        "c_int",
	CUInt:       "c_uint",
	CLong:       "c_long",
	CULong:      "c_ulong",
	CVoid:       "c_void",
	Str:         "str",
}

var primByName map[string]Prim

func init() {
	primByName = make(map[string]Prim, len(primNames))
	for p, name := range primNames {
		if Prim(p) != PrimInvalid {
			primByName[name] = Prim(p)
		}
	}
}

// LookupPrim maps a primitive spelling ("u8", "c_char") to its Prim.
func LookupPrim(name string) (Prim, bool) {
	p, ok := primByName[name]
	return p, ok
}

func (p Prim) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return fmt.Sprintf("Prim(%d)", p)
}

// IsInteger reports whether p is an integer primitive (c_char included).
func (p Prim) IsInteger() bool {
	switch p {
	case U8, I8, U16, I16, U32, I32, U64, I64, Usize, Isize,
		CChar, CUChar, CInt, CUInt, CLong, CULong:
		return true
	}
	return false
}

// IsFloat reports whether p is f32 or f64.
func (p Prim) IsFloat() bool {
	return p == F32 || p == F64
}

// Param is a named slot of a callback signature. Name is empty for
// positional parameters.
type Param struct {
	Name string
	Type *Type
}

// Type is a tree descriptor for a declaration-language type. Resolved types
// never contain alias names.
type Type struct {
	Kind    Kind
	Prim    Prim    // KindPrimitive
	Mutable bool    // KindPointer
	Elem    *Type   // KindPointer, KindArray
	Len     uint32  // KindArray with a literal size
	LenName string  // KindArray sized by a named constant
	Name    string  // KindNamed
	Params  []Param // KindCallback
	Result  *Type   // KindCallback, nil for no return value
}

// Descriptor helpers ---------------------------------------------------------

// MakeVoid describes the unit return type.
func MakeVoid() *Type {
	return &Type{Kind: KindVoid}
}

// MakePrim describes a primitive.
func MakePrim(p Prim) *Type {
	return &Type{Kind: KindPrimitive, Prim: p}
}

// MakePointer describes *const T or *mut T depending on the mutable flag.
func MakePointer(elem *Type, mutable bool) *Type {
	return &Type{Kind: KindPointer, Elem: elem, Mutable: mutable}
}

// MakeArray describes [T; N].
func MakeArray(elem *Type, n uint32) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// MakeArrayNamed describes [T; CONST].
func MakeArrayNamed(elem *Type, constName string) *Type {
	return &Type{Kind: KindArray, Elem: elem, LenName: constName}
}

// MakeNamed describes a reference to a declared or external type.
func MakeNamed(name string) *Type {
	return &Type{Kind: KindNamed, Name: name}
}

// MakeCallback describes extern "C" fn(params) -> result.
func MakeCallback(params []Param, result *Type) *Type {
	return &Type{Kind: KindCallback, Params: params, Result: result}
}

// Predicates -----------------------------------------------------------------

// IsPrim reports whether t is the primitive p.
func (t *Type) IsPrim(p Prim) bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim == p
}

// IsPointerTo reports whether t is a pointer whose target is the primitive p.
func (t *Type) IsPointerTo(p Prim) bool {
	return t != nil && t.Kind == KindPointer && t.Elem.IsPrim(p)
}

// IsVoid reports whether t denotes no value.
func (t *Type) IsVoid() bool {
	return t == nil || t.Kind == KindVoid
}

// PointerDepth counts directly nested pointer levels.
func (t *Type) PointerDepth() int {
	n := 0
	for t != nil && t.Kind == KindPointer {
		n++
		t = t.Elem
	}
	return n
}

// String renders t in declaration-language syntax.
func (t *Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Type) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("()")
		return
	}
	switch t.Kind {
	case KindVoid:
		sb.WriteString("()")
	case KindPrimitive:
		sb.WriteString(t.Prim.String())
	case KindPointer:
		if t.Mutable {
			sb.WriteString("*mut ")
		} else {
			sb.WriteString("*const ")
		}
		t.Elem.write(sb)
	case KindArray:
		sb.WriteByte('[')
		t.Elem.write(sb)
		sb.WriteString("; ")
		if t.LenName != "" {
			sb.WriteString(t.LenName)
		} else {
			fmt.Fprintf(sb, "%d", t.Len)
		}
		sb.WriteByte(']')
	case KindNamed:
		sb.WriteString(t.Name)
	case KindCallback:
		sb.WriteString(`extern "C" fn(`)
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if p.Name != "" {
				sb.WriteString(p.Name)
				sb.WriteString(": ")
			}
			p.Type.write(sb)
		}
		sb.WriteByte(')')
		if !t.Result.IsVoid() {
			sb.WriteString(" -> ")
			t.Result.write(sb)
		}
	default:
		sb.WriteString(t.Kind.String())
	}
}
