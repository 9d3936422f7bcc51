package csharp

import (
	"fmt"
	"strconv"

	"bindgen/internal/types"
)

// role is the position a type is rendered in; marshalling rules differ.
type role uint8

const (
	roleField role = iota
	roleParam
	roleReturn
)

const (
	attrU1    = "[MarshalAs(UnmanagedType.U1)]"
	attrLPStr = "[MarshalAs(UnmanagedType.LPStr)]"
	hostPtr   = "IntPtr"
	hostStr   = "String"
)

var primNames = map[types.Prim]string{
	types.U8:     "byte",
	types.I8:     "sbyte",
	types.U16:    "ushort",
	types.I16:    "short",
	types.U32:    "uint",
	types.I32:    "int",
	types.U64:    "ulong",
	types.I64:    "long",
	types.Usize:  "ulong",
	types.Isize:  "long",
	types.F32:    "float",
	types.F64:    "double",
	types.Bool:   "bool",
	types.CChar:  "sbyte",
	types.CUChar: "byte",
	types.CInt:   "int",
	types.CUInt:  "uint",
	types.CLong:  "long",
	types.CULong: "ulong",
}

// displayNames spell host primitives inside delegate names.
var displayNames = map[string]string{
	"byte":   "Byte",
	"sbyte":  "SByte",
	"ushort": "UShort",
	"short":  "Short",
	"uint":   "UInt",
	"int":    "Int",
	"ulong":  "ULong",
	"long":   "Long",
	"float":  "Float",
	"double": "Double",
	"bool":   "Bool",
}

// hostType is a rendered C# type with its marshalling attribute and
// parameter modifier.
type hostType struct {
	name string
	attr string
	mod  string // "ref", "out" or empty
}

// param renders `[attr] mod type ident`.
func (h hostType) param(ident string, withAttr bool) string {
	s := h.name + " " + ident
	if h.mod != "" {
		s = h.mod + " " + s
	}
	if withAttr && h.attr != "" {
		s = h.attr + " " + s
	}
	return s
}

func (h hostType) display() string {
	if d, ok := displayNames[h.name]; ok {
		return d
	}
	return h.name
}

// mapType maps a resolved type to its host rendering in role r.
func (b *Backend) mapType(t *types.Type, r role) (hostType, error) {
	switch t.Kind {
	case types.KindVoid:
		if r == roleReturn {
			return hostType{name: "void"}, nil
		}
		return hostType{}, unsupported("() is only valid as a return type")
	case types.KindPrimitive:
		name, ok := primNames[t.Prim]
		if !ok {
			return hostType{}, unsupported("%s is only valid behind a pointer", t.Prim)
		}
		h := hostType{name: name}
		if t.Prim == types.Bool && r != roleReturn {
			h.attr = attrU1
		}
		return h, nil
	case types.KindNamed:
		return hostType{name: b.env.HostName(t.Name)}, nil
	case types.KindArray:
		if r == roleReturn {
			return hostType{}, unsupported("arrays cannot be returned by value")
		}
		elem, err := b.arrayElem(t)
		if err != nil {
			return hostType{}, err
		}
		return hostType{
			name: elem.name + "[]",
			attr: fmt.Sprintf("[MarshalAs(UnmanagedType.ByValArray, SizeConst = %s)]", sizeExpr(t, true)),
		}, nil
	case types.KindPointer:
		return b.mapPointer(t, r)
	case types.KindCallback:
		if r == roleField {
			return hostType{name: hostPtr}, nil
		}
		return hostType{}, unsupported("callback types are only valid as trailing function parameters")
	}
	return hostType{}, unsupported("cannot map %s type", t.Kind)
}

func (b *Backend) arrayElem(t *types.Type) (hostType, error) {
	switch t.Elem.Kind {
	case types.KindArray:
		return hostType{}, unsupported("nested arrays are not supported")
	case types.KindCallback:
		return hostType{}, unsupported("arrays of callbacks are not supported")
	}
	elem, err := b.mapType(t.Elem, roleField)
	elem.attr = ""
	return elem, err
}

func (b *Backend) mapPointer(t *types.Type, r role) (hostType, error) {
	elem := t.Elem
	switch {
	case elem.IsPrim(types.Str) || (elem.IsPrim(types.CChar) && !t.Mutable):
		if r == roleReturn {
			return hostType{name: hostPtr}, nil
		}
		return hostType{name: hostStr, attr: attrLPStr}, nil
	case elem.Kind == types.KindNamed && b.env.IsOpaque(elem.Name):
		return hostType{name: elem.Name}, nil
	case elem.Kind == types.KindPointer:
		if elem.Elem.Kind == types.KindPointer {
			return hostType{}, unsupported("pointer nesting deeper than two levels: %s", t)
		}
		if r != roleParam {
			return hostType{name: hostPtr}, nil
		}
		inner := hostPtr
		if elem.Elem.Kind == types.KindNamed && b.env.IsOpaque(elem.Elem.Name) {
			inner = elem.Elem.Name
		}
		return hostType{name: inner, mod: "out"}, nil
	case elem.Kind == types.KindNamed && r == roleParam:
		return hostType{name: b.env.HostName(elem.Name), mod: "ref"}, nil
	}
	return hostType{name: hostPtr}, nil
}

// sizeExpr renders an array length. Named sizes refer to the generated
// Constants class; SizeConst needs an int, hence the cast.
func sizeExpr(t *types.Type, cast bool) string {
	if t.LenName == "" {
		return strconv.FormatUint(uint64(t.Len), 10)
	}
	if cast {
		return "(int) Constants." + t.LenName
	}
	return "Constants." + t.LenName
}
