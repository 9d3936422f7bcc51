package csharp

import (
	"fmt"
	"strings"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/naming"
	"bindgen/internal/output"
	"bindgen/internal/types"
)

// Const emits a constant into the static Constants class.
func (b *Backend) Const(d *decl.Decl, out *output.Set) error {
	b.prepare(out)
	if d.Value == nil {
		return diag.NewErr(diag.InpBadValueExpr, "constant has no value")
	}
	t, err := b.env.Resolve(d.Type)
	if err != nil {
		return err
	}
	host, err := b.constType(t)
	if err != nil {
		return err
	}

	v := d.Value.Deref()
	var line string
	switch {
	case v.Kind == decl.ValNull && host == hostStr:
		line = fmt.Sprintf("public const %s %s = \"\";", host, d.Name)
	case v.Kind == decl.ValNull && host == hostPtr:
		line = fmt.Sprintf("public static readonly %s %s = IntPtr.Zero;", host, d.Name)
	case v.Kind == decl.ValNull:
		return unsupported("null is not a valid %s constant", host)
	default:
		expr, err := b.constExpr(t, v)
		if err != nil {
			return err
		}
		if isConstHost(host) {
			line = fmt.Sprintf("public const %s %s = %s;", host, d.Name, expr)
		} else {
			line = fmt.Sprintf("public static readonly %s %s = %s;", host, d.Name, expr)
		}
	}
	out.Doc(output.Constants).WriteString(indentBody + line + "\n")
	return nil
}

// isConstHost reports whether C# allows `const` for the type.
func isConstHost(host string) bool {
	if host == hostStr {
		return true
	}
	for _, name := range primNames {
		if name == host {
			return true
		}
	}
	return false
}

// constType maps the declared type of a constant. References and char
// pointers denote the value itself.
func (b *Backend) constType(t *types.Type) (string, error) {
	switch t.Kind {
	case types.KindPointer:
		switch {
		case t.Elem.IsPrim(types.Str), t.Elem.IsPrim(types.CChar):
			return hostStr, nil
		case t.Elem.Kind == types.KindNamed && !b.env.IsOpaque(t.Elem.Name):
			return b.env.HostName(t.Elem.Name), nil
		case t.Elem.Kind == types.KindArray:
			return b.constType(t.Elem)
		}
		return hostPtr, nil
	case types.KindArray:
		elem, err := b.constType(t.Elem)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case types.KindPrimitive, types.KindNamed:
		h, err := b.mapType(t, roleReturn)
		return h.name, err
	}
	return "", unsupported("%s constants are not supported", t.Kind)
}

// constExpr renders a value of type t. t may be nil when a struct literal
// names a type with unknown fields.
func (b *Backend) constExpr(t *types.Type, v *decl.Value) (string, error) {
	v = v.Deref()
	for t != nil && t.Kind == types.KindPointer && !t.Elem.IsPrim(types.Str) && !t.Elem.IsPrim(types.CChar) {
		t = t.Elem
	}
	switch v.Kind {
	case decl.ValInt:
		return v.Number(), nil
	case decl.ValFloat:
		if t.IsPrim(types.F32) {
			return v.Number() + "f", nil
		}
		return v.Number(), nil
	case decl.ValBool:
		return v.Text, nil
	case decl.ValString:
		return quote(v.Text), nil
	case decl.ValIdent:
		return v.Text, nil
	case decl.ValNull:
		if t != nil && t.Kind == types.KindPointer {
			return `""`, nil
		}
		return "IntPtr.Zero", nil
	case decl.ValArray:
		if t == nil || t.Kind != types.KindArray {
			return "", unsupported("cannot infer the element type of an array literal")
		}
		elem, err := b.constType(t.Elem)
		if err != nil {
			return "", err
		}
		items := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			if items[i], err = b.constExpr(t.Elem, e); err != nil {
				return "", err
			}
		}
		if len(items) == 0 {
			return fmt.Sprintf("new %s[] { }", elem), nil
		}
		return fmt.Sprintf("new %s[] { %s }", elem, strings.Join(items, ", ")), nil
	case decl.ValStruct:
		fields, _ := b.env.StructFields(v.Type)
		inits := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			var ft *types.Type
			for _, sf := range fields {
				if sf.Name == f.Name {
					ft = sf.Type
				}
			}
			expr, err := b.constExpr(ft, f.Value)
			if err != nil {
				return "", at(err, f.Name)
			}
			inits[i] = naming.ToLowerCamel(f.Name) + " = " + expr
		}
		return fmt.Sprintf("new %s { %s }", b.env.HostName(v.Type), strings.Join(inits, ", ")), nil
	}
	return "", unsupported("unsupported constant value")
}

// quote renders s as a C# string literal. Control characters use \u
// escapes since \x in C# consumes up to four hex digits.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
