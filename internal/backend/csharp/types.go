package csharp

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/naming"
	"bindgen/internal/output"
	"bindgen/internal/syntax"
	"bindgen/internal/types"
)

// Struct emits a C-layout struct. Structs without #[repr(C)] are skipped.
func (b *Backend) Struct(d *decl.Decl, out *output.Set) (err error) {
	b.prepare(out)
	if !d.Attrs.ReprC {
		return nil
	}
	// self-referential fields resolve even in strict mode;
	// a rejected struct must not stay visible to later declarations
	undo := b.env.ProvisionalStruct(d.Name)
	defer func() {
		if err != nil {
			undo()
		}
	}()

	fields := make([]types.Param, len(d.Fields))
	for i, f := range d.Fields {
		rt, err := b.env.Resolve(f.Type)
		if err != nil {
			return at(err, f.Name)
		}
		fields[i] = types.Param{Name: f.Name, Type: rt}
	}
	dynamic := naming.IsDynamicStruct(fields)
	host := d.Name
	if dynamic {
		host = naming.NativeName(d.Name)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%spublic struct %s {\n", indent, host)
	for _, f := range fields {
		h, err := b.mapType(f.Type, roleField)
		if err != nil {
			return at(err, f.Name)
		}
		if h.attr != "" {
			fmt.Fprintf(&buf, "%s%s\n", indentBody, h.attr)
		}
		fmt.Fprintf(&buf, "%spublic %s %s;\n", indentBody, h.name, naming.ToUpperCamel(f.Name))
	}
	fmt.Fprintf(&buf, "%s}\n\n", indent)

	b.env.RegisterStruct(d.Name, dynamic, fields)
	out.Doc(output.Types).WriteString(buf.String())
	return nil
}

// Enum emits a C-ABI enum. Enums without #[repr(C)] are skipped.
func (b *Backend) Enum(d *decl.Decl, out *output.Set) error {
	b.prepare(out)
	if !d.Attrs.ReprC {
		return nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%spublic enum %s {\n", indent, d.Name)
	for _, v := range d.Variants {
		if v.Value == "" {
			fmt.Fprintf(&buf, "%s%s,\n", indentBody, v.Name)
			continue
		}
		n, err := discriminant(v.Value)
		if err != nil {
			return at(err, v.Name)
		}
		fmt.Fprintf(&buf, "%s%s = %d,\n", indentBody, v.Name, n)
	}
	fmt.Fprintf(&buf, "%s}\n\n", indent)

	b.env.RegisterEnum(d.Name)
	out.Doc(output.Types).WriteString(buf.String())
	return nil
}

// discriminant parses an explicit enum value; C# enums default to int.
func discriminant(src string) (int32, error) {
	v, err := syntax.ParseValue(src)
	if err != nil {
		return 0, err
	}
	if v.Kind != decl.ValInt {
		return 0, diag.NewErr(diag.InpBadValueExpr, fmt.Sprintf("enum discriminant %q is not an integer", src))
	}
	n, err := strconv.ParseInt(v.Number(), 0, 64)
	if err != nil {
		return 0, unsupported("enum discriminant %s out of range", v.Number())
	}
	out, err := safecast.Conv[int32](n)
	if err != nil {
		return 0, unsupported("enum discriminant %d does not fit in int", n)
	}
	return out, nil
}
