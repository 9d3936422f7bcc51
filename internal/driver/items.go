package driver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/source"
	"bindgen/internal/syntax"
	"bindgen/internal/types"
)

// ident normalises an identifier to NFC so that visually equal names compare
// equal regardless of how the editor encoded them.
func ident(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// buildDecl turns one decoded item into a declaration.
func buildDecl(module string, raw *rawItem, loc itemLoc, index int) (*decl.Decl, error) {
	name := ident(raw.Name)
	label := name
	if label == "" {
		label = fmt.Sprintf("item[%d]", index)
	}
	fail := func(code diag.Code, format string, args ...any) error {
		return diag.NewErr(code, fmt.Sprintf(format, args...)).InDecl(label, loc.span)
	}

	kind, ok := decl.ParseKind(strings.TrimSpace(raw.Kind))
	if !ok {
		return nil, fail(diag.InpMalformedItem, "unknown declaration kind %q", raw.Kind)
	}
	if name == "" {
		return nil, fail(diag.InpMalformedItem, "missing name")
	}

	d := &decl.Decl{
		Kind:   kind,
		Name:   name,
		Module: module,
		Span:   loc.span,
		Attrs: decl.Attrs{
			ReprC:    strings.EqualFold(strings.TrimSpace(raw.Repr), "C"),
			NoMangle: raw.NoMangle,
			ABI:      strings.Trim(strings.TrimSpace(raw.ABI), `"`),
		},
	}

	parseType := func(item, src string) (*types.Type, error) {
		t, err := syntax.ParseType(src)
		if err != nil {
			return nil, diag.Tag(err, diag.InpBadTypeExpr, name, loc.span).At(item)
		}
		return t, nil
	}

	switch kind {
	case decl.KindStruct, decl.KindFunction:
		list, what := raw.Fields, "field"
		if kind == decl.KindFunction {
			list, what = raw.Params, "param"
		}
		for i, rf := range list {
			sp := loc.span
			if i < len(loc.fields) {
				sp = loc.fields[i]
			}
			fname := ident(rf.Name)
			if kind == decl.KindStruct && fname == "" {
				return nil, fail(diag.InpMalformedItem, "%s %d has no name", what, i)
			}
			if strings.TrimSpace(rf.Type) == "" {
				return nil, fail(diag.InpMalformedItem, "%s %q has no type", what, fname)
			}
			t, err := parseType(fname, rf.Type)
			if err != nil {
				return nil, err
			}
			d.Fields = append(d.Fields, decl.Field{Name: fname, Type: t, Span: sp})
		}
		if kind == decl.KindFunction && strings.TrimSpace(raw.Returns) != "" {
			t, err := parseType("return", raw.Returns)
			if err != nil {
				return nil, err
			}
			if !t.IsVoid() {
				d.Result = t
			}
		}

	case decl.KindEnum:
		for i, rv := range raw.Variants {
			vname := ident(rv.Name)
			if vname == "" {
				return nil, fail(diag.InpMalformedItem, "variant %d has no name", i)
			}
			text, err := exprText(rv.Value)
			if err != nil {
				return nil, fail(diag.InpBadValueExpr, "variant %q: %v", vname, err)
			}
			d.Variants = append(d.Variants, decl.Variant{Name: vname, Value: text})
		}

	case decl.KindAlias:
		if strings.TrimSpace(raw.Type) == "" {
			return nil, fail(diag.InpMalformedItem, "type alias has no target type")
		}
		t, err := parseType("", raw.Type)
		if err != nil {
			return nil, err
		}
		d.Type = t

	case decl.KindConst:
		if strings.TrimSpace(raw.Type) == "" {
			return nil, fail(diag.InpMalformedItem, "constant has no type")
		}
		t, err := parseType("", raw.Type)
		if err != nil {
			return nil, err
		}
		d.Type = t
		text, err := exprText(raw.Value)
		if err != nil {
			return nil, fail(diag.InpBadValueExpr, "%v", err)
		}
		if text == "" {
			return nil, fail(diag.InpMalformedItem, "constant has no value")
		}
		v, err := syntax.ParseValue(text)
		if err != nil {
			return nil, diag.Tag(err, diag.InpBadValueExpr, name, loc.span)
		}
		d.Value = v
	}
	return d, nil
}

// exprText renders a decoded scalar as expression source. Strings are taken
// verbatim as expressions; numbers and booleans are formatted.
func exprText(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return "", fmt.Errorf("non-finite value %v", x)
		}
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".") {
			s += ".0"
		}
		return s, nil
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}

// spanOf is the span used for file-level problems.
func spanOf(f *source.File) source.Span {
	if f == nil {
		return source.Span{File: source.NoFile}
	}
	return source.Span{File: f.ID}
}
