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

// signature holds the attributes derived once per function.
type signature struct {
	params    []types.Param // resolved
	result    *types.Type   // nil for none
	userData  int           // index of the user-data slot, -1 if absent
	callbacks []int         // indices of callback params, trailing
	regular   int           // params[:regular] are plain inputs
	pair      *naming.Pair  // pointer/length pair among regular params
}

func (s *signature) isPairPtr(i int) bool { return s.pair != nil && s.pair.Index == i }
func (s *signature) isPairLen(i int) bool { return s.pair != nil && s.pair.Index+1 == i }

func isUserData(t *types.Type) bool {
	return t.IsPointerTo(types.CVoid)
}

func paramName(p types.Param, i int) string {
	if p.Name == "" {
		return fmt.Sprintf("arg%d", i)
	}
	return naming.ToLowerCamel(p.Name)
}

// Function emits the native import of an exported function plus, when the
// callback layout allows it, an idiomatic wrapper. Functions lacking either
// #[no_mangle] or extern "C" are skipped.
func (b *Backend) Function(d *decl.Decl, out *output.Set) error {
	b.prepare(out)
	if !d.Exported() {
		return nil
	}
	sig, err := b.analyze(d)
	if err != nil {
		return err
	}

	shapes := make([]*delegateInfo, len(sig.callbacks))
	for i, idx := range sig.callbacks {
		shape, err := b.callbackShape(sig.params[idx].Type)
		if err != nil {
			return at(err, sig.params[idx].Name)
		}
		shapes[i] = shape
	}

	native, err := b.nativeImport(d, sig, shapes)
	if err != nil {
		return err
	}

	var impl, iface strings.Builder
	switch len(shapes) {
	case 0:
		wrapper, err := b.syncWrapper(d, sig)
		if err != nil {
			return err
		}
		impl.WriteString(wrapper)
	case 1:
		wrapper, entry, err := b.asyncWrapper(d, sig, shapes[0])
		if err != nil {
			return err
		}
		impl.WriteString(wrapper)
		iface.WriteString(entry)
	}
	impl.WriteString(native)

	for _, s := range shapes {
		b.addDelegate(s, len(shapes) == 1)
	}
	out.Doc(output.Impl).WriteString(impl.String())
	if iface.Len() > 0 {
		out.Doc(output.Interface).WriteString(iface.String())
	}
	return nil
}

func (b *Backend) analyze(d *decl.Decl) (*signature, error) {
	sig := &signature{userData: -1}
	sig.params = make([]types.Param, len(d.Fields))
	for i, f := range d.Fields {
		rt, err := b.env.Resolve(f.Type)
		if err != nil {
			return nil, at(err, f.Name)
		}
		sig.params[i] = types.Param{Name: f.Name, Type: rt}
		if rt.Kind == types.KindCallback {
			sig.callbacks = append(sig.callbacks, i)
		}
	}
	if d.Result != nil {
		rt, err := b.env.Resolve(d.Result)
		if err != nil {
			return nil, at(err, "return")
		}
		if !rt.IsVoid() {
			sig.result = rt
		}
	}

	sig.regular = len(sig.params)
	if len(sig.callbacks) > 0 {
		first := sig.callbacks[0]
		for j, idx := range sig.callbacks {
			if idx != first+j || idx != len(sig.params)-len(sig.callbacks)+j {
				return nil, badShape("callbacks must be the trailing parameters").At(sig.params[idx].Name)
			}
		}
		sig.regular = first
		if first > 0 && isUserData(sig.params[first-1].Type) {
			sig.userData = first - 1
			sig.regular = first - 1
		}
		if len(sig.callbacks) == 1 && sig.userData < 0 {
			return nil, badShape("callback must be preceded by a user-data parameter (*mut c_void)").
				At(sig.params[first].Name)
		}
	}

	outs := 0
	for _, p := range sig.params[:sig.regular] {
		if !isOutParam(p.Type) {
			continue
		}
		if outs++; outs > 1 {
			return nil, unsupported("more than one out parameter; return a struct instead").At(p.Name)
		}
	}

	pairs := naming.ArrayPairs(sig.params[:sig.regular])
	if len(pairs) > 1 {
		return nil, diag.NewErr(diag.EmtMultipleArrayPairs,
			fmt.Sprintf("%d pointer/length pairs; at most one is supported", len(pairs))).
			At(pairs[1].Base + "_ptr")
	}
	if len(pairs) == 1 {
		sig.pair = &pairs[0]
	}
	return sig, nil
}

// isOutParam reports whether t is marshalled as an out argument.
func isOutParam(t *types.Type) bool {
	return t.Kind == types.KindPointer && t.Elem.Kind == types.KindPointer
}

func (b *Backend) returnType(sig *signature) (string, error) {
	if sig.result == nil {
		return "void", nil
	}
	h, err := b.mapType(sig.result, roleReturn)
	if err != nil {
		return "", at(err, "return")
	}
	return h.name, nil
}

// nativeImport renders the DllImport declaration.
func (b *Backend) nativeImport(d *decl.Decl, sig *signature, shapes []*delegateInfo) (string, error) {
	ret, err := b.returnType(sig)
	if err != nil {
		return "", err
	}
	params := make([]string, 0, len(sig.params))
	cb := 0
	for i, p := range sig.params {
		name := paramName(p, i)
		switch {
		case sig.isPairPtr(i):
			elem, err := b.pairElem(sig.pair)
			if err != nil {
				return "", at(err, p.Name)
			}
			params = append(params, fmt.Sprintf("[MarshalAs(UnmanagedType.LPArray, SizeParamIndex = %d)] %s[] %s",
				i+1, elem.name, naming.ToLowerCamel(sig.pair.Base)))
		case i == sig.userData:
			params = append(params, hostPtr+" "+name)
		case p.Type.Kind == types.KindCallback:
			params = append(params, shapes[cb].name+" "+name)
			cb++
		default:
			h, err := b.mapType(p.Type, roleParam)
			if err != nil {
				return "", at(err, p.Name)
			}
			params = append(params, h.param(name, true))
		}
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s[DllImport(DLL_NAME, EntryPoint = %q)]\n", indentBody, d.Name)
	fmt.Fprintf(&buf, "%sinternal static extern %s %sNative(%s);\n\n",
		indentBody, ret, naming.ToUpperCamel(d.Name), strings.Join(params, ", "))
	return buf.String(), nil
}

func (b *Backend) pairElem(p *naming.Pair) (hostType, error) {
	if p.Elem.Kind == types.KindPointer || p.Elem.Kind == types.KindArray || p.Elem.Kind == types.KindCallback {
		return hostType{}, unsupported("arrays of %s are not supported", p.Elem.Kind)
	}
	h, err := b.mapType(p.Elem, roleField)
	h.attr = ""
	return h, err
}

// wrapperArgs renders the public parameter list and the matching native
// call arguments for the regular params.
func (b *Backend) wrapperArgs(sig *signature) (params, args []string, err error) {
	for i, p := range sig.params[:sig.regular] {
		name := paramName(p, i)
		switch {
		case sig.isPairPtr(i):
			elem, err := b.pairElem(sig.pair)
			if err != nil {
				return nil, nil, at(err, p.Name)
			}
			lenType, err := b.mapType(sig.pair.Len, roleParam)
			if err != nil {
				return nil, nil, err
			}
			base := naming.ToLowerCamel(sig.pair.Base)
			params = append(params, elem.name+"[] "+base)
			args = append(args, base, fmt.Sprintf("(%s) %s.Length", lenType.name, base))
		case sig.isPairLen(i):
		default:
			h, err := b.mapType(p.Type, roleParam)
			if err != nil {
				return nil, nil, at(err, p.Name)
			}
			params = append(params, h.param(name, false))
			if h.mod != "" {
				name = h.mod + " " + name
			}
			args = append(args, name)
		}
	}
	return params, args, nil
}

func (b *Backend) syncWrapper(d *decl.Decl, sig *signature) (string, error) {
	ret, err := b.returnType(sig)
	if err != nil {
		return "", err
	}
	params, args, err := b.wrapperArgs(sig)
	if err != nil {
		return "", err
	}
	name := naming.ToUpperCamel(d.Name)

	var buf strings.Builder
	fmt.Fprintf(&buf, "%spublic %s %s(%s) {\n", indentBody, ret, name, strings.Join(params, ", "))
	ret = ""
	if sig.result != nil {
		ret = "return "
	}
	fmt.Fprintf(&buf, "%s%s%s%sNative(%s);\n", indentBody, indent, ret, name, strings.Join(args, ", "))
	fmt.Fprintf(&buf, "%s}\n\n", indentBody)
	return buf.String(), nil
}

// asyncWrapper renders the Task-returning wrapper and its interface entry.
func (b *Backend) asyncWrapper(d *decl.Decl, sig *signature, shape *delegateInfo) (wrapper, entry string, err error) {
	params, args, err := b.wrapperArgs(sig)
	if err != nil {
		return "", "", err
	}
	args = append(args, "userData", naming.TrampolineName(shape.name))
	name := naming.ToUpperCamel(d.Name)
	task, prepare := b.taskTypes(shape)
	head := fmt.Sprintf("%s %s(%s)", task, name, strings.Join(params, ", "))

	var buf strings.Builder
	fmt.Fprintf(&buf, "%spublic %s {\n", indentBody, head)
	fmt.Fprintf(&buf, "%s%svar (task, userData) = %s;\n", indentBody, indent, prepare)
	fmt.Fprintf(&buf, "%s%s%sNative(%s);\n", indentBody, indent, name, strings.Join(args, ", "))
	fmt.Fprintf(&buf, "%s%sreturn task;\n", indentBody, indent)
	fmt.Fprintf(&buf, "%s}\n\n", indentBody)
	return buf.String(), fmt.Sprintf("%s%s;\n", indentBody, head), nil
}
