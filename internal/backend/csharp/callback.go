package csharp

import (
	"fmt"
	"sort"
	"strings"

	"bindgen/internal/naming"
	"bindgen/internal/output"
	"bindgen/internal/types"
)

// callbackShape derives the delegate of a callback parameter: its name,
// parameter list and the arguments its trampoline hands to CompleteTask.
// The first callback parameter is the user-data slot.
func (b *Backend) callbackShape(cb *types.Type) (*delegateInfo, error) {
	ps := cb.Params
	if len(ps) == 0 || !isUserData(ps[0].Type) {
		return nil, badShape("callback must take the user-data pointer (*mut c_void) first")
	}
	if !cb.Result.IsVoid() {
		return nil, badShape("callback must not return a value")
	}

	rest := ps[1:]
	pairs := naming.ArrayPairs(rest)
	if len(pairs) > 1 {
		return nil, badShape("callback carries %d pointer/length pairs; at most one is supported", len(pairs))
	}

	user := paramName(ps[0], 0)
	info := &delegateInfo{
		params:     []string{hostPtr + " " + user},
		completion: []string{user},
	}
	var pieces []naming.Piece
	utils := b.cfg.UtilsClass

	for i := 0; i < len(rest); i++ {
		p := rest[i]
		name := paramName(p, i+1)
		switch {
		case p.Type.Kind == types.KindCallback:
			return nil, badShape("callbacks inside callbacks are not supported").At(p.Name)

		case len(pairs) == 1 && pairs[0].Index == i:
			elem, err := b.pairElem(&pairs[0])
			if err != nil {
				return nil, at(err, p.Name)
			}
			lenType, err := b.mapType(pairs[0].Len, roleParam)
			if err != nil {
				return nil, err
			}
			lenName := paramName(rest[i+1], i+2)
			info.params = append(info.params, hostPtr+" "+name, lenType.name+" "+lenName)
			info.completion = append(info.completion, copyExpr(utils, elem.name, name, lenName))
			info.tasks = append(info.tasks, elem.name+"[]")
			pieces = append(pieces, naming.Piece{Kind: naming.PieceList, Elem: elem.display()})
			i++

		case p.Type.Kind == types.KindArray:
			if p.Type.Elem.Kind == types.KindArray {
				return nil, badShape("nested arrays are not supported").At(p.Name)
			}
			elem, err := b.arrayElem(p.Type)
			if err != nil {
				return nil, at(err, p.Name)
			}
			ptrName := name + "Ptr"
			if p.Name != "" {
				ptrName = naming.ToLowerCamel(p.Name + "_ptr")
			}
			size := p.Type.LenName
			if size == "" {
				size = sizeExpr(p.Type, false)
			}
			info.params = append(info.params, hostPtr+" "+ptrName)
			info.completion = append(info.completion, copyExpr(utils, elem.name, ptrName, sizeExpr(p.Type, false)))
			info.tasks = append(info.tasks, elem.name+"[]")
			pieces = append(pieces, naming.Piece{Kind: naming.PieceArray, Elem: elem.display(), Size: size})

		case p.Type.Kind == types.KindPointer && p.Type.Elem.Kind == types.KindNamed && p.Type.Elem.Name == b.cfg.ResultType:
			info.params = append(info.params, "ref "+b.cfg.ResultType+" "+name)
			info.completion = append(info.completion, "ref "+name)
			pieces = append(pieces, naming.Piece{Elem: b.cfg.ResultType})

		default:
			h, err := b.mapType(p.Type, roleParam)
			if err != nil {
				return nil, at(err, p.Name)
			}
			info.params = append(info.params, h.param(name, true))
			info.completion = append(info.completion, name)
			info.tasks = append(info.tasks, h.name)
			pieces = append(pieces, naming.Piece{Elem: h.display()})
		}
	}
	info.name = naming.CallbackName(pieces)
	return info, nil
}

func copyExpr(utils, elem, ptr, n string) string {
	if elem == "byte" {
		return fmt.Sprintf("%s.CopyToByteArray(%s, %s)", utils, ptr, n)
	}
	return fmt.Sprintf("%s.CopyToObjectArray<%s>(%s, %s)", utils, elem, ptr, n)
}

// taskTypes returns the wrapper's Task type and the PrepareTask call.
// Several payload values complete a tuple.
func (b *Backend) taskTypes(shape *delegateInfo) (task, prepare string) {
	var arg string
	switch len(shape.tasks) {
	case 0:
		return "Task", b.cfg.UtilsClass + ".PrepareTask()"
	case 1:
		arg = shape.tasks[0]
	default:
		arg = "(" + strings.Join(shape.tasks, ", ") + ")"
	}
	return "Task<" + arg + ">", b.cfg.UtilsClass + ".PrepareTask<" + arg + ">()"
}

// addDelegate records a delegate by name. The first signature wins; a
// trampoline is emitted when any single-callback function uses it.
func (b *Backend) addDelegate(info *delegateInfo, trampoline bool) {
	if ex, ok := b.delegates[info.name]; ok {
		ex.trampoline = ex.trampoline || trampoline
		return
	}
	info.trampoline = trampoline
	b.delegates[info.name] = info
}

// writeCallbacks appends the callbacks region, delegates sorted by name.
func (b *Backend) writeCallbacks(out *output.Set) {
	if len(b.delegates) == 0 {
		return
	}
	names := make([]string, 0, len(b.delegates))
	for name := range b.delegates {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s#region Callbacks\n", indentBody)
	for _, name := range names {
		info := b.delegates[name]
		params := strings.Join(info.params, ", ")
		fmt.Fprintf(&buf, "%sinternal delegate void %s(%s);\n\n", indentBody, name, params)
		if !info.trampoline {
			continue
		}
		fmt.Fprintf(&buf, "%s#if %s\n", indentBody, b.cfg.RestrictedSymbol)
		fmt.Fprintf(&buf, "%s[MonoPInvokeCallback(typeof(%s))]\n", indentBody, name)
		fmt.Fprintf(&buf, "%s#endif\n", indentBody)
		fmt.Fprintf(&buf, "%sprivate static void %s(%s) {\n", indentBody, naming.TrampolineName(name), params)
		fmt.Fprintf(&buf, "%s%s%s.CompleteTask(%s);\n", indentBody, indent, b.cfg.UtilsClass, strings.Join(info.completion, ", "))
		fmt.Fprintf(&buf, "%s}\n\n", indentBody)
	}
	fmt.Fprintf(&buf, "%s#endregion\n\n", indentBody)
	out.Doc(output.Impl).WriteString(buf.String())
}
