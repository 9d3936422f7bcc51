package types

import (
	"fmt"
	"strings"

	"bindgen/internal/diag"
)

// Error classes re-exported for callers that only deal with types.
var (
	ErrUnresolvedType  = diag.ErrUnresolvedType
	ErrUnsupportedType = diag.ErrUnsupportedType
)

// NativeSuffix is appended to the host name of structs carrying
// pointer/length pairs so hand-written wrappers can take the plain name.
const NativeSuffix = "Native"

type nameKind uint8

const (
	nameUnknown nameKind = iota
	nameAlias
	nameOpaque
	nameStruct
	nameEnum
	nameExtern
)

// Env is the type environment of one compilation. It is filled
// incrementally while declarations are processed in source order.
type Env struct {
	strict  bool
	kinds   map[string]nameKind
	aliases map[string]*Type
	dynamic map[string]bool
	fields  map[string][]Param
	queried map[string]bool
	opaque  []string
}

// NewEnv creates an empty environment. In strict mode named types that are
// neither declared nor configured fail to resolve.
func NewEnv(strict bool) *Env {
	return &Env{
		strict:  strict,
		kinds:   make(map[string]nameKind),
		aliases: make(map[string]*Type),
		dynamic: make(map[string]bool),
		fields:  make(map[string][]Param),
		queried: make(map[string]bool),
	}
}

// Strict reports whether unknown named types are rejected.
func (e *Env) Strict() bool { return e.strict }

// RegisterAlias records name as an alias of target. Re-registering an alias
// after it has been resolved is rejected.
func (e *Env) RegisterAlias(name string, target *Type) error {
	if e.queried[name] {
		if old, ok := e.aliases[name]; ok {
			return diag.NewErr(diag.TypAliasRedefined,
				fmt.Sprintf("alias %s already resolved to %s", name, old))
		}
		return diag.NewErr(diag.TypAliasRedefined,
			fmt.Sprintf("alias %s declared after it was used", name))
	}
	if k := e.kinds[name]; k != nameUnknown && k != nameAlias {
		return diag.NewErr(diag.TypAliasRedefined,
			fmt.Sprintf("%s is already declared as a type", name))
	}
	e.kinds[name] = nameAlias
	e.aliases[name] = target
	return nil
}

// RegisterOpaque declares name as an opaque handle type.
func (e *Env) RegisterOpaque(name string) {
	if e.kinds[name] != nameOpaque {
		e.opaque = append(e.opaque, name)
	}
	e.kinds[name] = nameOpaque
}

// RegisterStruct declares a C-layout struct. Dynamic structs carry at least
// one pointer/length pair.
func (e *Env) RegisterStruct(name string, dynamic bool, fields []Param) {
	e.kinds[name] = nameStruct
	e.dynamic[name] = dynamic
	e.fields[name] = fields
}

// ProvisionalStruct registers name as a plain struct while its own fields
// are resolved. The returned func restores whatever name meant before.
func (e *Env) ProvisionalStruct(name string) (undo func()) {
	kind, hadKind := e.kinds[name]
	dyn, hadDyn := e.dynamic[name]
	fields, hadFields := e.fields[name]
	e.RegisterStruct(name, false, nil)
	return func() {
		if hadKind {
			e.kinds[name] = kind
		} else {
			delete(e.kinds, name)
		}
		if hadDyn {
			e.dynamic[name] = dyn
		} else {
			delete(e.dynamic, name)
		}
		if hadFields {
			e.fields[name] = fields
		} else {
			delete(e.fields, name)
		}
	}
}

// RegisterEnum declares a C-ABI enum.
func (e *Env) RegisterEnum(name string) {
	e.kinds[name] = nameEnum
}

// RegisterExtern declares a type provided by hand-written host code.
func (e *Env) RegisterExtern(name string) {
	if e.kinds[name] == nameUnknown {
		e.kinds[name] = nameExtern
	}
}

// IsOpaque reports whether name was registered as an opaque type.
func (e *Env) IsOpaque(name string) bool {
	return e.kinds[name] == nameOpaque
}

// IsDynamic reports whether name is a struct with pointer/length pairs.
func (e *Env) IsDynamic(name string) bool {
	return e.dynamic[name]
}

// IsEnum reports whether name is a declared enum.
func (e *Env) IsEnum(name string) bool {
	return e.kinds[name] == nameEnum
}

// Opaque returns opaque type names in registration order.
func (e *Env) Opaque() []string {
	return e.opaque
}

// StructFields returns the resolved fields of a declared struct.
func (e *Env) StructFields(name string) ([]Param, bool) {
	f, ok := e.fields[name]
	return f, ok
}

// HostName is the name a declared type carries in generated code.
func (e *Env) HostName(name string) string {
	if e.dynamic[name] {
		return name + NativeSuffix
	}
	return name
}

// Resolve replaces every alias inside t by its target, following alias
// chains to a fixed point. The result shares no nodes with t.
func (e *Env) Resolve(t *Type) (*Type, error) {
	return e.resolve(t, nil)
}

func (e *Env) resolve(t *Type, chain []string) (*Type, error) {
	if t == nil {
		return nil, nil
	}
	switch t.Kind {
	case KindVoid, KindPrimitive:
		cp := *t
		return &cp, nil
	case KindPointer, KindArray:
		elem, err := e.resolve(t.Elem, chain)
		if err != nil {
			return nil, err
		}
		cp := *t
		cp.Elem = elem
		return &cp, nil
	case KindCallback:
		params := make([]Param, len(t.Params))
		for i, p := range t.Params {
			rt, err := e.resolve(p.Type, chain)
			if err != nil {
				return nil, err
			}
			params[i] = Param{Name: p.Name, Type: rt}
		}
		res, err := e.resolve(t.Result, chain)
		if err != nil {
			return nil, err
		}
		return MakeCallback(params, res), nil
	case KindNamed:
		return e.resolveNamed(t.Name, chain)
	}
	return nil, diag.NewErr(diag.TypUnsupported, fmt.Sprintf("cannot resolve %s type", t.Kind))
}

func (e *Env) resolveNamed(name string, chain []string) (*Type, error) {
	e.queried[name] = true
	switch e.kinds[name] {
	case nameAlias:
		for i, seen := range chain {
			if seen == name {
				return nil, diag.NewErr(diag.TypCyclicAlias,
					fmt.Sprintf("cyclic type alias: %s", cycleString(chain[i:], name)))
			}
		}
		return e.resolve(e.aliases[name], append(chain, name))
	case nameUnknown:
		if e.strict {
			return nil, diag.NewErr(diag.TypUnresolved, fmt.Sprintf("unresolved type %s", name))
		}
	}
	return MakeNamed(name), nil
}

func cycleString(chain []string, last string) string {
	parts := make([]string, 0, len(chain)+1)
	parts = append(parts, chain...)
	return strings.Join(append(parts, last), " -> ")
}
