package decl

import "strconv"

// ValueKind tags a constant value node.
type ValueKind uint8

const (
	ValInvalid ValueKind = iota
	ValInt
	ValFloat
	ValBool
	ValString
	ValArray
	ValStruct
	ValRef
	ValNull
	ValIdent
)

// FieldValue is one initializer of a struct literal.
type FieldValue struct {
	Name  string
	Value *Value
}

// Value is a constant expression tree.
type Value struct {
	Kind   ValueKind
	Text   string // literal digits, string contents, identifier
	Neg    bool   // ValInt, ValFloat
	Elems  []*Value
	Type   string // ValStruct
	Fields []FieldValue
	Inner  *Value // ValRef
}

// Int builds an integer literal node.
func Int(v int64) *Value {
	if v < 0 {
		return &Value{Kind: ValInt, Text: strconv.FormatInt(-v, 10), Neg: true}
	}
	return &Value{Kind: ValInt, Text: strconv.FormatInt(v, 10)}
}

// String builds a string literal node.
func String(s string) *Value {
	return &Value{Kind: ValString, Text: s}
}

// Number renders a numeric literal with its sign.
func (v *Value) Number() string {
	if v.Neg {
		return "-" + v.Text
	}
	return v.Text
}

// IsZero reports whether v is the integer literal 0.
func (v *Value) IsZero() bool {
	if v == nil || v.Kind != ValInt {
		return false
	}
	n, err := strconv.ParseUint(v.Text, 0, 64)
	return err == nil && n == 0
}

// Deref strips reference nodes.
func (v *Value) Deref() *Value {
	for v != nil && v.Kind == ValRef {
		v = v.Inner
	}
	return v
}
