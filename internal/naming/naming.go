// Package naming holds the pure naming heuristics shared by backends:
// identifier case conversion, pointer/length pair detection and callback
// delegate names.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"bindgen/internal/types"
)

// ToUpperCamel converts snake_case or SCREAMING_CASE to UpperCamelCase.
// Identifiers that are already camel-cased keep their inner capitals.
func ToUpperCamel(s string) string {
	var sb strings.Builder
	for _, word := range strings.Split(s, "_") {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
		rest := word[size:]
		if isUpper(word) {
			rest = strings.ToLower(rest)
		}
		sb.WriteString(rest)
	}
	return sb.String()
}

// ToLowerCamel converts snake_case to lowerCamelCase.
func ToLowerCamel(s string) string {
	upper := ToUpperCamel(s)
	if upper == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(upper)
	return string(unicode.ToLower(r)) + upper[size:]
}

// isUpper reports whether word has letters and all of them are upper case.
func isUpper(word string) bool {
	letters := false
	for _, r := range word {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}

const (
	ptrSuffix = "_ptr"
	lenSuffix = "_len"
)

// Pair is a logical array formed by `<base>_ptr` immediately followed by
// `<base>_len`. Index is the position of the pointer slot.
type Pair struct {
	Index int
	Base  string
	Elem  *types.Type
	Len   *types.Type
}

// ArrayPairs finds pointer/length pairs in params. Detection is positional
// and suffix based only; types are expected to be resolved. Untyped buffers
// (*c_void) never form a pair.
func ArrayPairs(params []types.Param) []Pair {
	var pairs []Pair
	for i := 0; i+1 < len(params); i++ {
		ptr, n := params[i], params[i+1]
		base, ok := strings.CutSuffix(ptr.Name, ptrSuffix)
		if !ok || base == "" || n.Name != base+lenSuffix {
			continue
		}
		if ptr.Type == nil || ptr.Type.Kind != types.KindPointer || ptr.Type.Elem.IsPrim(types.CVoid) || !IsLenType(n.Type) {
			continue
		}
		pairs = append(pairs, Pair{Index: i, Base: base, Elem: ptr.Type.Elem, Len: n.Type})
		i++
	}
	return pairs
}

// IsLenType reports whether t can carry an element count.
func IsLenType(t *types.Type) bool {
	return t.IsPrim(types.Usize) || t.IsPrim(types.U64) || t.IsPrim(types.U32)
}

// IsDynamicStruct reports whether a struct has at least one pair.
func IsDynamicStruct(fields []types.Param) bool {
	return len(ArrayPairs(fields)) > 0
}

// NativeName is the host name of a dynamic struct.
func NativeName(name string) string {
	return name + types.NativeSuffix
}

// PieceKind classifies one logical callback parameter.
type PieceKind uint8

const (
	PieceValue PieceKind = iota // a plain value or the status result
	PieceArray                  // fixed-size array
	PieceList                   // pointer/length pair
)

// Piece is one logical callback parameter as seen by CallbackName. Elem is
// the display name (`ULong`, `Byte`, `FfiResult`); Size is the array length
// literal or constant name for PieceArray.
type Piece struct {
	Kind PieceKind
	Elem string
	Size string
}

// CallbackName derives the delegate name from the logical parameters that
// follow the user-data slot.
func CallbackName(pieces []Piece) string {
	if len(pieces) == 0 {
		return "NoneCb"
	}
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Elem)
		switch p.Kind {
		case PieceArray:
			sb.WriteString("Array")
			sb.WriteString(ToUpperCamel(p.Size))
		case PieceList:
			sb.WriteString("List")
		}
	}
	sb.WriteString("Cb")
	return sb.String()
}

// TrampolineName is the name of the static method completing a task.
func TrampolineName(delegate string) string {
	return "On" + delegate
}
