package syntax

import "fmt"

// Kind is a token kind.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Ident
	Lifetime // 'a
	IntLit
	FloatLit
	StringLit
	ByteStringLit
	ByteLit // b'x'

	Star      // *
	Amp       // &
	LBracket  // [
	RBracket  // ]
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Lt        // <
	Gt        // >
	Semicolon // ;
	Comma     // ,
	Colon     // :
	ColonCol  // ::
	Arrow     // ->
	Minus     // -
	Bang      // !
)

var kindNames = [...]string{
	Invalid:       "invalid",
	EOF:           "end of expression",
	Ident:         "identifier",
	Lifetime:      "lifetime",
	IntLit:        "integer literal",
	FloatLit:      "float literal",
	StringLit:     "string literal",
	ByteStringLit: "byte string literal",
	ByteLit:       "byte literal",
	Star:          "'*'",
	Amp:           "'&'",
	LBracket:      "'['",
	RBracket:      "']'",
	LParen:        "'('",
	RParen:        "')'",
	LBrace:        "'{'",
	RBrace:        "'}'",
	Lt:            "'<'",
	Gt:            "'>'",
	Semicolon:     "';'",
	Comma:         "','",
	Colon:         "':'",
	ColonCol:      "'::'",
	Arrow:         "'->'",
	Minus:         "'-'",
	Bang:          "'!'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Token is a lexical unit. For literals Text holds the decoded value
// (digits without underscores, unescaped string contents) and Suffix the
// type suffix such as "u8" or "f32".
type Token struct {
	Kind   Kind
	Text   string
	Suffix string
	Off    int
}

// Is reports whether the token is the identifier or keyword kw.
func (t Token) Is(kw string) bool {
	return t.Kind == Ident && t.Text == kw
}
