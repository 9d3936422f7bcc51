package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner splits an expression into tokens.
type Scanner struct {
	src string
	off int
	err *ScanError
}

// ScanError describes a lexical error at Off.
type ScanError struct {
	Off int
	Msg string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("col %d: %s", e.Off+1, e.Msg)
}

// NewScanner creates a scanner over src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Err returns the first lexical error, if any.
func (s *Scanner) Err() *ScanError {
	return s.err
}

func (s *Scanner) fail(off int, format string, args ...any) Token {
	if s.err == nil {
		s.err = &ScanError{Off: off, Msg: fmt.Sprintf(format, args...)}
	}
	s.off = len(s.src)
	return Token{Kind: Invalid, Off: off}
}

func (s *Scanner) peek(n int) byte {
	if s.off+n < len(s.src) {
		return s.src[s.off+n]
	}
	return 0
}

// Next returns the next token. After the end it always returns EOF.
func (s *Scanner) Next() Token {
	s.skipSpace()
	start := s.off
	if s.off >= len(s.src) {
		return Token{Kind: EOF, Off: start}
	}

	ch := s.src[s.off]
	switch {
	case ch == 'b' && s.peek(1) == '"':
		s.off++
		tok := s.scanString(start)
		if tok.Kind == StringLit {
			tok.Kind = ByteStringLit
		}
		return tok
	case ch == 'b' && s.peek(1) == '\'':
		return s.scanByte(start)
	case ch == 'r' && (s.peek(1) == '"' || (s.peek(1) == '#' && (s.peek(2) == '"' || s.peek(2) == '#'))):
		return s.scanRawString(start)
	case isIdentStart(ch) || ch >= utf8.RuneSelf:
		return s.scanIdent(start)
	case ch >= '0' && ch <= '9':
		return s.scanNumber(start)
	case ch == '"':
		return s.scanString(start)
	case ch == '\'':
		s.off++
		if !isIdentStart(s.peek(0)) {
			return s.fail(start, "char literals are not supported")
		}
		id := s.scanIdent(s.off)
		if s.peek(0) == '\'' {
			return s.fail(start, "char literals are not supported")
		}
		return Token{Kind: Lifetime, Text: id.Text, Off: start}
	}

	s.off++
	switch ch {
	case '*':
		return Token{Kind: Star, Off: start}
	case '&':
		return Token{Kind: Amp, Off: start}
	case '[':
		return Token{Kind: LBracket, Off: start}
	case ']':
		return Token{Kind: RBracket, Off: start}
	case '(':
		return Token{Kind: LParen, Off: start}
	case ')':
		return Token{Kind: RParen, Off: start}
	case '{':
		return Token{Kind: LBrace, Off: start}
	case '}':
		return Token{Kind: RBrace, Off: start}
	case '<':
		return Token{Kind: Lt, Off: start}
	case '>':
		return Token{Kind: Gt, Off: start}
	case ';':
		return Token{Kind: Semicolon, Off: start}
	case ',':
		return Token{Kind: Comma, Off: start}
	case '!':
		return Token{Kind: Bang, Off: start}
	case ':':
		if s.peek(0) == ':' {
			s.off++
			return Token{Kind: ColonCol, Off: start}
		}
		return Token{Kind: Colon, Off: start}
	case '-':
		if s.peek(0) == '>' {
			s.off++
			return Token{Kind: Arrow, Off: start}
		}
		return Token{Kind: Minus, Off: start}
	}
	return s.fail(start, "unexpected character %q", ch)
}

func (s *Scanner) skipSpace() {
	for s.off < len(s.src) {
		switch s.src[s.off] {
		case ' ', '\t', '\n', '\r':
			s.off++
		case '/':
			if s.peek(1) != '/' {
				return
			}
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.off++
			}
		default:
			return
		}
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func (s *Scanner) scanIdent(start int) Token {
	for s.off < len(s.src) {
		ch := s.src[s.off]
		if isIdentContinue(ch) {
			s.off++
			continue
		}
		if ch < utf8.RuneSelf {
			break
		}
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		s.off += size
	}
	if s.off == start {
		return s.fail(start, "invalid identifier")
	}
	return Token{Kind: Ident, Text: s.src[start:s.off], Off: start}
}

// scanNumber handles decimal, 0x/0o/0b integers and decimal floats, with
// '_' separators and an optional type suffix.
func (s *Scanner) scanNumber(start int) Token {
	var digits strings.Builder
	kind := IntLit

	prefixed := s.peek(0) == '0' && (s.peek(1) == 'x' || s.peek(1) == 'o' || s.peek(1) == 'b')
	if prefixed {
		digits.WriteString(s.src[s.off : s.off+2])
		s.off += 2
		for s.off < len(s.src) && (isHex(s.src[s.off]) || s.src[s.off] == '_') {
			// hex digits overlap with the f32/f64 suffix only in 0x literals,
			// which cannot carry a float suffix anyway
			if s.src[s.off] != '_' {
				digits.WriteByte(s.src[s.off])
			}
			s.off++
		}
	} else {
		s.scanDigits(&digits)
		if s.peek(0) == '.' && s.peek(1) >= '0' && s.peek(1) <= '9' {
			kind = FloatLit
			digits.WriteByte('.')
			s.off++
			s.scanDigits(&digits)
		}
		if (s.peek(0) == 'e' || s.peek(0) == 'E') &&
			((s.peek(1) >= '0' && s.peek(1) <= '9') || s.peek(1) == '-' || s.peek(1) == '+') {
			kind = FloatLit
			digits.WriteByte('e')
			s.off++
			if s.peek(0) == '-' || s.peek(0) == '+' {
				digits.WriteByte(s.src[s.off])
				s.off++
			}
			s.scanDigits(&digits)
		}
	}

	sufStart := s.off
	for s.off < len(s.src) && isIdentContinue(s.src[s.off]) {
		s.off++
	}
	suffix := s.src[sufStart:s.off]
	switch suffix {
	case "", "u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64", "usize", "isize":
	case "f32", "f64":
		if prefixed {
			return s.fail(start, "invalid float suffix on prefixed literal")
		}
		kind = FloatLit
	default:
		return s.fail(sufStart, "invalid literal suffix %q", suffix)
	}
	if digits.Len() == 0 || (prefixed && digits.Len() == 2) {
		return s.fail(start, "malformed number")
	}
	return Token{Kind: kind, Text: digits.String(), Suffix: suffix, Off: start}
}

func (s *Scanner) scanDigits(sb *strings.Builder) {
	for s.off < len(s.src) {
		ch := s.src[s.off]
		if ch >= '0' && ch <= '9' {
			sb.WriteByte(ch)
		} else if ch != '_' {
			return
		}
		s.off++
	}
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func (s *Scanner) scanString(start int) Token {
	s.off++ // opening quote
	var sb strings.Builder
	for s.off < len(s.src) {
		ch := s.src[s.off]
		switch ch {
		case '"':
			s.off++
			return Token{Kind: StringLit, Text: sb.String(), Off: start}
		case '\\':
			if !s.scanEscape(&sb) {
				return Token{Kind: Invalid, Off: start}
			}
		default:
			sb.WriteByte(ch)
			s.off++
		}
	}
	return s.fail(start, "unterminated string literal")
}

func (s *Scanner) scanEscape(sb *strings.Builder) bool {
	at := s.off
	s.off++ // backslash
	ch := s.peek(0)
	s.off++
	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case '\\', '"', '\'':
		sb.WriteByte(ch)
	case '\n':
		// line continuation skips leading whitespace of the next line
		for s.off < len(s.src) && (s.src[s.off] == ' ' || s.src[s.off] == '\t' || s.src[s.off] == '\n' || s.src[s.off] == '\r') {
			s.off++
		}
	case 'x':
		if s.off+2 > len(s.src) {
			s.fail(at, "short \\x escape")
			return false
		}
		v, err := strconv.ParseUint(s.src[s.off:s.off+2], 16, 8)
		if err != nil {
			s.fail(at, "invalid \\x escape")
			return false
		}
		sb.WriteByte(byte(v))
		s.off += 2
	case 'u':
		end := strings.IndexByte(s.src[s.off:], '}')
		if s.peek(0) != '{' || end < 0 {
			s.fail(at, "invalid \\u escape")
			return false
		}
		v, err := strconv.ParseUint(s.src[s.off+1:s.off+end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			s.fail(at, "invalid \\u escape")
			return false
		}
		sb.WriteRune(rune(v))
		s.off += end + 1
	default:
		s.fail(at, "unknown escape \\%c", ch)
		return false
	}
	return true
}

func (s *Scanner) scanRawString(start int) Token {
	s.off++ // r
	hashes := 0
	for s.peek(0) == '#' {
		hashes++
		s.off++
	}
	if s.peek(0) != '"' {
		return s.fail(start, "malformed raw string")
	}
	s.off++
	closing := "\"" + strings.Repeat("#", hashes)
	end := strings.Index(s.src[s.off:], closing)
	if end < 0 {
		return s.fail(start, "unterminated raw string")
	}
	text := s.src[s.off : s.off+end]
	s.off += end + len(closing)
	return Token{Kind: StringLit, Text: text, Off: start}
}

func (s *Scanner) scanByte(start int) Token {
	s.off += 2 // b'
	var sb strings.Builder
	if s.peek(0) == '\\' {
		if !s.scanEscape(&sb) {
			return Token{Kind: Invalid, Off: start}
		}
	} else if s.off < len(s.src) {
		sb.WriteByte(s.src[s.off])
		s.off++
	}
	if s.peek(0) != '\'' || sb.Len() != 1 {
		return s.fail(start, "malformed byte literal")
	}
	s.off++
	return Token{Kind: ByteLit, Text: strconv.Itoa(int(sb.String()[0])), Off: start}
}
