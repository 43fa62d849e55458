package dbcparser

import (
	"fmt"
	"strings"
)

// Lexer tokenizes DBC source text into a stream of tokens.
type Lexer struct {
	src   []byte
	pos   int // current byte offset
	line  int // current line (1-based)
	col   int // current column (1-based)
	diags []Diagnostic
}

// NewLexer creates a new Lexer for the given source bytes.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// ScanAll tokenizes the entire input and returns the token sequence plus any
// lexical diagnostics. The sequence always ends with an EOF token, so the
// parser can replay and backtrack over it freely. On a malformed token the
// lexer records a diagnostic and resynchronizes at the next plausible token
// boundary rather than stopping.
func (l *Lexer) ScanAll() ([]Token, []Diagnostic) {
	var tokens []Token
	for {
		tok, ok := l.scan()
		if !ok {
			continue // diagnostic recorded, resume at next boundary
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, l.diags
		}
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) errorf(pos Position, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{
		Rule:     "syntax",
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else {
			return
		}
	}
}

// scan returns the next token. A false second result means a malformed token
// was diagnosed and skipped; the caller should scan again.
func (l *Lexer) scan() (Token, bool) {
	l.skipWhitespace()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Pos: l.currentPos()}, true
	}

	pos := l.currentPos()
	ch := l.peek()

	switch ch {
	case ':':
		l.advance()
		return Token{Kind: TokenColon, Literal: ":", Pos: pos}, true
	case ',':
		l.advance()
		return Token{Kind: TokenComma, Literal: ",", Pos: pos}, true
	case '|':
		l.advance()
		return Token{Kind: TokenPipe, Literal: "|", Pos: pos}, true
	case '@':
		l.advance()
		return Token{Kind: TokenAt, Literal: "@", Pos: pos}, true
	case '(':
		l.advance()
		return Token{Kind: TokenLParen, Literal: "(", Pos: pos}, true
	case ')':
		l.advance()
		return Token{Kind: TokenRParen, Literal: ")", Pos: pos}, true
	case '[':
		l.advance()
		return Token{Kind: TokenLBracket, Literal: "[", Pos: pos}, true
	case ']':
		l.advance()
		return Token{Kind: TokenRBracket, Literal: "]", Pos: pos}, true
	case ';':
		l.advance()
		return Token{Kind: TokenSemicolon, Literal: ";", Pos: pos}, true
	case '"':
		return l.scanString()
	case '+':
		if isDigit(l.peekAt(1)) {
			return l.scanNumber()
		}
		l.advance()
		return Token{Kind: TokenPlus, Literal: "+", Pos: pos}, true
	case '-':
		if isDigit(l.peekAt(1)) {
			return l.scanNumber()
		}
		l.advance()
		return Token{Kind: TokenMinus, Literal: "-", Pos: pos}, true
	}

	if isDigit(ch) {
		return l.scanNumber()
	}

	if isIdentStart(ch) {
		return l.scanIdentifier()
	}

	l.advance()
	l.errorf(pos, "unexpected character %q", ch)
	return Token{}, false
}

// scanString reads a double-quoted string. DBC strings have no escape
// sequences and may span multiple lines (comment text frequently does).
func (l *Lexer) scanString() (Token, bool) {
	pos := l.currentPos()
	l.advance() // consume opening "

	var sb strings.Builder
	for {
		if l.atEnd() {
			l.errorf(pos, "unterminated string")
			return Token{}, false
		}
		ch := l.advance()
		if ch == '"' {
			return Token{Kind: TokenString, Literal: sb.String(), Pos: pos}, true
		}
		sb.WriteByte(ch)
	}
}

// scanNumber reads a signed integer or float literal: an optional sign, a
// digit run, an optional '.' plus fractional run, and an optional exponent.
// A literal immediately followed by an identifier character is rejected as
// malformed rather than split into two tokens.
func (l *Lexer) scanNumber() (Token, bool) {
	pos := l.currentPos()
	start := l.pos

	if l.peek() == '-' || l.peek() == '+' {
		l.advance()
	}
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}

	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance() // consume '.'
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			isFloat = true
			l.advance() // consume exponent marker
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for !l.atEnd() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	if !l.atEnd() && (isIdentPart(l.peek()) || l.peek() == '.') {
		// Trailing garbage such as 12abc or 1.2.3: consume the rest of the
		// run so the next scan starts at a clean boundary.
		for !l.atEnd() && (isIdentPart(l.peek()) || l.peek() == '.') {
			l.advance()
		}
		l.errorf(pos, "malformed numeric literal %q", string(l.src[start:l.pos]))
		return Token{}, false
	}

	literal := string(l.src[start:l.pos])
	if isFloat {
		return Token{Kind: TokenFloat, Literal: literal, Pos: pos}, true
	}
	return Token{Kind: TokenInteger, Literal: literal, Pos: pos}, true
}

func (l *Lexer) scanIdentifier() (Token, bool) {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}

	literal := string(l.src[start:l.pos])

	if kind, ok := keywords[literal]; ok {
		return Token{Kind: kind, Literal: literal, Pos: pos}, true
	}

	return Token{Kind: TokenIdent, Literal: literal, Pos: pos}, true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
