package parse

import "fmt"

// Lexer produces the token stream for one DBC source text. It never mutates
// the input; a fresh Lexer over the same text restarts the stream.
type Lexer struct {
	src  string
	pos  int
	line int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Next returns the next token, or a *LexError. After EOF it keeps
// returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line}, nil
	}

	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		return l.scanIdent(), nil
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case c == '+' || c == '-':
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			return l.scanNumber()
		}
		l.pos++
		if c == '+' {
			return Token{Kind: PLUS, Lit: "+", Line: l.line}, nil
		}
		return Token{Kind: MINUS, Lit: "-", Line: l.line}, nil
	case c == '"':
		return l.scanString()
	}

	kind, ok := punct[c]
	if !ok {
		return Token{}, &LexError{Line: l.line, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
	l.pos++
	return Token{Kind: kind, Lit: string(c), Line: l.line}, nil
}

var punct = map[byte]TokenKind{
	':': COLON,
	',': COMMA,
	'|': PIPE,
	'@': AT,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	';': SEMICOLON,
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '\n':
			l.line++
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	lit := l.src[start:l.pos]
	kind := IDENT
	if keywords[lit] {
		kind = KEYWORD
	}
	return Token{Kind: kind, Lit: lit, Line: l.line}
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	kind := INT

	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	l.scanDigits()

	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		kind = FLOAT
		l.pos++
		if !l.scanDigits() {
			return Token{}, &LexError{Line: l.line, Msg: fmt.Sprintf("invalid numeric literal %q", l.src[start:l.pos])}
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		kind = FLOAT
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if !l.scanDigits() {
			return Token{}, &LexError{Line: l.line, Msg: fmt.Sprintf("invalid numeric literal %q", l.src[start:l.pos])}
		}
	}

	return Token{Kind: kind, Lit: l.src[start:l.pos], Line: l.line}, nil
}

func (l *Lexer) scanDigits() bool {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return l.pos > start
}

// scanString reads through to the closing quote. Raw newlines are legal
// inside DBC strings (multi-line comments) and are kept verbatim; there is
// no escape character in the format.
func (l *Lexer) scanString() (Token, error) {
	startLine := l.line
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '"':
			lit := l.src[start:l.pos]
			l.pos++
			return Token{Kind: STRING, Lit: lit, Line: startLine}, nil
		case '\n':
			l.line++
		}
		l.pos++
	}
	return Token{}, &LexError{Line: startLine, Msg: "unterminated string"}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
