package parse

import "fmt"

// LexError reports a malformed token. Lexing aborts at the first one.
type LexError struct {
	Line int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseError reports a grammar violation: what the active rule expected and
// the token it found instead. Parsing aborts at the first one; a partially
// parsed database is unsafe to hand to the codec.
type ParseError struct {
	Line     int
	Expected string
	Found    Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: expected %s, found %s", e.Line, e.Expected, e.Found)
}
