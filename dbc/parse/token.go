package parse

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	IDENT
	KEYWORD
	INT
	FLOAT
	STRING
	COLON
	COMMA
	PIPE
	AT
	PLUS
	MINUS
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	SEMICOLON
)

var kindNames = map[TokenKind]string{
	EOF:       "end of input",
	IDENT:     "identifier",
	KEYWORD:   "keyword",
	INT:       "integer",
	FLOAT:     "decimal",
	STRING:    "string",
	COLON:     "':'",
	COMMA:     "','",
	PIPE:      "'|'",
	AT:        "'@'",
	PLUS:      "'+'",
	MINUS:     "'-'",
	LPAREN:    "'('",
	RPAREN:    "')'",
	LBRACKET:  "'['",
	RBRACKET:  "']'",
	SEMICOLON: "';'",
}

func (k TokenKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme of DBC source. Line is 1-based and refers to the line
// the token starts on; a STRING token may run past it.
type Token struct {
	Kind TokenKind
	Lit  string
	Line int
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string %q", t.Lit)
	default:
		return fmt.Sprintf("'%s'", t.Lit)
	}
}

// Record keywords. Unknown keywords never reach this table; they stay plain
// identifiers and the parser skips the record they open.
const (
	kwVersion = "VERSION"
	kwNS      = "NS_"
	kwBS      = "BS_"
	kwBU      = "BU_"
	kwBO      = "BO_"
	kwSG      = "SG_"
	kwCM      = "CM_"
	kwVAL     = "VAL_"
)

var keywords = map[string]bool{
	kwVersion: true,
	kwNS:      true,
	kwBS:      true,
	kwBU:      true,
	kwBO:      true,
	kwSG:      true,
	kwCM:      true,
	kwVAL:     true,
}
