package parse

import (
	"os"
	"strconv"
)

// Parser consumes the token stream with one rule per record keyword.
// Recognized records that violate their rule abort the parse; unrecognized
// top-level records are skipped line by line and collected on File.Skipped.
type Parser struct {
	lex  *Lexer
	tok  Token // current
	next Token // one-token lookahead, needed to delimit the NS_ section
	file *File

	nodeLines map[string]int
}

// ParseString parses one DBC source text into the unresolved record tree.
func ParseString(src string) (*File, error) {
	p := &Parser{
		lex:       NewLexer(src),
		file:      &File{},
		nodeLines: make(map[string]int),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.file, nil
}

// ParseFile reads path and parses it.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

func (p *Parser) advance() error {
	p.tok = p.next
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.next = tok
	return nil
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, p.fail(what)
	}
	tok := p.tok
	return tok, p.advance()
}

func (p *Parser) fail(expected string) error {
	return &ParseError{Line: p.tok.Line, Expected: expected, Found: p.tok}
}

func (p *Parser) parse() error {
	for p.tok.Kind != EOF {
		switch p.tok.Kind {
		case KEYWORD:
			var err error
			switch p.tok.Lit {
			case kwVersion:
				err = p.parseVersion()
			case kwNS:
				err = p.parseNS()
			case kwBS:
				err = p.parseBS()
			case kwBU:
				err = p.parseNodes()
			case kwBO:
				err = p.parseMessage()
			case kwCM:
				err = p.parseComment()
			case kwVAL:
				err = p.parseValueTable()
			case kwSG:
				err = p.fail("top-level record (SG_ belongs under a BO_ record)")
			}
			if err != nil {
				return err
			}
		case IDENT:
			if err := p.skipRecord(); err != nil {
				return err
			}
		default:
			return p.fail("record keyword")
		}
	}
	return nil
}

// skipRecord consumes an unrecognized record: the opening identifier and
// every further token on its line. Future record kinds pass through here
// instead of failing the parse.
func (p *Parser) skipRecord() error {
	p.file.Skipped = append(p.file.Skipped, SkippedRecord{Keyword: p.tok.Lit, Line: p.tok.Line})
	line := p.tok.Line
	for p.tok.Kind != EOF && p.tok.Line == line {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseVersion() error {
	if err := p.advance(); err != nil {
		return err
	}
	tok, err := p.expect(STRING, "version string")
	if err != nil {
		return err
	}
	p.file.Version = tok.Lit
	return nil
}

// parseNS consumes the new-symbols section. Its body is one bare symbol per
// line, and several of those symbols collide with record keywords (CM_,
// VAL_), so a symbol line is recognized by its follower being on a later
// line. The symbols themselves carry no meaning here.
func (p *Parser) parseNS() error {
	if err := p.advance(); err != nil {
		return err
	}
	if _, err := p.expect(COLON, "':' after NS_"); err != nil {
		return err
	}
	for p.tok.Kind == IDENT || p.tok.Kind == KEYWORD {
		if p.next.Kind != EOF && p.next.Line == p.tok.Line {
			return nil // start of a real record
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// parseBS consumes the bus-timing record. Its semantics are a deferred
// format extension; anything after the colon on the same line is dropped.
func (p *Parser) parseBS() error {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return err
	}
	if _, err := p.expect(COLON, "':' after BS_"); err != nil {
		return err
	}
	for p.tok.Kind != EOF && p.tok.Line == line {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseNodes() error {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return err
	}
	if _, err := p.expect(COLON, "':' after BU_"); err != nil {
		return err
	}
	for p.tok.Kind == IDENT && p.tok.Line == line {
		if prev, dup := p.nodeLines[p.tok.Lit]; dup {
			return &ParseError{
				Line:     p.tok.Line,
				Expected: "unique node name (" + p.tok.Lit + " already listed on line " + strconv.Itoa(prev) + ")",
				Found:    p.tok,
			}
		}
		p.nodeLines[p.tok.Lit] = p.tok.Line
		p.file.Nodes = append(p.file.Nodes, NodeDef{Name: p.tok.Lit, Line: p.tok.Line})
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseMessage() error {
	msg := &MessageDef{Line: p.tok.Line}
	if err := p.advance(); err != nil {
		return err
	}

	id, err := p.parseUint32("message identifier")
	if err != nil {
		return err
	}
	msg.ID = id

	name, err := p.expect(IDENT, "message name")
	if err != nil {
		return err
	}
	msg.Name = name.Lit

	if _, err := p.expect(COLON, "':' after message name"); err != nil {
		return err
	}

	size, err := p.parseUint32("message byte length")
	if err != nil {
		return err
	}
	msg.Size = size

	tx, err := p.expect(IDENT, "transmitter node name")
	if err != nil {
		return err
	}
	msg.Transmitter = tx.Lit

	// Signal records bind to the message greedily, until the next
	// top-level record or end of input.
	for p.tok.Kind == KEYWORD && p.tok.Lit == kwSG {
		sig, err := p.parseSignal()
		if err != nil {
			return err
		}
		msg.Signals = append(msg.Signals, sig)
	}

	p.file.Messages = append(p.file.Messages, msg)
	return nil
}

func (p *Parser) parseSignal() (*SignalDef, error) {
	sig := &SignalDef{Line: p.tok.Line}
	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expect(IDENT, "signal name")
	if err != nil {
		return nil, err
	}
	sig.Name = name.Lit

	if _, err := p.expect(COLON, "':' after signal name"); err != nil {
		return nil, err
	}

	start, err := p.parseUint8("start bit")
	if err != nil {
		return nil, err
	}
	sig.StartBit = start

	if _, err := p.expect(PIPE, "'|' between start bit and length"); err != nil {
		return nil, err
	}

	length, err := p.parseUint8("bit length")
	if err != nil {
		return nil, err
	}
	sig.Length = length

	if _, err := p.expect(AT, "'@' before byte order"); err != nil {
		return nil, err
	}

	switch {
	case p.tok.Kind == INT && p.tok.Lit == "0":
		sig.Order = BigEndian
	case p.tok.Kind == INT && p.tok.Lit == "1":
		sig.Order = LittleEndian
	default:
		return nil, p.fail("byte order '0' (Motorola) or '1' (Intel)")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch p.tok.Kind {
	case PLUS:
		sig.Signed = false
	case MINUS:
		sig.Signed = true
	default:
		return nil, p.fail("sign marker '+' or '-'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if _, err := p.expect(LPAREN, "'(' before factor"); err != nil {
		return nil, err
	}
	if sig.Factor, err = p.parseNumber("scaling factor"); err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' between factor and offset"); err != nil {
		return nil, err
	}
	if sig.Offset, err = p.parseNumber("scaling offset"); err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after offset"); err != nil {
		return nil, err
	}

	if _, err := p.expect(LBRACKET, "'[' before minimum"); err != nil {
		return nil, err
	}
	if sig.Min, err = p.parseNumber("physical minimum"); err != nil {
		return nil, err
	}
	if _, err := p.expect(PIPE, "'|' between minimum and maximum"); err != nil {
		return nil, err
	}
	if sig.Max, err = p.parseNumber("physical maximum"); err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACKET, "']' after maximum"); err != nil {
		return nil, err
	}

	unit, err := p.expect(STRING, "unit string")
	if err != nil {
		return nil, err
	}
	sig.Unit = unit.Lit

	// Receiver list: comma-separated identifiers on the record's own line.
	// The list may be empty; the resolver maps both an empty list and the
	// sentinel name to "no receivers".
	for p.tok.Kind == IDENT && p.tok.Line == unit.Line {
		sig.Receivers = append(sig.Receivers, p.tok.Lit)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind != COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind != IDENT {
			return nil, p.fail("receiver node name after ','")
		}
	}

	return sig, nil
}

func (p *Parser) parseComment() error {
	cm := &CommentDef{Line: p.tok.Line}
	if err := p.advance(); err != nil {
		return err
	}

	if p.tok.Kind != KEYWORD {
		return p.fail("comment target kind BU_, BO_ or SG_")
	}
	kind := p.tok.Lit
	if err := p.advance(); err != nil {
		return err
	}

	switch kind {
	case kwBU:
		cm.Kind = NodeComment
		name, err := p.expect(IDENT, "node name")
		if err != nil {
			return err
		}
		cm.NodeName = name.Lit
	case kwBO:
		cm.Kind = MessageComment
		id, err := p.parseUint32("message identifier")
		if err != nil {
			return err
		}
		cm.MessageID = id
	case kwSG:
		cm.Kind = SignalComment
		id, err := p.parseUint32("message identifier")
		if err != nil {
			return err
		}
		cm.MessageID = id
		name, err := p.expect(IDENT, "signal name")
		if err != nil {
			return err
		}
		cm.SignalName = name.Lit
	default:
		return &ParseError{Line: cm.Line, Expected: "comment target kind BU_, BO_ or SG_", Found: Token{Kind: KEYWORD, Lit: kind, Line: cm.Line}}
	}

	text, err := p.expect(STRING, "comment text")
	if err != nil {
		return err
	}
	cm.Text = text.Lit

	if _, err := p.expect(SEMICOLON, "';' closing the comment record"); err != nil {
		return err
	}

	p.file.Comments = append(p.file.Comments, cm)
	return nil
}

func (p *Parser) parseValueTable() error {
	vt := &ValueTableDef{Line: p.tok.Line}
	if err := p.advance(); err != nil {
		return err
	}

	id, err := p.parseUint32("message identifier")
	if err != nil {
		return err
	}
	vt.MessageID = id

	name, err := p.expect(IDENT, "signal name")
	if err != nil {
		return err
	}
	vt.SignalName = name.Lit

	for p.tok.Kind == INT {
		raw, err := strconv.ParseInt(p.tok.Lit, 10, 64)
		if err != nil {
			return p.fail("raw value (integer)")
		}
		if err := p.advance(); err != nil {
			return err
		}
		label, err := p.expect(STRING, "value label")
		if err != nil {
			return err
		}
		vt.Entries = append(vt.Entries, ValueEntry{Raw: raw, Label: label.Lit})
	}

	if _, err := p.expect(SEMICOLON, "';' closing the value table"); err != nil {
		return err
	}

	p.file.ValueTables = append(p.file.ValueTables, vt)
	return nil
}

func (p *Parser) parseUint32(what string) (uint32, error) {
	if p.tok.Kind != INT {
		return 0, p.fail(what + " (unsigned integer)")
	}
	v, err := strconv.ParseUint(p.tok.Lit, 10, 32)
	if err != nil {
		return 0, p.fail(what + " (unsigned integer)")
	}
	return uint32(v), p.advance()
}

func (p *Parser) parseUint8(what string) (uint8, error) {
	if p.tok.Kind != INT {
		return 0, p.fail(what + " (unsigned integer)")
	}
	v, err := strconv.ParseUint(p.tok.Lit, 10, 8)
	if err != nil {
		return 0, p.fail(what + " (unsigned integer)")
	}
	return uint8(v), p.advance()
}

func (p *Parser) parseNumber(what string) (float64, error) {
	if p.tok.Kind != INT && p.tok.Kind != FLOAT {
		return 0, p.fail(what + " (number)")
	}
	v, err := strconv.ParseFloat(p.tok.Lit, 64)
	if err != nil {
		return 0, p.fail(what + " (number)")
	}
	return v, p.advance()
}
