package db

import (
	"fmt"

	"dbcgo/dbc/parse"
)

// maxFrameLength bounds classic CAN payloads.
const maxFrameLength = 8

// Resolve cross-links a parse tree into an immutable Database: signals are
// attached to messages, node names become node references, comments and
// value tables land on the entity they annotate, and every structural
// invariant is checked. It either returns a fully valid database or the
// first *ResolutionError found; nothing partial ever escapes.
func Resolve(f *parse.File) (*Database, error) {
	d := &Database{
		version:        f.Version,
		nodesByName:    make(map[string]*Node),
		messagesByID:   make(map[uint32]*Message),
		messagesByName: make(map[string]*Message),
	}

	for _, nd := range f.Nodes {
		if _, dup := d.nodesByName[nd.Name]; dup {
			return nil, &ResolutionError{Line: nd.Line, Entity: "node " + nd.Name, Reason: "declared twice"}
		}
		n := &Node{name: nd.Name}
		d.nodes = append(d.nodes, n)
		d.nodesByName[nd.Name] = n
	}

	for _, md := range f.Messages {
		m, err := d.resolveMessage(md)
		if err != nil {
			return nil, err
		}
		d.messages = append(d.messages, m)
		d.messagesByID[m.id] = m
		d.messagesByName[m.name] = m
	}

	for _, cd := range f.Comments {
		if err := d.attachComment(cd); err != nil {
			return nil, err
		}
	}

	for _, vd := range f.ValueTables {
		if err := d.attachValueTable(vd); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (d *Database) resolveMessage(md *parse.MessageDef) (*Message, error) {
	entity := fmt.Sprintf("message %s (id %d)", md.Name, md.ID)

	if prev, dup := d.messagesByID[md.ID]; dup {
		return nil, &ResolutionError{Line: md.Line, Entity: entity, Reason: "identifier already used by message " + prev.name}
	}
	if prev, dup := d.messagesByName[md.Name]; dup {
		return nil, &ResolutionError{Line: md.Line, Entity: entity, Reason: fmt.Sprintf("name already used by message id %d", prev.id)}
	}
	if md.Size > maxFrameLength {
		return nil, &ResolutionError{Line: md.Line, Entity: entity, Reason: fmt.Sprintf("byte length %d exceeds the classic frame maximum of %d", md.Size, maxFrameLength)}
	}
	if md.Size == 0 && len(md.Signals) > 0 {
		return nil, &ResolutionError{Line: md.Line, Entity: entity, Reason: "carries no payload but owns signals"}
	}

	m := &Message{
		id:            md.ID,
		name:          md.Name,
		length:        uint8(md.Size),
		signalsByName: make(map[string]*Signal),
	}

	tx, err := d.resolveNodeRef(md.Transmitter, md.Line, entity)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		m.transmitter = tx
		tx.transmits = append(tx.transmits, m)
	}

	// Occupancy of the payload's bit positions, to reject overlapping
	// sibling ranges. A classic frame has at most 64 of them.
	var owner [maxFrameLength * 8]*Signal

	for _, sd := range md.Signals {
		s, err := d.resolveSignal(m, sd, owner[:])
		if err != nil {
			return nil, err
		}
		m.signals = append(m.signals, s)
		m.signalsByName[s.name] = s
	}

	return m, nil
}

func (d *Database) resolveSignal(m *Message, sd *parse.SignalDef, owner []*Signal) (*Signal, error) {
	entity := fmt.Sprintf("signal %s.%s", m.name, sd.Name)

	if _, dup := m.signalsByName[sd.Name]; dup {
		return nil, &ResolutionError{Line: sd.Line, Entity: entity, Reason: "name already used in this message"}
	}
	if sd.Length == 0 {
		return nil, &ResolutionError{Line: sd.Line, Entity: entity, Reason: "bit length is zero"}
	}

	s := &Signal{
		name:     sd.Name,
		startBit: sd.StartBit,
		length:   sd.Length,
		signed:   sd.Signed,
		factor:   sd.Factor,
		offset:   sd.Offset,
		min:      sd.Min,
		max:      sd.Max,
		unit:     sd.Unit,
		message:  m,
	}
	if sd.Order == parse.LittleEndian {
		s.order = LittleEndian
	} else {
		s.order = BigEndian
	}
	if s.factor == 0 {
		return nil, &ResolutionError{Line: sd.Line, Entity: entity, Reason: "scaling factor is zero"}
	}

	s.fieldBits = walkBits(s.startBit, s.length, s.order)
	limit := int(m.length) * 8
	for _, pos := range s.fieldBits {
		if pos < 0 || pos >= limit {
			return nil, &ResolutionError{
				Line:   sd.Line,
				Entity: entity,
				Reason: fmt.Sprintf("bit range %d|%d@%s leaves the %d-byte payload", s.startBit, s.length, s.order, m.length),
			}
		}
		if prev := owner[pos]; prev != nil {
			return nil, &ResolutionError{
				Line:   sd.Line,
				Entity: entity,
				Reason: fmt.Sprintf("bit %d is already claimed by signal %s", pos, prev.name),
			}
		}
		owner[pos] = s
	}

	for _, name := range sd.Receivers {
		n, err := d.resolveNodeRef(name, sd.Line, entity)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue // sentinel: no receivers
		}
		s.receivers = append(s.receivers, n)
		n.receives = append(n.receives, s)
	}

	return s, nil
}

// resolveNodeRef maps a node name to its record. The sentinel name is
// valid everywhere a node is expected and resolves to nil.
func (d *Database) resolveNodeRef(name string, line int, entity string) (*Node, error) {
	if name == parse.SentinelNode {
		return nil, nil
	}
	n, ok := d.nodesByName[name]
	if !ok {
		return nil, &ResolutionError{Line: line, Entity: entity, Reason: "references undeclared node " + name}
	}
	return n, nil
}

func (d *Database) attachComment(cd *parse.CommentDef) error {
	switch cd.Kind {
	case parse.NodeComment:
		n, ok := d.nodesByName[cd.NodeName]
		if !ok {
			return &ResolutionError{Line: cd.Line, Entity: "comment", Reason: "references undeclared node " + cd.NodeName}
		}
		if n.comment != "" {
			return &ResolutionError{Line: cd.Line, Entity: "node " + n.name, Reason: "has more than one comment"}
		}
		n.comment = cd.Text
	case parse.MessageComment:
		m, ok := d.messagesByID[cd.MessageID]
		if !ok {
			return &ResolutionError{Line: cd.Line, Entity: "comment", Reason: fmt.Sprintf("references unknown message id %d", cd.MessageID)}
		}
		if m.comment != "" {
			return &ResolutionError{Line: cd.Line, Entity: "message " + m.name, Reason: "has more than one comment"}
		}
		m.comment = cd.Text
	case parse.SignalComment:
		s, err := d.findSignal(cd.MessageID, cd.SignalName, cd.Line, "comment")
		if err != nil {
			return err
		}
		if s.comment != "" {
			return &ResolutionError{Line: cd.Line, Entity: fmt.Sprintf("signal %s.%s", s.message.name, s.name), Reason: "has more than one comment"}
		}
		s.comment = cd.Text
	default:
		return &ResolutionError{Line: cd.Line, Entity: "comment", Reason: "unknown target kind"}
	}
	return nil
}

func (d *Database) attachValueTable(vd *parse.ValueTableDef) error {
	s, err := d.findSignal(vd.MessageID, vd.SignalName, vd.Line, "value table")
	if err != nil {
		return err
	}
	entity := fmt.Sprintf("value table for %s.%s", s.message.name, s.name)

	if s.labels != nil {
		return &ResolutionError{Line: vd.Line, Entity: entity, Reason: "signal already has a value table"}
	}

	s.labels = make(map[int64]string, len(vd.Entries))
	s.rawByLabel = make(map[string]int64, len(vd.Entries))
	for _, e := range vd.Entries {
		if _, dup := s.labels[e.Raw]; dup {
			return &ResolutionError{Line: vd.Line, Entity: entity, Reason: fmt.Sprintf("raw value %d listed twice", e.Raw)}
		}
		s.labels[e.Raw] = e.Label
		if _, taken := s.rawByLabel[e.Label]; !taken {
			s.rawByLabel[e.Label] = e.Raw
		}
		s.labelOrder = append(s.labelOrder, e.Raw)
	}
	return nil
}

func (d *Database) findSignal(msgID uint32, sigName string, line int, entity string) (*Signal, error) {
	m, ok := d.messagesByID[msgID]
	if !ok {
		return nil, &ResolutionError{Line: line, Entity: entity, Reason: fmt.Sprintf("references unknown message id %d", msgID)}
	}
	s, ok := m.signalsByName[sigName]
	if !ok {
		return nil, &ResolutionError{Line: line, Entity: entity, Reason: fmt.Sprintf("message %s has no signal %s", m.name, sigName)}
	}
	return s, nil
}
