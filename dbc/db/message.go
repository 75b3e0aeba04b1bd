package db

// Message is one CAN frame definition (BO_ record).
type Message struct {
	id          uint32
	name        string
	length      uint8 // DLC, bytes
	transmitter *Node // nil when the sentinel name was given
	comment     string

	signals       []*Signal
	signalsByName map[string]*Signal
}

func (m *Message) ID() uint32   { return m.id }
func (m *Message) Name() string { return m.name }

// Length is the frame payload size in bytes (0..8 for classic frames).
// It bounds every owned signal's bit range.
func (m *Message) Length() uint8 { return m.length }

// Transmitter returns the sending node, nil when the message declared the
// "no node" sentinel.
func (m *Message) Transmitter() *Node { return m.transmitter }

func (m *Message) Comment() string { return m.comment }

// Signals enumerates the message's signals in declaration order.
func (m *Message) Signals() []*Signal {
	out := make([]*Signal, len(m.signals))
	copy(out, m.signals)
	return out
}

func (m *Message) SignalByName(name string) (*Signal, bool) {
	s, ok := m.signalsByName[name]
	return s, ok
}
