package db

// Node is a named bus participant (BU_ entry).
type Node struct {
	name    string
	comment string

	transmits []*Message
	receives  []*Signal
}

func (n *Node) Name() string { return n.name }

// Comment returns the CM_ BU_ text attached to this node, empty if none.
func (n *Node) Comment() string { return n.comment }

// Transmits lists the messages this node sends.
func (n *Node) Transmits() []*Message {
	out := make([]*Message, len(n.transmits))
	copy(out, n.transmits)
	return out
}

// Receives lists the signals this node is a receiver of.
func (n *Node) Receives() []*Signal {
	out := make([]*Signal, len(n.receives))
	copy(out, n.receives)
	return out
}
