// Package db holds the resolved, immutable CAN database model and the
// signal codec that packs and unpacks physical values against it. A
// Database is only ever produced by Resolve, fully validated; it is safe
// for concurrent readers without locking.
package db

// Database is the root aggregate: it owns every Node, Message and value
// table produced from one DBC source. There is no mutation API; updates
// require re-parsing.
type Database struct {
	version string

	nodes       []*Node
	nodesByName map[string]*Node

	messages       []*Message
	messagesByID   map[uint32]*Message
	messagesByName map[string]*Message
}

// Version returns the VERSION record's string, informational only.
func (d *Database) Version() string { return d.version }

// Nodes enumerates the bus participants in declaration order.
func (d *Database) Nodes() []*Node {
	out := make([]*Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Messages enumerates the frame definitions in declaration order.
func (d *Database) Messages() []*Message {
	out := make([]*Message, len(d.messages))
	copy(out, d.messages)
	return out
}

func (d *Database) NodeByName(name string) (*Node, bool) {
	n, ok := d.nodesByName[name]
	return n, ok
}

func (d *Database) MessageByID(id uint32) (*Message, bool) {
	m, ok := d.messagesByID[id]
	return m, ok
}

func (d *Database) MessageByName(name string) (*Message, bool) {
	m, ok := d.messagesByName[name]
	return m, ok
}
