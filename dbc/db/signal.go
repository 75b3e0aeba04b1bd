package db

// ByteOrder is a signal's bit-addressing convention.
type ByteOrder int

const (
	// BigEndian (Motorola, @0): the start bit is the field's most
	// significant bit in network bit numbering, bits proceed in
	// decreasing network order.
	BigEndian ByteOrder = iota
	// LittleEndian (Intel, @1): bits occupy consecutive ascending
	// positions starting at the start bit.
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// Signal is one bit field inside a Message. The declared min/max are
// descriptive metadata; the codec neither clamps nor rejects on them.
type Signal struct {
	name     string
	startBit uint8
	length   uint8
	order    ByteOrder
	signed   bool
	factor   float64
	offset   float64
	min      float64
	max      float64
	unit     string
	comment  string

	message   *Message
	receivers []*Node

	labels     map[int64]string
	rawByLabel map[string]int64
	labelOrder []int64
	fieldBits  []int // absolute payload bit positions, most significant first
}

func (s *Signal) Name() string         { return s.name }
func (s *Signal) StartBit() uint8      { return s.startBit }
func (s *Signal) Length() uint8        { return s.length }
func (s *Signal) ByteOrder() ByteOrder { return s.order }
func (s *Signal) Signed() bool         { return s.signed }
func (s *Signal) Factor() float64      { return s.factor }
func (s *Signal) Offset() float64      { return s.offset }
func (s *Signal) Min() float64         { return s.min }
func (s *Signal) Max() float64         { return s.max }
func (s *Signal) Unit() string         { return s.unit }
func (s *Signal) Comment() string      { return s.comment }

// Message returns the owning frame definition.
func (s *Signal) Message() *Message { return s.message }

// Receivers lists the resolved receiver nodes. A signal whose record named
// only the sentinel has an empty set.
func (s *Signal) Receivers() []*Node {
	out := make([]*Node, len(s.receivers))
	copy(out, s.receivers)
	return out
}

// Label maps a raw value through the signal's value table.
func (s *Signal) Label(raw int64) (string, bool) {
	label, ok := s.labels[raw]
	return label, ok
}

// RawByLabel is the reverse value-table lookup. With duplicate labels the
// first declared raw value wins.
func (s *Signal) RawByLabel(label string) (int64, bool) {
	raw, ok := s.rawByLabel[label]
	return raw, ok
}

// Labels returns the value table's raw values in declaration order,
// empty when the signal has no table.
func (s *Signal) Labels() []int64 {
	out := make([]int64, len(s.labelOrder))
	copy(out, s.labelOrder)
	return out
}
