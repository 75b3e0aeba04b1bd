package parse

// Unresolved parse tree. Everything here is name-keyed text: none of the
// cross references (transmitter, receivers, comment targets, value-table
// targets) have been checked yet. dbc/db.Resolve turns a File into the
// immutable database model.

// SentinelNode is the placeholder node name meaning "no node". It is valid
// wherever a node reference is expected and resolves to nothing.
const SentinelNode = "Vector__XXX"

// ByteOrder is the SG_ byte-order marker: @0 Motorola, @1 Intel.
type ByteOrder int

const (
	BigEndian    ByteOrder = 0 // Motorola, descending network bit numbering
	LittleEndian ByteOrder = 1 // Intel, contiguous ascending
)

type File struct {
	Version     string
	Nodes       []NodeDef
	Messages    []*MessageDef
	Comments    []*CommentDef
	ValueTables []*ValueTableDef

	// Skipped records unrecognized top-level records, one entry per line
	// consumed, so collaborators can report them. They are not errors.
	Skipped []SkippedRecord
}

type NodeDef struct {
	Name string
	Line int
}

type MessageDef struct {
	ID          uint32
	Name        string
	Size        uint32 // DLC, bytes
	Transmitter string // node name, possibly SentinelNode
	Signals     []*SignalDef
	Line        int
}

type SignalDef struct {
	Name      string
	StartBit  uint8
	Length    uint8
	Order     ByteOrder
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Unit      string
	Receivers []string // node names; SentinelNode means no receivers
	Line      int
}

// CommentKind is the entity class a CM_ record annotates.
type CommentKind int

const (
	NodeComment CommentKind = iota
	MessageComment
	SignalComment
)

type CommentDef struct {
	Kind       CommentKind
	NodeName   string // NodeComment
	MessageID  uint32 // MessageComment, SignalComment
	SignalName string // SignalComment
	Text       string
	Line       int
}

type ValueTableDef struct {
	MessageID  uint32
	SignalName string
	Entries    []ValueEntry
	Line       int
}

type ValueEntry struct {
	Raw   int64
	Label string
}

type SkippedRecord struct {
	Keyword string
	Line    int
}
