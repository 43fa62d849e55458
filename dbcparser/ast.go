package dbcparser

// NoNode is the sentinel node name meaning "no transmitter" or "no receiver".
const NoNode = "Vector__XXX"

// ByteOrder is a signal's bit layout within the frame.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota // '0' in source
	BigEndian                     // '1' in source
)

// SignalValueType discriminates signed from unsigned raw values.
type SignalValueType int

const (
	Unsigned SignalValueType = iota // '+' in source
	Signed                          // '-' in source
)

// MuxRole is the three-way multiplexer indicator on a signal.
type MuxRole int

const (
	MuxNone     MuxRole = iota // plain signal
	Multiplexor                // the 'M' signal selecting the active group
	MultiplexedBy              // 'm<n>': active when the multiplexor equals n
)

// Signal is a named bit-field within a message.
type Signal struct {
	Name      string
	Mux       MuxRole
	MuxSwitch uint64 // switch value, meaningful when Mux == MultiplexedBy
	StartBit  uint32
	Size      uint32
	ByteOrder ByteOrder
	ValueType SignalValueType
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Unit      string
	Receivers []string // node names, or the NoNode sentinel
	Pos       Position
}

// Message is a CAN frame definition.
type Message struct {
	ID          uint32
	Name        string
	Size        uint32 // payload size in bytes
	Transmitter string // node name, or the NoNode sentinel
	Signals     []*Signal
	Pos         Position
}

// SignalByName returns the signal with the given name, or nil.
func (m *Message) SignalByName(name string) *Signal {
	for _, s := range m.Signals {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ValueLabel maps a numeric value to a human-readable label.
type ValueLabel struct {
	Value float64
	Label string
}

// ValueTable is a named, reusable value-to-label enumeration.
type ValueTable struct {
	Name   string
	Values []ValueLabel
	Pos    Position
}

// MessageTransmitters is a BO_TX_BU_ record overriding the transmitters of a
// message.
type MessageTransmitters struct {
	MessageID    uint32
	Transmitters []string
	Pos          Position
}

// EnvVarType is the declared type of an environment variable.
type EnvVarType int

const (
	EnvVarInteger EnvVarType = iota // '0' in source
	EnvVarFloat                     // '1' in source
	EnvVarString                    // '2' in source
)

// AccessType is one of the five fixed environment variable access tags.
type AccessType int

const (
	AccessUnrestricted AccessType = iota // DUMMY_NODE_VECTOR0
	AccessRead                           // DUMMY_NODE_VECTOR1
	AccessWrite                          // DUMMY_NODE_VECTOR2
	AccessReadWrite                      // DUMMY_NODE_VECTOR3
	AccessUnrestrictedExt                // DUMMY_NODE_VECTOR8000
)

// EnvironmentVariable is a named value external to any single message.
type EnvironmentVariable struct {
	Name        string
	Type        EnvVarType
	Min         float64
	Max         float64
	Unit        string
	InitValue   float64
	ID          uint32
	Access      AccessType
	AccessNodes []string
	Pos         Position
}

// EnvVarData is an ENVVAR_DATA_ record giving an environment variable a data
// payload size.
type EnvVarData struct {
	Name string
	Size uint32
	Pos  Position
}

// SignalType is a named signal template with its own electrical encoding.
type SignalType struct {
	Name       string
	Size       uint32
	ByteOrder  ByteOrder
	ValueType  SignalValueType
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Unit       string
	Default    float64
	ValueTable string // referenced value table name
	Pos        Position
}

// CommentKind selects which entity a comment is attached to.
type CommentKind int

const (
	CommentDocument CommentKind = iota
	CommentNode
	CommentMessage
	CommentSignal
	CommentEnvVar
)

// Comment is free text attached to the document or to a named entity.
type Comment struct {
	Kind      CommentKind
	Node      string // CommentNode
	MessageID uint32 // CommentMessage, CommentSignal
	Signal    string // CommentSignal
	EnvVar    string // CommentEnvVar
	Text      string
	Pos       Position
}

// AttrObject is the applicability scope of an attribute definition or the
// target shape of an attribute value.
type AttrObject int

const (
	AttrGlobal AttrObject = iota
	AttrNode                   // BU_
	AttrMessage                // BO_
	AttrSignal                 // SG_
	AttrEnvVar                 // EV_
	AttrRelNodeMessage         // BU_BO_REL_
	AttrRelNodeSignal          // BU_SG_REL_
	AttrRelNodeEnvVar          // BU_EV_REL_
)

var attrObjectNames = map[AttrObject]string{
	AttrGlobal:         "global",
	AttrNode:           "BU_",
	AttrMessage:        "BO_",
	AttrSignal:         "SG_",
	AttrEnvVar:         "EV_",
	AttrRelNodeMessage: "BU_BO_REL_",
	AttrRelNodeSignal:  "BU_SG_REL_",
	AttrRelNodeEnvVar:  "BU_EV_REL_",
}

func (o AttrObject) String() string {
	if name, ok := attrObjectNames[o]; ok {
		return name
	}
	return "unknown"
}

// rel reports whether o belongs to the BA_DEF_REL_ relation class.
func (o AttrObject) rel() bool {
	switch o {
	case AttrRelNodeMessage, AttrRelNodeSignal, AttrRelNodeEnvVar:
		return true
	}
	return false
}

// AttributeDefinition declares a named attribute with a value-type spec and
// an applicability scope.
type AttributeDefinition struct {
	Name   string
	Object AttrObject
	Type   AttrValueType
	Pos    Position
}

// AttributeDefault is a BA_DEF_DEF_ (or BA_DEF_DEF_REL_) record.
type AttributeDefault struct {
	Name  string
	Rel   bool // declared with BA_DEF_DEF_REL_
	Value AttrValue
	Pos   Position
}

// AttributeValue assigns a value to an attribute on a target entity. The
// relation variants additionally carry an owning node.
type AttributeValue struct {
	Name      string
	Object    AttrObject
	Node      string // target node (AttrNode) or owning node (relation variants)
	MessageID uint32 // AttrMessage, AttrSignal, AttrRelNodeMessage, AttrRelNodeSignal
	Signal    string // AttrSignal, AttrRelNodeSignal
	EnvVar    string // AttrEnvVar, AttrRelNodeEnvVar
	Value     AttrValue
	Pos       Position
}

// ValueDescKind selects the target shape of a VAL_ record.
type ValueDescKind int

const (
	ValueDescSignal ValueDescKind = iota
	ValueDescEnvVar
)

// ValueDescription maps numeric values to labels for a signal or an
// environment variable.
type ValueDescription struct {
	Kind      ValueDescKind
	MessageID uint32 // ValueDescSignal
	Signal    string // ValueDescSignal
	EnvVar    string // ValueDescEnvVar
	Values    []ValueLabel
	Pos       Position
}

// SignalTypeRef binds a signal to a named signal type.
type SignalTypeRef struct {
	MessageID uint32
	Signal    string
	TypeName  string
	Pos       Position
}

// ExtValueType is the extended value type tag from a SIG_VALTYPE_ record.
type ExtValueType int

const (
	ExtInteger  ExtValueType = iota // '0': keep the declared integer type
	ExtFloat32                      // '1'
	ExtFloat64                      // '2'
	ExtReserved                     // '3'
)

// SignalExtendedValueType tags a signal with an extended value type.
type SignalExtendedValueType struct {
	MessageID uint32
	Signal    string
	Type      ExtValueType
	Pos       Position
}

// SignalGroup documents that named signals within a message form a logical
// group.
type SignalGroup struct {
	MessageID   uint32
	Name        string
	Repetitions uint32
	Signals     []string
	Pos         Position
}

// BitTiming is the (obsolete) BS_ section payload. A bare "BS_:" leaves the
// document's BitTiming nil.
type BitTiming struct {
	Baudrate uint32
	BTR1     uint32
	BTR2     uint32
}

// Document is the complete parsed representation of a DBC file. All slices
// preserve source order; lookup indices are layered on top by Validate (or
// lazily by the accessors) without altering the ordered lists.
type Document struct {
	Version             string
	NewSymbols          []string
	BitTiming           *BitTiming
	Nodes               []string
	ValueTables         []*ValueTable
	Messages            []*Message
	MessageTransmitters []*MessageTransmitters
	EnvVars             []*EnvironmentVariable
	EnvVarData          []*EnvVarData
	SignalTypes         []*SignalType
	Comments            []*Comment
	AttributeDefs       []*AttributeDefinition
	AttributeDefaults   []*AttributeDefault
	AttributeValues     []*AttributeValue
	ValueDescriptions   []*ValueDescription
	SignalTypeRefs      []*SignalTypeRef
	ExtendedValueTypes  []*SignalExtendedValueType
	SignalGroups        []*SignalGroup

	idx                 *index
}

type signalKey struct {
	messageID uint32
	name      string
}

type attrDefKey struct {
	name   string
	object AttrObject
}

type index struct {
	nodes       map[string]bool
	messages    map[uint32]*Message
	signals     map[signalKey]*Signal
	envVars     map[string]*EnvironmentVariable
	envVarIDs   map[uint32]*EnvironmentVariable
	attrDefs    map[attrDefKey]*AttributeDefinition
	attrByName  map[string][]*AttributeDefinition
	valueTables map[string]*ValueTable
	signalTypes map[string]*SignalType
}

func (d *Document) ensureIndex() *index {
	if d.idx == nil {
		d.buildIndex()
	}
	return d.idx
}

// HasNode reports whether name is a declared node.
func (d *Document) HasNode(name string) bool {
	return d.ensureIndex().nodes[name]
}

// MessageByID returns the message with the given id, or nil.
func (d *Document) MessageByID(id uint32) *Message {
	return d.ensureIndex().messages[id]
}

// SignalByName returns the signal with the given name in the given message,
// or nil.
func (d *Document) SignalByName(messageID uint32, name string) *Signal {
	return d.ensureIndex().signals[signalKey{messageID, name}]
}

// EnvVarByName returns the environment variable with the given name, or nil.
func (d *Document) EnvVarByName(name string) *EnvironmentVariable {
	return d.ensureIndex().envVars[name]
}

// AttributeDefinition returns the first attribute definition with the given
// name in source order, or nil.
func (d *Document) AttributeDefinition(name string) *AttributeDefinition {
	defs := d.ensureIndex().attrByName[name]
	if len(defs) == 0 {
		return nil
	}
	return defs[0]
}

// ValueTableByName returns the value table with the given name, or nil.
func (d *Document) ValueTableByName(name string) *ValueTable {
	return d.ensureIndex().valueTables[name]
}

// SignalTypeByName returns the signal type with the given name, or nil.
func (d *Document) SignalTypeByName(name string) *SignalType {
	return d.ensureIndex().signalTypes[name]
}
