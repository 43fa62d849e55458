package dbcparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDBC = `VERSION "1.0"

NS_ :
	NS_DESC_
	CM_
	BA_DEF_

BS_:

BU_: ECU1 ECU2 GATEWAY

VAL_TABLE_ OnOff 0 "Off" 1 "On";

BO_ 256 EngineData: 8 ECU1
 SG_ EngineSpeed : 0|16@1+ (0.125,0) [0|8191.875] "rpm" ECU2,GATEWAY
 SG_ EngineTemp : 16|8@1+ (1,-40) [-40|215] "deg C" ECU2

BO_ 512 MuxMsg: 8 ECU2
 SG_ MuxSwitch M : 0|4@1+ (1,0) [0|15] "" ECU1
 SG_ ValA m0 : 8|16@1+ (1,0) [0|65535] "" ECU1
 SG_ ValB m1 : 8|16@1- (1,0) [-32768|32767] "" ECU1

BO_TX_BU_ 256 : ECU1,GATEWAY;

EV_ AmbientTemp: 0 [-40|85] "deg C" 20 1 DUMMY_NODE_VECTOR0 ECU1;

ENVVAR_DATA_ AmbientTemp: 4;

CM_ "Example network";
CM_ BU_ ECU1 "Engine controller";
CM_ SG_ 256 EngineSpeed "Engine speed";

BA_DEF_ BO_ "GenMsgCycleTime" INT 0 10000;
BA_DEF_ "BusType" STRING ;
BA_DEF_DEF_ "GenMsgCycleTime" 100;
BA_DEF_DEF_ "BusType" "CAN";
BA_ "BusType" "CAN";
BA_ "GenMsgCycleTime" BO_ 256 10;

VAL_ 512 MuxSwitch 0 "A" 1 "B";
VAL_ AmbientTemp 0 "Cold";

SIG_VALTYPE_ 256 EngineSpeed : 0;

SIG_GROUP_ 512 Group1 1 : ValA ValB;
`

func parseClean(t *testing.T, src string) *Document {
	t.Helper()
	doc, diags := Parse([]byte(src))
	require.Empty(t, diags)
	return doc
}

func TestParseSample(t *testing.T) {
	doc := parseClean(t, sampleDBC)

	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, []string{"NS_DESC_", "CM_", "BA_DEF_"}, doc.NewSymbols)
	assert.Nil(t, doc.BitTiming)
	assert.Equal(t, []string{"ECU1", "ECU2", "GATEWAY"}, doc.Nodes)

	require.Len(t, doc.ValueTables, 1)
	assert.Equal(t, "OnOff", doc.ValueTables[0].Name)
	assert.Equal(t, []ValueLabel{{0, "Off"}, {1, "On"}}, doc.ValueTables[0].Values)

	require.Len(t, doc.Messages, 2)
	engine := doc.Messages[0]
	assert.Equal(t, uint32(256), engine.ID)
	assert.Equal(t, "EngineData", engine.Name)
	assert.Equal(t, uint32(8), engine.Size)
	assert.Equal(t, "ECU1", engine.Transmitter)
	require.Len(t, engine.Signals, 2)

	speed := engine.Signals[0]
	assert.Equal(t, "EngineSpeed", speed.Name)
	assert.Equal(t, MuxNone, speed.Mux)
	assert.Equal(t, uint32(0), speed.StartBit)
	assert.Equal(t, uint32(16), speed.Size)
	assert.Equal(t, BigEndian, speed.ByteOrder)
	assert.Equal(t, Unsigned, speed.ValueType)
	assert.Equal(t, 0.125, speed.Factor)
	assert.Equal(t, 0.0, speed.Offset)
	assert.Equal(t, 8191.875, speed.Max)
	assert.Equal(t, "rpm", speed.Unit)
	assert.Equal(t, []string{"ECU2", "GATEWAY"}, speed.Receivers)

	temp := engine.Signals[1]
	assert.Equal(t, -40.0, temp.Offset)
	assert.Equal(t, -40.0, temp.Min)

	require.Len(t, doc.MessageTransmitters, 1)
	assert.Equal(t, uint32(256), doc.MessageTransmitters[0].MessageID)
	assert.Equal(t, []string{"ECU1", "GATEWAY"}, doc.MessageTransmitters[0].Transmitters)

	require.Len(t, doc.EnvVars, 1)
	ev := doc.EnvVars[0]
	assert.Equal(t, "AmbientTemp", ev.Name)
	assert.Equal(t, EnvVarInteger, ev.Type)
	assert.Equal(t, -40.0, ev.Min)
	assert.Equal(t, 85.0, ev.Max)
	assert.Equal(t, 20.0, ev.InitValue)
	assert.Equal(t, uint32(1), ev.ID)
	assert.Equal(t, AccessUnrestricted, ev.Access)
	assert.Equal(t, []string{"ECU1"}, ev.AccessNodes)

	require.Len(t, doc.EnvVarData, 1)
	assert.Equal(t, uint32(4), doc.EnvVarData[0].Size)

	require.Len(t, doc.Comments, 3)
	assert.Equal(t, CommentDocument, doc.Comments[0].Kind)
	assert.Equal(t, CommentNode, doc.Comments[1].Kind)
	assert.Equal(t, CommentSignal, doc.Comments[2].Kind)
	assert.Equal(t, "Engine speed", doc.Comments[2].Text)

	require.Len(t, doc.AttributeDefs, 2)
	assert.Equal(t, AttrMessage, doc.AttributeDefs[0].Object)
	assert.Equal(t, AttrInt, doc.AttributeDefs[0].Type.Kind)
	assert.Equal(t, int64(10000), doc.AttributeDefs[0].Type.IntMax)
	assert.Equal(t, AttrGlobal, doc.AttributeDefs[1].Object)
	assert.Equal(t, AttrString, doc.AttributeDefs[1].Type.Kind)

	require.Len(t, doc.AttributeDefaults, 2)
	assert.Equal(t, AttrValue{Kind: AttrValueNumber, Num: 100}, doc.AttributeDefaults[0].Value)
	assert.Equal(t, AttrValue{Kind: AttrValueString, Str: "CAN"}, doc.AttributeDefaults[1].Value)

	require.Len(t, doc.AttributeValues, 2)
	assert.Equal(t, AttrGlobal, doc.AttributeValues[0].Object)
	assert.Equal(t, AttrMessage, doc.AttributeValues[1].Object)
	assert.Equal(t, uint32(256), doc.AttributeValues[1].MessageID)

	require.Len(t, doc.ValueDescriptions, 2)
	assert.Equal(t, ValueDescSignal, doc.ValueDescriptions[0].Kind)
	assert.Equal(t, uint32(512), doc.ValueDescriptions[0].MessageID)
	assert.Equal(t, "MuxSwitch", doc.ValueDescriptions[0].Signal)
	assert.Equal(t, ValueDescEnvVar, doc.ValueDescriptions[1].Kind)
	assert.Equal(t, "AmbientTemp", doc.ValueDescriptions[1].EnvVar)

	require.Len(t, doc.ExtendedValueTypes, 1)
	assert.Equal(t, ExtInteger, doc.ExtendedValueTypes[0].Type)

	require.Len(t, doc.SignalGroups, 1)
	assert.Equal(t, []string{"ValA", "ValB"}, doc.SignalGroups[0].Signals)
}

func TestParseMinimalNetwork(t *testing.T) {
	doc := parseClean(t, `BU_: ECU1 ECU2
BO_ 100 EngineData: 8 ECU1
 SG_ RPM : 0|16@1+ (1,0) [0|8000] "rpm" ECU2
`)
	require.Len(t, doc.Messages, 1)
	msg := doc.Messages[0]
	assert.Equal(t, uint32(100), msg.ID)
	assert.Equal(t, "EngineData", msg.Name)
	assert.Equal(t, uint32(8), msg.Size)
	assert.Equal(t, "ECU1", msg.Transmitter)
	require.Len(t, msg.Signals, 1)
	sig := msg.Signals[0]
	assert.Equal(t, "RPM", sig.Name)
	assert.Equal(t, uint32(0), sig.StartBit)
	assert.Equal(t, uint32(16), sig.Size)
	assert.Equal(t, BigEndian, sig.ByteOrder)
	assert.Equal(t, Unsigned, sig.ValueType)
	assert.Equal(t, 1.0, sig.Factor)
	assert.Equal(t, 0.0, sig.Offset)
	assert.Equal(t, 0.0, sig.Min)
	assert.Equal(t, 8000.0, sig.Max)
	assert.Equal(t, "rpm", sig.Unit)
	assert.Equal(t, []string{"ECU2"}, sig.Receivers)
}

func TestParseMultiplexing(t *testing.T) {
	doc := parseClean(t, sampleDBC)
	mux := doc.Messages[1]
	require.Len(t, mux.Signals, 3)
	assert.Equal(t, Multiplexor, mux.Signals[0].Mux)
	assert.Equal(t, MultiplexedBy, mux.Signals[1].Mux)
	assert.Equal(t, uint64(0), mux.Signals[1].MuxSwitch)
	assert.Equal(t, uint64(1), mux.Signals[2].MuxSwitch)
	assert.Equal(t, Signed, mux.Signals[2].ValueType)
}

func TestParseEmptyInput(t *testing.T) {
	doc, diags := Parse(nil)
	assert.Empty(t, diags)
	assert.Empty(t, doc.Messages)
	assert.Equal(t, "", doc.Version)
}

func TestParseBitTiming(t *testing.T) {
	doc := parseClean(t, "BS_: 500000:12,34\nBU_:\n")
	require.NotNil(t, doc.BitTiming)
	assert.Equal(t, uint32(500000), doc.BitTiming.Baudrate)
	assert.Equal(t, uint32(12), doc.BitTiming.BTR1)
	assert.Equal(t, uint32(34), doc.BitTiming.BTR2)
}

func TestParseSentinelReceiver(t *testing.T) {
	doc := parseClean(t, `BU_: A
BO_ 1 M1: 8 A
 SG_ S1 : 0|8@0+ (1,0) [0|255] "" Vector__XXX
`)
	assert.Equal(t, []string{NoNode}, doc.Messages[0].Signals[0].Receivers)
}

func TestParseLittleEndianByteOrder(t *testing.T) {
	doc := parseClean(t, `BU_: A
BO_ 1 M1: 8 A
 SG_ S1 : 7|8@0- (1,0) [-128|127] "" A
`)
	sig := doc.Messages[0].Signals[0]
	assert.Equal(t, LittleEndian, sig.ByteOrder)
	assert.Equal(t, Signed, sig.ValueType)
}

func TestParseRecoversFromMalformedSignal(t *testing.T) {
	src := `BU_: A
BO_ 1 M1: 8 A
 SG_ Broken : 0|8@5+ (1,0) [0|255] "" A
 SG_ Good : 8|8@1+ (1,0) [0|255] "" A
`
	doc, diags := Parse([]byte(src))
	require.NotEmpty(t, diags)
	assert.True(t, HasErrors(diags))
	require.Len(t, doc.Messages, 1)
	require.Len(t, doc.Messages[0].Signals, 1)
	assert.Equal(t, "Good", doc.Messages[0].Signals[0].Name)
}

func TestParseRecoversFromMalformedRecord(t *testing.T) {
	src := `BU_: A
BO_ 1 M1: 8 A
CM_ BO_ oops "bad target";
CM_ BO_ 1 "engine message";
`
	doc, diags := Parse([]byte(src))
	assert.True(t, HasErrors(diags))
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "engine message", doc.Comments[0].Text)
}

func TestParseOutOfOrderSection(t *testing.T) {
	src := `BU_: A
BO_ 1 M1: 8 A
VAL_TABLE_ T 0 "x";
`
	_, diags := Parse([]byte(src))
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "fixed DBC order")
}

func TestParseValueDescriptionForms(t *testing.T) {
	src := `BU_: A
BO_ 7 M1: 8 A
 SG_ S1 : 0|8@1+ (1,0) [0|255] "" A

EV_ E1: 0 [0|1] "" 0 1 DUMMY_NODE_VECTOR0 A;

VAL_ 7 S1 0 "Zero";
VAL_ E1 1 "One";
`
	doc := parseClean(t, src)
	require.Len(t, doc.ValueDescriptions, 2)
	assert.Equal(t, ValueDescSignal, doc.ValueDescriptions[0].Kind)
	assert.Equal(t, ValueDescEnvVar, doc.ValueDescriptions[1].Kind)
}

func TestParseEnvVarAccessTags(t *testing.T) {
	cases := []struct {
		tag    string
		access AccessType
	}{
		{"DUMMY_NODE_VECTOR0", AccessUnrestricted},
		{"DUMMY_NODE_VECTOR1", AccessRead},
		{"DUMMY_NODE_VECTOR2", AccessWrite},
		{"DUMMY_NODE_VECTOR3", AccessReadWrite},
		{"DUMMY_NODE_VECTOR8000", AccessUnrestrictedExt},
	}
	for _, tc := range cases {
		src := "BU_: A\nEV_ E1: 0 [0|1] \"\" 0 1 " + tc.tag + " A;\n"
		doc := parseClean(t, src)
		require.Len(t, doc.EnvVars, 1, tc.tag)
		assert.Equal(t, tc.access, doc.EnvVars[0].Access, tc.tag)
	}
}

func TestParseSignalTypeDeclarationAndReference(t *testing.T) {
	src := `BU_: A
VAL_TABLE_ T 0 "x";
BO_ 5 M1: 8 A
 SG_ S1 : 0|8@1+ (1,0) [0|255] "" A

SGTYPE_ MyType : 8@1+ (1,0) [0|255] "" 0, T;

SGTYPE_ 5 S1 : MyType;
`
	doc := parseClean(t, src)
	require.Len(t, doc.SignalTypes, 1)
	st := doc.SignalTypes[0]
	assert.Equal(t, "MyType", st.Name)
	assert.Equal(t, uint32(8), st.Size)
	assert.Equal(t, "T", st.ValueTable)
	require.Len(t, doc.SignalTypeRefs, 1)
	assert.Equal(t, "MyType", doc.SignalTypeRefs[0].TypeName)
}

func TestParseReservedValueTableName(t *testing.T) {
	_, diags := Parse([]byte("BU_:\nVAL_TABLE_ BA_Table 0 \"x\";\n"))
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "reserved")
}

func TestParseRelationAttributes(t *testing.T) {
	src := `BU_: A B
BO_ 9 M1: 8 A
 SG_ S1 : 0|8@1+ (1,0) [0|255] "" B

BA_DEF_REL_ BU_SG_REL_ "SigAllowed" ENUM "No","Yes";
BA_DEF_DEF_REL_ "SigAllowed" "No";
BA_REL_ "SigAllowed" BU_SG_REL_ B SG_ 9 S1 "Yes";
`
	doc := parseClean(t, src)
	require.Len(t, doc.AttributeDefs, 1)
	assert.Equal(t, AttrRelNodeSignal, doc.AttributeDefs[0].Object)
	assert.Equal(t, []string{"No", "Yes"}, doc.AttributeDefs[0].Type.Labels)
	require.Len(t, doc.AttributeDefaults, 1)
	assert.True(t, doc.AttributeDefaults[0].Rel)
	require.Len(t, doc.AttributeValues, 1)
	av := doc.AttributeValues[0]
	assert.Equal(t, AttrRelNodeSignal, av.Object)
	assert.Equal(t, "B", av.Node)
	assert.Equal(t, uint32(9), av.MessageID)
	assert.Equal(t, "S1", av.Signal)
}

func TestParseOrError(t *testing.T) {
	doc, err := ParseOrError([]byte(sampleDBC))
	require.NoError(t, err)
	require.NotNil(t, doc)

	_, err = ParseOrError([]byte("BO_ not-a-message"))
	require.Error(t, err)
	var derr *DiagnosticsError
	require.ErrorAs(t, err, &derr)
	assert.NotEmpty(t, derr.Diagnostics)
}

func TestDocumentAccessors(t *testing.T) {
	doc := parseClean(t, sampleDBC)
	assert.True(t, doc.HasNode("ECU1"))
	assert.False(t, doc.HasNode("NOPE"))
	require.NotNil(t, doc.MessageByID(256))
	assert.Equal(t, "EngineData", doc.MessageByID(256).Name)
	assert.Nil(t, doc.MessageByID(999))
	require.NotNil(t, doc.SignalByName(512, "ValA"))
	assert.Nil(t, doc.SignalByName(512, "Missing"))
	require.NotNil(t, doc.EnvVarByName("AmbientTemp"))
	require.NotNil(t, doc.AttributeDefinition("BusType"))
	require.NotNil(t, doc.ValueTableByName("OnOff"))
}
