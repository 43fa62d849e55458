package dbcparser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docDiff compares two documents ignoring source positions and the internal
// index, which legitimately differ between a document and its reparse.
func docDiff(a, b *Document) string {
	return cmp.Diff(a, b,
		cmpopts.IgnoreUnexported(Document{}),
		cmpopts.IgnoreTypes(Position{}),
	)
}

func unifiedDiff(t *testing.T, a, b string) string {
	t.Helper()
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "first",
		ToFile:   "second",
		Context:  3,
	})
	require.NoError(t, err)
	return text
}

func TestSerializeRoundTrip(t *testing.T) {
	doc := parseClean(t, sampleDBC)
	out := Serialize(doc)

	doc2, diags := Parse(out)
	require.Empty(t, diags, "serialized output must reparse cleanly:\n%s", out)

	if diff := docDiff(doc, doc2); diff != "" {
		t.Errorf("document changed across serialize/parse (-first +second):\n%s", diff)
	}
}

func TestSerializeIdempotent(t *testing.T) {
	doc := parseClean(t, sampleDBC)
	first := string(Serialize(doc))

	doc2, diags := Parse([]byte(first))
	require.Empty(t, diags)
	second := string(Serialize(doc2))

	if first != second {
		t.Errorf("serialization is not idempotent:\n%s", unifiedDiff(t, first, second))
	}
}

func TestSerializeEmptyDocument(t *testing.T) {
	out := string(Serialize(&Document{}))
	assert.Contains(t, out, "VERSION \"\"\n")
	assert.Contains(t, out, "BS_:\n")
	assert.Contains(t, out, "BU_:\n")
	assert.NotContains(t, out, "VAL_TABLE_")
	assert.NotContains(t, out, "BO_ ")

	doc2, diags := Parse([]byte(out))
	require.Empty(t, diags)
	assert.Equal(t, "", docDiff(&Document{}, doc2))
}

func TestSerializeMessage(t *testing.T) {
	doc := &Document{
		Nodes: []string{"ECU1", "ECU2"},
		Messages: []*Message{{
			ID: 256, Name: "EngineData", Size: 8, Transmitter: "ECU1",
			Signals: []*Signal{{
				Name: "EngineSpeed", StartBit: 0, Size: 16,
				ByteOrder: BigEndian, ValueType: Unsigned,
				Factor: 0.125, Offset: 0, Min: 0, Max: 8191.875,
				Unit: "rpm", Receivers: []string{"ECU2"},
			}},
		}},
	}
	out := string(Serialize(doc))
	assert.Contains(t, out, "BU_: ECU1 ECU2\n")
	assert.Contains(t, out, "BO_ 256 EngineData: 8 ECU1\n")
	assert.Contains(t, out, ` SG_ EngineSpeed : 0|16@1+ (0.125,0) [0|8191.875] "rpm" ECU2`)
}

func TestSerializeMuxIndicators(t *testing.T) {
	doc := &Document{
		Nodes: []string{"A"},
		Messages: []*Message{{
			ID: 1, Name: "M1", Size: 8, Transmitter: "A",
			Signals: []*Signal{
				{Name: "Switch", Mux: Multiplexor, Size: 4, ByteOrder: BigEndian, Factor: 1, Max: 15, Receivers: []string{"A"}},
				{Name: "Val", Mux: MultiplexedBy, MuxSwitch: 2, StartBit: 8, Size: 8, ByteOrder: BigEndian, Factor: 1, Max: 255, Receivers: []string{"A"}},
			},
		}},
	}
	out := string(Serialize(doc))
	assert.Contains(t, out, " SG_ Switch M : ")
	assert.Contains(t, out, " SG_ Val m2 : ")
}

func TestSerializeBitTiming(t *testing.T) {
	doc := &Document{BitTiming: &BitTiming{Baudrate: 500000, BTR1: 12, BTR2: 34}}
	out := string(Serialize(doc))
	assert.Contains(t, out, "BS_: 500000:12,34\n")
}

func TestSerializeSignedNumbers(t *testing.T) {
	doc := parseClean(t, `BU_: A
BO_ 1 M1: 8 A
 SG_ S1 : 0|8@1- (0.5,-40) [-40|87.5] "deg" A
`)
	out := string(Serialize(doc))
	assert.Contains(t, out, `(0.5,-40) [-40|87.5]`)
	assert.Contains(t, out, "@1-")
}

func TestSerializeEnvVar(t *testing.T) {
	doc := parseClean(t, "BU_: A\nEV_ E1: 1 [-1.5|1.5] \"V\" 0.25 7 DUMMY_NODE_VECTOR8000 A;\n")
	out := string(Serialize(doc))
	assert.Contains(t, out, `EV_ E1: 1 [-1.5|1.5] "V" 0.25 7 DUMMY_NODE_VECTOR8000 A;`)
}

func TestSerializeAttributeForms(t *testing.T) {
	src := `BU_: A
BO_ 1 M1: 8 A
 SG_ S1 : 0|8@1+ (1,0) [0|255] "" A

BA_DEF_ BO_ "Cycle" INT 0 10000;
BA_DEF_ "Bus" STRING ;
BA_DEF_ SG_ "Gain" FLOAT 0.5 2.5;
BA_DEF_ "Mode" ENUM "Off","On";
BA_DEF_DEF_ "Cycle" 100;
BA_ "Cycle" BO_ 1 10;
BA_ "Gain" SG_ 1 S1 1.5;
`
	doc := parseClean(t, src)
	out := string(Serialize(doc))
	assert.Contains(t, out, `BA_DEF_ BO_ "Cycle" INT 0 10000;`)
	assert.Contains(t, out, `BA_DEF_ "Bus" STRING;`)
	assert.Contains(t, out, `BA_DEF_ SG_ "Gain" FLOAT 0.5 2.5;`)
	assert.Contains(t, out, `BA_DEF_ "Mode" ENUM "Off","On";`)
	assert.Contains(t, out, `BA_DEF_DEF_ "Cycle" 100;`)
	assert.Contains(t, out, `BA_ "Cycle" BO_ 1 10;`)
	assert.Contains(t, out, `BA_ "Gain" SG_ 1 S1 1.5;`)
}

func TestSerializeRelationAttributes(t *testing.T) {
	src := `BU_: A B
BO_ 9 M1: 8 A
 SG_ S1 : 0|8@1+ (1,0) [0|255] "" B

BA_DEF_REL_ BU_SG_REL_ "SigAllowed" ENUM "No","Yes";
BA_DEF_DEF_REL_ "SigAllowed" "No";
BA_REL_ "SigAllowed" BU_SG_REL_ B SG_ 9 S1 "Yes";
`
	doc := parseClean(t, src)
	out := string(Serialize(doc))
	assert.Contains(t, out, `BA_DEF_REL_ BU_SG_REL_ "SigAllowed" ENUM "No","Yes";`)
	assert.Contains(t, out, `BA_DEF_DEF_REL_ "SigAllowed" "No";`)
	assert.Contains(t, out, `BA_REL_ "SigAllowed" BU_SG_REL_ B SG_ 9 S1 "Yes";`)

	doc2, diags := Parse([]byte(out))
	require.Empty(t, diags)
	assert.Equal(t, "", docDiff(doc, doc2))
}

func TestSerializeMultilineComment(t *testing.T) {
	src := "BU_: A\nCM_ BU_ A \"line one\nline two\";\n"
	doc := parseClean(t, src)
	out := Serialize(doc)

	doc2, diags := Parse(out)
	require.Empty(t, diags)
	require.Len(t, doc2.Comments, 1)
	assert.Equal(t, "line one\nline two", doc2.Comments[0].Text)
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-40, "-40"},
		{0.125, "0.125"},
		{8191.875, "8191.875"},
		{1e16, "1e+16"},
		{-0.5, "-0.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatFloat(tc.in), "formatFloat(%v)", tc.in)
	}
}
