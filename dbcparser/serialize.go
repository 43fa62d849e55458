package dbcparser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Serialize renders the document back to DBC text in the canonical section
// order. Empty sections are omitted except BS_ and BU_, which the format
// requires. The output of Serialize parses back to an equivalent document.
func Serialize(d *Document) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "VERSION %s\n\n", quoteString(d.Version))

	if len(d.NewSymbols) > 0 {
		b.WriteString("NS_ :\n")
		for _, sym := range d.NewSymbols {
			b.WriteString("\t" + sym + "\n")
		}
		b.WriteString("\n")
	}

	if d.BitTiming != nil {
		fmt.Fprintf(&b, "BS_: %d:%d,%d\n\n", d.BitTiming.Baudrate, d.BitTiming.BTR1, d.BitTiming.BTR2)
	} else {
		b.WriteString("BS_:\n\n")
	}

	b.WriteString("BU_:")
	for _, node := range d.Nodes {
		b.WriteString(" " + node)
	}
	b.WriteString("\n\n")

	for _, vt := range d.ValueTables {
		fmt.Fprintf(&b, "VAL_TABLE_ %s%s;\n", vt.Name, formatValueLabels(vt.Values))
	}
	if len(d.ValueTables) > 0 {
		b.WriteString("\n")
	}

	for _, msg := range d.Messages {
		fmt.Fprintf(&b, "BO_ %d %s: %d %s\n", msg.ID, msg.Name, msg.Size, msg.Transmitter)
		for _, sig := range msg.Signals {
			writeSignal(&b, sig)
		}
		b.WriteString("\n")
	}

	for _, mt := range d.MessageTransmitters {
		fmt.Fprintf(&b, "BO_TX_BU_ %d : %s;\n", mt.MessageID, strings.Join(mt.Transmitters, ","))
	}
	if len(d.MessageTransmitters) > 0 {
		b.WriteString("\n")
	}

	for _, ev := range d.EnvVars {
		fmt.Fprintf(&b, "EV_ %s: %d [%s|%s] %s %s %d %s %s;\n",
			ev.Name, int(ev.Type), formatFloat(ev.Min), formatFloat(ev.Max),
			quoteString(ev.Unit), formatFloat(ev.InitValue), ev.ID, accessTag(ev.Access),
			strings.Join(ev.AccessNodes, ","))
	}
	if len(d.EnvVars) > 0 {
		b.WriteString("\n")
	}

	for _, evd := range d.EnvVarData {
		fmt.Fprintf(&b, "ENVVAR_DATA_ %s: %d;\n", evd.Name, evd.Size)
	}
	if len(d.EnvVarData) > 0 {
		b.WriteString("\n")
	}

	for _, st := range d.SignalTypes {
		fmt.Fprintf(&b, "SGTYPE_ %s : %d@%s%s (%s,%s) [%s|%s] %s %s, %s;\n",
			st.Name, st.Size, byteOrderChar(st.ByteOrder), signChar(st.ValueType),
			formatFloat(st.Factor), formatFloat(st.Offset),
			formatFloat(st.Min), formatFloat(st.Max),
			quoteString(st.Unit), formatFloat(st.Default), st.ValueTable)
	}
	if len(d.SignalTypes) > 0 {
		b.WriteString("\n")
	}

	for _, cm := range d.Comments {
		writeComment(&b, cm)
	}
	if len(d.Comments) > 0 {
		b.WriteString("\n")
	}

	for _, def := range d.AttributeDefs {
		writeAttributeDef(&b, def)
	}
	if len(d.AttributeDefs) > 0 {
		b.WriteString("\n")
	}

	for _, ad := range d.AttributeDefaults {
		kw := "BA_DEF_DEF_"
		if ad.Rel {
			kw = "BA_DEF_DEF_REL_"
		}
		fmt.Fprintf(&b, "%s %s %s;\n", kw, quoteString(ad.Name), formatAttrValue(ad.Value))
	}
	if len(d.AttributeDefaults) > 0 {
		b.WriteString("\n")
	}

	for _, av := range d.AttributeValues {
		writeAttributeValue(&b, av)
	}
	if len(d.AttributeValues) > 0 {
		b.WriteString("\n")
	}

	for _, vd := range d.ValueDescriptions {
		if vd.Kind == ValueDescSignal {
			fmt.Fprintf(&b, "VAL_ %d %s%s;\n", vd.MessageID, vd.Signal, formatValueLabels(vd.Values))
		} else {
			fmt.Fprintf(&b, "VAL_ %s%s;\n", vd.EnvVar, formatValueLabels(vd.Values))
		}
	}
	if len(d.ValueDescriptions) > 0 {
		b.WriteString("\n")
	}

	for _, ref := range d.SignalTypeRefs {
		fmt.Fprintf(&b, "SGTYPE_ %d %s : %s;\n", ref.MessageID, ref.Signal, ref.TypeName)
	}
	for _, evt := range d.ExtendedValueTypes {
		fmt.Fprintf(&b, "SIG_VALTYPE_ %d %s : %d;\n", evt.MessageID, evt.Signal, int(evt.Type))
	}
	if len(d.SignalTypeRefs)+len(d.ExtendedValueTypes) > 0 {
		b.WriteString("\n")
	}

	for _, sg := range d.SignalGroups {
		fmt.Fprintf(&b, "SIG_GROUP_ %d %s %d : %s;\n", sg.MessageID, sg.Name, sg.Repetitions,
			strings.Join(sg.Signals, " "))
	}

	return []byte(b.String())
}

func writeSignal(b *strings.Builder, sig *Signal) {
	mux := ""
	switch sig.Mux {
	case Multiplexor:
		mux = " M"
	case MultiplexedBy:
		mux = fmt.Sprintf(" m%d", sig.MuxSwitch)
	}
	fmt.Fprintf(b, " SG_ %s%s : %d|%d@%s%s (%s,%s) [%s|%s] %s %s\n",
		sig.Name, mux, sig.StartBit, sig.Size,
		byteOrderChar(sig.ByteOrder), signChar(sig.ValueType),
		formatFloat(sig.Factor), formatFloat(sig.Offset),
		formatFloat(sig.Min), formatFloat(sig.Max),
		quoteString(sig.Unit), strings.Join(sig.Receivers, ","))
}

func writeComment(b *strings.Builder, cm *Comment) {
	switch cm.Kind {
	case CommentDocument:
		fmt.Fprintf(b, "CM_ %s;\n", quoteString(cm.Text))
	case CommentNode:
		fmt.Fprintf(b, "CM_ BU_ %s %s;\n", cm.Node, quoteString(cm.Text))
	case CommentMessage:
		fmt.Fprintf(b, "CM_ BO_ %d %s;\n", cm.MessageID, quoteString(cm.Text))
	case CommentSignal:
		fmt.Fprintf(b, "CM_ SG_ %d %s %s;\n", cm.MessageID, cm.Signal, quoteString(cm.Text))
	case CommentEnvVar:
		fmt.Fprintf(b, "CM_ EV_ %s %s;\n", cm.EnvVar, quoteString(cm.Text))
	}
}

func writeAttributeDef(b *strings.Builder, def *AttributeDefinition) {
	kw := "BA_DEF_"
	obj := ""
	if def.Object.rel() {
		kw = "BA_DEF_REL_"
		obj = def.Object.String() + " "
	} else if def.Object != AttrGlobal {
		obj = def.Object.String() + " "
	}
	fmt.Fprintf(b, "%s %s%s %s;\n", kw, obj, quoteString(def.Name), formatAttrType(def.Type))
}

func formatAttrType(t AttrValueType) string {
	switch t.Kind {
	case AttrInt, AttrHex:
		return fmt.Sprintf("%s %d %d", t.Kind, t.IntMin, t.IntMax)
	case AttrFloat:
		return fmt.Sprintf("FLOAT %s %s", formatFloat(t.FloatMin), formatFloat(t.FloatMax))
	case AttrString:
		return "STRING"
	case AttrEnum:
		quoted := make([]string, len(t.Labels))
		for i, label := range t.Labels {
			quoted[i] = quoteString(label)
		}
		return "ENUM " + strings.Join(quoted, ",")
	}
	return ""
}

func writeAttributeValue(b *strings.Builder, av *AttributeValue) {
	val := formatAttrValue(av.Value)
	switch av.Object {
	case AttrGlobal:
		fmt.Fprintf(b, "BA_ %s %s;\n", quoteString(av.Name), val)
	case AttrNode:
		fmt.Fprintf(b, "BA_ %s BU_ %s %s;\n", quoteString(av.Name), av.Node, val)
	case AttrMessage:
		fmt.Fprintf(b, "BA_ %s BO_ %d %s;\n", quoteString(av.Name), av.MessageID, val)
	case AttrSignal:
		fmt.Fprintf(b, "BA_ %s SG_ %d %s %s;\n", quoteString(av.Name), av.MessageID, av.Signal, val)
	case AttrEnvVar:
		fmt.Fprintf(b, "BA_ %s EV_ %s %s;\n", quoteString(av.Name), av.EnvVar, val)
	case AttrRelNodeMessage:
		fmt.Fprintf(b, "BA_REL_ %s BU_BO_REL_ %s BO_ %d %s;\n", quoteString(av.Name), av.Node, av.MessageID, val)
	case AttrRelNodeSignal:
		fmt.Fprintf(b, "BA_REL_ %s BU_SG_REL_ %s SG_ %d %s %s;\n", quoteString(av.Name), av.Node, av.MessageID, av.Signal, val)
	case AttrRelNodeEnvVar:
		fmt.Fprintf(b, "BA_REL_ %s BU_EV_REL_ %s EV_ %s %s;\n", quoteString(av.Name), av.Node, av.EnvVar, val)
	}
}

func formatAttrValue(v AttrValue) string {
	if v.Kind == AttrValueString {
		return quoteString(v.Str)
	}
	return formatFloat(v.Num)
}

func formatValueLabels(values []ValueLabel) string {
	var b strings.Builder
	for _, vl := range values {
		fmt.Fprintf(&b, " %s %s", formatFloat(vl.Value), quoteString(vl.Label))
	}
	return b.String()
}

func byteOrderChar(o ByteOrder) string {
	if o == BigEndian {
		return "1"
	}
	return "0"
}

func signChar(t SignalValueType) string {
	if t == Signed {
		return "-"
	}
	return "+"
}

func accessTag(a AccessType) string {
	switch a {
	case AccessRead:
		return "DUMMY_NODE_VECTOR1"
	case AccessWrite:
		return "DUMMY_NODE_VECTOR2"
	case AccessReadWrite:
		return "DUMMY_NODE_VECTOR3"
	case AccessUnrestrictedExt:
		return "DUMMY_NODE_VECTOR8000"
	default:
		return "DUMMY_NODE_VECTOR0"
	}
}

// quoteString wraps s in double quotes. DBC strings carry no escape
// sequences, so the content is emitted verbatim.
func quoteString(s string) string {
	return "\"" + s + "\""
}

// formatFloat renders integral values without a decimal point, matching how
// DBC files are conventionally written.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
