package dbcparser

import "fmt"

// checkRule is a single semantic check run against a fully parsed Document.
type checkRule interface {
	Name() string
	Check(d *Document) []Diagnostic
}

// defaultRules returns the full rule set in execution order.
func defaultRules() []checkRule {
	return []checkRule{
		multiplexingRule{},
		nodeRefRule{},
		transmitterRule{},
		valueTableRefRule{},
		commentRefRule{},
		attributeValueRule{},
		attributeDefaultRule{},
		valueDescRefRule{},
		signalTypeRefRule{},
		extendedValueTypeRule{},
		signalGroupRule{},
		envVarDataRule{},
	}
}

// Validate rebuilds the document index and runs every semantic rule,
// returning all diagnostics found. A document that parses and validates with
// no error diagnostics has no dangling references.
func Validate(d *Document) []Diagnostic {
	diags := d.buildIndex()
	for _, rule := range defaultRules() {
		diags = append(diags, rule.Check(d)...)
	}
	return diags
}

// ValidateOrError runs Validate and wraps any error-severity findings.
func ValidateOrError(d *Document) error {
	diags := Validate(d)
	if HasErrors(diags) {
		return &DiagnosticsError{Diagnostics: diags}
	}
	return nil
}

func dup(rule string, entity EntityRef, format string, args ...any) Diagnostic {
	e := entity
	return Diagnostic{
		Rule:     rule,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Entity:   &e,
	}
}

// buildIndex rebuilds the name and id indices from scratch, reporting every
// duplicate declaration. First declarations win; later duplicates are
// diagnosed and not indexed.
func (d *Document) buildIndex() []Diagnostic {
	var diags []Diagnostic
	idx := &index{
		nodes:       make(map[string]bool),
		messages:    make(map[uint32]*Message),
		signals:     make(map[signalKey]*Signal),
		envVars:     make(map[string]*EnvironmentVariable),
		envVarIDs:   make(map[uint32]*EnvironmentVariable),
		attrDefs:    make(map[attrDefKey]*AttributeDefinition),
		attrByName:  make(map[string][]*AttributeDefinition),
		valueTables: make(map[string]*ValueTable),
		signalTypes: make(map[string]*SignalType),
	}
	d.idx = idx

	for _, name := range d.Nodes {
		if idx.nodes[name] {
			diags = append(diags, dup("duplicate_node", EntityRef{Kind: "node", Name: name},
				"node %q declared more than once", name))
			continue
		}
		idx.nodes[name] = true
	}

	msgNames := make(map[string]bool)
	for _, msg := range d.Messages {
		if _, exists := idx.messages[msg.ID]; exists {
			diags = append(diags, dup("duplicate_message", EntityRef{Kind: "message", MessageID: msg.ID},
				"message id %d declared more than once", msg.ID))
		} else {
			idx.messages[msg.ID] = msg
		}
		if msgNames[msg.Name] {
			diags = append(diags, dup("duplicate_message", EntityRef{Kind: "message", Name: msg.Name, MessageID: msg.ID},
				"message name %q declared more than once", msg.Name))
		}
		msgNames[msg.Name] = true

		for _, sig := range msg.Signals {
			key := signalKey{msg.ID, sig.Name}
			if _, exists := idx.signals[key]; exists {
				diags = append(diags, dup("duplicate_signal", EntityRef{Kind: "signal", Name: sig.Name, MessageID: msg.ID},
					"signal %q declared more than once in message %d", sig.Name, msg.ID))
				continue
			}
			idx.signals[key] = sig
		}
	}

	for _, ev := range d.EnvVars {
		if _, exists := idx.envVars[ev.Name]; exists {
			diags = append(diags, dup("duplicate_envvar", EntityRef{Kind: "envvar", Name: ev.Name},
				"environment variable %q declared more than once", ev.Name))
			continue
		}
		idx.envVars[ev.Name] = ev
		if prev, exists := idx.envVarIDs[ev.ID]; exists {
			diags = append(diags, dup("duplicate_envvar", EntityRef{Kind: "envvar", Name: ev.Name},
				"environment variable %q reuses id %d of %q", ev.Name, ev.ID, prev.Name))
			continue
		}
		idx.envVarIDs[ev.ID] = ev
	}

	for _, vt := range d.ValueTables {
		if _, exists := idx.valueTables[vt.Name]; exists {
			diags = append(diags, dup("duplicate_value_table", EntityRef{Kind: "value_table", Name: vt.Name},
				"value table %q declared more than once", vt.Name))
			continue
		}
		idx.valueTables[vt.Name] = vt
	}

	for _, st := range d.SignalTypes {
		if _, exists := idx.signalTypes[st.Name]; exists {
			diags = append(diags, dup("duplicate_signal_type", EntityRef{Kind: "signal_type", Name: st.Name},
				"signal type %q declared more than once", st.Name))
			continue
		}
		idx.signalTypes[st.Name] = st
	}

	for _, def := range d.AttributeDefs {
		key := attrDefKey{def.Name, def.Object}
		if _, exists := idx.attrDefs[key]; exists {
			diags = append(diags, dup("duplicate_attribute", EntityRef{Kind: "attribute", Name: def.Name},
				"attribute %q defined more than once for object type %s", def.Name, def.Object))
			continue
		}
		idx.attrDefs[key] = def
		idx.attrByName[def.Name] = append(idx.attrByName[def.Name], def)
	}

	return diags
}

func danglingNode(rule, context, name string) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: Error,
		Message:  fmt.Sprintf("%s references undeclared node %q", context, name),
		Entity:   &EntityRef{Kind: "node", Name: name},
	}
}

func danglingMessage(rule, context string, id uint32) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: Error,
		Message:  fmt.Sprintf("%s references unknown message %d", context, id),
		Entity:   &EntityRef{Kind: "message", MessageID: id},
	}
}

func danglingSignal(rule, context string, id uint32, name string) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: Error,
		Message:  fmt.Sprintf("%s references unknown signal %q in message %d", context, name, id),
		Entity:   &EntityRef{Kind: "signal", Name: name, MessageID: id},
	}
}

func danglingEnvVar(rule, context, name string) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: Error,
		Message:  fmt.Sprintf("%s references unknown environment variable %q", context, name),
		Entity:   &EntityRef{Kind: "envvar", Name: name},
	}
}

// multiplexingRule enforces the multiplexor invariant: a message carrying
// multiplexed signals needs exactly one multiplexor switch, and never more
// than one regardless.
type multiplexingRule struct{}

func (multiplexingRule) Name() string { return "multiplexing" }

func (r multiplexingRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, msg := range d.Messages {
		var muxers, muxed int
		for _, sig := range msg.Signals {
			switch sig.Mux {
			case Multiplexor:
				muxers++
			case MultiplexedBy:
				muxed++
			}
		}
		if muxers > 1 {
			diags = append(diags, dup(r.Name(), EntityRef{Kind: "message", Name: msg.Name, MessageID: msg.ID},
				"message %d has %d multiplexor signals, at most one is allowed", msg.ID, muxers))
		}
		if muxed > 0 && muxers == 0 {
			diags = append(diags, dup(r.Name(), EntityRef{Kind: "message", Name: msg.Name, MessageID: msg.ID},
				"message %d has multiplexed signals but no multiplexor", msg.ID))
		}
	}
	return diags
}

// nodeRefRule checks that every node referenced by messages, signals and
// environment variables is declared in BU_ or is the empty-node sentinel.
type nodeRefRule struct{}

func (nodeRefRule) Name() string { return "dangling_reference" }

func (r nodeRefRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	known := func(name string) bool {
		return name == NoNode || d.HasNode(name)
	}
	for _, msg := range d.Messages {
		if !known(msg.Transmitter) {
			diags = append(diags, danglingNode(r.Name(),
				fmt.Sprintf("message %d transmitter", msg.ID), msg.Transmitter))
		}
		for _, sig := range msg.Signals {
			for _, rx := range sig.Receivers {
				if !known(rx) {
					diags = append(diags, danglingNode(r.Name(),
						fmt.Sprintf("signal %q receiver list", sig.Name), rx))
				}
			}
		}
	}
	for _, ev := range d.EnvVars {
		for _, node := range ev.AccessNodes {
			if !known(node) {
				diags = append(diags, danglingNode(r.Name(),
					fmt.Sprintf("environment variable %q access list", ev.Name), node))
			}
		}
	}
	return diags
}

// transmitterRule checks BO_TX_BU_ overrides against declared messages and
// nodes.
type transmitterRule struct{}

func (transmitterRule) Name() string { return "dangling_reference" }

func (r transmitterRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, mt := range d.MessageTransmitters {
		if d.MessageByID(mt.MessageID) == nil {
			diags = append(diags, danglingMessage(r.Name(), "transmitter list", mt.MessageID))
		}
		for _, tx := range mt.Transmitters {
			if tx != NoNode && !d.HasNode(tx) {
				diags = append(diags, danglingNode(r.Name(),
					fmt.Sprintf("transmitter list for message %d", mt.MessageID), tx))
			}
		}
	}
	return diags
}

// valueTableRefRule checks that signal type declarations point at declared
// value tables.
type valueTableRefRule struct{}

func (valueTableRefRule) Name() string { return "dangling_reference" }

func (r valueTableRefRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, st := range d.SignalTypes {
		if d.ValueTableByName(st.ValueTable) == nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("signal type %q references unknown value table %q", st.Name, st.ValueTable),
				Entity:   &EntityRef{Kind: "value_table", Name: st.ValueTable},
			})
		}
	}
	return diags
}

// commentRefRule checks that every scoped comment points at an existing
// entity.
type commentRefRule struct{}

func (commentRefRule) Name() string { return "dangling_reference" }

func (r commentRefRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, cm := range d.Comments {
		switch cm.Kind {
		case CommentNode:
			if !d.HasNode(cm.Node) {
				diags = append(diags, danglingNode(r.Name(), "comment", cm.Node))
			}
		case CommentMessage:
			if d.MessageByID(cm.MessageID) == nil {
				diags = append(diags, danglingMessage(r.Name(), "comment", cm.MessageID))
			}
		case CommentSignal:
			if d.SignalByName(cm.MessageID, cm.Signal) == nil {
				diags = append(diags, danglingSignal(r.Name(), "comment", cm.MessageID, cm.Signal))
			}
		case CommentEnvVar:
			if d.EnvVarByName(cm.EnvVar) == nil {
				diags = append(diags, danglingEnvVar(r.Name(), "comment", cm.EnvVar))
			}
		}
	}
	return diags
}

// attributeValueRule checks every BA_ and BA_REL_ assignment: the attribute
// must be defined for the target object type, the target must exist, and the
// value must fit the declared value type.
type attributeValueRule struct{}

func (attributeValueRule) Name() string { return "attribute" }

func (r attributeValueRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	idx := d.ensureIndex()
	for _, av := range d.AttributeValues {
		def, defined := idx.attrDefs[attrDefKey{av.Name, av.Object}]
		if !defined {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("attribute %q is not defined for object type %s", av.Name, av.Object),
				Entity:   &EntityRef{Kind: "attribute", Name: av.Name},
			})
			continue
		}
		diags = append(diags, r.checkTarget(d, av)...)
		if err := av.Value.checkAgainst(def.Type); err != nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("attribute %q: %v", av.Name, err),
				Entity:   &EntityRef{Kind: "attribute", Name: av.Name},
			})
		}
	}
	return diags
}

func (r attributeValueRule) checkTarget(d *Document, av *AttributeValue) []Diagnostic {
	var diags []Diagnostic
	context := fmt.Sprintf("attribute %q", av.Name)
	switch av.Object {
	case AttrNode:
		if !d.HasNode(av.Node) {
			diags = append(diags, danglingNode(r.Name(), context, av.Node))
		}
	case AttrMessage:
		if d.MessageByID(av.MessageID) == nil {
			diags = append(diags, danglingMessage(r.Name(), context, av.MessageID))
		}
	case AttrSignal:
		if d.SignalByName(av.MessageID, av.Signal) == nil {
			diags = append(diags, danglingSignal(r.Name(), context, av.MessageID, av.Signal))
		}
	case AttrEnvVar:
		if d.EnvVarByName(av.EnvVar) == nil {
			diags = append(diags, danglingEnvVar(r.Name(), context, av.EnvVar))
		}
	case AttrRelNodeMessage, AttrRelNodeSignal, AttrRelNodeEnvVar:
		if !d.HasNode(av.Node) {
			diags = append(diags, danglingNode(r.Name(), context, av.Node))
		}
		switch av.Object {
		case AttrRelNodeMessage:
			if d.MessageByID(av.MessageID) == nil {
				diags = append(diags, danglingMessage(r.Name(), context, av.MessageID))
			}
		case AttrRelNodeSignal:
			if d.SignalByName(av.MessageID, av.Signal) == nil {
				diags = append(diags, danglingSignal(r.Name(), context, av.MessageID, av.Signal))
			}
		case AttrRelNodeEnvVar:
			if d.EnvVarByName(av.EnvVar) == nil {
				diags = append(diags, danglingEnvVar(r.Name(), context, av.EnvVar))
			}
		}
	}
	return diags
}

// attributeDefaultRule checks that every BA_DEF_DEF_ names a defined
// attribute of the matching relation class and that the default value fits
// the declared type.
type attributeDefaultRule struct{}

func (attributeDefaultRule) Name() string { return "attribute" }

func (r attributeDefaultRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	idx := d.ensureIndex()
	for _, ad := range d.AttributeDefaults {
		var def *AttributeDefinition
		for _, cand := range idx.attrByName[ad.Name] {
			if cand.Object.rel() == ad.Rel {
				def = cand
				break
			}
		}
		if def == nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("default for undefined attribute %q", ad.Name),
				Entity:   &EntityRef{Kind: "attribute", Name: ad.Name},
			})
			continue
		}
		if err := ad.Value.checkAgainst(def.Type); err != nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("default for attribute %q: %v", ad.Name, err),
				Entity:   &EntityRef{Kind: "attribute", Name: ad.Name},
			})
		}
	}
	return diags
}

// valueDescRefRule checks VAL_ targets.
type valueDescRefRule struct{}

func (valueDescRefRule) Name() string { return "dangling_reference" }

func (r valueDescRefRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, vd := range d.ValueDescriptions {
		switch vd.Kind {
		case ValueDescSignal:
			if d.SignalByName(vd.MessageID, vd.Signal) == nil {
				diags = append(diags, danglingSignal(r.Name(), "value description", vd.MessageID, vd.Signal))
			}
		case ValueDescEnvVar:
			if d.EnvVarByName(vd.EnvVar) == nil {
				diags = append(diags, danglingEnvVar(r.Name(), "value description", vd.EnvVar))
			}
		}
	}
	return diags
}

// signalTypeRefRule checks SGTYPE_ references.
type signalTypeRefRule struct{}

func (signalTypeRefRule) Name() string { return "dangling_reference" }

func (r signalTypeRefRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, ref := range d.SignalTypeRefs {
		if d.SignalByName(ref.MessageID, ref.Signal) == nil {
			diags = append(diags, danglingSignal(r.Name(), "signal type reference", ref.MessageID, ref.Signal))
		}
		if d.SignalTypeByName(ref.TypeName) == nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: Error,
				Message:  fmt.Sprintf("signal type reference names unknown signal type %q", ref.TypeName),
				Entity:   &EntityRef{Kind: "signal_type", Name: ref.TypeName},
			})
		}
	}
	return diags
}

// extendedValueTypeRule checks SIG_VALTYPE_ targets.
type extendedValueTypeRule struct{}

func (extendedValueTypeRule) Name() string { return "dangling_reference" }

func (r extendedValueTypeRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, evt := range d.ExtendedValueTypes {
		if d.SignalByName(evt.MessageID, evt.Signal) == nil {
			diags = append(diags, danglingSignal(r.Name(), "extended value type", evt.MessageID, evt.Signal))
		}
	}
	return diags
}

// signalGroupRule checks SIG_GROUP_ membership: the message must exist and
// every member signal must belong to it.
type signalGroupRule struct{}

func (signalGroupRule) Name() string { return "dangling_reference" }

func (r signalGroupRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, sg := range d.SignalGroups {
		if d.MessageByID(sg.MessageID) == nil {
			diags = append(diags, danglingMessage(r.Name(),
				fmt.Sprintf("signal group %q", sg.Name), sg.MessageID))
			continue
		}
		for _, name := range sg.Signals {
			if d.SignalByName(sg.MessageID, name) == nil {
				diags = append(diags, danglingSignal(r.Name(),
					fmt.Sprintf("signal group %q", sg.Name), sg.MessageID, name))
			}
		}
	}
	return diags
}

// envVarDataRule checks ENVVAR_DATA_ records against declared environment
// variables.
type envVarDataRule struct{}

func (envVarDataRule) Name() string { return "dangling_reference" }

func (r envVarDataRule) Check(d *Document) []Diagnostic {
	var diags []Diagnostic
	for _, evd := range d.EnvVarData {
		if d.EnvVarByName(evd.Name) == nil {
			diags = append(diags, danglingEnvVar(r.Name(), "environment variable data", evd.Name))
		}
	}
	return diags
}
