package dbcparser

import (
	"fmt"
	"strconv"
)

// Parse parses DBC source text into a best-effort Document plus all syntax
// and validation diagnostics. The document is clean only when the returned
// diagnostics slice is empty.
func Parse(src []byte) (*Document, []Diagnostic) {
	tokens, diags := NewLexer(src).ScanAll()
	p := &parser{toks: tokens, diags: diags}
	doc := p.parseDocument()
	all := append(p.diags, Validate(doc)...)
	return doc, all
}

// ParseOrError parses DBC source text and returns an error when any
// error-severity diagnostic is found. Non-error diagnostics are dropped.
func ParseOrError(src []byte) (*Document, error) {
	doc, diags := Parse(src)
	if HasErrors(diags) {
		return doc, &DiagnosticsError{Diagnostics: diags}
	}
	return doc, nil
}

type parser struct {
	toks  []Token
	pos   int
	diags []Diagnostic
}

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *parser) peekKind(n int) TokenKind {
	if p.pos+n >= len(p.toks) {
		return TokenEOF
	}
	return p.toks[p.pos+n].Kind
}

func (p *parser) next() Token {
	tok := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *parser) errorf(pos Position, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Rule:     "syntax",
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (p *parser) expect(kind TokenKind) (Token, bool) {
	tok := p.cur()
	if tok.Kind != kind {
		p.errorf(tok.Pos, "expected %s, got %s (%q)", kind, tok.Kind, tok.Literal)
		return Token{}, false
	}
	return p.next(), true
}

func (p *parser) expectIdent() (string, bool) {
	tok, ok := p.expect(TokenIdent)
	return tok.Literal, ok
}

func (p *parser) expectString() (string, bool) {
	tok, ok := p.expect(TokenString)
	return tok.Literal, ok
}

func (p *parser) expectUint32() (uint32, bool) {
	tok, ok := p.expect(TokenInteger)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(tok.Literal, 10, 32)
	if err != nil {
		p.errorf(tok.Pos, "expected unsigned integer, got %q", tok.Literal)
		return 0, false
	}
	return uint32(n), true
}

func (p *parser) expectInt64() (int64, bool) {
	tok, ok := p.expect(TokenInteger)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errorf(tok.Pos, "integer %q out of range", tok.Literal)
		return 0, false
	}
	return n, true
}

// expectNumber accepts an integer or float literal.
func (p *parser) expectNumber() (float64, bool) {
	tok := p.cur()
	if tok.Kind != TokenInteger && tok.Kind != TokenFloat {
		p.errorf(tok.Pos, "expected number, got %s (%q)", tok.Kind, tok.Literal)
		return 0, false
	}
	p.next()
	f, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(tok.Pos, "number %q out of range", tok.Literal)
		return 0, false
	}
	return f, true
}

// isSectionKeyword reports whether kind opens a record, which makes it a
// resynchronization point for error recovery.
func isSectionKeyword(kind TokenKind) bool {
	switch kind {
	case TokenVersion, TokenNS, TokenBS, TokenBU, TokenValTable, TokenBO,
		TokenSG, TokenBOTXBU, TokenEV, TokenEnvVarData, TokenSGType, TokenCM,
		TokenBADef, TokenBADefRel, TokenBADefDef, TokenBADefDefRel, TokenBA,
		TokenBARel, TokenVal, TokenSigValType, TokenSigGroup:
		return true
	}
	return false
}

// syncRecord skips forward to just past the next record terminator, or stops
// before the next record keyword, so one malformed record does not take the
// rest of the section with it.
func (p *parser) syncRecord() {
	for {
		switch p.cur().Kind {
		case TokenEOF:
			return
		case TokenSemicolon:
			p.next()
			return
		default:
			if isSectionKeyword(p.cur().Kind) {
				return
			}
			p.next()
		}
	}
}

func (p *parser) parseDocument() *Document {
	doc := &Document{}
	p.parseVersion(doc)
	p.parseNewSymbols(doc)
	p.parseBitTiming(doc)
	p.parseNodes(doc)
	p.parseValueTables(doc)
	p.parseMessages(doc)
	p.parseMessageTransmitters(doc)
	p.parseEnvVars(doc)
	p.parseEnvVarData(doc)
	p.parseSignalTypes(doc)
	p.parseComments(doc)
	p.parseAttributeDefs(doc)
	p.parseAttributeDefaults(doc)
	p.parseAttributeValues(doc)
	p.parseValueDescriptions(doc)
	p.parseSignalTypeRefs(doc)
	p.parseSignalGroups(doc)

	for !p.at(TokenEOF) {
		tok := p.cur()
		p.errorf(tok.Pos, "unexpected %s (%q): sections must appear in the fixed DBC order", tok.Kind, tok.Literal)
		p.next()
		for !p.at(TokenEOF) && !isSectionKeyword(p.cur().Kind) {
			p.next()
		}
	}
	return doc
}

func (p *parser) parseVersion(doc *Document) {
	if !p.at(TokenVersion) {
		return
	}
	p.next()
	text, ok := p.expectString()
	if !ok {
		p.syncRecord()
		return
	}
	doc.Version = text
}

// newSymbolVocab is the fixed vocabulary allowed in the NS_ section. The
// grammar gives these tokens no record shape, so they are captured verbatim
// and otherwise ignored.
var newSymbolVocab = map[string]bool{
	"NS_DESC_": true, "CM_": true, "BA_DEF_": true, "BA_": true,
	"VAL_": true, "CAT_DEF_": true, "CAT_": true, "FILTER": true,
	"BA_DEF_DEF_": true, "EV_DATA_": true, "ENVVAR_DATA_": true,
	"SGTYPE_": true, "SGTYPE_VAL_": true, "BA_DEF_SGTYPE_": true,
	"BA_SGTYPE_": true, "SIG_TYPE_REF_": true, "VAL_TABLE_": true,
	"SIG_GROUP_": true, "SIG_VALTYPE_": true, "SIGTYPE_VALTYPE_": true,
	"BO_TX_BU_": true, "BA_DEF_REL_": true, "BA_REL_": true,
	"BA_DEF_DEF_REL_": true, "BU_SG_REL_": true, "BU_EV_REL_": true,
	"BU_BO_REL_": true, "SG_MUL_VAL_": true,
}

func (p *parser) parseNewSymbols(doc *Document) {
	if !p.at(TokenNS) {
		return
	}
	p.next()
	if _, ok := p.expect(TokenColon); !ok {
		p.syncRecord()
		return
	}
	for newSymbolVocab[p.cur().Literal] {
		doc.NewSymbols = append(doc.NewSymbols, p.next().Literal)
	}
}

func (p *parser) parseBitTiming(doc *Document) {
	if !p.at(TokenBS) {
		return
	}
	p.next()
	if _, ok := p.expect(TokenColon); !ok {
		p.syncRecord()
		return
	}
	if !p.at(TokenInteger) {
		return // bare BS_: — the common, obsolete-but-mandatory form
	}
	baud, ok := p.expectUint32()
	if !ok {
		p.syncRecord()
		return
	}
	var btr1, btr2 uint32
	if _, ok = p.expect(TokenColon); ok {
		btr1, ok = p.expectUint32()
	}
	if ok {
		_, ok = p.expect(TokenComma)
	}
	if ok {
		btr2, ok = p.expectUint32()
	}
	if !ok {
		p.syncRecord()
		return
	}
	doc.BitTiming = &BitTiming{Baudrate: baud, BTR1: btr1, BTR2: btr2}
}

func (p *parser) parseNodes(doc *Document) {
	if !p.at(TokenBU) {
		return
	}
	p.next()
	if _, ok := p.expect(TokenColon); !ok {
		p.syncRecord()
		return
	}
	for p.at(TokenIdent) {
		doc.Nodes = append(doc.Nodes, p.next().Literal)
	}
}

func (p *parser) parseValueTables(doc *Document) {
	for p.at(TokenValTable) {
		if !p.parseValueTable(doc) {
			p.syncRecord()
		}
	}
}

func (p *parser) parseValueTable(doc *Document) bool {
	pos := p.next().Pos // VAL_TABLE_
	nameTok, ok := p.expect(TokenIdent)
	if !ok {
		return false
	}
	if IsReservedName(nameTok.Literal) {
		p.errorf(nameTok.Pos, "value table name %q collides with a reserved keyword prefix", nameTok.Literal)
		return false
	}
	values, ok := p.parseValueLabels()
	if !ok {
		return false
	}
	if _, ok := p.expect(TokenSemicolon); !ok {
		return false
	}
	doc.ValueTables = append(doc.ValueTables, &ValueTable{Name: nameTok.Literal, Values: values, Pos: pos})
	return true
}

// parseValueLabels parses the shared repeated (number, "label") list used by
// value tables and value descriptions.
func (p *parser) parseValueLabels() ([]ValueLabel, bool) {
	var values []ValueLabel
	for p.at(TokenInteger) || p.at(TokenFloat) {
		v, ok := p.expectNumber()
		if !ok {
			return nil, false
		}
		label, ok := p.expectString()
		if !ok {
			return nil, false
		}
		values = append(values, ValueLabel{Value: v, Label: label})
	}
	return values, true
}

func (p *parser) parseMessages(doc *Document) {
	for p.at(TokenBO) {
		msg := p.parseMessageHeader()
		if msg != nil {
			doc.Messages = append(doc.Messages, msg)
		} else {
			p.syncRecord()
		}
		for p.at(TokenSG) {
			sig, ok := p.parseSignal()
			if !ok {
				p.syncRecord()
				continue
			}
			if msg != nil {
				msg.Signals = append(msg.Signals, sig)
			}
		}
	}
}

func (p *parser) parseMessageHeader() *Message {
	pos := p.next().Pos // BO_
	id, ok := p.expectUint32()
	if !ok {
		return nil
	}
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}
	if _, ok = p.expect(TokenColon); !ok {
		return nil
	}
	size, ok := p.expectUint32()
	if !ok {
		return nil
	}
	tx, ok := p.expectIdent()
	if !ok {
		return nil
	}
	return &Message{ID: id, Name: name, Size: size, Transmitter: tx, Pos: pos}
}

func (p *parser) parseSignal() (*Signal, bool) {
	pos := p.next().Pos // SG_
	name, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	sig := &Signal{Name: name, Pos: pos}

	// Multiplexer indicator: absent, 'M', or 'm<switch value>'. A three-way
	// tagged choice, not two independent flags.
	if p.at(TokenIdent) {
		tok := p.next()
		switch {
		case tok.Literal == "M":
			sig.Mux = Multiplexor
		case len(tok.Literal) > 1 && tok.Literal[0] == 'm':
			sw, err := strconv.ParseUint(tok.Literal[1:], 10, 64)
			if err != nil {
				p.errorf(tok.Pos, "invalid multiplexer indicator %q", tok.Literal)
				return nil, false
			}
			sig.Mux = MultiplexedBy
			sig.MuxSwitch = sw
		default:
			p.errorf(tok.Pos, "expected multiplexer indicator or ':', got %q", tok.Literal)
			return nil, false
		}
	}

	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	if sig.StartBit, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenPipe); !ok {
		return nil, false
	}
	if sig.Size, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenAt); !ok {
		return nil, false
	}
	if sig.ByteOrder, ok = p.parseByteOrder(); !ok {
		return nil, false
	}
	if sig.ValueType, ok = p.parseSignVT(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenLParen); !ok {
		return nil, false
	}
	if sig.Factor, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenComma); !ok {
		return nil, false
	}
	if sig.Offset, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenRParen); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenLBracket); !ok {
		return nil, false
	}
	if sig.Min, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenPipe); !ok {
		return nil, false
	}
	if sig.Max, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenRBracket); !ok {
		return nil, false
	}
	if sig.Unit, ok = p.expectString(); !ok {
		return nil, false
	}
	if sig.Receivers, ok = p.parseNodeList(); !ok {
		return nil, false
	}
	return sig, true
}

func (p *parser) parseByteOrder() (ByteOrder, bool) {
	tok, ok := p.expect(TokenInteger)
	if !ok {
		return 0, false
	}
	switch tok.Literal {
	case "0":
		return LittleEndian, true
	case "1":
		return BigEndian, true
	default:
		p.errorf(tok.Pos, "expected byte order 0 or 1, got %q", tok.Literal)
		return 0, false
	}
}

func (p *parser) parseSignVT() (SignalValueType, bool) {
	tok := p.cur()
	switch tok.Kind {
	case TokenPlus:
		p.next()
		return Unsigned, true
	case TokenMinus:
		p.next()
		return Signed, true
	default:
		p.errorf(tok.Pos, "expected value type '+' or '-', got %s (%q)", tok.Kind, tok.Literal)
		return 0, false
	}
}

// parseNodeList parses a comma-separated node name list with at least one
// entry (the NoNode sentinel counts).
func (p *parser) parseNodeList() ([]string, bool) {
	first, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	nodes := []string{first}
	for p.at(TokenComma) {
		p.next()
		name, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		nodes = append(nodes, name)
	}
	return nodes, true
}

func (p *parser) parseMessageTransmitters(doc *Document) {
	for p.at(TokenBOTXBU) {
		pos := p.next().Pos
		id, ok := p.expectUint32()
		if ok {
			_, ok = p.expect(TokenColon)
		}
		var txs []string
		if ok && p.at(TokenIdent) {
			txs, ok = p.parseNodeList()
		}
		if ok {
			_, ok = p.expect(TokenSemicolon)
		}
		if !ok {
			p.syncRecord()
			continue
		}
		doc.MessageTransmitters = append(doc.MessageTransmitters, &MessageTransmitters{MessageID: id, Transmitters: txs, Pos: pos})
	}
}

func (p *parser) parseEnvVars(doc *Document) {
	for p.at(TokenEV) {
		ev, ok := p.parseEnvVar()
		if !ok {
			p.syncRecord()
			continue
		}
		doc.EnvVars = append(doc.EnvVars, ev)
	}
}

func (p *parser) parseEnvVar() (*EnvironmentVariable, bool) {
	pos := p.next().Pos // EV_
	name, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	ev := &EnvironmentVariable{Name: name, Pos: pos}
	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	typeTok, ok := p.expect(TokenInteger)
	if !ok {
		return nil, false
	}
	switch typeTok.Literal {
	case "0":
		ev.Type = EnvVarInteger
	case "1":
		ev.Type = EnvVarFloat
	case "2":
		ev.Type = EnvVarString
	default:
		p.errorf(typeTok.Pos, "expected environment variable type 0, 1 or 2, got %q", typeTok.Literal)
		return nil, false
	}
	if _, ok = p.expect(TokenLBracket); !ok {
		return nil, false
	}
	if ev.Min, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenPipe); !ok {
		return nil, false
	}
	if ev.Max, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenRBracket); !ok {
		return nil, false
	}
	if ev.Unit, ok = p.expectString(); !ok {
		return nil, false
	}
	if ev.InitValue, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if ev.ID, ok = p.expectUint32(); !ok {
		return nil, false
	}
	accessTok, ok := p.expect(TokenIdent)
	if !ok {
		return nil, false
	}
	if ev.Access, ok = parseAccessType(accessTok.Literal); !ok {
		p.errorf(accessTok.Pos, "unknown access type %q", accessTok.Literal)
		return nil, false
	}
	if ev.AccessNodes, ok = p.parseNodeList(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return ev, true
}

func parseAccessType(tag string) (AccessType, bool) {
	switch tag {
	case "DUMMY_NODE_VECTOR0":
		return AccessUnrestricted, true
	case "DUMMY_NODE_VECTOR1":
		return AccessRead, true
	case "DUMMY_NODE_VECTOR2":
		return AccessWrite, true
	case "DUMMY_NODE_VECTOR3":
		return AccessReadWrite, true
	case "DUMMY_NODE_VECTOR8000":
		return AccessUnrestrictedExt, true
	default:
		return 0, false
	}
}

func (p *parser) parseEnvVarData(doc *Document) {
	for p.at(TokenEnvVarData) {
		pos := p.next().Pos
		name, ok := p.expectIdent()
		if ok {
			_, ok = p.expect(TokenColon)
		}
		var size uint32
		if ok {
			size, ok = p.expectUint32()
		}
		if ok {
			_, ok = p.expect(TokenSemicolon)
		}
		if !ok {
			p.syncRecord()
			continue
		}
		doc.EnvVarData = append(doc.EnvVarData, &EnvVarData{Name: name, Size: size, Pos: pos})
	}
}

// parseSignalTypes parses SGTYPE_ declarations. The same keyword introduces
// signal type references later in the file; a numeric token after the
// keyword selects the reference form, so declarations require an identifier.
func (p *parser) parseSignalTypes(doc *Document) {
	for p.at(TokenSGType) && p.peekKind(1) != TokenInteger {
		st, ok := p.parseSignalType()
		if !ok {
			p.syncRecord()
			continue
		}
		doc.SignalTypes = append(doc.SignalTypes, st)
	}
}

func (p *parser) parseSignalType() (*SignalType, bool) {
	pos := p.next().Pos // SGTYPE_
	nameTok, ok := p.expect(TokenIdent)
	if !ok {
		return nil, false
	}
	if IsReservedName(nameTok.Literal) {
		p.errorf(nameTok.Pos, "signal type name %q collides with a reserved keyword prefix", nameTok.Literal)
		return nil, false
	}
	st := &SignalType{Name: nameTok.Literal, Pos: pos}
	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	if st.Size, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenAt); !ok {
		return nil, false
	}
	if st.ByteOrder, ok = p.parseByteOrder(); !ok {
		return nil, false
	}
	if st.ValueType, ok = p.parseSignVT(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenLParen); !ok {
		return nil, false
	}
	if st.Factor, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenComma); !ok {
		return nil, false
	}
	if st.Offset, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenRParen); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenLBracket); !ok {
		return nil, false
	}
	if st.Min, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenPipe); !ok {
		return nil, false
	}
	if st.Max, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenRBracket); !ok {
		return nil, false
	}
	if st.Unit, ok = p.expectString(); !ok {
		return nil, false
	}
	if st.Default, ok = p.expectNumber(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenComma); !ok {
		return nil, false
	}
	if st.ValueTable, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return st, true
}

func (p *parser) parseComments(doc *Document) {
	for p.at(TokenCM) {
		cm, ok := p.parseComment()
		if !ok {
			p.syncRecord()
			continue
		}
		doc.Comments = append(doc.Comments, cm)
	}
}

func (p *parser) parseComment() (*Comment, bool) {
	pos := p.next().Pos // CM_
	cm := &Comment{Pos: pos}
	var ok bool
	switch p.cur().Kind {
	case TokenString:
		cm.Kind = CommentDocument
		cm.Text = p.next().Literal
	case TokenBU:
		p.next()
		cm.Kind = CommentNode
		if cm.Node, ok = p.expectIdent(); !ok {
			return nil, false
		}
		if cm.Text, ok = p.expectString(); !ok {
			return nil, false
		}
	case TokenBO:
		p.next()
		cm.Kind = CommentMessage
		if cm.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
		if cm.Text, ok = p.expectString(); !ok {
			return nil, false
		}
	case TokenSG:
		p.next()
		cm.Kind = CommentSignal
		if cm.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
		if cm.Signal, ok = p.expectIdent(); !ok {
			return nil, false
		}
		if cm.Text, ok = p.expectString(); !ok {
			return nil, false
		}
	case TokenEV:
		p.next()
		cm.Kind = CommentEnvVar
		if cm.EnvVar, ok = p.expectIdent(); !ok {
			return nil, false
		}
		if cm.Text, ok = p.expectString(); !ok {
			return nil, false
		}
	default:
		tok := p.cur()
		p.errorf(tok.Pos, "expected comment target, got %s (%q)", tok.Kind, tok.Literal)
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return cm, true
}

func (p *parser) parseAttributeDefs(doc *Document) {
	for p.at(TokenBADef) || p.at(TokenBADefRel) {
		def, ok := p.parseAttributeDef()
		if !ok {
			p.syncRecord()
			continue
		}
		doc.AttributeDefs = append(doc.AttributeDefs, def)
	}
}

func (p *parser) parseAttributeDef() (*AttributeDefinition, bool) {
	rel := p.at(TokenBADefRel)
	pos := p.next().Pos
	def := &AttributeDefinition{Object: AttrGlobal, Pos: pos}
	if rel {
		tok, ok := p.expect(TokenIdent)
		if !ok {
			return nil, false
		}
		switch tok.Literal {
		case "BU_BO_REL_":
			def.Object = AttrRelNodeMessage
		case "BU_SG_REL_":
			def.Object = AttrRelNodeSignal
		case "BU_EV_REL_":
			def.Object = AttrRelNodeEnvVar
		default:
			p.errorf(tok.Pos, "expected relation object type, got %q", tok.Literal)
			return nil, false
		}
	} else {
		switch p.cur().Kind {
		case TokenBU:
			p.next()
			def.Object = AttrNode
		case TokenBO:
			p.next()
			def.Object = AttrMessage
		case TokenSG:
			p.next()
			def.Object = AttrSignal
		case TokenEV:
			p.next()
			def.Object = AttrEnvVar
		}
	}
	var ok bool
	if def.Name, ok = p.expectString(); !ok {
		return nil, false
	}
	if def.Type, ok = p.parseAttrValueType(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return def, true
}

// parseAttrValueType decodes the value-type keyword first, then parses
// exactly the operand shape the keyword implies.
func (p *parser) parseAttrValueType() (AttrValueType, bool) {
	tok, ok := p.expect(TokenIdent)
	if !ok {
		return AttrValueType{}, false
	}
	var t AttrValueType
	switch tok.Literal {
	case "INT", "HEX":
		if tok.Literal == "INT" {
			t.Kind = AttrInt
		} else {
			t.Kind = AttrHex
		}
		if t.IntMin, ok = p.expectInt64(); !ok {
			return AttrValueType{}, false
		}
		if t.IntMax, ok = p.expectInt64(); !ok {
			return AttrValueType{}, false
		}
	case "FLOAT":
		t.Kind = AttrFloat
		if t.FloatMin, ok = p.expectNumber(); !ok {
			return AttrValueType{}, false
		}
		if t.FloatMax, ok = p.expectNumber(); !ok {
			return AttrValueType{}, false
		}
	case "STRING":
		t.Kind = AttrString
	case "ENUM":
		t.Kind = AttrEnum
		if p.at(TokenString) {
			t.Labels = append(t.Labels, p.next().Literal)
			for p.at(TokenComma) {
				p.next()
				label, ok := p.expectString()
				if !ok {
					return AttrValueType{}, false
				}
				t.Labels = append(t.Labels, label)
			}
		}
	default:
		p.errorf(tok.Pos, "unknown attribute value type %q", tok.Literal)
		return AttrValueType{}, false
	}
	return t, true
}

func (p *parser) parseAttributeDefaults(doc *Document) {
	for p.at(TokenBADefDef) || p.at(TokenBADefDefRel) {
		rel := p.at(TokenBADefDefRel)
		pos := p.next().Pos
		name, ok := p.expectString()
		var val AttrValue
		if ok {
			val, ok = p.parseAttrValue()
		}
		if ok {
			_, ok = p.expect(TokenSemicolon)
		}
		if !ok {
			p.syncRecord()
			continue
		}
		doc.AttributeDefaults = append(doc.AttributeDefaults, &AttributeDefault{Name: name, Rel: rel, Value: val, Pos: pos})
	}
}

func (p *parser) parseAttrValue() (AttrValue, bool) {
	tok := p.cur()
	switch tok.Kind {
	case TokenString:
		p.next()
		return AttrValue{Kind: AttrValueString, Str: tok.Literal}, true
	case TokenInteger, TokenFloat:
		num, ok := p.expectNumber()
		if !ok {
			return AttrValue{}, false
		}
		return AttrValue{Kind: AttrValueNumber, Num: num}, true
	default:
		p.errorf(tok.Pos, "expected attribute value, got %s (%q)", tok.Kind, tok.Literal)
		return AttrValue{}, false
	}
}

func (p *parser) parseAttributeValues(doc *Document) {
	for p.at(TokenBA) || p.at(TokenBARel) {
		var av *AttributeValue
		var ok bool
		if p.at(TokenBA) {
			av, ok = p.parseAttributeValue()
		} else {
			av, ok = p.parseAttributeValueRel()
		}
		if !ok {
			p.syncRecord()
			continue
		}
		doc.AttributeValues = append(doc.AttributeValues, av)
	}
}

func (p *parser) parseAttributeValue() (*AttributeValue, bool) {
	pos := p.next().Pos // BA_
	av := &AttributeValue{Object: AttrGlobal, Pos: pos}
	var ok bool
	if av.Name, ok = p.expectString(); !ok {
		return nil, false
	}
	switch p.cur().Kind {
	case TokenBU:
		p.next()
		av.Object = AttrNode
		if av.Node, ok = p.expectIdent(); !ok {
			return nil, false
		}
	case TokenBO:
		p.next()
		av.Object = AttrMessage
		if av.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
	case TokenSG:
		p.next()
		av.Object = AttrSignal
		if av.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
		if av.Signal, ok = p.expectIdent(); !ok {
			return nil, false
		}
	case TokenEV:
		p.next()
		av.Object = AttrEnvVar
		if av.EnvVar, ok = p.expectIdent(); !ok {
			return nil, false
		}
	}
	if av.Value, ok = p.parseAttrValue(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return av, true
}

// parseAttributeValueRel parses BA_REL_, which requires a relation kind and
// an owning node before the same target-plus-value suffix BA_ uses.
func (p *parser) parseAttributeValueRel() (*AttributeValue, bool) {
	pos := p.next().Pos // BA_REL_
	av := &AttributeValue{Pos: pos}
	var ok bool
	if av.Name, ok = p.expectString(); !ok {
		return nil, false
	}
	relTok, ok := p.expect(TokenIdent)
	if !ok {
		return nil, false
	}
	switch relTok.Literal {
	case "BU_BO_REL_":
		av.Object = AttrRelNodeMessage
	case "BU_SG_REL_":
		av.Object = AttrRelNodeSignal
	case "BU_EV_REL_":
		av.Object = AttrRelNodeEnvVar
	default:
		p.errorf(relTok.Pos, "expected relation kind, got %q", relTok.Literal)
		return nil, false
	}
	if av.Node, ok = p.expectIdent(); !ok {
		return nil, false
	}
	switch av.Object {
	case AttrRelNodeMessage:
		if _, ok = p.expect(TokenBO); !ok {
			return nil, false
		}
		if av.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
	case AttrRelNodeSignal:
		if _, ok = p.expect(TokenSG); !ok {
			return nil, false
		}
		if av.MessageID, ok = p.expectUint32(); !ok {
			return nil, false
		}
		if av.Signal, ok = p.expectIdent(); !ok {
			return nil, false
		}
	case AttrRelNodeEnvVar:
		if _, ok = p.expect(TokenEV); !ok {
			return nil, false
		}
		if av.EnvVar, ok = p.expectIdent(); !ok {
			return nil, false
		}
	}
	if av.Value, ok = p.parseAttrValue(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return av, true
}

// parseValueDescriptions handles the VAL_ ordered-choice ambiguity: the
// message-id-then-signal-name form is attempted first, and if the leading
// token is not a valid numeric message id the parser rewinds and takes the
// environment-variable form.
func (p *parser) parseValueDescriptions(doc *Document) {
	for p.at(TokenVal) {
		pos := p.next().Pos // VAL_
		mark := p.pos
		vd, committed, ok := p.tryValueDescSignal(pos)
		if !committed {
			p.pos = mark
			vd, ok = p.parseValueDescEnvVar(pos)
		}
		if !ok {
			p.syncRecord()
			continue
		}
		doc.ValueDescriptions = append(doc.ValueDescriptions, vd)
	}
}

// tryValueDescSignal attempts the signal form. committed is false only when
// the leading token cannot be a message id, in which case no diagnostics are
// emitted and the caller backtracks.
func (p *parser) tryValueDescSignal(pos Position) (vd *ValueDescription, committed, ok bool) {
	tok := p.cur()
	if tok.Kind != TokenInteger {
		return nil, false, false
	}
	if _, err := strconv.ParseUint(tok.Literal, 10, 32); err != nil {
		return nil, false, false
	}
	id, _ := p.expectUint32()
	vd = &ValueDescription{Kind: ValueDescSignal, MessageID: id, Pos: pos}
	if vd.Signal, ok = p.expectIdent(); !ok {
		return nil, true, false
	}
	if vd.Values, ok = p.parseValueLabels(); !ok {
		return nil, true, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, true, false
	}
	return vd, true, true
}

func (p *parser) parseValueDescEnvVar(pos Position) (*ValueDescription, bool) {
	vd := &ValueDescription{Kind: ValueDescEnvVar, Pos: pos}
	var ok bool
	if vd.EnvVar, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if vd.Values, ok = p.parseValueLabels(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return vd, true
}

// parseSignalTypeRefs parses the region where SGTYPE_ references and
// SIG_VALTYPE_ extended value types live; dispatch is purely on the leading
// keyword.
func (p *parser) parseSignalTypeRefs(doc *Document) {
	for p.at(TokenSGType) || p.at(TokenSigValType) {
		if p.at(TokenSGType) {
			ref, ok := p.parseSignalTypeRef()
			if !ok {
				p.syncRecord()
				continue
			}
			doc.SignalTypeRefs = append(doc.SignalTypeRefs, ref)
		} else {
			evt, ok := p.parseExtendedValueType()
			if !ok {
				p.syncRecord()
				continue
			}
			doc.ExtendedValueTypes = append(doc.ExtendedValueTypes, evt)
		}
	}
}

func (p *parser) parseSignalTypeRef() (*SignalTypeRef, bool) {
	pos := p.next().Pos // SGTYPE_
	ref := &SignalTypeRef{Pos: pos}
	var ok bool
	if ref.MessageID, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if ref.Signal, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	if ref.TypeName, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return ref, true
}

func (p *parser) parseExtendedValueType() (*SignalExtendedValueType, bool) {
	pos := p.next().Pos // SIG_VALTYPE_
	evt := &SignalExtendedValueType{Pos: pos}
	var ok bool
	if evt.MessageID, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if evt.Signal, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	typeTok, ok := p.expect(TokenInteger)
	if !ok {
		return nil, false
	}
	switch typeTok.Literal {
	case "0":
		evt.Type = ExtInteger
	case "1":
		evt.Type = ExtFloat32
	case "2":
		evt.Type = ExtFloat64
	case "3":
		evt.Type = ExtReserved
	default:
		p.errorf(typeTok.Pos, "expected extended value type 0-3, got %q", typeTok.Literal)
		return nil, false
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return evt, true
}

func (p *parser) parseSignalGroups(doc *Document) {
	for p.at(TokenSigGroup) {
		sg, ok := p.parseSignalGroup()
		if !ok {
			p.syncRecord()
			continue
		}
		doc.SignalGroups = append(doc.SignalGroups, sg)
	}
}

func (p *parser) parseSignalGroup() (*SignalGroup, bool) {
	pos := p.next().Pos // SIG_GROUP_
	sg := &SignalGroup{Pos: pos}
	var ok bool
	if sg.MessageID, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if sg.Name, ok = p.expectIdent(); !ok {
		return nil, false
	}
	if sg.Repetitions, ok = p.expectUint32(); !ok {
		return nil, false
	}
	if _, ok = p.expect(TokenColon); !ok {
		return nil, false
	}
	for p.at(TokenIdent) {
		sg.Signals = append(sg.Signals, p.next().Literal)
	}
	if _, ok = p.expect(TokenSemicolon); !ok {
		return nil, false
	}
	return sg, true
}
