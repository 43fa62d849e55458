package dbcparser

// TokenKind identifies the type of a lexical token.
type TokenKind int

const (
	TokenEOF        TokenKind = iota
	TokenIdent                // C-style identifier
	TokenString               // "..." with quotes stripped
	TokenInteger              // optionally signed digit run
	TokenFloat                // signed number with fraction and/or exponent
	TokenColon                // :
	TokenComma                // ,
	TokenPipe                 // |
	TokenAt                   // @
	TokenLParen               // (
	TokenRParen               // )
	TokenLBracket             // [
	TokenRBracket             // ]
	TokenSemicolon            // ;
	TokenPlus                 // + (not folded into a numeric literal)
	TokenMinus                // - (not folded into a numeric literal)

	// Section keywords (identifier text checked against keyword map).
	TokenVersion     // VERSION
	TokenNS          // NS_
	TokenBS          // BS_
	TokenBU          // BU_
	TokenValTable    // VAL_TABLE_
	TokenBO          // BO_
	TokenSG          // SG_
	TokenBOTXBU      // BO_TX_BU_
	TokenEV          // EV_
	TokenEnvVarData  // ENVVAR_DATA_
	TokenSGType      // SGTYPE_
	TokenCM          // CM_
	TokenBADef       // BA_DEF_
	TokenBADefRel    // BA_DEF_REL_
	TokenBADefDef    // BA_DEF_DEF_
	TokenBADefDefRel // BA_DEF_DEF_REL_
	TokenBA          // BA_
	TokenBARel       // BA_REL_
	TokenVal         // VAL_
	TokenSigValType  // SIG_VALTYPE_
	TokenSigGroup    // SIG_GROUP_
)

var tokenNames = map[TokenKind]string{
	TokenEOF:         "EOF",
	TokenIdent:       "identifier",
	TokenString:      "string",
	TokenInteger:     "integer",
	TokenFloat:       "float",
	TokenColon:       "':'",
	TokenComma:       "','",
	TokenPipe:        "'|'",
	TokenAt:          "'@'",
	TokenLParen:      "'('",
	TokenRParen:      "')'",
	TokenLBracket:    "'['",
	TokenRBracket:    "']'",
	TokenSemicolon:   "';'",
	TokenPlus:        "'+'",
	TokenMinus:       "'-'",
	TokenVersion:     "'VERSION'",
	TokenNS:          "'NS_'",
	TokenBS:          "'BS_'",
	TokenBU:          "'BU_'",
	TokenValTable:    "'VAL_TABLE_'",
	TokenBO:          "'BO_'",
	TokenSG:          "'SG_'",
	TokenBOTXBU:      "'BO_TX_BU_'",
	TokenEV:          "'EV_'",
	TokenEnvVarData:  "'ENVVAR_DATA_'",
	TokenSGType:      "'SGTYPE_'",
	TokenCM:          "'CM_'",
	TokenBADef:       "'BA_DEF_'",
	TokenBADefRel:    "'BA_DEF_REL_'",
	TokenBADefDef:    "'BA_DEF_DEF_'",
	TokenBADefDefRel: "'BA_DEF_DEF_REL_'",
	TokenBA:          "'BA_'",
	TokenBARel:       "'BA_REL_'",
	TokenVal:         "'VAL_'",
	TokenSigValType:  "'SIG_VALTYPE_'",
	TokenSigGroup:    "'SIG_GROUP_'",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind    TokenKind
	Literal string // text content (decoded for strings, raw for others)
	Pos     Position
}

// keywords maps section keyword strings to their token kinds. Matching is
// exact: BU_foo is an ordinary identifier, BU_ is a keyword.
var keywords = map[string]TokenKind{
	"VERSION":         TokenVersion,
	"NS_":             TokenNS,
	"BS_":             TokenBS,
	"BU_":             TokenBU,
	"VAL_TABLE_":      TokenValTable,
	"BO_":             TokenBO,
	"SG_":             TokenSG,
	"BO_TX_BU_":       TokenBOTXBU,
	"EV_":             TokenEV,
	"ENVVAR_DATA_":    TokenEnvVarData,
	"SGTYPE_":         TokenSGType,
	"CM_":             TokenCM,
	"BA_DEF_":         TokenBADef,
	"BA_DEF_REL_":     TokenBADefRel,
	"BA_DEF_DEF_":     TokenBADefDef,
	"BA_DEF_DEF_REL_": TokenBADefDefRel,
	"BA_":             TokenBA,
	"BA_REL_":         TokenBARel,
	"VAL_":            TokenVal,
	"SIG_VALTYPE_":    TokenSigValType,
	"SIG_GROUP_":      TokenSigGroup,
}

// reservedPrefixes are the keyword spellings that user-chosen names (value
// table and signal type names) may not start with. Node, message, signal and
// environment variable names are not restricted.
var reservedPrefixes = []string{
	"VERSION", "NS_", "BS_", "BU_", "VAL_TABLE_", "BO_", "SG_", "BO_TX_BU_",
	"EV_", "ENVVAR_DATA_", "SGTYPE_", "CM_", "BA_DEF_", "BA_", "VAL_",
	"SIG_VALTYPE_", "SIG_GROUP_",
}

// IsReservedName reports whether name collides with a reserved section
// keyword prefix and is therefore not usable as a value table or signal type
// name.
func IsReservedName(name string) bool {
	for _, prefix := range reservedPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
