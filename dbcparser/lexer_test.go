package dbcparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTokens(t *testing.T, src string) []Token {
	t.Helper()
	tokens, diags := NewLexer([]byte(src)).ScanAll()
	require.Empty(t, diags)
	return tokens
}

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestLexerPunctuation(t *testing.T) {
	tokens := collectTokens(t, ": , | @ ( ) [ ] ;")
	expected := []TokenKind{
		TokenColon, TokenComma, TokenPipe, TokenAt,
		TokenLParen, TokenRParen, TokenLBracket, TokenRBracket,
		TokenSemicolon, TokenEOF,
	}
	assert.Equal(t, expected, kinds(tokens))
}

func TestLexerKeywords(t *testing.T) {
	tokens := collectTokens(t, "VERSION NS_ BS_ BU_ BO_ SG_ EV_ CM_ BA_DEF_ BA_ VAL_ SIG_GROUP_")
	expected := []TokenKind{
		TokenVersion, TokenNS, TokenBS, TokenBU, TokenBO, TokenSG,
		TokenEV, TokenCM, TokenBADef, TokenBA, TokenVal, TokenSigGroup,
		TokenEOF,
	}
	assert.Equal(t, expected, kinds(tokens))
}

func TestLexerKeywordExactMatch(t *testing.T) {
	// Keyword recognition requires the whole identifier to match; a prefix
	// keeps it an ordinary identifier.
	tokens := collectTokens(t, "BO_TX BU_x VERSIONS")
	require.Len(t, tokens, 4)
	for _, tok := range tokens[:3] {
		assert.Equal(t, TokenIdent, tok.Kind, "token %q", tok.Literal)
	}
}

func TestLexerNumbers(t *testing.T) {
	tokens := collectTokens(t, "0 42 -7 3.5 -0.5 1e3 1.5E-2 +4")
	expected := []struct {
		kind    TokenKind
		literal string
	}{
		{TokenInteger, "0"},
		{TokenInteger, "42"},
		{TokenInteger, "-7"},
		{TokenFloat, "3.5"},
		{TokenFloat, "-0.5"},
		{TokenFloat, "1e3"},
		{TokenFloat, "1.5E-2"},
		{TokenInteger, "+4"},
	}
	require.Len(t, tokens, len(expected)+1)
	for i, want := range expected {
		assert.Equal(t, want.kind, tokens[i].Kind, "token %d", i)
		assert.Equal(t, want.literal, tokens[i].Literal, "token %d", i)
	}
}

func TestLexerSignNotFollowedByDigit(t *testing.T) {
	// In a signal definition the sign after the byte order stands alone.
	tokens := collectTokens(t, "@1+ (")
	expected := []TokenKind{TokenAt, TokenInteger, TokenPlus, TokenLParen, TokenEOF}
	assert.Equal(t, expected, kinds(tokens))
}

func TestLexerSignedNumberAfterByteOrder(t *testing.T) {
	// The '+' binds to the following digit only when one is adjacent.
	tokens := collectTokens(t, "(1,-0.5)")
	expected := []TokenKind{TokenLParen, TokenInteger, TokenComma, TokenFloat, TokenRParen, TokenEOF}
	assert.Equal(t, expected, kinds(tokens))
	assert.Equal(t, "-0.5", tokens[3].Literal)
}

func TestLexerString(t *testing.T) {
	tokens := collectTokens(t, `"deg C"`)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[0].Kind)
	assert.Equal(t, "deg C", tokens[0].Literal)
}

func TestLexerStringNoEscapes(t *testing.T) {
	// DBC strings have no escape sequences: a backslash is literal content.
	tokens := collectTokens(t, `"a\n" x`)
	require.Len(t, tokens, 3)
	assert.Equal(t, `a\n`, tokens[0].Literal)
	assert.Equal(t, TokenIdent, tokens[1].Kind)
}

func TestLexerMultilineString(t *testing.T) {
	tokens := collectTokens(t, "\"line one\nline two\"")
	require.Len(t, tokens, 2)
	assert.Equal(t, "line one\nline two", tokens[0].Literal)
}

func TestLexerUnterminatedString(t *testing.T) {
	_, diags := NewLexer([]byte(`BU_: "oops`)).ScanAll()
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "unterminated")
}

func TestLexerTrailingGarbageAfterNumber(t *testing.T) {
	tokens, diags := NewLexer([]byte("12abc 7")).ScanAll()
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	// Lexing resumes at the next boundary.
	require.NotEmpty(t, tokens)
	assert.Equal(t, TokenInteger, tokens[0].Kind)
	assert.Equal(t, "7", tokens[0].Literal)
}

func TestLexerMalformedFloat(t *testing.T) {
	_, diags := NewLexer([]byte("1.2.3")).ScanAll()
	require.NotEmpty(t, diags)
	assert.Equal(t, Error, diags[0].Severity)
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	tokens, diags := NewLexer([]byte("BU_: # A")).ScanAll()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unexpected character")
	// The surrounding tokens are unaffected.
	expected := []TokenKind{TokenBU, TokenColon, TokenIdent, TokenEOF}
	assert.Equal(t, expected, kinds(tokens))
}

func TestLexerPositions(t *testing.T) {
	tokens := collectTokens(t, "BU_:\nNODE1")
	require.Len(t, tokens, 4)
	assert.Equal(t, 1, tokens[0].Pos.Line)
	assert.Equal(t, 1, tokens[0].Pos.Column)
	assert.Equal(t, 2, tokens[2].Pos.Line)
	assert.Equal(t, 1, tokens[2].Pos.Column)
	assert.Equal(t, "NODE1", tokens[2].Literal)
}

func TestLexerEmptyInput(t *testing.T) {
	tokens := collectTokens(t, "")
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenEOF, tokens[0].Kind)
}
