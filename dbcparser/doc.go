// Package dbcparser implements a parser, validator and serializer for the
// CAN database (DBC) text format.
//
// A DBC file declares the nodes, messages, signals, environment variables,
// comments and attributes of a CAN network, in a fixed section order. The
// package is structured as three layers:
//
//   - Lexer: converts raw bytes into a replayable token stream, recovering
//     from bad input at token boundaries.
//   - Parser: consumes tokens section by section in the fixed DBC order and
//     builds an ordered Document, recovering from malformed records at the
//     next record boundary.
//   - Validator: indexes the Document and checks cross-references,
//     multiplexing and attribute typing, reporting every finding as a
//     Diagnostic.
//
// Usage:
//
//	doc, diags := dbcparser.Parse(src)
//	for _, d := range diags {
//	    fmt.Println(d)
//	}
//	fmt.Println(doc.Version, len(doc.Messages))
//
// Serialize renders a Document back to DBC text in canonical form; parsing
// that text yields an equivalent Document.
package dbcparser
