package dbcparser

import (
	"fmt"
	"strings"
)

// Position tracks a source location for diagnostics.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset into source
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	// Error means the document cannot be trusted by downstream tools.
	Error Severity = iota
	// Warning means the document is usable but something looks off.
	Warning
	// Info is an informational note.
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// EntityRef identifies the document entity a diagnostic is about.
type EntityRef struct {
	Kind      string // "node", "message", "signal", "envvar", "attribute", "value_table", "signal_type"
	Name      string // entity name (signal name for Kind "signal")
	MessageID uint32 // owning message id for Kind "message" and "signal"
}

func (r EntityRef) String() string {
	switch r.Kind {
	case "message":
		return fmt.Sprintf("message %d", r.MessageID)
	case "signal":
		return fmt.Sprintf("signal (%d, %q)", r.MessageID, r.Name)
	default:
		return fmt.Sprintf("%s %q", r.Kind, r.Name)
	}
}

// Diagnostic is a single syntax or validation finding. Syntax diagnostics
// carry a Pos; validation diagnostics carry an Entity.
type Diagnostic struct {
	Rule     string     // rule identifier (e.g. "syntax", "dangling_reference")
	Severity Severity   // ERROR, WARNING, or INFO
	Message  string     // human-readable description
	Pos      Position   // source position (zero for validation diagnostics)
	Entity   *EntityRef // related entity (optional)
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", d.Severity, d.Rule, d.Message)
	if d.Pos.Line > 0 {
		fmt.Fprintf(&b, " (line %d, col %d)", d.Pos.Line, d.Pos.Column)
	}
	if d.Entity != nil {
		fmt.Fprintf(&b, " (%s)", d.Entity)
	}
	return b.String()
}

// HasErrors reports whether any diagnostic in diags has Error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// DiagnosticsError is returned by ParseOrError when error-severity
// diagnostics exist.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	var errs []string
	for _, d := range e.Diagnostics {
		if d.Severity == Error {
			errs = append(errs, d.String())
		}
	}
	return fmt.Sprintf("dbc parse failed with %d error(s):\n  %s", len(errs), strings.Join(errs, "\n  "))
}
