// Package errors defines the structured error values the parser, DTD
// validator, and XPath compiler raise: a small Code enumeration plus a
// Position (line/column), matching
// spec.md §7's two top-level kinds and their sub-kinds.
package errors

import (
	"fmt"
	"strings"
)

// Code names a specific well-formedness or validity sub-kind from
// spec.md §7.
type Code string

const (
	IllEncoded               Code = "ill-encoded"
	SurrogateSplit           Code = "surrogate-split"
	DisallowedChar           Code = "disallowed-char"
	UnexpectedToken          Code = "unexpected-token"
	UnexpectedEOF            Code = "unexpected-eof"
	BadPubid                 Code = "bad-pubid"
	BadSystemLiteral         Code = "bad-system-literal"
	UndefinedEntity          Code = "undefined-entity"
	UndefinedParameterEntity Code = "undefined-parameter-entity"
	EntityRecursion          Code = "entity-recursion"
	ImproperNesting          Code = "improper-nesting"
	PEContext                Code = "pe-context"
	DuplicateID              Code = "duplicate-id"
	UnresolvedIDRef          Code = "unresolved-idref"
	DuplicateAttribute       Code = "duplicate-attribute"
	UndeclaredAttribute      Code = "undeclared-attribute"
	UnexpectedElement        Code = "unexpected-element"
	AttributeValueMismatch   Code = "attribute-value-mismatch"
	NdataWithoutNotation     Code = "ndata-without-notation"
	StandaloneViolation      Code = "standalone-violation"
	EncodingMismatch         Code = "encoding-mismatch"
)

// Position locates an error within an input stream.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line <= 0 {
		return ""
	}
	if p.Column <= 0 {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// NotWellFormed reports a structural or lexical XML violation. It is
// always fatal and terminates parsing.
type NotWellFormed struct {
	Code     Code
	Message  string
	Position Position
}

func (e *NotWellFormed) Error() string {
	return formatError("not well-formed", e.Code, e.Message, e.Position)
}

// Invalid reports a DTD-validity violation. It is fatal when validation
// is on; otherwise it is delivered to the report_invalid callback as a
// warning and parsing continues.
type Invalid struct {
	Code     Code
	Message  string
	Position Position
}

func (e *Invalid) Error() string {
	return formatError("invalid", e.Code, e.Message, e.Position)
}

func formatError(kind string, code Code, msg string, pos Position) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteString(": ")
	b.WriteString(msg)
	if code != "" {
		fmt.Fprintf(&b, " (%s)", code)
	}
	if s := pos.String(); s != "" {
		b.WriteString(" at ")
		b.WriteString(s)
	}
	return b.String()
}

// NewNotWellFormed builds a NotWellFormed error.
func NewNotWellFormed(code Code, pos Position, format string, args ...any) *NotWellFormed {
	return &NotWellFormed{Code: code, Message: fmt.Sprintf(format, args...), Position: pos}
}

// NewInvalid builds an Invalid error.
func NewInvalid(code Code, pos Position, format string, args ...any) *Invalid {
	return &Invalid{Code: code, Message: fmt.Sprintf(format, args...), Position: pos}
}
