// Package scanner implements the two-mode XML tokenizer described in
// spec.md §4.2: a hand-written state machine producing markup tokens
// (prolog/DOCTYPE/tag syntax) and content tokens (element bodies).
package scanner

import xmlerrors "github.com/jacoelho/xmlkit/errors"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	KindEOF Kind = iota
	KindSpace
	KindComment
	KindName
	KindNMToken
	KindString
	KindPI
	KindXMLDecl
	KindSTag
	KindETag
	KindDocType
	KindElementDecl
	KindAttListDecl
	KindEntityDecl
	KindNotationDecl
	KindIncludeIgnore
	KindConditionalEnd
	KindPEReference
	KindPunct
	KindReference
	KindCDSect
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindSpace:
		return "Space"
	case KindComment:
		return "Comment"
	case KindName:
		return "Name"
	case KindNMToken:
		return "NMToken"
	case KindString:
		return "String"
	case KindPI:
		return "PI"
	case KindXMLDecl:
		return "XMLDecl"
	case KindSTag:
		return "STag"
	case KindETag:
		return "ETag"
	case KindDocType:
		return "DocType"
	case KindElementDecl:
		return "ElementDecl"
	case KindAttListDecl:
		return "AttListDecl"
	case KindEntityDecl:
		return "EntityDecl"
	case KindNotationDecl:
		return "NotationDecl"
	case KindIncludeIgnore:
		return "IncludeIgnore"
	case KindConditionalEnd:
		return "ConditionalEnd"
	case KindPEReference:
		return "PEReference"
	case KindPunct:
		return "Punct"
	case KindReference:
		return "Reference"
	case KindCDSect:
		return "CDSect"
	case KindContent:
		return "Content"
	default:
		return "?"
	}
}

// Token is a single lexical atom produced by the scanner.
type Token struct {
	Kind   Kind
	Text   string // name, comment body, PI data, content run, reference name, string value
	Target string // PI target
	Quote  rune   // quote character for KindString
	Rune   rune   // punctuation rune for KindPunct
	Pos    xmlerrors.Position
}
