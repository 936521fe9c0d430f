package xmlkit

import (
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/jacoelho/xmlkit/internal/parser"
	"github.com/jacoelho/xmlkit/internal/writer"
)

// EntityResolver loads the replacement stream for an external entity or
// external DTD subset, given its public/system identifiers and the
// base directory of the referencing source. It returns the base
// directory external identifiers inside the loaded stream resolve
// against. Returning a nil reader means "unresolved".
type EntityResolver interface {
	Resolve(publicID, systemID, baseDir string) (r io.Reader, closer io.Closer, newBaseDir string, err error)
}

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved(def int) int {
	if !o.set {
		return def
	}
	return o.value
}

// ParseOptions configures Parse/Read, following the teacher's
// immutable functional-options idiom: each With* method returns a
// modified copy, and resolved() fills in defaults at use time.
type ParseOptions struct {
	validating      bool
	foldCDATAToText bool
	maxEntityDepth  intOption
	resolver        EntityResolver
	logger          hclog.Logger
}

// NewParseOptions returns a default, valid ParseOptions value, the
// same value as the zero ParseOptions{}: well-formedness-only parsing,
// CDATA preserved, a 20-level entity expansion limit, no
// external-entity resolution, no logging.
func NewParseOptions() ParseOptions {
	return ParseOptions{}
}

// WithValidating turns DTD-validity checking on. An Invalid violation
// then aborts parsing instead of being delivered as a warning.
func (o ParseOptions) WithValidating(v bool) ParseOptions {
	o.validating = v
	return o
}

// WithPreserveCDATA controls whether CDATA sections are kept as CDATA
// nodes (true, the default) or folded into plain text nodes (false).
func (o ParseOptions) WithPreserveCDATA(v bool) ParseOptions {
	o.foldCDATAToText = !v
	return o
}

// WithMaxEntityDepth bounds nested general/parameter entity expansion.
// 0 uses the default of 20.
func (o ParseOptions) WithMaxEntityDepth(n int) ParseOptions {
	o.maxEntityDepth = intOption{value: n, set: true}
	return o
}

// WithEntityResolver installs the callback used to load external
// entities and the external DTD subset.
func (o ParseOptions) WithEntityResolver(r EntityResolver) ParseOptions {
	o.resolver = r
	return o
}

// WithLogger attaches a structured logger, tagged with a per-call
// correlation id. The parser emits one Trace record when a parse
// starts; data-source pushes/pops and entity expansion are not logged.
func (o ParseOptions) WithLogger(l hclog.Logger) ParseOptions {
	o.logger = l
	return o
}

type resolverAdapter struct{ r EntityResolver }

func (a resolverAdapter) Resolve(publicID, systemID, baseDir string) (io.Reader, io.Closer, string, error) {
	return a.r.Resolve(publicID, systemID, baseDir)
}

func (o ParseOptions) toInternal(correlationID string) parser.Options {
	var resolver parser.EntityResolver
	if o.resolver != nil {
		resolver = resolverAdapter{o.resolver}
	}
	return parser.Options{
		Validating:     o.validating,
		PreserveCDATA:  !o.foldCDATAToText,
		MaxEntityDepth: o.maxEntityDepth.resolved(0),
		Resolver:       resolver,
		Logger:         o.logger,
		CorrelationID:  correlationID,
	}
}

// WriterOptions configures Document.Write, mirroring spec.md §4.9's
// option list.
type WriterOptions struct {
	indentWidth             int
	wrap                    bool
	trim                    bool
	noComment               bool
	noDoctype               bool
	collapseEmptyElements   bool
	escapeWhitespaceInAttrs bool
	wrapProlog              bool
	encoding                string
}

// NewWriterOptions returns a default, valid WriterOptions value:
// compact unindented UTF-8 output, nothing suppressed.
func NewWriterOptions() WriterOptions {
	return WriterOptions{}
}

// WithIndentWidth sets the number of spaces per indentation level. Has
// an effect only when WithWrap(true) is also set.
func (o WriterOptions) WithIndentWidth(n int) WriterOptions {
	o.indentWidth = n
	return o
}

// WithWrap places each child element on its own line.
func (o WriterOptions) WithWrap(v bool) WriterOptions {
	o.wrap = v
	return o
}

// WithTrim collapses #PCDATA whitespace-only text nodes away.
func (o WriterOptions) WithTrim(v bool) WriterOptions {
	o.trim = v
	return o
}

// WithNoComment suppresses comment nodes from the output.
func (o WriterOptions) WithNoComment(v bool) WriterOptions {
	o.noComment = v
	return o
}

// WithNoDoctype suppresses the DOCTYPE declaration from the output.
func (o WriterOptions) WithNoDoctype(v bool) WriterOptions {
	o.noDoctype = v
	return o
}

// WithCollapseEmptyElements writes childless elements as "<tag/>"
// instead of "<tag></tag>".
func (o WriterOptions) WithCollapseEmptyElements(v bool) WriterOptions {
	o.collapseEmptyElements = v
	return o
}

// WithEscapeWhitespaceInAttrs numeric-character-escapes tab/CR/LF
// inside attribute values, preventing whitespace normalization from
// altering them on a future parse.
func (o WriterOptions) WithEscapeWhitespaceInAttrs(v bool) WriterOptions {
	o.escapeWhitespaceInAttrs = v
	return o
}

// WithWrapProlog puts a newline after the XML declaration even when
// WithWrap is false.
func (o WriterOptions) WithWrapProlog(v bool) WriterOptions {
	o.wrapProlog = v
	return o
}

// WithEncoding sets the output byte encoding ("UTF-8", "UTF-16LE",
// "UTF-16BE", "ISO-8859-1"). The XML declaration's encoding
// pseudo-attribute reflects this value.
func (o WriterOptions) WithEncoding(name string) WriterOptions {
	o.encoding = name
	return o
}

func (o WriterOptions) toInternal(doctypeName string) writer.Options {
	return writer.Options{
		IndentWidth:           o.indentWidth,
		Wrap:                  o.wrap,
		Trim:                  o.trim,
		NoComment:             o.noComment,
		NoDoctype:             o.noDoctype,
		CollapseEmptyElements: o.collapseEmptyElements,
		EscapeWhitespace:      o.escapeWhitespaceInAttrs,
		WrapProlog:            o.wrapProlog,
		Encoding:              o.encoding,
		DoctypeName:           doctypeName,
	}
}
