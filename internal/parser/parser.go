// Package parser implements the recursive-descent XML 1.0 parser
// described in spec.md §4.3: it drives internal/scanner's two-mode
// tokenizer over an internal/source.Stack, expanding parameter and
// general entities by pushing replacement-text frames onto the stack,
// tracking namespace scopes (internal/nsscope), validating content
// models against a DTD (internal/dtd), and building an
// internal/domtree.Tree.
package parser

import (
	"io"

	"github.com/hashicorp/go-hclog"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/nsscope"
	"github.com/jacoelho/xmlkit/internal/scanner"
	"github.com/jacoelho/xmlkit/internal/source"
)

// EntityResolver loads the replacement stream for an external entity
// or external DTD subset, given its identifiers and the base
// directory of the referencing source. It returns the new base
// directory external identifiers inside the loaded stream should
// resolve against.
type EntityResolver interface {
	Resolve(publicID, systemID, baseDir string) (r io.Reader, closer io.Closer, newBaseDir string, err error)
}

// Options configures a parse. The zero value is well-formedness-only
// parsing with a 20-level entity expansion limit and no logging.
type Options struct {
	Validating     bool
	PreserveCDATA  bool
	MaxEntityDepth int
	Resolver       EntityResolver
	Logger         hclog.Logger
	ReportInvalid  func(*xmlerrors.Invalid)
	CorrelationID  string
}

func (o Options) maxDepth() int {
	if o.MaxEntityDepth > 0 {
		return o.MaxEntityDepth
	}
	return 20
}

func (o Options) logger() hclog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return hclog.NewNullLogger()
}

// Result is the outcome of a successful parse.
type Result struct {
	Tree       *domtree.Tree
	DTD        *dtd.DTD
	Standalone bool
}

type parser struct {
	src  *source.Stack
	sc   *scanner.Scanner
	dtd  *dtd.DTD
	tree *domtree.Tree
	ns   *nsscope.Stack
	opts Options
	log  hclog.Logger

	ids        map[string]xmlerrors.Position
	idrefs     []idrefUse
	nesting    []int // STag nestingID stack, for the proper-nesting check
	standalone bool

	// externalSubsetUnread is set when the DOCTYPE names an external
	// subset that was never loaded (no EntityResolver configured): an
	// entity this document references might be declared there, so its
	// apparent absence is not conclusively a well-formedness error.
	externalSubsetUnread bool
}

type idrefUse struct {
	value string
	pos   xmlerrors.Position
}

// Parse parses a complete document from src.
func Parse(src *source.Stack, opts Options) (*Result, error) {
	p := &parser{
		src:  src,
		sc:   scanner.New(src),
		dtd:  dtd.New(),
		tree: domtree.New(),
		ns:   nsscope.New(),
		opts: opts,
		log:  opts.logger().With("correlation_id", opts.CorrelationID),
		ids:  map[string]xmlerrors.Position{},
	}
	p.log.Trace("parse starting")
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return &Result{Tree: p.tree, DTD: p.dtd, Standalone: p.standalone}, nil
}

func (p *parser) parseDocument() error {
	if err := p.parseXMLDecl(); err != nil {
		return err
	}
	if err := p.parseMiscSeq(p.tree.Root()); err != nil {
		return err
	}
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if tok.Kind == scanner.KindDocType {
		if err := p.parseDoctype(tok.Pos); err != nil {
			return err
		}
		if err := p.parseMiscSeq(p.tree.Root()); err != nil {
			return err
		}
	} else {
		p.sc.UnreadToken(tok)
	}

	stag, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if stag.Kind != scanner.KindSTag {
		return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, stag.Pos, "expected the root element")
	}
	if err := p.parseElement(p.tree.Root(), stag.Pos); err != nil {
		return err
	}
	if err := p.parseMiscSeq(p.tree.Root()); err != nil {
		return err
	}
	return p.finalChecks()
}

// parseMiscSeq consumes Comment/PI/Space tokens (the Misc* production)
// attaching Comment and PI nodes under parent.
func (p *parser) parseMiscSeq(parent domtree.ID) error {
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case scanner.KindSpace:
			continue
		case scanner.KindComment:
			p.tree.AddComment(parent, tok.Text)
		case scanner.KindPI:
			p.tree.AddPI(parent, tok.Target, tok.Text)
		default:
			p.sc.UnreadToken(tok)
			return nil
		}
	}
}

func (p *parser) finalChecks() error {
	for _, use := range p.idrefs {
		if _, ok := p.ids[use.value]; !ok {
			if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnresolvedIDRef, use.pos, "IDREF %q does not match any ID in the document", use.value)); err != nil {
				return err
			}
		}
	}
	for _, n := range p.dtd.ResolveNotations() {
		if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.NdataWithoutNotation, xmlerrors.Position{}, "notation %q is referenced but never declared", n)); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) reportInvalid(e *xmlerrors.Invalid) error {
	if p.opts.Validating {
		return e
	}
	if p.opts.ReportInvalid != nil {
		p.opts.ReportInvalid(e)
	}
	return nil
}

func wrapf(pos xmlerrors.Position, format string, args ...any) error {
	return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, format, args...)
}
