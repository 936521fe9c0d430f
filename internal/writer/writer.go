// Package writer implements the DOM serializer described in spec.md
// §4.9: a configurable text writer for an internal/domtree.Tree,
// supporting indentation, line wrapping, whitespace trimming, optional
// suppression of comments/DOCTYPE, collapsed empty elements, escaped
// attribute whitespace, and non-UTF-8 output transcoding via
// golang.org/x/text.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
	"github.com/jacoelho/xmlkit/internal/dtd"
)

// Options configures serialization. The zero value writes compact,
// unindented UTF-8 output with comments, the DOCTYPE, and CDATA
// sections preserved.
type Options struct {
	IndentWidth           int
	Wrap                  bool
	Trim                  bool
	NoComment             bool
	NoDoctype             bool
	CollapseEmptyElements bool
	EscapeWhitespace      bool
	WrapProlog            bool

	// Encoding names the output byte encoding: "UTF-8" (default),
	// "UTF-16LE", "UTF-16BE", or "ISO-8859-1". The XML declaration's
	// encoding pseudo-attribute reflects this value.
	Encoding string

	// DoctypeName, if set, is emitted as "<!DOCTYPE Name>" when
	// NoDoctype is false and the document carries DTD declarations.
	DoctypeName string
}

// Write serializes tree to w per opts. dtd may be nil (no DOCTYPE is
// ever emitted in that case, regardless of NoDoctype).
func Write(w io.Writer, tree *domtree.Tree, d *dtd.DTD, opts Options) error {
	enc, label, err := resolveEncoding(opts.Encoding)
	if err != nil {
		return err
	}
	var out io.Writer = w
	var encCloser io.Closer
	if enc != nil {
		ew := enc.NewEncoder().Writer(w)
		out = ew
		if c, ok := ew.(io.Closer); ok {
			encCloser = c
		}
	}
	bw := bufio.NewWriter(out)

	wr := &writer{w: bw, opts: opts, tree: tree}
	wr.writeDecl(label)
	if d != nil && !opts.NoDoctype && opts.DoctypeName != "" {
		fmt.Fprintf(bw, "<!DOCTYPE %s>\n", opts.DoctypeName)
	}
	wr.writeChildren(tree.Root(), 0)
	if err := bw.Flush(); err != nil {
		return err
	}
	if encCloser != nil {
		return encCloser.Close()
	}
	return nil
}

func resolveEncoding(label string) (encoding.Encoding, string, error) {
	switch strings.ToUpper(label) {
	case "", "UTF-8":
		return nil, "UTF-8", nil
	case "UTF-16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "UTF-16LE", nil
	case "UTF-16BE":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "UTF-16BE", nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, "ISO-8859-1", nil
	default:
		return nil, "", xmlerrors.NewNotWellFormed(xmlerrors.EncodingMismatch, xmlerrors.Position{}, "unsupported output encoding %q", label)
	}
}

type writer struct {
	w    *bufio.Writer
	opts Options
	tree *domtree.Tree
}

func (wr *writer) writeDecl(encodingLabel string) {
	if wr.opts.WrapProlog {
		fmt.Fprintf(wr.w, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", encodingLabel)
		return
	}
	fmt.Fprintf(wr.w, "<?xml version=\"1.0\" encoding=\"%s\"?>", encodingLabel)
	if wr.opts.Wrap && wr.tree.Len() > 1 {
		wr.w.WriteByte('\n')
	}
}

func (wr *writer) indent(depth int) {
	if !wr.opts.Wrap || wr.opts.IndentWidth <= 0 {
		return
	}
	for i := 0; i < depth*wr.opts.IndentWidth; i++ {
		wr.w.WriteByte(' ')
	}
}

func (wr *writer) newline() {
	if wr.opts.Wrap {
		wr.w.WriteByte('\n')
	}
}

func (wr *writer) writeChildren(parent domtree.ID, depth int) {
	for _, id := range wr.tree.Children(parent) {
		wr.writeNode(id, depth)
	}
}

func (wr *writer) writeNode(id domtree.ID, depth int) {
	n := wr.tree.Node(id)
	switch n.Kind {
	case domtree.KindElement:
		wr.writeElement(id, depth)
	case domtree.KindText:
		text := n.Text
		if wr.opts.Trim {
			text = normalizeSpace(text)
			if text == "" {
				return
			}
		}
		wr.indent(depth)
		wr.w.WriteString(escapeText(text))
		wr.newline()
	case domtree.KindCDATA:
		wr.indent(depth)
		wr.w.WriteString("<![CDATA[")
		wr.w.WriteString(n.Text)
		wr.w.WriteString("]]>")
		wr.newline()
	case domtree.KindComment:
		if wr.opts.NoComment {
			return
		}
		wr.indent(depth)
		wr.w.WriteString("<!--")
		wr.w.WriteString(n.Text)
		wr.w.WriteString("-->")
		wr.newline()
	case domtree.KindPI:
		wr.indent(depth)
		fmt.Fprintf(wr.w, "<?%s %s?>", n.Target, n.Text)
		wr.newline()
	}
}

func (wr *writer) writeElement(id domtree.ID, depth int) {
	n := wr.tree.Node(id)
	qname := wr.tree.QName(id)

	wr.indent(depth)
	wr.w.WriteByte('<')
	wr.w.WriteString(qname)

	for _, nsID := range n.NSs {
		ns := wr.tree.Node(nsID)
		if ns.Prefix == "" {
			fmt.Fprintf(wr.w, " xmlns=\"%s\"", escapeAttr(ns.Text, wr.opts.EscapeWhitespace))
		} else {
			fmt.Fprintf(wr.w, " xmlns:%s=\"%s\"", ns.Prefix, escapeAttr(ns.Text, wr.opts.EscapeWhitespace))
		}
	}
	for _, attrID := range n.Attrs {
		a := wr.tree.Node(attrID)
		name := a.Name
		if a.Prefix != "" {
			name = a.Prefix + ":" + name
		}
		fmt.Fprintf(wr.w, " %s=\"%s\"", name, escapeAttr(a.Text, wr.opts.EscapeWhitespace))
	}

	children := wr.tree.Children(id)
	if wr.opts.Trim {
		// Whitespace-only text children are dropped by trimming, so an
		// element holding only those is written as empty.
		kept := children[:0:0]
		for _, c := range children {
			cn := wr.tree.Node(c)
			if cn.Kind != domtree.KindText || normalizeSpace(cn.Text) != "" {
				kept = append(kept, c)
			}
		}
		children = kept
	}
	if len(children) == 0 && wr.opts.CollapseEmptyElements {
		wr.w.WriteString("/>")
		wr.newline()
		return
	}
	wr.w.WriteByte('>')
	if len(children) == 0 {
		wr.w.WriteString("</")
		wr.w.WriteString(qname)
		wr.w.WriteByte('>')
		wr.newline()
		return
	}
	wr.newline()
	wr.writeChildren(id, depth+1)
	wr.indent(depth)
	wr.w.WriteString("</")
	wr.w.WriteString(qname)
	wr.w.WriteByte('>')
	wr.newline()
}

func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeAttr(s string, escapeWhitespace bool) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\t':
			if escapeWhitespace {
				b.WriteString("&#9;")
			} else {
				b.WriteRune(r)
			}
		case '\n':
			if escapeWhitespace {
				b.WriteString("&#10;")
			} else {
				b.WriteRune(r)
			}
		case '\r':
			if escapeWhitespace {
				b.WriteString("&#13;")
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
