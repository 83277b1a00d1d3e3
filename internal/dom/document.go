// Package dom wraps a parsed HTML document with the handful of browser
// operations page assembly needs: selector lookup, adjacent insertion of
// raw markup, title access and event dispatch.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrTargetNotFound is returned when an insertion selector matches nothing.
var ErrTargetNotFound = errors.New("dom: target not found")

// Position is one of the four insertAdjacentHTML anchors.
type Position string

const (
	BeforeBegin Position = "beforebegin"
	AfterBegin  Position = "afterbegin"
	BeforeEnd   Position = "beforeend"
	AfterEnd    Position = "afterend"
)

// ParsePosition validates a position name.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case BeforeBegin, AfterBegin, BeforeEnd, AfterEnd:
		return p, nil
	case "":
		return BeforeEnd, nil
	default:
		return "", fmt.Errorf("dom: invalid insert position %q", s)
	}
}

// Document is a mutable HTML document. It is not safe for concurrent use.
type Document struct {
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]Handler
	global    map[string][]Handler
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{
		doc:       doc,
		listeners: map[*html.Node]map[string][]Handler{},
		global:    map[string][]Handler{},
	}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find runs a selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// First returns the first node matching selector, or nil.
func (d *Document) First(selector string) *goquery.Selection {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

// Wrap turns a raw node back into a selection bound to this document.
func (d *Document) Wrap(n *html.Node) *goquery.Selection {
	return d.doc.FindNodes(n)
}

// Body returns the body element.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// Insert splices raw markup relative to the first match of selector. The
// markup is trusted and not sanitised. Calling Insert twice inserts twice.
func (d *Document) Insert(selector string, pos Position, markup string) error {
	target := d.First(selector)
	if target == nil {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, selector)
	}
	return InsertAt(target, pos, markup)
}

// InsertAt splices markup relative to an already resolved target.
func InsertAt(target *goquery.Selection, pos Position, markup string) error {
	switch pos {
	case BeforeBegin:
		target.BeforeHtml(markup)
	case AfterBegin:
		target.PrependHtml(markup)
	case BeforeEnd:
		target.AppendHtml(markup)
	case AfterEnd:
		target.AfterHtml(markup)
	default:
		return fmt.Errorf("dom: invalid insert position %q", pos)
	}
	return nil
}

// Title returns the document title text.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// SetTitle replaces the title text, creating the element when missing.
func (d *Document) SetTitle(title string) {
	t := d.doc.Find("head title").First()
	if t.Length() == 0 {
		d.doc.Find("head").First().AppendHtml("<title></title>")
		t = d.doc.Find("head title").First()
	}
	t.SetText(title)
}

// Render writes the serialised document.
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("dom: render: %w", err)
		}
	}
	return nil
}

// String serialises the document, returning an empty string on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// FirstElementChild returns the first element child of n, skipping text and
// comment nodes.
func FirstElementChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// IsElement reports whether n is an element of the given atom.
func IsElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}
