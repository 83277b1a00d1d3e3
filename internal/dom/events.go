package dom

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Event is a dispatched DOM event.
type Event struct {
	Type   string
	Target *html.Node

	defaultPrevented bool
	stopped          bool
}

// PreventDefault cancels the default action, e.g. following a link.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation keeps the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// Handler reacts to an event.
type Handler func(e *Event)

// On registers h for events of type typ on node n.
func (d *Document) On(n *html.Node, typ string, h Handler) {
	if n == nil || h == nil {
		return
	}
	byType, ok := d.listeners[n]
	if !ok {
		byType = map[string][]Handler{}
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], h)
}

// OnSelection registers h on every node of sel.
func (d *Document) OnSelection(sel *goquery.Selection, typ string, h Handler) {
	if sel == nil {
		return
	}
	for _, n := range sel.Nodes {
		d.On(n, typ, h)
	}
}

// Release drops the listeners of every node in sel and its descendants.
// Call it before detaching a subtree that will not come back.
func (d *Document) Release(sel *goquery.Selection) {
	if sel == nil || len(d.listeners) == 0 {
		return
	}
	for _, n := range sel.Nodes {
		d.release(n)
	}
}

// ReleaseChildren is Release for the children of sel only.
func (d *Document) ReleaseChildren(sel *goquery.Selection) {
	if sel == nil || len(d.listeners) == 0 {
		return
	}
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.release(c)
		}
	}
}

func (d *Document) release(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.release(c)
	}
}

// Listeners counts the nodes that carry at least one listener.
func (d *Document) Listeners() int { return len(d.listeners) }

// OnDocument registers a document-level listener that sees every event
// after it bubbled through the target's ancestors.
func (d *Document) OnDocument(typ string, h Handler) {
	if h == nil {
		return
	}
	d.global[typ] = append(d.global[typ], h)
}

// Dispatch fires an event at target and bubbles it to the document.
func (d *Document) Dispatch(target *html.Node, typ string) *Event {
	e := &Event{Type: typ, Target: target}
	for n := target; n != nil && !e.stopped; n = n.Parent {
		for _, h := range d.listeners[n][typ] {
			h(e)
		}
	}
	if !e.stopped {
		for _, h := range d.global[typ] {
			h(e)
		}
	}
	return e
}

// Click dispatches a click at the first node matching selector.
func (d *Document) Click(selector string) (*Event, error) {
	sel := d.First(selector)
	if sel == nil {
		return nil, ErrTargetNotFound
	}
	return d.Dispatch(sel.Get(0), "click"), nil
}

// Closest returns n or its nearest ancestor matching selector, or nil.
func (d *Document) Closest(n *html.Node, selector string) *html.Node {
	if n == nil {
		return nil
	}
	sel := d.Wrap(n).Closest(selector)
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}
