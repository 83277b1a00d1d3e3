// Package page hosts a document the way a browser tab does: a location,
// a session history, durable key-value storage and a cooperative timer
// loop. Everything runs on the caller's goroutine.
package page

import (
	"net/url"
	"path"
	"strings"

	"codent.ru/codent-web/internal/dom"
)

// Location is the current document address.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation builds a Location from a URL or path-with-query string.
func ParseLocation(raw string) Location {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{Path: "/", Query: url.Values{}}
	}
	return LocationFromURL(u)
}

// LocationFromURL copies the path and query of u.
func LocationFromURL(u *url.URL) Location {
	p := u.Path
	if p == "" {
		p = "/"
	}
	return Location{Path: p, Query: u.Query()}
}

// Param returns a query parameter value.
func (l Location) Param(name string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(name)
}

// String renders the location as path?query.
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Resolve interprets ref relative to the current location.
func (l Location) Resolve(ref string) Location {
	u, err := url.Parse(ref)
	if err != nil {
		return l
	}
	next := Location{Path: l.Path, Query: u.Query()}
	switch {
	case u.Path == "":
	case strings.HasPrefix(u.Path, "/"):
		next.Path = u.Path
	default:
		next.Path = path.Join(path.Dir(l.Path), u.Path)
		if strings.HasSuffix(l.Path, "/") {
			next.Path = path.Join(l.Path, u.Path)
		}
	}
	return next
}

// Window owns one page view.
type Window struct {
	Document *dom.Document
	History  *History
	Storage  Storage
	Timers   *Timers

	// Loads counts full document loads; history navigation never bumps it.
	Loads int
}

// NewWindow wraps a loaded document at the given address.
func NewWindow(doc *dom.Document, loc Location, store Storage) *Window {
	if store == nil {
		store = NewMemoryStorage()
	}
	return &Window{
		Document: doc,
		History:  newHistory(loc),
		Storage:  store,
		Timers:   NewTimers(),
		Loads:    1,
	}
}

// Location reads the current location fresh from history.
func (w *Window) Location() Location {
	return w.History.Current().Location
}
