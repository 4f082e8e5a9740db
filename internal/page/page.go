// Package page models a loaded HTML document and the editable fields in it.
package page

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"gitlab.com/tozd/go/errors"
)

// EditableSelector matches every element the replacement engine targets.
// Targets applies it with the input type compared case-insensitively, as
// browsers do for HTML documents.
const EditableSelector = `input[type="text"], input[type="search"], input[type="email"], ` +
	`input[type="url"], input[type="tel"], input[type="password"], input:not([type]), ` +
	`textarea, [contenteditable="true"]`

// candidateSelector is a superset of EditableSelector narrowed by editable.
const candidateSelector = `input, textarea, [contenteditable]`

var textInputTypes = map[string]bool{
	"text": true, "search": true, "email": true, "url": true, "tel": true, "password": true,
}

func editable(_ int, s *goquery.Selection) bool {
	if v, ok := s.Attr("contenteditable"); ok && v == "true" {
		return true
	}
	switch goquery.NodeName(s) {
	case "textarea":
		return true
	case "input":
		typ, ok := s.Attr("type")
		return !ok || textInputTypes[strings.ToLower(typ)]
	}
	return false
}

// EventInput is the type of the synthetic notification fired when a field's
// value is set programmatically.
const EventInput = "input"

// Event is a notification dispatched on a target.
type Event struct {
	Type    string
	Bubbles bool
	Target  *Target
}

// Listener receives dispatched events.
type Listener func(Event)

// Page is one loaded document.
type Page struct {
	URL string

	doc *goquery.Document

	mu        sync.RWMutex
	listeners map[string][]Listener
}

// Parse reads an HTML document.
func Parse(r io.Reader, url string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", url, err)
	}
	return &Page{URL: url, doc: doc, listeners: make(map[string][]Listener)}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(html, url string) (*Page, error) {
	return Parse(strings.NewReader(html), url)
}

// Blank returns an empty document.
func Blank(url string) *Page {
	p, err := ParseString("<html><head></head><body></body></html>", url)
	if err != nil {
		// the blank document always parses
		panic(err)
	}
	return p
}

// Targets runs the editable selector against the current document. The
// result is a live snapshot: indices refer to document order at call time.
func (p *Page) Targets() []*Target {
	sel := p.doc.Find(candidateSelector).FilterFunction(editable)
	targets := make([]*Target, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		targets = append(targets, &Target{Index: i, sel: s, page: p})
	})
	return targets
}

// Remove detaches the elements matching selector. It models host page
// scripts changing the DOM between operations.
func (p *Page) Remove(selector string) int {
	sel := p.doc.Find(selector)
	n := sel.Length()
	sel.Remove()
	return n
}

// AppendHTML parses markup and appends it to the body.
func (p *Page) AppendHTML(markup string) {
	p.doc.Find("body").AppendHtml(markup)
}

// Title returns the trimmed text of the document's <title>.
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	out, err := p.doc.Html()
	if err != nil {
		return "", errors.Errorf("rendering %s: %w", p.URL, err)
	}
	return out, nil
}

// AddEventListener registers l for events of the given type.
func (p *Page) AddEventListener(eventType string, l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[eventType] = append(p.listeners[eventType], l)
}

func (p *Page) dispatch(ev Event) {
	p.mu.RLock()
	ls := append([]Listener(nil), p.listeners[ev.Type]...)
	p.mu.RUnlock()
	for _, l := range ls {
		l(ev)
	}
}
