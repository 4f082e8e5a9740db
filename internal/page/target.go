package page

import (
	"github.com/PuerkitoBio/goquery"
)

// Target is one editable element.
type Target struct {
	// Index is the position in the queried collection.
	Index int

	sel  *goquery.Selection
	page *Page
}

// Tag returns the lower-case element name.
func (t *Target) Tag() string {
	return goquery.NodeName(t.sel)
}

// ID returns the id attribute, if any.
func (t *Target) ID() string {
	return t.sel.AttrOr("id", "")
}

// IsContentEditable reports whether the element carries a contenteditable
// attribute, whatever its value.
func (t *Target) IsContentEditable() bool {
	_, ok := t.sel.Attr("contenteditable")
	return ok
}

// Text returns the inner markup for content-editable elements and the value
// otherwise.
func (t *Target) Text() string {
	if t.IsContentEditable() {
		return t.InnerHTML()
	}
	return t.Value()
}

// Value returns the form value: the text content of a textarea, the value
// attribute of anything else.
func (t *Target) Value() string {
	if t.Tag() == "textarea" {
		return t.sel.Text()
	}
	return t.sel.AttrOr("value", "")
}

// SetValue sets the form value without firing any event.
func (t *Target) SetValue(v string) {
	if t.Tag() == "textarea" {
		t.sel.SetText(v)
		return
	}
	t.sel.SetAttr("value", v)
}

// InnerHTML returns the serialized children.
func (t *Target) InnerHTML() string {
	out, err := t.sel.Html()
	if err != nil {
		return ""
	}
	return out
}

// SetInnerHTML replaces the children with the parsed markup.
func (t *Target) SetInnerHTML(markup string) {
	t.sel.SetHtml(markup)
}

// DispatchEvent fires a bubbling event of the given type on the page.
func (t *Target) DispatchEvent(eventType string) {
	t.page.dispatch(Event{Type: eventType, Bubbles: true, Target: t})
}
