package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MutationType distinguishes structural changes from attribute changes
type MutationType string

const (
	MutationChildList  MutationType = "childList"
	MutationAttributes MutationType = "attributes"
)

// MutationRecord describes one change applied through a Document
type MutationRecord struct {
	Type          MutationType
	Target        *html.Node
	Added         []*html.Node
	Removed       []*html.Node
	AttributeName string
}

// Observation is a live subscription to a document's mutation stream
type Observation struct {
	doc *Document
	fn  func([]MutationRecord)
}

// Disconnect stops delivery; safe to call more than once
func (o *Observation) Disconnect() {
	if o == nil || o.doc == nil {
		return
	}
	o.doc.removeObserver(o)
	o.doc = nil
}

// Document owns a parsed page tree, its layout source and its location.
// All mutations that observers should see must go through its methods.
type Document struct {
	root     *html.Node
	layout   Layout
	location *url.URL

	mu        sync.Mutex
	observers []*Observation
}

// Parse reads an HTML document. A nil layout selects StaticLayout.
func Parse(r io.Reader, location string, layout Layout) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if layout == nil {
		layout = NewStaticLayout()
	}
	doc := &Document{root: root, layout: layout}
	if err := doc.SetLocation(location); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString is Parse over an in-memory string
func ParseString(s, location string) (*Document, error) {
	return Parse(strings.NewReader(s), location, nil)
}

// Root returns the document node
func (d *Document) Root() *html.Node { return d.root }

// Layout returns the layout source used for size and style queries
func (d *Document) Layout() Layout { return d.layout }

// Body returns the body element, or nil when the tree has none
func (d *Document) Body() *html.Node {
	return First(d.root, ByTag("body"))
}

// Head returns the head element, or nil when the tree has none
func (d *Document) Head() *html.Node {
	return First(d.root, ByTag("head"))
}

// Location returns the page URL as a string
func (d *Document) Location() string {
	if d.location == nil {
		return ""
	}
	return d.location.String()
}

// SetLocation replaces the page URL
func (d *Document) SetLocation(location string) error {
	if location == "" {
		d.location = nil
		return nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("invalid location %q: %w", location, err)
	}
	d.location = u
	return nil
}

// ResolveURL resolves ref against the page location, the way a browser
// resolves href and src properties.
func (d *Document) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || d.location == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.location.ResolveReference(u).String()
}

// Render serializes the tree
func (d *Document) Render() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, d.root)
	return buf.String()
}

// Observe subscribes fn to every mutation applied through this document.
// Records are delivered synchronously, in application order.
func (d *Document) Observe(fn func([]MutationRecord)) *Observation {
	o := &Observation{doc: d, fn: fn}
	d.mu.Lock()
	d.observers = append(d.observers, o)
	d.mu.Unlock()
	return o
}

func (d *Document) removeObserver(o *Observation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, cur := range d.observers {
		if cur == o {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

func (d *Document) notify(records ...MutationRecord) {
	d.mu.Lock()
	observers := make([]*Observation, len(d.observers))
	copy(observers, d.observers)
	d.mu.Unlock()

	for _, o := range observers {
		o.fn(records)
	}
}

// CreateElement builds a detached element
func (d *Document) CreateElement(tag string, attrs ...html.Attribute) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// CreateText builds a detached text node
func (d *Document) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// AppendChild attaches child as the last child of parent, detaching it from
// its previous parent first.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.InsertBefore(parent, child, nil)
}

// InsertBefore attaches child before ref (or last when ref is nil)
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if child.Parent != nil {
		d.RemoveChild(child.Parent, child)
	}
	parent.InsertBefore(child, ref)
	d.notify(MutationRecord{Type: MutationChildList, Target: parent, Added: []*html.Node{child}})
}

// RemoveChild detaches child from parent
func (d *Document) RemoveChild(parent, child *html.Node) {
	if parent == nil || child == nil || child.Parent != parent {
		return
	}
	parent.RemoveChild(child)
	d.notify(MutationRecord{Type: MutationChildList, Target: parent, Removed: []*html.Node{child}})
}

// Remove detaches n from wherever it is
func (d *Document) Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		d.RemoveChild(n.Parent, n)
	}
}

// SetText replaces the children of n with a single text node
func (d *Document) SetText(n *html.Node, text string) {
	var removed []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	t := d.CreateText(text)
	n.AppendChild(t)
	d.notify(MutationRecord{Type: MutationChildList, Target: n, Added: []*html.Node{t}, Removed: removed})
}

// SetAttr sets or replaces an attribute
func (d *Document) SetAttr(n *html.Node, key, val string) {
	if n == nil {
		return
	}
	setAttr(n, key, val)
	d.notify(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: key})
}

// RemoveAttr deletes an attribute if present
func (d *Document) RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.notify(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: key})
			return
		}
	}
}

// SetStyleProperty updates one declaration of the inline style
func (d *Document) SetStyleProperty(n *html.Node, name, value string) {
	st := InlineStyle(n)
	st.Set(name, value)
	d.SetAttr(n, "style", st.String())
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
