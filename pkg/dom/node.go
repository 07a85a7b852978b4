package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Predicate tests a single element
type Predicate func(n *html.Node) bool

// IsElement reports whether n is an element node
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Tag returns the lower-cased tag name of an element, or "" for other nodes
func Tag(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Attr returns the value of attribute key, or "" when absent
func Attr(n *html.Node, key string) string {
	v, _ := LookupAttr(n, key)
	return v
}

// LookupAttr returns the value of attribute key and whether it is present
func LookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the class attribute contains class
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Parent returns the parent element of n, or nil at the top of the tree
func Parent(n *html.Node) *html.Node {
	if n == nil || !IsElement(n.Parent) {
		return nil
	}
	return n.Parent
}

// Contains reports whether descendant is ancestor itself or lies inside it
func Contains(ancestor, descendant *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for n := descendant; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Children returns the element children of n
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every element below n matching pred, in document order.
// n itself is never included.
func Descendants(n *html.Node, pred Predicate) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		if pred == nil || pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// First returns the first descendant of n matching pred in document order
func First(n *html.Node, pred Predicate) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// Count returns how many descendants of n match pred
func Count(n *html.Node, pred Predicate) int {
	count := 0
	walk(n, func(c *html.Node) bool {
		if pred(c) {
			count++
		}
		return true
	})
	return count
}

// Closest returns n or its nearest ancestor matching pred
func Closest(n *html.Node, pred Predicate) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if IsElement(c) && pred(c) {
			return c
		}
	}
	return nil
}

// walk visits element descendants of n depth-first; visit returns false to stop
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			if !visit(c) {
				return false
			}
		}
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// Text returns the concatenated, whitespace-collapsed text below n
func Text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(x *html.Node) {
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case html.ElementNode:
				switch Tag(c) {
				case "script", "style", "svg":
					continue
				}
				rec(c)
			}
		}
	}
	if n != nil {
		rec(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ByTag matches elements with any of the given tag names
func ByTag(tags ...string) Predicate {
	return func(n *html.Node) bool {
		t := Tag(n)
		for _, want := range tags {
			if t == want {
				return true
			}
		}
		return false
	}
}

// AttrContains matches elements whose attribute key contains substr
func AttrContains(key, substr string) Predicate {
	return func(n *html.Node) bool {
		v, ok := LookupAttr(n, key)
		return ok && strings.Contains(v, substr)
	}
}

// And combines predicates; all must hold
func And(preds ...Predicate) Predicate {
	return func(n *html.Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or combines predicates; any may hold
func Or(preds ...Predicate) Predicate {
	return func(n *html.Node) bool {
		for _, p := range preds {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate
func Not(p Predicate) Predicate {
	return func(n *html.Node) bool { return !p(n) }
}

// SVGHasPath reports whether the svg element draws a path whose data contains snippet
func SVGHasPath(svg *html.Node, snippet string) bool {
	if Tag(svg) != "svg" {
		return false
	}
	return First(svg, func(n *html.Node) bool {
		return Tag(n) == "path" && strings.Contains(Attr(n, "d"), snippet)
	}) != nil
}

// IsArticle matches the generic post boundary: an article element or any
// element with role="article"
func IsArticle(n *html.Node) bool {
	return Tag(n) == "article" || Attr(n, "role") == "article"
}

// NestedArticles returns the article boundaries strictly inside root
func NestedArticles(root *html.Node) []*html.Node {
	return Descendants(root, IsArticle)
}

// InAny reports whether n lies inside any of the given subtrees
func InAny(n *html.Node, roots []*html.Node) bool {
	for _, r := range roots {
		if Contains(r, n) {
			return true
		}
	}
	return false
}
