// Package posts finds feed item boundaries in a page.
//
// Posts are anchored on the share action icon, the one structural
// fingerprint every feed item carries. A post nested inside another post
// (a quoted post) owns its own media; the outer post never claims it.
package posts

import (
	"unicode/utf8"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/extractor"
	"threadsdl/pkg/logger"
)

const (
	// SharePathSignature is a fragment of the share icon's path data
	SharePathSignature = "M15.6097 4.09082L6.65039 9.11104"

	DefaultFallbackDepth = 10
	DefaultInfoDepth     = 15

	// maxParentDepth bounds the search for an enclosing post
	maxParentDepth = 64
	// minTextLength is the text a fallback container needs without media
	minTextLength = 50
	// buttonRowDepth bounds the search for a row of action buttons
	buttonRowDepth = 3
	buttonRowSize  = 3
)

// Post is a transient view of one feed item found during a pass
type Post struct {
	Container *html.Node
	// Parent is the enclosing post for a nested post, nil for a root post.
	// It is a lookup only.
	Parent *html.Node
}

// IsRoot reports whether the post is not nested in another post
func (p Post) IsRoot() bool { return p.Parent == nil }

// Locator finds posts and their parts in one document
type Locator struct {
	doc           *dom.Document
	ex            *extractor.Extractor
	log           logger.Logger
	FallbackDepth int
	InfoDepth     int
}

// New creates a locator using ex for media checks
func New(doc *dom.Document, ex *extractor.Extractor, log logger.Logger) *Locator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Locator{
		doc:           doc,
		ex:            ex,
		log:           log.WithField("component", "posts"),
		FallbackDepth: DefaultFallbackDepth,
		InfoDepth:     DefaultInfoDepth,
	}
}

// IsShareAnchor matches an svg drawing the share icon
func IsShareAnchor(n *html.Node) bool {
	return dom.SVGHasPath(n, SharePathSignature)
}

// ShareAnchors returns every share icon below root in document order
func ShareAnchors(root *html.Node) []*html.Node {
	return dom.Descendants(root, IsShareAnchor)
}

// FindAllPosts enumerates the distinct posts of the page, in document order
// of their first share anchor
func (l *Locator) FindAllPosts() []Post {
	var posts []Post
	seen := make(map[*html.Node]bool)

	for _, anchor := range ShareAnchors(l.doc.Root()) {
		container := l.FindPostContainer(anchor)
		if container == nil || seen[container] {
			continue
		}
		seen[container] = true
		posts = append(posts, Post{Container: container, Parent: FindParentPost(container)})
	}
	return posts
}

// hasMediaHint matches the cheap media check used to qualify a fallback
// container: any video or picture, or a CDN image
func hasMediaHint(n *html.Node) bool {
	switch dom.Tag(n) {
	case "video", "picture":
		return true
	case "img":
		return extractor.IsCDNURL(dom.Attr(n, "src"))
	}
	return false
}

// FindPostContainer resolves the post an element belongs to: the closest
// article boundary, else the smallest ancestor holding exactly one share
// anchor plus media or enough text.
func (l *Locator) FindPostContainer(el *html.Node) *html.Node {
	if el == nil {
		return nil
	}
	if article := dom.Closest(el, dom.IsArticle); article != nil {
		return article
	}

	return dom.Climb(el, l.FallbackDepth, func(n *html.Node, _ int) bool {
		if dom.Count(n, IsShareAnchor) != 1 {
			return false
		}
		return dom.First(n, hasMediaHint) != nil || utf8.RuneCountInString(dom.Text(n)) > minTextLength
	})
}

// FindParentPost returns the article boundary enclosing container, or nil
// for a root post. The search stops at body.
func FindParentPost(container *html.Node) *html.Node {
	return dom.Climb(container, maxParentDepth, func(n *html.Node, _ int) bool {
		if dom.Tag(n) == "body" {
			return false
		}
		return dom.IsArticle(n)
	})
}

// NestedPosts returns the post boundaries strictly inside container
func NestedPosts(container *html.Node) []*html.Node {
	return dom.NestedArticles(container)
}

// HasDirectMedia reports whether container itself carries media, ignoring
// anything inside nested posts. A video counts once it has any source; an
// image must pass the CDN and size checks.
func (l *Locator) HasDirectMedia(container *html.Node) bool {
	if container == nil {
		return false
	}
	nested := NestedPosts(container)

	for _, video := range dom.Descendants(container, dom.ByTag("video")) {
		if !dom.InAny(video, nested) && l.ex.VideoSource(video) != "" {
			return true
		}
	}
	for _, picture := range dom.Descendants(container, dom.ByTag("picture")) {
		if !dom.InAny(picture, nested) && l.ex.ExtractImage(picture) != nil {
			return true
		}
	}
	return false
}

// FindButtonContainer returns the row of action buttons next to which the
// download control goes, or nil when the row has not rendered yet
func (l *Locator) FindButtonContainer(container *html.Node) *html.Node {
	if container == nil {
		return nil
	}
	nested := NestedPosts(container)

	for _, svg := range ShareAnchors(container) {
		if dom.InAny(svg, nested) {
			continue
		}
		if row := buttonRow(svg); row != nil {
			return row
		}
	}
	return nil
}

func buttonRow(svg *html.Node) *html.Node {
	isRoleButton := func(n *html.Node) bool {
		return dom.Tag(n) == "div" && dom.Attr(n, "role") == "button"
	}
	if btn := dom.Closest(svg, isRoleButton); btn != nil {
		if p := dom.Parent(btn); p != nil {
			return p
		}
	}
	if btn := dom.Closest(svg, dom.ByTag("button")); btn != nil {
		if p := dom.Parent(btn); p != nil {
			return p
		}
	}
	return dom.Climb(svg, buttonRowDepth, func(n *html.Node, _ int) bool {
		return len(dom.Children(n)) >= buttonRowSize
	})
}
