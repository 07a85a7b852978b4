package posts

import (
	"regexp"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/models"
)

var postURLPattern = regexp.MustCompile(`@([^/]+)/post/([^/?#]+)`)

// ParsePostURL extracts the author and post id from a permalink of the form
// https://www.threads.net/@user/post/ID. It returns nil for other URLs.
func ParsePostURL(url string) *models.PostInfo {
	if url == "" {
		return nil
	}
	m := postURLPattern.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	return &models.PostInfo{Username: m[1], PostID: m[2], URL: url}
}

var isPostLink = dom.And(dom.ByTag("a"), dom.AttrContains("href", "/post/"))

// FindPostInfo resolves the identity of the post around el: the first
// permalink found while climbing from el, else the page location itself.
// It returns nil when neither yields an identity.
func (l *Locator) FindPostInfo(el *html.Node) *models.PostInfo {
	var info *models.PostInfo
	dom.ClimbSelf(el, l.InfoDepth, func(n *html.Node, _ int) bool {
		for _, link := range dom.Descendants(n, isPostLink) {
			if info = ParsePostURL(l.doc.ResolveURL(dom.Attr(link, "href"))); info != nil {
				return true
			}
		}
		return false
	})
	if info != nil {
		return info
	}
	return ParsePostURL(l.doc.Location())
}
