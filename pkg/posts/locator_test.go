package posts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/extractor"
)

const shareSVG = `<svg viewBox="0 0 24 24"><path d="M15.6097 4.09082L6.65039 9.11104Z"></path></svg>`

func setup(t *testing.T, location, body string) (*dom.Document, *Locator) {
	t.Helper()
	doc, err := dom.ParseString("<html><body>"+body+"</body></html>", location)
	require.NoError(t, err)
	return doc, New(doc, extractor.New(doc, nil), nil)
}

func byID(doc *dom.Document, id string) *html.Node {
	return dom.First(doc.Root(), func(n *html.Node) bool { return dom.Attr(n, "id") == id })
}

func feedPost(id, media string) string {
	return fmt.Sprintf(`<div id="%s">
		<a href="/@john/post/%s-id">3h</a>
		%s
		<div id="%s-row">
			<div role="button"><svg><path d="M1 1"></path></svg></div>
			<div role="button" id="%s-share">%s</div>
		</div>
	</div>`, id, id, media, id, id, shareSVG)
}

func TestFindAllPostsOnePerShareAnchor(t *testing.T) {
	body := `<div id="feed">` +
		feedPost("p1", `<picture><img src="https://scontent.cdninstagram.com/1.jpg"></picture>`) +
		feedPost("p2", `<video src="https://video.cdninstagram.com/2.mp4"></video>`) +
		feedPost("p3", `<img src="https://scontent.fbcdn.net/3.jpg">`) +
		`</div>`
	doc, l := setup(t, "https://www.threads.net/", body)

	assert.Len(t, ShareAnchors(doc.Root()), 3)

	posts := l.FindAllPosts()
	require.Len(t, posts, 3)
	for i, id := range []string{"p1", "p2", "p3"} {
		assert.Equal(t, byID(doc, id), posts[i].Container)
		assert.True(t, posts[i].IsRoot())
	}
}

func TestFindPostContainerTextOnly(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", `<div id="feed">
		<div id="short"><p>hi</p><div role="button" id="s1">`+shareSVG+`</div></div>
		<div id="long"><p>This is a much longer text post that easily clears the fifty character bar.</p>
			<div role="button" id="s2">`+shareSVG+`</div></div>
	</div>`)

	assert.Nil(t, l.FindPostContainer(byID(doc, "s1")), "short text without media is not a post")
	assert.Equal(t, byID(doc, "long"), l.FindPostContainer(byID(doc, "s2")))
	assert.Nil(t, l.FindPostContainer(nil))
}

func TestFindPostContainerPrefersArticle(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", `<div role="article" id="a">
		<div><div><span id="deep">`+shareSVG+`</span></div></div>
	</div>`)

	assert.Equal(t, byID(doc, "a"), l.FindPostContainer(byID(doc, "deep")))
}

func TestNestedPosts(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", `
		<article id="outer">
			<p>Quoting this one</p>
			<article id="inner">
				<video src="https://video.cdninstagram.com/quoted.mp4"></video>
				<div id="inner-row"><div role="button">`+shareSVG+`</div></div>
			</article>
			<div id="outer-row"><div role="button">`+shareSVG+`</div></div>
		</article>`)
	outer, inner := byID(doc, "outer"), byID(doc, "inner")

	posts := l.FindAllPosts()
	require.Len(t, posts, 2)
	byContainer := map[*html.Node]Post{}
	for _, p := range posts {
		byContainer[p.Container] = p
	}
	assert.True(t, byContainer[outer].IsRoot())
	assert.Equal(t, outer, byContainer[inner].Parent)

	assert.Equal(t, []*html.Node{inner}, NestedPosts(outer))
	assert.False(t, l.HasDirectMedia(outer), "media inside a quoted post belongs to the quoted post")
	assert.True(t, l.HasDirectMedia(inner))

	assert.Equal(t, byID(doc, "outer-row"), l.FindButtonContainer(outer))
	assert.Equal(t, byID(doc, "inner-row"), l.FindButtonContainer(inner))
}

func TestHasDirectMedia(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", `
		<article id="blob"><video src="blob:https://www.threads.net/1"></video></article>
		<article id="avatar"><picture><img src="https://scontent.cdninstagram.com/a.jpg" width="40" height="40"></picture></article>
		<article id="photo"><picture><img src="https://scontent.cdninstagram.com/p.jpg" width="1080" height="1080"></picture></article>
		<article id="bare"><img src="https://scontent.cdninstagram.com/p.jpg"></article>`)

	assert.True(t, l.HasDirectMedia(byID(doc, "blob")), "any video source counts")
	assert.False(t, l.HasDirectMedia(byID(doc, "avatar")))
	assert.True(t, l.HasDirectMedia(byID(doc, "photo")))
	assert.False(t, l.HasDirectMedia(byID(doc, "bare")), "only images inside picture elements count")
	assert.False(t, l.HasDirectMedia(nil))
}

func TestFindButtonContainer(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", `
		<article id="a1"><div id="row1"><button>`+shareSVG+`</button></div></article>
		<article id="a2"><div id="row2"><span></span><span></span><span>`+shareSVG+`</span></div></article>
		<article id="a3"><p>not rendered yet</p></article>`)

	assert.Equal(t, byID(doc, "row1"), l.FindButtonContainer(byID(doc, "a1")))
	assert.Equal(t, byID(doc, "row2"), l.FindButtonContainer(byID(doc, "a2")))
	assert.Nil(t, l.FindButtonContainer(byID(doc, "a3")))
}

func TestParsePostURL(t *testing.T) {
	tests := []struct {
		url      string
		username string
		postID   string
	}{
		{"https://www.threads.net/@john/post/ABC123", "john", "ABC123"},
		{"https://www.threads.net/@john.doe/post/C_x-9?igshid=1", "john.doe", "C_x-9"},
		{"https://www.threads.com/@a/post/B#top", "a", "B"},
	}
	for _, tt := range tests {
		info := ParsePostURL(tt.url)
		require.NotNil(t, info, tt.url)
		assert.Equal(t, tt.username, info.Username)
		assert.Equal(t, tt.postID, info.PostID)
		assert.Equal(t, tt.url, info.URL)
	}

	assert.Nil(t, ParsePostURL(""))
	assert.Nil(t, ParsePostURL("https://www.threads.net/@john"))
	assert.Nil(t, ParsePostURL("https://www.threads.net/search"))
}

func TestFindPostInfo(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/", feedPost("p1", `<picture id="pic"><img src="https://scontent.cdninstagram.com/1.jpg"></picture>`))

	info := l.FindPostInfo(byID(doc, "pic"))
	require.NotNil(t, info)
	assert.Equal(t, "john", info.Username)
	assert.Equal(t, "p1-id", info.PostID)
	assert.Equal(t, "https://www.threads.net/@john/post/p1-id", info.URL)
}

func TestFindPostInfoFallsBackToLocation(t *testing.T) {
	doc, l := setup(t, "https://www.threads.net/@jane/post/XYZ?x=1", `<div><img id="img" src="a.jpg"></div>`)

	info := l.FindPostInfo(byID(doc, "img"))
	require.NotNil(t, info)
	assert.Equal(t, "jane", info.Username)
	assert.Equal(t, "XYZ", info.PostID)

	require.NoError(t, doc.SetLocation("https://www.threads.net/"))
	assert.Nil(t, l.FindPostInfo(byID(doc, "img")))
}
