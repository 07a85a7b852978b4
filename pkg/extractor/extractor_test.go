package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/models"
)

func setup(t *testing.T, src string) (*dom.Document, *Extractor, *logger.TestLogger) {
	t.Helper()
	doc, err := dom.ParseString(src, "https://www.threads.net/")
	require.NoError(t, err)
	tl := logger.NewTestLogger()
	return doc, New(doc, tl), tl
}

func byID(doc *dom.Document, id string) *html.Node {
	return dom.First(doc.Root(), func(n *html.Node) bool { return dom.Attr(n, "id") == id })
}

func TestExtractVideo(t *testing.T) {
	doc, ex, tl := setup(t, `<body>
		<video id="own" src="https://video.cdninstagram.com/v/1.mp4" poster="https://scontent.cdninstagram.com/p.jpg"></video>
		<video id="source"><source src="/media/2.mp4"></video>
		<video id="datasrc"><source data-src="https://video.fbcdn.net/3.mp4"></video>
		<video id="blank" src="about:blank"></video>
		<video id="empty"></video>
		<video id="blob" src="blob:https://www.threads.net/1234"></video>
	</body>`)

	item := ex.ExtractVideo(byID(doc, "own"))
	require.NotNil(t, item)
	assert.Equal(t, "https://video.cdninstagram.com/v/1.mp4", item.URL)
	assert.Equal(t, models.MediaTypeVideo, item.Type)
	assert.Equal(t, "https://scontent.cdninstagram.com/p.jpg", item.Thumbnail)
	assert.Equal(t, byID(doc, "own"), item.Element())

	item = ex.ExtractVideo(byID(doc, "source"))
	require.NotNil(t, item)
	assert.Equal(t, "https://www.threads.net/media/2.mp4", item.URL)

	item = ex.ExtractVideo(byID(doc, "datasrc"))
	require.NotNil(t, item)
	assert.Equal(t, "https://video.fbcdn.net/3.mp4", item.URL)

	assert.Nil(t, ex.ExtractVideo(byID(doc, "blank")))
	assert.Nil(t, ex.ExtractVideo(byID(doc, "empty")))

	assert.Nil(t, ex.ExtractVideo(byID(doc, "blob")))
	assert.True(t, tl.HasMessage("blob"), "blob sources are reported on the debug path")
	assert.NotEmpty(t, ex.VideoSource(byID(doc, "blob")))
}

func TestExtractImageSizePolicy(t *testing.T) {
	doc, ex, _ := setup(t, `<body>
		<picture id="small"><img src="https://scontent.cdninstagram.com/s.jpg" width="80" height="80"></picture>
		<picture id="unknown"><img src="https://scontent.cdninstagram.com/u.jpg"></picture>
		<picture id="large"><img src="https://scontent.fbcdn.net/l.jpg" width="1080" height="1350"></picture>
		<picture id="thin"><img src="https://scontent.fbcdn.net/t.jpg" width="1080" height="90"></picture>
		<picture id="offcdn"><img src="https://example.com/avatar.jpg"></picture>
		<picture id="lazy"><img data-src="https://scontent.cdninstagram.com/lazy.jpg"></picture>
		<picture id="lazyrel"><img data-src="//scontent.cdninstagram.com/rel.jpg"></picture>
		<picture id="noimg"></picture>
	</body>`)

	assert.Nil(t, ex.ExtractImage(byID(doc, "small")), "known 80x80 is below the threshold")

	item := ex.ExtractImage(byID(doc, "unknown"))
	require.NotNil(t, item, "unknown natural size is accepted")
	assert.Equal(t, models.MediaTypeImage, item.Type)
	assert.Equal(t, item.URL, item.Thumbnail)

	assert.NotNil(t, ex.ExtractImage(byID(doc, "large")))
	assert.Nil(t, ex.ExtractImage(byID(doc, "thin")))
	assert.Nil(t, ex.ExtractImage(byID(doc, "offcdn")))
	assert.Nil(t, ex.ExtractImage(byID(doc, "noimg")))

	item = ex.ExtractImage(byID(doc, "lazy"))
	require.NotNil(t, item)
	assert.Equal(t, "https://scontent.cdninstagram.com/lazy.jpg", item.URL)

	item = ex.ExtractImage(byID(doc, "lazyrel"))
	require.NotNil(t, item)
	assert.Equal(t, "https://scontent.cdninstagram.com/rel.jpg", item.URL, "lazy sources resolve against the page")
}

func TestExtractPosterTiers(t *testing.T) {
	doc, ex, _ := setup(t, `<body>
		<div id="outer">
			<img src="https://scontent.cdninstagram.com/t51.2885-15/outer.jpg">
			<div id="level2">
				<img src="https://static.example.com/logo.png">
				<img src="https://scontent.cdninstagram.com/plain.webp">
				<img src="https://scontent-a.fbcdn.net/thumb.webp">
				<div><video id="v1" src="https://video.cdninstagram.com/1.mp4"></video></div>
			</div>
		</div>
		<div>
			<img src="https://scontent.cdninstagram.com/first.webp">
			<img src="https://scontent.cdninstagram.com/t51.2885-15/canonical.jpg">
			<video id="v2" src="https://video.cdninstagram.com/2.mp4"></video>
		</div>
		<div><video id="v3" src="https://video.cdninstagram.com/3.mp4"></video></div>
	</body>`)

	// nearest ancestor with a CDN image wins; within it fbcdn.net beats cdninstagram
	assert.Equal(t, "https://scontent-a.fbcdn.net/thumb.webp", ex.ExtractPoster(byID(doc, "v1")))

	// a later canonical thumbnail overrides an earlier plain match
	assert.Equal(t, "https://scontent.cdninstagram.com/t51.2885-15/canonical.jpg", ex.ExtractPoster(byID(doc, "v2")))

	// nothing within the bound
	ex.PosterDepth = 1
	assert.Equal(t, "", ex.ExtractPoster(byID(doc, "v3")))
}

func TestExtractFromPostExcludesNestedPosts(t *testing.T) {
	doc, ex, _ := setup(t, `<body><article id="post">
		<picture><img src="https://scontent.cdninstagram.com/a.jpg"></picture>
		<picture><img src="https://scontent.cdninstagram.com/a.jpg"></picture>
		<picture><img src="https://scontent.cdninstagram.com/b.jpg"></picture>
		<video src="https://video.cdninstagram.com/v.mp4"></video>
		<div role="article">
			<video src="https://video.cdninstagram.com/quoted.mp4"></video>
			<picture><img src="https://scontent.cdninstagram.com/quoted.jpg"></picture>
		</div>
	</article></body>`)
	post := byID(doc, "post")

	media := ex.ExtractFromPost(post)
	require.Len(t, media.Videos, 1)
	require.Len(t, media.Images, 2)

	assert.Equal(t, "https://video.cdninstagram.com/v.mp4", media.Videos[0].URL)
	assert.Equal(t, 1, media.Videos[0].Index)
	assert.Equal(t, "https://scontent.cdninstagram.com/a.jpg", media.Images[0].URL)
	assert.Equal(t, 1, media.Images[0].Index)
	assert.Equal(t, "https://scontent.cdninstagram.com/b.jpg", media.Images[1].URL)
	assert.Equal(t, 2, media.Images[1].Index)

	for _, item := range media.Items(models.ScopeAll) {
		assert.Equal(t, post, item.Owner())
	}
	assert.Equal(t, 3, media.Len())
	assert.Zero(t, ex.ExtractFromPost(nil).Len())
}

func TestIsCDNURL(t *testing.T) {
	assert.True(t, IsCDNURL("https://scontent.cdninstagram.com/x.jpg"))
	assert.True(t, IsCDNURL("https://scontent-lax3-1.xx.fbcdn.net/x.jpg"))
	assert.False(t, IsCDNURL("https://static.threads.net/icon.png"))
}
