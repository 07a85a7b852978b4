package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/errors"
	"threadsdl/pkg/i18n"
	"threadsdl/pkg/models"
	"threadsdl/pkg/scheduler"
)

const page = `<html><head></head><body>
	<div id="post">
		<video id="v1" src="https://cdn/v1.mp4"></video>
		<div id="media"><img id="i1" src="https://cdn/i1.jpg"></div>
		<div id="actions"><div id="row"><div role="button">share</div></div></div>
	</div>
</body></html>`

func setup(t *testing.T) (*dom.Document, *StaticResources, *Injector) {
	t.Helper()
	doc, err := dom.ParseString(page, "https://www.threads.net/@john/post/ABC")
	require.NoError(t, err)
	tr, err := i18n.Load("en")
	require.NoError(t, err)
	res := &StaticResources{Base: "chrome-extension://abc/"}
	return doc, res, New(doc, res, tr, nil, nil)
}

func byID(doc *dom.Document, id string) *html.Node {
	return dom.First(doc.Root(), func(n *html.Node) bool { return dom.Attr(n, "id") == id })
}

func sampleMedia() models.Media {
	return models.Media{
		Videos: []*models.MediaItem{
			models.NewMediaItem(models.MediaTypeVideo, "https://cdn/v1.mp4", "https://cdn/v1-poster.jpg", nil),
			models.NewMediaItem(models.MediaTypeVideo, "https://cdn/v2.mp4", "", nil),
		},
		Images: []*models.MediaItem{
			models.NewMediaItem(models.MediaTypeImage, "https://cdn/i1.jpg", "https://cdn/i1.jpg", nil),
		},
	}
}

func namer(item *models.MediaItem) string {
	return "threads_" + item.URL[strings.LastIndex(item.URL, "/")+1:]
}

func TestStaticResources(t *testing.T) {
	res := &StaticResources{Base: "chrome-extension://abc/"}
	u, err := res.ResourceURL(IconDownloadBlack)
	require.NoError(t, err)
	assert.Equal(t, "chrome-extension://abc/image/download-black.svg", u)

	res.Invalidate()
	_, err = res.ResourceURL("test")
	assert.True(t, errors.Is(err, errors.ErrorTypeContextInvalidated))
}

func TestCreatePostButton(t *testing.T) {
	doc, _, in := setup(t)
	row, post := byID(doc, "row"), byID(doc, "post")
	require.False(t, HasPostButton(row))

	wrapper, err := in.CreatePostButton(row, post)
	require.NoError(t, err)

	assert.Equal(t, byID(doc, "actions"), wrapper.Parent, "wrapper goes next to the row")
	assert.True(t, HasPostButton(row))

	menu := dom.First(doc.Body(), class(ClassMenu))
	require.NotNil(t, menu)
	assert.Equal(t, doc.Body(), menu.Parent)
	assert.False(t, MenuVisible(menu))

	icon := dom.First(wrapper, dom.ByTag("img"))
	require.NotNil(t, icon)
	assert.Equal(t, "chrome-extension://abc/image/download-black.svg", dom.Attr(icon, "src"))

	ctl, ok := in.Control(icon)
	require.True(t, ok, "clicks on the icon reach the button")
	assert.Equal(t, KindPostButton, ctl.Kind)
	assert.Equal(t, post, ctl.Post())
	assert.Equal(t, menu, ctl.Menu())

	_, ok = in.Control(row)
	assert.False(t, ok)
}

func TestCreatePostButtonFailsWhenInvalidated(t *testing.T) {
	doc, res, in := setup(t)
	res.Invalidate()

	_, err := in.CreatePostButton(byID(doc, "row"), byID(doc, "post"))
	require.Error(t, err)
	assert.False(t, HasPostButton(byID(doc, "row")))
	assert.Nil(t, dom.First(doc.Root(), class(ClassMenu)))
	assert.Zero(t, in.Controls())
}

func TestBuildMenu(t *testing.T) {
	tr, err := i18n.Load("en")
	require.NoError(t, err)
	media := sampleMedia()

	all := BuildMenu(media, models.ScopeAll, namer, tr)
	require.Len(t, all.Tabs, 3)
	assert.Equal(t, "All (3)", all.Tabs[0].Label)
	assert.Equal(t, "Videos (2)", all.Tabs[1].Label)
	assert.Equal(t, "Images (1)", all.Tabs[2].Label)
	assert.True(t, all.Tabs[0].Active)
	assert.Equal(t, "Download all as ZIP (3)", all.DownloadAll)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, "threads_v1.mp4", all.Entries[0].Label)
	assert.Equal(t, "threads_i1.jpg", all.Entries[2].Label)

	images := BuildMenu(media, models.ScopeImage, namer, tr)
	assert.Empty(t, images.DownloadAll, "download all is only offered on the all tab")
	assert.Len(t, images.Entries, 1)
	assert.True(t, images.Tabs[2].Active)

	single := BuildMenu(models.Media{Images: media.Images}, models.ScopeAll, namer, tr)
	assert.Empty(t, single.DownloadAll)

	noVideos := BuildMenu(models.Media{Images: media.Images}, models.ScopeVideo, namer, tr)
	assert.Equal(t, "No videos", noVideos.Empty)
	assert.Empty(t, noVideos.Entries)

	noImages := BuildMenu(models.Media{Videos: media.Videos}, models.ScopeImage, namer, tr)
	assert.Equal(t, "No images", noImages.Empty)

	none := BuildMenu(models.Media{}, models.ScopeAll, namer, tr)
	assert.Equal(t, "No media found in this post", none.NoMedia)
	assert.Empty(t, none.Tabs)
}

func TestOpenMenuRegistersControls(t *testing.T) {
	doc, _, in := setup(t)
	post := byID(doc, "post")
	_, err := in.CreatePostButton(byID(doc, "row"), post)
	require.NoError(t, err)
	menu := dom.First(doc.Body(), class(ClassMenu))

	model := BuildMenu(sampleMedia(), models.ScopeAll, namer, in.tr)
	require.NoError(t, in.OpenMenu(menu, post, model))
	assert.True(t, MenuVisible(menu))

	tabs := dom.Descendants(menu, class(ClassMenuTab))
	require.Len(t, tabs, 3)
	ctl, ok := in.Control(tabs[1])
	require.True(t, ok)
	assert.Equal(t, KindMenuTab, ctl.Kind)
	assert.Equal(t, models.ScopeVideo, ctl.Scope)

	all := dom.First(menu, class(ClassDownloadAll))
	require.NotNil(t, all)
	ctl, ok = in.Control(all)
	require.True(t, ok)
	assert.Equal(t, KindDownloadAll, ctl.Kind)
	assert.Len(t, ctl.Items, 3)

	items := dom.Descendants(menu, class(ClassMenuItem))
	require.Len(t, items, 3)
	label := dom.First(items[0], class(ClassItemLabel))
	ctl, ok = in.Control(label)
	require.True(t, ok)
	assert.Equal(t, KindMenuItem, ctl.Kind)
	assert.Equal(t, "threads_v1.mp4", ctl.Filename)
	assert.Equal(t, "https://cdn/v1.mp4", ctl.Item.URL)
	assert.Equal(t, menu, ctl.Menu())

	// poster for the first video, type icon for the second, the image itself
	thumbs := dom.Descendants(menu, class(ClassItemThumbnail))
	require.Len(t, thumbs, 3)
	img := dom.First(thumbs[0], dom.ByTag("img"))
	require.NotNil(t, img)
	assert.Equal(t, "https://cdn/v1-poster.jpg", dom.Attr(img, "src"))
	assert.Nil(t, dom.First(thumbs[1], dom.ByTag("img")))
	assert.Equal(t, videoGlyph, dom.Text(thumbs[1]))
	img = dom.First(thumbs[2], dom.ByTag("img"))
	require.NotNil(t, img)
	assert.Equal(t, "https://cdn/i1.jpg", dom.Attr(img, "src"))
	ctl, ok = in.Control(img)
	require.True(t, ok)
	assert.Equal(t, KindMenuItem, ctl.Kind)

	// switching tabs re-renders in place
	require.NoError(t, in.RenderMenu(menu, post, BuildMenu(sampleMedia(), models.ScopeVideo, namer, in.tr)))
	assert.Len(t, dom.Descendants(menu, class(ClassMenuItem)), 2)
	assert.Nil(t, dom.First(menu, class(ClassDownloadAll)))

	in.CloseMenus()
	assert.False(t, MenuVisible(menu))
}

func TestRenderMenuEmptyStates(t *testing.T) {
	doc, _, in := setup(t)
	menu := doc.CreateElement("div", attr("class", ClassMenu))
	doc.AppendChild(doc.Body(), menu)

	require.NoError(t, in.RenderMenu(menu, nil, BuildMenu(models.Media{}, models.ScopeAll, namer, in.tr)))
	noMedia := dom.First(menu, class(ClassMenuNoMedia))
	require.NotNil(t, noMedia)
	assert.Equal(t, "No media found in this post", dom.Text(noMedia))
	assert.Nil(t, dom.First(menu, class(ClassMenuTabs)))

	media := models.Media{Images: sampleMedia().Images}
	require.NoError(t, in.RenderMenu(menu, nil, BuildMenu(media, models.ScopeVideo, namer, in.tr)))
	empty := dom.First(menu, class(ClassMenuEmpty))
	require.NotNil(t, empty)
	assert.Equal(t, "No videos", dom.Text(empty))
	assert.Nil(t, dom.First(menu, class(ClassMenuNoMedia)), "previous content is replaced")
}

func TestOverlay(t *testing.T) {
	doc, _, in := setup(t)
	container := byID(doc, "media")
	item := models.NewMediaItem(models.MediaTypeImage, "https://cdn/i1.jpg", "", byID(doc, "i1"))
	item.SetOwner(byID(doc, "post"))

	assert.False(t, HasOverlay(container, item.URL))
	btn, err := in.CreateOverlay(container, item)
	require.NoError(t, err)

	assert.Equal(t, container, btn.Parent)
	assert.True(t, HasOverlay(container, item.URL))
	assert.False(t, HasOverlay(container, "https://cdn/other.jpg"))
	assert.Equal(t, "Download image", dom.Attr(btn, "title"))

	ctl, ok := in.Control(dom.First(btn, dom.ByTag("img")))
	require.True(t, ok)
	assert.Equal(t, KindOverlay, ctl.Kind)
	assert.Equal(t, item, ctl.Item)
	assert.Equal(t, byID(doc, "post"), ctl.Post())

	in.SetOverlayVisible(btn, true)
	v, _ := dom.InlineStyle(btn).Get("opacity")
	assert.Equal(t, "1", v)
}

func TestIsOwnNode(t *testing.T) {
	doc, _, in := setup(t)
	wrapper, err := in.CreatePostButton(byID(doc, "row"), byID(doc, "post"))
	require.NoError(t, err)

	assert.True(t, IsOwnNode(wrapper))
	assert.False(t, IsOwnNode(byID(doc, "post")))
	assert.False(t, IsOwnNode(doc.CreateElement("div", attr("class", "feed threadsish"))))
}

func TestNotifySingleInstanceAndDismiss(t *testing.T) {
	doc, err := dom.ParseString(page, "https://www.threads.net/")
	require.NoError(t, err)
	clock := clockwork.NewFakeClock()
	loop := scheduler.NewLoop(clock, nil)
	loop.Start()
	defer loop.Stop()
	in := New(doc, &StaticResources{}, nil, loop, nil)

	require.True(t, loop.Do(func() {
		in.Notify("first")
		in.Notify("second")
	}))

	require.True(t, loop.Do(func() {
		notes := dom.Descendants(doc.Root(), class(ClassNotification))
		if assert.Len(t, notes, 1) {
			assert.Equal(t, "second", dom.Text(notes[0]))
		}
		assert.Equal(t, 1, dom.Count(doc.Root(), func(n *html.Node) bool {
			_, ok := dom.LookupAttr(n, styleMarker)
			return ok
		}), "style is inserted once")
	}))

	clock.Advance(DefaultNotificationTimeout)
	require.Eventually(t, func() bool {
		var gone bool
		loop.Do(func() { gone = in.Notification() == nil })
		return gone
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Info("posts", "3")
	p.Error("download failed", errors.New(errors.ErrorTypeNetwork, "timeout"))
	p.Success("done")

	assert.Equal(t, "posts: 3\ndownload failed: network error: timeout\ndone\n", buf.String())
}

func TestProgressBar(t *testing.T) {
	p := NewProgress(4)
	p.Succeed()
	p.Fail()
	done, failed, total := p.Counts()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, total)
	assert.Equal(t, "[██████████░░░░░░░░░░] 2/4", p.Bar())

	var buf bytes.Buffer
	p.Update(4, 4)
	p.Print(NewPrinter(&buf))
	assert.Equal(t, "[████████████████████] 4/4\n", buf.String())
}
