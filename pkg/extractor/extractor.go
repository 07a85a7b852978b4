package extractor

import (
	"strings"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/models"
)

const (
	// DefaultPosterDepth bounds the ancestor search for a video thumbnail
	DefaultPosterDepth = 12
	// MinImageSize is the exclusive lower bound on both natural dimensions
	MinImageSize = 100
)

// cdnMarkers identify genuine platform media hosts
var cdnMarkers = []string{"cdninstagram", "fbcdn"}

// IsCDNURL reports whether url points at a known media CDN
func IsCDNURL(url string) bool {
	for _, m := range cdnMarkers {
		if strings.Contains(url, m) {
			return true
		}
	}
	return false
}

// Extractor turns candidate elements into media items
type Extractor struct {
	doc         *dom.Document
	log         logger.Logger
	PosterDepth int
}

// New creates an extractor reading sizes and URLs through doc
func New(doc *dom.Document, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{
		doc:         doc,
		log:         log.WithField("component", "extractor"),
		PosterDepth: DefaultPosterDepth,
	}
}

// VideoSource returns the raw locator of a video: its own src, else the
// first <source> child. Empty and about:blank locators come back as "".
func (e *Extractor) VideoSource(video *html.Node) string {
	if dom.Tag(video) != "video" {
		return ""
	}
	src := dom.Attr(video, "src")
	if src == "" {
		if source := dom.First(video, dom.ByTag("source")); source != nil {
			src = dom.Attr(source, "src")
			if src == "" {
				src = dom.Attr(source, "data-src")
			}
		}
	}
	src = strings.TrimSpace(src)
	if src == "" || src == "about:blank" {
		return ""
	}
	return e.doc.ResolveURL(src)
}

// ExtractVideo returns the media item for a video element, or nil.
// blob: locators are stream handles rather than fetchable URLs; they are
// reported on the debug log and skipped.
func (e *Extractor) ExtractVideo(video *html.Node) *models.MediaItem {
	src := e.VideoSource(video)
	if src == "" {
		return nil
	}
	if strings.HasPrefix(src, "blob:") {
		e.log.WithField("src", src).Debug("Skipping blob video source")
		return nil
	}
	return models.NewMediaItem(models.MediaTypeVideo, src, e.ExtractPoster(video), video)
}

// ImageElement returns the img behind a candidate: the element itself, or
// the first img inside a picture
func ImageElement(n *html.Node) *html.Node {
	switch dom.Tag(n) {
	case "img":
		return n
	case "picture":
		return dom.First(n, dom.ByTag("img"))
	}
	return nil
}

// ExtractImage returns the media item for an img or picture element, or nil.
// An image whose natural size is not known yet is accepted; it may still be
// loading.
func (e *Extractor) ExtractImage(n *html.Node) *models.MediaItem {
	img := ImageElement(n)
	if img == nil {
		return nil
	}

	url := e.imageURL(img)
	if url == "" || !IsCDNURL(url) {
		return nil
	}

	w, h := e.doc.Layout().NaturalSize(img)
	if w > 0 && (w <= MinImageSize || h <= MinImageSize) {
		return nil
	}

	return models.NewMediaItem(models.MediaTypeImage, url, url, img)
}

func (e *Extractor) imageURL(img *html.Node) string {
	if src := strings.TrimSpace(dom.Attr(img, "src")); src != "" {
		return e.doc.ResolveURL(src)
	}
	return e.doc.ResolveURL(dom.Attr(img, "data-src"))
}

type posterTier int

const (
	tierNone posterTier = iota
	tierInstagramCDN
	tierFacebookCDN
	tierCanonical
)

func classifyPoster(src string) posterTier {
	fb := strings.Contains(src, "fbcdn.net")
	ig := strings.Contains(src, "cdninstagram")
	switch {
	case !fb && !ig:
		return tierNone
	case strings.Contains(src, ".jpg") && strings.Contains(src, "t51.2885"):
		return tierCanonical
	case fb:
		return tierFacebookCDN
	default:
		return tierInstagramCDN
	}
}

// ExtractPoster resolves the thumbnail of a video: its own poster attribute,
// else the best CDN image found in the nearest ancestor that has one.
func (e *Extractor) ExtractPoster(video *html.Node) string {
	if p := strings.TrimSpace(dom.Attr(video, "poster")); p != "" {
		return e.doc.ResolveURL(p)
	}
	if p := strings.TrimSpace(dom.Attr(video, "data-poster")); p != "" {
		return e.doc.ResolveURL(p)
	}

	var poster string
	dom.Climb(video, e.PosterDepth, func(level *html.Node, _ int) bool {
		best := tierNone
		for _, img := range dom.Descendants(level, dom.ByTag("img")) {
			src := e.doc.ResolveURL(dom.Attr(img, "src"))
			if src == "" {
				continue
			}
			tier := classifyPoster(src)
			if tier > best {
				best, poster = tier, src
			}
			if best >= tierFacebookCDN {
				break
			}
		}
		return poster != ""
	})
	return poster
}

// ExtractFromPost collects the media owned directly by post. Media inside
// nested posts is left to those posts. Items are indexed from 1 per type in
// document order and deduplicated by URL.
func (e *Extractor) ExtractFromPost(post *html.Node) models.Media {
	var media models.Media
	if post == nil {
		return media
	}

	nested := dom.NestedArticles(post)
	seen := make(map[string]bool)

	for _, video := range dom.Descendants(post, dom.ByTag("video")) {
		if dom.InAny(video, nested) {
			continue
		}
		item := e.ExtractVideo(video)
		if item == nil || seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		item.Index = len(media.Videos) + 1
		item.SetOwner(post)
		media.Videos = append(media.Videos, item)
	}

	for _, picture := range dom.Descendants(post, dom.ByTag("picture")) {
		if dom.InAny(picture, nested) {
			continue
		}
		item := e.ExtractImage(picture)
		if item == nil || seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		item.Index = len(media.Images) + 1
		item.SetOwner(post)
		media.Images = append(media.Images, item)
	}

	e.log.DebugWithFields("Extracted post media", map[string]interface{}{
		"videos": len(media.Videos),
		"images": len(media.Images),
	})
	return media
}
