package models

import (
	"weak"

	"golang.org/x/net/html"
)

// MediaType identifies the kind of media a post carries
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// Extension returns the file extension used when saving this media type.
// The format is inferred from the type, never from the payload.
func (t MediaType) Extension() string {
	if t == MediaTypeVideo {
		return ".mp4"
	}
	return ".jpg"
}

// Scope selects a subset of a post's media (menu tabs, archive names)
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeVideo Scope = "video"
	ScopeImage Scope = "image"
)

// ParseScope converts user input into a Scope, defaulting to ScopeAll
func ParseScope(s string) Scope {
	switch Scope(s) {
	case ScopeVideo, ScopeImage:
		return Scope(s)
	default:
		return ScopeAll
	}
}

// Includes reports whether media of type t belongs to the scope
func (s Scope) Includes(t MediaType) bool {
	switch s {
	case ScopeVideo:
		return t == MediaTypeVideo
	case ScopeImage:
		return t == MediaTypeImage
	default:
		return true
	}
}

// PostInfo is the public identity of a post, parsed from its permalink
type PostInfo struct {
	Username string `json:"username"`
	PostID   string `json:"post_id"`
	URL      string `json:"url"`
}

// Complete reports whether both the username and the post id are known
func (p *PostInfo) Complete() bool {
	return p != nil && p.Username != "" && p.PostID != ""
}

// MediaItem is a transient view of one downloadable media element.
type MediaItem struct {
	URL       string
	Type      MediaType
	Thumbnail string
	Index     int

	element weak.Pointer[html.Node]
	owner   weak.Pointer[html.Node]
}

// NewMediaItem creates an item extracted from el. Items only hold weak
// references to the tree, so they can be kept in long-lived tables.
func NewMediaItem(t MediaType, url, thumbnail string, el *html.Node) *MediaItem {
	item := &MediaItem{URL: url, Type: t, Thumbnail: thumbnail}
	if el != nil {
		item.element = weak.Make(el)
	}
	return item
}

// Element returns the video or img node the item was extracted from, or nil
// once it has been collected
func (m *MediaItem) Element() *html.Node {
	return m.element.Value()
}

// SetOwner records the post container owning this item without keeping it alive
func (m *MediaItem) SetOwner(post *html.Node) {
	if post == nil {
		m.owner = weak.Pointer[html.Node]{}
		return
	}
	m.owner = weak.Make(post)
}

// Owner returns the owning post container, or nil once it has been collected
func (m *MediaItem) Owner() *html.Node {
	return m.owner.Value()
}

// Media groups the items extracted from one post
type Media struct {
	Videos []*MediaItem
	Images []*MediaItem
}

// Len returns the total number of items
func (m Media) Len() int {
	return len(m.Videos) + len(m.Images)
}

// Items returns videos followed by images, filtered by scope
func (m Media) Items(scope Scope) []*MediaItem {
	var out []*MediaItem
	if scope.Includes(MediaTypeVideo) {
		out = append(out, m.Videos...)
	}
	if scope.Includes(MediaTypeImage) {
		out = append(out, m.Images...)
	}
	return out
}
