package ui

import (
	"strconv"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/models"
)

// Namer produces the download filename of an item
type Namer func(item *models.MediaItem) string

// Tab is one header entry of the menu
type Tab struct {
	Scope  models.Scope
	Label  string
	Count  int
	Active bool
}

// Entry is one downloadable line of the menu
type Entry struct {
	Item  *models.MediaItem
	Label string
}

// MenuModel is everything the menu shows for one post and one active tab
type MenuModel struct {
	Scope   models.Scope
	Tabs    []Tab
	Entries []Entry

	// DownloadAll is set on the all tab when the post has more than one item
	DownloadAll string
	// Empty replaces Entries when the active tab has nothing
	Empty string
	// NoMedia replaces the whole menu when the post has nothing at all
	NoMedia string

	items []*models.MediaItem
}

// Items returns the media covered by the active tab
func (m MenuModel) Items() []*models.MediaItem { return m.items }

// BuildMenu computes the menu for media with scope as the active tab
func BuildMenu(media models.Media, scope models.Scope, name Namer, tr Translator) MenuModel {
	t := func(key string, subs ...string) string {
		if tr == nil {
			return key
		}
		return tr.T(key, subs...)
	}

	if media.Len() == 0 {
		return MenuModel{Scope: scope, NoMedia: t("noMedia")}
	}

	tabs := []struct {
		scope models.Scope
		key   string
		count int
	}{
		{models.ScopeAll, "tabAll", media.Len()},
		{models.ScopeVideo, "tabVideos", len(media.Videos)},
		{models.ScopeImage, "tabImages", len(media.Images)},
	}

	m := MenuModel{Scope: scope}
	for _, tab := range tabs {
		m.Tabs = append(m.Tabs, Tab{
			Scope:  tab.scope,
			Label:  t(tab.key, strconv.Itoa(tab.count)),
			Count:  tab.count,
			Active: tab.scope == scope,
		})
	}

	m.items = media.Items(scope)
	if len(m.items) == 0 {
		if scope == models.ScopeVideo {
			m.Empty = t("noVideos")
		} else {
			m.Empty = t("noImages")
		}
		return m
	}

	if scope == models.ScopeAll && len(m.items) > 1 {
		m.DownloadAll = t("downloadAll", strconv.Itoa(len(m.items)))
	}
	for _, item := range m.items {
		m.Entries = append(m.Entries, Entry{Item: item, Label: name(item)})
	}
	return m
}

// RenderMenu replaces the content of menu with model. Every clickable node is
// registered as a control of post.
func (in *Injector) RenderMenu(menu, post *html.Node, model MenuModel) error {
	for _, c := range dom.Children(menu) {
		in.doc.Remove(c)
	}

	if model.NoMedia != "" {
		empty := in.doc.CreateElement("div", attr("class", ClassMenuNoMedia), attr("style", noMediaStyle))
		empty.AppendChild(in.doc.CreateText(model.NoMedia))
		in.doc.AppendChild(menu, empty)
		return nil
	}

	iconURL, err := in.res.ResourceURL(IconDownloadWhite)
	if err != nil {
		return err
	}

	tabs := in.doc.CreateElement("div", attr("class", ClassMenuTabs), attr("style", tabsStyle))
	for _, tab := range model.Tabs {
		style := tabStyle
		if tab.Active {
			style = activeTabStyle
		}
		node := in.doc.CreateElement("div",
			attr("class", ClassMenuTab),
			attr("data-tab", string(tab.Scope)),
			attr("style", style),
		)
		node.AppendChild(in.doc.CreateText(tab.Label))
		tabs.AppendChild(node)
		in.register(node, &Control{Kind: KindMenuTab, Scope: tab.Scope, post: weakRef(post), menu: weakRef(menu)})
	}

	content := in.doc.CreateElement("div", attr("class", ClassMenuContent), attr("style", contentStyle))
	switch {
	case model.Empty != "":
		empty := in.doc.CreateElement("div", attr("class", ClassMenuEmpty), attr("style", emptyStyle))
		empty.AppendChild(in.doc.CreateText(model.Empty))
		content.AppendChild(empty)
	default:
		if model.DownloadAll != "" {
			all := in.doc.CreateElement("div", attr("class", ClassDownloadAll), attr("style", downloadAllStyle))
			all.AppendChild(in.doc.CreateText(model.DownloadAll))
			content.AppendChild(all)
			in.register(all, &Control{
				Kind:  KindDownloadAll,
				Scope: model.Scope,
				Items: model.items,
				post:  weakRef(post),
				menu:  weakRef(menu),
			})
		}
		for _, e := range model.Entries {
			item := in.doc.CreateElement("div",
				attr("class", ClassMenuItem),
				attr("data-url", e.Item.URL),
				attr("style", itemStyle),
			)
			item.AppendChild(in.thumbnail(e.Item))
			label := in.doc.CreateElement("span", attr("class", ClassItemLabel), attr("style", labelStyle))
			label.AppendChild(in.doc.CreateText(e.Label))
			item.AppendChild(label)
			item.AppendChild(in.doc.CreateElement("img",
				attr("class", ClassItemIcon),
				attr("src", iconURL),
				attr("style", itemIconStyle),
			))
			content.AppendChild(item)
			in.register(item, &Control{
				Kind:     KindMenuItem,
				Item:     e.Item,
				Filename: e.Label,
				post:     weakRef(post),
				menu:     weakRef(menu),
			})
		}
	}

	in.doc.AppendChild(menu, tabs)
	in.doc.AppendChild(menu, content)
	return nil
}

// thumbnail shows the poster or image of item, or a type glyph when the
// extractor found none
func (in *Injector) thumbnail(item *models.MediaItem) *html.Node {
	box := in.doc.CreateElement("div", attr("class", ClassItemThumbnail), attr("style", thumbnailStyle))
	if item.Thumbnail != "" {
		box.AppendChild(in.doc.CreateElement("img",
			attr("src", item.Thumbnail),
			attr("alt", ""),
			attr("style", thumbnailImgStyle),
		))
		return box
	}
	glyph := imageGlyph
	if item.Type == models.MediaTypeVideo {
		glyph = videoGlyph
	}
	span := in.doc.CreateElement("span", attr("style", glyphStyle))
	span.AppendChild(in.doc.CreateText(glyph))
	box.AppendChild(span)
	return box
}

// OpenMenu renders model into menu and shows it, closing every other menu
func (in *Injector) OpenMenu(menu, post *html.Node, model MenuModel) error {
	in.CloseMenus()
	if err := in.RenderMenu(menu, post, model); err != nil {
		return err
	}
	in.doc.SetStyleProperty(menu, "display", "block")
	return nil
}

// CloseMenus hides every open menu
func (in *Injector) CloseMenus() {
	for _, m := range dom.Descendants(in.doc.Root(), class(ClassMenu)) {
		if MenuVisible(m) {
			in.doc.SetStyleProperty(m, "display", "none")
		}
	}
}

// MenuVisible reports whether menu is shown
func MenuVisible(menu *html.Node) bool {
	v, ok := dom.InlineStyle(menu).Get("display")
	return ok && v != "none"
}
