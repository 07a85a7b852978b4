// Package ui creates and tracks the controls injected into the host page:
// the per-post download button with its menu, the per-media overlay button
// and the transient page notification.
//
// Injected nodes are plain elements; the host delivers clicks back through
// Injector.Control, which maps any node inside a control to what it does.
package ui

import (
	"strings"
	"sync/atomic"
	"time"
	"weak"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
	"threadsdl/pkg/errors"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/models"
	"threadsdl/pkg/scheduler"
)

// DefaultNotificationTimeout is how long a page notification stays up
const DefaultNotificationTimeout = 3 * time.Second

// controlDepth bounds the climb from a clicked node to its control
const controlDepth = 4

// Resources resolves packaged assets. It fails once the host runtime that
// serves them is gone.
type Resources interface {
	ResourceURL(path string) (string, error)
}

// Translator supplies localized strings
type Translator interface {
	T(key string, subs ...string) string
}

// StaticResources serves assets from a fixed base URL until invalidated
type StaticResources struct {
	Base    string
	invalid atomic.Bool
}

// ResourceURL implements Resources
func (r *StaticResources) ResourceURL(path string) (string, error) {
	if r.invalid.Load() {
		return "", errors.New(errors.ErrorTypeContextInvalidated, "extension context invalidated")
	}
	return strings.TrimRight(r.Base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// Invalidate makes every later lookup fail
func (r *StaticResources) Invalidate() {
	r.invalid.Store(true)
}

// Kind says what a control does when clicked
type Kind string

const (
	KindPostButton  Kind = "post-button"
	KindMenuTab     Kind = "menu-tab"
	KindMenuItem    Kind = "menu-item"
	KindDownloadAll Kind = "download-all"
	KindOverlay     Kind = "overlay"
)

// Control is the click target registered for an injected node. It refers to
// page nodes weakly so the control table never pins a detached feed item.
type Control struct {
	Kind     Kind
	Scope    models.Scope
	Item     *models.MediaItem
	Items    []*models.MediaItem
	Filename string

	post weak.Pointer[html.Node]
	menu weak.Pointer[html.Node]
}

// Post returns the post the control belongs to, or nil
func (c *Control) Post() *html.Node { return c.post.Value() }

// Menu returns the menu a post button or menu entry belongs to, or nil
func (c *Control) Menu() *html.Node { return c.menu.Value() }

func weakRef(n *html.Node) weak.Pointer[html.Node] {
	if n == nil {
		return weak.Pointer[html.Node]{}
	}
	return weak.Make(n)
}

// IsOwnNode matches nodes injected by this package
func IsOwnNode(n *html.Node) bool {
	for _, c := range strings.Fields(dom.Attr(n, "class")) {
		if strings.HasPrefix(c, ClassPrefix) {
			return true
		}
	}
	return false
}

func class(name string) dom.Predicate {
	return func(n *html.Node) bool { return dom.HasClass(n, name) }
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Injector builds controls in one document. It is not safe for concurrent
// use; run it on the page loop.
type Injector struct {
	doc      *dom.Document
	res      Resources
	tr       Translator
	loop     *scheduler.Loop
	log      logger.Logger
	controls *dom.WeakMap[*Control]

	NotificationTimeout time.Duration
}

// New creates an injector. loop schedules notification dismissal and may be
// nil, in which case notifications stay until replaced.
func New(doc *dom.Document, res Resources, tr Translator, loop *scheduler.Loop, log logger.Logger) *Injector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Injector{
		doc:                 doc,
		res:                 res,
		tr:                  tr,
		loop:                loop,
		log:                 log.WithField("component", "ui"),
		controls:            dom.NewWeakMap[*Control](),
		NotificationTimeout: DefaultNotificationTimeout,
	}
}

// SetTranslator swaps the string source, for language changes
func (in *Injector) SetTranslator(tr Translator) {
	in.tr = tr
}

// T translates through the current translator
func (in *Injector) T(key string, subs ...string) string {
	if in.tr == nil {
		return key
	}
	return in.tr.T(key, subs...)
}

// Control returns the control that n belongs to
func (in *Injector) Control(n *html.Node) (*Control, bool) {
	var ctl *Control
	dom.ClimbSelf(n, controlDepth, func(x *html.Node, _ int) bool {
		c, ok := in.controls.Get(x)
		if ok {
			ctl = c
		}
		return ok
	})
	return ctl, ctl != nil
}

// Controls returns the number of live registered controls
func (in *Injector) Controls() int {
	return in.controls.Len()
}

func (in *Injector) register(n *html.Node, ctl *Control) {
	in.controls.Set(n, ctl)
}

// HasPostButton reports whether a download button already sits next to the
// button row
func HasPostButton(btnContainer *html.Node) bool {
	isButton := dom.Or(class(ClassWrapper), class(ClassButton))
	for _, n := range []*html.Node{btnContainer, dom.Parent(btnContainer)} {
		if n != nil && dom.First(n, isButton) != nil {
			return true
		}
	}
	return false
}

// CreatePostButton appends a download button after the button row of post.
// Its menu is attached to body so the post's overflow rules never clip it.
// It fails when the icon cannot be resolved or the row has no parent.
func (in *Injector) CreatePostButton(btnContainer, post *html.Node) (*html.Node, error) {
	iconURL, err := in.res.ResourceURL(IconDownloadBlack)
	if err != nil {
		return nil, err
	}
	parent := dom.Parent(btnContainer)
	if parent == nil {
		return nil, errors.New(errors.ErrorTypeStructuralMiss, "button row is detached")
	}
	body := in.doc.Body()
	if body == nil {
		return nil, errors.New(errors.ErrorTypeStructuralMiss, "document has no body")
	}

	wrapper := in.doc.CreateElement("div", attr("class", ClassWrapper), attr("style", wrapperStyle))
	btn := in.doc.CreateElement("button",
		attr("class", ClassButton),
		attr("title", in.T("downloadVideo")),
		attr("style", buttonStyle),
	)
	btn.AppendChild(in.doc.CreateElement("img",
		attr("src", iconURL),
		attr("alt", "download"),
		attr("style", iconStyle),
	))
	menu := in.doc.CreateElement("div", attr("class", ClassMenu), attr("style", menuStyle))

	wrapper.AppendChild(btn)
	in.doc.AppendChild(parent, wrapper)
	in.doc.AppendChild(body, menu)

	in.register(btn, &Control{Kind: KindPostButton, post: weakRef(post), menu: weakRef(menu)})
	in.log.Debug("Download button attached")
	return wrapper, nil
}

// HasOverlay reports whether container already carries an overlay for url
func HasOverlay(container *html.Node, url string) bool {
	return dom.First(container, func(n *html.Node) bool {
		return dom.HasClass(n, ClassOverlay) && dom.Attr(n, "data-url") == url
	}) != nil
}

// CreateOverlay places a download button in the corner of a media container
func (in *Injector) CreateOverlay(container *html.Node, item *models.MediaItem) (*html.Node, error) {
	iconURL, err := in.res.ResourceURL(IconDownloadWhite)
	if err != nil {
		return nil, err
	}

	title := in.T("downloadImage")
	if item.Type == models.MediaTypeVideo {
		title = in.T("downloadVideo")
	}
	btn := in.doc.CreateElement("button",
		attr("class", ClassOverlay),
		attr("data-url", item.URL),
		attr("title", title),
		attr("style", overlayStyle),
	)
	btn.AppendChild(in.doc.CreateElement("img",
		attr("src", iconURL),
		attr("alt", "download"),
		attr("style", overlayIconStyle),
	))
	in.doc.AppendChild(container, btn)

	in.register(btn, &Control{Kind: KindOverlay, Item: item, post: weakRef(item.Owner())})
	return btn, nil
}

// OverlaysOf returns the overlays placed directly in container
func OverlaysOf(container *html.Node) []*html.Node {
	var out []*html.Node
	for _, c := range dom.Children(container) {
		if dom.HasClass(c, ClassOverlay) {
			out = append(out, c)
		}
	}
	return out
}

// SetOverlayVisible shows or hides an overlay, for hover handling
func (in *Injector) SetOverlayVisible(btn *html.Node, visible bool) {
	if visible {
		in.doc.SetStyleProperty(btn, "opacity", "1")
		in.doc.SetStyleProperty(btn, "pointer-events", "auto")
		return
	}
	in.doc.SetStyleProperty(btn, "opacity", "0")
	in.doc.SetStyleProperty(btn, "pointer-events", "none")
}
