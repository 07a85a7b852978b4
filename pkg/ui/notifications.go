package ui

import (
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
)

// styleMarker tags the style element shared by all notifications
const styleMarker = "data-threads-download"

// Notify shows message in the corner of the page, replacing any notification
// still on screen. It is removed after NotificationTimeout.
func (in *Injector) Notify(message string) *html.Node {
	body := in.doc.Body()
	if body == nil {
		in.log.Warn("Cannot show notification without a body: " + message)
		return nil
	}

	if old := dom.First(in.doc.Root(), class(ClassNotification)); old != nil {
		in.doc.Remove(old)
	}
	in.ensureNotificationStyle()

	n := in.doc.CreateElement("div", attr("class", ClassNotification), attr("style", notificationStyle))
	n.AppendChild(in.doc.CreateText(message))
	in.doc.AppendChild(body, n)

	if in.loop != nil && in.NotificationTimeout > 0 {
		in.loop.AfterFunc(in.NotificationTimeout, func() {
			in.doc.Remove(n)
		})
	}
	return n
}

// Notification returns the notification on screen, or nil
func (in *Injector) Notification() *html.Node {
	return dom.First(in.doc.Root(), class(ClassNotification))
}

func (in *Injector) ensureNotificationStyle() {
	if dom.First(in.doc.Root(), func(n *html.Node) bool {
		_, ok := dom.LookupAttr(n, styleMarker)
		return ok && dom.Tag(n) == "style"
	}) != nil {
		return
	}
	parent := in.doc.Head()
	if parent == nil {
		parent = in.doc.Body()
	}
	style := in.doc.CreateElement("style", attr(styleMarker, ""))
	style.AppendChild(in.doc.CreateText(notificationKeyframes))
	in.doc.AppendChild(parent, style)
}
