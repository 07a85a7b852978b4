package engine

import (
	stderrors "errors"
	"strconv"
	"time"

	"golang.org/x/net/html"

	"threadsdl/pkg/archive"
	"threadsdl/pkg/dom"
	"threadsdl/pkg/filename"
	"threadsdl/pkg/models"
	"threadsdl/pkg/ui"
)

// labelResetDelay is how long the download-all entry shows its final state
const labelResetDelay = 2 * time.Second

// Click reports a click on n. It reports whether n belonged to one of the
// engine's controls; any other click closes the open menus.
func (e *Engine) Click(n *html.Node) bool {
	var handled bool
	e.Do(func() { handled = e.click(n) })
	return handled
}

func (e *Engine) click(n *html.Node) bool {
	ctl, ok := e.injector.Control(n)
	if !ok {
		e.injector.CloseMenus()
		return false
	}
	if e.rt.Invalidated() {
		e.injector.Notify(e.injector.T("contextInvalidated"))
		return true
	}

	switch ctl.Kind {
	case ui.KindPostButton:
		e.toggleMenu(ctl)
	case ui.KindMenuTab:
		e.openMenu(ctl.Post(), ctl.Menu(), ctl.Scope)
	case ui.KindMenuItem:
		e.injector.CloseMenus()
		e.download(ctl.Item, ctl.Filename)
	case ui.KindOverlay:
		e.download(ctl.Item, e.overlayFilename(ctl.Item))
	case ui.KindDownloadAll:
		e.downloadAll(n, ctl)
	}
	return true
}

func (e *Engine) toggleMenu(ctl *ui.Control) {
	menu := ctl.Menu()
	if menu == nil {
		return
	}
	if ui.MenuVisible(menu) {
		e.injector.CloseMenus()
		return
	}
	e.openMenu(ctl.Post(), menu, models.ScopeAll)
}

func (e *Engine) openMenu(post, menu *html.Node, scope models.Scope) {
	if post == nil || menu == nil {
		return
	}
	media := e.extractor.ExtractFromPost(post)
	info := e.locator.FindPostInfo(post)
	model := ui.BuildMenu(media, scope, e.namer(info, e.clock.Now()), e.injector)
	if err := e.injector.OpenMenu(menu, post, model); err != nil {
		e.log.WithError(err).Warn("Failed to render download menu")
		e.probe()
	}
}

func (e *Engine) overlayFilename(item *models.MediaItem) string {
	anchor := item.Element()
	if anchor == nil {
		anchor = item.Owner()
	}
	info := e.locator.FindPostInfo(anchor)
	return e.namer(info, e.clock.Now())(item)
}

// download hands one item to the download service. The result comes back
// to the page as a notification.
func (e *Engine) download(item *models.MediaItem, name string) {
	if item == nil {
		return
	}
	url := item.URL
	e.injector.Notify(e.injector.T("downloadStarted", name))

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		// the download service logs the outcome
		if res := e.downloads.Request(e.ctx, url, name); res.Success {
			return
		}
		e.loop.Post(func() {
			e.injector.Notify(e.injector.T("downloadFailed", name))
		})
	}()
}

// downloadAll builds a ZIP of the control's items and saves it. Progress is
// shown on the entry itself, which ignores clicks until the build is over.
func (e *Engine) downloadAll(clicked *html.Node, ctl *ui.Control) {
	node := dom.Closest(clicked, func(n *html.Node) bool { return dom.HasClass(n, ui.ClassDownloadAll) })
	if node == nil || e.busy.Marked(node) || len(ctl.Items) == 0 {
		return
	}
	post := ctl.Post()
	info := e.locator.FindPostInfo(post)
	name := e.namer(info, e.clock.Now())
	entries := make([]archive.Entry, len(ctl.Items))
	for i, item := range ctl.Items {
		entries[i] = archive.Entry{URL: item.URL, Filename: name(item)}
	}
	zipName := filename.GenerateZip(info, e.settings.AddPrefix, ctl.Scope)
	total := strconv.Itoa(len(entries))

	original := dom.Text(node)
	e.busy.Mark(node)
	e.doc.SetText(node, e.injector.T("downloadProgress", "0", total))
	finish := func(label, notice string) {
		e.doc.SetText(node, label)
		e.injector.Notify(notice)
		e.loop.AfterFunc(labelResetDelay, func() {
			e.doc.SetText(node, original)
			e.busy.Unmark(node)
		})
	}

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		log := e.log.WithFields(map[string]interface{}{"filename": zipName, "files": len(entries)})

		res, err := e.archiver.Build(e.ctx, entries, func(done, _ int) {
			e.loop.Post(func() {
				e.doc.SetText(node, e.injector.T("downloadProgress", strconv.Itoa(done), total))
			})
		})
		if err != nil {
			log.WithError(err).Warn("Archive failed")
			e.loop.Post(func() {
				reason := err.Error()
				if stderrors.Is(err, archive.ErrNothingFetched) {
					reason = e.injector.T("allFilesFailed")
				}
				finish(e.injector.T("failed"), e.injector.T("zipFailed", reason))
			})
			return
		}

		e.loop.Post(func() { e.doc.SetText(node, e.injector.T("packaging")) })
		saved := e.downloads.SaveBlob(e.ctx, zipName, res.Data)
		if !saved.Success {
			log.WithField("error", saved.Error).Warn("Failed to save archive")
			e.loop.Post(func() {
				finish(e.injector.T("failed"), e.injector.T("zipFailed", saved.Error))
			})
			return
		}

		log.WithField("failed", len(res.Failed)).Info("Archive saved")
		count := strconv.Itoa(res.Succeeded)
		e.loop.Post(func() {
			finish(e.injector.T("completed", count, total), e.injector.T("zipDownloaded", count, zipName))
		})
	}()
}
