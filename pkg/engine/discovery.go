package engine

import (
	"time"

	"threadsdl/pkg/filename"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/models"
	"threadsdl/pkg/posts"
	"threadsdl/pkg/scheduler"
	"threadsdl/pkg/ui"
)

// probePath is resolved to check that the host runtime still answers
const probePath = "probe"

// Scan runs one pass right away, bypassing the dispatcher's coalescing, and
// returns its statistics. It does nothing once the runtime is invalidated.
func (e *Engine) Scan() logger.PassStats {
	var stats logger.PassStats
	e.Do(func() {
		if !e.rt.Invalidated() {
			stats = e.pass(scheduler.SignalManual)
		}
	})
	return stats
}

// pass is the dispatcher handler: post controls first, then overlays
func (e *Engine) pass(sig scheduler.Signal) logger.PassStats {
	start := e.clock.Now()
	found := e.locator.FindAllPosts()
	stats := logger.PassStats{Signal: string(sig), Posts: len(found)}

	if e.settings.EnablePostButton {
		e.postPass(found, &stats)
	}
	if e.settings.EnableOverlay && !e.rt.Invalidated() {
		e.overlayPass(found, &stats)
	}

	stats.Duration = e.clock.Since(start)
	e.lastPass = stats
	logger.LogPass(e.log, stats)
	return stats
}

func (e *Engine) postPass(found []posts.Post, stats *logger.PassStats) {
	for _, p := range found {
		if e.rt.Invalidated() {
			return
		}
		post := p.Container
		if e.processed.Marked(post) {
			continue
		}
		// media may still be loading; the next pass looks again
		if !e.locator.HasDirectMedia(post) {
			stats.Skipped++
			continue
		}
		row := e.locator.FindButtonContainer(post)
		if row == nil {
			e.log.Debug("Button row not rendered yet, skipping post")
			e.visibility.Observe(post)
			stats.Skipped++
			continue
		}
		if ui.HasPostButton(row) {
			e.processed.Mark(post)
			continue
		}

		if _, err := e.injector.CreatePostButton(row, post); err != nil {
			e.processed.Mark(post)
			e.log.WithError(err).Warn("Failed to attach download button")
			e.probe()
			continue
		}
		e.processed.Mark(post)
		stats.ButtonsAdded++
	}
}

func (e *Engine) overlayPass(found []posts.Post, stats *logger.PassStats) {
	for _, p := range found {
		media := e.extractor.ExtractFromPost(p.Container)
		for _, item := range media.Items(models.ScopeAll) {
			if e.rt.Invalidated() {
				return
			}
			container := e.finder.FindMediaContainer(item.Element())
			if container == nil || ui.HasOverlay(container, item.URL) {
				continue
			}
			if _, err := e.injector.CreateOverlay(container, item); err != nil {
				e.log.WithError(err).Warn("Failed to attach overlay button")
				e.probe()
				continue
			}
			stats.OverlaysAdded++
		}
	}
}

// probe checks the host runtime after a failed injection and shuts the
// engine down for this page when it is gone
func (e *Engine) probe() {
	if _, err := e.res.ResourceURL(probePath); err != nil {
		e.invalidate(err.Error())
	}
}

// invalidate stops discovery for good and tells the user once
func (e *Engine) invalidate(reason string) {
	if !e.rt.Invalidate(reason) {
		return
	}
	e.detach()
	e.log.WithField("reason", reason).Warn("Runtime context invalidated, discovery stopped")
	e.injector.Notify(e.injector.T("contextInvalidated"))
}

// Item is one downloadable media file of a discovered post
type Item struct {
	Media    *models.MediaItem
	Filename string
}

// Discovered is a post found on the page together with its media
type Discovered struct {
	Info  *models.PostInfo
	Items []Item
}

// Discover lists every post with direct media and the filename each item
// would be saved under. It does not touch the page.
func (e *Engine) Discover() []Discovered {
	var out []Discovered
	e.Do(func() {
		stamp := e.clock.Now()
		for _, p := range e.locator.FindAllPosts() {
			media := e.extractor.ExtractFromPost(p.Container)
			if media.Len() == 0 {
				continue
			}
			info := e.locator.FindPostInfo(p.Container)
			d := Discovered{Info: info}
			name := e.namer(info, stamp)
			for _, item := range media.Items(models.ScopeAll) {
				d.Items = append(d.Items, Item{Media: item, Filename: name(item)})
			}
			out = append(out, d)
		}
	})
	return out
}

// namer names items of one post with the current preferences
func (e *Engine) namer(info *models.PostInfo, stamp time.Time) ui.Namer {
	s := e.settings
	return func(item *models.MediaItem) string {
		return filename.Generate(filename.Options{
			Type:         item.Type,
			Index:        item.Index,
			Post:         info,
			UseTimestamp: s.UseTimestamp,
			Timestamp:    stamp,
			AddPrefix:    s.AddPrefix,
		})
	}
}
