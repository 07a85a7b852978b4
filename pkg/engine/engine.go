// Package engine wires discovery, injection and downloads together for one
// page. Every DOM access happens on the engine's loop; the host reports
// clicks and auxiliary signals through the exported methods.
package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html"

	"threadsdl/pkg/archive"
	"threadsdl/pkg/config"
	"threadsdl/pkg/dom"
	"threadsdl/pkg/download"
	"threadsdl/pkg/extractor"
	"threadsdl/pkg/fetch"
	"threadsdl/pkg/i18n"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/position"
	"threadsdl/pkg/posts"
	"threadsdl/pkg/rtcontext"
	"threadsdl/pkg/scheduler"
	"threadsdl/pkg/settings"
	"threadsdl/pkg/ui"
)

// DefaultResourceBase is where icons resolve when the host gives no resources
const DefaultResourceBase = "threadsdl://assets"

// Options configure an engine. Zero fields select working defaults.
type Options struct {
	Config *config.Config
	Logger logger.Logger
	Clock  clockwork.Clock

	// Store holds user preferences; an in-memory store is used when nil
	Store settings.Store
	// Resources resolves icon URLs and doubles as the liveness probe
	Resources ui.Resources
	// Navigation reports in-page location changes
	Navigation scheduler.NavigationObserver

	// Downloads defaults to a local service built from Config.Download,
	// which the engine then closes on Stop
	Downloads Downloader
	// Archiver defaults to an archive builder over the HTTP fetcher
	Archiver Archiver
}

// Engine runs the discovery pipeline over one document
type Engine struct {
	doc *dom.Document
	cfg *config.Config
	log logger.Logger

	clock      clockwork.Clock
	loop       *scheduler.Loop
	rt         *rtcontext.Context
	dispatcher *scheduler.Dispatcher
	visibility *scheduler.VisibilityTracker
	timing     scheduler.Timing

	extractor *extractor.Extractor
	finder    *position.Finder
	locator   *posts.Locator
	injector  *ui.Injector
	res       ui.Resources

	store     settings.Store
	nav       scheduler.NavigationObserver
	downloads Downloader
	archiver  Archiver
	owned     []io.Closer

	// loop-owned state
	settings  settings.Settings
	processed *dom.Marker
	busy      *dom.Marker
	lastPass  logger.PassStats
	watcher   *scheduler.MutationWatcher
	stopNav   func()
	ticker    *scheduler.Ticker

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
	unsubs  []func()

	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool
}

// New creates an engine for doc. Nothing runs until Start.
func New(doc *dom.Document, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	e := &Engine{
		doc:       doc,
		cfg:       cfg,
		log:       log.WithField("component", "engine"),
		clock:     clock,
		rt:        rtcontext.New(false),
		timing:    scheduler.TimingFromConfig(&cfg.Scheduler),
		store:     opts.Store,
		nav:       opts.Navigation,
		res:       opts.Resources,
		downloads: opts.Downloads,
		archiver:  opts.Archiver,
		processed: dom.NewMarker(),
		busy:      dom.NewMarker(),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	if e.store == nil {
		e.store = settings.NewMemoryStore()
	}
	if e.res == nil {
		e.res = &ui.StaticResources{Base: DefaultResourceBase}
	}
	if e.downloads == nil {
		svc, err := download.NewLocalService(&cfg.Download, nil, log)
		if err != nil {
			return nil, fmt.Errorf("failed to start download service: %w", err)
		}
		e.downloads = svc
		e.owned = append(e.owned, svc)
	}
	if e.archiver == nil {
		fetcher := fetch.New(fetch.OptionsFromConfig(&cfg.Download, log))
		e.archiver = archive.New(fetcher, cfg.Archive.Concurrency, cfg.Archive.CompressionLevel, log)
	}

	e.settings = settings.Defaults()
	e.settings.Language = cfg.I18n.Language
	e.settings.AddPrefix = cfg.Filename.AddPrefix
	e.settings.UseTimestamp = cfg.Filename.UseTimestamp

	e.loop = scheduler.NewLoop(clock, log)
	e.dispatcher = scheduler.NewDispatcher(e.loop, e.rt, e.timing, func(sig scheduler.Signal) { e.pass(sig) }, log)
	e.visibility = scheduler.NewVisibilityTracker(e.dispatcher, cfg.Scheduler.IntersectionThreshold, cfg.Scheduler.IntersectionRootMargin)

	e.extractor = extractor.New(doc, log)
	e.extractor.PosterDepth = cfg.Discovery.PosterDepth
	e.finder = position.New(doc)
	e.finder.MaxDepth = cfg.Discovery.ContainerDepth
	e.finder.GridFallbackDepth = cfg.Discovery.GridFallbackDepth
	e.locator = posts.New(doc, e.extractor, log)
	e.locator.FallbackDepth = cfg.Discovery.PostFallbackDepth
	e.locator.InfoDepth = cfg.Discovery.PostInfoDepth

	e.injector = ui.New(doc, e.res, nil, e.loop, log)
	e.injector.NotificationTimeout = cfg.Scheduler.NotificationTimeout

	return e, nil
}

// Start loads the stored preferences, starts the loop and schedules the
// initial pass. Watchers attach right before that pass.
func (e *Engine) Start(ctx context.Context) error {
	var err error
	e.startOnce.Do(func() {
		err = e.start(ctx)
	})
	return err
}

func (e *Engine) start(ctx context.Context) error {
	values, err := e.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	for k, v := range values {
		e.settings = e.settings.Apply(k, v)
	}
	bundle, err := i18n.New(e.settings.Language, e.cfg.I18n.BrowserLocale)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	e.injector.SetTranslator(bundle)
	e.rt.SetDebug(e.settings.DebugMode)

	e.unsubs = append(e.unsubs,
		logger.FollowDebug(e.rt),
		e.store.Subscribe(func(c settings.Change) {
			e.loop.Post(func() { e.applySetting(c) })
		}),
	)

	e.loop.Start()
	e.running.Store(true)
	e.dispatcher.Start(e.attach)

	logger.LogComponentStart(e.log, "engine", map[string]interface{}{
		"location":        e.doc.Location(),
		"language":        bundle.Locale(),
		"initial_delay":   e.timing.InitialDelay,
		"rescan_interval": e.timing.RescanInterval,
	})
	return nil
}

// attach hooks the page signals to the dispatcher; runs on the loop
func (e *Engine) attach() {
	e.watcher = scheduler.WatchMutations(e.doc, e.dispatcher, ui.IsOwnNode)
	if e.nav != nil {
		e.stopNav = e.nav.OnNavigate(func(string) {
			e.dispatcher.Emit(scheduler.SignalNavigation)
		})
	}
	ticker, err := scheduler.StartTicker(e.dispatcher, e.timing.RescanInterval)
	if err != nil {
		e.log.WithError(err).Warn("Periodic rescan disabled")
	}
	e.ticker = ticker
}

// detach disconnects every page signal; runs on the loop
func (e *Engine) detach() {
	if e.watcher != nil {
		e.watcher.Disconnect()
		e.watcher = nil
	}
	if e.stopNav != nil {
		e.stopNav()
		e.stopNav = nil
	}
	if err := e.ticker.Stop(); err != nil {
		e.log.WithError(err).Debug("Rescan scheduler did not shut down cleanly")
	}
	e.ticker = nil
}

// Stop detaches from the page, cancels and waits for running downloads,
// then stops the loop. The engine cannot be restarted.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		for _, unsub := range e.unsubs {
			unsub()
		}
		if e.running.Load() {
			e.loop.Do(e.detach)
		}
		e.cancel()
		e.pending.Wait()
		e.loop.Stop()
		for _, c := range e.owned {
			if err := c.Close(); err != nil {
				e.log.WithError(err).Warn("Failed to close download service")
			}
		}
		logger.LogComponentStop(e.log, "engine", "stopped")
	})
}

// Wait blocks until every download and archive started so far has reported
// back to the page
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Runtime returns the page-lifetime context
func (e *Engine) Runtime() *rtcontext.Context { return e.rt }

// Dispatcher returns the signal bus, for hosts with their own signal sources
func (e *Engine) Dispatcher() *scheduler.Dispatcher { return e.dispatcher }

// Passes returns how many discovery passes the dispatcher ran
func (e *Engine) Passes() int64 { return e.dispatcher.Passes() }

// Do runs fn on the engine's loop, where the document may be touched. It
// reports false before Start and after Stop, and must not be called from
// the loop.
func (e *Engine) Do(fn func()) bool {
	if !e.running.Load() {
		return false
	}
	return e.loop.Do(fn)
}

// Settings returns the preferences in effect
func (e *Engine) Settings() settings.Settings {
	var s settings.Settings
	if !e.Do(func() { s = e.settings }) {
		return e.settings
	}
	return s
}

// LastPass returns the statistics of the most recent pass
func (e *Engine) LastPass() logger.PassStats {
	var stats logger.PassStats
	e.Do(func() { stats = e.lastPass })
	return stats
}

// Scroll reports that the page scrolled
func (e *Engine) Scroll() { e.dispatcher.Emit(scheduler.SignalScroll) }

// Transition reports that a page transition finished
func (e *Engine) Transition() { e.dispatcher.Emit(scheduler.SignalTransition) }

// Visible reports the visible fraction of n. Posts whose button row had not
// rendered yet are watched, and becoming visible triggers a pass.
func (e *Engine) Visible(n *html.Node, ratio float64) bool {
	return e.visibility.Report(n, ratio)
}

// Hover reports the pointer entering or leaving n, a media container, a
// node inside one or an overlay. The overlays of that container are shown
// while the pointer is inside. It reports whether any overlay was found.
func (e *Engine) Hover(n *html.Node, inside bool) bool {
	var found bool
	e.Do(func() {
		var overlays []*html.Node
		dom.ClimbSelf(n, e.finder.MaxDepth, func(x *html.Node, _ int) bool {
			if dom.HasClass(x, ui.ClassOverlay) {
				overlays = []*html.Node{x}
			} else {
				overlays = ui.OverlaysOf(x)
			}
			return len(overlays) > 0
		})
		for _, o := range overlays {
			e.injector.SetOverlayVisible(o, inside)
		}
		found = len(overlays) > 0
	})
	return found
}

// Rescan requests a pass outside the usual signals
func (e *Engine) Rescan() { e.dispatcher.Emit(scheduler.SignalManual) }

// applySetting reacts to a stored preference change; runs on the loop
func (e *Engine) applySetting(c settings.Change) {
	prev := e.settings
	e.settings = e.settings.Apply(c.Key, c.Value)
	log := e.log.WithFields(map[string]interface{}{"key": c.Key, "value": c.Value})

	switch c.Key {
	case settings.KeyLanguage:
		bundle, err := i18n.New(e.settings.Language, e.cfg.I18n.BrowserLocale)
		if err != nil {
			log.WithError(err).Warn("Failed to switch language")
			return
		}
		e.injector.SetTranslator(bundle)
	case settings.KeyDebugMode:
		e.rt.SetDebug(e.settings.DebugMode)
	case settings.KeyEnablePostButton:
		if e.settings.EnablePostButton && !prev.EnablePostButton {
			e.dispatcher.Emit(scheduler.SignalManual)
		}
	case settings.KeyEnableOverlay:
		if e.settings.EnableOverlay && !prev.EnableOverlay {
			e.dispatcher.Emit(scheduler.SignalManual)
		}
	}
	log.Debug("Setting applied")
}
