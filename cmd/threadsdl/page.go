package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"threadsdl/pkg/config"
	"threadsdl/pkg/dom"
	"threadsdl/pkg/engine"
	"threadsdl/pkg/fetch"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/settings"
)

const defaultLocation = "https://www.threads.net/"

// loadPage reads a page snapshot from a file, or fetches it when source is
// an http(s) URL. location is the page URL relative links resolve against;
// a fetched page defaults to its own URL.
func loadPage(ctx context.Context, cfg *config.Config, log logger.Logger, source, location string) (*dom.Document, error) {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := fetch.New(fetch.OptionsFromConfig(&cfg.Download, log))
		client.SetHeader("Accept", "text/html,application/xhtml+xml")
		data, err = client.Fetch(ctx, source)
		if location == "" {
			location = source
		}
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", source, err)
	}
	if location == "" {
		location = defaultLocation
	}

	return dom.Parse(bytes.NewReader(data), location, dom.NewStaticLayout())
}

// openStore opens the settings backend selected by the configuration
func openStore(ctx context.Context, cfg *config.Config) (settings.Store, error) {
	switch strings.ToLower(cfg.Settings.Backend) {
	case "sqlite":
		return settings.OpenSQLite(ctx, cfg.Settings.Path)
	default:
		return settings.NewMemoryStore(), nil
	}
}

// session is an engine running over one loaded page
type session struct {
	page   string
	cfg    *config.Config
	log    logger.Logger
	store  settings.Store
	engine *engine.Engine
}

func openSession(ctx context.Context, source, location string, extra map[string]interface{}) (*session, error) {
	cfg, log, err := loadConfig(extra)
	if err != nil {
		return nil, err
	}
	doc, err := loadPage(ctx, cfg, log, source, location)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(doc, engine.Options{Config: cfg, Logger: log, Store: store})
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		e.Stop()
		store.Close()
		return nil, err
	}
	return &session{page: doc.Location(), cfg: cfg, log: log, store: store, engine: e}, nil
}

// downloadDir is the folder the download service writes to
func (s *session) downloadDir() string {
	return filepath.Join(s.cfg.Download.BaseDirectory, s.cfg.Download.Folder)
}

func (s *session) Close() {
	s.engine.Stop()
	if err := s.store.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to close settings store")
	}
}
