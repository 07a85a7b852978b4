package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PassStats summarizes one discovery pass
type PassStats struct {
	Signal        string
	Posts         int
	ButtonsAdded  int
	OverlaysAdded int
	Skipped       int
	Duration      time.Duration
}

// LogPass logs the outcome of a discovery pass at debug level
func LogPass(l Logger, stats PassStats) {
	l.DebugWithFields("Discovery pass finished", map[string]interface{}{
		"signal":   stats.Signal,
		"posts":    stats.Posts,
		"buttons":  stats.ButtonsAdded,
		"overlays": stats.OverlaysAdded,
		"skipped":  stats.Skipped,
		"duration": stats.Duration,
	})
}

// LogDownload logs the result of a download request
func LogDownload(l Logger, filename, id string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"filename": filename,
		"id":       id,
	})
	if err != nil {
		entry.WithError(err).Warn("Download failed")
		return
	}
	entry.Info("Download started")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Debug("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Debug("Component stopped")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
