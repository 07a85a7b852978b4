// Package logger provides the structured logging interface used across the
// downloader engine.
//
// It wraps zerolog with a small interface so components can take a Logger,
// attach fields, and be tested against TestLogger:
//
//	log := logger.GetLogger().WithField("component", "engine")
//	log.DebugWithFields("Post skipped", map[string]interface{}{
//	    "reason": "no button container",
//	})
//
// The debug-mode setting is honoured at runtime through FollowDebug, which
// lowers the global level while the runtime context has debug enabled.
package logger
