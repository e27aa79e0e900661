// Package logger builds the zap logger shared by the server, the CLI and
// the collection controllers.
//
// Level accepts debug, info, warn and error. Format selects json or the
// colored console encoder, and Output redirects both streams to a file,
// which the terminal browser relies on since it owns stdout.
//
// Handlers log through WithRayID so every entry carries the request's ray
// ID:
//
//	l := logger.WithRayID(log, c)
//	l.Warn("Drag rejected", zap.Error(err))
package logger
