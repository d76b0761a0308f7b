// Package dev provides live reload support for the serve command.
//
// This package implements:
//   - Recursive file watching with fsnotify, debounced and filtered
//   - A WebSocket endpoint that tells browsers when routes changed
//
// # Usage
//
//	w := dev.NewWatcher(dev.WatcherConfig{Root: "server"})
//	w.OnChange(func(c dev.Change) { ... })
//	go w.Start(ctx)
//
// # Reload Protocol
//
// The browser connects to /_sylph/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "routes", "routes": ["GET /users/:id"]} // Route table changed
//	{"type": "error", "error": "...", "file": "..."} // A module failed
package dev
