// Package api serves engine status over HTTP and streams engine events to
// WebSocket clients.
//
// This package provides:
//   - REST endpoints for health, engine status, module state and runtime metrics
//   - WebSocket hub with per-channel subscriptions
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - Optional TLS
//
// # Architecture
//
// The server never touches the dispatcher. A StatusSource, supplied by the
// module hosting the server, owns a snapshot that the engine thread updates
// and the HTTP goroutines read.
//
//	server, err := api.New(api.Deps{Logger: log, Source: src})
//	server.Start(ctx)
//	defer server.Close()
//
// # WebSocket
//
// Clients connect to /api/v1/ws and send
//
//	{"type":"subscribe","id":"1","payload":{"channels":["engine.status"]}}
//
// Broadcasts reach only clients subscribed to their channel.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
