// Package server exposes an attribute registry over WebSocket.
//
// Clients connect to /ws and exchange JSON messages defined by the protocol
// package: one response per request, in order. /healthz answers with a
// small JSON status document for process supervisors.
//
// # Usage Example
//
//	handler := protocol.NewHandler(registry)
//	srv, err := server.New(&server.Config{
//	    Name: "storage",
//	    Port: 8080,
//	}, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until ctx is cancelled or a shutdown signal arrives
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # TLS
//
// When both CertPath and KeyPath are set the listener serves TLS 1.2 or
// newer and clients must use wss://.
//
// # Connection Handling
//
// Each connection runs in its own goroutine. Requests are executed through
// the shared protocol.Handler, which serializes them, so a write and its
// state save are complete before any other client's request runs. The
// server pings idle clients and drops those that stop answering.
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM signals for graceful shutdown:
//  1. Stop accepting new connections
//  2. Send a close frame to every WebSocket client
//  3. Wait for in-flight requests to complete
package server
