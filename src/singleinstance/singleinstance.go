// Package singleinstance lets a short-lived invocation hand its capture to
// the resident process over loopback TCP.
package singleinstance

import (
	"context"
)

// Server owns the TCP endpoint and answers capture requests.
type Server interface {
	// Start binds the first port of the configured range and accepts clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	// RespondSuccess sends success. In stdout mode data is the PNG; in
	// clipboard mode it is empty.
	RespondSuccess(data []byte) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// RespondCancelled reports that the user dismissed the selection.
	RespondCancelled() error
	Close() error
}

// Request represents a single capture request.
type Request struct {
	OutputToStdout bool
}

// Client attempts to delegate a capture to a resident server.
type Client interface {
	// TryCapture scans the port range, performs the handshake and waits for
	// the resident to finish. Without a resident it returns delegated=false
	// and a nil error.
	TryCapture(ctx context.Context, outputToStdout bool) (delegated bool, data []byte, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTCPServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTCPClient() }
