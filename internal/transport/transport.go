// Package transport is the transport adapter: send(host, bytes) and
// recv() -> (host, bytes), with best-effort delivery over opaque
// per-peer connections. The core only ever calls through the
// Transport interface; TCP is the production implementation and
// Memory is the in-memory stand-in used by tests.
package transport

import (
	"errors"

	"github.com/rescrv/pocdb/internal/config"
)

// ErrTransport wraps any failure to send or receive.
var ErrTransport = errors.New("transport: send/recv failed")

// ErrClosed is returned by Recv after Close.
var ErrClosed = errors.New("transport: closed")

// Transport is the contract the dispatcher and WSM broadcasts consume.
// Send is fire-and-forget: a nil return means the bytes were handed to
// the network, not that the peer received them. Recv blocks until a
// message arrives from any peer or the transport is closed.
type Transport interface {
	Send(host config.HostID, body []byte) error
	Recv() (host config.HostID, body []byte, err error)
	Close() error
}

func wrap(cause error) error {
	if cause == nil {
		return nil
	}
	return &transportError{cause: cause}
}

type transportError struct {
	cause error
}

func (e *transportError) Error() string {
	return ErrTransport.Error() + ": " + e.cause.Error()
}

func (e *transportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *transportError) Unwrap() error {
	return e.cause
}
