package cluster

import (
	"sync"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/transport"
	"github.com/rescrv/pocdb/internal/wire"
)

// Lossy wraps a Transport with an installable drop rule, letting
// integration tests reproduce the "lost phase-2a" and similar
// scenarios without touching the production transport implementations.
// It only ever drops on the send side, matching the best-effort
// delivery contract every Transport already promises.
type Lossy struct {
	underlying transport.Transport

	mu   sync.Mutex
	drop func(to config.HostID, tag wire.Tag) bool
}

// Drop installs a predicate deciding whether a send to the given host
// carrying the given tag should be silently discarded. A nil
// predicate (the default) drops nothing.
func (l *Lossy) Drop(f func(to config.HostID, tag wire.Tag) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drop = f
}

func (l *Lossy) Send(host config.HostID, body []byte) error {
	l.mu.Lock()
	drop := l.drop
	l.mu.Unlock()
	if drop != nil && len(body) > 0 && drop(host, wire.Tag(body[0])) {
		return nil
	}
	return l.underlying.Send(host, body)
}

func (l *Lossy) Recv() (config.HostID, []byte, error) {
	return l.underlying.Recv()
}

func (l *Lossy) Close() error {
	return l.underlying.Close()
}
