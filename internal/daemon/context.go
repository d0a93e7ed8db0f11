// Package daemon wires the leaf packages (wire, storage, transport,
// paxos, wsm, keytable) into one running replica: it owns the
// dispatch loop that turns inbound bytes into acceptor/learner/WSM
// calls, and the Sender that lets a WSM's broadcasts reach both peers
// and, via a direct in-process call, itself.
package daemon

import (
	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/keytable"
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/transport"
)

// Context is the process-wide state threaded into every handler:
// host identity, the static peer table, the durable map, the peer
// transport, and the per-key WSM table. Exactly one Context exists
// per running daemon.
type Context struct {
	Self  config.HostID
	Topo  config.Topology
	DM    storage.DurableMap
	Peers transport.Transport
	Keys  *keytable.Table

	// OnLearn, if set, is called after a learn message is handled
	// without error, including one the learner's version guard leaves
	// unapplied. The monitor uses this to feed its live status page; it
	// is nil in tests and in any daemon run without a monitor.
	OnLearn func(key, value []byte)
}

// New builds a Context and its keytable, wiring the table's sender
// back to this context's SendTo so every WSM created through Keys
// reaches peers (and itself) the same way.
func New(self config.HostID, topo config.Topology, dm storage.DurableMap, peers transport.Transport) *Context {
	ctx := &Context{Self: self, Topo: topo, DM: dm, Peers: peers}
	ctx.Keys = keytable.New(self, topo, ctx, nil)
	return ctx
}
