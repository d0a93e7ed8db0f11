// Package keytable holds the per-key WSM table: WSMs are created
// lazily on first reference and reclaimed once no handler holds a
// reference and the WSM itself reports idle (empty queue, no round in
// flight). This generalizes the teacher's kvpaxos "seq -> op" map,
// which never reclaims, into the open-ended key space a replicated
// key-value store needs.
package keytable

import (
	"sync"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/wsm"
)

type entry struct {
	w    *wsm.WSM
	refs int
}

// Table is the per-key WSM table. The zero value is not usable; build
// one with New.
type Table struct {
	self   config.HostID
	topo   config.Topology
	sender wsm.Sender
	clock  wsm.Clock

	mu      sync.Mutex
	entries map[string]*entry
}

// New builds an empty table. sender is how WSMs reach peers (and,
// through self-delivery, the local dispatcher); clock may be nil to
// use wsm.RealClock.
func New(self config.HostID, topo config.Topology, sender wsm.Sender, clock wsm.Clock) *Table {
	return &Table{
		self:    self,
		topo:    topo,
		sender:  sender,
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Acquire returns the WSM for key, creating it if this is the first
// reference, and increments its reference count. Callers must call
// Release exactly once for each Acquire.
func (t *Table) Acquire(key []byte) *wsm.WSM {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(key)
	e, ok := t.entries[k]
	if !ok {
		e = &entry{w: wsm.New(key, t.self, t.topo, t.sender, t.clock)}
		t.entries[k] = e
	}
	e.refs++
	return e.w
}

// Release drops a reference obtained from Acquire. If this was the
// last reference and the WSM is idle, its entry is removed — it will
// be rebuilt from scratch on the next Acquire, with no history lost
// because wsm state for a key is fully recoverable from the durable
// map's acceptor/learned records.
func (t *Table) Release(key []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(key)
	e, ok := t.entries[k]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 && e.w.Idle() {
		delete(t.entries, k)
	}
}

// Len reports the number of live entries, for tests and the monitor.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
