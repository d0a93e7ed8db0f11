package keytable

import (
	"testing"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/wire"
	"github.com/rescrv/pocdb/internal/wsm"
)

type nopSender struct{}

func (nopSender) SendTo(config.HostID, wire.Tag, []byte) {}

func stepClock() wsm.Clock {
	var n uint64
	return func() uint64 {
		n++
		return n
	}
}

func TestAcquireTwiceSharesSameWSM(t *testing.T) {
	topo := config.Topology{Peers: []config.Peer{{Host: config.HostA}}}
	tbl := New(config.HostA, topo, nopSender{}, stepClock())

	w1 := tbl.Acquire([]byte("k"))
	w2 := tbl.Acquire([]byte("k"))
	if w1 != w2 {
		t.Fatalf("expected the second Acquire to return the same WSM pointer")
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected exactly one live entry, got %d", tbl.Len())
	}

	tbl.Release([]byte("k"))
	if tbl.Len() != 1 {
		t.Fatalf("entry must survive while a reference remains outstanding")
	}
	tbl.Release([]byte("k"))
	if tbl.Len() != 0 {
		t.Fatalf("expected the entry to be reclaimed once idle and unreferenced")
	}
}

func TestReleaseOnUnknownKeyIsANoop(t *testing.T) {
	topo := config.Topology{Peers: []config.Peer{{Host: config.HostA}}}
	tbl := New(config.HostA, topo, nopSender{}, stepClock())
	tbl.Release([]byte("never-acquired"))
	if tbl.Len() != 0 {
		t.Fatalf("expected no entries")
	}
}

func TestDistinctKeysGetDistinctEntries(t *testing.T) {
	topo := config.Topology{Peers: []config.Peer{{Host: config.HostA}}}
	tbl := New(config.HostA, topo, nopSender{}, stepClock())

	wa := tbl.Acquire([]byte("a"))
	wb := tbl.Acquire([]byte("b"))
	if wa == wb {
		t.Fatalf("distinct keys must not share a WSM")
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected two live entries, got %d", tbl.Len())
	}
}
