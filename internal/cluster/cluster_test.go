package cluster

import (
	"bytes"
	"testing"
	"time"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/wire"
)

func pollUntilFound(t *testing.T, c *Cluster, host config.HostID, key []byte, deadline time.Duration) []byte {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if v, found, err := c.Get(host, key); err != nil {
			t.Fatalf("get: %v", err)
		} else if found {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("key %q never became visible on %s within %s", key, host.Letter(), deadline)
	return nil
}

func TestFreshWriteReplicatesToEveryHost(t *testing.T) {
	c := New()
	defer c.Close()

	if code := c.Put(config.HostA, []byte("k"), []byte("v1")); code != wire.Success {
		t.Fatalf("put: %v", code)
	}

	for _, h := range c.Topo.All() {
		v := pollUntilFound(t, c, h, []byte("k"), time.Second)
		if !bytes.Equal(v, []byte("v1")) {
			t.Fatalf("host %s learned %q, want v1", h.Letter(), v)
		}
	}
}

func TestGetOnUnseenKeyIsNotFoundEverywhere(t *testing.T) {
	c := New()
	defer c.Close()

	for _, h := range c.Topo.All() {
		_, found, err := c.Get(h, []byte("never-written"))
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if found {
			t.Fatalf("host %s unexpectedly has a value for an unwritten key", h.Letter())
		}
	}
}

// TestConcurrentCollisionBothWritesEventuallySucceed drives two
// different replicas proposing two different values for the same key
// at the same time. Paxos guarantees exactly one value per decree, so
// the loser's write must be requeued for the next decree rather than
// lost — both Put calls return Success, and the key's final value
// belongs to whichever write landed in the later decree.
func TestConcurrentCollisionBothWritesEventuallySucceed(t *testing.T) {
	c := New()
	defer c.Close()

	results := make(chan wire.ReturnCode, 2)
	go func() { results <- c.Put(config.HostA, []byte("k"), []byte("from-a")) }()
	go func() { results <- c.Put(config.HostB, []byte("k"), []byte("from-b")) }()

	for i := 0; i < 2; i++ {
		select {
		case code := <-results:
			if code != wire.Success {
				t.Fatalf("put %d: %v", i, code)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for both writes to settle")
		}
	}

	v := pollUntilFound(t, c, config.HostC, []byte("k"), time.Second)
	if !bytes.Equal(v, []byte("from-a")) && !bytes.Equal(v, []byte("from-b")) {
		t.Fatalf("unexpected learned value %q", v)
	}
}

// TestLostAcceptedToleratedByQuorum drops the phase-2b reply from two
// of the five acceptors (still leaving a 3-of-5 quorum) and checks the
// write still succeeds — the scenario the quorum size exists for.
func TestLostAcceptedToleratedByQuorum(t *testing.T) {
	c := New()
	defer c.Close()

	c.Replicas[config.HostD].Net.Drop(func(to config.HostID, tag wire.Tag) bool {
		return tag == wire.TagAccepted
	})
	c.Replicas[config.HostE].Net.Drop(func(to config.HostID, tag wire.Tag) bool {
		return tag == wire.TagAccepted
	})

	if code := c.Put(config.HostA, []byte("k"), []byte("v1")); code != wire.Success {
		t.Fatalf("put: %v", code)
	}

	v := pollUntilFound(t, c, config.HostA, []byte("k"), time.Second)
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("got %q, want v1", v)
	}
}
