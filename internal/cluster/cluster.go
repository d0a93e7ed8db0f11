// Package cluster assembles a full five-replica daemon.Context set
// over the in-memory transport for integration tests, the
// generalization of the teacher's test-file cleanup()/StartServer
// loops (kvpaxos_test.go, paxos_test.go) that spin up N servers
// sharing a fake network and tear them all down together.
package cluster

import (
	"context"
	"sync"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/daemon"
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/transport"
	"github.com/rescrv/pocdb/internal/wire"
)

// Replica is one running cluster member.
type Replica struct {
	Host config.HostID
	Ctx  *daemon.Context
	Net  *Lossy
}

// Cluster is five replicas sharing one in-memory network.
type Cluster struct {
	Topo     config.Topology
	Replicas map[config.HostID]*Replica

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts a five-replica cluster. Each replica's durable map is an
// in-memory storage.Memory (no disk I/O, per the spec's test-tooling
// convention of preferring the fake over a real dependency when a
// test doesn't need the real thing).
func New() *Cluster {
	topo := config.Topology{Peers: []config.Peer{
		{Host: config.HostA}, {Host: config.HostB}, {Host: config.HostC},
		{Host: config.HostD}, {Host: config.HostE},
	}}

	network := transport.NewNetwork()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cluster{Topo: topo, Replicas: make(map[config.HostID]*Replica), cancel: cancel}

	for _, h := range topo.All() {
		lossy := &Lossy{underlying: network.Join(h)}
		dctx := daemon.New(h, topo, storage.NewMemory(), lossy)
		c.Replicas[h] = &Replica{Host: h, Ctx: dctx, Net: lossy}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			daemon.Serve(ctx, dctx)
		}()
	}
	return c
}

// Close stops every replica's dispatch loop and waits for it to
// return.
func (c *Cluster) Close() {
	c.cancel()
	for _, r := range c.Replicas {
		r.Net.Close()
	}
	c.wg.Wait()
}

// Put drives a write against whichever replica host names, blocking
// until decided.
func (c *Cluster) Put(host config.HostID, key, value []byte) wire.ReturnCode {
	return daemon.Put(c.Replicas[host].Ctx, key, value)
}

// Get reads directly from host's learned state.
func (c *Cluster) Get(host config.HostID, key []byte) ([]byte, bool, error) {
	return daemon.Get(c.Replicas[host].Ctx, key)
}
