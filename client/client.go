// Package client implements the external Put/Get API: a thin,
// connection-per-call client over the wire protocol's client rows,
// generalizing the teacher's Clerk (src/kvpaxos/client.go) from
// net/rpc-over-Unix-socket to a direct TCP dial against one of the
// five replicas' client-facing listeners.
package client

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/wire"
)

// retryInterval is how long a Client waits between trying the next
// replica after a connection failure, mirroring the teacher's
// TickInterval backoff in Clerk.Get/PutExt.
const retryInterval = 20 * time.Millisecond

// ErrNotFound is returned by Get when the replica that answered has
// never learned a value for the key.
var ErrNotFound = errors.New("client: key not found")

// Client is the C-style handle: New to open, Close when done, then
// any number of Put/Get calls. A Client round-robins across the
// cluster's client-facing addresses on every call, independent of
// which replica answered the previous call — it does not pin itself
// to a leader, since there is no leader, only whichever replica's
// WSM happens to win a round.
type Client struct {
	mu    sync.Mutex
	addrs []string
	next  int
}

// New builds a Client addressed at every replica's client listener
// named in topo.
func New(topo config.Topology) *Client {
	addrs := make([]string, 0, len(topo.Peers))
	for _, h := range topo.All() {
		if addr, ok := topo.ClientAddress(h); ok {
			addrs = append(addrs, addr)
		}
	}
	return &Client{addrs: addrs}
}

// Close is a no-op today: Client holds no persistent connection, only
// the replica address list. It exists so callers have a symmetric
// New/Close pair to hold, matching the lifecycle of every other
// handle in this codebase (transports, durable maps) even though
// there is nothing here to release yet.
func (c *Client) Close() error {
	return nil
}

func (c *Client) pickAndAdvance() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := c.addrs[c.next%len(c.addrs)]
	c.next++
	return addr
}

// Put writes value at key. It returns nil on SUCCESS and an error on
// GARBAGE, INTERNAL or SERVER_ERROR. A transport failure, an
// undecodable reply or any other code makes it retry against the next
// replica with no limit on attempts — a client that cannot reach a
// live quorum blocks forever, same as the teacher's Clerk.
func (c *Client) Put(key, value []byte) error {
	req := wire.Frame(wire.TagPut, wire.Put{Key: key, Value: value}.Encode())
	for {
		reply, err := c.roundTrip(req)
		if err != nil {
			time.Sleep(retryInterval)
			continue
		}
		r, err := wire.DecodePutReply(reply)
		if err != nil {
			time.Sleep(retryInterval)
			continue
		}
		switch r.Code {
		case wire.Success:
			return nil
		case wire.Garbage, wire.Internal, wire.ServerError:
			return fmt.Errorf("client: put %q: %s", key, r.Code)
		default:
			time.Sleep(retryInterval)
		}
	}
}

// Get fetches the value at key from the first replica that answers.
// err is ErrNotFound if that replica has never learned a value for
// key; other replicas are not asked.
func (c *Client) Get(key []byte) ([]byte, error) {
	req := wire.Frame(wire.TagGet, wire.Get{Key: key}.Encode())
	for {
		reply, err := c.roundTrip(req)
		if err != nil {
			time.Sleep(retryInterval)
			continue
		}
		r, err := wire.DecodeGetReply(reply)
		if err != nil {
			time.Sleep(retryInterval)
			continue
		}
		switch r.Code {
		case wire.Success:
			return r.Value, nil
		case wire.NotFound:
			return nil, ErrNotFound
		case wire.Garbage, wire.Internal, wire.ServerError:
			return nil, fmt.Errorf("client: get %q: %s", key, r.Code)
		default:
			time.Sleep(retryInterval)
		}
	}
}

// roundTrip dials the next replica in round-robin order, sends one
// framed request, and reads back one framed reply.
func (c *Client) roundTrip(req []byte) ([]byte, error) {
	addr := c.pickAndAdvance()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeFrame(conn, req); err != nil {
		return nil, err
	}
	return readFrame(conn)
}

func writeFrame(w io.Writer, body []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
