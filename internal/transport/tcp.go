package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/logging"
)

// maxFrame bounds a single message body, guarding against a
// corrupt/hostile length prefix turning into an unbounded allocation.
// Keys are capped at a few kilobytes per the data model, so this is
// generous headroom.
const maxFrame = 16 << 20

// TCP is a Transport that frames each message with a 12-byte header
// (the sender's 8-byte big-endian HostID, then a 4-byte big-endian
// body length) over a plain TCP connection, generalizing
// the teacher's net.Listen/Accept loop (kvpaxos.StartServer,
// paxos.Make) from net/rpc-over-Unix-sockets to the explicit
// self-framed byte protocol the wire format pins down.
type TCP struct {
	self HostID
	addr func(HostID) (string, bool)

	ln net.Listener

	mu    sync.Mutex
	conns map[HostID]net.Conn
	dead  bool

	inbox chan inboundMsg
	done  chan struct{}
}

type inboundMsg struct {
	host HostID
	body []byte
}

// HostID is re-exported here for readability at call sites that only
// import transport; it is identical to config.HostID.
type HostID = config.HostID

// NewTCP starts listening on bindAddr for inbound connections from any
// peer and returns a Transport addressed by HostID, resolving peer
// addresses through addr (typically config.Topology.Address).
func NewTCP(self HostID, bindAddr string, addr func(HostID) (string, bool)) (*TCP, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, wrap(err)
	}
	t := &TCP{
		self:  self,
		addr:  addr,
		ln:    ln,
		conns: make(map[HostID]net.Conn),
		inbox: make(chan inboundMsg, 256),
		done:  make(chan struct{}),
	}
	go t.acceptLoop()
	return t, nil
}

func (t *TCP) acceptLoop() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			t.mu.Lock()
			dead := t.dead
			t.mu.Unlock()
			if dead {
				return
			}
			logging.Errorf("transport: accept: %v", err)
			continue
		}
		go t.readLoop(conn)
	}
}

// readLoop drains framed messages from one inbound connection until it
// errors or closes; the sender's HostID travels inside each frame (a
// connection carries messages from exactly one logical peer but the
// TCP layer itself doesn't authenticate who dialed it).
func (t *TCP) readLoop(conn net.Conn) {
	defer conn.Close()
	for {
		host, body, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				logging.Errorf("transport: read: %v", err)
			}
			return
		}
		select {
		case t.inbox <- inboundMsg{host: host, body: body}:
		case <-t.done:
			return
		default:
			logging.Errorf("transport: inbox full, dropping message from %v", host)
		}
	}
}

// readFrame reads one [host(8) | length(4) | body] frame.
func readFrame(r io.Reader) (HostID, []byte, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	host := HostID(binary.BigEndian.Uint64(hdr[:8]))
	n := binary.BigEndian.Uint32(hdr[8:12])
	if n > maxFrame {
		return 0, nil, ErrDecodeFrame
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return host, body, nil
}

// ErrDecodeFrame is returned when an inbound length prefix exceeds
// maxFrame, almost certainly a desynchronized stream.
var ErrDecodeFrame = &frameError{}

type frameError struct{}

func (*frameError) Error() string { return "transport: frame too large" }

func writeFrame(w io.Writer, self HostID, body []byte) error {
	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[:8], uint64(self))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func (t *TCP) connFor(host HostID) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dead {
		return nil, ErrClosed
	}
	if c, ok := t.conns[host]; ok {
		return c, nil
	}
	addr, ok := t.addr(host)
	if !ok {
		return nil, wrap(errUnknownHost(host))
	}
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, wrap(err)
	}
	t.conns[host] = c
	return c, nil
}

func (t *TCP) dropConn(host HostID, c net.Conn) {
	c.Close()
	t.mu.Lock()
	if t.conns[host] == c {
		delete(t.conns, host)
	}
	t.mu.Unlock()
}

// Send writes one framed message to host's connection, dialing lazily
// and dropping (so the next Send redials) on any write error — the
// transport makes no delivery guarantee, it just tries once.
func (t *TCP) Send(host HostID, body []byte) error {
	conn, err := t.connFor(host)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, t.self, body); err != nil {
		t.dropConn(host, conn)
		return wrap(err)
	}
	return nil
}

// Recv blocks for the next inbound message from any peer.
func (t *TCP) Recv() (HostID, []byte, error) {
	select {
	case m := <-t.inbox:
		return m.host, m.body, nil
	case <-t.done:
		return 0, nil, ErrClosed
	}
}

// Close stops accepting new connections and unblocks Recv.
func (t *TCP) Close() error {
	t.mu.Lock()
	if t.dead {
		t.mu.Unlock()
		return nil
	}
	t.dead = true
	for host, c := range t.conns {
		c.Close()
		delete(t.conns, host)
	}
	t.mu.Unlock()
	close(t.done)
	return wrap(t.ln.Close())
}

type unknownHostError struct{ host HostID }

func errUnknownHost(host HostID) error { return &unknownHostError{host: host} }

func (e *unknownHostError) Error() string {
	return "transport: no address for host " + e.host.Letter()
}
