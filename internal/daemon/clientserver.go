package daemon

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/paxos"
	"github.com/rescrv/pocdb/internal/wire"
)

// clientMaxFrame bounds one client request body.
const clientMaxFrame = 16 << 20

// ServeClients accepts client connections on bindAddr. Each connection
// carries exactly one request: a 4-byte length prefix, a tag byte,
// and a body, per the wire format's Put/Get rows. The reply is framed
// the same way and the connection is then closed — callers reconnect
// for their next request, mirroring the teacher's Clerk, which dials
// fresh on every Put/Get rather than holding a long-lived RPC client.
func ServeClients(runCtx context.Context, d *Context, bindAddr string) error {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return err
	}
	go func() {
		<-runCtx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-runCtx.Done():
				return nil
			default:
				logging.Errorf("daemon: client accept: %v", err)
				continue
			}
		}
		go handleClientConn(d, conn)
	}
}

func handleClientConn(d *Context, conn net.Conn) {
	defer conn.Close()

	raw, err := readClientFrame(conn)
	if err != nil {
		if err != io.EOF {
			logging.Errorf("daemon: read client frame: %v", err)
		}
		return
	}
	env, err := wire.DecodeEnvelope(raw)
	if err != nil {
		logging.Errorf("daemon: decode client envelope: %v", err)
		return
	}

	var reply []byte
	switch env.Tag {
	case wire.TagPut:
		reply = handleClientPut(d, env.Body)
	case wire.TagGet:
		reply = handleClientGet(d, env.Body)
	default:
		logging.Errorf("daemon: unexpected client tag %s", env.Tag)
		reply = wire.PutReply{Code: wire.Garbage}.Encode()
	}

	if err := writeClientFrame(conn, reply); err != nil {
		logging.Errorf("daemon: write client reply: %v", err)
	}
}

func handleClientPut(d *Context, body []byte) []byte {
	msg, err := wire.DecodePut(body)
	if err != nil {
		logging.Errorf("daemon: decode put: %v", err)
		return wire.PutReply{Code: wire.Garbage}.Encode()
	}
	return wire.PutReply{Code: Put(d, msg.Key, msg.Value)}.Encode()
}

func handleClientGet(d *Context, body []byte) []byte {
	msg, err := wire.DecodeGet(body)
	if err != nil {
		logging.Errorf("daemon: decode get: %v", err)
		return wire.GetReply{Code: wire.Garbage}.Encode()
	}
	value, found, err := Get(d, msg.Key)
	if err != nil {
		logging.Errorf("daemon: get %q: %v", msg.Key, err)
		return wire.GetReply{Code: wire.ServerError}.Encode()
	}
	if !found {
		return wire.GetReply{Code: wire.NotFound}.Encode()
	}
	return wire.GetReply{Code: wire.Success, Value: value}.Encode()
}

// Put drives a write for key through this replica's WSM and blocks
// until it is decided. Exported so tests (and the cluster integration
// harness) can issue writes without going through a TCP round trip.
func Put(d *Context, key, value []byte) wire.ReturnCode {
	replyCh := make(chan wire.ReturnCode, 1)
	w := d.Keys.Acquire(key)
	w.Write(replyCh, value)
	d.Keys.Release(key)
	return <-replyCh
}

// Get reads key directly from this replica's learned state.
func Get(d *Context, key []byte) (value []byte, found bool, err error) {
	return paxos.Get(d.DM, key)
}

func readClientFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > clientMaxFrame {
		return nil, wire.ErrDecode
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeClientFrame(w io.Writer, body []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
