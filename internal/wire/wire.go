// Package wire implements the on-the-wire encoding of core protocol
// messages: a 1-byte type tag followed by big-endian fixed-width
// integers and length-prefixed byte strings, exactly as pinned down
// in the wire format section of the protocol. Framing (the
// length-prefixed header that lets a stream be split into messages)
// is owned by the transport and client/daemon connection code, not
// here — this package only knows about message bodies.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Tag is the 1-byte message type discriminator that opens every
// message body.
type Tag byte

const (
	TagPut     Tag = 'P'
	TagGet     Tag = 'G'
	TagPrepare Tag = 'a' // phase-1a
	TagPromise Tag = 'b' // phase-1b
	TagAccept  Tag = 'A' // phase-2a
	TagAccepted Tag = 'B' // phase-2b
	TagLearn   Tag = 'L'
	TagRetry   Tag = 'R'
)

func (t Tag) String() string {
	switch t {
	case TagPut:
		return "put"
	case TagGet:
		return "get"
	case TagPrepare:
		return "phase-1a"
	case TagPromise:
		return "phase-1b"
	case TagAccept:
		return "phase-2a"
	case TagAccepted:
		return "phase-2b"
	case TagLearn:
		return "learn"
	case TagRetry:
		return "retry"
	default:
		return fmt.Sprintf("tag(%#02x)", byte(t))
	}
}

// ReturnCode is the 1-byte status returned to clients.
type ReturnCode byte

const (
	Success    ReturnCode = 0
	NotFound   ReturnCode = 1
	SeeErrno   ReturnCode = 2
	ServerError ReturnCode = 3
	Internal   ReturnCode = 4
	Garbage    ReturnCode = 5
)

func (rc ReturnCode) String() string {
	switch rc {
	case Success:
		return "SUCCESS"
	case NotFound:
		return "NOT_FOUND"
	case SeeErrno:
		return "SEE_ERRNO"
	case ServerError:
		return "SERVER_ERROR"
	case Internal:
		return "INTERNAL"
	case Garbage:
		return "GARBAGE"
	default:
		return fmt.Sprintf("rc(%d)", byte(rc))
	}
}

// ErrDecode is returned by every Decode function when a
// message body is truncated or malformed.
var ErrDecode = errors.New("wire: malformed message body")

// encoder accumulates a message body.
type encoder struct {
	buf []byte
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) bytes(v []byte) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(v)))
	e.buf = append(e.buf, b[:]...)
	e.buf = append(e.buf, v...)
}

func (e *encoder) byte(v byte) {
	e.buf = append(e.buf, v)
}

// decoder consumes a message body left-to-right.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) u64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, ErrDecode
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	if d.pos+4 > len(d.buf) {
		return nil, ErrDecode
	}
	n := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	if d.pos+int(n) > len(d.buf) {
		return nil, ErrDecode
	}
	v := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	// copy so the returned slice doesn't alias the decoder's buffer
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (d *decoder) byte() (byte, error) {
	if d.pos+1 > len(d.buf) {
		return 0, ErrDecode
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) done() bool {
	return d.pos == len(d.buf)
}
