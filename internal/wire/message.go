package wire

// Each message type below mirrors one row of the wire format's body
// table. Encode produces the bytes following the 1-byte tag; Decode
// consumes them. The tag itself is carried alongside the body by the
// transport/dispatcher layer, not inside these structs.

// Put is tag 'P': key, value.
type Put struct {
	Key   []byte
	Value []byte
}

func (m Put) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.bytes(m.Value)
	return e.buf
}

func DecodePut(body []byte) (Put, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Put{}, err
	}
	val, err := d.bytes()
	if err != nil {
		return Put{}, err
	}
	if !d.done() {
		return Put{}, ErrDecode
	}
	return Put{Key: key, Value: val}, nil
}

// Get is tag 'G': key.
type Get struct {
	Key []byte
}

func (m Get) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	return e.buf
}

func DecodeGet(body []byte) (Get, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Get{}, err
	}
	if !d.done() {
		return Get{}, ErrDecode
	}
	return Get{Key: key}, nil
}

// Prepare is tag 'a' (phase-1a): key, version, ballot.
type Prepare struct {
	Key     []byte
	Version Version
	Ballot  Ballot
}

func (m Prepare) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.u64(uint64(m.Version))
	e.u64(m.Ballot.Number)
	e.u64(m.Ballot.Leader)
	return e.buf
}

func DecodePrepare(body []byte) (Prepare, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Prepare{}, err
	}
	ver, err := d.u64()
	if err != nil {
		return Prepare{}, err
	}
	num, err := d.u64()
	if err != nil {
		return Prepare{}, err
	}
	leader, err := d.u64()
	if err != nil {
		return Prepare{}, err
	}
	if !d.done() {
		return Prepare{}, ErrDecode
	}
	return Prepare{Key: key, Version: Version(ver), Ballot: Ballot{Number: num, Leader: leader}}, nil
}

// Promise is tag 'b' (phase-1b): key, version, promised_ballot, accepted_pvalue.
type Promise struct {
	Key            []byte
	Version        Version
	PromisedBallot Ballot
	AcceptedPValue PValue
}

func (m Promise) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.u64(uint64(m.Version))
	e.u64(m.PromisedBallot.Number)
	e.u64(m.PromisedBallot.Leader)
	e.u64(m.AcceptedPValue.Ballot.Number)
	e.u64(m.AcceptedPValue.Ballot.Leader)
	e.bytes(m.AcceptedPValue.Value)
	return e.buf
}

func DecodePromise(body []byte) (Promise, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Promise{}, err
	}
	ver, err := d.u64()
	if err != nil {
		return Promise{}, err
	}
	pn, err := d.u64()
	if err != nil {
		return Promise{}, err
	}
	pl, err := d.u64()
	if err != nil {
		return Promise{}, err
	}
	an, err := d.u64()
	if err != nil {
		return Promise{}, err
	}
	al, err := d.u64()
	if err != nil {
		return Promise{}, err
	}
	av, err := d.bytes()
	if err != nil {
		return Promise{}, err
	}
	if !d.done() {
		return Promise{}, ErrDecode
	}
	return Promise{
		Key:            key,
		Version:        Version(ver),
		PromisedBallot: Ballot{Number: pn, Leader: pl},
		AcceptedPValue: PValue{Ballot: Ballot{Number: an, Leader: al}, Value: av},
	}, nil
}

// Accept is tag 'A' (phase-2a): key, version, ballot, pvalue.
type Accept struct {
	Key     []byte
	Version Version
	Ballot  Ballot
	PValue  PValue
}

func (m Accept) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.u64(uint64(m.Version))
	e.u64(m.Ballot.Number)
	e.u64(m.Ballot.Leader)
	e.u64(m.PValue.Ballot.Number)
	e.u64(m.PValue.Ballot.Leader)
	e.bytes(m.PValue.Value)
	return e.buf
}

func DecodeAccept(body []byte) (Accept, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Accept{}, err
	}
	ver, err := d.u64()
	if err != nil {
		return Accept{}, err
	}
	bn, err := d.u64()
	if err != nil {
		return Accept{}, err
	}
	bl, err := d.u64()
	if err != nil {
		return Accept{}, err
	}
	pn, err := d.u64()
	if err != nil {
		return Accept{}, err
	}
	pl, err := d.u64()
	if err != nil {
		return Accept{}, err
	}
	pv, err := d.bytes()
	if err != nil {
		return Accept{}, err
	}
	if !d.done() {
		return Accept{}, ErrDecode
	}
	return Accept{
		Key:     key,
		Version: Version(ver),
		Ballot:  Ballot{Number: bn, Leader: bl},
		PValue:  PValue{Ballot: Ballot{Number: pn, Leader: pl}, Value: pv},
	}, nil
}

// Accepted is tag 'B' (phase-2b): key, version, ballot.
type Accepted struct {
	Key     []byte
	Version Version
	Ballot  Ballot
}

func (m Accepted) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.u64(uint64(m.Version))
	e.u64(m.Ballot.Number)
	e.u64(m.Ballot.Leader)
	return e.buf
}

func DecodeAccepted(body []byte) (Accepted, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Accepted{}, err
	}
	ver, err := d.u64()
	if err != nil {
		return Accepted{}, err
	}
	bn, err := d.u64()
	if err != nil {
		return Accepted{}, err
	}
	bl, err := d.u64()
	if err != nil {
		return Accepted{}, err
	}
	if !d.done() {
		return Accepted{}, ErrDecode
	}
	return Accepted{Key: key, Version: Version(ver), Ballot: Ballot{Number: bn, Leader: bl}}, nil
}

// Learn is tag 'L': key, version, value.
type Learn struct {
	Key     []byte
	Version Version
	Value   []byte
}

func (m Learn) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	e.u64(uint64(m.Version))
	e.bytes(m.Value)
	return e.buf
}

func DecodeLearn(body []byte) (Learn, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Learn{}, err
	}
	ver, err := d.u64()
	if err != nil {
		return Learn{}, err
	}
	val, err := d.bytes()
	if err != nil {
		return Learn{}, err
	}
	if !d.done() {
		return Learn{}, ErrDecode
	}
	return Learn{Key: key, Version: Version(ver), Value: val}, nil
}

// Retry is tag 'R': key.
type Retry struct {
	Key []byte
}

func (m Retry) Encode() []byte {
	e := &encoder{}
	e.bytes(m.Key)
	return e.buf
}

func DecodeRetry(body []byte) (Retry, error) {
	d := &decoder{buf: body}
	key, err := d.bytes()
	if err != nil {
		return Retry{}, err
	}
	if !d.done() {
		return Retry{}, ErrDecode
	}
	return Retry{Key: key}, nil
}

// PutReply is the reply to a Put: a single return code byte.
type PutReply struct {
	Code ReturnCode
}

func (m PutReply) Encode() []byte {
	return []byte{byte(m.Code)}
}

func DecodePutReply(body []byte) (PutReply, error) {
	if len(body) != 1 {
		return PutReply{}, ErrDecode
	}
	return PutReply{Code: ReturnCode(body[0])}, nil
}

// GetReply is the reply to a Get: a return code byte followed by the
// value bytes (empty when the code is not SUCCESS).
type GetReply struct {
	Code  ReturnCode
	Value []byte
}

func (m GetReply) Encode() []byte {
	e := &encoder{}
	e.byte(byte(m.Code))
	e.bytes(m.Value)
	return e.buf
}

func DecodeGetReply(body []byte) (GetReply, error) {
	d := &decoder{buf: body}
	code, err := d.byte()
	if err != nil {
		return GetReply{}, err
	}
	val, err := d.bytes()
	if err != nil {
		return GetReply{}, err
	}
	if !d.done() {
		return GetReply{}, ErrDecode
	}
	return GetReply{Code: ReturnCode(code), Value: val}, nil
}

// Envelope is a decoded message ready for dispatch: the tag plus the
// still-undecoded body bytes that follow it.
type Envelope struct {
	Tag  Tag
	Body []byte
}

// Frame prepends the tag byte to an already-encoded body, producing
// the bytes that go out over the transport (after the transport's own
// length-prefix framing).
func Frame(tag Tag, body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(tag))
	out = append(out, body...)
	return out
}

// DecodeEnvelope splits a raw message into its tag and body.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	if len(raw) < 1 {
		return Envelope{}, ErrDecode
	}
	return Envelope{Tag: Tag(raw[0]), Body: raw[1:]}, nil
}
