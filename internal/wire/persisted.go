package wire

// EncodeAcceptorRecord serializes the persisted layout for an
// acceptor slot: version || ballot || pvalue.
func EncodeAcceptorRecord(r AcceptorRecord) []byte {
	e := &encoder{}
	e.u64(uint64(r.Version))
	e.u64(r.PromisedBallot.Number)
	e.u64(r.PromisedBallot.Leader)
	e.u64(r.AcceptedPValue.Ballot.Number)
	e.u64(r.AcceptedPValue.Ballot.Leader)
	e.bytes(r.AcceptedPValue.Value)
	return e.buf
}

// DecodeAcceptorRecord is the inverse of EncodeAcceptorRecord.
func DecodeAcceptorRecord(body []byte) (AcceptorRecord, error) {
	d := &decoder{buf: body}
	ver, err := d.u64()
	if err != nil {
		return AcceptorRecord{}, err
	}
	pn, err := d.u64()
	if err != nil {
		return AcceptorRecord{}, err
	}
	pl, err := d.u64()
	if err != nil {
		return AcceptorRecord{}, err
	}
	an, err := d.u64()
	if err != nil {
		return AcceptorRecord{}, err
	}
	al, err := d.u64()
	if err != nil {
		return AcceptorRecord{}, err
	}
	av, err := d.bytes()
	if err != nil {
		return AcceptorRecord{}, err
	}
	if !d.done() {
		return AcceptorRecord{}, ErrDecode
	}
	return AcceptorRecord{
		Version:        Version(ver),
		PromisedBallot: Ballot{Number: pn, Leader: pl},
		AcceptedPValue: PValue{Ballot: Ballot{Number: an, Leader: al}, Value: av},
	}, nil
}

// EncodeLearnedRecord serializes the persisted layout for a learned
// slot: value_bytes || version, where version is an 8-byte big-endian
// suffix (not length-prefixed, since it's always the trailing 8
// bytes of the record).
func EncodeLearnedRecord(r LearnedRecord) []byte {
	out := make([]byte, 0, len(r.Value)+8)
	out = append(out, r.Value...)
	var suffix [8]byte
	putU64(suffix[:], uint64(r.Version))
	out = append(out, suffix[:]...)
	return out
}

// DecodeLearnedRecord is the inverse of EncodeLearnedRecord.
func DecodeLearnedRecord(body []byte) (LearnedRecord, error) {
	if len(body) < 8 {
		return LearnedRecord{}, ErrDecode
	}
	split := len(body) - 8
	value := make([]byte, split)
	copy(value, body[:split])
	ver := u64At(body[split:])
	return LearnedRecord{Value: value, Version: Version(ver)}, nil
}

func putU64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func u64At(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
