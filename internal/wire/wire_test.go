package wire

import "bytes"

import "testing"

func TestPutRoundTrip(t *testing.T) {
	m := Put{Key: []byte("x"), Value: []byte("1")}
	got, err := DecodePut(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.Key, m.Key) || !bytes.Equal(got.Value, m.Value) {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, m)
	}
}

func TestDecodeGetRejectsEmptyBody(t *testing.T) {
	if _, err := DecodeGet(nil); err == nil {
		t.Fatalf("expected decode error for empty body")
	}
}

func TestPromiseRoundTrip(t *testing.T) {
	m := Promise{
		Key:            []byte("k"),
		Version:        7,
		PromisedBallot: Ballot{Number: 42, Leader: 3},
		AcceptedPValue: PValue{Ballot: Ballot{Number: 10, Leader: 1}, Value: []byte("v")},
	}
	got, err := DecodePromise(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != m.Version || got.PromisedBallot != m.PromisedBallot {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, m)
	}
	if !bytes.Equal(got.AcceptedPValue.Value, m.AcceptedPValue.Value) {
		t.Fatalf("pvalue mismatch")
	}
}

func TestAcceptRoundTrip(t *testing.T) {
	m := Accept{
		Key:     []byte("k"),
		Version: 1,
		Ballot:  Ballot{Number: 5, Leader: 2},
		PValue:  PValue{Ballot: Ballot{Number: 5, Leader: 2}, Value: []byte("hello")},
	}
	got, err := DecodeAccept(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Ballot != m.Ballot || !bytes.Equal(got.PValue.Value, m.PValue.Value) {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, m)
	}
}

func TestLearnRoundTripTruncated(t *testing.T) {
	m := Learn{Key: []byte("k"), Version: 3, Value: []byte("v")}
	enc := m.Encode()
	if _, err := DecodeLearn(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected decode error on truncated body")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	body := Get{Key: []byte("k")}.Encode()
	raw := Frame(TagGet, body)
	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Tag != TagGet {
		t.Fatalf("tag mismatch: got %v", env.Tag)
	}
	got, err := DecodeGet(env.Body)
	if err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if !bytes.Equal(got.Key, []byte("k")) {
		t.Fatalf("key mismatch")
	}
}

func TestBallotOrdering(t *testing.T) {
	low := Ballot{Number: 1, Leader: 9}
	high := Ballot{Number: 1, Leader: 10}
	if !low.Less(high) {
		t.Fatalf("expected tie on Number to be broken by Leader")
	}
	if Sentinel.Greater(low) {
		t.Fatalf("sentinel must compare below any real ballot")
	}
}

func TestPutReplyAndGetReply(t *testing.T) {
	pr := PutReply{Code: Success}
	gotPr, err := DecodePutReply(pr.Encode())
	if err != nil || gotPr.Code != Success {
		t.Fatalf("put reply roundtrip failed: %v %+v", err, gotPr)
	}

	gr := GetReply{Code: NotFound, Value: nil}
	gotGr, err := DecodeGetReply(gr.Encode())
	if err != nil || gotGr.Code != NotFound || len(gotGr.Value) != 0 {
		t.Fatalf("get reply roundtrip failed: %v %+v", err, gotGr)
	}
}
