package paxos

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/wire"
)

func TestLoadAbsentKeyReturnsZero(t *testing.T) {
	dm := storage.NewMemory()
	rec, err := Load(dm, []byte("x"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(rec, wire.ZeroAcceptorRecord) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestHandlePrepareRejectsWrongLeader(t *testing.T) {
	dm := storage.NewMemory()
	ballot := wire.Ballot{Number: 5, Leader: uint64(config.HostA)}
	// sender claims to be HostB while the ballot names HostA as leader.
	reply, err := HandlePrepare(dm, config.HostB, []byte("x"), 0, ballot)
	if err != nil {
		t.Fatalf("handle prepare: %v", err)
	}
	if reply.PromisedBallot != wire.Sentinel {
		t.Fatalf("expected rejection to leave promised ballot at sentinel, got %v", reply.PromisedBallot)
	}
}

func TestHandlePrepareAcceptsHigherBallot(t *testing.T) {
	dm := storage.NewMemory()
	b1 := wire.Ballot{Number: 5, Leader: uint64(config.HostA)}
	reply, err := HandlePrepare(dm, config.HostA, []byte("x"), 0, b1)
	if err != nil {
		t.Fatalf("handle prepare: %v", err)
	}
	if reply.PromisedBallot != b1 {
		t.Fatalf("expected promise at %v, got %v", b1, reply.PromisedBallot)
	}

	b0 := wire.Ballot{Number: 1, Leader: uint64(config.HostA)}
	reply2, err := HandlePrepare(dm, config.HostA, []byte("x"), 0, b0)
	if err != nil {
		t.Fatalf("handle prepare: %v", err)
	}
	if reply2.PromisedBallot != b1 {
		t.Fatalf("lower ballot must not move the promise: got %v want %v", reply2.PromisedBallot, b1)
	}
}

func TestHandleAcceptRequiresMatchingPromise(t *testing.T) {
	dm := storage.NewMemory()
	key := []byte("x")
	ballot := wire.Ballot{Number: 5, Leader: uint64(config.HostA)}
	if _, err := HandlePrepare(dm, config.HostA, key, 0, ballot); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	ok, reply, err := HandleAccept(dm, key, 0, ballot, wire.PValue{Ballot: ballot, Value: []byte("v")})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !ok || reply.Ballot != ballot {
		t.Fatalf("expected accept to succeed, got ok=%v reply=%+v", ok, reply)
	}

	stale := wire.Ballot{Number: 1, Leader: uint64(config.HostA)}
	ok2, _, err := HandleAccept(dm, key, 0, stale, wire.PValue{Ballot: stale, Value: []byte("v2")})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if ok2 {
		t.Fatalf("expected stale ballot to be rejected with retry")
	}
}

func TestAcceptorAdvancesVersionAfterLearn(t *testing.T) {
	dm := storage.NewMemory()
	key := []byte("x")
	ballot := wire.Ballot{Number: 5, Leader: uint64(config.HostA)}
	if _, err := HandlePrepare(dm, config.HostA, key, 0, ballot); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, _, err := HandleAccept(dm, key, 0, ballot, wire.PValue{Ballot: ballot, Value: []byte("v")}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := HandleLearn(dm, key, 0, []byte("v")); err != nil {
		t.Fatalf("learn: %v", err)
	}

	rec, err := Load(dm, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Version != 1 {
		t.Fatalf("expected acceptor to advance to version 1, got %d", rec.Version)
	}
	if rec.PromisedBallot != wire.Sentinel {
		t.Fatalf("expected promised ballot to reset to sentinel, got %v", rec.PromisedBallot)
	}
}

func TestLearnIsVersionGuardedAgainstRegression(t *testing.T) {
	dm := storage.NewMemory()
	key := []byte("x")

	if err := HandleLearn(dm, key, 5, []byte("newer")); err != nil {
		t.Fatalf("learn: %v", err)
	}
	// an out-of-order delivery of an older learn message must not
	// overwrite the newer learned record.
	if err := HandleLearn(dm, key, 2, []byte("older")); err != nil {
		t.Fatalf("learn: %v", err)
	}

	value, found, err := Get(dm, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || !bytes.Equal(value, []byte("newer")) {
		t.Fatalf("expected learned record to stay at the newer value, got %q found=%v", value, found)
	}
}

// TestHandlePrepareAtHigherVersionAdvancesAcceptorVersion covers the
// "lost phase-2a" catch-up path: an acceptor that never saw the accept
// or learn for the current decree must still be able to join a later
// decree once a prepare names a strictly higher version, and a
// matching accept at that version must then succeed rather than being
// rejected forever by HandleAccept's version check.
func TestHandlePrepareAtHigherVersionAdvancesAcceptorVersion(t *testing.T) {
	dm := storage.NewMemory()
	key := []byte("x")
	ballot := wire.Ballot{Number: 5, Leader: uint64(config.HostA)}

	reply, err := HandlePrepare(dm, config.HostA, key, 3, ballot)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if reply.Version != 3 {
		t.Fatalf("expected promise to echo the requested version 3, got %d", reply.Version)
	}

	rec, err := Load(dm, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Version != 3 {
		t.Fatalf("expected the persisted acceptor version to advance to 3, got %d", rec.Version)
	}

	ok, acceptedReply, err := HandleAccept(dm, key, 3, ballot, wire.PValue{Ballot: ballot, Value: []byte("v")})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !ok {
		t.Fatalf("expected accept at the caught-up version to succeed")
	}
	if acceptedReply.Version != 3 {
		t.Fatalf("expected accepted reply at version 3, got %d", acceptedReply.Version)
	}
}

func TestGetOnUnseenKeyIsNotFound(t *testing.T) {
	dm := storage.NewMemory()
	_, found, err := Get(dm, []byte("missing"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected not-found")
	}
}
