package paxos

import (
	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/wire"
)

// Acceptor is stateless in memory; every operation reads and writes
// through a DurableMap. There is no struct to construct — these are
// plain functions over a durable map handle, matching the "proposer/
// acceptor/learner are capability sets of the daemon context" design
// note rather than separate objects.

// Load fetches the acceptor record for key, folding in the learned
// record: if the learned version equals the loaded acceptor version,
// that decree is already closed, so the acceptor implicitly advances
// to the next version with a fresh (sentinel) promise and accepted
// value. This lets the acceptor move to the next decree without an
// explicit message.
func Load(dm storage.DurableMap, key []byte) (wire.AcceptorRecord, error) {
	rec := wire.ZeroAcceptorRecord
	raw, ok, err := dm.Get(acceptorSlot(key))
	if err != nil {
		return wire.AcceptorRecord{}, err
	}
	if ok {
		rec, err = wire.DecodeAcceptorRecord(raw)
		if err != nil {
			return wire.AcceptorRecord{}, err
		}
	}

	lraw, lok, err := dm.Get(learnedSlot(key))
	if err != nil {
		return wire.AcceptorRecord{}, err
	}
	if lok {
		learned, err := wire.DecodeLearnedRecord(lraw)
		if err != nil {
			return wire.AcceptorRecord{}, err
		}
		if learned.Version == rec.Version {
			rec = wire.AcceptorRecord{
				Version:        rec.Version + 1,
				PromisedBallot: wire.Sentinel,
				AcceptedPValue: wire.SentinelPValue,
			}
		}
	}
	return rec, nil
}

// Store synchronously persists the acceptor record for key.
func Store(dm storage.DurableMap, key []byte, rec wire.AcceptorRecord) error {
	return dm.Put(acceptorSlot(key), wire.EncodeAcceptorRecord(rec))
}

// HandlePrepare answers a phase-1a message. sender is the transport's
// untrusted claim about who sent it, used only to check that the
// proposer is naming itself as ballot.Leader — never for
// authorization, since this is an unauthenticated cluster.
func HandlePrepare(dm storage.DurableMap, sender config.HostID, key []byte, ver wire.Version, ballot wire.Ballot) (wire.Promise, error) {
	cur, err := Load(dm, key)
	if err != nil {
		return wire.Promise{}, err
	}

	accept := uint64(sender) == ballot.Leader && ballot.Greater(cur.PromisedBallot) && ver >= cur.Version
	if accept {
		cur.Version = ver
		cur.PromisedBallot = ballot
		if err := Store(dm, key, cur); err != nil {
			return wire.Promise{}, err
		}
	}

	return wire.Promise{
		Key:            key,
		Version:        cur.Version,
		PromisedBallot: cur.PromisedBallot,
		AcceptedPValue: cur.AcceptedPValue,
	}, nil
}

// HandleAccept answers a phase-2a message. ok is true iff the
// acceptor accepted the value, in which case the caller should reply
// with Accepted; otherwise the caller should reply with Retry,
// telling the proposer to abandon this round.
func HandleAccept(dm storage.DurableMap, key []byte, ver wire.Version, ballot wire.Ballot, pvalue wire.PValue) (ok bool, reply wire.Accepted, err error) {
	cur, err := Load(dm, key)
	if err != nil {
		return false, wire.Accepted{}, err
	}

	if ver != cur.Version || ballot != cur.PromisedBallot {
		return false, wire.Accepted{}, nil
	}

	cur.AcceptedPValue = pvalue
	if err := Store(dm, key, cur); err != nil {
		return false, wire.Accepted{}, err
	}
	return true, wire.Accepted{Key: key, Version: ver, Ballot: ballot}, nil
}
