package paxos

import (
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/wire"
)

// LoadLearned fetches the learned record for key, if any.
func LoadLearned(dm storage.DurableMap, key []byte) (wire.LearnedRecord, bool, error) {
	raw, ok, err := dm.Get(learnedSlot(key))
	if err != nil || !ok {
		return wire.LearnedRecord{}, false, err
	}
	rec, err := wire.DecodeLearnedRecord(raw)
	if err != nil {
		return wire.LearnedRecord{}, false, err
	}
	return rec, true, nil
}

// HandleLearn applies a learn message, persisting (value, ver) under
// the learned slot — but only if ver is strictly greater than the
// version already stored there. Unlike the version suffix's original
// unconditional-overwrite behavior, this guard is required: an
// out-of-order delivery of an older learn message must never regress
// the learned record, since the acceptor's Load relies on the
// learned version to detect that a decree has closed.
func HandleLearn(dm storage.DurableMap, key []byte, ver wire.Version, value []byte) error {
	cur, ok, err := LoadLearned(dm, key)
	if err != nil {
		return err
	}
	if ok && cur.Version >= ver {
		return nil
	}
	return dm.Put(learnedSlot(key), wire.EncodeLearnedRecord(wire.LearnedRecord{Value: value, Version: ver}))
}

// Get implements the read path: fetch the learned slot and return its
// value. found is false for a key that has never been learned on this
// replica.
func Get(dm storage.DurableMap, key []byte) (value []byte, found bool, err error) {
	rec, ok, err := LoadLearned(dm, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec.Value, true, nil
}
