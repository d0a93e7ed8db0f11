// Package wsm implements the Write State Machine: the per-key
// proposer half of the protocol. One WSM lives per key with a live
// write or in-flight round; it queues client writes, drives phase-1a/
// phase-2a rounds, tracks promises and accepts, and issues learn
// broadcasts — all under its own lock, re-entered on every inbound
// message rather than suspended as a coroutine.
package wsm

import (
	"bytes"
	"sync"
	"time"

	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/wire"
)

// Sender broadcasts a protocol message to host. It is fire-and-forget:
// implementations log their own transport errors rather than
// returning them, matching the "best-effort delivery" transport
// contract — a WSM never blocks waiting to learn whether a send
// landed.
type Sender interface {
	SendTo(host config.HostID, tag wire.Tag, body []byte)
}

// Clock returns a wallclock-derived timestamp used to mint ballot
// numbers. Exposed as a field so tests can inject a deterministic
// sequence instead of real time.
type Clock func() uint64

// RealClock is the default Clock: nanoseconds since the Unix epoch,
// matching the teacher's px.n() (time.Now().UnixNano()).
func RealClock() uint64 {
	return uint64(time.Now().UnixNano())
}

// redrive backoff bounds, per the re-drive timer design.
const (
	minRedrive = 50 * time.Millisecond
	maxRedrive = 2 * time.Second
)

type queueEntry struct {
	reply chan<- wire.ReturnCode
	value []byte
}

// WSM is the per-key proposer state described in the data model:
// queue, executingPaxos flag, leading ballot, promises/accepted sets,
// max_accepted PValue and version.
type WSM struct {
	key    []byte
	self   config.HostID
	topo   config.Topology
	sender Sender
	clock  Clock

	mu             sync.Mutex
	queue          []queueEntry
	executingPaxos bool
	leading        wire.Ballot
	promises       map[config.HostID]bool
	accepted       map[config.HostID]bool
	maxAccepted    wire.PValue
	version        wire.Version

	redriveTimer *time.Timer
	backoff      time.Duration
}

// New creates an idle WSM for key. Callers obtain WSMs through the
// per-key table (internal/keytable), not directly.
func New(key []byte, self config.HostID, topo config.Topology, sender Sender, clock Clock) *WSM {
	if clock == nil {
		clock = RealClock
	}
	return &WSM{
		key:      append([]byte{}, key...),
		self:     self,
		topo:     topo,
		sender:   sender,
		clock:    clock,
		promises: make(map[config.HostID]bool),
		accepted: make(map[config.HostID]bool),
	}
}

// Idle reports whether this WSM has no pending writes and no round in
// flight — the condition under which the per-key table may reclaim it.
func (w *WSM) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.executingPaxos && len(w.queue) == 0
}

// Write enqueues a client write and kicks the state machine. reply
// receives Success, at most once, when a round decides this write's
// value; nothing is sent when a round decides a different value and
// the write stays at the head of the queue for a later round. A nil
// reply is valid for writes that don't need an answer (internal use,
// tests).
func (w *WSM) Write(reply chan<- wire.ReturnCode, value []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = append(w.queue, queueEntry{reply: reply, value: value})
	w.advanceLocked()
}

// Phase1b records a phase-1a response (tag 'b').
func (w *WSM) Phase1b(from config.HostID, ver wire.Version, promised wire.Ballot, accepted wire.PValue) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if (w.version != 0 && ver > w.version) || promised.Greater(w.leading) {
		w.executingPaxos = false
		w.version = ver
		w.advanceLocked()
		return
	}

	w.version = ver
	if accepted.Ballot != wire.Sentinel && accepted.Ballot.Greater(w.maxAccepted.Ballot) {
		w.maxAccepted = accepted
	}
	w.promises[from] = true
	w.resetBackoff()
	w.advanceLocked()
}

// Phase2b records a phase-2a response (tag 'B'). A reply for a stale
// (version, ballot) is silently ignored — this is the mechanism by
// which retries stabilize.
func (w *WSM) Phase2b(from config.HostID, ver wire.Version, ballot wire.Ballot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ver != w.version || ballot != w.leading {
		return
	}
	w.accepted[from] = true
	w.resetBackoff()
	w.advanceLocked()
}

// Retry abandons the current round and bumps the version (tag 'R',
// sent by an acceptor that rejected our phase-2a).
func (w *WSM) Retry() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.executingPaxos = false
	w.version++
	w.advanceLocked()
}

func (w *WSM) resetBackoff() {
	w.backoff = minRedrive
}

// advanceLocked is the driver. Callers must hold w.mu.
func (w *WSM) advanceLocked() {
	w.cancelRedriveLocked()

	for {
		if !w.executingPaxos {
			if len(w.queue) == 0 {
				return
			}
			w.startRoundLocked()
		}

		if w.maxAccepted.Ballot.Greater(w.leading) {
			// A higher ballot has already accepted a value; we cannot
			// win this round. Abandon and try again at a fresh ballot.
			w.executingPaxos = false
			continue
		}

		if len(w.promises) < config.Quorum {
			for _, h := range w.topo.All() {
				if !w.promises[h] {
					w.sendPrepare(h)
				}
			}
			w.scheduleRedriveLocked()
			return
		}

		if len(w.accepted) < config.Quorum {
			w.maxAccepted.Ballot = w.leading
			for _, h := range w.topo.All() {
				if !w.accepted[h] {
					w.sendAccept(h)
				}
			}
			w.scheduleRedriveLocked()
			return
		}

		w.decideLocked()
		// loop: if the queue still has work, advanceLocked starts the
		// next round immediately.
	}
}

func (w *WSM) startRoundLocked() {
	w.executingPaxos = true
	w.leading = wire.Ballot{Number: w.clock(), Leader: uint64(w.self)}
	w.promises = make(map[config.HostID]bool)
	w.accepted = make(map[config.HostID]bool)
	w.maxAccepted = wire.PValue{Ballot: wire.Sentinel, Value: w.queue[0].value}
	w.resetBackoff()
}

func (w *WSM) decideLocked() {
	decidedVersion := w.version
	decidedValue := w.maxAccepted.Value
	for _, h := range w.topo.All() {
		w.sendLearn(h, decidedVersion, decidedValue)
	}
	w.executingPaxos = false
	w.version++

	if len(w.queue) > 0 && bytes.Equal(decidedValue, w.queue[0].value) {
		head := w.queue[0]
		w.queue = w.queue[1:]
		if head.reply != nil {
			select {
			case head.reply <- wire.Success:
			default:
			}
		}
	}
	// Otherwise the client's write was not decided this round — it
	// stays at the head of the queue for the next attempt.
}

func (w *WSM) sendPrepare(host config.HostID) {
	body := wire.Prepare{Key: w.key, Version: w.version, Ballot: w.leading}.Encode()
	w.sender.SendTo(host, wire.TagPrepare, body)
}

func (w *WSM) sendAccept(host config.HostID) {
	body := wire.Accept{Key: w.key, Version: w.version, Ballot: w.leading, PValue: w.maxAccepted}.Encode()
	w.sender.SendTo(host, wire.TagAccept, body)
}

func (w *WSM) sendLearn(host config.HostID, ver wire.Version, value []byte) {
	body := wire.Learn{Key: w.key, Version: ver, Value: value}.Encode()
	w.sender.SendTo(host, wire.TagLearn, body)
}

// cancelRedriveLocked stops any pending re-drive timer; callers must
// hold w.mu. advanceLocked always has the latest information, so a
// stale scheduled redrive should not also fire.
func (w *WSM) cancelRedriveLocked() {
	if w.redriveTimer != nil {
		w.redriveTimer.Stop()
		w.redriveTimer = nil
	}
}

// scheduleRedriveLocked arms a re-drive at the current backoff and
// doubles the backoff for next time, capped at maxRedrive. It is the
// liveness aid that covers dropped messages: the re-drive only
// re-broadcasts the current phase's message to hosts not yet in the
// relevant set, never invents new protocol state.
func (w *WSM) scheduleRedriveLocked() {
	if w.backoff == 0 {
		w.backoff = minRedrive
	}
	backoff := w.backoff
	w.redriveTimer = time.AfterFunc(backoff, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.executingPaxos {
			return
		}
		logging.Debugf("wsm: re-drive for key %q after %s", w.key, backoff)
		w.advanceLocked()
	})
	w.backoff *= 2
	if w.backoff > maxRedrive {
		w.backoff = maxRedrive
	}
}
