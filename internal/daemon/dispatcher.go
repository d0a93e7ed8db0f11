package daemon

import (
	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/paxos"
	"github.com/rescrv/pocdb/internal/wire"
)

// Handle routes one decoded message to its handler. sender is the
// transport's claim about who sent it (or ctx.Self, for a message a
// WSM addressed to itself). Handle never blocks on a reply: every
// protocol message here is answered, if at all, by sending a reply
// message back out, not by returning a value to the caller.
func Handle(ctx *Context, sender config.HostID, tag wire.Tag, body []byte) {
	switch tag {
	case wire.TagPrepare:
		handlePrepare(ctx, sender, body)
	case wire.TagPromise:
		handlePromise(ctx, sender, body)
	case wire.TagAccept:
		handleAccept(ctx, sender, body)
	case wire.TagAccepted:
		handleAccepted(ctx, sender, body)
	case wire.TagLearn:
		handleLearn(ctx, sender, body)
	case wire.TagRetry:
		handleRetry(ctx, sender, body)
	default:
		logging.Errorf("daemon: unexpected tag %s from %s on peer channel", tag, sender.Letter())
	}
}

func handlePrepare(ctx *Context, sender config.HostID, body []byte) {
	msg, err := wire.DecodePrepare(body)
	if err != nil {
		logging.Errorf("daemon: decode prepare from %s: %v", sender.Letter(), err)
		return
	}
	reply, err := paxos.HandlePrepare(ctx.DM, sender, msg.Key, msg.Version, msg.Ballot)
	if err != nil {
		logging.Errorf("daemon: handle prepare for %q: %v", msg.Key, err)
		return
	}
	ctx.SendTo(sender, wire.TagPromise, reply.Encode())
}

func handleAccept(ctx *Context, sender config.HostID, body []byte) {
	msg, err := wire.DecodeAccept(body)
	if err != nil {
		logging.Errorf("daemon: decode accept from %s: %v", sender.Letter(), err)
		return
	}
	ok, reply, err := paxos.HandleAccept(ctx.DM, msg.Key, msg.Version, msg.Ballot, msg.PValue)
	if err != nil {
		logging.Errorf("daemon: handle accept for %q: %v", msg.Key, err)
		return
	}
	if ok {
		ctx.SendTo(sender, wire.TagAccepted, reply.Encode())
		return
	}
	ctx.SendTo(sender, wire.TagRetry, wire.Retry{Key: msg.Key}.Encode())
}

func handleLearn(ctx *Context, sender config.HostID, body []byte) {
	msg, err := wire.DecodeLearn(body)
	if err != nil {
		logging.Errorf("daemon: decode learn from %s: %v", sender.Letter(), err)
		return
	}
	if err := paxos.HandleLearn(ctx.DM, msg.Key, msg.Version, msg.Value); err != nil {
		logging.Errorf("daemon: handle learn for %q: %v", msg.Key, err)
		return
	}
	if ctx.OnLearn != nil {
		ctx.OnLearn(msg.Key, msg.Value)
	}
}

func handlePromise(ctx *Context, sender config.HostID, body []byte) {
	msg, err := wire.DecodePromise(body)
	if err != nil {
		logging.Errorf("daemon: decode promise from %s: %v", sender.Letter(), err)
		return
	}
	w := ctx.Keys.Acquire(msg.Key)
	w.Phase1b(sender, msg.Version, msg.PromisedBallot, msg.AcceptedPValue)
	ctx.Keys.Release(msg.Key)
}

func handleAccepted(ctx *Context, sender config.HostID, body []byte) {
	msg, err := wire.DecodeAccepted(body)
	if err != nil {
		logging.Errorf("daemon: decode accepted from %s: %v", sender.Letter(), err)
		return
	}
	w := ctx.Keys.Acquire(msg.Key)
	w.Phase2b(sender, msg.Version, msg.Ballot)
	ctx.Keys.Release(msg.Key)
}

func handleRetry(ctx *Context, _ config.HostID, body []byte) {
	msg, err := wire.DecodeRetry(body)
	if err != nil {
		logging.Errorf("daemon: decode retry: %v", err)
		return
	}
	w := ctx.Keys.Acquire(msg.Key)
	w.Retry()
	ctx.Keys.Release(msg.Key)
}
