package daemon

import (
	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/wire"
)

// SendTo implements wsm.Sender. A message addressed to this host is
// delivered by calling Handle directly in a new goroutine rather than
// round-tripping through the transport — the teacher's Paxos.call
// plays the same trick, intercepting any RPC addressed to px.me and
// invoking the handler in-process instead of dialing itself. Every
// other destination goes out over the peer transport, fire-and-forget.
func (ctx *Context) SendTo(host config.HostID, tag wire.Tag, body []byte) {
	if host == ctx.Self {
		go Handle(ctx, ctx.Self, tag, body)
		return
	}
	if err := ctx.Peers.Send(host, wire.Frame(tag, body)); err != nil {
		logging.Debugf("daemon: send %s to %s: %v", tag, host.Letter(), err)
	}
}
