package daemon

import (
	"context"
	"errors"

	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/transport"
	"github.com/rescrv/pocdb/internal/wire"
)

// Serve pulls messages off the peer transport until ctx is canceled
// or the transport closes, dispatching each on its own goroutine so a
// slow handler (a full WSM round doing several sends) never holds up
// delivery of the next message.
func Serve(runCtx context.Context, d *Context) error {
	go func() {
		<-runCtx.Done()
		d.Peers.Close()
	}()

	for {
		sender, raw, err := d.Peers.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			return err
		}
		env, err := wire.DecodeEnvelope(raw)
		if err != nil {
			logging.Errorf("daemon: decode envelope from %s: %v", sender.Letter(), err)
			continue
		}
		go Handle(d, sender, env.Tag, env.Body)
	}
}
