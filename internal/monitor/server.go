// Package monitor is the ambient admin surface described for every
// replica: a small martini HTTP app that serves a live status page
// and a websocket feed of learned decrees, plus a sanitized text
// command channel for issuing Puts from the page. It is pure
// observability — nothing here participates in the protocol, and a
// replica with its monitor unreachable keeps acting as an acceptor/
// learner/proposer exactly as before.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-martini/martini"
	"github.com/martini-contrib/render"

	"github.com/rescrv/pocdb/client"
	"github.com/rescrv/pocdb/internal/config"
)

// Server is one replica's monitor endpoint.
type Server struct {
	self   config.HostID
	client *client.Client
	hub    *Hub
	stop   chan struct{}
}

// New builds a Server. client is used only to satisfy Puts submitted
// through the websocket command channel; the monitor never reads or
// writes the durable map directly.
func New(self config.HostID, cl *client.Client) *Server {
	return &Server{self: self, client: cl, hub: NewHub(), stop: make(chan struct{})}
}

// NotifyLearned feeds a learned decree into the live status feed. The
// daemon calls this from its learn handler; a monitor with no
// listeners connected just drops it.
func (s *Server) NotifyLearned(key, value []byte) {
	payload, err := json.Marshal(struct {
		Host  string `json:"host"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}{Host: s.self.Letter(), Key: string(key), Value: string(value)})
	if err != nil {
		return
	}
	s.hub.Broadcast(payload)
}

// Serve runs the HTTP server on bindAddr until runCtx is canceled.
// templateDir points at the directory containing index.tmpl, passed
// through to render.Options.Directory since martini-contrib/render
// otherwise assumes "templates" relative to the process's working
// directory.
func (s *Server) Serve(runCtx context.Context, bindAddr, templateDir string) error {
	go s.hub.Run(s.stop)

	m := martini.Classic()
	m.Use(render.Renderer(render.Options{Directory: templateDir}))

	m.Get("/", func(r render.Render) {
		r.HTML(200, "index", map[string]string{"host": s.self.Letter()})
	})
	m.Get("/ws", s.wsHandler)

	srv := &http.Server{Addr: bindAddr, Handler: m}
	go func() {
		<-runCtx.Done()
		close(s.stop)
		srv.Close()
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
