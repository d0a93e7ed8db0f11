package monitor

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/kennygrant/sanitize"

	"github.com/rescrv/pocdb/client"
	"github.com/rescrv/pocdb/internal/logging"
)

// connection wraps one websocket client: the teacher's demoapp
// connection struct, generalized to carry a handle back to the
// cluster Client instead of the global package-level ck it closed
// over.
type connection struct {
	ws   *websocket.Conn
	send chan []byte
	cl   *client.Client
}

// reader relays "key|value" text commands off the socket into a
// cluster Put, matching the demoapp's "hello := strings.Split(...,
// "|"); ck.Put(hello[0], hello[1])" command channel — every inbound
// message is HTML-sanitized first, since it never becomes trusted
// just because it arrived over an admin socket.
func (c *connection) reader() {
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		parts := strings.SplitN(sanitize.HTML(string(message)), "|", 2)
		if len(parts) != 2 {
			logging.Errorf("monitor: malformed command %q", message)
			continue
		}
		if err := c.cl.Put([]byte(parts[0]), []byte(parts[1])); err != nil {
			logging.Errorf("monitor: put from socket command: %v", err)
		}
	}
	c.ws.Close()
}

func (c *connection) writer() {
	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	c.ws.Close()
}

var upgrader = &websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Errorf("monitor: websocket upgrade: %v", err)
		return
	}
	c := &connection{send: make(chan []byte, 256), ws: ws, cl: s.client}
	s.hub.register <- c
	defer func() { s.hub.unregister <- c }()
	go c.writer()
	c.reader()
}
