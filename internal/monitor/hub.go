package monitor

// Hub fans a broadcast out to every connected websocket client,
// grounded on the gorilla/websocket chat-room pattern the teacher's
// demoapp (src/demoapp/conn.go) is itself derived from: connections
// register/unregister over channels rather than a locked map, so the
// hub's own run loop is the only goroutine that ever touches the
// connection set.
type Hub struct {
	connections map[*connection]bool
	broadcast   chan []byte
	register    chan *connection
	unregister  chan *connection
}

// NewHub builds an idle hub. Call Run in its own goroutine before any
// connection is registered.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*connection]bool),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
	}
}

// Run drives the hub until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
			}
		case m := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.send <- m:
				default:
					delete(h.connections, c)
					close(c.send)
				}
			}
		case <-stop:
			return
		}
	}
}

// Broadcast queues message for delivery to every connected client.
// Best-effort: a full hub buffer drops the message rather than
// blocking whatever learned the value.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}
