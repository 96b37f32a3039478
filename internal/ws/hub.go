package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/tiacalc/tiacalc/internal/api"
	"github.com/tiacalc/tiacalc/internal/metrics"
	"github.com/tiacalc/tiacalc/pkg/logx"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxFrameBytes bounds one inbound score request.
	maxFrameBytes = 64 << 10
)

// Event names.
const (
	EventPolicy = "policy"
	EventResult = "result"
	EventError  = "error"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Hub manages WebSocket clients, answers their score requests and fans out
// policy updates.
type Hub struct {
	api       *api.Handler
	broadcast chan []byte

	mu      sync.Mutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that scores requests through h.
func New(h *api.Handler) *Hub {
	return &Hub{
		api:       h,
		broadcast: make(chan []byte, 1),
		clients:   make(map[*client]struct{}),
	}
}

// Run delivers broadcasts to connected clients. It blocks until ctx is
// cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				h.enqueueLocked(c, data)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastPolicy queues the current policy for every connected client.
// Call it after swapping the api handler's policy.
func (h *Hub) BroadcastPolicy() {
	data, err := h.policyMessage()
	if err != nil {
		slog.Error("ws: encode policy", logx.Error(err))
		return
	}
	// A newer policy replaces one still waiting to go out.
	for {
		select {
		case h.broadcast <- data:
			return
		default:
			select {
			case <-h.broadcast:
			default:
			}
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// The current policy is sent immediately on connect. Blocks until the
// connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.policyMessage(); err == nil {
		h.enqueue(c, data)
	}

	go c.writePump()
	h.readPump(c) // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("ws: client connected", logx.FieldRemoteAddr, c.conn.RemoteAddr().String())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) enqueue(c *client, data []byte) {
	h.mu.Lock()
	h.enqueueLocked(c, data)
	h.mu.Unlock()
}

// enqueueLocked hands data to c's writer, dropping the client if its buffer
// is full.
func (h *Hub) enqueueLocked(c *client, data []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.removeLocked(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) > 0 {
		slog.Info("ws: closing clients", logx.FieldClients, len(h.clients))
	}
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) policyMessage() ([]byte, error) {
	return json.Marshal(Message{Event: EventPolicy, Data: h.api.PolicyResponse()})
}

// reply scores one inbound frame.
func (h *Hub) reply(frame []byte) []byte {
	var env struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(frame, &env)

	msg := Message{Event: EventResult, ID: env.ID}
	resp, err := h.api.ScoreJSON(frame, metrics.SourceWS)
	if err != nil {
		msg.Event = EventError
		msg.Error = err.Error()
	} else {
		msg.Data = resp
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws: encode reply", logx.Error(err))
		return nil
	}
	return data
}

// readPump answers text frames and processes control messages (pong,
// close). Blocks until the connection closes.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})
	for {
		kind, frame, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage {
			continue
		}
		if data := h.reply(frame); data != nil {
			h.enqueue(c, data)
		}
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
