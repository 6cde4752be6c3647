package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-2048/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 64
)

// Event names.
const (
	EventState = "state"
	EventError = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is sent to clients.
type Message struct {
	Event string            `json:"event"`
	State *session.Snapshot `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

// Command is received from clients.
type Command struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
}

// CommandHandler applies a client command. The returned message, if any, is
// sent back to that client only.
type CommandHandler func(cmd Command) *Message

// Client is one websocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	initial []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64

	handler CommandHandler
	logger  *log.Logger
}

// NewHub creates a hub. handler may be nil, in which case incoming messages
// are ignored.
func NewHub(handler CommandHandler, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handler:    handler,
		logger:     logger,
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled.
// All client connections are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.unregisterClient(client)
		}
	}()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case data := <-h.broadcast:
			h.broadcastMessage(data)

		case dm := <-h.direct:
			h.sendTo(dm.client, dm.data)

		case <-ctx.Done():
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ServeWS upgrades the request and registers the client. initial is the
// first message the client receives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial Message) {
	client, err := h.Upgrade(w, r)
	if err != nil {
		return
	}
	h.Register(client, initial)
}

// Upgrade turns the request into a websocket client that is not yet
// registered. On failure the error has already been reported to the peer.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil, err
	}

	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}, nil
}

// Register hands client to the hub with initial as its first message and
// starts its pumps. Broadcasts are unbuffered, so every broadcast that
// returned before Register is called has already been delivered to the
// clients registered at that time; the new client only sees later ones.
func (h *Hub) Register(client *Client, initial Message) {
	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Error("failed to marshal initial message", "error", err)
		client.conn.Close()
		return
	}
	client.initial = data

	select {
	case h.register <- client:
	case <-h.done:
		client.conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Broadcast sends msg to every connected client. It returns once the hub
// goroutine has taken the message, or immediately after the hub stopped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// BroadcastState sends a state snapshot to every connected client.
func (h *Hub) BroadcastState(snap session.Snapshot) {
	h.Broadcast(Message{Event: EventState, State: &snap})
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.count.Store(int64(len(h.clients)))
	client.send <- client.initial

	h.logger.Debug("client registered", "remote", client.remote(), "clients", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))

	h.logger.Debug("client unregistered", "remote", client.remote(), "clients", len(h.clients))
}

func (h *Hub) broadcastMessage(data []byte) {
	for client := range h.clients {
		h.sendTo(client, data)
	}
}

func (h *Hub) sendTo(client *Client, data []byte) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		// Client's send buffer is full; drop it
		h.unregisterClient(client)
	}
}

func (c *Client) remote() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// reply queues a message for this client only. It goes through the hub so
// the send channel is never written after it is closed.
func (c *Client) reply(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	case <-c.hub.done:
	}
}

// readPump reads client commands until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reply(&Message{Event: EventError, Error: "invalid message"})
			continue
		}
		if c.hub.handler == nil {
			continue
		}
		if msg := c.hub.handler(cmd); msg != nil {
			c.reply(msg)
		}
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
