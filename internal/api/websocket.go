package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/earthring/ninepatch/internal/compression"
	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/performance"
)

const (
	// Supported WebSocket protocol versions
	ProtocolVersion1 = "ninepatch-v1"

	// Default ping interval (30 seconds)
	defaultPingInterval = 30 * time.Second

	// Pong wait timeout (60 seconds)
	pongWait = 60 * time.Second

	// Write timeout (10 seconds)
	writeTimeout = 10 * time.Second

	maxMessageBytes = maxJSONBodyBytes
	sendBufferSize  = 64
)

// WebSocketConnection represents an active WebSocket connection
type WebSocketConnection struct {
	conn    *websocket.Conn
	version string
	send    chan []byte
	hub     *WebSocketHub
	closed  bool // send is closed; guarded by hub.mu
}

// WebSocketHub tracks active WebSocket connections.
type WebSocketHub struct {
	connections map[*WebSocketConnection]bool
	register    chan *WebSocketConnection
	unregister  chan *WebSocketConnection
	done        chan struct{}
	mu          sync.RWMutex
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ChunkMessage is the reply to a "build" message.
type ChunkMessage struct {
	Type string                       `json:"type"`
	ID   string                       `json:"id,omitempty"`
	Data *compression.CompressedChunk `json:"data"`
}

// WebSocketError represents an error message sent over WebSocket
type WebSocketError struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		connections: make(map[*WebSocketConnection]bool),
		register:    make(chan *WebSocketConnection),
		unregister:  make(chan *WebSocketConnection),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, closing
// the send channel of every remaining connection.
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			h.mu.Unlock()
			log.Printf("WebSocket connection registered: version=%s", conn.version)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				h.drop(conn)
			}
			h.mu.Unlock()
			log.Printf("WebSocket connection unregistered")

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for conn := range h.connections {
				h.drop(conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop forgets conn and closes its send channel. h.mu must be held.
func (h *WebSocketHub) drop(conn *WebSocketConnection) {
	delete(h.connections, conn)
	conn.closed = true
	close(conn.send)
}

// add registers conn. It reports false if the hub has stopped.
func (h *WebSocketHub) add(conn *WebSocketConnection) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// remove unregisters conn. It is a no-op once the hub has stopped.
func (h *WebSocketHub) remove(conn *WebSocketConnection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Count returns the number of registered connections.
func (h *WebSocketHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// WebSocketHandlers handles WebSocket connections
type WebSocketHandlers struct {
	hub      *WebSocketHub
	chunks   *ChunkHandlers
	profiler *performance.Profiler
	upgrader websocket.Upgrader
}

// NewWebSocketHandlers creates a new WebSocket handlers instance. The hub is
// not started; call Run on GetHub().
func NewWebSocketHandlers(cfg *config.Config, profiler *performance.Profiler) *WebSocketHandlers {
	allowedOrigins := cfg.CORS.AllowedOrigins

	return &WebSocketHandlers{
		hub:      NewWebSocketHub(),
		chunks:   NewChunkHandlers(cfg, profiler),
		profiler: profiler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || originAllowed(allowedOrigins, origin)
			},
		},
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	requestedVersions := r.Header.Get("Sec-WebSocket-Protocol")
	selectedVersion := h.negotiateVersion(requestedVersions)
	if selectedVersion == "" {
		log.Printf("WebSocket version negotiation failed: requested=%s", requestedVersions)
		http.Error(w, "Unsupported protocol version", http.StatusBadRequest)
		return
	}

	responseHeaders := http.Header{}
	if requestedVersions != "" {
		responseHeaders.Set("Sec-WebSocket-Protocol", selectedVersion)
	}

	conn, err := h.upgrader.Upgrade(w, r, responseHeaders)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := &WebSocketConnection{
		conn:    conn,
		version: selectedVersion,
		send:    make(chan []byte, sendBufferSize),
		hub:     h.hub,
	}

	if !h.hub.add(wsConn) {
		if err := conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
		return
	}

	go wsConn.writePump()
	go wsConn.readPump(h)
}

// negotiateVersion selects the highest supported protocol version
func (h *WebSocketHandlers) negotiateVersion(requested string) string {
	if requested == "" {
		return ProtocolVersion1
	}

	requestedVersions := strings.Split(requested, ",")
	for i := range requestedVersions {
		requestedVersions[i] = strings.TrimSpace(requestedVersions[i])
	}

	// Highest first
	supportedVersions := []string{ProtocolVersion1}

	for _, supported := range supportedVersions {
		for _, requested := range requestedVersions {
			if requested == supported {
				return supported
			}
		}
	}

	return ""
}

// readPump handles incoming messages from the WebSocket connection
func (c *WebSocketConnection) readPump(handlers *WebSocketHandlers) {
	defer func() {
		c.hub.remove(c)
		if err := c.conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.sendError("", "Invalid message format", "InvalidMessageFormat")
			continue
		}

		handlers.handleMessage(c, &msg)
	}
}

// writePump handles outgoing messages to the WebSocket connection. Each
// queued message is written as its own text frame.
func (c *WebSocketConnection) writePump() {
	ticker := time.NewTicker(defaultPingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Failed to set write deadline: %v", err)
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					log.Printf("Failed to write close message: %v", err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Failed to set write deadline for ping: %v", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queue marshals v and hands it to the write pump without blocking.
func (c *WebSocketConnection) queue(v interface{}, what string) {
	messageBytes, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", what, err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- messageBytes:
	default:
		log.Printf("Failed to send %s: channel full", what)
	}
}

// sendError sends an error message to the client
func (c *WebSocketConnection) sendError(id, errorMsg, code string) {
	c.queue(WebSocketError{
		Type:    "error",
		ID:      id,
		Error:   code,
		Message: errorMsg,
		Code:    code,
	}, "error message")
}

// handleMessage routes messages to appropriate handlers
func (h *WebSocketHandlers) handleMessage(conn *WebSocketConnection, msg *WebSocketMessage) {
	switch msg.Type {
	case "ping":
		h.handlePing(conn, msg)
	case "build":
		h.handleBuild(conn, msg)
	default:
		conn.sendError(msg.ID, "Unknown message type", "UnknownMessageType")
	}
}

// handlePing responds to ping messages
func (h *WebSocketHandlers) handlePing(conn *WebSocketConnection, msg *WebSocketMessage) {
	conn.queue(WebSocketMessage{Type: "pong", ID: msg.ID}, "pong")
}

// handleBuild encodes the chunk described by msg.Data and replies with a
// compressed chunk message.
func (h *WebSocketHandlers) handleBuild(conn *WebSocketConnection, msg *WebSocketMessage) {
	var req BuildRequest
	if len(msg.Data) == 0 {
		conn.sendError(msg.ID, "Message data is required", "InvalidRequest")
		return
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		conn.sendError(msg.ID, "Invalid build request", "InvalidRequest")
		return
	}

	chunk, order, apiErr := h.chunks.build(&req)
	if apiErr != nil {
		conn.sendError(msg.ID, apiErr.Message, apiErr.Code)
		return
	}

	op := h.profiler.Start("ws_compress")
	compressed, err := compression.FormatCompressedChunk(chunk, order)
	if err != nil {
		log.Printf("Failed to compress chunk: %v", err)
		conn.sendError(msg.ID, "Failed to compress chunk", "InternalError")
		return
	}
	op.Done(compressed.Size)

	conn.queue(ChunkMessage{Type: "chunk", ID: msg.ID, Data: compressed}, "chunk")
}

// GetHub returns the connection hub.
func (h *WebSocketHandlers) GetHub() *WebSocketHub {
	return h.hub
}
