package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/jthawme/spotify-ambient-display/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Message envelope types sent to viewers.
const (
	TypeState  = "state"
	TypeNotice = "notice"
	TypeEvent  = "event"
)

// Envelope is the wire shape of every message fanned out to viewers.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	data []byte
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub manages the WebSocket connection registry and fans messages out to
// every connected viewer identically.
type Hub struct {
	cmdCh      chan hubCmd
	clock      clockwork.Clock
	clients    map[*websocket.Conn]*clientWriter
	maxClients int
	done       chan struct{}
}

// New creates a hub. maxClients limits concurrent viewers (prevents
// resource exhaustion).
func New(clock clockwork.Clock, maxClients int) *Hub {
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clock:      clock,
		clients:    make(map[*websocket.Conn]*clientWriter),
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a viewer connection. Returns an error only if the viewer
// limit is reached or the hub is stuck.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a viewer connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// ClientCount returns the number of currently connected viewers.
// Returns -1 if the command times out.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Broadcast marshals an envelope and delivers it to every connected viewer.
func (h *Hub) Broadcast(messageType string, payload any) {
	data, err := json.Marshal(Envelope{Type: messageType, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "type", messageType, "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{data: data}
}

// Stop shuts down the hub, closing all viewer connections. Blocks until the
// hub goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		close(h.done)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connection)
		case broadcastCmd:
			h.handleBroadcast(c.data)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting viewer: max clients reached", "max_clients", h.maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", h.maxClients)
		return
	}

	cw := newClientWriter(c.connection, h.clock)
	h.clients[c.connection] = cw
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Viewer registered", "client_id", cw.id.String(), "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Viewer unregistered", "client_id", cw.id.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(data []byte) {
	var slow []*websocket.Conn
	for conn, writer := range h.clients {
		select {
		case writer.sendChannel <- data:
			metrics.HubMessagesSentTotal.Inc()
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		if cw, exists := h.clients[conn]; exists {
			slog.Warn("Disconnecting slow viewer", "client_id", cw.id.String())
		}
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients))
	h.closeAllClients("Server shutting down")
}

func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}
