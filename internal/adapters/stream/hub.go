package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
)

// Command is a client request waiting to be executed on the simulation goroutine
type Command struct {
	ClientID string
	Ref      string
	Request  mediator.Request
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub streams queue events to websocket clients and collects their commands.
//
// Clients never touch the simulation directly: their messages become Commands
// on a channel the driver loop executes through the mediator, and results come
// back with Reply. A client that cannot keep up with the event stream is dropped.
type Hub struct {
	session      string
	sendBuffer   int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu       sync.RWMutex
	clients  map[string]*client
	nextID   atomic.Uint64
	commands chan Command
}

// NewHub creates a hub for one session
func NewHub(session string, sendBuffer int, writeTimeout time.Duration) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		session:      session,
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*client),
		commands: make(chan Command, 64),
	}
}

// Commands yields client requests in arrival order
func (h *Hub) Commands() <-chan Command {
	return h.commands
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements events.Observer by broadcasting the event
func (h *Hub) Notify(ctx context.Context, e events.Event) {
	payload, err := json.Marshal(Envelope{Type: TypeEvent, Event: &e})
	if err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Failed to encode event", map[string]interface{}{
			"event": string(e.Type),
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logging.LoggerFromContext(ctx).Log("WARNING", "Dropping slow stream client", map[string]interface{}{"client": c.id})
		h.remove(c)
	}
}

// Execute sends the command through the mediator and replies to its client.
// Call it from the goroutine that drives the simulation.
func (h *Hub) Execute(ctx context.Context, m mediator.Mediator, cmd Command) {
	resp, err := m.Send(ctx, cmd.Request)
	h.Reply(cmd.ClientID, cmd.Ref, resp, err)
}

// Reply sends a request outcome to one client
func (h *Hub) Reply(clientID, ref string, result interface{}, err error) {
	env := Envelope{Type: TypeResult, Ref: ref, Result: result}
	if err != nil {
		env = Envelope{Type: TypeError, Ref: ref, Error: err.Error()}
	}
	h.sendTo(clientID, env)
}

func (h *Hub) sendTo(clientID string, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.remove(c)
	}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   fmt.Sprintf("C%d", h.nextID.Add(1)),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// Handler upgrades the request and serves the client until it disconnects
func (h *Hub) Handler(ctx context.Context) http.HandlerFunc {
	logger := logging.LoggerFromContext(ctx)

	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		c := h.add(conn)
		defer h.remove(c)
		logger.Log("INFO", "Stream client connected", map[string]interface{}{"client": c.id, "remote": r.RemoteAddr})

		h.sendTo(c.id, Envelope{Type: TypeHello, Session: h.session})
		go h.writeLoop(c)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Log("DEBUG", "Stream client disconnected", map[string]interface{}{"client": c.id})
				return
			}

			var in ClientMessage
			if err := json.Unmarshal(msg, &in); err != nil {
				h.sendTo(c.id, Envelope{Type: TypeError, Error: "malformed message"})
				continue
			}
			req, err := in.ToRequest()
			if err != nil {
				h.sendTo(c.id, Envelope{Type: TypeError, Ref: in.Ref, Error: err.Error()})
				continue
			}
			select {
			case h.commands <- Command{ClientID: c.id, Ref: in.Ref, Request: req}:
			default:
				h.sendTo(c.id, Envelope{Type: TypeError, Ref: in.Ref, Error: "server busy"})
			}
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		c.close()
	}
}

// Serve listens on host:port and serves the hub at path until ctx is cancelled
func (h *Hub) Serve(ctx context.Context, host string, port int, path string) error {
	if path == "" {
		path = "/events"
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	mux := http.NewServeMux()
	mux.Handle(path, h.Handler(ctx))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.LoggerFromContext(ctx).Log("INFO", "Event stream listening", map[string]interface{}{"addr": addr, "path": path})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("event stream: %w", err)
	case <-ctx.Done():
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
