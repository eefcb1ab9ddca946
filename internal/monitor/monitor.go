// Package monitor implements the Monitor/Admin Surface (A4): a
// read-only HTTP and WebSocket server exposing liveness, Prometheus
// metrics, and a broadcast feed of Scene state changes. It cannot inject
// NCI commands or RF frames.
//
// Grounded on the teacher's server.WebsocketClientManager (a
// map[*websocket.Conn]bool guarded by a mutex, with a broadcast method
// that drops and closes any client whose write fails).
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dotside-studios/nci-simulator/internal/metrics"
)

// Event is one Scene state change broadcast to every attached monitor.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventDeviceConnected    = "device_connected"
	EventDeviceDisconnected = "device_disconnected"
	EventNotificationSent   = "notification_sent"
)

// broadcaster tracks attached monitor WebSocket connections.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	log     *log.Logger
}

func newBroadcaster(logger *log.Logger) *broadcaster {
	return &broadcaster{clients: make(map[*websocket.Conn]bool), log: logger}
}

func (b *broadcaster) register(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[conn] = true
}

func (b *broadcaster) unregister(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
}

func (b *broadcaster) broadcast(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteJSON(event); err != nil {
			b.log.Printf("[monitor] websocket write error: %v", err)
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// Server is the admin HTTP server. It is pure observability: nothing it
// exposes can mutate simulator state.
type Server struct {
	httpServer *http.Server
	broadcast  *broadcaster
	upgrader   websocket.Upgrader
	log        *log.Logger
}

// New builds a Server listening on addr, exposing /healthz, /metrics
// (backed by m's registry), and /ws.
func New(addr string, m *metrics.Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		broadcast: newBroadcaster(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger,
	}

	router := chi.NewRouter()
	router.Get("/healthz", s.handleHealthz)
	router.Get("/ws", s.handleWS)
	if m != nil {
		router.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[monitor] websocket upgrade failed: %v", err)
		return
	}
	s.broadcast.register(conn)
	defer func() {
		s.broadcast.unregister(conn)
		conn.Close()
	}()

	// a monitor connection is read-only; drain and discard any inbound
	// traffic so gorilla/websocket's pong handling keeps working, exiting
	// once the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends event to every attached monitor connection.
func (s *Server) Broadcast(event Event) {
	s.broadcast.broadcast(event)
}

// ListenAndServe runs the admin HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
