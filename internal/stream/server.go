// Package stream publishes a particle field over WebSocket and feeds remote
// pointer and interaction events back into it.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/loader"
	"github.com/san-kum/ambient/internal/particles"
)

const DefaultInterval = 33 * time.Millisecond

type Field interface {
	Particles() []particles.Particle
	Bounds() particles.Bounds
	SetPointer(x, y float64, active bool)
}

type Emitter interface {
	Emit(name events.Name) int
}

type StatusSource interface {
	Status() loader.Status
}

type Config struct {
	Field    Field
	Events   Emitter      // optional
	Status   StatusSource // optional
	Interval time.Duration
	Logger   *zap.Logger
}

type Server struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader
	seq      atomic.Uint64

	mu      sync.RWMutex
	clients map[string]*conn
	closed  bool
	wg      sync.WaitGroup
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Field == nil {
		return nil, fmt.Errorf("stream: field is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*conn),
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"clients": s.Clients()})
	})
	return mux
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &conn{id: uuid.NewString(), ws: ws}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ws.Close()
		return
	}
	s.clients[c.id] = c
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info("client connected", zap.String("client", c.id), zap.String("remote", r.RemoteAddr))
	if err := c.writeJSON(Hello{Type: TypeHello, ClientID: c.id, Bounds: s.cfg.Field.Bounds()}); err != nil {
		s.drop(c)
		s.wg.Done()
		return
	}
	go s.readLoop(c)
}

func (s *Server) readLoop(c *conn) {
	defer s.wg.Done()
	defer s.drop(c)
	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("client read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if err := s.handle(msg); err != nil {
			_ = c.writeJSON(ErrorMessage{Type: TypeError, Error: err.Error()})
		}
	}
}

func (s *Server) handle(msg ClientMessage) error {
	switch msg.Type {
	case TypePointer:
		s.cfg.Field.SetPointer(msg.X, msg.Y, msg.Active)
		if s.cfg.Events != nil && msg.Active {
			s.cfg.Events.Emit(events.PointerMove)
		}
		return nil
	case TypeEvent:
		name, err := events.ParseName(msg.Name)
		if err != nil {
			return err
		}
		if s.cfg.Events != nil {
			s.cfg.Events.Emit(name)
		}
		return nil
	}
	return fmt.Errorf("stream: unknown message type %q", msg.Type)
}

func (s *Server) drop(c *conn) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()
	_ = c.close()
	if ok {
		s.log.Info("client disconnected", zap.String("client", c.id))
	}
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends one frame to every client and returns how many received
// it. Clients whose write fails are dropped.
func (s *Server) Broadcast() int {
	frame := Frame{
		Type:      TypeFrame,
		Seq:       s.seq.Add(1),
		Bounds:    s.cfg.Field.Bounds(),
		Particles: s.cfg.Field.Particles(),
	}
	if s.cfg.Status != nil {
		frame.Status = s.cfg.Status.Status().String()
	}
	data, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return 0
	}

	s.mu.RLock()
	targets := make([]*conn, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.writeMessage(websocket.TextMessage, data); err != nil {
			s.drop(c)
			continue
		}
		sent++
	}
	return sent
}

// Run broadcasts every interval until ctx ends, then closes all clients.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			s.Broadcast()
		}
	}
}

// Close disconnects every client and waits for their readers to exit.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*conn, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.close()
	}
	s.wg.Wait()
}
