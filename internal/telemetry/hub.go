// Package telemetry streams scheduler counters to websocket clients.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voxelstream/internal/streaming"
)

// Snapshot is one telemetry frame.
type Snapshot struct {
	Session  string          `json:"session"`
	Time     time.Time       `json:"time"`
	Observer [3]float32      `json:"observer"`
	Chunk    [3]int          `json:"chunk"`
	Stats    streaming.Stats `json:"stats"`
	// Profile holds the last frame's tracked sections in milliseconds.
	Profile map[string]float64 `json:"profile,omitempty"`
}

// Source produces the current snapshot. It is called from the hub's
// goroutine and must be safe for that.
type Source func() Snapshot

type client struct {
	out chan []byte
}

// Hub fans snapshots out to every connected client at a fixed interval.
type Hub struct {
	source   Source
	interval time.Duration
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub sampling source every interval.
func NewHub(source Source, interval time.Duration, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Hub{
		source:   source,
		interval: interval,
		log:      log.Named("telemetry"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Routes returns a mux serving /ws and /stats.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.WSHandler())
	mux.HandleFunc("/stats", h.StatsHandler())
	return mux
}

// StatsHandler serves a single snapshot as JSON.
func (h *Hub) StatsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(h.source())
	}
}

// WSHandler upgrades the connection and registers it for broadcasts.
// Clients only listen; anything they send is discarded.
func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{out: make(chan []byte, 4)}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		h.log.Debug("client connected", zap.String("remote", r.RemoteAddr))
		defer func() {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			h.log.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: detect close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Broadcast encodes s and queues it for every client. Slow clients miss
// frames rather than stall the hub.
func (h *Hub) Broadcast(s Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- b:
		default:
		}
	}
	return nil
}

// Run broadcasts a snapshot every interval until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if h.Clients() == 0 {
				continue
			}
			if err := h.Broadcast(h.source()); err != nil {
				h.log.Warn("encode snapshot failed", zap.Error(err))
			}
		}
	}
}

// Serve listens on addr and runs the hub until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go h.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.Info("telemetry listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
