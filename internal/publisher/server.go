package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"lobd/internal/batch"
	"lobd/internal/config"
)

// Server serves the publisher's HTTP surface: a /snapshot status endpoint
// and a /ws upgrade that hands new connections to the Hub. It reads book
// state through the batch driver rather than the raw OrderBook, since the
// driver is the only component synchronized with the book's single owner
// goroutine.
type Server struct {
	cfg    config.PublisherConfig
	symbol string
	driver *batch.Driver
	hub    *Hub
	server *http.Server
	logger *slog.Logger
}

// NewServer builds a publisher server for one symbol's book, reading
// through d. NewServer only wires the HTTP routes; Start launches the
// hub's Run loop and the listener.
func NewServer(cfg config.PublisherConfig, symbol string, d *batch.Driver, logger *slog.Logger) *Server {
	logger = logger.With("component", "publisher-server", "symbol", symbol)
	hub := NewHub(logger)

	s := &Server{cfg: cfg, symbol: symbol, driver: d, hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Hub returns the underlying notification hub so the batching driver can
// publish to it.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the hub and HTTP listener. Blocks until the server stops.
func (s *Server) Start() error {
	go s.hub.Run()

	s.logger.Info("publisher starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("publisher server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the HTTP listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("publisher stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := BuildSnapshot(s.symbol, s.driver)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), s.cfg.AllowedOrigins, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn)

	snap := BuildSnapshot(s.symbol, s.driver)
	data, err := json.Marshal(struct {
		Type string   `json:"type"`
		Data Snapshot `json:"data"`
	}{Type: "snapshot", Data: snap})
	if err != nil {
		s.logger.Error("failed to marshal initial snapshot", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		s.logger.Warn("failed to send initial snapshot to subscriber")
	}
}

func isOriginAllowed(origin string, allowed []string, reqHost string) bool {
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	normalized := normalizeOrigin(originURL.Scheme, originURL.Host)
	if normalized == "" {
		return false
	}

	if len(allowed) > 0 {
		for _, a := range allowed {
			u, err := url.Parse(a)
			if err != nil {
				continue
			}
			if normalized == normalizeOrigin(u.Scheme, u.Host) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(originURL.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeOrigin(scheme, host string) string {
	if scheme == "" || host == "" {
		return ""
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
