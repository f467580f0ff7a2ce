// Package api provides an optional loopback HTTP and WebSocket surface for
// controlling the daemon. It carries the same payloads as the socket and
// D-Bus transports.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"time"

	"autoclicker/internal/config"
	"autoclicker/internal/engine"
	"autoclicker/internal/logging"
	"autoclicker/internal/network"
	"autoclicker/internal/protocol"
)

// ErrNotLoopback is returned when the API is asked to bind a public address.
var ErrNotLoopback = errors.New("api address must be a loopback address")

// StatusSource reports what the engine is doing. *engine.Engine implements it.
type StatusSource interface {
	Status() engine.Status
}

// Server provides HTTP API for remote control
type Server struct {
	handler  network.RequestHandler
	status   StatusSource
	settings func() config.Config
	wsMgr    *WSManager
	log      *logging.Logger
}

// NewServer creates a new API server. settings is consulted on every
// request so token changes apply without a restart.
func NewServer(handler network.RequestHandler, status StatusSource, settings func() config.Config) *Server {
	s := &Server{
		handler:  handler,
		status:   status,
		settings: settings,
		log:      logging.New("API"),
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Routes returns the API handler with middleware applied. Close releases
// the WebSocket connections it accepts.
func (s *Server) Routes() http.Handler {
	s.wsMgr.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/request", s.handleRequest)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	return s.recoverMiddleware(s.originMiddleware(s.authMiddleware(mux)))
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if err := checkLoopback(addr); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("API server failed to listen on %s: %w", addr, err)
	}

	defer s.Close()

	server := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if s.settings().Daemon.API.Token == "" {
		s.log.Warnf("no API token set; any local process can send requests")
	}
	s.log.Infof("listening on %s", ln.Addr())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server stopped: %w", err)
	}
	return nil
}

// Close disconnects all WebSocket clients.
func (s *Server) Close() {
	s.wsMgr.stop()
}

func checkLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if isLoopbackHost(host) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotLoopback, addr)
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// sameOrigin reports whether r comes from a page served by this API or from
// a non-browser client. Browsers always send Origin on cross-origin
// WebSocket upgrades and POSTs.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return isLoopbackHost(u.Hostname()) && u.Host == r.Host
}

// originMiddleware rejects requests made by pages from other origins
func (s *Server) originMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r) {
			s.log.Warnf("rejected %s %s from origin %q", r.Method, r.URL.Path, r.Header.Get("Origin"))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Errorf("panic serving %s: %v", r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Tracef("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if token := s.settings().Daemon.API.Token; token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}

// handleRequest handles POST /api/request. The body is a request message;
// the reply is a response message, with 400 for an Error reply.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Forms cannot send application/json without a preflight.
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	reply := s.handler.Handle(r.Context(), body)
	code := http.StatusOK
	if msg, err := protocol.Decode(reply); err == nil && msg.Type() == protocol.TypeError {
		code = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(reply)
}

// handleConfig handles GET /api/config. The token is never echoed.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := s.settings()
	if cfg.Daemon.API.Token != "" {
		cfg.Daemon.API.Token = "********"
	}
	writeJSON(w, http.StatusOK, cfg)
}
