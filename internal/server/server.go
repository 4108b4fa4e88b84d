package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/protocol"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Start waits for connections to drain.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Name     string // Device server instance name, reported by /healthz
	Host     string
	Port     int
	CertPath string // Path to PEM certificate (TLS is enabled when both paths are set)
	KeyPath  string // Path to PEM private key
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// TLSEnabled reports whether a certificate is configured.
func (c *Config) TLSEnabled() bool {
	return c.CertPath != "" && c.KeyPath != ""
}

// Server exposes an attribute registry over WebSocket.
type Server struct {
	config     *Config
	handler    *protocol.Handler
	tlsConfig  *tls.Config
	httpServer *http.Server
	upgrader   websocket.Upgrader

	wg          sync.WaitGroup
	mu          sync.Mutex
	listener    net.Listener
	closing     bool // Set by Shutdown; refuses new upgrades
	activeConns map[string]*websocket.Conn
}

// New creates a new Server instance
func New(config *Config, handler *protocol.Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("server requires a protocol handler")
	}

	var tlsConfig *tls.Config
	if config.TLSEnabled() {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := &Server{
		config:      config,
		handler:     handler,
		tlsConfig:   tlsConfig,
		activeConns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are CLIs and scripts, not browsers.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the HTTP handler serving /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Listen opens the listener. It is called by Start when needed and is
// exported so callers can bind port 0 and read Addr before serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is cancelled, SIGINT or SIGTERM is received, or
// the listener fails. It then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	scheme := "ws"
	if s.tlsConfig != nil {
		scheme = "wss"
	}
	logging.Info("Attribute server listening",
		zap.String("name", s.config.Name),
		zap.String("addr", s.Addr().String()),
		zap.String("url", fmt.Sprintf("%s://%s/ws", scheme, s.Addr())),
		zap.Bool("tls", s.tlsConfig != nil),
	)
	if s.tlsConfig != nil {
		logging.Info("TLS Configuration",
			zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
		)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return shutdown()
	case <-ctx.Done():
		return shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	// Stops the listener; hijacked WebSocket connections are not tracked by
	// http.Server and are closed below.
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Error("Error shutting down HTTP server", zap.Error(err))
	}

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()

	return err
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) track(remoteAddr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(remoteAddr string) {
	s.mu.Lock()
	delete(s.activeConns, remoteAddr)
	s.mu.Unlock()
}
