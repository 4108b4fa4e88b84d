package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// handleWebSocket upgrades the request and runs the request/response loop
// until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	// Counted before the upgrade so Shutdown cannot start waiting between
	// the hijack and the Add.
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	s.track(remoteAddr, conn)
	logging.LogConnection(remoteAddr, "websocket_upgraded")

	defer func() {
		_ = conn.Close()
		s.untrack(remoteAddr)
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	if err := s.serveConn(conn, remoteAddr); err != nil {
		logging.Info("Connection closed with error",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
	}
}

// serveConn reads requests from conn and writes one response per request.
func (s *Server) serveConn(conn *websocket.Conn, remoteAddr string) error {
	conn.SetReadLimit(protocol.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// gorilla/websocket allows one concurrent writer; responses and pings share it.
	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go s.pingLoop(conn, &writeMu, done)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}
			return err
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		resp := s.handler.HandleMessage(remoteAddr, data)

		writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteJSON(resp)
		writeMu.Unlock()
		if err != nil {
			return err
		}
	}
}

func (s *Server) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
