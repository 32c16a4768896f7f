package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/stouch/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; clients only send control frames
	maxMessageSize = 512
)

// handleStream upgrades to a websocket and pushes the scene as JSON, once
// on connect and again after every screen change
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		logging.Warn("Stream upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	remoteAddr := conn.RemoteAddr().String()

	s.wg.Add(1)
	s.mu.Lock()
	s.streams[conn] = struct{}{}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.StreamOpened()
	}
	logging.Info("Stream client connected", zap.String("remote_addr", remoteAddr))

	defer func() {
		s.mu.Lock()
		delete(s.streams, conn)
		s.mu.Unlock()
		_ = conn.Close()
		if s.metrics != nil {
			s.metrics.StreamClosed()
		}
		logging.Info("Stream client disconnected", zap.String("remote_addr", remoteAddr))
		s.wg.Done()
	}()

	changes, unsubscribe := s.panel.Display().Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := s.writeScene(conn); err != nil {
		return
	}
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.writeScene(conn); err != nil {
				logging.Debug("Stream write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) writeScene(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(newSceneView(s.panel.Display().Snapshot()))
}

// readPump discards client messages and keeps the read deadline moving on
// pongs. closed is closed once the connection fails.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
