package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/snapshot"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStream upgrades to a WebSocket and pushes the snapshot on connect
// and after every replace. Client messages are ignored.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := r.RemoteAddr

	if !s.trackStream(remoteAddr, conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	// untrackStream releases Shutdown, so it runs after the last log line.
	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "stream_closed")
		s.untrackStream(remoteAddr)
	}()
	logging.LogConnection(remoteAddr, "stream_opened")

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop processes control frames and notices client close.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var lastSent uint64
	first := true
	for {
		// Changed must be taken before the snapshot so no replace is missed.
		changed := s.store.Changed()
		snap := s.store.Snapshot()

		if first || snap.Generation != lastSent {
			if err := writeSnapshot(conn, snap); err != nil {
				logging.Info("Stream write failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
			lastSent = snap.Generation
			first = false
		}

		select {
		case <-changed:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			logging.Debug("Sent ping", zap.String("remote_addr", remoteAddr))
		case <-readDone:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap snapshot.Snapshot) error {
	body, err := snapshot.Encode(snap.Devices)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, body)
}
