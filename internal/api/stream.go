package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxStreamConns  = 8
	streamHeartbeat = 15 * time.Second
	writeWait       = 5 * time.Second
)

// checkOrigin admits non-browser clients (no Origin header), same-host
// pages and the CORS allowlist.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

type streamCounter struct {
	mu sync.Mutex
	n  int
}

func (c *streamCounter) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n >= maxStreamConns {
		return false
	}
	c.n++
	return true
}

func (c *streamCounter) release() {
	c.mu.Lock()
	c.n--
	c.mu.Unlock()
}

// handleStream pushes a full snapshot on connect and again whenever the
// simulation version changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.streams.acquire() {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streams.release()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	slog.Info("stream client connected", "client", id)

	// Reader: we ignore client messages but need to notice the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(s.StreamPoll)
	defer poll.Stop()
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	var sent uint64
	first := true
	for {
		if v := s.Sim.Version(); first || v != sent {
			snap := s.Sim.Snapshot()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				slog.Info("stream client dropped", "client", id, "error", err)
				return
			}
			sent = snap.Version
			first = false
		}

		select {
		case <-poll.C:
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "client", id)
			return
		case <-r.Context().Done():
			return
		}
	}
}
