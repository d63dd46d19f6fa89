package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raderre/cresite/internal/model"
)

const (
	// wsWriteWait bounds a single write to a WebSocket peer.
	wsWriteWait = 10 * time.Second

	// wsPingInterval is how often idle featured sockets are pinged.
	wsPingInterval = 30 * time.Second
)

var featuredUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleFeaturedWS handles GET /v1/properties/featured/ws. The current
// snapshot is sent on connect and again after every feed change.
func (s *ListingsServer) handleFeaturedWS(w http.ResponseWriter, r *http.Request) {
	conn, err := featuredUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Only the latest snapshot matters; an unsent older one is replaced.
	updates := make(chan []*model.Property, 1)
	unregister := s.feed.OnChange(func(snap []*model.Property) {
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- snap:
		default:
		}
	})
	defer unregister()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeFeatured(conn, s.feed.Snapshot()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
			return
		case snap := <-updates:
			if err := writeFeatured(conn, snap); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeFeatured(conn *websocket.Conn, snap []*model.Property) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(map[string]any{"properties": viewProperties(snap)})
}
