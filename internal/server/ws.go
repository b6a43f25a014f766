package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/facecam/internal/session"
)

// writeTimeout bounds a single websocket write.
const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatsSource publishes a stats report for every processed frame.
type StatsSource interface {
	Subscribe() (<-chan session.Stats, func())
}

// StatsHandler streams per-frame stats as JSON over a WebSocket.
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler creates a new StatsHandler reading from source.
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	stats, cancel := h.source.Subscribe()
	defer cancel()

	// Drain client messages so close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st, ok := <-stats:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(st); err != nil {
				log.Debugf("websocket write error: %v", err)
				return
			}
		}
	}
}
