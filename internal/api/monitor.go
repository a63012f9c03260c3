package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// monitorInterval is how often the debug overlay stream pushes a snapshot.
const monitorInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server binds to loopback only; the overlay connects from the
	// local UI, so origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// monitorHandler streams synchronizer debug state over a websocket until the
// client goes away. The stream is one-way; inbound messages are drained only
// to detect the close.
func monitorHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.Logger.Warn("monitor upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()

		cfg.Logger.Debug("monitor client connected", "remote", r.RemoteAddr)
		for {
			select {
			case <-closed:
				cfg.Logger.Debug("monitor client disconnected", "remote", r.RemoteAddr)
				return
			case <-ticker.C:
				if err := conn.WriteJSON(cfg.Synchronizer.DebugState()); err != nil {
					return
				}
			}
		}
	}
}
