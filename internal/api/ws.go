package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/counselhub/counselhub/internal/events"
)

const (
	readBufferSize  = 1024
	writeBufferSize = 1024
)

// serveWs upgrades the connection and hands it to the event hub. Session
// subscriptions are authorized per-session inside the client's read loop.
func (s *CounselApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("websocket upgrade:", err)
		return
	}

	client := events.NewClient(userId, conn, s.hub, s.auth, s.log)
	s.hub.Register(client)

	go client.Write()
	go client.Read()
}
