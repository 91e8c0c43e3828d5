package ws

import (
	"net/http"

	"github.com/MarcMahler/gamehub-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades GET /ws. An optional ?session=<id> narrows the feed to
// one session; without it the client receives every event.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		sessionID := c.Query("session")
		if sessionID != "" {
			if _, err := uuid.Parse(sessionID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := NewClient(sessionID, conn, hub)
		go client.Run()
	}
}
