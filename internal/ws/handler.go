package ws

import (
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rps-arena/server/internal/auth"
	"github.com/rps-arena/server/internal/config"
	"github.com/rps-arena/server/internal/game"
	"github.com/rps-arena/server/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var guestCounter atomic.Uint64

// HandleWebSocket upgrades the request and starts a Connection. A valid
// token query parameter resolves to a registered player's identity; a
// missing or invalid one falls back to an unranked guest.
func HandleWebSocket(cfg *config.Config, st *store.Store, controller *game.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolveIdentity(cfg, st, c.Query("token"))

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed: %v", err)
			return
		}

		connection := NewConnection(
			conn,
			identity,
			controller,
			time.Duration(cfg.LivenessPingSeconds)*time.Second,
			time.Duration(cfg.LivenessIdleSeconds)*time.Second,
		)
		log.Printf("[WS] connection established id=%s guest=%v", identity.ID, identity.IsGuest)
		connection.Run()
	}
}

func resolveIdentity(cfg *config.Config, st *store.Store, token string) game.Identity {
	if token != "" {
		claims, err := auth.ValidateToken(cfg.JWTSecret, token)
		if err == nil {
			user, err := st.FindUserByID(claims.UserID)
			if err == nil && user != nil {
				return game.Identity{
					ID:         user.ID,
					Username:   user.Username,
					Rating:     user.Elo,
					TotalGames: user.TotalGames,
				}
			}
			log.Printf("[WS] token valid but user lookup failed for %s: %v", claims.UserID, err)
		}
	}
	return guestIdentity()
}

func guestIdentity() game.Identity {
	n := guestCounter.Add(1)
	return game.Identity{
		ID:       fmt.Sprintf("guest_%d_%d", time.Now().UnixNano(), n),
		Username: fmt.Sprintf("Guest%d", n),
		Rating:   1000,
		IsGuest:  true,
	}
}
