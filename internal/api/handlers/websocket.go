package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rps-arena/server/internal/config"
	"github.com/rps-arena/server/internal/game"
	"github.com/rps-arena/server/internal/store"
	"github.com/rps-arena/server/internal/ws"
)

// HandleGameWebSocket upgrades to the realtime match connection.
func HandleGameWebSocket(st *store.Store, controller *game.Controller, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(cfg, st, controller)
}
