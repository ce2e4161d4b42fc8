package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/rps-arena/server/internal/api/handlers"
	"github.com/rps-arena/server/internal/config"
	"github.com/rps-arena/server/internal/game"
	"github.com/rps-arena/server/internal/store"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, st *store.Store, controller *game.Controller, cfg *config.Config) {
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)
	router.GET("/ws", handlers.HandleGameWebSocket(st, controller, cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(st, cfg.JWTSecret))
			auth.POST("/login", handlers.Login(st, cfg.JWTSecret))
		}

		v1.GET("/players/:id", handlers.GetPlayer(st))
		v1.GET("/players/:id/matches", handlers.GetPlayerMatches(st))
		v1.GET("/leaderboard", handlers.GetLeaderboard(st))
	}
}
