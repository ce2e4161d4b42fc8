package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rps-arena/server/internal/api"
	"github.com/rps-arena/server/internal/config"
	"github.com/rps-arena/server/internal/database"
	"github.com/rps-arena/server/internal/eventbus"
	"github.com/rps-arena/server/internal/game"
	"github.com/rps-arena/server/internal/middleware"
	"github.com/rps-arena/server/internal/migrations"
	"github.com/rps-arena/server/internal/redis"
	"github.com/rps-arena/server/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()
	bus := eventbus.New(rdb)

	st := store.New(db)

	controller := game.NewController(st, game.ControllerConfig{
		PairingDeadline:   time.Duration(cfg.QueuePairingDeadlineSecs) * time.Second,
		RoundTimeout:      time.Duration(cfg.RoundTimeoutSeconds) * time.Second,
		FillerChoiceDelay: time.Duration(cfg.FillerChoiceDelaySeconds) * time.Second,
		Bus:               bus,
	})
	go controller.Run()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	api.SetupRoutes(router, st, controller, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting rps-arena server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
