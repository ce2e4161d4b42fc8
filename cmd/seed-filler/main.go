package main

import (
	"fmt"
	"log"

	"github.com/rps-arena/server/internal/auth"
	"github.com/rps-arena/server/internal/config"
	"github.com/rps-arena/server/internal/database"
	"github.com/rps-arena/server/internal/store"
)

// fillerCount is how many filler accounts get seeded. A handful is enough
// for RandomFillerUser to have a pool to draw from.
const fillerCount = 10

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	st := store.New(db)

	hash, err := auth.HashPassword("filler-accounts-are-not-logged-into")
	if err != nil {
		log.Fatalf("Failed to hash filler password: %v", err)
	}

	created := 0
	for i := 1; i <= fillerCount; i++ {
		username := fmt.Sprintf("filler_%02d", i)
		existing, err := st.FindUserByUsername(username)
		if err != nil {
			log.Printf("Failed to check filler %s: %v", username, err)
			continue
		}
		if existing != nil {
			continue
		}
		if err := st.CreateFillerUser(username, hash); err != nil {
			log.Printf("Failed to create filler %s: %v", username, err)
			continue
		}
		created++
	}

	log.Printf("✓ Seeded %d filler accounts (of %d total slots)", created, fillerCount)
}
