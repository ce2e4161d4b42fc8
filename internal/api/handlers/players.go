package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rps-arena/server/internal/store"
)

// GetPlayer returns a player's public profile and rating.
func GetPlayer(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		user, err := st.FindUserByID(id)
		if err != nil || user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		matches, err := st.RecentMatches(id, 20)
		if err != nil {
			matches = nil
		}

		c.JSON(http.StatusOK, gin.H{"player": user, "recent_matches": matches})
	}
}

// GetPlayerMatches returns a player's recent match history as its own
// endpoint, independent of the bundled summary on GetPlayer. Accepts an
// optional ?limit= query param, capped at 100.
func GetPlayerMatches(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		user, err := st.FindUserByID(id)
		if err != nil || user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > 100 {
			limit = 100
		}

		matches, err := st.RecentMatches(id, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}

// GetLeaderboard returns the top rated players.
func GetLeaderboard(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := st.TopByElo(50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": users})
	}
}
