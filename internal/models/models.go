package models

import (
	"database/sql"
	"time"
)

// User represents a registered player. Guests never get a row here;
// filler (AI) opponents are rows with IsFiller set.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Elo          int       `db:"elo" json:"elo"`
	TotalGames   int       `db:"total_games" json:"total_games"`
	Wins         int       `db:"wins" json:"wins"`
	Losses       int       `db:"losses" json:"losses"`
	Draws        int       `db:"draws" json:"draws"`
	IsFiller     bool      `db:"is_filler" json:"is_filler"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Round is one best-of-three round, persisted as part of a Match's rounds_json.
type Round struct {
	RoundNumber   int    `json:"round_number"`
	Player1Choice string `json:"player1_choice"`
	Player2Choice string `json:"player2_choice"`
	Winner        string `json:"winner"` // "player1", "player2", "draw"
}

// Match is a finished or in-progress best-of-three record.
type Match struct {
	ID               string         `db:"id" json:"id"`
	Player1ID        string         `db:"player1_id" json:"player1_id"`
	Player2ID        string         `db:"player2_id" json:"player2_id"`
	WinnerID         sql.NullString `db:"winner_id" json:"winner_id,omitempty"`
	IsRanked         bool           `db:"is_ranked" json:"is_ranked"`
	Player1Score     int            `db:"player1_score" json:"player1_score"`
	Player2Score     int            `db:"player2_score" json:"player2_score"`
	RoundsJSON       string         `db:"rounds_json" json:"rounds_json"`
	Player1EloBefore sql.NullInt64  `db:"player1_elo_before" json:"player1_elo_before,omitempty"`
	Player1EloAfter  sql.NullInt64  `db:"player1_elo_after" json:"player1_elo_after,omitempty"`
	Player2EloBefore sql.NullInt64  `db:"player2_elo_before" json:"player2_elo_before,omitempty"`
	Player2EloAfter  sql.NullInt64  `db:"player2_elo_after" json:"player2_elo_after,omitempty"`
	Status           string         `db:"status" json:"status"` // in_progress, completed, forfeit
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	FinishedAt       sql.NullTime   `db:"finished_at" json:"finished_at,omitempty"`
}

// RatingHistory records one rating change for one user on one match.
type RatingHistory struct {
	ID        int       `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	MatchID   string    `db:"match_id" json:"match_id"`
	EloBefore int       `db:"elo_before" json:"elo_before"`
	EloAfter  int       `db:"elo_after" json:"elo_after"`
	EloChange int       `db:"elo_change" json:"elo_change"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
