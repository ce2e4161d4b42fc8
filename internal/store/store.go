// Package store implements the persistence contract the matchmaking and
// session actors depend on: user lookups, rating/counter updates, and
// match/rating-history writes. All operations are safe to call concurrently;
// ordering guarantees for a single match are the caller's responsibility
// (the owning session serializes its own writes).
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rps-arena/server/internal/models"
)

// ErrNoFillerUsers is returned by RandomFillerUser when the pool is empty.
var ErrNoFillerUsers = errors.New("store: no filler users available")

// Outcome is one side's result in a settled match, used by IncrementCounters.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Store wraps a Postgres connection with the operations the core needs.
// A nil *sqlx.DB is tolerated so session/controller unit tests can run
// without a live database; every method short-circuits with an error.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) requireDB() error {
	if s.db == nil {
		return errors.New("store: no database connection configured")
	}
	return nil
}

// FindUserByID returns the identity, rating, total_games and filler flag
// for a registered user. Guests are never looked up here.
func (s *Store) FindUserByID(id string) (*models.User, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	var u models.User
	err := s.db.Get(&u, `SELECT id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at FROM users WHERE id=$1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// RandomFillerUser returns a uniformly-selected filler identity.
func (s *Store) RandomFillerUser() (*models.User, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	var u models.User
	err := s.db.Get(&u, `SELECT id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at FROM users WHERE is_filler=true ORDER BY random() LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, ErrNoFillerUsers
	}
	if err != nil {
		return nil, fmt.Errorf("random filler user: %w", err)
	}
	return &u, nil
}

// UpdateRating is an idempotent last-writer-wins rating update.
func (s *Store) UpdateRating(id string, newRating int) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE users SET elo=$1, updated_at=NOW() WHERE id=$2`, newRating, id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

// IncrementCounters atomically bumps total_games and the counter matching outcome.
func (s *Store) IncrementCounters(id string, outcome Outcome) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	var column string
	switch outcome {
	case OutcomeWin:
		column = "wins"
	case OutcomeLoss:
		column = "losses"
	case OutcomeDraw:
		column = "draws"
	default:
		return fmt.Errorf("increment counters: unknown outcome %q", outcome)
	}
	query := fmt.Sprintf(`UPDATE users SET total_games = total_games + 1, %s = %s + 1, updated_at=NOW() WHERE id=$1`, column, column)
	if _, err := s.db.Exec(query, id); err != nil {
		return fmt.Errorf("increment counters: %w", err)
	}
	return nil
}

// CreateMatch inserts a new in-progress match record and returns its id.
func (s *Store) CreateMatch(p1, p2 string, ranked bool, p1Rating, p2Rating int) (string, error) {
	if err := s.requireDB(); err != nil {
		return "", err
	}
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO matches (id, player1_id, player2_id, is_ranked, player1_score, player2_score, rounds_json, player1_elo_before, player2_elo_before, status, created_at)
		 VALUES ($1, $2, $3, $4, 0, 0, '[]', $5, $6, 'in_progress', NOW())`,
		id, p1, p2, ranked, p1Rating, p2Rating,
	)
	if err != nil {
		return "", fmt.Errorf("create match: %w", err)
	}
	return id, nil
}

// FinalizeMatch writes the terminal state of a match.
func (s *Store) FinalizeMatch(matchID string, winnerID *string, p1Score, p2Score int, roundsJSON string, p1RatingAfter, p2RatingAfter *int, status string) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE matches SET winner_id=$1, player1_score=$2, player2_score=$3, rounds_json=$4, player1_elo_after=$5, player2_elo_after=$6, status=$7, finished_at=NOW() WHERE id=$8`,
		nullableString(winnerID), p1Score, p2Score, roundsJSON, nullableInt(p1RatingAfter), nullableInt(p2RatingAfter), status, matchID,
	)
	if err != nil {
		return fmt.Errorf("finalize match: %w", err)
	}
	return nil
}

// AppendRatingHistory records one rating-history entry; delta is implicit.
func (s *Store) AppendRatingHistory(userID, matchID string, before, after int) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO rating_history (user_id, match_id, elo_before, elo_after, elo_change, created_at) VALUES ($1, $2, $3, $4, $5, NOW())`,
		userID, matchID, before, after, after-before,
	)
	if err != nil {
		return fmt.Errorf("append rating history: %w", err)
	}
	return nil
}

// RecentMatches backs the out-of-core match-history read.
// Supplements the distilled persistence contract (original_source's
// MatchRecord::recent_for_user); not part of the core's hot path.
func (s *Store) RecentMatches(userID string, limit int) ([]models.Match, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	var matches []models.Match
	err := s.db.Select(&matches,
		`SELECT * FROM matches WHERE player1_id=$1 OR player2_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return matches, nil
}

// TopByElo backs the out-of-core leaderboard read.
// Supplements the distilled persistence contract (original_source's
// User::top_by_elo); not part of the core's hot path.
func (s *Store) TopByElo(limit int) ([]models.User, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.Select(&users, `SELECT id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at FROM users WHERE is_filler=false ORDER BY elo DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top by elo: %w", err)
	}
	return users, nil
}

// CreateUser registers a new non-guest, non-filler user with a hashed password.
func (s *Store) CreateUser(username, passwordHash string) (*models.User, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at)
		 VALUES ($1, $2, $3, 1000, 0, 0, 0, 0, false, NOW(), NOW())`,
		id, username, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.FindUserByID(id)
}

// CreateFillerUser registers a filler identity, used only by the seeding
// tool; fillers never authenticate, so the password hash is unreachable.
func (s *Store) CreateFillerUser(username, passwordHash string) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at)
		 VALUES ($1, $2, $3, 1000, 0, 0, 0, 0, true, NOW(), NOW())`,
		id, username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("create filler user: %w", err)
	}
	return nil
}

// FindUserByUsername backs the login handler.
func (s *Store) FindUserByUsername(username string) (*models.User, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	var u models.User
	err := s.db.Get(&u, `SELECT id, username, password_hash, elo, total_games, wins, losses, draws, is_filler, created_at, updated_at FROM users WHERE username=$1`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &u, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable; fall back to a time-seeded id
		// rather than panic, so a single bad read never crashes a session.
		return "fallback_" + time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(buf)
}
