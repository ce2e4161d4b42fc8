package game

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/rps-arena/server/internal/eventbus"
	"github.com/rps-arena/server/internal/store"
)

// SessionConfig carries the per-round deadline a session enforces.
type SessionConfig struct {
	RoundTimeout time.Duration

	// Bus publishes the session's settlement event to Redis. Nil is fine.
	Bus *eventbus.Bus
}

type sessionStatus int

const (
	statusAwaitingChoices sessionStatus = iota
	statusSettling
	statusTerminated
)

type choiceEvent struct {
	id     string
	choice string
}

type disconnectEvent struct {
	id string
}

type roundTimeoutEvent struct {
	round int
}

type roundRecord struct {
	Number   int    `json:"round_number"`
	P1Choice string `json:"player1_choice"`
	P2Choice string `json:"player2_choice"`
	Winner   string `json:"winner"`
}

// Session is the state machine for a single best-of-three match. It is the
// sole writer of its own state; participants only ever call SubmitChoice
// and Disconnect, which post events onto its inbox.
type Session struct {
	id string

	inbox chan interface{}

	p1, p2                 Participant
	p1Identity, p2Identity Identity
	ranked                 bool

	store *store.Store
	cfg   SessionConfig

	status sessionStatus
	round  int

	p1Choice, p2Choice string
	p1Score, p2Score   int
	rounds             []roundRecord
	finished           bool

	terminated atomic.Bool
}

func NewSession(p1, p2 Participant, ranked bool, st *store.Store, cfg SessionConfig) *Session {
	return &Session{
		id:         newSessionID(),
		inbox:      make(chan interface{}, 16),
		p1:         p1,
		p2:         p2,
		p1Identity: p1.Identity(),
		p2Identity: p2.Identity(),
		ranked:     ranked,
		store:      st,
		cfg:        cfg,
	}
}

func (s *Session) ID() string { return s.id }

// SubmitChoice is called by a participant's own goroutine to forward a
// choice event. It is a no-op once the session has terminated.
func (s *Session) SubmitChoice(id, choice string) {
	if s.terminated.Load() {
		return
	}
	s.inbox <- choiceEvent{id: id, choice: choice}
}

// Disconnect is called by a participant's own goroutine (typically a
// connection's teardown path) to report it is gone.
func (s *Session) Disconnect(id string) {
	if s.terminated.Load() {
		return
	}
	s.inbox <- disconnectEvent{id: id}
}

// Run drives the state machine. Call it once, in its own goroutine,
// immediately after construction.
func (s *Session) Run() {
	s.beginRound()
	for evt := range s.inbox {
		switch e := evt.(type) {
		case choiceEvent:
			s.handleChoice(e)
		case disconnectEvent:
			s.handleDisconnect(e)
		case roundTimeoutEvent:
			s.handleRoundTimeout(e)
		}
		if s.status == statusTerminated {
			return
		}
	}
}

func (s *Session) beginRound() {
	s.round++
	s.p1Choice, s.p2Choice = "", ""
	s.status = statusAwaitingChoices

	timeoutSecs := int(s.cfg.RoundTimeout.Seconds())
	s.p1.Deliver(Event{Kind: EventRoundStart, RoundStart: RoundStartData{Round: s.round, TimeoutSecs: timeoutSecs}})
	s.p2.Deliver(Event{Kind: EventRoundStart, RoundStart: RoundStartData{Round: s.round, TimeoutSecs: timeoutSecs}})

	round := s.round
	inbox := s.inbox
	time.AfterFunc(s.cfg.RoundTimeout, func() {
		inbox <- roundTimeoutEvent{round: round}
	})
}

func (s *Session) handleChoice(e choiceEvent) {
	if s.status != statusAwaitingChoices {
		return
	}
	if !ValidChoice(e.choice) {
		return
	}

	switch e.id {
	case s.p1Identity.ID:
		if s.p1Choice != "" {
			return
		}
		s.p1Choice = e.choice
		if s.p2Choice == "" {
			s.p2.Deliver(Event{Kind: EventOpponentChose})
		}
	case s.p2Identity.ID:
		if s.p2Choice != "" {
			return
		}
		s.p2Choice = e.choice
		if s.p1Choice == "" {
			s.p1.Deliver(Event{Kind: EventOpponentChose})
		}
	default:
		return
	}

	if s.p1Choice != "" && s.p2Choice != "" {
		s.resolveRound()
	}
}

func (s *Session) handleRoundTimeout(e roundTimeoutEvent) {
	if e.round != s.round || s.status != statusAwaitingChoices {
		return
	}
	s.resolveRound()
}

func (s *Session) handleDisconnect(e disconnectEvent) {
	if s.finished {
		return
	}
	if e.id != s.p1Identity.ID && e.id != s.p2Identity.ID {
		return
	}
	s.forfeit(e.id)
}

func (s *Session) resolveRound() {
	winner := determineWinner(s.p1Choice, s.p2Choice)
	s.rounds = append(s.rounds, roundRecord{
		Number: s.round, P1Choice: s.p1Choice, P2Choice: s.p2Choice, Winner: winner,
	})

	switch winner {
	case "player1":
		s.p1Score++
	case "player2":
		s.p2Score++
	}

	s.p1.Deliver(Event{Kind: EventRoundResult, RoundResult: RoundResultData{
		Round:          s.round,
		YourChoice:     displayChoice(s.p1Choice),
		OpponentChoice: displayChoice(s.p2Choice),
		Winner:         perspective(winner, "player1"),
		YourScore:      s.p1Score,
		OpponentScore:  s.p2Score,
	}})
	s.p2.Deliver(Event{Kind: EventRoundResult, RoundResult: RoundResultData{
		Round:          s.round,
		YourChoice:     displayChoice(s.p2Choice),
		OpponentChoice: displayChoice(s.p1Choice),
		Winner:         perspective(winner, "player2"),
		YourScore:      s.p2Score,
		OpponentScore:  s.p1Score,
	}})

	if s.p1Score >= 2 || s.p2Score >= 2 || s.round >= 5 {
		s.settle(false, "")
		return
	}
	s.beginRound()
}

// forfeit handles a mid-match disconnect: the disconnecting side loses 2-0.
func (s *Session) forfeit(disconnectedID string) {
	if disconnectedID == s.p1Identity.ID {
		s.p1Score, s.p2Score = 0, 2
		s.p2.Deliver(Event{Kind: EventOpponentDisconnected})
	} else {
		s.p1Score, s.p2Score = 2, 0
		s.p1.Deliver(Event{Kind: EventOpponentDisconnected})
	}
	s.settle(true, disconnectedID)
}

// settle performs the terminal transition: persistence, then match_complete
// to every side still connected. If create_match fails, the remaining
// persistence steps are skipped; otherwise each later step is attempted even
// if an earlier one failed. The wire notifications always happen.
func (s *Session) settle(isForfeit bool, disconnectedID string) {
	s.finished = true
	s.terminated.Store(true)
	s.status = statusSettling

	outcome := 0.5
	switch {
	case s.p1Score > s.p2Score:
		outcome = 1.0
	case s.p1Score < s.p2Score:
		outcome = 0.0
	}

	status := "completed"
	if isForfeit {
		status = "forfeit"
	}

	var winnerID *string
	if s.p1Score > s.p2Score {
		id := s.p1Identity.ID
		winnerID = &id
	} else if s.p2Score > s.p1Score {
		id := s.p2Identity.ID
		winnerID = &id
	}

	roundsJSON, err := json.Marshal(s.rounds)
	if err != nil {
		log.Printf("[SESSION] %s failed to marshal rounds: %v", s.id, err)
		roundsJSON = []byte("[]")
	}

	var p1After, p2After *int
	var p1Change, p2Change int
	if s.ranked {
		newP1, newP2 := CalculateRating(s.p1Identity.Rating, s.p1Identity.TotalGames, s.p2Identity.Rating, s.p2Identity.TotalGames, outcome)
		p1After, p2After = &newP1, &newP2
		p1Change = newP1 - s.p1Identity.Rating
		p2Change = newP2 - s.p2Identity.Rating
	}

	matchID, err := s.store.CreateMatch(s.p1Identity.ID, s.p2Identity.ID, s.ranked, s.p1Identity.Rating, s.p2Identity.Rating)
	if err != nil {
		log.Printf("[SESSION] %s create_match failed: %v", s.id, err)
	} else {
		if err := s.store.FinalizeMatch(matchID, winnerID, s.p1Score, s.p2Score, string(roundsJSON), p1After, p2After, status); err != nil {
			log.Printf("[SESSION] %s finalize_match failed: %v", s.id, err)
		}
		if s.ranked {
			if err := s.store.UpdateRating(s.p1Identity.ID, *p1After); err != nil {
				log.Printf("[SESSION] %s update_rating p1 failed: %v", s.id, err)
			}
			if err := s.store.UpdateRating(s.p2Identity.ID, *p2After); err != nil {
				log.Printf("[SESSION] %s update_rating p2 failed: %v", s.id, err)
			}
			if err := s.store.AppendRatingHistory(s.p1Identity.ID, matchID, s.p1Identity.Rating, *p1After); err != nil {
				log.Printf("[SESSION] %s append_rating_history p1 failed: %v", s.id, err)
			}
			if err := s.store.AppendRatingHistory(s.p2Identity.ID, matchID, s.p2Identity.Rating, *p2After); err != nil {
				log.Printf("[SESSION] %s append_rating_history p2 failed: %v", s.id, err)
			}
		}
		if !s.p1Identity.IsFiller {
			if err := s.store.IncrementCounters(s.p1Identity.ID, counterOutcome(s.p1Score, s.p2Score)); err != nil {
				log.Printf("[SESSION] %s increment_counters p1 failed: %v", s.id, err)
			}
		}
		if !s.p2Identity.IsFiller {
			if err := s.store.IncrementCounters(s.p2Identity.ID, counterOutcome(s.p2Score, s.p1Score)); err != nil {
				log.Printf("[SESSION] %s increment_counters p2 failed: %v", s.id, err)
			}
		}
	}

	var eloChange1, eloChange2 *int
	if s.ranked {
		eloChange1, eloChange2 = &p1Change, &p2Change
	}

	if disconnectedID != s.p1Identity.ID {
		s.p1.Deliver(Event{Kind: EventMatchComplete, MatchComplete: MatchCompleteData{
			Result: resultFor(s.p1Score, s.p2Score), YourScore: s.p1Score, OpponentScore: s.p2Score,
			EloChange: eloChange1, NewElo: p1After,
		}})
	}
	if disconnectedID != s.p2Identity.ID {
		s.p2.Deliver(Event{Kind: EventMatchComplete, MatchComplete: MatchCompleteData{
			Result: resultFor(s.p2Score, s.p1Score), YourScore: s.p2Score, OpponentScore: s.p1Score,
			EloChange: eloChange2, NewElo: p2After,
		}})
	}

	s.status = statusTerminated
	log.Printf("[SESSION] %s settled status=%s p1=%d p2=%d ranked=%v", s.id, status, s.p1Score, s.p2Score, s.ranked)

	s.cfg.Bus.Publish(context.Background(), eventbus.Event{
		Type: "match_settled", SessionID: s.id,
		Data: map[string]any{
			"status": status, "player1": s.p1Identity.ID, "player2": s.p2Identity.ID,
			"p1_score": s.p1Score, "p2_score": s.p2Score, "ranked": s.ranked,
		},
	})
}

func determineWinner(a, b string) string {
	if a == "" && b == "" {
		return "draw"
	}
	if a == "" {
		return "player2"
	}
	if b == "" {
		return "player1"
	}
	if a == b {
		return "draw"
	}
	beats := map[string]string{"rock": "scissors", "paper": "rock", "scissors": "paper"}
	if beats[a] == b {
		return "player1"
	}
	return "player2"
}

func displayChoice(c string) string {
	if c == "" {
		return "none"
	}
	return c
}

func perspective(winner, side string) string {
	if winner == "draw" {
		return "draw"
	}
	if winner == side {
		return "you"
	}
	return "opponent"
}

func resultFor(my, opp int) string {
	if my > opp {
		return "win"
	}
	if my < opp {
		return "loss"
	}
	return "draw"
}

func counterOutcome(my, opp int) store.Outcome {
	if my > opp {
		return store.OutcomeWin
	}
	if my < opp {
		return store.OutcomeLoss
	}
	return store.OutcomeDraw
}
