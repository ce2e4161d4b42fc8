package game

import (
	"context"
	"log"
	"time"

	"github.com/rps-arena/server/internal/eventbus"
	"github.com/rps-arena/server/internal/store"
)

// ControllerConfig carries the timing knobs the controller and the sessions
// it spawns need.
type ControllerConfig struct {
	PairingDeadline   time.Duration
	RoundTimeout      time.Duration
	FillerChoiceDelay time.Duration

	// Bus publishes pairing and settlement events to Redis. Nil is fine;
	// *eventbus.Bus treats a nil receiver as a no-op publisher.
	Bus *eventbus.Bus
}

type queueEntry struct {
	identity    Identity
	ranked      bool
	participant Participant
	queuedAt    time.Time
}

type joinEvent struct {
	identity    Identity
	ranked      bool
	participant Participant
}

type leaveEvent struct {
	id string
}

type fillerCheckEvent struct {
	id string
}

type fillerReadyEvent struct {
	entry  *queueEntry
	filler *fillerLookupResult
}

type fillerLookupResult struct {
	id       string
	username string
	rating   int
	err      error
}

// Controller is the singleton matchmaking actor: a FIFO queue, a pairing
// algorithm, and the filler-pairing deadline. It owns its queue exclusively
// and never touches the database on its own inbox goroutine.
type Controller struct {
	inbox chan interface{}
	queue []*queueEntry
	store *store.Store
	cfg   ControllerConfig
}

func NewController(st *store.Store, cfg ControllerConfig) *Controller {
	return &Controller{
		inbox: make(chan interface{}, 256),
		store: st,
		cfg:   cfg,
	}
}

// Run processes the controller's inbox until it is closed. Call it once,
// in its own goroutine.
func (c *Controller) Run() {
	log.Printf("[MATCHMAKING] controller started")
	for evt := range c.inbox {
		switch e := evt.(type) {
		case joinEvent:
			c.handleJoin(e)
		case leaveEvent:
			c.handleLeave(e)
		case fillerCheckEvent:
			c.handleFillerCheck(e)
		case fillerReadyEvent:
			c.handleFillerReady(e)
		}
	}
}

// Join enqueues a waiter. ranked is already coerced to false for guests by
// the caller (the connection).
func (c *Controller) Join(identity Identity, ranked bool, participant Participant) {
	c.inbox <- joinEvent{identity: identity, ranked: ranked, participant: participant}
}

// Leave removes a waiter from the queue. Idempotent.
func (c *Controller) Leave(id string) {
	c.inbox <- leaveEvent{id: id}
}

func (c *Controller) handleJoin(e joinEvent) {
	for _, q := range c.queue {
		if q.identity.ID == e.identity.ID {
			e.participant.Deliver(Event{Kind: EventError, ErrorMessage: "Already in queue"})
			return
		}
	}

	entry := &queueEntry{
		identity:    e.identity,
		ranked:      e.ranked,
		participant: e.participant,
		queuedAt:    time.Now(),
	}
	c.queue = append(c.queue, entry)
	e.participant.Deliver(Event{Kind: EventQueued})

	c.tryMatch()

	id := e.identity.ID
	inbox := c.inbox
	time.AfterFunc(c.cfg.PairingDeadline, func() {
		inbox <- fillerCheckEvent{id: id}
	})
}

func (c *Controller) handleLeave(e leaveEvent) {
	for i, q := range c.queue {
		if q.identity.ID == e.id {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// tryMatch pulls the two oldest waiters and pairs them, if at least two
// are waiting. FIFO only, no skill bucketing.
func (c *Controller) tryMatch() {
	if len(c.queue) < 2 {
		return
	}

	p1, p2 := c.queue[0], c.queue[1]
	c.queue = c.queue[2:]

	ranked := p1.ranked && p2.ranked
	sess := NewSession(p1.participant, p2.participant, ranked, c.store, c.sessionConfig())

	p1.participant.SetSession(sess)
	p2.participant.SetSession(sess)

	p1.participant.Deliver(Event{Kind: EventMatchFound, MatchFound: MatchFoundData{
		SessionID: sess.ID(), OpponentUsername: p2.identity.Username, OpponentElo: p2.identity.Rating,
	}})
	p2.participant.Deliver(Event{Kind: EventMatchFound, MatchFound: MatchFoundData{
		SessionID: sess.ID(), OpponentUsername: p1.identity.Username, OpponentElo: p1.identity.Rating,
	}})

	go sess.Run()
	log.Printf("[MATCHMAKING] paired %s vs %s ranked=%v", p1.identity.ID, p2.identity.ID, ranked)

	c.cfg.Bus.Publish(context.Background(), eventbus.Event{
		Type: "match_found", SessionID: sess.ID(),
		Data: map[string]any{"player1": p1.identity.ID, "player2": p2.identity.ID, "ranked": ranked},
	})
}

// handleFillerCheck re-validates queue membership and elapsed time before
// acting; it is not cancellable, so a player who already matched or left is
// simply a no-op here.
func (c *Controller) handleFillerCheck(e fillerCheckEvent) {
	idx := -1
	for i, q := range c.queue {
		if q.identity.ID == e.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	entry := c.queue[idx]
	if time.Since(entry.queuedAt) < c.cfg.PairingDeadline {
		return
	}
	c.queue = append(c.queue[:idx], c.queue[idx+1:]...)

	inbox := c.inbox
	st := c.store
	go func() {
		filler, err := st.RandomFillerUser()
		result := &fillerLookupResult{err: err}
		if filler != nil {
			result.id, result.username, result.rating = filler.ID, filler.Username, filler.Elo
		}
		inbox <- fillerReadyEvent{entry: entry, filler: result}
	}()
}

func (c *Controller) handleFillerReady(e fillerReadyEvent) {
	if e.filler.err != nil {
		e.entry.participant.Deliver(Event{Kind: EventError, ErrorMessage: "Failed to find opponent"})
		log.Printf("[MATCHMAKING] no filler available for %s: %v", e.entry.identity.ID, e.filler.err)
		return
	}

	fillerIdentity := Identity{
		ID:       e.filler.id,
		Username: e.filler.username,
		Rating:   e.filler.rating,
		IsFiller: true,
	}
	filler := NewFiller(fillerIdentity, c.cfg.FillerChoiceDelay)

	// Filler participation always forces an unranked match.
	sess := NewSession(e.entry.participant, filler, false, c.store, c.sessionConfig())

	// Attach session before match_found, per the reference's ordering fix.
	e.entry.participant.SetSession(sess)
	filler.SetSession(sess)

	e.entry.participant.Deliver(Event{Kind: EventMatchFound, MatchFound: MatchFoundData{
		SessionID: sess.ID(), OpponentUsername: fillerIdentity.Username, OpponentElo: fillerIdentity.Rating,
	}})
	filler.Deliver(Event{Kind: EventMatchFound})

	go sess.Run()
	go filler.Run()
	log.Printf("[MATCHMAKING] paired %s with filler %s", e.entry.identity.ID, fillerIdentity.ID)

	c.cfg.Bus.Publish(context.Background(), eventbus.Event{
		Type: "match_found", SessionID: sess.ID(),
		Data: map[string]any{"player1": e.entry.identity.ID, "player2": fillerIdentity.ID, "ranked": false, "filler": true},
	})
}

func (c *Controller) sessionConfig() SessionConfig {
	return SessionConfig{RoundTimeout: c.cfg.RoundTimeout, Bus: c.cfg.Bus}
}
