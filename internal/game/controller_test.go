package game

import (
	"testing"
	"time"

	"github.com/rps-arena/server/internal/store"
)

func newTestController() *Controller {
	cfg := ControllerConfig{
		PairingDeadline:   40 * time.Millisecond,
		RoundTimeout:      time.Hour,
		FillerChoiceDelay: time.Hour,
	}
	c := NewController(store.New(nil), cfg)
	go c.Run()
	return c
}

// S2. Two waiters already queued pair immediately, FIFO.
func TestControllerPairsTwoWaiters(t *testing.T) {
	c := newTestController()
	p1 := newFakeParticipant(Identity{ID: "a", Username: "Alice", Rating: 1000})
	p2 := newFakeParticipant(Identity{ID: "b", Username: "Bob", Rating: 1100})

	c.Join(p1.identity, true, p1)
	c.Join(p2.identity, true, p2)

	found1 := p1.waitFor(t, EventMatchFound, time.Second)
	found2 := p2.waitFor(t, EventMatchFound, time.Second)

	if found1.MatchFound.OpponentUsername != "Bob" {
		t.Fatalf("p1 expected opponent Bob, got %+v", found1.MatchFound)
	}
	if found2.MatchFound.OpponentUsername != "Alice" {
		t.Fatalf("p2 expected opponent Alice, got %+v", found2.MatchFound)
	}
	if found1.MatchFound.SessionID == "" || found1.MatchFound.SessionID != found2.MatchFound.SessionID {
		t.Fatalf("both sides must share a session id, got %q vs %q", found1.MatchFound.SessionID, found2.MatchFound.SessionID)
	}
	if p1.session == nil || p2.session == nil {
		t.Fatalf("session must be attached before match_found is delivered")
	}
}

// Joining twice with the same id produces an error frame, not a second queue slot.
func TestControllerDuplicateJoinRejected(t *testing.T) {
	c := newTestController()
	p1 := newFakeParticipant(Identity{ID: "a", Username: "Alice", Rating: 1000})

	c.Join(p1.identity, true, p1)
	p1.waitFor(t, EventQueued, time.Second)

	c.Join(p1.identity, true, p1)
	errEvt := p1.waitFor(t, EventError, time.Second)
	if errEvt.ErrorMessage == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

// A lone waiter with no filler available surfaces an error once the pairing
// deadline elapses (store has no database configured in this test).
func TestControllerFillerUnavailableSurfacesError(t *testing.T) {
	c := newTestController()
	p1 := newFakeParticipant(Identity{ID: "a", Username: "Alice", Rating: 1000})

	c.Join(p1.identity, true, p1)
	p1.waitFor(t, EventQueued, time.Second)

	errEvt := p1.waitFor(t, EventError, time.Second)
	if errEvt.ErrorMessage != "Failed to find opponent" {
		t.Fatalf("unexpected error message: %q", errEvt.ErrorMessage)
	}
}

// Leaving the queue before pairing means no match_found ever arrives.
func TestControllerLeaveRemovesWaiter(t *testing.T) {
	c := newTestController()
	p1 := newFakeParticipant(Identity{ID: "a", Username: "Alice", Rating: 1000})

	c.Join(p1.identity, true, p1)
	p1.waitFor(t, EventQueued, time.Second)
	c.Leave("a")

	time.Sleep(80 * time.Millisecond)
	if p1.countKind(EventMatchFound) != 0 {
		t.Fatalf("left waiter must never be matched")
	}
}
