package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rps-arena/server/internal/store"
)

type fakeParticipant struct {
	identity Identity
	session  *Session

	mu     sync.Mutex
	events []Event
}

func newFakeParticipant(id Identity) *fakeParticipant {
	return &fakeParticipant{identity: id}
}

func (f *fakeParticipant) Identity() Identity { return f.identity }

func (f *fakeParticipant) Deliver(e Event) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
}

func (f *fakeParticipant) SetSession(s *Session) { f.session = s }

func (f *fakeParticipant) countKind(kind EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeParticipant) waitFor(t *testing.T, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, e := range f.events {
			if e.Kind == kind {
				f.mu.Unlock()
				return e
			}
		}
		f.mu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for event kind %v", kind)
	return Event{}
}

func newTestSession(ranked bool) (*Session, *fakeParticipant, *fakeParticipant) {
	p1 := newFakeParticipant(Identity{ID: "a", Username: "Alice", Rating: 1000, TotalGames: 0})
	p2 := newFakeParticipant(Identity{ID: "b", Username: "Bob", Rating: 1000, TotalGames: 0})
	sess := NewSession(p1, p2, ranked, store.New(nil), SessionConfig{RoundTimeout: time.Hour})
	p1.SetSession(sess)
	p2.SetSession(sess)
	go sess.Run()
	return sess, p1, p2
}

// S1. Straight 2-0.
func TestSessionStraightTwoNil(t *testing.T) {
	sess, p1, p2 := newTestSession(true)

	sess.SubmitChoice("a", "rock")
	sess.SubmitChoice("b", "scissors")
	sess.SubmitChoice("a", "paper")
	sess.SubmitChoice("b", "rock")

	done1 := p1.waitFor(t, EventMatchComplete, time.Second)
	done2 := p2.waitFor(t, EventMatchComplete, time.Second)

	if done1.MatchComplete.Result != "win" || done1.MatchComplete.YourScore != 2 || done1.MatchComplete.OpponentScore != 0 {
		t.Fatalf("p1 match_complete = %+v", done1.MatchComplete)
	}
	if done1.MatchComplete.EloChange == nil || *done1.MatchComplete.EloChange != 20 || done1.MatchComplete.NewElo == nil || *done1.MatchComplete.NewElo != 1020 {
		t.Fatalf("p1 rating change = %+v", done1.MatchComplete)
	}
	if done2.MatchComplete.Result != "loss" || done2.MatchComplete.YourScore != 0 || done2.MatchComplete.OpponentScore != 2 {
		t.Fatalf("p2 match_complete = %+v", done2.MatchComplete)
	}
	if done2.MatchComplete.EloChange == nil || *done2.MatchComplete.EloChange != -20 || done2.MatchComplete.NewElo == nil || *done2.MatchComplete.NewElo != 980 {
		t.Fatalf("p2 rating change = %+v", done2.MatchComplete)
	}
	if p1.countKind(EventRoundResult) != 2 || p2.countKind(EventRoundResult) != 2 {
		t.Fatalf("expected 2 round_result frames per side, got p1=%d p2=%d", p1.countKind(EventRoundResult), p2.countKind(EventRoundResult))
	}
	_ = sess
}

// S3. Forfeit.
func TestSessionForfeit(t *testing.T) {
	sess, p1, p2 := newTestSession(true)

	sess.Disconnect("b")

	disconnectedEvt := p1.waitFor(t, EventOpponentDisconnected, time.Second)
	_ = disconnectedEvt
	complete := p1.waitFor(t, EventMatchComplete, time.Second)

	if complete.MatchComplete.Result != "win" || complete.MatchComplete.YourScore != 2 || complete.MatchComplete.OpponentScore != 0 {
		t.Fatalf("survivor match_complete = %+v", complete.MatchComplete)
	}
	if complete.MatchComplete.EloChange == nil || *complete.MatchComplete.EloChange <= 0 {
		t.Fatalf("expected positive elo change for survivor, got %+v", complete.MatchComplete.EloChange)
	}
	if p2.countKind(EventMatchComplete) != 0 {
		t.Fatalf("disconnecting side must not receive match_complete")
	}
}

// Invalid choice is silently dropped; no round_result until a valid choice
// or the round timer fires (S6).
func TestSessionInvalidChoiceDropped(t *testing.T) {
	sess, p1, p2 := newTestSession(false)

	sess.SubmitChoice("a", "spock")
	time.Sleep(20 * time.Millisecond)
	if p1.countKind(EventRoundResult) != 0 || p2.countKind(EventRoundResult) != 0 {
		t.Fatalf("invalid choice must not produce a round_result")
	}

	sess.SubmitChoice("a", "rock")
	sess.SubmitChoice("b", "rock")
	p1.waitFor(t, EventRoundResult, time.Second)
}

// Unranked matches never populate elo_change/new_elo.
func TestSessionUnrankedHasNoEloChange(t *testing.T) {
	sess, p1, p2 := newTestSession(false)

	sess.SubmitChoice("a", "rock")
	sess.SubmitChoice("b", "scissors")
	sess.SubmitChoice("a", "rock")
	sess.SubmitChoice("b", "scissors")

	done := p1.waitFor(t, EventMatchComplete, time.Second)
	if done.MatchComplete.EloChange != nil || done.MatchComplete.NewElo != nil {
		t.Fatalf("unranked match_complete must omit elo fields, got %+v", done.MatchComplete)
	}
	_ = p2
}
