package game

import (
	"testing"
	"time"

	"github.com/rps-arena/server/internal/store"
)

// newTestFillerSession pairs a fake human participant against a real Filler,
// mirroring the controller's handleFillerReady wiring order: SetSession
// before the match_found delivery, session/filler goroutines started last.
func newTestFillerSession(choiceDelay time.Duration) (*Session, *fakeParticipant, *Filler) {
	human := newFakeParticipant(Identity{ID: "human", Username: "Human", Rating: 1000})
	fillerIdentity := Identity{ID: "filler1", Username: "Filler", Rating: 1000, IsFiller: true}
	filler := NewFiller(fillerIdentity, choiceDelay)

	sess := NewSession(human, filler, false, store.New(nil), SessionConfig{RoundTimeout: time.Hour})

	filler.SetSession(sess)
	human.SetSession(sess)
	filler.Deliver(Event{Kind: EventMatchFound})

	go sess.Run()
	go filler.Run()

	return sess, human, filler
}

// S4. Filler pairing: round 1 resolves as soon as the human chooses, since
// the filler already submitted its choice synchronously from SetSession.
func TestFillerImmediateFirstChoice(t *testing.T) {
	sess, human, _ := newTestFillerSession(200 * time.Millisecond)

	start := time.Now()
	sess.SubmitChoice("human", "rock")
	human.waitFor(t, EventRoundResult, 50*time.Millisecond)

	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Fatalf("round 1 took %v, expected to resolve well before the filler's choice delay", elapsed)
	}
}

// S4. Filler pairing: from round 2 onward the filler waits choiceDelay
// before submitting, instead of answering instantly.
func TestFillerDelaysChoiceAfterFirstRound(t *testing.T) {
	choiceDelay := 40 * time.Millisecond
	sess, human, _ := newTestFillerSession(choiceDelay)

	sess.SubmitChoice("human", "rock")
	human.waitFor(t, EventRoundResult, time.Second)

	sess.SubmitChoice("human", "paper")

	time.Sleep(10 * time.Millisecond)
	if human.countKind(EventRoundResult) != 1 {
		t.Fatalf("round 2 resolved before the filler's choice delay elapsed")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && human.countKind(EventRoundResult) < 2 {
		time.Sleep(2 * time.Millisecond)
	}
	if human.countKind(EventRoundResult) != 2 {
		t.Fatalf("round 2 never resolved after the filler's choice delay")
	}
}

// S4. Filler pairing: a match against a filler is always forced unranked,
// and per-player counters are still meant to be updated on the human side
// (the filler side is skipped in settle, per !IsFiller).
func TestFillerMatchForcedUnranked(t *testing.T) {
	sess, human, _ := newTestFillerSession(5 * time.Millisecond)

	seenRounds := 0
	deadline := time.Now().Add(3 * time.Second)
	choices := [3]string{"rock", "paper", "scissors"}
	for time.Now().Before(deadline) {
		if n := human.countKind(EventRoundStart); n > seenRounds {
			seenRounds = n
			sess.SubmitChoice("human", choices[seenRounds%len(choices)])
		}
		if human.countKind(EventMatchComplete) > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	complete := human.waitFor(t, EventMatchComplete, time.Second)
	if complete.MatchComplete.EloChange != nil || complete.MatchComplete.NewElo != nil {
		t.Fatalf("filler match must never report elo fields, got %+v", complete.MatchComplete)
	}
}
