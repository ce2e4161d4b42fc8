package game

import (
	"log"
	"math/rand"
	"time"
)

var fillerChoices = [3]string{string(Rock), string(Paper), string(Scissors)}

// Filler stands in for a missing human opponent. It receives the same
// session events a connection would and reacts by producing a random
// valid choice, with a short delay to avoid looking instantaneous.
type Filler struct {
	identity Identity
	inbox    chan Event

	session     *Session
	autoPlay    bool
	choiceDelay time.Duration
}

func NewFiller(identity Identity, choiceDelay time.Duration) *Filler {
	return &Filler{
		identity:    identity,
		inbox:       make(chan Event, 16),
		choiceDelay: choiceDelay,
	}
}

func (f *Filler) Identity() Identity { return f.identity }

func (f *Filler) Deliver(e Event) {
	f.inbox <- e
}

// SetSession attaches the session and immediately emits one choice so the
// first round does not stall waiting for the usual delay.
func (f *Filler) SetSession(s *Session) {
	f.session = s
	f.makeChoice()
}

// Run consumes the filler's inbox. Call it once, in its own goroutine.
func (f *Filler) Run() {
	for e := range f.inbox {
		switch e.Kind {
		case EventMatchFound:
			f.autoPlay = true
		case EventRoundStart:
			if e.RoundStart.Round == 1 {
				// already handled by SetSession's immediate first choice
				continue
			}
			if f.autoPlay {
				session := f.session
				time.AfterFunc(f.choiceDelay, func() {
					f.submitRandomChoice(session)
				})
			}
		default:
			// opponent_chose, round_result, match_complete, opponent_disconnected: ignored
		}
	}
}

func (f *Filler) makeChoice() {
	session := f.session
	if session == nil {
		return
	}
	f.submitRandomChoice(session)
}

func (f *Filler) submitRandomChoice(session *Session) {
	if session == nil {
		return
	}
	choice := fillerChoices[rand.Intn(len(fillerChoices))]
	log.Printf("[FILLER] %s choosing %s", f.identity.ID, choice)
	session.SubmitChoice(f.identity.ID, choice)
}
