package ws

import (
	"encoding/json"

	"github.com/rps-arena/server/internal/game"
)

// inboundEnvelope is parsed first to read the discriminator; payload fields
// are re-parsed from the same raw bytes once the type is known.
type inboundEnvelope struct {
	Type string `json:"type"`
}

type joinQueuePayload struct {
	Ranked bool `json:"ranked"`
}

type choicePayload struct {
	Choice string `json:"choice"`
}

// opponentInfo mirrors the original server's ServerMessage::MatchFound
// nested OpponentInfo struct rather than flattening the fields.
type opponentInfo struct {
	Username string `json:"username"`
	Elo      int    `json:"elo"`
}

// buildOutbound translates a game.Event into the wire frame a client expects.
func buildOutbound(e game.Event) ([]byte, error) {
	switch e.Kind {
	case game.EventQueued:
		return json.Marshal(map[string]string{"type": "queued"})
	case game.EventMatchFound:
		return json.Marshal(struct {
			Type      string       `json:"type"`
			SessionID string       `json:"session_id"`
			Opponent  opponentInfo `json:"opponent"`
		}{"match_found", e.MatchFound.SessionID, opponentInfo{
			Username: e.MatchFound.OpponentUsername,
			Elo:      e.MatchFound.OpponentElo,
		}})
	case game.EventRoundStart:
		return json.Marshal(struct {
			Type        string `json:"type"`
			Round       int    `json:"round"`
			TimeoutSecs int    `json:"timeout_secs"`
		}{"round_start", e.RoundStart.Round, e.RoundStart.TimeoutSecs})
	case game.EventOpponentChose:
		return json.Marshal(map[string]string{"type": "opponent_chose"})
	case game.EventRoundResult:
		return json.Marshal(struct {
			Type           string `json:"type"`
			Round          int    `json:"round"`
			YourChoice     string `json:"your_choice"`
			OpponentChoice string `json:"opponent_choice"`
			Winner         string `json:"winner"`
			YourScore      int    `json:"your_score"`
			OpponentScore  int    `json:"opponent_score"`
		}{"round_result", e.RoundResult.Round, e.RoundResult.YourChoice, e.RoundResult.OpponentChoice,
			e.RoundResult.Winner, e.RoundResult.YourScore, e.RoundResult.OpponentScore})
	case game.EventMatchComplete:
		return json.Marshal(struct {
			Type          string `json:"type"`
			Result        string `json:"result"`
			YourScore     int    `json:"your_score"`
			OpponentScore int    `json:"opponent_score"`
			EloChange     *int   `json:"elo_change,omitempty"`
			NewElo        *int   `json:"new_elo,omitempty"`
		}{"match_complete", e.MatchComplete.Result, e.MatchComplete.YourScore, e.MatchComplete.OpponentScore,
			e.MatchComplete.EloChange, e.MatchComplete.NewElo})
	case game.EventOpponentDisconnected:
		return json.Marshal(map[string]string{"type": "opponent_disconnected"})
	case game.EventError:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{"error", e.ErrorMessage})
	default:
		return nil, nil
	}
}
