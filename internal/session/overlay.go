package session

import (
	"fmt"

	"github.com/MJE43/survival-arcade/internal/games"
)

// OverlayKind names the outcome screen shown in place of a module.
type OverlayKind string

const (
	OverlayStageCleared      OverlayKind = "stage_cleared"
	OverlayChallengeComplete OverlayKind = "challenge_complete"
	OverlayEliminated        OverlayKind = "eliminated"
	OverlayBetWon            OverlayKind = "bet_won"
	OverlayBetLost           OverlayKind = "bet_lost"
)

// Overlay is the outcome screen and its primary action.
type Overlay struct {
	Kind     OverlayKind `json:"kind"`
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle"`
	Button   string      `json:"button"`
	NextGame string      `json:"nextGame,omitempty"`
}

// Overlay derives the outcome screen, or nil while a game is in play.
func (c *Coordinator) Overlay() *Overlay {
	switch c.mode {
	case games.ModeChallenge:
		switch c.status {
		case StatusTransition:
			next, _ := c.Sequencer().NextGame()
			return &Overlay{
				Kind:     OverlayStageCleared,
				Title:    fmt.Sprintf("Stage %d Cleared!", c.stage+1),
				Subtitle: fmt.Sprintf("You earned %d coins. Next up: %s.", StageReward, games.Name(next)),
				Button:   "Start Next Game",
				NextGame: games.Name(next),
			}
		case StatusWon:
			return &Overlay{
				Kind:     OverlayChallengeComplete,
				Title:    "Challenge Complete!",
				Subtitle: fmt.Sprintf("You survived all games and earned a %d coin bonus!", CompletionBonus),
				Button:   "Back to Lobby",
			}
		case StatusLost:
			return &Overlay{
				Kind:     OverlayEliminated,
				Title:    "Eliminated!",
				Subtitle: "You have been eliminated from the challenge.",
				Button:   "Back to Lobby",
			}
		}
	case games.ModeBetting:
		if c.bet == nil {
			return nil
		}
		switch c.status {
		case StatusWon:
			return &Overlay{
				Kind:     OverlayBetWon,
				Title:    "You Won the Bet!",
				Subtitle: fmt.Sprintf("You earned %d coins!", BetPayout*c.bet.Amount),
				Button:   "Back to Lobby",
			}
		case StatusLost:
			return &Overlay{
				Kind:     OverlayBetLost,
				Title:    "You Lost the Bet!",
				Subtitle: fmt.Sprintf("You lost your %d coin bet.", c.bet.Amount),
				Button:   "Back to Lobby",
			}
		}
	}
	return nil
}
