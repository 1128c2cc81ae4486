package session

import "github.com/MJE43/survival-arcade/internal/games"

// Sequence is an ordered list of challenge stages.
type Sequence []games.ID

// Challenge is the fixed challenge order. Hide-and-Seek and Glass Bridge are
// standalone games and stay out of it.
var Challenge = Sequence{
	games.RedLightGreenLight,
	games.Dalgona,
	games.FiveLeggedPantethalon,
	games.JumpRope,
	games.TugOfWar,
	games.Marbles,
	games.Mingle,
	games.SkySquid,
	games.SquidGame,
}

func (s Sequence) Len() int { return len(s) }

// At returns the game at stage.
func (s Sequence) At(stage int) (games.ID, bool) {
	if stage < 0 || stage >= len(s) {
		return "", false
	}
	return s[stage], true
}

// Sequencer is a read model over a sequence and the current stage. It holds
// no state of its own.
type Sequencer struct {
	Sequence Sequence
	Stage    int
}

func (q Sequencer) CurrentGame() (games.ID, bool) { return q.Sequence.At(q.Stage) }

func (q Sequencer) NextGame() (games.ID, bool) { return q.Sequence.At(q.Stage + 1) }

func (q Sequencer) IsFinalStage() bool { return q.Stage == len(q.Sequence)-1 }
