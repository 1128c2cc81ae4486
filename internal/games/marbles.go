package games

import "time"

const (
	marblesStart     = 10
	marblesTotal     = 2 * marblesStart
	marblesThinkTime = time.Second
)

// StatusAIThinking is the substate while the opponent reveals its hand.
const StatusAIThinking = Status("ai_thinking")

// Guesses for ActionGuess.
const (
	GuessEven = 0
	GuessOdd  = 1
)

// MarblesGame: odd or even. Wager marbles on the parity of the opponent's
// hidden handful; win them all to survive.
type MarblesGame struct {
	*Round
	player int
	wager  int
	hand   int
	last   string
}

func newMarbles(host Host) *MarblesGame {
	spec, _ := Lookup(Marbles)
	g := &MarblesGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *MarblesGame) reset() {
	g.player = marblesStart
	g.wager = 1
	g.hand = 0
	g.last = ""
}

func (g *MarblesGame) opponent() int { return marblesTotal - g.player }

func (g *MarblesGame) Act(a Action) error {
	switch a.Kind {
	case ActionBet:
		if g.Live() && g.Status() == StatusPlaying {
			g.wager = min(max(1, a.Value), g.player, g.opponent())
		}
		return nil
	case ActionGuess:
		if !g.Live() || g.Status() != StatusPlaying {
			return nil
		}
		if a.Value != GuessEven && a.Value != GuessOdd {
			return ErrUnknownAction
		}
		g.hand = 1 + g.host.Rand.IntN(g.opponent())
		g.setStatus(StatusAIThinking)
		guess := a.Value
		g.After(marblesThinkTime, func() { g.settleGuess(guess) })
		return nil
	default:
		return ErrUnknownAction
	}
}

func (g *MarblesGame) settleGuess(guess int) {
	g.setStatus(StatusPlaying)
	if g.hand%2 == guess%2 {
		g.player += g.wager
		g.last = "won"
	} else {
		g.player -= g.wager
		g.last = "lost"
	}
	switch {
	case g.player >= marblesTotal:
		g.Win()
		return
	case g.player <= 0:
		g.Fail("You lost all your marbles!")
		return
	}
	g.wager = min(g.wager, g.player, g.opponent())
}

func (g *MarblesGame) Update(Input, time.Duration) {}

func (g *MarblesGame) View() View {
	fields := map[string]any{
		"player":   g.player,
		"opponent": g.opponent(),
		"wager":    g.wager,
		"last":     g.last,
		"target":   marblesTotal,
	}
	if g.last != "" {
		fields["revealed"] = g.hand
	}
	return g.view(fields)
}
