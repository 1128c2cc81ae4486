package games

import "time"

const (
	mingleRounds    = 3
	mingleRoundTime = 15 * time.Second
	mingleSpinTime  = 2 * time.Second
	mingleMinGroup  = 2
	mingleMaxGroup  = 6
	StatusSpinning  = Status("spinning")
)

// MingleGame: when the music stops a group size is called; get into a room
// holding exactly that many before the doors close.
type MingleGame struct {
	*Round
	round    int
	called   int
	roundAge time.Duration
}

func newMingle(host Host) *MingleGame {
	spec, _ := Lookup(Mingle)
	g := &MingleGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *MingleGame) reset() {
	g.round = 0
	g.spin()
}

func (g *MingleGame) spin() {
	g.called = 0
	g.roundAge = 0
	g.setStatus(StatusSpinning)
	g.After(mingleSpinTime, func() {
		g.called = mingleMinGroup + g.host.Rand.IntN(mingleMaxGroup-mingleMinGroup+1)
		g.setStatus(StatusPlaying)
	})
}

// Act enters a room of the given size.
func (g *MingleGame) Act(a Action) error {
	if a.Kind != ActionChoose {
		return ErrUnknownAction
	}
	if !g.Live() || g.Status() != StatusPlaying {
		return nil
	}
	if a.Value != g.called {
		g.Fail("Wrong group size!")
		return nil
	}
	g.round++
	if g.round >= mingleRounds {
		g.Win()
		return nil
	}
	g.spin()
	return nil
}

func (g *MingleGame) Update(_ Input, dt time.Duration) {
	if !g.Live() || g.Status() != StatusPlaying {
		return
	}
	g.roundAge += dt
	if g.roundAge >= mingleRoundTime {
		g.Fail("The doors closed!")
	}
}

func (g *MingleGame) View() View {
	return g.view(map[string]any{
		"round":    g.round,
		"rounds":   mingleRounds,
		"called":   g.called,
		"minGroup": mingleMinGroup,
		"maxGroup": mingleMaxGroup,
		"timeLeft": max(0, (mingleRoundTime - g.roundAge).Seconds()),
	})
}
