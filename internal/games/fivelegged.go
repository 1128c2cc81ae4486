package games

import "time"

const (
	fiveSequenceLength = 5
	fivePads           = 5
	fiveFlashTime      = 600 * time.Millisecond
)

// StatusShowing is the substate in which the sequence is being flashed.
const StatusShowing = Status("showing")

// FiveLeggedGame: a memory race. Each level flashes one more pad of the
// sequence and the team must repeat it.
type FiveLeggedGame struct {
	*Round
	sequence [fiveSequenceLength]int
	level    int
	input    int
	lit      int
}

func newFiveLegged(host Host) *FiveLeggedGame {
	spec, _ := Lookup(FiveLeggedPantethalon)
	g := &FiveLeggedGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *FiveLeggedGame) reset() {
	for i := range g.sequence {
		g.sequence[i] = g.host.Rand.IntN(fivePads)
	}
	g.level = 1
	g.show()
}

func (g *FiveLeggedGame) show() {
	g.input = 0
	g.lit = -1
	g.setStatus(StatusShowing)
	g.flash(0)
}

func (g *FiveLeggedGame) flash(i int) {
	if i >= g.level {
		g.lit = -1
		g.setStatus(StatusPlaying)
		return
	}
	g.lit = g.sequence[i]
	g.After(fiveFlashTime, func() { g.flash(i + 1) })
}

// Act steps on a pad.
func (g *FiveLeggedGame) Act(a Action) error {
	if a.Kind != ActionChoose {
		return ErrUnknownAction
	}
	if !g.Live() || g.Status() != StatusPlaying {
		return nil
	}
	if a.Value < 0 || a.Value >= fivePads {
		return ErrUnknownAction
	}
	if a.Value != g.sequence[g.input] {
		g.Fail("Wrong step! The team fell.")
		return nil
	}
	g.input++
	if g.input < g.level {
		return nil
	}
	if g.level >= fiveSequenceLength {
		g.Win()
		return nil
	}
	g.level++
	g.show()
	return nil
}

func (g *FiveLeggedGame) Update(Input, time.Duration) {}

func (g *FiveLeggedGame) View() View {
	return g.view(map[string]any{
		"pads":   fivePads,
		"level":  g.level,
		"length": fiveSequenceLength,
		"input":  g.input,
		"lit":    g.lit,
	})
}
