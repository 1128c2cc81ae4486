package games

import "time"

const (
	bridgePanels    = 8
	bridgeTimeLimit = 30 * time.Second
)

// GlassBridgeGame: pick left (0) or right (1) at each step; one pane of each
// pair is tempered glass. The layout is redrawn on every play-through.
type GlassBridgeGame struct {
	*Round
	safe    [bridgePanels]int
	step    int
	elapsed time.Duration
}

func newGlassBridge(host Host) *GlassBridgeGame {
	spec, _ := Lookup(GlassBridge)
	g := &GlassBridgeGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *GlassBridgeGame) reset() {
	for i := range g.safe {
		g.safe[i] = g.host.Rand.IntN(2)
	}
	g.step = 0
	g.elapsed = 0
}

func (g *GlassBridgeGame) Act(a Action) error {
	if a.Kind != ActionChoose {
		return ErrUnknownAction
	}
	if !g.Live() {
		return nil
	}
	if a.Value != 0 && a.Value != 1 {
		return ErrUnknownAction
	}
	if a.Value != g.safe[g.step] {
		g.Fail("The glass shattered!")
		return nil
	}
	g.step++
	if g.step >= bridgePanels {
		g.Win()
	}
	return nil
}

func (g *GlassBridgeGame) Update(_ Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	g.elapsed += dt
	if g.elapsed >= bridgeTimeLimit {
		g.Fail("Time's up!")
	}
}

func (g *GlassBridgeGame) View() View {
	revealed := make([]int, g.step)
	copy(revealed, g.safe[:g.step])
	return g.view(map[string]any{
		"step":     g.step,
		"panels":   bridgePanels,
		"crossed":  revealed,
		"timeLeft": max(0, (bridgeTimeLimit - g.elapsed).Seconds()),
	})
}
