package games

import "time"

const (
	tugRopeLimit  = 50.0
	tugPlayerPull = 2.0
)

// TugOfWarGame: mash space to drag the rope past +50 before the AI drags it
// past -50. The AI tuning is re-read from the record at every play-through.
type TugOfWarGame struct {
	*Round
	stats      TugRecorder
	difficulty TugDifficulty

	rope     float64
	fatigued bool
	presses  int
}

func newTugOfWar(host Host, stats TugRecorder) *TugOfWarGame {
	spec, _ := Lookup(TugOfWar)
	g := &TugOfWarGame{Round: newRound(host, spec), stats: stats}
	g.difficulty = g.currentDifficulty()
	g.restart = g.reset
	g.onSettle = g.record
	return g
}

func (g *TugOfWarGame) currentDifficulty() TugDifficulty {
	if g.stats == nil {
		return Difficulty(TugStats{})
	}
	return Difficulty(g.stats.Stats())
}

func (g *TugOfWarGame) reset() {
	g.difficulty = g.currentDifficulty()
	g.rope = 0
	g.fatigued = false
	g.presses = 0
	g.After(g.pullDelay(), g.aiPull)
}

func (g *TugOfWarGame) pullDelay() time.Duration {
	d := g.difficulty
	return d.DelayMin + time.Duration(g.rng()*float64(d.DelayMax-d.DelayMin))
}

func (g *TugOfWarGame) record(won bool) {
	if g.stats != nil {
		g.stats.Record(won)
	}
}

func (g *TugOfWarGame) aiPull() {
	if !g.Live() {
		return
	}
	d := g.difficulty
	g.move(-g.between(d.StrengthMin, d.StrengthMax))
	if !g.Live() {
		return
	}
	// A fatigued AI still pulled; it only waits longer for the next one.
	delay := g.pullDelay()
	g.fatigued = g.rng() < d.FatigueChance
	if g.fatigued {
		delay += d.FatigueDelay
	}
	g.After(delay, g.aiPull)
}

func (g *TugOfWarGame) move(delta float64) {
	g.rope = min(tugRopeLimit, max(-tugRopeLimit, g.rope+delta))
	switch {
	case g.rope >= tugRopeLimit:
		g.Win()
	case g.rope <= -tugRopeLimit:
		g.Fail("You were pulled over the edge!")
	}
}

func (g *TugOfWarGame) Update(in Input, _ time.Duration) {
	if !g.Live() || !in.WasPressed(KeySpace) {
		return
	}
	g.presses++
	g.move(tugPlayerPull)
}

func (g *TugOfWarGame) Act(Action) error { return ErrUnknownAction }

func (g *TugOfWarGame) View() View {
	return g.view(map[string]any{
		"rope":      g.rope,
		"limit":     tugRopeLimit,
		"aiFatigue": g.fatigued,
		"presses":   g.presses,
	})
}
