package games

import "time"

const (
	jumpWinCount    = 20
	jumpWindowStart = 75.0
	jumpWindowEnd   = 95.0
	jumpBaseSpeed   = 50.0 // rope phase units per second
	jumpSpeedStep   = 2.0
)

// JumpRopeGame: the rope phase runs 0..100; press space while it sweeps
// through the jump window.
type JumpRopeGame struct {
	*Round
	phase  float64
	jumped bool
	jumps  int
}

func newJumpRope(host Host) *JumpRopeGame {
	spec, _ := Lookup(JumpRope)
	g := &JumpRopeGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *JumpRopeGame) reset() {
	g.phase = 0
	g.jumped = false
	g.jumps = 0
}

func (g *JumpRopeGame) inWindow() bool {
	return g.phase >= jumpWindowStart && g.phase <= jumpWindowEnd
}

func (g *JumpRopeGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	if in.WasPressed(KeySpace) && g.inWindow() {
		g.jumped = true
	}
	prev := g.phase
	g.phase += (jumpBaseSpeed + jumpSpeedStep*float64(g.jumps)) * dt.Seconds()
	if prev <= jumpWindowEnd && g.phase > jumpWindowEnd {
		if !g.jumped {
			g.Fail("You tripped on the rope!")
			return
		}
		g.jumped = false
		g.jumps++
		if g.jumps >= jumpWinCount {
			g.Win()
			return
		}
	}
	if g.phase >= 100 {
		g.phase -= 100
	}
}

func (g *JumpRopeGame) Act(Action) error { return ErrUnknownAction }

func (g *JumpRopeGame) View() View {
	return g.view(map[string]any{
		"phase":       g.phase,
		"windowStart": jumpWindowStart,
		"windowEnd":   jumpWindowEnd,
		"jumped":      g.jumped,
		"jumps":       g.jumps,
		"target":      jumpWinCount,
	})
}
