package games

import "time"

const (
	rlglFinishLine = 95.0
	rlglSpeed      = 12.0 // units per second while moving
	rlglTimeLimit  = 60 * time.Second
	rlglMinCycle   = 2 * time.Second
	rlglMaxCycle   = 4 * time.Second
)

// RedLightGame: advance while the light is green, freeze on red.
type RedLightGame struct {
	*Round
	position float64
	green    bool
	elapsed  time.Duration
}

func newRedLight(host Host) *RedLightGame {
	spec, _ := Lookup(RedLightGreenLight)
	g := &RedLightGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *RedLightGame) reset() {
	g.position = 0
	g.elapsed = 0
	g.green = true
	g.scheduleToggle()
}

func (g *RedLightGame) scheduleToggle() {
	d := rlglMinCycle + time.Duration(g.rng()*float64(rlglMaxCycle-rlglMinCycle))
	g.After(d, func() {
		g.green = !g.green
		g.scheduleToggle()
	})
}

func (g *RedLightGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	g.elapsed += dt
	moving := in.IsHeld(KeyUp) || in.IsHeld(KeySpace)
	if moving {
		if !g.green {
			g.Fail("You moved on red light!")
			return
		}
		g.position = min(100, g.position+rlglSpeed*dt.Seconds())
	}
	if g.position >= rlglFinishLine {
		g.Win()
		return
	}
	if g.elapsed >= rlglTimeLimit {
		g.Fail("Time's up!")
	}
}

func (g *RedLightGame) Act(Action) error { return ErrUnknownAction }

func (g *RedLightGame) View() View {
	return g.view(map[string]any{
		"position":   g.position,
		"finishLine": rlglFinishLine,
		"light":      map[bool]string{true: "green", false: "red"}[g.green],
		"timeLeft":   max(0, (rlglTimeLimit - g.elapsed).Seconds()),
	})
}
