package games

import "time"

const (
	squidPlayerSpeed = 25.0
	squidGuardSpeed  = 35.0
	squidWaistY      = 50.0
	squidCatchRadius = 8.0
	squidWinY        = 10.0
)

// SquidGameGame: cross the court past the guard patrolling the waist line
// and reach the head of the squid.
type SquidGameGame struct {
	*Round
	player   point
	guardX   float64
	guardDir float64
}

func newSquidGame(host Host) *SquidGameGame {
	spec, _ := Lookup(SquidGame)
	g := &SquidGameGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *SquidGameGame) reset() {
	g.player = point{50, 95}
	g.guardX = 10
	g.guardDir = 1
}

func (g *SquidGameGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	sec := dt.Seconds()
	if in.IsHeld(KeyLeft) {
		g.player.X -= squidPlayerSpeed * sec
	}
	if in.IsHeld(KeyRight) {
		g.player.X += squidPlayerSpeed * sec
	}
	if in.IsHeld(KeyUp) {
		g.player.Y -= squidPlayerSpeed * sec
	}
	if in.IsHeld(KeyDown) {
		g.player.Y += squidPlayerSpeed * sec
	}
	g.player.X = min(100, max(0, g.player.X))
	g.player.Y = min(100, max(0, g.player.Y))

	g.guardX += g.guardDir * squidGuardSpeed * sec
	if g.guardX >= 90 {
		g.guardX, g.guardDir = 90, -1
	} else if g.guardX <= 10 {
		g.guardX, g.guardDir = 10, 1
	}

	if g.player.dist(point{g.guardX, squidWaistY}) < squidCatchRadius {
		g.Fail("The guard caught you at the waist!")
		return
	}
	if g.player.Y <= squidWinY {
		g.Win()
	}
}

func (g *SquidGameGame) Act(Action) error { return ErrUnknownAction }

func (g *SquidGameGame) View() View {
	return g.view(map[string]any{
		"player":      g.player,
		"guard":       point{g.guardX, squidWaistY},
		"catchRadius": squidCatchRadius,
		"winLine":     squidWinY,
	})
}
