package games

import (
	"math"
	"time"

	"github.com/MJE43/survival-arcade/internal/wallet"
)

const (
	hideSurviveTime   = 40 * time.Second
	hideInvisibleTime = 5 * time.Second
	hidePlayerSpeed   = 30.0
	hideGuardSpeed    = 20.0
	hideConeRange     = 30.0
	hideConeHalfAngle = math.Pi / 6
	hideSpotRadius    = 7.0
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p point) dist(q point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

var (
	hidePatrol = []point{{20, 20}, {80, 20}, {80, 80}, {20, 80}}
	hideSpots  = []point{{50, 50}, {15, 50}, {85, 50}, {50, 12}}
	hideStart  = point{50, 92}
)

// HideAndSeekGame: survive until the clock runs out without entering the
// patrolling guard's vision cone. Hiding spots and invisibility block sight.
type HideAndSeekGame struct {
	*Round
	player    point
	guard     point
	facing    float64
	waypoint  int
	elapsed   time.Duration
	invisible time.Duration
}

func newHideAndSeek(host Host) *HideAndSeekGame {
	spec, _ := Lookup(HideAndSeek)
	g := &HideAndSeekGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *HideAndSeekGame) reset() {
	g.player = hideStart
	g.guard = hidePatrol[0]
	g.waypoint = 1
	g.facing = 0
	g.elapsed = 0
	g.invisible = 0
}

// Act spends an Invisibility power-up.
func (g *HideAndSeekGame) Act(a Action) error {
	if a.Kind != ActionInvisibility {
		return ErrUnknownAction
	}
	if !g.Live() || g.invisible > 0 {
		return nil
	}
	if g.host.Wallet == nil || !g.host.Wallet.Consume(wallet.Invisibility) {
		return wallet.ErrInsufficientInventory
	}
	g.invisible = hideInvisibleTime
	return nil
}

func (g *HideAndSeekGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	sec := dt.Seconds()
	g.elapsed += dt
	g.invisible = max(0, g.invisible-dt)

	var dx, dy float64
	if in.IsHeld(KeyLeft) {
		dx--
	}
	if in.IsHeld(KeyRight) {
		dx++
	}
	if in.IsHeld(KeyUp) {
		dy--
	}
	if in.IsHeld(KeyDown) {
		dy++
	}
	g.player.X = min(100, max(0, g.player.X+dx*hidePlayerSpeed*sec))
	g.player.Y = min(100, max(0, g.player.Y+dy*hidePlayerSpeed*sec))

	target := hidePatrol[g.waypoint]
	if step := hideGuardSpeed * sec; g.guard.dist(target) <= step {
		g.guard = target
		g.waypoint = (g.waypoint + 1) % len(hidePatrol)
	} else {
		g.facing = math.Atan2(target.Y-g.guard.Y, target.X-g.guard.X)
		g.guard.X += math.Cos(g.facing) * step
		g.guard.Y += math.Sin(g.facing) * step
	}

	if g.spotted() {
		g.Fail("The guard spotted you!")
		return
	}
	if g.elapsed >= hideSurviveTime {
		g.Win()
	}
}

func (g *HideAndSeekGame) hidden() bool {
	for _, s := range hideSpots {
		if g.player.dist(s) <= hideSpotRadius {
			return true
		}
	}
	return false
}

func (g *HideAndSeekGame) spotted() bool {
	if g.invisible > 0 || g.hidden() {
		return false
	}
	if g.player.dist(g.guard) > hideConeRange {
		return false
	}
	angle := math.Atan2(g.player.Y-g.guard.Y, g.player.X-g.guard.X)
	diff := math.Abs(math.Remainder(angle-g.facing, 2*math.Pi))
	return diff <= hideConeHalfAngle
}

func (g *HideAndSeekGame) View() View {
	return g.view(map[string]any{
		"player":       g.player,
		"guard":        g.guard,
		"facing":       g.facing,
		"coneRange":    hideConeRange,
		"coneAngle":    2 * hideConeHalfAngle,
		"spots":        hideSpots,
		"spotRadius":   hideSpotRadius,
		"hidden":       g.hidden(),
		"invisibleFor": g.invisible.Seconds(),
		"timeLeft":     max(0, (hideSurviveTime - g.elapsed).Seconds()),
	})
}
