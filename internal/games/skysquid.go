package games

import "time"

const (
	skyWinScore      = 10
	skyPlayerX       = 15.0
	skyPlayerSpeed   = 45.0
	skyObstacleSpeed = 40.0
	skyObstacleWidth = 6.0
	skyGapSize       = 30.0
	skySpawnEvery    = 1500 * time.Millisecond
)

type skyObstacle struct {
	X      float64 `json:"x"`
	GapY   float64 `json:"gapY"`
	Passed bool    `json:"passed"`
}

// SkySquidGame: steer up and down through the gaps of incoming obstacles.
type SkySquidGame struct {
	*Round
	y         float64
	obstacles []skyObstacle
	score     int
	spawnIn   time.Duration
}

func newSkySquid(host Host) *SkySquidGame {
	spec, _ := Lookup(SkySquid)
	g := &SkySquidGame{Round: newRound(host, spec)}
	g.restart = g.reset
	return g
}

func (g *SkySquidGame) reset() {
	g.y = 50
	g.obstacles = nil
	g.score = 0
	g.spawnIn = 0
}

func (g *SkySquidGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	sec := dt.Seconds()
	if in.IsHeld(KeyUp) {
		g.y -= skyPlayerSpeed * sec
	}
	if in.IsHeld(KeyDown) {
		g.y += skyPlayerSpeed * sec
	}
	g.y = min(100, max(0, g.y))

	g.spawnIn -= dt
	if g.spawnIn <= 0 {
		g.spawnIn = skySpawnEvery
		g.obstacles = append(g.obstacles, skyObstacle{
			X:    100,
			GapY: g.between(skyGapSize/2, 100-skyGapSize/2),
		})
	}

	kept := g.obstacles[:0]
	for _, o := range g.obstacles {
		o.X -= skyObstacleSpeed * sec
		if !o.Passed && o.X <= skyPlayerX+skyObstacleWidth/2 && o.X >= skyPlayerX-skyObstacleWidth/2 {
			if g.y < o.GapY-skyGapSize/2 || g.y > o.GapY+skyGapSize/2 {
				g.Fail("You crashed!")
				return
			}
		}
		if !o.Passed && o.X < skyPlayerX-skyObstacleWidth/2 {
			o.Passed = true
			g.score++
		}
		if o.X > -skyObstacleWidth {
			kept = append(kept, o)
		}
	}
	g.obstacles = kept
	if g.score >= skyWinScore {
		g.Win()
	}
}

func (g *SkySquidGame) Act(Action) error { return ErrUnknownAction }

func (g *SkySquidGame) View() View {
	obs := make([]skyObstacle, len(g.obstacles))
	copy(obs, g.obstacles)
	return g.view(map[string]any{
		"y":         g.y,
		"playerX":   skyPlayerX,
		"obstacles": obs,
		"gapSize":   skyGapSize,
		"score":     g.score,
		"winScore":  skyWinScore,
	})
}
