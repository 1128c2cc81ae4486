package games

import (
	"context"
	"time"

	"github.com/MJE43/survival-arcade/internal/shapegen"
)

const (
	dalgonaTolerance = 8.0
	dalgonaMaxCracks = 3
	dalgonaTimeLimit = 90 * time.Second
)

// ShapeSource supplies the outline for a shape. It never fails; sources fall
// back to a built-in path on their own.
type ShapeSource interface {
	Path(ctx context.Context, shape string) string
}

type fallbackShapes struct{}

func (fallbackShapes) Path(_ context.Context, shape string) string { return shapegen.Fallback(shape) }

// DalgonaGame: trace the outline without straying off it.
type DalgonaGame struct {
	*Round
	source ShapeSource

	shape   string
	path    string
	loading bool
	// startPending is set when Start arrives before the outline.
	startPending bool
	// pick counts shape selections so a late path for an old pick is dropped.
	pick int

	progress float64
	cracks   int
	offPath  bool
	elapsed  time.Duration
}

func newDalgona(host Host, source ShapeSource) *DalgonaGame {
	if source == nil {
		source = fallbackShapes{}
	}
	spec, _ := Lookup(Dalgona)
	g := &DalgonaGame{Round: newRound(host, spec), source: source}
	g.restart = g.reset
	return g
}

// reset keeps the chosen shape and path.
func (g *DalgonaGame) reset() {
	g.progress = 0
	g.cracks = 0
	g.offPath = false
	g.elapsed = 0
}

// Act selects a shape by index while waiting.
func (g *DalgonaGame) Act(a Action) error {
	if a.Kind != ActionShape {
		return ErrUnknownAction
	}
	if g.Status() != StatusWaiting {
		return nil
	}
	shapes := shapegen.Shapes()
	if a.Value < 0 || a.Value >= len(shapes) {
		return ErrUnknownAction
	}
	g.choose(shapes[a.Value])
	return nil
}

func (g *DalgonaGame) choose(shape string) {
	g.pick++
	pick := g.pick
	g.shape = shape
	g.path = ""
	if g.host.Post == nil {
		g.path = g.source.Path(context.Background(), shape)
		return
	}
	g.loading = true
	source, post := g.source, g.host.Post
	go func() {
		path := source.Path(context.Background(), shape)
		post(func() {
			if g.closed || g.pick != pick {
				return
			}
			g.path = path
			g.loading = false
			if g.startPending {
				g.startPending = false
				g.Round.Start()
			}
		})
	}()
}

// Start waits for the outline and begins once it arrives. Without a
// selection the first shape is used.
func (g *DalgonaGame) Start() {
	if g.shape == "" {
		g.choose(shapegen.Shapes()[0])
	}
	if g.loading {
		g.startPending = true
		return
	}
	g.Round.Start()
}

func (g *DalgonaGame) Update(in Input, dt time.Duration) {
	if !g.Live() {
		return
	}
	g.elapsed += dt
	if t := in.Trace; t != nil {
		if t.Deviation > dalgonaTolerance {
			if !g.offPath {
				g.offPath = true
				g.cracks++
				if g.cracks >= dalgonaMaxCracks {
					g.Fail("The cookie cracked!")
					return
				}
			}
		} else {
			g.offPath = false
			g.progress = max(g.progress, min(1, t.Progress))
		}
	}
	if g.progress >= 1 {
		g.Win()
		return
	}
	if g.elapsed >= dalgonaTimeLimit {
		g.Fail("Time's up!")
	}
}

func (g *DalgonaGame) View() View {
	return g.view(map[string]any{
		"shape":     g.shape,
		"path":      g.path,
		"loading":   g.loading,
		"shapes":    shapegen.Shapes(),
		"progress":  g.progress,
		"cracks":    g.cracks,
		"maxCracks": dalgonaMaxCracks,
		"tolerance": dalgonaTolerance,
		"timeLeft":  max(0, (dalgonaTimeLimit - g.elapsed).Seconds()),
	})
}
