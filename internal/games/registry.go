package games

import "fmt"

// Deps are the collaborators some modules need beyond the Host.
type Deps struct {
	Shapes   ShapeSource
	TugStats TugRecorder
}

// Registry mounts modules by id.
type Registry struct {
	deps Deps
}

// NewRegistry creates a registry. Nil deps fall back to local defaults.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

// New mounts a fresh module for id. Every call returns an independent
// instance in the waiting state.
func (r *Registry) New(id ID, host Host) (Module, error) {
	switch id {
	case RedLightGreenLight:
		return newRedLight(host), nil
	case Dalgona:
		return newDalgona(host, r.deps.Shapes), nil
	case TugOfWar:
		return newTugOfWar(host, r.deps.TugStats), nil
	case HideAndSeek:
		return newHideAndSeek(host), nil
	case Mingle:
		return newMingle(host), nil
	case GlassBridge:
		return newGlassBridge(host), nil
	case SkySquid:
		return newSkySquid(host), nil
	case FiveLeggedPantethalon:
		return newFiveLegged(host), nil
	case JumpRope:
		return newJumpRope(host), nil
	case Marbles:
		return newMarbles(host), nil
	case SquidGame:
		return newSquidGame(host), nil
	default:
		return nil, fmt.Errorf("games: no module for %q", id)
	}
}
