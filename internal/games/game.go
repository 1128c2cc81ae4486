// Package games defines the contract every mini-game satisfies and the
// mini-games themselves. Each module is an explicit state machine stepped by
// Update; rendering is derived from View and never feeds back into state.
package games

import (
	"errors"
	"log"
	"math/rand/v2"
	"time"

	"github.com/MJE43/survival-arcade/internal/wallet"
)

// ErrUnknownAction is returned by Act when a module does not accept the action.
var ErrUnknownAction = errors.New("games: unknown action")

// ID names a destination: a playable mini-game or a lobby-level screen.
type ID string

const (
	Lobby                 ID = "lobby"
	Shop                  ID = "shop"
	ChallengeMode         ID = "challenge-mode"
	RedLightGreenLight    ID = "red-light-green-light"
	Dalgona               ID = "dalgona"
	TugOfWar              ID = "tug-of-war"
	HideAndSeek           ID = "hide-and-seek"
	Mingle                ID = "mingle"
	GlassBridge           ID = "glass-bridge"
	SkySquid              ID = "sky-squid"
	FiveLeggedPantethalon ID = "five-legged-pantethalon"
	JumpRope              ID = "jump-rope"
	Marbles               ID = "marbles"
	SquidGame             ID = "squid-game"
)

// Playable reports whether id is a mini-game rather than a screen.
func (id ID) Playable() bool {
	_, ok := Lookup(id)
	return ok
}

// Mode is the session mode a module was mounted under.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeChallenge Mode = "challenge"
	ModeBetting   Mode = "betting"
)

// Status is the shared lifecycle state. Modules may add substates; every
// substate counts as active play.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Terminal reports whether s ends a play-through.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Spec describes a mini-game.
type Spec struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Reward   int    `json:"reward"`
	Bettable bool   `json:"bettable"`
}

var specs = []Spec{
	{ID: RedLightGreenLight, Name: "Red Light, Green Light", Reward: 50},
	{ID: Dalgona, Name: "Dalgona Challenge", Reward: 50, Bettable: true},
	{ID: TugOfWar, Name: "Tug of War", Reward: 50, Bettable: true},
	{ID: HideAndSeek, Name: "Hide and Seek", Reward: 50, Bettable: true},
	{ID: Mingle, Name: "Mingle", Reward: 50},
	{ID: GlassBridge, Name: "Glass Bridge", Reward: 50, Bettable: true},
	{ID: SkySquid, Name: "Sky Squid", Reward: 50, Bettable: true},
	{ID: FiveLeggedPantethalon, Name: "5 Legged Pantethalon", Reward: 50, Bettable: true},
	{ID: JumpRope, Name: "Jump Rope", Reward: 50, Bettable: true},
	{ID: Marbles, Name: "Marbles", Reward: 100, Bettable: true},
	{ID: SquidGame, Name: "Squid Game", Reward: 150, Bettable: true},
}

// ListGames returns every playable mini-game.
func ListGames() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Lookup finds the spec for id.
func Lookup(id ID) (Spec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

// Name returns the display name, or "" for screens.
func Name(id ID) string {
	s, _ := Lookup(id)
	return s.Name
}

// Key is a normalised keyboard key. WASD is mapped to arrows by the frontend.
type Key string

const (
	KeySpace Key = "space"
	KeyUp    Key = "up"
	KeyDown  Key = "down"
	KeyLeft  Key = "left"
	KeyRight Key = "right"
)

// Trace is the pointer sample for tracing games. Geometry is resolved by the
// frontend: Progress is the covered fraction of the outline, Deviation the
// distance from it.
type Trace struct {
	Progress  float64 `json:"progress"`
	Deviation float64 `json:"deviation"`
}

// Input is one frame of player input.
type Input struct {
	Held    []Key  `json:"held,omitempty"`
	Pressed []Key  `json:"pressed,omitempty"`
	Trace   *Trace `json:"trace,omitempty"`
}

// IsHeld reports whether k is held this frame.
func (in Input) IsHeld(k Key) bool {
	for _, h := range in.Held {
		if h == k {
			return true
		}
	}
	return false
}

// WasPressed reports whether k went down this frame.
func (in Input) WasPressed(k Key) bool {
	for _, p := range in.Pressed {
		if p == k {
			return true
		}
	}
	return false
}

// ActionKind names a discrete player action.
type ActionKind string

const (
	ActionChoose       ActionKind = "choose"
	ActionBet          ActionKind = "bet"
	ActionGuess        ActionKind = "guess"
	ActionInvisibility ActionKind = "invisibility"
	ActionShape        ActionKind = "shape"
)

// Action is a discrete player decision (a button, a pad, a panel).
type Action struct {
	Kind  ActionKind `json:"kind"`
	Value int        `json:"value"`
}

// View is the render state of a module.
type View struct {
	Game      ID             `json:"game"`
	Status    Status         `json:"status"`
	PlayID    string         `json:"playId"`
	Resolving bool           `json:"resolving"`
	Reason    string         `json:"reason,omitempty"`
	Fields    map[string]any `json:"fields"`
}

// NoticeKind classifies a player notification.
type NoticeKind string

const (
	NoticeJumpScare         NoticeKind = "jump_scare"
	NoticePermanentLifeUsed NoticeKind = "permanent_life_used"
	NoticeExtraLifeUsed     NoticeKind = "extra_life_used"
	NoticeDoubleCoinsUsed   NoticeKind = "double_coins_used"
	NoticeSkipUsed          NoticeKind = "skip_used"
	NoticeReward            NoticeKind = "reward"
)

// Notice is a transient message for the player.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Game    ID         `json:"game"`
	Message string     `json:"message"`
	Amount  int        `json:"amount,omitempty"`
}

// Wallet is the module's view of the shared store: read counts, request a
// consume, and self-credit in normal mode.
type Wallet interface {
	Count(kind wallet.PowerupKind) int
	Consume(kind wallet.PowerupKind) bool
	Credit(amount int) int
}

// Scheduler delivers delayed callbacks on the game loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func())
}

// Host is everything a module receives when it is mounted.
type Host struct {
	Wallet        Wallet
	Mode          Mode
	OnWin         func()
	OnLose        func()
	OnBackToLobby func()
	Scheduler     Scheduler
	// Post hands work finished off-loop back to the loop. Nil means callers
	// run synchronously.
	Post   func(func())
	Notify func(Notice)
	Logger *log.Logger
	Rand   *rand.Rand
}

func (h Host) withDefaults() Host {
	if h.Mode == "" {
		h.Mode = ModeNormal
	}
	if h.OnWin == nil {
		h.OnWin = func() {}
	}
	if h.OnLose == nil {
		h.OnLose = func() {}
	}
	if h.OnBackToLobby == nil {
		h.OnBackToLobby = func() {}
	}
	if h.Notify == nil {
		h.Notify = func(Notice) {}
	}
	if h.Logger == nil {
		h.Logger = log.New(log.Writer(), "[GAME] ", log.LstdFlags)
	}
	if h.Rand == nil {
		h.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xa11ce))
	}
	return h
}

// Module is a mounted mini-game instance.
type Module interface {
	Spec() Spec
	Status() Status
	// Start begins a play-through from waiting, or replays a finished one in
	// normal mode.
	Start()
	Update(in Input, dt time.Duration)
	Act(a Action) error
	// Skip consumes a SkipGame power-up and wins the play-through.
	Skip() bool
	View() View
	// Close cancels every pending timer. The module is dead afterwards.
	Close()
}
