// Package session routes mini-game outcomes to their consequences. The
// Coordinator owns the session record (mode, challenge stage and status, bet)
// and mounts one game module at a time.
//
// Every method must be called from the game loop.
package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

const (
	StageReward     = 100
	CompletionBonus = 200
	BetPayout       = 2
)

var (
	// ErrInvalidBet is returned for a non-bettable target or a non-positive amount.
	ErrInvalidBet = errors.New("session: invalid bet")
	// ErrNoActiveGame is returned when a game action arrives on a screen.
	ErrNoActiveGame = errors.New("session: no active game")
)

// Status is the challenge (or bet) outcome status.
type Status string

const (
	StatusPlaying    Status = "playing"
	StatusTransition Status = "transition"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Bet is the escrowed wager of a betting session.
type Bet struct {
	Game   games.ID `json:"game"`
	Amount int      `json:"amount"`
}

// State is a snapshot of the session record.
type State struct {
	RunID           string      `json:"runId"`
	Mode            games.Mode  `json:"mode"`
	ActiveGame      games.ID    `json:"activeGame"`
	ChallengeStage  int         `json:"challengeStage"`
	ChallengeStatus Status      `json:"challengeStatus"`
	Bet             *Bet        `json:"bet,omitempty"`
	Game            *games.View `json:"game,omitempty"`
	Overlay         *Overlay    `json:"overlay,omitempty"`
}

// Wallet is what the coordinator needs from the store.
type Wallet interface {
	games.Wallet
	Debit(amount int) bool
}

// Factory mounts game modules.
type Factory interface {
	New(id games.ID, host games.Host) (games.Module, error)
}

// Config wires a Coordinator.
type Config struct {
	Wallet    Wallet
	Factory   Factory
	Scheduler games.Scheduler
	Post      func(func())
	Notify    func(games.Notice)
	Logger    *log.Logger
	Rand      *rand.Rand
	// Sequence overrides the challenge order (tests).
	Sequence Sequence
}

// Coordinator is the top-level session state machine.
type Coordinator struct {
	cfg    Config
	logger *log.Logger

	runID  uuid.UUID
	mode   games.Mode
	active games.ID
	stage  int
	status Status
	bet    *Bet

	module    games.Module
	mounts    uint64
	listeners []func(State)
}

// New creates a coordinator parked in the lobby.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[SESSION] ", log.LstdFlags)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5e55))
	}
	if cfg.Notify == nil {
		cfg.Notify = func(games.Notice) {}
	}
	if cfg.Sequence == nil {
		cfg.Sequence = Challenge
	}
	return &Coordinator{
		cfg:    cfg,
		logger: cfg.Logger,
		runID:  uuid.New(),
		mode:   games.ModeNormal,
		active: games.Lobby,
		status: StatusPlaying,
	}
}

// OnChange registers fn to run after every session transition.
func (c *Coordinator) OnChange(fn func(State)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Coordinator) changed() {
	if len(c.listeners) == 0 {
		return
	}
	st := c.State()
	for _, fn := range c.listeners {
		fn(st)
	}
}

// Sequencer exposes the challenge read model for the current stage.
func (c *Coordinator) Sequencer() Sequencer {
	return Sequencer{Sequence: c.cfg.Sequence, Stage: c.stage}
}

// Module returns the mounted module, or nil on a screen or overlay.
func (c *Coordinator) Module() games.Module { return c.module }

// State snapshots the session record and the active module's view.
func (c *Coordinator) State() State {
	st := State{
		RunID:           c.runID.String(),
		Mode:            c.mode,
		ActiveGame:      c.active,
		ChallengeStage:  c.stage,
		ChallengeStatus: c.status,
		Overlay:         c.Overlay(),
	}
	if c.bet != nil {
		b := *c.bet
		st.Bet = &b
	}
	if c.module != nil {
		v := c.module.View()
		st.Game = &v
	}
	return st
}

// --------- Transitions ---------

// SelectGame enters challenge mode for the challenge sentinel and normal mode
// for everything else, screens included.
func (c *Coordinator) SelectGame(id games.ID) {
	c.runID = uuid.New()
	c.bet = nil
	c.status = StatusPlaying
	c.stage = 0
	if id == games.ChallengeMode {
		c.mode = games.ModeChallenge
		first, _ := c.Sequencer().CurrentGame()
		c.logger.Printf("challenge started (run %s)", c.runID)
		c.mount(first)
	} else {
		c.mode = games.ModeNormal
		c.mount(id)
	}
	c.changed()
}

// StartBet escrows amount and mounts the game in betting mode. On failure
// nothing changes.
func (c *Coordinator) StartBet(id games.ID, amount int) error {
	spec, ok := games.Lookup(id)
	if !ok || !spec.Bettable || amount <= 0 {
		return fmt.Errorf("%w: %d on %q", ErrInvalidBet, amount, id)
	}
	if !c.cfg.Wallet.Debit(amount) {
		return wallet.ErrInsufficientFunds
	}
	c.runID = uuid.New()
	c.mode = games.ModeBetting
	c.bet = &Bet{Game: id, Amount: amount}
	c.stage = 0
	c.status = StatusPlaying
	c.logger.Printf("bet placed: %d on %s (run %s)", amount, id, c.runID)
	c.mount(id)
	c.changed()
	return nil
}

// HandleWin applies a win for the current mode.
func (c *Coordinator) HandleWin() {
	switch c.mode {
	case games.ModeBetting:
		if c.bet == nil || c.status != StatusPlaying {
			return
		}
		paid := c.cfg.Wallet.Credit(BetPayout * c.bet.Amount)
		c.status = StatusWon
		c.logger.Printf("bet won: paid %d (run %s)", paid, c.runID)
		c.unmount()
	case games.ModeChallenge:
		if c.status != StatusPlaying {
			return
		}
		c.cfg.Wallet.Credit(StageReward)
		if c.Sequencer().IsFinalStage() {
			c.cfg.Wallet.Credit(CompletionBonus)
			c.status = StatusWon
			c.logger.Printf("challenge complete (run %s)", c.runID)
		} else {
			c.status = StatusTransition
			c.logger.Printf("stage %d cleared (run %s)", c.stage+1, c.runID)
		}
		c.unmount()
	default:
		return
	}
	c.changed()
}

// HandleLose applies a loss. The bet escrow is already gone; nothing more is
// debited.
func (c *Coordinator) HandleLose() {
	if c.mode == games.ModeNormal || c.status != StatusPlaying {
		return
	}
	c.status = StatusLost
	c.logger.Printf("%s lost at stage %d (run %s)", c.mode, c.stage+1, c.runID)
	c.unmount()
	c.changed()
}

// AdvanceChallenge loads the next stage after a cleared one.
func (c *Coordinator) AdvanceChallenge() {
	if c.mode != games.ModeChallenge || c.status != StatusTransition {
		c.logger.Printf("advance ignored: mode=%s status=%s", c.mode, c.status)
		return
	}
	next, ok := c.Sequencer().NextGame()
	if !ok {
		c.logger.Printf("advance ignored: no stage after %d", c.stage+1)
		return
	}
	c.stage++
	c.status = StatusPlaying
	c.mount(next)
	c.changed()
}

// BackToLobby resets the session. Idempotent.
func (c *Coordinator) BackToLobby() {
	c.mode = games.ModeNormal
	c.stage = 0
	c.status = StatusPlaying
	c.bet = nil
	c.mount(games.Lobby)
	c.changed()
}

// Close unmounts the active module.
func (c *Coordinator) Close() { c.unmount() }

// --------- Mounting ---------

func (c *Coordinator) mount(id games.ID) {
	c.unmount()
	c.active = id
	if !id.Playable() {
		return
	}
	mount := c.mounts
	current := func() bool { return c.mounts == mount }
	host := games.Host{
		Wallet: c.cfg.Wallet,
		Mode:   c.mode,
		OnWin: func() {
			if current() {
				c.HandleWin()
			}
		},
		OnLose: func() {
			if current() {
				c.HandleLose()
			}
		},
		OnBackToLobby: func() {
			if current() {
				c.BackToLobby()
			}
		},
		Scheduler: c.cfg.Scheduler,
		Post:      c.cfg.Post,
		Notify:    c.cfg.Notify,
		Logger:    c.logger,
		Rand:      c.cfg.Rand,
	}
	m, err := c.cfg.Factory.New(id, host)
	if err != nil {
		c.logger.Printf("mount %s: %v", id, err)
		c.active = games.Lobby
		return
	}
	c.module = m
}

// unmount closes the module and invalidates its callbacks.
func (c *Coordinator) unmount() {
	c.mounts++
	if c.module != nil {
		c.module.Close()
		c.module = nil
	}
}

// --------- Play ---------

// StartGame starts the mounted module.
func (c *Coordinator) StartGame() error {
	if c.module == nil {
		return ErrNoActiveGame
	}
	c.module.Start()
	return nil
}

// Tick steps the mounted module by one frame.
func (c *Coordinator) Tick(in games.Input, dt time.Duration) {
	if c.module != nil {
		c.module.Update(in, dt)
	}
}

// Act forwards a discrete action to the mounted module.
func (c *Coordinator) Act(a games.Action) error {
	if c.module == nil {
		return ErrNoActiveGame
	}
	return c.module.Act(a)
}

// Skip spends a SkipGame power-up on the mounted module.
func (c *Coordinator) Skip() error {
	if c.module == nil {
		return ErrNoActiveGame
	}
	if !c.module.Skip() {
		return wallet.ErrInsufficientInventory
	}
	return nil
}
