// Package arcade wires storage, the wallet, the session coordinator, the shop
// and the shape generator into one service. Desktop bindings and the loopback
// HTTP API both drive the game through it.
package arcade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/MJE43/survival-arcade/internal/credentials"
	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/kvstore"
	"github.com/MJE43/survival-arcade/internal/loop"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shapegen"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

// ErrClosed is returned once Close has run.
var ErrClosed = errors.New("arcade: closed")

// MaxTick caps one frame so a stalled client cannot skip through a game.
const MaxTick = 250 * time.Millisecond

// ErrUnknownGame is returned when selecting something that is neither a game
// nor a screen.
var ErrUnknownGame = errors.New("arcade: unknown game")

// Config carries the resolved process settings.
type Config struct {
	DBPath      string
	SecretsPath string
	ShopCatalog string

	GeneratorAPIKey  string
	GeneratorURL     string
	GeneratorModel   string
	GeneratorTimeout time.Duration

	Logger *log.Logger
}

// Hooks receive change notifications. They run on the goroutine that caused
// the change and must not call back into the Arcade synchronously.
type Hooks struct {
	OnState  func(session.State)
	OnWallet func(wallet.Snapshot)
	OnNotice func(games.Notice)
}

// Arcade is safe for concurrent use.
type Arcade struct {
	logger *log.Logger
	hooks  Hooks

	kv      *kvstore.Store
	wallet  *wallet.Store
	stats   *games.StatsStore
	creds   *credentials.KeyringStore
	shapes  *shapegen.Generator
	shop    *shop.Shop
	loop    *loop.Loop
	session *session.Coordinator
}

// Option configures an Arcade.
type Option func(*Arcade)

// WithHooks installs change notifications.
func WithHooks(h Hooks) Option {
	return func(a *Arcade) { a.hooks = h }
}

// Open builds the arcade. The database is created if missing.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Arcade, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[ARCADE] ", log.LstdFlags)
	}
	a := &Arcade{logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("arcade: create data dir: %w", err)
		}
	}
	kv, err := kvstore.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	catalog, err := shop.LoadCatalog(cfg.ShopCatalog)
	if err != nil {
		kv.Close()
		return nil, err
	}
	a.kv = kv

	a.wallet = wallet.NewStore(kv)
	a.wallet.Load(ctx)
	a.wallet.OnChange(func(s wallet.Snapshot) {
		if a.hooks.OnWallet != nil {
			a.hooks.OnWallet(s)
		}
	})
	a.stats = games.NewStatsStore(ctx, kv, nil)
	a.shop = shop.New(catalog, a.wallet)

	a.creds = credentials.NewKeyringStore("", cfg.SecretsPath)
	a.shapes = shapegen.New(shapegen.Config{
		Endpoint: cfg.GeneratorURL,
		Model:    cfg.GeneratorModel,
		APIKey:   a.creds.Resolve(credentials.SecretGeneratorKey, cfg.GeneratorAPIKey),
		Timeout:  cfg.GeneratorTimeout,
	})

	a.loop = loop.New(nil)
	a.session = session.New(session.Config{
		Wallet:    a.wallet,
		Factory:   games.NewRegistry(games.Deps{Shapes: a.shapes, TugStats: a.stats}),
		Scheduler: a.loop,
		Post:      func(fn func()) { a.loop.Post(fn) },
		Notify: func(n games.Notice) {
			if a.hooks.OnNotice != nil {
				a.hooks.OnNotice(n)
			}
		},
	})
	a.session.OnChange(func(s session.State) {
		if a.hooks.OnState != nil {
			a.hooks.OnState(s)
		}
	})

	snap := a.wallet.Snapshot()
	logger.Printf("opened %s: %d coins, generator key set=%v", cfg.DBPath, snap.Coins, a.shapes.APIKey() != "")
	return a, nil
}

// Close unmounts the active game, stops the loop and closes the database.
func (a *Arcade) Close() error {
	a.loop.Do(a.session.Close)
	a.loop.Close()
	return a.kv.Close()
}

// do runs fn on the game loop.
func (a *Arcade) do(fn func()) error {
	if !a.loop.Do(fn) {
		return ErrClosed
	}
	return nil
}

// --------- Session ---------

// State snapshots the session and the active game's view.
func (a *Arcade) State() (session.State, error) {
	var st session.State
	err := a.do(func() { st = a.session.State() })
	return st, err
}

// Games lists the playable games.
func (a *Arcade) Games() []games.Spec { return games.ListGames() }

// SelectGame switches to a game, a screen or the challenge run.
func (a *Arcade) SelectGame(id games.ID) (session.State, error) {
	if !selectable(id) {
		return session.State{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return a.apply(func() error {
		a.session.SelectGame(id)
		return nil
	})
}

func selectable(id games.ID) bool {
	switch id {
	case games.Lobby, games.Shop, games.ChallengeMode:
		return true
	}
	return id.Playable()
}

// StartBet escrows amount on a bettable game.
func (a *Arcade) StartBet(id games.ID, amount int) (session.State, error) {
	return a.apply(func() error { return a.session.StartBet(id, amount) })
}

// StartGame starts (or replays) the mounted game.
func (a *Arcade) StartGame() (session.State, error) {
	return a.apply(a.session.StartGame)
}

// Tick advances the mounted game by dt, clamped to [0, MaxTick].
func (a *Arcade) Tick(in games.Input, dt time.Duration) (session.State, error) {
	dt = max(0, min(dt, MaxTick))
	return a.apply(func() error {
		a.session.Tick(in, dt)
		return nil
	})
}

// Act sends a discrete action to the mounted game.
func (a *Arcade) Act(act games.Action) (session.State, error) {
	return a.apply(func() error { return a.session.Act(act) })
}

// Skip spends a SkipGame power-up.
func (a *Arcade) Skip() (session.State, error) {
	return a.apply(a.session.Skip)
}

// AdvanceChallenge moves to the next stage after a cleared one.
func (a *Arcade) AdvanceChallenge() (session.State, error) {
	return a.apply(func() error {
		a.session.AdvanceChallenge()
		return nil
	})
}

// BackToLobby abandons the current session.
func (a *Arcade) BackToLobby() (session.State, error) {
	return a.apply(func() error {
		a.session.BackToLobby()
		return nil
	})
}

// apply runs op on the loop and returns the resulting state alongside op's
// error.
func (a *Arcade) apply(op func() error) (session.State, error) {
	var (
		st    session.State
		opErr error
	)
	if err := a.do(func() {
		opErr = op()
		st = a.session.State()
	}); err != nil {
		return session.State{}, err
	}
	return st, opErr
}

// --------- Wallet and shop ---------

// Wallet snapshots the balance and inventory.
func (a *Arcade) Wallet() wallet.Snapshot { return a.wallet.Snapshot() }

// TugStats returns the persisted tug-of-war record.
func (a *Arcade) TugStats() games.TugStats { return a.stats.Stats() }

// Catalog returns the shop catalog.
func (a *Arcade) Catalog() *shop.Catalog { return a.shop.Catalog() }

// Purchase buys one power-up.
func (a *Arcade) Purchase(kind wallet.PowerupKind) (shop.Item, error) {
	var (
		item shop.Item
		err  error
	)
	if derr := a.do(func() { item, err = a.shop.Purchase(kind) }); derr != nil {
		return shop.Item{}, derr
	}
	return item, err
}

// SpinSlots plays one slot spin.
func (a *Arcade) SpinSlots() (shop.SpinResult, error) {
	var (
		res shop.SpinResult
		err error
	)
	if derr := a.do(func() { res, err = a.shop.SpinSlots() }); derr != nil {
		return shop.SpinResult{}, derr
	}
	return res, err
}

// FlipCoin stakes coins on a side.
func (a *Arcade) FlipCoin(side shop.Side, stake int) (shop.FlipResult, error) {
	var (
		res shop.FlipResult
		err error
	)
	if derr := a.do(func() { res, err = a.shop.FlipCoin(side, stake) }); derr != nil {
		return shop.FlipResult{}, derr
	}
	return res, err
}

// CurrentCard is the face-up high-low card.
func (a *Arcade) CurrentCard() shop.Card { return a.shop.CurrentCard() }

// PlayHighLow stakes coins on the next card.
func (a *Arcade) PlayHighLow(guess shop.Guess, stake int) (shop.HighLowResult, error) {
	var (
		res shop.HighLowResult
		err error
	)
	if derr := a.do(func() { res, err = a.shop.PlayHighLow(guess, stake) }); derr != nil {
		return shop.HighLowResult{}, derr
	}
	return res, err
}

// --------- Generator key ---------

// GeneratorConfigured reports whether a shape generator key is set.
func (a *Arcade) GeneratorConfigured() bool { return a.shapes.APIKey() != "" }

// SetGeneratorKey stores the key in the OS keyring and applies it. An empty
// key removes it; Dalgona then uses the built-in shapes.
func (a *Arcade) SetGeneratorKey(key string) error {
	if key == "" {
		if err := a.creds.Delete(credentials.SecretGeneratorKey); err != nil {
			return err
		}
		a.shapes.SetAPIKey("")
		return nil
	}
	if err := a.creds.Set(credentials.SecretGeneratorKey, key); err != nil {
		return err
	}
	a.shapes.SetAPIKey(key)
	return nil
}
