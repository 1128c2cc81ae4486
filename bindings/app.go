// Package bindings exposes the arcade to the desktop frontend. Every exported
// App method is callable from JavaScript; state changes are pushed as events.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/MJE43/survival-arcade/internal/api"
	"github.com/MJE43/survival-arcade/internal/arcade"
	"github.com/MJE43/survival-arcade/internal/config"
	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

// Event names emitted to the frontend.
const (
	EventState  = "state:changed"
	EventWallet = "wallet:changed"
	EventNotice = "notice"
)

// ErrNotStarted is returned before Startup has completed.
var ErrNotStarted = errors.New("bindings: app not started")

type App struct {
	cfg    config.Config
	logger *log.Logger

	mu     sync.RWMutex
	ctx    context.Context
	arcade *arcade.Arcade
	api    *api.Server

	// emit defaults to the Wails runtime.
	emit func(ctx context.Context, name string, data ...any)
}

func New(cfg config.Config) *App {
	return &App{
		cfg:    cfg,
		logger: log.New(os.Stdout, "[APP] ", log.LstdFlags),
		emit:   wruntime.EventsEmit,
	}
}

// Startup opens the arcade and, when enabled, the loopback API.
func (a *App) Startup(ctx context.Context) error {
	arc, err := arcade.Open(ctx, arcade.Config{
		DBPath:           a.cfg.DBPath,
		SecretsPath:      a.cfg.SecretsPath(),
		ShopCatalog:      a.cfg.ShopCatalog,
		GeneratorAPIKey:  a.cfg.GeneratorAPIKey,
		GeneratorURL:     a.cfg.GeneratorURL,
		GeneratorModel:   a.cfg.GeneratorModel,
		GeneratorTimeout: a.cfg.GeneratorTimeout,
	}, arcade.WithHooks(arcade.Hooks{
		OnState:  func(s session.State) { a.publish(EventState, s) },
		OnWallet: func(s wallet.Snapshot) { a.publish(EventWallet, s) },
		OnNotice: func(n games.Notice) { a.publish(EventNotice, n) },
	}))
	if err != nil {
		return fmt.Errorf("bindings: startup: %w", err)
	}

	a.mu.Lock()
	a.ctx = ctx
	a.arcade = arc
	a.mu.Unlock()

	if a.cfg.APIEnabled {
		srv := api.NewServer(arc, a.cfg.APIPort)
		if err := srv.Start(); err != nil {
			a.logger.Printf("api server failed to start: %v", err)
		} else {
			a.mu.Lock()
			a.api = srv
			a.mu.Unlock()
		}
	}
	return nil
}

// Shutdown stops the API server and closes the arcade.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	arc, srv := a.arcade, a.api
	a.arcade, a.api, a.ctx = nil, nil, nil
	a.mu.Unlock()

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(ctx))
	}
	if arc != nil {
		errs = append(errs, arc.Close())
	}
	return errors.Join(errs...)
}

func (a *App) publish(name string, data any) {
	a.mu.RLock()
	ctx := a.ctx
	a.mu.RUnlock()
	if ctx == nil {
		return
	}
	a.emit(ctx, name, data)
}

func (a *App) service() (*arcade.Arcade, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.arcade == nil {
		return nil, ErrNotStarted
	}
	return a.arcade, nil
}

// --------- Session ---------

func (a *App) GetState() (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.State()
}

func (a *App) ListGames() []games.Spec { return games.ListGames() }

func (a *App) SelectGame(id string) (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.SelectGame(games.ID(id))
}

func (a *App) StartBet(id string, amount int) (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.StartBet(games.ID(id), amount)
}

func (a *App) StartGame() (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.StartGame()
}

// Tick advances the active game by dtMs of frame time.
func (a *App) Tick(input games.Input, dtMs int) (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.Tick(input, time.Duration(dtMs)*time.Millisecond)
}

func (a *App) Act(kind string, value int) (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.Act(games.Action{Kind: games.ActionKind(kind), Value: value})
}

func (a *App) Skip() (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.Skip()
}

func (a *App) AdvanceChallenge() (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.AdvanceChallenge()
}

func (a *App) BackToLobby() (session.State, error) {
	arc, err := a.service()
	if err != nil {
		return session.State{}, err
	}
	return arc.BackToLobby()
}

// --------- Wallet and shop ---------

func (a *App) GetWallet() (wallet.Snapshot, error) {
	arc, err := a.service()
	if err != nil {
		return wallet.Snapshot{}, err
	}
	return arc.Wallet(), nil
}

func (a *App) GetTugStats() (games.TugStats, error) {
	arc, err := a.service()
	if err != nil {
		return games.TugStats{}, err
	}
	return arc.TugStats(), nil
}

func (a *App) GetCatalog() (*shop.Catalog, error) {
	arc, err := a.service()
	if err != nil {
		return nil, err
	}
	return arc.Catalog(), nil
}

func (a *App) Purchase(kind string) (shop.Item, error) {
	arc, err := a.service()
	if err != nil {
		return shop.Item{}, err
	}
	k, err := wallet.ParseKind(kind)
	if err != nil {
		return shop.Item{}, err
	}
	return arc.Purchase(k)
}

func (a *App) SpinSlots() (shop.SpinResult, error) {
	arc, err := a.service()
	if err != nil {
		return shop.SpinResult{}, err
	}
	return arc.SpinSlots()
}

func (a *App) FlipCoin(side string, stake int) (shop.FlipResult, error) {
	arc, err := a.service()
	if err != nil {
		return shop.FlipResult{}, err
	}
	return arc.FlipCoin(shop.Side(side), stake)
}

func (a *App) CurrentCard() (shop.Card, error) {
	arc, err := a.service()
	if err != nil {
		return shop.Card{}, err
	}
	return arc.CurrentCard(), nil
}

func (a *App) PlayHighLow(guess string, stake int) (shop.HighLowResult, error) {
	arc, err := a.service()
	if err != nil {
		return shop.HighLowResult{}, err
	}
	return arc.PlayHighLow(shop.Guess(guess), stake)
}

// --------- Settings ---------

// Settings is what the settings screen renders.
type Settings struct {
	GeneratorConfigured bool   `json:"generatorConfigured"`
	APIURL              string `json:"apiUrl,omitempty"`
	DataDir             string `json:"dataDir"`
}

func (a *App) GetSettings() (Settings, error) {
	arc, err := a.service()
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		GeneratorConfigured: arc.GeneratorConfigured(),
		DataDir:             config.AppDataDir(),
	}
	a.mu.RLock()
	if a.api != nil {
		s.APIURL = "http://" + a.api.Addr()
	}
	a.mu.RUnlock()
	return s, nil
}

// SetGeneratorKey stores the shape generator key; empty clears it.
func (a *App) SetGeneratorKey(key string) error {
	arc, err := a.service()
	if err != nil {
		return err
	}
	return arc.SetGeneratorKey(key)
}
