package bindings

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/MJE43/survival-arcade/internal/config"
	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) emit(_ context.Context, name string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}

func startApp(t *testing.T) (*App, *recorder) {
	t.Helper()
	keyring.MockInit()
	app := New(config.Config{
		DBPath:           filepath.Join(t.TempDir(), "arcade.db"),
		APIPort:          17890,
		GeneratorTimeout: time.Second,
	})
	rec := &recorder{}
	app.emit = rec.emit
	if err := app.Startup(context.Background()); err != nil {
		t.Fatalf("startup: %v", err)
	}
	t.Cleanup(func() { app.Shutdown(context.Background()) })
	return app, rec
}

func TestNotStarted(t *testing.T) {
	app := New(config.Config{})
	if _, err := app.GetState(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("err = %v", err)
	}
	if err := app.SetGeneratorKey("k"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("err = %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown before startup: %v", err)
	}
}

func TestSessionBindingsEmitState(t *testing.T) {
	app, rec := startApp(t)

	st, err := app.SelectGame(string(games.Mingle))
	if err != nil {
		t.Fatal(err)
	}
	if st.ActiveGame != games.Mingle {
		t.Fatalf("active = %s", st.ActiveGame)
	}
	if _, err := app.StartGame(); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Tick(games.Input{}, 16); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Act("nonsense", 0); err == nil {
		t.Error("expected unknown action error")
	}
	if _, err := app.BackToLobby(); err != nil {
		t.Fatal(err)
	}
	if rec.count(EventState) < 2 {
		t.Errorf("state events = %d", rec.count(EventState))
	}
}

func TestShopBindings(t *testing.T) {
	app, rec := startApp(t)

	if _, err := app.Purchase("jetpack"); err == nil {
		t.Error("expected unknown kind error")
	}
	if _, err := app.Purchase(string(wallet.SkipGame)); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Errorf("err = %v", err)
	}
	cat, err := app.GetCatalog()
	if err != nil || len(cat.Items) == 0 {
		t.Fatalf("catalog: %v", err)
	}
	w, err := app.GetWallet()
	if err != nil || w.Coins != 0 {
		t.Fatalf("wallet: %+v %v", w, err)
	}
	if rec.count(EventWallet) != 0 {
		t.Errorf("wallet events without a change: %d", rec.count(EventWallet))
	}
}

func TestSettings(t *testing.T) {
	app, _ := startApp(t)

	s, err := app.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.GeneratorConfigured || s.APIURL != "" {
		t.Errorf("settings = %+v", s)
	}
	if err := app.SetGeneratorKey("abc"); err != nil {
		t.Fatal(err)
	}
	s, _ = app.GetSettings()
	if !s.GeneratorConfigured {
		t.Error("key not applied")
	}
}
