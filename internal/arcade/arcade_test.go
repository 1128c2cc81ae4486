package arcade

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

func openTest(t *testing.T, dbPath string, opts ...Option) *Arcade {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	if dbPath == "" {
		dbPath = ":memory:"
	}
	a, err := Open(context.Background(), Config{
		DBPath:      dbPath,
		SecretsPath: filepath.Join(dir, "secrets.json"),
	}, opts...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return a
}

func TestOpenStartsInLobby(t *testing.T) {
	a := openTest(t, "")
	defer a.Close()

	st, err := a.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.ActiveGame != games.Lobby || st.Mode != games.ModeNormal || st.Game != nil {
		t.Errorf("state = %+v", st)
	}
	if a.Wallet().Coins != 0 {
		t.Errorf("coins = %d", a.Wallet().Coins)
	}
	if len(a.Games()) != 11 {
		t.Errorf("games = %d", len(a.Games()))
	}
	if a.GeneratorConfigured() {
		t.Error("generator should start without a key")
	}
}

func TestSelectGameRejectsUnknown(t *testing.T) {
	a := openTest(t, "")
	defer a.Close()

	if _, err := a.SelectGame("pac-man"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("err = %v", err)
	}
	st, err := a.SelectGame(games.Shop)
	if err != nil || st.ActiveGame != games.Shop {
		t.Fatalf("select shop: %+v %v", st, err)
	}
}

func TestSkipPaysNormalReward(t *testing.T) {
	var (
		mu      sync.Mutex
		notices []games.Notice
	)
	a := openTest(t, "", WithHooks(Hooks{OnNotice: func(n games.Notice) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	}}))
	defer a.Close()
	a.wallet.Grant(wallet.SkipGame)

	if _, err := a.SelectGame(games.GlassBridge); err != nil {
		t.Fatal(err)
	}
	if _, err := a.StartGame(); err != nil {
		t.Fatal(err)
	}
	st, err := a.Skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if st.Game == nil || st.Game.Status != games.StatusWon {
		t.Fatalf("game = %+v", st.Game)
	}
	if got := a.Wallet(); got.Coins != 50 || got.Powerups[wallet.SkipGame] != 0 {
		t.Errorf("wallet = %+v", got)
	}
	if _, err := a.Skip(); !errors.Is(err, wallet.ErrInsufficientInventory) {
		t.Errorf("second skip err = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var rewarded bool
	for _, n := range notices {
		if n.Kind == games.NoticeReward && n.Amount == 50 {
			rewarded = true
		}
	}
	if !rewarded {
		t.Errorf("no reward notice in %+v", notices)
	}
}

func TestBetEscrowAndPayout(t *testing.T) {
	var (
		mu     sync.Mutex
		states []session.State
	)
	a := openTest(t, "", WithHooks(Hooks{OnState: func(s session.State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}}))
	defer a.Close()

	if _, err := a.StartBet(games.Marbles, 10); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("unfunded bet err = %v", err)
	}
	if _, err := a.StartBet(games.RedLightGreenLight, 10); !errors.Is(err, session.ErrInvalidBet) {
		t.Fatalf("non-bettable err = %v", err)
	}

	a.wallet.Credit(100)
	a.wallet.Grant(wallet.SkipGame)
	st, err := a.StartBet(games.Marbles, 40)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode != games.ModeBetting || st.Bet == nil || st.Bet.Amount != 40 {
		t.Fatalf("state = %+v", st)
	}
	if a.Wallet().Coins != 60 {
		t.Fatalf("escrow: coins = %d", a.Wallet().Coins)
	}
	if _, err := a.StartGame(); err != nil {
		t.Fatal(err)
	}
	st, err = a.Skip()
	if err != nil {
		t.Fatal(err)
	}
	if st.ChallengeStatus != session.StatusWon || st.Overlay == nil {
		t.Fatalf("state = %+v", st)
	}
	if a.Wallet().Coins != 140 {
		t.Errorf("payout: coins = %d", a.Wallet().Coins)
	}

	mu.Lock()
	n := len(states)
	mu.Unlock()
	if n == 0 {
		t.Error("expected state hooks")
	}
}

func TestShopThroughArcade(t *testing.T) {
	var (
		mu   sync.Mutex
		last wallet.Snapshot
	)
	a := openTest(t, "", WithHooks(Hooks{OnWallet: func(s wallet.Snapshot) {
		mu.Lock()
		last = s
		mu.Unlock()
	}}))
	defer a.Close()

	if _, err := a.Purchase(wallet.ExtraLife); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}
	a.wallet.Credit(1000)
	item, err := a.Purchase(wallet.ExtraLife)
	if err != nil {
		t.Fatal(err)
	}
	want := 1000 - item.Cost
	if a.Wallet().Coins != want || a.Wallet().Powerups[wallet.ExtraLife] != 1 {
		t.Errorf("wallet = %+v", a.Wallet())
	}
	mu.Lock()
	if last.Coins != want {
		t.Errorf("hook snapshot = %+v", last)
	}
	mu.Unlock()

	if _, err := a.FlipCoin(shop.Heads, 0); !errors.Is(err, shop.ErrInvalidStake) {
		t.Errorf("flip err = %v", err)
	}
	if _, err := a.SpinSlots(); err != nil {
		t.Errorf("spin: %v", err)
	}
	before := a.CurrentCard()
	res, err := a.PlayHighLow(shop.Higher, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Previous != before || res.Next.Rank == before.Rank {
		t.Errorf("high-low = %+v (before %+v)", res, before)
	}
}

func TestWalletPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arcade.db")
	a := openTest(t, path)
	a.wallet.Credit(75)
	a.wallet.Grant(wallet.PermanentExtraLife)
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b := openTest(t, path)
	defer b.Close()
	got := b.Wallet()
	if got.Coins != 75 || got.Powerups[wallet.PermanentExtraLife] != 1 {
		t.Errorf("reopened wallet = %+v", got)
	}
}

func TestGeneratorKey(t *testing.T) {
	a := openTest(t, "")
	defer a.Close()

	if err := a.SetGeneratorKey("secret"); err != nil {
		t.Fatal(err)
	}
	if !a.GeneratorConfigured() {
		t.Error("key not applied")
	}
	if err := a.SetGeneratorKey(""); err != nil {
		t.Fatal(err)
	}
	if a.GeneratorConfigured() {
		t.Error("key not cleared")
	}
}

func TestClosed(t *testing.T) {
	a := openTest(t, "")
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.State(); !errors.Is(err, ErrClosed) {
		t.Errorf("state err = %v", err)
	}
	if _, err := a.SpinSlots(); !errors.Is(err, ErrClosed) {
		t.Errorf("spin err = %v", err)
	}
}
