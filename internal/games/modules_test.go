package games

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MJE43/survival-arcade/internal/kvstore"
	"github.com/MJE43/survival-arcade/internal/shapegen"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

func TestRegistryMountsEveryGame(t *testing.T) {
	_, host := newHarness(t, ModeNormal)
	reg := NewRegistry(Deps{})
	for _, spec := range ListGames() {
		m, err := reg.New(spec.ID, host)
		if err != nil {
			t.Fatalf("%s: %v", spec.ID, err)
		}
		if m.Spec().ID != spec.ID || m.Status() != StatusWaiting {
			t.Errorf("%s: spec=%s status=%s", spec.ID, m.Spec().ID, m.Status())
		}
		if v := m.View(); v.Game != spec.ID || v.Fields == nil {
			t.Errorf("%s: bad view %+v", spec.ID, v)
		}
		m.Close()
	}
	for _, id := range []ID{Lobby, Shop, ChallengeMode, "nope"} {
		if _, err := reg.New(id, host); err == nil {
			t.Errorf("%s: expected error", id)
		}
		if id.Playable() {
			t.Errorf("%s should not be playable", id)
		}
	}
}

func TestRewards(t *testing.T) {
	want := map[ID]int{Marbles: 100, SquidGame: 150, RedLightGreenLight: 50, HideAndSeek: 50}
	for id, reward := range want {
		if s, _ := Lookup(id); s.Reward != reward {
			t.Errorf("%s reward = %d, want %d", id, s.Reward, reward)
		}
	}
}

func TestRedLightWinAndRedLightLoss(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newRedLight(host)
	g.Start()
	for i := 0; i < 100 && g.Live(); i++ {
		g.Update(Input{Held: []Key{KeyUp}}, 100*time.Millisecond)
	}
	if g.Status() != StatusWon || h.wins != 1 {
		t.Fatalf("status=%s wins=%d", g.Status(), h.wins)
	}

	h, host = newHarness(t, ModeChallenge)
	g = newRedLight(host)
	g.Start()
	if h.clock.Pending() != 1 {
		t.Fatalf("expected a light toggle to be scheduled, got %d", h.clock.Pending())
	}
	g.green = false
	g.Update(Input{}, 100*time.Millisecond)
	if !g.Live() {
		t.Fatal("standing still on red must be safe")
	}
	g.Update(Input{Held: []Key{KeySpace}}, 100*time.Millisecond)
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}

func TestRedLightTimeout(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newRedLight(host)
	g.Start()
	g.Update(Input{}, rlglTimeLimit)
	h.clock.Advance(FailureDelay)
	if h.losses != 1 {
		t.Errorf("losses=%d", h.losses)
	}
}

type stubShapes struct{ calls atomic.Int32 }

func (s *stubShapes) Path(_ context.Context, shape string) string {
	s.calls.Add(1)
	return "M " + shape
}

func TestDalgonaCracksAndKeepsShapeOnRetry(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	h.wallet.Grant(wallet.ExtraLife)
	src := &stubShapes{}
	g := newDalgona(host, src)
	if err := g.Act(Action{Kind: ActionShape, Value: 2}); err != nil {
		t.Fatal(err)
	}
	g.Start()
	if g.shape != shapegen.Star || g.path != "M star" {
		t.Fatalf("shape=%s path=%s", g.shape, g.path)
	}

	off := Input{Trace: &Trace{Deviation: dalgonaTolerance + 1}}
	on := Input{Trace: &Trace{Progress: 0.2}}
	g.Update(off, 10*time.Millisecond)
	g.Update(off, 10*time.Millisecond)
	if g.cracks != 1 {
		t.Fatalf("one excursion should crack once, got %d", g.cracks)
	}
	g.Update(on, 10*time.Millisecond)
	g.Update(off, 10*time.Millisecond)
	g.Update(on, 10*time.Millisecond)
	g.Update(off, 10*time.Millisecond)
	if !g.View().Resolving {
		t.Fatal("third crack should fail")
	}
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusPlaying || g.cracks != 0 || g.progress != 0 {
		t.Fatalf("expected clean retry, got %s cracks=%d", g.Status(), g.cracks)
	}
	if g.shape != shapegen.Star || src.calls.Load() != 1 {
		t.Errorf("retry should keep the shape: %s calls=%d", g.shape, src.calls.Load())
	}

	g.Update(Input{Trace: &Trace{Progress: 0.6}}, time.Second)
	g.Update(Input{Trace: &Trace{Progress: 1}}, time.Second)
	if g.Status() != StatusWon || h.wins != 1 {
		t.Errorf("status=%s wins=%d", g.Status(), h.wins)
	}
}

func TestDalgonaAsyncPath(t *testing.T) {
	_, host := newHarness(t, ModeNormal)
	posted := make(chan func(), 2)
	host.Post = func(fn func()) { posted <- fn }
	g := newDalgona(host, &stubShapes{})

	g.Act(Action{Kind: ActionShape, Value: 0})
	g.Act(Action{Kind: ActionShape, Value: 1})
	g.Start()
	if g.Status() != StatusWaiting {
		t.Fatal("start must wait for the outline")
	}
	for i := 0; i < 2; i++ {
		select {
		case fn := <-posted:
			fn()
		case <-time.After(time.Second):
			t.Fatal("path never arrived")
		}
	}
	if g.loading || g.path != "M circle" {
		t.Fatalf("loading=%v path=%q", g.loading, g.path)
	}
	if g.Status() != StatusPlaying {
		t.Errorf("pending start not run: status=%s", g.Status())
	}
}

func TestDalgonaDefaultFallback(t *testing.T) {
	_, host := newHarness(t, ModeNormal)
	g := newDalgona(host, nil)
	g.Start()
	if g.path != shapegen.Fallback(shapegen.Triangle) {
		t.Errorf("path = %q", g.path)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTugDifficulty(t *testing.T) {
	tests := []struct {
		stats              TugStats
		strMin, strMax     float64
		delayMin, delayMax time.Duration
		fatigue            float64
	}{
		{TugStats{}, 3, 4.5, 70 * time.Millisecond, 250 * time.Millisecond, 0.05},
		{TugStats{Wins: 20}, 4, 5.5, 40 * time.Millisecond, 170 * time.Millisecond, 0.01},
		{TugStats{Wins: 3, Losses: 30}, 2.5, 4, 110 * time.Millisecond, 290 * time.Millisecond, 0.07},
		{TugStats{Wins: 2}, 3.2, 4.7, 54 * time.Millisecond, 234 * time.Millisecond, 0.042},
	}
	for _, tt := range tests {
		d := Difficulty(tt.stats)
		if !approx(d.StrengthMin, tt.strMin) || !approx(d.StrengthMax, tt.strMax) {
			t.Errorf("%+v: strength %v..%v", tt.stats, d.StrengthMin, d.StrengthMax)
		}
		if d.DelayMin != tt.delayMin || d.DelayMax != tt.delayMax {
			t.Errorf("%+v: delay %v..%v", tt.stats, d.DelayMin, d.DelayMax)
		}
		if !approx(d.FatigueChance, tt.fatigue) || d.FatigueDelay != 500*time.Millisecond {
			t.Errorf("%+v: fatigue %v", tt.stats, d.FatigueChance)
		}
	}
}

type memRecorder struct {
	stats TugStats
}

func (m *memRecorder) Stats() TugStats { return m.stats }
func (m *memRecorder) Record(won bool) {
	if won {
		m.stats.Wins++
	} else {
		m.stats.Losses++
	}
}

func TestTugOfWarPlayerWins(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	rec := &memRecorder{}
	g := newTugOfWar(host, rec)
	g.Start()
	for i := 0; i < 30 && g.Live(); i++ {
		g.Update(Input{Pressed: []Key{KeySpace}}, 50*time.Millisecond)
	}
	if g.Status() != StatusWon || h.wins != 1 || rec.stats.Wins != 1 {
		t.Errorf("status=%s wins=%d rec=%+v", g.Status(), h.wins, rec.stats)
	}
	if g.presses != 25 {
		t.Errorf("presses = %d", g.presses)
	}
}

func TestTugOfWarAIWins(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	rec := &memRecorder{stats: TugStats{Wins: 4}}
	g := newTugOfWar(host, rec)
	if g.difficulty != Difficulty(TugStats{Wins: 4}) {
		t.Fatal("difficulty should come from the recorded stats")
	}
	g.Start()
	h.clock.Advance(60 * time.Second)
	if g.Status() != StatusLost || h.losses != 1 || rec.stats.Losses != 1 {
		t.Errorf("status=%s losses=%d rec=%+v", g.Status(), h.losses, rec.stats)
	}
}

func TestTugOfWarReplayRampsDifficulty(t *testing.T) {
	_, host := newHarness(t, ModeNormal)
	rec := &memRecorder{}
	g := newTugOfWar(host, rec)
	g.Start()
	before := g.difficulty
	g.move(tugRopeLimit)
	if g.Status() != StatusWon || rec.stats.Wins != 1 {
		t.Fatalf("status=%s rec=%+v", g.Status(), rec.stats)
	}

	g.Start()
	if g.Status() != StatusPlaying {
		t.Fatalf("replay: status=%s", g.Status())
	}
	if g.difficulty != Difficulty(TugStats{Wins: 1}) {
		t.Errorf("replay difficulty = %+v", g.difficulty)
	}
	if g.difficulty.StrengthMin <= before.StrengthMin || g.difficulty.DelayMin >= before.DelayMin {
		t.Errorf("AI should be harder after a win: before=%+v after=%+v", before, g.difficulty)
	}
}

func TestTugOfWarFatigueDelaysNextPull(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newTugOfWar(host, nil)
	g.Start()
	g.difficulty.FatigueChance = 1
	d := g.difficulty

	h.clock.Advance(d.DelayMin - time.Millisecond)
	if g.rope != 0 {
		t.Fatalf("first pull came before the minimum delay: rope=%v", g.rope)
	}
	h.clock.Advance(d.DelayMax - d.DelayMin + time.Millisecond)
	first := g.rope
	if first >= 0 || !g.fatigued {
		t.Fatalf("a fatigued AI still pulls: rope=%v fatigued=%v", first, g.fatigued)
	}

	h.clock.Advance(d.DelayMax)
	if g.rope != first {
		t.Errorf("fatigue should hold the next pull back: rope=%v", g.rope)
	}
	h.clock.Advance(d.FatigueDelay + d.DelayMax)
	if g.rope >= first {
		t.Errorf("AI never pulled again: rope=%v", g.rope)
	}
}

func TestStatsStorePersists(t *testing.T) {
	kv, err := kvstore.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	ctx := context.Background()

	s := NewStatsStore(ctx, kv, nil)
	s.Record(true)
	s.Record(false)
	s.Record(true)

	reloaded := NewStatsStore(ctx, kv, nil)
	if got := reloaded.Stats(); got != (TugStats{Wins: 2, Losses: 1}) {
		t.Errorf("got %+v", got)
	}

	if err := kv.Put(ctx, kvstore.KeyTugOfWarStats, []byte("{nope")); err != nil {
		t.Fatal(err)
	}
	if got := NewStatsStore(ctx, kv, nil).Stats(); got != (TugStats{}) {
		t.Errorf("corrupt record should load as zero, got %+v", got)
	}
}

func TestHideAndSeekInvisibility(t *testing.T) {
	h, host := newHarness(t, ModeNormal)
	g := newHideAndSeek(host)
	g.Start()
	err := g.Act(Action{Kind: ActionInvisibility})
	if !errors.Is(err, wallet.ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	h.wallet.Grant(wallet.Invisibility)
	if err := g.Act(Action{Kind: ActionInvisibility}); err != nil {
		t.Fatal(err)
	}
	if g.invisible != hideInvisibleTime || h.wallet.Count(wallet.Invisibility) != 0 {
		t.Errorf("invisible=%v count=%d", g.invisible, h.wallet.Count(wallet.Invisibility))
	}
	g.Update(Input{}, 2*time.Second)
	if g.invisible != 3*time.Second {
		t.Errorf("invisible=%v", g.invisible)
	}
}

func TestHideAndSeekSurviveInSpot(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newHideAndSeek(host)
	g.Start()
	g.player = hideSpots[1]
	for i := 0; i < 500 && g.Live(); i++ {
		g.Update(Input{}, 100*time.Millisecond)
	}
	if g.Status() != StatusWon || h.wins != 1 {
		t.Errorf("status=%s wins=%d", g.Status(), h.wins)
	}
}

func TestHideAndSeekSpotted(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newHideAndSeek(host)
	g.Start()
	g.player = point{35, 20}
	g.Update(Input{}, 10*time.Millisecond)
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}

func TestMingleRounds(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newMingle(host)
	g.Start()
	for round := 0; round < mingleRounds; round++ {
		if g.Status() != StatusSpinning {
			t.Fatalf("round %d: expected spinning, got %s", round, g.Status())
		}
		g.Act(Action{Kind: ActionChoose, Value: 2})
		h.clock.Advance(mingleSpinTime)
		if g.called < mingleMinGroup || g.called > mingleMaxGroup {
			t.Fatalf("called %d out of range", g.called)
		}
		g.Act(Action{Kind: ActionChoose, Value: g.called})
	}
	if g.Status() != StatusWon || h.wins != 1 {
		t.Errorf("status=%s wins=%d", g.Status(), h.wins)
	}
}

func TestMingleWrongGroupAndTimeout(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newMingle(host)
	g.Start()
	h.clock.Advance(mingleSpinTime)
	g.Act(Action{Kind: ActionChoose, Value: g.called + 1})
	h.clock.Advance(FailureDelay)
	if h.losses != 1 {
		t.Fatalf("wrong group: losses=%d", h.losses)
	}

	h, host = newHarness(t, ModeChallenge)
	g = newMingle(host)
	g.Start()
	g.Update(Input{}, mingleRoundTime)
	if !g.Live() {
		t.Fatal("clock must not run while spinning")
	}
	h.clock.Advance(mingleSpinTime)
	g.Update(Input{}, mingleRoundTime)
	h.clock.Advance(FailureDelay)
	if h.losses != 1 {
		t.Errorf("timeout: losses=%d", h.losses)
	}
}

func TestGlassBridgeTimeoutAndBadChoice(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newGlassBridge(host)
	g.Start()
	if err := g.Act(Action{Kind: ActionChoose, Value: 2}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	g.Update(Input{}, bridgeTimeLimit)
	h.clock.Advance(FailureDelay)
	if h.losses != 1 {
		t.Errorf("losses=%d", h.losses)
	}
}

func TestSkySquidPassesObstacles(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newSkySquid(host)
	g.Start()
	for i := 0; i < 2000 && g.Live(); i++ {
		for _, o := range g.obstacles {
			if !o.Passed {
				g.y = o.GapY
				break
			}
		}
		g.Update(Input{}, 50*time.Millisecond)
	}
	if g.Status() != StatusWon || h.wins != 1 || g.score != skyWinScore {
		t.Errorf("status=%s wins=%d score=%d", g.Status(), h.wins, g.score)
	}
}

func TestSkySquidCrash(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newSkySquid(host)
	g.Start()
	for i := 0; i < 2000 && g.Live(); i++ {
		for j := range g.obstacles {
			g.obstacles[j].GapY = 80
		}
		g.y = 10
		g.Update(Input{}, 50*time.Millisecond)
	}
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}

func TestFiveLeggedSequence(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newFiveLegged(host)
	g.Start()
	for level := 1; level <= fiveSequenceLength; level++ {
		if g.Status() != StatusShowing || g.level != level {
			t.Fatalf("level %d: status=%s level=%d", level, g.Status(), g.level)
		}
		g.Act(Action{Kind: ActionChoose, Value: g.sequence[0]})
		if g.input != 0 {
			t.Fatal("input accepted while showing")
		}
		h.clock.Advance(time.Duration(level) * fiveFlashTime)
		if g.Status() != StatusPlaying {
			t.Fatalf("level %d: still %s", level, g.Status())
		}
		for i := 0; i < level; i++ {
			g.Act(Action{Kind: ActionChoose, Value: g.sequence[i]})
		}
	}
	if g.Status() != StatusWon || h.wins != 1 {
		t.Errorf("status=%s wins=%d", g.Status(), h.wins)
	}
}

func TestFiveLeggedWrongPad(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newFiveLegged(host)
	g.Start()
	h.clock.Advance(fiveFlashTime)
	g.Act(Action{Kind: ActionChoose, Value: (g.sequence[0] + 1) % fivePads})
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}

func TestJumpRope(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newJumpRope(host)
	g.Start()
	for i := 0; i < 10000 && g.Live(); i++ {
		var in Input
		if g.inWindow() {
			in.Pressed = []Key{KeySpace}
		}
		g.Update(in, 20*time.Millisecond)
	}
	if g.Status() != StatusWon || g.jumps != jumpWinCount || h.wins != 1 {
		t.Errorf("status=%s jumps=%d wins=%d", g.Status(), g.jumps, h.wins)
	}

	h, host = newHarness(t, ModeChallenge)
	g = newJumpRope(host)
	g.Start()
	for i := 0; i < 1000 && g.Live(); i++ {
		g.Update(Input{}, 20*time.Millisecond)
	}
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || g.jumps != 0 {
		t.Errorf("status=%s jumps=%d", g.Status(), g.jumps)
	}
}

func TestMarbles(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newMarbles(host)
	g.Start()
	for g.Live() {
		g.Act(Action{Kind: ActionBet, Value: 5})
		g.Act(Action{Kind: ActionGuess, Value: GuessEven})
		if g.Status() != StatusAIThinking {
			t.Fatalf("status=%s", g.Status())
		}
		g.Act(Action{Kind: ActionBet, Value: 1})
		g.hand = 2
		h.clock.Advance(marblesThinkTime)
	}
	if g.Status() != StatusWon || g.player != marblesTotal || h.wins != 1 {
		t.Errorf("status=%s player=%d wins=%d", g.Status(), g.player, h.wins)
	}

	h, host = newHarness(t, ModeChallenge)
	g = newMarbles(host)
	g.Start()
	for g.Live() {
		g.Act(Action{Kind: ActionBet, Value: 10})
		g.Act(Action{Kind: ActionGuess, Value: GuessOdd})
		g.hand = 4
		h.clock.Advance(marblesThinkTime)
	}
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}

func TestSquidGame(t *testing.T) {
	h, host := newHarness(t, ModeChallenge)
	g := newSquidGame(host)
	g.Start()
	g.player = point{50, squidWinY + 2}
	g.Update(Input{Held: []Key{KeyUp}}, 100*time.Millisecond)
	if g.Status() != StatusWon || h.wins != 1 {
		t.Errorf("status=%s wins=%d", g.Status(), h.wins)
	}

	h, host = newHarness(t, ModeChallenge)
	g = newSquidGame(host)
	g.Start()
	g.player = point{g.guardX, squidWaistY}
	g.Update(Input{}, 10*time.Millisecond)
	h.clock.Advance(FailureDelay)
	if g.Status() != StatusLost || h.losses != 1 {
		t.Errorf("status=%s losses=%d", g.Status(), h.losses)
	}
}
