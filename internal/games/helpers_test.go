package games

import (
	"io"
	"log"
	"math/rand/v2"
	"testing"

	"github.com/MJE43/survival-arcade/internal/loop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

type harness struct {
	clock   *loop.Manual
	wallet  *wallet.Store
	wins    int
	losses  int
	lobby   int
	notices []Notice
}

func newHarness(t *testing.T, mode Mode) (*harness, Host) {
	t.Helper()
	h := &harness{
		clock:  loop.NewManual(),
		wallet: wallet.NewStore(nil, wallet.WithLogger(log.New(io.Discard, "", 0))),
	}
	host := Host{
		Wallet:        h.wallet,
		Mode:          mode,
		OnWin:         func() { h.wins++ },
		OnLose:        func() { h.losses++ },
		OnBackToLobby: func() { h.lobby++ },
		Scheduler:     h.clock,
		Notify:        func(n Notice) { h.notices = append(h.notices, n) },
		Logger:        log.New(io.Discard, "", 0),
		Rand:          rand.New(rand.NewPCG(7, 11)),
	}
	return h, host
}

func (h *harness) noticeCount(kind NoticeKind) int {
	n := 0
	for _, x := range h.notices {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

// breakBridge steps onto the tempered pane of the current panel.
func breakBridge(g *GlassBridgeGame) {
	g.Act(Action{Kind: ActionChoose, Value: 1 - g.safe[g.step]})
}

// crossBridge walks every remaining safe pane.
func crossBridge(g *GlassBridgeGame) {
	for g.Live() && g.step < bridgePanels {
		g.Act(Action{Kind: ActionChoose, Value: g.safe[g.step]})
	}
}
