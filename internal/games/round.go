package games

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/survival-arcade/internal/wallet"
)

// FailureDelay is how long the jump-scare plays before a loss is resolved.
const FailureDelay = 700 * time.Millisecond

// Round carries the lifecycle shared by every module: one play-through at a
// time, a single-fire outcome, the failure window and generation-guarded
// timers. Modules embed it and supply restart/settle hooks.
type Round struct {
	host   Host
	spec   Spec
	status Status
	reason string
	playID uuid.UUID

	gen       uint64
	resolving bool
	settled   bool
	closed    bool
	stops     []func()

	// restart reinitialises module state for a fresh play-through. It runs
	// after the generation has moved, so timers it schedules are live.
	restart func()
	// onSettle is told the final result once per play-through.
	onSettle func(won bool)
}

func newRound(host Host, spec Spec) *Round {
	return &Round{host: host.withDefaults(), spec: spec, status: StatusWaiting}
}

func (r *Round) Spec() Spec     { return r.spec }
func (r *Round) Status() Status { return r.status }

// Live reports whether the play-through accepts input: started, not settled,
// and not inside the failure window.
func (r *Round) Live() bool {
	return !r.closed && !r.resolving && r.active()
}

func (r *Round) active() bool {
	return r.status != StatusWaiting && !r.status.Terminal()
}

// setStatus moves between active substates. Terminal states are only reached
// through Win and the loss resolution.
func (r *Round) setStatus(s Status) {
	if !r.active() || s == StatusWaiting || s.Terminal() {
		return
	}
	r.status = s
}

// Start opens a play-through. A finished one may be replayed only in normal
// mode; challenge and betting outcomes belong to the coordinator.
func (r *Round) Start() {
	if r.closed {
		return
	}
	switch {
	case r.status == StatusWaiting:
	case r.status.Terminal() && r.host.Mode == ModeNormal:
	default:
		return
	}
	r.begin()
}

func (r *Round) begin() {
	r.cancelTimers()
	r.gen++
	r.playID = uuid.New()
	r.resolving = false
	r.settled = false
	r.reason = ""
	r.status = StatusPlaying
	if r.restart != nil {
		r.restart()
	}
}

// After schedules fn for this play-through only. A restart, a settle or Close
// turns the callback into a no-op.
func (r *Round) After(d time.Duration, fn func()) {
	if r.host.Scheduler == nil || r.closed {
		return
	}
	gen := r.gen
	stop := r.host.Scheduler.AfterFunc(d, func() {
		if r.closed || r.gen != gen {
			return
		}
		fn()
	})
	r.stops = append(r.stops, stop)
}

func (r *Round) cancelTimers() {
	for _, stop := range r.stops {
		stop()
	}
	r.stops = nil
}

// Win runs the win path once per play-through.
func (r *Round) Win() {
	if r.closed || r.settled || r.resolving || !r.active() {
		return
	}
	r.cancelTimers()
	r.gen++
	r.settled = true
	r.status = StatusWon
	if r.onSettle != nil {
		r.onSettle(true)
	}
	if r.host.Mode == ModeNormal {
		r.payReward()
	}
	r.host.OnWin()
}

func (r *Round) payReward() {
	amount := r.spec.Reward
	if amount <= 0 || r.host.Wallet == nil {
		return
	}
	if r.host.Wallet.Consume(wallet.DoubleCoins) {
		amount *= 2
		r.notify(NoticeDoubleCoinsUsed, "Double coins applied", 0)
	}
	got := r.host.Wallet.Credit(amount)
	r.notify(NoticeReward, fmt.Sprintf("You won %d coins!", got), got)
}

// Fail opens the failure window. Triggers while it is open, or after the
// play-through settled, are dropped.
func (r *Round) Fail(reason string) {
	if r.closed || r.settled || r.resolving || !r.active() {
		return
	}
	r.cancelTimers()
	r.resolving = true
	r.reason = reason
	r.notify(NoticeJumpScare, reason, 0)
	if r.host.Scheduler == nil {
		r.resolveLoss()
		return
	}
	r.After(FailureDelay, r.resolveLoss)
}

func (r *Round) resolveLoss() {
	if !r.resolving {
		return
	}
	r.resolving = false
	verdict := Finalize
	if r.host.Wallet != nil {
		verdict = Intercept(r.host.Wallet)
	}
	switch verdict {
	case RetryPermanent:
		r.host.Logger.Printf("%s: permanent extra life used (%s)", r.spec.ID, r.reason)
		r.notify(NoticePermanentLifeUsed, "Permanent Extra Life used! Try again.", 0)
		r.begin()
	case RetryExtraLife:
		r.host.Logger.Printf("%s: extra life used (%s)", r.spec.ID, r.reason)
		r.notify(NoticeExtraLifeUsed, "Extra Life used! Try again.", 0)
		r.begin()
	default:
		r.gen++
		r.settled = true
		r.status = StatusLost
		if r.onSettle != nil {
			r.onSettle(false)
		}
		r.host.OnLose()
	}
}

// Skip spends a SkipGame power-up on the module's own win path.
func (r *Round) Skip() bool {
	if !r.Live() || r.host.Wallet == nil {
		return false
	}
	if !r.host.Wallet.Consume(wallet.SkipGame) {
		return false
	}
	r.notify(NoticeSkipUsed, "Skip Game used!", 0)
	r.Win()
	return true
}

// BackToLobby hands control back to the coordinator.
func (r *Round) BackToLobby() {
	r.Close()
	r.host.OnBackToLobby()
}

// Close unmounts the module.
func (r *Round) Close() {
	if r.closed {
		return
	}
	r.cancelTimers()
	r.gen++
	r.closed = true
}

func (r *Round) notify(kind NoticeKind, msg string, amount int) {
	r.host.Notify(Notice{Kind: kind, Game: r.spec.ID, Message: msg, Amount: amount})
}

func (r *Round) rng() float64 { return r.host.Rand.Float64() }

// between returns a uniform value in [lo, hi).
func (r *Round) between(lo, hi float64) float64 { return lo + r.rng()*(hi-lo) }

func (r *Round) view(fields map[string]any) View {
	v := View{
		Game:      r.spec.ID,
		Status:    r.status,
		Resolving: r.resolving,
		Reason:    r.reason,
		Fields:    fields,
	}
	if r.playID != uuid.Nil {
		v.PlayID = r.playID.String()
	}
	if v.Fields == nil {
		v.Fields = map[string]any{}
	}
	return v
}
