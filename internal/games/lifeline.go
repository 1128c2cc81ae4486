package games

import "github.com/MJE43/survival-arcade/internal/wallet"

// Verdict is the outcome of consulting the extra-life policy on a loss.
type Verdict int

const (
	// Finalize means no life was available and the loss stands.
	Finalize Verdict = iota
	// RetryPermanent means a permanent extra life granted a free restart.
	RetryPermanent
	// RetryExtraLife means one consumable extra life was spent on a restart.
	RetryExtraLife
)

func (v Verdict) String() string {
	switch v {
	case RetryPermanent:
		return "retry_permanent"
	case RetryExtraLife:
		return "retry_extra_life"
	default:
		return "finalize"
	}
}

// Retry reports whether the verdict restarts the play-through.
func (v Verdict) Retry() bool { return v != Finalize }

// Intercept decides what happens to a loss. A held permanent extra life is
// checked but never decremented; a consumable one is spent.
func Intercept(w Wallet) Verdict {
	if w.Count(wallet.PermanentExtraLife) > 0 {
		return RetryPermanent
	}
	if w.Consume(wallet.ExtraLife) {
		return RetryExtraLife
	}
	return Finalize
}
