// Package shop sells power-ups and runs the gambling corner. Only the wallet
// effects live here; presentation belongs to the frontend.
package shop

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/MJE43/survival-arcade/internal/wallet"
)

var (
	// ErrUnknownItem is returned for a kind the catalog does not sell.
	ErrUnknownItem = errors.New("shop: unknown item")
	// ErrAlreadyOwned is returned when buying a permanent power-up twice.
	ErrAlreadyOwned = errors.New("shop: already owned")
	// ErrInvalidStake is returned for a non-positive stake or an unknown choice.
	ErrInvalidStake = errors.New("shop: invalid stake")
)

// Wallet is the part of the store the shop touches.
type Wallet interface {
	Coins() int
	Count(kind wallet.PowerupKind) int
	Credit(amount int) int
	Debit(amount int) bool
	Grant(kind wallet.PowerupKind)
	LoseRandomPowerup() (wallet.PowerupKind, bool)
}

// Shop applies purchases and gambles to a wallet. Safe for concurrent use.
type Shop struct {
	mu      sync.Mutex
	catalog *Catalog
	wallet  Wallet
	rng     *rand.Rand
	logger  *log.Logger
	card    Card
}

// Option configures a Shop.
type Option func(*Shop)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Shop) { s.rng = r }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Shop) { s.logger = l }
}

// New creates a shop. A nil catalog means the default one.
func New(catalog *Catalog, w Wallet, opts ...Option) *Shop {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Shop{
		catalog: catalog,
		wallet:  w,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x540b)),
		logger:  log.New(os.Stdout, "[SHOP] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.card = s.draw(0)
	return s
}

// Catalog returns the catalog in use.
func (s *Shop) Catalog() *Catalog { return s.catalog }

// --------- Purchases ---------

// Purchase buys one unit of kind.
func (s *Shop) Purchase(kind wallet.PowerupKind) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.catalog.Item(kind)
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, kind)
	}
	if it.Permanent() && s.wallet.Count(kind) > 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrAlreadyOwned, it.Name)
	}
	if !s.wallet.Debit(it.Cost) {
		return Item{}, wallet.ErrInsufficientFunds
	}
	s.wallet.Grant(kind)
	s.logger.Printf("purchased %s for %d", kind, it.Cost)
	return it, nil
}

// --------- Slots ---------

// SpinResult describes one slot spin.
type SpinResult struct {
	Prize Prize `json:"prize"`
	// Applied is false when a loss could not be taken (no coins or no
	// power-up to lose).
	Applied bool               `json:"applied"`
	Lost    wallet.PowerupKind `json:"lost,omitempty"`
	Message string             `json:"message"`
}

// SpinSlots pays the spin cost and applies a weighted prize.
func (s *Shop) SpinSlots() (SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wallet.Debit(s.catalog.Slots.Cost) {
		return SpinResult{}, wallet.ErrInsufficientFunds
	}
	p := s.pickPrize()
	res := SpinResult{Prize: p, Applied: true}
	switch p.Type {
	case PrizePowerup:
		s.wallet.Grant(p.Kind)
		res.Message = fmt.Sprintf("You won: %s!", p.Label)
	case PrizeCoins:
		s.wallet.Credit(p.Amount)
		res.Message = fmt.Sprintf("You won: %d Coins!", p.Amount)
	case PrizeLossCoins:
		res.Applied = s.wallet.Debit(p.Amount)
		if res.Applied {
			res.Message = fmt.Sprintf("You lost %d Coins...", p.Amount)
		} else {
			res.Message = fmt.Sprintf("The machine wanted %d Coins, but you're broke! Lucky!", p.Amount)
		}
	case PrizeLossPowerup:
		kind, ok := s.wallet.LoseRandomPowerup()
		res.Applied = ok
		if ok {
			res.Lost = kind
			name := string(kind)
			if it, found := s.catalog.Item(kind); found {
				name = it.Name
			}
			res.Message = fmt.Sprintf("You lost: %s...", name)
		} else {
			res.Message = "Tried to take a power-up, but you had none! Lucky!"
		}
	}
	return res, nil
}

func (s *Shop) pickPrize() Prize {
	prizes := s.catalog.Slots.Prizes
	total := 0
	for _, p := range prizes {
		total += p.Weight
	}
	n := s.rng.IntN(total)
	for _, p := range prizes {
		if n < p.Weight {
			return p
		}
		n -= p.Weight
	}
	return prizes[len(prizes)-1]
}

// --------- Coin flip ---------

// Side is a coin face.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// FlipResult describes one coin flip.
type FlipResult struct {
	Result  Side   `json:"result"`
	Won     bool   `json:"won"`
	Payout  int    `json:"payout"`
	Message string `json:"message"`
}

// FlipCoin stakes coins on a side.
func (s *Shop) FlipCoin(choice Side, stake int) (FlipResult, error) {
	if stake <= 0 || (choice != Heads && choice != Tails) {
		return FlipResult{}, ErrInvalidStake
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wallet.Debit(stake) {
		return FlipResult{}, wallet.ErrInsufficientFunds
	}
	res := FlipResult{Result: Heads}
	if s.rng.IntN(2) == 1 {
		res.Result = Tails
	}
	if res.Result == choice {
		res.Won = true
		res.Payout = s.wallet.Credit(s.catalog.Payout * stake)
		res.Message = fmt.Sprintf("It's %s! You win %d coins!", res.Result, res.Payout)
	} else {
		res.Message = fmt.Sprintf("It's %s. You lost %d coins.", res.Result, stake)
	}
	return res, nil
}

// --------- High-low ---------

// Card is a playing card; Rank runs 2..14 with aces high.
type Card struct {
	Rank int `json:"rank"`
	Suit int `json:"suit"`
}

var rankNames = map[int]string{11: "J", 12: "Q", 13: "K", 14: "A"}

func (c Card) String() string {
	if n, ok := rankNames[c.Rank]; ok {
		return n
	}
	return fmt.Sprint(c.Rank)
}

// Guess is a high-low call.
type Guess string

const (
	Higher Guess = "higher"
	Lower  Guess = "lower"
)

// HighLowResult describes one deal.
type HighLowResult struct {
	Previous Card   `json:"previous"`
	Next     Card   `json:"next"`
	Won      bool   `json:"won"`
	Payout   int    `json:"payout"`
	Message  string `json:"message"`
}

// CurrentCard is the face-up card.
func (s *Shop) CurrentCard() Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

// draw deals a card whose rank differs from exclude.
func (s *Shop) draw(exclude int) Card {
	for {
		c := Card{Rank: 2 + s.rng.IntN(13), Suit: s.rng.IntN(4)}
		if c.Rank != exclude {
			return c
		}
	}
}

// PlayHighLow stakes coins on the next card's rank.
func (s *Shop) PlayHighLow(guess Guess, stake int) (HighLowResult, error) {
	if stake <= 0 || (guess != Higher && guess != Lower) {
		return HighLowResult{}, ErrInvalidStake
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wallet.Debit(stake) {
		return HighLowResult{}, wallet.ErrInsufficientFunds
	}
	prev := s.card
	next := s.draw(prev.Rank)
	s.card = next
	res := HighLowResult{Previous: prev, Next: next}
	res.Won = (guess == Higher && next.Rank > prev.Rank) || (guess == Lower && next.Rank < prev.Rank)
	if res.Won {
		res.Payout = s.wallet.Credit(s.catalog.Payout * stake)
		res.Message = fmt.Sprintf("It's a %s! You win %d coins!", next, res.Payout)
	} else {
		res.Message = fmt.Sprintf("It's a %s. You lose.", next)
	}
	return res, nil
}
