// Package wallet owns the coin balance and the power-up inventory. It is the
// single source of truth shared by every game module; all mutation goes
// through Credit, Debit, Grant, Consume and LoseRandomPowerup.
package wallet

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/MJE43/survival-arcade/internal/kvstore"
)

var (
	// ErrInsufficientFunds is reported by callers when Debit fails.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	// ErrInsufficientInventory is reported by callers when Consume fails.
	ErrInsufficientInventory = errors.New("wallet: insufficient inventory")
)

const persistTimeout = 2 * time.Second

// Backend is the durable storage the store writes through to.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store holds the balance and inventory. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	coins    int
	powerups Inventory

	backend   Backend
	logger    *log.Logger
	rng       *rand.Rand
	listeners []func(Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRand sets the random source used by LoseRandomPowerup.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// NewStore creates an empty store. backend may be nil for an in-memory wallet.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		powerups: newInventory(),
		backend:  backend,
		logger:   log.New(os.Stdout, "[WALLET] ", log.LstdFlags),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted snapshot. It is best-effort: a missing or corrupt
// key leaves the zero default in place and is only logged.
func (s *Store) Load(ctx context.Context) {
	if s.backend == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := s.backend.Get(ctx, kvstore.KeyCoins); err == nil {
		if coins, err := decodeCoins(raw); err == nil {
			s.coins = coins
		} else {
			s.logger.Printf("failed to load coins: %v", err)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		s.logger.Printf("failed to load coins: %v", err)
	}

	if raw, err := s.backend.Get(ctx, kvstore.KeyPowerups); err == nil {
		if inv, err := decodePowerups(raw); err == nil {
			s.powerups = inv
		} else {
			s.logger.Printf("failed to load powerups: %v", err)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		s.logger.Printf("failed to load powerups: %v", err)
	}
}

// OnChange registers fn to run after every mutation with the new snapshot.
// Listeners run outside the store lock.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Coins returns the current balance.
func (s *Store) Coins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coins
}

// Count returns how many of kind the player holds.
func (s *Store) Count(kind PowerupKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powerups[kind]
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Credit adds amount coins, doubled while PermanentDoubleCoins is owned.
// Non-positive amounts are ignored. It returns the stored increase.
func (s *Store) Credit(amount int) int {
	if amount <= 0 {
		return 0
	}
	s.mu.Lock()
	if s.powerups[PermanentDoubleCoins] > 0 {
		amount *= 2
	}
	s.coins += amount
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	return amount
}

// Debit removes amount coins if the balance covers it. Otherwise nothing
// changes and it returns false.
func (s *Store) Debit(amount int) bool {
	if amount <= 0 {
		return false
	}
	s.mu.Lock()
	if s.coins < amount {
		s.mu.Unlock()
		return false
	}
	s.coins -= amount
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	return true
}

// Grant adds one of kind to the inventory.
func (s *Store) Grant(kind PowerupKind) {
	if !kind.Valid() {
		s.logger.Printf("ignoring grant of unknown power-up %q", kind)
		return
	}
	s.mu.Lock()
	s.powerups[kind]++
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Consume removes one of kind. It returns false, without mutation, when the
// player holds none.
func (s *Store) Consume(kind PowerupKind) bool {
	s.mu.Lock()
	if s.powerups[kind] <= 0 {
		s.mu.Unlock()
		return false
	}
	s.powerups[kind]--
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	return true
}

// LoseRandomPowerup removes one power-up chosen uniformly among held
// non-permanent kinds. Permanent kinds are never eligible.
func (s *Store) LoseRandomPowerup() (PowerupKind, bool) {
	s.mu.Lock()
	var eligible []PowerupKind
	for _, k := range allKinds {
		if !k.Permanent() && s.powerups[k] > 0 {
			eligible = append(eligible, k)
		}
	}
	if len(eligible) == 0 {
		s.mu.Unlock()
		return "", false
	}
	lost := eligible[s.rng.IntN(len(eligible))]
	s.powerups[lost]--
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	return lost, true
}

// --------- helpers ---------

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Coins: s.coins, Powerups: s.powerups.Clone()}
}

// commitLocked writes the new state through to the backend. Failures are
// logged and dropped; the in-memory state stays authoritative.
func (s *Store) commitLocked() Snapshot {
	snap := s.snapshotLocked()
	if s.backend == nil {
		return snap
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if raw, err := encodeCoins(snap.Coins); err != nil {
		s.logger.Printf("failed to encode coins: %v", err)
	} else if err := s.backend.Put(ctx, kvstore.KeyCoins, raw); err != nil {
		s.logger.Printf("failed to save coins: %v", err)
	}
	if raw, err := encodePowerups(snap.Powerups); err != nil {
		s.logger.Printf("failed to encode powerups: %v", err)
	} else if err := s.backend.Put(ctx, kvstore.KeyPowerups, raw); err != nil {
		s.logger.Printf("failed to save powerups: %v", err)
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
