package games

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/MJE43/survival-arcade/internal/kvstore"
)

// TugStats is the cumulative tug-of-war record that drives the AI ramp.
type TugStats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// TugDifficulty is the AI tuning for one tug-of-war session.
type TugDifficulty struct {
	StrengthMin   float64       `json:"strengthMin"`
	StrengthMax   float64       `json:"strengthMax"`
	DelayMin      time.Duration `json:"delayMin"`
	DelayMax      time.Duration `json:"delayMax"`
	FatigueChance float64       `json:"fatigueChance"`
	FatigueDelay  time.Duration `json:"fatigueDelay"`
}

// Difficulty derives the AI tuning from the record. Pure; the net score is
// clamped to [-5, 10].
func Difficulty(s TugStats) TugDifficulty {
	d := float64(min(10, max(-5, s.Wins-s.Losses)))
	ms := func(v float64) time.Duration { return time.Duration(v * float64(time.Millisecond)) }
	return TugDifficulty{
		StrengthMin:   3 + 0.1*d,
		StrengthMax:   4.5 + 0.1*d,
		DelayMin:      ms(max(40, 70-8*d)),
		DelayMax:      ms(max(150, 250-8*d)),
		FatigueChance: max(0.01, 0.05-0.004*d),
		FatigueDelay:  500 * time.Millisecond,
	}
}

// TugRecorder reads and records tug-of-war results.
type TugRecorder interface {
	Stats() TugStats
	Record(won bool)
}

// StatsBackend is the key-value storage behind StatsStore.
type StatsBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// StatsStore persists TugStats under its own key. Load failures fall back to
// a zero record; write failures are logged.
type StatsStore struct {
	mu      sync.Mutex
	stats   TugStats
	backend StatsBackend
	logger  *log.Logger
}

// NewStatsStore loads the record from backend. backend may be nil.
func NewStatsStore(ctx context.Context, backend StatsBackend, logger *log.Logger) *StatsStore {
	if logger == nil {
		logger = log.New(log.Writer(), "[GAME] ", log.LstdFlags)
	}
	s := &StatsStore{backend: backend, logger: logger}
	if backend == nil {
		return s
	}
	raw, err := backend.Get(ctx, kvstore.KeyTugOfWarStats)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Printf("tug stats: load: %v", err)
		}
		return s
	}
	var st TugStats
	if err := json.Unmarshal(raw, &st); err != nil || st.Wins < 0 || st.Losses < 0 {
		s.logger.Printf("tug stats: ignoring corrupt record %q", raw)
		return s
	}
	s.stats = st
	return s
}

func (s *StatsStore) Stats() TugStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *StatsStore) Record(won bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if won {
		s.stats.Wins++
	} else {
		s.stats.Losses++
	}
	if s.backend == nil {
		return
	}
	raw, err := json.Marshal(s.stats)
	if err != nil {
		s.logger.Printf("tug stats: encode: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.backend.Put(ctx, kvstore.KeyTugOfWarStats, raw); err != nil {
		s.logger.Printf("tug stats: save: %v", err)
	}
}
