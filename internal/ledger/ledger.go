// Package ledger is the device-side XP ledger: a single-writer view over a durable
// Store with atomic updates, a reactive read channel, and achievement evaluation
// after every XP-affecting commit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lingo_xp/internal/achievement"
	"lingo_xp/internal/logger"
)

var ErrUnknownAchievement = errors.New("unknown achievement")

// errUnchanged aborts a Store update without writing
var errUnchanged = errors.New("unchanged")

// Ledger serializes all XP mutations and publishes every committed state
type Ledger struct {
	store     Store
	evaluator *achievement.Evaluator

	// mu orders commit+publish so subscribers see states in commit order
	mu     sync.Mutex
	subs   map[int]chan State
	nextID int
}

// Option configures a Ledger
type Option func(*Ledger)

// WithEvaluator replaces the built-in achievement evaluator
func WithEvaluator(e *achievement.Evaluator) Option {
	return func(l *Ledger) { l.evaluator = e }
}

// New creates a ledger over store
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		evaluator: achievement.NewEvaluator(),
		subs:      make(map[int]chan State),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Snapshot returns the last committed state
func (l *Ledger) Snapshot(ctx context.Context) (State, error) {
	return l.store.Load(ctx)
}

// AddXP credits amount XP. Non-positive amounts are ignored.
func (l *Ledger) AddXP(ctx context.Context, amount int64, source string) (State, error) {
	if amount <= 0 {
		return l.store.Load(ctx)
	}

	var oldLevel int
	s, err := l.commit(ctx, func(s *State) error {
		oldLevel = s.CurrentLevel
		s.addXP(amount)
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("add xp: %w", err)
	}

	if s.CurrentLevel > oldLevel {
		logger.Info("level up", "source", source, "xp", amount, "old_level", oldLevel, "new_level", s.CurrentLevel)
	} else {
		logger.Debug("xp added", "source", source, "xp", amount, "total_xp", s.TotalXP)
	}

	l.evaluate(ctx, s)
	return l.store.Load(ctx)
}

// UnlockAchievement grants a catalog achievement and its XP reward in one update.
// Returns false when the achievement was already unlocked.
func (l *Ledger) UnlockAchievement(ctx context.Context, id string) (bool, error) {
	a, ok := achievement.Lookup(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAchievement, id)
	}

	_, err := l.commit(ctx, func(s *State) error {
		if s.HasAchievement(id) {
			return errUnchanged
		}
		s.addAchievement(id)
		s.addXP(a.XPReward)
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	return true, nil
}

// IncrementCounter bumps a stat counter and re-evaluates achievements
func (l *Ledger) IncrementCounter(ctx context.Context, name string, delta int64) (State, error) {
	s, err := l.commit(ctx, func(s *State) error {
		s.Counters[name] += delta
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("increment counter: %w", err)
	}
	l.evaluate(ctx, s)
	return l.store.Load(ctx)
}

// SetCounter stores an absolute counter value, e.g. the current streak length
func (l *Ledger) SetCounter(ctx context.Context, name string, value int64) (State, error) {
	s, err := l.commit(ctx, func(s *State) error {
		s.Counters[name] = value
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("set counter: %w", err)
	}
	l.evaluate(ctx, s)
	return l.store.Load(ctx)
}

// RecordSync stores the rank returned by the server and the sync time
func (l *Ledger) RecordSync(ctx context.Context, rank int, at time.Time) (State, error) {
	s, err := l.commit(ctx, func(s *State) error {
		s.LeaderboardRank = rank
		s.LastSyncTimestamp = at.UnixMilli()
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("record sync: %w", err)
	}
	return s, nil
}

// Subscribe returns a channel receiving every committed state. A slow reader
// loses intermediate states, never the latest one.
func (l *Ledger) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (l *Ledger) commit(ctx context.Context, fn func(*State) error) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.store.Update(ctx, fn)
	if err != nil {
		return s, err
	}
	l.publish(s)
	return s, nil
}

// publish must be called with mu held
func (l *Ledger) publish(s State) {
	for _, ch := range l.subs {
		v := s.Clone()
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (l *Ledger) evaluate(ctx context.Context, s State) {
	if l.evaluator == nil {
		return
	}
	l.evaluator.Evaluate(ctx, s.Stats(), l)
}
