package achievement

import (
	"context"
	"fmt"

	"lingo_xp/internal/logger"
)

// Stats is the committed ledger view that rules are evaluated against
type Stats struct {
	TotalXP  int64
	Level    int
	Unlocked map[string]bool
	Counters map[string]int64
}

// Counter returns a stat counter, 0 when never recorded
func (s Stats) Counter(name string) int64 {
	return s.Counters[name]
}

// Unlocker grants an achievement. Implementations must be idempotent.
type Unlocker interface {
	UnlockAchievement(ctx context.Context, id string) (bool, error)
}

// Evaluator runs unlock rules after XP-affecting commits
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator over the given rules, or the built-in catalog when none are given
func NewEvaluator(r ...Rule) *Evaluator {
	if len(r) == 0 {
		r = Rules()
	}
	return &Evaluator{rules: r}
}

// Evaluate makes a single top-to-bottom pass over the rules and unlocks every achievement
// whose predicate holds for stats. Reward XP granted during the pass is not fed back into
// this pass; the next committed mutation picks it up. Returns the ids that were unlocked.
func (e *Evaluator) Evaluate(ctx context.Context, stats Stats, u Unlocker) []string {
	var unlocked []string
	for _, r := range e.rules {
		if stats.Unlocked[r.ID] {
			continue
		}
		ok, err := check(r, stats)
		if err != nil {
			logger.Error("achievement rule failed", "achievement", r.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		granted, err := u.UnlockAchievement(ctx, r.ID)
		if err != nil {
			logger.Error("failed to unlock achievement", "achievement", r.ID, "error", err)
			continue
		}
		if granted {
			logger.Info("achievement unlocked", "achievement", r.ID, "xp_reward", r.XPReward)
			unlocked = append(unlocked, r.ID)
		}
	}
	return unlocked
}

func check(r Rule, stats Stats) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule panicked: %v", p)
		}
	}()
	if r.Unlocked == nil {
		return false, nil
	}
	return r.Unlocked(stats), nil
}
