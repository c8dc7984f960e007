package achievement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnlocker struct {
	calls   []string
	granted map[string]bool
	failOn  string
}

func (f *fakeUnlocker) UnlockAchievement(_ context.Context, id string) (bool, error) {
	f.calls = append(f.calls, id)
	if id == f.failOn {
		return false, errors.New("store unavailable")
	}
	if f.granted == nil {
		f.granted = map[string]bool{}
	}
	if f.granted[id] {
		return false, nil
	}
	f.granted[id] = true
	return true, nil
}

func TestCatalog_UniqueIDsAndLookup(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Catalog() {
		require.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true

		got, ok := Lookup(a.ID)
		require.True(t, ok)
		assert.Equal(t, a, got)
		assert.GreaterOrEqual(t, a.XPReward, int64(0))
	}

	_, ok := Lookup("does_not_exist")
	assert.False(t, ok)
}

func TestEvaluate_UnlocksInCatalogOrder(t *testing.T) {
	e := NewEvaluator()
	u := &fakeUnlocker{}

	stats := Stats{
		Level: 1,
		Counters: map[string]int64{
			CounterQuizzesCompleted: 10,
			CounterPDFsOpened:       1,
		},
	}

	got := e.Evaluate(context.Background(), stats, u)
	assert.Equal(t, []string{"first_quiz", "quiz_enthusiast", "first_pdf"}, got)
}

func TestEvaluate_SkipsAlreadyUnlocked(t *testing.T) {
	e := NewEvaluator()
	u := &fakeUnlocker{}

	stats := Stats{
		Level:    1,
		Unlocked: map[string]bool{"first_quiz": true},
		Counters: map[string]int64{CounterQuizzesCompleted: 1},
	}

	got := e.Evaluate(context.Background(), stats, u)
	assert.Empty(t, got)
	assert.Empty(t, u.calls)
}

func TestEvaluate_SinglePass(t *testing.T) {
	// level_5 would only hold after the first rule's reward is applied
	e := NewEvaluator(
		Rule{Achievement{"a", "A", "", 100, CategoryLearning}, func(s Stats) bool { return true }},
		Rule{Achievement{"b", "B", "", 0, CategoryMilestone}, levelAtLeast(5)},
	)
	u := &fakeUnlocker{}

	got := e.Evaluate(context.Background(), Stats{TotalXP: 390, Level: 4}, u)
	assert.Equal(t, []string{"a"}, got)
}

func TestEvaluate_ErrorsDoNotStopPass(t *testing.T) {
	e := NewEvaluator(
		Rule{Achievement{"boom", "Boom", "", 0, CategoryLearning}, func(s Stats) bool { panic("bad rule") }},
		Rule{Achievement{"fails", "Fails", "", 0, CategoryLearning}, func(s Stats) bool { return true }},
		Rule{Achievement{"ok", "OK", "", 0, CategoryLearning}, func(s Stats) bool { return true }},
	)
	u := &fakeUnlocker{failOn: "fails"}

	got := e.Evaluate(context.Background(), Stats{Level: 1}, u)
	assert.Equal(t, []string{"ok"}, got)
	assert.Equal(t, []string{"fails", "ok"}, u.calls)
}
