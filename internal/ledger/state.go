package ledger

import (
	"sort"

	"lingo_xp/internal/achievement"
	"lingo_xp/internal/leveling"
)

// State is the device-owned gamification state. CurrentLevel always equals
// leveling.CalculateLevel(TotalXP) once any XP mutation has been applied.
type State struct {
	TotalXP              int64            `json:"user_xp"`
	CurrentLevel         int              `json:"user_level"`
	AchievementsUnlocked []string         `json:"achievements_unlocked"`
	LeaderboardRank      int              `json:"leaderboard_rank"`
	LastSyncTimestamp    int64            `json:"last_xp_sync"`
	Counters             map[string]int64 `json:"counters,omitempty"`
}

// DefaultState is what a fresh install reads
func DefaultState() State {
	return State{
		CurrentLevel:         1,
		AchievementsUnlocked: []string{},
		Counters:             map[string]int64{},
	}
}

// Clone returns a deep copy so snapshots handed to readers never alias the store
func (s State) Clone() State {
	c := s
	c.AchievementsUnlocked = append([]string{}, s.AchievementsUnlocked...)
	c.Counters = make(map[string]int64, len(s.Counters))
	for k, v := range s.Counters {
		c.Counters[k] = v
	}
	return c
}

// HasAchievement reports whether id is in the unlocked set
func (s State) HasAchievement(id string) bool {
	for _, a := range s.AchievementsUnlocked {
		if a == id {
			return true
		}
	}
	return false
}

func (s *State) addAchievement(id string) {
	s.AchievementsUnlocked = append(s.AchievementsUnlocked, id)
	sort.Strings(s.AchievementsUnlocked)
}

func (s *State) addXP(amount int64) {
	s.TotalXP += amount
	s.CurrentLevel = leveling.CalculateLevel(s.TotalXP)
}

// normalize repairs values loaded from storage that predate a field
func (s *State) normalize() {
	if s.CurrentLevel < 1 {
		s.CurrentLevel = leveling.CalculateLevel(s.TotalXP)
	}
	if s.AchievementsUnlocked == nil {
		s.AchievementsUnlocked = []string{}
	}
	if s.Counters == nil {
		s.Counters = map[string]int64{}
	}
}

// Stats converts the state into the view achievement rules evaluate
func (s State) Stats() achievement.Stats {
	unlocked := make(map[string]bool, len(s.AchievementsUnlocked))
	for _, id := range s.AchievementsUnlocked {
		unlocked[id] = true
	}
	counters := make(map[string]int64, len(s.Counters))
	for k, v := range s.Counters {
		counters[k] = v
	}
	return achievement.Stats{
		TotalXP:  s.TotalXP,
		Level:    s.CurrentLevel,
		Unlocked: unlocked,
		Counters: counters,
	}
}
