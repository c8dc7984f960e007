package domain

import "time"

// LeaderboardRow is the server-side mirror of a user's gamification state.
type LeaderboardRow struct {
	ID                   int64      `db:"id" json:"-"`
	UserID               string     `db:"user_id" json:"user_id"`
	Username             string     `db:"username" json:"username"`
	TotalXP              int64      `db:"total_xp" json:"total_xp"`
	Level                int        `db:"level" json:"level"`
	AchievementsUnlocked []string   `db:"achievements_unlocked" json:"achievements_unlocked"`
	LastXPSync           *time.Time `db:"last_xp_sync" json:"last_xp_sync,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// AchievementCount is the number of unlocked achievements on the row
func (r *LeaderboardRow) AchievementCount() int {
	return len(r.AchievementsUnlocked)
}

// LeaderboardEntry is one ranked line of the leaderboard. Rank is computed at query time.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	TotalXP          int64  `json:"total_xp"`
	Level            int    `json:"level"`
	AchievementCount int    `json:"achievement_count"`
}

// UserRank describes where a single user stands among all leaderboard rows
type UserRank struct {
	Rank       int            `json:"rank"`
	TotalUsers int            `json:"total_users"`
	Percentile float64        `json:"percentile"`
	Row        LeaderboardRow `json:"-"`
}

// SyncRequest is the client's wholesale snapshot pushed on sync (last write wins)
type SyncRequest struct {
	UserID               string
	Username             string
	TotalXP              int64
	Level                int
	AchievementsUnlocked []string
}

// XPAward is the result of an accepted add-xp call
type XPAward struct {
	NewTotalXP int64 `json:"new_total_xp"`
	NewLevel   int   `json:"new_level"`
	LevelUp    bool  `json:"level_up"`
	XPEarned   int64 `json:"xp_earned"`
}
