package dto

import "lingo_xp/internal/domain"

// SyncXPRequest is the body of POST /gamification/sync-xp
type SyncXPRequest struct {
	TotalXP              *int64   `json:"total_xp" binding:"required,min=0"`
	CurrentLevel         *int     `json:"current_level" binding:"required,min=1"`
	AchievementsUnlocked []string `json:"achievements_unlocked"`
	Username             string   `json:"username,omitempty" binding:"max=100"`
}

type SyncXPResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	LeaderboardRank int    `json:"leaderboard_rank"`
}

type LeaderboardResponse struct {
	Success bool                      `json:"success"`
	Data    []domain.LeaderboardEntry `json:"data"`
}

type UserRankResponse struct {
	Success              bool     `json:"success"`
	Rank                 int      `json:"rank"`
	TotalUsers           int      `json:"total_users"`
	Percentile           float64  `json:"percentile"`
	Username             string   `json:"username"`
	TotalXP              int64    `json:"total_xp"`
	Level                int      `json:"level"`
	AchievementsUnlocked []string `json:"achievements_unlocked"`
	AchievementCount     int      `json:"achievement_count"`
}

// AddXPRequest is the body of POST /gamification/add-xp
type AddXPRequest struct {
	XPAmount *int64                 `json:"xp_amount" binding:"required"`
	Source   string                 `json:"source" binding:"required,max=50"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type AddXPResponse struct {
	Success    bool  `json:"success"`
	NewTotalXP int64 `json:"new_total_xp"`
	NewLevel   int   `json:"new_level"`
	LevelUp    bool  `json:"level_up"`
	XPEarned   int64 `json:"xp_earned"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CodeInvalidXPAmount marks an add-xp rejected by the anti-cheat gate
const CodeInvalidXPAmount = "invalid_xp_amount"

// Live event types
const (
	EventRankUpdate = "rank_update"
	EventXPAdded    = "xp_added"
)

// RankEvent is pushed to live leaderboard subscribers
type RankEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	TotalXP  int64  `json:"total_xp"`
	Level    int    `json:"level"`
	Rank     int    `json:"rank,omitempty"`
	LevelUp  bool   `json:"level_up,omitempty"`
}
