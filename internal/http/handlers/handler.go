package handlers

import (
	"context"

	"lingo_xp/internal/domain"
)

// GamificationService is what the gamification endpoints call
type GamificationService interface {
	SyncXP(ctx context.Context, req domain.SyncRequest) (int, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID string) (*domain.UserRank, error)
	AddXP(ctx context.Context, userID string, amount int64, source domain.XPSource, metadata map[string]interface{}) (*domain.XPAward, error)
}

type Handler struct {
	Service GamificationService
}

func NewHandler(svc GamificationService) *Handler {
	return &Handler{Service: svc}
}
