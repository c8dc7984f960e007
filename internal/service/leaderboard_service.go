package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/dto"
	"lingo_xp/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 500
)

// Column sizes of user_leaderboard and xp_history
const (
	maxUserIDLen   = 128
	maxUsernameLen = 100
	maxSourceLen   = 50
)

// LeaderboardStore is the persistence the leaderboard service needs
type LeaderboardStore interface {
	SyncAndRank(ctx context.Context, req domain.SyncRequest) (int, error)
	List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	GetByUserID(ctx context.Context, userID string) (*domain.LeaderboardRow, error)
	RankOf(ctx context.Context, totalXP int64) (rank int, totalUsers int, err error)
	AddXP(ctx context.Context, userID string, amount int64) (oldLevel int, row *domain.LeaderboardRow, err error)
}

// LeaderboardCache caches leaderboard pages by limit
type LeaderboardCache interface {
	// Get returns a generation token that Set must receive for a page read after the miss
	Get(ctx context.Context, limit int) ([]domain.LeaderboardEntry, int64, bool)
	Set(ctx context.Context, gen int64, limit int, entries []domain.LeaderboardEntry)
	Invalidate(ctx context.Context)
}

// RankPublisher receives live rank events
type RankPublisher interface {
	Publish(ev dto.RankEvent)
}

// HistoryRecorder appends xp history without blocking
type HistoryRecorder interface {
	Record(rec domain.XPHistoryRecord)
}

type LeaderboardService struct {
	store     LeaderboardStore
	cache     LeaderboardCache
	publisher RankPublisher
	history   HistoryRecorder
	now       func() time.Time
}

// NewLeaderboardService wires the service. cache, publisher and history may be nil.
func NewLeaderboardService(store LeaderboardStore, cache LeaderboardCache, publisher RankPublisher, history HistoryRecorder) *LeaderboardService {
	return &LeaderboardService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		history:   history,
		now:       time.Now,
	}
}

// SyncXP overwrites the user's row with the client snapshot and returns the new rank
func (s *LeaderboardService) SyncXP(ctx context.Context, req domain.SyncRequest) (int, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return 0, domain.ErrNotAuthenticated
	}
	if utf8.RuneCountInString(req.UserID) > maxUserIDLen || utf8.RuneCountInString(req.Username) > maxUsernameLen {
		return 0, fmt.Errorf("%w: user id or username too long", domain.ErrInvalidInput)
	}
	if req.TotalXP < 0 || req.Level < 1 {
		return 0, fmt.Errorf("%w: total_xp must be >= 0 and current_level >= 1", domain.ErrInvalidInput)
	}

	rank, err := s.store.SyncAndRank(ctx, req)
	if err != nil {
		return 0, err
	}
	LeaderboardSyncs.Inc()
	logger.WithContext(ctx).Info("xp synced", "user_id", req.UserID, "total_xp", req.TotalXP, "level", req.Level, "rank", rank)

	s.invalidate(ctx)
	s.publish(dto.RankEvent{
		Type:     dto.EventRankUpdate,
		UserID:   req.UserID,
		Username: req.Username,
		TotalXP:  req.TotalXP,
		Level:    req.Level,
		Rank:     rank,
	})
	return rank, nil
}

// NormalizeLimit maps a requested page size into [1, MaxLeaderboardLimit]; 0 means default
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}

// GetLeaderboard returns the top entries ordered by XP
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	limit = NormalizeLimit(limit)

	var gen int64 = -1
	if s.cache != nil {
		entries, g, ok := s.cache.Get(ctx, limit)
		if ok {
			return entries, nil
		}
		gen = g
	}

	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, gen, limit, entries)
	}
	return entries, nil
}

// GetUserRank returns the user's rank, the number of ranked users and the percentile
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID string) (*domain.UserRank, error) {
	row, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank, total, err := s.store.RankOf(ctx, row.TotalXP)
	if err != nil {
		return nil, err
	}

	return &domain.UserRank{
		Rank:       rank,
		TotalUsers: total,
		Percentile: Percentile(rank, total),
		Row:        *row,
	}, nil
}

// Percentile is the share of users ranked at or below rank, rounded to one decimal
func Percentile(rank, totalUsers int) float64 {
	if totalUsers <= 0 {
		return 0
	}
	p := (1 - float64(rank-1)/float64(totalUsers)) * 100
	return math.Round(p*10) / 10
}

// AddXP credits a single action's XP after the anti-cheat gate
func (s *LeaderboardService) AddXP(ctx context.Context, userID string, amount int64, source domain.XPSource, metadata map[string]interface{}) (*domain.XPAward, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if source == "" {
		return nil, fmt.Errorf("%w: source is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(userID) > maxUserIDLen || utf8.RuneCountInString(string(source)) > maxSourceLen {
		return nil, fmt.Errorf("%w: user id or source too long", domain.ErrInvalidInput)
	}

	if err := CheckXPAmount(source, amount); err != nil {
		XPRejected.WithLabelValues(string(source)).Inc()
		logger.WithContext(ctx).Warn("suspicious xp amount rejected",
			"user_id", userID, "source", source, "xp_amount", amount, "cap", XPCap(source))
		return nil, err
	}

	oldLevel, row, err := s.store.AddXP(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	XPAwarded.WithLabelValues(string(source)).Add(float64(amount))

	if s.history != nil {
		s.history.Record(domain.XPHistoryRecord{
			EventID:   uuid.New(),
			UserID:    userID,
			Amount:    amount,
			Source:    source,
			Metadata:  metadata,
			CreatedAt: s.now(),
		})
	}

	award := &domain.XPAward{
		NewTotalXP: row.TotalXP,
		NewLevel:   row.Level,
		LevelUp:    row.Level > oldLevel,
		XPEarned:   amount,
	}
	if award.LevelUp {
		logger.WithContext(ctx).Info("level up", "user_id", userID, "old_level", oldLevel, "new_level", row.Level)
	}

	s.invalidate(ctx)
	s.publish(dto.RankEvent{
		Type:     dto.EventXPAdded,
		UserID:   userID,
		Username: row.Username,
		TotalXP:  row.TotalXP,
		Level:    row.Level,
		LevelUp:  award.LevelUp,
	})
	return award, nil
}

func (s *LeaderboardService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *LeaderboardService) publish(ev dto.RankEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
