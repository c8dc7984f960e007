package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/dto"
	"lingo_xp/internal/leveling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mirrors the SQL semantics of LeaderboardRepository in memory
type memStore struct {
	mu   sync.Mutex
	rows []*domain.LeaderboardRow
	seq  int64
	tick time.Time
}

func newMemStore() *memStore {
	return &memStore{tick: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) now() time.Time {
	m.tick = m.tick.Add(time.Second)
	return m.tick
}

func (m *memStore) find(userID string) *domain.LeaderboardRow {
	for _, r := range m.rows {
		if r.UserID == userID {
			return r
		}
	}
	return nil
}

func (m *memStore) rankOf(totalXP int64) int {
	rank := 1
	for _, r := range m.rows {
		if r.TotalXP > totalXP {
			rank++
		}
	}
	return rank
}

func (m *memStore) SyncAndRank(ctx context.Context, req domain.SyncRequest) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	row := m.find(req.UserID)
	if row == nil {
		m.seq++
		row = &domain.LeaderboardRow{ID: m.seq, UserID: req.UserID, CreatedAt: now}
		m.rows = append(m.rows, row)
	}
	if req.Username != "" {
		row.Username = req.Username
	}
	row.TotalXP = req.TotalXP
	row.Level = req.Level
	row.AchievementsUnlocked = append([]string{}, req.AchievementsUnlocked...)
	row.LastXPSync = &now
	row.UpdatedAt = now
	return m.rankOf(row.TotalXP), nil
}

func (m *memStore) List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]*domain.LeaderboardRow{}, m.rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalXP != b.TotalXP {
			return a.TotalXP > b.TotalXP
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	res := []domain.LeaderboardEntry{}
	for i, r := range sorted {
		if i >= limit {
			break
		}
		res = append(res, domain.LeaderboardEntry{
			Rank: i + 1, UserID: r.UserID, Username: r.Username,
			TotalXP: r.TotalXP, Level: r.Level, AchievementCount: r.AchievementCount(),
		})
	}
	return res, nil
}

func (m *memStore) GetByUserID(ctx context.Context, userID string) (*domain.LeaderboardRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.find(userID); r != nil {
		c := *r
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) RankOf(ctx context.Context, totalXP int64) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rankOf(totalXP), len(m.rows), nil
}

func (m *memStore) AddXP(ctx context.Context, userID string, amount int64) (int, *domain.LeaderboardRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	row := m.find(userID)
	oldLevel := 1
	if row == nil {
		m.seq++
		row = &domain.LeaderboardRow{ID: m.seq, UserID: userID, CreatedAt: now}
		m.rows = append(m.rows, row)
	} else {
		oldLevel = row.Level
	}
	row.TotalXP += amount
	row.Level = leveling.CalculateLevel(row.TotalXP)
	row.UpdatedAt = now
	c := *row
	return oldLevel, &c, nil
}

type recordingHistory struct {
	mu      sync.Mutex
	records []domain.XPHistoryRecord
}

func (h *recordingHistory) Record(rec domain.XPHistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
}

type recordingPublisher struct {
	events []dto.RankEvent
}

func (p *recordingPublisher) Publish(ev dto.RankEvent) {
	p.events = append(p.events, ev)
}

// mapCache keys pages by generation like the Redis cache does
type mapCache struct {
	gen         int64
	entries     map[int64]map[int][]domain.LeaderboardEntry
	invalidated int
}

func (c *mapCache) Get(ctx context.Context, limit int) ([]domain.LeaderboardEntry, int64, bool) {
	e, ok := c.entries[c.gen][limit]
	return e, c.gen, ok
}

func (c *mapCache) Set(ctx context.Context, gen int64, limit int, entries []domain.LeaderboardEntry) {
	if c.entries == nil {
		c.entries = map[int64]map[int][]domain.LeaderboardEntry{}
	}
	if c.entries[gen] == nil {
		c.entries[gen] = map[int][]domain.LeaderboardEntry{}
	}
	c.entries[gen][limit] = entries
}

func (c *mapCache) Invalidate(ctx context.Context) {
	c.gen++
	c.invalidated++
}

// listHookStore runs onList after the rows were read, simulating a write that
// commits while a leaderboard page is in flight
type listHookStore struct {
	*memStore
	onList func()
}

func (s *listHookStore) List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	entries, err := s.memStore.List(ctx, limit)
	if s.onList != nil {
		hook := s.onList
		s.onList = nil
		hook()
	}
	return entries, err
}

func TestSyncXP_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewLeaderboardService(store, nil, pub, nil)

	for i, xp := range []int64{900, 100} {
		_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: string(rune('a' + i)), TotalXP: xp, Level: leveling.CalculateLevel(xp)})
		require.NoError(t, err)
	}

	rank, err := svc.SyncXP(ctx, domain.SyncRequest{
		UserID: "me", Username: "minji", TotalXP: 500, Level: 6, AchievementsUnlocked: []string{"first_quiz"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	row, err := store.GetByUserID(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(500), row.TotalXP)
	assert.Equal(t, 6, row.Level)
	assert.Equal(t, []string{"first_quiz"}, row.AchievementsUnlocked)
	assert.NotNil(t, row.LastXPSync)

	board, err := svc.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	for _, e := range board {
		if e.UserID == "me" {
			assert.Equal(t, rank, e.Rank)
		}
	}

	require.NotEmpty(t, pub.events)
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, dto.EventRankUpdate, last.Type)
	assert.Equal(t, 2, last.Rank)
}

func TestSyncXP_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewLeaderboardService(store, nil, nil, nil)

	_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "u", Username: "first", TotalXP: 800, Level: 9, AchievementsUnlocked: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = svc.SyncXP(ctx, domain.SyncRequest{UserID: "u", TotalXP: 300, Level: 4})
	require.NoError(t, err)

	row, err := store.GetByUserID(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(300), row.TotalXP)
	assert.Equal(t, 4, row.Level)
	assert.Empty(t, row.AchievementsUnlocked)
	assert.Equal(t, "first", row.Username)
}

func TestSyncXP_Validation(t *testing.T) {
	svc := NewLeaderboardService(newMemStore(), nil, nil, nil)

	_, err := svc.SyncXP(context.Background(), domain.SyncRequest{TotalXP: 1, Level: 1})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = svc.SyncXP(context.Background(), domain.SyncRequest{UserID: "u", TotalXP: -1, Level: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetLeaderboard_TieBreakAndRank(t *testing.T) {
	ctx := context.Background()
	svc := NewLeaderboardService(newMemStore(), nil, nil, nil)

	for i, xp := range []int64{300, 300, 200, 100} {
		_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: []string{"w", "x", "y", "z"}[i], TotalXP: xp, Level: leveling.CalculateLevel(xp)})
		require.NoError(t, err)
	}

	board, err := svc.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, []string{"w", "x", "y", "z"}, []string{board[0].UserID, board[1].UserID, board[2].UserID, board[3].UserID})
	assert.Equal(t, 3, board[2].Rank)

	r, err := svc.GetUserRank(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rank)
	assert.Equal(t, 4, r.TotalUsers)
	assert.Equal(t, 50.0, r.Percentile)

	limited, err := svc.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetLeaderboard_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{}
	svc := NewLeaderboardService(newMemStore(), cache, nil, nil)

	_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "a", TotalXP: 10, Level: 1})
	require.NoError(t, err)

	first, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	require.Len(t, first, 1)

	cache.Set(ctx, cache.gen, 100, []domain.LeaderboardEntry{{Rank: 1, UserID: "cached"}})
	cached, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "cached", cached[0].UserID)

	_, err = svc.SyncXP(ctx, domain.SyncRequest{UserID: "b", TotalXP: 20, Level: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	fresh, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "b", fresh[0].UserID)
}

func TestGetUserRank_NotFound(t *testing.T) {
	svc := NewLeaderboardService(newMemStore(), nil, nil, nil)

	_, err := svc.GetUserRank(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 100, NormalizeLimit(0))
	assert.Equal(t, 100, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 500, NormalizeLimit(500))
	assert.Equal(t, 500, NormalizeLimit(10000))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 100.0, Percentile(1, 4))
	assert.Equal(t, 25.0, Percentile(4, 4))
	assert.Equal(t, 66.7, Percentile(2, 3))
	assert.Equal(t, 0.0, Percentile(1, 0))
}

func TestAddXP_AntiCheat(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	hist := &recordingHistory{}
	svc := NewLeaderboardService(store, nil, nil, hist)

	_, err := svc.AddXP(ctx, "u", 150, domain.XPSourceQuizCompleted, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidXPAmount)
	_, err = store.GetByUserID(ctx, "u")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, hist.records)

	award, err := svc.AddXP(ctx, "u", 90, domain.XPSourceQuizCompleted, map[string]interface{}{"quiz_id": 7})
	require.NoError(t, err)
	assert.Equal(t, &domain.XPAward{NewTotalXP: 90, NewLevel: 1, LevelUp: false, XPEarned: 90}, award)

	row, err := store.GetByUserID(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(90), row.TotalXP)

	require.Len(t, hist.records, 1)
	assert.Equal(t, domain.XPSourceQuizCompleted, hist.records[0].Source)
	assert.Equal(t, int64(90), hist.records[0].Amount)
}

func TestAddXP_LevelUp(t *testing.T) {
	ctx := context.Background()
	svc := NewLeaderboardService(newMemStore(), nil, nil, nil)

	_, err := svc.AddXP(ctx, "u", 90, domain.XPSourceQuizCompleted, nil)
	require.NoError(t, err)

	award, err := svc.AddXP(ctx, "u", 20, domain.XPSourceDailyLogin, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(110), award.NewTotalXP)
	assert.Equal(t, 2, award.NewLevel)
	assert.True(t, award.LevelUp)
}

func TestAddXP_UnknownSourceUsesDefaultCap(t *testing.T) {
	ctx := context.Background()
	svc := NewLeaderboardService(newMemStore(), nil, nil, nil)

	_, err := svc.AddXP(ctx, "u", 50, "story_read", nil)
	require.NoError(t, err)

	_, err = svc.AddXP(ctx, "u", 51, "story_read", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidXPAmount)
}

type failingStore struct{ memStore }

func (f *failingStore) AddXP(ctx context.Context, userID string, amount int64) (int, *domain.LeaderboardRow, error) {
	return 0, nil, errors.New("db down")
}

func TestAddXP_StoreError(t *testing.T) {
	hist := &recordingHistory{}
	svc := NewLeaderboardService(&failingStore{}, nil, nil, hist)

	_, err := svc.AddXP(context.Background(), "u", 5, domain.XPSourceWordFavorited, nil)
	assert.Error(t, err)
	assert.Empty(t, hist.records)
}

func TestGetLeaderboard_WriteDuringMissDoesNotCacheStalePage(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{}
	store := &listHookStore{memStore: newMemStore()}
	svc := NewLeaderboardService(store, cache, nil, nil)

	_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "old", TotalXP: 10, Level: 1})
	require.NoError(t, err)

	store.onList = func() {
		_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "new", TotalXP: 500, Level: 6})
		require.NoError(t, err)
	}
	stale, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	fresh, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "new", fresh[0].UserID)

	rank, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "old", TotalXP: 10, Level: 1})
	require.NoError(t, err)
	page, err := svc.GetLeaderboard(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, rank, page[1].Rank)
}

func TestOverlongFieldsRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewLeaderboardService(store, nil, nil, nil)

	_, err := svc.SyncXP(ctx, domain.SyncRequest{UserID: "u1", Username: strings.Repeat("n", 101), TotalXP: 1, Level: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SyncXP(ctx, domain.SyncRequest{UserID: strings.Repeat("u", 129), TotalXP: 1, Level: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddXP(ctx, "u1", 5, domain.XPSource(strings.Repeat("s", 51)), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.rows, "rejected calls must not touch the store")

	_, err = svc.SyncXP(ctx, domain.SyncRequest{UserID: "u1", Username: strings.Repeat("n", 100), TotalXP: 1, Level: 1})
	assert.NoError(t, err)
}
