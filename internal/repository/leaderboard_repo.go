package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/leveling"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardRepository struct {
	db *pgxpool.Pool
}

func NewLeaderboardRepository(db *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// SyncAndRank overwrites the user's row with the client snapshot and returns the rank
// of that row. Both statements run in one transaction so the rank always reflects
// the write that preceded it.
func (r *LeaderboardRepository) SyncAndRank(ctx context.Context, req domain.SyncRequest) (int, error) {
	achievements := req.AchievementsUnlocked
	if achievements == nil {
		achievements = []string{}
	}
	achievementsJSON, err := json.Marshal(achievements)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// an empty username keeps the stored one
	var totalXP int64
	err = tx.QueryRow(ctx, `
		INSERT INTO user_leaderboard (user_id, username, total_xp, level, achievements_unlocked, last_xp_sync)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE user_leaderboard.username END,
			total_xp = EXCLUDED.total_xp,
			level = EXCLUDED.level,
			achievements_unlocked = EXCLUDED.achievements_unlocked,
			last_xp_sync = now(),
			updated_at = now()
		RETURNING total_xp`,
		req.UserID, req.Username, req.TotalXP, req.Level, achievementsJSON,
	).Scan(&totalXP)
	if err != nil {
		return 0, fmt.Errorf("upsert leaderboard row: %w", err)
	}

	var rank int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM user_leaderboard WHERE total_xp > $1`, totalXP,
	).Scan(&rank); err != nil {
		return 0, fmt.Errorf("compute rank: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return rank, nil
}

// List returns the top rows ranked by XP, earlier updates first on ties
func (r *LeaderboardRepository) List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ROW_NUMBER() OVER (ORDER BY total_xp DESC, updated_at ASC, id ASC) AS rank,
		       user_id, username, total_xp, level, jsonb_array_length(achievements_unlocked)
		FROM user_leaderboard
		ORDER BY total_xp DESC, updated_at ASC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Username, &e.TotalXP, &e.Level, &e.AchievementCount); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// GetByUserID returns the user's row or domain.ErrNotFound
func (r *LeaderboardRepository) GetByUserID(ctx context.Context, userID string) (*domain.LeaderboardRow, error) {
	var row domain.LeaderboardRow
	var achievementsJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, username, total_xp, level, achievements_unlocked, last_xp_sync, created_at, updated_at
		FROM user_leaderboard
		WHERE user_id = $1`, userID,
	).Scan(&row.ID, &row.UserID, &row.Username, &row.TotalXP, &row.Level, &achievementsJSON,
		&row.LastXPSync, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(achievementsJSON, &row.AchievementsUnlocked); err != nil {
		row.AchievementsUnlocked = []string{}
	}
	return &row, nil
}

// RankOf returns count(rows with more XP)+1 and the total number of rows
func (r *LeaderboardRepository) RankOf(ctx context.Context, totalXP int64) (rank int, totalUsers int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE total_xp > $1) + 1, COUNT(*)
		FROM user_leaderboard`, totalXP,
	).Scan(&rank, &totalUsers)
	return rank, totalUsers, err
}

// AddXP credits amount to the user's row, creating it when absent.
// Returns the level before the update and the row after it.
func (r *LeaderboardRepository) AddXP(ctx context.Context, userID string, amount int64) (oldLevel int, row *domain.LeaderboardRow, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback(ctx)

	var oldTotal int64
	err = tx.QueryRow(ctx,
		`SELECT total_xp, level FROM user_leaderboard WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&oldTotal, &oldLevel)

	row = &domain.LeaderboardRow{UserID: userID}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		oldLevel = 1
		row.TotalXP = amount
		row.Level = leveling.CalculateLevel(amount)
		// a concurrent first insert turns into an increment
		err = tx.QueryRow(ctx, `
			INSERT INTO user_leaderboard (user_id, total_xp, level)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				total_xp = user_leaderboard.total_xp + EXCLUDED.total_xp,
				level = (user_leaderboard.total_xp + EXCLUDED.total_xp) / 100 + 1,
				updated_at = now()
			RETURNING total_xp, level, username`,
			userID, row.TotalXP, row.Level,
		).Scan(&row.TotalXP, &row.Level, &row.Username)
	case err != nil:
		return 0, nil, err
	default:
		row.TotalXP = oldTotal + amount
		row.Level = leveling.CalculateLevel(row.TotalXP)
		err = tx.QueryRow(ctx, `
			UPDATE user_leaderboard
			SET total_xp = $2, level = $3, updated_at = now()
			WHERE user_id = $1
			RETURNING username`,
			userID, row.TotalXP, row.Level,
		).Scan(&row.Username)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("credit xp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, err
	}
	return oldLevel, row, nil
}
