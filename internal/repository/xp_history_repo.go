package repository

import (
	"context"
	"encoding/json"

	"lingo_xp/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// XPHistoryRepository handles the append-only xp_history log
type XPHistoryRepository struct {
	db *pgxpool.Pool
}

// NewXPHistoryRepository creates a new xp history repository
func NewXPHistoryRepository(db *pgxpool.Pool) *XPHistoryRepository {
	return &XPHistoryRepository{db: db}
}

// Create appends a record. Re-delivering the same event id is a no-op.
func (r *XPHistoryRepository) Create(ctx context.Context, rec *domain.XPHistoryRecord) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil || rec.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO xp_history (event_id, user_id, xp_amount, source, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, rec.EventID, rec.UserID, rec.Amount, rec.Source, metadataJSON, rec.CreatedAt)
	return err
}
