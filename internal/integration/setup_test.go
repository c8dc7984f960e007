package integration

import (
	"context"
	"os"
	"testing"

	"lingo_xp/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// openDB connects to DATABASE_URL, applies migrations and empties the
// gamification tables. Tests are skipped when DATABASE_URL is not set.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, `TRUNCATE user_leaderboard, xp_history RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}
