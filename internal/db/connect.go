package db

import (
	"context"
	"time"

	"lingo_xp/internal/logger"
	"lingo_xp/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dsn string) *pgxpool.Pool {
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected")
	return db
}

// ConnectAndMigrate connects and brings the schema up to date
func ConnectAndMigrate(dsn string) *pgxpool.Pool {
	pool := Connect(dsn)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, pool); err != nil {
		logger.Fatal("failed to apply migrations", "error", err)
	}
	logger.Info("migrations applied")
	return pool
}
