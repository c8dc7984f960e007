package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"lingo_xp/internal/db"
	"lingo_xp/internal/domain"
	"lingo_xp/internal/leveling"
	"lingo_xp/internal/repository"
	"lingo_xp/internal/service"
)

func main() {
	userID := flag.String("user", "test-user-1", "user id (token subject)")
	username := flag.String("username", "testuser", "display name")
	xp := flag.Int64("xp", 0, "total xp to seed on the leaderboard")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	pool := db.ConnectAndMigrate(dsn)
	defer pool.Close()

	repo := repository.NewLeaderboardRepository(pool)
	ctx := context.Background()

	rank, err := repo.SyncAndRank(ctx, domain.SyncRequest{
		UserID:   *userID,
		Username: *username,
		TotalXP:  *xp,
		Level:    leveling.CalculateLevel(*xp),
	})
	if err != nil {
		log.Fatalf("seed leaderboard row failed: %v", err)
	}

	row, err := repo.GetByUserID(ctx, *userID)
	if err != nil {
		log.Fatalf("get by user id failed: %v", err)
	}
	log.Printf("user=%s username=%s total_xp=%d level=%d rank=%d\n", row.UserID, row.Username, row.TotalXP, row.Level, rank)

	service.InitJWT(secret)
	token, err := service.GenerateJWT(row.UserID, *ttl)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
