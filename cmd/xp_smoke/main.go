// xp_smoke drives a running server end to end: it earns XP in a local ledger,
// syncs it, reports a capped award and watches the live leaderboard feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lingo_xp/internal/achievement"
	"lingo_xp/internal/domain"
	"lingo_xp/internal/ledger"
	"lingo_xp/internal/service"
	"lingo_xp/internal/syncclient"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	userID := flag.String("user", "smoke-user", "user id")
	state := flag.String("state", filepath.Join(os.TempDir(), "xp_smoke.json"), "local ledger file")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	service.InitJWT(jwtSecret)
	token, err := service.GenerateJWT(*userID, time.Hour)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("ws://%s/ws/leaderboard", *addr), nil)
	if err != nil {
		log.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.Printf("feed: %s", msg)
		}
	}()

	l := ledger.New(ledger.NewFileStore(*state))
	updates, stop := l.Subscribe(8)
	defer stop()
	go func() {
		for s := range updates {
			log.Printf("ledger: xp=%d level=%d achievements=%s", s.TotalXP, s.CurrentLevel, strings.Join(s.AchievementsUnlocked, ","))
		}
	}()

	if _, err := l.IncrementCounter(ctx, achievement.CounterQuizzesCompleted, 1); err != nil {
		log.Fatalf("count quiz: %v", err)
	}
	if _, err := l.AddXP(ctx, 60, string(domain.XPSourceQuizCompleted)); err != nil {
		log.Fatalf("add xp: %v", err)
	}

	client := syncclient.New(fmt.Sprintf("http://%s/api/v1", *addr), l, syncclient.StaticTokenSource{
		UserID:   *userID,
		Token:    token,
		Username: "smoke",
	})

	rank, err := client.Sync(ctx)
	if err != nil {
		log.Fatalf("sync: %v", err)
	}
	log.Printf("synced, rank=%d", rank)

	award, err := client.ReportXP(ctx, 10, domain.XPSourceDailyLogin, nil)
	if err != nil {
		log.Fatalf("report xp: %v", err)
	}
	log.Printf("award: total=%d level=%d level_up=%v", award.NewTotalXP, award.NewLevel, award.LevelUp)

	if _, err := client.ReportXP(ctx, 5000, domain.XPSourceQuizCompleted, nil); err == nil {
		log.Fatal("expected capped award to be rejected")
	} else {
		log.Printf("capped award rejected: %v", err)
	}

	me, err := client.UserRank(ctx, *userID)
	if err != nil {
		log.Fatalf("user rank: %v", err)
	}
	log.Printf("rank=%d of %d (percentile %.1f)", me.Rank, me.TotalUsers, me.Percentile)

	// give the feed a moment to print
	time.Sleep(500 * time.Millisecond)
	log.Println("smoke test finished")
}
