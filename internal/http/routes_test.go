package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingo_xp/internal/config"
	"lingo_xp/internal/domain"
	"lingo_xp/internal/http/middleware"
	"lingo_xp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type emptyService struct{}

func (emptyService) SyncXP(context.Context, domain.SyncRequest) (int, error) { return 1, nil }
func (emptyService) GetLeaderboard(context.Context, int) ([]domain.LeaderboardEntry, error) {
	return []domain.LeaderboardEntry{}, nil
}
func (emptyService) GetUserRank(context.Context, string) (*domain.UserRank, error) {
	return nil, domain.ErrNotFound
}
func (emptyService) AddXP(context.Context, string, int64, domain.XPSource, map[string]interface{}) (*domain.XPAward, error) {
	return &domain.XPAward{}, nil
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("routes-secret")
	middleware.InitRedisRateLimiter(nil)

	r := gin.New()
	RegisterRoutes(r, &config.Config{
		AppVersion:    "test",
		APIRateLimit:  100,
		APIRateWindow: time.Minute,
		XPRateLimit:   100,
		XPRateWindow:  time.Minute,
	}, Deps{Service: emptyService{}, DB: okPinger{}})

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/gamification/leaderboard", http.StatusOK},
		{http.MethodGet, "/api/v1/gamification/leaderboard", http.StatusOK},
		{http.MethodGet, "/api/v1/gamification/user-rank/nobody", http.StatusNotFound},
		{http.MethodPost, "/gamification/sync-xp", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/gamification/add-xp", http.StatusUnauthorized},
		{http.MethodGet, "/ws/leaderboard", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
