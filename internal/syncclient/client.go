// Package syncclient pushes the local XP ledger to the gamification API and reads
// ranks back. It never retries; a failed sync leaves the ledger untouched so the
// next sync opportunity retries it.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/dto"
	"lingo_xp/internal/ledger"
	"lingo_xp/internal/logger"
)

// SyncInterval is the minimum time between two opportunistic syncs
const SyncInterval = 15 * time.Minute

var (
	ErrNotAuthenticated = domain.ErrNotAuthenticated
	ErrInvalidXPAmount  = domain.ErrInvalidXPAmount
	ErrNotFound         = domain.ErrNotFound
)

// ServerError is returned for any non-2xx response
type ServerError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, e.Message)
}

// Identity is the signed-in user as seen by the auth provider
type Identity struct {
	UserID   string
	Token    string
	Username string
}

// TokenSource yields the current identity or ErrNotAuthenticated when signed out
type TokenSource interface {
	Identity(ctx context.Context) (Identity, error)
}

// StaticTokenSource always returns the same identity
type StaticTokenSource Identity

func (s StaticTokenSource) Identity(ctx context.Context) (Identity, error) {
	if s.Token == "" {
		return Identity{}, ErrNotAuthenticated
	}
	return Identity(s), nil
}

// Client talks to the gamification API on behalf of one ledger
type Client struct {
	baseURL    string
	httpClient *http.Client
	ledger     *ledger.Ledger
	tokens     TokenSource
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a sync client. baseURL is the API root, e.g. https://host/api/v1
func New(baseURL string, l *ledger.Ledger, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		ledger: l,
		tokens: tokens,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NeedsSync reports whether state was never synced or last synced SyncInterval ago or more
func NeedsSync(s ledger.State, now time.Time) bool {
	if s.LastSyncTimestamp == 0 {
		return true
	}
	return now.Sub(time.UnixMilli(s.LastSyncTimestamp)) >= SyncInterval
}

// NeedsSync checks the ledger's last sync time against the client clock
func (c *Client) NeedsSync(ctx context.Context) (bool, error) {
	s, err := c.ledger.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return NeedsSync(s, c.now()), nil
}

// Sync pushes the current ledger snapshot and stores the returned rank
func (c *Client) Sync(ctx context.Context) (int, error) {
	id, err := c.identity(ctx)
	if err != nil {
		return 0, err
	}

	s, err := c.ledger.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}

	body := dto.SyncXPRequest{
		TotalXP:              &s.TotalXP,
		CurrentLevel:         &s.CurrentLevel,
		AchievementsUnlocked: s.AchievementsUnlocked,
		Username:             id.Username,
	}

	var resp dto.SyncXPResponse
	if err := c.do(ctx, http.MethodPost, "/gamification/sync-xp", id.Token, body, &resp); err != nil {
		logger.Warn("xp sync failed", "error", err)
		return 0, err
	}

	if _, err := c.ledger.RecordSync(ctx, resp.LeaderboardRank, c.now()); err != nil {
		return 0, err
	}
	logger.Info("xp synced", "total_xp", s.TotalXP, "level", s.CurrentLevel, "rank", resp.LeaderboardRank)
	return resp.LeaderboardRank, nil
}

// SyncIfDue is the foreground hook: it syncs only when NeedsSync holds.
// Returns whether a sync was performed.
func (c *Client) SyncIfDue(ctx context.Context) (bool, error) {
	due, err := c.NeedsSync(ctx)
	if err != nil || !due {
		return false, err
	}
	if _, err := c.Sync(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ReportXP asks the server to credit XP directly. An amount rejected by the server's
// cap yields ErrInvalidXPAmount and must not be retried as is; other 400s stay *ServerError.
func (c *Client) ReportXP(ctx context.Context, amount int64, source domain.XPSource, metadata map[string]interface{}) (*domain.XPAward, error) {
	id, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}

	body := dto.AddXPRequest{XPAmount: &amount, Source: string(source), Metadata: metadata}

	var resp dto.AddXPResponse
	if err := c.do(ctx, http.MethodPost, "/gamification/add-xp", id.Token, body, &resp); err != nil {
		var se *ServerError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest && se.Code == dto.CodeInvalidXPAmount {
			return nil, fmt.Errorf("%w: %s", ErrInvalidXPAmount, se.Message)
		}
		return nil, err
	}

	return &domain.XPAward{
		NewTotalXP: resp.NewTotalXP,
		NewLevel:   resp.NewLevel,
		LevelUp:    resp.LevelUp,
		XPEarned:   resp.XPEarned,
	}, nil
}

// Leaderboard fetches the top entries. limit <= 0 uses the server default.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	path := "/gamification/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp dto.LeaderboardResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UserRank fetches a user's rank. ErrNotFound means the user never synced.
func (c *Client) UserRank(ctx context.Context, userID string) (*dto.UserRankResponse, error) {
	var resp dto.UserRankResponse
	err := c.do(ctx, http.MethodGet, "/gamification/user-rank/"+url.PathEscape(userID), "", nil, &resp)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &resp, nil
}

func (c *Client) identity(ctx context.Context) (Identity, error) {
	if c.tokens == nil {
		return Identity{}, ErrNotAuthenticated
	}
	id, err := c.tokens.Identity(ctx)
	if err != nil {
		return Identity{}, err
	}
	if id.Token == "" {
		return Identity{}, ErrNotAuthenticated
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		var e dto.ErrorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: msg, Code: e.Code}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
