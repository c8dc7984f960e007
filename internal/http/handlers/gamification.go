package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/dto"
	"lingo_xp/internal/http/middleware"
	"lingo_xp/internal/logger"

	"github.com/gin-gonic/gin"
)

// SyncXP stores the caller's local XP snapshot and returns their rank
func (h *Handler) SyncXP(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.SyncXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: total_xp and current_level are required")
		return
	}

	rank, err := h.Service.SyncXP(c.Request.Context(), domain.SyncRequest{
		UserID:               userID,
		Username:             req.Username,
		TotalXP:              *req.TotalXP,
		Level:                *req.CurrentLevel,
		AchievementsUnlocked: req.AchievementsUnlocked,
	})
	if err != nil {
		h.handleError(c, err, "failed to sync xp")
		return
	}

	c.JSON(http.StatusOK, dto.SyncXPResponse{
		Success:         true,
		Message:         "XP synced successfully",
		LeaderboardRank: rank,
	})
}

// GetLeaderboard returns the top users by XP
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	entries, err := h.Service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err, "failed to get leaderboard")
		return
	}

	c.JSON(http.StatusOK, dto.LeaderboardResponse{Success: true, Data: entries})
}

// GetUserRank returns a user's rank and percentile
func (h *Handler) GetUserRank(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		fail(c, http.StatusBadRequest, "user_id is required")
		return
	}

	r, err := h.Service.GetUserRank(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "failed to get user rank")
		return
	}

	achievements := r.Row.AchievementsUnlocked
	if achievements == nil {
		achievements = []string{}
	}
	c.JSON(http.StatusOK, dto.UserRankResponse{
		Success:              true,
		Rank:                 r.Rank,
		TotalUsers:           r.TotalUsers,
		Percentile:           r.Percentile,
		Username:             r.Row.Username,
		TotalXP:              r.Row.TotalXP,
		Level:                r.Row.Level,
		AchievementsUnlocked: achievements,
		AchievementCount:     len(achievements),
	})
}

// AddXP credits XP for a single action, subject to the per-source cap
func (h *Handler) AddXP(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.AddXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: xp_amount and source are required")
		return
	}

	award, err := h.Service.AddXP(c.Request.Context(), userID, *req.XPAmount, domain.XPSource(req.Source), req.Metadata)
	if err != nil {
		h.handleError(c, err, "failed to add xp")
		return
	}

	c.JSON(http.StatusOK, dto.AddXPResponse{
		Success:    true,
		NewTotalXP: award.NewTotalXP,
		NewLevel:   award.NewLevel,
		LevelUp:    award.LevelUp,
		XPEarned:   award.XPEarned,
	})
}

func (h *Handler) handleError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidXPAmount):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error(), Code: dto.CodeInvalidXPAmount})
	case errors.Is(err, domain.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "unauthorized")
	default:
		logger.WithContext(c.Request.Context()).Error(msg, "error", err, "path", c.FullPath())
		fail(c, http.StatusInternalServerError, msg)
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.ErrorResponse{Success: false, Message: msg})
}
