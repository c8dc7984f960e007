package domain

import (
	"time"

	"github.com/google/uuid"
)

// XPSource - action that earned XP
type XPSource string

const (
	XPSourceQuizCompleted    XPSource = "quiz_completed"
	XPSourcePDFOpened        XPSource = "pdf_opened"
	XPSourceWordFavorited    XPSource = "word_favorited"
	XPSourceFlashcardFlipped XPSource = "flashcard_flipped"
	XPSourceDailyLogin       XPSource = "daily_login"
	XPSourceAchievement      XPSource = "achievement"
)

// XPHistoryRecord is an append-only audit entry for every accepted XP award
type XPHistoryRecord struct {
	ID        int64                  `db:"id" json:"id"`
	EventID   uuid.UUID              `db:"event_id" json:"event_id"`
	UserID    string                 `db:"user_id" json:"user_id"`
	Amount    int64                  `db:"xp_amount" json:"xp_amount"`
	Source    XPSource               `db:"source" json:"source"`
	Metadata  map[string]interface{} `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
