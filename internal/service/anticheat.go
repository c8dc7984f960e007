package service

import (
	"fmt"

	"lingo_xp/internal/domain"
)

// DefaultXPCap applies to sources missing from xpCaps
const DefaultXPCap int64 = 50

// xpCaps is the most XP a single action of each source may claim
var xpCaps = map[domain.XPSource]int64{
	domain.XPSourceQuizCompleted:    100,
	domain.XPSourcePDFOpened:        10,
	domain.XPSourceWordFavorited:    5,
	domain.XPSourceFlashcardFlipped: 3,
	domain.XPSourceDailyLogin:       20,
}

// XPCap returns the per-action cap for source
func XPCap(source domain.XPSource) int64 {
	if c, ok := xpCaps[source]; ok {
		return c
	}
	return DefaultXPCap
}

// CheckXPAmount rejects non-positive amounts and amounts above the source cap
func CheckXPAmount(source domain.XPSource, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidXPAmount)
	}
	if limit := XPCap(source); amount > limit {
		return fmt.Errorf("%w: %d exceeds cap %d for %s", domain.ErrInvalidXPAmount, amount, limit, source)
	}
	return nil
}
