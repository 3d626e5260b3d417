package service

import (
	"context"

	"reward-bot/internal/features/user/models"
)

// Users is the part of the user registry the resolver needs.
type Users interface {
	Get(ctx context.Context, id string) (models.User, bool, error)
	IncrementReferrals(ctx context.Context, id string) (bool, error)
	SetReferredBy(ctx context.Context, id, referrerID string) (bool, error)
}

// Granter issues a reward batch.
type Granter interface {
	Grant(ctx context.Context, userID string, count int) (bool, error)
}

// Notifier tells a referrer about a completed referral and about a bonus
// that could not be paid.
type Notifier interface {
	NotifyReferral(ctx context.Context, referrerID string, bonus int) error
	NotifyStockExhausted(ctx context.Context, userID string) error
}
