package service

import (
	"context"

	"reward-bot/internal/features/reward/ledger"
)

// Reserver hands out unused corpus entries.
type Reserver interface {
	Reserve(ctx context.Context, n int) ([]ledger.Entry, bool, error)
}

// HistoryRecorder appends issued texts to a user's record.
type HistoryRecorder interface {
	RecordRewards(ctx context.Context, id string, msgs []string) (bool, error)
}

// Delivery sends one reward text to a user.
type Delivery interface {
	DeliverReward(ctx context.Context, userID, text string) error
}
