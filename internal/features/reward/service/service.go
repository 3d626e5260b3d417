package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Allocator grants batches of never-issued reward messages to users.
type Allocator struct {
	ledger   Reserver
	users    HistoryRecorder
	delivery Delivery
}

func NewAllocator(l Reserver, users HistoryRecorder, d Delivery) *Allocator {
	return &Allocator{ledger: l, users: users, delivery: d}
}

// Grant reserves count messages, delivers them in order and records them
// in the user's history. It returns false, with nothing recorded, when
// the stock cannot cover the whole batch. A failed delivery is logged and
// the batch continues; the text is still recorded so /reward shows it.
func (a *Allocator) Grant(ctx context.Context, userID string, count int) (bool, error) {
	entries, ok, err := a.ledger.Reserve(ctx, count)
	if err != nil {
		return false, fmt.Errorf("reserve %d for %s: %w", count, userID, err)
	}
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("recipient_id", userID).Int("count", count).Msg("Reward stock exhausted")
		return false, nil
	}

	texts := make([]string, 0, len(entries))
	failed := 0
	for _, e := range entries {
		texts = append(texts, e.Text)
		if a.delivery == nil {
			continue
		}
		if err := a.delivery.DeliverReward(ctx, userID, e.Text); err != nil {
			failed++
			zerolog.Ctx(ctx).Error().Err(err).Str("recipient_id", userID).Int("index", e.Index).Msg("Failed to deliver reward")
		}
	}

	if _, err := a.users.RecordRewards(ctx, userID, texts); err != nil {
		return false, fmt.Errorf("record rewards for %s: %w", userID, err)
	}

	log := zerolog.Ctx(ctx)
	evt := log.Info()
	if failed > 0 {
		evt = log.Warn()
	}
	logBatch(evt, userID, len(texts), failed)
	return true, nil
}

func logBatch(evt *zerolog.Event, userID string, granted, failed int) {
	evt.Str("recipient_id", userID).Int("granted", granted).Int("delivery_failed", failed).Msg("Reward batch granted")
}
