package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"reward-bot/internal/platform/storage"
)

// Outcome describes how a pending referral was closed.
type Outcome string

const (
	OutcomeNone            Outcome = "none"
	OutcomeSelf            Outcome = "self"
	OutcomeMissingReferrer Outcome = "missing_referrer"
	OutcomeRewarded        Outcome = "rewarded"
	OutcomeStockExhausted  Outcome = "stock_exhausted"
)

// Resolver tracks pending referrals (referee -> referrer) and pays the
// referrer once the referee registers.
type Resolver struct {
	mu       sync.Mutex
	store    storage.Store
	users    Users
	granter  Granter
	notifier Notifier
	bonus    int
}

func NewResolver(s storage.Store, users Users, g Granter, n Notifier, bonus int) *Resolver {
	return &Resolver{store: s, users: users, granter: g, notifier: n, bonus: bonus}
}

func (r *Resolver) load(ctx context.Context) (map[string]string, error) {
	pending := map[string]string{}
	if err := storage.LoadJSON(ctx, r.store, storage.DocPending, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Track records referrerID as the pending referrer of refereeID. The first
// referrer wins; later calls for the same referee are ignored.
func (r *Resolver) Track(ctx context.Context, refereeID, referrerID string) (bool, error) {
	referrerID = strings.TrimSpace(referrerID)
	if referrerID == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := pending[refereeID]; ok {
		return false, nil
	}
	pending[refereeID] = referrerID
	if err := storage.SaveJSON(ctx, r.store, storage.DocPending, pending); err != nil {
		return false, err
	}
	return true, nil
}

// Pending returns the referrer waiting on refereeID, if any.
func (r *Resolver) Pending(ctx context.Context, refereeID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.load(ctx)
	if err != nil {
		return "", false, err
	}
	ref, ok := pending[refereeID]
	return ref, ok, nil
}

// Resolve closes refereeID's pending referral. The entry is deleted
// whatever happens to the referrer, so each referral pays at most once.
func (r *Resolver) Resolve(ctx context.Context, refereeID string) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.load(ctx)
	if err != nil {
		return OutcomeNone, err
	}
	referrerID, ok := pending[refereeID]
	if !ok {
		return OutcomeNone, nil
	}

	outcome, rerr := r.reward(ctx, refereeID, referrerID)

	delete(pending, refereeID)
	if err := storage.SaveJSON(ctx, r.store, storage.DocPending, pending); err != nil {
		return outcome, err
	}
	if rerr != nil {
		zerolog.Ctx(ctx).Error().Err(rerr).
			Str("referee_id", refereeID).
			Str("referrer_id", referrerID).
			Msg("Referral reward failed, pending entry dropped")
	}

	zerolog.Ctx(ctx).Info().
		Str("referee_id", refereeID).
		Str("referrer_id", referrerID).
		Str("outcome", string(outcome)).
		Msg("Referral resolved")
	return outcome, nil
}

func (r *Resolver) reward(ctx context.Context, refereeID, referrerID string) (Outcome, error) {
	if referrerID == refereeID {
		return OutcomeSelf, nil
	}

	_, exists, err := r.users.Get(ctx, referrerID)
	if err != nil {
		return OutcomeMissingReferrer, fmt.Errorf("lookup referrer: %w", err)
	}
	if !exists {
		return OutcomeMissingReferrer, nil
	}

	if _, err := r.users.IncrementReferrals(ctx, referrerID); err != nil {
		return OutcomeMissingReferrer, fmt.Errorf("increment referrals: %w", err)
	}
	if _, err := r.users.SetReferredBy(ctx, refereeID, referrerID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("referee_id", refereeID).Msg("Failed to store referred_by")
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyReferral(ctx, referrerID, r.bonus); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("referrer_id", referrerID).Msg("Failed to notify referrer")
		}
	}

	granted, err := r.granter.Grant(ctx, referrerID, r.bonus)
	if err != nil {
		return OutcomeStockExhausted, fmt.Errorf("grant referral bonus: %w", err)
	}
	if !granted {
		if r.notifier != nil {
			if err := r.notifier.NotifyStockExhausted(ctx, referrerID); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("referrer_id", referrerID).Msg("Failed to notify referrer about stock")
			}
		}
		return OutcomeStockExhausted, nil
	}
	return OutcomeRewarded, nil
}
