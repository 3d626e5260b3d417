package repository

import (
	"context"
	"sort"
	"strings"

	"reward-bot/internal/features/user/models"
	"reward-bot/internal/platform/storage"
)

// Registry stores user records in the "users" document. Reads return
// copies; all writes go through the methods below.
type Registry struct {
	store storage.Store
}

func NewRegistry(s storage.Store) *Registry {
	return &Registry{store: s}
}

func (r *Registry) load(ctx context.Context) (map[string]*models.User, error) {
	users := map[string]*models.User{}
	if err := storage.LoadJSON(ctx, r.store, storage.DocUsers, &users); err != nil {
		return nil, err
	}
	for id, u := range users {
		if u == nil {
			users[id] = models.NewUser("")
			continue
		}
		if u.RewardHistory == nil {
			u.RewardHistory = []string{}
		}
	}
	return users, nil
}

func (r *Registry) save(ctx context.Context, users map[string]*models.User) error {
	return storage.SaveJSON(ctx, r.store, storage.DocUsers, users)
}

// update applies fn to an existing record and saves. Missing users are a no-op.
func (r *Registry) update(ctx context.Context, id string, fn func(u *models.User)) (bool, error) {
	users, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	u, ok := users[id]
	if !ok {
		return false, nil
	}
	fn(u)
	return true, r.save(ctx, users)
}

// RegisterIfAbsent creates a default record for id unless one exists.
func (r *Registry) RegisterIfAbsent(ctx context.Context, id, username string) (bool, error) {
	users, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := users[id]; ok {
		return false, nil
	}
	users[id] = models.NewUser(strings.TrimPrefix(username, "@"))
	return true, r.save(ctx, users)
}

func (r *Registry) Get(ctx context.Context, id string) (models.User, bool, error) {
	users, err := r.load(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	u, ok := users[id]
	if !ok {
		return models.User{}, false, nil
	}
	return u.Clone(), true, nil
}

func (r *Registry) MarkJoined(ctx context.Context, id string) (bool, error) {
	return r.update(ctx, id, func(u *models.User) { u.Joined = true })
}

func (r *Registry) MarkRegistered(ctx context.Context, id string) (bool, error) {
	return r.update(ctx, id, func(u *models.User) { u.Registered = true })
}

// CompleteRegistration marks id registered and joined in one write. It
// reports false when the user was already registered or does not exist.
func (r *Registry) CompleteRegistration(ctx context.Context, id string) (bool, error) {
	users, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	u, ok := users[id]
	if !ok || u.Registered {
		return false, nil
	}
	u.Registered = true
	u.Joined = true
	return true, r.save(ctx, users)
}

// RecordRewards counts and appends msgs to the user's capped history.
func (r *Registry) RecordRewards(ctx context.Context, id string, msgs []string) (bool, error) {
	return r.update(ctx, id, func(u *models.User) {
		u.RewardTaken += len(msgs)
		u.AppendHistory(msgs...)
	})
}

func (r *Registry) IncrementReferrals(ctx context.Context, id string) (bool, error) {
	return r.update(ctx, id, func(u *models.User) { u.Referrals++ })
}

// SetReferredBy records the referrer once; later calls keep the first value.
func (r *Registry) SetReferredBy(ctx context.Context, id, referrerID string) (bool, error) {
	changed := false
	_, err := r.update(ctx, id, func(u *models.User) {
		if u.ReferredBy != nil {
			return
		}
		ref := referrerID
		u.ReferredBy = &ref
		changed = true
	})
	return changed, err
}

func (r *Registry) Count(ctx context.Context) (int, error) {
	users, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// IDs returns every known user id in a stable order.
func (r *Registry) IDs(ctx context.Context) ([]string, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
