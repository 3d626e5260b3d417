// Package ledger tracks which corpus entries have already been issued.
package ledger

import (
	"context"
	"sort"
	"sync"

	apperrors "reward-bot/internal/common/errors"
	"reward-bot/internal/features/reward/corpus"
	"reward-bot/internal/platform/storage"
)

// Entry is one reserved corpus message.
type Entry struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Stock struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Ledger hands out corpus indices at most once until Reset.
type Ledger struct {
	mu     sync.Mutex
	store  storage.Store
	corpus *corpus.Store
}

func New(s storage.Store, c *corpus.Store) *Ledger {
	return &Ledger{store: s, corpus: c}
}

func (l *Ledger) loadUsed(ctx context.Context) (map[int]struct{}, error) {
	var list []int
	if err := storage.LoadJSON(ctx, l.store, storage.DocUsed, &list); err != nil {
		return nil, err
	}
	used := make(map[int]struct{}, len(list))
	for _, i := range list {
		used[i] = struct{}{}
	}
	return used, nil
}

func (l *Ledger) saveUsed(ctx context.Context, used map[int]struct{}) error {
	list := make([]int, 0, len(used))
	for i := range used {
		list = append(list, i)
	}
	sort.Ints(list)
	return storage.SaveJSON(ctx, l.store, storage.DocUsed, list)
}

func available(messages []string, used map[int]struct{}) []Entry {
	out := make([]Entry, 0, len(messages))
	for i, text := range messages {
		if _, ok := used[i]; ok {
			continue
		}
		out = append(out, Entry{Index: i, Text: text})
	}
	return out
}

// Reserve claims the n earliest unused entries. When fewer than n remain
// it returns ok=false and leaves the ledger untouched.
func (l *Ledger) Reserve(ctx context.Context, n int) ([]Entry, bool, error) {
	if n < 0 {
		return nil, false, apperrors.NewValidationError("count", "must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.corpus.Parse(ctx)
	if err != nil {
		return nil, false, err
	}
	used, err := l.loadUsed(ctx)
	if err != nil {
		return nil, false, err
	}

	free := available(messages, used)
	if len(free) < n {
		return nil, false, nil
	}

	selected := free[:n]
	if n == 0 {
		return selected, true, nil
	}
	for _, e := range selected {
		used[e.Index] = struct{}{}
	}
	if err := l.saveUsed(ctx, used); err != nil {
		return nil, false, err
	}
	return selected, true, nil
}

// Reset clears the used set; every entry becomes eligible again.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return storage.SaveJSON(ctx, l.store, storage.DocUsed, []int{})
}

// Available lists the unused entries in corpus order.
func (l *Ledger) Available(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.corpus.Parse(ctx)
	if err != nil {
		return nil, err
	}
	used, err := l.loadUsed(ctx)
	if err != nil {
		return nil, err
	}
	return available(messages, used), nil
}

// Used returns the issued indices in ascending order.
func (l *Ledger) Used(ctx context.Context) ([]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	used, err := l.loadUsed(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]int, 0, len(used))
	for i := range used {
		list = append(list, i)
	}
	sort.Ints(list)
	return list, nil
}

func (l *Ledger) Stock(ctx context.Context) (Stock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.corpus.Parse(ctx)
	if err != nil {
		return Stock{}, err
	}
	used, err := l.loadUsed(ctx)
	if err != nil {
		return Stock{}, err
	}
	return Stock{
		Total:     len(messages),
		Used:      len(used),
		Remaining: len(available(messages, used)),
	}, nil
}
