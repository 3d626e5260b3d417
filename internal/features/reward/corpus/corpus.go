// Package corpus holds the append-only sequence of reward messages.
//
// The corpus is one text blob; entries are the trimmed, non-empty
// segments between separator tokens. An entry's index is its position in
// that sequence, which stays stable because uploads only ever append.
package corpus

import (
	"context"
	"strings"

	"reward-bot/internal/platform/storage"
)

type Store struct {
	store     storage.Store
	separator string
}

func NewStore(s storage.Store, separator string) *Store {
	return &Store{store: s, separator: separator}
}

func (c *Store) Separator() string { return c.separator }

// Split breaks raw into trimmed, non-empty entries, preserving order.
func Split(raw, separator string) []string {
	parts := strings.Split(raw, separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Join appends blob to existing using the separator. An empty existing
// corpus is replaced by blob as-is.
func Join(existing, blob, separator string) string {
	if strings.TrimSpace(existing) == "" {
		return blob
	}
	return strings.TrimSpace(existing) + "\n" + separator + "\n" + strings.TrimSpace(blob)
}

func (c *Store) Raw(ctx context.Context) (string, error) {
	return storage.LoadText(ctx, c.store, storage.DocMessages)
}

func (c *Store) Append(ctx context.Context, blob string) error {
	existing, err := c.Raw(ctx)
	if err != nil {
		return err
	}
	return storage.SaveText(ctx, c.store, storage.DocMessages, Join(existing, blob, c.separator))
}

func (c *Store) Parse(ctx context.Context) ([]string, error) {
	raw, err := c.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return Split(raw, c.separator), nil
}
