// Package storage keeps the bot's durable state as whole documents.
//
// Every mutation is load, modify in memory, save: there is no partial
// update and no locking across processes, so a single bot process is
// assumed.
package storage

import (
	"bytes"
	"context"
	"encoding/json"

	apperrors "reward-bot/internal/common/errors"
)

// Document names.
const (
	DocUsers    = "users"
	DocUsed     = "used"
	DocPending  = "pending"
	DocMessages = "messages"
)

// Store is a single-writer key-document store.
type Store interface {
	// Load returns the raw document. A missing document is a NOT_FOUND error.
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	// Init creates each document from defaults unless it already exists.
	Init(ctx context.Context, defaults map[string][]byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Defaults is the initial content of every document.
func Defaults() map[string][]byte {
	return map[string][]byte{
		DocUsers:    []byte("{}"),
		DocUsed:     []byte("[]"),
		DocPending:  []byte("{}"),
		DocMessages: []byte(""),
	}
}

// LoadJSON decodes a document into dest. Missing or empty documents leave
// dest untouched.
func LoadJSON(ctx context.Context, s Store, name string, dest any) error {
	raw, err := s.Load(ctx, name)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return nil
		}
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.NewStorageError("decode "+name, err)
	}
	return nil
}

func SaveJSON(ctx context.Context, s Store, name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return apperrors.NewStorageError("encode "+name, err)
	}
	return s.Save(ctx, name, raw)
}

// LoadText returns a text document, or "" when it does not exist.
func LoadText(ctx context.Context, s Store, name string) (string, error) {
	raw, err := s.Load(ctx, name)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

func SaveText(ctx context.Context, s Store, name, text string) error {
	return s.Save(ctx, name, []byte(text))
}
