// Package kv persists JSON-encoded values under string keys.
package kv

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var ErrStorage = errors.New("storage error")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is an opaque key-value store. Keys returns matching keys in
// lexicographic order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Load decodes the value stored under key into dest. On a miss dest is set to
// fallback and nil is returned. On a read or decode failure dest is also set
// to fallback, and the returned error wraps ErrStorage for the caller to log.
func Load[T any](ctx context.Context, store Store, key string, dest *T, fallback T) error {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		*dest = fallback
		return fmt.Errorf("%w: read %s: %v", ErrStorage, key, err)
	}
	if !ok || len(raw) == 0 {
		*dest = fallback
		return nil
	}
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		*dest = fallback
		return fmt.Errorf("%w: decode %s: %v", ErrStorage, key, err)
	}
	*dest = decoded
	return nil
}

func Save(ctx context.Context, store Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorage, key, err)
	}
	if err := store.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, key, err)
	}
	return nil
}

func Remove(ctx context.Context, store Store, key string) error {
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStorage, key, err)
	}
	return nil
}
