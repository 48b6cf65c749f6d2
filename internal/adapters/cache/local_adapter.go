package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
)

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// LocalAdapter is an in-process CacheProvider backed by a size-bounded LRU.
// The LRU enforces a ceiling TTL; per-entry expirations shorter than that are
// checked on read.
type LocalAdapter struct {
	lru *expirable.LRU[string, localEntry]
	now func() time.Time
}

// NewLocalAdapter creates an LRU cache holding at most size entries for at most maxTTL
func NewLocalAdapter(size int, maxTTL time.Duration) *LocalAdapter {
	if size <= 0 {
		size = 1024
	}
	return &LocalAdapter{
		lru: expirable.NewLRU[string, localEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

var _ providers.CacheProvider = (*LocalAdapter)(nil)

// Get retrieves a value from cache
func (a *LocalAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.lru.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.lru.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value in cache with expiration
func (a *LocalAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := localEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.lru.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *LocalAdapter) Delete(ctx context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *LocalAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}
