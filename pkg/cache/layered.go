package cache

import (
	"context"
	"time"
)

// Layered reads through a fast local cache before the shared backing cache
// and back-fills the local layer on a backing hit.
type Layered struct {
	local    Service
	backing  Service
	localTTL time.Duration
}

func NewLayered(local, backing Service, localTTL time.Duration) *Layered {
	return &Layered{local: local, backing: backing, localTTL: localTTL}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, ok, err := l.local.Get(ctx, key); err == nil && ok {
		return val, true, nil
	}
	val, ok, err := l.backing.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = l.local.Set(ctx, key, val, l.localTTL)
	return val, true, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	localTTL := l.localTTL
	if ttl < localTTL {
		localTTL = ttl
	}
	_ = l.local.Set(ctx, key, value, localTTL)
	return l.backing.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	_ = l.local.Delete(ctx, key)
	return l.backing.Delete(ctx, key)
}

func (l *Layered) Close() error {
	_ = l.local.Close()
	return l.backing.Close()
}
