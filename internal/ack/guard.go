package ack

import (
	"context"
	"sync"
	"time"
)

// Guard keeps at most one broadcast per command kind in flight.
type Guard interface {
	// Acquire returns ErrBusy when kind is already held. ttl bounds how long
	// a holder that never releases can block others.
	Acquire(ctx context.Context, kind string, ttl time.Duration) (release func(), err error)
}

// LocalGuard is an in-process Guard.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: map[string]time.Time{}}
}

func (g *LocalGuard) Acquire(_ context.Context, kind string, ttl time.Duration) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if until, ok := g.held[kind]; ok && now.Before(until) {
		return nil, ErrBusy
	}
	until := now.Add(ttl)
	g.held[kind] = until

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.held[kind].Equal(until) {
				delete(g.held, kind)
			}
		})
	}, nil
}
