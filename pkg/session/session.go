// Package session keeps each browser session's workflow state between
// requests and serialises the actions of one session on one resource.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrLocked = errors.New("session is busy with another action")

// Store persists encoded workflow state per session and resource.
type Store interface {
	Load(ctx context.Context, sessionID, resource string) (data []byte, found bool, err error)
	Save(ctx context.Context, sessionID, resource string, data []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// Locker runs fn while holding the lock of one session resource. It returns
// ErrLocked without calling fn when another holder has it.
type Locker interface {
	WithLock(ctx context.Context, sessionID, resource string, fn func(ctx context.Context) error) error
}

func stateKey(sessionID string) string {
	return "console:session:" + sessionID
}

func lockKey(sessionID, resource string) string {
	return "lock:session:" + sessionID + ":" + resource
}

// boundedContext limits fn to the lock lifetime so a hung call cannot outlive its lock.
func boundedContext(ctx context.Context, ttl time.Duration) (context.Context, context.CancelFunc) {
	if ttl <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, ttl)
}
