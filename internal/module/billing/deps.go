package billing

import (
	"context"

	"github.com/loopbill/server/internal/infra/events"
)

// EventPublisher is the sink for domain events. The service depends on this
// interface rather than the concrete bus so emission stays decoupled from
// dispatch.
type EventPublisher interface {
	Publish(event events.Event)
}

// Locker serializes subscription mutations per billable. Acquire returns a
// release function, or lock.ErrNotAcquired when another mutation is running.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// noopLocker is used when no distributed lock is configured (tests, single
// writer deployments).
type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// NoopLocker returns a Locker that always grants the lock.
func NoopLocker() Locker {
	return noopLocker{}
}
