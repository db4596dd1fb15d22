package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked Lock retries a file or database lock.
const lockRetryDelay = 50 * time.Millisecond

// userLocks is an in-process exclusive lock per user id.
type userLocks struct {
	mu    sync.Mutex
	slots map[int]chan struct{}
}

func (l *userLocks) lock(ctx context.Context, userID int) (func(), error) {
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[int]chan struct{})
	}
	slot, ok := l.slots[userID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[userID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lockFile takes an exclusive flock on path, visible to every process.
func lockFile(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("file lock %s not acquired", path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// connLock holds a session-level database lock on a dedicated connection.
// acquire must answer immediately with true or false; it is retried until it
// answers true or ctx ends. release runs with the same args on the same
// connection, which is then returned to the pool.
func connLock(ctx context.Context, db *sql.DB, acquire, release string, args ...any) (func(), error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	for {
		var got sql.NullBool
		if err := conn.QueryRowContext(ctx, acquire, args...).Scan(&got); err != nil {
			_ = conn.Close()
			return nil, err
		}
		if got.Valid && got.Bool {
			break
		}
		t := time.NewTimer(lockRetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = conn.Close()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			var ignored sql.NullBool
			_ = conn.QueryRowContext(context.Background(), release, args...).Scan(&ignored)
			_ = conn.Close()
		})
	}, nil
}
