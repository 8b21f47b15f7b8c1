package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
)

func testLocker(t *testing.T, l Locker) {
	t.Helper()
	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000000")

	release, err := l.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire() returned error: %v", err)
	}

	if _, err := l.Acquire(ctx, key); !errors.Is(err, apperrors.ErrPipelineBusy) {
		t.Errorf("Expected ErrPipelineBusy while held, got %v", err)
	}

	other, err := l.Acquire(ctx, key+"-other")
	if err != nil {
		t.Errorf("Expected independent key to be free, got %v", err)
	} else {
		other()
	}

	release()
	release()

	again, err := l.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Expected lock to be free after release, got %v", err)
	}
	again()
}

func TestLocalLocker(t *testing.T) {
	testLocker(t, NewLocalLocker())
}

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisLocker(mr.Addr(), "", 0, ttl, nil)
	if err != nil {
		t.Fatalf("NewRedisLocker() returned error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, mr
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		l, _ := newRedisLocker(t, time.Minute)
		testLocker(t, l)
	})

	t.Run("lock carries the ttl", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)

		release, err := l.Acquire(ctx, "world")
		if err != nil {
			t.Fatalf("Acquire() returned error: %v", err)
		}
		defer release()

		if ttl := mr.TTL(keyPrefix + "world"); ttl != time.Minute {
			t.Errorf("Expected ttl of 1m, got %s", ttl)
		}
	})

	t.Run("expired lock can be taken and the stale release keeps it", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)

		stale, err := l.Acquire(ctx, "vn")
		if err != nil {
			t.Fatalf("Acquire() returned error: %v", err)
		}
		mr.FastForward(2 * time.Minute)

		current, err := l.Acquire(ctx, "vn")
		if err != nil {
			t.Fatalf("Expected expired lock to be free, got %v", err)
		}

		stale()
		if !mr.Exists(keyPrefix + "vn") {
			t.Fatal("Expected the stale release to leave the new holder's lock in place")
		}
		if _, err := l.Acquire(ctx, "vn"); !errors.Is(err, apperrors.ErrPipelineBusy) {
			t.Errorf("Expected ErrPipelineBusy after stale release, got %v", err)
		}

		current()
		if mr.Exists(keyPrefix + "vn") {
			t.Error("Expected the holder's release to delete the lock")
		}
	})

	t.Run("server gone", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)
		mr.Close()

		if _, err := l.Acquire(ctx, "daily"); err == nil || errors.Is(err, apperrors.ErrPipelineBusy) {
			t.Errorf("Expected a connection error, got %v", err)
		}
		if err := l.Ping(ctx); err == nil {
			t.Error("Expected Ping to fail")
		}
	})

	t.Run("unreachable address", func(t *testing.T) {
		if _, err := NewRedisLocker("127.0.0.1:1", "", 0, time.Minute, nil); err == nil {
			t.Error("Expected NewRedisLocker to fail")
		}
	})
}
