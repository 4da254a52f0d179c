package keylock

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "proj-a")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	if len(l.slots) != 0 {
		t.Errorf("slots leaked: %d", len(l.slots))
	}
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockA, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("distinct key blocked: %v", err)
	}
	unlockB()
}

func TestLockHonoursContext(t *testing.T) {
	l := New()
	unlock, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock on held key = %v, want deadline exceeded", err)
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	again()
}

func TestFileLockAcrossLockers(t *testing.T) {
	if runtime.GOOS == "js" || runtime.GOOS == "wasip1" || runtime.GOOS == "plan9" {
		t.Skip("no advisory file locks on this platform")
	}
	dir := t.TempDir()
	first := NewWithDir(dir)
	second := NewWithDir(dir)

	unlock, err := first.Lock(context.Background(), "proj/a")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := second.Lock(ctx, "proj/a"); err == nil {
		t.Fatal("second locker acquired a key held by the first")
	}

	unlock()
	unlock2, err := second.Lock(context.Background(), "proj/a")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}

func TestFileName(t *testing.T) {
	if got := fileName("proj/../x y"); got != "proj_.._x_y.lock" {
		t.Errorf("fileName = %q", got)
	}
}
