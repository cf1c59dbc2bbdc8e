package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterRetry(t *testing.T) {
	calls := 0
	var notified []int
	err := Do(context.Background(), Fixed(2, time.Millisecond), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		notified = append(notified, attempt)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(notified) != 1 || notified[0] != 1 {
		t.Errorf("notified = %v, want [1]", notified)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	want := errors.New("still failing")
	calls := 0
	err := Do(context.Background(), Fixed(3, 0), func(context.Context) error {
		calls++
		return want
	}, nil)
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return errors.New("x")
	}, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoPermanentStopsImmediately(t *testing.T) {
	base := errors.New("not found")
	calls := 0
	err := Do(context.Background(), Fixed(5, 0), func(context.Context) error {
		calls++
		return Permanent(base)
	}, nil)
	if !errors.Is(err, base) {
		t.Fatalf("err = %v, want %v", err, base)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Fixed(5, time.Hour), func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExponentialPolicyRetries(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond, Exponential: true, MaxDelay: 2 * time.Millisecond}
	start := time.Now()
	_ = Do(context.Background(), p, func(context.Context) error {
		calls++
		return errors.New("fail")
	}, nil)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("elapsed %v, delays not bounded", elapsed)
	}
}
