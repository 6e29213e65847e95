package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxAttempts int) Policy {
	return Policy{
		Initial:     time.Millisecond,
		Max:         2 * time.Millisecond,
		Multiplier:  2,
		MaxAttempts: maxAttempts,
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	var notified []int
	err := fastPolicy(0).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	}, func(attempt int, _ error, _ time.Duration) {
		notified = append(notified, attempt)
	})

	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("notified = %v, want [1 2]", notified)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	cause := errors.New("refused")
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	}, nil)

	if !errors.Is(err, ErrGaveUp) {
		t.Fatalf("err = %v, want ErrGaveUp", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, should wrap the last cause", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy(0).Do(ctx, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("refused")
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestForever(t *testing.T) {
	if !DefaultPolicy().Forever() {
		t.Error("default policy should retry forever")
	}
	if fastPolicy(5).Forever() {
		t.Error("bounded policy reported Forever")
	}
}
