package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	policy := newRetryPolicy(5, time.Millisecond, zap.New(core))

	calls := 0
	err := policy.do(context.Background(), "block fetch", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("again")
		}
		return nil
	}, zap.Uint64("block_number", 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	failures := logs.FilterMessage("block fetch failed").All()
	if len(failures) != 2 {
		t.Fatalf("expected 2 failure logs, got %d", len(failures))
	}
	fields := failures[1].ContextMap()
	if fields["block_number"] != uint64(7) || fields["attempt"] != int64(2) {
		t.Fatalf("unexpected log fields: %v", fields)
	}
}

func TestRetryPolicyReturnsLastError(t *testing.T) {
	policy := newRetryPolicy(2, time.Millisecond, nil)

	calls := 0
	want := errors.New("down")
	err := policy.do(context.Background(), "receipt fetch", func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyNegativeRetriesRunsOnce(t *testing.T) {
	policy := newRetryPolicy(-1, 0, nil)
	if policy.backoff != defaultRetryBackoff {
		t.Fatalf("expected default backoff, got %s", policy.backoff)
	}

	calls := 0
	_ = policy.do(context.Background(), "latest block fetch", func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := newRetryPolicy(5, time.Hour, nil)
	err := policy.do(ctx, "block fetch", func(context.Context) error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
