package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_RetriesNonTransientErrorsByDefault(t *testing.T) {
	// With no ShouldRetry the processor's opaque failures are retried too.
	var calls int
	err := Do(context.Background(), fastConfig(), func(_ context.Context) error {
		calls++
		return errors.New("Error al analizar CV")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustionReturnsLastErrorVerbatim(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("earlier failure")
		}
		return errors.New("final failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "final failure" {
		t.Errorf("expected last error verbatim, got %q", err.Error())
	}
}

func TestDo_ShouldRetryStopsEarly(t *testing.T) {
	var calls int
	cfg := fastConfig()
	cfg.ShouldRetry = IsTransient

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("permanent validation failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-transient error, got %d", calls)
	}
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	err := Do(ctx, fastConfig(), func(_ context.Context) error {
		calls++
		cancel()
		return errors.New("failing")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("temporary")
		}
		return "extracted text", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "extracted text" {
		t.Errorf("expected value from successful attempt, got %q", val)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, _ error) {
		attempts = append(attempts, attempt)
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return errors.New("always fails")
	})
	if len(attempts) != 2 {
		t.Fatalf("expected 2 retry callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected attempt numbers: %v", attempts)
	}
}

func TestComputeBackoff_Doubles(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 1 * time.Second,
		Multiplier:     2.0,
		MaxBackoff:     30 * time.Second,
	})

	if d := computeBackoff(0, cfg); d != 1*time.Second {
		t.Errorf("attempt 0: expected 1s, got %v", d)
	}
	if d := computeBackoff(1, cfg); d != 2*time.Second {
		t.Errorf("attempt 1: expected 2s, got %v", d)
	}
	if d := computeBackoff(10, cfg); d != 30*time.Second {
		t.Errorf("attempt 10: expected cap 30s, got %v", d)
	}
}
