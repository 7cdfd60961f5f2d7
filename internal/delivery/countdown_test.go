package delivery

import (
	"context"
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      string
	}{
		{2*time.Hour + 5*time.Minute + 9*time.Second, "2h05m09s"},
		{time.Hour, "1h00m00s"},
		{59*time.Minute + 59*time.Second, "59m59s"},
		{9*time.Minute + 3*time.Second, "09m03s"},
		{time.Second, "00m01s"},
		{0, DeliveredLabel},
		{-time.Minute, DeliveredLabel},
	}

	for _, tc := range cases {
		if got := FormatRemaining(tc.remaining); got != tc.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tc.remaining, got, tc.want)
		}
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	if got := Remaining(now.Add(45*time.Minute), now); got != 45*time.Minute {
		t.Errorf("expected 45m remaining, got %v", got)
	}
	if got := Remaining(now.Add(-time.Minute), now); got != -time.Minute {
		t.Errorf("expected -1m remaining, got %v", got)
	}
}

func TestCountdownStopsAtArrival(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Arrival already in the past: one Delivered tick, then the channel closes.
	out := Countdown(ctx, time.Now().Add(-time.Second), 10*time.Millisecond)

	first, ok := <-out
	if !ok {
		t.Fatal("expected at least one tick")
	}
	if first != DeliveredLabel {
		t.Fatalf("expected %q, got %q", DeliveredLabel, first)
	}

	if _, ok := <-out; ok {
		t.Fatal("expected channel to close after arrival")
	}
}

func TestCountdownCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	out := Countdown(ctx, time.Now().Add(time.Hour), 10*time.Millisecond)

	if _, ok := <-out; !ok {
		t.Fatal("expected a tick before cancellation")
	}

	cancel()

	// The channel must close without further sends once ctx is done.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after cancellation")
		}
	}
}
