package delivery

import (
	"context"
	"fmt"
	"time"
)

// DeliveredLabel is a display label only; reaching zero never transitions
// the order status.
const DeliveredLabel = "Delivered"

func Remaining(estimatedArrival, now time.Time) time.Duration {
	return estimatedArrival.Sub(now)
}

// FormatRemaining renders a countdown as HhMMmSSs above one hour and MMmSSs
// below it.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return DeliveredLabel
	}

	remaining = remaining.Round(time.Second)
	hours := int(remaining / time.Hour)
	minutes := int(remaining % time.Hour / time.Minute)
	seconds := int(remaining % time.Minute / time.Second)

	if hours > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02dm%02ds", minutes, seconds)
}

// Countdown emits a formatted remaining-time string every interval until
// the estimate is reached or ctx is cancelled. The channel is closed when
// the loop stops, so consumers never see a tick after teardown.
func Countdown(ctx context.Context, estimatedArrival time.Time, interval time.Duration) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			remaining := Remaining(estimatedArrival, time.Now())
			select {
			case out <- FormatRemaining(remaining):
			case <-ctx.Done():
				return
			}

			if remaining <= 0 {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
