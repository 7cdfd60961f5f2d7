package delivery

import (
	"testing"
	"time"
)

func TestRandomEstimatorBounds(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	estimator := &RandomEstimator{now: func() time.Time { return fixed }}

	for i := 0; i < 200; i++ {
		est := estimator.Estimate(nil)

		if est.PackagingTime != 10*time.Minute {
			t.Fatalf("expected packaging time 10m, got %v", est.PackagingTime)
		}
		if est.DeliveryTime < 30*time.Minute || est.DeliveryTime >= 50*time.Minute {
			t.Fatalf("delivery time %v outside [30m, 50m)", est.DeliveryTime)
		}
		if est.TotalTime != est.PackagingTime+est.DeliveryTime {
			t.Fatalf("total %v != packaging %v + delivery %v", est.TotalTime, est.PackagingTime, est.DeliveryTime)
		}
		if got := est.EstimatedArrival; !got.Equal(fixed.Add(est.TotalTime)) {
			t.Fatalf("arrival %v != now + total %v", got, fixed.Add(est.TotalTime))
		}
	}
}
