package delivery

import (
	"math/rand"
	"time"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type Estimate struct {
	PackagingTime    time.Duration `json:"packaging_time"`
	DeliveryTime     time.Duration `json:"delivery_time"`
	TotalTime        time.Duration `json:"total_time"`
	EstimatedArrival time.Time     `json:"estimated_arrival"`
}

// EstimateProvider computes a delivery estimate for an order. The order is
// passed so a real implementation can use its coordinates; RandomEstimator
// ignores it.
type EstimateProvider interface {
	Estimate(order *domain.Order) Estimate
}

// RandomEstimator is the placeholder model: 10 minutes packaging plus
// 30 + [0,20) minutes delivery. Swap it for a geodistance + speed model
// without touching callers.
type RandomEstimator struct {
	// now is overridable for tests; nil means time.Now.
	now func() time.Time
}

func NewRandomEstimator() *RandomEstimator {
	return &RandomEstimator{}
}

func (e *RandomEstimator) Estimate(_ *domain.Order) Estimate {
	packaging := 10 * time.Minute
	delivery := time.Duration(30+rand.Intn(20)) * time.Minute

	now := time.Now()
	if e.now != nil {
		now = e.now()
	}

	total := packaging + delivery
	return Estimate{
		PackagingTime:    packaging,
		DeliveryTime:     delivery,
		TotalTime:        total,
		EstimatedArrival: now.Add(total),
	}
}
