package kaspi

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const maxBurst = 10

// LimiterRegistry holds one token bucket per seller. Every loop that
// spends a seller's quota must go through the same bucket, so the
// registry is shared by all concurrent callers for that seller.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	quotas   map[string]int
}

// NewLimiterRegistry creates an empty registry
func NewLimiterRegistry() *LimiterRegistry {
	return &LimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		quotas:   make(map[string]int),
	}
}

// Wait blocks until the seller's bucket has a token or ctx is done
func (r *LimiterRegistry) Wait(ctx context.Context, sellerID string, perHour int) error {
	if perHour <= 0 {
		perHour = 1
	}
	return r.limiter(sellerID, perHour).Wait(ctx)
}

func (r *LimiterRegistry) limiter(sellerID string, perHour int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	lim, ok := r.limiters[sellerID]
	if !ok {
		lim = rate.NewLimiter(perHourRate(perHour), burst(perHour))
		r.limiters[sellerID] = lim
		r.quotas[sellerID] = perHour
		return lim
	}

	// Resize on tier change
	if r.quotas[sellerID] != perHour {
		lim.SetLimit(perHourRate(perHour))
		lim.SetBurst(burst(perHour))
		r.quotas[sellerID] = perHour
	}
	return lim
}

func perHourRate(perHour int) rate.Limit {
	return rate.Limit(float64(perHour) / 3600.0)
}

func burst(perHour int) int {
	if perHour < maxBurst {
		return perHour
	}
	return maxBurst
}
