package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// bidThrottle keeps one token bucket per team. It only rejects requests
// before they reach the engine; accepted bids keep their arrival order.
type bidThrottle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newBidThrottle(perSecond float64, burst int) *bidThrottle {
	return &bidThrottle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (t *bidThrottle) Allow(teamID string) bool {
	t.mu.Lock()
	l, ok := t.limiters[teamID]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[teamID] = l
	}
	t.mu.Unlock()
	return l.Allow()
}
