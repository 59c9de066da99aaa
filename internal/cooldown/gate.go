// Package cooldown throttles how often a user may issue a state-changing command.
package cooldown

import (
	"context"
	"log"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Admitter decides whether a user may act now and, if so, starts the user's
// cooldown in the same step.
type Admitter interface {
	Allow(ctx context.Context, userID uint64) (bool, error)
}

// Gate keeps per-user cooldown expiries in process memory. A restart clears
// every cooldown. All methods are safe for concurrent use and never block on I/O.
type Gate struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	expiry map[uint64]time.Time

	admitted atomic.Int64
	rejected atomic.Int64
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// Stats is a snapshot of gate activity.
type Stats struct {
	Admitted int64 `json:"admitted"`
	Rejected int64 `json:"rejected"`
	Tracked  int   `json:"tracked"`
}

// StatsReporter is implemented by gates that count their decisions.
type StatsReporter interface {
	Stats() Stats
}

func New(window time.Duration, opts ...Option) *Gate {
	g := &Gate{
		window: window,
		now:    time.Now,
		expiry: make(map[uint64]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsCoolingDown reports whether userID is still inside its window. It does
// not change any state.
func (g *Gate) IsCoolingDown(userID uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.coolingLocked(userID, g.now())
}

// SetCooldown starts a new window for userID from now.
func (g *Gate) SetCooldown(userID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expiry[userID] = g.now().Add(g.window)
}

// Admit checks and starts the cooldown under one lock, so among concurrent
// attempts by the same user only one is admitted per window.
func (g *Gate) Admit(userID uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.coolingLocked(userID, now) {
		g.rejected.Inc()
		return false
	}
	g.expiry[userID] = now.Add(g.window)
	g.admitted.Inc()
	return true
}

// Allow implements Admitter.
func (g *Gate) Allow(_ context.Context, userID uint64) (bool, error) {
	return g.Admit(userID), nil
}

func (g *Gate) coolingLocked(userID uint64, now time.Time) bool {
	until, ok := g.expiry[userID]
	return ok && now.Before(until)
}

// Sweep drops entries whose window has passed and returns how many it removed.
func (g *Gate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for userID, until := range g.expiry {
		if !now.Before(until) {
			delete(g.expiry, userID)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (g *Gate) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 {
				log.Printf("[Cooldown] Evicted %d expired entries", n)
			}
		}
	}
}

// Reset forgets every cooldown.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expiry = make(map[uint64]time.Time)
}

func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.expiry)
}

func (g *Gate) Stats() Stats {
	return Stats{
		Admitted: g.admitted.Load(),
		Rejected: g.rejected.Load(),
		Tracked:  g.Len(),
	}
}
