package memory

import (
	"sync"
	"time"
)

const (
	// DefaultMinInterval is the minimum spacing between accepted messages
	// from the same sender.
	DefaultMinInterval = 1500 * time.Millisecond

	// defaultStaleAfter is how long an idle sender's timestamp survives
	// before Sweep evicts it.
	defaultStaleAfter = time.Hour
)

// RateGate tracks the last accepted message per sender and rejects anything
// arriving sooner than the minimum interval. Rejections do not refresh the
// timestamp, so a sub-interval burst stays suppressed until the sender backs
// off for a full interval after the last accepted message.
//
// RateGate is safe for concurrent use from multiple goroutines.
type RateGate struct {
	minInterval time.Duration
	staleAfter  time.Duration
	shards      [shardCount]rateShard
}

type rateShard struct {
	mu   sync.Mutex
	seen map[int64]time.Time
}

// NewRateGate returns a RateGate accepting at most one message per sender per
// minInterval. Non-positive arguments fall back to the defaults.
func NewRateGate(minInterval, staleAfter time.Duration) *RateGate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	g := &RateGate{
		minInterval: minInterval,
		staleAfter:  staleAfter,
	}
	for i := range g.shards {
		g.shards[i].seen = make(map[int64]time.Time)
	}
	return g
}

func (g *RateGate) shard(userID int64) *rateShard {
	return &g.shards[uint64(userID)%shardCount]
}

func (g *RateGate) Limited(userID int64, now time.Time) bool {
	sh := g.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if last, ok := sh.seen[userID]; ok && now.Sub(last) < g.minInterval {
		return true
	}
	sh.seen[userID] = now
	return false
}

// Sweep evicts senders whose last accepted message is older than the stale
// threshold, keeping the map bounded for long-running processes. Returns the
// number of entries removed.
func (g *RateGate) Sweep(now time.Time) int {
	cutoff := now.Add(-g.staleAfter)
	removed := 0
	for i := range g.shards {
		sh := &g.shards[i]
		sh.mu.Lock()
		for id, last := range sh.seen {
			if last.Before(cutoff) {
				delete(sh.seen, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
