package cache

import (
	"time"

	"nearby-imagery-api/internal/models"
)

// DefaultMaxAge is the staleness threshold used when none is configured.
const DefaultMaxAge = 60 * time.Minute

// IsStale reports whether a neighbourhood needs refreshing: the set is empty or any
// record was persisted before now-maxAge. One old record marks the whole set stale.
func IsStale(records []models.ImageRecord, maxAge time.Duration, now time.Time) bool {
	if len(records) == 0 {
		return true
	}

	cutoff := now.Add(-maxAge)
	for _, r := range records {
		if r.CachedAt.Before(cutoff) {
			return true
		}
	}
	return false
}

// FreshnessPolicy binds a max age and a clock.
type FreshnessPolicy struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// NewFreshnessPolicy returns a policy using the wall clock; maxAge <= 0 falls back to DefaultMaxAge.
func NewFreshnessPolicy(maxAge time.Duration) FreshnessPolicy {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return FreshnessPolicy{MaxAge: maxAge, Now: time.Now}
}

// IsStale applies the policy to records.
func (p FreshnessPolicy) IsStale(records []models.ImageRecord) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return IsStale(records, p.MaxAge, now())
}
