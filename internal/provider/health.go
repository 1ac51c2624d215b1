package provider

import (
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Health is the running outcome tally of one provider.
type Health struct {
	Name        string    `json:"name"`
	Successes   int64     `json:"successes"`
	Failures    int64     `json:"failures"`
	LastError   string    `json:"last_error,omitempty"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// HealthRegistry records per-provider outcomes; safe for concurrent use.
type HealthRegistry struct {
	entries cmap.ConcurrentMap[string, Health]
	now     func() time.Time
}

// NewHealthRegistry creates an empty registry with an entry for each named provider.
func NewHealthRegistry(names ...string) *HealthRegistry {
	r := &HealthRegistry{
		entries: cmap.New[Health](),
		now:     time.Now,
	}
	for _, name := range names {
		r.entries.Set(name, Health{Name: name})
	}
	return r
}

// RecordSuccess notes a successful fetch.
func (r *HealthRegistry) RecordSuccess(name string) {
	now := r.now()
	r.entries.Upsert(name, Health{}, func(exist bool, h Health, _ Health) Health {
		h.Name = name
		h.Successes++
		h.LastSuccess = now
		return h
	})
}

// RecordFailure notes a failed fetch and its error.
func (r *HealthRegistry) RecordFailure(name string, err error) {
	now := r.now()
	r.entries.Upsert(name, Health{}, func(exist bool, h Health, _ Health) Health {
		h.Name = name
		h.Failures++
		h.LastFailure = now
		if err != nil {
			h.LastError = err.Error()
		}
		return h
	})
}

// Snapshot returns every entry sorted by provider name.
func (r *HealthRegistry) Snapshot() []Health {
	out := make([]Health, 0, r.entries.Count())
	for _, h := range r.entries.Items() {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
