package cttm

import (
	"context"
	"time"
)

// Snapshot is one cached read of the ledger: the fact set sorted by
// confidence and the instant it stops being valid.
type Snapshot struct {
	Facts     []FactRecord `json:"facts"`
	FetchedAt time.Time    `json:"fetched_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Fresh reports whether s may still be served at now. A nil snapshot is
// never fresh.
func (s *Snapshot) Fresh(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// Refresh returns cached while it is fresh, otherwise a new snapshot built
// from fetch, sorted and stamped to expire after ttl.
func Refresh(now time.Time, cached *Snapshot, ttl time.Duration, fetch func() []FactRecord) Snapshot {
	if cached.Fresh(now) {
		return *cached
	}
	facts := fetch()
	SortByConfidence(facts)
	return Snapshot{
		Facts:     facts,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// SnapshotCache is an optional second cache level shared between
// processes. Implementations must treat every failure as a miss.
type SnapshotCache interface {
	Load(ctx context.Context) (*Snapshot, bool)
	Save(ctx context.Context, s Snapshot)
	Delete(ctx context.Context)
}
