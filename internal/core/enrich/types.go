package enrich

import (
	"time"

	"placelink/internal/core/resolve"
)

// Job is one enrichment request. Identity key is PlaceID (per provider);
// the job is dequeued once a worker picks it up regardless of outcome.
type Job struct {
	RequestID   string `json:"request_id"`
	PlaceID     string `json:"place_id"`
	Name        string `json:"name"`
	CityHint    string `json:"city_hint,omitempty"`
	AddressHint string `json:"address_hint,omitempty"`
	Provider    string `json:"provider"`
	// LockToken is the value the caller wrote when acquiring the entity
	// lock; the worker needs it for the token-checked release.
	LockToken string `json:"lock_token,omitempty"`
}

// CacheEntry is the persisted resolution outcome. StatusFound implies URL
// is non-nil, StatusNotFound implies nil. Written exactly once per
// completed job.
type CacheEntry struct {
	URL       *string        `json:"url"`
	Status    resolve.Status `json:"status"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Meta      *resolve.Meta  `json:"meta,omitempty"`
}
