package models

import "time"

// BrewEvent is one append-only entry in the water-usage ledger.
//
// RecordedAt is the poll time at which the lifetime counters were observed
// to have advanced, not the true brew completion time — the cloud API only
// exposes cumulative counters, so per-brew timestamps are approximations.
type BrewEvent struct {
	EventID      string    `json:"event_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	VolumeMl     int64     `json:"volume_ml"`
	ProfileID    string    `json:"profile_id,omitempty"`
	ProfileTitle string    `json:"profile_title,omitempty"`
	// Aggregated marks a synthetic event covering more than one brew,
	// emitted when the lifetime counter advanced by >1 between polls.
	Aggregated bool `json:"aggregated"`
	// Lifetime counters observed when the event was recorded. Within one
	// counter generation BrewCount is the dedup key and the newest event's
	// pair is the resume point for delta computation after a restart.
	BrewCount     int64 `json:"brew_count"`
	TotalVolumeMl int64 `json:"total_volume_ml"`
	// Epoch identifies the counter generation the event belongs to. The
	// device counter can restart from zero after a factory reset, so raw
	// counts are only comparable within the same generation.
	Epoch int64 `json:"epoch"`
}

// UsageBaseline is the resettable reference point for "since reset" totals.
// Each write of the baseline starts a new counter generation (Epoch), so
// events recorded before a device reset can never outrank or collide with
// events recorded after it.
type UsageBaseline struct {
	RecordedAt time.Time `json:"recorded_at"`
	VolumeMl   int64     `json:"volume_ml"`  // lifetime volume at reset
	BrewCount  int64     `json:"brew_count"` // lifetime brew count at reset
	Epoch      int64     `json:"epoch"`
}
