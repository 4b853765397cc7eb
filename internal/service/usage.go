package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brewsync/internal/logger"
	"brewsync/internal/models"
	"brewsync/internal/repository"
)

// Period selects a calendar rollup window anchored to local wall-clock
// boundaries in the configured zone.
type Period string

const (
	PeriodDay      Period = "day"
	PeriodWeek     Period = "week" // ISO week, Monday start
	PeriodMonth    Period = "month"
	PeriodLifetime Period = "lifetime"
)

// ParsePeriod maps a query-string value onto a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodLifetime:
		return Period(s), nil
	}
	return "", &ValidationError{Field: "period", Reason: fmt.Sprintf("must be day, week, month or lifetime, got %q", s)}
}

// ErrNoSnapshot means an operation needs a device snapshot before any
// successful poll has happened.
var ErrNoSnapshot = errors.New("no device snapshot available yet")

const defaultRetentionDays = 365

// UsageService owns the append-only brew-event ledger and the usage
// baseline. Writes (record, reset, prune) are serialized by a single lock;
// reads go straight to the repository.
type UsageService struct {
	ledger    repository.LedgerRepo
	cache     *SnapshotCache
	log       *logger.Logger
	loc       *time.Location
	retention time.Duration

	mu sync.Mutex
}

func NewUsageService(ledger repository.LedgerRepo, cache *SnapshotCache, cfg Config, log *logger.Logger) *UsageService {
	days := cfg.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &UsageService{
		ledger:    ledger,
		cache:     cache,
		log:       log,
		loc:       loc,
		retention: time.Duration(days) * 24 * time.Hour,
	}
}

var _ Usage = (*UsageService)(nil)

// RecordFromSnapshot compares lifetime counters between polls and appends
// at most one BrewEvent. Counter advanced by one: a normal event with the
// delta volume. Advanced by more than one (missed polls): a single
// aggregated event with the summed volume rather than fabricated
// per-brew records. Decreased (device reset): silent re-baseline, no
// negative event. The ledger write completes before this returns, so a
// crash after a poll cannot lose the brew.
func (s *UsageService) RecordFromSnapshot(ctx context.Context, previous *models.DeviceSnapshot, current models.DeviceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastCount, lastVolume, epoch, known, err := s.lastKnownCounters(ctx, previous)
	if err != nil {
		// Only an unreadable (corrupt) ledger is recovered by re-baselining.
		// Transient failures are surfaced so the next poll retries with the
		// persisted state intact.
		if !errors.Is(err, repository.ErrLedgerCorrupt) {
			return fmt.Errorf("resolve usage resume point: %w", err)
		}
		if s.log != nil {
			s.log.Errorw("ledger_unreadable_rebaselining", "err", err)
		}
		return s.saveBaseline(ctx, current)
	}
	if !known {
		if s.log != nil {
			s.log.Infow("usage_tracking_initialized",
				"lifetime_brews", current.LifetimeBrews, "lifetime_ml", current.LifetimeMl)
		}
		return s.saveBaseline(ctx, current)
	}

	delta := current.LifetimeBrews - lastCount
	switch {
	case delta == 0:
		return nil
	case delta < 0:
		// Device/firmware reset. No negative events; start over from here.
		if s.log != nil {
			s.log.Warnw("lifetime_counter_decreased",
				"was", lastCount, "now", current.LifetimeBrews)
		}
		return s.saveBaseline(ctx, current)
	}

	volume := current.LifetimeMl - lastVolume
	if volume < 0 {
		if s.log != nil {
			s.log.Warnw("lifetime_volume_decreased_clamping",
				"was", lastVolume, "now", current.LifetimeMl)
		}
		volume = 0
	}

	recordedAt := current.FetchedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	event := models.BrewEvent{
		RecordedAt:    recordedAt,
		VolumeMl:      volume,
		Aggregated:    delta > 1,
		BrewCount:     current.LifetimeBrews,
		TotalVolumeMl: current.LifetimeMl,
		Epoch:         epoch,
	}
	if delta == 1 {
		event.ProfileID, event.ProfileTitle = s.likelyProfile()
	}

	if err := s.ledger.Append(ctx, event); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("brew_event_recorded",
			"volume_ml", event.VolumeMl, "brews", delta, "aggregated", event.Aggregated)
	}
	return nil
}

// lastKnownCounters resolves the resume point for delta computation.
// Persisted state is authoritative so a failed ledger write is retried on
// the next poll: the baseline defines the current counter generation, and
// only an event from that same generation may advance past it. Events from
// an older generation predate a device reset and must not outrank a fresh
// baseline, or every post-reset brew would look like a counter decrease.
// The in-memory previous snapshot only matters before anything is
// persisted. Returns known=false on first contact.
func (s *UsageService) lastKnownCounters(ctx context.Context, previous *models.DeviceSnapshot) (count, volume, epoch int64, known bool, err error) {
	baseline, err := s.ledger.Baseline(ctx)
	if err != nil {
		return 0, 0, 0, false, err
	}
	latest, err := s.ledger.Latest(ctx)
	if err != nil {
		return 0, 0, 0, false, err
	}

	if baseline != nil {
		count, volume, epoch = baseline.BrewCount, baseline.VolumeMl, baseline.Epoch
		if latest != nil && latest.Epoch == epoch && latest.BrewCount > count {
			count, volume = latest.BrewCount, latest.TotalVolumeMl
		}
		return count, volume, epoch, true, nil
	}
	if latest != nil {
		return latest.BrewCount, latest.TotalVolumeMl, latest.Epoch, true, nil
	}
	if previous != nil {
		return previous.LifetimeBrews, previous.LifetimeMl, 0, true, nil
	}
	return 0, 0, 0, false, nil
}

// likelyProfile attributes a single brew to the default (or first) cached
// profile. Best effort only: no network fetch is triggered from the ledger.
func (s *UsageService) likelyProfile() (id, title string) {
	profiles, ok := s.cache.Profiles()
	if !ok || len(profiles) == 0 {
		return "", ""
	}
	pick := profiles[0]
	for _, p := range profiles {
		if p.IsDefault {
			pick = p
			break
		}
	}
	return pick.ID, pick.Title
}

// saveBaseline persists a new baseline and with it a new counter
// generation. Nanosecond timestamps keep epochs strictly increasing even
// when two baseline writes land within the same second.
func (s *UsageService) saveBaseline(ctx context.Context, snap models.DeviceSnapshot) error {
	return s.ledger.SaveBaseline(ctx, models.UsageBaseline{
		RecordedAt: time.Now().UTC(),
		VolumeMl:   snap.LifetimeMl,
		BrewCount:  snap.LifetimeBrews,
		Epoch:      time.Now().UnixNano(),
	})
}

// Rollup sums event volumes inside the period containing asOf. Lifetime is
// served from the device counter so retention pruning can never skew it.
func (s *UsageService) Rollup(ctx context.Context, period Period, asOf time.Time) (int64, error) {
	if period == PeriodLifetime {
		return s.lifetimeVolume(ctx)
	}
	from, to, err := periodBounds(period, asOf, s.loc)
	if err != nil {
		return 0, err
	}
	return s.ledger.SumRange(ctx, from, to)
}

func (s *UsageService) lifetimeVolume(ctx context.Context) (int64, error) {
	if snap, ok := s.cache.Device(); ok {
		return snap.LifetimeMl, nil
	}
	latest, err := s.ledger.Latest(ctx)
	if err != nil {
		return 0, err
	}
	baseline, err := s.ledger.Baseline(ctx)
	if err != nil {
		return 0, err
	}
	// An event from an older generation carries a pre-reset counter; the
	// fresh baseline is closer to the device's current figure.
	if latest != nil && (baseline == nil || latest.Epoch == baseline.Epoch) {
		return latest.TotalVolumeMl, nil
	}
	if baseline != nil {
		return baseline.VolumeMl, nil
	}
	return 0, nil
}

// periodBounds computes [from, to) for the calendar period containing asOf
// in the given location.
func periodBounds(period Period, asOf time.Time, loc *time.Location) (time.Time, time.Time, error) {
	t := asOf.In(loc)
	y, m, d := t.Date()
	switch period {
	case PeriodDay:
		from := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 0, 1), nil
	case PeriodWeek:
		daysSinceMonday := (int(t.Weekday()) + 6) % 7
		from := time.Date(y, m, d-daysSinceMonday, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 0, 7), nil
	case PeriodMonth:
		from := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("unsupported period %q", period)}
}

// SinceBaseline is currentLifetimeVolume - baseline volume, independent of
// the event ledger.
func (s *UsageService) SinceBaseline(ctx context.Context) (int64, error) {
	baseline, err := s.ledger.Baseline(ctx)
	if err != nil {
		return 0, err
	}
	if baseline == nil {
		return 0, nil
	}
	current, err := s.lifetimeVolume(ctx)
	if err != nil {
		return 0, err
	}
	since := current - baseline.VolumeMl
	if since < 0 {
		since = 0
	}
	return since, nil
}

// ResetBaseline moves the baseline to the current lifetime counters.
// Historical events stay: rollups for already-elapsed periods remain valid.
func (s *UsageService) ResetBaseline(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.cache.Device()
	if !ok {
		return ErrNoSnapshot
	}
	if s.log != nil {
		s.log.Infow("usage_baseline_reset",
			"lifetime_brews", snap.LifetimeBrews, "lifetime_ml", snap.LifetimeMl)
	}
	return s.saveBaseline(ctx, snap)
}

// Prune drops events past the retention window. The cutoff is clamped to
// the start of the open month so a live period can never lose events.
func (s *UsageService) Prune(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-s.retention)
	if openStart, _, err := periodBounds(PeriodMonth, now, s.loc); err == nil && cutoff.After(openStart) {
		cutoff = openStart
	}
	n, err := s.ledger.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.log != nil {
		s.log.Debugw("ledger_pruned", "deleted", n, "cutoff", cutoff.UTC())
	}
	return n, nil
}

// Events returns the raw ledger for inspection.
func (s *UsageService) Events(ctx context.Context) ([]models.BrewEvent, error) {
	return s.ledger.List(ctx)
}
