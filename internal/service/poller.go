package service

import (
	"context"
	"sync"
	"time"

	"brewsync/internal/aiden"
	"brewsync/internal/logger"
	"brewsync/internal/models"
)

const defaultMinRefresh = 10 * time.Second

// refreshCall is one in-flight device fetch. Concurrent refresh requests
// attach to it instead of issuing their own network call.
type refreshCall struct {
	done chan struct{}
	snap models.DeviceSnapshot
	err  error
}

// PollerService drives periodic refresh of the device snapshot and
// coalesces concurrent refresh requests into a single fetch.
type PollerService struct {
	client      aiden.Client
	cache       *SnapshotCache
	usage       Usage
	log         *logger.Logger
	minInterval time.Duration

	mu       sync.Mutex
	inflight *refreshCall
}

func NewPollerService(client aiden.Client, cache *SnapshotCache, usage Usage, cfg Config, log *logger.Logger) *PollerService {
	minInterval := cfg.MinRefresh
	if minInterval <= 0 {
		minInterval = defaultMinRefresh
	}
	return &PollerService{
		client:      client,
		cache:       cache,
		usage:       usage,
		log:         log,
		minInterval: minInterval,
	}
}

var _ Brewer = (*PollerService)(nil)

// Snapshot returns the cached device state without touching the network.
func (p *PollerService) Snapshot() (models.DeviceSnapshot, bool) { return p.cache.Device() }

// SnapshotVersion changes whenever a new snapshot lands; consumers can poll
// it cheaply to detect updates.
func (p *PollerService) SnapshotVersion() uint64 { return p.cache.DeviceVersion() }

// IsStale lets consumers decide whether the cached snapshot is too old.
func (p *PollerService) IsStale(maxAge time.Duration) bool { return p.cache.DeviceStale(maxAge) }

// Refresh fetches a fresh device snapshot. At most one fetch is in flight
// at a time: callers arriving mid-fetch wait on the in-flight result.
// force bypasses the min-interval throttle but still coalesces.
func (p *PollerService) Refresh(ctx context.Context, force bool) (models.DeviceSnapshot, error) {
	p.mu.Lock()
	if c := p.inflight; c != nil {
		p.mu.Unlock()
		select {
		case <-c.done:
			return c.snap, c.err
		case <-ctx.Done():
			// The fetch itself runs to completion; this caller just stops waiting.
			return models.DeviceSnapshot{}, ctx.Err()
		}
	}
	if !force {
		if snap, ok := p.cache.Device(); ok && time.Since(snap.FetchedAt) < p.minInterval {
			p.mu.Unlock()
			return snap, nil
		}
	}
	c := &refreshCall{done: make(chan struct{})}
	p.inflight = c
	p.mu.Unlock()

	c.snap, c.err = p.fetch(ctx)

	p.mu.Lock()
	p.inflight = nil
	p.mu.Unlock()
	close(c.done)

	return c.snap, c.err
}

// fetch does one network poll: pull the device payload, feed the counter
// delta to the ledger, then publish the snapshot. The ledger write happens
// first so a consumer never sees a snapshot whose brew was not yet durable.
// No cache lock is held while waiting on the network.
func (p *PollerService) fetch(ctx context.Context) (models.DeviceSnapshot, error) {
	var previous *models.DeviceSnapshot
	if prev, ok := p.cache.Device(); ok {
		previous = &prev
	}

	snap, err := p.client.Device(ctx)
	if err != nil {
		return models.DeviceSnapshot{}, err
	}

	if err := p.usage.RecordFromSnapshot(ctx, previous, snap); err != nil {
		// The snapshot itself is good; keep serving it and let the next
		// poll retry the ledger write (counters are cumulative).
		if p.log != nil {
			p.log.Errorw("usage_record_failed", "err", err)
		}
	} else if _, err := p.usage.Prune(ctx); err != nil && p.log != nil {
		p.log.Errorw("usage_prune_failed", "err", err)
	}

	p.cache.SetDevice(snap)
	return snap, nil
}

// Run ticks routine polls until ctx is canceled. Failures are absorbed:
// the stale snapshot stays available and the next tick tries again.
func (p *PollerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	// Prime the cache immediately rather than waiting a full interval.
	if _, err := p.Refresh(ctx, true); err != nil && p.log != nil {
		p.log.Warnw("initial_poll_failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.Refresh(ctx, false); err != nil {
				if p.log != nil {
					p.log.Warnw("routine_poll_failed", "err", err)
				}
				continue
			}
		}
	}
}
