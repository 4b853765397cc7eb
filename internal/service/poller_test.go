package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"brewsync/internal/models"
)

func newPollerForTest(client *fakeClient, cache *SnapshotCache, usage Usage, minRefresh time.Duration) *PollerService {
	return NewPollerService(client, cache, usage, Config{MinRefresh: minRefresh}, nil)
}

// noopUsage satisfies Usage for poller tests that do not care about the ledger.
type noopUsage struct{}

func (noopUsage) RecordFromSnapshot(context.Context, *models.DeviceSnapshot, models.DeviceSnapshot) error {
	return nil
}
func (noopUsage) Rollup(context.Context, Period, time.Time) (int64, error) { return 0, nil }
func (noopUsage) SinceBaseline(context.Context) (int64, error)             { return 0, nil }
func (noopUsage) ResetBaseline(context.Context) error                      { return nil }
func (noopUsage) Prune(context.Context) (int64, error)                     { return 0, nil }
func (noopUsage) Events(context.Context) ([]models.BrewEvent, error)       { return nil, nil }

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var enterOnce sync.Once
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			enterOnce.Do(func() { close(entered) })
			<-gate
			return snapAt(7, 1500, time.Now()), nil
		},
	}
	p := newPollerForTest(client, NewSnapshotCache(), noopUsage{}, time.Hour)

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]error, waiters)
	snaps := make([]models.DeviceSnapshot, waiters)

	wg.Add(1)
	go func() {
		defer wg.Done()
		snaps[0], results[0] = p.Refresh(context.Background(), true)
	}()
	<-entered

	var launched sync.WaitGroup
	for i := 1; i < waiters; i++ {
		wg.Add(1)
		launched.Add(1)
		go func(i int) {
			defer wg.Done()
			launched.Done()
			snaps[i], results[i] = p.Refresh(context.Background(), true)
		}(i)
	}
	launched.Wait()
	time.Sleep(50 * time.Millisecond) // let the waiters reach the in-flight call
	close(gate)
	wg.Wait()

	if got := client.calls("device"); got != 1 {
		t.Fatalf("device fetched %d times for %d concurrent refreshes, want 1", got, waiters)
	}
	for i := 0; i < waiters; i++ {
		if results[i] != nil {
			t.Errorf("caller %d: %v", i, results[i])
		}
		if snaps[i].LifetimeBrews != 7 {
			t.Errorf("caller %d got snapshot %+v", i, snaps[i])
		}
	}
}

func TestRefreshThrottleServesCachedSnapshot(t *testing.T) {
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			return snapAt(7, 1500, time.Now()), nil
		},
	}
	p := newPollerForTest(client, NewSnapshotCache(), noopUsage{}, time.Hour)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, false); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	snap, err := p.Refresh(ctx, false)
	if err != nil {
		t.Fatalf("throttled refresh: %v", err)
	}
	if snap.LifetimeBrews != 7 {
		t.Errorf("throttled refresh snapshot = %+v", snap)
	}
	if got := client.calls("device"); got != 1 {
		t.Errorf("device calls = %d, want 1 (second refresh inside the throttle window)", got)
	}

	// force bypasses the window.
	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if got := client.calls("device"); got != 2 {
		t.Errorf("device calls after force = %d, want 2", got)
	}
}

func TestRefreshFailureKeepsStaleSnapshot(t *testing.T) {
	good := snapAt(7, 1500, time.Now())
	failing := false
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			if failing {
				return models.DeviceSnapshot{}, errors.New("cloud down")
			}
			return good, nil
		},
	}
	cache := NewSnapshotCache()
	p := newPollerForTest(client, cache, noopUsage{}, time.Nanosecond)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("prime: %v", err)
	}
	version := p.SnapshotVersion()

	failing = true
	if _, err := p.Refresh(ctx, true); err == nil {
		t.Fatal("want refresh error while cloud is down")
	}
	snap, ok := p.Snapshot()
	if !ok || snap.LifetimeBrews != 7 {
		t.Errorf("stale snapshot lost after failure: ok=%v snap=%+v", ok, snap)
	}
	if p.SnapshotVersion() != version {
		t.Error("failed refresh must not bump the snapshot version")
	}
}

func TestRefreshFeedsUsageLedger(t *testing.T) {
	ledger := &fakeLedger{}
	cache := NewSnapshotCache()
	usage := newUsageForTest(ledger, cache, time.UTC)

	step := 0
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			step++
			if step == 1 {
				return snapAt(10, 2000, time.Now()), nil
			}
			return snapAt(11, 2250, time.Now()), nil
		},
	}
	p := newPollerForTest(client, cache, usage, time.Nanosecond)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("second poll: %v", err)
	}

	events, _ := ledger.List(ctx)
	if len(events) != 1 || events[0].VolumeMl != 250 {
		t.Fatalf("ledger after two polls = %+v, want one 250ml event", events)
	}
}

func TestRefreshPublishesSnapshotEvenWhenLedgerFails(t *testing.T) {
	ledger := &fakeLedger{}
	cache := NewSnapshotCache()
	usage := newUsageForTest(ledger, cache, time.UTC)
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			return snapAt(10, 2000, time.Now()), nil
		},
	}
	p := newPollerForTest(client, cache, usage, time.Nanosecond)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("prime: %v", err)
	}

	ledger.baselineErr = nil
	ledger.appendErr = errors.New("disk full")
	client.mu.Lock()
	client.deviceFn = func(ctx context.Context) (models.DeviceSnapshot, error) {
		return snapAt(11, 2250, time.Now()), nil
	}
	client.mu.Unlock()

	snap, err := p.Refresh(ctx, true)
	if err != nil {
		t.Fatalf("refresh with failing ledger: %v", err)
	}
	if snap.LifetimeBrews != 11 {
		t.Errorf("snapshot = %+v, want the fresh one", snap)
	}
	cached, ok := p.Snapshot()
	if !ok || cached.LifetimeBrews != 11 {
		t.Errorf("cache = %+v ok=%v, want fresh snapshot published", cached, ok)
	}
	if ledger.eventCount() != 0 {
		t.Fatalf("events written despite append error: %d", ledger.eventCount())
	}

	// Counters are cumulative, the next healthy poll records the brew.
	ledger.appendErr = nil
	if _, err := p.Refresh(ctx, true); err != nil {
		t.Fatalf("recovery poll: %v", err)
	}
	events, _ := ledger.List(ctx)
	if len(events) != 1 || events[0].VolumeMl != 250 {
		t.Fatalf("ledger after recovery = %+v, want one 250ml event", events)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	client := &fakeClient{
		deviceFn: func(ctx context.Context) (models.DeviceSnapshot, error) {
			return snapAt(1, 100, time.Now()), nil
		},
	}
	p := newPollerForTest(client, NewSnapshotCache(), noopUsage{}, time.Nanosecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if client.calls("device") == 0 {
		t.Error("Run never polled")
	}
}
