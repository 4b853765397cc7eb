package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"brewsync/internal/models"
	"brewsync/internal/repository"
)

// fakeLedger is an in-memory LedgerRepo with optional error injection.
type fakeLedger struct {
	mu       sync.Mutex
	events   []models.BrewEvent
	baseline *models.UsageBaseline

	appendErr   error
	baselineErr error
}

var _ repository.LedgerRepo = (*fakeLedger)(nil)

func (f *fakeLedger) Append(_ context.Context, e models.BrewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, have := range f.events {
		if have.Epoch == e.Epoch && have.BrewCount == e.BrewCount {
			return nil
		}
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeLedger) List(_ context.Context) ([]models.BrewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.BrewEvent, len(f.events))
	copy(out, f.events)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Epoch != out[j].Epoch {
			return out[i].Epoch < out[j].Epoch
		}
		return out[i].BrewCount < out[j].BrewCount
	})
	return out, nil
}

func (f *fakeLedger) Latest(_ context.Context) (*models.BrewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil, nil
	}
	latest := f.events[0]
	for _, e := range f.events[1:] {
		if e.Epoch > latest.Epoch || (e.Epoch == latest.Epoch && e.BrewCount > latest.BrewCount) {
			latest = e
		}
	}
	return &latest, nil
}

func (f *fakeLedger) SumRange(_ context.Context, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, e := range f.events {
		if !e.RecordedAt.Before(from) && e.RecordedAt.Before(to) {
			sum += e.VolumeMl
		}
	}
	return sum, nil
}

func (f *fakeLedger) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.BrewEvent
	var dropped int64
	for _, e := range f.events {
		if e.RecordedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	f.events = kept
	return dropped, nil
}

func (f *fakeLedger) Baseline(_ context.Context) (*models.UsageBaseline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baselineErr != nil {
		return nil, f.baselineErr
	}
	if f.baseline == nil {
		return nil, nil
	}
	b := *f.baseline
	return &b, nil
}

func (f *fakeLedger) SaveBaseline(_ context.Context, b models.UsageBaseline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseline = &b
	return nil
}

func (f *fakeLedger) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeClient counts calls and delegates to per-method hooks; unset hooks
// return zero values.
type fakeClient struct {
	mu sync.Mutex

	deviceCalls    int
	profileCalls   int
	scheduleCalls  int
	createProfiles int
	deleteProfiles int
	createScheds   int
	deleteScheds   int
	toggleCalls    int

	deviceFn         func(ctx context.Context) (models.DeviceSnapshot, error)
	profilesFn       func(ctx context.Context) ([]models.Profile, error)
	schedulesFn      func(ctx context.Context) ([]models.Schedule, error)
	createProfileFn  func(ctx context.Context, spec models.ProfileSpec) (models.Profile, error)
	deleteProfileFn  func(ctx context.Context, id string) error
	createScheduleFn func(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error)
	deleteScheduleFn func(ctx context.Context, id string) error
	toggleScheduleFn func(ctx context.Context, id string, enabled bool) error
}

func (f *fakeClient) Device(ctx context.Context) (models.DeviceSnapshot, error) {
	f.mu.Lock()
	f.deviceCalls++
	fn := f.deviceFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return models.DeviceSnapshot{}, nil
}

func (f *fakeClient) Profiles(ctx context.Context) ([]models.Profile, error) {
	f.mu.Lock()
	f.profileCalls++
	fn := f.profilesFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) Schedules(ctx context.Context) ([]models.Schedule, error) {
	f.mu.Lock()
	f.scheduleCalls++
	fn := f.schedulesFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) CreateProfile(ctx context.Context, spec models.ProfileSpec) (models.Profile, error) {
	f.mu.Lock()
	f.createProfiles++
	fn := f.createProfileFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, spec)
	}
	return models.Profile{}, nil
}

func (f *fakeClient) DeleteProfile(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleteProfiles++
	fn := f.deleteProfileFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

func (f *fakeClient) CreateSchedule(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error) {
	f.mu.Lock()
	f.createScheds++
	fn := f.createScheduleFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, spec)
	}
	return models.Schedule{}, nil
}

func (f *fakeClient) DeleteSchedule(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleteScheds++
	fn := f.deleteScheduleFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

func (f *fakeClient) ToggleSchedule(ctx context.Context, id string, enabled bool) error {
	f.mu.Lock()
	f.toggleCalls++
	fn := f.toggleScheduleFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, enabled)
	}
	return nil
}

func (f *fakeClient) calls(which string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch which {
	case "device":
		return f.deviceCalls
	case "profiles":
		return f.profileCalls
	case "schedules":
		return f.scheduleCalls
	case "createProfile":
		return f.createProfiles
	case "deleteProfile":
		return f.deleteProfiles
	case "createSchedule":
		return f.createScheds
	case "deleteSchedule":
		return f.deleteScheds
	case "toggle":
		return f.toggleCalls
	}
	return 0
}
