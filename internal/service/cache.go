package service

import (
	"sync"
	"time"

	"brewsync/internal/models"
)

// cacheSlot is one independently invalidatable cache cell. Reads and writes
// to a slot are mutually exclusive; slots never block each other.
type cacheSlot[T any] struct {
	mu        sync.RWMutex
	value     T
	valid     bool
	version   uint64
	updatedAt time.Time
}

func (s *cacheSlot[T]) get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.valid
}

func (s *cacheSlot[T]) set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.valid = true
	s.version++
	s.updatedAt = time.Now()
}

func (s *cacheSlot[T]) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.valid = false
	s.version++
}

func (s *cacheSlot[T]) stale(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return true
	}
	return time.Since(s.updatedAt) > maxAge
}

func (s *cacheSlot[T]) currentVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SnapshotCache holds the latest successfully fetched device, profile and
// schedule state. Gets never touch the network.
type SnapshotCache struct {
	device    cacheSlot[models.DeviceSnapshot]
	profiles  cacheSlot[[]models.Profile]
	schedules cacheSlot[[]models.Schedule]
}

func NewSnapshotCache() *SnapshotCache { return &SnapshotCache{} }

func (c *SnapshotCache) Device() (models.DeviceSnapshot, bool) { return c.device.get() }
func (c *SnapshotCache) SetDevice(s models.DeviceSnapshot)     { c.device.set(s) }
func (c *SnapshotCache) DeviceStale(maxAge time.Duration) bool { return c.device.stale(maxAge) }
func (c *SnapshotCache) DeviceVersion() uint64                 { return c.device.currentVersion() }

func (c *SnapshotCache) Profiles() ([]models.Profile, bool) { return c.profiles.get() }
func (c *SnapshotCache) SetProfiles(p []models.Profile)     { c.profiles.set(p) }
func (c *SnapshotCache) InvalidateProfiles()                { c.profiles.invalidate() }

func (c *SnapshotCache) Schedules() ([]models.Schedule, bool) { return c.schedules.get() }
func (c *SnapshotCache) SetSchedules(s []models.Schedule)     { c.schedules.set(s) }
func (c *SnapshotCache) InvalidateSchedules()                 { c.schedules.invalidate() }
