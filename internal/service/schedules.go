package service

import (
	"context"
	"sync"

	"brewsync/internal/aiden"
	"brewsync/internal/logger"
	"brewsync/internal/models"
)

// SchedulesService mirrors ProfilesService for brew schedules: lazy
// collection reads, validated mutations, invalidate-on-success.
type SchedulesService struct {
	client aiden.Client
	cache  *SnapshotCache
	log    *logger.Logger

	fetchMu sync.Mutex
}

func NewSchedulesService(client aiden.Client, cache *SnapshotCache, log *logger.Logger) *SchedulesService {
	return &SchedulesService{client: client, cache: cache, log: log}
}

var _ Schedules = (*SchedulesService)(nil)

func (s *SchedulesService) List(ctx context.Context) ([]models.Schedule, error) {
	if cached, ok := s.cache.Schedules(); ok {
		return cached, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	if cached, ok := s.cache.Schedules(); ok {
		return cached, nil
	}

	schedules, err := s.client.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetSchedules(schedules)
	return schedules, nil
}

func (s *SchedulesService) Create(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error) {
	if err := validateScheduleSpec(spec); err != nil {
		return models.Schedule{}, err
	}
	created, err := s.client.CreateSchedule(ctx, spec)
	if err != nil {
		return models.Schedule{}, err
	}
	s.cache.InvalidateSchedules()
	if s.log != nil {
		s.log.Infow("schedule_created", "id", created.ID, "profile_id", created.ProfileID)
	}
	return created, nil
}

func (s *SchedulesService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "schedule_id", Reason: "must not be empty"}
	}
	if err := s.client.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateSchedules()
	if s.log != nil {
		s.log.Infow("schedule_deleted", "id", id)
	}
	return nil
}

func (s *SchedulesService) Toggle(ctx context.Context, id string, enabled bool) error {
	if id == "" {
		return &ValidationError{Field: "schedule_id", Reason: "must not be empty"}
	}
	if err := s.client.ToggleSchedule(ctx, id, enabled); err != nil {
		return err
	}
	s.cache.InvalidateSchedules()
	if s.log != nil {
		s.log.Infow("schedule_toggled", "id", id, "enabled", enabled)
	}
	return nil
}
