package service

import (
	"context"
	"errors"
	"sync"

	"brewsync/internal/aiden"
	"brewsync/internal/logger"
	"brewsync/internal/models"
)

// ErrProfileNotFound means the requested profile id is not in the current
// remote collection.
var ErrProfileNotFound = errors.New("profile not found")

// ProfilesService reads the profile collection lazily and serializes
// mutations against the remote API. After a successful mutation the cached
// collection is invalidated, not eagerly re-fetched: the next read refills.
type ProfilesService struct {
	client aiden.Client
	cache  *SnapshotCache
	log    *logger.Logger

	fetchMu sync.Mutex // one collection fetch at a time
}

func NewProfilesService(client aiden.Client, cache *SnapshotCache, log *logger.Logger) *ProfilesService {
	return &ProfilesService{client: client, cache: cache, log: log}
}

var _ Profiles = (*ProfilesService)(nil)

// List serves the cached collection, fetching it on first access or after
// a mutation invalidated it.
func (s *ProfilesService) List(ctx context.Context) ([]models.Profile, error) {
	if cached, ok := s.cache.Profiles(); ok {
		return cached, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	// Another caller may have filled the slot while we waited.
	if cached, ok := s.cache.Profiles(); ok {
		return cached, nil
	}

	profiles, err := s.client.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetProfiles(profiles)
	return profiles, nil
}

func (s *ProfilesService) Get(ctx context.Context, id string) (models.Profile, error) {
	profiles, err := s.List(ctx)
	if err != nil {
		return models.Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Profile{}, ErrProfileNotFound
}

// Create validates locally, then creates remotely. Out-of-range input is
// rejected without a network round-trip. On failure the cache is untouched.
func (s *ProfilesService) Create(ctx context.Context, spec models.ProfileSpec) (models.Profile, error) {
	if err := validateProfileSpec(spec); err != nil {
		return models.Profile{}, err
	}
	created, err := s.client.CreateProfile(ctx, spec)
	if err != nil {
		return models.Profile{}, err
	}
	s.cache.InvalidateProfiles()
	if s.log != nil {
		s.log.Infow("profile_created", "id", created.ID, "title", created.Title)
	}
	return created, nil
}

func (s *ProfilesService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "profile_id", Reason: "must not be empty"}
	}
	if err := s.client.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateProfiles()
	if s.log != nil {
		s.log.Infow("profile_deleted", "id", id)
	}
	return nil
}
