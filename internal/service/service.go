package service

import (
	"context"
	"time"

	"brewsync/internal/aiden"
	"brewsync/internal/logger"
	"brewsync/internal/models"
	"brewsync/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Brewer exposes the poll scheduler and the cached device snapshot.
type Brewer interface {
	Snapshot() (models.DeviceSnapshot, bool)
	SnapshotVersion() uint64
	IsStale(maxAge time.Duration) bool
	Refresh(ctx context.Context, force bool) (models.DeviceSnapshot, error)
	Run(ctx context.Context, tick time.Duration)
}

// Usage exposes the water-usage ledger: rollups, baseline and retention.
type Usage interface {
	RecordFromSnapshot(ctx context.Context, previous *models.DeviceSnapshot, current models.DeviceSnapshot) error
	Rollup(ctx context.Context, period Period, asOf time.Time) (int64, error)
	SinceBaseline(ctx context.Context) (int64, error)
	ResetBaseline(ctx context.Context) error
	Prune(ctx context.Context) (int64, error)
	Events(ctx context.Context) ([]models.BrewEvent, error)
}

// Profiles is the mutation orchestrator and lazy reader for brew profiles.
type Profiles interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id string) (models.Profile, error)
	Create(ctx context.Context, spec models.ProfileSpec) (models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// Schedules is the mutation orchestrator and lazy reader for brew schedules.
type Schedules interface {
	List(ctx context.Context) ([]models.Schedule, error)
	Create(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string, enabled bool) error
}

// Config carries the service-level tuning knobs resolved from configuration.
type Config struct {
	SigningKey    string
	TokenTTL      time.Duration
	MinRefresh    time.Duration  // throttle window for non-forced refreshes
	RetentionDays int            // ledger retention, days
	Location      *time.Location // wall-clock zone for rollup boundaries
}

// Service aggregates all sub-services.
type Service struct {
	Brewer
	Usage
	Profiles
	Schedules
	Authorization
}

// NewService wires the repository layer and the remote client into concrete
// services sharing one snapshot cache.
func NewService(repos *repository.Repository, client aiden.Client, cfg Config, log *logger.Logger) *Service {
	cache := NewSnapshotCache()
	usage := NewUsageService(repos.Ledger, cache, cfg, log)
	return &Service{
		Brewer:        NewPollerService(client, cache, usage, cfg, log),
		Usage:         usage,
		Profiles:      NewProfilesService(client, cache, log),
		Schedules:     NewSchedulesService(client, cache, log),
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey, cfg.TokenTTL),
	}
}
