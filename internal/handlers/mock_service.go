package handlers

import (
	"context"
	"net/http"
	"time"

	"brewsync/internal/models"
	"brewsync/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockBrewer struct {
	snap       models.DeviceSnapshot
	hasSnap    bool
	version    uint64
	stale      bool
	refreshErr error

	refreshCalls int
	lastForce    bool
}

func (m *mockBrewer) Snapshot() (models.DeviceSnapshot, bool) { return m.snap, m.hasSnap }
func (m *mockBrewer) SnapshotVersion() uint64                 { return m.version }
func (m *mockBrewer) IsStale(time.Duration) bool              { return m.stale }
func (m *mockBrewer) Refresh(_ context.Context, force bool) (models.DeviceSnapshot, error) {
	m.refreshCalls++
	m.lastForce = force
	if m.refreshErr != nil {
		return models.DeviceSnapshot{}, m.refreshErr
	}
	return m.snap, nil
}
func (m *mockBrewer) Run(context.Context, time.Duration) {}

type mockUsage struct {
	rollup    int64
	rollupErr error
	since     int64
	sinceErr  error
	resetErr  error
	pruned    int64
	pruneErr  error
	events    []models.BrewEvent
	eventsErr error

	lastPeriod service.Period
	resetCalls int
}

func (m *mockUsage) RecordFromSnapshot(context.Context, *models.DeviceSnapshot, models.DeviceSnapshot) error {
	return nil
}
func (m *mockUsage) Rollup(_ context.Context, p service.Period, _ time.Time) (int64, error) {
	m.lastPeriod = p
	return m.rollup, m.rollupErr
}
func (m *mockUsage) SinceBaseline(context.Context) (int64, error) { return m.since, m.sinceErr }
func (m *mockUsage) ResetBaseline(context.Context) error {
	m.resetCalls++
	return m.resetErr
}
func (m *mockUsage) Prune(context.Context) (int64, error) { return m.pruned, m.pruneErr }
func (m *mockUsage) Events(context.Context) ([]models.BrewEvent, error) {
	return m.events, m.eventsErr
}

type mockProfiles struct {
	profiles  []models.Profile
	listErr   error
	created   models.Profile
	createErr error
	deleteErr error

	createCalls int
	deleteCalls int
	lastSpec    models.ProfileSpec
	lastDeleted string
}

func (m *mockProfiles) List(context.Context) ([]models.Profile, error) {
	return m.profiles, m.listErr
}
func (m *mockProfiles) Get(_ context.Context, id string) (models.Profile, error) {
	if m.listErr != nil {
		return models.Profile{}, m.listErr
	}
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Profile{}, service.ErrProfileNotFound
}
func (m *mockProfiles) Create(_ context.Context, spec models.ProfileSpec) (models.Profile, error) {
	m.createCalls++
	m.lastSpec = spec
	return m.created, m.createErr
}
func (m *mockProfiles) Delete(_ context.Context, id string) error {
	m.deleteCalls++
	m.lastDeleted = id
	return m.deleteErr
}

type mockSchedules struct {
	schedules []models.Schedule
	listErr   error
	created   models.Schedule
	createErr error
	deleteErr error
	toggleErr error

	lastToggleID string
	lastEnabled  bool
}

func (m *mockSchedules) List(context.Context) ([]models.Schedule, error) {
	return m.schedules, m.listErr
}
func (m *mockSchedules) Create(_ context.Context, spec models.ScheduleSpec) (models.Schedule, error) {
	return m.created, m.createErr
}
func (m *mockSchedules) Delete(_ context.Context, id string) error { return m.deleteErr }
func (m *mockSchedules) Toggle(_ context.Context, id string, enabled bool) error {
	m.lastToggleID = id
	m.lastEnabled = enabled
	return m.toggleErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
