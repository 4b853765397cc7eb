package aiden

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"brewsync/internal/logger"
	"brewsync/internal/models"
	"brewsync/internal/retry"
)

// Client is the remote session client the sync core consumes. All calls
// re-authenticate once on 401 and retry transient failures internally.
type Client interface {
	Device(ctx context.Context) (models.DeviceSnapshot, error)
	Profiles(ctx context.Context) ([]models.Profile, error)
	Schedules(ctx context.Context) ([]models.Schedule, error)
	CreateProfile(ctx context.Context, spec models.ProfileSpec) (models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	CreateSchedule(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ToggleSchedule(ctx context.Context, id string, enabled bool) error
}

const (
	userAgent      = "brewsync/1"
	defaultTimeout = 15 * time.Second

	pathLogin     = "/auth/login"
	pathDevices   = "/devices"
	pathProfiles  = "/devices/%s/profiles"
	pathProfile   = "/devices/%s/profiles/%s"
	pathSchedules = "/devices/%s/schedules"
	pathSchedule  = "/devices/%s/schedules/%s"
)

// Config holds the cloud endpoint and account credentials.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// HTTPClient talks to the vendor cloud API over plain JSON/HTTP.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	policy retry.Policy
	log    *logger.Logger

	mu       sync.Mutex
	token    string
	brewerID string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client; it does not touch the network until the
// first call.
func NewHTTPClient(cfg Config, policy retry.Policy, log *logger.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		policy: policy,
		log:    log,
	}
}

// ---- wire payloads (vendor field names) ----

type deviceWire struct {
	ID                      string `json:"id"`
	DisplayName             string `json:"displayName"`
	FirmwareVersion         string `json:"firmwareVersion"`
	WifiMacAddress          string `json:"wifiMacAddress"`
	BtMacAddress            string `json:"btMacAddress"`
	Elevation               int    `json:"elevation"`
	LidClosed               bool   `json:"lidClosed"`
	CarafePresent           bool   `json:"carafePresent"`
	HeaterOn                bool   `json:"heaterOn"`
	MissingWater            bool   `json:"missingWater"`
	Brewing                 bool   `json:"brewing"`
	ChimeVolume             int    `json:"chimeVolume"`
	SingleBrewBasketPresent bool   `json:"singleBrewBasketPresent"`
	BatchBrewBasketPresent  bool   `json:"batchBrewBasketPresent"`
	TotalBrewingCycles      int64  `json:"totalBrewingCycles"`
	TotalWaterVolumeMl      int64  `json:"totalWaterVolumeMl"`
}

func (w deviceWire) snapshot(now time.Time) models.DeviceSnapshot {
	basket := ""
	switch {
	case w.SingleBrewBasketPresent:
		basket = "SINGLE"
	case w.BatchBrewBasketPresent:
		basket = "BATCH"
	}
	return models.DeviceSnapshot{
		BrewerID:        w.ID,
		DisplayName:     w.DisplayName,
		FirmwareVersion: w.FirmwareVersion,
		WifiMacAddress:  w.WifiMacAddress,
		BtMacAddress:    w.BtMacAddress,
		Elevation:       w.Elevation,
		LidClosed:       w.LidClosed,
		CarafePresent:   w.CarafePresent,
		HeaterOn:        w.HeaterOn,
		MissingWater:    w.MissingWater,
		Brewing:         w.Brewing,
		ChimeVolume:     w.ChimeVolume,
		BasketType:      basket,
		LifetimeBrews:   w.TotalBrewingCycles,
		LifetimeMl:      w.TotalWaterVolumeMl,
		FetchedAt:       now.UTC(),
	}
}

type profileWire struct {
	ID                     string    `json:"id,omitempty"`
	Title                  string    `json:"title"`
	ProfileType            int       `json:"profileType"`
	Ratio                  float64   `json:"ratio"`
	BloomEnabled           bool      `json:"bloomEnabled"`
	BloomRatio             float64   `json:"bloomRatio"`
	BloomDuration          int       `json:"bloomDuration"`
	BloomTemperature       float64   `json:"bloomTemperature"`
	SSPulsesEnabled        bool      `json:"ssPulsesEnabled"`
	SSPulsesNumber         int       `json:"ssPulsesNumber"`
	SSPulsesInterval       int       `json:"ssPulsesInterval"`
	SSPulseTemperatures    []float64 `json:"ssPulseTemperatures"`
	BatchPulsesEnabled     bool      `json:"batchPulsesEnabled"`
	BatchPulsesNumber      int       `json:"batchPulsesNumber"`
	BatchPulsesInterval    int       `json:"batchPulsesInterval"`
	BatchPulseTemperatures []float64 `json:"batchPulseTemperatures"`
	IsDefaultProfile       bool      `json:"isDefaultProfile,omitempty"`
}

func (w profileWire) profile() models.Profile {
	return models.Profile{
		ID:                     w.ID,
		Title:                  w.Title,
		ProfileType:            w.ProfileType,
		Ratio:                  w.Ratio,
		BloomEnabled:           w.BloomEnabled,
		BloomRatio:             w.BloomRatio,
		BloomDuration:          w.BloomDuration,
		BloomTemperature:       w.BloomTemperature,
		SSPulsesEnabled:        w.SSPulsesEnabled,
		SSPulsesNumber:         w.SSPulsesNumber,
		SSPulsesInterval:       w.SSPulsesInterval,
		SSPulseTemperatures:    w.SSPulseTemperatures,
		BatchPulsesEnabled:     w.BatchPulsesEnabled,
		BatchPulsesNumber:      w.BatchPulsesNumber,
		BatchPulsesInterval:    w.BatchPulsesInterval,
		BatchPulseTemperatures: w.BatchPulseTemperatures,
		IsDefault:              w.IsDefaultProfile,
	}
}

func profileWireFromSpec(s models.ProfileSpec) profileWire {
	return profileWire{
		Title:                  s.Title,
		ProfileType:            s.ProfileType,
		Ratio:                  s.Ratio,
		BloomEnabled:           s.BloomEnabled,
		BloomRatio:             s.BloomRatio,
		BloomDuration:          s.BloomDuration,
		BloomTemperature:       s.BloomTemperature,
		SSPulsesEnabled:        s.SSPulsesEnabled,
		SSPulsesNumber:         s.SSPulsesNumber,
		SSPulsesInterval:       s.SSPulsesInterval,
		SSPulseTemperatures:    s.SSPulseTemperatures,
		BatchPulsesEnabled:     s.BatchPulsesEnabled,
		BatchPulsesNumber:      s.BatchPulsesNumber,
		BatchPulsesInterval:    s.BatchPulsesInterval,
		BatchPulseTemperatures: s.BatchPulseTemperatures,
	}
}

type scheduleWire struct {
	ID            string `json:"id,omitempty"`
	Days          []bool `json:"days"`
	SecondOfDay   int    `json:"secondFromStartOfTheDay"`
	Enabled       bool   `json:"enabled"`
	AmountOfWater int    `json:"amountOfWater"`
	ProfileID     string `json:"profileId"`
}

func (w scheduleWire) schedule() models.Schedule {
	s := models.Schedule{
		ID:            w.ID,
		Enabled:       w.Enabled,
		SecondOfDay:   w.SecondOfDay,
		AmountOfWater: w.AmountOfWater,
		ProfileID:     w.ProfileID,
	}
	for i := 0; i < len(w.Days) && i < 7; i++ {
		s.Days[i] = w.Days[i]
	}
	return s
}

func scheduleWireFromSpec(s models.ScheduleSpec) scheduleWire {
	return scheduleWire{
		Days:          s.Days[:],
		SecondOfDay:   s.SecondOfDay,
		Enabled:       s.Enabled,
		AmountOfWater: s.AmountOfWater,
		ProfileID:     s.ProfileID,
	}
}

// ---- public operations ----

// Device fetches the account's brewer and returns a fresh snapshot.
// The brewer id from the payload is kept for collection URLs.
func (c *HTTPClient) Device(ctx context.Context) (models.DeviceSnapshot, error) {
	var devices []deviceWire
	if err := c.do(ctx, http.MethodGet, pathDevices+"?dataType=real", nil, &devices); err != nil {
		return models.DeviceSnapshot{}, err
	}
	if len(devices) == 0 {
		return models.DeviceSnapshot{}, &APIError{Status: http.StatusNotFound, Message: "no brewers on this account"}
	}
	d := devices[0]
	if d.ID == "" {
		return models.DeviceSnapshot{}, &APIError{Status: http.StatusBadGateway, Message: "device payload missing id"}
	}
	c.mu.Lock()
	c.brewerID = d.ID
	c.mu.Unlock()
	return d.snapshot(time.Now()), nil
}

func (c *HTTPClient) Profiles(ctx context.Context) ([]models.Profile, error) {
	id, err := c.brewer(ctx)
	if err != nil {
		return nil, err
	}
	var wires []profileWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathProfiles, id), nil, &wires); err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.profile())
	}
	return out, nil
}

func (c *HTTPClient) Schedules(ctx context.Context) ([]models.Schedule, error) {
	id, err := c.brewer(ctx)
	if err != nil {
		return nil, err
	}
	var wires []scheduleWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathSchedules, id), nil, &wires); err != nil {
		return nil, err
	}
	out := make([]models.Schedule, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.schedule())
	}
	return out, nil
}

func (c *HTTPClient) CreateProfile(ctx context.Context, spec models.ProfileSpec) (models.Profile, error) {
	id, err := c.brewer(ctx)
	if err != nil {
		return models.Profile{}, err
	}
	var created profileWire
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf(pathProfiles, id), profileWireFromSpec(spec), &created); err != nil {
		return models.Profile{}, err
	}
	if created.ID == "" {
		return models.Profile{}, &APIError{Status: http.StatusBadGateway, Message: "profile creation response missing id"}
	}
	return created.profile(), nil
}

func (c *HTTPClient) DeleteProfile(ctx context.Context, profileID string) error {
	id, err := c.brewer(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf(pathProfile, id, profileID), nil, nil)
}

func (c *HTTPClient) CreateSchedule(ctx context.Context, spec models.ScheduleSpec) (models.Schedule, error) {
	id, err := c.brewer(ctx)
	if err != nil {
		return models.Schedule{}, err
	}
	var created scheduleWire
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf(pathSchedules, id), scheduleWireFromSpec(spec), &created); err != nil {
		return models.Schedule{}, err
	}
	if created.ID == "" {
		return models.Schedule{}, &APIError{Status: http.StatusBadGateway, Message: "schedule creation response missing id"}
	}
	return created.schedule(), nil
}

func (c *HTTPClient) DeleteSchedule(ctx context.Context, scheduleID string) error {
	id, err := c.brewer(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf(pathSchedule, id, scheduleID), nil, nil)
}

func (c *HTTPClient) ToggleSchedule(ctx context.Context, scheduleID string, enabled bool) error {
	id, err := c.brewer(ctx)
	if err != nil {
		return err
	}
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf(pathSchedule, id, scheduleID), body, nil)
}

// ---- session plumbing ----

// brewer returns the cached brewer id, fetching the device once if needed.
func (c *HTTPClient) brewer(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.brewerID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}
	if _, err := c.Device(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	id = c.brewerID
	c.mu.Unlock()
	return id, nil
}

// authenticate logs in and stores the bearer token. Credential rejections
// (400/401/403) are fatal; 5xx and network errors go through the normal
// transient budget.
func (c *HTTPClient) authenticate(ctx context.Context) error {
	creds := map[string]string{"email": c.cfg.Email, "password": c.cfg.Password}
	var lastErr error
	for attempt := 0; ; attempt++ {
		status, body, err := c.send(ctx, http.MethodPost, pathLogin, creds, false)
		if err == nil {
			switch {
			case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden:
				return ErrBadCredentials
			case status >= 200 && status < 300:
				var parsed struct {
					AccessToken string `json:"accessToken"`
				}
				if err := json.Unmarshal(body, &parsed); err != nil || parsed.AccessToken == "" {
					return fmt.Errorf("aiden: login response missing access token")
				}
				c.mu.Lock()
				c.token = parsed.AccessToken
				c.mu.Unlock()
				return nil
			default:
				lastErr = &APIError{Status: status}
			}
		} else {
			lastErr = err
		}
		if attempt >= c.policy.MaxRetries {
			return &TransientError{Attempts: attempt + 1, Err: lastErr}
		}
		if err := c.sleep(ctx, c.policy.Delay(attempt+1)); err != nil {
			return err
		}
	}
}

// do runs one logical API call: lazy login, bounded transient retries, and
// exactly one re-authentication on 401 followed by one retry.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	c.mu.Lock()
	haveToken := c.token != ""
	c.mu.Unlock()
	if !haveToken {
		if err := c.authenticate(ctx); err != nil {
			return err
		}
	}

	reauthed := false
	var lastErr error
	for attempt := 0; ; {
		status, body, err := c.send(ctx, method, path, in, true)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("aiden: decode %s %s: %w", method, path, err)
			}
			return nil
		case status == http.StatusUnauthorized:
			if reauthed {
				return ErrAuthExpired
			}
			if c.log != nil {
				c.log.Warnw("aiden_unauthorized_reauthenticating", "method", method, "path", path)
			}
			if err := c.authenticate(ctx); err != nil {
				return err
			}
			reauthed = true
			continue // one retry of the original call, outside the transient budget
		case status >= 500:
			lastErr = &APIError{Status: status, Message: snippet(body)}
		default:
			return &APIError{Status: status, Message: snippet(body)}
		}

		if attempt >= c.policy.MaxRetries {
			return &TransientError{Attempts: attempt + 1, Err: lastErr}
		}
		attempt++
		if c.log != nil {
			c.log.Debugw("aiden_retrying", "method", method, "path", path, "attempt", attempt, "err", lastErr)
		}
		if err := c.sleep(ctx, c.policy.Delay(attempt)); err != nil {
			return err
		}
	}
}

// send issues a single HTTP request and returns status plus body bytes.
func (c *HTTPClient) send(ctx context.Context, method, path string, in any, withAuth bool) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("aiden: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *HTTPClient) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// snippet trims an error body for inclusion in messages.
func snippet(body []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
