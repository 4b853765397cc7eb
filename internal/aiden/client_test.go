package aiden

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brewsync/internal/models"
	"brewsync/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewHTTPClient(Config{
		BaseURL:  srv.URL,
		Email:    "owner@example.com",
		Password: "secret",
	}, testPolicy(), nil)
	return c, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func loginHandler(t *testing.T, logins *int, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*logins++
		writeJSON(t, w, map[string]string{"accessToken": token})
	}
}

func deviceList() []map[string]any {
	return []map[string]any{{
		"id":                     "brewer-1",
		"displayName":            "Kitchen Aiden",
		"firmwareVersion":        "1.2.3",
		"elevation":              120,
		"lidClosed":              true,
		"carafePresent":          true,
		"heaterOn":               false,
		"missingWater":           false,
		"brewing":                false,
		"chimeVolume":            2,
		"batchBrewBasketPresent": true,
		"totalBrewingCycles":     42,
		"totalWaterVolumeMl":     9000,
	}}
}

func TestDeviceFetchMapsPayload(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		writeJSON(t, w, deviceList())
	})

	c, _ := newTestClient(t, mux)
	snap, err := c.Device(context.Background())
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if snap.BrewerID != "brewer-1" || snap.DisplayName != "Kitchen Aiden" {
		t.Fatalf("unexpected identity fields: %+v", snap)
	}
	if snap.LifetimeBrews != 42 || snap.LifetimeMl != 9000 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.BasketType != "BATCH" {
		t.Fatalf("expected BATCH basket, got %q", snap.BasketType)
	}
	if snap.FetchedAt.IsZero() {
		t.Fatalf("expected FetchedAt to be set")
	}
	if logins != 1 {
		t.Fatalf("expected lazy login exactly once, got %d", logins)
	}
}

func TestUnauthorizedTriggersSingleReauthThenRetry(t *testing.T) {
	logins := 0
	deviceCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		deviceCalls++
		if deviceCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, deviceList())
	})

	c, _ := newTestClient(t, mux)
	if _, err := c.Device(context.Background()); err != nil {
		t.Fatalf("Device after reauth: %v", err)
	}
	if deviceCalls != 2 {
		t.Fatalf("expected exactly one retry of the original call, got %d calls", deviceCalls)
	}
	if logins != 2 { // lazy login + reauth
		t.Fatalf("expected 2 logins, got %d", logins)
	}
}

func TestRepeatedUnauthorizedIsAuthExpired(t *testing.T) {
	logins := 0
	deviceCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		deviceCalls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Device(context.Background())
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if !IsAuthError(err) {
		t.Fatalf("expected IsAuthError to report true")
	}
	if deviceCalls != 2 {
		t.Fatalf("expected no further retries after second 401, got %d calls", deviceCalls)
	}
}

func TestTransientFailuresRetriedThenSurfaced(t *testing.T) {
	logins := 0
	deviceCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		deviceCalls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Device(context.Background())
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if deviceCalls != 4 { // initial + 3 retries
		t.Fatalf("expected 4 attempts, got %d", deviceCalls)
	}
}

func TestTransientRecoversWithinBudget(t *testing.T) {
	logins := 0
	deviceCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		deviceCalls++
		if deviceCalls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, deviceList())
	})

	c, _ := newTestClient(t, mux)
	if _, err := c.Device(context.Background()); err != nil {
		t.Fatalf("expected recovery within retry budget: %v", err)
	}
	if deviceCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", deviceCalls)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	logins := 0
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, deviceList())
	})
	mux.HandleFunc("/devices/brewer-1/profiles/p1", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	c, _ := newTestClient(t, mux)
	err := c.DeleteProfile(context.Background(), "p1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt for 4xx, got %d", calls)
	}
}

func TestBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Device(context.Background())
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestToggleSchedulePatchesEnabled(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, deviceList())
	})
	var gotMethod string
	var gotBody map[string]bool
	mux.HandleFunc("/devices/brewer-1/schedules/s1", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux)
	if err := c.ToggleSchedule(context.Background(), "s1", true); err != nil {
		t.Fatalf("ToggleSchedule: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	if !gotBody["enabled"] {
		t.Fatalf("expected enabled=true in body, got %v", gotBody)
	}
}

func TestCreateScheduleRoundTrip(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", loginHandler(t, &logins, "tok"))
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, deviceList())
	})
	mux.HandleFunc("/devices/brewer-1/schedules", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		in["id"] = "s42"
		writeJSON(t, w, in)
	})

	c, _ := newTestClient(t, mux)
	spec := models.ScheduleSpec{
		Enabled:       true,
		Days:          [7]bool{false, true, true, true, true, true, false},
		SecondOfDay:   7 * 3600,
		AmountOfWater: 420,
		ProfileID:     "p1",
	}
	created, err := c.CreateSchedule(context.Background(), spec)
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if created.ID != "s42" {
		t.Fatalf("expected server id, got %q", created.ID)
	}
	if created.SecondOfDay != 7*3600 || created.AmountOfWater != 420 {
		t.Fatalf("round-trip mismatch: %+v", created)
	}
	if created.Days != spec.Days {
		t.Fatalf("days mismatch: %v vs %v", created.Days, spec.Days)
	}
}
