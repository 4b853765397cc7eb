package retry

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Initial != 500*time.Millisecond {
		t.Fatalf("expected initial 500ms got %v", p.Initial)
	}
	if p.Max != 5*time.Second {
		t.Fatalf("expected max 5s got %v", p.Max)
	}
	if p.MaxRetries != 3 {
		t.Fatalf("expected max retries 3 got %d", p.MaxRetries)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	p := Policy{Initial: 100 * time.Millisecond, Max: 350 * time.Millisecond, MaxRetries: 5}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		350 * time.Millisecond, // 400ms capped
		350 * time.Millisecond,
	}
	for i, w := range want {
		if d := p.Delay(i + 1); d != w {
			t.Fatalf("attempt %d expected %v got %v", i+1, w, d)
		}
	}
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected no delay got %v", d)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []Policy{
		{Initial: 0, Max: time.Second, MaxRetries: 1},
		{Initial: time.Second, Max: 0, MaxRetries: 1},
		{Initial: time.Second, Max: time.Second, MaxRetries: -1},
	}
	for i, p := range cases {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected validation error", i)
		}
	}
}
