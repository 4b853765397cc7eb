package models

import "time"

// Profile is a brew profile as returned by the cloud API.
type Profile struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	ProfileType            int       `json:"profile_type"`
	Ratio                  float64   `json:"ratio"`
	BloomEnabled           bool      `json:"bloom_enabled"`
	BloomRatio             float64   `json:"bloom_ratio"`
	BloomDuration          int       `json:"bloom_duration"` // seconds
	BloomTemperature       float64   `json:"bloom_temperature"`
	SSPulsesEnabled        bool      `json:"ss_pulses_enabled"`
	SSPulsesNumber         int       `json:"ss_pulses_number"`
	SSPulsesInterval       int       `json:"ss_pulses_interval"` // seconds
	SSPulseTemperatures    []float64 `json:"ss_pulse_temperatures,omitempty"`
	BatchPulsesEnabled     bool      `json:"batch_pulses_enabled"`
	BatchPulsesNumber      int       `json:"batch_pulses_number"`
	BatchPulsesInterval    int       `json:"batch_pulses_interval"` // seconds
	BatchPulseTemperatures []float64 `json:"batch_pulse_temperatures,omitempty"`
	IsDefault              bool      `json:"is_default"`
	LastUsedTime           time.Time `json:"last_used_time,omitempty"`
}

// ProfileSpec is the client-supplied payload for creating a profile.
// Server-derived fields (id, timestamps) are intentionally absent.
type ProfileSpec struct {
	Title                  string    `json:"title"`
	ProfileType            int       `json:"profile_type"`
	Ratio                  float64   `json:"ratio"`
	BloomEnabled           bool      `json:"bloom_enabled"`
	BloomRatio             float64   `json:"bloom_ratio"`
	BloomDuration          int       `json:"bloom_duration"`
	BloomTemperature       float64   `json:"bloom_temperature"`
	SSPulsesEnabled        bool      `json:"ss_pulses_enabled"`
	SSPulsesNumber         int       `json:"ss_pulses_number"`
	SSPulsesInterval       int       `json:"ss_pulses_interval"`
	SSPulseTemperatures    []float64 `json:"ss_pulse_temperatures,omitempty"`
	BatchPulsesEnabled     bool      `json:"batch_pulses_enabled"`
	BatchPulsesNumber      int       `json:"batch_pulses_number"`
	BatchPulsesInterval    int       `json:"batch_pulses_interval"`
	BatchPulseTemperatures []float64 `json:"batch_pulse_temperatures,omitempty"`
}
