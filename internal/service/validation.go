package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"brewsync/internal/models"
)

// ValidationError is a client-side rejection: the input never left the
// process, no network round-trip was spent on it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Ranges the vendor API enforces; checked locally before any network call.
const (
	minRatio      = 14.0
	maxRatio      = 20.0
	minBloomRatio = 1.0
	maxBloomRatio = 3.0
	minBloomSecs  = 1
	maxBloomSecs  = 120
	minBrewTempC  = 50.0
	maxBrewTempC  = 99.0
	minPulses     = 1
	maxPulses     = 10
	minPulseGapS  = 5
	maxPulseGapS  = 60

	minWaterMl   = 150
	maxWaterMl   = 1500
	secondsInDay = 86400
)

var profileIDPattern = regexp.MustCompile(`^(p|plocal)\d+$`)

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// halfStep reports whether v sits on a 0.5 grid.
func halfStep(v float64) bool {
	scaled := v * 2
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

func validateProfileSpec(s models.ProfileSpec) error {
	if strings.TrimSpace(s.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if s.Ratio < minRatio || s.Ratio > maxRatio || !halfStep(s.Ratio) {
		return invalid("ratio", "must be %.0f-%.0f in steps of 0.5, got %g", minRatio, maxRatio, s.Ratio)
	}
	if s.BloomEnabled {
		if s.BloomRatio < minBloomRatio || s.BloomRatio > maxBloomRatio || !halfStep(s.BloomRatio) {
			return invalid("bloom_ratio", "must be %.0f-%.0f in steps of 0.5, got %g", minBloomRatio, maxBloomRatio, s.BloomRatio)
		}
		if s.BloomDuration < minBloomSecs || s.BloomDuration > maxBloomSecs {
			return invalid("bloom_duration", "must be %d-%ds, got %d", minBloomSecs, maxBloomSecs, s.BloomDuration)
		}
		if s.BloomTemperature < minBrewTempC || s.BloomTemperature > maxBrewTempC {
			return invalid("bloom_temperature", "must be %.0f-%.0f°C, got %g", minBrewTempC, maxBrewTempC, s.BloomTemperature)
		}
	}
	if s.SSPulsesEnabled {
		if err := validatePulses("ss_pulses", s.SSPulsesNumber, s.SSPulsesInterval, s.SSPulseTemperatures); err != nil {
			return err
		}
	}
	if s.BatchPulsesEnabled {
		if err := validatePulses("batch_pulses", s.BatchPulsesNumber, s.BatchPulsesInterval, s.BatchPulseTemperatures); err != nil {
			return err
		}
	}
	return nil
}

func validatePulses(field string, number, interval int, temps []float64) error {
	if number < minPulses || number > maxPulses {
		return invalid(field+"_number", "must be %d-%d, got %d", minPulses, maxPulses, number)
	}
	if interval < minPulseGapS || interval > maxPulseGapS {
		return invalid(field+"_interval", "must be %d-%ds, got %d", minPulseGapS, maxPulseGapS, interval)
	}
	for i, temp := range temps {
		if temp < minBrewTempC || temp > maxBrewTempC {
			return invalid(field+"_temperatures", "entry %d must be %.0f-%.0f°C, got %g", i, minBrewTempC, maxBrewTempC, temp)
		}
	}
	return nil
}

func validateScheduleSpec(s models.ScheduleSpec) error {
	if s.SecondOfDay < 0 || s.SecondOfDay >= secondsInDay {
		return invalid("second_of_day", "must be 0-%d, got %d", secondsInDay-1, s.SecondOfDay)
	}
	if s.AmountOfWater < minWaterMl || s.AmountOfWater > maxWaterMl {
		return invalid("amount_of_water", "must be %d-%dml, got %d", minWaterMl, maxWaterMl, s.AmountOfWater)
	}
	if !profileIDPattern.MatchString(s.ProfileID) {
		return invalid("profile_id", "must match p<number> or plocal<number>, got %q", s.ProfileID)
	}
	return nil
}
