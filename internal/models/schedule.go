package models

// Schedule is a timed brew as returned by the cloud API.
// Days runs Sunday through Saturday, matching the vendor wire order.
type Schedule struct {
	ID            string  `json:"id"`
	Enabled       bool    `json:"enabled"`
	Days          [7]bool `json:"days"`
	SecondOfDay   int     `json:"second_of_day"` // seconds from local midnight
	AmountOfWater int     `json:"amount_of_water"`
	ProfileID     string  `json:"profile_id"`
}

// ScheduleSpec is the client-supplied payload for creating a schedule.
type ScheduleSpec struct {
	Enabled       bool    `json:"enabled"`
	Days          [7]bool `json:"days"`
	SecondOfDay   int     `json:"second_of_day"`
	AmountOfWater int     `json:"amount_of_water"`
	ProfileID     string  `json:"profile_id"`
}
