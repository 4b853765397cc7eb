package models

import "time"

// DeviceSnapshot is the most recent full device payload from the cloud API.
// It is immutable once captured and replaced wholesale on each successful poll.
type DeviceSnapshot struct {
	BrewerID        string    `json:"brewer_id"`
	DisplayName     string    `json:"display_name"`
	FirmwareVersion string    `json:"firmware_version"`
	WifiMacAddress  string    `json:"wifi_mac_address,omitempty"`
	BtMacAddress    string    `json:"bt_mac_address,omitempty"`
	Elevation       int       `json:"elevation"`
	LidClosed       bool      `json:"lid_closed"`
	CarafePresent   bool      `json:"carafe_present"`
	HeaterOn        bool      `json:"heater_on"`
	MissingWater    bool      `json:"missing_water"`
	Brewing         bool      `json:"brewing"`
	ChimeVolume     int       `json:"chime_volume"`
	BasketType      string    `json:"basket_type,omitempty"` // SINGLE | BATCH
	LifetimeBrews   int64     `json:"lifetime_brews"`        // total brewing cycles since factory
	LifetimeMl      int64     `json:"lifetime_ml"`           // total water volume in mL since factory
	FetchedAt       time.Time `json:"fetched_at"`
}
