package store

import (
	"time"
)

// Field represents a monitored irrigation field
type Field struct {
	FieldID   string
	Farm      string
	Lat       *float64
	Lon       *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoilReadingRow is a persisted gateway measurement. Optional channels
// are nullable; the two moisture probes are always stored.
type SoilReadingRow struct {
	ID           int64
	FieldID      string
	Timestamp    time.Time
	Moisture1    float64
	Moisture2    float64
	Temperature  *float64
	Humidity     *float64
	BatteryLevel *float64
	ReceivedAt   time.Time
}

// IrrigationEventRow is a logged irrigation run
type IrrigationEventRow struct {
	EventID         int64
	FieldID         string
	EventType       string
	Moisture1       float64
	Moisture2       float64
	ThresholdConfig string // JSON
	StartTime       time.Time
	EndTime         *time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const (
	EventStatusActive = "ACTIVE"
	EventStatusClosed = "CLOSED"
)
