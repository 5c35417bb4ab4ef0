package telemetry

import (
	"time"
)

// RawReading is a soil-moisture measurement as returned by the reading
// store: an unparsed timestamp and two moisture channels, plus optional
// environment extras that may be absent on older gateway firmware.
type RawReading struct {
	Timestamp    string   `json:"timestamp"`
	Moisture1    *float64 `json:"sensor1"`
	Moisture2    *float64 `json:"sensor2"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	BatteryLevel *float64 `json:"batteryLevel,omitempty"`
}

// FormattedReading is a RawReading enriched with the calendar keys the
// aggregation and selection layers group on. Immutable once created.
type FormattedReading struct {
	Date         time.Time
	Moisture1    float64
	Moisture2    float64
	Temperature  *float64
	Humidity     *float64
	BatteryLevel *float64

	Year      int
	Month     time.Month
	MonthName string
	ISOWeek   int
	MonthWeek int
	Day       int

	Clock         string // "15:04"
	FormattedDate string // "Jan 2, 2006"
}

// CurrentMoisture is the point-in-time snapshot the irrigation decision
// operates on. Decisions always use the latest raw reading, never a
// bucket mean.
type CurrentMoisture struct {
	Moisture1 float64
	Moisture2 float64
	At        time.Time
}
