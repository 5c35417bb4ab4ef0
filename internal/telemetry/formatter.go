package telemetry

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/calendar"
)

// timestampLayouts are the accepted reading timestamp formats, tried in
// order. Gateways report RFC3339 but historical rows imported from the
// old dashboard use a bare datetime.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Formatter turns raw readings into formatted readings carrying the
// calendar keys. Ingestion is fail-soft: a reading with an unparseable
// timestamp is logged and skipped, never aborts the batch.
type Formatter struct {
	log *logrus.Entry
}

// NewFormatter creates a formatter logging under the given logger.
func NewFormatter(log *logrus.Logger) *Formatter {
	return &Formatter{log: log.WithField("component", "formatter")}
}

// Format converts raw readings (any order) into formatted readings
// sorted ascending by timestamp. Output is 1:1 with parseable input;
// missing moisture channels fall back to 0 so downstream averaging
// stays total.
func (f *Formatter) Format(raw []RawReading) []FormattedReading {
	formatted := make([]FormattedReading, 0, len(raw))

	for _, r := range raw {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			f.log.WithFields(logrus.Fields{
				"timestamp": r.Timestamp,
			}).Warn("Skipping reading with unparseable timestamp")
			continue
		}

		formatted = append(formatted, newFormatted(ts, r))
	}

	sort.Slice(formatted, func(i, j int) bool {
		return formatted[i].Date.Before(formatted[j].Date)
	})

	return formatted
}

func newFormatted(ts time.Time, r RawReading) FormattedReading {
	ts = ts.UTC()
	return FormattedReading{
		Date:         ts,
		Moisture1:    valueOrZero(r.Moisture1),
		Moisture2:    valueOrZero(r.Moisture2),
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		BatteryLevel: r.BatteryLevel,

		Year:      ts.Year(),
		Month:     ts.Month(),
		MonthName: calendar.MonthName(ts),
		ISOWeek:   calendar.ISOWeek(ts),
		MonthWeek: calendar.MonthWeek(ts),
		Day:       ts.Day(),

		Clock:         calendar.FormatClock(ts),
		FormattedDate: calendar.FormatDate(ts),
	}
}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
