// Package dashboard assembles the data the irrigation dashboard renders:
// the full formatted history with its day and month-week buckets, the
// user's month/week/day selection, and the live current-value view.
//
// Loading is a full re-derive: every Load fetches the complete history
// and recomputes all buckets. Only the current-value view is updated by
// the periodic refresh cycle.
package dashboard

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/aggregation"
	"github.com/agrosense/irrigation-server/internal/selection"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

// ReadingSource provides the persisted reading history. Satisfied by
// store.DB.
type ReadingSource interface {
	GetSoilReadings(fieldID string) ([]*store.SoilReadingRow, error)
}

// Snapshot is one fully-derived view of a field's history.
type Snapshot struct {
	Formatted []telemetry.FormattedReading
	Days      []aggregation.DayBucket
	Weeks     []aggregation.MonthWeekBucket
	Selection selection.State
	LoadedAt  time.Time
}

// Service loads and filters field history.
type Service struct {
	source    ReadingSource
	formatter *telemetry.Formatter
	log       *logrus.Entry
}

// NewService creates a dashboard service.
func NewService(source ReadingSource, log *logrus.Logger) *Service {
	return &Service{
		source:    source,
		formatter: telemetry.NewFormatter(log),
		log:       log.WithField("component", "dashboard"),
	}
}

// Load fetches the full history for a field and derives all buckets.
// A fetch failure is fatal to this load attempt and surfaced to the
// caller as a retryable error; retry is simply calling Load again.
// The default month selection is computed here, once per load.
func (s *Service) Load(fieldID string) (*Snapshot, error) {
	rows, err := s.source.GetSoilReadings(fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for field %s: %w", fieldID, err)
	}

	raw := make([]telemetry.RawReading, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, rowToRaw(row))
	}

	formatted := s.formatter.Format(raw)
	days := aggregation.ToDayBuckets(formatted)
	weeks := aggregation.ToMonthWeekBuckets(days)

	sel := selection.NewState()
	sel.MonthKey = selection.DefaultMonthKey(days, time.Now())

	s.log.WithFields(logrus.Fields{
		"field":    fieldID,
		"readings": len(formatted),
		"days":     len(days),
		"month":    sel.MonthKey,
	}).Info("History loaded")

	return &Snapshot{
		Formatted: formatted,
		Days:      days,
		Weeks:     weeks,
		Selection: sel,
		LoadedAt:  time.Now(),
	}, nil
}

// View returns the subset of a snapshot matching its selection state.
func (s *Service) View(snap *Snapshot) selection.MonthView {
	view := selection.ByMonth(snap.Formatted, snap.Days, snap.Selection.MonthKey)
	view.Daily = selection.ByDay(view.Daily, snap.Selection.DayKey)
	if snap.Selection.WeekKey != "" {
		view.Weekly = selection.ByWeek(view.Weekly, snap.Selection.WeekKey)
	}
	return view
}

func rowToRaw(row *store.SoilReadingRow) telemetry.RawReading {
	m1, m2 := row.Moisture1, row.Moisture2
	return telemetry.RawReading{
		Timestamp:    row.Timestamp.UTC().Format(time.RFC3339),
		Moisture1:    &m1,
		Moisture2:    &m2,
		Temperature:  row.Temperature,
		Humidity:     row.Humidity,
		BatteryLevel: row.BatteryLevel,
	}
}
