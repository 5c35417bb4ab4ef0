package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	return nil
}

// UpsertField inserts or updates a field
func (db *DB) UpsertField(field *Field) error {
	query := `
		INSERT INTO fields (field_id, farm, lat, lon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (field_id) DO UPDATE
		SET farm = EXCLUDED.farm,
		    lat = EXCLUDED.lat,
		    lon = EXCLUDED.lon,
		    updated_at = CURRENT_TIMESTAMP
	`
	_, err := db.Exec(query, field.FieldID, field.Farm, field.Lat, field.Lon)
	return err
}

// GetField retrieves a field by ID
func (db *DB) GetField(fieldID string) (*Field, error) {
	query := `
		SELECT field_id, farm, lat, lon, created_at, updated_at
		FROM fields
		WHERE field_id = $1
	`

	var field Field
	err := db.QueryRow(query, fieldID).Scan(
		&field.FieldID,
		&field.Farm,
		&field.Lat,
		&field.Lon,
		&field.CreatedAt,
		&field.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &field, nil
}

// InsertSoilReading inserts a raw soil reading
func (db *DB) InsertSoilReading(reading *SoilReadingRow) error {
	query := `
		INSERT INTO soil_readings (
			field_id, timestamp, moisture1, moisture2,
			temperature, humidity, battery_level, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return db.QueryRow(
		query,
		reading.FieldID,
		reading.Timestamp,
		reading.Moisture1,
		reading.Moisture2,
		reading.Temperature,
		reading.Humidity,
		reading.BatteryLevel,
		reading.ReceivedAt,
	).Scan(&reading.ID)
}

// GetSoilReadings retrieves the full reading history for a field in
// insertion order. Callers must not rely on the ordering; the formatter
// re-sorts by timestamp defensively.
func (db *DB) GetSoilReadings(fieldID string) ([]*SoilReadingRow, error) {
	query := `
		SELECT id, field_id, timestamp, moisture1, moisture2,
		       temperature, humidity, battery_level, received_at
		FROM soil_readings
		WHERE field_id = $1
		ORDER BY id
	`

	rows, err := db.Query(query, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*SoilReadingRow
	for rows.Next() {
		var r SoilReadingRow
		if err := rows.Scan(
			&r.ID,
			&r.FieldID,
			&r.Timestamp,
			&r.Moisture1,
			&r.Moisture2,
			&r.Temperature,
			&r.Humidity,
			&r.BatteryLevel,
			&r.ReceivedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, &r)
	}

	return readings, rows.Err()
}

// GetLatestSoilReading retrieves the most recent reading for a field
func (db *DB) GetLatestSoilReading(fieldID string) (*SoilReadingRow, error) {
	query := `
		SELECT id, field_id, timestamp, moisture1, moisture2,
		       temperature, humidity, battery_level, received_at
		FROM soil_readings
		WHERE field_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var r SoilReadingRow
	err := db.QueryRow(query, fieldID).Scan(
		&r.ID,
		&r.FieldID,
		&r.Timestamp,
		&r.Moisture1,
		&r.Moisture2,
		&r.Temperature,
		&r.Humidity,
		&r.BatteryLevel,
		&r.ReceivedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// InsertIrrigationEvent inserts a new irrigation event entry
func (db *DB) InsertIrrigationEvent(event *IrrigationEventRow) error {
	query := `
		INSERT INTO irrigation_events (
			field_id, event_type, moisture1, moisture2,
			threshold_config, start_time, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING event_id
	`

	return db.QueryRow(
		query,
		event.FieldID,
		event.EventType,
		event.Moisture1,
		event.Moisture2,
		event.ThresholdConfig,
		event.StartTime,
		event.Status,
	).Scan(&event.EventID)
}

// CloseIrrigationEvent marks an irrigation event as finished
func (db *DB) CloseIrrigationEvent(eventID int64, endTime time.Time) error {
	query := `
		UPDATE irrigation_events
		SET status = $1, end_time = $2, updated_at = CURRENT_TIMESTAMP
		WHERE event_id = $3
	`

	_, err := db.Exec(query, EventStatusClosed, endTime, eventID)
	return err
}
