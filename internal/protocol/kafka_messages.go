package protocol

import (
	"encoding/json"
	"time"
)

// ReadingMessage is the internal envelope for the readings topic
type ReadingMessage struct {
	ConnectionID string      `json:"connection_id"`
	FieldID      string      `json:"field_id"`
	Farm         string      `json:"farm"`
	ReceivedAt   time.Time   `json:"received_at"`
	Data         ReadingData `json:"data"`
}

// IrrigationEvent is the message format for irrigation and alert events
// published by the control service and consumed by notification.
type IrrigationEvent struct {
	Type      string    `json:"type"`
	FieldID   string    `json:"field_id"`
	Farm      string    `json:"farm"`
	Sensor    string    `json:"sensor,omitempty"`
	Moisture1 float64   `json:"moisture1"`
	Moisture2 float64   `json:"moisture2"`
	Threshold float64   `json:"threshold,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
	EventID   int64     `json:"event_id,omitempty"`
}

const (
	EventIrrigationStarted = "IRRIGATION_STARTED"
	EventIrrigationStopped = "IRRIGATION_STOPPED"
	EventLowMoistureAlert  = "LOW_MOISTURE_ALERT"
	EventAlertCleared      = "ALERT_CLEARED"
)

// EncodeReadingMessage encodes a ReadingMessage to JSON
func EncodeReadingMessage(msg *ReadingMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeReadingMessage decodes JSON to ReadingMessage
func DecodeReadingMessage(data []byte) (*ReadingMessage, error) {
	var msg ReadingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EncodeIrrigationEvent encodes an IrrigationEvent to JSON
func EncodeIrrigationEvent(event *IrrigationEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeIrrigationEvent decodes JSON to IrrigationEvent
func DecodeIrrigationEvent(data []byte) (*IrrigationEvent, error) {
	var event IrrigationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
