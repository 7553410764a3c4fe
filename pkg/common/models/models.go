package models

import "time"

// Event is the envelope written to the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // clinic.record.created, clinic.record.updated, clinic.record.deleted
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
