package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventHouseCreated EventType = "house_created"
	EventHouseUpdated EventType = "house_updated"
	EventHouseDeleted EventType = "house_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	HouseID   string      `json:"house_id"`
	OwnerID   string      `json:"owner_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// HouseCreatedPayload payload.
type HouseCreatedPayload struct {
	Address    string  `json:"address"`
	Price      float64 `json:"price"`
	EstateType string  `json:"estate_type"`
	ImageCount int     `json:"image_count"`
}

// HouseDeletedPayload payload.
type HouseDeletedPayload struct {
	ImageCount int `json:"image_count"`
}
