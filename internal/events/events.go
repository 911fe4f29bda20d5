package events

import "context"

// Streams
const (
	StreamScans    = "events:scan"
	StreamRegistry = "events:registry"
)

// Event types
const (
	EventScanRecorded         = "scan_recorded"
	EventScanIncrementFailed  = "scan_increment_failed"
	EventCreated              = "event_created"
	EventURLUpdated           = "event_url_updated"
	EventDeactivated          = "event_deactivated"
	EventRegistrationCreated  = "registration_created"
	EventAttendanceConfirmed  = "attendance_confirmed"
	EventRegistrationRefunded = "registration_refunded"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops everything. Used in tests and when redis is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
