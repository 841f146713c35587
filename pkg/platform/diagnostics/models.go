// Package diagnostics carries data-quality events raised while ingesting
// portal records: status tokens no table knows, records that could not be
// normalized, and collections that failed to load. Events are recoverable
// by definition; they are reported, never returned as errors.
package diagnostics

import (
	"context"
	"time"
)

// EventKind classifies a diagnostics event.
type EventKind string

const (
	EventUnmappedStatus  EventKind = "unmapped_status"
	EventMalformedRecord EventKind = "malformed_record"
	EventSourceFailed    EventKind = "source_failed"
)

// Event is transport-agnostic so publishers can fan it out.
type Event struct {
	Kind        EventKind `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	ProcessKind string    `json:"process_kind,omitempty"`
	RecordID    string    `json:"record_id,omitempty"`
	// Index is the record position in its collection, for records
	// without an id.
	Index     int    `json:"index"`
	RawStatus string `json:"raw_status,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
