// Package events publishes ward record change notifications so downstream
// consumers (bed management, e-whiteboards) can follow handover activity.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	PatientAdmitted     = "patient.admitted"
	PatientUpdated      = "patient.updated"
	PatientDischarged   = "patient.discharged"
	PatientDeleted      = "patient.deleted"
	HandoverNoteCreated = "handover_note.created"
	HandoverNoteUpdated = "handover_note.updated"
	HandoverNoteDeleted = "handover_note.deleted"
	ReviewEntryCreated  = "review_entry.created"
	ReviewEntryUpdated  = "review_entry.updated"
	ReviewStatusChanged = "review_entry.status_changed"
	ReviewCommentAdded  = "review_entry.comment_added"
	ReviewEntryDeleted  = "review_entry.deleted"
)

// Event is the envelope written to the change stream. It carries ids only;
// consumers fetch the record through the API.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	PatientID  string    `json:"patient_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
