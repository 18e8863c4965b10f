package handover

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists handover notes. Listings are newest first.
type Repository interface {
	List(ctx context.Context) ([]*Note, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error)
	ListByShiftDate(ctx context.Context, shiftDate string) ([]*Note, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	// Latest returns nil without error when the patient has no notes.
	Latest(ctx context.Context, patientID uuid.UUID) (*Note, error)
	Create(ctx context.Context, n *Note) error
	// UpdateContent writes the four SBAR fields only.
	UpdateContent(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

// PatientLookup confirms a referenced patient exists.
type PatientLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
