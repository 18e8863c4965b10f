package outofhours

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Repository persists review entries. Listings are newest first.
type Repository interface {
	List(ctx context.Context) ([]*Entry, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Create(ctx context.Context, e *Entry) error
	// Update rewrites every mutable field of the stored entry.
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type PatientLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// SortNewestFirst orders entries by creation time, most recent first.
func SortNewestFirst(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
