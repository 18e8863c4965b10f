package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patients. Implementations assign the id and both
// timestamps on Create and refresh UpdatedAt on Update. Update and Delete
// report apperr.ErrNotFound for unknown ids.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Wards returns the distinct wards of active patients.
	Wards(ctx context.Context) ([]string, error)
}

// DependentStore removes a patient's dependent records during a hard delete.
type DependentStore interface {
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

// Transactor runs fn in a single storage transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
