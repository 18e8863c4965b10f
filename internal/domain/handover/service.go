package handover

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/auth"
	"github.com/HutchE92/handover/internal/platform/events"
	"github.com/HutchE92/handover/internal/platform/metrics"
)

type Service struct {
	repo     Repository
	patients PatientLookup
	pub      events.Publisher
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, pub: events.NopPublisher{}}
}

// SetPatientLookup enables the referenced-patient check on Create.
func (s *Service) SetPatientLookup(l PatientLookup) {
	s.patients = l
}

func (s *Service) SetPublisher(p events.Publisher) {
	if p != nil {
		s.pub = p
	}
}

// List returns notes newest first. A patient filter takes precedence over
// a shift date filter; when both are set the result matches both.
func (s *Service) List(ctx context.Context, f Filter) ([]*Note, error) {
	switch {
	case f.PatientID != uuid.Nil:
		notes, err := s.repo.ListByPatient(ctx, f.PatientID)
		if err != nil || f.ShiftDate == "" {
			return notes, err
		}
		out := notes[:0]
		for _, n := range notes {
			if n.ShiftDate == f.ShiftDate {
				out = append(out, n)
			}
		}
		return out, nil
	case f.ShiftDate != "":
		return s.repo.ListByShiftDate(ctx, f.ShiftDate)
	default:
		return s.repo.List(ctx)
	}
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// ListForShift returns the notes written for shiftDate, newest first.
func (s *Service) ListForShift(ctx context.Context, shiftDate time.Time) ([]*Note, error) {
	return s.repo.ListByShiftDate(ctx, shiftDate.Format(DateLayout))
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

// Latest returns the patient's most recent note, or nil when there is none.
func (s *Service) Latest(ctx context.Context, patientID uuid.UUID) (*Note, error) {
	return s.repo.Latest(ctx, patientID)
}

func (s *Service) Create(ctx context.Context, n *Note) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if s.patients != nil {
		ok, err := s.patients.Exists(ctx, n.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Invalid("patient %s does not exist", n.PatientID)
		}
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	metrics.RecordHandoverNote(string(n.ShiftType))
	s.emit(ctx, events.HandoverNoteCreated, n)
	return nil
}

// Update applies u to the SBAR text of a note and returns the result.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u *ContentUpdate) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(n)
	if err := n.validateSBAR(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateContent(ctx, n); err != nil {
		return nil, err
	}
	s.emit(ctx, events.HandoverNoteUpdated, n)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, events.HandoverNoteDeleted, n)
	return nil
}

func (s *Service) emit(ctx context.Context, typ string, n *Note) {
	events.Emit(ctx, s.pub, events.Event{
		Type:      typ,
		EntityID:  n.ID.String(),
		PatientID: n.PatientID.String(),
		Actor:     auth.UserNameFromContext(ctx),
		Detail:    string(n.ShiftType),
	})
}
