package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/auth"
	"github.com/HutchE92/handover/internal/platform/events"
	"github.com/HutchE92/handover/internal/platform/metrics"
)

type Service struct {
	repo       Repository
	dependents []DependentStore
	tx         Transactor
	pub        events.Publisher
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, pub: events.NopPublisher{}}
}

// SetPublisher attaches the change-event publisher.
func (s *Service) SetPublisher(p events.Publisher) {
	if p != nil {
		s.pub = p
	}
}

// SetCascade registers the stores whose records are removed together with a
// patient. tx may be nil when the backend has no transactions.
func (s *Service) SetCascade(tx Transactor, deps ...DependentStore) {
	s.tx = tx
	s.dependents = deps
}

// List returns patients ordered by ward then bed, narrowed by opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Patient, error) {
	items, err := s.repo.List(ctx, !opts.IncludeInactive)
	if err != nil {
		return nil, err
	}
	if opts.Ward != "" {
		filtered := items[:0]
		for _, p := range items {
			if p.Ward == opts.Ward {
				filtered = append(filtered, p)
			}
		}
		items = filtered
	}
	return Search(items, opts.Query), nil
}

func (s *Service) Wards(ctx context.Context) ([]string, error) {
	return s.repo.Wards(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists reports whether a patient record, active or discharged, exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Create admits a patient. Resuscitation status defaults to "Not Discussed".
func (s *Service) Create(ctx context.Context, p *Patient) error {
	p.NHSNumber = NormalizeNHSNumber(p.NHSNumber)
	if p.ResuscitationStatus == "" {
		p.ResuscitationStatus = ResusNotDiscussed
	}
	p.IsActive = true
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	metrics.RecordPatientAdmitted(p.Ward)
	s.emit(ctx, events.PatientAdmitted, p)
	return nil
}

// Update merges u into the stored patient and returns the result.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u *Update) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, events.PatientUpdated, p)
	return p, nil
}

// Discharge marks the patient inactive. Discharging an inactive patient
// changes nothing.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return p, nil
	}
	p.IsActive = false
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	metrics.RecordPatientDischarged(p.Ward)
	s.emit(ctx, events.PatientDischarged, p)
	return p, nil
}

// Delete removes the patient and every handover note and review entry that
// references it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient")
	}

	run := func(ctx context.Context) error {
		for _, d := range s.dependents {
			if _, err := d.DeleteByPatient(ctx, id); err != nil {
				return fmt.Errorf("delete dependents of patient %s: %w", id, err)
			}
		}
		return s.repo.Delete(ctx, id)
	}
	if s.tx != nil {
		err = s.tx.WithinTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}

	events.Emit(ctx, s.pub, events.Event{
		Type:      events.PatientDeleted,
		EntityID:  id.String(),
		PatientID: id.String(),
		Actor:     auth.UserNameFromContext(ctx),
	})
	return nil
}

func (s *Service) emit(ctx context.Context, typ string, p *Patient) {
	events.Emit(ctx, s.pub, events.Event{
		Type:      typ,
		EntityID:  p.ID.String(),
		PatientID: p.ID.String(),
		Actor:     auth.UserNameFromContext(ctx),
		Detail:    p.Ward,
	})
}
