package outofhours

import (
	"context"
	"strings"
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
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, pub: events.NopPublisher{}, now: time.Now}
}

func (s *Service) SetPatientLookup(l PatientLookup) {
	s.patients = l
}

func (s *Service) SetPublisher(p events.Publisher) {
	if p != nil {
		s.pub = p
	}
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

// Create raises a new review request. Blank review dates are dropped and
// every remaining date starts uncompleted.
func (s *Service) Create(ctx context.Context, e *Entry) error {
	e.ReviewDates = Reopen(CleanDates(e.ReviewDates))
	e.AssignedRoles = DedupeRoles(e.AssignedRoles)
	e.ReasonForReview = strings.TrimSpace(e.ReasonForReview)
	e.ReviewStatus = StatusPending
	e.StatusChangedAt = nil
	e.Comments = []Comment{}
	if e.ReviewType == "" {
		e.ReviewType = ReviewScheduled
	}
	if e.CreatedBy = strings.TrimSpace(e.CreatedBy); e.CreatedBy == "" {
		e.CreatedBy = DefaultCreatedBy
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.checkPatient(ctx, e.PatientID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	metrics.RecordReviewRequest(string(e.Priority))
	s.emit(ctx, events.ReviewEntryCreated, e, string(e.Priority))
	return nil
}

func (s *Service) checkPatient(ctx context.Context, id uuid.UUID) error {
	if s.patients == nil {
		return nil
	}
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invalid("patient %s does not exist", id)
	}
	return nil
}

// Update merges u into the stored entry. Supplied fields, the comment list
// included, replace what was there. The status is re-derived from the
// dates; SetStatus is the way to complete or reopen.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u *EntryUpdate) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := e.ReviewStatus
	u.Apply(e)
	e.ReconcileStatus(prev, s.now())
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.emit(ctx, events.ReviewEntryUpdated, e, "")
	return e, nil
}

// SetStatus completes or reopens an entry. With todayOnly, completing
// stamps only the dates up to and including today.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, target Status, todayOnly bool) (*Entry, error) {
	if !target.Valid() {
		return nil, apperr.Invalid("status must be Pending or Complete")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := e.ReviewStatus
	e.ApplyStatus(target, todayOnly, s.now())
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	metrics.RecordReviewStatusChange(string(from), string(e.ReviewStatus))
	s.emit(ctx, events.ReviewStatusChanged, e, string(from)+" -> "+string(e.ReviewStatus))
	return e, nil
}

// AddComment appends to the entry's comment thread.
func (s *Service) AddComment(ctx context.Context, id uuid.UUID, text, createdBy string) (*Entry, error) {
	text = strings.TrimSpace(text)
	createdBy = strings.TrimSpace(createdBy)
	if text == "" {
		return nil, apperr.Invalid("comment text is required")
	}
	if createdBy == "" {
		return nil, apperr.Invalid("created_by is required")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Comments = append(e.Comments, Comment{
		ID:        uuid.New(),
		Text:      text,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	})
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	metrics.RecordReviewComment()
	s.emit(ctx, events.ReviewCommentAdded, e, createdBy)
	return e, nil
}

// ReassignRoles replaces the assigned roles.
func (s *Service) ReassignRoles(ctx context.Context, id uuid.UUID, roles []Role) (*Entry, error) {
	roles = DedupeRoles(roles)
	if err := validateRoles(roles); err != nil {
		return nil, err
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.AssignedRoles = roles
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.emit(ctx, events.ReviewEntryUpdated, e, "roles")
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, events.ReviewEntryDeleted, e, "")
	return nil
}

func (s *Service) emit(ctx context.Context, typ string, e *Entry, detail string) {
	events.Emit(ctx, s.pub, events.Event{
		Type:      typ,
		EntityID:  e.ID.String(),
		PatientID: e.PatientID.String(),
		Actor:     auth.UserNameFromContext(ctx),
		Detail:    detail,
	})
}
