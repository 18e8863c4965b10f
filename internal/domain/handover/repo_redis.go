package handover

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/kv"
)

const Collection = "handover_notes"

type noteRepoRedis struct{ store *kv.Store }

func NewRepoRedis(store *kv.Store) Repository {
	return &noteRepoRedis{store: store}
}

func (r *noteRepoRedis) filter(ctx context.Context, keep func(n *Note) bool) ([]*Note, error) {
	all, err := kv.List[Note](ctx, r.store, Collection)
	if err != nil {
		return nil, err
	}
	items := all[:0]
	for _, n := range all {
		if keep == nil || keep(n) {
			items = append(items, n)
		}
	}
	SortNewestFirst(items)
	return items, nil
}

func (r *noteRepoRedis) List(ctx context.Context) ([]*Note, error) {
	return r.filter(ctx, nil)
}

func (r *noteRepoRedis) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	return r.filter(ctx, func(n *Note) bool { return n.PatientID == patientID })
}

func (r *noteRepoRedis) ListByShiftDate(ctx context.Context, shiftDate string) ([]*Note, error) {
	return r.filter(ctx, func(n *Note) bool { return n.ShiftDate == shiftDate })
}

func (r *noteRepoRedis) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	var n Note
	if err := r.store.Get(ctx, Collection, id.String(), &n); err != nil {
		if errors.Is(err, kv.ErrMiss) {
			return nil, apperr.NotFound("handover note")
		}
		return nil, err
	}
	return &n, nil
}

func (r *noteRepoRedis) Latest(ctx context.Context, patientID uuid.UUID) (*Note, error) {
	notes, err := r.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return Latest(notes), nil
}

func (r *noteRepoRedis) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	return r.store.Put(ctx, Collection, n.ID.String(), n)
}

func (r *noteRepoRedis) UpdateContent(ctx context.Context, n *Note) error {
	stored, err := r.GetByID(ctx, n.ID)
	if err != nil {
		return err
	}
	stored.Situation = n.Situation
	stored.Background = n.Background
	stored.Assessment = n.Assessment
	stored.Recommendation = n.Recommendation
	return r.store.Put(ctx, Collection, stored.ID.String(), stored)
}

func (r *noteRepoRedis) Delete(ctx context.Context, id uuid.UUID) error {
	existed, err := r.store.Delete(ctx, Collection, id.String())
	if err != nil {
		return err
	}
	if !existed {
		return apperr.NotFound("handover note")
	}
	return nil
}

func (r *noteRepoRedis) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	notes, err := r.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, err
	}
	for _, n := range notes {
		if _, err := r.store.Delete(ctx, Collection, n.ID.String()); err != nil {
			return 0, err
		}
	}
	return len(notes), nil
}
