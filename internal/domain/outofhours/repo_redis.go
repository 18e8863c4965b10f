package outofhours

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/kv"
)

const Collection = "review_entries"

type entryRepoRedis struct{ store *kv.Store }

func NewRepoRedis(store *kv.Store) Repository {
	return &entryRepoRedis{store: store}
}

func (r *entryRepoRedis) filter(ctx context.Context, keep func(e *Entry) bool) ([]*Entry, error) {
	all, err := kv.List[Entry](ctx, r.store, Collection)
	if err != nil {
		return nil, err
	}
	items := all[:0]
	for _, e := range all {
		if keep == nil || keep(e) {
			items = append(items, e)
		}
	}
	SortNewestFirst(items)
	return items, nil
}

func (r *entryRepoRedis) List(ctx context.Context) ([]*Entry, error) {
	return r.filter(ctx, nil)
}

func (r *entryRepoRedis) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return r.filter(ctx, func(e *Entry) bool { return e.PatientID == patientID })
}

func (r *entryRepoRedis) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var e Entry
	if err := r.store.Get(ctx, Collection, id.String(), &e); err != nil {
		if errors.Is(err, kv.ErrMiss) {
			return nil, apperr.NotFound("review entry")
		}
		return nil, err
	}
	return &e, nil
}

func (r *entryRepoRedis) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	if e.Comments == nil {
		e.Comments = []Comment{}
	}
	return r.store.Put(ctx, Collection, e.ID.String(), e)
}

// Update keeps the stored identity fields and replaces the rest.
func (r *entryRepoRedis) Update(ctx context.Context, e *Entry) error {
	stored, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	next := *e
	next.PatientID = stored.PatientID
	next.CreatedAt = stored.CreatedAt
	next.CreatedBy = stored.CreatedBy
	return r.store.Put(ctx, Collection, next.ID.String(), &next)
}

func (r *entryRepoRedis) Delete(ctx context.Context, id uuid.UUID) error {
	existed, err := r.store.Delete(ctx, Collection, id.String())
	if err != nil {
		return err
	}
	if !existed {
		return apperr.NotFound("review entry")
	}
	return nil
}

func (r *entryRepoRedis) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	entries, err := r.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if _, err := r.store.Delete(ctx, Collection, e.ID.String()); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
