package patient

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/kv"
)

// Collection is the key-value collection holding patient records.
const Collection = "patients"

type patientRepoRedis struct{ store *kv.Store }

func NewRepoRedis(store *kv.Store) Repository {
	return &patientRepoRedis{store: store}
}

func (r *patientRepoRedis) List(ctx context.Context, activeOnly bool) ([]*Patient, error) {
	all, err := kv.List[Patient](ctx, r.store, Collection)
	if err != nil {
		return nil, err
	}
	items := all[:0]
	for _, p := range all {
		if activeOnly && !p.IsActive {
			continue
		}
		items = append(items, p)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Ward != items[j].Ward {
			return items[i].Ward < items[j].Ward
		}
		return items[i].BedNumber < items[j].BedNumber
	})
	return items, nil
}

func (r *patientRepoRedis) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	if err := r.store.Get(ctx, Collection, id.String(), &p); err != nil {
		if errors.Is(err, kv.ErrMiss) {
			return nil, apperr.NotFound("patient")
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoRedis) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Exists(ctx, Collection, id.String())
}

func (r *patientRepoRedis) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return r.store.Put(ctx, Collection, p.ID.String(), p)
}

func (r *patientRepoRedis) Update(ctx context.Context, p *Patient) error {
	ok, err := r.store.Exists(ctx, Collection, p.ID.String())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient")
	}
	p.UpdatedAt = time.Now().UTC()
	return r.store.Put(ctx, Collection, p.ID.String(), p)
}

// Delete removes only the patient record. Dependents are removed by the
// service through DependentStore.
func (r *patientRepoRedis) Delete(ctx context.Context, id uuid.UUID) error {
	existed, err := r.store.Delete(ctx, Collection, id.String())
	if err != nil {
		return err
	}
	if !existed {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *patientRepoRedis) Wards(ctx context.Context) ([]string, error) {
	active, err := r.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return DistinctWards(active), nil
}

// DistinctWards returns the sorted set of wards across patients.
func DistinctWards(patients []*Patient) []string {
	seen := make(map[string]bool)
	var wards []string
	for _, p := range patients {
		if !seen[p.Ward] {
			seen[p.Ward] = true
			wards = append(wards, p.Ward)
		}
	}
	sort.Strings(wards)
	return wards
}
