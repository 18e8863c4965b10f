package outofhours

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
)

// -- Mock Repository --

type mockEntryRepo struct {
	records map[uuid.UUID]*Entry
	clock   time.Time
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{
		records: make(map[uuid.UUID]*Entry),
		clock:   time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC),
	}
}

func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func clone(e *Entry) *Entry {
	cp := *e
	cp.ReviewDates = copySlice(e.ReviewDates)
	cp.AssignedRoles = copySlice(e.AssignedRoles)
	cp.Comments = copySlice(e.Comments)
	return &cp
}

func (m *mockEntryRepo) collect(keep func(*Entry) bool) []*Entry {
	var result []*Entry
	for _, e := range m.records {
		if keep(e) {
			result = append(result, clone(e))
		}
	}
	SortNewestFirst(result)
	return result
}

func (m *mockEntryRepo) List(_ context.Context) ([]*Entry, error) {
	return m.collect(func(*Entry) bool { return true }), nil
}

func (m *mockEntryRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return m.collect(func(e *Entry) bool { return e.PatientID == patientID }), nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("review entry")
	}
	return clone(e), nil
}

func (m *mockEntryRepo) Create(_ context.Context, e *Entry) error {
	m.clock = m.clock.Add(time.Minute)
	e.ID = uuid.New()
	e.CreatedAt = m.clock
	m.records[e.ID] = clone(e)
	return nil
}

func (m *mockEntryRepo) Update(_ context.Context, e *Entry) error {
	if _, ok := m.records[e.ID]; !ok {
		return apperr.NotFound("review entry")
	}
	m.records[e.ID] = clone(e)
	return nil
}

func (m *mockEntryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.records[id]; !ok {
		return apperr.NotFound("review entry")
	}
	delete(m.records, id)
	return nil
}

func (m *mockEntryRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for id, e := range m.records {
		if e.PatientID == patientID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

type mockPatients map[uuid.UUID]bool

func (m mockPatients) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m[id], nil
}

var testNow = time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockEntryRepo, mockPatients) {
	repo := newMockEntryRepo()
	patients := mockPatients{}
	svc := NewService(repo)
	svc.SetPatientLookup(patients)
	svc.now = func() time.Time { return testNow }
	return svc, repo, patients
}

func createEntry(t *testing.T, svc *Service, patients mockPatients, mutate func(e *Entry)) *Entry {
	t.Helper()
	pid := uuid.New()
	patients[pid] = true
	e := validEntry(pid)
	if mutate != nil {
		mutate(e)
	}
	if err := svc.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return e
}

// -- Tests --

func TestCreateEntry_Defaults(t *testing.T) {
	svc, repo, patients := newTestService()
	e := createEntry(t, svc, patients, func(e *Entry) {
		e.CreatedBy = "   "
		e.ReviewType = ""
		e.ReviewStatus = StatusComplete
		e.ReviewDates = []ReviewDate{{Date: "2024-05-10", CompletedAt: &testNow}, {Date: " "}}
		e.AssignedRoles = []Role{RoleFY1, RoleFY1, RoleNurse}
		e.Comments = []Comment{{Text: "smuggled"}}
	})

	stored := repo.records[e.ID]
	if stored.CreatedBy != DefaultCreatedBy {
		t.Errorf("expected created_by %q, got %q", DefaultCreatedBy, stored.CreatedBy)
	}
	if stored.ReviewType != ReviewScheduled || stored.ReviewStatus != StatusPending {
		t.Errorf("unexpected type/status %s/%s", stored.ReviewType, stored.ReviewStatus)
	}
	if len(stored.ReviewDates) != 1 || stored.ReviewDates[0].Completed() {
		t.Errorf("expected one uncompleted date, got %+v", stored.ReviewDates)
	}
	if len(stored.AssignedRoles) != 2 {
		t.Errorf("expected deduped roles, got %v", stored.AssignedRoles)
	}
	if stored.Comments == nil || len(stored.Comments) != 0 {
		t.Errorf("expected empty comment list, got %v", stored.Comments)
	}
}

func TestCreateEntry_OnlyBlankDates(t *testing.T) {
	svc, _, patients := newTestService()
	pid := uuid.New()
	patients[pid] = true
	e := validEntry(pid)
	e.ReviewDates = []ReviewDate{{Date: ""}, {Date: "  "}}
	if err := svc.Create(context.Background(), e); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateEntry_UnknownPatient(t *testing.T) {
	svc, repo, _ := newTestService()
	if err := svc.Create(context.Background(), validEntry(uuid.New())); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Error("entry must not be stored")
	}
}

func TestSetStatus_TodayOnlyThenAll(t *testing.T) {
	svc, repo, patients := newTestService()
	ctx := context.Background()
	e := createEntry(t, svc, patients, func(e *Entry) {
		e.ReviewDates = []ReviewDate{{Date: "2024-05-09"}, {Date: "2024-05-10"}, {Date: "2024-05-11"}}
	})

	got, err := svc.SetStatus(ctx, e.ID, StatusComplete, true)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.ReviewStatus != StatusPending || !PartiallyComplete(got.ReviewDates) {
		t.Errorf("expected partially complete Pending entry, got %+v", got)
	}
	if repo.records[e.ID].ReviewDates[2].Completed() {
		t.Error("tomorrow's date must stay pending")
	}

	got, err = svc.SetStatus(ctx, e.ID, StatusComplete, false)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.ReviewStatus != StatusComplete || got.StatusChangedAt == nil || !got.StatusChangedAt.Equal(testNow) {
		t.Errorf("expected Complete at %v, got %+v", testNow, got)
	}

	got, err = svc.SetStatus(ctx, e.ID, StatusPending, false)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.ReviewStatus != StatusPending || got.StatusChangedAt != nil || PartiallyComplete(got.ReviewDates) {
		t.Errorf("expected fully reopened entry, got %+v", got)
	}
}

func TestSetStatus_InvalidTarget(t *testing.T) {
	svc, _, patients := newTestService()
	e := createEntry(t, svc, patients, nil)
	if _, err := svc.SetStatus(context.Background(), e.ID, "Done", false); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.SetStatus(context.Background(), uuid.New(), StatusComplete, false); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestAddComment(t *testing.T) {
	svc, repo, patients := newTestService()
	ctx := context.Background()
	e := createEntry(t, svc, patients, nil)

	if _, err := svc.AddComment(ctx, e.ID, "Bloods taken", "Dr Nwosu"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	got, err := svc.AddComment(ctx, e.ID, "  K+ 4.1  ", "SN Patel")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got.Comments))
	}
	c := got.Comments[1]
	if c.Text != "K+ 4.1" || c.CreatedBy != "SN Patel" || c.ID == uuid.Nil || !c.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected comment %+v", c)
	}
	if len(repo.records[e.ID].Comments) != 2 {
		t.Error("comments not persisted")
	}
}

func TestAddComment_Validation(t *testing.T) {
	svc, _, patients := newTestService()
	e := createEntry(t, svc, patients, nil)
	if _, err := svc.AddComment(context.Background(), e.ID, " ", "Dr Nwosu"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for blank text, got %v", err)
	}
	if _, err := svc.AddComment(context.Background(), e.ID, "ok", ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for blank author, got %v", err)
	}
}

func TestReassignRoles(t *testing.T) {
	svc, _, patients := newTestService()
	ctx := context.Background()
	e := createEntry(t, svc, patients, nil)

	got, err := svc.ReassignRoles(ctx, e.ID, []Role{RoleSpR, RoleSHO, RoleSpR})
	if err != nil {
		t.Fatalf("ReassignRoles: %v", err)
	}
	if len(got.AssignedRoles) != 2 || got.AssignedRoles[0] != RoleSpR {
		t.Errorf("unexpected roles %v", got.AssignedRoles)
	}

	if _, err := svc.ReassignRoles(ctx, e.ID, nil); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty roles, got %v", err)
	}
	if _, err := svc.ReassignRoles(ctx, e.ID, []Role{"Porter"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}
}

func TestUpdateEntry_Merge(t *testing.T) {
	svc, _, patients := newTestService()
	e := createEntry(t, svc, patients, nil)

	reason := "Review fluid balance"
	got, err := svc.Update(context.Background(), e.ID, &EntryUpdate{ReasonForReview: &reason})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ReasonForReview != reason || got.Priority != PriorityMedium {
		t.Errorf("unexpected merge result %+v", got)
	}

	bad := Priority("Whenever")
	if _, err := svc.Update(context.Background(), e.ID, &EntryUpdate{Priority: &bad}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateEntry_StatusFollowsDates(t *testing.T) {
	svc, repo, patients := newTestService()
	ctx := context.Background()
	e := createEntry(t, svc, patients, nil)

	done, err := svc.SetStatus(ctx, e.ID, StatusComplete, false)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	dates := append(copySlice(done.ReviewDates), ReviewDate{Date: "2024-05-12"})
	got, err := svc.Update(ctx, e.ID, &EntryUpdate{ReviewDates: &dates})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ReviewStatus != StatusPending || got.StatusChangedAt != nil {
		t.Errorf("adding an open date must reopen the entry, got %s %v", got.ReviewStatus, got.StatusChangedAt)
	}
	if stored := repo.records[e.ID]; stored.ReviewStatus != DeriveStatus(stored.ReviewDates) {
		t.Errorf("stored status %s disagrees with its dates", stored.ReviewStatus)
	}
}

func TestUpdateEntry_IgnoresSuppliedStatus(t *testing.T) {
	svc, _, patients := newTestService()
	e := createEntry(t, svc, patients, nil)

	complete := StatusComplete
	got, err := svc.Update(context.Background(), e.ID, &EntryUpdate{ReviewStatus: &complete})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ReviewStatus != StatusPending || got.StatusChangedAt != nil {
		t.Errorf("unstamped dates must stay Pending, got %s %v", got.ReviewStatus, got.StatusChangedAt)
	}
}

func TestUpdateEntry_StampedDatesComplete(t *testing.T) {
	svc, _, patients := newTestService()
	ctx := context.Background()
	e := createEntry(t, svc, patients, nil)

	stamped := []ReviewDate{{Date: "2024-05-10", CompletedAt: &testNow}}
	got, err := svc.Update(ctx, e.ID, &EntryUpdate{ReviewDates: &stamped})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ReviewStatus != StatusComplete || got.StatusChangedAt == nil || !got.StatusChangedAt.Equal(testNow) {
		t.Fatalf("expected Complete at %v, got %s %v", testNow, got.ReviewStatus, got.StatusChangedAt)
	}

	later := testNow.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }
	reason := "Check drain output"
	got, err = svc.Update(ctx, e.ID, &EntryUpdate{ReasonForReview: &reason})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ReviewStatus != StatusComplete || !got.StatusChangedAt.Equal(testNow) {
		t.Errorf("completion time must be kept, got %s %v", got.ReviewStatus, got.StatusChangedAt)
	}
}

func TestListAndDelete(t *testing.T) {
	svc, _, patients := newTestService()
	ctx := context.Background()
	first := createEntry(t, svc, patients, nil)
	second := createEntry(t, svc, patients, nil)

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Errorf("expected newest first, got %d entries", len(all))
	}

	mine, _ := svc.ListByPatient(ctx, first.PatientID)
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Errorf("unexpected patient listing %+v", mine)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}
