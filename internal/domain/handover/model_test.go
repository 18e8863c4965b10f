package handover

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validNote(patientID uuid.UUID) *Note {
	return &Note{
		PatientID:      patientID,
		CreatedBy:      "RN Sarah Okafor",
		ShiftDate:      "2024-05-01",
		ShiftType:      ShiftNight,
		Situation:      "Increasing oxygen requirement overnight",
		Background:     "Admitted with CAP, day 3 of IV antibiotics",
		Assessment:     "NEWS 5, SpO2 92% on 4L",
		Recommendation: "Repeat ABG at 06:00, medical review if worse",
	}
}

func TestShiftType_Valid(t *testing.T) {
	for _, s := range []ShiftType{ShiftDay, ShiftNight, ShiftLongDay} {
		if !s.Valid() {
			t.Errorf("expected %q valid", s)
		}
	}
	if ShiftType("Twilight").Valid() {
		t.Error("expected unknown shift invalid")
	}
}

func TestNote_Validate(t *testing.T) {
	pid := uuid.New()
	tests := []struct {
		name   string
		mutate func(n *Note)
		ok     bool
	}{
		{"valid", func(n *Note) {}, true},
		{"no patient", func(n *Note) { n.PatientID = uuid.Nil }, false},
		{"no author", func(n *Note) { n.CreatedBy = "" }, false},
		{"bad shift date", func(n *Note) { n.ShiftDate = "01/05/2024" }, false},
		{"bad shift type", func(n *Note) { n.ShiftType = "Early" }, false},
		{"blank situation", func(n *Note) { n.Situation = "  " }, false},
		{"blank recommendation", func(n *Note) { n.Recommendation = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNote(pid)
			tt.mutate(n)
			err := n.Validate()
			if tt.ok != (err == nil) {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}

func TestContentUpdate_OnlySBAR(t *testing.T) {
	n := validNote(uuid.New())
	situation := "Stable overnight"
	u := ContentUpdate{Situation: &situation}
	u.Apply(n)

	if n.Situation != situation {
		t.Errorf("expected situation updated, got %s", n.Situation)
	}
	if n.Background != "Admitted with CAP, day 3 of IV antibiotics" || n.CreatedBy != "RN Sarah Okafor" {
		t.Error("unsupplied fields must not change")
	}
}

func TestLatest(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a := &Note{CreatedAt: base}
	b := &Note{CreatedAt: base.Add(12 * time.Hour)}
	c := &Note{CreatedAt: base.Add(2 * time.Hour)}

	if got := Latest([]*Note{a, b, c}); got != b {
		t.Errorf("expected latest note b, got %+v", got)
	}
	if Latest(nil) != nil {
		t.Error("expected nil for no notes")
	}
}

func TestLatestByPatient(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	p1, p2 := uuid.New(), uuid.New()
	old := &Note{PatientID: p1, CreatedAt: base}
	recent := &Note{PatientID: p1, CreatedAt: base.Add(time.Hour)}
	other := &Note{PatientID: p2, CreatedAt: base}

	idx := LatestByPatient([]*Note{recent, old, other})
	if idx[p1] != recent || idx[p2] != other {
		t.Errorf("unexpected index %+v", idx)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	notes := []*Note{
		{Situation: "a", CreatedAt: base},
		{Situation: "b", CreatedAt: base.Add(2 * time.Hour)},
		{Situation: "c", CreatedAt: base.Add(time.Hour)},
	}
	SortNewestFirst(notes)
	if notes[0].Situation != "b" || notes[1].Situation != "c" || notes[2].Situation != "a" {
		t.Errorf("unexpected order %s %s %s", notes[0].Situation, notes[1].Situation, notes[2].Situation)
	}
}
