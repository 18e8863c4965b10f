package board

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/patient"
)

func intPtr(v int) *int { return &v }

func newPatient(ward, bed string, news *int) *patient.Patient {
	return &patient.Patient{
		ID:                  uuid.New(),
		NHSNumber:           "9434765919",
		FirstName:           "Pat",
		LastName:            "Bed" + bed,
		DateOfBirth:         "1948-03-02",
		Ward:                ward,
		BedNumber:           bed,
		Consultant:          "Dr Kerr",
		AdmissionDate:       "2024-05-01",
		Diagnosis:           "CAP",
		ResuscitationStatus: patient.ResusFull,
		EarlyWarningScore:   news,
		IsActive:            true,
	}
}

var baseTime = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func newNote(p *patient.Patient, minutes int, shiftDate string) *handover.Note {
	return &handover.Note{
		ID:             uuid.New(),
		PatientID:      p.ID,
		CreatedBy:      "RN Okafor",
		CreatedAt:      baseTime.Add(time.Duration(minutes) * time.Minute),
		ShiftDate:      shiftDate,
		ShiftType:      handover.ShiftDay,
		Situation:      "S",
		Background:     "B",
		Assessment:     "A",
		Recommendation: "R",
	}
}

func TestBuildWardBoard(t *testing.T) {
	bed10 := newPatient("Ward 7", "10", intPtr(6))
	bed2 := newPatient("Ward 7", "2", intPtr(1))
	bed3 := newPatient("Ward 7", "3", nil)
	discharged := newPatient("Ward 7", "1", intPtr(9))
	discharged.IsActive = false
	elsewhere := newPatient("Ward 8", "1", intPtr(8))

	older := newNote(bed2, 0, "2024-05-10")
	newer := newNote(bed2, 30, "2024-05-10")

	b := BuildWardBoard("Ward 7",
		[]*patient.Patient{bed10, bed2, bed3, discharged, elsewhere},
		[]*handover.Note{older, newer}, false)

	require.Len(t, b.Patients, 3)
	assert.Equal(t, "2", b.Patients[0].BedNumber)
	assert.Equal(t, "3", b.Patients[1].BedNumber)
	assert.Equal(t, "10", b.Patients[2].BedNumber)
	require.NotNil(t, b.Patients[0].LatestHandover)
	assert.Equal(t, newer.ID, b.Patients[0].LatestHandover.ID)
	assert.Nil(t, b.Patients[1].LatestHandover)
	assert.Equal(t, 1, b.HighNEWSCount)
	assert.Equal(t, 3, b.Occupied)
	assert.Equal(t, BedsPerWard-3, b.EmptyBeds)
}

func TestBuildWardBoard_HighNEWSOnly(t *testing.T) {
	high := newPatient("Ward 7", "4", intPtr(5))
	low := newPatient("Ward 7", "1", intPtr(4))
	b := BuildWardBoard("Ward 7", []*patient.Patient{high, low}, nil, true)

	require.Len(t, b.Patients, 1)
	assert.Equal(t, high.ID, b.Patients[0].ID)
	assert.Equal(t, 2, b.Occupied, "counts cover the whole ward")
	assert.Equal(t, 1, b.HighNEWSCount)
}

func TestBuildWardBoard_EmptyWard(t *testing.T) {
	b := BuildWardBoard("Ward 19", nil, nil, false)
	assert.NotNil(t, b.Patients)
	assert.Empty(t, b.Patients)
	assert.Equal(t, BedsPerWard, b.EmptyBeds)
}

func TestBuildDashboard(t *testing.T) {
	a := newPatient("Ward 10", "1", intPtr(5))
	b := newPatient("Ward 2", "1", intPtr(9))
	c := newPatient("Ward 2", "2", nil)
	gone := &patient.Patient{ID: uuid.New()}

	var notes []*handover.Note
	for i := 0; i < 6; i++ {
		notes = append(notes, newNote(a, i, "2024-05-09"))
	}
	today := newNote(b, 100, "2024-05-10")
	orphan := newNote(gone, 90, "2024-05-10")
	notes = append(notes, today, orphan)

	d := BuildDashboard([]*patient.Patient{a, b, c}, notes, "2024-05-10")

	assert.Equal(t, 3, d.TotalPatients)
	assert.Equal(t, 2, d.HighNEWSCount)
	assert.Equal(t, 2, d.TodayHandovers)
	assert.Equal(t, []string{"Ward 2", "Ward 10"}, d.Wards)

	require.Len(t, d.PriorityPatients, 2)
	assert.Equal(t, b.ID, d.PriorityPatients[0].ID, "highest score first")

	require.Len(t, d.RecentHandovers, RecentHandoverLimit)
	assert.Equal(t, today.ID, d.RecentHandovers[0].ID)
	assert.Equal(t, b.ID, d.RecentHandovers[0].Patient.ID)
	assert.Equal(t, orphan.ID, d.RecentHandovers[1].ID)
	assert.Nil(t, d.RecentHandovers[1].Patient)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(nil, nil, "2024-05-10")
	assert.Zero(t, d.TotalPatients)
	assert.NotNil(t, d.RecentHandovers)
	assert.NotNil(t, d.PriorityPatients)
	assert.NotNil(t, d.Wards)
}
