// Package board assembles the read-only views clinicians work from: the
// ward handover board, the dashboard and the Hospital at Night list.
package board

import (
	"sort"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/patient"
)

// BedsPerWard is the bed capacity assumed for the empty-bed count.
const BedsPerWard = 28

// RecentHandoverLimit caps the dashboard's recent handover list.
const RecentHandoverLimit = 5

// PatientCard is a patient with their most recent handover note.
type PatientCard struct {
	*patient.Patient
	LatestHandover *handover.Note `json:"latest_handover"`
}

type WardBoard struct {
	Ward          string        `json:"ward"`
	Patients      []PatientCard `json:"patients"`
	Occupied      int           `json:"occupied"`
	EmptyBeds     int           `json:"empty_beds"`
	HighNEWSCount int           `json:"high_news_count"`
}

// BuildWardBoard lists the active patients of ward in bed order. Counts
// cover the whole ward even when highNEWSOnly narrows the patient list.
func BuildWardBoard(ward string, patients []*patient.Patient, notes []*handover.Note, highNEWSOnly bool) *WardBoard {
	latest := handover.LatestByPatient(notes)
	b := &WardBoard{Ward: ward, Patients: []PatientCard{}}

	var cards []PatientCard
	for _, p := range patients {
		if !p.IsActive || p.Ward != ward {
			continue
		}
		cards = append(cards, PatientCard{Patient: p, LatestHandover: latest[p.ID]})
		if p.HighNEWS() {
			b.HighNEWSCount++
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return NaturalLess(cards[i].BedNumber, cards[j].BedNumber)
	})

	b.Occupied = len(cards)
	if b.EmptyBeds = BedsPerWard - b.Occupied; b.EmptyBeds < 0 {
		b.EmptyBeds = 0
	}
	for _, c := range cards {
		if !highNEWSOnly || c.HighNEWS() {
			b.Patients = append(b.Patients, c)
		}
	}
	return b
}

// RecentHandover pairs a note with its patient. Patient is nil when the
// patient record is gone.
type RecentHandover struct {
	*handover.Note
	Patient *patient.Patient `json:"patient"`
}

type Dashboard struct {
	TotalPatients    int                `json:"total_patients"`
	HighNEWSCount    int                `json:"high_news_count"`
	TodayHandovers   int                `json:"today_handovers"`
	Wards            []string           `json:"wards"`
	RecentHandovers  []RecentHandover   `json:"recent_handovers"`
	PriorityPatients []*patient.Patient `json:"priority_patients"`
}

// BuildDashboard summarises the active patients and all handover notes.
// today is a YYYY-MM-DD shift date.
func BuildDashboard(patients []*patient.Patient, notes []*handover.Note, today string) *Dashboard {
	d := &Dashboard{
		TotalPatients:    len(patients),
		Wards:            OrderWards(patient.DistinctWards(patients)),
		RecentHandovers:  []RecentHandover{},
		PriorityPatients: []*patient.Patient{},
	}

	byID := make(map[uuid.UUID]*patient.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
		if p.HighNEWS() {
			d.HighNEWSCount++
			d.PriorityPatients = append(d.PriorityPatients, p)
		}
	}
	sort.SliceStable(d.PriorityPatients, func(i, j int) bool {
		return *d.PriorityPatients[i].EarlyWarningScore > *d.PriorityPatients[j].EarlyWarningScore
	})

	sorted := append([]*handover.Note(nil), notes...)
	handover.SortNewestFirst(sorted)
	for _, n := range sorted {
		if n.ShiftDate == today {
			d.TodayHandovers++
		}
		if len(d.RecentHandovers) < RecentHandoverLimit {
			d.RecentHandovers = append(d.RecentHandovers, RecentHandover{Note: n, Patient: byID[n.PatientID]})
		}
	}
	return d
}
