package board

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/domain/patient"
)

// EntryView is a review entry joined to its patient and that patient's
// latest handover note.
type EntryView struct {
	*outofhours.Entry
	Patient           *patient.Patient `json:"patient"`
	LatestHandover    *handover.Note   `json:"latest_handover"`
	PartiallyComplete bool             `json:"partially_complete"`
}

// JoinEntries builds views in the order entries are given. Patient is
// nil when the patient record is missing.
func JoinEntries(entries []*outofhours.Entry, patients []*patient.Patient, notes []*handover.Note) []EntryView {
	byID := make(map[uuid.UUID]*patient.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}
	latest := handover.LatestByPatient(notes)

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			Entry:             e,
			Patient:           byID[e.PatientID],
			LatestHandover:    latest[e.PatientID],
			PartiallyComplete: outofhours.PartiallyComplete(e.ReviewDates),
		})
	}
	return views
}

// EntryFilter narrows the Hospital at Night list. Empty fields match
// everything; multi-valued fields match any of their values.
type EntryFilter struct {
	Roles     []outofhours.Role
	Date      string
	Statuses  []outofhours.Status
	Wards     []string
	Types     []outofhours.ReviewType
	PatientID uuid.UUID
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (f EntryFilter) Match(v EntryView) bool {
	if len(f.Roles) > 0 && !v.HasRole(f.Roles...) {
		return false
	}
	if f.Date != "" && !v.HasDate(f.Date) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, v.ReviewStatus) {
		return false
	}
	if len(f.Wards) > 0 && (v.Patient == nil || !contains(f.Wards, v.Patient.Ward)) {
		return false
	}
	if len(f.Types) > 0 {
		t := v.ReviewType
		if t == "" {
			t = outofhours.ReviewScheduled
		}
		if !contains(f.Types, t) {
			return false
		}
	}
	if f.PatientID != uuid.Nil && v.PatientID != f.PatientID {
		return false
	}
	return true
}

// FilterEntries keeps the views matching f, preserving order.
func FilterEntries(views []EntryView, f EntryFilter) []EntryView {
	out := make([]EntryView, 0, len(views))
	for _, v := range views {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

type SortOption string

const (
	SortNone     SortOption = ""
	SortPriority SortOption = "priority"
	SortOldest   SortOption = "oldest"
	SortNewest   SortOption = "newest"
)

func ParseSort(s string) (SortOption, error) {
	switch o := SortOption(s); o {
	case SortNone, SortPriority, SortOldest, SortNewest:
		return o, nil
	}
	return SortNone, fmt.Errorf("unknown sort %q", s)
}

// SortEntries orders views in place. The sort is stable, so entries that
// compare equal keep their relative order.
func SortEntries(views []EntryView, opt SortOption) {
	var less func(a, b EntryView) bool
	switch opt {
	case SortPriority:
		less = func(a, b EntryView) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortOldest:
		less = func(a, b EntryView) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortNewest:
		less = func(a, b EntryView) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(views, func(i, j int) bool { return less(views[i], views[j]) })
}

type Stats struct {
	Total               int                     `json:"total"`
	Pending             int                     `json:"pending"`
	Complete            int                     `json:"complete"`
	CompletionRate      int                     `json:"completion_rate"`
	PendingByRole       map[outofhours.Role]int `json:"pending_by_role"`
	PendingHighPriority []EntryView             `json:"pending_high_priority"`
}

// ComputeStats summarises every view. CompletionRate is a whole percent.
func ComputeStats(views []EntryView) Stats {
	s := Stats{
		Total:               len(views),
		PendingByRole:       make(map[outofhours.Role]int, len(outofhours.AllRoles)),
		PendingHighPriority: []EntryView{},
	}
	for _, r := range outofhours.AllRoles {
		s.PendingByRole[r] = 0
	}
	for _, v := range views {
		switch v.ReviewStatus {
		case outofhours.StatusComplete:
			s.Complete++
		case outofhours.StatusPending:
			s.Pending++
			for _, r := range outofhours.DedupeRoles(v.AssignedRoles) {
				if _, ok := s.PendingByRole[r]; ok {
					s.PendingByRole[r]++
				}
			}
			if v.Priority == outofhours.PriorityHigh {
				s.PendingHighPriority = append(s.PendingHighPriority, v)
			}
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Complete) / float64(s.Total) * 100))
	}
	return s
}
