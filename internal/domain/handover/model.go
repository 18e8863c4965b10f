package handover

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

type ShiftType string

const (
	ShiftDay     ShiftType = "Day"
	ShiftNight   ShiftType = "Night"
	ShiftLongDay ShiftType = "Long Day"
)

func (s ShiftType) Valid() bool {
	switch s {
	case ShiftDay, ShiftNight, ShiftLongDay:
		return true
	}
	return false
}

// Note is an SBAR handover note written for one patient at the end of a
// shift.
type Note struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ShiftDate      string    `db:"shift_date" json:"shift_date"`
	ShiftType      ShiftType `db:"shift_type" json:"shift_type"`
	Situation      string    `db:"situation" json:"situation"`
	Background     string    `db:"background" json:"background"`
	Assessment     string    `db:"assessment" json:"assessment"`
	Recommendation string    `db:"recommendation" json:"recommendation"`
}

// Validate checks that every field of the handover form is filled in.
func (n *Note) Validate() error {
	if n.PatientID == uuid.Nil {
		return apperr.Invalid("patient_id is required")
	}
	if strings.TrimSpace(n.CreatedBy) == "" {
		return apperr.Invalid("created_by is required")
	}
	if _, err := time.Parse(DateLayout, n.ShiftDate); err != nil {
		return apperr.Invalid("shift_date must be YYYY-MM-DD")
	}
	if !n.ShiftType.Valid() {
		return apperr.Invalid("shift_type must be one of Day, Night, Long Day")
	}
	return n.validateSBAR()
}

func (n *Note) validateSBAR() error {
	for _, f := range []struct{ name, value string }{
		{"situation", n.Situation},
		{"background", n.Background},
		{"assessment", n.Assessment},
		{"recommendation", n.Recommendation},
	} {
		if strings.TrimSpace(f.value) == "" {
			return apperr.Invalid("%s is required", f.name)
		}
	}
	return nil
}

// ContentUpdate edits the SBAR text. Nothing else on a note is mutable.
type ContentUpdate struct {
	Situation      *string `json:"situation"`
	Background     *string `json:"background"`
	Assessment     *string `json:"assessment"`
	Recommendation *string `json:"recommendation"`
}

func (u *ContentUpdate) Apply(n *Note) {
	if u.Situation != nil {
		n.Situation = *u.Situation
	}
	if u.Background != nil {
		n.Background = *u.Background
	}
	if u.Assessment != nil {
		n.Assessment = *u.Assessment
	}
	if u.Recommendation != nil {
		n.Recommendation = *u.Recommendation
	}
}

// SortNewestFirst orders notes by creation time descending.
func SortNewestFirst(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

// Latest returns the most recently created note, or nil.
func Latest(notes []*Note) *Note {
	var latest *Note
	for _, n := range notes {
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	return latest
}

// LatestByPatient indexes the most recent note of every patient.
func LatestByPatient(notes []*Note) map[uuid.UUID]*Note {
	out := make(map[uuid.UUID]*Note)
	for _, n := range notes {
		if cur, ok := out[n.PatientID]; !ok || n.CreatedAt.After(cur.CreatedAt) {
			out[n.PatientID] = n
		}
	}
	return out
}

// Filter narrows a note listing. Zero values match everything.
type Filter struct {
	PatientID uuid.UUID
	ShiftDate string
}
