// Package outofhours manages Hospital at Night review requests: scheduled
// or ad-hoc asks for a clinician of a given grade to see a patient out of
// hours, each with its review dates and comment thread.
package outofhours

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

// DefaultCreatedBy is recorded when a request is raised without an author.
const DefaultCreatedBy = "Unknown"

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank orders priorities High first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Role is the grade of clinician asked to review.
type Role string

const (
	RoleFY1       Role = "FY1"
	RoleSHO       Role = "SHO"
	RoleSpR       Role = "SpR"
	RoleDischarge Role = "Discharge"
	RoleNurse     Role = "Nurse"
)

var AllRoles = []Role{RoleFY1, RoleSHO, RoleSpR, RoleDischarge, RoleNurse}

func (r Role) Valid() bool {
	for _, v := range AllRoles {
		if r == v {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
)

func (s Status) Valid() bool { return s == StatusPending || s == StatusComplete }

type ReviewType string

const (
	ReviewScheduled ReviewType = "Scheduled"
	ReviewAdHoc     ReviewType = "Ad-hoc"
)

func (t ReviewType) Valid() bool { return t == ReviewScheduled || t == ReviewAdHoc }

type Specialty string

const (
	SpecialtyMedicine       Specialty = "Medicine"
	SpecialtyTraumaOrtho    Specialty = "T+O"
	SpecialtyGeneralSurgery Specialty = "General Surgery"
)

func (s Specialty) Valid() bool {
	return s == SpecialtyMedicine || s == SpecialtyTraumaOrtho || s == SpecialtyGeneralSurgery
}

// ReviewDate is one night the patient should be seen. CompletedAt is set
// once that night's review is done.
type ReviewDate struct {
	Date        string     `json:"date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (d ReviewDate) Completed() bool { return d.CompletedAt != nil }

// Comment is an append-only note on the request thread.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a Hospital at Night review request.
type Entry struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	PatientID       uuid.UUID    `db:"patient_id" json:"patient_id"`
	ReviewDates     []ReviewDate `db:"review_dates" json:"review_dates"`
	Priority        Priority     `db:"priority" json:"priority"`
	AssignedRoles   []Role       `db:"assigned_roles" json:"assigned_roles"`
	ReasonForReview string       `db:"reason_for_review" json:"reason_for_review"`
	ReviewStatus    Status       `db:"review_status" json:"review_status"`
	ReviewType      ReviewType   `db:"review_type" json:"review_type"`
	Specialty       Specialty    `db:"specialty" json:"specialty"`
	StatusChangedAt *time.Time   `db:"status_changed_at" json:"status_changed_at"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	CreatedBy       string       `db:"created_by" json:"created_by"`
	Comments        []Comment    `db:"comments" json:"comments"`
}

// HasRole reports whether any of roles is assigned to the entry.
func (e *Entry) HasRole(roles ...Role) bool {
	for _, have := range e.AssignedRoles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasDate reports whether date is one of the review dates.
func (e *Entry) HasDate(date string) bool {
	for _, d := range e.ReviewDates {
		if d.Date == date {
			return true
		}
	}
	return false
}

// Validate checks a complete entry.
func (e *Entry) Validate() error {
	if e.PatientID == uuid.Nil {
		return apperr.Invalid("patient_id is required")
	}
	if len(e.ReviewDates) == 0 {
		return apperr.Invalid("at least one review date is required")
	}
	for _, d := range e.ReviewDates {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return apperr.Invalid("review date %q must be YYYY-MM-DD", d.Date)
		}
	}
	if !e.Priority.Valid() {
		return apperr.Invalid("priority must be one of High, Medium, Low")
	}
	if err := validateRoles(e.AssignedRoles); err != nil {
		return err
	}
	if strings.TrimSpace(e.ReasonForReview) == "" {
		return apperr.Invalid("reason_for_review is required")
	}
	if !e.ReviewStatus.Valid() {
		return apperr.Invalid("review_status must be Pending or Complete")
	}
	if !e.ReviewType.Valid() {
		return apperr.Invalid("review_type must be Scheduled or Ad-hoc")
	}
	if !e.Specialty.Valid() {
		return apperr.Invalid("specialty must be one of Medicine, T+O, General Surgery")
	}
	return nil
}

func validateRoles(roles []Role) error {
	if len(roles) == 0 {
		return apperr.Invalid("at least one assigned role is required")
	}
	for _, r := range roles {
		if !r.Valid() {
			return apperr.Invalid("unknown role %q", r)
		}
	}
	return nil
}

// DedupeRoles drops repeated roles, keeping first occurrences in order.
func DedupeRoles(roles []Role) []Role {
	seen := make(map[Role]bool, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// CleanDates trims dates and drops blank rows left by the request form.
func CleanDates(dates []ReviewDate) []ReviewDate {
	out := make([]ReviewDate, 0, len(dates))
	for _, d := range dates {
		d.Date = strings.TrimSpace(d.Date)
		if d.Date != "" {
			out = append(out, d)
		}
	}
	return out
}

// EntryUpdate replaces each supplied field wholesale. Nil fields are kept.
type EntryUpdate struct {
	ReviewDates     *[]ReviewDate `json:"review_dates"`
	Priority        *Priority     `json:"priority"`
	AssignedRoles   *[]Role       `json:"assigned_roles"`
	ReasonForReview *string       `json:"reason_for_review"`
	ReviewStatus    *Status       `json:"review_status"`
	ReviewType      *ReviewType   `json:"review_type"`
	Specialty       *Specialty    `json:"specialty"`
	StatusChangedAt *time.Time    `json:"status_changed_at"`
	Comments        *[]Comment    `json:"comments"`
}

func (u *EntryUpdate) Apply(e *Entry) {
	if u.ReviewDates != nil {
		e.ReviewDates = CleanDates(*u.ReviewDates)
	}
	if u.Priority != nil {
		e.Priority = *u.Priority
	}
	if u.AssignedRoles != nil {
		e.AssignedRoles = DedupeRoles(*u.AssignedRoles)
	}
	if u.ReasonForReview != nil {
		e.ReasonForReview = *u.ReasonForReview
	}
	if u.ReviewStatus != nil {
		e.ReviewStatus = *u.ReviewStatus
	}
	if u.ReviewType != nil {
		e.ReviewType = *u.ReviewType
	}
	if u.Specialty != nil {
		e.Specialty = *u.Specialty
	}
	if u.StatusChangedAt != nil {
		e.StatusChangedAt = u.StatusChangedAt
	}
	if u.Comments != nil {
		e.Comments = *u.Comments
	}
}
