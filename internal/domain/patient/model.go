package patient

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/HutchE92/handover/internal/platform/apperr"
)

// DateLayout is the wire and storage format of date-only fields.
const DateLayout = "2006-01-02"

// HighNEWSThreshold is the early warning score at or above which a patient
// is flagged for escalation on ward boards.
const HighNEWSThreshold = 5

type ResuscitationStatus string

const (
	ResusFull         ResuscitationStatus = "Full"
	ResusDNACPR       ResuscitationStatus = "DNACPR"
	ResusNotDiscussed ResuscitationStatus = "Not Discussed"
)

func (r ResuscitationStatus) Valid() bool {
	switch r {
	case ResusFull, ResusDNACPR, ResusNotDiscussed:
		return true
	}
	return false
}

// Patient is an inpatient on a ward.
type Patient struct {
	ID                  uuid.UUID           `db:"id" json:"id"`
	NHSNumber           string              `db:"nhs_number" json:"nhs_number"`
	FirstName           string              `db:"first_name" json:"first_name"`
	LastName            string              `db:"last_name" json:"last_name"`
	DateOfBirth         string              `db:"date_of_birth" json:"date_of_birth"`
	Ward                string              `db:"ward" json:"ward"`
	BedNumber           string              `db:"bed_number" json:"bed_number"`
	Consultant          string              `db:"consultant" json:"consultant"`
	AdmissionDate       string              `db:"admission_date" json:"admission_date"`
	Diagnosis           string              `db:"diagnosis" json:"diagnosis"`
	Allergies           string              `db:"allergies" json:"allergies"`
	ResuscitationStatus ResuscitationStatus `db:"resuscitation_status" json:"resuscitation_status"`
	EarlyWarningScore   *int                `db:"early_warning_score" json:"early_warning_score"`
	IsActive            bool                `db:"is_active" json:"is_active"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age returns completed years at now, or -1 when the date of birth does not
// parse.
func (p *Patient) Age(now time.Time) int {
	dob, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return -1
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func (p *Patient) HighNEWS() bool {
	return p.EarlyWarningScore != nil && *p.EarlyWarningScore >= HighNEWSThreshold
}

// NEWSBand classifies the early warning score: "none" when unscored, then
// "low" (0-4), "medium" (5-6) and "high" (7+).
func (p *Patient) NEWSBand() string {
	switch {
	case p.EarlyWarningScore == nil:
		return "none"
	case *p.EarlyWarningScore <= 4:
		return "low"
	case *p.EarlyWarningScore <= 6:
		return "medium"
	default:
		return "high"
	}
}

// Validate checks the record invariants. NHS number is expected normalized.
func (p *Patient) Validate() error {
	if !ValidNHSNumber(p.NHSNumber) {
		return apperr.Invalid("nhs_number must be exactly 10 digits")
	}
	required := []struct{ name, value string }{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"date_of_birth", p.DateOfBirth},
		{"ward", p.Ward},
		{"bed_number", p.BedNumber},
		{"consultant", p.Consultant},
		{"admission_date", p.AdmissionDate},
		{"diagnosis", p.Diagnosis},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperr.Invalid("%s is required", f.name)
		}
	}
	if _, err := time.Parse(DateLayout, p.DateOfBirth); err != nil {
		return apperr.Invalid("date_of_birth must be YYYY-MM-DD")
	}
	if _, err := time.Parse(DateLayout, p.AdmissionDate); err != nil {
		return apperr.Invalid("admission_date must be YYYY-MM-DD")
	}
	if !p.ResuscitationStatus.Valid() {
		return apperr.Invalid("resuscitation_status must be one of Full, DNACPR, Not Discussed")
	}
	if s := p.EarlyWarningScore; s != nil && (*s < 0 || *s > 20) {
		return apperr.Invalid("early_warning_score must be between 0 and 20")
	}
	return nil
}

var nhsNumberPattern = regexp.MustCompile(`^\d{10}$`)

// NormalizeNHSNumber strips all whitespace.
func NormalizeNHSNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func ValidNHSNumber(s string) bool {
	return nhsNumberPattern.MatchString(NormalizeNHSNumber(s))
}

// FormatNHSNumber renders a 10 digit number as "XXX XXXX XXX". Anything
// else is returned unchanged.
func FormatNHSNumber(s string) string {
	n := NormalizeNHSNumber(s)
	if !nhsNumberPattern.MatchString(n) {
		return s
	}
	return n[:3] + " " + n[3:7] + " " + n[7:]
}

// OptionalInt distinguishes an absent JSON field from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return apperr.Invalid("early_warning_score must be a whole number or null")
	}
	o.Value = &v
	return nil
}

// Update holds the fields of a partial patient update. Nil fields are left
// unchanged.
type Update struct {
	NHSNumber           *string              `json:"nhs_number"`
	FirstName           *string              `json:"first_name"`
	LastName            *string              `json:"last_name"`
	DateOfBirth         *string              `json:"date_of_birth"`
	Ward                *string              `json:"ward"`
	BedNumber           *string              `json:"bed_number"`
	Consultant          *string              `json:"consultant"`
	AdmissionDate       *string              `json:"admission_date"`
	Diagnosis           *string              `json:"diagnosis"`
	Allergies           *string              `json:"allergies"`
	ResuscitationStatus *ResuscitationStatus `json:"resuscitation_status"`
	EarlyWarningScore   OptionalInt          `json:"early_warning_score"`
}

// Apply merges the supplied fields into p.
func (u *Update) Apply(p *Patient) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if u.NHSNumber != nil {
		p.NHSNumber = NormalizeNHSNumber(*u.NHSNumber)
	}
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.DateOfBirth, u.DateOfBirth)
	set(&p.Ward, u.Ward)
	set(&p.BedNumber, u.BedNumber)
	set(&p.Consultant, u.Consultant)
	set(&p.AdmissionDate, u.AdmissionDate)
	set(&p.Diagnosis, u.Diagnosis)
	set(&p.Allergies, u.Allergies)
	if u.ResuscitationStatus != nil {
		p.ResuscitationStatus = *u.ResuscitationStatus
	}
	if u.EarlyWarningScore.Set {
		p.EarlyWarningScore = u.EarlyWarningScore.Value
	}
}

// ListOptions narrows a patient listing.
type ListOptions struct {
	IncludeInactive bool
	Ward            string
	Query           string
}

// Search keeps patients whose name, NHS number or diagnosis contains q,
// case-insensitively. Spaces in q are ignored when matching NHS numbers.
func Search(patients []*Patient, q string) []*Patient {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return patients
	}
	digits := NormalizeNHSNumber(q)
	out := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.FullName()), q) ||
			(digits != "" && strings.Contains(p.NHSNumber, digits)) ||
			strings.Contains(strings.ToLower(p.Diagnosis), q) {
			out = append(out, p)
		}
	}
	return out
}
