// Package sandbox generates the demo ward dataset used by the key-value
// mode: patients across numbered wards, their recent SBAR handover notes
// and a Hospital at Night list. Output is reproducible for a given seed.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/domain/patient"
	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/auth"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	Wards              int   `json:"wards"`
	BedsPerWard        int   `json:"beds_per_ward"`
	MinPatientsPerWard int   `json:"min_patients_per_ward"`
	MaxPatientsPerWard int   `json:"max_patients_per_ward"`
	MaxNotesPerPatient int   `json:"max_notes_per_patient"`
	ReviewEntries      int   `json:"review_entries"`
	Seed               int64 `json:"seed"`
}

// DefaultSeedConfig fills twenty wards of 28 beds, 10 to 15 patients each.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Wards:              20,
		BedsPerWard:        28,
		MinPatientsPerWard: 10,
		MaxPatientsPerWard: 15,
		MaxNotesPerPatient: 3,
		ReviewEntries:      20,
	}
}

func (c SeedConfig) withDefaults() SeedConfig {
	d := DefaultSeedConfig()
	if c.Wards <= 0 {
		c.Wards = d.Wards
	}
	if c.BedsPerWard <= 0 {
		c.BedsPerWard = d.BedsPerWard
	}
	if c.MinPatientsPerWard <= 0 {
		c.MinPatientsPerWard = d.MinPatientsPerWard
	}
	if c.MaxPatientsPerWard < c.MinPatientsPerWard {
		c.MaxPatientsPerWard = c.MinPatientsPerWard
	}
	if c.MaxPatientsPerWard > c.BedsPerWard {
		c.MaxPatientsPerWard = c.BedsPerWard
	}
	if c.MinPatientsPerWard > c.MaxPatientsPerWard {
		c.MinPatientsPerWard = c.MaxPatientsPerWard
	}
	if c.MaxNotesPerPatient <= 0 {
		c.MaxNotesPerPatient = d.MaxNotesPerPatient
	}
	if c.ReviewEntries < 0 {
		c.ReviewEntries = 0
	}
	return c
}

// Dataset is one generated demo ward population.
type Dataset struct {
	Patients []*patient.Patient
	Notes    []*handover.Note
	Entries  []*outofhours.Entry
}

// SeedResult summarizes a seed run. Skipped is set when the store was
// already initialized.
type SeedResult struct {
	Patients      int           `json:"patients"`
	HandoverNotes int           `json:"handover_notes"`
	ReviewEntries int           `json:"review_entries"`
	Skipped       bool          `json:"skipped"`
	Duration      time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// DataGenerator produces deterministic demo records relative to now.
type DataGenerator struct {
	rng *rand.Rand
	now time.Time
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed
// is 0 a time-based seed is chosen.
func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{rng: rand.New(rand.NewSource(seed)), now: now}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// between returns an int in [lo, hi].
func (g *DataGenerator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *DataGenerator) day(offset int) string {
	return g.now.AddDate(0, 0, offset).Format(patient.DateLayout)
}

// nhsNumber returns ten digits with a valid modulus 11 check digit.
func (g *DataGenerator) nhsNumber() string {
	for {
		digits := make([]byte, 9)
		sum := 0
		for i := range digits {
			d := g.rng.Intn(10)
			if i == 0 && d == 0 {
				d = 4
			}
			digits[i] = byte('0' + d)
			sum += d * (10 - i)
		}
		check := 11 - sum%11
		if check == 11 {
			check = 0
		}
		if check == 10 {
			continue
		}
		return string(digits) + strconv.Itoa(check)
	}
}

func (g *DataGenerator) dateOfBirth() string {
	var lo, hi int
	switch roll := g.rng.Float64(); {
	case roll < 0.1:
		lo, hi = 18, 35
	case roll < 0.25:
		lo, hi = 36, 50
	case roll < 0.5:
		lo, hi = 51, 65
	case roll < 0.8:
		lo, hi = 66, 80
	default:
		lo, hi = 81, 98
	}
	age := g.between(lo, hi)
	return time.Date(g.now.Year()-age, time.Month(g.between(1, 12)), g.between(1, 28), 0, 0, 0, 0, time.UTC).
		Format(patient.DateLayout)
}

// Patient generates an active patient in ward and bed.
func (g *DataGenerator) Patient(ward, bed string) *patient.Patient {
	first := g.pick(firstNamesFemale)
	if g.rng.Intn(2) == 0 {
		first = g.pick(firstNamesMale)
	}
	news := g.rng.Intn(5)
	if g.rng.Float64() >= 0.7 {
		news = g.between(4, 11)
	}
	created := g.now.UTC()
	return &patient.Patient{
		ID:                  uuid.New(),
		NHSNumber:           g.nhsNumber(),
		FirstName:           first,
		LastName:            g.pick(lastNames),
		DateOfBirth:         g.dateOfBirth(),
		Ward:                ward,
		BedNumber:           bed,
		Consultant:          g.pick(consultants),
		AdmissionDate:       g.day(-g.between(1, 14)),
		Diagnosis:           g.pick(diagnoses),
		Allergies:           g.pick(allergies),
		ResuscitationStatus: resusStatuses[g.rng.Intn(len(resusStatuses))],
		EarlyWarningScore:   &news,
		IsActive:            true,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
}

// Note generates a handover note written daysAgo days before now.
func (g *DataGenerator) Note(p *patient.Patient, daysAgo int) *handover.Note {
	written := g.now.AddDate(0, 0, -daysAgo).Add(-time.Duration(g.rng.Intn(120)) * time.Minute)
	return &handover.Note{
		ID:             uuid.New(),
		PatientID:      p.ID,
		CreatedBy:      g.pick(nurseNames),
		CreatedAt:      written.UTC(),
		ShiftDate:      g.day(-daysAgo),
		ShiftType:      shiftTypes[g.rng.Intn(len(shiftTypes))],
		Situation:      fmt.Sprintf(g.pick(situations), p.Diagnosis),
		Background:     g.pick(backgrounds),
		Assessment:     g.pick(assessments),
		Recommendation: g.pick(recommendations),
	}
}

// Entry generates the index-th Hospital at Night request. The first five
// are High priority and between them cover every role.
func (g *DataGenerator) Entry(p *patient.Patient, index int) *outofhours.Entry {
	priority := outofhours.PriorityLow
	switch {
	case index < 5:
		priority = outofhours.PriorityHigh
	case index < 10:
		priority = outofhours.PriorityMedium
	}

	var roles []outofhours.Role
	if index < len(outofhours.AllRoles) {
		roles = []outofhours.Role{outofhours.AllRoles[index]}
		if g.rng.Intn(2) == 0 {
			roles = append(roles, outofhours.AllRoles[(index+1)%len(outofhours.AllRoles)])
		}
	} else {
		for _, i := range g.rng.Perm(len(outofhours.AllRoles))[:g.between(1, 2)] {
			roles = append(roles, outofhours.AllRoles[i])
		}
	}

	var dates []outofhours.ReviewDate
	for _, offset := range []int{0, 1} {
		if len(dates) == 0 || g.rng.Intn(2) == 0 {
			dates = append(dates, outofhours.ReviewDate{Date: g.day(offset)})
		}
	}

	reviewType := outofhours.ReviewScheduled
	if g.rng.Float64() < 0.2 {
		reviewType = outofhours.ReviewAdHoc
	}

	created := g.now.Add(-time.Duration(g.rng.Intn(8*60)) * time.Minute).UTC()
	e := &outofhours.Entry{
		ID:              uuid.New(),
		PatientID:       p.ID,
		ReviewDates:     dates,
		Priority:        priority,
		AssignedRoles:   roles,
		ReasonForReview: g.pick(reviewReasons),
		ReviewStatus:    outofhours.StatusPending,
		ReviewType:      reviewType,
		Specialty:       specialties[g.rng.Intn(len(specialties))],
		CreatedAt:       created,
		CreatedBy:       g.pick(nurseNames),
		Comments:        []outofhours.Comment{},
	}
	if g.rng.Float64() < 0.25 {
		e.ApplyStatus(outofhours.StatusComplete, false, g.now)
	}
	if g.rng.Float64() < 0.3 {
		e.Comments = append(e.Comments, outofhours.Comment{
			ID:        uuid.New(),
			Text:      g.pick(commentTexts),
			CreatedBy: g.pick(doctorNames),
			CreatedAt: created.Add(30 * time.Minute),
		})
	}
	return e
}

// Generate builds a full dataset for cfg.
func (g *DataGenerator) Generate(cfg SeedConfig) *Dataset {
	cfg = cfg.withDefaults()
	ds := &Dataset{}

	for w := 1; w <= cfg.Wards; w++ {
		ward := fmt.Sprintf("Ward %d", w)
		count := g.between(cfg.MinPatientsPerWard, cfg.MaxPatientsPerWard)
		beds := g.rng.Perm(cfg.BedsPerWard)[:count]
		sort.Ints(beds)

		for _, bed := range beds {
			p := g.Patient(ward, strconv.Itoa(bed+1))
			ds.Patients = append(ds.Patients, p)
			notes := g.between(1, cfg.MaxNotesPerPatient)
			for d := 0; d < notes; d++ {
				ds.Notes = append(ds.Notes, g.Note(p, d))
			}
		}
	}

	n := cfg.ReviewEntries
	if n > len(ds.Patients) {
		n = len(ds.Patients)
	}
	for i, idx := range g.rng.Perm(len(ds.Patients))[:n] {
		ds.Entries = append(ds.Entries, g.Entry(ds.Patients[idx], i))
	}
	return ds
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// Store is the key-value surface the seeder writes through.
type Store interface {
	Initialized(ctx context.Context) (bool, error)
	MarkInitialized(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
	Put(ctx context.Context, collection, id string, v interface{}) error
}

// Seeder loads a generated dataset into a key-value store once.
type Seeder struct {
	store  Store
	config SeedConfig
	now    func() time.Time
	mu     sync.Mutex
}

func NewSeeder(store Store, config SeedConfig) *Seeder {
	return &Seeder{store: store, config: config, now: time.Now}
}

// Seed writes demo data when the store has not been initialized. force
// wipes the store first and always seeds.
func (s *Seeder) Seed(ctx context.Context, force bool) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	log := zerolog.Ctx(ctx)

	if force {
		if err := s.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
	} else {
		done, err := s.store.Initialized(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			log.Debug().Msg("demo data already present, skipping seed")
			return &SeedResult{Skipped: true}, nil
		}
	}

	ds := NewDataGenerator(s.config.Seed, s.now()).Generate(s.config)
	if err := s.write(ctx, ds); err != nil {
		return nil, err
	}
	if _, err := s.store.MarkInitialized(ctx); err != nil {
		return nil, err
	}

	result := &SeedResult{
		Patients:      len(ds.Patients),
		HandoverNotes: len(ds.Notes),
		ReviewEntries: len(ds.Entries),
		Duration:      time.Since(start),
	}
	log.Info().
		Int("patients", result.Patients).
		Int("handover_notes", result.HandoverNotes).
		Int("review_entries", result.ReviewEntries).
		Dur("duration", result.Duration).
		Msg("demo data seeded")
	return result, nil
}

func (s *Seeder) write(ctx context.Context, ds *Dataset) error {
	for _, p := range ds.Patients {
		if err := s.store.Put(ctx, patient.Collection, p.ID.String(), p); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
	}
	for _, n := range ds.Notes {
		if err := s.store.Put(ctx, handover.Collection, n.ID.String(), n); err != nil {
			return fmt.Errorf("seed handover note: %w", err)
		}
	}
	for _, e := range ds.Entries {
		if err := s.store.Put(ctx, outofhours.Collection, e.ID.String(), e); err != nil {
			return fmt.Errorf("seed review entry: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// SeedHandler lets administrators reload the demo dataset.
type SeedHandler struct {
	seeder *Seeder
}

func NewSeedHandler(seeder *Seeder) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

func (h *SeedHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sandbox", auth.RequireRole(auth.RoleAdmin))
	g.POST("/seed", h.handleSeed)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	result, err := h.seeder.Seed(c.Request().Context(), force)
	if err != nil {
		return apperr.HTTP(err, "failed to seed demo data")
	}
	return c.JSON(http.StatusOK, result)
}
