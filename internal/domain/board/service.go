package board

import (
	"context"
	"fmt"
	"time"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/domain/patient"
	"github.com/HutchE92/handover/internal/platform/archive"
)

type PatientSource interface {
	List(ctx context.Context, opts patient.ListOptions) ([]*patient.Patient, error)
}

type NoteSource interface {
	List(ctx context.Context, f handover.Filter) ([]*handover.Note, error)
}

type EntrySource interface {
	List(ctx context.Context) ([]*outofhours.Entry, error)
}

// Archiver stores exported workbooks and returns their location.
type Archiver interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Service struct {
	patients PatientSource
	notes    NoteSource
	entries  EntrySource
	archiver Archiver
	now      func() time.Time
}

func NewService(patients PatientSource, notes NoteSource, entries EntrySource) *Service {
	return &Service{patients: patients, notes: notes, entries: entries, now: time.Now}
}

// SetArchiver enables ArchiveWardSheet.
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

func (s *Service) activePatients(ctx context.Context) ([]*patient.Patient, error) {
	return s.patients.List(ctx, patient.ListOptions{})
}

func (s *Service) allNotes(ctx context.Context) ([]*handover.Note, error) {
	return s.notes.List(ctx, handover.Filter{})
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	patients, err := s.activePatients(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.allNotes(ctx)
	if err != nil {
		return nil, err
	}
	return BuildDashboard(patients, notes, s.now().Format(handover.DateLayout)), nil
}

// Wards lists the wards with active patients, numerically ordered.
func (s *Service) Wards(ctx context.Context) ([]string, error) {
	patients, err := s.activePatients(ctx)
	if err != nil {
		return nil, err
	}
	return OrderWards(patient.DistinctWards(patients)), nil
}

func (s *Service) WardBoard(ctx context.Context, ward string, highNEWSOnly bool) (*WardBoard, error) {
	patients, err := s.patients.List(ctx, patient.ListOptions{Ward: ward})
	if err != nil {
		return nil, err
	}
	notes, err := s.allNotes(ctx)
	if err != nil {
		return nil, err
	}
	return BuildWardBoard(ward, patients, notes, highNEWSOnly), nil
}

// Entries returns the joined Hospital at Night list. Entries of discharged
// patients keep their patient details.
func (s *Service) Entries(ctx context.Context, f EntryFilter, opt SortOption) ([]EntryView, error) {
	views, err := s.joinedEntries(ctx)
	if err != nil {
		return nil, err
	}
	views = FilterEntries(views, f)
	SortEntries(views, opt)
	return views, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	views, err := s.joinedEntries(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(views), nil
}

func (s *Service) joinedEntries(ctx context.Context) ([]EntryView, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.List(ctx, patient.ListOptions{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	notes, err := s.allNotes(ctx)
	if err != nil {
		return nil, err
	}
	return JoinEntries(entries, patients, notes), nil
}

// WardSheet renders the full ward board as XLSX.
func (s *Service) WardSheet(ctx context.Context, ward string) ([]byte, string, error) {
	b, err := s.WardBoard(ctx, ward, false)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	data, err := WardSheet(b, now)
	if err != nil {
		return nil, "", fmt.Errorf("render %s sheet: %w", ward, err)
	}
	return data, WardSheetFilename(ward, now), nil
}

// ArchiveWardSheet uploads the ward sheet and returns where it was stored.
func (s *Service) ArchiveWardSheet(ctx context.Context, ward string) (string, error) {
	if s.archiver == nil {
		return "", archive.ErrDisabled
	}
	data, name, err := s.WardSheet(ctx, ward)
	if err != nil {
		return "", err
	}
	return s.archiver.Upload(ctx, "wards/"+slug(ward)+"/"+name, data, XLSXMIMEType)
}
