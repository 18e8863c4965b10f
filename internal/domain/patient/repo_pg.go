package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, nhs_number, first_name, last_name, date_of_birth, ward, bed_number,
	consultant, admission_date, diagnosis, allergies, resuscitation_status,
	early_warning_score, is_active, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var resus string
	err := row.Scan(&p.ID, &p.NHSNumber, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Ward, &p.BedNumber,
		&p.Consultant, &p.AdmissionDate, &p.Diagnosis, &p.Allergies, &resus,
		&p.EarlyWarningScore, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ResuscitationStatus = ResuscitationStatus(resus)
	return &p, nil
}

func (r *patientRepoPG) List(ctx context.Context, activeOnly bool) ([]*Patient, error) {
	q := `SELECT ` + patientCols + ` FROM patient`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY ward, bed_number`

	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return p, nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("check patient %s: %w", id, err)
	}
	return ok, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, nhs_number, first_name, last_name, date_of_birth, ward, bed_number,
			consultant, admission_date, diagnosis, allergies, resuscitation_status,
			early_warning_score, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.NHSNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Ward, p.BedNumber,
		p.Consultant, p.AdmissionDate, p.Diagnosis, p.Allergies, string(p.ResuscitationStatus),
		p.EarlyWarningScore, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET nhs_number=$2, first_name=$3, last_name=$4, date_of_birth=$5, ward=$6,
			bed_number=$7, consultant=$8, admission_date=$9, diagnosis=$10, allergies=$11,
			resuscitation_status=$12, early_warning_score=$13, is_active=$14, updated_at=$15
		WHERE id = $1`,
		p.ID, p.NHSNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Ward,
		p.BedNumber, p.Consultant, p.AdmissionDate, p.Diagnosis, p.Allergies,
		string(p.ResuscitationStatus), p.EarlyWarningScore, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

// Delete removes the patient; handover notes and review entries follow via
// ON DELETE CASCADE.
func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *patientRepoPG) Wards(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT DISTINCT ward FROM patient WHERE is_active ORDER BY ward`)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer rows.Close()

	var wards []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan ward: %w", err)
		}
		wards = append(wards, w)
	}
	return wards, rows.Err()
}
