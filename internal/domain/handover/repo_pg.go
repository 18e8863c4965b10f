package handover

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

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &noteRepoPG{pool: pool}
}

func (r *noteRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const noteCols = `id, patient_id, created_by, created_at, shift_date, shift_type,
	situation, background, assessment, recommendation`

func (r *noteRepoPG) scanNote(row pgx.Row) (*Note, error) {
	var n Note
	var shift string
	err := row.Scan(&n.ID, &n.PatientID, &n.CreatedBy, &n.CreatedAt, &n.ShiftDate, &shift,
		&n.Situation, &n.Background, &n.Assessment, &n.Recommendation)
	if err != nil {
		return nil, err
	}
	n.ShiftType = ShiftType(shift)
	return &n, nil
}

func (r *noteRepoPG) query(ctx context.Context, where string, args ...interface{}) ([]*Note, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+noteCols+` FROM handover_note `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list handover notes: %w", err)
	}
	defer rows.Close()

	var items []*Note
	for rows.Next() {
		n, err := r.scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan handover note: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *noteRepoPG) List(ctx context.Context) ([]*Note, error) {
	return r.query(ctx, "")
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	return r.query(ctx, "WHERE patient_id = $1", patientID)
}

func (r *noteRepoPG) ListByShiftDate(ctx context.Context, shiftDate string) ([]*Note, error) {
	return r.query(ctx, "WHERE shift_date = $1", shiftDate)
}

func (r *noteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := r.scanNote(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM handover_note WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("handover note")
	}
	if err != nil {
		return nil, fmt.Errorf("get handover note %s: %w", id, err)
	}
	return n, nil
}

func (r *noteRepoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Note, error) {
	n, err := r.scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM handover_note WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest handover note for %s: %w", patientID, err)
	}
	return n, nil
}

func (r *noteRepoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO handover_note (id, patient_id, created_by, created_at, shift_date, shift_type,
			situation, background, assessment, recommendation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		n.ID, n.PatientID, n.CreatedBy, n.CreatedAt, n.ShiftDate, string(n.ShiftType),
		n.Situation, n.Background, n.Assessment, n.Recommendation)
	if err != nil {
		return fmt.Errorf("insert handover note: %w", err)
	}
	return nil
}

func (r *noteRepoPG) UpdateContent(ctx context.Context, n *Note) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover_note SET situation=$2, background=$3, assessment=$4, recommendation=$5
		WHERE id = $1`,
		n.ID, n.Situation, n.Background, n.Assessment, n.Recommendation)
	if err != nil {
		return fmt.Errorf("update handover note %s: %w", n.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("handover note")
	}
	return nil
}

func (r *noteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM handover_note WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete handover note %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("handover note")
	}
	return nil
}

func (r *noteRepoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM handover_note WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("delete handover notes of %s: %w", patientID, err)
	}
	return int(tag.RowsAffected()), nil
}
